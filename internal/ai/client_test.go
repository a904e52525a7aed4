package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newStubServer(t *testing.T, reply string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		resp := map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"role": "assistant", "content": reply}},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
}

func TestGenerateActionPoints(t *testing.T) {
	srv := newStubServer(t, `[{"title":"Send the revised budget"},{"title":"Book the demo room"}]`)
	defer srv.Close()

	client := NewClient(Config{APIKey: "test", BaseURL: srv.URL, Model: "test-model", Timeout: 5 * time.Second})

	suggestions, err := client.GenerateActionPoints(context.Background(), "we agreed on the budget", nil)
	if err != nil {
		t.Fatalf("GenerateActionPoints() error = %v", err)
	}
	if len(suggestions) != 2 {
		t.Fatalf("expected 2 suggestions, got %d", len(suggestions))
	}
	if suggestions[0].Title != "Send the revised budget" {
		t.Errorf("unexpected title: %q", suggestions[0].Title)
	}
}

func TestGenerateActionPointsUnwrapsProse(t *testing.T) {
	srv := newStubServer(t, "Here are the action points:\n```json\n[{\"title\":\"Follow up with legal\"}]\n```")
	defer srv.Close()

	client := NewClient(Config{APIKey: "test", BaseURL: srv.URL, Timeout: 5 * time.Second})

	suggestions, err := client.GenerateActionPoints(context.Background(), "transcript", []string{"Existing task"})
	if err != nil {
		t.Fatalf("GenerateActionPoints() error = %v", err)
	}
	if len(suggestions) != 1 || suggestions[0].Title != "Follow up with legal" {
		t.Fatalf("unexpected suggestions: %+v", suggestions)
	}
}

func TestGenerateActionPointsMalformedReply(t *testing.T) {
	srv := newStubServer(t, "I could not find any action points, sorry!")
	defer srv.Close()

	client := NewClient(Config{APIKey: "test", BaseURL: srv.URL, Timeout: 5 * time.Second})

	_, err := client.GenerateActionPoints(context.Background(), "transcript", nil)
	if err == nil {
		t.Fatal("expected error for non-JSON reply")
	}
}

func TestGenerateActionPointsEmptyArray(t *testing.T) {
	srv := newStubServer(t, `[]`)
	defer srv.Close()

	client := NewClient(Config{APIKey: "test", BaseURL: srv.URL, Timeout: 5 * time.Second})

	suggestions, err := client.GenerateActionPoints(context.Background(), "nothing actionable was said", nil)
	if err != nil {
		t.Fatalf("GenerateActionPoints() error = %v", err)
	}
	if len(suggestions) != 0 {
		t.Fatalf("expected no suggestions, got %+v", suggestions)
	}
}

func TestParseSuggestionsAllBlankTitles(t *testing.T) {
	suggestions, err := parseSuggestions(`[{"title":"   "},{"title":""}]`)
	if err != nil {
		t.Fatalf("parseSuggestions() error = %v", err)
	}
	if len(suggestions) != 0 {
		t.Fatalf("expected no suggestions, got %+v", suggestions)
	}
}

func TestParseSuggestionsDropsBlankTitles(t *testing.T) {
	suggestions, err := parseSuggestions(`[{"title":"  Ship it  "},{"title":"   "}]`)
	if err != nil {
		t.Fatalf("parseSuggestions() error = %v", err)
	}
	if len(suggestions) != 1 || suggestions[0].Title != "Ship it" {
		t.Fatalf("unexpected suggestions: %+v", suggestions)
	}
}
