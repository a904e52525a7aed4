package app

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"minutes/api/internal/ai"
	"minutes/api/internal/store"
)

func doRequest(t *testing.T, server *HTTPServer, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	server.Handler().ServeHTTP(rr, req)
	return rr
}

func decodeEnvelope(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var envelope map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode response %q: %v", rr.Body.String(), err)
	}
	return envelope
}

func errorCode(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	envelope := decodeEnvelope(t, rr)
	errObj, ok := envelope["error"].(map[string]any)
	if !ok {
		t.Fatalf("expected error envelope, got %q", rr.Body.String())
	}
	code, _ := errObj["code"].(string)
	return code
}

func dataObject(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	envelope := decodeEnvelope(t, rr)
	data, ok := envelope["data"].(map[string]any)
	if !ok {
		t.Fatalf("expected data envelope, got %q", rr.Body.String())
	}
	return data
}

func bearerFor(t *testing.T, svc *Service, userID string) string {
	t.Helper()
	session, err := svc.CreateSession(context.Background(), userID)
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	return session.Token
}

func TestHealthEndpoint(t *testing.T) {
	server := NewHTTPServer(newTestService(&fakeStore{}, &fakeGit{}), "*")

	rr := doRequest(t, server, http.MethodGet, "/api/health", "", nil)
	if rr.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", rr.Code)
	}
	if rr.Header().Get("X-Request-ID") == "" {
		t.Error("expected request ID header")
	}
}

func TestReadyEndpointReportsDatabaseFailure(t *testing.T) {
	fs := &fakeStore{
		pingFn: func(context.Context) error {
			return context.DeadlineExceeded
		},
	}
	server := NewHTTPServer(newTestService(fs, &fakeGit{}), "*")

	rr := doRequest(t, server, http.MethodGet, "/api/ready", "", nil)
	if rr.Code != http.StatusServiceUnavailable {
		t.Errorf("expected status 503, got %d", rr.Code)
	}
}

func TestProtectedRoutesRequireAuth(t *testing.T) {
	server := NewHTTPServer(newTestService(&fakeStore{}, &fakeGit{}), "*")

	for _, route := range []struct {
		method, path string
	}{
		{http.MethodGet, "/api/threads"},
		{http.MethodPost, "/api/threads"},
		{http.MethodGet, "/api/transcripts/t-1"},
		{http.MethodPatch, "/api/action-points/ap-1"},
		{http.MethodGet, "/api/search?q=x"},
	} {
		rr := doRequest(t, server, route.method, route.path, "", nil)
		if rr.Code != http.StatusUnauthorized {
			t.Errorf("%s %s: expected 401, got %d", route.method, route.path, rr.Code)
		}
		if code := errorCode(t, rr); code != "AUTH_REQUIRED" {
			t.Errorf("%s %s: expected AUTH_REQUIRED, got %s", route.method, route.path, code)
		}
	}
}

func TestCreateThreadOverHTTP(t *testing.T) {
	svc := newTestService(&fakeStore{}, &fakeGit{})
	server := NewHTTPServer(svc, "*")
	token := bearerFor(t, svc, "user-1")

	rr := doRequest(t, server, http.MethodPost, "/api/threads", token, map[string]any{"name": "Standup"})
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rr.Code, rr.Body.String())
	}
	data := dataObject(t, rr)
	if data["name"] != "Standup" {
		t.Errorf("expected thread name in data envelope, got %v", data)
	}
}

func TestCreateThreadDuplicateReturnsConflict(t *testing.T) {
	fs := &fakeStore{
		threadNameExistsFn: func(context.Context, string, string, string) (bool, error) {
			return true, nil
		},
	}
	svc := newTestService(fs, &fakeGit{})
	server := NewHTTPServer(svc, "*")
	token := bearerFor(t, svc, "user-1")

	rr := doRequest(t, server, http.MethodPost, "/api/threads", token, map[string]any{"name": "Standup"})
	if rr.Code != http.StatusConflict {
		t.Errorf("expected 409, got %d", rr.Code)
	}
	if code := errorCode(t, rr); code != "THREAD_NAME_DUPLICATE" {
		t.Errorf("expected THREAD_NAME_DUPLICATE, got %s", code)
	}
}

func TestDeleteThreadReturnsNoContent(t *testing.T) {
	svc := newTestService(&fakeStore{}, &fakeGit{})
	server := NewHTTPServer(svc, "*")
	token := bearerFor(t, svc, "user-1")

	rr := doRequest(t, server, http.MethodDelete, "/api/threads/0b6e7a3c-8a94-4f8e-9c2d-1f5a6b7c8d9e", token, nil)
	if rr.Code != http.StatusNoContent {
		t.Errorf("expected 204, got %d", rr.Code)
	}
}

func TestGetForeignTranscriptReturnsNotFound(t *testing.T) {
	fs := &fakeStore{
		getTranscriptOwnedFn: func(_ context.Context, transcriptID string) (store.OwnedTranscript, error) {
			return store.OwnedTranscript{
				Transcript:    store.Transcript{ID: transcriptID, ThreadID: "thread-9", Content: "secret"},
				ThreadOwnerID: "someone-else",
			}, nil
		},
	}
	svc := newTestService(fs, &fakeGit{})
	server := NewHTTPServer(svc, "*")
	token := bearerFor(t, svc, "user-1")

	rr := doRequest(t, server, http.MethodGet, "/api/transcripts/7c1d2e3f-4a5b-6c7d-8e9f-0a1b2c3d4e5f", token, nil)
	if rr.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rr.Code)
	}
	if code := errorCode(t, rr); code != "TRANSCRIPT_NOT_FOUND" {
		t.Errorf("expected TRANSCRIPT_NOT_FOUND, got %s", code)
	}
	if strings.Contains(rr.Body.String(), "secret") {
		t.Error("foreign transcript content leaked in response")
	}
}

func TestUpdateTranscriptReportsSkippedGeneration(t *testing.T) {
	fs := &fakeStore{
		getTranscriptOwnedFn: func(_ context.Context, transcriptID string) (store.OwnedTranscript, error) {
			return store.OwnedTranscript{
				Transcript:    store.Transcript{ID: transcriptID, ThreadID: "thread-1", Content: "old"},
				ThreadOwnerID: "user-1",
			}, nil
		},
	}
	svc := newTestService(fs, &fakeGit{})
	server := NewHTTPServer(svc, "*")
	token := bearerFor(t, svc, "user-1")

	rr := doRequest(t, server, http.MethodPatch, "/api/transcripts/7c1d2e3f-4a5b-6c7d-8e9f-0a1b2c3d4e5f", token, map[string]any{"content": "new notes"})
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	data := dataObject(t, rr)
	generation, ok := data["aiGeneration"].(map[string]any)
	if !ok {
		t.Fatalf("expected aiGeneration in response, got %v", data)
	}
	if generation["status"] != "skipped" {
		t.Errorf("expected skipped generation without a configured client, got %v", generation["status"])
	}
}

func TestUpdateTranscriptSurvivesGenerationFailure(t *testing.T) {
	fs := &fakeStore{
		getTranscriptOwnedFn: func(_ context.Context, transcriptID string) (store.OwnedTranscript, error) {
			return store.OwnedTranscript{
				Transcript:    store.Transcript{ID: transcriptID, ThreadID: "thread-1", Content: "old"},
				ThreadOwnerID: "user-1",
			}, nil
		},
	}
	svc := newTestService(fs, &fakeGit{})
	svc.ai = &fakeAI{
		generateFn: func(context.Context, string, []string) ([]ai.Suggestion, error) {
			return nil, context.DeadlineExceeded
		},
	}
	server := NewHTTPServer(svc, "*")
	token := bearerFor(t, svc, "user-1")

	rr := doRequest(t, server, http.MethodPatch, "/api/transcripts/7c1d2e3f-4a5b-6c7d-8e9f-0a1b2c3d4e5f", token, map[string]any{"content": "new notes"})
	if rr.Code != http.StatusOK {
		t.Fatalf("expected transcript update to succeed despite AI failure, got %d", rr.Code)
	}
	data := dataObject(t, rr)
	generation, _ := data["aiGeneration"].(map[string]any)
	if generation["status"] != "failed" {
		t.Errorf("expected failed generation status, got %v", generation)
	}
	if data["content"] != "new notes" {
		t.Errorf("expected persisted content in response, got %v", data["content"])
	}
}

func TestActionPointCompletedFilterValidation(t *testing.T) {
	fs := &fakeStore{
		getThreadOwnedFn: func(_ context.Context, ownerID, threadID string) (store.Thread, error) {
			return store.Thread{ID: threadID, OwnerID: ownerID}, nil
		},
	}
	svc := newTestService(fs, &fakeGit{})
	server := NewHTTPServer(svc, "*")
	token := bearerFor(t, svc, "user-1")

	rr := doRequest(t, server, http.MethodGet, "/api/threads/0b6e7a3c-8a94-4f8e-9c2d-1f5a6b7c8d9e/action-points?completed=banana", token, nil)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rr.Code)
	}
	if code := errorCode(t, rr); code != "VALIDATION_ERROR" {
		t.Errorf("expected VALIDATION_ERROR, got %s", code)
	}
}

func TestCreateActionPointAcceptsCompletedFlag(t *testing.T) {
	fs := &fakeStore{
		getThreadOwnedFn: func(_ context.Context, ownerID, threadID string) (store.Thread, error) {
			return store.Thread{ID: threadID, OwnerID: ownerID, Name: "Standup"}, nil
		},
	}
	svc := newTestService(fs, &fakeGit{})
	server := NewHTTPServer(svc, "*")
	token := bearerFor(t, svc, "user-1")

	rr := doRequest(t, server, http.MethodPost, "/api/threads/0b6e7a3c-8a94-4f8e-9c2d-1f5a6b7c8d9e/action-points", token, map[string]any{
		"title":       "Ship report",
		"isCompleted": true,
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rr.Code, rr.Body.String())
	}
	data := dataObject(t, rr)
	if data["isCompleted"] != true {
		t.Errorf("expected isCompleted=true to round-trip, got %v", data["isCompleted"])
	}
}

func TestExportRejectsUnknownFormat(t *testing.T) {
	svc := newTestService(&fakeStore{}, &fakeGit{})
	server := NewHTTPServer(svc, "*")
	token := bearerFor(t, svc, "user-1")

	rr := doRequest(t, server, http.MethodPost, "/api/threads/0b6e7a3c-8a94-4f8e-9c2d-1f5a6b7c8d9e/export", token, map[string]any{"format": "xlsx"})
	if rr.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rr.Code)
	}
}

func TestRegisterIssuesSession(t *testing.T) {
	svc := newTestService(&fakeStore{}, &fakeGit{})
	server := NewHTTPServer(svc, "*")

	rr := doRequest(t, server, http.MethodPost, "/api/auth/register", "", map[string]any{
		"email":       "avery@example.com",
		"password":    "correct-horse",
		"displayName": "Avery",
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rr.Code, rr.Body.String())
	}
	data := dataObject(t, rr)
	if data["accessToken"] == "" || data["refreshToken"] == "" {
		t.Errorf("expected both tokens in register response, got %v", data)
	}
}

func TestRegisterDuplicateEmailConflicts(t *testing.T) {
	fs := &fakeStore{
		getUserByEmailFn: func(_ context.Context, email string) (store.User, error) {
			return store.User{ID: "user-1", Email: email}, nil
		},
	}
	server := NewHTTPServer(newTestService(fs, &fakeGit{}), "*")

	rr := doRequest(t, server, http.MethodPost, "/api/auth/register", "", map[string]any{
		"email":       "avery@example.com",
		"password":    "correct-horse",
		"displayName": "Avery",
	})
	if rr.Code != http.StatusConflict {
		t.Errorf("expected 409, got %d", rr.Code)
	}
	if code := errorCode(t, rr); code != "EMAIL_EXISTS" {
		t.Errorf("expected EMAIL_EXISTS, got %s", code)
	}
}

func TestLoginWithWrongPassword(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("correct-horse"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	fs := &fakeStore{
		getUserByEmailFn: func(_ context.Context, email string) (store.User, error) {
			return store.User{ID: "user-1", Email: email, PasswordHash: string(hash)}, nil
		},
	}
	server := NewHTTPServer(newTestService(fs, &fakeGit{}), "*")

	rr := doRequest(t, server, http.MethodPost, "/api/auth/login", "", map[string]any{
		"email":    "avery@example.com",
		"password": "battery-staple",
	})
	if rr.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rr.Code)
	}
	if code := errorCode(t, rr); code != "INVALID_CREDENTIALS" {
		t.Errorf("expected INVALID_CREDENTIALS, got %s", code)
	}
}

func TestLoginThenRefreshOverHTTP(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("correct-horse"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	fs := &fakeStore{
		getUserByEmailFn: func(_ context.Context, email string) (store.User, error) {
			return store.User{ID: "user-1", Email: email, DisplayName: "Avery", PasswordHash: string(hash)}, nil
		},
	}
	server := NewHTTPServer(newTestService(fs, &fakeGit{}), "*")

	rr := doRequest(t, server, http.MethodPost, "/api/auth/login", "", map[string]any{
		"email":    "avery@example.com",
		"password": "correct-horse",
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	refreshToken, _ := dataObject(t, rr)["refreshToken"].(string)
	if refreshToken == "" {
		t.Fatal("expected refresh token from login")
	}

	rr = doRequest(t, server, http.MethodPost, "/api/session/refresh", "", map[string]any{"refreshToken": refreshToken})
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 from refresh, got %d: %s", rr.Code, rr.Body.String())
	}
	rotated, _ := dataObject(t, rr)["refreshToken"].(string)
	if rotated == "" || rotated == refreshToken {
		t.Error("expected a rotated refresh token")
	}

	rr = doRequest(t, server, http.MethodPost, "/api/session/refresh", "", map[string]any{"refreshToken": refreshToken})
	if rr.Code != http.StatusUnauthorized {
		t.Errorf("expected reused refresh token to be rejected, got %d", rr.Code)
	}
}

func TestMalformedPathIDRejected(t *testing.T) {
	svc := newTestService(&fakeStore{}, &fakeGit{})
	server := NewHTTPServer(svc, "*")
	token := bearerFor(t, svc, "user-1")

	rr := doRequest(t, server, http.MethodGet, "/api/transcripts/not-a-uuid", token, nil)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for malformed id, got %d", rr.Code)
	}
	if code := errorCode(t, rr); code != "VALIDATION_ERROR" {
		t.Errorf("expected VALIDATION_ERROR, got %s", code)
	}
}

func TestSessionEndpointWithoutToken(t *testing.T) {
	server := NewHTTPServer(newTestService(&fakeStore{}, &fakeGit{}), "*")

	rr := doRequest(t, server, http.MethodGet, "/api/session", "", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	data := dataObject(t, rr)
	if data["authenticated"] != false {
		t.Errorf("expected unauthenticated session, got %v", data)
	}
}
