package gitrepo

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
)

func TestThreadRepoLifecycle(t *testing.T) {
	tempDir := t.TempDir()
	svc := New(tempDir)

	if err := svc.EnsureThreadRepo("thread-1", "Avery"); err != nil {
		t.Fatalf("EnsureThreadRepo() error = %v", err)
	}
	if _, err := os.Stat(filepath.Join(tempDir, "thread-1")); err != nil {
		t.Fatalf("repo directory missing: %v", err)
	}

	// Repeated ensure is a no-op
	if err := svc.EnsureThreadRepo("thread-1", "Avery"); err != nil {
		t.Fatalf("EnsureThreadRepo() repeat error = %v", err)
	}

	rev, err := svc.CommitTranscript("thread-1", "tr-1", "we agreed on the budget", "Avery", "Create transcript")
	if err != nil {
		t.Fatalf("CommitTranscript() error = %v", err)
	}
	if rev.Hash == "" {
		t.Fatal("expected commit hash")
	}

	_, err = svc.CommitTranscript("thread-1", "tr-1", "we agreed on the revised budget", "Avery", "Update transcript")
	if err != nil {
		t.Fatalf("CommitTranscript() update error = %v", err)
	}

	history, err := svc.History("thread-1", "tr-1", 10)
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("expected 2 history entries, got %d", len(history))
	}
	if history[0].Message != "Update transcript" {
		t.Fatalf("expected newest entry first, got %q", history[0].Message)
	}
}

func TestHistoryIsScopedToTranscript(t *testing.T) {
	tempDir := t.TempDir()
	svc := New(tempDir)

	if err := svc.EnsureThreadRepo("thread-1", "Avery"); err != nil {
		t.Fatalf("EnsureThreadRepo() error = %v", err)
	}
	if _, err := svc.CommitTranscript("thread-1", "tr-1", "first", "Avery", "Create tr-1"); err != nil {
		t.Fatalf("CommitTranscript() error = %v", err)
	}
	if _, err := svc.CommitTranscript("thread-1", "tr-2", "second", "Avery", "Create tr-2"); err != nil {
		t.Fatalf("CommitTranscript() error = %v", err)
	}

	history, err := svc.History("thread-1", "tr-1", 10)
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if len(history) != 1 {
		t.Fatalf("expected 1 entry for tr-1, got %d", len(history))
	}
	if history[0].Message != "Create tr-1" {
		t.Fatalf("unexpected entry: %q", history[0].Message)
	}
}

func TestRemoveTranscriptAndDeleteRepo(t *testing.T) {
	tempDir := t.TempDir()
	svc := New(tempDir)

	if err := svc.EnsureThreadRepo("thread-1", "Avery"); err != nil {
		t.Fatalf("EnsureThreadRepo() error = %v", err)
	}
	if _, err := svc.CommitTranscript("thread-1", "tr-1", "content", "Avery", "Create tr-1"); err != nil {
		t.Fatalf("CommitTranscript() error = %v", err)
	}

	if err := svc.RemoveTranscript("thread-1", "tr-1", "Avery"); err != nil {
		t.Fatalf("RemoveTranscript() error = %v", err)
	}
	if _, err := os.Stat(filepath.Join(tempDir, "thread-1", "tr-1.txt")); !os.IsNotExist(err) {
		t.Fatalf("expected transcript file removed, stat err = %v", err)
	}

	if err := svc.DeleteThreadRepo("thread-1"); err != nil {
		t.Fatalf("DeleteThreadRepo() error = %v", err)
	}
	if _, err := os.Stat(filepath.Join(tempDir, "thread-1")); !os.IsNotExist(err) {
		t.Fatalf("expected repo removed, stat err = %v", err)
	}
}

func TestConcurrentCommitsSameThread(t *testing.T) {
	tempDir := t.TempDir()
	svc := New(tempDir)

	if err := svc.EnsureThreadRepo("thread-1", "Avery"); err != nil {
		t.Fatalf("EnsureThreadRepo() error = %v", err)
	}

	const writers = 12
	var wg sync.WaitGroup
	errCh := make(chan error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			content := fmt.Sprintf("content-%02d", idx)
			if _, err := svc.CommitTranscript("thread-1", "tr-1", content, "Avery", fmt.Sprintf("Commit %02d", idx)); err != nil {
				errCh <- err
			}
		}(i)
	}
	wg.Wait()
	close(errCh)

	for err := range errCh {
		if err != nil {
			t.Fatalf("CommitTranscript() concurrent error = %v", err)
		}
	}

	history, err := svc.History("thread-1", "tr-1", 100)
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if len(history) != writers {
		t.Fatalf("expected %d commits in history, got %d", writers, len(history))
	}
}
