// Package gitrepo keeps a git revision history of transcripts, one
// repository per thread with one file per transcript.
package gitrepo

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"minutes/api/internal/store"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

type Service struct {
	baseDir string
	lockMu  sync.Mutex
	locks   map[string]*sync.Mutex
}

func New(baseDir string) *Service {
	return &Service{
		baseDir: baseDir,
		locks:   make(map[string]*sync.Mutex),
	}
}

// EnsureThreadRepo initializes the repository for a thread if it does not
// exist yet. Safe to call repeatedly.
func (s *Service) EnsureThreadRepo(threadID, author string) error {
	lock := s.threadLock(threadID)
	lock.Lock()
	defer lock.Unlock()

	path := s.repoPath(threadID)
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("stat repo path: %w", err)
	}

	if err := os.MkdirAll(path, 0o755); err != nil {
		return fmt.Errorf("create repo dir: %w", err)
	}

	repo, err := git.PlainInit(path, false)
	if err != nil {
		return fmt.Errorf("init repo: %w", err)
	}

	worktree, err := repo.Worktree()
	if err != nil {
		return fmt.Errorf("open worktree: %w", err)
	}
	if err := os.WriteFile(filepath.Join(path, ".gitkeep"), nil, 0o644); err != nil {
		return fmt.Errorf("write keep file: %w", err)
	}
	if _, err := worktree.Add(".gitkeep"); err != nil {
		return fmt.Errorf("git add keep file: %w", err)
	}
	hash, err := worktree.Commit("Initialize thread history", &git.CommitOptions{
		Author: signature(author),
	})
	if err != nil {
		return fmt.Errorf("commit initial content: %w", err)
	}
	if err := repo.Storer.SetReference(plumbing.NewHashReference(plumbing.NewBranchReferenceName("main"), hash)); err != nil {
		return fmt.Errorf("set main branch ref: %w", err)
	}
	if err := repo.Storer.SetReference(plumbing.NewSymbolicReference(plumbing.HEAD, plumbing.NewBranchReferenceName("main"))); err != nil {
		return fmt.Errorf("set HEAD to main: %w", err)
	}
	return nil
}

// CommitTranscript writes the transcript content into the thread repository
// and commits it.
func (s *Service) CommitTranscript(threadID, transcriptID, content, author, message string) (store.RevisionInfo, error) {
	lock := s.threadLock(threadID)
	lock.Lock()
	defer lock.Unlock()

	repo, err := git.PlainOpen(s.repoPath(threadID))
	if err != nil {
		return store.RevisionInfo{}, fmt.Errorf("open repo: %w", err)
	}

	worktree, err := repo.Worktree()
	if err != nil {
		return store.RevisionInfo{}, fmt.Errorf("open worktree: %w", err)
	}

	fileName := transcriptFile(transcriptID)
	repoRoot := worktree.Filesystem.Root()
	if err := os.WriteFile(filepath.Join(repoRoot, fileName), []byte(content), 0o644); err != nil {
		return store.RevisionInfo{}, fmt.Errorf("write transcript file: %w", err)
	}
	if _, err := worktree.Add(fileName); err != nil {
		return store.RevisionInfo{}, fmt.Errorf("git add transcript: %w", err)
	}

	hash, err := worktree.Commit(message, &git.CommitOptions{
		Author: signature(author),
	})
	if err != nil {
		return store.RevisionInfo{}, fmt.Errorf("commit transcript: %w", err)
	}

	commitObj, err := repo.CommitObject(hash)
	if err != nil {
		return store.RevisionInfo{}, fmt.Errorf("read commit object: %w", err)
	}
	return toRevisionInfo(commitObj), nil
}

// RemoveTranscript deletes the transcript file and commits the removal.
// Missing files are ignored so a transcript with no history commits cleanly.
func (s *Service) RemoveTranscript(threadID, transcriptID, author string) error {
	lock := s.threadLock(threadID)
	lock.Lock()
	defer lock.Unlock()

	repo, err := git.PlainOpen(s.repoPath(threadID))
	if err != nil {
		return fmt.Errorf("open repo: %w", err)
	}

	worktree, err := repo.Worktree()
	if err != nil {
		return fmt.Errorf("open worktree: %w", err)
	}

	fileName := transcriptFile(transcriptID)
	if _, err := worktree.Remove(fileName); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("git rm transcript: %w", err)
	}

	if _, err := worktree.Commit(fmt.Sprintf("Remove transcript %s", transcriptID), &git.CommitOptions{
		Author: signature(author),
	}); err != nil {
		return fmt.Errorf("commit removal: %w", err)
	}
	return nil
}

// History walks the log of the thread repository restricted to one
// transcript file, newest first.
func (s *Service) History(threadID, transcriptID string, limit int) ([]store.RevisionInfo, error) {
	lock := s.threadLock(threadID)
	lock.Lock()
	defer lock.Unlock()

	repo, err := git.PlainOpen(s.repoPath(threadID))
	if err != nil {
		return nil, fmt.Errorf("open repo: %w", err)
	}

	ref, err := repo.Reference(plumbing.NewBranchReferenceName("main"), true)
	if err != nil {
		return nil, fmt.Errorf("resolve main branch: %w", err)
	}

	fileName := transcriptFile(transcriptID)
	iter, err := repo.Log(&git.LogOptions{From: ref.Hash(), FileName: &fileName})
	if err != nil {
		return nil, fmt.Errorf("read log: %w", err)
	}
	defer iter.Close()

	items := make([]store.RevisionInfo, 0, limit)
	count := 0
	err = iter.ForEach(func(commitObj *object.Commit) error {
		items = append(items, toRevisionInfo(commitObj))
		count++
		if limit > 0 && count >= limit {
			return io.EOF
		}
		return nil
	})
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("iterate log: %w", err)
	}
	return items, nil
}

// DeleteThreadRepo removes the repository directory for a deleted thread.
func (s *Service) DeleteThreadRepo(threadID string) error {
	lock := s.threadLock(threadID)
	lock.Lock()
	defer lock.Unlock()

	if err := os.RemoveAll(s.repoPath(threadID)); err != nil {
		return fmt.Errorf("remove repo dir: %w", err)
	}
	return nil
}

func (s *Service) repoPath(threadID string) string {
	return filepath.Join(s.baseDir, threadID)
}

func (s *Service) threadLock(threadID string) *sync.Mutex {
	s.lockMu.Lock()
	defer s.lockMu.Unlock()
	lock, ok := s.locks[threadID]
	if ok {
		return lock
	}
	lock = &sync.Mutex{}
	s.locks[threadID] = lock
	return lock
}

func transcriptFile(transcriptID string) string {
	return transcriptID + ".txt"
}

func signature(author string) *object.Signature {
	return &object.Signature{
		Name:  author,
		Email: fmt.Sprintf("%s@local.minutes.dev", sanitizeEmail(author)),
		When:  time.Now(),
	}
}

func toRevisionInfo(commitObj *object.Commit) store.RevisionInfo {
	return store.RevisionInfo{
		Hash:    commitObj.Hash.String()[:7],
		Message: commitObj.Message,
		Author:  commitObj.Author.Name,
		When:    commitObj.Author.When,
	}
}

func sanitizeEmail(input string) string {
	bytes := make([]rune, 0, len(input))
	for _, r := range input {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			bytes = append(bytes, r)
			continue
		}
		if r == ' ' || r == '-' || r == '_' {
			bytes = append(bytes, '.')
		}
	}
	if len(bytes) == 0 {
		return "user"
	}
	return string(bytes)
}
