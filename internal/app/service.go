package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"minutes/api/internal/ai"
	"minutes/api/internal/auth"
	"minutes/api/internal/authpw"
	"minutes/api/internal/config"
	"minutes/api/internal/gitrepo"
	"minutes/api/internal/search"
	"minutes/api/internal/store"
	"minutes/api/internal/util"
)

// Validation bounds for user-supplied fields.
const (
	maxThreadNameLen       = 20
	maxThreadsPerOwner     = 20
	maxTranscriptLen       = 30000
	maxActionPointTitleLen = 255
)

type Session struct {
	Token        string
	RefreshToken string
	UserID       string
	UserName     string
	Email        string
	JTI          string
	ExpiresAt    time.Time
}

type dataStore interface {
	CreateUser(context.Context, store.User) error
	GetUserByEmail(context.Context, string) (store.User, error)
	GetUserByID(context.Context, string) (store.User, error)

	ListThreadsByOwner(context.Context, string) ([]store.Thread, error)
	GetThreadOwned(context.Context, string, string) (store.Thread, error)
	CountThreadsByOwner(context.Context, string) (int, error)
	ThreadNameExists(context.Context, string, string, string) (bool, error)
	InsertThread(context.Context, store.Thread) (store.Thread, error)
	RenameThread(context.Context, string, string, string) (store.Thread, error)
	DeleteThread(context.Context, string, string) (bool, error)

	ListTranscripts(context.Context, string) ([]store.Transcript, error)
	InsertTranscript(context.Context, store.Transcript) (store.Transcript, error)
	GetTranscriptOwned(context.Context, string) (store.OwnedTranscript, error)
	UpdateTranscriptContent(context.Context, string, string) (store.Transcript, error)
	DeleteTranscript(context.Context, string) error

	ListActionPoints(context.Context, string, *bool) ([]store.ActionPoint, error)
	InsertActionPoint(context.Context, store.ActionPoint) (store.ActionPoint, error)
	GetActionPointOwned(context.Context, string) (store.OwnedActionPoint, error)
	UpdateActionPoint(context.Context, string, *string, *bool) (store.ActionPoint, error)
	DeleteActionPoint(context.Context, string) error

	Ping(ctx context.Context) error
}

// sessionStore holds refresh tokens. Backed by Redis when configured,
// otherwise by the refresh_sessions table in PostgreSQL.
type sessionStore interface {
	SaveRefreshSession(ctx context.Context, tokenHash, userID string, expiresAt time.Time) error
	LookupRefreshSession(ctx context.Context, tokenHash string) (store.User, error)
	RevokeRefreshSession(ctx context.Context, tokenHash string) error
}

type gitService interface {
	EnsureThreadRepo(threadID, author string) error
	CommitTranscript(threadID, transcriptID, content, author, message string) (store.RevisionInfo, error)
	RemoveTranscript(threadID, transcriptID, author string) error
	History(threadID, transcriptID string, limit int) ([]store.RevisionInfo, error)
	DeleteThreadRepo(threadID string) error
}

type AIGenerator interface {
	GenerateActionPoints(ctx context.Context, transcript string, existingTitles []string) ([]ai.Suggestion, error)
}

type searchIndex interface {
	Search(q search.Query) search.Response
	IndexThread(t search.ThreadRecord)
	IndexTranscript(tr search.TranscriptRecord)
	IndexActionPoint(ap search.ActionPointRecord)
	DeleteThread(id string)
	DeleteTranscript(id string)
	DeleteActionPoint(id string)
}

type Service struct {
	cfg      config.Config
	store    dataStore
	sessions sessionStore
	git      gitService
	search   searchIndex
	ai       AIGenerator
	authPW   *authpw.Service
}

func New(cfg config.Config, dataStore *store.PostgresStore, gitService *gitrepo.Service, searchService *search.Service, aiClient AIGenerator) *Service {
	return newService(cfg, dataStore, dataStore, gitService, searchService, aiClient)
}

// NewWithSessionStore uses a dedicated refresh-token backend (Redis) instead
// of PostgreSQL.
func NewWithSessionStore(cfg config.Config, dataStore *store.PostgresStore, sessions sessionStore, gitService *gitrepo.Service, searchService *search.Service, aiClient AIGenerator) *Service {
	return newService(cfg, dataStore, sessions, gitService, searchService, aiClient)
}

func newService(cfg config.Config, dataStore *store.PostgresStore, sessions sessionStore, gitService *gitrepo.Service, searchService *search.Service, aiClient AIGenerator) *Service {
	svc := &Service{
		cfg:      cfg,
		store:    dataStore,
		sessions: sessions,
		git:      gitService,
		ai:       aiClient,
		authPW:   authpw.NewService(dataStore),
	}
	if searchService != nil {
		svc.search = searchService
	}
	return svc
}

func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

func (s *Service) AuthPasswordService() *authpw.Service {
	return s.authPW
}

func (s *Service) AIEnabled() bool {
	return s.ai != nil
}

// Sessions

func (s *Service) CreateSession(ctx context.Context, userID string) (Session, error) {
	user, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		return Session{}, err
	}
	return s.issueSession(ctx, user)
}

func (s *Service) Refresh(ctx context.Context, refreshToken string) (Session, error) {
	tokenHash := auth.HashToken(refreshToken)
	user, err := s.sessions.LookupRefreshSession(ctx, tokenHash)
	if err != nil {
		return Session{}, err
	}
	if err := s.sessions.RevokeRefreshSession(ctx, tokenHash); err != nil {
		return Session{}, err
	}
	// The Redis backend stores only the user id; reload the full record.
	if user.Email == "" {
		user, err = s.store.GetUserByID(ctx, user.ID)
		if err != nil {
			return Session{}, err
		}
	}
	return s.issueSession(ctx, user)
}

func (s *Service) issueSession(ctx context.Context, user store.User) (Session, error) {
	now := time.Now()
	expiresAt := now.Add(s.cfg.AccessTTL)
	jti := util.NewID()

	token, err := auth.IssueToken([]byte(s.cfg.JWTSecret), auth.Claims{
		Sub:   user.ID,
		Email: user.Email,
		JTI:   jti,
		Exp:   expiresAt.Unix(),
	})
	if err != nil {
		return Session{}, err
	}

	refresh := util.NewOpaqueToken("rft")
	refreshExpires := now.Add(s.cfg.RefreshTTL)
	if err := s.sessions.SaveRefreshSession(ctx, auth.HashToken(refresh), user.ID, refreshExpires); err != nil {
		return Session{}, err
	}

	return Session{
		Token:        token,
		RefreshToken: refresh,
		UserID:       user.ID,
		UserName:     user.DisplayName,
		Email:        user.Email,
		JTI:          jti,
		ExpiresAt:    expiresAt,
	}, nil
}

func (s *Service) SessionFromToken(ctx context.Context, token string) (Session, error) {
	claims, err := auth.ParseToken([]byte(s.cfg.JWTSecret), token)
	if err != nil {
		return Session{}, err
	}

	user, err := s.store.GetUserByID(ctx, claims.Sub)
	if err != nil {
		return Session{}, err
	}

	return Session{
		Token:     token,
		UserID:    user.ID,
		UserName:  user.DisplayName,
		Email:     user.Email,
		JTI:       claims.JTI,
		ExpiresAt: time.Unix(claims.Exp, 0),
	}, nil
}

func (s *Service) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken != "" {
		_ = s.sessions.RevokeRefreshSession(ctx, auth.HashToken(refreshToken))
	}
	return nil
}

// Threads

func (s *Service) ListThreads(ctx context.Context, ownerID string) ([]map[string]any, error) {
	threads, err := s.store.ListThreadsByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	items := make([]map[string]any, 0, len(threads))
	for _, thread := range threads {
		items = append(items, threadPayload(thread))
	}
	return items, nil
}

func (s *Service) CreateThread(ctx context.Context, session Session, name string) (map[string]any, error) {
	name = strings.TrimSpace(name)
	if err := validateThreadName(name); err != nil {
		return nil, err
	}

	exists, err := s.store.ThreadNameExists(ctx, session.UserID, name, "")
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, errThreadNameDuplicate()
	}

	count, err := s.store.CountThreadsByOwner(ctx, session.UserID)
	if err != nil {
		return nil, err
	}
	if count >= maxThreadsPerOwner {
		return nil, domainError(http.StatusTooManyRequests, "THREAD_LIMIT_REACHED",
			fmt.Sprintf("You can have at most %d threads", maxThreadsPerOwner), nil)
	}

	thread, err := s.store.InsertThread(ctx, store.Thread{
		ID:      util.NewID(),
		OwnerID: session.UserID,
		Name:    name,
	})
	if err != nil {
		// Two requests can pass the exists check at once; the unique
		// constraint settles the race.
		if store.IsUniqueViolation(err) {
			return nil, errThreadNameDuplicate()
		}
		return nil, err
	}

	if err := s.git.EnsureThreadRepo(thread.ID, session.UserName); err != nil {
		return nil, fmt.Errorf("init thread history: %w", err)
	}
	if s.search != nil {
		s.search.IndexThread(search.ThreadRecord{ID: thread.ID, Name: thread.Name, OwnerID: thread.OwnerID})
	}

	return threadPayload(thread), nil
}

func (s *Service) UpdateThread(ctx context.Context, session Session, threadID, name string) (map[string]any, error) {
	if _, err := s.ownedThread(ctx, session.UserID, threadID); err != nil {
		return nil, err
	}

	name = strings.TrimSpace(name)
	if err := validateThreadName(name); err != nil {
		return nil, err
	}

	exists, err := s.store.ThreadNameExists(ctx, session.UserID, name, threadID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, errThreadNameDuplicate()
	}

	thread, err := s.store.RenameThread(ctx, session.UserID, threadID, name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errThreadNotFound()
		}
		if store.IsUniqueViolation(err) {
			return nil, errThreadNameDuplicate()
		}
		return nil, err
	}

	if s.search != nil {
		s.search.IndexThread(search.ThreadRecord{ID: thread.ID, Name: thread.Name, OwnerID: thread.OwnerID})
	}
	return threadPayload(thread), nil
}

// DeleteThread is idempotent: deleting a missing or foreign-owned thread
// succeeds without revealing whether it existed. The git repo and search
// entries go only when the owner-scoped delete actually removed a row, so a
// zero-row delete never touches another user's history.
func (s *Service) DeleteThread(ctx context.Context, session Session, threadID string) error {
	deleted, err := s.store.DeleteThread(ctx, session.UserID, threadID)
	if err != nil {
		return err
	}
	if !deleted {
		return nil
	}
	if err := s.git.DeleteThreadRepo(threadID); err != nil {
		return fmt.Errorf("remove thread history: %w", err)
	}
	if s.search != nil {
		s.search.DeleteThread(threadID)
	}
	return nil
}

// Transcripts

func (s *Service) ListTranscripts(ctx context.Context, session Session, threadID string) ([]map[string]any, error) {
	if _, err := s.ownedThread(ctx, session.UserID, threadID); err != nil {
		return nil, err
	}
	transcripts, err := s.store.ListTranscripts(ctx, threadID)
	if err != nil {
		return nil, err
	}
	items := make([]map[string]any, 0, len(transcripts))
	for _, tr := range transcripts {
		items = append(items, transcriptPayload(tr))
	}
	return items, nil
}

func (s *Service) CreateTranscript(ctx context.Context, session Session, threadID, content string) (map[string]any, error) {
	if _, err := s.ownedThread(ctx, session.UserID, threadID); err != nil {
		return nil, err
	}
	content = strings.TrimSpace(content)
	if err := validateTranscriptContent(content); err != nil {
		return nil, err
	}

	transcript, err := s.store.InsertTranscript(ctx, store.Transcript{
		ID:       util.NewID(),
		ThreadID: threadID,
		Content:  content,
	})
	if err != nil {
		return nil, err
	}

	if _, err := s.git.CommitTranscript(threadID, transcript.ID, content, session.UserName, "Create transcript"); err != nil {
		return nil, fmt.Errorf("record transcript revision: %w", err)
	}
	if s.search != nil {
		s.search.IndexTranscript(search.TranscriptRecord{
			ID: transcript.ID, Content: transcript.Content, ThreadID: threadID, OwnerID: session.UserID,
		})
	}
	return transcriptPayload(transcript), nil
}

func (s *Service) GetTranscript(ctx context.Context, session Session, transcriptID string) (map[string]any, error) {
	owned, err := s.ownedTranscript(ctx, session.UserID, transcriptID)
	if err != nil {
		return nil, err
	}
	return transcriptPayload(owned.Transcript), nil
}

func (s *Service) UpdateTranscript(ctx context.Context, session Session, transcriptID, content string) (map[string]any, error) {
	owned, err := s.ownedTranscript(ctx, session.UserID, transcriptID)
	if err != nil {
		return nil, err
	}
	content = strings.TrimSpace(content)
	if err := validateTranscriptContent(content); err != nil {
		return nil, err
	}

	transcript, err := s.store.UpdateTranscriptContent(ctx, transcriptID, content)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errTranscriptNotFound()
		}
		return nil, err
	}

	if _, err := s.git.CommitTranscript(owned.ThreadID, transcript.ID, content, session.UserName, "Update transcript"); err != nil {
		return nil, fmt.Errorf("record transcript revision: %w", err)
	}
	if s.search != nil {
		s.search.IndexTranscript(search.TranscriptRecord{
			ID: transcript.ID, Content: transcript.Content, ThreadID: transcript.ThreadID, OwnerID: session.UserID,
		})
	}
	return transcriptPayload(transcript), nil
}

func (s *Service) DeleteTranscript(ctx context.Context, session Session, transcriptID string) error {
	owned, err := s.ownedTranscript(ctx, session.UserID, transcriptID)
	if err != nil {
		return err
	}
	if err := s.store.DeleteTranscript(ctx, transcriptID); err != nil {
		return err
	}
	if err := s.git.RemoveTranscript(owned.ThreadID, transcriptID, session.UserName); err != nil {
		return fmt.Errorf("remove transcript revision: %w", err)
	}
	if s.search != nil {
		s.search.DeleteTranscript(transcriptID)
	}
	return nil
}

func (s *Service) TranscriptHistory(ctx context.Context, session Session, transcriptID string, limit int) ([]store.RevisionInfo, error) {
	owned, err := s.ownedTranscript(ctx, session.UserID, transcriptID)
	if err != nil {
		return nil, err
	}
	history, err := s.git.History(owned.ThreadID, transcriptID, limit)
	if err != nil {
		return nil, err
	}
	return history, nil
}

// Action points

func (s *Service) ListActionPoints(ctx context.Context, session Session, threadID string, completed *bool) ([]map[string]any, error) {
	if _, err := s.ownedThread(ctx, session.UserID, threadID); err != nil {
		return nil, err
	}
	actionPoints, err := s.store.ListActionPoints(ctx, threadID, completed)
	if err != nil {
		return nil, err
	}
	items := make([]map[string]any, 0, len(actionPoints))
	for _, ap := range actionPoints {
		items = append(items, actionPointPayload(ap))
	}
	return items, nil
}

func (s *Service) CreateActionPoint(ctx context.Context, session Session, threadID, title string, isCompleted bool) (map[string]any, error) {
	if _, err := s.ownedThread(ctx, session.UserID, threadID); err != nil {
		return nil, err
	}
	title = strings.TrimSpace(title)
	if err := validateActionPointTitle(title); err != nil {
		return nil, err
	}

	actionPoint, err := s.store.InsertActionPoint(ctx, store.ActionPoint{
		ID:          util.NewID(),
		ThreadID:    threadID,
		Title:       title,
		IsCompleted: isCompleted,
	})
	if err != nil {
		return nil, err
	}

	if s.search != nil {
		s.search.IndexActionPoint(search.ActionPointRecord{
			ID: actionPoint.ID, Title: actionPoint.Title, ThreadID: threadID,
			OwnerID: session.UserID, IsCompleted: actionPoint.IsCompleted,
		})
	}
	return actionPointPayload(actionPoint), nil
}

func (s *Service) UpdateActionPoint(ctx context.Context, session Session, actionPointID string, title *string, isCompleted *bool) (map[string]any, error) {
	if _, err := s.ownedActionPoint(ctx, session.UserID, actionPointID); err != nil {
		return nil, err
	}
	if title == nil && isCompleted == nil {
		return nil, domainError(http.StatusBadRequest, "VALIDATION_ERROR", "Nothing to update", nil)
	}
	if title != nil {
		trimmed := strings.TrimSpace(*title)
		if err := validateActionPointTitle(trimmed); err != nil {
			return nil, err
		}
		title = &trimmed
	}

	actionPoint, err := s.store.UpdateActionPoint(ctx, actionPointID, title, isCompleted)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errActionPointNotFound()
		}
		return nil, err
	}

	if s.search != nil {
		s.search.IndexActionPoint(search.ActionPointRecord{
			ID: actionPoint.ID, Title: actionPoint.Title, ThreadID: actionPoint.ThreadID,
			OwnerID: session.UserID, IsCompleted: actionPoint.IsCompleted,
		})
	}
	return actionPointPayload(actionPoint), nil
}

func (s *Service) DeleteActionPoint(ctx context.Context, session Session, actionPointID string) error {
	if _, err := s.ownedActionPoint(ctx, session.UserID, actionPointID); err != nil {
		return err
	}
	if err := s.store.DeleteActionPoint(ctx, actionPointID); err != nil {
		return err
	}
	if s.search != nil {
		s.search.DeleteActionPoint(actionPointID)
	}
	return nil
}

// GenerateActionPoints asks the AI collaborator for new action points based
// on the transcript, skipping titles that already exist on the thread, and
// stores whatever comes back.
func (s *Service) GenerateActionPoints(ctx context.Context, session Session, transcriptID string) ([]map[string]any, error) {
	if s.ai == nil {
		return nil, domainError(http.StatusServiceUnavailable, "AI_UNAVAILABLE", "Action point generation is not configured", nil)
	}

	owned, err := s.ownedTranscript(ctx, session.UserID, transcriptID)
	if err != nil {
		return nil, err
	}

	existing, err := s.store.ListActionPoints(ctx, owned.ThreadID, nil)
	if err != nil {
		return nil, err
	}
	existingTitles := make([]string, 0, len(existing))
	for _, ap := range existing {
		existingTitles = append(existingTitles, ap.Title)
	}

	suggestions, err := s.ai.GenerateActionPoints(ctx, owned.Content, existingTitles)
	if err != nil {
		if errors.Is(err, ai.ErrMalformedResponse) {
			return nil, domainError(http.StatusBadGateway, "AI_GENERATION_FAILED", "The AI response could not be parsed", nil)
		}
		return nil, domainError(http.StatusBadGateway, "AI_GENERATION_FAILED", "Action point generation failed", nil)
	}

	created := make([]map[string]any, 0, len(suggestions))
	for _, suggestion := range suggestions {
		title := suggestion.Title
		if runes := []rune(title); len(runes) > maxActionPointTitleLen {
			title = string(runes[:maxActionPointTitleLen])
		}
		actionPoint, err := s.store.InsertActionPoint(ctx, store.ActionPoint{
			ID:       util.NewID(),
			ThreadID: owned.ThreadID,
			Title:    title,
		})
		if err != nil {
			return nil, err
		}
		if s.search != nil {
			s.search.IndexActionPoint(search.ActionPointRecord{
				ID: actionPoint.ID, Title: actionPoint.Title, ThreadID: actionPoint.ThreadID, OwnerID: session.UserID,
			})
		}
		created = append(created, actionPointPayload(actionPoint))
	}
	return created, nil
}

// Search

func (s *Service) Search(ctx context.Context, session Session, text, filterType string, limit, offset int) (search.Response, error) {
	if s.search == nil {
		return search.Response{Results: []search.Result{}, Query: text}, nil
	}
	var resultType search.ResultType
	switch filterType {
	case "":
	case string(search.ResultThread), string(search.ResultTranscript), string(search.ResultActionPoint):
		resultType = search.ResultType(filterType)
	default:
		return search.Response{}, domainError(http.StatusBadRequest, "VALIDATION_ERROR", "invalid search type filter", nil)
	}
	return s.search.Search(search.Query{
		Text:       text,
		OwnerID:    session.UserID,
		FilterType: resultType,
		Limit:      limit,
		Offset:     offset,
	}), nil
}

// Ownership guard

// ownedThread loads a thread scoped by owner. Absent and foreign-owned
// threads are indistinguishable to the caller.
func (s *Service) ownedThread(ctx context.Context, ownerID, threadID string) (store.Thread, error) {
	thread, err := s.store.GetThreadOwned(ctx, ownerID, threadID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return store.Thread{}, errThreadNotFound()
		}
		return store.Thread{}, err
	}
	return thread, nil
}

func (s *Service) ownedTranscript(ctx context.Context, ownerID, transcriptID string) (store.OwnedTranscript, error) {
	owned, err := s.store.GetTranscriptOwned(ctx, transcriptID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return store.OwnedTranscript{}, errTranscriptNotFound()
		}
		return store.OwnedTranscript{}, err
	}
	if owned.ThreadOwnerID != ownerID {
		return store.OwnedTranscript{}, errTranscriptNotFound()
	}
	return owned, nil
}

func (s *Service) ownedActionPoint(ctx context.Context, ownerID, actionPointID string) (store.OwnedActionPoint, error) {
	owned, err := s.store.GetActionPointOwned(ctx, actionPointID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return store.OwnedActionPoint{}, errActionPointNotFound()
		}
		return store.OwnedActionPoint{}, err
	}
	if owned.ThreadOwnerID != ownerID {
		return store.OwnedActionPoint{}, errActionPointNotFound()
	}
	return owned, nil
}

// Validation

func validateThreadName(name string) error {
	if name == "" || utf8.RuneCountInString(name) > maxThreadNameLen {
		return domainError(http.StatusBadRequest, "THREAD_NAME_INVALID",
			fmt.Sprintf("Thread name must be between 1 and %d characters", maxThreadNameLen), nil)
	}
	return nil
}

func validateTranscriptContent(content string) error {
	if content == "" || utf8.RuneCountInString(content) > maxTranscriptLen {
		return domainError(http.StatusBadRequest, "TRANSCRIPT_CONTENT_INVALID",
			fmt.Sprintf("Transcript content must be between 1 and %d characters", maxTranscriptLen), nil)
	}
	return nil
}

func validateActionPointTitle(title string) error {
	if title == "" || utf8.RuneCountInString(title) > maxActionPointTitleLen {
		return domainError(http.StatusBadRequest, "ACTION_POINT_TITLE_INVALID",
			fmt.Sprintf("Action point title must be between 1 and %d characters", maxActionPointTitleLen), nil)
	}
	return nil
}

func errThreadNotFound() *DomainError {
	return domainError(http.StatusNotFound, "THREAD_NOT_FOUND", "Thread not found", nil)
}

func errThreadNameDuplicate() *DomainError {
	return domainError(http.StatusConflict, "THREAD_NAME_DUPLICATE", "A thread with this name already exists", nil)
}

func errTranscriptNotFound() *DomainError {
	return domainError(http.StatusNotFound, "TRANSCRIPT_NOT_FOUND", "Transcript not found", nil)
}

func errActionPointNotFound() *DomainError {
	return domainError(http.StatusNotFound, "ACTION_POINT_NOT_FOUND", "Action point not found", nil)
}

// Payloads

func threadPayload(thread store.Thread) map[string]any {
	return map[string]any{
		"id":        thread.ID,
		"name":      thread.Name,
		"createdAt": thread.CreatedAt,
	}
}

func transcriptPayload(transcript store.Transcript) map[string]any {
	return map[string]any{
		"id":        transcript.ID,
		"threadId":  transcript.ThreadID,
		"content":   transcript.Content,
		"createdAt": transcript.CreatedAt,
	}
}

func actionPointPayload(actionPoint store.ActionPoint) map[string]any {
	return map[string]any{
		"id":          actionPoint.ID,
		"threadId":    actionPoint.ThreadID,
		"title":       actionPoint.Title,
		"isCompleted": actionPoint.IsCompleted,
		"createdAt":   actionPoint.CreatedAt,
	}
}
