package app

import (
	"context"
	"database/sql"
	"errors"
	"net/http"

	"minutes/api/internal/export"
)

// exportStore adapts the data store to the export package, keeping the
// owner scope on the thread lookup.
type exportStore struct {
	store dataStore
}

func (es exportStore) GetThread(ctx context.Context, ownerID, threadID string) (export.ThreadInfo, error) {
	thread, err := es.store.GetThreadOwned(ctx, ownerID, threadID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return export.ThreadInfo{}, errThreadNotFound()
		}
		return export.ThreadInfo{}, err
	}
	owner, err := es.store.GetUserByID(ctx, ownerID)
	if err != nil {
		return export.ThreadInfo{}, err
	}
	return export.ThreadInfo{
		ID:        thread.ID,
		Name:      thread.Name,
		Owner:     owner.DisplayName,
		CreatedAt: thread.CreatedAt,
	}, nil
}

func (es exportStore) ListTranscripts(ctx context.Context, threadID string) ([]export.TranscriptInfo, error) {
	transcripts, err := es.store.ListTranscripts(ctx, threadID)
	if err != nil {
		return nil, err
	}
	infos := make([]export.TranscriptInfo, 0, len(transcripts))
	for _, tr := range transcripts {
		infos = append(infos, export.TranscriptInfo{ID: tr.ID, Content: tr.Content, CreatedAt: tr.CreatedAt})
	}
	return infos, nil
}

func (es exportStore) ListActionPoints(ctx context.Context, threadID string) ([]export.ActionPointInfo, error) {
	actionPoints, err := es.store.ListActionPoints(ctx, threadID, nil)
	if err != nil {
		return nil, err
	}
	infos := make([]export.ActionPointInfo, 0, len(actionPoints))
	for _, ap := range actionPoints {
		infos = append(infos, export.ActionPointInfo{Title: ap.Title, IsCompleted: ap.IsCompleted})
	}
	return infos, nil
}

// ExportThread renders a thread's minutes as a PDF or DOCX document.
func (s *Service) ExportThread(ctx context.Context, session Session, threadID string, format export.Format, includeActionPoints bool) (*export.Result, error) {
	svc := export.NewService(exportStore{store: s.store})
	result, err := svc.Export(ctx, export.Request{
		ThreadID:            threadID,
		OwnerID:             session.UserID,
		Format:              format,
		IncludeActionPoints: includeActionPoints,
	})
	if err != nil {
		var domainErr *DomainError
		if errors.As(err, &domainErr) {
			return nil, domainErr
		}
		if errors.Is(err, export.ErrPDFDependencyMissing) || errors.Is(err, export.ErrDOCXDependencyMissing) {
			return nil, domainError(http.StatusServiceUnavailable, "EXPORT_UNAVAILABLE", "Export tooling is not installed on this server", nil)
		}
		return nil, err
	}
	return result, nil
}
