package export

import (
	"context"
	"fmt"
)

// DataStore defines the interface for data access
type DataStore interface {
	GetThread(ctx context.Context, ownerID, threadID string) (ThreadInfo, error)
	ListTranscripts(ctx context.Context, threadID string) ([]TranscriptInfo, error)
	ListActionPoints(ctx context.Context, threadID string) ([]ActionPointInfo, error)
}

// Service provides meeting minutes export functionality
type Service struct {
	store DataStore
}

// NewService creates a new export service
func NewService(store DataStore) *Service {
	return &Service{store: store}
}

// Export generates an export of a thread's minutes in the requested format.
func (s *Service) Export(ctx context.Context, req Request) (*Result, error) {
	thread, err := s.store.GetThread(ctx, req.OwnerID, req.ThreadID)
	if err != nil {
		return nil, fmt.Errorf("get thread: %w", err)
	}

	transcripts, err := s.store.ListTranscripts(ctx, req.ThreadID)
	if err != nil {
		return nil, fmt.Errorf("list transcripts: %w", err)
	}

	data := TemplateData{
		Name:        thread.Name,
		Owner:       thread.Owner,
		CreatedAt:   thread.CreatedAt,
		Transcripts: []TemplateTranscript{},
	}
	for _, tr := range transcripts {
		data.Transcripts = append(data.Transcripts, TemplateTranscript{
			Content:   tr.Content,
			CreatedAt: tr.CreatedAt,
		})
	}

	if req.IncludeActionPoints {
		actionPoints, err := s.store.ListActionPoints(ctx, req.ThreadID)
		if err != nil {
			return nil, fmt.Errorf("list action points: %w", err)
		}
		for _, ap := range actionPoints {
			data.ActionPoints = append(data.ActionPoints, TemplateActionPoint{
				Title:       ap.Title,
				IsCompleted: ap.IsCompleted,
			})
		}
	}

	html, err := RenderMinutesHTML(data)
	if err != nil {
		return nil, fmt.Errorf("render template: %w", err)
	}

	switch req.Format {
	case FormatPDF:
		return exportPDF(html, thread.Name)
	case FormatDOCX:
		return exportDOCX(html, thread.Name)
	default:
		return nil, fmt.Errorf("unsupported format: %s", req.Format)
	}
}
