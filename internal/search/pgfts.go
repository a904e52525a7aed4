package search

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// PgFTS implements Searcher using PostgreSQL full-text search as a fallback.
type PgFTS struct {
	db *sql.DB
}

// NewPgFTS creates a PostgreSQL FTS searcher.
func NewPgFTS(db *sql.DB) *PgFTS {
	return &PgFTS{db: db}
}

// Healthy always returns true. If Postgres is down, the whole app is down.
func (p *PgFTS) Healthy() bool {
	return true
}

// Search executes a UNION ALL query across threads, transcripts, and
// action_points using plainto_tsquery and ts_rank, with ts_headline for
// snippets. Every sub-query filters on the owning user.
func (p *PgFTS) Search(q Query) ([]Result, int, error) {
	if strings.TrimSpace(q.Text) == "" || q.OwnerID == "" {
		return nil, 0, nil
	}

	limit := q.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := q.Offset
	if offset < 0 {
		offset = 0
	}

	tsQuery := "plainto_tsquery('english', $1)"
	args := []any{q.Text, q.OwnerID}

	var subQueries []string

	if q.FilterType == "" || q.FilterType == ResultThread {
		subQueries = append(subQueries, fmt.Sprintf(`
			SELECT 'thread'::text AS type, t.id::text, t.name AS title,
				''::text AS snippet,
				t.id::text AS thread_id,
				ts_rank(t.search_vector, %s) AS rank
			FROM threads t
			WHERE t.search_vector @@ %s AND t.user_id = $2`, tsQuery, tsQuery))
	}

	if q.FilterType == "" || q.FilterType == ResultTranscript {
		subQueries = append(subQueries, fmt.Sprintf(`
			SELECT 'transcript'::text AS type, tr.id::text, ''::text AS title,
				ts_headline('english', tr.content, %s, 'MaxFragments=1,MaxWords=30') AS snippet,
				tr.thread_id::text,
				ts_rank(tr.search_vector, %s) AS rank
			FROM transcripts tr
			JOIN threads t ON t.id = tr.thread_id
			WHERE tr.search_vector @@ %s AND t.user_id = $2`, tsQuery, tsQuery, tsQuery))
	}

	if q.FilterType == "" || q.FilterType == ResultActionPoint {
		subQueries = append(subQueries, fmt.Sprintf(`
			SELECT 'actionPoint'::text AS type, ap.id::text, ap.title,
				''::text AS snippet,
				ap.thread_id::text,
				ts_rank(ap.search_vector, %s) AS rank
			FROM action_points ap
			JOIN threads t ON t.id = ap.thread_id
			WHERE ap.search_vector @@ %s AND t.user_id = $2`, tsQuery, tsQuery))
	}

	if len(subQueries) == 0 {
		return nil, 0, nil
	}

	countSQL := fmt.Sprintf("SELECT count(*) FROM (%s) sub",
		strings.Join(subQueries, " UNION ALL "))

	dataSQL := fmt.Sprintf(`SELECT type, id, title, snippet, thread_id
		FROM (%s) sub
		ORDER BY rank DESC
		LIMIT %d OFFSET %d`,
		strings.Join(subQueries, " UNION ALL "),
		limit, offset)

	ctx := context.Background()

	var total int
	if err := p.db.QueryRowContext(ctx, countSQL, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("pgfts count: %w", err)
	}

	rows, err := p.db.QueryContext(ctx, dataSQL, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("pgfts query: %w", err)
	}
	defer rows.Close()

	var results []Result
	for rows.Next() {
		var r Result
		var typ string
		if err := rows.Scan(&typ, &r.ID, &r.Title, &r.Snippet, &r.ThreadID); err != nil {
			return nil, 0, fmt.Errorf("pgfts scan: %w", err)
		}
		r.Type = ResultType(typ)
		results = append(results, r)
	}

	return results, total, rows.Err()
}

// LoadAllRecords returns all searchable records for full reindexing.
func (p *PgFTS) LoadAllRecords(ctx context.Context) ([]ThreadRecord, []TranscriptRecord, []ActionPointRecord, error) {
	threadRows, err := p.db.QueryContext(ctx, `
		SELECT id, name, user_id
		FROM threads
	`)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load threads: %w", err)
	}
	defer threadRows.Close()

	threads := make([]ThreadRecord, 0)
	for threadRows.Next() {
		var t ThreadRecord
		if err := threadRows.Scan(&t.ID, &t.Name, &t.OwnerID); err != nil {
			return nil, nil, nil, fmt.Errorf("scan thread: %w", err)
		}
		threads = append(threads, t)
	}
	if err := threadRows.Err(); err != nil {
		return nil, nil, nil, fmt.Errorf("iterate threads: %w", err)
	}

	transcriptRows, err := p.db.QueryContext(ctx, `
		SELECT tr.id, tr.content, tr.thread_id, t.user_id
		FROM transcripts tr
		JOIN threads t ON t.id = tr.thread_id
	`)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load transcripts: %w", err)
	}
	defer transcriptRows.Close()

	transcripts := make([]TranscriptRecord, 0)
	for transcriptRows.Next() {
		var tr TranscriptRecord
		if err := transcriptRows.Scan(&tr.ID, &tr.Content, &tr.ThreadID, &tr.OwnerID); err != nil {
			return nil, nil, nil, fmt.Errorf("scan transcript: %w", err)
		}
		transcripts = append(transcripts, tr)
	}
	if err := transcriptRows.Err(); err != nil {
		return nil, nil, nil, fmt.Errorf("iterate transcripts: %w", err)
	}

	apRows, err := p.db.QueryContext(ctx, `
		SELECT ap.id, ap.title, ap.thread_id, t.user_id, ap.is_completed
		FROM action_points ap
		JOIN threads t ON t.id = ap.thread_id
	`)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load action points: %w", err)
	}
	defer apRows.Close()

	actionPoints := make([]ActionPointRecord, 0)
	for apRows.Next() {
		var ap ActionPointRecord
		if err := apRows.Scan(&ap.ID, &ap.Title, &ap.ThreadID, &ap.OwnerID, &ap.IsCompleted); err != nil {
			return nil, nil, nil, fmt.Errorf("scan action point: %w", err)
		}
		actionPoints = append(actionPoints, ap)
	}
	if err := apRows.Err(); err != nil {
		return nil, nil, nil, fmt.Errorf("iterate action points: %w", err)
	}

	return threads, transcripts, actionPoints, nil
}
