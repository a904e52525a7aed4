package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
)

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) DB() *sql.DB {
	return s.db
}

// IsUniqueViolation reports whether err is a Postgres unique-constraint
// violation. Thread creation relies on this to turn an insert race into a
// duplicate-name error instead of a server error.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// Users

func (s *PostgresStore) CreateUser(ctx context.Context, user User) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, email, display_name, password_hash)
		VALUES ($1, $2, $3, $4)
	`, user.ID, user.Email, user.DisplayName, user.PasswordHash)
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetUserByEmail(ctx context.Context, email string) (User, error) {
	var user User
	err := s.db.QueryRowContext(ctx, `
		SELECT id, email, display_name, password_hash, created_at
		FROM users
		WHERE email=$1
	`, email).Scan(&user.ID, &user.Email, &user.DisplayName, &user.PasswordHash, &user.CreatedAt)
	if err != nil {
		return User{}, err
	}
	return user, nil
}

func (s *PostgresStore) GetUserByID(ctx context.Context, userID string) (User, error) {
	var user User
	err := s.db.QueryRowContext(ctx, `
		SELECT id, email, display_name, password_hash, created_at
		FROM users
		WHERE id=$1
	`, userID).Scan(&user.ID, &user.Email, &user.DisplayName, &user.PasswordHash, &user.CreatedAt)
	if err != nil {
		return User{}, err
	}
	return user, nil
}

// Refresh sessions (PostgreSQL fallback when Redis is not configured)

func (s *PostgresStore) SaveRefreshSession(ctx context.Context, tokenHash, userID string, expiresAt time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO refresh_sessions (token_hash, user_id, expires_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (token_hash) DO UPDATE SET user_id=EXCLUDED.user_id, expires_at=EXCLUDED.expires_at, revoked_at=NULL
	`, tokenHash, userID, expiresAt)
	if err != nil {
		return fmt.Errorf("save refresh session: %w", err)
	}
	return nil
}

func (s *PostgresStore) LookupRefreshSession(ctx context.Context, tokenHash string) (User, error) {
	const query = `
		SELECT u.id, u.email, u.display_name, u.password_hash, u.created_at
		FROM refresh_sessions rs
		JOIN users u ON u.id = rs.user_id
		WHERE rs.token_hash = $1
			AND rs.revoked_at IS NULL
			AND rs.expires_at > NOW()
	`
	var user User
	err := s.db.QueryRowContext(ctx, query, tokenHash).Scan(&user.ID, &user.Email, &user.DisplayName, &user.PasswordHash, &user.CreatedAt)
	if err != nil {
		return User{}, err
	}
	return user, nil
}

func (s *PostgresStore) RevokeRefreshSession(ctx context.Context, tokenHash string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE refresh_sessions SET revoked_at=NOW() WHERE token_hash=$1`, tokenHash)
	if err != nil {
		return fmt.Errorf("revoke refresh session: %w", err)
	}
	return nil
}

// Threads

func (s *PostgresStore) ListThreadsByOwner(ctx context.Context, ownerID string) ([]Thread, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, name, created_at
		FROM threads
		WHERE user_id=$1
		ORDER BY created_at DESC
	`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list threads: %w", err)
	}
	defer rows.Close()

	items := make([]Thread, 0)
	for rows.Next() {
		var item Thread
		if err := rows.Scan(&item.ID, &item.OwnerID, &item.Name, &item.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan thread: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate threads: %w", err)
	}
	return items, nil
}

// GetThreadOwned filters by both id and owner in one query. A thread that
// exists but belongs to someone else scans as sql.ErrNoRows, same as one
// that does not exist at all.
func (s *PostgresStore) GetThreadOwned(ctx context.Context, ownerID, threadID string) (Thread, error) {
	var item Thread
	err := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, name, created_at
		FROM threads
		WHERE id=$1 AND user_id=$2
	`, threadID, ownerID).Scan(&item.ID, &item.OwnerID, &item.Name, &item.CreatedAt)
	if err != nil {
		return Thread{}, err
	}
	return item, nil
}

func (s *PostgresStore) CountThreadsByOwner(ctx context.Context, ownerID string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM threads WHERE user_id=$1`, ownerID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count threads: %w", err)
	}
	return count, nil
}

// ThreadNameExists checks whether the owner already uses name. excludeID may
// be empty; on rename it carries the thread being renamed so its current name
// does not collide with itself.
func (s *PostgresStore) ThreadNameExists(ctx context.Context, ownerID, name, excludeID string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM threads
			WHERE user_id=$1 AND name=$2 AND ($3='' OR id <> $3::uuid)
		)
	`, ownerID, name, excludeID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check thread name: %w", err)
	}
	return exists, nil
}

func (s *PostgresStore) InsertThread(ctx context.Context, thread Thread) (Thread, error) {
	var item Thread
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO threads (id, user_id, name)
		VALUES ($1, $2, $3)
		RETURNING id, user_id, name, created_at
	`, thread.ID, thread.OwnerID, thread.Name).Scan(&item.ID, &item.OwnerID, &item.Name, &item.CreatedAt)
	if err != nil {
		if IsUniqueViolation(err) {
			return Thread{}, err
		}
		return Thread{}, fmt.Errorf("insert thread: %w", err)
	}
	return item, nil
}

func (s *PostgresStore) RenameThread(ctx context.Context, ownerID, threadID, name string) (Thread, error) {
	var item Thread
	err := s.db.QueryRowContext(ctx, `
		UPDATE threads
		SET name=$3
		WHERE id=$1 AND user_id=$2
		RETURNING id, user_id, name, created_at
	`, threadID, ownerID, name).Scan(&item.ID, &item.OwnerID, &item.Name, &item.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) || IsUniqueViolation(err) {
			return Thread{}, err
		}
		return Thread{}, fmt.Errorf("rename thread: %w", err)
	}
	return item, nil
}

// DeleteThread removes the thread scoped by owner. Cascades in the schema
// take the transcripts and action points with it. Deleting a missing or
// foreign-owned thread affects zero rows, which the caller treats as success;
// the returned flag tells the caller whether a row was actually removed.
func (s *PostgresStore) DeleteThread(ctx context.Context, ownerID, threadID string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM threads WHERE id=$1 AND user_id=$2`, threadID, ownerID)
	if err != nil {
		return false, fmt.Errorf("delete thread: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete thread: %w", err)
	}
	return affected > 0, nil
}

// Transcripts

func (s *PostgresStore) ListTranscripts(ctx context.Context, threadID string) ([]Transcript, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, thread_id, content, created_at
		FROM transcripts
		WHERE thread_id=$1
		ORDER BY created_at DESC
	`, threadID)
	if err != nil {
		return nil, fmt.Errorf("list transcripts: %w", err)
	}
	defer rows.Close()

	items := make([]Transcript, 0)
	for rows.Next() {
		var item Transcript
		if err := rows.Scan(&item.ID, &item.ThreadID, &item.Content, &item.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan transcript: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transcripts: %w", err)
	}
	return items, nil
}

func (s *PostgresStore) InsertTranscript(ctx context.Context, transcript Transcript) (Transcript, error) {
	var item Transcript
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO transcripts (id, thread_id, content)
		VALUES ($1, $2, $3)
		RETURNING id, thread_id, content, created_at
	`, transcript.ID, transcript.ThreadID, transcript.Content).Scan(&item.ID, &item.ThreadID, &item.Content, &item.CreatedAt)
	if err != nil {
		return Transcript{}, fmt.Errorf("insert transcript: %w", err)
	}
	return item, nil
}

// GetTranscriptOwned joins the parent thread and returns its owner alongside
// the transcript, so the caller can assert ownership without a second query.
func (s *PostgresStore) GetTranscriptOwned(ctx context.Context, transcriptID string) (OwnedTranscript, error) {
	var item OwnedTranscript
	err := s.db.QueryRowContext(ctx, `
		SELECT tr.id, tr.thread_id, tr.content, tr.created_at, th.user_id
		FROM transcripts tr
		JOIN threads th ON th.id = tr.thread_id
		WHERE tr.id=$1
	`, transcriptID).Scan(&item.ID, &item.ThreadID, &item.Content, &item.CreatedAt, &item.ThreadOwnerID)
	if err != nil {
		return OwnedTranscript{}, err
	}
	return item, nil
}

func (s *PostgresStore) UpdateTranscriptContent(ctx context.Context, transcriptID, content string) (Transcript, error) {
	var item Transcript
	err := s.db.QueryRowContext(ctx, `
		UPDATE transcripts
		SET content=$2
		WHERE id=$1
		RETURNING id, thread_id, content, created_at
	`, transcriptID, content).Scan(&item.ID, &item.ThreadID, &item.Content, &item.CreatedAt)
	if err != nil {
		return Transcript{}, err
	}
	return item, nil
}

func (s *PostgresStore) DeleteTranscript(ctx context.Context, transcriptID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM transcripts WHERE id=$1`, transcriptID)
	if err != nil {
		return fmt.Errorf("delete transcript: %w", err)
	}
	return nil
}

// Action points

func (s *PostgresStore) ListActionPoints(ctx context.Context, threadID string, completed *bool) ([]ActionPoint, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, thread_id, title, is_completed, created_at
		FROM action_points
		WHERE thread_id=$1
		  AND ($2::boolean IS NULL OR is_completed=$2)
		ORDER BY created_at DESC
	`, threadID, completed)
	if err != nil {
		return nil, fmt.Errorf("list action points: %w", err)
	}
	defer rows.Close()

	items := make([]ActionPoint, 0)
	for rows.Next() {
		var item ActionPoint
		if err := rows.Scan(&item.ID, &item.ThreadID, &item.Title, &item.IsCompleted, &item.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan action point: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate action points: %w", err)
	}
	return items, nil
}

func (s *PostgresStore) InsertActionPoint(ctx context.Context, ap ActionPoint) (ActionPoint, error) {
	var item ActionPoint
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO action_points (id, thread_id, title, is_completed)
		VALUES ($1, $2, $3, $4)
		RETURNING id, thread_id, title, is_completed, created_at
	`, ap.ID, ap.ThreadID, ap.Title, ap.IsCompleted).Scan(&item.ID, &item.ThreadID, &item.Title, &item.IsCompleted, &item.CreatedAt)
	if err != nil {
		return ActionPoint{}, fmt.Errorf("insert action point: %w", err)
	}
	return item, nil
}

// GetActionPointOwned joins the parent thread and returns its owner alongside
// the action point.
func (s *PostgresStore) GetActionPointOwned(ctx context.Context, apID string) (OwnedActionPoint, error) {
	var item OwnedActionPoint
	err := s.db.QueryRowContext(ctx, `
		SELECT ap.id, ap.thread_id, ap.title, ap.is_completed, ap.created_at, th.user_id
		FROM action_points ap
		JOIN threads th ON th.id = ap.thread_id
		WHERE ap.id=$1
	`, apID).Scan(&item.ID, &item.ThreadID, &item.Title, &item.IsCompleted, &item.CreatedAt, &item.ThreadOwnerID)
	if err != nil {
		return OwnedActionPoint{}, err
	}
	return item, nil
}

// UpdateActionPoint applies whichever of title and isCompleted are non-nil.
// The service guarantees at least one is set before calling.
func (s *PostgresStore) UpdateActionPoint(ctx context.Context, apID string, title *string, isCompleted *bool) (ActionPoint, error) {
	var item ActionPoint
	err := s.db.QueryRowContext(ctx, `
		UPDATE action_points
		SET title=COALESCE($2, title), is_completed=COALESCE($3, is_completed)
		WHERE id=$1
		RETURNING id, thread_id, title, is_completed, created_at
	`, apID, title, isCompleted).Scan(&item.ID, &item.ThreadID, &item.Title, &item.IsCompleted, &item.CreatedAt)
	if err != nil {
		return ActionPoint{}, err
	}
	return item, nil
}

func (s *PostgresStore) DeleteActionPoint(ctx context.Context, apID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM action_points WHERE id=$1`, apID)
	if err != nil {
		return fmt.Errorf("delete action point: %w", err)
	}
	return nil
}

// Ping verifies the database connection is alive
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}
