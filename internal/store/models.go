package store

import "time"

type User struct {
	ID           string
	Email        string
	DisplayName  string
	PasswordHash string
	CreatedAt    time.Time
}

type Thread struct {
	ID        string
	OwnerID   string
	Name      string
	CreatedAt time.Time
}

type Transcript struct {
	ID        string
	ThreadID  string
	Content   string
	CreatedAt time.Time
}

// OwnedTranscript pairs a transcript with the owner of its parent thread so
// the service layer can assert ownership from a single joined query.
type OwnedTranscript struct {
	Transcript
	ThreadOwnerID string
}

type ActionPoint struct {
	ID          string
	ThreadID    string
	Title       string
	IsCompleted bool
	CreatedAt   time.Time
}

// OwnedActionPoint pairs an action point with the owner of its parent thread.
type OwnedActionPoint struct {
	ActionPoint
	ThreadOwnerID string
}

// RevisionInfo describes one commit in a transcript's revision history.
type RevisionInfo struct {
	Hash    string    `json:"hash"`
	Message string    `json:"message"`
	Author  string    `json:"author"`
	When    time.Time `json:"when"`
}
