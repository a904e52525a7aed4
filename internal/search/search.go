package search

// ResultType identifies the kind of entity in a search result.
type ResultType string

const (
	ResultThread      ResultType = "thread"
	ResultTranscript  ResultType = "transcript"
	ResultActionPoint ResultType = "actionPoint"
)

// Result is a single search hit returned to the caller.
type Result struct {
	Type     ResultType `json:"type"`
	ID       string     `json:"id"`
	Title    string     `json:"title"`
	Snippet  string     `json:"snippet"`
	ThreadID string     `json:"threadId"`
}

// Query describes a search request. OwnerID is mandatory: every backend
// restricts hits to entities owned by that user.
type Query struct {
	Text       string
	OwnerID    string
	FilterType ResultType // empty = all types
	Limit      int
	Offset     int
}

// Response is the envelope returned by the search endpoint.
type Response struct {
	Results []Result `json:"results"`
	Total   int      `json:"total"`
	Query   string   `json:"query"`
}

// Searcher can execute a full-text search.
type Searcher interface {
	Search(q Query) ([]Result, int, error)
	Healthy() bool
}

// Indexer can push entities into a search index.
type Indexer interface {
	IndexThread(t ThreadRecord) error
	IndexTranscript(tr TranscriptRecord) error
	IndexActionPoint(ap ActionPointRecord) error
	DeleteThread(id string) error
	DeleteTranscript(id string) error
	DeleteActionPoint(id string) error
}

// ThreadRecord is the data we index for a thread.
type ThreadRecord struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	OwnerID string `json:"ownerId"`
}

// TranscriptRecord is the data we index for a transcript.
type TranscriptRecord struct {
	ID       string `json:"id"`
	Content  string `json:"content"`
	ThreadID string `json:"threadId"`
	OwnerID  string `json:"ownerId"`
}

// ActionPointRecord is the data we index for an action point.
type ActionPointRecord struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	ThreadID    string `json:"threadId"`
	OwnerID     string `json:"ownerId"`
	IsCompleted bool   `json:"isCompleted"`
}
