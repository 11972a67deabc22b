package journal

import "time"

// RunID identifier type
type RunID string

// Status of one file in a run.
type Status string

const (
	StatusMoved   Status = "moved"
	StatusSkipped Status = "skipped"
	StatusFailed  Status = "failed"
	StatusPlanned Status = "planned" // dry run: proposal logged, nothing mutated
)

// RunStatus enum
type RunStatus string

const (
	RunRunning     RunStatus = "running"
	RunCompleted   RunStatus = "completed"
	RunAborted     RunStatus = "aborted"     // fatal error, e.g. no model
	RunInterrupted RunStatus = "interrupted" // budget expired or signal; re-run resumes
)

// Entry records what happened to one file. It is an audit trail only: the
// organizer never reads it back to decide what to process.
type Entry struct {
	ID           string    `json:"id"`
	RunID        RunID     `json:"run_id"`
	FileID       string    `json:"file_id"`
	OriginalName string    `json:"original_name"`
	FinalName    string    `json:"final_name,omitempty"`
	Category     string    `json:"category,omitempty"`
	FolderID     string    `json:"folder_id,omitempty"`
	MediaType    string    `json:"media_type"`
	Model        string    `json:"model,omitempty"`
	Status       Status    `json:"status"`
	Stage        string    `json:"stage,omitempty"` // extract | analyze | folder | rename | move
	Reason       string    `json:"reason,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// Run aggregates one invocation of the organizer.
type Run struct {
	ID         RunID     `json:"id"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at,omitempty"`
	Model      string    `json:"model,omitempty"`
	Listed     int       `json:"listed"`
	Moved      int       `json:"moved"`
	Skipped    int       `json:"skipped"`
	Failed     int       `json:"failed"`
	Status     RunStatus `json:"status"`
	Message    string    `json:"message,omitempty"`
}

// Page represents a paginated response with data and metadata
type Page struct {
	Data     []*Entry `json:"data"`
	Page     int      `json:"page"`
	PageSize int      `json:"pageSize"`
}
