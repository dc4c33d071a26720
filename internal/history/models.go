package history

import (
	"time"
)

// Entry records one pipeline trigger attempt.
type Entry struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`

	AgentID  string   `json:"agent"`
	Pipeline string   `json:"pipeline"`
	Branch   string   `json:"branch"`
	Message  string   `json:"message"`
	Targets  []string `json:"targets"`

	// Set when the build was created.
	BuildNumber int    `json:"build_number,omitempty"`
	WebURL      string `json:"web_url,omitempty"`

	// Set when the trigger failed.
	Error string `json:"error,omitempty"`
}

// Succeeded reports whether the build was created.
func (e Entry) Succeeded() bool {
	return e.Error == ""
}

// QueryOptions specifies filters and pagination for history queries.
type QueryOptions struct {
	AgentID string
	Branch  string
	// FailedOnly keeps entries whose trigger failed.
	FailedOnly bool

	Limit  int // 0 = no limit
	Offset int
}
