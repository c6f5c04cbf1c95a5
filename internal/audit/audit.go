// Package audit defines the audit log sink. Writes are best-effort: a failed
// audit write must never surface as the primary operation's result.
package audit

import "context"

// Entry is one audit log record.
type Entry struct {
	OrganizationID string
	UserID         string
	Action         string
	ResourceType   string
	ResourceID     string
	Details        map[string]any
	IPAddress      string
	UserAgent      string
}

// Sink persists audit entries. Implementations log failures internally.
type Sink interface {
	Log(ctx context.Context, entry Entry)
}

// NopSink discards all entries.
type NopSink struct{}

func (NopSink) Log(ctx context.Context, entry Entry) {}
