package domain

import "time"

// ReplyType indicates who authored a reply.
type ReplyType string

const (
	ReplyTypeAgent  ReplyType = "agent_reply"
	ReplyTypeClient ReplyType = "client_reply"
	ReplyTypeSystem ReplyType = "system_reply"
)

// TicketReply is one entry in a ticket's conversation thread.
type TicketReply struct {
	ID          string
	TicketID    string
	Type        ReplyType
	Content     string
	IsInternal  bool
	CreatedBy   string
	CreatedAt   time.Time
	UpdatedAt   time.Time
	Attachments []Attachment
}

// Attachment stores metadata for a file bound to a reply.
type Attachment struct {
	ID           string
	ReplyID      string
	FileName     string
	OriginalName string
	MimeType     string
	FileSize     int64
	FilePath     string
	CreatedAt    time.Time
}
