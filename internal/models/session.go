package models

// SessionStatus represents the status of a conversion session.
type SessionStatus string

const (
	SessionStatusPending    SessionStatus = "pending"
	SessionStatusConverting SessionStatus = "converting"
	SessionStatusComplete   SessionStatus = "complete"
	SessionStatusError      SessionStatus = "error"
)

// ConvertSession represents one file conversion session. The converted
// document stays attached to the session until it is downloaded or the
// session expires.
type ConvertSession struct {
	ID        string            `json:"id"`
	FileID    string            `json:"fileId"`
	FileName  string            `json:"fileName,omitempty"`
	Status    SessionStatus     `json:"status"`
	Result    *ConversionResult `json:"result,omitempty"`
	Error     string            `json:"error,omitempty"`
	StartTime int64             `json:"startTime,omitempty"` // Unix ms
	EndTime   int64             `json:"endTime,omitempty"`   // Unix ms
}

// NewConvertSession creates a new ConvertSession in pending status.
func NewConvertSession(id, fileID string) *ConvertSession {
	return &ConvertSession{
		ID:     id,
		FileID: fileID,
		Status: SessionStatusPending,
	}
}
