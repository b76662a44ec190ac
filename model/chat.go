package model

import "time"

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatRequest carries one user message. user_id owns the conversation: the
// same id continues its history, a new id starts a fresh record.
type ChatRequest struct {
	UserID  string `json:"user_id" binding:"required"`
	Message string `json:"message" binding:"required"`
}

// ChatResponse packages the grounded answer with its citations.
type ChatResponse struct {
	Answer  string   `json:"answer"`
	Sources []string `json:"sources"`
}

// ClearRequest clears the conversation for a user_id.
type ClearRequest struct {
	UserID string `json:"user_id" binding:"required"`
}

// HistoryResponse returns the full ordered turn list for a user_id.
type HistoryResponse struct {
	UserID   string `json:"user_id"`
	Messages []Turn `json:"messages"`
}

// UserExistsResponse tells the frontend whether a user_id has prior history.
type UserExistsResponse struct {
	UserID     string `json:"user_id"`
	HasHistory bool   `json:"has_history"`
	Message    string `json:"message"`
}

// Turn is one message in a conversation. Append-only, never edited.
type Turn struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// ConversationRecord is the durable per-user conversation state. Summary,
// when present, subsumes turns that were folded away; the turns still listed
// are always newer than anything in the summary.
type ConversationRecord struct {
	UserID       string    `json:"user_id"`
	Turns        []Turn    `json:"turns"`
	Summary      string    `json:"summary,omitempty"`
	LastActivity time.Time `json:"last_activity"`
}

// RetrievedPassage is the transient per-query projection of an indexed chunk.
type RetrievedPassage struct {
	DocName string  `json:"doc_name"`
	PageNo  int     `json:"page_no"`
	Years   []int   `json:"years"`
	Text    string  `json:"text"`
	Score   float64 `json:"score"`
}
