package api

import "time"

// Request types for the chat service API.

// ChatRequest is the body of POST /chat.
type ChatRequest struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
	Stream    bool   `json:"stream"`
}

// FeedbackRequest is the body of POST /feedback.
type FeedbackRequest struct {
	SessionID string  `json:"session_id" validate:"required"`
	Rating    string  `json:"rating" validate:"required,oneof=thumbs_up thumbs_down"`
	Comment   *string `json:"comment"`
}

// Response types.

// TokenUsage is the cumulative token total for a whole session as reported
// by the server in stream metadata.
type TokenUsage struct {
	InputTokensTotal  int `json:"input_tokens_total"`
	OutputTokensTotal int `json:"output_tokens_total"`
}

// Metadata carries per-frame annotations alongside streamed content.
type Metadata struct {
	ContributingAgents []string    `json:"contributing_agents,omitempty"`
	ContributingModels []string    `json:"contributing_models,omitempty"`
	TokenUsage         *TokenUsage `json:"token_usage,omitempty"`
}

// StreamPayload is the JSON shape of a single SSE data frame. Frames that
// fail to parse as JSON are degraded to a payload holding the raw text in
// Content.
type StreamPayload struct {
	Content  string    `json:"content,omitempty"`
	Done     bool      `json:"done,omitempty"`
	Metadata *Metadata `json:"metadata,omitempty"`
}

// StreamEvent represents a decoded event from the SSE stream.
type StreamEvent struct {
	Type    string         // "message", "done", "error"
	Payload *StreamPayload // for "message" events
	Err     error          // for "error" events
}

// CollectionsResponse is the body of GET /collections.
type CollectionsResponse struct {
	Collections []string `json:"collections"`
}

// UploadFileStatus is the per-file entry in upload responses.
type UploadFileStatus struct {
	FileName         string  `json:"file_name"`
	FileSize         int64   `json:"file_size"`
	Status           string  `json:"status"`
	Progress         float64 `json:"progress"`
	Error            string  `json:"error,omitempty"`
	TargetCollection string  `json:"target_collection,omitempty"`
	ChunksCount      int     `json:"chunks_count,omitempty"`
}

// UploadResponse is the body of POST /upload and GET /upload/status/{id}.
type UploadResponse struct {
	UploadID        string             `json:"upload_id"`
	Status          string             `json:"status"`
	Files           []UploadFileStatus `json:"files"`
	OverallProgress float64            `json:"overall_progress"`
	CreatedAt       string             `json:"created_at"`
	UpdatedAt       string             `json:"updated_at,omitempty"`
}

// Session describes a conversation session.
type Session struct {
	SessionID    string    `json:"session_id"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	MessageCount int       `json:"message_count,omitempty"`
}

// SessionsResponse is the body of GET /sessions.
type SessionsResponse struct {
	Sessions []Session `json:"sessions"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status string `json:"status"`
}
