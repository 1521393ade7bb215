// Package domain defines the core domain models for the agent backend.
package domain

import (
	"image"
	"time"
)

// Attachment is the canonical representation of a user-supplied document
// or image, either inline base64-encoded or referenced by path.
type Attachment struct {
	Name        string `json:"name"`
	ContentType string `json:"content_type,omitempty"`
	Data        string `json:"data,omitempty"` // base64 inline payload
	Path        string `json:"path,omitempty"`
}

// ConversationTurn is a single entry in the bounded conversation history.
type ConversationTurn struct {
	Role        string   `json:"role"` // user, agent
	Message     string   `json:"message"`
	Attachments []string `json:"attachments,omitempty"`
}

// HistoryEntry is a turn reduced to what prompt rendering needs.
type HistoryEntry struct {
	Role    string
	Message string
}

// Recognition is one recognized text region from the OCR engine.
type Recognition struct {
	Text       string
	Confidence float64
	Region     image.Rectangle
}

// Artifact describes where the persisted outputs of one extracted
// attachment were written.
type Artifact struct {
	TextPath     string `json:"text_path"`
	MetadataPath string `json:"metadata_path"`
	SourcePath   string `json:"source_path,omitempty"`
}

// MaintenanceRecord is one entry in the append-only maintenance log.
type MaintenanceRecord struct {
	RecordID    string         `json:"record_id"`
	DeviceID    string         `json:"device_id"`
	Description string         `json:"description"`
	PerformedBy string         `json:"performed_by,omitempty"`
	Status      string         `json:"status"`
	Metadata    map[string]any `json:"metadata,omitempty"`
	Timestamp   time.Time      `json:"timestamp"`
	RecordedAt  time.Time      `json:"recorded_at"`
}

// ChatRequest is the inbound chat payload.
type ChatRequest struct {
	AgentID     string           `json:"agent_id"`
	Message     string           `json:"message"`
	Context     map[string]any   `json:"context,omitempty"`
	Attachments []map[string]any `json:"attachments,omitempty"`
}

// ChatResponse is the outbound chat payload. Context echoes the caller's
// context bag with the engine's additions.
type ChatResponse struct {
	AgentID  string         `json:"agent_id"`
	Response string         `json:"response"`
	Context  map[string]any `json:"context"`
}

// KnowledgeBaseUpsertRequest creates or replaces a knowledge base article.
type KnowledgeBaseUpsertRequest struct {
	Key     string `json:"key"`
	Content string `json:"content"`
}

// MaintenanceRecordCreate is the inbound maintenance record payload. The
// server fills RecordID, Status default, Timestamp and RecordedAt.
type MaintenanceRecordCreate struct {
	DeviceID    string         `json:"device_id"`
	Description string         `json:"description"`
	PerformedBy string         `json:"performed_by,omitempty"`
	Status      string         `json:"status,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}
