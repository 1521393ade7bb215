// Package store defines the storage interface and implementations.
package store

import (
	"context"

	"github.com/agenticai/agentd/domain"
)

// Store defines the interface for data persistence: the knowledge base
// key/value mapping, the append-only maintenance log, and persisted
// extraction artifacts.
type Store interface {
	// Knowledge base operations
	LoadKnowledgeBase(ctx context.Context) (map[string]string, error)
	UpsertKnowledgeArticle(ctx context.Context, key, content string) (map[string]string, error)
	EnsureKnowledgeDefaults(ctx context.Context, defaults map[string]string) error

	// Maintenance log operations
	AppendMaintenanceRecord(ctx context.Context, record *domain.MaintenanceRecord) error
	ListMaintenanceRecords(ctx context.Context, deviceID string, limit int) ([]domain.MaintenanceRecord, error)

	// Extraction artifact operations
	SaveExtractedDocument(ctx context.Context, doc *ExtractedDocument) (*domain.Artifact, error)

	// Lifecycle
	Close() error
}

// ExtractedDocument is one attachment's extraction output ready for
// persistence. SourceBytes is optional; when present the original payload
// is stored alongside the text.
type ExtractedDocument struct {
	Name        string
	ContentType string
	Text        string
	SourceBytes []byte
}
