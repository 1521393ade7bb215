// Package deviceops provides telemetry and maintenance support for the
// device operations agent.
package deviceops

import (
	"context"
	"fmt"
	"maps"

	"github.com/rs/zerolog"

	"github.com/agenticai/agentd/domain"
	"github.com/agenticai/agentd/store"
)

// defaultKnowledgeBase seeds the knowledge base so the operations prompt
// always has at least the standard procedures to reference.
var defaultKnowledgeBase = map[string]string{
	"reset_procedure": "1. Power down the device. 2. Wait 30s. 3. Power up.",
	"firmware_update": "Use the maintenance console with image v2.3.1.",
}

// Service is a facade over device telemetry and maintenance workflows.
type Service struct {
	store  store.Store
	logger zerolog.Logger
}

// New creates the service and seeds the default knowledge base entries.
func New(ctx context.Context, st store.Store, logger zerolog.Logger) (*Service, error) {
	if err := st.EnsureKnowledgeDefaults(ctx, defaultKnowledgeBase); err != nil {
		return nil, fmt.Errorf("failed to seed knowledge base defaults: %w", err)
	}
	return &Service{store: st, logger: logger}, nil
}

// StandardOperatingProcedures returns the knowledge base contents,
// falling back to the default articles when the store is empty.
func (s *Service) StandardOperatingProcedures(ctx context.Context) (map[string]string, error) {
	entries, err := s.store.LoadKnowledgeBase(ctx)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return maps.Clone(defaultKnowledgeBase), nil
	}
	return entries, nil
}

// UpsertKnowledgeArticle creates or replaces an article and returns the
// resulting knowledge base.
func (s *Service) UpsertKnowledgeArticle(ctx context.Context, key, content string) (map[string]string, error) {
	return s.store.UpsertKnowledgeArticle(ctx, key, content)
}

// SummarizeTelemetry reduces a raw telemetry value from the context bag
// into a flat summary: non-map input becomes empty, nil values are
// dropped, and the reset procedure is referenced when available.
func (s *Service) SummarizeTelemetry(ctx context.Context, raw any) map[string]any {
	summary := make(map[string]any)
	if telemetry, ok := raw.(map[string]any); ok {
		for key, value := range telemetry {
			if value != nil {
				summary[key] = value
			}
		}
	}

	sop, err := s.store.LoadKnowledgeBase(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to load knowledge base for telemetry summary")
		return summary
	}
	if len(sop) > 0 {
		if _, exists := summary["reference_procedure"]; !exists {
			summary["reference_procedure"] = sop["reset_procedure"]
		}
	}
	return summary
}

// RecordMaintenanceEvent appends a maintenance record, filling server-side
// defaults, and returns the stored record.
func (s *Service) RecordMaintenanceEvent(ctx context.Context, create *domain.MaintenanceRecordCreate) (*domain.MaintenanceRecord, error) {
	record := &domain.MaintenanceRecord{
		DeviceID:    create.DeviceID,
		Description: create.Description,
		PerformedBy: create.PerformedBy,
		Status:      create.Status,
		Metadata:    create.Metadata,
	}
	if err := s.store.AppendMaintenanceRecord(ctx, record); err != nil {
		return nil, err
	}
	return record, nil
}

// MaintenanceHistory returns maintenance records, newest first, optionally
// filtered by device and limited.
func (s *Service) MaintenanceHistory(ctx context.Context, deviceID string, limit int) ([]domain.MaintenanceRecord, error) {
	return s.store.ListMaintenanceRecords(ctx, deviceID, limit)
}
