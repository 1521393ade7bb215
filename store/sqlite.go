package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/agenticai/agentd/domain"
	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

// SQLiteStore implements Store using SQLite for structured data and the
// filesystem for extracted document payloads.
type SQLiteStore struct {
	db     *sql.DB
	ocrDir string
}

// NewSQLiteStore creates a new SQLite store. Extracted document files are
// written under dataDir/ocr_results.
func NewSQLiteStore(dsn, dataDir string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	ocrDir := filepath.Join(dataDir, "ocr_results")
	if err := os.MkdirAll(ocrDir, 0o755); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create ocr results dir: %w", err)
	}

	store := &SQLiteStore{db: db, ocrDir: ocrDir}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// migrate runs database migrations.
func (s *SQLiteStore) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS knowledge_base (
			key TEXT PRIMARY KEY,
			content TEXT NOT NULL,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS maintenance_records (
			record_id TEXT PRIMARY KEY,
			device_id TEXT NOT NULL,
			description TEXT NOT NULL,
			performed_by TEXT,
			status TEXT NOT NULL,
			metadata TEXT,
			timestamp DATETIME NOT NULL,
			recorded_at DATETIME NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_maintenance_device ON maintenance_records(device_id, recorded_at)`,
		`CREATE TABLE IF NOT EXISTS artifacts (
			artifact_id TEXT PRIMARY KEY,
			name TEXT,
			content_type TEXT,
			text_path TEXT NOT NULL,
			metadata_path TEXT NOT NULL,
			source_path TEXT,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
	}

	for _, m := range migrations {
		if _, err := s.db.Exec(m); err != nil {
			return fmt.Errorf("migration failed: %w\n%s", err, m)
		}
	}

	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// LoadKnowledgeBase returns all knowledge base entries.
func (s *SQLiteStore) LoadKnowledgeBase(ctx context.Context) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key, content FROM knowledge_base ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("failed to load knowledge base: %w", err)
	}
	defer rows.Close()

	entries := make(map[string]string)
	for rows.Next() {
		var key, content string
		if err := rows.Scan(&key, &content); err != nil {
			return nil, fmt.Errorf("failed to scan knowledge base row: %w", err)
		}
		entries[key] = content
	}
	return entries, rows.Err()
}

// UpsertKnowledgeArticle creates or replaces an article and returns the
// full knowledge base.
func (s *SQLiteStore) UpsertKnowledgeArticle(ctx context.Context, key, content string) (map[string]string, error) {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO knowledge_base (key, content, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET content = excluded.content, updated_at = excluded.updated_at`,
		key, content, time.Now().UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to upsert knowledge article: %w", err)
	}
	return s.LoadKnowledgeBase(ctx)
}

// EnsureKnowledgeDefaults inserts any missing default entries without
// touching existing ones.
func (s *SQLiteStore) EnsureKnowledgeDefaults(ctx context.Context, defaults map[string]string) error {
	for key, content := range defaults {
		if _, err := s.db.ExecContext(ctx,
			`INSERT OR IGNORE INTO knowledge_base (key, content, updated_at) VALUES (?, ?, ?)`,
			key, content, time.Now().UTC()); err != nil {
			return fmt.Errorf("failed to seed knowledge article %q: %w", key, err)
		}
	}
	return nil
}

// AppendMaintenanceRecord appends a record to the maintenance log,
// filling the record ID, status default and timestamps when unset.
func (s *SQLiteStore) AppendMaintenanceRecord(ctx context.Context, record *domain.MaintenanceRecord) error {
	now := time.Now().UTC()
	if record.RecordID == "" {
		record.RecordID = "rec_" + uuid.New().String()[:8]
	}
	if record.Status == "" {
		record.Status = "pending"
	}
	if record.Timestamp.IsZero() {
		record.Timestamp = now
	}
	if record.RecordedAt.IsZero() {
		record.RecordedAt = now
	}

	metadata, _ := json.Marshal(record.Metadata)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO maintenance_records (record_id, device_id, description, performed_by, status, metadata, timestamp, recorded_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		record.RecordID, record.DeviceID, record.Description, record.PerformedBy,
		record.Status, string(metadata), record.Timestamp, record.RecordedAt)
	if err != nil {
		return fmt.Errorf("failed to append maintenance record: %w", err)
	}
	return nil
}

// ListMaintenanceRecords returns records ordered by recorded_at descending,
// optionally filtered by device ID and limited.
func (s *SQLiteStore) ListMaintenanceRecords(ctx context.Context, deviceID string, limit int) ([]domain.MaintenanceRecord, error) {
	query := `SELECT record_id, device_id, description, performed_by, status, metadata, timestamp, recorded_at
		FROM maintenance_records`
	args := []any{}
	if deviceID != "" {
		query += ` WHERE device_id = ?`
		args = append(args, deviceID)
	}
	query += ` ORDER BY recorded_at DESC`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list maintenance records: %w", err)
	}
	defer rows.Close()

	var records []domain.MaintenanceRecord
	for rows.Next() {
		var record domain.MaintenanceRecord
		var performedBy, metadata sql.NullString
		if err := rows.Scan(&record.RecordID, &record.DeviceID, &record.Description,
			&performedBy, &record.Status, &metadata, &record.Timestamp, &record.RecordedAt); err != nil {
			return nil, fmt.Errorf("failed to scan maintenance record: %w", err)
		}
		record.PerformedBy = performedBy.String
		if metadata.Valid && metadata.String != "" {
			_ = json.Unmarshal([]byte(metadata.String), &record.Metadata)
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

// SaveExtractedDocument writes the extracted text, a metadata JSON record
// and optionally the source payload to disk, indexes them, and returns
// the artifact descriptor.
func (s *SQLiteStore) SaveExtractedDocument(ctx context.Context, doc *ExtractedDocument) (*domain.Artifact, error) {
	stem := sanitizeStem(doc.Name)
	if stem == "" {
		stem = "ocr_document"
	}
	suffix := time.Now().UTC().Format("20060102-150405") + "-" + uuid.New().String()[:8]

	textPath := filepath.Join(s.ocrDir, fmt.Sprintf("%s_%s.txt", stem, suffix))
	if err := os.WriteFile(textPath, []byte(doc.Text), 0o644); err != nil {
		return nil, fmt.Errorf("failed to write extracted text: %w", err)
	}

	meta := map[string]any{
		"stored_at":    suffix,
		"content_path": textPath,
		"name":         doc.Name,
		"content_type": doc.ContentType,
	}

	var sourcePath string
	if len(doc.SourceBytes) > 0 {
		sourcePath = filepath.Join(s.ocrDir, fmt.Sprintf("%s_%s.bin", stem, suffix))
		if err := os.WriteFile(sourcePath, doc.SourceBytes, 0o644); err != nil {
			return nil, fmt.Errorf("failed to write source payload: %w", err)
		}
		meta["source_path"] = sourcePath
	}

	metaPath := filepath.Join(s.ocrDir, fmt.Sprintf("%s_%s.json", stem, suffix))
	metaBytes, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal artifact metadata: %w", err)
	}
	if err := os.WriteFile(metaPath, metaBytes, 0o644); err != nil {
		return nil, fmt.Errorf("failed to write artifact metadata: %w", err)
	}

	artifact := &domain.Artifact{
		TextPath:     textPath,
		MetadataPath: metaPath,
		SourcePath:   sourcePath,
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO artifacts (artifact_id, name, content_type, text_path, metadata_path, source_path)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		"doc_"+uuid.New().String()[:8], doc.Name, doc.ContentType,
		artifact.TextPath, artifact.MetadataPath, artifact.SourcePath)
	if err != nil {
		return nil, fmt.Errorf("failed to index artifact: %w", err)
	}

	return artifact, nil
}

// sanitizeStem strips anything that is not alphanumeric, '-' or '_' so
// attachment names cannot escape the results directory.
func sanitizeStem(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		}
	}
	return strings.Trim(b.String(), "-_")
}
