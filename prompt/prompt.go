// Package prompt assembles the textual LLM inputs for the agents. Both
// builders are pure functions of their arguments; map-valued sections are
// rendered in sorted key order so repeated calls produce byte-identical
// output.
package prompt

import (
	"fmt"
	"sort"
	"strings"

	"github.com/agenticai/agentd/domain"
)

const (
	noHistoryPlaceholder     = "No prior conversation."
	noTelemetryPlaceholder   = "- No telemetry reported"
	noKnowledgePlaceholder   = "- No knowledge base entries configured"
	noMaintenancePlaceholder = "- No maintenance history recorded"
)

// BuildDocumentPrompt renders the prompt for the OCR document agent.
// documentContext is the newline-joined extracted text (or a sentinel).
func BuildDocumentPrompt(query, documentContext string, history []domain.HistoryEntry) string {
	var b strings.Builder
	b.WriteString("You are an OCR assistant. Use the extracted text to answer the user.\n")
	b.WriteString("Conversation so far:\n")
	b.WriteString(renderHistory(history))
	b.WriteString("\n\nOCR context:\n")
	b.WriteString(documentContext)
	b.WriteString("\n\nUser question: ")
	b.WriteString(query)
	b.WriteString("\n")
	return b.String()
}

// BuildOperationsPrompt renders the prompt for the device operations agent.
func BuildOperationsPrompt(query string, telemetry map[string]any, knowledgeBase map[string]string, maintenanceHistory []domain.MaintenanceRecord, history []domain.HistoryEntry) string {
	var b strings.Builder
	b.WriteString("You are a device operations engineer assisting with diagnostics.")
	b.WriteString(" Combine the telemetry below with standard operating procedures to craft your response.\n")
	b.WriteString("Telemetry data:\n")
	b.WriteString(renderTelemetry(telemetry))
	b.WriteString("\n\nKnowledge base:\n")
	b.WriteString(renderKnowledgeBase(knowledgeBase))
	b.WriteString("\n\nRecent maintenance history:\n")
	b.WriteString(renderMaintenance(maintenanceHistory))
	b.WriteString("\n\nConversation so far:\n")
	b.WriteString(renderHistory(history))
	b.WriteString("\n\nUser request: ")
	b.WriteString(query)
	b.WriteString("\n")
	return b.String()
}

func renderTelemetry(telemetry map[string]any) string {
	if len(telemetry) == 0 {
		return noTelemetryPlaceholder
	}
	keys := make([]string, 0, len(telemetry))
	for key := range telemetry {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	lines := make([]string, 0, len(keys))
	for _, key := range keys {
		lines = append(lines, fmt.Sprintf("- %s: %v", key, telemetry[key]))
	}
	return strings.Join(lines, "\n")
}

func renderKnowledgeBase(entries map[string]string) string {
	if len(entries) == 0 {
		return noKnowledgePlaceholder
	}
	keys := make([]string, 0, len(entries))
	for key := range entries {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	lines := make([]string, 0, len(keys))
	for _, key := range keys {
		lines = append(lines, fmt.Sprintf("- %s: %s", key, entries[key]))
	}
	return strings.Join(lines, "\n")
}

func renderMaintenance(records []domain.MaintenanceRecord) string {
	if len(records) == 0 {
		return noMaintenancePlaceholder
	}
	lines := make([]string, 0, len(records))
	for _, record := range records {
		deviceID := record.DeviceID
		if deviceID == "" {
			deviceID = "unknown"
		}
		status := record.Status
		if status == "" {
			status = "unknown"
		}
		lines = append(lines, fmt.Sprintf("- %s | %s | %s", deviceID, status, record.Description))
	}
	return strings.Join(lines, "\n")
}

// renderHistory turns each entry into a "Role: message" line. Entries
// with an empty message are skipped.
func renderHistory(history []domain.HistoryEntry) string {
	lines := make([]string, 0, len(history))
	for _, entry := range history {
		message := strings.TrimSpace(entry.Message)
		if message == "" {
			continue
		}
		lines = append(lines, capitalize(entry.Role)+": "+message)
	}
	if len(lines) == 0 {
		return noHistoryPlaceholder
	}
	return strings.Join(lines, "\n")
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
