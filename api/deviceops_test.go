package api

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetKnowledgeBaseReturnsSeededEntries(t *testing.T) {
	h := newTestHandler(t)

	rec := doRequest(t, h.GetKnowledgeBase, http.MethodGet, "/api/device-ops/knowledge-base", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Entries map[string]string `json:"entries"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Contains(t, resp.Entries, "reset_procedure")
}

func TestUpsertKnowledgeBase(t *testing.T) {
	h := newTestHandler(t)

	rec := doRequest(t, h.UpsertKnowledgeBase, http.MethodPost, "/api/device-ops/knowledge-base",
		`{"key":"belt_tension","content":"check quarterly"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Entries map[string]string `json:"entries"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "check quarterly", resp.Entries["belt_tension"])
}

func TestUpsertKnowledgeBaseValidation(t *testing.T) {
	h := newTestHandler(t)

	rec := doRequest(t, h.UpsertKnowledgeBase, http.MethodPost, "/api/device-ops/knowledge-base",
		`{"key":"only-key"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRecordAndListMaintenance(t *testing.T) {
	h := newTestHandler(t)

	rec := doRequest(t, h.RecordMaintenance, http.MethodPost, "/api/device-ops/maintenance-records",
		`{"device_id":"pump-1","description":"replaced filter","performed_by":"sam"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var created struct {
		Record struct {
			RecordID string `json:"record_id"`
			Status   string `json:"status"`
		} `json:"record"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.NotEmpty(t, created.Record.RecordID)
	assert.Equal(t, "pending", created.Record.Status)

	rec = doRequest(t, h.ListMaintenanceRecords, http.MethodGet,
		"/api/device-ops/maintenance-records?device_id=pump-1", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var listed struct {
		Records []struct {
			DeviceID    string `json:"device_id"`
			Description string `json:"description"`
		} `json:"records"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listed))
	require.Len(t, listed.Records, 1)
	assert.Equal(t, "replaced filter", listed.Records[0].Description)
}

func TestListMaintenanceEmpty(t *testing.T) {
	h := newTestHandler(t)

	rec := doRequest(t, h.ListMaintenanceRecords, http.MethodGet, "/api/device-ops/maintenance-records", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"records":[]`)
}

func TestRecordMaintenanceValidation(t *testing.T) {
	h := newTestHandler(t)

	rec := doRequest(t, h.RecordMaintenance, http.MethodPost, "/api/device-ops/maintenance-records",
		`{"device_id":"pump-1"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
