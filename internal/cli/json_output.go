// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// =============================================================================
// JSON RESPONSE ENVELOPE
// =============================================================================

// JSONResponse is the envelope every --json command prints. Success and
// error cases share the shape so scripts can parse either unconditionally.
type JSONResponse struct {
	Success   bool        `json:"success"`
	Data      interface{} `json:"data,omitempty"`
	Error     *string     `json:"error,omitempty"`
	Timestamp string      `json:"timestamp"`
	Command   string      `json:"command,omitempty"`
}

// NewJSONResponse creates a success envelope around data.
func NewJSONResponse(command string, data interface{}) *JSONResponse {
	return &JSONResponse{
		Success:   true,
		Data:      data,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Command:   command,
	}
}

// NewJSONErrorResponse creates an error envelope from an error.
func NewJSONErrorResponse(command string, err error) *JSONResponse {
	msg := err.Error()
	return &JSONResponse{
		Success:   false,
		Error:     &msg,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Command:   command,
	}
}

// Print writes the envelope to stdout, indented.
func (r *JSONResponse) Print() {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r); err != nil {
		fmt.Fprintf(os.Stderr, "Error encoding JSON output: %v\n", err)
	}
}

// String returns the envelope as an indented JSON string.
func (r *JSONResponse) String() string {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Sprintf(`{"success":false,"error":"encoding failed: %v"}`, err)
	}
	return string(data)
}

// =============================================================================
// COMMAND DATA PAYLOADS
// =============================================================================

// AskData is the payload for ask --json.
type AskData struct {
	Question         string `json:"question"`
	Answer           string `json:"answer"`
	Model            string `json:"model,omitempty"`
	SnapshotAttached bool   `json:"snapshot_attached"`
	DurationMs       int64  `json:"duration_ms"`
}

// StatusBackendData describes the advisor backend in status --json.
type StatusBackendData struct {
	Reachable bool   `json:"reachable"`
	BaseURL   string `json:"base_url"`
	Provider  string `json:"provider,omitempty"`
	Model     string `json:"model,omitempty"`
	Error     string `json:"error,omitempty"`
}

// StatusLedgerData describes the local ledger in status --json.
type StatusLedgerData struct {
	Path         string `json:"path"`
	Transactions int    `json:"transactions"`
	Batches      int    `json:"batches"`
	EarliestDate string `json:"earliest_date,omitempty"`
	LatestDate   string `json:"latest_date,omitempty"`
	SizeBytes    int64  `json:"size_bytes"`
	Error        string `json:"error,omitempty"`
}

// StatusData is the payload for status --json.
type StatusData struct {
	Version    string            `json:"version"`
	Backend    StatusBackendData `json:"backend"`
	Ledger     StatusLedgerData  `json:"ledger"`
	ConfigPath string            `json:"config_path,omitempty"`
}

// ImportData is the payload for import --json.
type ImportData struct {
	File              string `json:"file"`
	Source            string `json:"source"`
	BatchID           string `json:"batch_id"`
	Imported          int    `json:"imported"`
	Duplicates        int    `json:"duplicates"`
	Skipped           int    `json:"skipped"`
	TotalTransactions int    `json:"total_transactions"`
}

// ExportData is the payload for export --json.
type ExportData struct {
	ThreadID string `json:"thread_id"`
	Title    string `json:"title"`
	Messages int    `json:"messages"`
	Format   string `json:"format"`
	Path     string `json:"path"`
}

// DoctorCheck is a single environment check result.
type DoctorCheck struct {
	Name    string `json:"name"`
	Status  string `json:"status"` // "pass", "warn", or "fail"
	Message string `json:"message"`
	Fix     string `json:"fix,omitempty"`
}

// DoctorSummary aggregates check results.
type DoctorSummary struct {
	Passed  int  `json:"passed"`
	Warned  int  `json:"warned"`
	Failed  int  `json:"failed"`
	Healthy bool `json:"healthy"`
}

// DoctorData is the payload for doctor --json.
type DoctorData struct {
	Checks  []DoctorCheck `json:"checks"`
	Summary DoctorSummary `json:"summary"`
}

// VersionData is the payload for version --json.
type VersionData struct {
	Version   string `json:"version"`
	GitCommit string `json:"git_commit"`
	BuildDate string `json:"build_date"`
	GoVersion string `json:"go_version"`
}
