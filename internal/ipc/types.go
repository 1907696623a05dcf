package ipc

import "time"

// StartRequest brings up the engine event sources.
type StartRequest struct{}

// StartResponse indicates whether the engine was started.
type StartResponse struct {
	Started bool   `json:"started"`
	Message string `json:"message"`
}

// StopRequest halts the engine event sources.
type StopRequest struct{}

// StopResponse indicates stop result.
type StopResponse struct {
	Stopped bool `json:"stopped"`
}

// StatusRequest fetches daemon status.
type StatusRequest struct{}

// CheckResult mirrors a preflight check outcome.
type CheckResult struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail"`
}

// StatusResponse represents combined daemon/engine status information.
type StatusResponse struct {
	Running            bool          `json:"running"`
	PID                int           `json:"pid"`
	StartedAt          time.Time     `json:"started_at"`
	DBPath             string        `json:"db_path"`
	LockPath           string        `json:"lock_path"`
	SocketPath         string        `json:"socket_path"`
	TrackedCount       int           `json:"tracked_count"`
	ActiveAcquisitions int           `json:"active_acquisitions"`
	PendingOverrides   int           `json:"pending_overrides"`
	ArmedOverrides     int           `json:"armed_overrides"`
	WatchEnabled       bool          `json:"watch_enabled"`
	WatchDirectory     string        `json:"watch_directory"`
	Checks             []CheckResult `json:"checks"`
}

// Record is the IPC DTO for one tracked file.
type Record struct {
	ID             string    `json:"id"`
	DisplayName    string    `json:"display_name"`
	NormalizedName string    `json:"normalized_name"`
	Size           int64     `json:"size"`
	StoragePath    string    `json:"storage_path"`
	SourceLocation string    `json:"source_location"`
	Fingerprint    string    `json:"fingerprint"`
	RegisteredAt   time.Time `json:"registered_at"`
}

// RecordListRequest fetches the tracked collection.
type RecordListRequest struct{}

// RecordListResponse contains tracked records in registration order.
type RecordListResponse struct {
	Records []Record `json:"records"`
}

// RecordRemoveRequest removes one record by id.
type RecordRemoveRequest struct {
	ID string `json:"id"`
}

// RecordRemoveResponse reports removal outcome and the new tracked count.
type RecordRemoveResponse struct {
	Removed      bool `json:"removed"`
	TrackedCount int  `json:"tracked_count"`
}

// RecordClearRequest empties the collection.
type RecordClearRequest struct{}

// RecordClearResponse reports number of removed records.
type RecordClearResponse struct {
	Removed int64 `json:"removed"`
}

// RecordExportRequest renders the collection as CSV.
type RecordExportRequest struct{}

// RecordExportResponse carries the CSV document.
type RecordExportResponse struct {
	CSV string `json:"csv"`
}

// PendingItem is the IPC DTO for a blocked duplicate awaiting a decision.
type PendingItem struct {
	OriginalID      string    `json:"original_id"`
	DisplayName     string    `json:"display_name"`
	SourceLocation  string    `json:"source_location"`
	BlockedByRecord string    `json:"blocked_by_record"`
	MatchBasis      string    `json:"match_basis"`
	BlockedAt       time.Time `json:"blocked_at"`
}

// PendingListRequest fetches blocked duplicates awaiting a decision.
type PendingListRequest struct{}

// PendingListResponse contains pending items, newest first.
type PendingListResponse struct {
	Items []PendingItem `json:"items"`
}

// PendingAllowRequest executes proceed-anyway for a blocked item.
type PendingAllowRequest struct {
	ID string `json:"id"`
}

// PendingAllowResponse echoes the replayed item.
type PendingAllowResponse struct {
	Item PendingItem `json:"item"`
}

// EventCreatedRequest reports a new acquisition from an external integration.
type EventCreatedRequest struct {
	ID             string `json:"id"`
	Path           string `json:"path"`
	Name           string `json:"name"`
	DeclaredSize   int64  `json:"declared_size"`
	SourceLocation string `json:"source_location"`
}

// EventNameKnownRequest reports the assigned name for an acquisition.
type EventNameKnownRequest struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// EventCompletedRequest reports a finished acquisition.
type EventCompletedRequest struct {
	ID string `json:"id"`
}

// EventResponse acknowledges an event submission.
type EventResponse struct {
	Accepted bool `json:"accepted"`
}

// TestNotificationRequest triggers a notification test.
type TestNotificationRequest struct{}

// TestNotificationResponse reports notification test outcome.
type TestNotificationResponse struct {
	Sent    bool   `json:"sent"`
	Message string `json:"message"`
}
