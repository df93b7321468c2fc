// Package models provides data structures for the shoot planner API
package models

import (
	"time"
)

// EnsureFolderRequest asks for a folder to exist under a parent
type EnsureFolderRequest struct {
	Name     string `json:"name"`
	ParentID string `json:"parentId,omitempty"`
}

// ShootFolderRequest asks for the full folder chain of a shoot
type ShootFolderRequest struct {
	BusinessName    string `json:"businessName"`
	ShootTitle      string `json:"shootTitle"`
	ShootDate       string `json:"shootDate"` // YYYY-MM-DD
	ContentItemName string `json:"contentItemName,omitempty"`
	Bucket          string `json:"bucket,omitempty"` // "raw-files" or "misc-files"

	// Optional per-request overrides of the tenant naming defaults
	ParentFolderID   string `json:"parentFolderId,omitempty"`
	InsertYearFolder *bool  `json:"insertYearFolder,omitempty"`
	NamingPattern    string `json:"namingPattern,omitempty"`
	CustomTemplate   string `json:"customTemplate,omitempty"`
}

// TaskStatus describes an asynchronous provisioning task
type TaskStatus struct {
	TaskID      string      `json:"taskId"`
	Status      string      `json:"status"` // "queued", "running", "complete", "error"
	SubmittedAt time.Time   `json:"submittedAt"`
	Result      interface{} `json:"result,omitempty"`
	Error       string      `json:"error,omitempty"`
}

// APIResponse is a generic API response structure
type APIResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}
