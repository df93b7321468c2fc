// Package handlers provides HTTP handlers for the shoot planner API
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/example/shootplanner/internal/config"
	"github.com/example/shootplanner/internal/drive"
	"github.com/example/shootplanner/internal/models"
	"github.com/example/shootplanner/internal/provisioning"
)

// folderBrowser lists the navigable folder hierarchy
type folderBrowser interface {
	ListChildren(ctx context.Context, parentID string) ([]drive.NavigationItem, error)
}

// folderFactory ensures single folders exist
type folderFactory interface {
	EnsureFolder(ctx context.Context, name, parentID string) (drive.ResolvedFolder, error)
}

// pathResolver resolves canonical display paths
type pathResolver interface {
	ResolvePath(ctx context.Context, folderID string) (string, error)
}

// chainBuilder builds full shoot folder chains
type chainBuilder interface {
	BuildContentFolder(ctx context.Context, businessName, shootTitle string, shootDate time.Time, contentItemName string, bucket drive.Bucket, cfg drive.NamingConfig) (drive.ResolvedFolder, error)
}

// taskPool runs provisioning jobs asynchronously
type taskPool interface {
	Submit(run func() (drive.ResolvedFolder, error)) (string, error)
	Snapshot(id string) (provisioning.Snapshot, bool)
	ActiveTasks() int
}

// FolderHandler handles folder-related HTTP requests
type FolderHandler struct {
	browser  folderBrowser
	factory  folderFactory
	resolver pathResolver
	builder  chainBuilder
	pool     taskPool
}

// NewFolderHandler creates a new FolderHandler
func NewFolderHandler(browser folderBrowser, factory folderFactory, resolver pathResolver, builder chainBuilder, pool taskPool) *FolderHandler {
	return &FolderHandler{
		browser:  browser,
		factory:  factory,
		resolver: resolver,
		builder:  builder,
		pool:     pool,
	}
}

// RegisterRoutes registers the folder API routes on a router
func (h *FolderHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/api/folders", h.ListFolders).Methods(http.MethodGet, http.MethodOptions)
	r.HandleFunc("/api/folders/ensure", h.EnsureFolder).Methods(http.MethodPost, http.MethodOptions)
	r.HandleFunc("/api/folders/{id}/path", h.ResolvePath).Methods(http.MethodGet, http.MethodOptions)
	r.HandleFunc("/api/shoots/folders", h.CreateShootFolders).Methods(http.MethodPost, http.MethodOptions)
	r.HandleFunc("/api/tasks/{id}", h.GetTaskStatus).Methods(http.MethodGet, http.MethodOptions)
}

// ListFolders handles GET /api/folders?parentId=...
func (h *FolderHandler) ListFolders(w http.ResponseWriter, r *http.Request) {
	parentID := r.URL.Query().Get("parentId")

	items, err := h.browser.ListChildren(r.Context(), parentID)
	if err != nil {
		respondDriveError(w, "Error listing folders", err)
		return
	}

	respondJSON(w, http.StatusOK, models.APIResponse{
		Success: true,
		Data:    items,
	})
}

// EnsureFolder handles POST /api/folders/ensure
func (h *FolderHandler) EnsureFolder(w http.ResponseWriter, r *http.Request) {
	var req models.EnsureFolderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	folder, err := h.factory.EnsureFolder(r.Context(), req.Name, req.ParentID)
	if err != nil {
		respondDriveError(w, "Error ensuring folder", err)
		return
	}

	respondJSON(w, http.StatusOK, models.APIResponse{
		Success: true,
		Data:    folder,
	})
}

// ResolvePath handles GET /api/folders/{id}/path
func (h *FolderHandler) ResolvePath(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	path, err := h.resolver.ResolvePath(r.Context(), id)
	if err != nil {
		respondDriveError(w, "Error resolving path", err)
		return
	}

	respondJSON(w, http.StatusOK, models.APIResponse{
		Success: true,
		Data:    map[string]string{"id": id, "path": path},
	})
}

// CreateShootFolders handles POST /api/shoots/folders. The chain is built
// asynchronously; the response carries a task id the client can poll or
// subscribe to over the websocket.
func (h *FolderHandler) CreateShootFolders(w http.ResponseWriter, r *http.Request) {
	var req models.ShootFolderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if strings.TrimSpace(req.BusinessName) == "" {
		respondError(w, http.StatusBadRequest, "businessName is required")
		return
	}
	if strings.TrimSpace(req.ShootTitle) == "" {
		respondError(w, http.StatusBadRequest, "shootTitle is required")
		return
	}

	shootDate, err := time.Parse("2006-01-02", req.ShootDate)
	if err != nil {
		respondError(w, http.StatusBadRequest, "shootDate must be YYYY-MM-DD")
		return
	}

	bucket := drive.Bucket(req.Bucket)
	switch bucket {
	case "", drive.BucketRawFiles, drive.BucketMiscFiles:
	default:
		respondError(w, http.StatusBadRequest, "bucket must be raw-files or misc-files")
		return
	}

	cfg := namingConfigFor(req)
	businessName := req.BusinessName
	shootTitle := req.ShootTitle
	contentItem := req.ContentItemName

	taskID, err := h.pool.Submit(func() (drive.ResolvedFolder, error) {
		// The request context dies when this handler returns; the job
		// gets its own deadline.
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()
		return h.builder.BuildContentFolder(ctx, businessName, shootTitle, shootDate, contentItem, bucket, cfg)
	})
	if err != nil {
		if errors.Is(err, provisioning.ErrQueueFull) {
			respondError(w, http.StatusServiceUnavailable, "Provisioning queue is full, try again later")
			return
		}
		respondError(w, http.StatusServiceUnavailable, "Provisioning is unavailable")
		return
	}

	respondJSON(w, http.StatusAccepted, models.APIResponse{
		Success: true,
		Message: "Folder provisioning started",
		Data: models.TaskStatus{
			TaskID:      taskID,
			Status:      provisioning.StatusQueued,
			SubmittedAt: time.Now(),
		},
	})
}

// GetTaskStatus handles GET /api/tasks/{id}
func (h *FolderHandler) GetTaskStatus(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	snap, ok := h.pool.Snapshot(id)
	if !ok {
		respondError(w, http.StatusNotFound, "Task not found")
		return
	}

	status := models.TaskStatus{
		TaskID:      snap.ID,
		Status:      snap.Status,
		SubmittedAt: snap.SubmittedAt,
	}
	if snap.Status == provisioning.StatusComplete {
		status.Result = snap.Folder
	}
	if snap.Err != nil {
		status.Error = snap.Err.Error()
	}

	respondJSON(w, http.StatusOK, models.APIResponse{
		Success: true,
		Data:    status,
	})
}

// HealthCheck handles GET /health
func (h *FolderHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":      "ok",
		"activeTasks": h.pool.ActiveTasks(),
	})
}

// namingConfigFor merges per-request overrides onto the configured tenant
// defaults.
func namingConfigFor(req models.ShootFolderRequest) drive.NamingConfig {
	defaults := config.AppConfig.Naming
	cfg := drive.NamingConfig{
		ParentFolderID:   defaults.ParentFolderID,
		InsertYearFolder: defaults.InsertYearFolder,
		Pattern:          drive.NamingPattern(defaults.NamingPattern),
		CustomTemplate:   defaults.CustomTemplate,
	}

	if req.ParentFolderID != "" {
		cfg.ParentFolderID = req.ParentFolderID
	}
	if req.InsertYearFolder != nil {
		cfg.InsertYearFolder = *req.InsertYearFolder
	}
	if req.NamingPattern != "" {
		cfg.Pattern = drive.NamingPattern(req.NamingPattern)
	}
	if req.CustomTemplate != "" {
		cfg.CustomTemplate = req.CustomTemplate
	}
	return cfg
}

// respondDriveError maps engine errors to HTTP statuses
func respondDriveError(w http.ResponseWriter, message string, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, drive.ErrEmptyName):
		status = http.StatusBadRequest
	case errors.Is(err, drive.ErrAuthExpired):
		status = http.StatusUnauthorized
	case errors.Is(err, drive.ErrPermissionDenied):
		status = http.StatusForbidden
	case errors.Is(err, drive.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, drive.ErrQuotaExceeded):
		status = http.StatusForbidden
	case errors.Is(err, drive.ErrRateLimited):
		status = http.StatusTooManyRequests
	case errors.Is(err, drive.ErrRemoteUnavailable):
		status = http.StatusBadGateway
	}

	log.Printf("%s: %v", message, err)
	respondJSON(w, status, models.APIResponse{
		Success: false,
		Message: message,
		Error:   err.Error(),
	})
}

// respondJSON sends a JSON response with the given status code
func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("Error encoding response: %v", err)
	}
}

// respondError sends a JSON error response
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, models.APIResponse{
		Success: false,
		Error:   message,
	})
}
