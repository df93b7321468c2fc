// Package drive implements the folder organization engine for Google Drive:
// resilient remote calls, canonical path resolution with caching, idempotent
// find-or-create of folders, and the shoot/content hierarchy built on top.
package drive

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	gdrive "google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
)

const (
	// RootID is the alias Drive accepts for the user's My Drive root.
	RootID = "root"

	folderMimeType = "application/vnd.google-apps.folder"

	// Field selections kept minimal so list calls stay cheap.
	folderFields = "id, name, webViewLink"
	listFields   = "nextPageToken, files(id, name, webViewLink)"
)

// RemoteFolder is the minimal identity of a folder as returned by the
// remote API.
type RemoteFolder struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	ViewLink string `json:"viewLink"`
}

// FolderMeta is the parent-link metadata used by path resolution. ParentID
// is empty when the remote reports no parent, which happens for the My
// Drive root itself and for shared-drive roots.
type FolderMeta struct {
	Name     string
	ParentID string
}

// DriveInfo identifies a shared drive.
type DriveInfo struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// API is the remote capability the engine consumes. The production
// implementation wraps the Drive v3 service; tests substitute an in-memory
// fake. Implementations return *googleapi.Error for remote failures so the
// executor can classify them.
type API interface {
	// FindFolders returns the non-trashed folders named name directly
	// under parentID.
	FindFolders(ctx context.Context, name, parentID string) ([]RemoteFolder, error)

	// ListFolders returns all non-trashed folders directly under
	// parentID. When driveID is non-empty the listing is scoped to that
	// shared drive.
	ListFolders(ctx context.Context, parentID, driveID string) ([]RemoteFolder, error)

	// GetFolderMeta returns the name and parent of a folder. Parent ids
	// are always canonical; the "root" alias never appears in them.
	GetFolderMeta(ctx context.Context, id string) (FolderMeta, error)

	// GetRootID returns the canonical id of the user's My Drive root.
	GetRootID(ctx context.Context) (string, error)

	// CreateFolder creates a folder under parentID.
	CreateFolder(ctx context.Context, name, parentID string) (RemoteFolder, error)

	// ListDrives returns the shared drives visible to the principal.
	ListDrives(ctx context.Context) ([]DriveInfo, error)

	// GetDrive returns a shared drive by id, or an error wrapping a 404
	// when id is not a shared drive.
	GetDrive(ctx context.Context, id string) (DriveInfo, error)
}

// GoogleAPI implements API against the Drive v3 REST service.
type GoogleAPI struct {
	svc *gdrive.Service
}

// NewGoogleAPI creates a Drive v3 backed API using the given authorized
// HTTP client.
func NewGoogleAPI(ctx context.Context, client *http.Client) (*GoogleAPI, error) {
	svc, err := gdrive.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("failed to create Drive service: %w", err)
	}
	return &GoogleAPI{svc: svc}, nil
}

// escapeQuery escapes the characters Drive's query language treats
// specially inside single-quoted strings.
func escapeQuery(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `'`, `\'`)
}

func toRemoteFolder(f *gdrive.File) RemoteFolder {
	return RemoteFolder{ID: f.Id, Name: f.Name, ViewLink: f.WebViewLink}
}

// FindFolders searches for folders with an exact name under a parent.
func (g *GoogleAPI) FindFolders(ctx context.Context, name, parentID string) ([]RemoteFolder, error) {
	query := fmt.Sprintf("name = '%s' and '%s' in parents and mimeType = '%s' and trashed = false",
		escapeQuery(name), escapeQuery(parentID), folderMimeType)

	var folders []RemoteFolder
	pageToken := ""
	for {
		call := g.svc.Files.List().Context(ctx).
			Q(query).
			Fields(listFields).
			SupportsAllDrives(true).
			IncludeItemsFromAllDrives(true).
			PageSize(100)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}
		list, err := call.Do()
		if err != nil {
			return nil, err
		}
		for _, f := range list.Files {
			folders = append(folders, toRemoteFolder(f))
		}
		pageToken = list.NextPageToken
		if pageToken == "" {
			return folders, nil
		}
	}
}

// ListFolders lists all folders under a parent, optionally scoped to a
// shared drive so items from other drives cannot leak into the result.
func (g *GoogleAPI) ListFolders(ctx context.Context, parentID, driveID string) ([]RemoteFolder, error) {
	query := fmt.Sprintf("'%s' in parents and mimeType = '%s' and trashed = false",
		escapeQuery(parentID), folderMimeType)

	var folders []RemoteFolder
	pageToken := ""
	for {
		call := g.svc.Files.List().Context(ctx).
			Q(query).
			Fields(listFields).
			SupportsAllDrives(true).
			IncludeItemsFromAllDrives(true).
			OrderBy("name").
			PageSize(100)
		if driveID != "" {
			call = call.Corpora("drive").DriveId(driveID)
		}
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}
		list, err := call.Do()
		if err != nil {
			return nil, err
		}
		for _, f := range list.Files {
			folders = append(folders, toRemoteFolder(f))
		}
		pageToken = list.NextPageToken
		if pageToken == "" {
			return folders, nil
		}
	}
}

// GetFolderMeta fetches the name and first parent of a folder.
func (g *GoogleAPI) GetFolderMeta(ctx context.Context, id string) (FolderMeta, error) {
	f, err := g.svc.Files.Get(id).Context(ctx).
		Fields("id, name, parents").
		SupportsAllDrives(true).
		Do()
	if err != nil {
		return FolderMeta{}, err
	}
	meta := FolderMeta{Name: f.Name}
	if len(f.Parents) > 0 {
		meta.ParentID = f.Parents[0]
	}
	return meta, nil
}

// GetRootID resolves the "root" alias to the canonical My Drive folder
// id. Parent links returned by the files endpoint always use the canonical
// id, so the resolver needs it to recognize the top of a walk.
func (g *GoogleAPI) GetRootID(ctx context.Context) (string, error) {
	f, err := g.svc.Files.Get(RootID).Context(ctx).Fields("id").Do()
	if err != nil {
		return "", err
	}
	return f.Id, nil
}

// CreateFolder creates a folder under the given parent.
func (g *GoogleAPI) CreateFolder(ctx context.Context, name, parentID string) (RemoteFolder, error) {
	f, err := g.svc.Files.Create(&gdrive.File{
		Name:     name,
		MimeType: folderMimeType,
		Parents:  []string{parentID},
	}).Context(ctx).
		Fields(folderFields).
		SupportsAllDrives(true).
		Do()
	if err != nil {
		return RemoteFolder{}, err
	}
	return toRemoteFolder(f), nil
}

// ListDrives lists the shared drives available to the principal.
func (g *GoogleAPI) ListDrives(ctx context.Context) ([]DriveInfo, error) {
	var drives []DriveInfo
	pageToken := ""
	for {
		call := g.svc.Drives.List().Context(ctx).
			Fields("nextPageToken, drives(id, name)").
			PageSize(100)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}
		list, err := call.Do()
		if err != nil {
			return nil, err
		}
		for _, d := range list.Drives {
			drives = append(drives, DriveInfo{ID: d.Id, Name: d.Name})
		}
		pageToken = list.NextPageToken
		if pageToken == "" {
			return drives, nil
		}
	}
}

// GetDrive fetches a shared drive by id. A 404 means the id is an ordinary
// folder, not a drive root.
func (g *GoogleAPI) GetDrive(ctx context.Context, id string) (DriveInfo, error) {
	d, err := g.svc.Drives.Get(id).Context(ctx).Fields("id, name").Do()
	if err != nil {
		return DriveInfo{}, err
	}
	return DriveInfo{ID: d.Id, Name: d.Name}, nil
}
