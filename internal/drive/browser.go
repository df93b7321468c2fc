package drive

import (
	"context"
	"errors"
)

// ItemKind tags a NavigationItem for folder-picker UIs.
type ItemKind string

// Navigation item kinds.
const (
	KindPersonalFolder ItemKind = "personal-folder"
	KindSharedDrive    ItemKind = "shared-drive"
	KindFolder         ItemKind = "folder"
)

// NavigationItem is one entry of a folder-picker listing. IsParentLink
// marks the synthetic "go back" entry; it is never persisted and its actual
// target is decided by the caller's own navigation stack.
type NavigationItem struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	ViewLink     string   `json:"viewLink,omitempty"`
	Path         string   `json:"path"`
	IsParentLink bool     `json:"isParentLink"`
	Kind         ItemKind `json:"kind"`
}

// Browser lists the navigable hierarchy for folder-picker UIs. It is
// stateless; the caller tracks where it has been.
type Browser struct {
	api      API
	exec     *Executor
	cache    *PathCache
	resolver *Resolver
}

// NewBrowser creates a Browser.
func NewBrowser(api API, exec *Executor, cache *PathCache, resolver *Resolver) *Browser {
	return &Browser{api: api, exec: exec, cache: cache, resolver: resolver}
}

// ListChildren lists the children of parentID. At the synthetic root (empty
// id or the root alias) it returns the union of the user's top-level
// personal folders and the shared drives available to them, with no back
// entry. At any other level a synthetic parent-link item is prepended.
func (b *Browser) ListChildren(ctx context.Context, parentID string) ([]NavigationItem, error) {
	if parentID == "" || parentID == RootID {
		return b.listRoot(ctx)
	}

	// A shared-drive root needs drive-scoped listing so results cannot
	// leak across drives.
	driveID := ""
	var parentPath string
	info, err := b.getDrive(ctx, parentID)
	switch {
	case err == nil:
		driveID = info.ID
		parentPath = sharedDrivesRoot + "/" + info.Name
		b.cache.Set(parentID, parentPath)
	case errors.Is(err, ErrNotFound):
		parentPath, err = b.resolver.ResolvePath(ctx, parentID)
		if err != nil {
			return nil, err
		}
	default:
		return nil, err
	}

	var folders []RemoteFolder
	err = b.exec.Do(ctx, "list folders", func() error {
		var apiErr error
		folders, apiErr = b.api.ListFolders(ctx, parentID, driveID)
		return apiErr
	})
	if err != nil {
		return nil, err
	}

	items := []NavigationItem{{
		ID:           parentID,
		Name:         "..",
		Path:         parentPath,
		IsParentLink: true,
		Kind:         KindFolder,
	}}
	for _, f := range folders {
		path := parentPath + "/" + f.Name
		b.cache.Set(f.ID, path)
		items = append(items, NavigationItem{
			ID:       f.ID,
			Name:     f.Name,
			ViewLink: f.ViewLink,
			Path:     path,
			Kind:     KindFolder,
		})
	}
	return items, nil
}

// listRoot returns the user's top-level personal folders followed by their
// shared drives.
func (b *Browser) listRoot(ctx context.Context) ([]NavigationItem, error) {
	var folders []RemoteFolder
	err := b.exec.Do(ctx, "list personal folders", func() error {
		var apiErr error
		folders, apiErr = b.api.ListFolders(ctx, RootID, "")
		return apiErr
	})
	if err != nil {
		return nil, err
	}

	var drives []DriveInfo
	err = b.exec.Do(ctx, "list shared drives", func() error {
		var apiErr error
		drives, apiErr = b.api.ListDrives(ctx)
		return apiErr
	})
	if err != nil {
		return nil, err
	}

	items := make([]NavigationItem, 0, len(folders)+len(drives))
	for _, f := range folders {
		path := myDriveRoot + "/" + f.Name
		b.cache.Set(f.ID, path)
		items = append(items, NavigationItem{
			ID:       f.ID,
			Name:     f.Name,
			ViewLink: f.ViewLink,
			Path:     path,
			Kind:     KindPersonalFolder,
		})
	}
	for _, d := range drives {
		path := sharedDrivesRoot + "/" + d.Name
		b.cache.Set(d.ID, path)
		items = append(items, NavigationItem{
			ID:   d.ID,
			Name: d.Name,
			Path: path,
			Kind: KindSharedDrive,
		})
	}
	return items, nil
}

func (b *Browser) getDrive(ctx context.Context, id string) (DriveInfo, error) {
	var info DriveInfo
	err := b.exec.Do(ctx, "get shared drive", func() error {
		var apiErr error
		info, apiErr = b.api.GetDrive(ctx, id)
		return apiErr
	})
	return info, err
}
