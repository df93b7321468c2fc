package drive

import (
	"context"
	"errors"
	"log"
	"strings"
	"sync"
)

const (
	myDriveRoot      = "/My Drive"
	sharedDrivesRoot = "/Shared Drives"
)

// Resolver computes the canonical, human-readable path of a folder by
// walking its parent links up to a drive root. Every id visited on the way
// up is written through to the PathCache so later resolutions of any
// ancestor are cache hits.
type Resolver struct {
	api   API
	exec  *Executor
	cache *PathCache

	// Canonical My Drive root id, fetched once. Parent links carry the
	// canonical id, never the "root" alias.
	rootMu sync.Mutex
	rootID string
}

// NewResolver creates a Resolver.
func NewResolver(api API, exec *Executor, cache *PathCache) *Resolver {
	return &Resolver{api: api, exec: exec, cache: cache}
}

type parentLink struct {
	id   string
	name string
}

// ResolvePath returns the canonical path of folderID, rooted at "/My Drive"
// or "/Shared Drives/<drive name>". A parent-chain cycle degrades to a
// best-effort path instead of failing; any other remote failure propagates
// and the caller must treat the location as unknown.
func (r *Resolver) ResolvePath(ctx context.Context, folderID string) (string, error) {
	if folderID == "" || folderID == RootID {
		return myDriveRoot, nil
	}
	if path, ok := r.cache.Get(folderID); ok {
		return path, nil
	}

	rootID, err := r.rootFolderID(ctx)
	if err != nil {
		return "", err
	}

	// Walk upward collecting names until we hit the root, a cached
	// ancestor, or a shared-drive root.
	var chain []parentLink // leaf first
	visited := make(map[string]bool)
	prefix := ""
	current := folderID

	for {
		if visited[current] {
			path := bestEffortPath(folderID, chain)
			log.Printf("Warning: parent cycle detected at folder %s, using best-effort path %q", current, path)
			return path, nil
		}
		visited[current] = true

		if current == RootID || current == rootID {
			prefix = myDriveRoot
			break
		}
		if path, ok := r.cache.Get(current); ok {
			prefix = path
			break
		}

		var meta FolderMeta
		err := r.exec.Do(ctx, "get folder metadata", func() error {
			var apiErr error
			meta, apiErr = r.api.GetFolderMeta(ctx, current)
			return apiErr
		})
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				// The id may be a shared-drive root, which the
				// files endpoint does not always serve.
				if info, derr := r.getDrive(ctx, current); derr == nil {
					prefix = sharedDrivesRoot + "/" + info.Name
					r.cache.Set(current, prefix)
					break
				}
			}
			return "", err
		}

		if meta.ParentID == "" {
			// Top of a hierarchy: either a shared-drive root or an
			// item living directly under My Drive.
			info, derr := r.getDrive(ctx, current)
			if derr == nil {
				prefix = sharedDrivesRoot + "/" + info.Name
				r.cache.Set(current, prefix)
				break
			}
			if !errors.Is(derr, ErrNotFound) {
				return "", derr
			}
			chain = append(chain, parentLink{id: current, name: meta.Name})
			prefix = myDriveRoot
			break
		}

		chain = append(chain, parentLink{id: current, name: meta.Name})
		current = meta.ParentID
	}

	// Descend from the root, caching every intermediate id's path.
	path := prefix
	for i := len(chain) - 1; i >= 0; i-- {
		path = path + "/" + chain[i].name
		r.cache.Set(chain[i].id, path)
	}
	return path, nil
}

// rootFolderID fetches and memoizes the canonical My Drive root id.
// Failures are not memoized so a transient error does not poison later
// resolutions.
func (r *Resolver) rootFolderID(ctx context.Context) (string, error) {
	r.rootMu.Lock()
	defer r.rootMu.Unlock()
	if r.rootID != "" {
		return r.rootID, nil
	}

	var id string
	err := r.exec.Do(ctx, "resolve root folder id", func() error {
		var apiErr error
		id, apiErr = r.api.GetRootID(ctx)
		return apiErr
	})
	if err != nil {
		return "", err
	}
	r.rootID = id
	return id, nil
}

func (r *Resolver) getDrive(ctx context.Context, id string) (DriveInfo, error) {
	var info DriveInfo
	err := r.exec.Do(ctx, "get shared drive", func() error {
		var apiErr error
		info, apiErr = r.api.GetDrive(ctx, id)
		return apiErr
	})
	return info, err
}

// bestEffortPath joins the names gathered before a cycle guard tripped.
// Never empty: a caller seeing "" could not tell it from a path still being
// constructed.
func bestEffortPath(folderID string, chain []parentLink) string {
	if len(chain) == 0 {
		return "/" + folderID
	}
	names := make([]string, len(chain))
	for i, link := range chain {
		names[len(chain)-1-i] = link.name
	}
	return "/" + strings.Join(names, "/")
}
