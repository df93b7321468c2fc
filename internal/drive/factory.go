package drive

import (
	"context"
	"fmt"
	"log"
	"strings"

	"golang.org/x/sync/singleflight"
)

// ResolvedFolder is a RemoteFolder together with its canonical path.
type ResolvedFolder struct {
	RemoteFolder
	Path string `json:"path"`
}

// Factory finds or creates folders idempotently. Concurrent EnsureFolder
// calls for the same (parent, name) pair are coalesced into one in-flight
// operation, so at most one create call ever reaches the remote API for a
// given pair; the coalescing entry is dropped once the operation settles so
// a later call after a failure retries cleanly.
type Factory struct {
	api      API
	exec     *Executor
	cache    *PathCache
	resolver *Resolver
	inflight singleflight.Group
}

// NewFactory creates a Factory.
func NewFactory(api API, exec *Executor, cache *PathCache, resolver *Resolver) *Factory {
	return &Factory{api: api, exec: exec, cache: cache, resolver: resolver}
}

// EnsureFolder returns the folder named name directly under parentID,
// creating it if absent. An empty parentID means the My Drive root. A name
// that is empty after trimming fails without any remote call.
func (f *Factory) EnsureFolder(ctx context.Context, name, parentID string) (ResolvedFolder, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return ResolvedFolder{}, fmt.Errorf("ensure folder: %w", ErrEmptyName)
	}
	if parentID == "" {
		parentID = RootID
	}

	// The coalesced operation serves every caller awaiting the key, so it
	// must not die with the first caller's context.
	opCtx := context.WithoutCancel(ctx)

	key := parentID + "\x00" + name
	v, err, _ := f.inflight.Do(key, func() (interface{}, error) {
		return f.findOrCreate(opCtx, name, parentID)
	})
	if err != nil {
		return ResolvedFolder{}, err
	}
	return v.(ResolvedFolder), nil
}

func (f *Factory) findOrCreate(ctx context.Context, name, parentID string) (ResolvedFolder, error) {
	folder, found, err := f.find(ctx, name, parentID)
	if err != nil {
		return ResolvedFolder{}, err
	}

	if !found {
		err = f.exec.Do(ctx, fmt.Sprintf("create folder %q", name), func() error {
			var apiErr error
			folder, apiErr = f.api.CreateFolder(ctx, name, parentID)
			return apiErr
		})
		if err != nil {
			// Another process instance may have created the folder
			// between our search and create; look once more before
			// giving up.
			if !alreadyExists(err) {
				return ResolvedFolder{}, err
			}
			raced, racedFound, findErr := f.find(ctx, name, parentID)
			if findErr != nil || !racedFound {
				return ResolvedFolder{}, err
			}
			folder = raced
		}
	}

	// The parent path is usually already cached, making this a string
	// concatenation instead of a remote walk.
	parentPath, err := f.resolver.ResolvePath(ctx, parentID)
	if err != nil {
		return ResolvedFolder{}, err
	}
	path := parentPath + "/" + folder.Name
	f.cache.Set(folder.ID, path)

	return ResolvedFolder{RemoteFolder: folder, Path: path}, nil
}

func (f *Factory) find(ctx context.Context, name, parentID string) (RemoteFolder, bool, error) {
	var matches []RemoteFolder
	err := f.exec.Do(ctx, fmt.Sprintf("find folder %q", name), func() error {
		var apiErr error
		matches, apiErr = f.api.FindFolders(ctx, name, parentID)
		return apiErr
	})
	if err != nil {
		return RemoteFolder{}, false, err
	}
	if len(matches) == 0 {
		return RemoteFolder{}, false, nil
	}
	if len(matches) > 1 {
		// A prior race or manual duplication; take the first match and
		// leave the duplicates alone.
		log.Printf("Warning: found %d folders named %q under %s, using %s", len(matches), name, parentID, matches[0].ID)
	}
	return matches[0], true, nil
}
