package drive

import (
	"context"
	"fmt"
	"sync"
	"time"

	"google.golang.org/api/googleapi"
)

// fakeAPI is an in-memory Drive used by the package tests. Hooks let
// individual tests script failures for specific operations.
type fakeAPI struct {
	mu      sync.Mutex
	folders map[string]*fakeFolder
	drives  map[string]DriveInfo
	nextID  int

	// Canonical id of the My Drive root; parent links use this id, and
	// GetRootID resolves the "root" alias to it.
	rootID string

	findCalls     int
	createCalls   int
	metaCalls     int
	listCalls     int
	driveGetCalls int
	rootCalls     int

	createDelay     time.Duration
	lastListDriveID string

	// Optional hooks; when set and the handled flag is true the default
	// behavior is skipped.
	onFind   func(name, parentID string) ([]RemoteFolder, bool, error)
	onCreate func(name, parentID string) (RemoteFolder, bool, error)
}

type fakeFolder struct {
	id       string
	name     string
	parentID string
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		folders: make(map[string]*fakeFolder),
		drives:  make(map[string]DriveInfo),
		rootID:  RootID,
	}
}

func apiError(code int, reason string) *googleapi.Error {
	gerr := &googleapi.Error{Code: code}
	if reason != "" {
		gerr.Errors = []googleapi.ErrorItem{{Reason: reason}}
	}
	return gerr
}

// addFolder seeds a folder and returns it.
func (a *fakeAPI) addFolder(name, parentID string) RemoteFolder {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.insertLocked(name, parentID)
}

// addFolderID seeds a folder with a fixed id, for cycle setups.
func (a *fakeAPI) addFolderID(id, name, parentID string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.folders[id] = &fakeFolder{id: id, name: name, parentID: parentID}
}

func (a *fakeAPI) addDrive(id, name string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.drives[id] = DriveInfo{ID: id, Name: name}
}

func (a *fakeAPI) insertLocked(name, parentID string) RemoteFolder {
	a.nextID++
	id := fmt.Sprintf("folder-%d", a.nextID)
	a.folders[id] = &fakeFolder{id: id, name: name, parentID: parentID}
	return RemoteFolder{ID: id, Name: name, ViewLink: "https://drive.example.com/" + id}
}

func (a *fakeAPI) FindFolders(ctx context.Context, name, parentID string) ([]RemoteFolder, error) {
	a.mu.Lock()
	a.findCalls++
	hook := a.onFind
	a.mu.Unlock()

	if hook != nil {
		if matches, handled, err := hook(name, parentID); handled {
			return matches, err
		}
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	var matches []RemoteFolder
	for _, f := range a.folders {
		if f.name == name && f.parentID == parentID {
			matches = append(matches, RemoteFolder{ID: f.id, Name: f.name, ViewLink: "https://drive.example.com/" + f.id})
		}
	}
	return matches, nil
}

func (a *fakeAPI) ListFolders(ctx context.Context, parentID, driveID string) ([]RemoteFolder, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.listCalls++
	a.lastListDriveID = driveID
	var children []RemoteFolder
	for _, f := range a.folders {
		if f.parentID == parentID {
			children = append(children, RemoteFolder{ID: f.id, Name: f.name, ViewLink: "https://drive.example.com/" + f.id})
		}
	}
	return children, nil
}

func (a *fakeAPI) GetFolderMeta(ctx context.Context, id string) (FolderMeta, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.metaCalls++
	if f, ok := a.folders[id]; ok {
		return FolderMeta{Name: f.name, ParentID: f.parentID}, nil
	}
	// Drive roots are not served by the files endpoint.
	return FolderMeta{}, apiError(404, "notFound")
}

func (a *fakeAPI) CreateFolder(ctx context.Context, name, parentID string) (RemoteFolder, error) {
	a.mu.Lock()
	a.createCalls++
	hook := a.onCreate
	delay := a.createDelay
	a.mu.Unlock()

	if hook != nil {
		if folder, handled, err := hook(name, parentID); handled {
			return folder, err
		}
	}
	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return RemoteFolder{}, ctx.Err()
		}
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	return a.insertLocked(name, parentID), nil
}

func (a *fakeAPI) GetRootID(ctx context.Context) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.rootCalls++
	return a.rootID, nil
}

func (a *fakeAPI) ListDrives(ctx context.Context) ([]DriveInfo, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	var drives []DriveInfo
	for _, d := range a.drives {
		drives = append(drives, d)
	}
	return drives, nil
}

func (a *fakeAPI) GetDrive(ctx context.Context, id string) (DriveInfo, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.driveGetCalls++
	if d, ok := a.drives[id]; ok {
		return d, nil
	}
	return DriveInfo{}, apiError(404, "notFound")
}

// newTestEngine wires an executor with no real sleeping, a fresh cache and
// the resolver/factory pair over the fake.
func newTestEngine(api *fakeAPI) (*Executor, *PathCache, *Resolver, *Factory) {
	exec := NewExecutor(DefaultMaxRetries, DefaultBaseDelay)
	exec.sleep = func(ctx context.Context, d time.Duration) error { return nil }
	cache := NewPathCache()
	resolver := NewResolver(api, exec, cache)
	factory := NewFactory(api, exec, cache, resolver)
	return exec, cache, resolver, factory
}
