package drive

import (
	"context"
	"strings"
	"testing"
)

func TestResolvePathRoot(t *testing.T) {
	api := newFakeAPI()
	_, _, resolver, _ := newTestEngine(api)

	for _, id := range []string{"", RootID} {
		path, err := resolver.ResolvePath(context.Background(), id)
		if err != nil {
			t.Fatalf("ResolvePath(%q) failed: %v", id, err)
		}
		if path != "/My Drive" {
			t.Errorf("ResolvePath(%q): expected /My Drive, got %q", id, path)
		}
	}
}

func TestResolvePathWalksChainAndPopulatesCache(t *testing.T) {
	api := newFakeAPI()
	a := api.addFolder("A", RootID)
	b := api.addFolder("B", a.ID)
	c := api.addFolder("C", b.ID)

	_, cache, resolver, _ := newTestEngine(api)

	path, err := resolver.ResolvePath(context.Background(), c.ID)
	if err != nil {
		t.Fatalf("ResolvePath failed: %v", err)
	}
	if path != "/My Drive/A/B/C" {
		t.Errorf("Expected /My Drive/A/B/C, got %q", path)
	}

	// Every intermediate id must now be resolvable without remote calls.
	wantCached := map[string]string{
		a.ID: "/My Drive/A",
		b.ID: "/My Drive/A/B",
		c.ID: "/My Drive/A/B/C",
	}
	for id, want := range wantCached {
		got, ok := cache.Get(id)
		if !ok {
			t.Errorf("Expected cache entry for %s", id)
			continue
		}
		if got != want {
			t.Errorf("Cache entry for %s: expected %q, got %q", id, want, got)
		}
	}

	metaCallsBefore := api.metaCalls
	if _, err := resolver.ResolvePath(context.Background(), a.ID); err != nil {
		t.Fatalf("Cached resolution failed: %v", err)
	}
	if api.metaCalls != metaCallsBefore {
		t.Errorf("Expected cached resolution without remote calls, got %d extra", api.metaCalls-metaCallsBefore)
	}
}

func TestResolvePathCanonicalRootParent(t *testing.T) {
	// The live API reports parents by canonical id, never the "root"
	// alias, and serves the root folder's own metadata as name "My Drive"
	// with no parents.
	api := newFakeAPI()
	api.rootID = "0AFxRootFolderId"
	api.addFolderID("0AFxRootFolderId", "My Drive", "")
	api.addFolderID("a", "A", "0AFxRootFolderId")
	api.addFolderID("b", "B", "a")

	_, cache, resolver, _ := newTestEngine(api)

	path, err := resolver.ResolvePath(context.Background(), "b")
	if err != nil {
		t.Fatalf("ResolvePath failed: %v", err)
	}
	if path != "/My Drive/A/B" {
		t.Errorf("Expected /My Drive/A/B, got %q", path)
	}
	if got, ok := cache.Get("a"); !ok || got != "/My Drive/A" {
		t.Errorf("Expected /My Drive/A cached for the intermediate id, got %q (present=%v)", got, ok)
	}

	// The walk must stop at the canonical root id, not fetch the root's
	// own metadata and fold "My Drive" into the chain.
	if api.metaCalls != 2 {
		t.Errorf("Expected metadata only for a and b, got %d calls", api.metaCalls)
	}

	// The alias resolution happens once, then is memoized.
	if _, err := resolver.ResolvePath(context.Background(), "a"); err != nil {
		t.Fatalf("Second resolution failed: %v", err)
	}
	if api.rootCalls != 1 {
		t.Errorf("Expected one root id lookup, got %d", api.rootCalls)
	}
}

func TestResolvePathCanonicalRootID(t *testing.T) {
	api := newFakeAPI()
	api.rootID = "0AFxRootFolderId"
	api.addFolderID("0AFxRootFolderId", "My Drive", "")

	_, _, resolver, _ := newTestEngine(api)

	path, err := resolver.ResolvePath(context.Background(), "0AFxRootFolderId")
	if err != nil {
		t.Fatalf("ResolvePath failed: %v", err)
	}
	if path != "/My Drive" {
		t.Errorf("Expected /My Drive for the canonical root id, got %q", path)
	}
}

func TestResolvePathSharedDriveRooting(t *testing.T) {
	api := newFakeAPI()
	api.addDrive("drive-1", "Marketing Assets")
	api.addFolderID("x", "Campaigns", "drive-1")
	api.addFolderID("y", "Q2", "x")

	_, cache, resolver, _ := newTestEngine(api)

	path, err := resolver.ResolvePath(context.Background(), "y")
	if err != nil {
		t.Fatalf("ResolvePath failed: %v", err)
	}
	if path != "/Shared Drives/Marketing Assets/Campaigns/Q2" {
		t.Errorf("Expected shared-drive rooted path, got %q", path)
	}
	if got, ok := cache.Get("drive-1"); !ok || got != "/Shared Drives/Marketing Assets" {
		t.Errorf("Expected drive root cache entry, got %q (present=%v)", got, ok)
	}
}

func TestResolvePathCycleDegrades(t *testing.T) {
	api := newFakeAPI()
	api.addFolderID("loop", "Orphaned", "loop")

	_, cache, resolver, _ := newTestEngine(api)

	path, err := resolver.ResolvePath(context.Background(), "loop")
	if err != nil {
		t.Fatalf("Expected degraded result, got error: %v", err)
	}
	if path == "" {
		t.Fatal("Expected non-empty best-effort path")
	}
	if !strings.Contains(path, "Orphaned") {
		t.Errorf("Expected best-effort path to carry the known name, got %q", path)
	}
	if _, ok := cache.Get("loop"); ok {
		t.Error("Degraded paths must not be cached")
	}
}

func TestResolvePathMutualCycleDegrades(t *testing.T) {
	api := newFakeAPI()
	api.addFolderID("p", "Ping", "q")
	api.addFolderID("q", "Pong", "p")

	_, _, resolver, _ := newTestEngine(api)

	// Must terminate despite the two-node cycle.
	path, err := resolver.ResolvePath(context.Background(), "p")
	if err != nil {
		t.Fatalf("Expected degraded result, got error: %v", err)
	}
	if path == "" {
		t.Fatal("Expected non-empty best-effort path")
	}
}
