package drive

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// NamingPattern selects how the client folder is named.
type NamingPattern string

// Supported naming patterns.
const (
	PatternClientOnly NamingPattern = "client-only"
	PatternYearClient NamingPattern = "year-client"
	PatternCustom     NamingPattern = "custom"
)

// Bucket is the terminal sub-folder of a content chain.
type Bucket string

// Supported buckets.
const (
	BucketRawFiles  Bucket = "raw-files"
	BucketMiscFiles Bucket = "misc-files"
)

// NamingConfig is the per-tenant shape of the folder hierarchy. It is
// read-only input to the builder.
type NamingConfig struct {
	// ParentFolderID anchors the hierarchy; empty means the My Drive
	// root.
	ParentFolderID string `json:"parentFolderId"`

	// InsertYearFolder inserts a year folder between the parent and the
	// client folder.
	InsertYearFolder bool `json:"insertYearFolder"`

	// Pattern selects the client folder naming scheme.
	Pattern NamingPattern `json:"namingPattern"`

	// CustomTemplate is used when Pattern is "custom". {client}, {year}
	// and {month} are substituted.
	CustomTemplate string `json:"customTemplate"`
}

// ClientFolderName evaluates the naming pattern for a client and shoot
// date.
func ClientFolderName(client string, date time.Time, cfg NamingConfig) string {
	switch cfg.Pattern {
	case PatternYearClient:
		return fmt.Sprintf("%d - %s", date.Year(), client)
	case PatternCustom:
		r := strings.NewReplacer(
			"{client}", client,
			"{year}", date.Format("2006"),
			"{month}", date.Format("01"),
		)
		return r.Replace(cfg.CustomTemplate)
	default:
		return client
	}
}

// Builder composes folder-factory calls into the full shoot/content chain:
// business parent → optional year → client → dated shoot → optional content
// item → bucket.
type Builder struct {
	factory *Factory
}

// NewBuilder creates a Builder.
func NewBuilder(factory *Factory) *Builder {
	return &Builder{factory: factory}
}

// BuildContentFolder ensures the whole chain for a shoot and returns the
// terminal bucket folder. The chain is not atomic: a failure partway leaves
// the folders already ensured in place, and repeating the call is safe and
// cheap because every step resolves to the existing folder on retry. The
// first failing step's error propagates unwrapped so callers can tell a
// quota failure on the client folder from a permission failure further
// down.
func (b *Builder) BuildContentFolder(ctx context.Context, businessName, shootTitle string, shootDate time.Time, contentItemName string, bucket Bucket, cfg NamingConfig) (ResolvedFolder, error) {
	if bucket == "" {
		bucket = BucketRawFiles
	}

	parentID := cfg.ParentFolderID
	if cfg.InsertYearFolder {
		yearFolder, err := b.factory.EnsureFolder(ctx, shootDate.Format("2006"), parentID)
		if err != nil {
			return ResolvedFolder{}, err
		}
		parentID = yearFolder.ID
	}

	clientFolder, err := b.factory.EnsureFolder(ctx, ClientFolderName(businessName, shootDate, cfg), parentID)
	if err != nil {
		return ResolvedFolder{}, err
	}

	shootName := fmt.Sprintf("[%s] %s", shootDate.Format("2006-01-02"), shootTitle)
	shootFolder, err := b.factory.EnsureFolder(ctx, shootName, clientFolder.ID)
	if err != nil {
		return ResolvedFolder{}, err
	}

	bucketParentID := shootFolder.ID
	if contentItemName != "" {
		contentFolder, err := b.factory.EnsureFolder(ctx, contentItemName, shootFolder.ID)
		if err != nil {
			return ResolvedFolder{}, err
		}
		bucketParentID = contentFolder.ID
	}

	return b.factory.EnsureFolder(ctx, string(bucket), bucketParentID)
}
