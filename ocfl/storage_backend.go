package ocfl

import (
	"context"
	"io"

	ocflfs "github.com/ocflgo/ocfl/fs"
)

// StreamOpener lazily opens a readable stream for one logical path.
type StreamOpener func(ctx context.Context) (io.ReadCloser, error)

// ValidationResults carries the outcome of validating an object against
// the OCFL specification. Full conformance checking is out of scope; the
// shape exists so validateObject has somewhere to report to.
type ValidationResults struct {
	Errors   []error
	Warnings []error
}

// Fatal reports whether validation found any error-level result.
func (r ValidationResults) Fatal() bool { return len(r.Errors) > 0 }

// OcflStorage is the storage backend contract the coordinator drives: the
// bytes in/out, listing, and atomic version install machinery. It makes
// no assumption about the underlying medium (local disk, cloud object
// store, ...), only that every method is safe to call concurrently for
// distinct object ids.
type OcflStorage interface {
	// LoadInventory returns the object's current inventory, or nil if the
	// object does not exist.
	LoadInventory(ctx context.Context, objectID string) (*Inventory, error)
	ContainsObject(ctx context.Context, objectID string) (bool, error)
	ObjectRootPath(objectID string) string

	// StoreNewVersion installs inv (already written to stagingDir by the
	// coordinator) as the object's new head version. upgradedSpec is the
	// non-empty OCFL type to declare at the object root when the object's
	// type is changing.
	StoreNewVersion(ctx context.Context, inv *Inventory, stagingDir string, upgradedSpec Spec) error
	RollbackToVersion(ctx context.Context, objectID string, v VNum) error
	PurgeObject(ctx context.Context, objectID string) error

	ReconstructObjectVersion(ctx context.Context, inv *Inventory, v VNum, outputDir string) error
	GetObjectStreams(ctx context.Context, inv *Inventory, v VNum) (map[string]StreamOpener, error)

	// ListObjectIDs streams every object id known to the backend onto ids,
	// closing it when enumeration is complete or ctx is canceled.
	ListObjectIDs(ctx context.Context, ids chan<- string) error

	ExportObject(ctx context.Context, objectID, outputDir string) error
	ExportVersion(ctx context.Context, objectID string, v VNum, outputDir string) error
	ImportObject(ctx context.Context, objectID, stagingDir string) error

	ValidateObject(ctx context.Context, objectID string, contentFixityCheck bool) (ValidationResults, error)
	InvalidateCache(objectID string)
	Close() error
}

// FSBackend is an optional OcflStorage capability: backends built directly
// over an ocflfs.FS can expose it so the coordinator can open
// already-installed content (e.g. for ObjectUpdater.ReadFile on a renamed
// or reinstated path) without a dedicated interface method per medium.
type FSBackend interface {
	FS() ocflfs.FS
}
