package ocfl

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	ocflfs "github.com/ocflgo/ocfl/fs"
	"github.com/ocflgo/ocfl/ocfllog"
)

// Repository coordinates mutations against an OcflStorage backend: it
// owns staging, locking, and the writeNewVersion finisher every
// mutating operation funnels through.
type Repository struct {
	storage OcflStorage
	workFS  ocflfs.WriteFS
	workDir string

	objectLock      *ObjectLock
	fileLockTimeout time.Duration
	clock           Clock
	config          OcflConfig
	mapper          ContentPathMapper

	// verifyStaging enables VersionContentVerifier in writeNewVersion.
	verifyStaging bool

	// validator is the optional external conformance checker import
	// operations invoke unless NO_VALIDATION is given.
	validator Validator

	logger *slog.Logger

	closed atomic.Bool
}

// RepositoryOption configures a Repository at construction.
type RepositoryOption func(*Repository)

// WithConfig sets the repository-wide defaults used for new objects.
func WithConfig(cfg OcflConfig) RepositoryOption {
	return func(r *Repository) { r.config = cfg }
}

// WithClock overrides the repository's source of the current time.
func WithClock(c Clock) RepositoryOption {
	return func(r *Repository) { r.clock = c }
}

// WithContentPathMapper overrides how logical paths map to content paths.
func WithContentPathMapper(m ContentPathMapper) RepositoryOption {
	return func(r *Repository) { r.mapper = m }
}

// WithStagingVerification enables VersionContentVerifier's post-stage
// consistency scan before every version install.
func WithStagingVerification() RepositoryOption {
	return func(r *Repository) { r.verifyStaging = true }
}

// WithFileLockTimeout sets how long an updateObject closure's per-path
// FileLocker waits for a contended logical path. Zero (the default) makes
// it try once, non-blocking, per the spec's "zero means try once" rule.
func WithFileLockTimeout(d time.Duration) RepositoryOption {
	return func(r *Repository) { r.fileLockTimeout = d }
}

// WithLogger sets the logger used for logging during version installs. A
// Repository built without this option logs nothing.
func WithLogger(logger *slog.Logger) RepositoryOption {
	return func(r *Repository) { r.logger = logger }
}

// NewRepository builds a Repository backed by storage, using workFS/workDir
// as scratch space for staging directories.
func NewRepository(storage OcflStorage, workFS ocflfs.WriteFS, workDir string, opts ...RepositoryOption) *Repository {
	r := &Repository{
		storage:    storage,
		workFS:     workFS,
		workDir:    workDir,
		objectLock: NewObjectLock(),
		mapper:     DefaultContentPathMapper,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Close idempotently marks the repository closed; every operation called
// afterward fails with ErrClosed. Safe for concurrent use.
func (r *Repository) Close() error {
	if !r.closed.CompareAndSwap(false, true) {
		return nil
	}
	return r.storage.Close()
}

func (r *Repository) ensureOpen() error {
	if r.closed.Load() {
		return ErrClosed
	}
	return nil
}

// newStagingDir allocates a unique, UUID-stamped scratch directory under
// workDir for one mutation and returns a cleanup function the caller must
// defer immediately.
func (r *Repository) newStagingDir() (dir string, cleanup func(ctx context.Context)) {
	dir = uuid.NewString()
	if r.workDir != "" {
		dir = r.workDir + "/" + dir
	}
	return dir, func(ctx context.Context) {
		_ = ocflfs.RemoveAll(ctx, r.workFS, dir)
	}
}

// loadOrStub returns the object's current inventory, or a fresh v0 stub if
// the object does not yet exist.
func (r *Repository) loadOrStub(ctx context.Context, objectID string) (*Inventory, bool, error) {
	inv, err := r.storage.LoadInventory(ctx, objectID)
	if err != nil {
		return nil, false, err
	}
	if inv == nil {
		return newStubInventory(objectID, r.config), false, nil
	}
	return inv, true, nil
}

// writeNewVersion is the shared finisher every mutating operation funnels
// through: optional staging verification, inventory write, then an
// atomic, lock-guarded install via the storage backend. expectedPriorHead
// is the head the draft was built from; it is rechecked against the
// backend's current state inside the same write-lock hold as the install,
// so a concurrent writer that slipped in between load and install is
// caught instead of silently overwritten.
func (r *Repository) writeNewVersion(ctx context.Context, objectID string, inv *Inventory, stagingDir string, upgradedSpec Spec, expectedPriorHead VNum) error {
	logger := ocfllog.OrDisabled(r.logger)
	if r.verifyStaging {
		logger.DebugContext(ctx, "verifying staged content", "object", objectID, "version", inv.Head)
		if err := VerifyStagedContent(ctx, r.workFS, stagingDir, inv); err != nil {
			return err
		}
	}
	logger.DebugContext(ctx, "writing staged inventory", "object", objectID, "version", inv.Head)
	written, err := WriteInventory(ctx, r.workFS, inv, stagingDir)
	if err != nil {
		return fmt.Errorf("writing inventory: %w", err)
	}
	return r.objectLock.Write(objectID, func() error {
		cur, err := r.storage.LoadInventory(ctx, objectID)
		if err != nil {
			return err
		}
		curHead := Head
		if cur != nil {
			curHead = cur.Head
		}
		if curHead != expectedPriorHead {
			return fmt.Errorf("object %s: %w", objectID, ErrObjectOutOfSync)
		}
		logger.DebugContext(ctx, "installing new version", "object", objectID, "version", written.Head)
		return r.storage.StoreNewVersion(ctx, written, stagingDir, upgradedSpec)
	})
}

// VersionInfo carries the commit metadata stamped onto a new version.
type VersionInfo struct {
	User    *User
	Message string
}
