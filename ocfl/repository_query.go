package ocfl

import (
	"context"
	"fmt"
)

// DescribeObject returns objectID's current inventory as loaded from the
// backend. Read-only; takes no lock (optimistic concurrency is enforced
// only at mutation time).
func (r *Repository) DescribeObject(ctx context.Context, objectID string) (*Inventory, error) {
	if err := r.ensureOpen(); err != nil {
		return nil, err
	}
	inv, err := r.storage.LoadInventory(ctx, objectID)
	if err != nil {
		return nil, err
	}
	if inv == nil {
		return nil, fmt.Errorf("object %s: %w", objectID, ErrNotFound)
	}
	return inv, nil
}

// DescribeVersion returns the logical state (digest -> logical paths) of
// one version of objectID. v's zero value means head.
func (r *Repository) DescribeVersion(ctx context.Context, objectID string, v VNum) (DigestMap, error) {
	inv, err := r.DescribeObject(ctx, objectID)
	if err != nil {
		return nil, err
	}
	ver := inv.GetVersion(v)
	if ver == nil {
		return nil, fmt.Errorf("version %s: %w", v, ErrNotFound)
	}
	return ver.State, nil
}

// Streams returns a lazy opener per logical path visible in version v of
// objectID (head, if v is zero).
func (r *Repository) Streams(ctx context.Context, objectID string, v VNum) (map[string]StreamOpener, error) {
	inv, err := r.DescribeObject(ctx, objectID)
	if err != nil {
		return nil, err
	}
	if v.IsZero() {
		v = inv.Head
	}
	return r.storage.GetObjectStreams(ctx, inv, v)
}

// ListObjectIDs streams every object id known to the backend onto ids,
// closing it when enumeration completes or ctx is canceled.
func (r *Repository) ListObjectIDs(ctx context.Context, ids chan<- string) error {
	if err := r.ensureOpen(); err != nil {
		close(ids)
		return err
	}
	return r.storage.ListObjectIDs(ctx, ids)
}

// FileHistory is one run in logicalPath's history: consecutive versions
// (ascending) whose state binds LogicalPath to Digest. Versions in which
// the path is absent are skipped and do not end a run; a version binding
// it to another digest starts a new run. It does not record which version
// first stored Digest's content in the manifest.
type FileHistory struct {
	LogicalPath string
	Digest      string
	// Versions lists the versions (ascending) in this run.
	Versions VNums
}

// DescribeFileHistory walks every version of objectID, ascending, and
// reports how logicalPath's digest binding changed over time.
func (r *Repository) DescribeFileHistory(ctx context.Context, objectID, logicalPath string) ([]FileHistory, error) {
	inv, err := r.DescribeObject(ctx, objectID)
	if err != nil {
		return nil, err
	}
	var out []FileHistory
	for _, v := range inv.VNums() {
		ver := inv.GetVersion(v)
		digest := ver.State.DigestFor(logicalPath)
		if digest == "" {
			continue
		}
		if len(out) > 0 && out[len(out)-1].Digest == digest {
			out[len(out)-1].Versions = append(out[len(out)-1].Versions, v)
			continue
		}
		out = append(out, FileHistory{LogicalPath: logicalPath, Digest: digest, Versions: VNums{v}})
	}
	return out, nil
}
