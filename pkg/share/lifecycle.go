package share

import (
	"github.com/filecore/transfer-core/internal/xerrors"
	"github.com/filecore/transfer-core/pkg/manifest"
)

// transitions enumerates the monotonic status transitions a Share may
// legally take, per §3's "Lifecycle: created by owner, transitions
// monotonically through the status states".
var transitions = map[manifest.ShareStatus][]manifest.ShareStatus{
	manifest.ShareStatusPending:  {manifest.ShareStatusAccepted, manifest.ShareStatusDeclined, manifest.ShareStatusRemoved},
	manifest.ShareStatusAccepted: {manifest.ShareStatusRemoved},
}

// Advance validates and applies a status transition, returning the
// resulting Share. It never mutates s in place so callers retain the prior
// state on error.
func Advance(s manifest.Share, next manifest.ShareStatus) (manifest.Share, error) {
	allowed := transitions[s.Status]
	for _, candidate := range allowed {
		if candidate == next {
			s.Status = next
			return s, nil
		}
	}
	return s, xerrors.New("share.advance", xerrors.ErrInternal, xerrors.ErrInvalidManifest)
}
