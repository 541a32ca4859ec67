package share_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/filecore/transfer-core/pkg/manifest"
	"github.com/filecore/transfer-core/pkg/share"
)

func TestAdvanceAllowsDocumentedTransitions(t *testing.T) {
	pending := manifest.Share{ShareID: "share-1", Status: manifest.ShareStatusPending}

	accepted, err := share.Advance(pending, manifest.ShareStatusAccepted)
	require.NoError(t, err)
	require.Equal(t, manifest.ShareStatusAccepted, accepted.Status)
	require.Equal(t, "share-1", accepted.ShareID)

	removed, err := share.Advance(accepted, manifest.ShareStatusRemoved)
	require.NoError(t, err)
	require.Equal(t, manifest.ShareStatusRemoved, removed.Status)
}

func TestAdvanceAllowsDeclineFromPending(t *testing.T) {
	pending := manifest.Share{ShareID: "share-2", Status: manifest.ShareStatusPending}

	declined, err := share.Advance(pending, manifest.ShareStatusDeclined)
	require.NoError(t, err)
	require.Equal(t, manifest.ShareStatusDeclined, declined.Status)
}

func TestAdvanceRejectsNonMonotonicTransitions(t *testing.T) {
	declined := manifest.Share{ShareID: "share-3", Status: manifest.ShareStatusDeclined}

	_, err := share.Advance(declined, manifest.ShareStatusAccepted)
	require.Error(t, err)

	removed := manifest.Share{ShareID: "share-4", Status: manifest.ShareStatusRemoved}
	_, err = share.Advance(removed, manifest.ShareStatusAccepted)
	require.Error(t, err)
}

func TestAdvanceDoesNotMutateInputOnError(t *testing.T) {
	removed := manifest.Share{ShareID: "share-5", Status: manifest.ShareStatusRemoved}

	result, err := share.Advance(removed, manifest.ShareStatusAccepted)
	require.Error(t, err)
	require.Equal(t, manifest.ShareStatusRemoved, removed.Status)
	require.Equal(t, manifest.ShareStatusRemoved, result.Status)
}
