// Package integration exercises the upload and download engines together
// end to end, against an in-memory ServerAPI and ObjectStore, mirroring
// the concrete scenarios in the specification this module implements.
package integration

import (
	"context"
	"fmt"
	"sync"

	"github.com/filecore/transfer-core/pkg/manifest"
	"github.com/filecore/transfer-core/pkg/share"
	"github.com/filecore/transfer-core/pkg/transfer"
)

// mockServer is an in-memory transfer.ServerAPI. It assigns sequential
// upload ids, share ids and object keys, and stores each committed
// manifest under the file id the signed manifest carries.
type mockServer struct {
	mu sync.Mutex

	nextUpload int

	manifests    map[string]manifest.Manifest
	wrapping     map[string]manifest.WrappingRecord
	allWrappings map[string][]manifest.WrappingRecord
	aborted      map[string]bool

	shares    map[string]manifest.Share
	nextShare int

	store *mockStore
}

func newMockServer(store *mockStore) *mockServer {
	return &mockServer{
		manifests:    make(map[string]manifest.Manifest),
		wrapping:     make(map[string]manifest.WrappingRecord),
		allWrappings: make(map[string][]manifest.WrappingRecord),
		aborted:      make(map[string]bool),
		shares:       make(map[string]manifest.Share),
		store:        store,
	}
}

func (s *mockServer) InitUpload(_ context.Context, _, _ string, projectedChunks int) (transfer.UploadInit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextUpload++
	uploadID := fmt.Sprintf("upload-%d", s.nextUpload)

	uploads := make([]transfer.PresignedUpload, projectedChunks)
	for i := 0; i < projectedChunks; i++ {
		objectKey := fmt.Sprintf("%s/chunk-%d", uploadID, i)
		uploads[i] = transfer.PresignedUpload{
			ChunkIndex: i,
			PutURL:     "put://" + objectKey,
			ObjectKey:  objectKey,
		}
	}
	return transfer.UploadInit{UploadID: uploadID, ChunkCount: projectedChunks, Uploads: uploads}, nil
}

func (s *mockServer) RequestMoreUploadURLs(_ context.Context, uploadID string, additionalChunks int) ([]transfer.PresignedUpload, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]transfer.PresignedUpload, additionalChunks)
	for i := 0; i < additionalChunks; i++ {
		objectKey := fmt.Sprintf("%s/extra-chunk-%d", uploadID, i)
		out[i] = transfer.PresignedUpload{ChunkIndex: i, PutURL: "put://" + objectKey, ObjectKey: objectKey}
	}
	return out, nil
}

func (s *mockServer) CommitUpload(_ context.Context, signed manifest.Manifest, wrapping []manifest.WrappingRecord) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	// The manifest's signature already covers FileID, minted client-side
	// before signing; the server commits it as-is rather than assigning
	// (and thereby invalidating) its own id.
	fileID := signed.FileID
	s.manifests[fileID] = signed
	s.allWrappings[fileID] = append([]manifest.WrappingRecord{}, wrapping...)
	if len(wrapping) > 0 {
		s.wrapping[fileID] = wrapping[0]
	}
	return fileID, nil
}

func (s *mockServer) AbortUpload(_ context.Context, uploadID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.aborted[uploadID] = true
	return nil
}

func (s *mockServer) GetDownloadBundle(_ context.Context, fileID string) (transfer.DownloadBundle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.manifests[fileID]
	if !ok {
		return transfer.DownloadBundle{}, fmt.Errorf("unknown file %q", fileID)
	}

	getURLs := make(map[int]string, len(m.Chunks))
	objectKeys := make(map[int]string, len(m.Chunks))
	for _, c := range m.Chunks {
		getURLs[c.Index] = "get://" + c.ObjectKey
		objectKeys[c.Index] = c.ObjectKey
	}

	return transfer.DownloadBundle{
		FileID:     fileID,
		Manifest:   m,
		Wrapping:   s.wrapping[fileID],
		GetURLs:    getURLs,
		ObjectKeys: objectKeys,
	}, nil
}

func (s *mockServer) CreateShare(_ context.Context, itemID string, itemType manifest.ItemType, recipientID string, wrapping manifest.WrappingRecord) (manifest.Share, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextShare++
	sh := manifest.Share{
		ShareID:     fmt.Sprintf("share-%d", s.nextShare),
		ItemID:      itemID,
		ItemType:    itemType,
		RecipientID: recipientID,
		Wrapping:    wrapping,
		Status:      manifest.ShareStatusPending,
	}
	s.shares[sh.ShareID] = sh
	return sh, nil
}

func (s *mockServer) AcceptShare(_ context.Context, shareID string) (manifest.Share, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sh, err := share.Advance(s.shares[shareID], manifest.ShareStatusAccepted)
	if err != nil {
		return manifest.Share{}, err
	}
	s.shares[shareID] = sh
	return sh, nil
}

func (s *mockServer) DeclineShare(_ context.Context, shareID string) (manifest.Share, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sh, err := share.Advance(s.shares[shareID], manifest.ShareStatusDeclined)
	if err != nil {
		return manifest.Share{}, err
	}
	s.shares[shareID] = sh
	return sh, nil
}

func (s *mockServer) RemoveShare(_ context.Context, shareID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sh, err := share.Advance(s.shares[shareID], manifest.ShareStatusRemoved)
	if err != nil {
		return err
	}
	s.shares[shareID] = sh
	return nil
}

// wrappingsFor returns every recipient wrapping record committed for
// fileID, in recipient order.
func (s *mockServer) wrappingsFor(fileID string) []manifest.WrappingRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.allWrappings[fileID]
}

func (s *mockServer) GetShare(_ context.Context, shareID string) (manifest.Share, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.shares[shareID], nil
}
