package main

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/filecore/transfer-core/internal/xerrors"
	"github.com/filecore/transfer-core/pkg/manifest"
	"github.com/filecore/transfer-core/pkg/share"
	"github.com/filecore/transfer-core/pkg/transfer"
)

// memStore is an in-process transfer.ObjectStore that keeps chunk bodies
// in a map keyed by the presigned URL, standing in for an S3-compatible
// bucket for the demo command.
type memStore struct {
	mu   sync.Mutex
	objs map[string][]byte
}

func newMemStore() *memStore {
	return &memStore{objs: make(map[string][]byte)}
}

func (s *memStore) Put(_ context.Context, url string, body []byte) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := append([]byte(nil), body...)
	s.objs[url] = cp
	return fmt.Sprintf("etag-%x", len(cp)), nil
}

func (s *memStore) Get(_ context.Context, url string) ([]byte, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	body, ok := s.objs[url]
	if !ok {
		return nil, 0, xerrors.New("mockstore.get", xerrors.ErrNetworkFailure, xerrors.ErrNetworkFailure)
	}
	return body, int64(len(body)), nil
}

// memServer is an in-process transfer.ServerAPI that hands out memStore
// URLs and tracks committed files' manifests, wrapping records and shares,
// standing in for the application server for the demo command.
type memServer struct {
	mu       sync.Mutex
	store    *memStore
	uploads  map[string]int
	files    map[string]manifest.Manifest
	wrapping map[string][]manifest.WrappingRecord
	shares   map[string]manifest.Share
}

func newMemServer(store *memStore) *memServer {
	return &memServer{
		store:    store,
		uploads:  make(map[string]int),
		files:    make(map[string]manifest.Manifest),
		wrapping: make(map[string][]manifest.WrappingRecord),
		shares:   make(map[string]manifest.Share),
	}
}

func (s *memServer) InitUpload(_ context.Context, _ string, _ string, projectedChunks int) (transfer.UploadInit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	uploadID := "upload-" + uuid.NewString()
	s.uploads[uploadID] = projectedChunks

	uploads := make([]transfer.PresignedUpload, projectedChunks)
	for i := 0; i < projectedChunks; i++ {
		uploads[i] = transfer.PresignedUpload{
			ChunkIndex: i,
			PutURL:     fmt.Sprintf("mock://%s/chunks/%d", uploadID, i),
			ObjectKey:  fmt.Sprintf("%s/chunks/%d", uploadID, i),
		}
	}
	return transfer.UploadInit{UploadID: uploadID, ChunkCount: projectedChunks, Uploads: uploads}, nil
}

func (s *memServer) RequestMoreUploadURLs(_ context.Context, uploadID string, additionalChunks int) ([]transfer.PresignedUpload, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	base := s.uploads[uploadID]
	uploads := make([]transfer.PresignedUpload, additionalChunks)
	for i := 0; i < additionalChunks; i++ {
		idx := base + i
		uploads[i] = transfer.PresignedUpload{
			ChunkIndex: idx,
			PutURL:     fmt.Sprintf("mock://%s/chunks/%d", uploadID, idx),
			ObjectKey:  fmt.Sprintf("%s/chunks/%d", uploadID, idx),
		}
	}
	s.uploads[uploadID] = base + additionalChunks
	return uploads, nil
}

func (s *memServer) CommitUpload(_ context.Context, signed manifest.Manifest, wrapping []manifest.WrappingRecord) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	// signed.FileID was minted client-side and is covered by the
	// signature; committing under a server-assigned id instead would
	// invalidate it.
	fileID := signed.FileID
	s.files[fileID] = signed
	s.wrapping[fileID] = wrapping
	return fileID, nil
}

func (s *memServer) AbortUpload(_ context.Context, uploadID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.uploads, uploadID)
	return nil
}

func (s *memServer) GetDownloadBundle(_ context.Context, fileID string) (transfer.DownloadBundle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.files[fileID]
	if !ok {
		return transfer.DownloadBundle{}, xerrors.New("mockserver.get_bundle", xerrors.ErrStorageRejected, xerrors.ErrStorageRejected)
	}

	getURLs := make(map[int]string, len(m.Chunks))
	objectKeys := make(map[int]string, len(m.Chunks))
	for _, c := range m.Chunks {
		getURLs[c.Index] = "mock://" + c.ObjectKey
		objectKeys[c.Index] = c.ObjectKey
	}

	var wrapping manifest.WrappingRecord
	if records := s.wrapping[fileID]; len(records) > 0 {
		wrapping = records[0]
	}

	return transfer.DownloadBundle{
		FileID:     fileID,
		Manifest:   m,
		Wrapping:   wrapping,
		GetURLs:    getURLs,
		ObjectKeys: objectKeys,
	}, nil
}

func (s *memServer) CreateShare(_ context.Context, itemID string, itemType manifest.ItemType, recipientID string, wrapping manifest.WrappingRecord) (manifest.Share, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sh := manifest.Share{
		ShareID:     "share-" + uuid.NewString(),
		ItemID:      itemID,
		ItemType:    itemType,
		RecipientID: recipientID,
		Wrapping:    wrapping,
		Status:      manifest.ShareStatusPending,
	}
	s.shares[sh.ShareID] = sh
	return sh, nil
}

func (s *memServer) AcceptShare(_ context.Context, shareID string) (manifest.Share, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sh, err := share.Advance(s.shares[shareID], manifest.ShareStatusAccepted)
	if err != nil {
		return manifest.Share{}, err
	}
	s.shares[shareID] = sh
	return sh, nil
}

func (s *memServer) DeclineShare(_ context.Context, shareID string) (manifest.Share, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sh, err := share.Advance(s.shares[shareID], manifest.ShareStatusDeclined)
	if err != nil {
		return manifest.Share{}, err
	}
	s.shares[shareID] = sh
	return sh, nil
}

func (s *memServer) RemoveShare(_ context.Context, shareID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sh, err := share.Advance(s.shares[shareID], manifest.ShareStatusRemoved)
	if err != nil {
		return err
	}
	s.shares[shareID] = sh
	return nil
}

func (s *memServer) GetShare(_ context.Context, shareID string) (manifest.Share, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.shares[shareID], nil
}
