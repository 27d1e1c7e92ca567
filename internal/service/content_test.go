package service_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"docstore/internal/fingerprint"
	"docstore/internal/metrics"
	"docstore/internal/model"
	"docstore/internal/repository"
	"docstore/internal/repository/memory"
	repoMocks "docstore/internal/repository/mocks"
	"docstore/internal/service"
	"docstore/internal/storage"
	storeMocks "docstore/internal/storage/mocks"
)

func TestContentService_Store(t *testing.T) {
	ctx := context.Background()
	payload := []byte("hello")
	fp := fingerprint.MD5Hex(payload)

	tests := []struct {
		name       string
		setupMocks func(mStore *storeMocks.MockStorage, mRepo *repoMocks.MockFileRepository)
		want       *service.StoreResult
		wantErrMsg string
	}{
		{
			name: "new content",
			setupMocks: func(mStore *storeMocks.MockStorage, mRepo *repoMocks.MockFileRepository) {
				mRepo.On("FindByFingerprint", ctx, fp).Return(nil, repository.ErrNotFound).Once()
				mStore.On("Put", ctx, mock.MatchedBy(func(key string) bool {
					return len(key) == len("files/")+36 && key[:6] == "files/"
				}), mock.Anything, mock.MatchedBy(func(opt storage.PutObjectOptions) bool {
					return opt.Size == 5 && opt.ContentType == "text/plain"
				})).Return(storage.ObjectInfo{}, nil).Once()
				mRepo.On("Create", ctx, mock.MatchedBy(func(f *model.StoredFile) bool {
					return f.Fingerprint == fp && f.FileName == "a.txt" && f.Location == service.ObjectKey(f.ID) && f.Size == 5
				})).Return(&model.StoredFile{ID: "new-id", FileName: "a.txt"}, nil).Once()
			},
			want: &service.StoreResult{ID: "new-id", FileName: "a.txt", IsNew: true},
		},
		{
			name: "duplicate content is not written again",
			setupMocks: func(mStore *storeMocks.MockStorage, mRepo *repoMocks.MockFileRepository) {
				mRepo.On("FindByFingerprint", ctx, fp).
					Return(&model.StoredFile{ID: "existing-id", FileName: "first.txt"}, nil).Once()
			},
			want: &service.StoreResult{ID: "existing-id", FileName: "first.txt", IsNew: false},
		},
		{
			name: "lost insert race resolves to the winner",
			setupMocks: func(mStore *storeMocks.MockStorage, mRepo *repoMocks.MockFileRepository) {
				mRepo.On("FindByFingerprint", ctx, fp).Return(nil, repository.ErrNotFound).Once()
				mStore.On("Put", ctx, mock.Anything, mock.Anything, mock.Anything).Return(storage.ObjectInfo{}, nil).Once()
				mRepo.On("Create", ctx, mock.Anything).
					Return(nil, fmt.Errorf("%w: stored_files_fingerprint_key", repository.ErrConflict)).Once()
				mRepo.On("FindByFingerprint", ctx, fp).
					Return(&model.StoredFile{ID: "winner-id", FileName: "b.txt"}, nil).Once()
			},
			want: &service.StoreResult{ID: "winner-id", FileName: "b.txt", IsNew: false},
		},
		{
			name: "conflict without a winner row",
			setupMocks: func(mStore *storeMocks.MockStorage, mRepo *repoMocks.MockFileRepository) {
				mRepo.On("FindByFingerprint", ctx, fp).Return(nil, repository.ErrNotFound).Twice()
				mStore.On("Put", ctx, mock.Anything, mock.Anything, mock.Anything).Return(storage.ObjectInfo{}, nil).Once()
				mRepo.On("Create", ctx, mock.Anything).Return(nil, repository.ErrConflict).Once()
			},
			wantErrMsg: "resolve fingerprint conflict",
		},
		{
			name: "fingerprint lookup error",
			setupMocks: func(mStore *storeMocks.MockStorage, mRepo *repoMocks.MockFileRepository) {
				mRepo.On("FindByFingerprint", ctx, fp).Return(nil, errors.New("db down")).Once()
			},
			wantErrMsg: "lookup fingerprint: db down",
		},
		{
			name: "storage error",
			setupMocks: func(mStore *storeMocks.MockStorage, mRepo *repoMocks.MockFileRepository) {
				mRepo.On("FindByFingerprint", ctx, fp).Return(nil, repository.ErrNotFound).Once()
				mStore.On("Put", ctx, mock.Anything, mock.Anything, mock.Anything).
					Return(storage.ObjectInfo{}, errors.New("storage fail")).Once()
			},
			wantErrMsg: "upload to storage: storage fail",
		},
		{
			name: "catalog insert error",
			setupMocks: func(mStore *storeMocks.MockStorage, mRepo *repoMocks.MockFileRepository) {
				mRepo.On("FindByFingerprint", ctx, fp).Return(nil, repository.ErrNotFound).Once()
				mStore.On("Put", ctx, mock.Anything, mock.Anything, mock.Anything).Return(storage.ObjectInfo{}, nil).Once()
				mRepo.On("Create", ctx, mock.Anything).Return(nil, errors.New("db fail")).Once()
			},
			wantErrMsg: "db save failed: db fail",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mStore := new(storeMocks.MockStorage)
			mRepo := new(repoMocks.MockFileRepository)
			svc := service.NewContentService(mStore, mRepo)

			tt.setupMocks(mStore, mRepo)

			res, err := svc.Store(ctx, payload, "a.txt")

			if tt.wantErrMsg != "" {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErrMsg)
				assert.Nil(t, res)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.want, res)
			}

			mStore.AssertExpectations(t)
			mRepo.AssertExpectations(t)
		})
	}
}

func newLocalContentService(t *testing.T, opts ...service.ContentOption) (service.ContentService, *memory.FileRepository) {
	t.Helper()
	st, err := storage.NewLocal(t.TempDir())
	require.NoError(t, err)
	repo := memory.NewFileRepository()
	return service.NewContentService(st, repo, opts...), repo
}

func TestContentService_Deduplication(t *testing.T) {
	ctx := context.Background()
	reg := prometheus.NewRegistry()
	rec, err := metrics.NewRecorder(reg)
	require.NoError(t, err)
	svc, repo := newLocalContentService(t, service.WithContentMetrics(rec))

	first, err := svc.Store(ctx, []byte("same bytes"), "one.txt")
	require.NoError(t, err)
	assert.True(t, first.IsNew)

	second, err := svc.Store(ctx, []byte("same bytes"), "two.md")
	require.NoError(t, err)
	assert.False(t, second.IsNew)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "one.txt", second.FileName)

	other, err := svc.Store(ctx, []byte("different bytes"), "one.txt")
	require.NoError(t, err)
	assert.True(t, other.IsNew)
	assert.NotEqual(t, first.ID, other.ID)

	assert.Equal(t, 2, repo.Len())

	expected := `
# HELP docstore_files_stored_total Store requests by outcome (new, duplicate, conflict).
# TYPE docstore_files_stored_total counter
docstore_files_stored_total{outcome="duplicate"} 1
docstore_files_stored_total{outcome="new"} 2
`
	assert.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "docstore_files_stored_total"))
}

func TestContentService_RoundTrip(t *testing.T) {
	ctx := context.Background()
	svc, _ := newLocalContentService(t, service.WithFingerprint(fingerprint.BLAKE3Hex))

	payloads := map[string][]byte{
		"empty.txt":  {},
		"hello.txt":  []byte("Hello"),
		"binary.bin": {0x00, 0xff, 0x10, 0x80},
		"image.png":  bytes.Repeat([]byte{0x89, 'P', 'N', 'G'}, 1024),
	}

	for name, payload := range payloads {
		t.Run(name, func(t *testing.T) {
			res, err := svc.Store(ctx, payload, name)
			require.NoError(t, err)

			got, err := svc.Retrieve(ctx, res.ID)
			require.NoError(t, err)
			assert.Equal(t, len(payload), len(got.Data))
			assert.True(t, bytes.Equal(payload, got.Data))
			assert.Equal(t, name, got.FileName)
			assert.Equal(t, int64(len(payload)), got.Size)
		})
	}
}

func TestContentService_RetrieveContentType(t *testing.T) {
	ctx := context.Background()
	svc, _ := newLocalContentService(t)

	res, err := svc.Store(ctx, []byte{1, 2, 3}, "photo.PNG")
	require.NoError(t, err)

	got, err := svc.Retrieve(ctx, res.ID)
	require.NoError(t, err)
	assert.Equal(t, "image/png", got.ContentType)

	md, err := svc.Metadata(ctx, res.ID)
	require.NoError(t, err)
	assert.Equal(t, "image/png", md.ContentType)
	assert.Equal(t, "photo.PNG", md.FileName)
	assert.Equal(t, int64(3), md.Size)
}

func TestContentService_NotFound(t *testing.T) {
	ctx := context.Background()
	svc, _ := newLocalContentService(t)

	_, err := svc.Retrieve(ctx, uuid.NewString())
	assert.ErrorIs(t, err, service.ErrNotFound)

	_, err = svc.Metadata(ctx, uuid.NewString())
	assert.ErrorIs(t, err, service.ErrNotFound)

	_, err = svc.Retrieve(ctx, "not-a-uuid")
	assert.ErrorIs(t, err, service.ErrNotFound)

	_, err = svc.Retrieve(ctx, "")
	assert.ErrorIs(t, err, service.ErrIDRequired)
}

func TestContentService_MissingBlobIsNotFound(t *testing.T) {
	ctx := context.Background()
	id := uuid.NewString()

	mStore := new(storeMocks.MockStorage)
	mRepo := new(repoMocks.MockFileRepository)
	mRepo.On("FindByID", ctx, id).
		Return(&model.StoredFile{ID: id, FileName: "a.txt", Location: service.ObjectKey(id)}, nil).Once()
	mStore.On("Get", ctx, service.ObjectKey(id)).
		Return(nil, storage.ObjectInfo{}, fmt.Errorf("%w: %s", storage.ErrObjectNotFound, id)).Once()

	svc := service.NewContentService(mStore, mRepo)
	_, err := svc.Retrieve(ctx, id)

	assert.ErrorIs(t, err, service.ErrNotFound)
	mStore.AssertExpectations(t)
	mRepo.AssertExpectations(t)
}

func TestContentService_StorageReadError(t *testing.T) {
	ctx := context.Background()
	id := uuid.NewString()

	mStore := new(storeMocks.MockStorage)
	mRepo := new(repoMocks.MockFileRepository)
	mRepo.On("FindByID", ctx, id).
		Return(&model.StoredFile{ID: id, Location: service.ObjectKey(id)}, nil).Once()
	mStore.On("Get", ctx, service.ObjectKey(id)).
		Return(io.NopCloser(bytes.NewReader(nil)), storage.ObjectInfo{}, errors.New("network")).Once()

	svc := service.NewContentService(mStore, mRepo)
	_, err := svc.Retrieve(ctx, id)

	assert.Error(t, err)
	assert.NotErrorIs(t, err, service.ErrNotFound)
}

func TestContentService_ConcurrentStoreOfSameContent(t *testing.T) {
	ctx := context.Background()
	svc, repo := newLocalContentService(t)

	const workers = 16
	var wg sync.WaitGroup
	results := make([]*service.StoreResult, workers)
	errs := make([]error, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = svc.Store(ctx, []byte("contended"), fmt.Sprintf("copy-%d.txt", i))
		}(i)
	}
	wg.Wait()

	newCount := 0
	for i := 0; i < workers; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, results[0].ID, results[i].ID)
		if results[i].IsNew {
			newCount++
		}
	}
	assert.Equal(t, 1, newCount)
	assert.Equal(t, 1, repo.Len())
}
