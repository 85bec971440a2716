package infrastructure

import (
	"context"
	"path"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"resume-analyzer/domain"
)

func TestBlobStoreUploadAndRead(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryBlobStore(zap.NewNop())
	require.NoError(t, store.Ping(ctx))

	item, err := store.Upload(ctx, []domain.File{
		{Name: "notes.txt", Data: []byte("first")},
		{Name: `C:\docs\resume.pdf`, Data: []byte("%PDF-1.7")},
	})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(item.Path, UploadsDir+"/"))
	assert.True(t, strings.HasSuffix(item.Path, "/resume.pdf"))
	assert.Equal(t, "resume.pdf", item.Name)
	assert.Equal(t, int64(8), item.Size)

	data, err := store.Read(ctx, item.Path)
	require.NoError(t, err)
	assert.Equal(t, []byte("%PDF-1.7"), data)
}

func TestBlobStoreUploadsDoNotCollide(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryBlobStore(nil)

	a, err := store.Upload(ctx, []domain.File{{Name: "resume.pdf", Data: []byte("a")}})
	require.NoError(t, err)
	b, err := store.Upload(ctx, []domain.File{{Name: "resume.pdf", Data: []byte("b")}})
	require.NoError(t, err)
	assert.NotEqual(t, a.Path, b.Path)
}

func TestBlobStoreListAndDelete(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryBlobStore(nil)

	_, err := store.Write(ctx, "docs/a.txt", []byte("a"))
	require.NoError(t, err)
	_, err = store.Write(ctx, "/docs/b.txt", []byte("bb"))
	require.NoError(t, err)

	items, err := store.List(ctx, "/docs")
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "/docs/a.txt", items[0].Path)
	assert.Equal(t, int64(2), items[1].Size)

	require.NoError(t, store.Delete(ctx, "/docs/a.txt"))
	_, err = store.Read(ctx, "/docs/a.txt")
	require.ErrorIs(t, err, ErrNotFound)
	require.ErrorIs(t, store.Delete(ctx, "/docs/a.txt"), ErrNotFound)

	_, err = store.List(ctx, "/missing")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestBlobStoreRejectsEmptyPath(t *testing.T) {
	_, err := NewMemoryBlobStore(nil).Read(context.Background(), "  ")
	require.ErrorIs(t, err, ErrInvalidPath)
}

func TestBlobStoreCleansTraversal(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryBlobStore(nil)
	item, err := store.Write(ctx, "../../etc/passwd", []byte("x"))
	require.NoError(t, err)
	assert.Equal(t, "/etc/passwd", item.Path)
}

func TestDiskBlobStore(t *testing.T) {
	ctx := context.Background()
	store, err := NewDiskBlobStore(t.TempDir(), nil)
	require.NoError(t, err)
	require.NoError(t, store.Ping(ctx))

	item, err := store.Upload(ctx, []domain.File{{Name: "cv.txt", Data: []byte("hello")}})
	require.NoError(t, err)
	data, err := store.Read(ctx, item.Path)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))
}

func TestBlobStoreRefusesRootDelete(t *testing.T) {
	ctx := context.Background()
	store, err := NewDiskBlobStore(t.TempDir(), nil)
	require.NoError(t, err)

	item, err := store.Upload(ctx, []domain.File{{Name: "cv.pdf", Data: []byte("%PDF")}})
	require.NoError(t, err)

	for _, p := range []string{"/", ".", "..", "/uploads", "uploads/", "/uploads/x/.."} {
		assert.ErrorIs(t, store.Delete(ctx, p), ErrInvalidPath, p)
	}

	data, err := store.Read(ctx, item.Path)
	require.NoError(t, err)
	assert.Equal(t, "%PDF", string(data))

	require.NoError(t, store.Delete(ctx, path.Dir(item.Path)))
	_, err = store.Read(ctx, item.Path)
	require.ErrorIs(t, err, ErrNotFound)
}
