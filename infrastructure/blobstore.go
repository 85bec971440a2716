package infrastructure

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"strings"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"resume-analyzer/domain"
	"resume-analyzer/logger"
	"resume-analyzer/utils"
)

// UploadsDir is where uploaded files land, one directory per upload.
const UploadsDir = "/uploads"

// BlobStore keeps uploaded documents and images on an afero filesystem.
type BlobStore struct {
	fs     afero.Fs
	logger *zap.Logger
}

func NewBlobStore(fs afero.Fs, l *zap.Logger) *BlobStore {
	return &BlobStore{fs: fs, logger: logger.WithFields(l, zap.String(logger.FieldBackend, "blobstore"))}
}

// NewDiskBlobStore roots the store at dir on the local disk.
func NewDiskBlobStore(dir string, l *zap.Logger) (*BlobStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating storage root: %w", err)
	}
	return NewBlobStore(afero.NewBasePathFs(afero.NewOsFs(), dir), l), nil
}

func NewMemoryBlobStore(l *zap.Logger) *BlobStore {
	return NewBlobStore(afero.NewMemMapFs(), l)
}

func (b *BlobStore) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return b.fs.MkdirAll(UploadsDir, 0o755)
}

func (b *BlobStore) Write(ctx context.Context, p string, data []byte) (domain.FSItem, error) {
	if err := ctx.Err(); err != nil {
		return domain.FSItem{}, err
	}
	clean, err := cleanPath(p)
	if err != nil {
		return domain.FSItem{}, err
	}

	if err := b.fs.MkdirAll(path.Dir(clean), 0o755); err != nil {
		return domain.FSItem{}, fmt.Errorf("creating directory for %s: %w", clean, err)
	}
	if err := afero.WriteFile(b.fs, clean, data, 0o644); err != nil {
		return domain.FSItem{}, fmt.Errorf("writing %s: %w", clean, err)
	}

	info, err := b.fs.Stat(clean)
	if err != nil {
		return domain.FSItem{}, fmt.Errorf("stat %s: %w", clean, err)
	}
	b.logger.Debug("stored blob", zap.String("path", clean), zap.String("size", utils.FormatSize(info.Size())))
	return toItem(clean, info), nil
}

func (b *BlobStore) Read(ctx context.Context, p string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	clean, err := cleanPath(p)
	if err != nil {
		return nil, err
	}
	data, err := afero.ReadFile(b.fs, clean)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%s: %w", clean, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", clean, err)
	}
	return data, nil
}

// Upload writes files into a fresh directory under UploadsDir and returns
// the item of the last file written.
func (b *BlobStore) Upload(ctx context.Context, files []domain.File) (domain.FSItem, error) {
	if len(files) == 0 {
		return domain.FSItem{}, fmt.Errorf("upload: no files")
	}
	dir := path.Join(UploadsDir, utils.NewID())

	var last domain.FSItem
	for _, f := range files {
		name := path.Base(strings.ReplaceAll(f.Name, "\\", "/"))
		if name == "." || name == "/" || name == "" {
			name = "file"
		}
		item, err := b.Write(ctx, path.Join(dir, name), f.Data)
		if err != nil {
			return domain.FSItem{}, err
		}
		last = item
	}
	return last, nil
}

// Delete removes a file or a directory tree. The storage root and
// UploadsDir itself cannot be deleted.
func (b *BlobStore) Delete(ctx context.Context, p string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	clean, err := cleanPath(p)
	if err != nil {
		return err
	}
	if clean == "/" || clean == UploadsDir {
		return fmt.Errorf("%w: refusing to delete %s", ErrInvalidPath, clean)
	}
	if _, err := b.fs.Stat(clean); errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%s: %w", clean, ErrNotFound)
	}
	if err := b.fs.RemoveAll(clean); err != nil {
		return fmt.Errorf("removing %s: %w", clean, err)
	}
	return nil
}

func (b *BlobStore) List(ctx context.Context, dir string) ([]domain.FSItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	clean, err := cleanPath(dir)
	if err != nil {
		return nil, err
	}
	infos, err := afero.ReadDir(b.fs, clean)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%s: %w", clean, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", clean, err)
	}

	items := make([]domain.FSItem, 0, len(infos))
	for _, info := range infos {
		items = append(items, toItem(path.Join(clean, info.Name()), info))
	}
	return items, nil
}

func cleanPath(p string) (string, error) {
	p = strings.TrimSpace(p)
	if p == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidPath)
	}
	return path.Clean("/" + p), nil
}

func toItem(p string, info os.FileInfo) domain.FSItem {
	return domain.FSItem{
		ID:       p,
		Name:     info.Name(),
		Path:     p,
		IsDir:    info.IsDir(),
		Size:     info.Size(),
		Created:  info.ModTime(),
		Modified: info.ModTime(),
	}
}
