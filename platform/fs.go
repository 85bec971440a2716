package platform

import (
	"context"
	"fmt"

	"resume-analyzer/domain"
)

type FS struct {
	c *Client
}

func (f *FS) Write(ctx context.Context, path string, data []byte) *domain.FSItem {
	if !f.c.begin(ctx, "fs") {
		return nil
	}
	defer f.c.endOp()

	item, err := f.c.backends.FS.Write(ctx, path, data)
	if err != nil {
		f.c.fail(ctx, "fs", fmt.Errorf("failed to write file: %w", err))
		return nil
	}
	return &item
}

func (f *FS) Read(ctx context.Context, path string) ([]byte, bool) {
	if !f.c.begin(ctx, "fs") {
		return nil, false
	}
	defer f.c.endOp()

	data, err := f.c.backends.FS.Read(ctx, path)
	if err != nil {
		f.c.fail(ctx, "fs", fmt.Errorf("failed to read file: %w", err))
		return nil, false
	}
	return data, true
}

// Upload stores files and returns the item of the last one.
func (f *FS) Upload(ctx context.Context, files ...domain.File) *domain.FSItem {
	if !f.c.begin(ctx, "fs") {
		return nil
	}
	defer f.c.endOp()

	if len(files) == 0 {
		f.c.fail(ctx, "fs", fmt.Errorf("failed to upload files: nothing to upload"))
		return nil
	}

	item, err := f.c.backends.FS.Upload(ctx, files)
	if err != nil {
		f.c.fail(ctx, "fs", fmt.Errorf("failed to upload files: %w", err))
		return nil
	}
	return &item
}

func (f *FS) Delete(ctx context.Context, path string) bool {
	if !f.c.begin(ctx, "fs") {
		return false
	}
	defer f.c.endOp()

	if err := f.c.backends.FS.Delete(ctx, path); err != nil {
		f.c.fail(ctx, "fs", fmt.Errorf("failed to delete file: %w", err))
		return false
	}
	return true
}

func (f *FS) List(ctx context.Context, path string) ([]domain.FSItem, bool) {
	if !f.c.begin(ctx, "fs") {
		return nil, false
	}
	defer f.c.endOp()

	items, err := f.c.backends.FS.List(ctx, path)
	if err != nil {
		f.c.fail(ctx, "fs", fmt.Errorf("failed to list directory: %w", err))
		return nil, false
	}
	return items, true
}
