package platform

import (
	"context"
	"errors"
	"path"
	"sort"
	"strings"
	"sync"

	"resume-analyzer/domain"
)

type fakeSession struct {
	user    *domain.User
	err     error
	pingErr error
}

func (f *fakeSession) Ping(context.Context) error { return f.pingErr }

func (f *fakeSession) Status(context.Context) (*domain.User, error) { return f.user, f.err }

func (f *fakeSession) SignIn(context.Context) (*domain.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.user = &domain.User{UUID: "u-1", Username: "alice"}
	return f.user, nil
}

func (f *fakeSession) SignOut(context.Context) error {
	f.user = nil
	return f.err
}

type fakeBlobs struct {
	mu    sync.Mutex
	files map[string][]byte
	err   error
}

func newFakeBlobs() *fakeBlobs {
	return &fakeBlobs{files: make(map[string][]byte)}
}

func (f *fakeBlobs) Ping(context.Context) error { return nil }

func (f *fakeBlobs) Write(_ context.Context, p string, data []byte) (domain.FSItem, error) {
	if f.err != nil {
		return domain.FSItem{}, f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.files[p] = data
	return domain.FSItem{Name: path.Base(p), Path: p, Size: int64(len(data))}, nil
}

func (f *fakeBlobs) Read(_ context.Context, p string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.files[p]
	if !ok {
		return nil, errors.New("no such file")
	}
	return data, nil
}

func (f *fakeBlobs) Upload(ctx context.Context, files []domain.File) (domain.FSItem, error) {
	var last domain.FSItem
	for _, file := range files {
		item, err := f.Write(ctx, "/uploads/"+file.Name, file.Data)
		if err != nil {
			return domain.FSItem{}, err
		}
		last = item
	}
	return last, nil
}

func (f *fakeBlobs) Delete(_ context.Context, p string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.files, p)
	return nil
}

func (f *fakeBlobs) List(_ context.Context, dir string) ([]domain.FSItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var items []domain.FSItem
	for p, data := range f.files {
		if strings.HasPrefix(p, dir) {
			items = append(items, domain.FSItem{Name: path.Base(p), Path: p, Size: int64(len(data))})
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Path < items[j].Path })
	return items, nil
}

type fakeAI struct {
	mu       sync.Mutex
	messages []ChatMessage
	opts     ChatOptions
	reply    *AIResponse
	err      error
}

func (f *fakeAI) Ping(context.Context) error { return nil }

func (f *fakeAI) Chat(_ context.Context, messages []ChatMessage, opts ChatOptions) (*AIResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages = messages
	f.opts = opts
	return f.reply, f.err
}

func (f *fakeAI) ImageToText(_ context.Context, image domain.File) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return "text of " + image.Name, nil
}

type fakeKV struct {
	mu     sync.Mutex
	values map[string]string
	err    error
}

func newFakeKV() *fakeKV {
	return &fakeKV{values: make(map[string]string)}
}

func (f *fakeKV) Ping(context.Context) error { return nil }

func (f *fakeKV) Get(_ context.Context, key string) (string, bool, error) {
	if f.err != nil {
		return "", false, f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.values[key]
	return v, ok, nil
}

func (f *fakeKV) Set(_ context.Context, key, value string) error {
	if f.err != nil {
		return f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.values[key] = value
	return nil
}

func (f *fakeKV) Delete(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.values, key)
	return f.err
}

func (f *fakeKV) List(_ context.Context, pattern string, withValues bool) ([]domain.KVItem, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var items []domain.KVItem
	for k, v := range f.values {
		if ok, _ := path.Match(pattern, k); ok {
			item := domain.KVItem{Key: k}
			if withValues {
				item.Value = v
			}
			items = append(items, item)
		}
	}
	return items, nil
}

func (f *fakeKV) Flush(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.values = make(map[string]string)
	return f.err
}

// flakyPinger fails until it has been pinged okAfter times.
type flakyPinger struct {
	*fakeKV
	mu      sync.Mutex
	calls   int
	okAfter int
}

func (f *flakyPinger) Ping(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.okAfter < 0 || f.calls <= f.okAfter {
		return errors.New("not loaded")
	}
	return nil
}

// hangingPinger blocks every ping until its context is done.
type hangingPinger struct {
	*fakeKV
}

func (h *hangingPinger) Ping(ctx context.Context) error {
	<-ctx.Done()
	return ctx.Err()
}
