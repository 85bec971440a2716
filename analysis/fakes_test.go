package analysis

import (
	"context"
	"sync"

	"resume-analyzer/domain"
	"resume-analyzer/platform"
	"resume-analyzer/rasterizer"
)

type fakeStorage struct {
	mu      sync.Mutex
	uploads []domain.File
	failAt  int
	calls   int
}

// failAt is the 1-based upload call that fails; zero never fails.
func (f *fakeStorage) Upload(_ context.Context, files ...domain.File) *domain.FSItem {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.calls == f.failAt {
		return nil
	}
	f.uploads = append(f.uploads, files...)
	last := files[len(files)-1]
	return &domain.FSItem{Name: last.Name, Path: "/uploads/" + last.Name, Size: last.Size()}
}

type fakeRasterizer struct {
	mu       sync.Mutex
	fail     bool
	released []string
}

func (f *fakeRasterizer) Convert(_ context.Context, doc domain.File) rasterizer.Result {
	if f.fail {
		return rasterizer.Result{Err: "failed to convert " + doc.Name + ": broken"}
	}
	img := domain.File{Name: rasterizer.ImageName(doc.Name), ContentType: "image/png", Data: []byte("png")}
	return rasterizer.Result{Image: &img, Handle: "preview-1"}
}

func (f *fakeRasterizer) Release(handle string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.released = append(f.released, handle)
	return true
}

type fakeEvaluator struct {
	reply        *platform.AIResponse
	path         string
	instructions string
	calls        int
	// onCall observes the store at evaluation time.
	onCall func()
}

func (f *fakeEvaluator) Feedback(_ context.Context, documentPath, instructions string) *platform.AIResponse {
	f.calls++
	f.path = documentPath
	f.instructions = instructions
	if f.onCall != nil {
		f.onCall()
	}
	return f.reply
}

func textReply(text string) *platform.AIResponse {
	return &platform.AIResponse{Message: platform.ChatMessage{Role: platform.RoleAssistant, Content: platform.TextContent(text)}}
}

type fakeRecordStore struct {
	mu     sync.Mutex
	values map[string]string
	writes []string
	failAt int
}

func newFakeRecordStore() *fakeRecordStore {
	return &fakeRecordStore{values: make(map[string]string)}
}

func (f *fakeRecordStore) Set(_ context.Context, key, value string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.writes)+1 == f.failAt {
		f.writes = append(f.writes, "")
		return false
	}
	f.writes = append(f.writes, value)
	f.values[key] = value
	return true
}

func (f *fakeRecordStore) record(key string) (domain.AnalysisRecord, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.values[key]
	if !ok {
		return domain.AnalysisRecord{}, false
	}
	r, err := domain.DecodeRecord(v)
	if err != nil {
		return domain.AnalysisRecord{}, false
	}
	return r, true
}

type statusLog struct {
	mu       sync.Mutex
	statuses []Status
}

func (s *statusLog) sink(st Status) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.statuses = append(s.statuses, st)
}

func (s *statusLog) steps() []Step {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Step, 0, len(s.statuses))
	for _, st := range s.statuses {
		out = append(out, st.Step)
	}
	return out
}

func (s *statusLog) last() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.statuses[len(s.statuses)-1]
}
