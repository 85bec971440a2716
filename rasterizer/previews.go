package rasterizer

import (
	"sync"
	"time"

	"resume-analyzer/domain"
	"resume-analyzer/utils"
)

type preview struct {
	image     domain.File
	allocated time.Time
}

// Previews holds rendered images under opaque handles until released.
type Previews struct {
	mu     sync.RWMutex
	images map[string]preview
	now    func() time.Time
}

func NewPreviews() *Previews {
	return &Previews{images: make(map[string]preview), now: time.Now}
}

func (p *Previews) Allocate(img domain.File) string {
	handle := utils.NewID()
	p.mu.Lock()
	p.images[handle] = preview{image: img, allocated: p.now()}
	p.mu.Unlock()
	return handle
}

func (p *Previews) Get(handle string) (domain.File, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	pv, ok := p.images[handle]
	return pv.image, ok
}

// Release drops the image behind handle. It reports whether it existed.
func (p *Previews) Release(handle string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.images[handle]; !ok {
		return false
	}
	delete(p.images, handle)
	return true
}

// Prune releases every handle allocated before cutoff and returns how many
// were dropped.
func (p *Previews) Prune(cutoff time.Time) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for handle, pv := range p.images {
		if pv.allocated.Before(cutoff) {
			delete(p.images, handle)
			n++
		}
	}
	return n
}

func (p *Previews) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.images)
}
