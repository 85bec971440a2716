package platform

import (
	"context"
	"fmt"

	"resume-analyzer/domain"
)

// Pinger reports whether a backend is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// SessionProvider resolves the current user. Status returns a nil user when
// nobody is signed in.
type SessionProvider interface {
	Pinger
	Status(ctx context.Context) (*domain.User, error)
	SignIn(ctx context.Context) (*domain.User, error)
	SignOut(ctx context.Context) error
}

type BlobStore interface {
	Pinger
	Write(ctx context.Context, path string, data []byte) (domain.FSItem, error)
	Read(ctx context.Context, path string) ([]byte, error)
	// Upload stores files and returns the item describing the last one.
	Upload(ctx context.Context, files []domain.File) (domain.FSItem, error)
	Delete(ctx context.Context, path string) error
	List(ctx context.Context, path string) ([]domain.FSItem, error)
}

// KVStore persists string values. Get reports a missing key with ok=false
// and a nil error.
type KVStore interface {
	Pinger
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	List(ctx context.Context, pattern string, withValues bool) ([]domain.KVItem, error)
	Flush(ctx context.Context) error
}

// AIProvider talks to an evaluation model. File parts handed to Chat
// already carry their bytes.
type AIProvider interface {
	Pinger
	Chat(ctx context.Context, messages []ChatMessage, opts ChatOptions) (*AIResponse, error)
	ImageToText(ctx context.Context, image domain.File) (string, error)
}

type Backends struct {
	Session SessionProvider
	FS      BlobStore
	AI      AIProvider
	KV      KVStore
}

func (b Backends) ping(ctx context.Context) error {
	pingers := []struct {
		name string
		p    Pinger
	}{
		{"session", b.Session},
		{"fs", b.FS},
		{"ai", b.AI},
		{"kv", b.KV},
	}
	for _, item := range pingers {
		if item.p == nil {
			return fmt.Errorf("%s: %w", item.name, ErrMissingBackend)
		}
		if err := item.p.Ping(ctx); err != nil {
			return fmt.Errorf("%s: %w", item.name, err)
		}
	}
	return nil
}
