package memory

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/DRSN-tech/instrument-shop/pkg/e"
	"github.com/jimlawless/whereami"
)

type sessionEntry struct {
	data      []byte
	expiresAt time.Time
}

// SessionRepo - хранилище сессий в памяти. Значения копируются на входе и выходе,
// чтобы вызывающий код не мог изменить сохранённые байты.
type SessionRepo struct {
	mu   sync.Mutex
	data map[string]sessionEntry
	ttl  time.Duration
	now  func() time.Time
}

// NewSessionRepo создаёт хранилище; ttl <= 0 - без истечения.
func NewSessionRepo(ttl time.Duration) *SessionRepo {
	return &SessionRepo{
		data: make(map[string]sessionEntry),
		ttl:  ttl,
		now:  time.Now,
	}
}

func (r *SessionRepo) Get(ctx context.Context, sessionID string, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	k := sessionKey(sessionID, key)
	en, ok := r.data[k]
	if !ok {
		return nil, nil
	}
	if !en.expiresAt.IsZero() && !r.now().Before(en.expiresAt) {
		delete(r.data, k)
		return nil, nil
	}

	return slices.Clone(en.data), nil
}

func (r *SessionRepo) Set(ctx context.Context, sessionID string, key string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	en := sessionEntry{data: slices.Clone(data)}
	if r.ttl > 0 {
		en.expiresAt = r.now().Add(r.ttl)
	}
	r.data[sessionKey(sessionID, key)] = en

	return nil
}

func sessionKey(sessionID string, key string) string {
	return sessionID + ":" + key
}
