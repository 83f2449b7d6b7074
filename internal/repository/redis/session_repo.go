package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/DRSN-tech/instrument-shop/pkg/clients"
	"github.com/DRSN-tech/instrument-shop/pkg/e"
	"github.com/jimlawless/whereami"
	r "github.com/redis/go-redis/v9"
)

// SessionRepo хранит данные сессий в Redis. Каждая запись продлевает TTL сессии.
type SessionRepo struct {
	client *clients.RedisClient
	ttl    time.Duration
}

func NewSessionRepo(client *clients.RedisClient, ttl time.Duration) *SessionRepo {
	return &SessionRepo{client: client, ttl: ttl}
}

// Get возвращает (nil, nil), если значения нет или сессия истекла.
func (s *SessionRepo) Get(ctx context.Context, sessionID string, key string) ([]byte, error) {
	data, err := s.client.Client.Get(ctx, s.sessionKey(sessionID, key)).Bytes()
	if err != nil {
		if errors.Is(err, r.Nil) {
			return nil, nil
		}
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return data, nil
}

func (s *SessionRepo) Set(ctx context.Context, sessionID string, key string, data []byte) error {
	if err := s.client.Client.Set(ctx, s.sessionKey(sessionID, key), data, s.ttl).Err(); err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}

func (s *SessionRepo) sessionKey(sessionID string, key string) string {
	return fmt.Sprintf("session:%s:%s", sessionID, key)
}
