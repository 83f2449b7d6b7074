package redis

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/DRSN-tech/instrument-shop/internal/cfg"
	"github.com/DRSN-tech/instrument-shop/pkg/clients"
	"github.com/DRSN-tech/instrument-shop/pkg/e"
	"github.com/DRSN-tech/instrument-shop/pkg/jitter"
	"github.com/DRSN-tech/instrument-shop/pkg/logger"
	"github.com/google/uuid"
	"github.com/jimlawless/whereami"
	r "github.com/redis/go-redis/v9"
)

// releaseScript удаляет ключ, только если он всё ещё принадлежит владельцу токена.
var releaseScript = r.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

const releaseTimeout = 2 * time.Second

// LockRepo - распределённая блокировка сессии на SET NX PX.
// TTL ограничивает время жизни блокировки, если владелец упал, не освободив её.
type LockRepo struct {
	client  *clients.RedisClient
	ttl     time.Duration
	backoff jitter.Backoff
	logger  logger.Logger
}

func NewLockRepo(client *clients.RedisClient, cfg *cfg.RedisCfg, logger logger.Logger) *LockRepo {
	return &LockRepo{
		client: client,
		ttl:    cfg.LockTTL,
		backoff: jitter.Backoff{
			Base:   cfg.LockRetryBase,
			Max:    cfg.LockRetryMax,
			Factor: jitter.DefaultJitter,
		},
		logger: logger,
	}
}

// Lock ждёт блокировку сессии, пока не отменён ctx.
// Ошибка ctx возвращается, только если блокировку удерживал другой владелец;
// ошибки Redis помечаются e.ErrSessionStore.
func (l *LockRepo) Lock(ctx context.Context, sessionID string) (func(), error) {
	key := l.lockKey(sessionID)
	token := uuid.NewString()
	held := false

	for attempt := 0; ; attempt++ {
		ok, err := l.client.Client.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			ctxErr := ctx.Err()
			if errors.Is(ctxErr, context.Canceled) || (held && ctxErr != nil) {
				return nil, ctxErr
			}
			return nil, e.WrapKind(e.ErrSessionStore, e.Wrap(whereami.WhereAmI(), err))
		}
		if ok {
			return l.releaser(key, token), nil
		}
		held = true

		if err := l.backoff.Sleep(ctx, attempt); err != nil {
			return nil, err
		}
	}
}

func (l *LockRepo) releaser(key string, token string) func() {
	var once sync.Once
	return func() {
		once.Do(func() {
			// Контекст запроса к этому моменту может быть уже отменён.
			ctx, cancel := context.WithTimeout(context.Background(), releaseTimeout)
			defer cancel()

			if err := releaseScript.Run(ctx, l.client.Client, []string{key}, token).Err(); err != nil {
				l.logger.Warnf("Failed to release lock %s: %v", key, e.Wrap(whereami.WhereAmI(), err))
			}
		})
	}
}

func (l *LockRepo) lockKey(sessionID string) string {
	return fmt.Sprintf("lock:session:%s", sessionID)
}
