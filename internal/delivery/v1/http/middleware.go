package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/DRSN-tech/instrument-shop/internal/cfg"
	"github.com/DRSN-tech/instrument-shop/pkg/e"
	"github.com/DRSN-tech/instrument-shop/pkg/logger"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

type sessionKey struct{}

// SessionIDFromCtx возвращает id сессии, выставленный SessionMiddleware.
func SessionIDFromCtx(ctx context.Context) string {
	id, _ := ctx.Value(sessionKey{}).(string)
	return id
}

// SessionMiddleware читает id сессии из cookie и выдаёт новый при первом обращении.
// Значение, не являющееся UUID, считается отсутствующим.
func SessionMiddleware(cfg *cfg.SessionCfg) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var sessionID string
			if c, err := r.Cookie(cfg.CookieName); err == nil {
				if id, err := uuid.Parse(c.Value); err == nil {
					sessionID = id.String()
				}
			}

			if sessionID == "" {
				sessionID = uuid.NewString()
			}

			// Cookie переустанавливается на каждый запрос, чтобы продлевать срок сессии.
			http.SetCookie(w, &http.Cookie{
				Name:     cfg.CookieName,
				Value:    sessionID,
				Path:     "/",
				MaxAge:   int(cfg.TTL.Seconds()),
				HttpOnly: true,
				Secure:   cfg.Secure,
				SameSite: http.SameSiteLaxMode,
			})

			ctx := context.WithValue(r.Context(), sessionKey{}, sessionID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// AccessLog пишет одну строку на запрос.
func AccessLog(log logger.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}

			log.Infof("http request: method=%s path=%s status=%d bytes=%d duration_ms=%d request_id=%s remote_addr=%s",
				r.Method,
				r.URL.Path,
				status,
				ww.BytesWritten(),
				time.Since(start).Milliseconds(),
				middleware.GetReqID(r.Context()),
				r.RemoteAddr,
			)
		})
	}
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// SessionRateLimiter ограничивает частоту изменений корзины для каждой сессии.
// Неактивные сессии вычищаются при обращениях, не чаще раза в cleanupEvery.
type SessionRateLimiter struct {
	mtx          sync.Mutex
	visitors     map[string]*visitor
	rate         rate.Limit
	burst        int
	idleTTL      time.Duration
	cleanupEvery time.Duration
	lastCleanup  time.Time
	now          func() time.Time
}

func NewSessionRateLimiter(r rate.Limit, burst int) *SessionRateLimiter {
	return &SessionRateLimiter{
		visitors:     make(map[string]*visitor),
		rate:         r,
		burst:        burst,
		idleTTL:      3 * time.Minute,
		cleanupEvery: time.Minute,
		now:          time.Now,
	}
}

// Allow расходует один токен сессии.
func (rl *SessionRateLimiter) Allow(sessionID string) bool {
	return rl.getVisitor(sessionID).AllowN(rl.now(), 1)
}

func (rl *SessionRateLimiter) getVisitor(sessionID string) *rate.Limiter {
	rl.mtx.Lock()
	defer rl.mtx.Unlock()

	now := rl.now()
	if now.Sub(rl.lastCleanup) >= rl.cleanupEvery {
		for id, v := range rl.visitors {
			if now.Sub(v.lastSeen) > rl.idleTTL {
				delete(rl.visitors, id)
			}
		}
		rl.lastCleanup = now
	}

	v, exists := rl.visitors[sessionID]
	if !exists {
		v = &visitor{limiter: rate.NewLimiter(rl.rate, rl.burst)}
		rl.visitors[sessionID] = v
	}
	v.lastSeen = now

	return v.limiter
}

// Middleware должен стоять после SessionMiddleware.
func (rl *SessionRateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rl.Allow(SessionIDFromCtx(r.Context())) {
			WriteError(w, e.ErrTooManyRequests)
			return
		}

		next.ServeHTTP(w, r)
	})
}
