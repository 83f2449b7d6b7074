package http

import (
	"net/http"

	"github.com/DRSN-tech/instrument-shop/internal/cfg"
	"github.com/DRSN-tech/instrument-shop/internal/usecase"
	"github.com/DRSN-tech/instrument-shop/pkg/logger"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"golang.org/x/time/rate"
)

// RouterOptions - настройки HTTP-слоя, не относящиеся к конкретному обработчику.
type RouterOptions struct {
	AllowedOrigins []string
	Session        *cfg.SessionCfg
	Cart           *cfg.CartCfg
}

type Router struct {
	router *chi.Mux
	logger logger.Logger
	opts   RouterOptions
}

func NewRouter(router *chi.Mux, logger logger.Logger, opts RouterOptions) *Router {
	return &Router{router: router, logger: logger, opts: opts}
}

func (r *Router) Init(catalogUC usecase.CatalogUC, cartUC usecase.CartUC, health *HealthHandler) {
	r.router.Use(middleware.RequestID)
	r.router.Use(middleware.RealIP)
	r.router.Use(AccessLog(r.logger))
	r.router.Use(middleware.Recoverer)
	r.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   r.opts.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"Location"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.router.Get("/health", health.ServeHTTP)

	r.router.Route("/api/v1", func(v1 chi.Router) {
		v1.Get("/health", health.ServeHTTP)

		catalogHandler := NewCatalogHandler(catalogUC, r.logger)
		registerCatalogRoutes(v1, catalogHandler)

		cartHandler := NewCartHandler(cartUC, r.logger)
		registerCartRoutes(v1, cartHandler, r.opts)
	})
}

func registerCatalogRoutes(router chi.Router, handler *CatalogHandler) {
	router.Get("/instruments", handler.listInstruments)
	router.Get("/categories", handler.listCategories)
}

func registerCartRoutes(router chi.Router, handler *CartHandler, opts RouterOptions) {
	router.Route("/cart", func(cart chi.Router) {
		cart.Use(SessionMiddleware(opts.Session))

		cart.Get("/", handler.getCart)

		cart.Group(func(mut chi.Router) {
			if opts.Cart != nil && opts.Cart.RateLimit > 0 {
				limiter := NewSessionRateLimiter(rate.Limit(opts.Cart.RateLimit), opts.Cart.RateBurst)
				mut.Use(limiter.Middleware)
			}

			mut.Post("/add/{id}", handler.addToCart)
			mut.Post("/remove/{id}", handler.removeFromCart)
			mut.Post("/decrease/{id}", handler.decreaseCartItem)
			mut.Delete("/", handler.clearCart)
		})
	})
}
