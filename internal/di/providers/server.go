package providers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/samber/do/v2"

	"github.com/pagewise/pagewise-server/internal/api"
	"github.com/pagewise/pagewise-server/internal/config"
	"github.com/pagewise/pagewise-server/internal/logger"
	"github.com/pagewise/pagewise-server/internal/ratelimit"
	"github.com/pagewise/pagewise-server/internal/recommend"
	"github.com/pagewise/pagewise-server/internal/service"
)

// shutdownTimeout is the maximum time to wait for in-flight requests on shutdown.
const shutdownTimeout = 30 * time.Second

// HTTPServerHandle wraps http.Server with Shutdownable.
type HTTPServerHandle struct {
	*http.Server
	loginLimiter *ratelimit.KeyedRateLimiter
}

// Shutdown implements do.Shutdownable.
func (h *HTTPServerHandle) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	defer h.loginLimiter.Stop()
	return h.Server.Shutdown(ctx)
}

// ProvideHTTPServer provides the HTTP server.
func ProvideHTTPServer(i do.Injector) (*HTTPServerHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	db := do.MustInvoke[*DatabaseHandle](i)
	r := do.MustInvoke[*RetrieverHandle](i)

	services := &api.Services{
		Search:    do.MustInvoke[*service.SearchService](i),
		Book:      do.MustInvoke[*service.BookService](i),
		History:   do.MustInvoke[*service.HistoryService](i),
		Login:     do.MustInvoke[*service.LoginService](i),
		Recommend: do.MustInvoke[*recommend.Engine](i),
	}

	loginLimiter := ratelimit.New(cfg.RateLimit.LoginRPS, cfg.RateLimit.LoginBurst)

	handler := api.NewServer(services, api.Options{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		LoginLimiter:   loginLimiter,
		Health: map[string]api.Pinger{
			"history":   db,
			"retriever": r,
		},
	}, log.Logger)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start in background
	go func() {
		log.Info("HTTP server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("HTTP server error", "error", err)
		}
	}()

	return &HTTPServerHandle{Server: srv, loginLimiter: loginLimiter}, nil
}
