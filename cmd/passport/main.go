package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/aromera/passport/internal/auth"
	"github.com/aromera/passport/internal/cache"
	"github.com/aromera/passport/internal/config"
	"github.com/aromera/passport/internal/domain/repository"
	httpx "github.com/aromera/passport/internal/http"
	authctrl "github.com/aromera/passport/internal/http/controllers/auth"
	healthctrl "github.com/aromera/passport/internal/http/controllers/health"
	"github.com/aromera/passport/internal/http/router"
	"github.com/aromera/passport/internal/identity/google"
	"github.com/aromera/passport/internal/observability/logger"
	"github.com/aromera/passport/internal/security/password"
	"github.com/aromera/passport/internal/store"
	redisstore "github.com/aromera/passport/internal/store/redis"
	"github.com/aromera/passport/internal/token"
)

func main() {
	// .env si existe; producción usa env del sistema
	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file found, using system environment: %v", err)
	}

	cfg, err := config.Load(os.Getenv("CONFIG_FILE"))
	if err != nil {
		// ConfigError es fatal: sin secret/algoritmo/TTL válidos no se arranca
		log.Fatalf("config: %v", err)
	}

	logger.Init(logger.Config{
		Env:         cfg.App.Env,
		Level:       cfg.Log.Level,
		ServiceName: "passport",
	})
	defer func() { _ = logger.Sync() }()
	lg := logger.L()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Persistencia
	st, err := store.New(ctx, cfg)
	if err != nil {
		lg.Fatal("store init failed", logger.Err(err))
	}
	defer st.Close()

	// Cache (memory o redis)
	cacheClient, err := cache.New(cache.Config{
		Kind:   cfg.Cache.Kind,
		Addr:   cfg.Cache.Redis.Addr,
		DB:     cfg.Cache.Redis.DB,
		Prefix: cfg.Cache.Redis.Prefix,
	})
	if err != nil {
		lg.Fatal("cache init failed", logger.Err(err))
	}
	defer func() { _ = cacheClient.Close() }()

	// Session store según config: db (repos del driver), redis o deshabilitado
	var sessions repository.SessionRepository
	switch cfg.Sessions.Store {
	case "db":
		sessions = st.Sessions
	case "redis":
		sessions = redisstore.NewSessionStore(cacheClient, cfg.SessionTTL())
	case "off":
		sessions = nil
	}

	codec, err := token.New(cfg.JWT.Secret, cfg.JWT.Algorithm, cfg.AccessTTL())
	if err != nil {
		lg.Fatal("token codec init failed", logger.Err(err))
	}

	var verifier auth.ExternalVerifier
	if cfg.Providers.Google.Enabled {
		verifier = google.NewVerifier(cfg.Providers.Google.ClientID)
		lg.Info("google login enabled")
	}

	svc := auth.New(auth.Deps{
		Users:    st.Users,
		Sessions: sessions,
		Codec:    codec,
		Google:   verifier,
		Hashing:  password.Params{Cost: cfg.Security.BcryptCost},
	})

	metricsHandler, err := httpx.RegisterMetrics(httpx.MetricsConfig{Pool: st.Pool})
	if err != nil {
		lg.Fatal("metrics init failed", logger.Err(err))
	}

	handler := router.New(router.Deps{
		Auth:     authctrl.NewControllers(svc, sessions),
		Health:   healthctrl.NewController(healthctrl.Deps{DBCheck: st.Ping, CacheCheck: cacheClient.Ping}),
		Resolver: svc,
		Metrics:  metricsHandler,
	})

	srv := httpx.NewServer(cfg.Server.Addr, handler)

	go func() {
		lg.Info("server listening", logger.String("addr", cfg.Server.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			lg.Fatal("server failed", logger.Err(err))
		}
	}()

	<-ctx.Done()
	lg.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		lg.Error("graceful shutdown failed", logger.Err(err))
	}
}
