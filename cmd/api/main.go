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

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/avetisov/assistant-desk/internal/config"
	"github.com/avetisov/assistant-desk/internal/handler"
	healthHandler "github.com/avetisov/assistant-desk/internal/handler/health"
	"github.com/avetisov/assistant-desk/internal/model/persona"
	"github.com/avetisov/assistant-desk/internal/service/ai"
	"github.com/avetisov/assistant-desk/internal/service/dispatch"
	"github.com/avetisov/assistant-desk/internal/store"
	memorystore "github.com/avetisov/assistant-desk/internal/store/memory"
	pgstore "github.com/avetisov/assistant-desk/internal/store/postgres"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("warning: failed to load .env file: %v", err)
		log.Println("continuing with system environment variables only")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	personaStore := persona.NewMemoryStore(persona.Seed())

	convStore, pinger, cleanup, err := newConversationStore(ctx, cfg.Store)
	if err != nil {
		log.Fatalf("failed to initialize conversation store: %v", err)
	}
	defer cleanup()

	// Initialize the generation client; the service stays up without it and
	// message dispatch reports the endpoint as unavailable.
	var dispatcher *dispatch.Service
	if cfg.LLM.Enabled() {
		genClient, err := ai.NewClient(ctx, cfg.LLM)
		if err != nil {
			log.Printf("warning: failed to initialize generation client: %v", err)
			log.Println("continuing without message dispatch - check LLM_* environment variables")
		} else {
			var opts []dispatch.Option
			if cfg.LLM.DegradedFallback {
				log.Println("warning: degraded fallback enabled, generation failures return error-string replies")
				opts = append(opts, dispatch.WithDegradedFallback())
			}
			dispatcher = dispatch.NewService(personaStore, convStore, genClient, opts...)
			log.Println("generation client initialized successfully")
		}
	} else {
		log.Println("LLM endpoint not configured, skipping generation client")
	}

	router := handler.NewRouter(personaStore, convStore, dispatcher, pinger)

	startServer(ctx, cfg.Server, router)
}

// newConversationStore picks postgres when DATABASE_URL is set, otherwise
// the in-memory store.
func newConversationStore(ctx context.Context, cfg config.StoreConfig) (store.Store, healthHandler.Pinger, func(), error) {
	if cfg.DatabaseURL == "" {
		log.Println("DATABASE_URL not set, using in-memory conversation store")
		var opts []memorystore.Option
		if cfg.AutoCreateMissing {
			opts = append(opts, memorystore.WithAutoCreateMissing())
		}
		return memorystore.New(opts...), nil, func() {}, nil
	}

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, nil, err
	}

	var opts []pgstore.Option
	if cfg.AutoCreateMissing {
		opts = append(opts, pgstore.WithAutoCreateMissing())
	}
	pg := pgstore.New(pool, opts...)
	if err := pg.CreateSchema(ctx); err != nil {
		pool.Close()
		return nil, nil, nil, err
	}

	log.Println("postgres conversation store initialized")
	return pg, pg, pool.Close, nil
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler) {
	srv := &http.Server{
		Addr:              serverCfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Printf("assistant-desk backend listening on %s", serverCfg.Addr)
	if err := runServer(ctx, srv); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
