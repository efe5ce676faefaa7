package cli

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"greensys-quiz-service/internal/backend"
	"greensys-quiz-service/internal/config"
	"greensys-quiz-service/internal/infra/memory"
	pgstore "greensys-quiz-service/internal/infra/postgres"
	redisinfra "greensys-quiz-service/internal/infra/redis"
	"greensys-quiz-service/internal/quiz"
	transport "greensys-quiz-service/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the gateway.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz gateway",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	// Source selection mirrors deployment modes: a remote REST backend,
	// self-hosted Postgres tables, or static demo fixtures.
	var (
		groups   quiz.GroupSource
		profiles quiz.ProfileSource
		sink     quiz.ResultSink
		results  quiz.ResultSource
	)
	switch {
	case cfg.Backend.URL != "":
		client := backend.NewClient(cfg.Backend.URL, config.Duration(cfg.Backend.Timeout, 10*time.Second))
		groups, profiles, sink, results = client, client, client, client
	case cfg.Postgres.URL != "":
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		store := pgstore.NewStore(pool)
		groups, profiles, sink, results = store, store, store, store
	default:
		static := sampleFixtures()
		groups, profiles, sink, results = static, static, static, static
	}

	groupTTL := config.Duration(cfg.Group.TTL, 10*time.Minute)
	if cfg.Redis.Addr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		groups = redisinfra.NewGroupCache(redisClient, groups, groupTTL)
	} else {
		groups = memory.NewGroupCache(groups, groupTTL)
	}

	loader := quiz.NewLoader(groups, profiles)
	submitter := quiz.NewSubmitter(sink)
	sessionHandler := transport.NewSessionHandler(loader, submitter)
	resultHandler := transport.NewResultHandler(results)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/ws", sessionHandler.ServeWS)
	mux.Handle("/result/", resultHandler)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting quiz gateway on :%s", finalPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("failed to start server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Println("shutting down server...")
	case <-ctx.Done():
		log.Println("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
