package cli

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"classroom-quiz/internal/app"
	"classroom-quiz/internal/config"
	"classroom-quiz/internal/domain"
	"classroom-quiz/internal/infra/amqp"
	"classroom-quiz/internal/infra/memory"
	pgloader "classroom-quiz/internal/infra/postgres"
	infraredis "classroom-quiz/internal/infra/redis"
	transport "classroom-quiz/internal/transport/http"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the classroom quiz server",
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

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()
	}
	redisTTL := config.TTLDuration(cfg.Redis.TTL, 12*time.Hour)

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()
	}

	var loader memory.QuizLoader = memory.NewStaticQuizLoader(sampleQuizzes())
	if pool != nil {
		loader = pgloader.NewQuizLoader(pool)
	}

	quizTTL := config.TTLDuration(cfg.Quiz.TTL, 10*time.Minute)
	var quizRepo app.QuizRepository
	var index app.RoomIndex
	if redisClient != nil {
		quizRepo = infraredis.NewQuizRepository(redisClient, loader, quizTTL)
		index = infraredis.NewRoomIndex(redisClient, redisTTL)
	} else {
		quizRepo = memory.NewQuizRepository(loader, quizTTL)
		index = memory.NewRoomIndex()
	}

	publisher, err := amqp.NewPublisher(cfg.AMQP.URL, cfg.AMQP.Exchange)
	if err != nil {
		return err
	}
	defer publisher.Close()

	registry := app.NewRegistry(index, app.RoomOptions{Capacity: cfg.Rooms.Capacity})
	service := app.NewSessionService(registry, quizRepo, publisher)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.Handle("GET /metrics", promhttp.Handler())
	transport.Routes(mux, service, transport.WSOptions{
		SendBuffer:   cfg.WS.SendBuffer,
		PingInterval: config.TTLDuration(cfg.WS.PingInterval, 30*time.Second),
	})

	// Websocket connections are long lived; no write timeout on the server.
	server := &http.Server{
		Addr:        ":" + finalPort,
		Handler:     mux,
		ReadTimeout: 15 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Printf("starting classroom quiz service on :%s", finalPort)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return registry.Run(gctx,
			config.TTLDuration(cfg.Rooms.SweepInterval, time.Minute),
			config.TTLDuration(cfg.Rooms.IdleTTL, 30*time.Minute))
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Println("shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		registry.Close(shutdownCtx)
		return server.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// sampleQuizzes is served when no Postgres is configured.
func sampleQuizzes() map[string]domain.Quiz {
	return map[string]domain.Quiz{
		"quiz-1": {
			ID:    "quiz-1",
			Title: "Warm-up",
			Questions: []string{
				"::Arithmetic:: What is 2 + 2? {=4 ~3 ~5}",
				"::Sky:: The sky is blue on a clear day. {T}",
				"::Capital:: What is the capital of Canada? {=Ottawa}",
				"::Pi:: Give pi to two decimals. {#3.14:0.005}",
			},
		},
	}
}
