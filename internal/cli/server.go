package cli

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"toeic-quiz-service/internal/app"
	"toeic-quiz-service/internal/config"
	"toeic-quiz-service/internal/domain"
	"toeic-quiz-service/internal/infra/memory"
	pgstore "toeic-quiz-service/internal/infra/postgres"
	redisstore "toeic-quiz-service/internal/infra/redis"
	"toeic-quiz-service/internal/logging"
	transport "toeic-quiz-service/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

// attemptBackend is the full attempt surface the server wires together.
type attemptBackend interface {
	app.AttemptStore
	app.AttemptCounter
	Ranking(ctx context.Context, limit int) ([]domain.RankingRow, error)
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger := logging.New(cfg.Logger.Level, cfg.Logger.Env)
	defer func() { _ = logger.Sync() }()

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg, logger); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "3020"
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}
	sessionTTL := config.TTLDuration(cfg.Redis.TTL, 30*time.Minute)
	cacheTTL := config.TTLDuration(cfg.Quiz.CacheTTL, 10*time.Minute)

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()
	}

	var (
		loader     app.QuestionLoader = memory.NewStaticQuestionLoader(sampleQuestions())
		attempts   attemptBackend     = memory.NewAttemptStore()
		users      app.UserDirectory  = memory.NewUserDirectory()
		lister     transport.QuestionLister
		categories transport.CategoryLister
	)
	if pool != nil {
		store := pgstore.NewQuestionStore(pool)
		loader = store
		lister = store
		attempts = pgstore.NewAttemptStore(pool)
		users = pgstore.NewUserDirectory(pool)
		categories = pgstore.NewCategoryStore(pool)
	}

	var cached app.QuestionLoader
	if redisClient != nil {
		cached = redisstore.NewQuestionCache(redisClient, loader, cacheTTL)
	} else {
		cached = memory.NewQuestionCache(loader, cacheTTL)
	}

	gate := app.NewGate(users, attempts, cfg.Quiz.DailyFreeLimit)
	source := app.NewGatedQuestionSource(gate, cached)

	var registry app.SessionRegistry
	if redisClient != nil {
		registry = redisstore.NewSessionRegistry(redisClient, sessionTTL)
	} else {
		registry = memory.NewSessionRegistry()
	}

	service := app.NewQuizService(registry, source, attempts, logger)
	apiHandler := transport.NewAPIHandler(source, lister, attempts, categories, logger)
	wsHandler := transport.NewWSHandler(service, logger)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	apiHandler.Register(mux)
	mux.HandleFunc("/ws", wsHandler.ServeWS)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		logger.Info("starting quiz service", zap.String("port", finalPort))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("failed to start server", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		logger.Info("shutting down server")
	case <-ctx.Done():
		logger.Info("context canceled, shutting down server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// sampleQuestions keeps the server usable without Postgres; swap in the
// database-backed store for real content.
func sampleQuestions() []domain.Question {
	return []domain.Question{
		{
			ID:            1,
			Category:      "Part 5",
			Prompt:        "The marketing team ____ the proposal before the deadline.",
			Options:       []string{"submit", "submitted", "submitting", "submission"},
			CorrectAnswer: 1,
			Explanation:   "Past tense fits the completed action.",
		},
		{
			ID:            2,
			Category:      "Part 5",
			Prompt:        "Employees must wear badges ____ in the building.",
			Options:       []string{"while", "during", "among"},
			CorrectAnswer: 0,
			Explanation:   "\"While\" introduces the clause.",
		},
		{
			ID:            3,
			Category:      "Part 6",
			Prompt:        "____ the new schedule takes effect, please review your shifts.",
			Options:       []string{"Before", "Until", "Despite", "Besides"},
			CorrectAnswer: 0,
			Explanation:   "\"Before\" matches the timeline.",
		},
	}
}
