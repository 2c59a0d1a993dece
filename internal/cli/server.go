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

	"quiz-battle-service/internal/config"
	"quiz-battle-service/internal/domain"
	"quiz-battle-service/internal/engine"
	"quiz-battle-service/internal/infra/memory"
	infrapg "quiz-battle-service/internal/infra/postgres"
	infraredis "quiz-battle-service/internal/infra/redis"
	transport "quiz-battle-service/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the battle server",
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
	}

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
	}

	var loader memory.QuestionLoader = memory.NewQuestionBank(sampleQuestions())
	if pool != nil {
		loader = infrapg.NewQuestionLoader(pool)
	}

	questionTTL := config.Duration(cfg.Questions.TTL, 10*time.Minute)
	var questions engine.QuestionSource
	if redisClient != nil {
		questions = infraredis.NewQuestionSource(redisClient, loader, questionTTL)
	} else {
		questions = memory.NewQuestionSource(loader, questionTTL)
	}

	var results engine.ResultStore = memory.NewResultStore()
	if pool != nil {
		results = infrapg.NewResultStore(pool)
	}

	var stats engine.StatsStore = memory.NewStatsStore()
	if redisClient != nil {
		stats = infraredis.NewStatsStore(redisClient)
	}

	var ident transport.Identifier = memory.NewIdentityStore(sampleIdentities())
	if redisClient != nil {
		ident = infraredis.NewIdentityStore(redisClient)
	}

	hub := transport.NewHub()
	eng := engine.New(engine.Config{
		QuestionCount: cfg.Battle.QuestionCount,
		Countdown:     config.Duration(cfg.Battle.Countdown, 3*time.Second),
		QuestionTime:  config.Duration(cfg.Battle.QuestionTime, 15*time.Second),
		Intermission:  config.Duration(cfg.Battle.Intermission, 2*time.Second),
		Subjects:      cfg.Battle.Subjects,
	}, questions, results, stats, hub)
	wsHandler := transport.NewWSHandler(eng, ident, hub)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/ws", wsHandler.ServeWS)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting battle service on :%s", finalPort)
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

// sampleQuestions seeds the in-memory bank for dev runs without Postgres.
func sampleQuestions() []domain.Question {
	return []domain.Question{
		{ID: "sci-1", Subject: "science", Text: "What planet is known as the Red Planet?", Options: []string{"Venus", "Mars", "Jupiter", "Mercury"}, CorrectIndex: 1, Active: true},
		{ID: "sci-2", Subject: "science", Text: "What gas do plants absorb from the atmosphere?", Options: []string{"Oxygen", "Nitrogen", "Carbon dioxide", "Hydrogen"}, CorrectIndex: 2, Active: true},
		{ID: "sci-3", Subject: "science", Text: "How many bones are in the adult human body?", Options: []string{"186", "206", "226", "246"}, CorrectIndex: 1, Active: true},
		{ID: "math-1", Subject: "mathematics", Text: "What is 7 x 8?", Options: []string{"54", "56", "58", "64"}, CorrectIndex: 1, Active: true},
		{ID: "math-2", Subject: "mathematics", Text: "What is the square root of 144?", Options: []string{"10", "11", "12", "14"}, CorrectIndex: 2, Active: true},
		{ID: "hist-1", Subject: "history", Text: "In which year did World War II end?", Options: []string{"1943", "1944", "1945", "1946"}, CorrectIndex: 2, Active: true},
	}
}

// sampleIdentities seeds dev tokens when Redis-backed identities are absent.
func sampleIdentities() map[string]domain.Identity {
	return map[string]domain.Identity{
		"dev-alice": {UserID: "u-alice", DisplayName: "Alice", Avatar: "alice.png", IsActive: true},
		"dev-bob":   {UserID: "u-bob", DisplayName: "Bob", Avatar: "bob.png", IsActive: true},
	}
}
