package cli

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"mpt-command-center/internal/app"
	"mpt-command-center/internal/config"
	"mpt-command-center/internal/infra/memory"
	"mpt-command-center/internal/infra/mentor"
	pgstore "mpt-command-center/internal/infra/postgres"
	redisstore "mpt-command-center/internal/infra/redis"
	"mpt-command-center/internal/logger"
	transport "mpt-command-center/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the command center API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

// backends are the stores selected from config.
type backends struct {
	docs    app.DocumentStore
	board   app.LeaderboardStore
	quizzes app.QuizRepository
	close   func()
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	log, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg, log); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}

	stores, err := openBackends(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer stores.close()

	if err := seedAcademy(ctx, stores.docs, log); err != nil {
		return err
	}

	handler, board, err := buildAPI(cfg, stores, log)
	if err != nil {
		return err
	}

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      handler,
		ReadTimeout:  config.TTLDuration(cfg.Server.ReadTimeout, 15*time.Second),
		WriteTimeout: config.TTLDuration(cfg.Server.WriteTimeout, 60*time.Second),
	}
	refresher := app.NewRefresher(board, config.TTLDuration(cfg.Leaderboard.RefreshInterval, 30*time.Second), log)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting command center", "port", finalPort)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		return refresher.Run(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func newLogger(cfg config.Config) (*logger.Logger, error) {
	return logger.New(logger.Options{
		Mode:       cfg.Logging.Mode,
		Level:      cfg.Logging.Level,
		Dir:        cfg.Logging.Dir,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAgeDays: cfg.Logging.MaxAgeDays,
	})
}

// openBackends picks Postgres for documents and Redis for the leaderboard and
// quiz cache when configured, in-memory stores otherwise.
func openBackends(ctx context.Context, cfg config.Config, log *logger.Logger) (backends, error) {
	b := backends{close: func() {}}
	var closers []func()

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			_ = redisClient.Close()
			return b, fmt.Errorf("redis ping: %w", err)
		}
		closers = append(closers, func() { _ = redisClient.Close() })
	}

	if cfg.Postgres.URL != "" {
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return b, fmt.Errorf("postgres connect: %w", err)
		}
		closers = append(closers, pool.Close)
		b.docs = pgstore.NewDocumentStore(pool)
	} else {
		log.Warn("postgres not configured, documents are kept in memory")
		b.docs = memory.NewDocumentStore()
	}

	loader := app.NewDocumentQuizLoader(b.docs)
	quizTTL := config.TTLDuration(cfg.Quiz.TTL, 10*time.Minute)
	if redisClient != nil {
		retention := config.TTLDuration(cfg.Leaderboard.Retention, 8*7*24*time.Hour)
		b.board = redisstore.NewLeaderboardStore(redisClient, retention)
		b.quizzes = redisstore.NewQuizRepository(redisClient, loader, quizTTL)
	} else {
		log.Warn("redis not configured, leaderboard is kept in memory")
		b.board = memory.NewLeaderboardStore()
		b.quizzes = memory.NewQuizRepository(loader, quizTTL)
	}

	b.close = func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}
	return b, nil
}

func buildAPI(cfg config.Config, stores backends, log *logger.Logger) (http.Handler, *app.LeaderboardService, error) {
	secret := cfg.Auth.JWTSecret
	if secret == "" {
		buf := make([]byte, 32)
		if _, err := rand.Read(buf); err != nil {
			return nil, nil, fmt.Errorf("generate jwt secret: %w", err)
		}
		secret = hex.EncodeToString(buf)
		log.Warn("jwt secret not configured, using an ephemeral one; tokens will not survive a restart")
	}
	tokens := app.NewTokenIssuer(secret, config.TTLDuration(cfg.Auth.TokenTTL, 7*24*time.Hour), cfg.Auth.Issuer)

	var coach app.Mentor = app.OfflineMentor{}
	if cfg.Chat.MentorURL != "" {
		client, err := mentor.New(mentor.Config{
			BaseURL: cfg.Chat.MentorURL,
			APIKey:  cfg.Chat.MentorAPIKey,
			Model:   cfg.Chat.MentorModel,
			Timeout: config.TTLDuration(cfg.Chat.MentorTimeout, 30*time.Second),
		})
		if err != nil {
			return nil, nil, err
		}
		coach = client
	} else {
		log.Info("mentor backend not configured, using the offline playbook")
	}

	board := app.NewLeaderboardService(stores.board, app.NewScorer(app.DefaultWeights()), log)
	invitations := app.NewInvitationService(stores.docs, log, time.Now)
	builder := app.ContextBuilder{Window: cfg.Chat.WindowSize, MaxTokens: cfg.Chat.MaxTokens}

	svc := transport.Services{
		Users:       app.NewUserService(stores.docs, invitations, tokens, cfg.Auth.AdminEmails, log, time.Now),
		Invitations: invitations,
		Tokens:      tokens,
		Journal:     app.NewJournalService(stores.docs, board, log, time.Now),
		Academy:     app.NewAcademyService(stores.docs, stores.quizzes, board, log, time.Now),
		Leaderboard: board,
		Chat:        app.NewChatService(stores.docs, coach, builder, cfg.Chat.SystemPrompt, board, log, time.Now),
		Admin:       app.NewAdminService(stores.docs, board, time.Now),
	}
	opts := transport.Options{
		CORSOrigins: cfg.Server.CORSOrigins,
		APK:         cfg.Downloads.APK,
	}
	return transport.NewRouter(svc, opts, log), board, nil
}
