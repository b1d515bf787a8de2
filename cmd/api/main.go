package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/idea-board/internal/config"
	"github.com/noah-isme/idea-board/internal/database"
	"github.com/noah-isme/idea-board/internal/handler"
	"github.com/noah-isme/idea-board/internal/middleware"
	"github.com/noah-isme/idea-board/internal/router"
	"github.com/noah-isme/idea-board/internal/service"
	"github.com/noah-isme/idea-board/internal/store"
)

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load configuration")
	}
	if cfg.AppEnv == "development" {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	blobs, closeBlobs, err := database.OpenBlobRepository(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Str("driver", cfg.StorageDriver).Msg("failed to open board storage")
	}
	defer func() {
		if err := closeBlobs(); err != nil {
			logger.Warn().Err(err).Msg("failed to close board storage")
		}
	}()

	mode, err := store.ParseMode(cfg.EngagementMode)
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid engagement mode")
	}

	localActor := store.Actor{ID: cfg.ActorID, Name: cfg.ActorName, Handle: cfg.ActorHandle}
	owner := localActor
	owner.ID = cfg.OwnerID

	board := store.New(blobs,
		store.WithLogger(logger),
		store.WithMode(mode),
		store.WithOwner(cfg.OwnerID),
		store.WithKeys(store.KeysWithPrefix(cfg.KeyPrefix)),
		store.WithSeed(store.DefaultSeed(owner)...),
	)
	board.Hydrate(ctx)

	redisClient, natsConn := connectMirrors(ctx, cfg, logger)
	if redisClient != nil {
		defer redisClient.Close()
	}
	if natsConn != nil {
		defer natsConn.Close()
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	notificationService := service.NewNotificationService(board, redisClient, natsConn, cfg.KeyPrefix, logger)
	notificationService.Start(ctx)

	boardService := service.NewBoardService(board, notificationService, validate, service.BoardServiceConfig{
		PageSize:      cfg.PageSize,
		MaxImageBytes: cfg.MaxImageBytes,
	}, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
		BodyLimit:    requestBodyLimit(cfg.MaxImageBytes),
	})

	middleware.Register(app, middleware.Config{
		Logger:         &logger,
		AllowedOrigins: cfg.AllowedOrigins,
		AccessLog:      cfg.AppEnv == "development",
	})
	router.Register(app, cfg, router.Dependencies{
		IdeaHandler:         handler.NewIdeaHandler(boardService, logger),
		CommunityHandler:    handler.NewCommunityHandler(boardService, logger),
		NotificationHandler: handler.NewNotificationHandler(notificationService, logger, cfg.StreamKeepAlive),
		Board:               board,
		LocalActor:          localActor,
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			logger.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	logger.Info().
		Str("address", cfg.HTTPAddress()).
		Str("storage", cfg.StorageDriver).
		Str("engagement_mode", string(mode)).
		Msg("idea board api started")

	waitForShutdown(ctx, app, logger)
}

// requestBodyLimit leaves room for three base64 encoded images plus the text fields.
func requestBodyLimit(maxImageBytes int) int {
	return 3*(maxImageBytes*4/3+64) + 64*1024
}

// connectMirrors dials the optional Redis and NATS connections used to relay live notifications
// between API nodes. Failures only disable the mirror.
func connectMirrors(ctx context.Context, cfg config.Config, logger zerolog.Logger) (*redis.Client, *nats.Conn) {
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		client, err := database.ConnectRedis(ctx, cfg.RedisURL)
		if err != nil {
			logger.Warn().Err(err).Msg("redis notification mirror disabled")
		} else {
			redisClient = client
		}
	}

	var natsConn *nats.Conn
	if cfg.NATSURL != "" {
		conn, err := database.ConnectNATS(cfg.NATSURL, cfg.AppName)
		if err != nil {
			logger.Warn().Err(err).Msg("nats notification mirror disabled")
		} else {
			natsConn = conn
		}
	}

	return redisClient, natsConn
}

func waitForShutdown(ctx context.Context, app *fiber.App, logger zerolog.Logger) {
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}

	logger.Info().Msg("server stopped")
}
