package main

import (
	"context"
	"errors"
	"log"
	"os/signal"
	"syscall"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/digkill/DigiStoreBot/internal/admin"
	"github.com/digkill/DigiStoreBot/internal/config"
	"github.com/digkill/DigiStoreBot/internal/cryptopay"
	"github.com/digkill/DigiStoreBot/internal/database"
	"github.com/digkill/DigiStoreBot/internal/repository"
	"github.com/digkill/DigiStoreBot/internal/service"
	"github.com/digkill/DigiStoreBot/internal/state"
	"github.com/digkill/DigiStoreBot/internal/storage"
	"github.com/digkill/DigiStoreBot/internal/telegram"
	"github.com/digkill/DigiStoreBot/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logr := logger.New(cfg.LogLevel)
	defer func() { _ = logr.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.Connect(ctx, cfg.MySQLDSN)
	if err != nil {
		logr.Fatal("database connect", zap.Error(err))
	}
	defer db.Close()

	if err := database.Migrate(ctx, db); err != nil {
		logr.Fatal("database migrate", zap.Error(err))
	}

	botAPI, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		logr.Fatal("telegram bot", zap.Error(err))
	}
	logr.Info("authorized", zap.String("bot", botAPI.Self.UserName))

	convStore, pendingStore, closeStates, err := stateStores(ctx, cfg)
	if err != nil {
		logr.Fatal("state store", zap.Error(err))
	}
	defer closeStates()

	var gateway service.PaymentGateway
	if cfg.CryptoEnabled() {
		gateway = cryptopay.NewClient(cfg, logr.Named("cryptopay"))
	} else {
		logr.Info("crypto payments disabled")
	}

	var archive telegram.ProofArchiver
	if cfg.ArchiveEnabled() {
		uploader, err := storage.NewUploader(storage.Config{
			Endpoint:      cfg.S3Endpoint,
			Region:        cfg.S3Region,
			AccessKey:     cfg.S3AccessKey,
			SecretKey:     cfg.S3SecretKey,
			Bucket:        cfg.S3Bucket,
			PublicBaseURL: cfg.S3PublicBaseURL,
			UsePathStyle:  cfg.S3UsePathStyle,
			Prefix:        cfg.S3Prefix,
		})
		if err != nil {
			logr.Fatal("storage uploader", zap.Error(err))
		}
		archive = uploader
	}

	userRepo := repository.NewUserRepository(db)
	orderRepo := repository.NewOrderRepository(db)

	notifier := telegram.NewNotifier(botAPI, cfg.OperatorIDs, logr.Named("notifier"))
	catalog := service.NewCatalog(cfg)
	userService := service.NewUserService(userRepo)
	orderService := service.NewOrderService(orderRepo, gateway, notifier, cfg.OperatorIDs, logr.Named("orders"))
	convService := service.NewConversationService(convStore, orderService, catalog, logr.Named("conversation"))
	gate := service.NewOperatorGate(pendingStore, orderService, logr.Named("gate"))

	bot := telegram.NewBot(cfg, botAPI, logr.Named("bot"), userService, orderService, convService, gate, catalog, archive)
	if err := bot.RegisterCommands(); err != nil {
		logr.Warn("register commands", zap.Error(err))
	}

	if cfg.AdminListenAddr != "" {
		adminServer := admin.NewServer(cfg.AdminListenAddr, cfg.AdminUsername, cfg.AdminPassword, logr.Named("admin"), orderService, userService, notifier)
		go func() {
			if err := adminServer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logr.Error("admin server stopped", zap.Error(err))
			}
		}()
	}

	if err := bot.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logr.Error("bot stopped", zap.Error(err))
	}
}

// stateStores builds the conversation and pending-action stores for the
// configured backend. Conversations never expire; pending operator actions
// live for service.PendingActionTTL.
func stateStores(ctx context.Context, cfg config.Config) (state.Store[service.Conversation], state.Store[service.PendingAction], func(), error) {
	if cfg.StateBackend != "redis" {
		return state.NewMemoryStore[service.Conversation](0),
			state.NewMemoryStore[service.PendingAction](service.PendingActionTTL),
			func() {}, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, nil, err
	}
	return state.NewRedisStore[service.Conversation](client, "digistore:conv:", 0),
		state.NewRedisStore[service.PendingAction](client, "digistore:pending:", service.PendingActionTTL),
		func() { _ = client.Close() }, nil
}
