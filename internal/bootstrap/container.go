package bootstrap

import (
	"context"
	"log"

	"github.com/kinhai-collab/Mira-sub001/internal/config"
	"github.com/kinhai-collab/Mira-sub001/internal/controller"
	"github.com/kinhai-collab/Mira-sub001/internal/handler"
	"github.com/kinhai-collab/Mira-sub001/internal/pkg/logger"
	"github.com/kinhai-collab/Mira-sub001/internal/repository/implementation"
	"github.com/kinhai-collab/Mira-sub001/internal/service"
	"github.com/kinhai-collab/Mira-sub001/internal/store"
	"github.com/kinhai-collab/Mira-sub001/internal/websocket"
	"github.com/kinhai-collab/Mira-sub001/pkg/bus"
	"github.com/kinhai-collab/Mira-sub001/pkg/llm/factory"
	"github.com/kinhai-collab/Mira-sub001/pkg/stt/whisper"
	"github.com/kinhai-collab/Mira-sub001/pkg/tts/elevenlabs"

	pktNats "github.com/kinhai-collab/Mira-sub001/pkg/nats"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	AuthController      controller.IAuthController
	OAuthController     controller.IOAuthController
	UserController      controller.IUserController
	VoiceController     controller.IVoiceController
	DashboardController controller.IDashboardController
	LocationController  controller.ILocationController

	// Background services (exposed for main.go to run)
	ConsumerService service.IConsumerService

	// WebSockets & notification
	NotificationHandler *handler.NotificationHandler
	WebSocketHub        *websocket.Hub
	EventBus            *bus.Bus
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core facades
	userRepo := implementation.NewUserRepository(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	// 2. Event bus (in-process) + NATS (cross-process mirror)
	eventBus := bus.New()

	natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS publisher: %v", err)
	}

	// 3. Redis-backed session store
	opt, err := redis.ParseURL(cfg.App.RedisURL)
	if err != nil {
		log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
		opt = &redis.Options{
			Addr: cfg.App.RedisURL,
		}
	}
	rdb := redis.NewClient(opt)
	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		log.Printf("[WARN] Failed to connect to Redis: %v", err)
	}

	var kv store.KV = store.NewRedisStore(rdb)

	// 4. WebSocket hub
	wsHub := websocket.NewHub(rdb, sysLogger)

	// 5. Voice providers
	sttProvider := whisper.New(
		whisper.WithAPIKey(cfg.Keys.OpenAI),
		whisper.WithModel(cfg.Voice.STTModel),
	)
	ttsProvider := elevenlabs.New(
		elevenlabs.WithAPIKey(cfg.Keys.ElevenLabs),
		elevenlabs.WithVoice(cfg.Voice.TTSVoice),
	)
	llmProvider, err := factory.NewLLMProvider("openai", cfg.Voice.LLMModel, cfg.Keys.OpenAI)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize LLM provider: %v", err)
	}

	// 6. Services
	// Provider OAuth tokens are opaque to us and have no refresh endpoint
	// here; only the core API session is refreshed server-side.
	refreshURLs := map[string]string{
		service.UpstreamProvider: cfg.Upstream.BaseURL + "/v1/auth/refresh",
	}
	tokenService := service.NewTokenService(kv, refreshURLs, cfg.Upstream.Timeout, eventBus, sysLogger)

	voiceService := service.NewVoiceService(
		sttProvider,
		llmProvider,
		ttsProvider,
		service.VoiceLimits{
			MinAudioBytes:      cfg.Voice.MinAudioBytes,
			MinTranscriptChars: cfg.Voice.MinTranscriptChars,
			HistoryLimit:       cfg.Voice.HistoryLimit,
		},
		eventBus,
		sysLogger,
	)

	userService := service.NewUserService(userRepo, tokenService, cfg.Upstream.BaseURL, cfg.Upstream.Timeout, eventBus, sysLogger)
	authService := service.NewAuthService(userRepo, tokenService, service.AuthSettings{
		JWTSecret:       cfg.Auth.JWTSecret,
		AccessTokenTTL:  cfg.Auth.AccessTokenTTL,
		RefreshTokenTTL: cfg.Auth.RefreshTokenTTL,
	}, natsPub, sysLogger)
	oauthService := service.NewOAuthService(userRepo, tokenService, eventBus, sysLogger)
	dashboardService := service.NewDashboardService(
		cfg.Upstream.BaseURL,
		cfg.Upstream.Timeout,
		tokenService,
		userService,
		voiceService,
		sysLogger,
	)
	locationService := service.NewLocationService(cfg.Keys.Geoapify)
	consumerService := service.NewConsumerService(eventBus, wsHub, sysLogger)

	// 7. Handlers & controllers
	notifHandler := handler.NewNotificationHandler(eventBus, natsPub, wsHub, sysLogger)

	return &Container{
		AuthController:      controller.NewAuthController(authService),
		OAuthController:     controller.NewOAuthController(oauthService),
		UserController:      controller.NewUserController(userService),
		VoiceController:     controller.NewVoiceController(voiceService),
		DashboardController: controller.NewDashboardController(dashboardService),
		LocationController:  controller.NewLocationController(locationService),

		ConsumerService: consumerService,

		NotificationHandler: notifHandler,
		WebSocketHub:        wsHub,
		EventBus:            eventBus,
	}
}
