package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cloud.google.com/go/firestore"
	fbapp "firebase.google.com/go/v4"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/sync/errgroup"
	"google.golang.org/api/option"

	"lapakda/internal/adapter/api"
	"lapakda/internal/adapter/api/handler"
	apimiddleware "lapakda/internal/adapter/api/middleware"
	"lapakda/internal/adapter/api/router"
	"lapakda/internal/adapter/repository"
	"lapakda/internal/adapter/repository/memory"
	domainrepo "lapakda/internal/domain/repository"
	"lapakda/internal/domain/service"
	"lapakda/internal/infrastructure/firebase"
	"lapakda/internal/infrastructure/ratelimit"
	"lapakda/internal/infrastructure/storage"
	"lapakda/internal/infrastructure/websocket"
	"lapakda/internal/usecase"
	"lapakda/pkg/config"
	"lapakda/pkg/logger"
)

type repositories struct {
	users     domainrepo.UserRepository
	products  domainrepo.ProductRepository
	cart      domainrepo.CartRepository
	addresses domainrepo.AddressRepository
	orders    domainrepo.OrderRepository
	chats     domainrepo.ChatRepository
	files     service.FileUploadService
	closers   []func() error
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.L().Fatal().Err(err).Msg("Failed to load configuration")
	}
	logger.Init(cfg.LogLevel, cfg.Environment)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := credentials(cfg)

	firebaseApp, err := fbapp.NewApp(ctx, &fbapp.Config{ProjectID: cfg.ProjectID, StorageBucket: cfg.StorageBucket}, opts...)
	if err != nil {
		logger.L().Fatal().Err(err).Msg("Failed to initialize Firebase")
	}
	authClient, err := firebaseApp.Auth(ctx)
	if err != nil {
		logger.L().Fatal().Err(err).Msg("Failed to initialize Firebase Auth")
	}
	firebaseAuthClient := firebase.NewFirebaseAuthClient(authClient, cfg.APIKey)

	e := echo.New()
	e.HideBanner = true
	e.Validator = api.NewValidator()

	var repos *repositories
	switch cfg.DataStore {
	case config.DataStoreMemory:
		repos = memoryRepositories(e, cfg)
	default:
		repos, err = firestoreRepositories(ctx, e, cfg, opts)
		if err != nil {
			logger.L().Fatal().Err(err).Msg("Failed to initialize Firestore")
		}
	}
	defer func() {
		for _, closeFn := range repos.closers {
			_ = closeFn()
		}
	}()
	logger.Info("Using %s data store", cfg.DataStore)

	clock := ratelimit.SystemClock
	rateLimiter := ratelimit.NewRateLimiter(clock, chatPolicies(cfg))
	attempts := ratelimit.NewAttemptLimiter(cfg.SignInMaxAttempts, cfg.SignInWindow, clock, nil)
	wsManager := websocket.NewManager()

	fileUseCase := usecase.NewFileUseCase(repos.files, rateLimiter, cfg.MaxUploadBytes)
	cartUseCase := usecase.NewCartUseCase(repos.cart, repos.products, clock)
	addressUseCase := usecase.NewAddressUseCase(repos.addresses, clock)
	chatUseCase := usecase.NewChatUseCase(repos.chats, repos.users, repos.products, fileUseCase, wsManager, rateLimiter, clock)

	handler.Setup(handler.UseCases{
		Auth:    usecase.NewAuthUseCase(repos.users, firebaseAuthClient, attempts, clock),
		User:    usecase.NewUserUseCase(repos.users, repos.products, fileUseCase, clock),
		Product: usecase.NewProductUseCase(repos.products, repos.users, fileUseCase, clock),
		Cart:    cartUseCase,
		Address: addressUseCase,
		Order:   usecase.NewOrderUseCase(repos.orders, repos.users, cartUseCase, addressUseCase, clock),
		Chat:    chatUseCase,
		File:    fileUseCase,
	}, cfg.DataStore)
	handler.SetupWebSocket(handler.NewWebSocketHandler(wsManager, chatUseCase, cfg.AllowedOrigins))

	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{AllowOrigins: cfg.AllowedOrigins}))
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogError:   true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			evt := logger.L().Info()
			if v.Error != nil {
				evt = logger.L().Error().Err(v.Error)
			}
			evt.Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Msg("request")
			return nil
		},
	}))

	authMiddleware := apimiddleware.NewAuthMiddleware(firebaseAuthClient)
	adminMiddleware := apimiddleware.NewAdminMiddleware(repos.users)
	router.Setup(e, authMiddleware, adminMiddleware, rateLimiter)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return wsManager.Run(gctx)
	})
	g.Go(func() error {
		rateLimiter.RunCleanup(gctx, 10*time.Minute)
		return nil
	})
	g.Go(func() error {
		logger.Info("Starting server on port %s...", cfg.ServerPort)
		if err := e.Start(":" + cfg.ServerPort); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return e.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.L().Fatal().Err(err).Msg("Server stopped")
	}
	logger.Info("Server stopped")
}

// credentials prefers an inline service account, then a key file. With
// neither, the SDKs fall back to application default credentials or the
// emulators named by FIRESTORE_EMULATOR_HOST and FIREBASE_AUTH_EMULATOR_HOST.
func credentials(cfg *config.Config) []option.ClientOption {
	if cfg.ServiceAccountJSON != "" {
		logger.Info("Using Firebase service account from environment variable")
		return []option.ClientOption{option.WithCredentialsJSON([]byte(cfg.ServiceAccountJSON))}
	}
	if cfg.ServiceAccountPath != "" {
		if _, err := os.Stat(cfg.ServiceAccountPath); err != nil {
			logger.L().Fatal().Err(err).Str("path", cfg.ServiceAccountPath).Msg("Service account file is not readable")
		}
		logger.Info("Using Firebase service account from file: %s", cfg.ServiceAccountPath)
		return []option.ClientOption{option.WithCredentialsFile(cfg.ServiceAccountPath)}
	}
	return nil
}

func firestoreRepositories(ctx context.Context, e *echo.Echo, cfg *config.Config, opts []option.ClientOption) (*repositories, error) {
	client, err := firestore.NewClient(ctx, cfg.ProjectID, opts...)
	if err != nil {
		return nil, err
	}
	closers := []func() error{client.Close}

	var files service.FileUploadService
	if cfg.StorageBucket != "" {
		gcs, err := storage.NewCloudStorageClient(ctx, cfg.StorageBucket, opts...)
		if err != nil {
			client.Close()
			return nil, err
		}
		files = gcs
		closers = append(closers, gcs.Close)
	} else {
		logger.Warn("STORAGE_BUCKET is not set, uploads are kept in memory")
		files = memoryFiles(e, cfg)
	}

	return &repositories{
		users:     repository.NewFirestoreUserRepository(client),
		products:  repository.NewFirestoreProductRepository(client),
		cart:      repository.NewFirestoreCartRepository(client),
		addresses: repository.NewFirestoreAddressRepository(client),
		orders:    repository.NewFirestoreOrderRepository(client),
		chats:     repository.NewFirestoreChatRepository(client),
		files:     files,
		closers:   closers,
	}, nil
}

func memoryRepositories(e *echo.Echo, cfg *config.Config) *repositories {
	store := memory.NewStore()
	files := memoryFiles(e, cfg)

	return &repositories{
		users:     store.Users(),
		products:  store.Products(),
		cart:      store.Cart(),
		addresses: store.Addresses(),
		orders:    store.Orders(),
		chats:     store.Chats(),
		files:     files,
	}
}

func memoryFiles(e *echo.Echo, cfg *config.Config) *storage.MemoryFileStore {
	files := storage.NewMemoryFileStore("http://localhost:" + cfg.ServerPort + "/files")
	e.GET("/files/*", handler.ServeMemoryFiles(files))
	return files
}

func chatPolicies(cfg *config.Config) map[string]ratelimit.Policy {
	send := ratelimit.DefaultPolicies[ratelimit.ActionSendMessage]
	create := ratelimit.DefaultPolicies[ratelimit.ActionCreateChat]
	send.Burst = cfg.ChatMessageBurst
	create.Burst = cfg.ChatCreateBurst
	return map[string]ratelimit.Policy{
		ratelimit.ActionSendMessage: send,
		ratelimit.ActionCreateChat:  create,
	}
}
