package main

import (
	"context"
	"log"
	"os"
	"time"

	"cloud.google.com/go/firestore"
	fbapp "firebase.google.com/go/v4"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"google.golang.org/api/option"

	"swapspot/internal/adapter/api"
	"swapspot/internal/adapter/api/handler"
	apimiddleware "swapspot/internal/adapter/api/middleware"
	"swapspot/internal/adapter/api/router"
	"swapspot/internal/adapter/repository"
	"swapspot/internal/infrastructure/firebase"
	"swapspot/internal/infrastructure/ratelimit"
	"swapspot/internal/infrastructure/storage"
	"swapspot/internal/infrastructure/websocket"
	"swapspot/internal/usecase"
	"swapspot/pkg/config"
	"swapspot/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx := context.Background()

	var opts []option.ClientOption
	credentialsPath := os.Getenv("FIREBASE_SERVICE_ACCOUNT_PATH")
	if serviceAccountJSON := os.Getenv("FIREBASE_SERVICE_ACCOUNT_JSON"); serviceAccountJSON != "" {
		opts = append(opts, option.WithCredentialsJSON([]byte(serviceAccountJSON)))
		credentialsPath = ""
	} else if credentialsPath != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsPath))
	}

	firebaseApp, err := fbapp.NewApp(ctx, &fbapp.Config{ProjectID: cfg.FirebaseProject}, opts...)
	if err != nil {
		log.Fatalf("Failed to initialize Firebase: %v", err)
	}

	fbAuth, err := firebaseApp.Auth(ctx)
	if err != nil {
		log.Fatalf("Failed to initialize Firebase Auth: %v", err)
	}
	authClient := firebase.NewAuthClient(fbAuth)

	firestoreClient, err := firestore.NewClient(ctx, cfg.FirebaseProject, opts...)
	if err != nil {
		log.Fatalf("Failed to create Firestore client: %v", err)
	}
	defer firestoreClient.Close()

	storageClient, err := storage.NewCloudStorageClient(
		ctx,
		cfg.StorageBucket,
		time.Duration(cfg.UploadURLExpiry)*time.Second,
		credentialsPath,
	)
	if err != nil {
		log.Fatalf("Failed to initialize Cloud Storage: %v", err)
	}
	defer storageClient.Close()

	userRepo := repository.NewFirestoreUserRepository(firestoreClient)
	chatRepo := repository.NewFirestoreChatRepository(firestoreClient)
	swapRepo := repository.NewFirestoreSwapRepository(firestoreClient)
	listingRepo := repository.NewFirestoreListingRepository(firestoreClient)

	rateLimiter := ratelimit.NewRateLimiter()
	rateLimiter.StartCleanupRoutine()

	wsManager := websocket.NewManager()

	userUseCase := usecase.NewUserUseCase(userRepo, authClient)
	chatUseCase := usecase.NewChatUseCase(chatRepo, userRepo, swapRepo, listingRepo, rateLimiter, wsManager)
	swapUseCase := usecase.NewSwapUseCase(swapRepo, chatRepo, listingRepo, userRepo, rateLimiter, wsManager)
	wsManager.AttachServices(chatUseCase, swapUseCase)

	authMiddleware := apimiddleware.NewAuthMiddleware(authClient, userUseCase)

	e := echo.New()
	e.HideBanner = true
	e.Validator = api.NewValidator()
	e.Use(echomiddleware.Logger())
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORS())

	router.Setup(
		e,
		authMiddleware,
		handler.NewHealthHandler(),
		handler.NewChatHandler(chatUseCase),
		handler.NewSwapHandler(swapUseCase),
		handler.NewUploadHandler(storageClient),
		handler.NewWebSocketHandler(wsManager),
	)

	logger.Info("Starting server on port %s (%s)", cfg.ServerPort, cfg.Environment)
	if err := e.Start(":" + cfg.ServerPort); err != nil {
		log.Fatalf("Server stopped: %v", err)
	}
}
