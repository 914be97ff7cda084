package routes

import (
	"log"

	websocket "github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/adill-v/HireLinkBack/internal/cache"
	"github.com/adill-v/HireLinkBack/internal/config"
	"github.com/adill-v/HireLinkBack/internal/handlers"
	"github.com/adill-v/HireLinkBack/internal/middleware"
	"github.com/adill-v/HireLinkBack/internal/presence"
	"github.com/adill-v/HireLinkBack/internal/repository"
	"github.com/adill-v/HireLinkBack/internal/services"
	chatws "github.com/adill-v/HireLinkBack/internal/websocket"
)

func RegisterRoutes(app *fiber.App, cfg *config.Config, db *pgxpool.Pool) {
	userRepo := repository.NewUserRepository(db)
	conversationRepo := repository.NewConversationRepository(db)
	messageRepo := repository.NewMessageRepository(db)

	var storageService services.StorageService
	if cfg.StorageURL != "" && cfg.StorageBucket != "" && cfg.StorageServiceKey != "" {
		storageService = services.NewSupabaseStorageService(cfg.StorageURL, cfg.StorageBucket, cfg.StorageServiceKey)
	}

	var summaryCache cache.Cache
	if cfg.RedisURL != "" {
		redisCache, err := cache.NewRedisCache(cfg.RedisURL)
		if err != nil {
			log.Printf("conversation cache disabled: %v", err)
		} else {
			summaryCache = redisCache
		}
	}

	registry := presence.NewRegistry()
	chatHub := chatws.NewHub(registry)
	go chatHub.Run()

	chatService := services.NewChatService(db, conversationRepo, messageRepo, userRepo, storageService, summaryCache)
	chatHandler := handlers.NewChatHandler(chatService, chatHub)

	conversation := app.Group("/conversation")
	conversation.Get("/getConversations/:userId", chatHandler.GetConversations)
	conversation.Post("/createConversation", chatHandler.CreateConversation)
	conversation.Delete("/deleteConversation/:id", chatHandler.DeleteConversation)

	message := app.Group("/message")
	message.Post("/send/:receiverId", middleware.AuthRequired(cfg.JWTSecret), chatHandler.SendMessage)
	message.Get("/getMessage/:conversationId", middleware.AuthRequired(cfg.JWTSecret), chatHandler.GetMessages)
	message.Delete("/delete/:id", chatHandler.DeleteMessage)

	app.Use("/ws", chatHandler.WebSocketUpgrade)
	app.Get("/ws", websocket.New(chatHandler.HandleWebSocket))
}
