package routes

import (
	websocket "github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/somo-app/SomoAppBack/internal/cart"
	"github.com/somo-app/SomoAppBack/internal/config"
	"github.com/somo-app/SomoAppBack/internal/handlers"
	"github.com/somo-app/SomoAppBack/internal/middleware"
	"github.com/somo-app/SomoAppBack/internal/models"
	"github.com/somo-app/SomoAppBack/internal/repository"
	"github.com/somo-app/SomoAppBack/internal/services"
	chatws "github.com/somo-app/SomoAppBack/internal/websocket"
)

func RegisterRoutes(app *fiber.App, cfg *config.Config, db *pgxpool.Pool) {
	userRepo := repository.NewUserRepository(db)
	profileRepo := repository.NewUserProfileRepository(db)
	lessonRepo := repository.NewLessonRepository(db)
	purchaseRepo := repository.NewPurchaseRepository(db)
	ratingRepo := repository.NewRatingRepository(db)
	conversationRepo := repository.NewConversationRepository(db)
	messageRepo := repository.NewMessageRepository(db)

	var storageService services.StorageService
	if cfg.SupabaseURL != "" && cfg.SupabaseBucket != "" && cfg.SupabaseServiceKey != "" {
		storageService = services.NewSupabaseStorageService(cfg.SupabaseURL, cfg.SupabaseBucket, cfg.SupabaseServiceKey)
	}

	carts := cart.NewStore(purchaseRepo, cfg.CheckoutResetDelay)
	gateway := &services.SimulatedGateway{Delay: cfg.PaymentSimDelay}

	catalogService := services.NewCatalogService(lessonRepo)
	checkoutService := services.NewCheckoutService(carts, lessonRepo, purchaseRepo, gateway)
	ratingService := services.NewRatingService(ratingRepo, lessonRepo)
	profileService := services.NewProfileService(profileRepo)
	chatService := services.NewChatService(db, conversationRepo, messageRepo, userRepo)
	sessionHistory := services.NewSessionHistory(conversationRepo, messageRepo)

	chatHub := chatws.NewHub()
	go chatHub.Run()

	authHandler := handlers.NewAuthHandler(db, userRepo, profileRepo, cfg.JWTSecret)
	catalogHandler := handlers.NewCatalogHandler(catalogService)
	cartHandler := handlers.NewCartHandler(checkoutService)
	ratingHandler := handlers.NewRatingHandler(ratingService)
	profileHandler := handlers.NewProfileHandler(profileService, storageService)
	chatHandler := handlers.NewChatHandler(chatService, sessionHistory, chatHub, cfg.JWTSecret)

	api := app.Group("/api")

	auth := api.Group("/auth")
	auth.Post("/register", authHandler.Register)
	auth.Post("/login", authHandler.Login)
	auth.Get("/me", middleware.AuthRequired(cfg.JWTSecret), authHandler.Me)

	protected := api.Group("/v1", middleware.AuthRequired(cfg.JWTSecret))

	lessons := protected.Group("/lessons")
	lessons.Get("", catalogHandler.ListLessons)
	lessons.Get("/purchased", middleware.RequireRole(models.RoleStudent), catalogHandler.ListPurchased)
	lessons.Get("/mine", middleware.RequireRole(models.RoleTeacher), catalogHandler.ListOwn)
	lessons.Post("", middleware.RequireRole(models.RoleTeacher), catalogHandler.CreateLesson)
	lessons.Get("/:id", catalogHandler.GetLesson)
	lessons.Get("/:id/ratings", ratingHandler.ListRatings)
	lessons.Post("/:id/ratings", middleware.RequireRole(models.RoleStudent), ratingHandler.SubmitRating)
	lessons.Get("/:id/ratings/me", ratingHandler.GetOwnRating)

	cartRoutes := protected.Group("/cart", middleware.RequireRole(models.RoleStudent))
	cartRoutes.Get("", cartHandler.GetCart)
	cartRoutes.Post("/items", cartHandler.AddItem)
	cartRoutes.Delete("/items/:lessonId", cartHandler.RemoveItem)
	cartRoutes.Post("/checkout", cartHandler.BeginCheckout)
	cartRoutes.Put("/checkout/method", cartHandler.SelectPaymentMethod)
	cartRoutes.Post("/checkout/confirm", cartHandler.ConfirmCheckout)
	cartRoutes.Post("/checkout/cancel", cartHandler.CancelPaymentSelection)

	profile := protected.Group("/profile")
	profile.Get("", profileHandler.GetProfile)
	profile.Put("", profileHandler.UpdateProfile)
	profile.Post("/avatar", profileHandler.UploadAvatar)

	conversations := protected.Group("/conversations")
	conversations.Get("", chatHandler.ListConversations)
	conversations.Post("", chatHandler.CreateConversation)
	conversations.Get("/:id/messages", chatHandler.GetMessages)

	api.Use("/v1/ws", chatHandler.WebSocketAuth)
	api.Get("/v1/ws", websocket.New(chatHandler.HandleWebSocket))

	registerDocs(app, cfg)
}
