package main

import (
	"log"
	"os"
	"strings"
	"time"

	"property-marketplace-server/handlers/admin"
	"property-marketplace-server/handlers/agents"
	"property-marketplace-server/handlers/auth"
	"property-marketplace-server/handlers/images"
	"property-marketplace-server/handlers/listings"
	"property-marketplace-server/handlers/notifications"
	"property-marketplace-server/handlers/payments"
	"property-marketplace-server/migrations"
	"property-marketplace-server/models"
	"property-marketplace-server/seed"
	"property-marketplace-server/storage"
	"property-marketplace-server/sweeper"
	"property-marketplace-server/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func init() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found or error loading .env file:", err)
	}
}

func main() {
	if os.Getenv("JWT_SECRET") == "" {
		log.Fatal("JWT_SECRET is not set in the environment")
	}

	r := gin.Default()

	allowedOrigins := []string{"https://marketplace.example.com"}
	if origins := os.Getenv("CORS_ORIGINS"); origins != "" {
		allowedOrigins = strings.Split(origins, ",")
	}

	r.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	utils.ConnectDatabase()
	storage.Init()

	if err := migrations.Migrate(utils.DB); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	// Seed Initial Data
	if err := seed.SeedAdmin(); err != nil {
		log.Fatalf("Failed to seed admin account: %v", err)
	}

	// Background expiry sweep
	sweep := sweeper.New(utils.DB)
	sweep.Start()
	defer sweep.Stop()

	// Public routes
	r.POST("/auth/request-otp", auth.RequestOTP)
	r.POST("/auth/verify-otp", auth.VerifyOTP)
	r.POST("/auth/google", auth.GoogleSignIn)
	r.POST("/auth/login", auth.Login)
	r.POST("/auth/refresh", auth.RefreshToken)
	r.POST("/auth/request-password-reset", auth.RequestPasswordReset)
	r.POST("/auth/reset-password", auth.ResetPassword)
	r.GET("/listings", listings.SearchListings)
	r.GET("/listings/featured", listings.GetFeaturedListings)
	r.GET("/listings/:reference", listings.GetListing)
	r.GET("/agents", agents.GetAgents)
	r.GET("/agents/:id", agents.GetAgent)
	r.GET("/agents/:id/listings", agents.GetAgentListings)
	r.GET("/agents/:id/reviews", agents.GetAgentReviews)
	r.GET("/images/*key", images.ServeImage)
	r.POST("/payments/stripe/webhook", payments.HandleStripeWebhook)

	protected := r.Group("/")
	protected.Use(auth.AuthMiddleware())
	{
		protected.POST("/auth/logout", auth.Logout)
		protected.GET("/me", auth.GetMe)
		protected.PUT("/me", auth.UpdateMe)
		protected.POST("/me/avatar", auth.UploadAvatar)
		protected.POST("/save-push-token", auth.SavePushToken)
		protected.POST("/agents/:id/reviews", agents.SubmitReview)
		notifications.RegisterNotificationsRoutes(protected)

		agent := protected.Group("/")
		agent.Use(auth.RequireRole(models.RoleAgent))
		{
			agent.PUT("/me/agent-profile", agents.UpsertMyProfile)
			agent.POST("/listings", listings.CreateListing)
			agent.PUT("/listings/:reference", listings.UpdateListing)
			agent.DELETE("/listings/:reference", listings.DeleteListing)
			agent.POST("/listings/:reference/renew", listings.RenewListing)
			agent.POST("/listings/:reference/images", listings.UploadImage)
			agent.DELETE("/listings/:reference/images/:image_id", listings.DeleteImage)
			agent.POST("/payments/promote", payments.PromoteListing)
		}

		adminGroup := protected.Group("/admin")
		adminGroup.Use(auth.RequireRole(models.RoleAdmin))
		{
			adminGroup.GET("/listings", admin.GetListings)
			adminGroup.POST("/listings/:reference/approve", admin.ApproveListing)
			adminGroup.POST("/listings/:reference/reject", admin.RejectListing)
			adminGroup.GET("/users", admin.GetUsers)
			adminGroup.PUT("/users/:id/role", admin.UpdateUserRole)
			adminGroup.DELETE("/users/:id", admin.DeleteUser)
			adminGroup.GET("/stats", admin.GetStats)
			adminGroup.POST("/sweep", admin.RunSweep)
		}
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	if err := r.Run(":" + port); err != nil {
		log.Fatalf("Failed to run server: %v", err)
	}
}
