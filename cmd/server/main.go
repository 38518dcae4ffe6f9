package main

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"campusmatch/backend/internal/auth"
	"campusmatch/backend/internal/cache"
	"campusmatch/backend/internal/config"
	"campusmatch/backend/internal/database"
	"campusmatch/backend/internal/handler"

	"github.com/gin-gonic/gin"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func init() {
	config.LoadConfig()
}

// @title           Campusmatch API
// @version         1.0
// @description     This is the API for the Campusmatch service.
// @host            localhost:8080
// @BasePath        /api/v1
// @securityDefinitions.apiKey BearerAuth
// @in header
// @name Authorization
func main() {
	// Connect to the database
	database.Connect(config.AppConfig.DatabaseURL)

	// Connect to Redis for the liked-you counters
	redisCache := cache.NewRedisCache(config.AppConfig.RedisAddr, config.AppConfig.RedisPassword)
	if err := redisCache.Ping(context.Background()); err != nil {
		log.Printf("Warning: redis unavailable (%v), like counts fall back to the database", err)
	} else {
		handler.Cache = redisCache
	}

	router := gin.Default()

	// Swagger route
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check endpoint
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
		})
	})

	// API v1 routes
	apiV1 := router.Group("/api/v1")
	{
		// Auth routes
		authRoutes := apiV1.Group("/auth")
		{
			authRoutes.POST("/register", handler.RegisterProfile)
			authRoutes.POST("/login", handler.LoginProfile)
		}

		// Profile routes (protected)
		profileRoutes := apiV1.Group("/profiles")
		profileRoutes.Use(auth.AuthMiddleware())
		{
			profileRoutes.GET("", handler.SearchProfiles) // Must be before /:id
			profileRoutes.GET("/me", handler.GetMe)
			profileRoutes.PUT("/me", handler.UpdateMe)
			profileRoutes.GET("/me/likes/count", handler.CountLikedMe)
			profileRoutes.GET("/:id", handler.GetProfileByID)

			profileRoutes.POST("/:id/like", handler.LikeProfile)
			profileRoutes.POST("/:id/unlike", handler.UnlikeProfile)
			profileRoutes.POST("/:id/block", handler.BlockProfile)
			profileRoutes.POST("/:id/unblock", handler.UnblockProfile)
		}

		// Swipe feed (protected)
		swipeRoutes := apiV1.Group("/swipe")
		swipeRoutes.Use(auth.AuthMiddleware())
		{
			swipeRoutes.GET("", handler.GetSwipeFeed)
		}

		// Group routes (protected)
		groupRoutes := apiV1.Group("/groups")
		groupRoutes.Use(auth.AuthMiddleware())
		{
			groupRoutes.POST("", handler.CreateGroup)
			groupRoutes.POST("/join", handler.JoinGroup)
			groupRoutes.POST("/leave", handler.LeaveGroup) // No ID needed, profile leaves its own group
			groupRoutes.GET("/:id", handler.GetGroupByID)
			groupRoutes.POST("/:id/like", handler.LikeGroup)
			groupRoutes.POST("/:id/unlike", handler.UnlikeGroup)
			groupRoutes.DELETE("/:id/members/:profileID", handler.KickMember)
		}

		// Match routes (protected)
		matchRoutes := apiV1.Group("/matches")
		matchRoutes.Use(auth.AuthMiddleware())
		{
			matchRoutes.GET("", handler.GetMyMatches)
			matchRoutes.DELETE("/:id", handler.DeleteMatch)
		}

		// Admin routes (protected by auth and admin check)
		adminRoutes := apiV1.Group("/admin")
		adminRoutes.Use(auth.AuthMiddleware(), auth.AdminMiddleware())
		{
			adminRoutes.GET("/matches", handler.AdminListMatches)
		}
	}

	fmt.Println("Server is running on :8080")
	fmt.Println("Swagger UI is available at http://localhost:8080/swagger/index.html")
	log.Fatal(router.Run(":8080"))
}
