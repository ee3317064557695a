package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"chatapp/backend/internal/config"
	"chatapp/backend/internal/database"
	"chatapp/backend/internal/friendship"
	"chatapp/backend/internal/handler"
	"chatapp/backend/internal/hub"
	"chatapp/backend/internal/logging"
	"chatapp/backend/internal/mail"
	"chatapp/backend/pkg/jwt"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	// Swagger imports
	_ "chatapp/backend/docs" // registers the generated swagger spec

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

const shutdownTimeout = 10 * time.Second

// @title           Chat API
// @version         1.0
// @description     Accounts, friendships and direct messages with real-time notifications.
// @host            localhost:8080
// @BasePath        /api
// @securityDefinitions.apiKey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg, err := config.Load(".")
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load configuration")
	}
	logging.Setup(cfg.LogLevel, cfg.LogJSON)
	gin.SetMode(cfg.GinMode)

	db, err := database.Connect(cfg)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to connect to database")
	}
	defer database.Close(db)

	notifications := hub.NewHub()
	friends := friendship.NewService(friendship.NewGormStore(db), notifications)
	tokens := jwt.NewManager(cfg.JWTSecret, cfg.JWTTTL, cfg.VerifyTokenTTL)
	h := handler.New(db, friends, notifications, mail.New(cfg), tokens, cfg)

	router := gin.New()
	router.Use(logging.GinLogger(), gin.Recovery(), handler.CORSMiddleware(cfg.AllowedOrigins()))

	// Swagger route
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check endpoint
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
		})
	})

	h.RegisterRoutes(router)

	srv := &http.Server{
		Addr:    cfg.Addr(),
		Handler: router,
	}

	go func() {
		logrus.WithField("addr", srv.Addr).Info("Server is running")
		logrus.Infof("Swagger UI is available at http://localhost%s/swagger/index.html", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.WithError(err).Fatal("Server stopped unexpectedly")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logrus.Info("Shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logrus.WithError(err).Error("Graceful shutdown failed")
	}
}
