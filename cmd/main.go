package main

import (
	"net/http"
	"os"
	"time"

	"edufolio/api/handler"
	apiMiddleware "edufolio/api/middleware"
	"edufolio/api/routes"
	"edufolio/config"
	"edufolio/internal/entity"
	"edufolio/internal/repository"
	"edufolio/internal/service"
	"edufolio/internal/utils"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)

	db, err := config.ConnectDB()
	if err != nil {
		logger.WithError(err).Fatal("database connection failed")
	}
	if err := db.AutoMigrate(
		&entity.User{},
		&entity.RefreshToken{},
		&entity.EmailVerification{},
		&entity.AuthEvent{},
	); err != nil {
		logger.WithError(err).Fatal("migration failed")
	}

	validate := validator.New()

	// No fallback secret: a production build must never sign tokens with a
	// baked-in default.
	accessSecret := []byte(os.Getenv("JWT_SECRET"))
	if len(accessSecret) == 0 {
		logger.Fatal("JWT_SECRET is required")
	}

	jwtManager := utils.JWTManager{
		Secret:         accessSecret,
		Issuer:         os.Getenv("JWT_ISSUER"),
		AccessTokenTTL: 15 * time.Minute,
	}
	authConfig := service.AuthConfig{
		AccessTokenTTL:      15 * time.Minute,
		RefreshTokenTTL:     7 * 24 * time.Hour,
		VerificationCodeTTL: 15 * time.Minute,
	}

	userRepo := repository.NewUserRepository(db)
	tokenRepo := repository.NewRefreshTokenRepository(db)
	verificationRepo := repository.NewEmailVerificationRepository(db)
	eventRepo := repository.NewAuthEventRepository(db)

	var emailSender service.EmailSender
	if resendSender := service.NewResendEmailSender(os.Getenv("RESEND_API_KEY"), os.Getenv("MAIL_FROM")); resendSender != nil {
		emailSender = resendSender
	} else {
		logger.Warn("RESEND_API_KEY or MAIL_FROM missing, verification codes will only be logged")
		emailSender = service.LogEmailSender{Logger: logger}
	}

	clock := service.RealClock{}
	tokenService := service.NewTokenService(tokenRepo, &jwtManager, clock, authConfig)
	verificationService := service.NewVerificationService(userRepo, verificationRepo, emailSender, clock, authConfig)
	authService := service.NewAuthService(userRepo, eventRepo, tokenService, verificationService, service.BcryptPasswordHasher{})

	authHandler := handler.NewAuthHandler(authService, validate)
	authHandler.CookieDomain = os.Getenv("COOKIE_DOMAIN")
	authHandler.SecureCookies = os.Getenv("COOKIE_SECURE") != "false"

	app := echo.New()
	app.HideBanner = true
	app.HidePort = true
	app.Use(echoMiddleware.Recover())
	app.Use(echoMiddleware.RequestIDWithConfig(echoMiddleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	app.Use(echoMiddleware.RequestLoggerWithConfig(echoMiddleware.RequestLoggerConfig{
		LogStatus:    true,
		LogMethod:    true,
		LogURI:       true,
		LogRemoteIP:  true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echoMiddleware.RequestLoggerValues) error {
			entry := logger.WithFields(logrus.Fields{
				"status":     v.Status,
				"method":     v.Method,
				"uri":        v.URI,
				"ip":         v.RemoteIP,
				"request_id": v.RequestID,
			})
			if v.Error != nil {
				entry.WithError(v.Error).Error("request")
				return nil
			}
			entry.Info("request")
			return nil
		},
	}))

	authMiddleware := apiMiddleware.AuthMiddleware{JWT: &jwtManager}
	router := routes.NewRouter(app, authHandler, authMiddleware)
	router.RegisterRoutes()

	addr := os.Getenv("HTTP_ADDR")
	if addr == "" {
		addr = ":8080"
	}
	server := &http.Server{
		Addr:              addr,
		ReadHeaderTimeout: 5 * time.Second,
	}

	logger.WithField("addr", addr).Info("server started")
	if err := app.StartServer(server); err != nil {
		logger.WithError(err).Fatal("server stopped")
	}
}
