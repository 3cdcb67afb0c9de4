package app

import (
	"database/sql"
	"fmt"
	"log"

	"github.com/ruhafzazahedi/shield/internal/config"
	"github.com/ruhafzazahedi/shield/internal/handlers"
	"github.com/ruhafzazahedi/shield/internal/models"
	"github.com/ruhafzazahedi/shield/internal/pdf"
	"github.com/ruhafzazahedi/shield/internal/repositories"
	"github.com/ruhafzazahedi/shield/internal/routes"
	"github.com/ruhafzazahedi/shield/internal/services"
	"github.com/ruhafzazahedi/shield/internal/utils"

	"github.com/gin-gonic/gin"
	_ "github.com/lib/pq"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/ruhafzazahedi/shield/docs"
)

func Run() {
	cfg := config.LoadConfig()

	// === DB ===
	db, err := sql.Open("postgres", cfg.Database.DSN)
	if err != nil {
		log.Fatal("Ошибка подключения к БД: ", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Printf("Ошибка закрытия БД: %v", err)
		}
	}()

	// === Repos ===
	userRepo := repositories.NewUserRepository(db)
	identityRepo := repositories.NewIdentityRepository(db, repositories.GeneratorConfig{
		CodeLength:       cfg.Auth.CodeLength,
		CodeExcludeDigit: cfg.Auth.CodeExcludeDigit,
		TokenBytes:       cfg.Auth.TokenBytes,
	})
	loginRepo := repositories.NewLoginRepository(db)

	// === Services ===
	emailService := services.NewEmailService(
		cfg.Email.SMTPHost,
		cfg.Email.SMTPPort,
		cfg.Email.SMTPUser,
		cfg.Email.SMTPPassword,
		cfg.Email.FromEmail,
	)
	authService := services.NewAuthService(userRepo, cfg.Auth)
	sessionService := services.NewSessionService(userRepo)
	userService := services.NewUserService(userRepo, identityRepo, emailService, authService)

	// SMS-шлюз из конфига
	smsClient := utils.NewClient(
		cfg.SMS.BaseURL,
		cfg.SMS.APIKey,
		cfg.SMS.TemplateID,
		cfg.SMS.DryRun,
	)

	// Telegram-зеркало кодов; без токена работаем без него
	var telegramService *services.TelegramService
	if cfg.Telegram.Enabled {
		telegramService, err = services.NewTelegramService(cfg.Telegram.BotToken)
		if err != nil {
			log.Printf("[app] telegram disabled: %v", err)
		}
	}

	phone2FA := services.NewPhone2FAService(identityRepo, sessionService, smsClient, telegramService, cfg.Auth)
	phoneActivate := services.NewPhoneActivateService(identityRepo, sessionService, userRepo, smsClient, telegramService, cfg.Auth)
	magicLink := services.NewMagicLinkService(identityRepo, userRepo, sessionService, loginRepo, smsClient, emailService, cfg.Auth)

	// Замкнутый набор действий: выбор идёт по состоянию пользователя
	actionsRegistry := map[models.IdentityType]services.ChallengeAction{
		models.IdentityTypePhone2FA:      phone2FA,
		models.IdentityTypePhoneActivate: phoneActivate,
		models.IdentityTypeMagicLink:     magicLink,
	}

	reportService := services.NewReportService(loginRepo, pdf.NewReportGenerator())

	// === Handlers ===
	authHandler := handlers.NewAuthHandler(userService, authService, sessionService, loginRepo)
	actionHandler := handlers.NewActionHandler(sessionService, authService, actionsRegistry)
	magicLinkHandler := handlers.NewMagicLinkHandler(magicLink, sessionService, authService)
	userHandler := handlers.NewUserHandler(userService)
	reportHandler := handlers.NewReportHandler(reportService)

	// === Gin ===
	router := gin.Default()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(corsMiddleware())

	// Swagger
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	routes.SetupRoutes(
		router,
		[]byte(cfg.Auth.JWTSecret),
		authHandler,
		actionHandler,
		magicLinkHandler,
		userHandler,
		reportHandler,
	)

	// === Run ===
	listenAddr := fmt.Sprintf(":%d", cfg.Server.Port)
	log.Printf("Сервер запущен на %s", listenAddr)
	if err := router.Run(listenAddr); err != nil {
		log.Fatal("Ошибка запуска сервера: ", err)
	}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Authorization")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	}
}
