package app

import (
	"database/sql"
	"fmt"
	"log"

	"github.com/gin-gonic/gin"
	_ "github.com/lib/pq"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "iconbuzzer/docs"
	"iconbuzzer/internal/config"
	"iconbuzzer/internal/handlers"
	"iconbuzzer/internal/middleware"
	"iconbuzzer/internal/repositories"
	"iconbuzzer/internal/routes"
	"iconbuzzer/internal/services"
	"iconbuzzer/internal/token"
)

func Run() {
	cfg := config.LoadConfig()

	// === DB ===
	db, err := sql.Open("postgres", cfg.Database.DSN)
	if err != nil {
		log.Fatal("failed to open database: ", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Printf("failed to close database: %v", err)
		}
	}()
	if err := db.Ping(); err != nil {
		log.Fatal("failed to reach database: ", err)
	}

	// === Repos ===
	accountRepo := repositories.NewAccountRepository(db)
	categoryRepo := repositories.NewCategoryRepository(db)
	subCategoryRepo := repositories.NewSubCategoryRepository(db)
	iconRepo := repositories.NewIconRepository(db)

	// === Services ===
	emailService := services.NewEmailService(
		cfg.Email.SMTPHost,
		cfg.Email.SMTPPort,
		cfg.Email.SMTPUser,
		cfg.Email.SMTPPassword,
		cfg.Email.FromEmail,
		cfg.Email.SupportEmail,
	)
	issuer := token.NewIssuer(cfg.JWT.Secret, cfg.TokenTTL())
	hasher := services.NewPasswordHasher()

	authService := services.NewAuthService(accountRepo, emailService, hasher, issuer)
	accountService := services.NewAccountService(accountRepo)
	categoryService := services.NewCategoryService(categoryRepo)
	subCategoryService := services.NewSubCategoryService(subCategoryRepo, categoryRepo)
	iconService := services.NewIconService(iconRepo, subCategoryRepo)

	// === Handlers ===
	authHandler := handlers.NewAuthHandler(authService)
	accountHandler := handlers.NewAccountHandler(accountService)
	categoryHandler := handlers.NewCategoryHandler(categoryService)
	subCategoryHandler := handlers.NewSubCategoryHandler(subCategoryService)
	iconHandler := handlers.NewIconHandler(iconService)

	// === Gin ===
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(cfg.CORS.Origins))
	router.Use(middleware.BodyLimit(cfg.Server.BodyLimit))

	// Swagger
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	routes.SetupRoutes(
		router,
		authService,
		authHandler,
		accountHandler,
		categoryHandler,
		subCategoryHandler,
		iconHandler,
	)

	// === Run ===
	listenAddr := fmt.Sprintf(":%d", cfg.Server.Port)
	log.Printf("server listening on %s", listenAddr)
	if err := router.Run(listenAddr); err != nil {
		log.Fatal("server failed: ", err)
	}
}
