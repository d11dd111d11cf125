package app

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/templui/secondbrain/internal/config"
	"github.com/templui/secondbrain/internal/db"
	"github.com/templui/secondbrain/internal/repository"
	"github.com/templui/secondbrain/internal/service"
	"github.com/templui/secondbrain/internal/storage"
)

type App struct {
	Cfg            *config.Config
	DB             *sqlx.DB
	TokenService   *service.TokenService
	AuthService    *service.AuthService
	UserService    *service.UserService
	TagService     *service.TagService
	FileService    *service.FileService
	ContentService *service.ContentService
}

func New(ctx context.Context, cfg *config.Config) (*App, error) {
	// Initialize database
	database, err := db.Init(cfg.DBDriver, cfg.DBConnection)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	// Run database migrations
	err = db.RunMigrations(database.DB, cfg.DBDriver)
	if err != nil {
		_ = db.Close(database)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	// Repositories
	userRepository := repository.NewUserRepository(database)
	tagRepository := repository.NewTagRepository(database)
	contentRepository := repository.NewContentRepository(database)
	fileRepository := repository.NewFileRepository(database)

	// Storage (nil when S3 is not configured)
	fileStorage, err := storage.New(ctx, cfg)
	if err != nil {
		_ = db.Close(database)
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	// Services
	tokenService, err := service.NewTokenService(
		cfg.AccessSecret,
		cfg.RefreshSecret,
		cfg.AccessTokenTTL,
		cfg.RefreshTokenTTL,
		cfg.TokenClockSkew,
	)
	if err != nil {
		_ = db.Close(database)
		return nil, fmt.Errorf("failed to initialize token service: %w", err)
	}

	authService := service.NewAuthService(userRepository, tokenService, cfg.SecureCookies)
	fileService := service.NewFileService(fileRepository, fileStorage)
	tagService := service.NewTagService(tagRepository)
	contentService := service.NewContentService(contentRepository, tagService, fileService, cfg.PageSize)
	userService := service.NewUserService(userRepository, authService, fileService)

	return &App{
		Cfg:            cfg,
		DB:             database,
		TokenService:   tokenService,
		AuthService:    authService,
		UserService:    userService,
		TagService:     tagService,
		FileService:    fileService,
		ContentService: contentService,
	}, nil
}

func (a *App) Close() error {
	if a.DB != nil {
		return db.Close(a.DB)
	}
	return nil
}
