package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"filevault/internal/account"
	"filevault/internal/objects"
	"filevault/internal/services/health"
	"filevault/internal/shared/auth"
	"filevault/internal/shared/config"
	"filevault/internal/shared/metrics"
	"filevault/internal/shared/server"
	"filevault/internal/shared/storage/chunks"
	localchunks "filevault/internal/shared/storage/chunks/local"
	s3chunks "filevault/internal/shared/storage/chunks/s3"
	"filevault/internal/shared/storage/chunks/sqlstore"
	"filevault/internal/shared/storage/db"
	"filevault/internal/shared/telemetry"
)

const devJWTSecret = "dev-secret"

// App holds shared dependencies.
type App struct {
	Config         config.Config
	Router         *gin.Engine
	DB             *sql.DB
	Dialect        db.Dialect
	Registry       *prometheus.Registry
	Metrics        *metrics.Metrics
	Validator      *auth.Validator
	Chunks         chunks.Store
	Repo           objects.Repo
	Store          *objects.Store
	ObjectsService *objects.Service
	ObjectsHandler *objects.Handler
	AccountService *account.Service
	AccountHandler *account.Handler
	Health         *health.Service
}

// Build wires configuration into a ready-to-serve App. The caller owns the result and must Close it.
func Build(cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	if strings.TrimSpace(cfg.ChunkStoreType) == "" {
		cfg.ChunkStoreType = "local"
	}
	ctx := context.Background()

	validator, err := NewValidator(cfg)
	if err != nil {
		return nil, err
	}

	sqlDB, dialect, err := buildDB(ctx, cfg)
	if err != nil {
		return nil, err
	}

	app := &App{
		Config:    cfg,
		DB:        sqlDB,
		Dialect:   dialect,
		Validator: validator,
	}

	app.Chunks, err = buildChunks(ctx, cfg, sqlDB, dialect)
	if err != nil {
		app.Close()
		return nil, err
	}

	app.Registry = prometheus.NewRegistry()
	app.Registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	app.Metrics = metrics.New(app.Registry)

	buildServices(app)

	app.Router = server.NewRouter(server.RouterDeps{
		Config:    cfg,
		Validator: app.Validator,
		Metrics:   app.Metrics,
		Gatherer:  app.Registry,
		Health:    app.Health,
		Features:  []server.RouteRegistrar{app.ObjectsHandler, app.AccountHandler},
	})

	telemetry.Info("bootstrap.ready", map[string]any{
		"env":         cfg.Env,
		"chunk_store": cfg.ChunkStoreType,
		"database":    dialectName(sqlDB, dialect),
	})
	return app, nil
}

// Close releases the database handle. It is safe on a partially built App.
func (a *App) Close() error {
	if a == nil || a.DB == nil {
		return nil
	}
	err := a.DB.Close()
	a.DB = nil
	return err
}

// NewValidator builds the token validator for cfg. Outside dev a JWT secret is mandatory.
func NewValidator(cfg config.Config) (*auth.Validator, error) {
	secret := strings.TrimSpace(cfg.JWTSecret)
	if secret == "" {
		if !config.IsDevLike(cfg.Env) {
			return nil, errors.New("JWT_SECRET is required")
		}
		telemetry.Warn("bootstrap.dev_secret", map[string]any{"env": cfg.Env})
		secret = devJWTSecret
	}
	return auth.NewValidator([]byte(secret), cfg.AdminSubject)
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, db.Dialect, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if config.IsDevLike(cfg.Env) {
			telemetry.Warn("bootstrap.memory_repo", map[string]any{"reason": "DATABASE_URL empty"})
			return nil, "", nil
		}
		return nil, "", errors.New("DATABASE_URL is required")
	}

	dialect, err := db.DialectFor(cfg.DatabaseURL)
	if err != nil {
		return nil, "", err
	}
	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, db.OptionsFromEnv(db.DefaultServerOptions()))
	if err != nil {
		return nil, "", err
	}
	if err := db.RunMigrations(ctx, sqlDB, dialect); err != nil {
		sqlDB.Close()
		return nil, "", err
	}
	return sqlDB, dialect, nil
}

func buildChunks(ctx context.Context, cfg config.Config, sqlDB *sql.DB, dialect db.Dialect) (chunks.Store, error) {
	switch cfg.ChunkStoreType {
	case "memory":
		return chunks.NewMemory(), nil
	case "sql":
		if sqlDB == nil {
			return nil, errors.New("CHUNK_STORE=sql requires DATABASE_URL")
		}
		return sqlstore.New(sqlDB, dialect), nil
	case "s3":
		store, err := s3chunks.New(ctx, s3chunks.Options{
			Region:   cfg.AWSRegion,
			Bucket:   cfg.S3Bucket,
			Prefix:   cfg.S3Prefix,
			Endpoint: cfg.S3Endpoint,
		})
		if err != nil {
			return nil, fmt.Errorf("s3 chunk store: %w", err)
		}
		return store, nil
	default:
		return localchunks.New(cfg.LocalStoreDir), nil
	}
}

func buildServices(app *App) {
	if app.DB != nil {
		app.Repo = &objects.SQLRepo{DB: app.DB, Dialect: app.Dialect}
	} else {
		app.Repo = objects.NewMemoryRepo()
	}

	app.Store = objects.NewStore(app.Repo, app.Chunks, objects.StoreOptions{
		ChunkSize:         app.Config.ChunkSizeBytes,
		DeleteConcurrency: app.Config.DeleteConcurrency,
		Metrics:           app.Metrics,
	})
	app.ObjectsService = &objects.Service{
		Store:   app.Store,
		Stager:  &objects.Stager{Dir: app.Config.StagingDir},
		Metrics: app.Metrics,
	}
	app.ObjectsHandler = objects.NewHandler(app.ObjectsService, app.Config.MaxUploadBytes)

	app.AccountService = account.NewService(app.ObjectsService)
	app.AccountHandler = account.NewHandler(app.AccountService, app.Validator)

	if app.DB != nil {
		app.Health = health.NewService(app.DB)
	} else {
		app.Health = health.NewService(nil)
	}
}

func dialectName(sqlDB *sql.DB, dialect db.Dialect) string {
	if sqlDB == nil {
		return "memory"
	}
	return string(dialect)
}
