package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"

	"greenintellect-backend/internal/analysis"
	"greenintellect-backend/internal/companies"
	"greenintellect-backend/internal/llm"
	"greenintellect-backend/internal/llm/groq"
	"greenintellect-backend/internal/pipeline"
	"greenintellect-backend/internal/queue"
	"greenintellect-backend/internal/review"
	"greenintellect-backend/internal/services/health"
	"greenintellect-backend/internal/shared/auth"
	"greenintellect-backend/internal/shared/config"
	"greenintellect-backend/internal/shared/server"
	"greenintellect-backend/internal/shared/storage/db"
	"greenintellect-backend/internal/shared/storage/object"
	localstore "greenintellect-backend/internal/shared/storage/object/local"
	miniostore "greenintellect-backend/internal/shared/storage/object/minio"
	s3store "greenintellect-backend/internal/shared/storage/object/s3"
	"greenintellect-backend/internal/shared/telemetry"
	"greenintellect-backend/internal/uploads"
)

// App holds shared dependencies.
type App struct {
	Config     config.Config
	Router     *gin.Engine
	DB         *sql.DB
	Store      object.ObjectStore
	Queue      queue.Client
	LocalQueue *queue.LocalClient
	LLM        llm.Client

	Companies *companies.Service
	Uploads   *uploads.Service
	Analysis  *analysis.Service
	Processor *pipeline.Processor
	Reviews   *review.Registry
	Keys      *auth.Keys
}

// Options tweak Build for the calling binary.
type Options struct {
	DBOptions db.Options
	// SkipRouter is set by the worker, which serves no HTTP.
	SkipRouter bool
}

// Build prepares shared dependencies and the router.
func Build(ctx context.Context, cfg config.Config, opts Options) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	if strings.TrimSpace(cfg.ObjectStoreType) == "" {
		cfg.ObjectStoreType = "local"
	}
	if opts.DBOptions == (db.Options{}) {
		opts.DBOptions = db.DefaultServerOptions()
	}

	keys, err := auth.NewKeys(cfg.JWTSecret, cfg.Env)
	if err != nil {
		return nil, err
	}
	sqlDB, err := buildDB(ctx, cfg, opts.DBOptions)
	if err != nil {
		return nil, err
	}
	store, err := buildStore(ctx, cfg)
	if err != nil {
		if sqlDB != nil {
			_ = sqlDB.Close()
		}
		return nil, err
	}

	app := &App{
		Config: cfg,
		DB:     sqlDB,
		Store:  store,
		LLM:    buildLLM(cfg),
		Keys:   keys,
	}
	if err := buildServices(ctx, app); err != nil {
		app.Close()
		return nil, err
	}
	if !opts.SkipRouter {
		app.Router = buildRouter(app)
	}
	return app, nil
}

// Close releases sessions, background jobs and the database pool.
func (a *App) Close() {
	if a.Reviews != nil {
		a.Reviews.CloseAll()
	}
	if a.LocalQueue != nil {
		a.LocalQueue.Close()
	}
	if a.DB != nil {
		_ = a.DB.Close()
	}
}

func buildDB(ctx context.Context, cfg config.Config, opts db.Options) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if cfg.IsDevLike() {
			telemetry.Warn("bootstrap.db.memory", map[string]any{"reason": "DATABASE_URL empty"})
			return nil, nil
		}
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, db.OptionsFromEnv(opts))
	if err != nil {
		if cfg.IsDevLike() {
			telemetry.Warn("bootstrap.db.memory", map[string]any{"reason": "connect failed", "error": err.Error()})
			return nil, nil
		}
		return nil, err
	}
	if cfg.IsDevLike() {
		if err := db.RunMigrations(ctx, sqlDB); err != nil {
			_ = sqlDB.Close()
			return nil, fmt.Errorf("run migrations: %w", err)
		}
	}
	return sqlDB, nil
}

func buildStore(ctx context.Context, cfg config.Config) (object.ObjectStore, error) {
	switch cfg.ObjectStoreType {
	case "s3":
		if strings.TrimSpace(cfg.S3Bucket) == "" {
			return nil, fmt.Errorf("OBJECT_STORE=s3 requires S3_BUCKET")
		}
		return s3store.New(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3Prefix, cfg.SSEKMSKeyID)
	case "minio":
		store, err := miniostore.New(miniostore.Config{
			Endpoint:  cfg.MinioEndpoint,
			AccessKey: cfg.MinioAccessKey,
			SecretKey: cfg.MinioSecretKey,
			Bucket:    cfg.MinioBucket,
			Region:    cfg.AWSRegion,
			UseSSL:    cfg.MinioUseSSL,
		})
		if err != nil {
			return nil, err
		}
		if err := store.EnsureBucket(ctx); err != nil {
			return nil, err
		}
		return store, nil
	default:
		return localstore.New(cfg.LocalStoreDir), nil
	}
}

func buildLLM(cfg config.Config) llm.Client {
	if cfg.LLMAPIKey == "" {
		telemetry.Warn("bootstrap.llm.not_configured", map[string]any{"provider": "groq"})
		return llm.PlaceholderClient{}
	}
	client, err := groq.NewClient(groq.Config{
		APIKey:      cfg.LLMAPIKey,
		Model:       cfg.LLMModel,
		BaseURL:     cfg.LLMBaseURL,
		MaxTokens:   cfg.LLMMaxTokens,
		Temperature: cfg.LLMTemperature,
		MaxRetries:  cfg.LLMMaxRetries,
		Timeout:     cfg.LLMTimeout,
	})
	if err != nil {
		return llm.PlaceholderClient{}
	}
	return client
}

func buildServices(ctx context.Context, app *App) error {
	var companyRepo companies.Repo
	var uploadRepo uploads.Repo
	if app.DB != nil {
		companyRepo = &companies.PGRepo{DB: app.DB}
		uploadRepo = &uploads.PGRepo{DB: app.DB}
	} else {
		companyRepo = companies.NewMemoryRepo()
		uploadRepo = uploads.NewMemoryRepo()
	}

	app.Companies = &companies.Service{Repo: companyRepo}
	app.Uploads = &uploads.Service{
		Repo:      uploadRepo,
		Store:     app.Store,
		Companies: app.Companies,
		MaxBytes:  app.Config.MaxUploadBytes,
	}
	app.Analysis = analysis.NewService(app.LLM, app.Companies, app.Config.AnalysisMinInterval, nil)
	app.Processor = &pipeline.Processor{
		Uploads: app.Uploads,
		LLM:     app.LLM,
		Model:   app.Config.LLMModel,
	}
	app.Reviews = review.NewRegistry(app.Uploads, app.Config.ReconcileDelay)

	if app.Config.QueueURL != "" {
		sqsClient, err := queue.NewSQSClient(ctx, app.Config.AWSRegion, app.Config.QueueURL)
		if err != nil {
			return err
		}
		app.Queue = sqsClient
	} else {
		app.LocalQueue = queue.NewLocalClient(app.Processor, app.Config.LLMTimeout*2)
		app.Queue = app.LocalQueue
	}
	app.Uploads.Queue = app.Queue
	return nil
}

func buildRouter(app *App) *gin.Engine {
	companyHandler := companies.NewHandler(app.Companies)
	return server.NewRouter(server.RouterDeps{
		Config:   app.Config,
		Verifier: app.Keys.Verify,
		Health: health.NewService(app.DB, app.Config.ObjectStoreType),
		Public: []server.RouteRegistrar{companyHandler},
		Authed: []server.RouteRegistrar{
			analysis.NewHandler(app.Analysis),
			uploads.NewHandler(app.Uploads),
		},
		Admin:       []server.RouteRegistrar{review.NewHandler(app.Reviews, app.Uploads)},
		AdminExtras: []server.AdminRouteRegistrar{companyHandler},
	})
}
