package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"clinicflow/config"
	deliveryHttp "clinicflow/internal/delivery/http"
	"clinicflow/internal/delivery/http/handler"
	"clinicflow/internal/delivery/http/middleware"
	"clinicflow/internal/delivery/websocket"
	"clinicflow/internal/infrastructure/cache"
	"clinicflow/internal/infrastructure/database"
	"clinicflow/internal/repository"
	"clinicflow/internal/service"
	"clinicflow/internal/usecase"
	"clinicflow/pkg/jwt"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// App holds all dependencies for the application
type App struct {
	Config      *config.Config
	DB          *gorm.DB
	RedisClient *redis.Client
	AMQP        *service.AMQPPublisher
	Server      *http.Server
}

// New creates a new App instance with all dependencies initialized
func New() (*App, error) {
	app := &App{}

	// Setup logger
	setupLogger()

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	app.Config = cfg
	setLogLevel(cfg.Log.Level)
	logrus.Info("Configuration loaded successfully")

	// Apply schema migrations
	if cfg.DB.MigrateOnStart {
		if err := database.Migrate(cfg.DB); err != nil {
			return nil, err
		}
	}

	// Initialize database
	db, err := database.NewPostgresConnection(cfg.DB, cfg.App.Env)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	app.DB = db
	logrus.Info("Database connected successfully")

	// Redis is only needed for the distributed slot lock
	if cfg.Lock.Backend == config.LockBackendRedis {
		redisClient, err := cache.NewRedisClient(cfg.Redis)
		if err != nil {
			app.Close()
			return nil, fmt.Errorf("failed to connect to Redis: %w", err)
		}
		app.RedisClient = redisClient
		logrus.Info("Redis connected successfully")
	}

	if cfg.RabbitMQ.Enabled {
		publisher, err := service.NewAMQPPublisher(cfg.RabbitMQ.URL, cfg.RabbitMQ.Exchange, logrus.StandardLogger())
		if err != nil {
			app.Close()
			return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
		}
		app.AMQP = publisher
		logrus.Info("RabbitMQ connected successfully")
	}

	// Initialize all layers
	app.Server = app.initializeServer()

	return app, nil
}

// setupLogger configures the logrus logger
func setupLogger() {
	logrus.SetFormatter(&logrus.JSONFormatter{})
	logrus.SetOutput(os.Stdout)
	logrus.SetLevel(logrus.InfoLevel)
}

func setLogLevel(level string) {
	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		logrus.Warnf("Unknown LOG_LEVEL %q, keeping info", level)
		return
	}
	logrus.SetLevel(parsed)
}

// initializeServer creates and configures the HTTP server
func (app *App) initializeServer() *http.Server {
	cfg := app.Config
	db := app.DB

	// Initialize logger
	log := logrus.StandardLogger()

	// Initialize JWT service
	jwtService := jwt.NewJWTService(cfg.JWT)

	// Initialize validator
	customValidator := usecase.NewRequestValidator()

	// Initialize repositories
	appointmentRepo := repository.NewAppointmentRepository()
	trackingRepo := repository.NewTrackingRepository()
	patientRepo := repository.NewPatientRepository()
	doctorRepo := repository.NewCachedDoctorRepository(repository.NewDoctorRepository(), cfg.Cache.DoctorTTL)
	auditLogRepo := repository.NewAuditLogRepository()

	// Initialize services
	var locker service.SlotLocker
	if app.RedisClient != nil {
		locker = service.NewRedisSlotLocker(app.RedisClient, log, cfg.Lock.TTL, cfg.Lock.Wait)
	} else {
		locker = service.NewLocalSlotLocker(cfg.Lock.Wait)
	}
	auditService := service.NewAuditService(log, auditLogRepo)

	hub := websocket.NewHub(log)
	var publisher service.EventPublisher
	if app.AMQP != nil {
		publisher = service.NewMultiPublisher(hub, app.AMQP)
	} else {
		publisher = service.NewMultiPublisher(hub)
	}

	// Initialize usecases
	appointmentUsecase := usecase.NewAppointmentUsecase(db, log, customValidator, appointmentRepo, patientRepo, doctorRepo, locker, auditService, publisher)
	trackingUsecase := usecase.NewTrackingUsecase(db, log, customValidator, trackingRepo, patientRepo, auditLogRepo, auditService, publisher)
	doctorUsecase := usecase.NewDoctorUsecase(db, log, doctorRepo)
	auditLogUsecase := usecase.NewAuditLogUsecase(db, log, auditLogRepo)

	// Initialize handlers
	appointmentHandler := handler.NewAppointmentHandler(appointmentUsecase)
	trackingHandler := handler.NewTrackingHandler(trackingUsecase)
	doctorHandler := handler.NewDoctorHandler(doctorUsecase)
	auditLogHandler := handler.NewAuditLogHandler(auditLogUsecase)
	healthHandler := handler.NewHealthHandler(db, app.RedisClient, log)
	liveHandler := websocket.NewHandler(hub, trackingUsecase, log)

	// Initialize middleware
	authMiddleware := middleware.NewAuthMiddleware(jwtService)
	corsMiddleware := middleware.NewCORSMiddleware()

	// Initialize router
	router := deliveryHttp.NewRouter(log, appointmentHandler, trackingHandler, doctorHandler, auditLogHandler, healthHandler, liveHandler, authMiddleware, corsMiddleware)
	httpRouter := router.Setup()

	// Create server
	serverAddr := fmt.Sprintf(":%s", cfg.App.Port)
	return &http.Server{
		Addr:              serverAddr,
		Handler:           httpRouter,
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// Run starts the HTTP server and handles graceful shutdown
func (app *App) Run() {
	// Start server in goroutine
	go func() {
		logrus.Infof("Server starting on port %s", app.Config.App.Port)
		logrus.Infof("Environment: %s", app.Config.App.Env)
		if err := app.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal
	app.waitForShutdown()
}

// waitForShutdown blocks until an interrupt signal is received
func (app *App) waitForShutdown() {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logrus.Info("Shutting down server...")

	// Create shutdown context with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Shutdown HTTP server gracefully
	if err := app.Server.Shutdown(ctx); err != nil {
		logrus.Errorf("Server forced to shutdown: %v", err)
	}

	// Close connections
	app.Close()

	logrus.Info("Server shutdown complete")
}

// Close closes all connections (database, redis, broker)
func (app *App) Close() {
	if app.AMQP != nil {
		if err := app.AMQP.Close(); err != nil {
			logrus.Warnf("Failed to close RabbitMQ connection: %v", err)
		}
	}

	// Close database connection
	if app.DB != nil {
		sqlDB, err := app.DB.DB()
		if err == nil {
			sqlDB.Close()
		}
	}

	// Close Redis connection
	if app.RedisClient != nil {
		app.RedisClient.Close()
	}
}
