package appServer

import (
	"context"
	"crypto/tls"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ds124wfegd/ticketbooker/config"
	"github.com/ds124wfegd/ticketbooker/internal/database"
	"github.com/ds124wfegd/ticketbooker/internal/database/memory"
	repository "github.com/ds124wfegd/ticketbooker/internal/database/postgres"
	eventcache "github.com/ds124wfegd/ticketbooker/internal/database/redis"
	"github.com/ds124wfegd/ticketbooker/internal/service"
	"github.com/ds124wfegd/ticketbooker/internal/transport"
	"github.com/ds124wfegd/ticketbooker/internal/worker"
	"github.com/ds124wfegd/ticketbooker/pkg/auth"
	"github.com/ds124wfegd/ticketbooker/pkg/broker"
	"github.com/ds124wfegd/ticketbooker/pkg/postgres"
	"github.com/ds124wfegd/ticketbooker/pkg/queue"
	"github.com/ds124wfegd/ticketbooker/pkg/redis"
	"github.com/ds124wfegd/ticketbooker/pkg/scheduler"
	"github.com/ds124wfegd/ticketbooker/pkg/telegram"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const shutdownTimeout = 15 * time.Second

type Server struct {
	httpServer *http.Server
}

func (s *Server) Run(cfg *config.Config, handler http.Handler) error {
	s.httpServer = &http.Server{
		Addr:              cfg.GetServerAddress(),
		Handler:           handler,
		MaxHeaderBytes:    1 << 20,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      cfg.Server.Timeout + 5*time.Second,
		IdleTimeout:       cfg.Server.Idle_timeout,
		ReadHeaderTimeout: 3 * time.Second,
		TLSConfig:         &tls.Config{MinVersion: tls.VersionTLS12},
		ErrorLog:          log.New(os.Stderr, "SERVER ERROR: ", log.LstdFlags),
	}
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// Repositories groups the stores behind the selected database driver.
type Repositories struct {
	Events   database.EventRepository
	Bookings database.BookingRepository
	Users    database.UserRepository
	close    func() error
}

func (r *Repositories) Close() error {
	if r.close == nil {
		return nil
	}
	return r.close()
}

// OpenRepositories connects the configured driver and applies migrations.
func OpenRepositories(ctx context.Context, cfg *config.DatabaseConfig) (*Repositories, error) {
	if cfg.Driver == "memory" {
		store := memory.NewStore()
		logrus.Warn("Using in-memory store, data is lost on restart")
		return &Repositories{
			Events:   memory.NewEventRepository(store),
			Bookings: memory.NewBookingRepository(store),
			Users:    memory.NewUserRepository(store),
		}, nil
	}

	db, err := postgres.NewPostgresDB(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := postgres.RunMigrations(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	return &Repositories{
		Events:   repository.NewEventRepository(db),
		Bookings: repository.NewBookingRepository(db),
		Users:    repository.NewUserRepository(db),
		close:    db.Close,
	}, nil
}

func setupLogger(cfg *config.ServerConfig) {
	logrus.SetFormatter(&logrus.JSONFormatter{})
	logrus.SetOutput(os.Stdout)

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)
}

func NewServer(cfg *config.Config) {
	setupLogger(&cfg.Server)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize database
	repos, err := OpenRepositories(ctx, &cfg.Database)
	if err != nil {
		logrus.Fatalf("Failed to initialize database: %v", err)
	}
	defer repos.Close()

	publisher, err := broker.New(&cfg.Broker)
	if err != nil {
		logrus.Errorf("Failed to connect broker: %v. Falling back to log publisher", err)
		publisher = broker.NewLogPublisher()
	}
	defer publisher.Close()

	// Initialize Telegram bot
	var notifier queue.Notifier
	if cfg.Telegram.Enabled && cfg.Telegram.BotToken != "" {
		notifier = telegram.NewBot(cfg.Telegram.BotToken)
		logrus.Info("Telegram bot initialized")
	} else {
		logrus.Warn("Telegram bot disabled, ops notifications will be skipped")
	}

	var (
		cache      database.EventCache
		tasks      *service.QueueAdapter
		redisQueue *queue.RedisQueue
	)

	if cfg.Redis.Enabled {
		redisClient, err := redis.NewRedisClient(ctx, &cfg.Redis)
		if err != nil {
			logrus.Errorf("Failed to initialize Redis: %v. Continuing without cache and queue...", err)
		} else {
			defer redisClient.Close()

			cache = eventcache.NewEventCache(redisClient, cfg.App.CacheTTL)
			redisQueue = queue.NewRedisQueue(redisClient, nil)
			tasks = service.NewQueueAdapter(redisQueue, cfg.Booking.ReminderBefore)
			logrus.Info("Redis cache and queue initialized")
		}
	}

	// Initialize services
	tokens := auth.NewTokenManager(cfg.JWT.Secret, cfg.JWT.Expiration)
	services := &service.Service{
		Events: service.NewEventService(repos.Events, cache),
		Bookings: service.NewBookingService(repos.Bookings, cache, publisher, tasks, service.BookingConfig{
			MaxTickets: cfg.Booking.MaxTickets,
			MaxRetries: cfg.Booking.MaxRetries,
		}),
		Users: service.NewUserService(repos.Users, tokens, cfg.JWT.BcryptCost),
	}

	if redisQueue != nil {
		services.Queue = redisQueue

		taskHandler := queue.NewTaskHandler(repos.Events, repos.Bookings, publisher, notifier, cfg.Telegram.ChatID)
		if err := redisQueue.Subscribe(ctx, taskHandler.HandleTask); err != nil {
			logrus.Errorf("Queue subscriber error: %v", err)
		}
		defer redisQueue.Close()
	}

	// Initialize and start scheduler
	sched, err := scheduler.New()
	if err != nil {
		logrus.Fatalf("Failed to create scheduler: %v", err)
	}
	statusWorker := worker.NewEventStatusWorker(services.Events, cfg.Worker.CleanupInterval)
	if err := statusWorker.Register(sched); err != nil {
		logrus.Fatalf("Failed to register event status worker: %v", err)
	}
	sched.Start()
	defer func() {
		if err := sched.Shutdown(); err != nil {
			logrus.Errorf("Scheduler shutdown: %v", err)
		}
	}()

	if cfg.Server.Mode == "release" || cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	srv := new(Server)
	go func() {
		err := srv.Run(cfg, transport.InitRoutes(services, tokens, cfg.Server.Timeout))
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.Fatalf("error occured while running http server: %s", err.Error())
		}
	}()

	logrus.WithField("addr", cfg.GetServerAddress()).Info("App Started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)
	<-quit

	logrus.Info("App Shutting Down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logrus.Errorf("error occured on server shutting down: %s", err.Error())
	}
	cancel()
}
