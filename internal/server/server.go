package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"taskhub/internal/auth"
	"taskhub/internal/config"
	"taskhub/internal/database"
	"taskhub/internal/handler"
	"taskhub/internal/notify"
	"taskhub/internal/realtime"
	"taskhub/internal/repository"
	"taskhub/internal/taskevents"

	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

type Server struct {
	Engine *gin.Engine
	DB     *gorm.DB
	Hub    *realtime.Hub
	Config *config.Config

	redis *redis.Client
	relay *realtime.RedisRelay
}

func Init(cfg *config.Config) (*Server, error) {
	db, err := database.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("❌ %w", err)
	}
	if err := database.Migrate(db); err != nil {
		return nil, fmt.Errorf("❌ %w", err)
	}

	s := &Server{DB: db, Config: cfg}

	// Redis нужен только для нескольких экземпляров
	var relay realtime.Relay
	if cfg.RedisAddr != "" {
		s.redis = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.redis.Ping(ctx).Err(); err != nil {
			return nil, fmt.Errorf("❌ failed to connect to redis: %w", err)
		}
		log.Println("✅ Connected to redis")
		s.relay = realtime.NewRedisRelay(s.redis, cfg.RedisChannel)
		relay = s.relay
	}
	s.Hub = realtime.NewHub(relay)

	tokens := auth.NewTokenService(cfg.JWTSecret, cfg.JWTExpiry)

	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	taskRepo := repository.NewTaskRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)

	publisher := taskevents.NewPublisher(s.Hub)
	notifier := notify.NewNotifier(notificationRepo, s.Hub)

	// Initialize handlers
	s.Engine = NewRouter(Handlers{
		User:         handler.NewUserHandler(userRepo, tokens, cfg.CookieSecure),
		Task:         handler.NewTaskHandler(taskRepo, userRepo, publisher, notifier),
		Notification: handler.NewNotificationHandler(notificationRepo),
		WS:           handler.NewWSHandler(s.Hub, tokens, realtime.JoinPolicy{RequireIdentity: cfg.WSRequireAuth}),
	}, tokens)

	return s, nil
}

// Run serves until SIGINT or SIGTERM and returns the process exit code.
func (s *Server) Run() int {
	srv := &http.Server{
		Addr:    ":" + s.Config.ServerPort,
		Handler: s.Engine,
	}

	ctx, stopBackground := context.WithCancel(context.Background())
	defer stopBackground()
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Printf("🚀 Server running on port %s\n", s.Config.ServerPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("failed to listen: %w", err)
		}
		return nil
	})
	if s.relay != nil {
		g.Go(func() error {
			return s.relay.Run(gctx, s.Hub.Deliver)
		})
	}

	go func() {
		if err := g.Wait(); err != nil {
			log.Fatalf("❌ %s", err)
		}
	}()

	httpDone := make(chan struct{})
	wait := gfshutdown.GracefulShutdown(context.Background(), s.Config.ShutdownTimeout, map[string]gfshutdown.Operation{
		"http-server": func(ctx context.Context) error {
			defer close(httpDone)
			log.Println("🛑 Shutting down server...")
			return srv.Shutdown(ctx)
		},
		"realtime-hub": func(ctx context.Context) error {
			// Websocket-соединения не отслеживаются http.Server.Shutdown
			stopBackground()
			s.Hub.Close()
			return nil
		},
		"database": func(ctx context.Context) error {
			select {
			case <-httpDone:
			case <-ctx.Done():
			}
			var errs []error
			if s.redis != nil {
				errs = append(errs, s.redis.Close())
			}
			errs = append(errs, database.Close(s.DB))
			return errors.Join(errs...)
		},
	})

	exitCode := <-wait
	if exitCode == 0 {
		log.Println("✅ Server exited properly")
	}
	return exitCode
}
