package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"

	"team-task-manager/auth"
	"team-task-manager/config"
	"team-task-manager/database"
	"team-task-manager/firebase"
	"team-task-manager/handlers"
	"team-task-manager/memstore"
	"team-task-manager/ratelimit"
	"team-task-manager/tasks"
	"team-task-manager/utilities"
)

// userStore is what the task and auth services need from the user backend.
type userStore interface {
	tasks.UserDirectory
	auth.UserRepository
}

// backends holds the open stores and how to close them.
type backends struct {
	tasks   tasks.TaskRepository
	users   userStore
	limiter handlers.Allower
	closers []func()
}

func (b *backends) close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		b.closers[i]()
	}
}

func main() {
	loaded, err := config.LoadDotEnv()
	if err != nil {
		log.Fatalf("Error loading .env file: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	utilities.InitLogger(cfg.LogLevel, cfg.LogFormat)
	if !loaded {
		utilities.LogInfo(".env file not found, using process environment")
	}

	if cfg.JWT.Secret == "" {
		cfg.JWT.Secret = randomSecret()
		utilities.LogWarn("JWT_SECRET not set; using a random secret, tokens will not survive a restart")
	}

	ctx := context.Background()
	b, err := openBackends(ctx, cfg)
	if err != nil {
		utilities.LogError(err, "Failed to open stores")
		os.Exit(1)
	}
	defer b.close()

	taskService := tasks.NewService(b.tasks, b.users)
	authService := auth.NewService(b.users,
		auth.NewJWTManager(auth.JWTConfig{Secret: cfg.JWT.Secret, ExpiresIn: cfg.JWT.ExpiresIn, Issuer: cfg.JWT.Issuer}),
		auth.NewPasswordHasher(auth.DefaultBcryptCost))
	api := handlers.NewAPI(taskService, authService)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      newRouter(cfg, api, b.limiter),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		utilities.LogInfo("Server started on port %s (tasks: %s, users: %s)", cfg.Port, cfg.TaskStore, cfg.UserStore)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			utilities.LogError(err, "Server failed")
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	utilities.LogInfo("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		utilities.LogError(err, "Server forced to shutdown")
	}
	utilities.LogInfo("Server exited")
}

func openBackends(ctx context.Context, cfg *config.Config) (_ *backends, err error) {
	b := &backends{}
	defer func() {
		if err != nil {
			b.close()
		}
	}()

	var mongoDB *mongo.Database
	connectMongo := func() (*mongo.Database, error) {
		if mongoDB != nil {
			return mongoDB, nil
		}
		client, db, err := database.ConnectMongo(ctx, cfg.Mongo)
		if err != nil {
			return nil, err
		}
		b.closers = append(b.closers, func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := client.Disconnect(ctx); err != nil {
				utilities.LogError(err, "Closing MongoDB connection")
			}
		})
		mongoDB = db
		return db, nil
	}

	switch cfg.TaskStore {
	case config.StoreMongo:
		db, err := connectMongo()
		if err != nil {
			return nil, err
		}
		b.tasks = database.NewMongoTaskRepository(db)
	case config.StoreFirestore:
		client, err := firebase.NewFirestoreClient(ctx, cfg.Firestore)
		if err != nil {
			return nil, err
		}
		b.closers = append(b.closers, func() { client.Close() })
		b.tasks = firebase.NewFirestoreTaskRepository(client, cfg.Firestore.TasksCollection)
	case config.StoreMemory:
		b.tasks = memstore.NewTaskStore()
	default:
		return nil, fmt.Errorf("unknown task store %q", cfg.TaskStore)
	}

	switch cfg.UserStore {
	case config.StoreMongo:
		db, err := connectMongo()
		if err != nil {
			return nil, err
		}
		b.users = database.NewMongoUserRepository(db)
	case config.StorePostgres:
		db, err := database.ConnectPostgres(ctx, cfg.Postgres)
		if err != nil {
			return nil, err
		}
		b.closers = append(b.closers, func() { db.Close() })
		repo := database.NewPostgresUserRepository(db)
		if err := repo.EnsureSchema(ctx); err != nil {
			return nil, err
		}
		b.users = repo
	case config.StoreMemory:
		b.users = memstore.NewUserStore()
	default:
		return nil, fmt.Errorf("unknown user store %q", cfg.UserStore)
	}

	if cfg.RateLimit.Enabled() {
		client := redis.NewClient(&redis.Options{
			Addr:         cfg.RateLimit.RedisAddr,
			Password:     cfg.RateLimit.RedisPassword,
			DB:           cfg.RateLimit.RedisDB,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			utilities.LogWarn("Redis at %s unreachable, requests will not be limited until it is: %v", cfg.RateLimit.RedisAddr, err)
		}
		b.closers = append(b.closers, func() { client.Close() })
		b.limiter = ratelimit.NewLimiter(client, "ratelimit:")
	} else {
		utilities.LogInfo("REDIS_ADDR not set, rate limiting disabled")
	}
	return b, nil
}

func randomSecret() string {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		panic(err)
	}
	return hex.EncodeToString(buf)
}
