package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Rukhsanaashhad/TodoSecure---Secure-TODO-Manager/internal/auth"
	"github.com/Rukhsanaashhad/TodoSecure---Secure-TODO-Manager/internal/config"
	"github.com/Rukhsanaashhad/TodoSecure---Secure-TODO-Manager/internal/middleware"
	"github.com/Rukhsanaashhad/TodoSecure---Secure-TODO-Manager/internal/store"
	"github.com/Rukhsanaashhad/TodoSecure---Secure-TODO-Manager/internal/todo"
	"github.com/Rukhsanaashhad/TodoSecure---Secure-TODO-Manager/internal/web"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file, using environment")
	}
	cfg := config.Load()
	ctx := context.Background()

	// ── PostgreSQL ────────────────────────────────────────────
	pgPool, err := pgxpool.New(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("postgres connect: %v", err)
	}
	defer pgPool.Close()
	pgStore := store.NewPostgresStore(pgPool)
	if err := pgStore.Migrate(ctx); err != nil {
		log.Fatalf("postgres migrate: %v", err)
	}

	// ── MongoDB ──────────────────────────────────────────────
	mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		log.Fatalf("mongo connect: %v", err)
	}
	defer mongoClient.Disconnect(ctx)
	activityStore := store.NewActivityStore(mongoClient.Database(cfg.MongoDB))

	// ── Redis ────────────────────────────────────────────────
	rdb, err := store.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword)
	if err != nil {
		log.Fatalf("redis connect: %v", err)
	}
	defer rdb.Close()
	sessions := auth.NewRedisSessionStore(rdb)

	// ── MinIO ────────────────────────────────────────────────
	minioStore, err := store.NewMinioStore(ctx, store.MinioConfig{
		Endpoint:  cfg.MinioEndpoint,
		AccessKey: cfg.MinioAccessKey,
		SecretKey: cfg.MinioSecretKey,
		Bucket:    cfg.MinioBucket,
		UseSSL:    cfg.MinioUseSSL,
	})
	if err != nil {
		log.Fatalf("minio connect: %v", err)
	}

	// ── Services & handlers ──────────────────────────────────
	authSvc := auth.NewService(pgStore, sessions)
	authHandler := auth.NewHandler(authSvc, activityStore)
	todoHandler := todo.NewHandler(pgStore, minioStore, activityStore)
	webHandler := web.NewHandler(authSvc, sessions, pgStore, activityStore)

	// ── Router ───────────────────────────────────────────────
	r := chi.NewRouter()
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.RealIP)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	// Auth routes (public)
	r.Route("/api/auth", func(r chi.Router) {
		r.Post("/register", authHandler.Register)
		r.Post("/login", authHandler.Login)
		r.Post("/logout", authHandler.Logout)
		r.With(middleware.RequireAuth(sessions)).Get("/me", authHandler.Me)
	})

	// Todo routes (protected)
	r.Route("/api/todos", func(r chi.Router) {
		r.Use(middleware.RequireAuth(sessions))
		r.Post("/", todoHandler.Create)
		r.Get("/", todoHandler.List)
		r.Get("/stats", todoHandler.Stats)
		r.Get("/{id}", todoHandler.Get)
		r.Put("/{id}", todoHandler.Replace)
		r.Patch("/{id}", todoHandler.Update)
		r.Patch("/{id}/toggle", todoHandler.Toggle)
		r.Delete("/{id}", todoHandler.Delete)
		r.Post("/{id}/attachment", todoHandler.UploadAttachment)
		r.Get("/{id}/attachment", todoHandler.DownloadAttachment)
	})

	// Activity feed (protected)
	r.With(middleware.RequireAuth(sessions)).Get("/api/activity", todoHandler.Activity)

	// Dashboard (session cookie)
	r.Get("/login", webHandler.LoginForm)
	r.Post("/login", webHandler.Login)
	r.Get("/register", webHandler.RegisterForm)
	r.Post("/register", webHandler.Register)
	r.Post("/logout", webHandler.Logout)
	r.With(webHandler.RequireUser).Get("/", webHandler.Dashboard)

	// ── Server ───────────────────────────────────────────────
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
	}

	go func() {
		log.Printf("TodoSecure listening on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down...")
	shutCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	srv.Shutdown(shutCtx)
}
