package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/mlahtinen/paced/internal/backup"
	"github.com/mlahtinen/paced/internal/database"
	"github.com/mlahtinen/paced/internal/logging"
	"github.com/mlahtinen/paced/internal/server"
)

func main() {
	// Missing .env is fine; real deployments set the environment directly.
	godotenv.Load()

	logger := logging.Setup(os.Getenv("PACED_LOG_LEVEL"), os.Getenv("PACED_LOG_FORMAT"))

	port := envDefault("PACED_PORT", "8080")
	dbPath := envDefault("PACED_DB_PATH", "paced.db")

	tokenSecret := os.Getenv("PACED_TOKEN_SECRET")
	if tokenSecret == "" {
		log.Fatal("PACED_TOKEN_SECRET is required")
	}

	db, err := database.Open(dbPath)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	cfg := server.Config{
		TokenSecret:     tokenSecret,
		BaseURL:         envDefault("PACED_BASE_URL", "http://localhost:"+port),
		PostmarkToken:   os.Getenv("PACED_POSTMARK_TOKEN"),
		PostmarkFrom:    os.Getenv("PACED_POSTMARK_FROM"),
		VAPIDPublicKey:  os.Getenv("PACED_VAPID_PUBLIC_KEY"),
		VAPIDPrivateKey: os.Getenv("PACED_VAPID_PRIVATE_KEY"),
		VAPIDSubscriber: os.Getenv("PACED_VAPID_SUBSCRIBER"),
		ReminderHour:    envInt("PACED_REMINDER_HOUR", 18),
		Backup: backup.Config{
			S3: backup.S3Config{
				Endpoint:  os.Getenv("PACED_S3_ENDPOINT"),
				Bucket:    os.Getenv("PACED_S3_BUCKET"),
				Region:    envDefault("PACED_S3_REGION", "auto"),
				AccessKey: os.Getenv("PACED_S3_ACCESS_KEY"),
				SecretKey: os.Getenv("PACED_S3_SECRET_KEY"),
			},
			DBPath:        dbPath,
			Passphrase:    os.Getenv("PACED_BACKUP_PASSPHRASE"),
			RetentionDays: envInt("PACED_BACKUP_RETENTION_DAYS", 30),
		},
	}

	srv := server.New(db, cfg, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if sched := srv.PushScheduler(); sched != nil {
		sched.Start(ctx)
		defer sched.Stop()
	}

	// Hourly housekeeping: expired invitations and stale rate-limit windows.
	go func() {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n, err := srv.InvitationStore().PruneExpired(time.Now()); err != nil {
					logger.Error("Failed to prune invitations", "error", err)
				} else if n > 0 {
					logger.Info("Pruned expired invitations", "count", n)
				}
				srv.RateLimiter().Cleanup()
			}
		}
	}()

	httpServer := &http.Server{
		Addr:         ":" + port,
		Handler:      srv.Router(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info("Paced listening", "port", port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	<-ctx.Done()

	logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("shutdown error: %v", err)
	}
}

func envDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
