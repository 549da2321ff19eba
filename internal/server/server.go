package server

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/mlahtinen/paced/internal/auth"
	"github.com/mlahtinen/paced/internal/backup"
	"github.com/mlahtinen/paced/internal/email"
	"github.com/mlahtinen/paced/internal/handler"
	"github.com/mlahtinen/paced/internal/middleware"
	"github.com/mlahtinen/paced/internal/push"
	"github.com/mlahtinen/paced/internal/store"
	ws "github.com/mlahtinen/paced/internal/websocket"
)

// Config carries the external-service settings the server wires up.
type Config struct {
	TokenSecret     string
	BaseURL         string
	PostmarkToken   string
	PostmarkFrom    string
	VAPIDPublicKey  string
	VAPIDPrivateKey string
	VAPIDSubscriber string
	ReminderHour    int
	Backup          backup.Config
}

type Server struct {
	db            *sql.DB
	hub           *ws.Hub
	userH         *handler.UserHandler
	milestoneH    *handler.MilestoneHandler
	courseH       *handler.CourseHandler
	categoryH     *handler.CategoryHandler
	entryH        *handler.EntryHandler
	studyLogH     *handler.StudyLogHandler
	socialH       *handler.SocialHandler
	pushH         *handler.PushHandler
	backupH       *handler.BackupHandler
	verifier      *auth.Verifier
	userStore     *store.UserStore
	invitations   *store.InvitationStore
	rateLimiter   *middleware.RateLimiter
	backupManager *backup.Manager
	pushScheduler *push.Scheduler
	logger        *slog.Logger
}

func New(db *sql.DB, cfg Config, logger *slog.Logger) *Server {
	hub := ws.NewHub(logger.With("component", "websocket"))

	userStore := store.NewUserStore(db)
	milestoneStore := store.NewMilestoneStore(db)
	courseStore := store.NewCourseStore(db)
	categoryStore := store.NewCategoryStore(db)
	entryStore := store.NewEntryStore(db)
	studyLogStore := store.NewStudyLogStore(db)
	connectionStore := store.NewConnectionStore(db)
	invitationStore := store.NewInvitationStore(db)
	cheerStore := store.NewCheerStore(db)
	pushStore := store.NewPushStore(db)

	pushLogger := logger.With("component", "push")
	var pushSvc *push.Service
	var pushSched *push.Scheduler
	var notifier *push.Notifier
	if cfg.VAPIDPublicKey != "" && cfg.VAPIDPrivateKey != "" {
		pushSvc = push.NewService(cfg.VAPIDPublicKey, cfg.VAPIDPrivateKey, cfg.VAPIDSubscriber)
		notifier = push.NewNotifier(pushSvc, pushStore, pushLogger)
		pushSched = push.NewScheduler(pushSvc, pushStore, cfg.ReminderHour, pushLogger)
	}

	mailClient := email.NewClient(cfg.PostmarkToken, cfg.PostmarkFrom, cfg.BaseURL)
	backupMgr := backup.NewManager(cfg.Backup, db, logger.With("component", "backup"))

	return &Server{
		db:            db,
		hub:           hub,
		userH:         handler.NewUserHandler(userStore, logger.With("component", "user")),
		milestoneH:    handler.NewMilestoneHandler(milestoneStore),
		courseH:       handler.NewCourseHandler(courseStore, categoryStore, entryStore, milestoneStore, userStore, hub),
		categoryH:     handler.NewCategoryHandler(categoryStore, courseStore, hub),
		entryH:        handler.NewEntryHandler(entryStore, categoryStore, courseStore, hub),
		studyLogH:     handler.NewStudyLogHandler(studyLogStore, courseStore),
		socialH:       handler.NewSocialHandler(connectionStore, invitationStore, cheerStore, userStore, mailClient, notifier, hub, logger.With("component", "social")),
		pushH:         handler.NewPushHandler(pushStore, pushSvc),
		backupH:       handler.NewBackupHandler(backupMgr),
		verifier:      auth.NewVerifier(cfg.TokenSecret),
		userStore:     userStore,
		invitations:   invitationStore,
		rateLimiter:   middleware.NewRateLimiter(),
		backupManager: backupMgr,
		pushScheduler: pushSched,
		logger:        logger,
	}
}

// RateLimiter returns the rate limiter for cleanup tasks.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

// InvitationStore returns the invitation store for cleanup tasks.
func (s *Server) InvitationStore() *store.InvitationStore {
	return s.invitations
}

// BackupManager returns the backup manager.
func (s *Server) BackupManager() *backup.Manager {
	return s.backupManager
}

// PushScheduler returns the streak reminder scheduler, nil when push is not
// configured.
func (s *Server) PushScheduler() *push.Scheduler {
	return s.pushScheduler
}

func (s *Server) Router() http.Handler {
	outerMux := http.NewServeMux()
	outerMux.HandleFunc("GET /health", s.healthHandler)

	// Everything else requires a bearer token.
	protectedMux := http.NewServeMux()
	s.registerProtectedRoutes(protectedMux)

	authMiddleware := middleware.RequireAuth(s.verifier, s.userStore)
	outerMux.Handle("/", authMiddleware(protectedMux))

	return middleware.RequestLogger(s.logger.With("component", "http"))(outerMux)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) rateLimitedHandler(h http.HandlerFunc) http.HandlerFunc {
	keyFunc := func(r *http.Request) string {
		return middleware.RealIP(r)
	}
	rl := middleware.RateLimit(s.rateLimiter, keyFunc, 10, time.Minute)
	return func(w http.ResponseWriter, r *http.Request) {
		rl(http.HandlerFunc(h)).ServeHTTP(w, r)
	}
}

func (s *Server) registerProtectedRoutes(mux *http.ServeMux) {
	// Profile
	mux.HandleFunc("GET /api/me", s.userH.Me)
	mux.HandleFunc("PUT /api/me", s.userH.UpdateMe)
	mux.HandleFunc("GET /api/streak", s.userH.Streak)

	// Milestones
	mux.HandleFunc("GET /api/milestones", s.milestoneH.List)
	mux.HandleFunc("POST /api/milestones", s.milestoneH.Create)
	mux.HandleFunc("PUT /api/milestones/{id}", s.milestoneH.Update)
	mux.HandleFunc("DELETE /api/milestones/{id}", s.milestoneH.Delete)
	mux.HandleFunc("POST /api/milestones/{id}/complete", s.milestoneH.Complete)

	// Courses
	mux.HandleFunc("GET /api/courses", s.courseH.List)
	mux.HandleFunc("POST /api/courses", s.courseH.Create)
	mux.HandleFunc("GET /api/courses/{id}", s.courseH.Get)
	mux.HandleFunc("PUT /api/courses/{id}", s.courseH.Update)
	mux.HandleFunc("DELETE /api/courses/{id}", s.courseH.Delete)

	// Daily checklist lifecycle
	mux.HandleFunc("GET /api/courses/{id}/checklist", s.courseH.Checklist)
	mux.HandleFunc("POST /api/courses/{id}/check", s.courseH.Check)
	mux.HandleFunc("POST /api/courses/{id}/complete-day", s.courseH.CompleteDay)
	mux.HandleFunc("POST /api/courses/{id}/reset-daily", s.courseH.ResetDaily)
	mux.HandleFunc("POST /api/courses/{id}/save-day", s.courseH.SaveDay)

	// Categories
	mux.HandleFunc("GET /api/courses/{id}/categories", s.categoryH.ListByCourse)
	mux.HandleFunc("POST /api/courses/{id}/categories", s.categoryH.Create)
	mux.HandleFunc("PUT /api/categories/reorder", s.categoryH.Reorder)
	mux.HandleFunc("PUT /api/categories/{id}", s.categoryH.Update)
	mux.HandleFunc("POST /api/categories/{id}/progress", s.categoryH.Progress)
	mux.HandleFunc("DELETE /api/categories/{id}", s.categoryH.Delete)

	// Entry ledger
	mux.HandleFunc("PUT /api/entries", s.entryH.Upsert)
	mux.HandleFunc("GET /api/entries", s.entryH.ListRange)
	mux.HandleFunc("DELETE /api/entries/{id}", s.entryH.Delete)

	// Study logs
	mux.HandleFunc("POST /api/study-logs", s.studyLogH.Create)
	mux.HandleFunc("GET /api/study-logs", s.studyLogH.List)

	// Friends and invitations; creation endpoints are rate limited per IP
	mux.HandleFunc("GET /api/friends", s.socialH.ListFriends)
	mux.HandleFunc("POST /api/friends", s.rateLimitedHandler(s.socialH.RequestFriend))
	mux.HandleFunc("POST /api/friends/{id}/accept", s.socialH.AcceptFriend)
	mux.HandleFunc("DELETE /api/friends/{id}", s.socialH.RemoveFriend)
	mux.HandleFunc("POST /api/invitations", s.rateLimitedHandler(s.socialH.CreateInvitation))
	mux.HandleFunc("POST /api/invitations/accept", s.socialH.AcceptInvitation)

	// Cheers
	mux.HandleFunc("GET /api/cheers", s.socialH.ListCheers)
	mux.HandleFunc("POST /api/cheers", s.socialH.SendCheer)
	mux.HandleFunc("POST /api/cheers/{id}/read", s.socialH.MarkCheerRead)
	mux.HandleFunc("POST /api/cheers/read-all", s.socialH.MarkAllCheersRead)
	mux.HandleFunc("GET /api/cheers/unread-count", s.socialH.UnreadCheerCount)

	// Push subscriptions
	mux.HandleFunc("POST /api/push/subscribe", s.pushH.Subscribe)
	mux.HandleFunc("DELETE /api/push/subscribe", s.pushH.Unsubscribe)
	mux.HandleFunc("GET /api/push/vapid-key", s.pushH.VAPIDKey)

	// Backup administration
	mux.HandleFunc("GET /api/admin/backup", s.backupH.Status)
	mux.HandleFunc("POST /api/admin/backup", s.backupH.Run)
	mux.HandleFunc("GET /api/admin/backup/snapshots", s.backupH.List)
	mux.HandleFunc("GET /api/admin/backup/download", s.backupH.Download)

	// WebSocket
	mux.HandleFunc("GET /ws", ws.HandleWebSocket(s.hub, s.logger.With("component", "websocket")))
}
