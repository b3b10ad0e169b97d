package server

import (
	"database/sql"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dukerupert/steady/internal/auth"
	"github.com/dukerupert/steady/internal/email"
	"github.com/dukerupert/steady/internal/handler"
	"github.com/dukerupert/steady/internal/middleware"
	"github.com/dukerupert/steady/internal/model"
	"github.com/dukerupert/steady/internal/push"
	"github.com/dukerupert/steady/internal/recovery"
	"github.com/dukerupert/steady/internal/store"
	ws "github.com/dukerupert/steady/internal/websocket"
)

// Options configure optional collaborators of the server.
type Options struct {
	Tokens *auth.Tokens
	// Location decides calendar-day boundaries for streaks and reminder slots.
	Location *time.Location
	Push     push.Config
	// ReminderInterval is the puzzle reminder tick. Zero means one minute.
	ReminderInterval time.Duration
	// Email, when configured, receives emergency alerts.
	Email     *email.Client
	WSOrigins []string
	// TrustProxy keys rate limits on forwarding headers instead of the peer address.
	TrustProxy bool
}

type Server struct {
	db            *sql.DB
	hub           *ws.Hub
	tokens        *auth.Tokens
	accountStore  *store.AccountStore
	pushStore     *store.PushStore
	recovery      *recovery.Service
	authH         *handler.AuthHandler
	streakH       *handler.StreakHandler
	puzzleH       *handler.PuzzleHandler
	rewardH       *handler.RewardHandler
	analyticsH    *handler.AnalyticsHandler
	emergencyH    *handler.EmergencyHandler
	notificationH *handler.NotificationHandler
	pushH         *handler.PushHandler
	rateLimiter   *middleware.RateLimiter
	pushScheduler *push.Scheduler
	wsOrigins     []string
	logger        *slog.Logger
}

func New(db *sql.DB, opts Options, logger *slog.Logger) *Server {
	hub := ws.NewHub(logger.With("component", "websocket"))

	accountStore := store.NewAccountStore(db)
	puzzleStore := store.NewPuzzleStore(db)
	pushSt := store.NewPushStore(db)

	deliverers := []recovery.Deliverer{hub}

	// Push notification service + scheduler
	var pushSvc *push.Service
	var pushSched *push.Scheduler
	var pushH *handler.PushHandler
	if opts.Push.Enabled() {
		pushSvc = push.NewService(opts.Push)
		pushSched = push.NewScheduler(pushSvc, pushSt, puzzleStore, accountStore, opts.Location, opts.ReminderInterval, logger)
		pushH = handler.NewPushHandler(pushSt, pushSvc, logger.With("component", "push_handler"))
		deliverers = append(deliverers, push.NewDeliverer(pushSvc, pushSt, logger))
	}
	if opts.Email != nil && opts.Email.Configured() {
		deliverers = append(deliverers, email.NewAlertDeliverer(opts.Email, accountStore))
	}

	svc := recovery.New(recovery.Deps{
		Accounts:      accountStore,
		Rewards:       store.NewRewardStore(db),
		Puzzles:       puzzleStore,
		Notifications: store.NewNotificationStore(db),
		Analytics:     store.NewAnalyticsStore(db),
		Deliverers:    deliverers,
		Location:      opts.Location,
		Logger:        logger.With("component", "recovery"),
	})

	return &Server{
		db:            db,
		hub:           hub,
		tokens:        opts.Tokens,
		accountStore:  accountStore,
		pushStore:     pushSt,
		recovery:      svc,
		authH:         handler.NewAuthHandler(accountStore, opts.Tokens, logger.With("component", "auth")),
		streakH:       handler.NewStreakHandler(svc.Streaks, accountStore, logger.With("component", "streak")),
		puzzleH:       handler.NewPuzzleHandler(svc.Puzzles, logger.With("component", "puzzle")),
		rewardH:       handler.NewRewardHandler(svc.Rewards, logger.With("component", "reward")),
		analyticsH:    handler.NewAnalyticsHandler(svc.Analytics, logger.With("component", "analytics")),
		emergencyH:    handler.NewEmergencyHandler(svc.Emergency, accountStore, logger.With("component", "emergency")),
		notificationH: handler.NewNotificationHandler(svc.Notifications, logger.With("component", "notification")),
		pushH:         pushH,
		rateLimiter:   middleware.NewRateLimiter(opts.TrustProxy),
		pushScheduler: pushSched,
		wsOrigins:     opts.WSOrigins,
		logger:        logger,
	}
}

// RateLimiter returns the rate limiter for cleanup tasks.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

// PushScheduler returns the puzzle reminder scheduler, nil when push is disabled.
func (s *Server) PushScheduler() *push.Scheduler {
	return s.pushScheduler
}

// PushStore returns the push store for cleanup tasks.
func (s *Server) PushStore() *store.PushStore {
	return s.pushStore
}

// Hub returns the live notification hub.
func (s *Server) Hub() *ws.Hub {
	return s.hub
}

func (s *Server) Router() http.Handler {
	outerMux := http.NewServeMux()

	signupLimit := middleware.RateLimit(s.rateLimiter, middleware.SignupBucket)
	loginLimit := middleware.RateLimit(s.rateLimiter, middleware.LoginBucket)

	// Public routes (no auth required)
	outerMux.Handle("POST /auth/signup", signupLimit(http.HandlerFunc(s.authH.Signup)))
	outerMux.Handle("POST /auth/patient/signup", signupLimit(http.HandlerFunc(s.authH.PatientSignup)))
	outerMux.Handle("POST /auth/doctor/signup", signupLimit(http.HandlerFunc(s.authH.DoctorSignup)))
	outerMux.Handle("POST /auth/login", loginLimit(http.HandlerFunc(s.authH.Login)))
	outerMux.HandleFunc("POST /auth/logout", s.authH.Logout)
	outerMux.HandleFunc("GET /health", handler.Health)
	outerMux.Handle("GET /metrics", promhttp.Handler())

	// Protected routes, wrapped with RequireAuth middleware
	protectedMux := http.NewServeMux()
	s.registerProtectedRoutes(protectedMux)

	authMiddleware := middleware.RequireAuth(s.tokens, s.accountStore)
	outerMux.Handle("/", authMiddleware(protectedMux))

	// Apply request logging middleware
	return middleware.RequestLogger(s.logger.With("component", "http"))(outerMux)
}

func (s *Server) registerProtectedRoutes(mux *http.ServeMux) {
	doctorOnly := middleware.RequireRole(model.RoleDoctor)

	mux.HandleFunc("GET /auth/me", s.authH.Me)
	mux.Handle("GET /doctor/{id}/patients", doctorOnly(http.HandlerFunc(s.authH.DoctorPatients)))

	// Streak routes
	mux.HandleFunc("POST /streak/start", s.streakH.Start)
	mux.HandleFunc("POST /streak/continue", s.streakH.Continue)
	mux.HandleFunc("POST /streak/end", s.streakH.End)
	mux.HandleFunc("GET /streak/patient", s.streakH.Patient)

	// Patient profile streak routes
	mux.HandleFunc("POST /patients/{id}/streak", s.streakH.ProfileUpdate)
	mux.HandleFunc("GET /patients/{id}/streak", s.streakH.ProfileStreak)
	mux.HandleFunc("GET /patients/{id}/streak/history", s.streakH.ProfileHistory)

	// Puzzle routes
	mux.HandleFunc("POST /puzzle/create", s.puzzleH.Create)
	mux.HandleFunc("POST /puzzle/complete", s.puzzleH.Complete)
	mux.HandleFunc("GET /puzzle/patient", s.puzzleH.ListForPatient)

	// Reward routes
	mux.HandleFunc("POST /reward/award", s.rewardH.Award)
	mux.HandleFunc("GET /reward", s.rewardH.List)

	// Analytics routes
	mux.HandleFunc("GET /analytics", s.analyticsH.Get)
	mux.HandleFunc("POST /analytics/puzzle", s.analyticsH.RecordPuzzle)
	mux.HandleFunc("POST /analytics/streak", s.analyticsH.RecordStreak)

	// Emergency routes
	mux.HandleFunc("POST /emergency/alert", s.emergencyH.Alert)
	mux.HandleFunc("POST /emergency/add", s.emergencyH.Add)
	mux.HandleFunc("POST /emergency/remove", s.emergencyH.Remove)

	// Notification routes
	mux.HandleFunc("GET /notifications", s.notificationH.List)
	mux.HandleFunc("DELETE /notifications", s.notificationH.DeleteAll)
	mux.HandleFunc("POST /notifications", s.notificationH.Create)
	mux.HandleFunc("POST /notifications/{id}/read", s.notificationH.MarkRead)

	// Push notification routes
	if s.pushH != nil {
		mux.HandleFunc("POST /push/subscribe", s.pushH.Subscribe)
		mux.HandleFunc("DELETE /push/subscriptions/{id}", s.pushH.Unsubscribe)
		mux.HandleFunc("GET /push/vapid-key", s.pushH.VAPIDKey)
	}

	// Live notification feed
	mux.HandleFunc("GET /ws", ws.HandleWebSocket(s.hub, s.wsOrigins))
}
