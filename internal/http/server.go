package httpapi

import (
	"net/http"
	"time"

	"studyhive-backend-go/internal/config"
	"studyhive-backend-go/internal/services"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

type Server struct {
	DB         *sqlx.DB
	Config     config.Config
	Log        *zap.Logger
	Tokens     services.TokenService
	Sessions   services.SessionManager
	Blobs      *services.DiskStore
	Mail       services.Mailer
	MetricsHub *services.MetricsHub
	StartedAt  time.Time
}

func NewServer(db *sqlx.DB, cfg config.Config, log *zap.Logger, mail services.Mailer, hub *services.MetricsHub) *Server {
	tokens := services.TokenService{
		Secret:     []byte(cfg.JWTSecret),
		Issuer:     cfg.JWTIssuer,
		AccessTTL:  time.Duration(cfg.AccessTTLSeconds) * time.Second,
		RefreshTTL: time.Duration(cfg.RefreshTTLSeconds) * time.Second,
	}
	return &Server{
		DB:         db,
		Config:     cfg,
		Log:        log,
		Tokens:     tokens,
		Sessions:   services.SessionManager{Tokens: tokens, Store: services.NewSessionStore(db)},
		Blobs:      &services.DiskStore{DB: db, BasePath: cfg.MediaStoragePath},
		Mail:       mail,
		MetricsHub: hub,
		StartedAt:  time.Now().UTC(),
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	if len(s.Config.CorsOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   s.Config.CorsOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	globalLimiter := NewRateLimiter(100, 15*time.Minute)
	accountLimiter := NewRateLimiter(20, 5*time.Minute)
	authLimiter := NewRateLimiter(5, 5*time.Minute)

	r.Route("/api/v1", func(api chi.Router) {
		api.Use(RequestLogger(s.Log))
		api.Use(LimitByIP(globalLimiter))

		api.Get("/healthcheck", s.Healthcheck)

		api.Route("/users", func(users chi.Router) {
			users.With(LimitByIP(authLimiter)).Post("/register", s.Register)
			users.With(LimitByIP(authLimiter)).Post("/login", s.Login)
			users.With(LimitByIP(authLimiter)).Post("/refresh-token", s.RefreshToken)
			users.Get("/verify-email/{token}", s.VerifyEmail)
			users.Post("/resend-email-verification", s.ResendEmailVerification)
			users.Post("/forgot-password", s.ForgotPassword)
			users.Post("/reset-password/{token}", s.ResetPassword)

			users.Group(func(authed chi.Router) {
				authed.Use(WithAuth(s.Tokens))
				authed.Use(LimitByUser(accountLimiter))
				authed.Get("/me", s.Me)
				authed.Post("/change-password", s.ChangePassword)
				authed.Post("/logout", s.Logout)
			})
		})

		api.Group(func(authed chi.Router) {
			authed.Use(WithAuth(s.Tokens))
			authed.Use(LimitByUser(accountLimiter))

			authed.Route("/groups", func(groups chi.Router) {
				groups.Get("/", s.MyGroups)
				groups.Post("/", s.CreateGroup)
				groups.Post("/join", s.JoinGroup)
				groups.Get("/{groupId}", s.GroupDetail)
				groups.Put("/{groupId}", s.UpdateGroup)
				groups.Delete("/{groupId}", s.DeleteGroup)
				groups.Post("/{groupId}/invite", s.GroupInvite)
				groups.Get("/{groupId}/members", s.GroupMembers)
				groups.Delete("/{groupId}/members/{userId}", s.RemoveMember)
				groups.Post("/{groupId}/goals", s.CreateGoal)
				groups.Get("/{groupId}/goals", s.GroupGoals)
				groups.Post("/{groupId}/resources", s.CreateResource)
				groups.Get("/{groupId}/resources", s.GroupResources)
			})

			authed.Route("/goals", func(goals chi.Router) {
				goals.Get("/me", s.MyGoals)
				goals.Put("/{goalId}", s.UpdateGoal)
				goals.Delete("/{goalId}", s.DeleteGoal)
				goals.Post("/{goalId}/assignments", s.CreateAssignment)
				goals.Get("/{goalId}/assignments", s.GoalAssignments)
			})

			authed.Route("/assignments", func(assignments chi.Router) {
				assignments.Get("/{assignmentId}", s.AssignmentDetail)
				assignments.Put("/{assignmentId}", s.UpdateAssignment)
				assignments.Delete("/{assignmentId}", s.DeleteAssignment)
				assignments.Post("/{assignmentId}/submissions", s.SubmitAssignment)
				assignments.Get("/{assignmentId}/submissions", s.AssignmentSubmissions)
			})

			authed.Patch("/submissions/{submissionId}/review", s.ReviewSubmission)
			authed.Delete("/resources/{resourceId}", s.DeleteResource)

			authed.Get("/media/assets/{assetId}/content", s.MediaContent)

			authed.Route("/admin", func(admin chi.Router) {
				admin.Use(RequireRole("admin"))
				admin.Get("/metrics/history", s.MetricsHistory)
			})
		})
	})

	r.Get("/ws/metrics", s.MetricsSocket)
	return r
}
