// Package v1 carries the versioned REST API of the coaching engine.
package v1

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"

	"github.com/repcircle/repcircle/ai"
	"github.com/repcircle/repcircle/ai/coach"
	"github.com/repcircle/repcircle/ai/core/embedding"
	"github.com/repcircle/repcircle/ai/core/llm"
	"github.com/repcircle/repcircle/ai/memory"
	"github.com/repcircle/repcircle/ai/metrics"
	"github.com/repcircle/repcircle/ai/snapshot"
	"github.com/repcircle/repcircle/ai/thread"
	"github.com/repcircle/repcircle/internal/profile"
	"github.com/repcircle/repcircle/plugin/markdown"
	"github.com/repcircle/repcircle/server/auth"
	"github.com/repcircle/repcircle/server/cooldown"
	"github.com/repcircle/repcircle/store"
)

type APIV1Service struct {
	Secret  string
	Profile *profile.Profile
	Store   *store.Store

	// Shared infra
	MarkdownService markdown.Service
	Exporter        *metrics.PrometheusExporter
	Cooldowns       cooldown.Store

	// Coaching engine
	Snapshots *snapshot.Service
	Refresher *snapshot.Refresher
	Memories  *memory.Service
	Agent     *coach.Agent

	authenticator *auth.Authenticator

	// Per-member chat limiters. Process-local: each replica enforces
	// the rate independently.
	limiterMu sync.Mutex
	limiters  map[int32]*rate.Limiter
}

func NewAPIV1Service(secret string, profile *profile.Profile, storeInstance *store.Store) *APIV1Service {
	exporter := metrics.NewPrometheusExporter(metrics.DefaultConfig())

	staleAfter := time.Duration(profile.SnapshotStaleMinutes) * time.Minute
	snapshots := snapshot.NewService(storeInstance, staleAfter)
	refresher := snapshot.NewRefresher(storeInstance, &snapshot.RefresherConfig{
		StaleAfter:  staleAfter,
		BatchSize:   profile.RefreshBatchSize,
		Parallelism: profile.RefreshParallelism,
		Budget:      time.Duration(profile.RefreshBudgetSeconds) * time.Second,
	})

	service := &APIV1Service{
		Secret:          secret,
		Profile:         profile,
		Store:           storeInstance,
		MarkdownService: markdown.NewService(markdown.WithHardWraps()),
		Exporter:        exporter,
		Cooldowns:       cooldown.NewDBStore(storeInstance),
		Snapshots:       snapshots,
		Refresher:       refresher,
		authenticator:   auth.NewAuthenticator(storeInstance, secret),
		limiters:        map[int32]*rate.Limiter{},
	}

	// The memory service works without an embedder (recency recall
	// only); the embedder is attached below when AI is configured.
	var embedder embedding.Service

	if profile.IsAIEnabled() {
		aiConfig := ai.NewConfigFromProfile(profile)
		if err := aiConfig.Validate(); err != nil {
			slog.Warn("AI config validation failed, coach chat disabled", "error", err)
		} else {
			llmService, err := llm.NewService(&aiConfig.LLM)
			if err != nil {
				slog.Warn("failed to initialize LLM service, coach chat disabled", "error", err)
			} else {
				slog.Info("LLM service initialized",
					"provider", aiConfig.LLM.Provider,
					"model", aiConfig.LLM.Model,
				)

				embedder, err = embedding.NewService(&aiConfig.Embedding)
				if err != nil {
					slog.Warn("failed to initialize embedding service, memory recall degrades to recency", "error", err)
					embedder = nil
				}

				service.Memories = memory.NewService(storeInstance, embedder)
				threads := thread.NewManager(storeInstance, thread.NewProvider(&aiConfig.Thread))
				toolbox := coach.NewToolbox(storeInstance, service.Memories)
				service.Agent = coach.NewAgent(llmService, threads, toolbox, exporter, &coach.Config{
					TurnWindow: aiConfig.CoachTurnWindow,
				})
			}
		}
	} else {
		slog.Info("AI features disabled: no LLM API key configured")
	}

	if service.Memories == nil {
		service.Memories = memory.NewService(storeInstance, embedder)
	}

	return service
}

// Register mounts all /api/v1 routes on the echo server.
func (s *APIV1Service) Register(echoServer *echo.Echo) {
	apiGroup := echoServer.Group("/api/v1")

	// Public endpoints.
	apiGroup.POST("/auth/sessions", s.CreateSession)
	apiGroup.POST("/members", s.CreateMember)
	apiGroup.POST("/cron/context-refresh", s.TriggerContextRefresh)

	// Member endpoints behind bearer auth.
	memberGroup := echoServer.Group("/api/v1", s.authMiddleware)
	memberGroup.GET("/members/me", s.GetMyMember)
	memberGroup.PATCH("/members/me", s.UpdateMyMember)
	memberGroup.GET("/members/me/context", s.GetMyContext)
	memberGroup.POST("/members/me/context/rebuild", s.RebuildMyContext)

	memberGroup.POST("/workouts", s.CreateWorkout)
	memberGroup.GET("/workouts", s.ListWorkouts)
	memberGroup.POST("/workouts/:id/complete", s.CompleteWorkout)

	memberGroup.POST("/goals", s.CreateGoal)
	memberGroup.GET("/goals", s.ListGoals)
	memberGroup.PATCH("/goals/:id", s.UpdateGoal)

	memberGroup.POST("/limitations", s.CreateLimitation)
	memberGroup.GET("/limitations", s.ListLimitations)
	memberGroup.PATCH("/limitations/:id", s.UpdateLimitation)

	memberGroup.POST("/records", s.CreatePersonalRecord)
	memberGroup.GET("/records", s.ListPersonalRecords)

	memberGroup.POST("/skills", s.CreateSkill)
	memberGroup.GET("/skills", s.ListSkills)

	memberGroup.POST("/exercises", s.CreateExercise)
	memberGroup.GET("/exercises", s.ListExercises)

	memberGroup.POST("/coach/conversations", s.CreateCoachConversation)
	memberGroup.GET("/coach/conversations", s.ListCoachConversations)
	memberGroup.POST("/coach/conversations/:uid/messages", s.PostCoachMessage)
	memberGroup.GET("/coach/conversations/:uid/messages", s.ListCoachMessages)

	memberGroup.POST("/coach/memories", s.CreateCoachMemory)
	memberGroup.GET("/coach/memories", s.ListCoachMemories)
}

// authMiddleware resolves the bearer token and stores the member on
// the request context.
func (s *APIV1Service) authMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		member, err := s.authenticator.Authenticate(ctx, c.Request().Header.Get(echo.HeaderAuthorization))
		if err != nil {
			return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
		}
		c.SetRequest(c.Request().WithContext(auth.SetMemberInContext(ctx, member)))
		return next(c)
	}
}

// currentMember returns the authenticated member set by authMiddleware.
func currentMember(c echo.Context) (*store.Member, error) {
	member := auth.MemberFromContext(c.Request().Context())
	if member == nil {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}
	return member, nil
}

// chatLimiter returns the member's chat limiter, creating it on first
// use. Burst equals the per-minute budget so a short exchange is never
// throttled mid-conversation.
func (s *APIV1Service) chatLimiter(memberID int32) *rate.Limiter {
	s.limiterMu.Lock()
	defer s.limiterMu.Unlock()

	limiter, ok := s.limiters[memberID]
	if !ok {
		perMinute := s.Profile.CoachChatPerMinute
		if perMinute <= 0 {
			perMinute = 10
		}
		limiter = rate.NewLimiter(rate.Limit(float64(perMinute)/60.0), perMinute)
		s.limiters[memberID] = limiter
	}
	return limiter
}

// rebuildContext recomputes the member's snapshot after a source-data
// mutation. Failures are logged, not surfaced: the mutation itself
// already succeeded.
func (s *APIV1Service) rebuildContext(c echo.Context, memberID int32) {
	if _, err := s.Snapshots.Rebuild(c.Request().Context(), memberID); err != nil {
		slog.Warn("context rebuild after mutation failed", "memberID", memberID, "error", err)
	}
}
