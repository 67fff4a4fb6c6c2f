package v1

import (
	"crypto/subtle"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
)

const (
	// refreshCooldownName keys the trigger's cooldown slot.
	refreshCooldownName = "context-refresh"

	// triggerTimestampHeader optionally carries the scheduler's send
	// time; triggers older than triggerMaxSkew are rejected as replays.
	triggerTimestampHeader = "X-Trigger-Timestamp"
	triggerMaxSkew         = 5 * time.Minute
)

type refreshResponse struct {
	RunID     string `json:"runId"`
	Scanned   int    `json:"scanned"`
	Updated   int    `json:"updated"`
	Errored   int    `json:"errored"`
	ElapsedMs int64  `json:"elapsedMs"`
}

// TriggerContextRefresh runs one bounded snapshot refresh sweep. The
// caller is a scheduler, not an end user: auth is a shared secret, and
// repeat triggers inside the cooldown window get a 429 with Retry-After.
func (s *APIV1Service) TriggerContextRefresh(c echo.Context) error {
	ctx := c.Request().Context()

	if s.Profile.CronSecret == "" {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "refresh trigger is not configured")
	}
	secret := strings.TrimPrefix(c.Request().Header.Get(echo.HeaderAuthorization), "Bearer ")
	if subtle.ConstantTimeCompare([]byte(secret), []byte(s.Profile.CronSecret)) != 1 {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid trigger secret")
	}

	if raw := c.Request().Header.Get(triggerTimestampHeader); raw != "" {
		sentTs, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid trigger timestamp")
		}
		age := time.Since(time.Unix(sentTs, 0))
		if age > triggerMaxSkew || age < -triggerMaxSkew {
			return echo.NewHTTPError(http.StatusUnauthorized, "trigger timestamp outside freshness window")
		}
	}

	cooldown := time.Duration(s.Profile.RefreshCooldownSeconds) * time.Second
	acquired, wait, err := s.Cooldowns.TryAcquire(ctx, refreshCooldownName, cooldown, time.Now())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to check trigger cooldown").SetInternal(err)
	}
	if !acquired {
		retryAfter := int(wait.Seconds() + 0.5)
		if retryAfter < 1 {
			retryAfter = 1
		}
		c.Response().Header().Set("Retry-After", strconv.Itoa(retryAfter))
		return echo.NewHTTPError(http.StatusTooManyRequests, "refresh ran recently, retry later")
	}

	result, err := s.Refresher.Run(ctx)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "refresh run failed").SetInternal(err)
	}
	s.Exporter.RecordRefreshRun(result.Updated, result.Errored, result.Elapsed)
	slog.Info("refresh trigger served",
		"runID", result.RunID,
		"updated", result.Updated,
		"errored", result.Errored,
	)

	return c.JSON(http.StatusOK, &refreshResponse{
		RunID:     result.RunID,
		Scanned:   result.Scanned,
		Updated:   result.Updated,
		Errored:   result.Errored,
		ElapsedMs: result.Elapsed.Milliseconds(),
	})
}
