package v1

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/repcircle/repcircle/ai/metrics"
	"github.com/repcircle/repcircle/ai/snapshot"
	"github.com/repcircle/repcircle/internal/profile"
	"github.com/repcircle/repcircle/store"
)

// fakeRefreshStore is the minimum snapshot.Store for a sweep to run:
// every candidate resolves to a member unless scripted to fail.
type fakeRefreshStore struct {
	candidates []int32
	memberErr  map[int32]error
}

func (s *fakeRefreshStore) GetMember(_ context.Context, find *store.FindMember) (*store.Member, error) {
	if find.ID == nil {
		return nil, nil
	}
	if err := s.memberErr[*find.ID]; err != nil {
		return nil, err
	}
	return &store.Member{ID: *find.ID, FitnessLevel: store.FitnessLevelIntermediate}, nil
}

func (s *fakeRefreshStore) ListFitnessGoals(context.Context, *store.FindFitnessGoal) ([]*store.FitnessGoal, error) {
	return nil, nil
}

func (s *fakeRefreshStore) ListLimitations(context.Context, *store.FindLimitation) ([]*store.Limitation, error) {
	return nil, nil
}

func (s *fakeRefreshStore) ListPersonalRecords(context.Context, *store.FindPersonalRecord) ([]*store.PersonalRecord, error) {
	return nil, nil
}

func (s *fakeRefreshStore) ListSkills(context.Context, *store.FindSkill) ([]*store.Skill, error) {
	return nil, nil
}

func (s *fakeRefreshStore) ListWorkoutSessions(context.Context, *store.FindWorkoutSession) ([]*store.WorkoutSession, error) {
	return nil, nil
}

func (s *fakeRefreshStore) ListSessionExercises(context.Context, *store.FindSessionExercise) ([]*store.SessionExercise, error) {
	return nil, nil
}

func (s *fakeRefreshStore) GetWorkoutStats(context.Context, *store.FindWorkoutStats) (*store.WorkoutStats, error) {
	return &store.WorkoutStats{}, nil
}

func (s *fakeRefreshStore) GetMemberContextSnapshot(context.Context, *store.FindMemberContextSnapshot) (*store.MemberContextSnapshot, error) {
	return nil, nil
}

func (s *fakeRefreshStore) UpsertMemberContextSnapshot(_ context.Context, upsert *store.UpsertMemberContextSnapshot) (*store.MemberContextSnapshot, error) {
	return &store.MemberContextSnapshot{MemberID: upsert.MemberID, Version: 1}, nil
}

func (s *fakeRefreshStore) ListSnapshotRefreshCandidates(context.Context, *store.FindSnapshotRefreshCandidates) ([]int32, error) {
	return s.candidates, nil
}

type fakeCooldownStore struct {
	acquired     bool
	wait         time.Duration
	err          error
	lastName     string
	lastInterval time.Duration
}

func (s *fakeCooldownStore) TryAcquire(_ context.Context, name string, interval time.Duration, _ time.Time) (bool, time.Duration, error) {
	s.lastName = name
	s.lastInterval = interval
	return s.acquired, s.wait, s.err
}

func newTriggerService(cooldowns *fakeCooldownStore, refreshStore *fakeRefreshStore) *APIV1Service {
	return &APIV1Service{
		Profile:   &profile.Profile{CronSecret: "cron-secret", RefreshCooldownSeconds: 120},
		Exporter:  metrics.NewPrometheusExporter(metrics.DefaultConfig()),
		Cooldowns: cooldowns,
		Refresher: snapshot.NewRefresher(refreshStore, nil),
	}
}

func performTrigger(t *testing.T, service *APIV1Service, headers map[string]string) (*httptest.ResponseRecorder, error) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/cron/context-refresh", nil)
	for key, value := range headers {
		req.Header.Set(key, value)
	}
	rec := httptest.NewRecorder()
	c := echo.New().NewContext(req, rec)
	return rec, service.TriggerContextRefresh(c)
}

func TestTriggerContextRefresh_RequiresSecret(t *testing.T) {
	service := newTriggerService(&fakeCooldownStore{acquired: true}, &fakeRefreshStore{})

	for name, headers := range map[string]map[string]string{
		"missing": {},
		"wrong":   {echo.HeaderAuthorization: "Bearer nope"},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := performTrigger(t, service, headers)
			var httpErr *echo.HTTPError
			require.ErrorAs(t, err, &httpErr)
			assert.Equal(t, http.StatusUnauthorized, httpErr.Code)
		})
	}
}

func TestTriggerContextRefresh_NotConfigured(t *testing.T) {
	service := newTriggerService(&fakeCooldownStore{acquired: true}, &fakeRefreshStore{})
	service.Profile.CronSecret = ""

	_, err := performTrigger(t, service, nil)

	var httpErr *echo.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusServiceUnavailable, httpErr.Code)
}

func TestTriggerContextRefresh_StaleTimestampRejected(t *testing.T) {
	service := newTriggerService(&fakeCooldownStore{acquired: true}, &fakeRefreshStore{})

	stale := time.Now().Add(-10 * time.Minute).Unix()
	_, err := performTrigger(t, service, map[string]string{
		echo.HeaderAuthorization: "Bearer cron-secret",
		triggerTimestampHeader:   strconv.FormatInt(stale, 10),
	})

	var httpErr *echo.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusUnauthorized, httpErr.Code)
}

func TestTriggerContextRefresh_CooldownDenied(t *testing.T) {
	cooldowns := &fakeCooldownStore{acquired: false, wait: 90 * time.Second}
	service := newTriggerService(cooldowns, &fakeRefreshStore{})

	rec, err := performTrigger(t, service, map[string]string{
		echo.HeaderAuthorization: "Bearer cron-secret",
	})

	var httpErr *echo.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusTooManyRequests, httpErr.Code)
	assert.Equal(t, "90", rec.Header().Get("Retry-After"))
	assert.Equal(t, refreshCooldownName, cooldowns.lastName)
	assert.Equal(t, 120*time.Second, cooldowns.lastInterval)
}

func TestTriggerContextRefresh_RunsAndReportsCounts(t *testing.T) {
	cooldowns := &fakeCooldownStore{acquired: true}
	refreshStore := &fakeRefreshStore{
		candidates: []int32{101, 102, 103},
		memberErr:  map[int32]error{102: errors.New("source read failed")},
	}
	service := newTriggerService(cooldowns, refreshStore)

	rec, err := performTrigger(t, service, map[string]string{
		echo.HeaderAuthorization: "Bearer cron-secret",
		triggerTimestampHeader:   strconv.FormatInt(time.Now().Unix(), 10),
	})

	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)

	response := &refreshResponse{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), response))
	assert.NotEmpty(t, response.RunID)
	assert.Equal(t, 3, response.Scanned)
	assert.Equal(t, 2, response.Updated)
	assert.Equal(t, 1, response.Errored)
}
