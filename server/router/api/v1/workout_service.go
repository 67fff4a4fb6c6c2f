package v1

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/repcircle/repcircle/store"
)

type sessionExerciseResponse struct {
	ID           int32    `json:"id"`
	ExerciseID   int32    `json:"exerciseId"`
	ExerciseName string   `json:"exerciseName"`
	MuscleGroups []string `json:"muscleGroups"`
	Sets         int32    `json:"sets"`
	Reps         int32    `json:"reps"`
	WeightKg     *float64 `json:"weightKg,omitempty"`
}

type workoutResponse struct {
	ID          int32                      `json:"id"`
	Title       string                     `json:"title"`
	Notes       string                     `json:"notes,omitempty"`
	StartedTs   int64                      `json:"startedTs"`
	EndedTs     *int64                     `json:"endedTs,omitempty"`
	DurationMin int32                      `json:"durationMin"`
	Completed   bool                       `json:"completed"`
	Exercises   []*sessionExerciseResponse `json:"exercises,omitempty"`
}

func convertWorkoutToResponse(session *store.WorkoutSession, exercises []*store.SessionExercise) *workoutResponse {
	response := &workoutResponse{
		ID:          session.ID,
		Title:       session.Title,
		Notes:       session.Notes,
		StartedTs:   session.StartedTs,
		EndedTs:     session.EndedTs,
		DurationMin: session.DurationMin,
		Completed:   session.EndedTs != nil,
	}
	for _, exercise := range exercises {
		response.Exercises = append(response.Exercises, &sessionExerciseResponse{
			ID:           exercise.ID,
			ExerciseID:   exercise.ExerciseID,
			ExerciseName: exercise.ExerciseName,
			MuscleGroups: exercise.MuscleGroups,
			Sets:         exercise.Sets,
			Reps:         exercise.Reps,
			WeightKg:     exercise.WeightKg,
		})
	}
	return response
}

type createWorkoutExercise struct {
	ExerciseID int32    `json:"exerciseId"`
	Sets       int32    `json:"sets"`
	Reps       int32    `json:"reps"`
	WeightKg   *float64 `json:"weightKg"`
}

type createWorkoutRequest struct {
	Title     string                  `json:"title"`
	Notes     string                  `json:"notes"`
	StartedTs *int64                  `json:"startedTs"`
	EndedTs   *int64                  `json:"endedTs"`
	Exercises []createWorkoutExercise `json:"exercises"`
}

// CreateWorkout logs a session with its exercises. A request that
// already carries endedTs records a finished workout in one call and
// triggers a context rebuild.
func (s *APIV1Service) CreateWorkout(c echo.Context) error {
	ctx := c.Request().Context()
	member, err := currentMember(c)
	if err != nil {
		return err
	}

	request := &createWorkoutRequest{}
	if err := c.Bind(request); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body").SetInternal(err)
	}

	startedTs := time.Now().Unix()
	if request.StartedTs != nil {
		startedTs = *request.StartedTs
	}
	if request.EndedTs != nil && *request.EndedTs < startedTs {
		return echo.NewHTTPError(http.StatusBadRequest, "endedTs precedes startedTs")
	}

	create := &store.CreateWorkoutSession{
		MemberID:  member.ID,
		Title:     request.Title,
		Notes:     request.Notes,
		StartedTs: startedTs,
		EndedTs:   request.EndedTs,
	}
	for _, exercise := range request.Exercises {
		if exercise.ExerciseID <= 0 || exercise.Sets <= 0 || exercise.Reps <= 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "each exercise needs exerciseId, sets and reps")
		}
		create.Exercises = append(create.Exercises, store.SessionExerciseInput{
			ExerciseID: exercise.ExerciseID,
			Sets:       exercise.Sets,
			Reps:       exercise.Reps,
			WeightKg:   exercise.WeightKg,
		})
	}

	session, err := s.Store.CreateWorkoutSession(ctx, create)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to create workout").SetInternal(err)
	}

	exercises, err := s.Store.ListSessionExercises(ctx, &store.FindSessionExercise{SessionIDs: []int32{session.ID}})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to load workout exercises").SetInternal(err)
	}

	if session.EndedTs != nil {
		s.rebuildContext(c, member.ID)
	}

	return c.JSON(http.StatusOK, convertWorkoutToResponse(session, exercises))
}

func (s *APIV1Service) ListWorkouts(c echo.Context) error {
	ctx := c.Request().Context()
	member, err := currentMember(c)
	if err != nil {
		return err
	}

	find := &store.FindWorkoutSession{MemberID: &member.ID}
	if c.QueryParam("completed") == "true" {
		find.CompletedOnly = true
	}
	if raw := c.QueryParam("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid limit")
		}
		find.Limit = &limit
	}

	sessions, err := s.Store.ListWorkoutSessions(ctx, find)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list workouts").SetInternal(err)
	}

	response := make([]*workoutResponse, 0, len(sessions))
	for _, session := range sessions {
		response = append(response, convertWorkoutToResponse(session, nil))
	}
	return c.JSON(http.StatusOK, response)
}

// CompleteWorkout marks a session as finished. Completion changes
// recovery and habit data, so it triggers a context rebuild.
func (s *APIV1Service) CompleteWorkout(c echo.Context) error {
	ctx := c.Request().Context()
	member, err := currentMember(c)
	if err != nil {
		return err
	}
	sessionID, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}

	sessions, err := s.Store.ListWorkoutSessions(ctx, &store.FindWorkoutSession{ID: &sessionID, MemberID: &member.ID})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to find workout").SetInternal(err)
	}
	if len(sessions) == 0 {
		return echo.NewHTTPError(http.StatusNotFound, "workout not found")
	}
	if sessions[0].EndedTs != nil {
		return echo.NewHTTPError(http.StatusConflict, "workout already completed")
	}

	session, err := s.Store.CompleteWorkoutSession(ctx, &store.CompleteWorkoutSession{
		ID:      sessionID,
		EndedTs: time.Now().Unix(),
	})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to complete workout").SetInternal(err)
	}

	exercises, err := s.Store.ListSessionExercises(ctx, &store.FindSessionExercise{SessionIDs: []int32{session.ID}})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to load workout exercises").SetInternal(err)
	}

	s.rebuildContext(c, member.ID)

	return c.JSON(http.StatusOK, convertWorkoutToResponse(session, exercises))
}
