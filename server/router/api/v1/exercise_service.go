package v1

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/repcircle/repcircle/ai/recovery"
	"github.com/repcircle/repcircle/store"
)

type exerciseResponse struct {
	ID           int32    `json:"id"`
	Name         string   `json:"name"`
	Category     string   `json:"category"`
	MuscleGroups []string `json:"muscleGroups"`
	Equipment    []string `json:"equipment"`
}

func convertExerciseToResponse(exercise *store.Exercise) *exerciseResponse {
	return &exerciseResponse{
		ID:           exercise.ID,
		Name:         exercise.Name,
		Category:     exercise.Category,
		MuscleGroups: exercise.MuscleGroups,
		Equipment:    exercise.Equipment,
	}
}

type createExerciseRequest struct {
	Name         string   `json:"name"`
	Category     string   `json:"category"`
	MuscleGroups []string `json:"muscleGroups"`
	Equipment    []string `json:"equipment"`
}

// CreateExercise adds a catalog entry. Muscle groups are checked
// against the recovery model catalog so every logged exercise can be
// classified for recovery.
func (s *APIV1Service) CreateExercise(c echo.Context) error {
	ctx := c.Request().Context()
	if _, err := currentMember(c); err != nil {
		return err
	}

	request := &createExerciseRequest{}
	if err := c.Bind(request); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body").SetInternal(err)
	}
	if request.Name == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "name is required")
	}
	for _, muscle := range request.MuscleGroups {
		if _, ok := recovery.RequiredHours(muscle); !ok {
			message := fmt.Sprintf("unknown muscle group %q, expected one of: %s",
				muscle, strings.Join(recovery.Muscles(), ", "))
			return echo.NewHTTPError(http.StatusBadRequest, message)
		}
	}

	exercise, err := s.Store.CreateExercise(ctx, &store.CreateExercise{
		Name:         request.Name,
		Category:     request.Category,
		MuscleGroups: request.MuscleGroups,
		Equipment:    request.Equipment,
	})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to create exercise").SetInternal(err)
	}

	return c.JSON(http.StatusOK, convertExerciseToResponse(exercise))
}

func (s *APIV1Service) ListExercises(c echo.Context) error {
	ctx := c.Request().Context()
	if _, err := currentMember(c); err != nil {
		return err
	}

	find := &store.FindExercise{}
	if name := c.QueryParam("name"); name != "" {
		find.Name = &name
	}
	exercises, err := s.Store.ListExercises(ctx, find)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list exercises").SetInternal(err)
	}

	response := make([]*exerciseResponse, 0, len(exercises))
	for _, exercise := range exercises {
		response = append(response, convertExerciseToResponse(exercise))
	}
	return c.JSON(http.StatusOK, response)
}
