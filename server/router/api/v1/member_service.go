package v1

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/repcircle/repcircle/store"
)

type memberResponse struct {
	ID               int32    `json:"id"`
	Username         string   `json:"username"`
	DisplayName      string   `json:"displayName"`
	FitnessLevel     string   `json:"fitnessLevel"`
	TrainingAgeYears float64  `json:"trainingAgeYears"`
	WeightKg         *float64 `json:"weightKg,omitempty"`
	BodyFatPct       *float64 `json:"bodyFatPct,omitempty"`
	CreatedTs        int64    `json:"createdTs"`
	UpdatedTs        int64    `json:"updatedTs"`
}

func convertMemberToResponse(member *store.Member) *memberResponse {
	return &memberResponse{
		ID:               member.ID,
		Username:         member.Username,
		DisplayName:      member.DisplayName,
		FitnessLevel:     string(member.FitnessLevel),
		TrainingAgeYears: member.TrainingAgeYears,
		WeightKg:         member.WeightKg,
		BodyFatPct:       member.BodyFatPct,
		CreatedTs:        member.CreatedTs,
		UpdatedTs:        member.UpdatedTs,
	}
}

type createMemberRequest struct {
	Username         string   `json:"username"`
	DisplayName      string   `json:"displayName"`
	FitnessLevel     string   `json:"fitnessLevel"`
	TrainingAgeYears float64  `json:"trainingAgeYears"`
	WeightKg         *float64 `json:"weightKg"`
	BodyFatPct       *float64 `json:"bodyFatPct"`
}

func (s *APIV1Service) CreateMember(c echo.Context) error {
	ctx := c.Request().Context()

	request := &createMemberRequest{}
	if err := c.Bind(request); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body").SetInternal(err)
	}
	if request.Username == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "username is required")
	}
	level, err := parseFitnessLevel(request.FitnessLevel)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	existing, err := s.Store.GetMember(ctx, &store.FindMember{Username: &request.Username})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to find member").SetInternal(err)
	}
	if existing != nil {
		return echo.NewHTTPError(http.StatusConflict, "username already taken")
	}

	member, err := s.Store.CreateMember(ctx, &store.CreateMember{
		Username:         request.Username,
		DisplayName:      request.DisplayName,
		FitnessLevel:     level,
		TrainingAgeYears: request.TrainingAgeYears,
		WeightKg:         request.WeightKg,
		BodyFatPct:       request.BodyFatPct,
	})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to create member").SetInternal(err)
	}

	return c.JSON(http.StatusOK, convertMemberToResponse(member))
}

func (s *APIV1Service) GetMyMember(c echo.Context) error {
	member, err := currentMember(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, convertMemberToResponse(member))
}

type updateMemberRequest struct {
	DisplayName      *string  `json:"displayName"`
	FitnessLevel     *string  `json:"fitnessLevel"`
	TrainingAgeYears *float64 `json:"trainingAgeYears"`
	WeightKg         *float64 `json:"weightKg"`
	BodyFatPct       *float64 `json:"bodyFatPct"`
}

// UpdateMyMember patches profile fields. Fitness level and weight feed
// the context snapshot, so a successful update triggers a rebuild.
func (s *APIV1Service) UpdateMyMember(c echo.Context) error {
	ctx := c.Request().Context()
	member, err := currentMember(c)
	if err != nil {
		return err
	}

	request := &updateMemberRequest{}
	if err := c.Bind(request); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body").SetInternal(err)
	}

	update := &store.UpdateMember{
		ID:               member.ID,
		DisplayName:      request.DisplayName,
		TrainingAgeYears: request.TrainingAgeYears,
		WeightKg:         request.WeightKg,
		BodyFatPct:       request.BodyFatPct,
	}
	if request.FitnessLevel != nil {
		level, err := parseFitnessLevel(*request.FitnessLevel)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		update.FitnessLevel = &level
	}

	updated, err := s.Store.UpdateMember(ctx, update)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to update member").SetInternal(err)
	}

	s.rebuildContext(c, member.ID)

	return c.JSON(http.StatusOK, convertMemberToResponse(updated))
}

func parseFitnessLevel(raw string) (store.FitnessLevel, error) {
	switch store.FitnessLevel(raw) {
	case store.FitnessLevelBeginner, store.FitnessLevelIntermediate, store.FitnessLevelAdvanced:
		return store.FitnessLevel(raw), nil
	default:
		return "", errors.New("fitness level must be beginner, intermediate or advanced")
	}
}
