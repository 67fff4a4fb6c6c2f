package v1

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/repcircle/repcircle/store"
)

type goalResponse struct {
	ID           int32   `json:"id"`
	Title        string  `json:"title"`
	Category     string  `json:"category"`
	TargetValue  float64 `json:"targetValue"`
	CurrentValue float64 `json:"currentValue"`
	Unit         string  `json:"unit"`
	TargetDate   *int64  `json:"targetDate,omitempty"`
	RowStatus    string  `json:"rowStatus"`
	CreatedTs    int64   `json:"createdTs"`
	UpdatedTs    int64   `json:"updatedTs"`
}

func convertGoalToResponse(goal *store.FitnessGoal) *goalResponse {
	return &goalResponse{
		ID:           goal.ID,
		Title:        goal.Title,
		Category:     string(goal.Category),
		TargetValue:  goal.TargetValue,
		CurrentValue: goal.CurrentValue,
		Unit:         goal.Unit,
		TargetDate:   goal.TargetDate,
		RowStatus:    string(goal.RowStatus),
		CreatedTs:    goal.CreatedTs,
		UpdatedTs:    goal.UpdatedTs,
	}
}

type createGoalRequest struct {
	Title        string  `json:"title"`
	Category     string  `json:"category"`
	TargetValue  float64 `json:"targetValue"`
	CurrentValue float64 `json:"currentValue"`
	Unit         string  `json:"unit"`
	TargetDate   *int64  `json:"targetDate"`
}

func (s *APIV1Service) CreateGoal(c echo.Context) error {
	ctx := c.Request().Context()
	member, err := currentMember(c)
	if err != nil {
		return err
	}

	request := &createGoalRequest{}
	if err := c.Bind(request); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body").SetInternal(err)
	}
	if request.Title == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "title is required")
	}
	category, err := parseGoalCategory(request.Category)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	goal, err := s.Store.CreateFitnessGoal(ctx, &store.CreateFitnessGoal{
		MemberID:     member.ID,
		Title:        request.Title,
		Category:     category,
		TargetValue:  request.TargetValue,
		CurrentValue: request.CurrentValue,
		Unit:         request.Unit,
		TargetDate:   request.TargetDate,
	})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to create goal").SetInternal(err)
	}

	s.rebuildContext(c, member.ID)

	return c.JSON(http.StatusOK, convertGoalToResponse(goal))
}

func (s *APIV1Service) ListGoals(c echo.Context) error {
	ctx := c.Request().Context()
	member, err := currentMember(c)
	if err != nil {
		return err
	}

	find := &store.FindFitnessGoal{MemberID: &member.ID}
	if c.QueryParam("state") != "archived" {
		normal := store.Normal
		find.RowStatus = &normal
	}
	goals, err := s.Store.ListFitnessGoals(ctx, find)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list goals").SetInternal(err)
	}

	response := make([]*goalResponse, 0, len(goals))
	for _, goal := range goals {
		response = append(response, convertGoalToResponse(goal))
	}
	return c.JSON(http.StatusOK, response)
}

type updateGoalRequest struct {
	Title        *string  `json:"title"`
	CurrentValue *float64 `json:"currentValue"`
	TargetValue  *float64 `json:"targetValue"`
	TargetDate   *int64   `json:"targetDate"`
	Archived     *bool    `json:"archived"`
}

// UpdateGoal patches goal progress. Goal changes alter the coaching
// context, so a successful update triggers a rebuild.
func (s *APIV1Service) UpdateGoal(c echo.Context) error {
	ctx := c.Request().Context()
	member, err := currentMember(c)
	if err != nil {
		return err
	}
	goalID, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}

	request := &updateGoalRequest{}
	if err := c.Bind(request); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body").SetInternal(err)
	}

	goals, err := s.Store.ListFitnessGoals(ctx, &store.FindFitnessGoal{ID: &goalID, MemberID: &member.ID})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to find goal").SetInternal(err)
	}
	if len(goals) == 0 {
		return echo.NewHTTPError(http.StatusNotFound, "goal not found")
	}

	update := &store.UpdateFitnessGoal{
		ID:           goalID,
		Title:        request.Title,
		CurrentValue: request.CurrentValue,
		TargetValue:  request.TargetValue,
		TargetDate:   request.TargetDate,
	}
	if request.Archived != nil {
		status := store.Normal
		if *request.Archived {
			status = store.Archived
		}
		update.RowStatus = &status
	}

	updated, err := s.Store.UpdateFitnessGoal(ctx, update)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to update goal").SetInternal(err)
	}

	s.rebuildContext(c, member.ID)

	return c.JSON(http.StatusOK, convertGoalToResponse(updated))
}

type limitationResponse struct {
	ID          int32    `json:"id"`
	Type        string   `json:"type"`
	Description string   `json:"description"`
	Severity    string   `json:"severity"`
	BodyAreas   []string `json:"bodyAreas"`
	Active      bool     `json:"active"`
	CreatedTs   int64    `json:"createdTs"`
	UpdatedTs   int64    `json:"updatedTs"`
}

func convertLimitationToResponse(limitation *store.Limitation) *limitationResponse {
	return &limitationResponse{
		ID:          limitation.ID,
		Type:        string(limitation.Type),
		Description: limitation.Description,
		Severity:    string(limitation.Severity),
		BodyAreas:   limitation.BodyAreas,
		Active:      limitation.Active,
		CreatedTs:   limitation.CreatedTs,
		UpdatedTs:   limitation.UpdatedTs,
	}
}

type createLimitationRequest struct {
	Type        string   `json:"type"`
	Description string   `json:"description"`
	Severity    string   `json:"severity"`
	BodyAreas   []string `json:"bodyAreas"`
}

func (s *APIV1Service) CreateLimitation(c echo.Context) error {
	ctx := c.Request().Context()
	member, err := currentMember(c)
	if err != nil {
		return err
	}

	request := &createLimitationRequest{}
	if err := c.Bind(request); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body").SetInternal(err)
	}
	if request.Description == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "description is required")
	}
	limitationType, err := parseLimitationType(request.Type)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	severity, err := parseLimitationSeverity(request.Severity)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	limitation, err := s.Store.CreateLimitation(ctx, &store.CreateLimitation{
		MemberID:    member.ID,
		Type:        limitationType,
		Description: request.Description,
		Severity:    severity,
		BodyAreas:   request.BodyAreas,
	})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to create limitation").SetInternal(err)
	}

	s.rebuildContext(c, member.ID)

	return c.JSON(http.StatusOK, convertLimitationToResponse(limitation))
}

func (s *APIV1Service) ListLimitations(c echo.Context) error {
	ctx := c.Request().Context()
	member, err := currentMember(c)
	if err != nil {
		return err
	}

	find := &store.FindLimitation{MemberID: &member.ID}
	if c.QueryParam("state") != "all" {
		active := true
		find.Active = &active
	}
	limitations, err := s.Store.ListLimitations(ctx, find)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list limitations").SetInternal(err)
	}

	response := make([]*limitationResponse, 0, len(limitations))
	for _, limitation := range limitations {
		response = append(response, convertLimitationToResponse(limitation))
	}
	return c.JSON(http.StatusOK, response)
}

type updateLimitationRequest struct {
	Description *string `json:"description"`
	Severity    *string `json:"severity"`
	Active      *bool   `json:"active"`
}

// UpdateLimitation patches a limitation, most commonly deactivating a
// healed injury. The change feeds the snapshot, so it triggers a
// rebuild.
func (s *APIV1Service) UpdateLimitation(c echo.Context) error {
	ctx := c.Request().Context()
	member, err := currentMember(c)
	if err != nil {
		return err
	}
	limitationID, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}

	request := &updateLimitationRequest{}
	if err := c.Bind(request); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body").SetInternal(err)
	}

	limitations, err := s.Store.ListLimitations(ctx, &store.FindLimitation{ID: &limitationID, MemberID: &member.ID})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to find limitation").SetInternal(err)
	}
	if len(limitations) == 0 {
		return echo.NewHTTPError(http.StatusNotFound, "limitation not found")
	}

	update := &store.UpdateLimitation{
		ID:          limitationID,
		Description: request.Description,
		Active:      request.Active,
	}
	if request.Severity != nil {
		severity, err := parseLimitationSeverity(*request.Severity)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		update.Severity = &severity
	}

	updated, err := s.Store.UpdateLimitation(ctx, update)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to update limitation").SetInternal(err)
	}

	s.rebuildContext(c, member.ID)

	return c.JSON(http.StatusOK, convertLimitationToResponse(updated))
}

type personalRecordResponse struct {
	ID           int32   `json:"id"`
	ExerciseName string  `json:"exerciseName"`
	Value        float64 `json:"value"`
	Unit         string  `json:"unit"`
	RepMax       *int32  `json:"repMax,omitempty"`
	AchievedTs   int64   `json:"achievedTs"`
}

func convertPersonalRecordToResponse(record *store.PersonalRecord) *personalRecordResponse {
	return &personalRecordResponse{
		ID:           record.ID,
		ExerciseName: record.ExerciseName,
		Value:        record.Value,
		Unit:         record.Unit,
		RepMax:       record.RepMax,
		AchievedTs:   record.AchievedTs,
	}
}

type createPersonalRecordRequest struct {
	ExerciseName string  `json:"exerciseName"`
	Value        float64 `json:"value"`
	Unit         string  `json:"unit"`
	RepMax       *int32  `json:"repMax"`
	AchievedTs   *int64  `json:"achievedTs"`
}

func (s *APIV1Service) CreatePersonalRecord(c echo.Context) error {
	ctx := c.Request().Context()
	member, err := currentMember(c)
	if err != nil {
		return err
	}

	request := &createPersonalRecordRequest{}
	if err := c.Bind(request); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body").SetInternal(err)
	}
	if request.ExerciseName == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "exerciseName is required")
	}
	if request.Value <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "value must be positive")
	}

	achievedTs := time.Now().Unix()
	if request.AchievedTs != nil {
		achievedTs = *request.AchievedTs
	}

	record, err := s.Store.CreatePersonalRecord(ctx, &store.CreatePersonalRecord{
		MemberID:     member.ID,
		ExerciseName: request.ExerciseName,
		Value:        request.Value,
		Unit:         request.Unit,
		RepMax:       request.RepMax,
		AchievedTs:   achievedTs,
	})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to create personal record").SetInternal(err)
	}

	s.rebuildContext(c, member.ID)

	return c.JSON(http.StatusOK, convertPersonalRecordToResponse(record))
}

func (s *APIV1Service) ListPersonalRecords(c echo.Context) error {
	ctx := c.Request().Context()
	member, err := currentMember(c)
	if err != nil {
		return err
	}

	records, err := s.Store.ListPersonalRecords(ctx, &store.FindPersonalRecord{MemberID: &member.ID})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list personal records").SetInternal(err)
	}

	response := make([]*personalRecordResponse, 0, len(records))
	for _, record := range records {
		response = append(response, convertPersonalRecordToResponse(record))
	}
	return c.JSON(http.StatusOK, response)
}

type skillResponse struct {
	ID        int32  `json:"id"`
	Name      string `json:"name"`
	Category  string `json:"category"`
	Status    string `json:"status"`
	CreatedTs int64  `json:"createdTs"`
	UpdatedTs int64  `json:"updatedTs"`
}

func convertSkillToResponse(skill *store.Skill) *skillResponse {
	return &skillResponse{
		ID:        skill.ID,
		Name:      skill.Name,
		Category:  skill.Category,
		Status:    string(skill.Status),
		CreatedTs: skill.CreatedTs,
		UpdatedTs: skill.UpdatedTs,
	}
}

type createSkillRequest struct {
	Name     string `json:"name"`
	Category string `json:"category"`
	Status   string `json:"status"`
}

func (s *APIV1Service) CreateSkill(c echo.Context) error {
	ctx := c.Request().Context()
	member, err := currentMember(c)
	if err != nil {
		return err
	}

	request := &createSkillRequest{}
	if err := c.Bind(request); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body").SetInternal(err)
	}
	if request.Name == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "name is required")
	}
	status, err := parseSkillStatus(request.Status)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	skill, err := s.Store.CreateSkill(ctx, &store.CreateSkill{
		MemberID: member.ID,
		Name:     request.Name,
		Category: request.Category,
		Status:   status,
	})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to create skill").SetInternal(err)
	}

	s.rebuildContext(c, member.ID)

	return c.JSON(http.StatusOK, convertSkillToResponse(skill))
}

func (s *APIV1Service) ListSkills(c echo.Context) error {
	ctx := c.Request().Context()
	member, err := currentMember(c)
	if err != nil {
		return err
	}

	find := &store.FindSkill{MemberID: &member.ID}
	if raw := c.QueryParam("status"); raw != "" {
		status, err := parseSkillStatus(raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		find.Status = &status
	}
	skills, err := s.Store.ListSkills(ctx, find)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list skills").SetInternal(err)
	}

	response := make([]*skillResponse, 0, len(skills))
	for _, skill := range skills {
		response = append(response, convertSkillToResponse(skill))
	}
	return c.JSON(http.StatusOK, response)
}

func parseGoalCategory(raw string) (store.GoalCategory, error) {
	switch store.GoalCategory(raw) {
	case store.GoalCategoryStrength, store.GoalCategoryEndurance, store.GoalCategoryWeightLoss,
		store.GoalCategoryMuscleGain, store.GoalCategorySkill, store.GoalCategoryHabit:
		return store.GoalCategory(raw), nil
	default:
		return "", errors.New("category must be strength, endurance, weight_loss, muscle_gain, skill or habit")
	}
}

func parseLimitationType(raw string) (store.LimitationType, error) {
	switch store.LimitationType(raw) {
	case store.LimitationTypeInjury, store.LimitationTypeCondition,
		store.LimitationTypeMobility, store.LimitationTypeEquipment:
		return store.LimitationType(raw), nil
	default:
		return "", errors.New("type must be injury, condition, mobility or equipment")
	}
}

func parseLimitationSeverity(raw string) (store.LimitationSeverity, error) {
	switch store.LimitationSeverity(raw) {
	case store.LimitationSeverityMild, store.LimitationSeverityModerate, store.LimitationSeveritySevere:
		return store.LimitationSeverity(raw), nil
	default:
		return "", errors.New("severity must be mild, moderate or severe")
	}
}

func parseSkillStatus(raw string) (store.SkillStatus, error) {
	switch store.SkillStatus(raw) {
	case store.SkillStatusGoal, store.SkillStatusWorkingOn, store.SkillStatusAchieved:
		return store.SkillStatus(raw), nil
	default:
		return "", errors.New("status must be goal, working_on or achieved")
	}
}

// parseIDParam reads a positive int32 path parameter.
func parseIDParam(c echo.Context, name string) (int32, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 32)
	if err != nil || id <= 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	return int32(id), nil
}
