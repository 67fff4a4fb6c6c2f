package v1

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/repcircle/repcircle/ai/memory"
	"github.com/repcircle/repcircle/store"
)

type memoryNoteResponse struct {
	UID       string `json:"uid"`
	Content   string `json:"content"`
	Category  string `json:"category"`
	CreatedTs int64  `json:"createdTs"`
}

func convertMemoryNoteToResponse(note *store.MemoryNote) *memoryNoteResponse {
	return &memoryNoteResponse{
		UID:       note.UID,
		Content:   note.Content,
		Category:  string(note.Category),
		CreatedTs: note.CreatedTs,
	}
}

type createMemoryRequest struct {
	Content  string `json:"content"`
	Category string `json:"category"`
}

// CreateCoachMemory stores a durable note about the member. Content
// passes through the guardrail; a rejection returns the reason code,
// never the detected content.
func (s *APIV1Service) CreateCoachMemory(c echo.Context) error {
	ctx := c.Request().Context()
	member, err := currentMember(c)
	if err != nil {
		return err
	}

	request := &createMemoryRequest{}
	if err := c.Bind(request); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body").SetInternal(err)
	}
	if request.Content == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "content is required")
	}

	note, err := s.Memories.Remember(ctx, member.ID, request.Content, store.MemoryNoteCategory(request.Category))
	if err != nil {
		var rejection *memory.RejectionError
		if errors.As(err, &rejection) {
			s.Exporter.RecordGuardrailRejection(rejection.Reason)
			return echo.NewHTTPError(http.StatusBadRequest, "note rejected: "+rejection.Reason)
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to save note").SetInternal(err)
	}

	return c.JSON(http.StatusOK, convertMemoryNoteToResponse(note))
}

func (s *APIV1Service) ListCoachMemories(c echo.Context) error {
	ctx := c.Request().Context()
	member, err := currentMember(c)
	if err != nil {
		return err
	}

	find := &store.FindMemoryNote{MemberID: &member.ID}
	if raw := c.QueryParam("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid limit")
		}
		find.Limit = &limit
	}
	notes, err := s.Store.ListMemoryNotes(ctx, find)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list notes").SetInternal(err)
	}

	response := make([]*memoryNoteResponse, 0, len(notes))
	for _, note := range notes {
		response = append(response, convertMemoryNoteToResponse(note))
	}
	return c.JSON(http.StatusOK, response)
}
