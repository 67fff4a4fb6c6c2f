package v1

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/labstack/echo/v4"
	"github.com/lithammer/shortuuid/v4"

	"github.com/repcircle/repcircle/ai/coach"
	"github.com/repcircle/repcircle/store"
)

// autoTitleLimit caps the conversation title derived from the first
// message.
const autoTitleLimit = 50

type conversationResponse struct {
	UID       string           `json:"uid"`
	Title     string           `json:"title"`
	Slots     store.CoachSlots `json:"slots"`
	CreatedTs int64            `json:"createdTs"`
	UpdatedTs int64            `json:"updatedTs"`
}

func convertConversationToResponse(conversation *store.CoachConversation) *conversationResponse {
	return &conversationResponse{
		UID:       conversation.UID,
		Title:     conversation.Title,
		Slots:     conversation.Slots,
		CreatedTs: conversation.CreatedTs,
		UpdatedTs: conversation.UpdatedTs,
	}
}

type createConversationRequest struct {
	Title string `json:"title"`
}

func (s *APIV1Service) CreateCoachConversation(c echo.Context) error {
	ctx := c.Request().Context()
	member, err := currentMember(c)
	if err != nil {
		return err
	}

	request := &createConversationRequest{}
	if err := c.Bind(request); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body").SetInternal(err)
	}

	conversation, err := s.Store.CreateCoachConversation(ctx, &store.CreateCoachConversation{
		UID:      shortuuid.New(),
		Title:    request.Title,
		MemberID: member.ID,
	})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to create conversation").SetInternal(err)
	}

	return c.JSON(http.StatusOK, convertConversationToResponse(conversation))
}

func (s *APIV1Service) ListCoachConversations(c echo.Context) error {
	ctx := c.Request().Context()
	member, err := currentMember(c)
	if err != nil {
		return err
	}

	normal := store.Normal
	conversations, err := s.Store.ListCoachConversations(ctx, &store.FindCoachConversation{
		MemberID:  &member.ID,
		RowStatus: &normal,
	})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list conversations").SetInternal(err)
	}

	response := make([]*conversationResponse, 0, len(conversations))
	for _, conversation := range conversations {
		response = append(response, convertConversationToResponse(conversation))
	}
	return c.JSON(http.StatusOK, response)
}

type postMessageRequest struct {
	Message string `json:"message"`
}

type coachMessageResponse struct {
	ConversationUID string               `json:"conversationUid"`
	Decision        string               `json:"decision"`
	Message         string               `json:"message"`
	MessageHTML     string               `json:"messageHtml,omitempty"`
	Clarification   *coach.Clarification `json:"clarification,omitempty"`
	Slots           store.CoachSlots     `json:"slots"`
}

// PostCoachMessage runs one full coaching turn: throttle, merge slots,
// load context, decide, act on the decision, persist both turns.
func (s *APIV1Service) PostCoachMessage(c echo.Context) error {
	ctx := c.Request().Context()
	member, err := currentMember(c)
	if err != nil {
		return err
	}
	if s.Agent == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "coach is not configured on this instance")
	}

	request := &postMessageRequest{}
	if err := c.Bind(request); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body").SetInternal(err)
	}
	message := strings.TrimSpace(request.Message)
	if message == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "message is required")
	}

	conversation, err := s.findOwnedConversation(ctx, c.Param("uid"), member.ID)
	if err != nil {
		return err
	}

	if !s.chatLimiter(member.ID).Allow() {
		return echo.NewHTTPError(http.StatusTooManyRequests, "coaching rate limit reached, try again shortly")
	}

	// Slots extracted from the raw message merge onto the conversation
	// before the agent sees it, so a filled slot is never asked again.
	slots := conversation.Slots
	if slots.Merge(coach.ExtractImplicitContext(message)) {
		updated, err := s.Store.UpdateCoachConversation(ctx, &store.UpdateCoachConversation{
			ID:    conversation.ID,
			Slots: &slots,
		})
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, "failed to update conversation slots").SetInternal(err)
		}
		conversation = updated
	}

	loader := s.newContextLoader(member.ID, conversation.ID)
	decideRequest := &coach.DecideRequest{
		Message:  message,
		Snapshot: loader.Snapshot(ctx),
		Slots:    slots,
		Memories: loader.Memories(ctx, message),
		Turns:    loader.Turns(ctx),
	}

	decision, err := s.Agent.Decide(ctx, decideRequest)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadGateway, "coach is unavailable right now").SetInternal(err)
	}

	content, err := s.actOnDecision(ctx, conversation.ID, member.ID, loader, decideRequest, decision)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadGateway, "coach is unavailable right now").SetInternal(err)
	}

	if err := s.persistTurns(ctx, conversation, message, content, decision); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to persist conversation turns").SetInternal(err)
	}

	html := ""
	if decision.Type != coach.DecisionAskClarification {
		html, err = s.MarkdownService.Render(content)
		if err != nil {
			slog.Warn("markdown render failed", "conversationID", conversation.ID, "error", err)
			html = ""
		}
	}

	return c.JSON(http.StatusOK, &coachMessageResponse{
		ConversationUID: conversation.UID,
		Decision:        string(decision.Type),
		Message:         content,
		MessageHTML:     html,
		Clarification:   decision.Clarification,
		Slots:           slots,
	})
}

// actOnDecision turns a validated decision into the assistant's reply.
// Every decision type is handled; an unknown type cannot reach here
// because Decide validates before returning.
func (s *APIV1Service) actOnDecision(ctx context.Context, conversationID, memberID int32, loader *contextLoader, decideRequest *coach.DecideRequest, decision *coach.Decision) (string, error) {
	switch decision.Type {
	case coach.DecisionAskClarification:
		return decision.Clarification.Question, nil
	case coach.DecisionGenerateWorkout:
		return s.Agent.GenerateWorkout(ctx, conversationID, decideRequest, decision.WorkoutParams)
	case coach.DecisionProvideAdvice:
		return s.Agent.Advise(ctx, conversationID, decideRequest)
	case coach.DecisionInvokeTool:
		result, err := s.Agent.ExecuteTool(ctx, memberID, loader.Snapshot(ctx), decision.ToolCall)
		if err != nil {
			slog.Warn("tool execution failed, answering without it",
				"conversationID", conversationID,
				"tool", decision.ToolCall.Name,
				"error", err,
			)
			return s.Agent.Advise(ctx, conversationID, decideRequest)
		}
		return s.Agent.AnswerWithTool(ctx, conversationID, decideRequest, result)
	default:
		return s.Agent.Advise(ctx, conversationID, decideRequest)
	}
}

// persistTurns records the exchange, user turn first. The assistant
// turn carries the serialized decision for replay and for counting
// clarifications on later turns.
func (s *APIV1Service) persistTurns(ctx context.Context, conversation *store.CoachConversation, message, content string, decision *coach.Decision) error {
	if _, err := s.Store.CreateCoachTurn(ctx, &store.CreateCoachTurn{
		ConversationID: conversation.ID,
		Role:           store.TurnRoleUser,
		Content:        message,
	}); err != nil {
		return err
	}
	if _, err := s.Store.CreateCoachTurn(ctx, &store.CreateCoachTurn{
		ConversationID: conversation.ID,
		Role:           store.TurnRoleAssistant,
		Content:        content,
		Decision:       decision.Raw(),
	}); err != nil {
		return err
	}

	if conversation.Title == "" {
		title := autoTitle(message)
		if _, err := s.Store.UpdateCoachConversation(ctx, &store.UpdateCoachConversation{
			ID:    conversation.ID,
			Title: &title,
		}); err != nil {
			slog.Warn("failed to set conversation title", "conversationID", conversation.ID, "error", err)
		}
	}
	return nil
}

type turnResponse struct {
	ID        int64           `json:"id"`
	Role      string          `json:"role"`
	Content   string          `json:"content"`
	Decision  json.RawMessage `json:"decision,omitempty"`
	CreatedTs int64           `json:"createdTs"`
}

func (s *APIV1Service) ListCoachMessages(c echo.Context) error {
	ctx := c.Request().Context()
	member, err := currentMember(c)
	if err != nil {
		return err
	}

	conversation, err := s.findOwnedConversation(ctx, c.Param("uid"), member.ID)
	if err != nil {
		return err
	}

	find := &store.FindCoachTurn{ConversationID: conversation.ID}
	if raw := c.QueryParam("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid limit")
		}
		find.Limit = &limit
	}
	turns, err := s.Store.ListCoachTurns(ctx, find)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list turns").SetInternal(err)
	}

	response := make([]*turnResponse, 0, len(turns))
	for _, turn := range turns {
		response = append(response, &turnResponse{
			ID:        turn.ID,
			Role:      string(turn.Role),
			Content:   turn.Content,
			Decision:  turn.Decision,
			CreatedTs: turn.CreatedTs,
		})
	}
	return c.JSON(http.StatusOK, response)
}

func (s *APIV1Service) findOwnedConversation(ctx context.Context, uid string, memberID int32) (*store.CoachConversation, error) {
	if uid == "" {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "conversation uid is required")
	}
	conversation, err := s.Store.GetCoachConversation(ctx, &store.FindCoachConversation{
		UID:      &uid,
		MemberID: &memberID,
	})
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusInternalServerError, "failed to find conversation").SetInternal(err)
	}
	if conversation == nil {
		return nil, echo.NewHTTPError(http.StatusNotFound, "conversation not found")
	}
	return conversation, nil
}

// autoTitle derives a conversation title from the first message,
// truncated at a word boundary.
func autoTitle(message string) string {
	if utf8.RuneCountInString(message) <= autoTitleLimit {
		return message
	}
	runes := []rune(message)
	cut := string(runes[:autoTitleLimit])
	if idx := strings.LastIndex(cut, " "); idx > 0 {
		cut = cut[:idx]
	}
	return cut + "…"
}
