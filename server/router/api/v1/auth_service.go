package v1

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/repcircle/repcircle/server/auth"
	"github.com/repcircle/repcircle/store"
)

type createSessionRequest struct {
	Username string `json:"username"`
}

type createSessionResponse struct {
	Token     string          `json:"token"`
	ExpiresTs int64           `json:"expiresTs"`
	Member    *memberResponse `json:"member"`
}

// CreateSession exchanges a username for a bearer token. Identity is
// asserted, not proven: the engine sits behind the main application,
// which has already authenticated the member.
func (s *APIV1Service) CreateSession(c echo.Context) error {
	ctx := c.Request().Context()

	request := &createSessionRequest{}
	if err := c.Bind(request); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body").SetInternal(err)
	}
	if request.Username == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "username is required")
	}

	normal := store.Normal
	member, err := s.Store.GetMember(ctx, &store.FindMember{
		Username:  &request.Username,
		RowStatus: &normal,
	})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to find member").SetInternal(err)
	}
	if member == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "member not found")
	}

	now := time.Now()
	token, err := auth.GenerateSessionToken(member.ID, s.Secret, now)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to issue session token").SetInternal(err)
	}

	return c.JSON(http.StatusOK, &createSessionResponse{
		Token:     token,
		ExpiresTs: now.Add(auth.AccessTokenDuration).Unix(),
		Member:    convertMemberToResponse(member),
	})
}
