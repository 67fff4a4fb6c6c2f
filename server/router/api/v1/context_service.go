package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/repcircle/repcircle/store"
)

type contextResponse struct {
	State    string                       `json:"state"`
	Snapshot *store.MemberContextSnapshot `json:"snapshot"`
}

// GetMyContext serves the member's coaching context. A stale snapshot
// is served as-is with its state marked; an absent one is computed
// live before responding.
func (s *APIV1Service) GetMyContext(c echo.Context) error {
	ctx := c.Request().Context()
	member, err := currentMember(c)
	if err != nil {
		return err
	}

	snapshot, state, err := s.Snapshots.Get(ctx, member.ID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to load member context").SetInternal(err)
	}
	s.Exporter.RecordSnapshotRead(string(state))

	return c.JSON(http.StatusOK, &contextResponse{
		State:    string(state),
		Snapshot: snapshot,
	})
}

// RebuildMyContext recomputes the snapshot from the source tables.
func (s *APIV1Service) RebuildMyContext(c echo.Context) error {
	ctx := c.Request().Context()
	member, err := currentMember(c)
	if err != nil {
		return err
	}

	snapshot, err := s.Snapshots.Rebuild(ctx, member.ID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to rebuild member context").SetInternal(err)
	}

	return c.JSON(http.StatusOK, &contextResponse{
		State:    "fresh",
		Snapshot: snapshot,
	})
}
