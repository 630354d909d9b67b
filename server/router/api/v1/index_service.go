package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/hrygo/amity/store"
)

func (s *APIV1Service) GetIndexStats(c echo.Context) error {
	stats, err := s.Index.Stats(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to read index stats").SetInternal(err)
	}
	return c.JSON(http.StatusOK, stats)
}

// RebuildIndex recomputes every embedding from the authoritative user
// records, e.g. after switching the embedding model.
func (s *APIV1Service) RebuildIndex(c echo.Context) error {
	ctx := c.Request().Context()

	users, err := s.Store.ListUserProfiles(ctx, &store.FindUserProfile{})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list users").SetInternal(err)
	}
	if err := s.Index.Rebuild(ctx, users); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to rebuild index").SetInternal(err)
	}

	stats, err := s.Index.Stats(ctx)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to read index stats").SetInternal(err)
	}
	return c.JSON(http.StatusOK, stats)
}
