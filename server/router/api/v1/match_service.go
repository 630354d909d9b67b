package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/hrygo/amity/match"
	"github.com/hrygo/amity/store"
)

type MatchesResponse struct {
	UserID          string             `json:"user_id"`
	Goal            store.Goal         `json:"goal"`
	Matches         []*match.MatchCard `json:"matches"`
	TotalCandidates int                `json:"total_candidates"`
}

// GetMatches runs the matching pipeline for one user and returns the
// recommendation cards alongside the candidate pool size.
func (s *APIV1Service) GetMatches(c echo.Context) error {
	ctx := c.Request().Context()
	userID := c.Param("id")

	users, err := s.Store.ListUserProfiles(ctx, &store.FindUserProfile{})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list users").SetInternal(err)
	}

	cards, err := s.Engine.FindMatches(ctx, userID, users, s.Profile.MatchTopN)
	if err != nil {
		switch {
		case errors.Is(err, match.ErrUserNotFound):
			return echo.NewHTTPError(http.StatusNotFound, "user not found")
		case errors.Is(err, match.ErrAssessmentNotCompleted):
			return echo.NewHTTPError(http.StatusBadRequest, "assessment not completed")
		default:
			return echo.NewHTTPError(http.StatusInternalServerError, "failed to find matches").SetInternal(err)
		}
	}

	goal := store.GoalSocialConnection
	totalCandidates := 0
	for _, user := range users {
		if user.ID == userID {
			if user.Goal != "" {
				goal = user.Goal
			}
			continue
		}
		if user.AssessmentCompleted {
			totalCandidates++
		}
	}

	return c.JSON(http.StatusOK, &MatchesResponse{
		UserID:          userID,
		Goal:            goal,
		Matches:         cards,
		TotalCandidates: totalCandidates,
	})
}
