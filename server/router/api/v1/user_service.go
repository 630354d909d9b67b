package v1

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/hrygo/amity/store"
)

type CreateUserRequest struct {
	Name      string     `json:"name"`
	Email     string     `json:"email"`
	Phone     string     `json:"phone"`
	Country   string     `json:"country"`
	Location  string     `json:"location"`
	Status    string     `json:"status"`
	Goal      store.Goal `json:"goal"`
	Languages []string   `json:"languages"`
}

type SubmitProfileRequest struct {
	NlpProfile  *store.NlpProfile `json:"nlp_profile"`
	TopCategory string            `json:"top_category"`
}

// CreateUser registers a new user. The assessment is not completed yet, so
// the user is invisible to matching until a profile is submitted.
func (s *APIV1Service) CreateUser(c echo.Context) error {
	ctx := c.Request().Context()

	request := &CreateUserRequest{}
	if err := c.Bind(request); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body").SetInternal(err)
	}
	if request.Name == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "name is required")
	}
	if request.Email == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "email is required")
	}
	if request.Country == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "country is required")
	}
	if request.Goal == "" {
		request.Goal = store.GoalSocialConnection
	}
	if !request.Goal.IsValid() {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid goal")
	}

	existing, err := s.Store.ListUserProfiles(ctx, &store.FindUserProfile{})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list users").SetInternal(err)
	}
	for _, user := range existing {
		if user.Email == request.Email {
			return echo.NewHTTPError(http.StatusBadRequest, "email already registered")
		}
	}

	now := time.Now().Unix()
	user, err := s.Store.CreateUserProfile(ctx, &store.UserProfile{
		ID:        uuid.NewString(),
		Name:      request.Name,
		Email:     request.Email,
		Phone:     request.Phone,
		Country:   request.Country,
		Location:  request.Location,
		Status:    request.Status,
		Goal:      request.Goal,
		Languages: request.Languages,
		CreatedTs: now,
		UpdatedTs: now,
	})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to create user").SetInternal(err)
	}
	return c.JSON(http.StatusOK, user)
}

func (s *APIV1Service) GetUser(c echo.Context) error {
	ctx := c.Request().Context()

	user, err := s.Store.GetUserProfile(ctx, c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to get user").SetInternal(err)
	}
	if user == nil {
		return echo.NewHTTPError(http.StatusNotFound, "user not found")
	}
	return c.JSON(http.StatusOK, user)
}

// SubmitProfile stores the analyzed assessment profile, marks the
// assessment complete, and upserts the user's embedding so they become
// visible to matching.
func (s *APIV1Service) SubmitProfile(c echo.Context) error {
	ctx := c.Request().Context()
	userID := c.Param("id")

	request := &SubmitProfileRequest{}
	if err := c.Bind(request); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body").SetInternal(err)
	}
	if request.NlpProfile == nil {
		return echo.NewHTTPError(http.StatusBadRequest, "nlp_profile is required")
	}

	existing, err := s.Store.GetUserProfile(ctx, userID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to get user").SetInternal(err)
	}
	if existing == nil {
		return echo.NewHTTPError(http.StatusNotFound, "user not found")
	}

	completed := true
	user, err := s.Store.UpdateUserProfile(ctx, &store.UpdateUserProfile{
		ID:                  userID,
		NlpProfile:          request.NlpProfile,
		TopCategory:         &request.TopCategory,
		AssessmentCompleted: &completed,
	})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to update user").SetInternal(err)
	}

	if err := s.Index.Upsert(ctx, user, user.NlpProfile); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to index profile").SetInternal(err)
	}
	return c.JSON(http.StatusOK, user)
}
