// Package v1 implements the REST API: user registration, assessment
// profile submission, and match retrieval.
package v1

import (
	"github.com/labstack/echo/v4"

	"github.com/hrygo/amity/internal/profile"
	"github.com/hrygo/amity/match"
	"github.com/hrygo/amity/store"
	"github.com/hrygo/amity/vectordb"
)

type APIV1Service struct {
	Profile *profile.Profile
	Store   *store.Store
	Index   *vectordb.Index
	Engine  *match.Engine
}

func NewAPIV1Service(profile *profile.Profile, store *store.Store, index *vectordb.Index, engine *match.Engine) *APIV1Service {
	return &APIV1Service{
		Profile: profile,
		Store:   store,
		Index:   index,
		Engine:  engine,
	}
}

// RegisterRoutes attaches the v1 API to the given Echo instance.
func (s *APIV1Service) RegisterRoutes(echoServer *echo.Echo) {
	group := echoServer.Group("/api/v1")

	group.POST("/users", s.CreateUser)
	group.GET("/users/:id", s.GetUser)
	group.POST("/users/:id/profile", s.SubmitProfile)
	group.GET("/matches/:id", s.GetMatches)
	group.GET("/index/stats", s.GetIndexStats)
	group.POST("/index/rebuild", s.RebuildIndex)
}
