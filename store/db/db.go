package db

import (
	"github.com/pkg/errors"

	"github.com/hrygo/amity/internal/profile"
	"github.com/hrygo/amity/store"
	"github.com/hrygo/amity/store/db/jsonfile"
	"github.com/hrygo/amity/store/db/postgres"
	"github.com/hrygo/amity/store/db/sqlite"
)

// NewDBDriver creates a new DB driver based on the profile.
func NewDBDriver(profile *profile.Profile) (store.Driver, error) {
	switch profile.Driver {
	case "jsonfile":
		return jsonfile.NewDB(profile)
	case "sqlite":
		return sqlite.NewDB(profile)
	case "postgres":
		return postgres.NewDB(profile)
	default:
		return nil, errors.Errorf("unknown db driver %q", profile.Driver)
	}
}
