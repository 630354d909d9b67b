package store

import (
	"context"

	"github.com/hrygo/amity/internal/profile"
)

// Driver is the persistence backend contract. A driver stores the
// authoritative user records and the embedding collection. Embedding writes
// must be atomic with respect to readers: a reader mid-scan never observes a
// torn collection.
type Driver interface {
	Migrate(ctx context.Context) error
	Close() error

	CreateUserProfile(ctx context.Context, create *UserProfile) (*UserProfile, error)
	// GetUserProfile returns (nil, nil) when no record exists.
	GetUserProfile(ctx context.Context, id string) (*UserProfile, error)
	ListUserProfiles(ctx context.Context, find *FindUserProfile) ([]*UserProfile, error)
	UpdateUserProfile(ctx context.Context, update *UpdateUserProfile) (*UserProfile, error)

	UpsertUserEmbedding(ctx context.Context, upsert *UserEmbedding) (*UserEmbedding, error)
	// GetUserEmbedding returns (nil, nil) when no record exists.
	GetUserEmbedding(ctx context.Context, userID string) (*UserEmbedding, error)
	ListUserEmbeddings(ctx context.Context, find *FindUserEmbedding) ([]*UserEmbedding, error)
}

// Store provides database access to all raw objects.
type Store struct {
	profile *profile.Profile
	driver  Driver
}

// New creates a new instance of Store.
func New(driver Driver, profile *profile.Profile) *Store {
	return &Store{
		driver:  driver,
		profile: profile,
	}
}

func (s *Store) GetDriver() Driver {
	return s.driver
}

func (s *Store) Migrate(ctx context.Context) error {
	return s.driver.Migrate(ctx)
}

func (s *Store) Close() error {
	return s.driver.Close()
}

func (s *Store) CreateUserProfile(ctx context.Context, create *UserProfile) (*UserProfile, error) {
	return s.driver.CreateUserProfile(ctx, create)
}

func (s *Store) GetUserProfile(ctx context.Context, id string) (*UserProfile, error) {
	return s.driver.GetUserProfile(ctx, id)
}

func (s *Store) ListUserProfiles(ctx context.Context, find *FindUserProfile) ([]*UserProfile, error) {
	return s.driver.ListUserProfiles(ctx, find)
}

func (s *Store) UpdateUserProfile(ctx context.Context, update *UpdateUserProfile) (*UserProfile, error) {
	return s.driver.UpdateUserProfile(ctx, update)
}

func (s *Store) UpsertUserEmbedding(ctx context.Context, upsert *UserEmbedding) (*UserEmbedding, error) {
	if err := upsert.Validate(); err != nil {
		return nil, err
	}
	upsert.Metadata.Truncate()
	return s.driver.UpsertUserEmbedding(ctx, upsert)
}

func (s *Store) GetUserEmbedding(ctx context.Context, userID string) (*UserEmbedding, error) {
	return s.driver.GetUserEmbedding(ctx, userID)
}

func (s *Store) ListUserEmbeddings(ctx context.Context, find *FindUserEmbedding) ([]*UserEmbedding, error) {
	return s.driver.ListUserEmbeddings(ctx, find)
}
