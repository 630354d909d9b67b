// Package jsonfile implements store.Driver on top of a single JSON snapshot
// file. The whole collection is read into memory at startup and rewritten in
// full on every mutation.
//
// Write atomicity contract: mutations are serialized by a single-writer lock
// and the snapshot is written to a temporary file in the same directory, then
// renamed into place. A reader never observes a torn collection.
package jsonfile

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/hrygo/amity/internal/profile"
	"github.com/hrygo/amity/store"
)

type snapshot struct {
	Users      map[string]*store.UserProfile   `json:"users"`
	Embeddings map[string]*store.UserEmbedding `json:"embeddings"`
}

func newSnapshot() *snapshot {
	return &snapshot{
		Users:      map[string]*store.UserProfile{},
		Embeddings: map[string]*store.UserEmbedding{},
	}
}

type DB struct {
	profile *profile.Profile
	path    string

	mu   sync.RWMutex
	data *snapshot
}

// NewDB opens the snapshot file named by the profile DSN. A missing file is
// not an error; it is created on the first write.
func NewDB(profile *profile.Profile) (store.Driver, error) {
	if profile.DSN == "" {
		return nil, errors.New("dsn required")
	}
	d := &DB{
		profile: profile,
		path:    profile.DSN,
		data:    newSnapshot(),
	}
	if err := d.load(); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *DB) load() error {
	raw, err := os.ReadFile(d.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return errors.Wrapf(err, "failed to read snapshot %s", d.path)
	}
	data := newSnapshot()
	if err := json.Unmarshal(raw, data); err != nil {
		return errors.Wrapf(err, "failed to decode snapshot %s", d.path)
	}
	if data.Users == nil {
		data.Users = map[string]*store.UserProfile{}
	}
	if data.Embeddings == nil {
		data.Embeddings = map[string]*store.UserEmbedding{}
	}
	d.data = data
	return nil
}

// save writes the full snapshot. Callers must hold the write lock.
func (d *DB) save() error {
	raw, err := json.MarshalIndent(d.data, "", "  ")
	if err != nil {
		return errors.Wrap(err, "failed to encode snapshot")
	}

	tmp, err := os.CreateTemp(filepath.Dir(d.path), filepath.Base(d.path)+".tmp-*")
	if err != nil {
		return errors.Wrap(err, "failed to create temp snapshot")
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return errors.Wrap(err, "failed to write temp snapshot")
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return errors.Wrap(err, "failed to close temp snapshot")
	}
	if err := os.Rename(tmpName, d.path); err != nil {
		os.Remove(tmpName)
		return errors.Wrap(err, "failed to swap snapshot into place")
	}
	return nil
}

func (*DB) Migrate(context.Context) error {
	// Nothing to migrate; the snapshot is schemaless JSON.
	return nil
}

func (*DB) Close() error {
	return nil
}

func (d *DB) CreateUserProfile(_ context.Context, create *store.UserProfile) (*store.UserProfile, error) {
	if create.ID == "" {
		return nil, errors.New("user id cannot be empty")
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.data.Users[create.ID]; ok {
		return nil, errors.Errorf("user %s already exists", create.ID)
	}
	now := time.Now().Unix()
	create.CreatedTs = now
	create.UpdatedTs = now

	stored := *create
	d.data.Users[create.ID] = &stored
	if err := d.save(); err != nil {
		delete(d.data.Users, create.ID)
		return nil, err
	}
	return create, nil
}

func (d *DB) GetUserProfile(_ context.Context, id string) (*store.UserProfile, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	user, ok := d.data.Users[id]
	if !ok {
		return nil, nil
	}
	found := *user
	return &found, nil
}

func (d *DB) ListUserProfiles(_ context.Context, find *store.FindUserProfile) ([]*store.UserProfile, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	list := []*store.UserProfile{}
	for _, user := range d.data.Users {
		if find != nil {
			if find.ID != nil && user.ID != *find.ID {
				continue
			}
			if find.Goal != nil && user.Goal != *find.Goal {
				continue
			}
			if find.AssessmentCompleted != nil && user.AssessmentCompleted != *find.AssessmentCompleted {
				continue
			}
		}
		found := *user
		list = append(list, &found)
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].CreatedTs != list[j].CreatedTs {
			return list[i].CreatedTs < list[j].CreatedTs
		}
		return list[i].ID < list[j].ID
	})
	return list, nil
}

func (d *DB) UpdateUserProfile(_ context.Context, update *store.UpdateUserProfile) (*store.UserProfile, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	user, ok := d.data.Users[update.ID]
	if !ok {
		return nil, errors.Errorf("user %s not found", update.ID)
	}
	if update.NlpProfile != nil {
		user.NlpProfile = update.NlpProfile
	}
	if update.TopCategory != nil {
		user.TopCategory = *update.TopCategory
	}
	if update.AssessmentCompleted != nil {
		user.AssessmentCompleted = *update.AssessmentCompleted
	}
	user.UpdatedTs = time.Now().Unix()

	if err := d.save(); err != nil {
		return nil, err
	}
	updated := *user
	return &updated, nil
}

func (d *DB) UpsertUserEmbedding(_ context.Context, upsert *store.UserEmbedding) (*store.UserEmbedding, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	upsert.UpdatedTs = time.Now().Unix()
	stored := *upsert
	previous, hadPrevious := d.data.Embeddings[upsert.UserID]
	d.data.Embeddings[upsert.UserID] = &stored
	if err := d.save(); err != nil {
		// Roll back the in-memory state to match the file.
		if hadPrevious {
			d.data.Embeddings[upsert.UserID] = previous
		} else {
			delete(d.data.Embeddings, upsert.UserID)
		}
		return nil, err
	}
	return upsert, nil
}

func (d *DB) GetUserEmbedding(_ context.Context, userID string) (*store.UserEmbedding, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	embedding, ok := d.data.Embeddings[userID]
	if !ok {
		return nil, nil
	}
	found := *embedding
	return &found, nil
}

func (d *DB) ListUserEmbeddings(_ context.Context, find *store.FindUserEmbedding) ([]*store.UserEmbedding, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	list := []*store.UserEmbedding{}
	for _, embedding := range d.data.Embeddings {
		if find != nil && find.UserID != nil && embedding.UserID != *find.UserID {
			continue
		}
		found := *embedding
		list = append(list, &found)
	}
	// Map iteration order is random; keep listings deterministic.
	sort.Slice(list, func(i, j int) bool { return list[i].UserID < list[j].UserID })
	return list, nil
}
