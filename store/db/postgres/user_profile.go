package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/hrygo/amity/store"
)

// CreateUserProfile inserts a new user record.
func (d *DB) CreateUserProfile(ctx context.Context, create *store.UserProfile) (*store.UserProfile, error) {
	if create.ID == "" {
		return nil, errors.New("user id cannot be empty")
	}
	languages, err := json.Marshal(create.Languages)
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode languages")
	}
	nlpProfile, err := encodeNlpProfile(create.NlpProfile)
	if err != nil {
		return nil, err
	}

	now := time.Now().Unix()
	create.CreatedTs = now
	create.UpdatedTs = now

	stmt := `INSERT INTO user_profile (
			id, name, email, phone, country, location, status, goal,
			top_category, languages, nlp_profile, assessment_completed, created_ts, updated_ts
		) VALUES (` + placeholders(14) + `)`
	if _, err := d.db.ExecContext(ctx, stmt,
		create.ID, create.Name, create.Email, create.Phone,
		create.Country, create.Location, create.Status, string(create.Goal),
		create.TopCategory, string(languages), nlpProfile, create.AssessmentCompleted,
		create.CreatedTs, create.UpdatedTs,
	); err != nil {
		return nil, errors.Wrap(err, "failed to create user profile")
	}
	return create, nil
}

// GetUserProfile returns (nil, nil) when no record exists.
func (d *DB) GetUserProfile(ctx context.Context, id string) (*store.UserProfile, error) {
	list, err := d.ListUserProfiles(ctx, &store.FindUserProfile{ID: &id})
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	return list[0], nil
}

// ListUserProfiles lists user records matching the filter.
func (d *DB) ListUserProfiles(ctx context.Context, find *store.FindUserProfile) ([]*store.UserProfile, error) {
	where, args := []string{"1 = 1"}, []any{}
	if find != nil {
		if find.ID != nil {
			where, args = append(where, "id = "+placeholder(len(args)+1)), append(args, *find.ID)
		}
		if find.Goal != nil {
			where, args = append(where, "goal = "+placeholder(len(args)+1)), append(args, string(*find.Goal))
		}
		if find.AssessmentCompleted != nil {
			where, args = append(where, "assessment_completed = "+placeholder(len(args)+1)), append(args, *find.AssessmentCompleted)
		}
	}

	stmt := `SELECT id, name, email, phone, country, location, status, goal,
			top_category, languages, nlp_profile, assessment_completed, created_ts, updated_ts
		FROM user_profile
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY created_ts`

	rows, err := d.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list user profiles")
	}
	defer rows.Close()

	list := []*store.UserProfile{}
	for rows.Next() {
		var user store.UserProfile
		var goal, languages string
		var nlpProfile sql.NullString
		if err := rows.Scan(
			&user.ID, &user.Name, &user.Email, &user.Phone,
			&user.Country, &user.Location, &user.Status, &goal,
			&user.TopCategory, &languages, &nlpProfile, &user.AssessmentCompleted,
			&user.CreatedTs, &user.UpdatedTs,
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan user profile")
		}
		user.Goal = store.Goal(goal)
		if err := json.Unmarshal([]byte(languages), &user.Languages); err != nil {
			return nil, errors.Wrap(err, "failed to decode languages")
		}
		if nlpProfile.Valid && nlpProfile.String != "" {
			profile := &store.NlpProfile{}
			if err := json.Unmarshal([]byte(nlpProfile.String), profile); err != nil {
				return nil, errors.Wrap(err, "failed to decode nlp profile")
			}
			user.NlpProfile = profile
		}
		list = append(list, &user)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to iterate user profiles")
	}
	return list, nil
}

// UpdateUserProfile applies a partial update and returns the updated record.
func (d *DB) UpdateUserProfile(ctx context.Context, update *store.UpdateUserProfile) (*store.UserProfile, error) {
	set, args := []string{"updated_ts = " + placeholder(1)}, []any{time.Now().Unix()}
	if update.NlpProfile != nil {
		nlpProfile, err := encodeNlpProfile(update.NlpProfile)
		if err != nil {
			return nil, err
		}
		set, args = append(set, "nlp_profile = "+placeholder(len(args)+1)), append(args, nlpProfile)
	}
	if update.TopCategory != nil {
		set, args = append(set, "top_category = "+placeholder(len(args)+1)), append(args, *update.TopCategory)
	}
	if update.AssessmentCompleted != nil {
		set, args = append(set, "assessment_completed = "+placeholder(len(args)+1)), append(args, *update.AssessmentCompleted)
	}
	args = append(args, update.ID)

	stmt := `UPDATE user_profile SET ` + strings.Join(set, ", ") + ` WHERE id = ` + placeholder(len(args))
	result, err := d.db.ExecContext(ctx, stmt, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to update user profile")
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return nil, errors.Errorf("user %s not found", update.ID)
	}
	return d.GetUserProfile(ctx, update.ID)
}

func encodeNlpProfile(p *store.NlpProfile) (sql.NullString, error) {
	if p == nil {
		return sql.NullString{}, nil
	}
	raw, err := json.Marshal(p)
	if err != nil {
		return sql.NullString{}, errors.Wrap(err, "failed to encode nlp profile")
	}
	return sql.NullString{String: string(raw), Valid: true}, nil
}
