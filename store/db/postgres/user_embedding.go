package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/pgvector/pgvector-go"
	"github.com/pkg/errors"

	"github.com/hrygo/amity/store"
)

// UpsertUserEmbedding inserts or replaces a user embedding.
func (d *DB) UpsertUserEmbedding(ctx context.Context, upsert *store.UserEmbedding) (*store.UserEmbedding, error) {
	metadata, err := json.Marshal(upsert.Metadata)
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode embedding metadata")
	}

	upsert.UpdatedTs = time.Now().Unix()
	stmt := `
		INSERT INTO user_embedding (user_id, embedding, metadata, updated_ts)
		VALUES (` + placeholders(4) + `)
		ON CONFLICT (user_id)
		DO UPDATE SET
			embedding = EXCLUDED.embedding,
			metadata = EXCLUDED.metadata,
			updated_ts = EXCLUDED.updated_ts
	`

	vector := pgvector.NewVector(upsert.Embedding)
	if _, err := d.db.ExecContext(ctx, stmt, upsert.UserID, vector, string(metadata), upsert.UpdatedTs); err != nil {
		return nil, errors.Wrap(err, "failed to upsert user embedding")
	}
	return upsert, nil
}

// GetUserEmbedding returns (nil, nil) when no record exists.
func (d *DB) GetUserEmbedding(ctx context.Context, userID string) (*store.UserEmbedding, error) {
	stmt := `SELECT user_id, embedding, metadata, updated_ts FROM user_embedding WHERE user_id = ` + placeholder(1)

	var embedding store.UserEmbedding
	var vector pgvector.Vector
	var metadata string
	err := d.db.QueryRowContext(ctx, stmt, userID).Scan(&embedding.UserID, &vector, &metadata, &embedding.UpdatedTs)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "failed to get user embedding")
	}
	embedding.Embedding = vector.Slice()
	if err := json.Unmarshal([]byte(metadata), &embedding.Metadata); err != nil {
		return nil, errors.Wrap(err, "failed to decode embedding metadata")
	}
	return &embedding, nil
}

// ListUserEmbeddings lists user embeddings.
func (d *DB) ListUserEmbeddings(ctx context.Context, find *store.FindUserEmbedding) ([]*store.UserEmbedding, error) {
	stmt := `SELECT user_id, embedding, metadata, updated_ts FROM user_embedding`
	args := []any{}
	if find != nil && find.UserID != nil {
		stmt += ` WHERE user_id = ` + placeholder(1)
		args = append(args, *find.UserID)
	}
	stmt += ` ORDER BY user_id`

	rows, err := d.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list user embeddings")
	}
	defer rows.Close()

	list := []*store.UserEmbedding{}
	for rows.Next() {
		var embedding store.UserEmbedding
		var vector pgvector.Vector
		var metadata string
		if err := rows.Scan(&embedding.UserID, &vector, &metadata, &embedding.UpdatedTs); err != nil {
			return nil, errors.Wrap(err, "failed to scan user embedding")
		}
		embedding.Embedding = vector.Slice()
		if err := json.Unmarshal([]byte(metadata), &embedding.Metadata); err != nil {
			return nil, errors.Wrap(err, "failed to decode embedding metadata")
		}
		list = append(list, &embedding)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to iterate user embeddings")
	}
	return list, nil
}
