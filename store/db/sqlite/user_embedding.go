package sqlite

import (
	"context"
	"database/sql"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/pkg/errors"

	"github.com/hrygo/amity/store"
)

// float32ArrayToBLOB converts a []float32 to a little-endian BLOB.
// It validates that the vector has the expected dimension.
func float32ArrayToBLOB(vec []float32) ([]byte, error) {
	if len(vec) != store.EmbeddingDimensions {
		return nil, fmt.Errorf("invalid vector dimension: got %d, want %d",
			len(vec), store.EmbeddingDimensions)
	}

	buf := make([]byte, len(vec)*4)
	for i, v := range vec {
		binary.LittleEndian.PutUint32(buf[i*4:i*4+4], math.Float32bits(v))
	}
	return buf, nil
}

// blobToFloat32Array converts a BLOB back to a float32 array.
// This is the inverse of float32ArrayToBLOB.
func blobToFloat32Array(blob []byte) ([]float32, error) {
	expectedLen := store.EmbeddingDimensions * 4
	if len(blob) != expectedLen {
		return nil, fmt.Errorf("invalid BLOB length: got %d, want %d",
			len(blob), expectedLen)
	}

	vec := make([]float32, store.EmbeddingDimensions)
	for i := 0; i < store.EmbeddingDimensions; i++ {
		bits := binary.LittleEndian.Uint32(blob[i*4 : i*4+4])
		vec[i] = math.Float32frombits(bits)
	}
	return vec, nil
}

// UpsertUserEmbedding inserts or replaces a user embedding.
func (d *DB) UpsertUserEmbedding(ctx context.Context, upsert *store.UserEmbedding) (*store.UserEmbedding, error) {
	vectorBLOB, err := float32ArrayToBLOB(upsert.Embedding)
	if err != nil {
		return nil, errors.Wrap(err, "failed to convert embedding vector to BLOB")
	}
	metadata, err := json.Marshal(upsert.Metadata)
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode embedding metadata")
	}

	upsert.UpdatedTs = time.Now().Unix()
	stmt := `INSERT INTO user_embedding (user_id, embedding, metadata, updated_ts)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (user_id) DO UPDATE SET
			embedding = excluded.embedding,
			metadata = excluded.metadata,
			updated_ts = excluded.updated_ts`

	if _, err := d.db.ExecContext(ctx, stmt, upsert.UserID, vectorBLOB, string(metadata), upsert.UpdatedTs); err != nil {
		return nil, errors.Wrap(err, "failed to upsert user embedding")
	}
	return upsert, nil
}

// GetUserEmbedding returns (nil, nil) when no record exists.
func (d *DB) GetUserEmbedding(ctx context.Context, userID string) (*store.UserEmbedding, error) {
	stmt := `SELECT user_id, embedding, metadata, updated_ts FROM user_embedding WHERE user_id = ?`
	embedding, err := scanUserEmbedding(d.db.QueryRowContext(ctx, stmt, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return embedding, nil
}

// ListUserEmbeddings lists user embeddings.
func (d *DB) ListUserEmbeddings(ctx context.Context, find *store.FindUserEmbedding) ([]*store.UserEmbedding, error) {
	stmt := `SELECT user_id, embedding, metadata, updated_ts FROM user_embedding`
	args := []any{}
	if find != nil && find.UserID != nil {
		stmt += ` WHERE user_id = ?`
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
		embedding, err := scanUserEmbedding(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, embedding)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to iterate user embeddings")
	}
	return list, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUserEmbedding(row rowScanner) (*store.UserEmbedding, error) {
	var embedding store.UserEmbedding
	var blob []byte
	var metadata string
	if err := row.Scan(&embedding.UserID, &blob, &metadata, &embedding.UpdatedTs); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, errors.Wrap(err, "failed to scan user embedding")
	}

	vec, err := blobToFloat32Array(blob)
	if err != nil {
		return nil, errors.Wrap(err, "failed to decode embedding vector")
	}
	embedding.Embedding = vec

	if err := json.Unmarshal([]byte(metadata), &embedding.Metadata); err != nil {
		return nil, errors.Wrap(err, "failed to decode embedding metadata")
	}
	return &embedding, nil
}
