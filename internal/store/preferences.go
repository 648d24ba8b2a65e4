package store

import (
	"context"
	"database/sql"
	"encoding/json/v2"
	"fmt"

	"github.com/librisapp/libris-server/internal/domain"
)

// ReplacePreferenceVector stores a user's recomputed preference vector,
// replacing any previous one in a single statement so readers never observe
// a partially updated vector. Entries keep their order through the JSON round trip.
func (s *Store) ReplacePreferenceVector(ctx context.Context, vec *domain.PreferenceVector) error {
	entries, err := json.Marshal(vec.Entries)
	if err != nil {
		return fmt.Errorf("marshal preference entries: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO preferences (user_id, entries, computed_at)
		VALUES (?, ?, ?)
		ON CONFLICT (user_id) DO UPDATE SET
			entries = excluded.entries,
			computed_at = excluded.computed_at`,
		vec.UserID,
		string(entries),
		formatTime(vec.ComputedAt),
	)
	return err
}

// GetPreferenceVector retrieves a user's preference vector.
// Returns ErrNotFound if no vector has been computed for the user yet.
func (s *Store) GetPreferenceVector(ctx context.Context, userID string) (*domain.PreferenceVector, error) {
	var (
		entriesJSON string
		computedAt  string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT entries, computed_at FROM preferences WHERE user_id = ?`, userID).
		Scan(&entriesJSON, &computedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	vec := &domain.PreferenceVector{UserID: userID}
	if err := json.Unmarshal([]byte(entriesJSON), &vec.Entries); err != nil {
		return nil, fmt.Errorf("unmarshal preference entries: %w", err)
	}
	vec.ComputedAt, err = parseTime(computedAt)
	if err != nil {
		return nil, err
	}
	return vec, nil
}

// DeletePreferenceVector removes a user's preference vector, if present.
func (s *Store) DeletePreferenceVector(ctx context.Context, userID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM preferences WHERE user_id = ?`, userID)
	return err
}
