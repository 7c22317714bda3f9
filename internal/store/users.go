package store

import (
	"context"
	"fmt"
)

// InsertUser creates the application's user row for a freshly signed-up
// account. The ID comes from the auth backend, not the database; the row
// starts unapproved and an administrator flips the flag by hand.
func (s *Store) InsertUser(ctx context.Context, id, name, email string) error {
	const op = "InsertUser"

	_, err := s.pool.Exec(ctx, `
		INSERT INTO users (id, name, email)
		VALUES ($1, $2, $3)
	`, id, name, email)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info().Str("user_id", id).Str("email", email).Msg("User row created")
	return nil
}
