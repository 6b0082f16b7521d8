package db

import (
	"context"

	"github.com/danupratama/authgate/internal/auth/entity"
	"github.com/danupratama/authgate/internal/pkg/goerror"
)

// GetUserByEmail looks up a user by exact, case-preserved email.
func (s *DB) GetUserByEmail(ctx context.Context, email string) (_ *entity.User, err error) {
	ctx, span := s.startSpan(ctx, "GetUserByEmail")
	defer func() { s.endSpan(span, err) }()

	const query = `
		SELECT id, email, status, created_at, updated_at
		FROM users
		WHERE email = $1`

	var user entity.User
	err = s.conn.QueryRow(ctx, query, email).Scan(
		&user.ID,
		&user.Email,
		&user.Status,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, s.mapError(err)
	}

	return &user, nil
}

// CreateUser provisions a new directory record with status UNVERIFIED. A
// concurrent create for the same email or id surfaces as goerror.ErrConflict;
// callers resolve that by re-reading the existing record.
func (s *DB) CreateUser(ctx context.Context, user entity.User) (err error) {
	ctx, span := s.startSpan(ctx, "CreateUser")
	defer func() { s.endSpan(span, err) }()

	const query = `
		INSERT INTO users (id, email, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)`

	_, err = s.conn.Exec(ctx, query,
		user.ID,
		user.Email,
		user.Status,
		user.CreatedAt,
		user.UpdatedAt,
	)
	return s.mapError(err)
}

// AdvanceUserStatus moves a user from oldStatus to newStatus. The transition
// is validated in memory first and guarded again by the WHERE clause, so a
// record changed by a concurrent writer is reported as goerror.ErrNotFound
// rather than silently overwritten.
func (s *DB) AdvanceUserStatus(ctx context.Context, email string, oldStatus, newStatus entity.UserStatus) (err error) {
	ctx, span := s.startSpan(ctx, "AdvanceUserStatus")
	defer func() { s.endSpan(span, err) }()

	if !oldStatus.CanTransitionTo(newStatus) {
		return entity.ErrIllegalTransition
	}

	const query = `
		UPDATE users
		SET status = $1, updated_at = now()
		WHERE email = $2 AND status = $3`

	tag, err := s.conn.Exec(ctx, query, newStatus, email, oldStatus)
	if err != nil {
		return s.mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return goerror.ErrNotFound
	}

	return nil
}
