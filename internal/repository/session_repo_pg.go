package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/juju/errors"

	"github.com/Domenick1991/ticketbari/internal/domain"
)

type SessionRepository interface {
	Create(ctx context.Context, s *domain.Session) error
	Get(ctx context.Context, id string) (*domain.Session, error)
	UpdateTokens(ctx context.Context, id, idToken, refreshToken string, tokenExpiresAt time.Time) error
	UpdateIdentity(ctx context.Context, email string, identity domain.Identity) (int64, error)
	Delete(ctx context.Context, id string) error
	DeleteByEmail(ctx context.Context, email string) (int64, error)
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}

type PGSessionRepository struct {
	db *pgxpool.Pool
}

func NewSessionRepository(db *pgxpool.Pool) SessionRepository {
	return &PGSessionRepository{db: db}
}

const sessionColumns = `id, email, display_name, photo_url, id_token, refresh_token, token_expires_at, created_at, expires_at`

func (r *PGSessionRepository) Create(ctx context.Context, s *domain.Session) error {
	return r.db.QueryRow(ctx, `INSERT INTO sessions (id, email, display_name, photo_url, id_token, refresh_token, token_expires_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at`,
		s.ID, s.Identity.Email, s.Identity.DisplayName, s.Identity.PhotoURL, s.IDToken, s.RefreshToken, s.TokenExpiresAt, s.ExpiresAt).
		Scan(&s.CreatedAt)
}

func (r *PGSessionRepository) Get(ctx context.Context, id string) (*domain.Session, error) {
	row := r.db.QueryRow(ctx, `SELECT `+sessionColumns+` FROM sessions WHERE id=$1`, id)
	var s domain.Session
	if err := row.Scan(&s.ID, &s.Identity.Email, &s.Identity.DisplayName, &s.Identity.PhotoURL, &s.IDToken, &s.RefreshToken, &s.TokenExpiresAt, &s.CreatedAt, &s.ExpiresAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errors.NotFoundf("session %q", id)
		}
		return nil, err
	}
	return &s, nil
}

func (r *PGSessionRepository) UpdateTokens(ctx context.Context, id, idToken, refreshToken string, tokenExpiresAt time.Time) error {
	res, err := r.db.Exec(ctx, `UPDATE sessions SET id_token=$1, refresh_token=$2, token_expires_at=$3 WHERE id=$4`, idToken, refreshToken, tokenExpiresAt, id)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return errors.NotFoundf("session %q", id)
	}
	return nil
}

func (r *PGSessionRepository) UpdateIdentity(ctx context.Context, email string, identity domain.Identity) (int64, error) {
	res, err := r.db.Exec(ctx, `UPDATE sessions SET display_name=$1, photo_url=$2 WHERE email=$3`, identity.DisplayName, identity.PhotoURL, email)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected(), nil
}

func (r *PGSessionRepository) Delete(ctx context.Context, id string) error {
	_, err := r.db.Exec(ctx, `DELETE FROM sessions WHERE id=$1`, id)
	return err
}

func (r *PGSessionRepository) DeleteByEmail(ctx context.Context, email string) (int64, error) {
	res, err := r.db.Exec(ctx, `DELETE FROM sessions WHERE email=$1`, email)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected(), nil
}

func (r *PGSessionRepository) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	res, err := r.db.Exec(ctx, `DELETE FROM sessions WHERE expires_at <= $1`, before)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected(), nil
}

var _ SessionRepository = (*PGSessionRepository)(nil)
