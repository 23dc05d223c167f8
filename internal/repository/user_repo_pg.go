package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gartanggali/resort-backend/internal/domain"
)

type ProfileUpdate struct {
	Name    *string
	Email   *string
	Bio     *string
	Avatar  *string
	Phone   *string
	Address *string
}

func (u ProfileUpdate) Empty() bool {
	return u.Name == nil && u.Email == nil && u.Bio == nil && u.Avatar == nil && u.Phone == nil && u.Address == nil
}

type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	UpdateProfile(ctx context.Context, id int64, update ProfileUpdate) (*domain.User, error)
	SetResetOTP(ctx context.Context, id int64, otpHash string, expiresAt time.Time) error
	UpdatePassword(ctx context.Context, id int64, passwordHash string) error
	ClearExpiredResetOTPs(ctx context.Context, now time.Time) (int64, error)
}

type PGUserRepository struct {
	db *pgxpool.Pool
}

func NewUserRepository(db *pgxpool.Pool) UserRepository {
	return &PGUserRepository{db: db}
}

const userColumns = `id, name, email, password_hash, role, phone, address, avatar, bio, reset_otp_hash, reset_otp_expires_at, created_at, updated_at`

const uniqueViolation = "23505"

func (r *PGUserRepository) Create(ctx context.Context, user *domain.User) error {
	err := r.db.QueryRow(ctx, `INSERT INTO users (name, email, password_hash, role)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at`,
		user.Name, user.Email, user.PasswordHash, user.Role).
		Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return domain.ErrEmailTaken
		}
		return err
	}
	return nil
}

func (r *PGUserRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE id=$1`, id)
}

func (r *PGUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE email=$1`, strings.ToLower(email))
}

func (r *PGUserRepository) getOne(ctx context.Context, query string, arg interface{}) (*domain.User, error) {
	row := r.db.QueryRow(ctx, query, arg)
	var u domain.User
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role,
		&u.Phone, &u.Address, &u.Avatar, &u.Bio,
		&u.ResetOTPHash, &u.ResetOTPExpiresAt, &u.CreatedAt, &u.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (r *PGUserRepository) UpdateProfile(ctx context.Context, id int64, update ProfileUpdate) (*domain.User, error) {
	sets := make([]string, 0, 7)
	args := make([]interface{}, 0, 8)

	add := func(column string, value *string) {
		if value == nil {
			return
		}
		args = append(args, *value)
		sets = append(sets, fmt.Sprintf("%s=$%d", column, len(args)))
	}
	add("name", update.Name)
	if update.Email != nil {
		lower := strings.ToLower(*update.Email)
		update.Email = &lower
	}
	add("email", update.Email)
	add("bio", update.Bio)
	add("avatar", update.Avatar)
	add("phone", update.Phone)
	add("address", update.Address)
	if len(sets) == 0 {
		return r.GetByID(ctx, id)
	}
	sets = append(sets, "updated_at=now()")
	args = append(args, id)

	query := fmt.Sprintf(`UPDATE users SET %s WHERE id=$%d RETURNING %s`, strings.Join(sets, ", "), len(args), userColumns)
	row := r.db.QueryRow(ctx, query, args...)
	var u domain.User
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role,
		&u.Phone, &u.Address, &u.Avatar, &u.Bio,
		&u.ResetOTPHash, &u.ResetOTPExpiresAt, &u.CreatedAt, &u.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, domain.ErrEmailTaken
		}
		return nil, err
	}
	return &u, nil
}

func (r *PGUserRepository) SetResetOTP(ctx context.Context, id int64, otpHash string, expiresAt time.Time) error {
	cmd, err := r.db.Exec(ctx, `UPDATE users SET reset_otp_hash=$1, reset_otp_expires_at=$2, updated_at=now() WHERE id=$3`, otpHash, expiresAt, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// UpdatePassword also clears any pending reset OTP so a consumed code cannot
// be replayed.
func (r *PGUserRepository) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	cmd, err := r.db.Exec(ctx, `UPDATE users SET password_hash=$1, reset_otp_hash='', reset_otp_expires_at=NULL, updated_at=now() WHERE id=$2`, passwordHash, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *PGUserRepository) ClearExpiredResetOTPs(ctx context.Context, now time.Time) (int64, error) {
	cmd, err := r.db.Exec(ctx, `UPDATE users SET reset_otp_hash='', reset_otp_expires_at=NULL WHERE reset_otp_expires_at IS NOT NULL AND reset_otp_expires_at <= $1`, now)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}

var _ UserRepository = (*PGUserRepository)(nil)
