package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gartanggali/resort-backend/internal/domain"
)

type BookingRepository interface {
	Create(ctx context.Context, booking *domain.Booking) error
	GetByID(ctx context.Context, id int64) (*domain.Booking, error)
	ListAll(ctx context.Context, limit, offset int) ([]domain.BookingWithUser, int64, error)
	ListByUser(ctx context.Context, userID int64, limit, offset int) ([]domain.Booking, int64, error)
	ListByDateRange(ctx context.Context, from, to time.Time) ([]domain.Booking, error)
	MarkVerified(ctx context.Context, id int64) (bool, error)
}

type PGBookingRepository struct {
	db *pgxpool.Pool
}

func NewBookingRepository(db *pgxpool.Pool) BookingRepository {
	return &PGBookingRepository{db: db}
}

const bookingColumns = `id, user_id, guest_name, email, phone, check_in_date, check_out_date, number_of_persons, status, is_verified, created_at, updated_at`

func (r *PGBookingRepository) Create(ctx context.Context, booking *domain.Booking) error {
	return r.db.QueryRow(ctx, `INSERT INTO bookings (user_id, guest_name, email, phone, check_in_date, check_out_date, number_of_persons, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, is_verified, created_at, updated_at`,
		booking.UserID, booking.GuestName, booking.Email, booking.Phone,
		booking.CheckInDate, booking.CheckOutDate, booking.NumberOfPersons, booking.Status).
		Scan(&booking.ID, &booking.IsVerified, &booking.CreatedAt, &booking.UpdatedAt)
}

func (r *PGBookingRepository) GetByID(ctx context.Context, id int64) (*domain.Booking, error) {
	row := r.db.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id=$1`, id)
	b, err := scanBooking(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return b, nil
}

func (r *PGBookingRepository) ListAll(ctx context.Context, limit, offset int) ([]domain.BookingWithUser, int64, error) {
	var total int64
	if err := r.db.QueryRow(ctx, `SELECT count(*) FROM bookings`).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.db.Query(ctx, `SELECT b.id, b.user_id, b.guest_name, b.email, b.phone, b.check_in_date, b.check_out_date, b.number_of_persons, b.status, b.is_verified, b.created_at, b.updated_at, u.id, u.name, u.email
		FROM bookings b
		JOIN users u ON u.id = b.user_id
		ORDER BY b.created_at DESC
		LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var bookings []domain.BookingWithUser
	for rows.Next() {
		var b domain.BookingWithUser
		if err := rows.Scan(&b.ID, &b.UserID, &b.GuestName, &b.Email, &b.Phone,
			&b.CheckInDate, &b.CheckOutDate, &b.NumberOfPersons, &b.Status, &b.IsVerified,
			&b.CreatedAt, &b.UpdatedAt, &b.User.ID, &b.User.Name, &b.User.Email); err != nil {
			return nil, 0, err
		}
		bookings = append(bookings, b)
	}
	return bookings, total, rows.Err()
}

func (r *PGBookingRepository) ListByUser(ctx context.Context, userID int64, limit, offset int) ([]domain.Booking, int64, error) {
	var total int64
	if err := r.db.QueryRow(ctx, `SELECT count(*) FROM bookings WHERE user_id=$1`, userID).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.db.Query(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE user_id=$1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`, userID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	bookings, err := collectBookings(rows)
	return bookings, total, err
}

func (r *PGBookingRepository) ListByDateRange(ctx context.Context, from, to time.Time) ([]domain.Booking, error) {
	rows, err := r.db.Query(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE check_in_date >= $1 AND check_in_date < $2 ORDER BY check_in_date`, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectBookings(rows)
}

// MarkVerified flips is_verified in a single conditional update so that two
// concurrent redemptions of the same token cannot both succeed. Returns false
// when the booking was already verified.
func (r *PGBookingRepository) MarkVerified(ctx context.Context, id int64) (bool, error) {
	cmd, err := r.db.Exec(ctx, `UPDATE bookings SET is_verified = true, updated_at = now() WHERE id=$1 AND is_verified = false`, id)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() == 1, nil
}

func scanBooking(row pgx.Row) (*domain.Booking, error) {
	var b domain.Booking
	if err := row.Scan(&b.ID, &b.UserID, &b.GuestName, &b.Email, &b.Phone,
		&b.CheckInDate, &b.CheckOutDate, &b.NumberOfPersons, &b.Status, &b.IsVerified,
		&b.CreatedAt, &b.UpdatedAt); err != nil {
		return nil, err
	}
	return &b, nil
}

func collectBookings(rows pgx.Rows) ([]domain.Booking, error) {
	var bookings []domain.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, *b)
	}
	return bookings, rows.Err()
}

var _ BookingRepository = (*PGBookingRepository)(nil)
