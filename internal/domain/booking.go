package domain

import "time"

const BookingStatusSuccess = "success"

type Booking struct {
	ID              int64
	UserID          int64
	GuestName       string
	Email           string
	Phone           string
	CheckInDate     time.Time
	CheckOutDate    time.Time
	NumberOfPersons int
	Status          string
	// IsVerified flips to true exactly once, when the ticket QR is redeemed
	// at check-in. There is no transition back.
	IsVerified bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// BookingWithUser is an admin-listing row: the booking plus the owning user.
type BookingWithUser struct {
	Booking
	User UserSummary
}
