package booking

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/gartanggali/resort-backend/internal/domain"
	"github.com/gartanggali/resort-backend/internal/kafka"
	"github.com/gartanggali/resort-backend/internal/repository"
	"github.com/gartanggali/resort-backend/internal/token"
)

const pageSize = 10

type BookingUseCase interface {
	CreateBooking(ctx context.Context, userID int64, input CreateBookingInput) (*domain.Booking, error)
	ListBookings(ctx context.Context, page int) ([]domain.BookingWithUser, Pagination, error)
	UserBookings(ctx context.Context, userID int64, page int) ([]domain.Booking, Pagination, error)
	BookingsByDate(ctx context.Context, from, to time.Time) ([]domain.Booking, error)
	IssueTicket(ctx context.Context, bookingID int64) ([]byte, string, error)
	RedeemTicket(ctx context.Context, rawToken string) (*domain.Booking, error)
}

type Renderer interface {
	Render(booking *domain.Booking, token string) ([]byte, error)
}

type Producer interface {
	Publish(ctx context.Context, topic, key string, value interface{}) error
}

type CreateBookingInput struct {
	GuestName       string `json:"guestName"`
	Email           string `json:"email"`
	Phone           string `json:"phone"`
	CheckInDate     string `json:"checkInDate"`
	CheckOutDate    string `json:"checkOutDate"`
	NumberOfPersons int    `json:"numberOfPerson"`
}

type Pagination struct {
	CurrentPage   int
	TotalPages    int
	TotalBookings int64
}

type BookingService struct {
	bookings           repository.BookingRepository
	codec              *token.Codec
	renderer           Renderer
	producer           Producer
	bookingTopic       string
	notificationsTopic string
	verifyTTL          time.Duration
	logger             *zap.Logger
}

type BookingServiceOption func(*BookingService)

func WithNotificationsTopic(topic string) BookingServiceOption {
	return func(s *BookingService) {
		s.notificationsTopic = topic
	}
}

// WithVerifyTTL overrides the validity window of ticket verification tokens.
func WithVerifyTTL(d time.Duration) BookingServiceOption {
	return func(s *BookingService) {
		if d > 0 {
			s.verifyTTL = d
		}
	}
}

const defaultVerifyTTL = 30 * 24 * time.Hour

func NewBookingService(
	bookings repository.BookingRepository,
	codec *token.Codec,
	renderer Renderer,
	producer Producer,
	bookingTopic string,
	logger *zap.Logger,
	opts ...BookingServiceOption,
) *BookingService {
	service := &BookingService{
		bookings:     bookings,
		codec:        codec,
		renderer:     renderer,
		producer:     producer,
		bookingTopic: bookingTopic,
		verifyTTL:    defaultVerifyTTL,
		logger:       logger,
	}
	for _, opt := range opts {
		opt(service)
	}
	return service
}

func (s *BookingService) CreateBooking(ctx context.Context, userID int64, input CreateBookingInput) (*domain.Booking, error) {
	if input.GuestName == "" || input.Email == "" || input.Phone == "" {
		return nil, fmt.Errorf("%w: guest name, email and phone are required", domain.ErrValidation)
	}
	if input.NumberOfPersons <= 0 {
		return nil, fmt.Errorf("%w: number of persons must be positive", domain.ErrValidation)
	}

	checkIn, err := time.Parse(time.RFC3339, input.CheckInDate)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid check-in date", domain.ErrValidation)
	}
	checkOut, err := time.Parse(time.RFC3339, input.CheckOutDate)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid check-out date", domain.ErrValidation)
	}
	if !checkOut.After(checkIn) {
		return nil, fmt.Errorf("%w: check-out must be after check-in", domain.ErrValidation)
	}

	booking := &domain.Booking{
		UserID:          userID,
		GuestName:       input.GuestName,
		Email:           strings.ToLower(input.Email),
		Phone:           input.Phone,
		CheckInDate:     checkIn,
		CheckOutDate:    checkOut,
		NumberOfPersons: input.NumberOfPersons,
		Status:          domain.BookingStatusSuccess,
	}

	if err := s.bookings.Create(ctx, booking); err != nil {
		return nil, err
	}

	s.publish(ctx, kafka.EventBookingCreated, booking)
	return booking, nil
}

func (s *BookingService) ListBookings(ctx context.Context, page int) ([]domain.BookingWithUser, Pagination, error) {
	page = normalizePage(page)
	bookings, total, err := s.bookings.ListAll(ctx, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, Pagination{}, err
	}
	return bookings, paginate(page, total), nil
}

func (s *BookingService) UserBookings(ctx context.Context, userID int64, page int) ([]domain.Booking, Pagination, error) {
	page = normalizePage(page)
	bookings, total, err := s.bookings.ListByUser(ctx, userID, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, Pagination{}, err
	}
	if len(bookings) == 0 {
		return nil, Pagination{}, domain.ErrNotFound
	}
	return bookings, paginate(page, total), nil
}

func (s *BookingService) BookingsByDate(ctx context.Context, from, to time.Time) ([]domain.Booking, error) {
	if !to.After(from) {
		return nil, fmt.Errorf("%w: to must be after from", domain.ErrValidation)
	}
	return s.bookings.ListByDateRange(ctx, from, to)
}

// IssueTicket mints a verification token bound to the booking and renders the
// printable PDF ticket carrying it inside a QR code. Reissuing creates a new
// token; earlier tokens stay valid until they expire.
func (s *BookingService) IssueTicket(ctx context.Context, bookingID int64) ([]byte, string, error) {
	booking, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, "", err
	}

	verifyToken, err := s.codec.IssueVerification(booking.ID, booking.Email, s.verifyTTL)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", domain.ErrRenderFailure, err)
	}

	pdf, err := s.renderer.Render(booking, verifyToken)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", domain.ErrRenderFailure, err)
	}

	return pdf, fmt.Sprintf("booking-%d.pdf", booking.ID), nil
}

// RedeemTicket is the one-time UNVERIFIED -> VERIFIED transition. Token
// failures collapse to ErrInvalidToken, and a missing booking or an email
// mismatch collapse to ErrNotFound, so the response does not reveal which
// check a forged token failed.
func (s *BookingService) RedeemTicket(ctx context.Context, rawToken string) (*domain.Booking, error) {
	claims, err := s.codec.VerifyVerification(rawToken)
	if err != nil {
		return nil, domain.ErrInvalidToken
	}

	booking, err := s.bookings.GetByID(ctx, claims.BookingID)
	if err != nil {
		return nil, err
	}
	if !strings.EqualFold(booking.Email, claims.Email) {
		return nil, domain.ErrNotFound
	}

	flipped, err := s.bookings.MarkVerified(ctx, booking.ID)
	if err != nil {
		return nil, err
	}
	if !flipped {
		return nil, domain.ErrAlreadyRedeemed
	}

	booking.IsVerified = true
	s.publish(ctx, kafka.EventBookingVerified, booking)
	return booking, nil
}

func (s *BookingService) publish(ctx context.Context, eventType string, booking *domain.Booking) {
	if s.producer == nil || s.bookingTopic == "" {
		return
	}
	event := kafka.Event{
		Type:            eventType,
		BookingID:       booking.ID,
		GuestName:       booking.GuestName,
		Email:           booking.Email,
		CheckInDate:     booking.CheckInDate,
		CheckOutDate:    booking.CheckOutDate,
		NumberOfPersons: booking.NumberOfPersons,
		Status:          booking.Status,
		Verified:        booking.IsVerified,
	}
	key := fmt.Sprintf("booking-%d", booking.ID)
	if err := s.producer.Publish(ctx, s.bookingTopic, key, event); err != nil {
		s.logger.Warn("publish booking event failed", zap.String("type", eventType), zap.Int64("booking_id", booking.ID), zap.Error(err))
	}
	if s.notificationsTopic != "" {
		if err := s.producer.Publish(ctx, s.notificationsTopic, key, event); err != nil {
			s.logger.Warn("publish notification failed", zap.String("type", eventType), zap.Int64("booking_id", booking.ID), zap.Error(err))
		}
	}
}

func normalizePage(page int) int {
	if page < 1 {
		return 1
	}
	return page
}

func paginate(page int, total int64) Pagination {
	totalPages := int((total + pageSize - 1) / pageSize)
	return Pagination{CurrentPage: page, TotalPages: totalPages, TotalBookings: total}
}

var _ BookingUseCase = (*BookingService)(nil)
