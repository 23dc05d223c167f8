package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
)

// Event is the message published to the booking and notification topics.
// OTP is set only on password_reset_otp events and must never be logged.
type Event struct {
	Type            string    `json:"type"`
	BookingID       int64     `json:"booking_id,omitempty"`
	GuestName       string    `json:"guest_name,omitempty"`
	Email           string    `json:"email"`
	CheckInDate     time.Time `json:"check_in_date,omitempty"`
	CheckOutDate    time.Time `json:"check_out_date,omitempty"`
	NumberOfPersons int       `json:"number_of_persons,omitempty"`
	Status          string    `json:"status,omitempty"`
	Verified        bool      `json:"verified,omitempty"`
	OTP             string    `json:"otp,omitempty"`
}

const (
	EventBookingCreated   = "booking_created"
	EventBookingVerified  = "booking_verified"
	EventPasswordResetOTP = "password_reset_otp"
)

func (e Event) Validate() error {
	if e.Type == "" {
		return fmt.Errorf("event type is empty")
	}
	if e.Email == "" {
		return fmt.Errorf("event email is empty")
	}
	return nil
}

type Producer struct {
	writer *kafka.Writer
}

func NewProducer(brokers []string) *Producer {
	return &Producer{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Balancer:     &kafka.LeastBytes{},
			BatchTimeout: 50 * time.Millisecond,
			RequiredAcks: kafka.RequireOne,
		},
	}
}

func (p *Producer) Publish(ctx context.Context, topic, key string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	return p.writer.WriteMessages(ctx, kafka.Message{
		Topic: topic,
		Key:   []byte(key),
		Value: data,
		Time:  time.Now(),
	})
}

func (p *Producer) Close() error {
	return p.writer.Close()
}
