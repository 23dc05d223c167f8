package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/gartanggali/resort-backend/internal/domain"
	"github.com/gartanggali/resort-backend/internal/service/booking"
)

const dateOnlyFormat = "2006-01-02"

type BookingHandler struct {
	service booking.BookingUseCase
	logger  *zap.Logger
}

type bookingResponse struct {
	ID              int64     `json:"id"`
	GuestName       string    `json:"guestName"`
	Email           string    `json:"email"`
	Phone           string    `json:"phone"`
	CheckInDate     time.Time `json:"checkInDate"`
	CheckOutDate    time.Time `json:"checkOutDate"`
	NumberOfPersons int       `json:"numberOfPerson"`
	Status          string    `json:"status"`
	IsVerified      bool      `json:"isVerified"`
	CreatedAt       time.Time `json:"createdAt"`
}

type bookingWithUserResponse struct {
	bookingResponse
	User domain.UserSummary `json:"user"`
}

func NewBookingHandler(service booking.BookingUseCase, logger *zap.Logger) *BookingHandler {
	return &BookingHandler{service: service, logger: logger}
}

func (h *BookingHandler) Register(rg *gin.RouterGroup, authRequired, adminOnly gin.HandlerFunc) {
	rg.POST("/createbooking", authRequired, h.create)
	rg.GET("/getallbooking", authRequired, adminOnly, h.listAll)
	rg.POST("/userbooking", authRequired, h.userBookings)
	rg.GET("/date", h.byDate)
	rg.GET("/:id/ticket", authRequired, h.ticket)
	rg.GET("/verify", authRequired, h.verify)
}

func (h *BookingHandler) create(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Not authenticated"})
		return
	}

	var req booking.CreateBookingInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
		return
	}

	created, err := h.service.CreateBooking(c.Request.Context(), userID, req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "Booking created successfully",
		"booking": toBookingResponse(created),
	})
}

func (h *BookingHandler) listAll(c *gin.Context) {
	page := parsePage(c)
	bookings, pagination, err := h.service.ListBookings(c.Request.Context(), page)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	data := make([]bookingWithUserResponse, 0, len(bookings))
	for _, b := range bookings {
		data = append(data, bookingWithUserResponse{
			bookingResponse: toBookingResponse(&b.Booking),
			User:            b.User,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"success":       true,
		"currentPage":   pagination.CurrentPage,
		"totalPages":    pagination.TotalPages,
		"totalBookings": pagination.TotalBookings,
		"results":       len(data),
		"data":          data,
	})
}

func (h *BookingHandler) userBookings(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Not authenticated"})
		return
	}

	page := parsePage(c)
	bookings, pagination, err := h.service.UserBookings(c.Request.Context(), userID, page)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "No bookings found for this user"})
			return
		}
		respondError(c, h.logger, err)
		return
	}

	data := make([]bookingResponse, 0, len(bookings))
	for i := range bookings {
		data = append(data, toBookingResponse(&bookings[i]))
	}

	c.JSON(http.StatusOK, gin.H{
		"success":       true,
		"currentPage":   pagination.CurrentPage,
		"totalPages":    pagination.TotalPages,
		"totalBookings": pagination.TotalBookings,
		"results":       len(data),
		"data":          data,
	})
}

func (h *BookingHandler) byDate(c *gin.Context) {
	from, err := time.Parse(dateOnlyFormat, c.Query("from"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "invalid from date, expected YYYY-MM-DD"})
		return
	}
	to, err := time.Parse(dateOnlyFormat, c.Query("to"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "invalid to date, expected YYYY-MM-DD"})
		return
	}

	bookings, err := h.service.BookingsByDate(c.Request.Context(), from, to.AddDate(0, 0, 1))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	data := make([]bookingResponse, 0, len(bookings))
	for i := range bookings {
		data = append(data, toBookingResponse(&bookings[i]))
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "results": len(data), "data": data})
}

func (h *BookingHandler) ticket(c *gin.Context) {
	bookingID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "invalid booking id"})
		return
	}

	pdf, filename, err := h.service.IssueTicket(c.Request.Context(), bookingID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Booking not found"})
			return
		}
		respondError(c, h.logger, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("inline; filename=%s", filename))
	c.Data(http.StatusOK, "application/pdf", pdf)
}

func (h *BookingHandler) verify(c *gin.Context) {
	rawToken := c.Query("token")
	if rawToken == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "token is required"})
		return
	}

	redeemed, err := h.service.RedeemTicket(c.Request.Context(), rawToken)
	if err != nil {
		// Missing booking and email mismatch share one message on purpose.
		if errors.Is(err, domain.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Invalid or fake booking"})
			return
		}
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Booking verified successfully",
		"booking": toBookingResponse(redeemed),
	})
}

func parsePage(c *gin.Context) int {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		return 1
	}
	return page
}

func toBookingResponse(b *domain.Booking) bookingResponse {
	return bookingResponse{
		ID:              b.ID,
		GuestName:       b.GuestName,
		Email:           b.Email,
		Phone:           b.Phone,
		CheckInDate:     b.CheckInDate,
		CheckOutDate:    b.CheckOutDate,
		NumberOfPersons: b.NumberOfPersons,
		Status:          b.Status,
		IsVerified:      b.IsVerified,
		CreatedAt:       b.CreatedAt,
	}
}
