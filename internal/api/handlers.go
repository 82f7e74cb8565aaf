package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"homebooking/internal/derive"
	"homebooking/internal/export"
	"homebooking/internal/models"

	"github.com/gin-gonic/gin"
)

const (
	guestUserID  = "guest"
	systemActor  = "system"
	xlsxMIMEType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

func (s *HTTPServer) writeError(c *gin.Context, err error) {
	code := httpStatus(err)
	if code >= http.StatusInternalServerError {
		s.log.Error().Err(err).Str("path", c.Request.URL.Path).Msg("request failed")
	}
	c.JSON(code, gin.H{"error": err.Error()})
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msg})
}

func (s *HTTPServer) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *HTTPServer) handleReady(c *gin.Context) {
	if s.deps.Ready != nil {
		if err := s.deps.Ready(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}

// Catalog.

func (s *HTTPServer) handleCategories(c *gin.Context) {
	c.JSON(http.StatusOK, s.deps.Catalog.Categories())
}

func (s *HTTPServer) handleListServices(c *gin.Context) {
	includeInactive, _ := strconv.ParseBool(c.Query("include_inactive"))
	filter := derive.ServiceFilter{
		Search:          c.Query("search"),
		CategoryID:      c.Query("category"),
		PriceRange:      c.Query("price"),
		Sort:            derive.SortMode(c.Query("sort")),
		IncludeInactive: includeInactive,
	}
	c.JSON(http.StatusOK, s.deps.Catalog.ListServices(filter))
}

func (s *HTTPServer) handleFeaturedServices(c *gin.Context) {
	limit := models.FeaturedServicesLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			badRequest(c, "limit must be a non-negative integer")
			return
		}
		limit = n
	}
	c.JSON(http.StatusOK, s.deps.Catalog.FeaturedServices(limit))
}

func (s *HTTPServer) handleGetService(c *gin.Context) {
	svc, err := s.deps.Catalog.GetService(c.Param("id"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, svc)
}

func (s *HTTPServer) handleCreateService(c *gin.Context) {
	var body models.Service
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, err.Error())
		return
	}

	created, err := s.deps.Catalog.CreateService(c.Request.Context(), body)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (s *HTTPServer) handleUpdateService(c *gin.Context) {
	var body models.Service
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, err.Error())
		return
	}
	body.ID = c.Param("id")

	updated, err := s.deps.Catalog.UpdateService(c.Request.Context(), body)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (s *HTTPServer) handleDeleteService(c *gin.Context) {
	if err := s.deps.Catalog.DeleteService(c.Request.Context(), c.Param("id")); err != nil {
		s.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *HTTPServer) handleSetServiceActive(active bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")
		if err := s.deps.Catalog.SetServiceActive(c.Request.Context(), id, active); err != nil {
			s.writeError(c, err)
			return
		}
		svc, err := s.deps.Catalog.GetService(id)
		if err != nil {
			s.writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, svc)
	}
}

// Bookings.

func (s *HTTPServer) handleSlots(c *gin.Context) {
	date := strings.TrimSpace(c.Query("date"))
	if date == "" {
		badRequest(c, "date is required")
		return
	}

	slots, err := s.deps.Bookings.AvailableSlots(date)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"date": date, "slots": slots})
}

func (s *HTTPServer) handleListBookings(c *gin.Context) {
	var status models.BookingStatus
	if raw := c.Query("status"); raw != "" && raw != derive.FilterAll {
		parsed, err := models.ParseStatus(raw)
		if err != nil {
			s.writeError(c, err)
			return
		}
		status = parsed
	}
	c.JSON(http.StatusOK, s.deps.Bookings.ListBookings(status, c.Query("search")))
}

func (s *HTTPServer) handleMyBookings(c *gin.Context) {
	user, ok := s.deps.Users.CurrentUser()
	if !ok {
		s.writeError(c, errUnauthenticated)
		return
	}

	tab := c.DefaultQuery("filter", derive.FilterAll)
	if tab != derive.FilterAll {
		if _, err := models.ParseStatus(tab); err != nil {
			s.writeError(c, err)
			return
		}
	}
	c.JSON(http.StatusOK, s.deps.Bookings.UserBookings(user.ID, tab))
}

func (s *HTTPServer) handleGetBooking(c *gin.Context) {
	b, err := s.deps.Bookings.GetBooking(c.Param("id"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

// handleCreateBooking blocks for the submission delay. A client that goes
// away before the delay elapses cancels the booking.
func (s *HTTPServer) handleCreateBooking(c *gin.Context) {
	var form models.BookingForm
	if err := c.ShouldBindJSON(&form); err != nil {
		badRequest(c, err.Error())
		return
	}

	userID := guestUserID
	if user, ok := s.deps.Users.CurrentUser(); ok {
		userID = user.ID
	}

	booking, err := s.deps.Flow.Submit(c.Request.Context(), form, userID)
	if err != nil {
		s.writeError(c, err)
		return
	}

	if s.deps.Drafts != nil {
		if err := s.deps.Drafts.ClearDraft(c.Request.Context(), userID); err != nil {
			s.log.Warn().Err(err).Str("user_id", userID).Msg("failed to clear draft after booking")
		}
	}

	c.JSON(http.StatusCreated, gin.H{
		"booking": booking,
		"redirect": gin.H{
			"bookingSuccess": true,
			"bookingId":      booking.ID,
		},
	})
}

type statusRequest struct {
	Status string `json:"status" binding:"required"`
}

func (s *HTTPServer) handleUpdateStatus(c *gin.Context) {
	var body statusRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, err.Error())
		return
	}
	status, err := models.ParseStatus(body.Status)
	if err != nil {
		s.writeError(c, err)
		return
	}

	b, err := s.deps.Bookings.UpdateStatus(c.Request.Context(), c.Param("id"), status, s.actor())
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

func (s *HTTPServer) handleAdvanceBooking(c *gin.Context) {
	b, err := s.deps.Bookings.AdvanceBooking(c.Request.Context(), c.Param("id"), s.actor())
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

func (s *HTTPServer) actor() string {
	if user, ok := s.deps.Users.CurrentUser(); ok {
		return user.ID
	}
	return systemActor
}

// Admin.

func (s *HTTPServer) handleAdminStats(c *gin.Context) {
	stats := s.deps.Bookings.AdminStats()
	c.JSON(http.StatusOK, gin.H{
		"stats":               stats,
		"averageBookingValue": derive.AverageBookingValue(stats),
		"maxBookingCount":     derive.MaxBookingCount(stats.PopularServices),
	})
}

func (s *HTTPServer) handleExportBookings(c *gin.Context) {
	var status models.BookingStatus
	if raw := c.Query("status"); raw != "" && raw != derive.FilterAll {
		parsed, err := models.ParseStatus(raw)
		if err != nil {
			s.writeError(c, err)
			return
		}
		status = parsed
	}

	now := s.deps.Now()
	bookings := s.deps.Bookings.ListBookings(status, c.Query("search"))

	c.Header("Content-Type", xlsxMIMEType)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=bookings_%s.xlsx", now.Format("20060102_150405")))
	c.Status(http.StatusOK)
	if err := export.WriteBookings(c.Writer, bookings, now); err != nil {
		s.log.Error().Err(err).Msg("bookings export failed")
		_ = c.Error(err)
	}
}

// Dashboard.

func (s *HTTPServer) handleDashboard(c *gin.Context) {
	user, ok := s.deps.Users.CurrentUser()
	if !ok {
		s.writeError(c, errUnauthenticated)
		return
	}

	resp := gin.H{
		"user":        user,
		"stats":       s.deps.Bookings.UserStats(user.ID),
		"bookings":    s.deps.Bookings.UserBookings(user.ID, derive.FilterAll),
		"showSuccess": false,
	}

	success, _ := strconv.ParseBool(c.Query("bookingSuccess"))
	if id := c.Query("bookingId"); success && id != "" {
		b, err := s.deps.Bookings.GetBooking(id)
		if err == nil && b.UserID == user.ID {
			resp["showSuccess"] = true
			resp["booking"] = b
		}
	}

	if s.deps.Notifications != nil {
		resp["unreadNotifications"] = s.deps.Notifications.UnreadCount(user.ID)
	}
	c.JSON(http.StatusOK, resp)
}

// Auth.

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (s *HTTPServer) handleLogin(c *gin.Context) {
	var body loginRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, "email and password are required")
		return
	}

	user, err := s.deps.Users.Login(c.Request.Context(), body.Email, body.Password)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}

func (s *HTTPServer) handleLogout(c *gin.Context) {
	s.deps.Users.Logout(c.Request.Context())
	c.Status(http.StatusNoContent)
}

func (s *HTTPServer) handleMe(c *gin.Context) {
	user, ok := s.deps.Users.CurrentUser()
	if !ok {
		s.writeError(c, errUnauthenticated)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}

// Drafts.

var errDraftsDisabled = errors.New("drafts are not available")

func (s *HTTPServer) handleGetDraft(c *gin.Context) {
	if s.deps.Drafts == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": errDraftsDisabled.Error()})
		return
	}

	draft, err := s.deps.Drafts.GetDraft(c.Request.Context(), c.Param("userId"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	if draft == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no draft"})
		return
	}
	c.JSON(http.StatusOK, draft)
}

func (s *HTTPServer) handleSaveDraft(c *gin.Context) {
	if s.deps.Drafts == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": errDraftsDisabled.Error()})
		return
	}

	var form models.BookingForm
	if err := c.ShouldBindJSON(&form); err != nil {
		badRequest(c, err.Error())
		return
	}

	draft, err := s.deps.Drafts.SaveDraft(c.Request.Context(), c.Param("userId"), form)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, draft)
}

func (s *HTTPServer) handleClearDraft(c *gin.Context) {
	if s.deps.Drafts == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": errDraftsDisabled.Error()})
		return
	}

	if err := s.deps.Drafts.ClearDraft(c.Request.Context(), c.Param("userId")); err != nil {
		s.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Notifications.

func (s *HTTPServer) handleListNotifications(c *gin.Context) {
	if s.deps.Notifications == nil {
		c.JSON(http.StatusOK, gin.H{"notifications": []models.NotificationData{}, "unread": 0})
		return
	}

	userID := c.Param("userId")
	c.JSON(http.StatusOK, gin.H{
		"notifications": s.deps.Notifications.List(userID),
		"unread":        s.deps.Notifications.UnreadCount(userID),
	})
}

func (s *HTTPServer) handleMarkRead(c *gin.Context) {
	if s.deps.Notifications == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "notification not found"})
		return
	}

	if err := s.deps.Notifications.MarkRead(c.Param("userId"), c.Param("id")); err != nil {
		s.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
