package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	recordsRepo "receptionist/database/repository/records"
	"receptionist/models"
	"receptionist/services/calendar"
	"receptionist/services/session"
	"receptionist/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	adminRole       = "admin"
	adminTokenTTL   = 12 * time.Hour
	maxUpcomingDays = 60
)

// AppointmentManager is the calendar view the admin API works on.
type AppointmentManager interface {
	UpcomingAppointments(ctx context.Context, days int) ([]models.Appointment, error)
	CancelAppointment(ctx context.Context, eventID string) error
}

// AdminCredentials is the single shop-owner account.
type AdminCredentials struct {
	Username     string
	PasswordHash string
	Secret       []byte
}

// AdminHandler encapsulates the shop owner's operations.
type AdminHandler struct {
	appointments AppointmentManager
	records      recordsRepo.CallRecordRepository
	agent        Receptionist
	creds        AdminCredentials
	logger       *zap.Logger
}

// NewAdminHandler creates an AdminHandler. records may be nil when the call
// archive is not configured.
func NewAdminHandler(appointments AppointmentManager, records recordsRepo.CallRecordRepository, agent Receptionist, creds AdminCredentials, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{
		appointments: appointments,
		records:      records,
		agent:        agent,
		creds:        creds,
		logger:       logger,
	}
}

type adminLoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Login exchanges the admin password for a bearer token.
func (ah *AdminHandler) Login(c *gin.Context) {
	var req adminLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
		return
	}
	if req.Username != ah.creds.Username || !utils.CheckPassword(ah.creds.PasswordHash, req.Password) {
		ah.logger.Warn("Admin login failed", zap.String("username", req.Username))
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	token, err := utils.GenerateToken(ah.creds.Secret, req.Username, adminRole, adminTokenTTL)
	if err != nil {
		ah.logger.Error("Failed to issue admin token", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to issue token"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token, "expires_in": int(adminTokenTTL.Seconds())})
}

// UpcomingAppointments lists calendar bookings for the next ?days days.
func (ah *AdminHandler) UpcomingAppointments(c *gin.Context) {
	days, err := strconv.Atoi(c.DefaultQuery("days", "7"))
	if err != nil || days < 1 || days > maxUpcomingDays {
		c.JSON(http.StatusBadRequest, gin.H{"error": "days must be between 1 and 60"})
		return
	}

	appointments, err := ah.appointments.UpcomingAppointments(c.Request.Context(), days)
	if err != nil {
		utils.JSONError(c, http.StatusBadGateway, "Calendar unavailable", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"appointments": appointments, "count": len(appointments)})
}

// CancelAppointment deletes a booking by calendar event ID.
func (ah *AdminHandler) CancelAppointment(c *gin.Context) {
	eventID := c.Param("eventID")
	err := ah.appointments.CancelAppointment(c.Request.Context(), eventID)
	switch {
	case err == nil:
		ah.logger.Info("Appointment cancelled by admin", zap.String("eventID", eventID))
		c.JSON(http.StatusOK, gin.H{"message": "Appointment cancelled", "event_id": eventID})
	case errors.Is(err, calendar.ErrEventNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Appointment not found"})
	default:
		utils.JSONError(c, http.StatusBadGateway, "Calendar unavailable", err.Error())
	}
}

// ListCalls returns archived calls, most recent first.
func (ah *AdminHandler) ListCalls(c *gin.Context) {
	if ah.records == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Call archive is not configured"})
		return
	}
	limit, err := strconv.ParseInt(c.DefaultQuery("limit", strconv.Itoa(recordsRepo.DefaultListLimit)), 10, 64)
	if err != nil || limit < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive number"})
		return
	}

	calls, err := ah.records.List(c.Request.Context(), limit)
	if err != nil {
		ah.logger.Error("Failed to list call records", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch calls"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"calls": calls, "count": len(calls)})
}

// GetSession returns a live or recently ended call session.
func (ah *AdminHandler) GetSession(c *gin.Context) {
	sessionID := c.Param("sessionID")
	sess, err := ah.agent.Session(c.Request.Context(), sessionID)
	switch {
	case errors.Is(err, session.ErrSessionNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
	case err != nil:
		ah.logger.Error("Failed to load session", zap.String("sessionID", sessionID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load session"})
	default:
		c.JSON(http.StatusOK, sess)
	}
}
