package appointment

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"bookadmin/internal/domain"
	"bookadmin/internal/pkg/response"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes splits the appointment surface: clients book through the
// public group, lifecycle management stays behind admin auth.
func (h *Handler) RegisterRoutes(public, admin *gin.RouterGroup) {
	public.POST("/appointments", h.Create)

	admin.GET("/appointments", h.List)
	admin.PUT("/appointments/:id", h.UpdateStatus)
	admin.PUT("/appointments/:id/cancel", h.Cancel)
	admin.PUT("/appointments/:id/reschedule", h.Reschedule)
}

func (h *Handler) Create(c *gin.Context) {
	var req CreateAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		// The booking form needs to know which field is missing, not just
		// that the body was bad.
		response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR",
			"Missing required booking fields", missingFields(req))
		return
	}

	a, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrSlotNotFound):
			response.Error(c, http.StatusNotFound, "SLOT_NOT_FOUND", "Slot not found, refresh and try again")
		case errors.Is(err, domain.ErrServiceMismatch):
			response.Error(c, http.StatusConflict, "SERVICE_MISMATCH", "Slot does not belong to the selected service")
		case errors.Is(err, domain.ErrCapacityExceeded):
			response.Error(c, http.StatusConflict, "CAPACITY_EXCEEDED", "Slot is fully booked, select another time")
		default:
			response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to create appointment")
		}
		return
	}

	response.Created(c, gin.H{"appointment": a})
}

func (h *Handler) UpdateStatus(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "status is required")
		return
	}

	a, err := h.service.UpdateStatus(c.Request.Context(), id, strings.ToLower(req.Status))
	if err != nil {
		h.writeLifecycleError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"appointment": a})
}

func (h *Handler) Cancel(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	// Body (and reason) is optional for cancellation.
	var req CancelRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
			return
		}
	}

	by := domain.CancelledByClient
	if req.Reason != "" {
		by = domain.CancelledByStaff
	}

	a, err := h.service.Cancel(c.Request.Context(), id, req.Reason, by)
	if err != nil {
		h.writeLifecycleError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"appointment": a})
}

func (h *Handler) Reschedule(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req RescheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "new_slot_id is required")
		return
	}

	a, err := h.service.Reschedule(c.Request.Context(), id, req.NewSlotID)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrCapacityExceeded):
			response.Error(c, http.StatusConflict, "CAPACITY_EXCEEDED", "New slot is fully booked, original appointment kept")
		default:
			h.writeLifecycleError(c, err)
		}
		return
	}

	response.Success(c, http.StatusOK, gin.H{"appointment": a})
}

func (h *Handler) List(c *gin.Context) {
	serviceID, _ := strconv.ParseInt(c.Query("service_id"), 10, 64)
	status := strings.ToLower(c.Query("status"))

	list, err := h.service.List(c.Request.Context(), serviceID, status)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list appointments")
		return
	}

	response.Success(c, http.StatusOK, gin.H{"appointments": list})
}

func (h *Handler) writeLifecycleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrSlotNotFound):
		response.Error(c, http.StatusNotFound, "NOT_FOUND", "Appointment not found, refresh and try again")
	case errors.Is(err, domain.ErrInvalidTransition):
		response.Error(c, http.StatusConflict, "INVALID_TRANSITION", "Appointment status does not allow this change")
	default:
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to update appointment")
	}
}

// missingFields maps absent required create fields to the codes the booking
// form renders inline.
func missingFields(req CreateAppointmentRequest) map[string]string {
	details := make(map[string]string)
	if req.ServiceID == 0 {
		details["service_id"] = "serviceRequired"
	}
	if req.SlotID == 0 {
		details["slot_id"] = "slotRequired"
	}
	if req.ChatID == "" {
		details["chat_id"] = "chatIdRequired"
	}
	return details
}

func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid appointment id")
		return 0, false
	}
	return id, true
}
