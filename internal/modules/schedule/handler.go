package schedule

import (
	"errors"
	"net/http"
	"strconv"

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

func (h *Handler) RegisterRoutes(public, admin *gin.RouterGroup) {
	public.GET("/slots", h.DaySchedule)

	admin.POST("/slots/generate", h.GenerateSlots)
	admin.DELETE("/slots/:id", h.DeleteSlot)
}

func (h *Handler) GenerateSlots(c *gin.Context) {
	var req GenerateSlotsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	created, err := h.service.GenerateSlots(c.Request.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, ErrValidation):
			response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		case errors.Is(err, domain.ErrNotFound):
			response.Error(c, http.StatusNotFound, "NOT_FOUND", "Service not found")
		default:
			response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to generate slots")
		}
		return
	}

	response.Success(c, http.StatusOK, GenerateSlotsResponse{Created: created})
}

func (h *Handler) DaySchedule(c *gin.Context) {
	serviceID, err := strconv.ParseInt(c.Query("service_id"), 10, 64)
	if err != nil || serviceID <= 0 {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "service_id is required")
		return
	}
	date := c.Query("date")
	if date == "" {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "date is required")
		return
	}

	schedule, err := h.service.DaySchedule(c.Request.Context(), serviceID, date)
	if err != nil {
		switch {
		case errors.Is(err, ErrValidation):
			response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		case errors.Is(err, domain.ErrNotFound):
			response.Error(c, http.StatusNotFound, "NOT_FOUND", "Service not found")
		default:
			response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to load schedule")
		}
		return
	}

	response.Success(c, http.StatusOK, schedule)
}

func (h *Handler) DeleteSlot(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid slot id")
		return
	}

	if err := h.service.DeleteSlot(c.Request.Context(), id); err != nil {
		switch {
		case errors.Is(err, domain.ErrSlotNotFound):
			response.Error(c, http.StatusNotFound, "NOT_FOUND", "Slot not found")
		case errors.Is(err, domain.ErrSlotInUse):
			response.Error(c, http.StatusConflict, "SLOT_IN_USE", "Slot has active appointments")
		default:
			response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to delete slot")
		}
		return
	}

	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}
