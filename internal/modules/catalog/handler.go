package catalog

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
	public.GET("/services", h.ListServices)
	public.GET("/organizations", h.ListOrganizations)

	admin.POST("/services", h.CreateService)
	admin.PUT("/services/:id", h.UpdateService)
	admin.DELETE("/services/:id", h.DeleteService)
}

func (h *Handler) ListServices(c *gin.Context) {
	orgID, _ := strconv.ParseInt(c.Query("organization_id"), 10, 64)

	services, err := h.service.ListServices(c.Request.Context(), orgID)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list services")
		return
	}
	response.Success(c, http.StatusOK, gin.H{"services": services})
}

func (h *Handler) ListOrganizations(c *gin.Context) {
	orgs, err := h.service.ListOrganizations(c.Request.Context())
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list organizations")
		return
	}
	response.Success(c, http.StatusOK, gin.H{"organizations": orgs})
}

func (h *Handler) CreateService(c *gin.Context) {
	var svc domain.Service
	if err := c.ShouldBindJSON(&svc); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	fields, err := h.service.CreateService(c.Request.Context(), &svc)
	if err != nil {
		if fields != nil {
			response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid service", fields)
			return
		}
		if errors.Is(err, domain.ErrNotFound) {
			response.Error(c, http.StatusNotFound, "NOT_FOUND", "Organization not found")
			return
		}
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to create service")
		return
	}

	response.Created(c, gin.H{"service": svc})
}

func (h *Handler) UpdateService(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid service id")
		return
	}

	var svc domain.Service
	if err := c.ShouldBindJSON(&svc); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}
	svc.ID = id

	fields, err := h.service.UpdateService(c.Request.Context(), &svc)
	if err != nil {
		if fields != nil {
			response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid service", fields)
			return
		}
		if errors.Is(err, domain.ErrNotFound) {
			response.Error(c, http.StatusNotFound, "NOT_FOUND", "Service not found")
			return
		}
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to update service")
		return
	}

	response.Success(c, http.StatusOK, gin.H{"service": svc})
}

func (h *Handler) DeleteService(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid service id")
		return
	}

	if err := h.service.DeleteService(c.Request.Context(), id); err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound):
			response.Error(c, http.StatusNotFound, "NOT_FOUND", "Service not found")
		case errors.Is(err, domain.ErrServiceInUse):
			response.Error(c, http.StatusConflict, "SERVICE_IN_USE", "Service has active appointments")
		default:
			response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to delete service")
		}
		return
	}

	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}
