package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"bookadmin/internal/database"
	"bookadmin/internal/domain"
	"bookadmin/internal/middleware"
	"bookadmin/internal/modules/appointment"
	"bookadmin/internal/modules/bookingflow"
	"bookadmin/internal/modules/catalog"
	"bookadmin/internal/modules/live"
	"bookadmin/internal/modules/schedule"
	jwtsvc "bookadmin/internal/pkg/jwt"
	"bookadmin/internal/repository"
)

type E2ETestSuite struct {
	router     *gin.Engine
	db         *gorm.DB
	jwtService *jwtsvc.Service
	hub        *live.Hub

	orgID     int64
	serviceID int64
}

type TestResponse struct {
	Success bool                   `json:"success"`
	Data    map[string]interface{} `json:"data,omitempty"`
	Error   *ErrorDetail           `json:"error,omitempty"`
}

type ErrorDetail struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

func setupTestSuite(t *testing.T) *E2ETestSuite {
	db, err := database.Connect(":memory:")
	require.NoError(t, err, "Failed to connect to test database")
	require.NoError(t, database.Migrate(db))

	org := &domain.Organization{Name: "Demo Clinic"}
	require.NoError(t, db.Create(org).Error)
	svc := &domain.Service{OrganizationID: org.ID, Name: "Consultation", DurationMinutes: 30}
	require.NoError(t, db.Create(svc).Error)

	orgRepo := repository.NewOrganizationRepository(db)
	serviceRepo := repository.NewServiceRepository(db)
	slotRepo := repository.NewSlotRepository(db)
	apptRepo := repository.NewAppointmentRepository(db)

	logger := zap.NewNop()
	jwtService := jwtsvc.New("test_secret_key_32_characters_min", 24*time.Hour)
	hub := live.NewHub(nil, logger)

	catalogHandler := catalog.NewHandler(catalog.NewService(serviceRepo, orgRepo))
	scheduleHandler := schedule.NewHandler(schedule.NewService(serviceRepo, slotRepo, apptRepo, logger))
	apptHandler := appointment.NewHandler(appointment.NewService(apptRepo, slotRepo, orgRepo, hub, logger))

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/ws", live.ServeWS(hub, jwtService, logger))

	v1 := r.Group("/api/v1")
	admin := v1.Group("/")
	admin.Use(middleware.Auth(jwtService))

	catalogHandler.RegisterRoutes(v1, admin)
	scheduleHandler.RegisterRoutes(v1, admin)
	apptHandler.RegisterRoutes(v1, admin)

	return &E2ETestSuite{
		router:     r,
		db:         db,
		jwtService: jwtService,
		hub:        hub,
		orgID:      org.ID,
		serviceID:  svc.ID,
	}
}

func (s *E2ETestSuite) adminToken(t *testing.T) string {
	token, err := s.jwtService.GenerateToken(1, s.orgID, "admin")
	require.NoError(t, err)
	return token
}

func (s *E2ETestSuite) makeRequest(t *testing.T, method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	t.Helper()

	var bodyBytes []byte
	if body != nil {
		var err error
		bodyBytes, err = json.Marshal(body)
		require.NoError(t, err)
	}

	req := httptest.NewRequest(method, path, bytes.NewBuffer(bodyBytes))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func parseResponse(t *testing.T, w *httptest.ResponseRecorder) *TestResponse {
	t.Helper()
	var resp TestResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), "body: %s", w.Body.String())
	return &resp
}

func (s *E2ETestSuite) generateSlots(t *testing.T, token string) {
	w := s.makeRequest(t, "POST", "/api/v1/slots/generate", map[string]interface{}{
		"service_id": s.serviceID,
		"start_date": "2026-03-02",
		"end_date":   "2026-03-02",
		"start_time": "09:00",
		"end_time":   "12:00",
	}, token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
}

func (s *E2ETestSuite) daySchedule(t *testing.T) []map[string]interface{} {
	w := s.makeRequest(t, "GET",
		fmt.Sprintf("/api/v1/slots?service_id=%d&date=2026-03-02", s.serviceID), nil, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	resp := parseResponse(t, w)
	raw, ok := resp.Data["slots"].([]interface{})
	require.True(t, ok)
	slots := make([]map[string]interface{}, 0, len(raw))
	for _, item := range raw {
		slots = append(slots, item.(map[string]interface{}))
	}
	return slots
}

func (s *E2ETestSuite) firstAvailableSlotID(t *testing.T) int64 {
	for _, slot := range s.daySchedule(t) {
		if slot["status"] == "available" {
			return int64(slot["id"].(float64))
		}
	}
	t.Fatal("no available slot")
	return 0
}

func TestFlow_GenerateAndListSlots(t *testing.T) {
	suite := setupTestSuite(t)
	token := suite.adminToken(t)

	t.Run("generation requires auth", func(t *testing.T) {
		w := suite.makeRequest(t, "POST", "/api/v1/slots/generate", map[string]interface{}{
			"service_id": suite.serviceID,
		}, "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("POST /slots/generate", func(t *testing.T) {
		w := suite.makeRequest(t, "POST", "/api/v1/slots/generate", map[string]interface{}{
			"service_id": suite.serviceID,
			"start_date": "2026-03-02",
			"end_date":   "2026-03-02",
			"start_time": "09:00",
			"end_time":   "12:00",
		}, token)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		resp := parseResponse(t, w)
		assert.True(t, resp.Success)
		assert.Equal(t, float64(6), resp.Data["created"])
	})

	t.Run("regeneration creates nothing new", func(t *testing.T) {
		w := suite.makeRequest(t, "POST", "/api/v1/slots/generate", map[string]interface{}{
			"service_id": suite.serviceID,
			"start_date": "2026-03-02",
			"end_date":   "2026-03-02",
			"start_time": "09:00",
			"end_time":   "12:00",
		}, token)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		resp := parseResponse(t, w)
		assert.Equal(t, float64(0), resp.Data["created"])
	})

	t.Run("GET /slots is public and all available", func(t *testing.T) {
		slots := suite.daySchedule(t)
		require.Len(t, slots, 6)
		for _, slot := range slots {
			assert.Equal(t, "available", slot["status"])
		}
	})

	t.Run("invalid generation rejected", func(t *testing.T) {
		w := suite.makeRequest(t, "POST", "/api/v1/slots/generate", map[string]interface{}{
			"service_id": suite.serviceID,
			"start_date": "2026-03-02",
			"end_date":   "2026-03-02",
			"start_time": "12:00",
			"end_time":   "09:00",
		}, token)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "VALIDATION_ERROR", parseResponse(t, w).Error.Code)
	})
}

func TestFlow_BookingLifecycle(t *testing.T) {
	suite := setupTestSuite(t)
	token := suite.adminToken(t)
	suite.generateSlots(t, token)
	slotID := suite.firstAvailableSlotID(t)

	var appointmentID int64

	t.Run("POST /appointments books the slot", func(t *testing.T) {
		w := suite.makeRequest(t, "POST", "/api/v1/appointments", map[string]interface{}{
			"chat_id":       "chat-1",
			"service_id":    suite.serviceID,
			"slot_id":       slotID,
			"customer_name": "Aru",
		}, "")
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

		resp := parseResponse(t, w)
		appt := resp.Data["appointment"].(map[string]interface{})
		assert.Equal(t, "pending", appt["status"])
		appointmentID = int64(appt["id"].(float64))
	})

	t.Run("slot shows booked afterwards", func(t *testing.T) {
		for _, slot := range suite.daySchedule(t) {
			if int64(slot["id"].(float64)) == slotID {
				assert.Equal(t, "booked", slot["status"])
				assert.Equal(t, float64(1), slot["occupancy"])
			}
		}
	})

	t.Run("second booking on the same slot is rejected", func(t *testing.T) {
		w := suite.makeRequest(t, "POST", "/api/v1/appointments", map[string]interface{}{
			"chat_id":    "chat-2",
			"service_id": suite.serviceID,
			"slot_id":    slotID,
		}, "")
		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, "CAPACITY_EXCEEDED", parseResponse(t, w).Error.Code)
	})

	t.Run("missing fields reported per field", func(t *testing.T) {
		w := suite.makeRequest(t, "POST", "/api/v1/appointments", map[string]interface{}{
			"service_id": suite.serviceID,
		}, "")
		require.Equal(t, http.StatusBadRequest, w.Code)

		resp := parseResponse(t, w)
		details := resp.Error.Details.(map[string]interface{})
		assert.Equal(t, "slotRequired", details["slot_id"])
		assert.Equal(t, "chatIdRequired", details["chat_id"])
	})

	t.Run("wrong service for slot rejected", func(t *testing.T) {
		w := suite.makeRequest(t, "POST", "/api/v1/appointments", map[string]interface{}{
			"chat_id":    "chat-3",
			"service_id": suite.serviceID + 99,
			"slot_id":    slotID,
		}, "")
		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, "SERVICE_MISMATCH", parseResponse(t, w).Error.Code)
	})

	t.Run("PUT /appointments/:id confirms", func(t *testing.T) {
		w := suite.makeRequest(t, "PUT",
			fmt.Sprintf("/api/v1/appointments/%d", appointmentID),
			map[string]interface{}{"status": "confirmed"}, token)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		appt := parseResponse(t, w).Data["appointment"].(map[string]interface{})
		assert.Equal(t, "confirmed", appt["status"])
	})

	t.Run("confirm again is a no-op", func(t *testing.T) {
		w := suite.makeRequest(t, "PUT",
			fmt.Sprintf("/api/v1/appointments/%d", appointmentID),
			map[string]interface{}{"status": "confirmed"}, token)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("cancel with staff reason", func(t *testing.T) {
		w := suite.makeRequest(t, "PUT",
			fmt.Sprintf("/api/v1/appointments/%d/cancel", appointmentID),
			map[string]interface{}{"reason": "No show"}, token)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		appt := parseResponse(t, w).Data["appointment"].(map[string]interface{})
		assert.Equal(t, "cancelled", appt["status"])
		assert.Equal(t, "staff", appt["cancelled_by"])
	})

	t.Run("cancel again stays cancelled", func(t *testing.T) {
		w := suite.makeRequest(t, "PUT",
			fmt.Sprintf("/api/v1/appointments/%d/cancel", appointmentID), nil, token)
		require.Equal(t, http.StatusOK, w.Code)

		appt := parseResponse(t, w).Data["appointment"].(map[string]interface{})
		assert.Equal(t, "cancelled", appt["status"])
	})

	t.Run("cancelled appointment releases the slot", func(t *testing.T) {
		for _, slot := range suite.daySchedule(t) {
			if int64(slot["id"].(float64)) == slotID {
				assert.Equal(t, "available", slot["status"])
			}
		}
	})

	t.Run("confirming a cancelled appointment rejected", func(t *testing.T) {
		w := suite.makeRequest(t, "PUT",
			fmt.Sprintf("/api/v1/appointments/%d", appointmentID),
			map[string]interface{}{"status": "confirmed"}, token)
		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, "INVALID_TRANSITION", parseResponse(t, w).Error.Code)
	})
}

func TestFlow_Reschedule(t *testing.T) {
	suite := setupTestSuite(t)
	token := suite.adminToken(t)
	suite.generateSlots(t, token)

	slots := suite.daySchedule(t)
	require.GreaterOrEqual(t, len(slots), 2)
	firstID := int64(slots[0]["id"].(float64))
	secondID := int64(slots[1]["id"].(float64))

	thirdID := int64(slots[2]["id"].(float64))

	w := suite.makeRequest(t, "POST", "/api/v1/appointments", map[string]interface{}{
		"chat_id": "chat-1", "service_id": suite.serviceID, "slot_id": firstID,
	}, "")
	require.Equal(t, http.StatusCreated, w.Code)
	apptID := int64(parseResponse(t, w).Data["appointment"].(map[string]interface{})["id"].(float64))

	var replacementID int64

	t.Run("reschedule moves the booking", func(t *testing.T) {
		w := suite.makeRequest(t, "PUT",
			fmt.Sprintf("/api/v1/appointments/%d/reschedule", apptID),
			map[string]interface{}{"new_slot_id": secondID}, token)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		appt := parseResponse(t, w).Data["appointment"].(map[string]interface{})
		assert.Equal(t, float64(secondID), appt["slot_id"])
		replacementID = int64(appt["id"].(float64))

		for _, slot := range suite.daySchedule(t) {
			switch int64(slot["id"].(float64)) {
			case firstID:
				assert.Equal(t, "available", slot["status"])
			case secondID:
				assert.Equal(t, "booked", slot["status"])
			}
		}
	})

	t.Run("reschedule into a full slot keeps the original", func(t *testing.T) {
		// Fill the third slot with someone else's booking first.
		w := suite.makeRequest(t, "POST", "/api/v1/appointments", map[string]interface{}{
			"chat_id": "chat-2", "service_id": suite.serviceID, "slot_id": thirdID,
		}, "")
		require.Equal(t, http.StatusCreated, w.Code)

		w = suite.makeRequest(t, "PUT",
			fmt.Sprintf("/api/v1/appointments/%d/reschedule", replacementID),
			map[string]interface{}{"new_slot_id": thirdID}, token)
		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, "CAPACITY_EXCEEDED", parseResponse(t, w).Error.Code)

		// The original booking still occupies its slot.
		for _, slot := range suite.daySchedule(t) {
			if int64(slot["id"].(float64)) == secondID {
				assert.Equal(t, "booked", slot["status"])
			}
		}
	})

	t.Run("rescheduling a cancelled appointment rejected", func(t *testing.T) {
		w := suite.makeRequest(t, "PUT",
			fmt.Sprintf("/api/v1/appointments/%d/reschedule", apptID),
			map[string]interface{}{"new_slot_id": firstID}, token)
		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, "INVALID_TRANSITION", parseResponse(t, w).Error.Code)
	})
}

func TestFlow_CatalogGuards(t *testing.T) {
	suite := setupTestSuite(t)
	token := suite.adminToken(t)
	suite.generateSlots(t, token)
	slotID := suite.firstAvailableSlotID(t)

	w := suite.makeRequest(t, "POST", "/api/v1/appointments", map[string]interface{}{
		"chat_id": "chat-1", "service_id": suite.serviceID, "slot_id": slotID,
	}, "")
	require.Equal(t, http.StatusCreated, w.Code)

	t.Run("slot with active appointment cannot be deleted", func(t *testing.T) {
		w := suite.makeRequest(t, "DELETE", fmt.Sprintf("/api/v1/slots/%d", slotID), nil, token)
		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, "SLOT_IN_USE", parseResponse(t, w).Error.Code)
	})

	t.Run("service with active appointments cannot be deleted", func(t *testing.T) {
		w := suite.makeRequest(t, "DELETE", fmt.Sprintf("/api/v1/services/%d", suite.serviceID), nil, token)
		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, "SERVICE_IN_USE", parseResponse(t, w).Error.Code)
	})

	t.Run("empty slot deletes fine", func(t *testing.T) {
		emptyID := suite.firstAvailableSlotID(t)
		w := suite.makeRequest(t, "DELETE", fmt.Sprintf("/api/v1/slots/%d", emptyID), nil, token)
		assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
	})

	t.Run("service update keeps duration", func(t *testing.T) {
		w := suite.makeRequest(t, "PUT", fmt.Sprintf("/api/v1/services/%d", suite.serviceID),
			map[string]interface{}{"name": "Extended consultation", "duration_minutes": 90}, token)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		svc := parseResponse(t, w).Data["service"].(map[string]interface{})
		assert.Equal(t, float64(30), svc["duration_minutes"])
	})
}

func TestFlow_BookingFormAgainstLiveServer(t *testing.T) {
	suite := setupTestSuite(t)
	token := suite.adminToken(t)
	suite.generateSlots(t, token)

	server := httptest.NewServer(suite.router)
	defer server.Close()

	api := bookingflow.NewHTTPClient(server.URL, "", server.Client())
	store := bookingflow.NewStore()
	form := bookingflow.NewOrchestrator(api, store, 5*time.Second)

	ctx := context.Background()
	require.NoError(t, form.LoadServices(ctx))
	require.NotEmpty(t, store.Services())

	form.SelectService(store.Services()[0].ID)
	require.NoError(t, form.SelectDate(ctx, "2026-03-02"))
	require.Len(t, store.Slots(), 6)

	slotID := store.Slots()[0].ID
	require.NoError(t, form.SelectSlot(slotID))
	form.SetClient("chat-42", "Aru")

	appt, fields, err := form.Submit(ctx)
	require.NoError(t, err)
	require.Empty(t, fields)
	require.NotNil(t, appt)
	assert.Equal(t, slotID, appt.SlotID)

	// The ack refresh already flipped the local copy to booked.
	slot, ok := store.SlotByID(slotID)
	require.True(t, ok)
	assert.Equal(t, domain.SlotBooked, slot.Status)

	// A second form instance racing for the same slot loses cleanly.
	other := bookingflow.NewOrchestrator(bookingflow.NewHTTPClient(server.URL, "", server.Client()), bookingflow.NewStore(), 5*time.Second)
	other.SelectService(store.Services()[0].ID)
	require.NoError(t, other.SelectDate(ctx, "2026-03-02"))
	assert.ErrorIs(t, other.SelectSlot(slotID), bookingflow.ErrSlotUnavailable)
}
