package bookingflow

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"bookadmin/internal/domain"
)

// HTTPClient implements BookingAPI against the admin API's JSON envelope.
type HTTPClient struct {
	baseURL string
	token   string
	http    *http.Client
}

func NewHTTPClient(baseURL, token string, httpClient *http.Client) *HTTPClient {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &HTTPClient{
		baseURL: baseURL,
		token:   token,
		http:    httpClient,
	}
}

func (c *HTTPClient) ListServices(ctx context.Context) ([]domain.Service, error) {
	var data struct {
		Services []domain.Service `json:"services"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/v1/services", nil, &data); err != nil {
		return nil, err
	}
	return data.Services, nil
}

func (c *HTTPClient) DaySchedule(ctx context.Context, serviceID int64, date string) ([]domain.AnnotatedSlot, error) {
	q := url.Values{}
	q.Set("service_id", fmt.Sprint(serviceID))
	q.Set("date", date)

	var data struct {
		Slots []domain.AnnotatedSlot `json:"slots"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/v1/slots?"+q.Encode(), nil, &data); err != nil {
		return nil, err
	}
	return data.Slots, nil
}

func (c *HTTPClient) CreateAppointment(ctx context.Context, req CreateRequest) (*domain.Appointment, error) {
	var data struct {
		Appointment *domain.Appointment `json:"appointment"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/v1/appointments", req, &data); err != nil {
		return nil, err
	}
	return data.Appointment, nil
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (c *HTTPClient) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	if !env.Success {
		apiErr := &APIError{Code: "INTERNAL_ERROR", Message: "request failed"}
		if env.Error != nil {
			apiErr.Code = env.Error.Code
			apiErr.Message = env.Error.Message
		}
		return apiErr
	}
	if out != nil {
		return json.Unmarshal(env.Data, out)
	}
	return nil
}
