package unit

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	httpapi "github.com/Raices-25-26J-118/raices-backend/internal/api/http"
	"github.com/gin-gonic/gin"
)

func TestHealthCheck(t *testing.T) {
	gin.SetMode(gin.TestMode)

	router := gin.New()
	handler := httpapi.NewHealthHandler("raices-backend", "1.0.0", nil, nil)
	handler.RegisterRoutes(router)

	req, err := http.NewRequest("GET", "/health", nil)
	if err != nil {
		t.Fatal(err)
	}

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if status := rr.Code; status != http.StatusOK {
		t.Errorf("handler returned wrong status code: got %v want %v",
			status, http.StatusOK)
	}

	var response httpapi.HealthResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &response); err != nil {
		t.Errorf("failed to unmarshal response: %v", err)
	}

	if response.Status != "healthy" {
		t.Errorf("expected status 'healthy', got %s", response.Status)
	}

	if response.Service != "raices-backend" {
		t.Errorf("expected service 'raices-backend', got %s", response.Service)
	}

	if response.Firestore != "disabled" {
		t.Errorf("expected firestore 'disabled', got %s", response.Firestore)
	}

	if response.Redis != "disabled" {
		t.Errorf("expected redis 'disabled', got %s", response.Redis)
	}
}
