package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"trekdesk/cache"
	"trekdesk/database"
	"trekdesk/pricing"
	"trekdesk/services"

	"github.com/gin-gonic/gin"
)

func newTestRouter(t *testing.T) (*gin.Engine, *database.Store) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store, err := database.OpenSQLite(":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	svc := services.NewPricingService(store, store, cache.NewMemoryCache(), time.Minute)
	h := NewHandler(svc, services.NewAdvisor("", ""), store)
	h.Now = func() time.Time { return time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC) }

	r := gin.New()
	h.Register(r)
	return r, store
}

func doJSON(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != "" {
		reader = bytes.NewReader([]byte(body))
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestQuoteHandler_OK(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doJSON(r, http.MethodPost, "/api/pricing/quote",
		`{"base_price": 6000, "total_seats": 20, "booked_seats": 17, "days_until_travel": 5}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var rec pricing.Recommendation
	if err := json.Unmarshal(w.Body.Bytes(), &rec); err != nil {
		t.Fatal(err)
	}
	if rec.NewPrice != 6900 || rec.Action != pricing.ActionIncrease || rec.Confidence != 92 {
		t.Errorf("unexpected recommendation: %+v", rec)
	}
}

func TestQuoteHandler_InvalidInput(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doJSON(r, http.MethodPost, "/api/pricing/quote",
		`{"base_price": 1000, "total_seats": 0, "booked_seats": 0, "days_until_travel": 5}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "invalid pricing input") {
		t.Errorf("expected invalid input message, got %s", w.Body.String())
	}
}

func TestQuoteHandler_PriceOutOfRange(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doJSON(r, http.MethodPost, "/api/pricing/quote",
		`{"base_price": 1.6e308, "total_seats": 10, "booked_seats": 9, "days_until_travel": 3}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), "invalid pricing input") {
		t.Errorf("expected invalid input message, got %s", w.Body.String())
	}

	w = doJSON(r, http.MethodPost, "/api/departures",
		`{"package_name":"Sar Pass","base_price":1e12,"total_seats":10,"booked_seats":2,"travel_date":"2026-11-20"}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for departure price above column range, got %d", w.Code)
	}
}

func TestQuoteHandler_BadJSON(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doJSON(r, http.MethodPost, "/api/pricing/quote", `{invalid-json}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestForecastHandlers(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doJSON(r, http.MethodGet, "/api/pricing/forecast", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var resp ForecastResponse
	json.Unmarshal(w.Body.Bytes(), &resp)
	if len(resp.Days) != 7 || resp.Days[0].Label != "Mon" || resp.Days[5].DemandPercent != 95 {
		t.Errorf("unexpected default forecast: %+v", resp.Days)
	}

	w = doJSON(r, http.MethodPut, "/api/pricing/forecast", `{"days":[{"label":"Mon","demand_percent":10}]}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for short forecast, got %d", w.Code)
	}

	body := `{"days":[
		{"label":"Mon","demand_percent":10},{"label":"Tue","demand_percent":20},
		{"label":"Wed","demand_percent":30},{"label":"Thu","demand_percent":40},
		{"label":"Fri","demand_percent":50},{"label":"Sat","demand_percent":60},
		{"label":"Sun","demand_percent":70}]}`
	w = doJSON(r, http.MethodPut, "/api/pricing/forecast", body)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	w = doJSON(r, http.MethodGet, "/api/pricing/forecast", "")
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Days[6].DemandPercent != 70 {
		t.Errorf("expected stored forecast, got %+v", resp.Days)
	}
}

func TestDepartureFlow(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doJSON(r, http.MethodPost, "/api/departures",
		`{"package_name":"Hampta Pass","base_price":2000,"total_seats":10,"booked_seats":5,"travel_date":"2026-11-20"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	var d database.Departure
	json.Unmarshal(w.Body.Bytes(), &d)
	if d.ID == "" {
		t.Fatal("expected departure id")
	}

	w = doJSON(r, http.MethodGet, "/api/departures/"+d.ID+"/price", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var price struct {
		Recommendation  pricing.Recommendation `json:"recommendation"`
		DaysUntilTravel int                    `json:"days_until_travel"`
		Note            string                 `json:"note"`
	}
	json.Unmarshal(w.Body.Bytes(), &price)
	if price.Recommendation.Confidence != 65 || price.DaysUntilTravel != 33 {
		t.Errorf("unexpected price response: %+v", price)
	}
	if price.Note != pricing.ReasonHealthy {
		t.Errorf("expected rule reason as note without AI key, got %q", price.Note)
	}

	w = doJSON(r, http.MethodPost, "/api/departures/"+d.ID+"/book", `{"seats":4}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	w = doJSON(r, http.MethodPost, "/api/departures/"+d.ID+"/book", `{"seats":2}`)
	if w.Code != http.StatusConflict {
		t.Errorf("expected 409 when sold out, got %d", w.Code)
	}

	w = doJSON(r, http.MethodGet, "/api/departures/"+d.ID+"/price", "")
	json.Unmarshal(w.Body.Bytes(), &price)
	if price.Recommendation.Action != pricing.ActionIncrease || price.Recommendation.NewPrice != 2300 {
		t.Errorf("expected scarcity pricing after booking, got %+v", price.Recommendation)
	}

	w = doJSON(r, http.MethodGet, "/api/departures/"+d.ID+"/history", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var hist struct {
		Snapshots []database.PriceSnapshot `json:"snapshots"`
	}
	json.Unmarshal(w.Body.Bytes(), &hist)
	if len(hist.Snapshots) != 2 {
		t.Errorf("expected 2 snapshots, got %d", len(hist.Snapshots))
	}
}

func TestDepartureHandlers_NotFound(t *testing.T) {
	r, _ := newTestRouter(t)

	for _, path := range []string{
		"/api/departures/missing",
		"/api/departures/missing/price",
		"/api/departures/missing/history",
		"/api/departures/missing/report",
	} {
		if w := doJSON(r, http.MethodGet, path, ""); w.Code != http.StatusNotFound {
			t.Errorf("%s: expected 404, got %d", path, w.Code)
		}
	}
}

func TestCreateDeparture_InvalidCapacity(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doJSON(r, http.MethodPost, "/api/departures",
		`{"package_name":"Sar Pass","base_price":5000,"total_seats":10,"booked_seats":12,"travel_date":"2026-11-20"}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for overbooked departure, got %d", w.Code)
	}
}

func TestReportHandler(t *testing.T) {
	r, store := newTestRouter(t)

	d := &database.Departure{ID: "d1", PackageName: "Kedarkantha", BasePrice: 6000, TotalSeats: 20, BookedSeats: 17, TravelDate: "2026-10-23"}
	if err := store.SaveDeparture(context.Background(), d); err != nil {
		t.Fatal(err)
	}

	w := doJSON(r, http.MethodGet, "/api/departures/d1/report", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/pdf" {
		t.Errorf("expected application/pdf, got %s", ct)
	}
	if !bytes.HasPrefix(w.Body.Bytes(), []byte("%PDF")) {
		t.Error("expected PDF body")
	}
}

func TestHealthHandler(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doJSON(r, http.MethodGet, "/api/health", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"database":"ok"`) {
		t.Errorf("expected healthy database, got %s", w.Body.String())
	}
}
