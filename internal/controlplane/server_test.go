package controlplane

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gokulnk/panchanga/internal/coordinator"
	"github.com/gokulnk/panchanga/internal/location"
	"github.com/gokulnk/panchanga/internal/models"
	"github.com/gokulnk/panchanga/internal/moonphase"
	"github.com/gokulnk/panchanga/internal/reminders"
	"github.com/gokulnk/panchanga/internal/store"
)

type stubFetcher struct{}

func (stubFetcher) Fetch(_ context.Context, day models.CalendarDay, _ models.LocationSample) (*models.Panchanga, error) {
	return &models.Panchanga{
		Tithi: models.Tithi{Number: 5, Name: "Panchami", Paksha: models.PakshaShukla},
	}, nil
}

func newTestServer(t *testing.T, setter LocationSetter) (*Server, *Service, *store.Store) {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")

	st, err := store.New(dbPath)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	var provider location.Provider = location.NewStatic(12.9716, 77.5946)
	if setter != nil {
		provider = setter.(*location.Manual)
	}

	coord := coordinator.New(stubFetcher{}, provider, nil, &coordinator.Config{
		ThresholdKm: 100,
		ReadyWait:   time.Second,
	})
	t.Cleanup(coord.Stop)

	sched := reminders.New(st)
	moons := moonphase.NewCache(func(_ context.Context, index int) ([]byte, error) {
		return []byte("moon"), nil
	})

	service := NewService(coord, st, sched, moons, setter)
	server := NewServer(service, st, "127.0.0.1:0")
	return server, service, st
}

func TestHealthEndpoint_OK(t *testing.T) {
	s, _, _ := newTestServer(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	s.handleHealth(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected status 200, got %d", resp.StatusCode)
	}

	var health HealthResponse
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if !health.OK {
		t.Error("Expected health.OK to be true")
	}
	if health.DB != "ok" {
		t.Errorf("Expected DB status 'ok', got '%s'", health.DB)
	}
	if health.Version == "" {
		t.Error("Expected version to be set")
	}
}

func TestHealthEndpoint_DBError(t *testing.T) {
	s, _, st := newTestServer(t, nil)
	st.Close()

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	s.handleHealth(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("Expected status 503, got %d", resp.StatusCode)
	}

	var health HealthResponse
	json.NewDecoder(resp.Body).Decode(&health)
	if health.OK {
		t.Error("Expected health.OK to be false when DB is down")
	}
}

func TestGetPanchanga_Idle(t *testing.T) {
	s, _, _ := newTestServer(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/panchanga", nil)
	w := httptest.NewRecorder()
	s.handlePanchanga(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	var resp struct {
		Status string `json:"status"`
		Date   string `json:"date"`
	}
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if resp.Status != string(models.SyncIdle) {
		t.Errorf("Status = %q, want idle", resp.Status)
	}
	if resp.Date == "" {
		t.Error("Expected a selected date")
	}
}

func TestSelectDate(t *testing.T) {
	s, service, _ := newTestServer(t, nil)

	req := httptest.NewRequest(http.MethodPost, "/panchanga/date", strings.NewReader(`{"date":"2025-03-05"}`))
	w := httptest.NewRecorder()
	s.handleSelectDate(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	if got := service.SelectedDate().String(); got != "2025-03-05" {
		t.Errorf("SelectedDate = %q, want 2025-03-05", got)
	}
}

func TestSelectDate_Invalid(t *testing.T) {
	s, _, _ := newTestServer(t, nil)

	for _, body := range []string{`not json`, `{"date":"03/05/2025"}`} {
		req := httptest.NewRequest(http.MethodPost, "/panchanga/date", strings.NewReader(body))
		w := httptest.NewRecorder()
		s.handleSelectDate(w, req)
		if w.Code != http.StatusBadRequest {
			t.Errorf("Body %q: expected status 400, got %d", body, w.Code)
		}
	}
}

func TestPushLocation_FixedLocationConflicts(t *testing.T) {
	s, _, _ := newTestServer(t, nil)

	req := httptest.NewRequest(http.MethodPost, "/location", strings.NewReader(`{"lat":13.0,"lng":80.2}`))
	w := httptest.NewRecorder()
	s.handleLocation(w, req)

	if w.Code != http.StatusConflict {
		t.Errorf("Expected status 409 with a fixed location, got %d", w.Code)
	}
}

func TestPushLocation_Manual(t *testing.T) {
	manual := location.NewManual()
	s, _, _ := newTestServer(t, manual)

	req := httptest.NewRequest(http.MethodPost, "/location", strings.NewReader(`{"lat":13.0827,"lng":80.2707}`))
	w := httptest.NewRecorder()
	s.handleLocation(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	var resp map[string]bool
	json.NewDecoder(w.Body).Decode(&resp)
	if !resp["accepted"] {
		t.Error("Expected the sample to be accepted")
	}
	if loc := manual.Location(); loc == nil || loc.Latitude != 13.0827 {
		t.Errorf("Provider location = %+v", loc)
	}
}

func TestPushLocation_InvalidCoords(t *testing.T) {
	s, _, _ := newTestServer(t, location.NewManual())

	req := httptest.NewRequest(http.MethodPost, "/location", strings.NewReader(`{"lat":95.0,"lng":0}`))
	w := httptest.NewRecorder()
	s.handleLocation(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", w.Code)
	}
}

func TestPreferences_PutRebuildsReminders(t *testing.T) {
	s, _, _ := newTestServer(t, nil)

	body := `{"amavasya":true,"ekadashi":false,"purnima":true,"hour":7,"minute":30}`
	req := httptest.NewRequest(http.MethodPut, "/preferences", strings.NewReader(body))
	w := httptest.NewRecorder()
	s.handlePreferences(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("PUT /preferences: expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	// Preferences persisted.
	req = httptest.NewRequest(http.MethodGet, "/preferences", nil)
	w = httptest.NewRecorder()
	s.handlePreferences(w, req)
	var prefs models.ReminderPreferences
	if err := json.NewDecoder(w.Body).Decode(&prefs); err != nil {
		t.Fatalf("Failed to decode preferences: %v", err)
	}
	if !prefs.Amavasya || prefs.Ekadashi || !prefs.Purnima || prefs.Hour != 7 || prefs.Minute != 30 {
		t.Errorf("Preferences = %+v", prefs)
	}

	// Schedule rebuilt through the store-backed notifier.
	req = httptest.NewRequest(http.MethodGet, "/reminders", nil)
	w = httptest.NewRecorder()
	s.handleReminders(w, req)
	var list []reminders.Notification
	if err := json.NewDecoder(w.Body).Decode(&list); err != nil {
		t.Fatalf("Failed to decode reminders: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("Expected 2 pending reminders, got %d", len(list))
	}
}

func TestPreferences_InvalidTime(t *testing.T) {
	s, _, _ := newTestServer(t, nil)

	req := httptest.NewRequest(http.MethodPut, "/preferences", strings.NewReader(`{"hour":24,"minute":0}`))
	w := httptest.NewRecorder()
	s.handlePreferences(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", w.Code)
	}
}

func TestReminders_EmptyListNotNull(t *testing.T) {
	s, _, _ := newTestServer(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/reminders", nil)
	w := httptest.NewRecorder()
	s.handleReminders(w, req)

	if got := strings.TrimSpace(w.Body.String()); got != "[]" {
		t.Errorf("Expected empty JSON array, got %q", got)
	}
}

func TestMoonPhase_NotLoaded(t *testing.T) {
	s, _, _ := newTestServer(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/moonphase", nil)
	w := httptest.NewRecorder()
	s.handleMoonPhase(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404 before a result is loaded, got %d", w.Code)
	}
}

func TestMoonPhase_Loaded(t *testing.T) {
	s, service, _ := newTestServer(t, nil)

	// Drive the coordinator to a loaded state through a date selection.
	if _, err := service.SelectDate("2025-03-05"); err != nil {
		t.Fatalf("SelectDate failed: %v", err)
	}
	deadline := time.Now().Add(2 * time.Second)
	for service.CurrentState().Status != models.SyncLoaded {
		if time.Now().After(deadline) {
			t.Fatal("Timed out waiting for loaded state")
		}
		time.Sleep(10 * time.Millisecond)
	}

	req := httptest.NewRequest(http.MethodGet, "/moonphase", nil)
	w := httptest.NewRecorder()
	s.handleMoonPhase(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	var resp struct {
		Index int    `json:"index"`
		Asset []byte `json:"asset"`
	}
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	// Shukla tithi 5 maps to phase index 4.
	if resp.Index != 4 {
		t.Errorf("Index = %d, want 4", resp.Index)
	}
	if string(resp.Asset) != "moon" {
		t.Errorf("Asset = %q", resp.Asset)
	}
}
