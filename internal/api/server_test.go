package api

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	_ "github.com/mattn/go-sqlite3"

	"github.com/emberwell/firewatch-core/internal/audit"
	"github.com/emberwell/firewatch-core/internal/device"
	"github.com/emberwell/firewatch-core/internal/household"
	"github.com/emberwell/firewatch-core/internal/infrastructure/config"
	"github.com/emberwell/firewatch-core/internal/infrastructure/logging"
	"github.com/emberwell/firewatch-core/internal/workflow"
)

// testServer creates a Server with real registries backed by in-memory SQLite.
func testServer(t *testing.T) (*Server, *household.Registry) {
	t.Helper()

	db := setupTestDB(t)
	householdRepo := household.NewSQLiteRepository(db)
	households := household.NewRegistry(householdRepo)
	if err := households.RefreshCache(context.Background()); err != nil {
		t.Fatalf("RefreshCache: %v", err)
	}

	deviceRepo := device.NewSQLiteRepository(db)
	devices := device.NewRegistry(deviceRepo, households)

	auditRepo := audit.NewSQLiteRepository(db)

	log := logging.New(config.LoggingConfig{Level: "error", Format: "text", Output: "stdout"}, "test")

	store := workflow.NewRegistryStore(households, devices)

	srv, err := New(Deps{
		Config: config.APIConfig{
			Host: "127.0.0.1",
			Port: 0,
			Timeouts: config.APITimeoutConfig{
				Read:  5,
				Write: 5,
				Idle:  5,
			},
		},
		WS: config.WebSocketConfig{
			MaxMessageSize: 8192,
			PingInterval:   30,
			PongTimeout:    10,
		},
		Logger:     log,
		Households: households,
		Devices:    devices,
		Workflow:   workflow.NewController(store, 0),
		Audit:      audit.NewRecorder(auditRepo, log),
		AuditRepo:  auditRepo,
		MQTT:       nil,
		Version:    "test",
	})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	// Initialise hub for tests
	srv.hub = NewHub(srv.wsCfg, log)
	go srv.hub.Run(context.Background())

	return srv, households
}

// setupTestDB creates an in-memory SQLite database with the full schema.
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	schema := `
		CREATE TABLE households (
			id TEXT PRIMARY KEY,
			owner_name TEXT NOT NULL,
			address TEXT NOT NULL,
			contact_number TEXT NOT NULL,
			emergency_contact TEXT,
			risk_level TEXT NOT NULL,
			safety_score INTEGER NOT NULL,
			fire_extinguishers INTEGER NOT NULL DEFAULT 0,
			smoke_detectors INTEGER NOT NULL DEFAULT 0,
			last_incident TEXT,
			last_inspection TEXT,
			created_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ', 'now')),
			updated_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ', 'now'))
		) STRICT;
		CREATE TABLE devices (
			id TEXT PRIMARY KEY,
			household_id TEXT NOT NULL,
			type TEXT NOT NULL,
			location TEXT NOT NULL,
			status TEXT NOT NULL DEFAULT 'normal',
			online INTEGER NOT NULL DEFAULT 1,
			last_reading TEXT,
			created_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ', 'now')),
			updated_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ', 'now'))
		) STRICT;
		CREATE INDEX idx_devices_household_id ON devices(household_id);
		CREATE TABLE audit_logs (
			id TEXT PRIMARY KEY,
			action TEXT NOT NULL,
			entity_type TEXT NOT NULL,
			entity_id TEXT,
			source TEXT NOT NULL DEFAULT 'api',
			details TEXT,
			created_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ', 'now'))
		) STRICT;
	`

	if _, execErr := db.Exec(schema); execErr != nil {
		db.Close()
		t.Fatalf("failed to create test schema: %v", execErr)
	}

	t.Cleanup(func() { db.Close() })
	return db
}

// seedHousehold creates a household directly through the registry.
func seedHousehold(t *testing.T, registry *household.Registry, owner string, level household.RiskLevel, score int) string {
	t.Helper()

	h := &household.Household{
		OwnerName:     owner,
		Address:       "123 Mabini Street, Quezon City",
		ContactNumber: "+63 917 123 4567",
		RiskLevel:     level,
		SafetyScore:   score,
	}
	if err := registry.CreateHousehold(context.Background(), h); err != nil {
		t.Fatalf("CreateHousehold(%s): %v", owner, err)
	}
	return h.ID
}

func doRequest(t *testing.T, router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var resp map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response %q: %v", w.Body.String(), err)
	}
	return resp
}

// ─── Health Endpoint Tests ─────────────────────────────────────────

func TestHealth(t *testing.T) {
	srv, _ := testServer(t)
	router := srv.buildRouter()

	w := doRequest(t, router, http.MethodGet, "/api/v1/health", "")
	if w.Code != http.StatusOK {
		t.Errorf("health status = %d, want %d", w.Code, http.StatusOK)
	}

	resp := decodeBody(t, w)
	if resp["status"] != "ok" {
		t.Errorf("status = %v, want ok", resp["status"])
	}
	if resp["version"] != "test" {
		t.Errorf("version = %v, want test", resp["version"])
	}
}

func TestHealth_ContentType(t *testing.T) {
	srv, _ := testServer(t)
	router := srv.buildRouter()

	w := doRequest(t, router, http.MethodGet, "/api/v1/health", "")
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want %q", ct, "application/json")
	}
}

// ─── Middleware Tests ──────────────────────────────────────────────

func TestRequestID_Generated(t *testing.T) {
	srv, _ := testServer(t)
	router := srv.buildRouter()

	w := doRequest(t, router, http.MethodGet, "/api/v1/health", "")
	if w.Header().Get("X-Request-ID") == "" {
		t.Error("expected X-Request-ID header to be set")
	}
}

func TestRequestID_PreservesClient(t *testing.T) {
	srv, _ := testServer(t)
	router := srv.buildRouter()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	req.Header.Set("X-Request-ID", "client-123")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if got := w.Header().Get("X-Request-ID"); got != "client-123" {
		t.Errorf("X-Request-ID = %q, want %q", got, "client-123")
	}
}

func TestCORS_Preflight(t *testing.T) {
	srv, _ := testServer(t)
	router := srv.buildRouter()

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/health", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Errorf("preflight status = %d, want %d", w.Code, http.StatusNoContent)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Errorf("ACAO = %q, want %q", got, "http://localhost:3000")
	}
}

func TestNotFound(t *testing.T) {
	srv, _ := testServer(t)
	router := srv.buildRouter()

	w := doRequest(t, router, http.MethodGet, "/api/v1/nonexistent", "")
	if w.Code != http.StatusNotFound {
		t.Errorf("unknown route status = %d, want %d", w.Code, http.StatusNotFound)
	}
}

// ─── Household CRUD Tests ──────────────────────────────────────────

func TestListHouseholds_Empty(t *testing.T) {
	srv, _ := testServer(t)
	router := srv.buildRouter()

	w := doRequest(t, router, http.MethodGet, "/api/v1/households", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d; body: %s", w.Code, http.StatusOK, w.Body.String())
	}

	resp := decodeBody(t, w)
	if int(resp["count"].(float64)) != 0 {
		t.Errorf("count = %v, want 0", resp["count"])
	}
}

func TestCreateAndGetHousehold(t *testing.T) {
	srv, _ := testServer(t)
	router := srv.buildRouter()

	body := `{
		"owner_name": "Juan dela Cruz",
		"address": "123 Mabini Street, Quezon City",
		"contact_number": "+63 917 123 4567",
		"risk_level": "low",
		"safety_score": 85
	}`
	w := doRequest(t, router, http.MethodPost, "/api/v1/households", body)
	if w.Code != http.StatusCreated {
		t.Fatalf("create status = %d, want %d; body: %s", w.Code, http.StatusCreated, w.Body.String())
	}

	created := decodeBody(t, w)
	id, _ := created["id"].(string)
	if id == "" {
		t.Fatal("created household has no id")
	}
	if created["risk_style"] != "bg-green-100 text-green-800" {
		t.Errorf("risk_style = %v", created["risk_style"])
	}
	if created["risk_label"] != "Low Risk" {
		t.Errorf("risk_label = %v", created["risk_label"])
	}
	if created["safety_bar_width"] != "85%" {
		t.Errorf("safety_bar_width = %v, want 85%%", created["safety_bar_width"])
	}

	w = doRequest(t, router, http.MethodGet, "/api/v1/households/"+id, "")
	if w.Code != http.StatusOK {
		t.Fatalf("get status = %d, want %d", w.Code, http.StatusOK)
	}
	got := decodeBody(t, w)
	if got["owner_name"] != "Juan dela Cruz" {
		t.Errorf("owner_name = %v", got["owner_name"])
	}
	if int(got["device_count"].(float64)) != 0 {
		t.Errorf("device_count = %v, want 0", got["device_count"])
	}
}

func TestCreateHousehold_FieldErrors(t *testing.T) {
	srv, _ := testServer(t)
	router := srv.buildRouter()

	body := `{
		"owner_name": "Jo",
		"address": "short",
		"contact_number": "+63 917 123 4567",
		"risk_level": "low",
		"safety_score": 85
	}`
	w := doRequest(t, router, http.MethodPost, "/api/v1/households", body)
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want %d; body: %s", w.Code, http.StatusUnprocessableEntity, w.Body.String())
	}

	resp := decodeBody(t, w)
	fieldErrors, ok := resp["errors"].(map[string]any)
	if !ok {
		t.Fatalf("errors missing from response: %s", w.Body.String())
	}
	if fieldErrors["ownerName"] != "too short" {
		t.Errorf("ownerName error = %v, want %q", fieldErrors["ownerName"], "too short")
	}
	if fieldErrors["address"] != "incomplete" {
		t.Errorf("address error = %v, want %q", fieldErrors["address"], "incomplete")
	}
}

func TestCreateHousehold_InvalidJSON(t *testing.T) {
	srv, _ := testServer(t)
	router := srv.buildRouter()

	w := doRequest(t, router, http.MethodPost, "/api/v1/households", "{not json")
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestCreateHousehold_Duplicate(t *testing.T) {
	srv, registry := testServer(t)
	router := srv.buildRouter()

	id := seedHousehold(t, registry, "Juan dela Cruz", household.RiskLow, 85)

	body := fmt.Sprintf(`{
		"id": %q,
		"owner_name": "Pedro Reyes",
		"address": "45 Rizal Avenue, Makati",
		"contact_number": "+63 917 765 4321",
		"risk_level": "high",
		"safety_score": 40
	}`, id)
	w := doRequest(t, router, http.MethodPost, "/api/v1/households", body)
	if w.Code != http.StatusConflict {
		t.Errorf("status = %d, want %d; body: %s", w.Code, http.StatusConflict, w.Body.String())
	}
}

func TestGetHousehold_NotFound(t *testing.T) {
	srv, _ := testServer(t)
	router := srv.buildRouter()

	w := doRequest(t, router, http.MethodGet, "/api/v1/households/nope", "")
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", w.Code, http.StatusNotFound)
	}
}

func TestListHouseholds_FilterAndSort(t *testing.T) {
	srv, registry := testServer(t)
	router := srv.buildRouter()

	seedHousehold(t, registry, "Juan dela Cruz", household.RiskLow, 85)
	seedHousehold(t, registry, "Pedro Reyes", household.RiskHigh, 40)
	seedHousehold(t, registry, "Maria Santos", household.RiskMedium, 65)

	w := doRequest(t, router, http.MethodGet, "/api/v1/households?status=high&sort=risk-high", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d; body: %s", w.Code, w.Body.String())
	}

	resp := decodeBody(t, w)
	if int(resp["count"].(float64)) != 1 {
		t.Fatalf("count = %v, want 1", resp["count"])
	}
	items := resp["households"].([]any)
	first := items[0].(map[string]any)
	if first["owner_name"] != "Pedro Reyes" {
		t.Errorf("first owner = %v, want Pedro Reyes", first["owner_name"])
	}

	// risk-high sort across all households
	w = doRequest(t, router, http.MethodGet, "/api/v1/households?sort=risk-high", "")
	resp = decodeBody(t, w)
	items = resp["households"].([]any)
	owners := make([]string, 0, len(items))
	for _, it := range items {
		owners = append(owners, it.(map[string]any)["owner_name"].(string))
	}
	want := []string{"Pedro Reyes", "Maria Santos", "Juan dela Cruz"}
	for i := range want {
		if owners[i] != want[i] {
			t.Errorf("owners[%d] = %q, want %q", i, owners[i], want[i])
		}
	}
}

func TestListHouseholds_Search(t *testing.T) {
	srv, registry := testServer(t)
	router := srv.buildRouter()

	seedHousehold(t, registry, "Juan dela Cruz", household.RiskLow, 85)
	seedHousehold(t, registry, "Pedro Reyes", household.RiskHigh, 40)

	w := doRequest(t, router, http.MethodGet, "/api/v1/households?search=REYES", "")
	resp := decodeBody(t, w)
	if int(resp["count"].(float64)) != 1 {
		t.Errorf("count = %v, want 1", resp["count"])
	}
}

func TestUpdateHousehold(t *testing.T) {
	srv, registry := testServer(t)
	router := srv.buildRouter()

	id := seedHousehold(t, registry, "Juan dela Cruz", household.RiskLow, 85)

	w := doRequest(t, router, http.MethodPatch, "/api/v1/households/"+id,
		`{"owner_name": "Juan dela Cruz Jr.", "safety_score": 90}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d; body: %s", w.Code, w.Body.String())
	}

	resp := decodeBody(t, w)
	if resp["owner_name"] != "Juan dela Cruz Jr." {
		t.Errorf("owner_name = %v", resp["owner_name"])
	}
	if resp["safety_bar_width"] != "90%" {
		t.Errorf("safety_bar_width = %v, want 90%%", resp["safety_bar_width"])
	}
}

func TestUpdateHousehold_FieldErrors(t *testing.T) {
	srv, registry := testServer(t)
	router := srv.buildRouter()

	id := seedHousehold(t, registry, "Juan dela Cruz", household.RiskLow, 85)

	w := doRequest(t, router, http.MethodPatch, "/api/v1/households/"+id,
		`{"contact_number": "0917abc"}`)
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want %d; body: %s", w.Code, http.StatusUnprocessableEntity, w.Body.String())
	}

	resp := decodeBody(t, w)
	fieldErrors := resp["errors"].(map[string]any)
	if fieldErrors["contactNumber"] != "invalid format" {
		t.Errorf("contactNumber error = %v, want %q", fieldErrors["contactNumber"], "invalid format")
	}
}

func TestUpdateHousehold_NotFound(t *testing.T) {
	srv, _ := testServer(t)
	router := srv.buildRouter()

	w := doRequest(t, router, http.MethodPatch, "/api/v1/households/nope", `{"safety_score": 50}`)
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", w.Code, http.StatusNotFound)
	}
}

func TestDeleteHousehold(t *testing.T) {
	srv, registry := testServer(t)
	router := srv.buildRouter()

	id := seedHousehold(t, registry, "Juan dela Cruz", household.RiskLow, 85)

	w := doRequest(t, router, http.MethodDelete, "/api/v1/households/"+id, "")
	if w.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d, want %d", w.Code, http.StatusNoContent)
	}

	w = doRequest(t, router, http.MethodGet, "/api/v1/households/"+id, "")
	if w.Code != http.StatusNotFound {
		t.Errorf("get after delete status = %d, want %d", w.Code, http.StatusNotFound)
	}
}

func TestHouseholdStats(t *testing.T) {
	srv, registry := testServer(t)
	router := srv.buildRouter()

	seedHousehold(t, registry, "Juan dela Cruz", household.RiskLow, 80)
	seedHousehold(t, registry, "Pedro Reyes", household.RiskHigh, 40)

	w := doRequest(t, router, http.MethodGet, "/api/v1/households/stats", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d; body: %s", w.Code, w.Body.String())
	}

	resp := decodeBody(t, w)
	if int(resp["total"].(float64)) != 2 {
		t.Errorf("total = %v, want 2", resp["total"])
	}
	if resp["avg_safety_score"].(float64) != 60 {
		t.Errorf("avg_safety_score = %v, want 60", resp["avg_safety_score"])
	}
}

// ─── Device Registration Tests ─────────────────────────────────────

func TestRegisterDevice(t *testing.T) {
	srv, registry := testServer(t)
	router := srv.buildRouter()

	id := seedHousehold(t, registry, "Juan dela Cruz", household.RiskLow, 85)

	body := `{"device_id": "SD-100234", "type": "smoke_detector", "location": "Kitchen"}`
	w := doRequest(t, router, http.MethodPost, "/api/v1/households/"+id+"/devices", body)
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d; body: %s", w.Code, w.Body.String())
	}

	resp := decodeBody(t, w)
	if resp["id"] != "SD-100234" {
		t.Errorf("id = %v", resp["id"])
	}
	if resp["status"] != "normal" {
		t.Errorf("status = %v, want normal", resp["status"])
	}
	if resp["online"] != true {
		t.Errorf("online = %v, want true", resp["online"])
	}
	reading := resp["last_reading"].(map[string]any)
	if reading["temperature"].(float64) != 25 {
		t.Errorf("temperature = %v, want 25", reading["temperature"])
	}

	// The owning household's device count reflects the registration.
	w = doRequest(t, router, http.MethodGet, "/api/v1/households/"+id, "")
	got := decodeBody(t, w)
	if int(got["device_count"].(float64)) != 1 {
		t.Errorf("device_count = %v, want 1", got["device_count"])
	}
}

func TestRegisterDevice_FieldErrors(t *testing.T) {
	srv, registry := testServer(t)
	router := srv.buildRouter()

	id := seedHousehold(t, registry, "Juan dela Cruz", household.RiskLow, 85)

	body := `{"device_id": "AB123", "type": "sprinkler", "location": ""}`
	w := doRequest(t, router, http.MethodPost, "/api/v1/households/"+id+"/devices", body)
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want %d; body: %s", w.Code, http.StatusUnprocessableEntity, w.Body.String())
	}

	resp := decodeBody(t, w)
	fieldErrors := resp["errors"].(map[string]any)
	if fieldErrors["deviceId"] != "must be at least 6 characters" {
		t.Errorf("deviceId error = %v", fieldErrors["deviceId"])
	}
	if fieldErrors["location"] != "required" {
		t.Errorf("location error = %v", fieldErrors["location"])
	}
	if fieldErrors["deviceType"] != "invalid format" {
		t.Errorf("deviceType error = %v", fieldErrors["deviceType"])
	}
}

func TestRegisterDevice_UnknownHousehold(t *testing.T) {
	srv, _ := testServer(t)
	router := srv.buildRouter()

	body := `{"device_id": "SD-100234", "type": "smoke_detector", "location": "Kitchen"}`
	w := doRequest(t, router, http.MethodPost, "/api/v1/households/nope/devices", body)
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", w.Code, http.StatusNotFound)
	}
}

func TestListHouseholdDevices(t *testing.T) {
	srv, registry := testServer(t)
	router := srv.buildRouter()

	id := seedHousehold(t, registry, "Juan dela Cruz", household.RiskLow, 85)

	doRequest(t, router, http.MethodPost, "/api/v1/households/"+id+"/devices",
		`{"device_id": "SD-100234", "type": "smoke_detector", "location": "Kitchen"}`)
	doRequest(t, router, http.MethodPost, "/api/v1/households/"+id+"/devices",
		`{"device_id": "GS-200456", "type": "gas_sensor", "location": "Garage"}`)

	w := doRequest(t, router, http.MethodGet, "/api/v1/households/"+id+"/devices", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d; body: %s", w.Code, w.Body.String())
	}

	resp := decodeBody(t, w)
	if int(resp["count"].(float64)) != 2 {
		t.Errorf("count = %v, want 2", resp["count"])
	}
}

func TestListHouseholdDevices_UnknownHousehold(t *testing.T) {
	srv, _ := testServer(t)
	router := srv.buildRouter()

	w := doRequest(t, router, http.MethodGet, "/api/v1/households/nope/devices", "")
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", w.Code, http.StatusNotFound)
	}
}

// ─── Audit Trail Tests ─────────────────────────────────────────────

func TestAuditTrail(t *testing.T) {
	srv, _ := testServer(t)
	router := srv.buildRouter()

	body := `{
		"owner_name": "Juan dela Cruz",
		"address": "123 Mabini Street, Quezon City",
		"contact_number": "+63 917 123 4567",
		"risk_level": "low",
		"safety_score": 85
	}`
	w := doRequest(t, router, http.MethodPost, "/api/v1/households", body)
	if w.Code != http.StatusCreated {
		t.Fatalf("create status = %d", w.Code)
	}
	created := decodeBody(t, w)
	id := created["id"].(string)

	doRequest(t, router, http.MethodPatch, "/api/v1/households/"+id, `{"safety_score": 90}`)

	w = doRequest(t, router, http.MethodGet, "/api/v1/audit", "")
	if w.Code != http.StatusOK {
		t.Fatalf("audit status = %d; body: %s", w.Code, w.Body.String())
	}
	resp := decodeBody(t, w)
	if int(resp["total"].(float64)) != 2 {
		t.Errorf("total = %v, want 2", resp["total"])
	}

	w = doRequest(t, router, http.MethodGet, "/api/v1/audit?action=create", "")
	resp = decodeBody(t, w)
	if int(resp["total"].(float64)) != 1 {
		t.Errorf("filtered total = %v, want 1", resp["total"])
	}
	logs := resp["logs"].([]any)
	entry := logs[0].(map[string]any)
	if entry["entity_id"] != id {
		t.Errorf("entity_id = %v, want %v", entry["entity_id"], id)
	}
}

func TestAudit_BadLimit(t *testing.T) {
	srv, _ := testServer(t)
	router := srv.buildRouter()

	w := doRequest(t, router, http.MethodGet, "/api/v1/audit?limit=abc", "")
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

// ─── Operator Session Tests ────────────────────────────────────────

func TestSession_EditFlow(t *testing.T) {
	srv, registry := testServer(t)
	router := srv.buildRouter()

	id := seedHousehold(t, registry, "Juan dela Cruz", household.RiskLow, 85)

	// Snapshot starts idle.
	w := doRequest(t, router, http.MethodGet, "/api/v1/session", "")
	snap := decodeBody(t, w)
	if snap["state"] != "idle" {
		t.Fatalf("state = %v, want idle", snap["state"])
	}

	// Begin edit prefills the form.
	w = doRequest(t, router, http.MethodPost, "/api/v1/session/edit/"+id, "")
	if w.Code != http.StatusOK {
		t.Fatalf("begin edit status = %d; body: %s", w.Code, w.Body.String())
	}
	snap = decodeBody(t, w)
	if snap["state"] != "editing" {
		t.Errorf("state = %v, want editing", snap["state"])
	}
	form := snap["edit_form"].(map[string]any)
	if form["owner_name"] != "Juan dela Cruz" {
		t.Errorf("prefilled owner_name = %v", form["owner_name"])
	}

	// An invalid field value surfaces an error in the snapshot.
	w = doRequest(t, router, http.MethodPut, "/api/v1/session/edit/field",
		`{"field": "ownerName", "value": "Jo"}`)
	snap = decodeBody(t, w)
	editErrors := snap["edit_errors"].(map[string]any)
	if editErrors["ownerName"] != "too short" {
		t.Errorf("ownerName error = %v, want %q", editErrors["ownerName"], "too short")
	}

	// Submit with errors is blocked.
	w = doRequest(t, router, http.MethodPost, "/api/v1/session/edit/submit", "")
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("submit status = %d, want %d", w.Code, http.StatusUnprocessableEntity)
	}

	// Fix the field and submit.
	doRequest(t, router, http.MethodPut, "/api/v1/session/edit/field",
		`{"field": "ownerName", "value": "Juan dela Cruz Jr."}`)
	w = doRequest(t, router, http.MethodPost, "/api/v1/session/edit/submit", "")
	if w.Code != http.StatusOK {
		t.Fatalf("submit status = %d; body: %s", w.Code, w.Body.String())
	}
	snap = decodeBody(t, w)
	if snap["state"] != "idle" {
		t.Errorf("state after submit = %v, want idle", snap["state"])
	}
	if snap["confirmation"] != "Changes saved" {
		t.Errorf("confirmation = %v, want %q", snap["confirmation"], "Changes saved")
	}

	// The change persisted.
	h, err := registry.GetHousehold(context.Background(), id)
	if err != nil {
		t.Fatalf("GetHousehold: %v", err)
	}
	if h.OwnerName != "Juan dela Cruz Jr." {
		t.Errorf("persisted owner = %q", h.OwnerName)
	}
}

func TestSession_ModalExclusivity(t *testing.T) {
	srv, registry := testServer(t)
	router := srv.buildRouter()

	id := seedHousehold(t, registry, "Juan dela Cruz", household.RiskLow, 85)

	w := doRequest(t, router, http.MethodPost, "/api/v1/session/edit/"+id, "")
	if w.Code != http.StatusOK {
		t.Fatalf("begin edit status = %d", w.Code)
	}

	w = doRequest(t, router, http.MethodPost, "/api/v1/session/device/"+id, "")
	if w.Code != http.StatusConflict {
		t.Errorf("begin add device during edit status = %d, want %d", w.Code, http.StatusConflict)
	}

	w = doRequest(t, router, http.MethodPost, "/api/v1/session/map/"+id, "")
	if w.Code != http.StatusConflict {
		t.Errorf("open map during edit status = %d, want %d", w.Code, http.StatusConflict)
	}

	// Cancel returns to idle, freeing the other modals.
	w = doRequest(t, router, http.MethodPost, "/api/v1/session/edit/cancel", "")
	if w.Code != http.StatusOK {
		t.Fatalf("cancel status = %d", w.Code)
	}
	w = doRequest(t, router, http.MethodPost, "/api/v1/session/map/"+id, "")
	if w.Code != http.StatusOK {
		t.Errorf("open map after cancel status = %d, want %d", w.Code, http.StatusOK)
	}
}

func TestSession_MapView(t *testing.T) {
	srv, registry := testServer(t)
	router := srv.buildRouter()

	id := seedHousehold(t, registry, "Juan dela Cruz", household.RiskLow, 85)

	w := doRequest(t, router, http.MethodPost, "/api/v1/session/map/"+id, "")
	if w.Code != http.StatusOK {
		t.Fatalf("open map status = %d; body: %s", w.Code, w.Body.String())
	}
	snap := decodeBody(t, w)
	if snap["state"] != "viewing_map" {
		t.Errorf("state = %v, want viewing_map", snap["state"])
	}
	// The snapshot must name the household whose map is shown.
	if snap["selected_id"] != id {
		t.Errorf("selected_id = %v, want %s", snap["selected_id"], id)
	}

	w = doRequest(t, router, http.MethodPost, "/api/v1/session/map/close", "")
	if w.Code != http.StatusOK {
		t.Fatalf("close map status = %d", w.Code)
	}
	snap = decodeBody(t, w)
	if snap["state"] != "idle" {
		t.Errorf("state = %v, want idle", snap["state"])
	}
	if _, ok := snap["selected_id"]; ok {
		t.Errorf("selected_id = %v, want omitted after close", snap["selected_id"])
	}
}

func TestSession_MapView_UnknownHousehold(t *testing.T) {
	srv, _ := testServer(t)
	router := srv.buildRouter()

	w := doRequest(t, router, http.MethodPost, "/api/v1/session/map/nope", "")
	if w.Code != http.StatusNotFound {
		t.Errorf("open map for unknown household status = %d, want %d", w.Code, http.StatusNotFound)
	}
}

func TestSession_DeviceFlow(t *testing.T) {
	srv, registry := testServer(t)
	router := srv.buildRouter()

	id := seedHousehold(t, registry, "Juan dela Cruz", household.RiskLow, 85)

	w := doRequest(t, router, http.MethodPost, "/api/v1/session/device/"+id, "")
	if w.Code != http.StatusOK {
		t.Fatalf("begin add device status = %d; body: %s", w.Code, w.Body.String())
	}

	doRequest(t, router, http.MethodPut, "/api/v1/session/device/field",
		`{"field": "deviceId", "value": "SD-100234"}`)
	doRequest(t, router, http.MethodPut, "/api/v1/session/device/field",
		`{"field": "location", "value": "Kitchen"}`)

	w = doRequest(t, router, http.MethodPost, "/api/v1/session/device/submit", "")
	if w.Code != http.StatusOK {
		t.Fatalf("submit status = %d; body: %s", w.Code, w.Body.String())
	}
	snap := decodeBody(t, w)
	if snap["confirmation"] != "Device registered" {
		t.Errorf("confirmation = %v, want %q", snap["confirmation"], "Device registered")
	}

	devices, err := srv.devices.ListByHousehold(context.Background(), id)
	if err != nil {
		t.Fatalf("ListByHousehold: %v", err)
	}
	if len(devices) != 1 || devices[0].ID != "SD-100234" {
		t.Errorf("devices = %+v, want one SD-100234", devices)
	}
}

func TestSession_ToggleExpanded(t *testing.T) {
	srv, _ := testServer(t)
	router := srv.buildRouter()

	w := doRequest(t, router, http.MethodPost, "/api/v1/session/expand/hh-1", "")
	snap := decodeBody(t, w)
	if snap["expanded_id"] != "hh-1" {
		t.Errorf("expanded_id = %v, want hh-1", snap["expanded_id"])
	}

	// Toggling the same row collapses it.
	w = doRequest(t, router, http.MethodPost, "/api/v1/session/expand/hh-1", "")
	snap = decodeBody(t, w)
	if _, ok := snap["expanded_id"]; ok {
		t.Errorf("expanded_id should be omitted after collapse, got %v", snap["expanded_id"])
	}
}

func TestSession_NotConfigured(t *testing.T) {
	srv, _ := testServer(t)
	srv.workflow = nil
	router := srv.buildRouter()

	w := doRequest(t, router, http.MethodGet, "/api/v1/session", "")
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", w.Code, http.StatusNotFound)
	}
}

// ─── Server Lifecycle Tests ────────────────────────────────────────

func TestServer_StartAndClose(t *testing.T) {
	srv, _ := testServer(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := srv.Start(ctx); err != nil {
		t.Fatalf("Start() error: %v", err)
	}

	if err := srv.HealthCheck(ctx); err != nil {
		t.Errorf("HealthCheck() error: %v", err)
	}

	if err := srv.Close(); err != nil {
		t.Errorf("Close() error: %v", err)
	}
}

func TestServer_HealthCheck_NotStarted(t *testing.T) {
	srv, _ := testServer(t)

	if err := srv.HealthCheck(context.Background()); err == nil {
		t.Error("HealthCheck() should fail before Start()")
	}
}

// ─── WebSocket Tests ───────────────────────────────────────────────

// wsTestConn dials a WebSocket connection against a test HTTP server.
func wsTestConn(t *testing.T, srv *Server) (*websocket.Conn, func()) {
	t.Helper()

	ts := httptest.NewServer(srv.buildRouter())
	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/v1/ws"

	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		ts.Close()
		t.Fatalf("websocket dial: %v", err)
	}
	return conn, func() {
		conn.Close()
		ts.Close()
	}
}

func TestWebSocket_SubscribeAndBroadcast(t *testing.T) {
	srv, _ := testServer(t)
	conn, cleanup := wsTestConn(t, srv)
	defer cleanup()

	sub := WSMessage{
		Type:    WSTypeSubscribe,
		ID:      "1",
		Payload: WSSubscribePayload{Channels: []string{"households"}},
	}
	if err := conn.WriteJSON(sub); err != nil {
		t.Fatalf("write subscribe: %v", err)
	}

	var resp WSMessage
	//nolint:errcheck // Deadline best-effort; read error caught below
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if err := conn.ReadJSON(&resp); err != nil {
		t.Fatalf("read subscribe response: %v", err)
	}
	if resp.Type != WSTypeResponse {
		t.Fatalf("response type = %q, want %q", resp.Type, WSTypeResponse)
	}

	srv.hub.Broadcast("households", map[string]any{"action": "created"})

	var event WSMessage
	//nolint:errcheck // Deadline best-effort; read error caught below
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if err := conn.ReadJSON(&event); err != nil {
		t.Fatalf("read broadcast: %v", err)
	}
	if event.Type != WSTypeEvent || event.EventType != "households" {
		t.Errorf("event = %+v, want households event", event)
	}
}

func TestWebSocket_Ping(t *testing.T) {
	srv, _ := testServer(t)
	conn, cleanup := wsTestConn(t, srv)
	defer cleanup()

	if err := conn.WriteJSON(WSMessage{Type: WSTypePing, ID: "42"}); err != nil {
		t.Fatalf("write ping: %v", err)
	}

	var resp WSMessage
	//nolint:errcheck // Deadline best-effort; read error caught below
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if err := conn.ReadJSON(&resp); err != nil {
		t.Fatalf("read pong: %v", err)
	}
	if resp.Type != WSTypePong || resp.ID != "42" {
		t.Errorf("pong = %+v", resp)
	}
}

func TestWebSocket_UnsubscribedGetsNothing(t *testing.T) {
	srv, _ := testServer(t)
	conn, cleanup := wsTestConn(t, srv)
	defer cleanup()

	srv.hub.Broadcast("households", map[string]any{"action": "created"})

	//nolint:errcheck // Deadline best-effort; timeout is the expected outcome
	conn.SetReadDeadline(time.Now().Add(300 * time.Millisecond))
	var event WSMessage
	if err := conn.ReadJSON(&event); err == nil {
		t.Errorf("unsubscribed client received event: %+v", event)
	}
}
