package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"millline-backend/config"
	"millline-backend/internal/access"
	"millline-backend/internal/assign"
	"millline-backend/internal/catalog"
	"millline-backend/internal/layout"
	"millline-backend/internal/line"
	"millline-backend/internal/model"
	"millline-backend/internal/profile"
	"millline-backend/internal/shift"
	"millline-backend/internal/store"
	"millline-backend/internal/tenancy"
	"millline-backend/internal/testdb"
)

func init() {
	gin.SetMode(gin.TestMode)
}

const (
	admin  = "admin@m1"
	viewer = "viewer@m1"
)

// newServices wires every core service over one store and gate.
func newServices(gormDB *gorm.DB) (store.Store, Services) {
	st := store.NewGormStore(gormDB)
	gate := access.NewStoreGate(gormDB)
	return st, Services{
		Resolver:  tenancy.NewResolver(gormDB),
		Catalog:   catalog.NewService(st, gate),
		Lines:     line.NewRegistry(st, gate),
		Lifecycle: line.NewController(st, gate),
		Assign:    assign.NewEngine(st, gate),
		Layouts:   layout.NewStore(st, gate),
		Shifts:    shift.NewService(st, gate),
		Profiles:  profile.NewService(st, gate),
	}
}

func setupRouter(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	return setupRouterWith(t, config.ServerConfig{
		PrincipalHeader: "X-Principal-ID",
		RateLimitPerSec: 1000,
		RateLimitBurst:  1000,
		CacheTTLSeconds: 60,
	})
}

func setupRouterWith(t *testing.T, cfg config.ServerConfig) (*gin.Engine, *gorm.DB) {
	t.Helper()

	gormDB := testdb.Open(t)
	tenant := testdb.Tenant(t, gormDB, "M1", model.MachineTypeCarding, model.MachineTypeBreaker)

	all := datatypes.JSONMap{}
	for _, c := range []access.Capability{access.CapSetupMachineEdit, access.CapMillLayoutEdit, access.CapLineConfigEdit, access.CapSetShiftEdit, access.CapMillConfigEdit} {
		all[string(c)] = true
	}
	require.NoError(t, gormDB.Create(&model.Principal{ID: admin, TenantID: &tenant.ID, Permissions: all}).Error)
	require.NoError(t, gormDB.Create(&model.Principal{ID: viewer, TenantID: &tenant.ID, Permissions: datatypes.JSONMap{}}).Error)

	st, svc := newServices(gormDB)
	return NewRouter(st, svc, cfg), gormDB
}

func call(t *testing.T, r *gin.Engine, principal, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if principal != "" {
		req.Header.Set("X-Principal-ID", principal)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v), w.Body.String())
}

func TestRouter_Health(t *testing.T) {
	r, _ := setupRouter(t)
	w := call(t, r, "", http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestRouter_MachineTypes(t *testing.T) {
	r, _ := setupRouter(t)

	w := call(t, r, "", http.MethodGet, "/api/machine-types", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `["Carding","Breaker","Unilap","Comber","Finisher","Roving"]`, w.Body.String())

	w = call(t, r, "", http.MethodGet, "/api/machine-types", nil)
	assert.Equal(t, "HIT", w.Header().Get("X-Cache"))
}

func TestRouter_Forbidden(t *testing.T) {
	r, _ := setupRouter(t)

	testCases := []struct {
		name      string
		principal string
		method    string
		path      string
		body      interface{}
	}{
		{name: "No principal", method: http.MethodGet, path: "/api/lines"},
		{name: "Unknown principal", principal: "ghost", method: http.MethodGet, path: "/api/lines"},
		{name: "Missing capability on create", principal: viewer, method: http.MethodPost, path: "/api/lines", body: gin.H{"name": "L"}},
		{name: "Missing capability on shifts", principal: viewer, method: http.MethodDelete, path: "/api/shifts/1"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			w := call(t, r, tc.principal, tc.method, tc.path, tc.body)
			assert.Equal(t, http.StatusForbidden, w.Code)
			assert.JSONEq(t, `{"error":"forbidden","code":"FORBIDDEN","ids":[],"details":{}}`, w.Body.String())
		})
	}

	// Reads only need a mill.
	w := call(t, r, viewer, http.MethodGet, "/api/lines", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())
}

func TestRouter_LineWorkflow(t *testing.T) {
	r, _ := setupRouter(t)

	w := call(t, r, admin, http.MethodPost, "/api/machines/batch", gin.H{"type": "Carding", "count": 3, "model": "LC636"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var machines []model.Machine
	decode(t, w, &machines)
	require.Len(t, machines, 3)
	assert.Equal(t, "Carding 001", machines[0].Name)

	w = call(t, r, admin, http.MethodPost, "/api/lines", gin.H{"name": "Blow room"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created lineResponse
	decode(t, w, &created)
	assert.Equal(t, model.LineStateDraft, created.State)
	base := fmt.Sprintf("/api/lines/%d", created.ID)

	w = call(t, r, admin, http.MethodPut, base+"/pattern", gin.H{"types": []string{"Carding"}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = call(t, r, admin, http.MethodPost, base+"/assign", gin.H{"machineIds": []int64{machines[0].ID, machines[1].ID}})
	require.Equal(t, http.StatusNoContent, w.Code, w.Body.String())

	w = call(t, r, admin, http.MethodGet, base+"/assignable", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var assignable []model.Machine
	decode(t, w, &assignable)
	assert.Len(t, assignable, 3)

	ref := machines[2].ID
	w = call(t, r, admin, http.MethodPut, base+"/layout", model.LayoutGraph{
		Nodes: []model.LayoutNode{{ID: "n9", MachineRef: &ref}},
	})
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	var errBody errorResponse
	decode(t, w, &errBody)
	assert.Equal(t, "INVALID_GRAPH", string(errBody.Code))
	assert.Equal(t, []int64{ref}, errBody.IDs)

	ref = machines[0].ID
	w = call(t, r, admin, http.MethodPut, base+"/layout", model.LayoutGraph{
		Nodes: []model.LayoutNode{{ID: "n1", MachineRef: &ref}},
	})
	require.Equal(t, http.StatusNoContent, w.Code, w.Body.String())

	w = call(t, r, admin, http.MethodPost, base+"/start", gin.H{"startDate": "2024-01-10", "endDate": "2024-01-01"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	decode(t, w, &errBody)
	assert.Equal(t, "INVALID_WINDOW", string(errBody.Code))

	w = call(t, r, admin, http.MethodPost, base+"/start", gin.H{"startDate": "2024-01-01", "endDate": "2024-01-10"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var running lineResponse
	decode(t, w, &running)
	assert.Equal(t, model.LineStateRunning, running.State)
	assert.Equal(t, []model.MachineType{model.MachineTypeCarding}, running.Pattern)

	w = call(t, r, admin, http.MethodPost, base+"/assign", gin.H{"machineIds": []int64{machines[2].ID}})
	assert.Equal(t, http.StatusConflict, w.Code)
	decode(t, w, &errBody)
	assert.Equal(t, "LINE_BUSY", string(errBody.Code))

	w = call(t, r, admin, http.MethodPost, base+"/stop", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = call(t, r, admin, http.MethodPost, base+"/assign", gin.H{"machineIds": []int64{machines[2].ID}})
	assert.Equal(t, http.StatusNoContent, w.Code, w.Body.String())

	w = call(t, r, admin, http.MethodDelete, base, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = call(t, r, admin, http.MethodGet, base, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRouter_BadRequests(t *testing.T) {
	r, _ := setupRouter(t)

	w := call(t, r, admin, http.MethodGet, "/api/lines/abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = call(t, r, admin, http.MethodPost, "/api/lines", gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	var errBody errorResponse
	decode(t, w, &errBody)
	assert.Equal(t, "INVALID_ARGUMENT", string(errBody.Code))

	w = call(t, r, admin, http.MethodPut, "/api/tenant/machine-types", gin.H{"type": "Loom", "enabled": true})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	decode(t, w, &errBody)
	assert.Equal(t, "UNKNOWN_MACHINE_TYPE", string(errBody.Code))

	w = call(t, r, admin, http.MethodPost, "/api/lines", gin.H{"name": "L"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created lineResponse
	decode(t, w, &created)
	w = call(t, r, admin, http.MethodPost, fmt.Sprintf("/api/lines/%d/start", created.ID), gin.H{"startDate": "10/01/2024", "endDate": "2024-01-20"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	errBody = errorResponse{}
	decode(t, w, &errBody)
	assert.Equal(t, "INVALID_WINDOW", string(errBody.Code))
	assert.Equal(t, map[string]string{"startDate": "10/01/2024"}, errBody.Details)
}

func TestRouter_Shifts(t *testing.T) {
	r, _ := setupRouter(t)

	w := call(t, r, admin, http.MethodPost, "/api/shifts", gin.H{
		"number": "1", "name": "Morning",
		"startTime": "2024-01-01T06:00:00Z", "endTime": "2024-01-01T14:00:00Z",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var saved model.Shift
	decode(t, w, &saved)

	w = call(t, r, admin, http.MethodGet, "/api/shifts", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var shifts []model.Shift
	decode(t, w, &shifts)
	require.Len(t, shifts, 1)
	assert.Equal(t, "Morning", shifts[0].Name)

	w = call(t, r, admin, http.MethodDelete, fmt.Sprintf("/api/shifts/%d", saved.ID), nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestRouter_Profile(t *testing.T) {
	r, _ := setupRouter(t)

	w := call(t, r, viewer, http.MethodGet, "/api/tenant/profile", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var got model.TenantProfile
	decode(t, w, &got)
	assert.Equal(t, "M1", got.Name)

	update := gin.H{"name": "Demo Spinning Mill", "unitNumber": "Unit 4", "phone": "0422 000000", "email": "office@demo-mill.example"}
	w = call(t, r, viewer, http.MethodPut, "/api/tenant/profile", update)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = call(t, r, admin, http.MethodPut, "/api/tenant/profile", update)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = call(t, r, viewer, http.MethodGet, "/api/tenant/profile", nil)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &got)
	assert.Equal(t, "Demo Spinning Mill", got.Name)
	assert.Equal(t, "Unit 4", got.UnitNumber)
	assert.Equal(t, "office@demo-mill.example", got.Email)

	w = call(t, r, admin, http.MethodPut, "/api/tenant/profile", gin.H{"email": "nope"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	var errBody errorResponse
	decode(t, w, &errBody)
	assert.Equal(t, "INVALID_ARGUMENT", string(errBody.Code))
	assert.Contains(t, errBody.Details, "email")
}

func TestRouter_RateLimit(t *testing.T) {
	r, _ := setupRouterWith(t, config.ServerConfig{
		PrincipalHeader: "X-Principal-ID",
		RateLimitPerSec: 0.001,
		RateLimitBurst:  3,
		CacheTTLSeconds: 60,
	})

	// A fresh principal header per request still shares the caller's address.
	codes := make([]int, 0, 6)
	for i := 0; i < 6; i++ {
		codes = append(codes, call(t, r, fmt.Sprintf("ghost-%d", i), http.MethodGet, "/api/lines", nil).Code)
	}
	assert.Equal(t, []int{
		http.StatusForbidden, http.StatusForbidden, http.StatusForbidden,
		http.StatusTooManyRequests, http.StatusTooManyRequests, http.StatusTooManyRequests,
	}, codes)

	w := call(t, r, admin, http.MethodGet, "/api/lines", nil)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.JSONEq(t, `{"error":"too many requests","code":"RATE_LIMITED"}`, w.Body.String())
}
