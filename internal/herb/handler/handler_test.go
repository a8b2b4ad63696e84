package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/trishit-guin/ayutrace-backend-sub000/internal/config"
	"github.com/trishit-guin/ayutrace-backend-sub000/internal/herb/entity"
	"github.com/trishit-guin/ayutrace-backend-sub000/internal/herb/repository"
	"github.com/trishit-guin/ayutrace-backend-sub000/internal/herb/service"
	"github.com/trishit-guin/ayutrace-backend-sub000/internal/herb/sse"
	"github.com/trishit-guin/ayutrace-backend-sub000/internal/herb/testutil"
	"github.com/trishit-guin/ayutrace-backend-sub000/internal/shared/blob"
)

type testEnv struct {
	router *gin.Engine
	hub    *sse.Hub
	db     *gorm.DB

	farmerOrg, labOrg, adminOrg *entity.Organization
	farmer, labUser, admin      *entity.User
	species                     *entity.HerbSpecies
}

func setupHandlerTest(t *testing.T) *testEnv {
	t.Helper()
	db := testutil.SetupTestDB(t)
	store, err := blob.NewLocal(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to open blob store: %v", err)
	}

	cfg := &config.Config{}
	cfg.Server.PublicURL = "http://ayutrace.test"
	cfg.JWT = config.JWTConfig{
		Secret:             testutil.JWTSecret,
		AccessTokenExpire:  time.Hour,
		RefreshTokenExpire: 24 * time.Hour,
		Issuer:             "ayutrace-test",
	}

	svcs := service.NewServices(repository.NewRepositories(db), nil, store, nil, cfg, nil)
	hub := sse.NewHub(nil)
	router := testutil.SetupRouter()
	RegisterRoutes(router, NewHandlers(svcs, hub, nil), testutil.JWTSecret)

	env := &testEnv{router: router, hub: hub, db: db}
	env.farmerOrg = testutil.SeedOrganization(t, db, "Rajasthan Growers", entity.OrgTypeFarmer)
	env.labOrg = testutil.SeedOrganization(t, db, "Ayur Labs", entity.OrgTypeLabs)
	env.adminOrg = testutil.SeedOrganization(t, db, "AyuTrace Platform", entity.OrgTypeAdmin)
	env.farmer = testutil.SeedUser(t, db, env.farmerOrg, "farmer@example.com", entity.RoleAdmin)
	env.labUser = testutil.SeedUser(t, db, env.labOrg, "lab@example.com", entity.RoleUser)
	env.admin = testutil.SeedUser(t, db, env.adminOrg, "admin@example.com", entity.RoleAdmin)
	env.species = testutil.SeedSpecies(t, db, "Withania somnifera", "Ashwagandha")
	return env
}

func (e *testEnv) farmerToken() string { return testutil.TokenFor(e.farmer, entity.OrgTypeFarmer) }
func (e *testEnv) labToken() string    { return testutil.TokenFor(e.labUser, entity.OrgTypeLabs) }
func (e *testEnv) adminToken() string  { return testutil.TokenFor(e.admin, entity.OrgTypeAdmin) }

func responseCode(w *httptest.ResponseRecorder) int {
	code, _ := testutil.ParseResponse(w)["code"].(float64)
	return int(code)
}

func TestRegisterLoginMe(t *testing.T) {
	env := setupHandlerTest(t)

	w := testutil.DoRequest(env.router, "POST", "/api/v1/auth/register", map[string]interface{}{
		"organization_name":   "Kerala Spices",
		"organization_type":   entity.OrgTypeDistributor,
		"registration_number": "KL-0001",
		"email":               "owner@kerala.example",
		"password":            "Sup3rSecret",
		"first_name":          "Anil",
	}, "")
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", w.Code, w.Body.String())
	}

	w = testutil.DoRequest(env.router, "POST", "/api/v1/auth/login", map[string]interface{}{
		"email":    "owner@kerala.example",
		"password": "Sup3rSecret",
	}, "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	tokens, _ := testutil.Data(w)["tokens"].(map[string]interface{})
	access, _ := tokens["access_token"].(string)
	if access == "" {
		t.Fatalf("Expected access token in login response: %s", w.Body.String())
	}

	w = testutil.DoRequest(env.router, "GET", "/api/v1/auth/me", nil, access)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if email := testutil.Data(w)["email"]; email != "owner@kerala.example" {
		t.Fatalf("Expected me to return the registered user, got %v", email)
	}

	refresh, _ := tokens["refresh_token"].(string)
	w = testutil.DoRequest(env.router, "GET", "/api/v1/auth/me", nil, refresh)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("Expected refresh token to be rejected as access token, got %d", w.Code)
	}
}

func TestRoutesRequireToken(t *testing.T) {
	env := setupHandlerTest(t)

	for _, path := range []string{"/api/v1/batches", "/api/v1/lab-tests", "/api/v1/events", "/api/v1/admin/dashboard"} {
		w := testutil.DoRequest(env.router, "GET", path, nil, "")
		if w.Code != http.StatusUnauthorized {
			t.Fatalf("%s: expected 401, got %d", path, w.Code)
		}
	}
}

func TestValidationErrorsCarryFields(t *testing.T) {
	env := setupHandlerTest(t)

	w := testutil.DoRequest(env.router, "POST", "/api/v1/species", map[string]interface{}{
		"common_name": "Tulsi",
	}, env.farmerToken())
	if w.Code != http.StatusBadRequest || responseCode(w) != 40001 {
		t.Fatalf("Expected 400/40001, got %d/%d: %s", w.Code, responseCode(w), w.Body.String())
	}
	errs, _ := testutil.Data(w)["errors"].([]interface{})
	if len(errs) != 1 {
		t.Fatalf("Expected one field error, got %v", errs)
	}
	fe := errs[0].(map[string]interface{})
	if fe["field"] != "scientific_name" || fe["rule"] != "required" {
		t.Fatalf("Unexpected field error: %v", fe)
	}

	req, _ := http.NewRequest("POST", "/api/v1/species", strings.NewReader("{"))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+env.farmerToken())
	w = httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest || responseCode(w) != 40000 {
		t.Fatalf("Expected 400/40000 for malformed JSON, got %d/%d", w.Code, responseCode(w))
	}
}

func TestOrgTypeAndAdminGating(t *testing.T) {
	env := setupHandlerTest(t)

	w := testutil.DoRequest(env.router, "PUT", "/api/v1/lab-tests/some-id/status", map[string]interface{}{
		"status": entity.LabTestStatusInProgress,
	}, env.farmerToken())
	if w.Code != http.StatusForbidden || responseCode(w) != 40320 {
		t.Fatalf("Expected farmer to be blocked from lab writes, got %d/%d", w.Code, responseCode(w))
	}

	// 组织内 ADMIN 不是平台管理员
	w = testutil.DoRequest(env.router, "GET", "/api/v1/admin/dashboard", nil, env.farmerToken())
	if w.Code != http.StatusForbidden {
		t.Fatalf("Expected 403 for org admin on platform routes, got %d", w.Code)
	}

	w = testutil.DoRequest(env.router, "GET", "/api/v1/admin/dashboard", nil, env.adminToken())
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200 for platform admin, got %d: %s", w.Code, w.Body.String())
	}

	w = testutil.DoRequest(env.router, "GET", "/api/v1/distributor/inventory", nil, env.labToken())
	if w.Code != http.StatusForbidden {
		t.Fatalf("Expected 403 for non-distributor, got %d", w.Code)
	}
}

func TestLabTestNotFoundMapsToEnvelope(t *testing.T) {
	env := setupHandlerTest(t)

	w := testutil.DoRequest(env.router, "PUT", "/api/v1/lab-tests/missing/status", map[string]interface{}{
		"status": entity.LabTestStatusInProgress,
	}, env.labToken())
	if w.Code != http.StatusNotFound || responseCode(w) != 40400 {
		t.Fatalf("Expected 404/40400, got %d/%d: %s", w.Code, responseCode(w), w.Body.String())
	}
}

func TestPublicEndpoints(t *testing.T) {
	env := setupHandlerTest(t)

	w := testutil.DoRequest(env.router, "GET", "/api/v1/certificates/verify/CERT-2026-0001", nil, "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("Expected 404 for unknown certificate, got %d", w.Code)
	}
	w = testutil.DoRequest(env.router, "GET", "/api/v1/qr/scan/0123456789abcdef0123456789abcdef", nil, "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("Expected 404 for unknown qr hash, got %d", w.Code)
	}
	w = testutil.DoRequest(env.router, "GET", "/api/v1/qr/0123456789abcdef0123456789abcdef/image", nil, "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("Expected 404 for unknown qr image, got %d", w.Code)
	}
}

func TestCreateCollectionMultipart(t *testing.T) {
	env := setupHandlerTest(t)

	data, _ := json.Marshal(map[string]interface{}{
		"species_id":           env.species.ID,
		"quantity":             "42.5",
		"unit":                 entity.UnitKG,
		"latitude":             26.91,
		"longitude":            75.78,
		"location":             "Nagaur",
		"document_description": "harvest photo",
	})

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	mw.WriteField("data", string(data))
	part, _ := mw.CreateFormFile("file", "harvest.txt")
	part.Write([]byte("field notes"))
	mw.Close()

	req, _ := http.NewRequest("POST", "/api/v1/collections", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+env.farmerToken())
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", w.Code, w.Body.String())
	}
	id, _ := testutil.Data(w)["id"].(string)

	w = testutil.DoRequest(env.router, "GET", "/api/v1/documents?entity_kind="+entity.KindCollectionEvent+"&entity_id="+id, nil, env.farmerToken())
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if items, _ := testutil.Data(w)["items"].([]interface{}); len(items) != 1 {
		t.Fatalf("Expected one attached document, got %v", items)
	}

	// data 字段同样走校验
	body.Reset()
	mw = multipart.NewWriter(&body)
	mw.WriteField("data", `{"species_id":"`+env.species.ID+`","quantity":"1","unit":"BUSHELS","latitude":1,"longitude":1}`)
	mw.Close()
	req, _ = http.NewRequest("POST", "/api/v1/collections", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+env.farmerToken())
	w = httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest || responseCode(w) != 40001 {
		t.Fatalf("Expected 400/40001 for bad unit, got %d/%d: %s", w.Code, responseCode(w), w.Body.String())
	}
}

func TestFinishedGoodCreatedWhenLedgerFails(t *testing.T) {
	env := setupHandlerTest(t)
	makerOrg := testutil.SeedOrganization(t, env.db, "Himalaya Herbals", entity.OrgTypeManufacturer)
	maker := testutil.SeedUser(t, env.db, makerOrg, "maker@example.com", entity.RoleUser)
	batch := testutil.SeedBatch(t, env.db, env.farmer, "RMB-L", "Ashwagandha")
	if err := env.db.Migrator().DropTable(&entity.SupplyChainEvent{}); err != nil {
		t.Fatalf("Failed to drop ledger table: %v", err)
	}

	w := testutil.DoRequest(env.router, "POST", "/api/v1/finished-goods", map[string]interface{}{
		"product_name": "Ashwagandha Churna",
		"batch_number": "ASH-CH-01",
		"quantity":     100,
		"unit":         entity.UnitBottles,
		"compositions": []map[string]interface{}{
			{"raw_material_batch_id": batch.ID, "percentage": 100},
		},
	}, testutil.TokenFor(maker, entity.OrgTypeManufacturer))
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected 201 despite ledger failure, got %d: %s", w.Code, w.Body.String())
	}
	data := testutil.Data(w)
	if data["id"] == "" || data["id"] == nil {
		t.Fatalf("Expected stored finished good in response: %s", w.Body.String())
	}
	if qty, ok := data["quantity"].(float64); !ok || qty != 100 {
		t.Fatalf("Expected numeric quantity 100, got %#v", data["quantity"])
	}
	enrichment, _ := data["trace"].(map[string]interface{})
	if enrichment["supply_chain_event"] != nil || enrichment["qr_code"] != nil {
		t.Fatalf("Expected empty enrichment after ledger failure, got %v", enrichment)
	}
}

func TestBatchExportWritesWorkbook(t *testing.T) {
	env := setupHandlerTest(t)

	w := testutil.DoRequest(env.router, "GET", "/api/v1/batches/export", nil, env.farmerToken())
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); !strings.Contains(ct, "spreadsheetml") {
		t.Fatalf("Unexpected content type %q", ct)
	}
	if !bytes.HasPrefix(w.Body.Bytes(), []byte("PK")) {
		t.Fatalf("Expected xlsx (zip) payload")
	}
}

func TestListPagination(t *testing.T) {
	env := setupHandlerTest(t)

	w := testutil.DoRequest(env.router, "GET", "/api/v1/species?page=1&page_size=500", nil, env.farmerToken())
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	pagination, _ := testutil.Data(w)["pagination"].(map[string]interface{})
	if pagination["page_size"] != float64(20) || pagination["total"] != float64(1) {
		t.Fatalf("Unexpected pagination: %v", pagination)
	}
}

func TestEventStreamRegistersClient(t *testing.T) {
	env := setupHandlerTest(t)

	ctx, cancel := context.WithCancel(context.Background())
	req, _ := http.NewRequestWithContext(ctx, "GET", "/api/v1/events/stream?token="+env.farmerToken(), nil)
	w := httptest.NewRecorder()
	done := make(chan struct{})
	go func() {
		env.router.ServeHTTP(w, req)
		close(done)
	}()

	deadline := time.Now().Add(2 * time.Second)
	for env.hub.ClientCount() != 1 {
		if time.Now().After(deadline) {
			t.Fatalf("SSE client never registered")
		}
		time.Sleep(5 * time.Millisecond)
	}
	cancel()
	<-done

	if env.hub.ClientCount() != 0 {
		t.Fatalf("Expected client to be unregistered after disconnect")
	}
	if !strings.Contains(w.Body.String(), "event: connected") {
		t.Fatalf("Expected connected event, got %q", w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("Unexpected content type %q", ct)
	}
}
