package testutil

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/trishit-guin/ayutrace-backend-sub000/internal/herb/entity"
	"github.com/trishit-guin/ayutrace-backend-sub000/internal/middleware"
)

const (
	JWTSecret    = "ayutrace-test-jwt-secret"
	TestPassword = "Passw0rd!"
)

// projectRoot returns the project root directory by looking for go.mod
func projectRoot() string {
	_, filename, _, _ := runtime.Caller(0)
	dir := filepath.Dir(filename)
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return ""
}

// loadEnv loads .env from the project root
func loadEnv() {
	if root := projectRoot(); root != "" {
		godotenv.Load(filepath.Join(root, ".env"))
	}
}

// SetupTestDB opens an isolated in-memory sqlite database with all tables migrated.
// A single connection is used so every statement sees the same database.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	loadEnv()

	dsn := fmt.Sprintf("file:ayutrace_%s?mode=memory&cache=shared", uuid.New().String())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:                                   logger.Default.LogMode(logger.Silent),
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("Failed to get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)

	if err := db.AutoMigrate(entity.All()...); err != nil {
		t.Fatalf("Failed to migrate test tables: %v", err)
	}

	t.Cleanup(func() {
		sqlDB.Close()
	})
	return db
}

// SetupRouter creates a gin test router. Decimals are rendered as JSON numbers, as in main.
func SetupRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	decimal.MarshalJSONWithoutQuotes = true
	r := gin.New()
	r.Use(gin.Recovery())
	return r
}

// AuthGroup creates an API group with JWT auth middleware for testing
func AuthGroup(r *gin.Engine, path string) *gin.RouterGroup {
	return r.Group(path, middleware.JWTAuth(JWTSecret))
}

// GenerateTestToken creates a valid access token for the given principal
func GenerateTestToken(userID, orgID, orgType, role string) string {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":      userID,
		"uid":      userID,
		"email":    userID + "@test.local",
		"org":      orgID,
		"org_type": orgType,
		"role":     role,
		"roles":    []string{role},
		"typ":      middleware.TokenTypeAccess,
		"iss":      "ayutrace",
		"iat":      now.Unix(),
		"exp":      now.Add(24 * time.Hour).Unix(),
		"jti":      fmt.Sprintf("test-jti-%d", now.UnixNano()),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, _ := token.SignedString([]byte(JWTSecret))
	return tokenString
}

// TokenFor returns an access token for a seeded user
func TokenFor(u *entity.User, orgType string) string {
	return GenerateTestToken(u.ID, u.OrganizationID, orgType, u.Role)
}

// DoRequest executes an HTTP request against the test router
func DoRequest(r *gin.Engine, method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	var reqBody *bytes.Buffer
	if body != nil {
		jsonBytes, _ := json.Marshal(body)
		reqBody = bytes.NewBuffer(jsonBytes)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req, _ := http.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// ParseResponse parses the JSON response body into a map
func ParseResponse(w *httptest.ResponseRecorder) map[string]interface{} {
	var result map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &result)
	return result
}

// Data returns the "data" object of an envelope response
func Data(w *httptest.ResponseRecorder) map[string]interface{} {
	data, _ := ParseResponse(w)["data"].(map[string]interface{})
	return data
}

// SeedOrganization creates an active organization
func SeedOrganization(t *testing.T, db *gorm.DB, name, orgType string) *entity.Organization {
	t.Helper()
	org := &entity.Organization{
		ID:                 uuid.New().String(),
		Name:               name,
		Type:               orgType,
		RegistrationNumber: "REG-" + uuid.New().String()[:8],
		IsActive:           true,
	}
	if err := db.Create(org).Error; err != nil {
		t.Fatalf("Failed to seed organization: %v", err)
	}
	return org
}

// SeedUser creates an active user with TestPassword in the organization
func SeedUser(t *testing.T, db *gorm.DB, org *entity.Organization, email, role string) *entity.User {
	t.Helper()
	hash, _ := bcrypt.GenerateFromPassword([]byte(TestPassword), bcrypt.MinCost)
	user := &entity.User{
		ID:             uuid.New().String(),
		OrganizationID: org.ID,
		Email:          email,
		PasswordHash:   string(hash),
		FirstName:      "Test",
		LastName:       role,
		Role:           role,
		IsActive:       true,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("Failed to seed user: %v", err)
	}
	return user
}

// SeedSpecies creates an active herb species
func SeedSpecies(t *testing.T, db *gorm.DB, scientificName, commonName string) *entity.HerbSpecies {
	t.Helper()
	species := &entity.HerbSpecies{
		ID:             uuid.New().String(),
		ScientificName: scientificName,
		CommonName:     commonName,
		IsActive:       true,
	}
	if err := db.Create(species).Error; err != nil {
		t.Fatalf("Failed to seed species: %v", err)
	}
	return species
}

// SeedCollectionEvent creates an unbatched collection event
func SeedCollectionEvent(t *testing.T, db *gorm.DB, collector *entity.User, species *entity.HerbSpecies, qty int64) *entity.CollectionEvent {
	t.Helper()
	ev := &entity.CollectionEvent{
		ID:             uuid.New().String(),
		CollectorID:    collector.ID,
		OrganizationID: collector.OrganizationID,
		SpeciesID:      species.ID,
		Quantity:       decimal.NewFromInt(qty),
		Unit:           entity.UnitKG,
		HarvestDate:    time.Now().Add(-24 * time.Hour),
		Latitude:       26.9,
		Longitude:      75.8,
	}
	if err := db.Omit("Species").Create(ev).Error; err != nil {
		t.Fatalf("Failed to seed collection event: %v", err)
	}
	return ev
}

// SeedBatch creates a raw material batch in CREATED status
func SeedBatch(t *testing.T, db *gorm.DB, owner *entity.User, batchNumber, herbName string) *entity.RawMaterialBatch {
	t.Helper()
	batch := &entity.RawMaterialBatch{
		ID:             uuid.New().String(),
		BatchNumber:    batchNumber,
		HerbName:       herbName,
		Quantity:       decimal.NewFromInt(100),
		Unit:           entity.UnitKG,
		Status:         entity.BatchStatusCreated,
		CurrentOwnerID: owner.OrganizationID,
		CreatedByID:    owner.ID,
	}
	if err := db.Omit("CollectionEvents").Create(batch).Error; err != nil {
		t.Fatalf("Failed to seed batch: %v", err)
	}
	return batch
}

// SeedFinishedGood creates a finished good without compositions
func SeedFinishedGood(t *testing.T, db *gorm.DB, manufacturer *entity.User, batchNumber, productName string) *entity.FinishedGood {
	t.Helper()
	fg := &entity.FinishedGood{
		ID:             uuid.New().String(),
		BatchNumber:    batchNumber,
		ProductName:    productName,
		Quantity:       decimal.NewFromInt(500),
		Unit:           entity.UnitBottles,
		ManufacturerID: manufacturer.OrganizationID,
		CreatedByID:    manufacturer.ID,
	}
	if err := db.Omit("Compositions").Create(fg).Error; err != nil {
		t.Fatalf("Failed to seed finished good: %v", err)
	}
	return fg
}
