package service

import (
	"errors"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/trishit-guin/ayutrace-backend-sub000/internal/config"
	"github.com/trishit-guin/ayutrace-backend-sub000/internal/herb/entity"
	"github.com/trishit-guin/ayutrace-backend-sub000/internal/herb/repository"
	"github.com/trishit-guin/ayutrace-backend-sub000/internal/herb/testutil"
	"github.com/trishit-guin/ayutrace-backend-sub000/internal/shared/blob"
)

type fixture struct {
	db    *gorm.DB
	svc   *Services
	store blob.Store

	farmerOrg, makerOrg, labOrg, distOrg *entity.Organization
	farmer, maker, labUser, distUser     *entity.User
}

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Server.PublicURL = "http://ayutrace.test"
	cfg.JWT = config.JWTConfig{
		Secret:             testutil.JWTSecret,
		AccessTokenExpire:  time.Hour,
		RefreshTokenExpire: 24 * time.Hour,
		Issuer:             "ayutrace-test",
	}
	return cfg
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.SetupTestDB(t)
	store, err := blob.NewLocal(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to open blob store: %v", err)
	}

	f := &fixture{
		db:    db,
		store: store,
		svc:   NewServices(repository.NewRepositories(db), nil, store, nil, testConfig(), nil),
	}
	f.farmerOrg = testutil.SeedOrganization(t, db, "Rajasthan Growers", entity.OrgTypeFarmer)
	f.makerOrg = testutil.SeedOrganization(t, db, "Himalaya Herbals", entity.OrgTypeManufacturer)
	f.labOrg = testutil.SeedOrganization(t, db, "Ayur Labs", entity.OrgTypeLabs)
	f.distOrg = testutil.SeedOrganization(t, db, "Delhi Distribution", entity.OrgTypeDistributor)
	f.farmer = testutil.SeedUser(t, db, f.farmerOrg, "farmer@example.com", entity.RoleUser)
	f.maker = testutil.SeedUser(t, db, f.makerOrg, "maker@example.com", entity.RoleUser)
	f.labUser = testutil.SeedUser(t, db, f.labOrg, "lab@example.com", entity.RoleUser)
	f.distUser = testutil.SeedUser(t, db, f.distOrg, "dist@example.com", entity.RoleUser)
	return f
}

func principal(u *entity.User, org *entity.Organization) Principal {
	return Principal{UserID: u.ID, OrgID: org.ID, OrgType: org.Type, Role: u.Role}
}

func expectStatus(t *testing.T, err error, status int) *Error {
	t.Helper()
	var se *Error
	if !errors.As(err, &se) {
		t.Fatalf("Expected service error with status %d, got %v", status, err)
	}
	if se.Status != status {
		t.Fatalf("Expected status %d, got %d (%s)", status, se.Status, se.Message)
	}
	return se
}

func TestPrincipalPermissions(t *testing.T) {
	member := Principal{UserID: "u1", OrgID: "org-1", OrgType: entity.OrgTypeFarmer, Role: entity.RoleAdmin}
	if member.IsPlatformAdmin() {
		t.Fatal("Organization admin of a farmer org must not be a platform admin")
	}
	if !member.CanActFor("org-1") || member.CanActFor("org-2") {
		t.Fatal("Member should act only for its own organization")
	}

	platform := Principal{UserID: "u2", OrgID: "admin-org", OrgType: entity.OrgTypeAdmin, Role: entity.RoleAdmin}
	if !platform.IsPlatformAdmin() || !platform.CanActFor("org-2") {
		t.Fatal("ADMIN org admin should act for any organization")
	}

	super := Principal{UserID: "u3", OrgID: "org-3", OrgType: entity.OrgTypeLabs, Role: entity.RoleSuperAdmin}
	if !super.IsPlatformAdmin() {
		t.Fatal("Super admin should be a platform admin")
	}
}
