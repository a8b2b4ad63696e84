package service

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/trishit-guin/ayutrace-backend-sub000/internal/herb/entity"
	"github.com/trishit-guin/ayutrace-backend-sub000/internal/herb/testutil"
	"github.com/trishit-guin/ayutrace-backend-sub000/internal/herb/trace"
)

func TestDistributorInventoryAndShipments(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	dist := principal(f.distUser, f.distOrg)
	fg := testutil.SeedFinishedGood(t, f.db, f.maker, "ASH-TAB-09", "Ashwagandha Tablets")

	received, err := f.svc.Distributor.Receive(ctx, dist, &ReceiveInventoryRequest{
		Reference:       trace.Reference{BatchNumber: "ASH-TAB-09"},
		Quantity:        decimal.NewFromInt(100),
		Unit:            entity.UnitBottles,
		StorageLocation: "WH-1",
		ReceivedFromID:  f.makerOrg.ID,
	})
	if err != nil {
		t.Fatalf("Receive failed: %v", err)
	}
	if received.FinishedGoodID == nil || *received.FinishedGoodID != fg.ID {
		t.Fatal("Expected inventory to reference the finished good")
	}
	if received.Trace.Event == nil || received.Trace.Event.EventType != entity.EventTypeStorage {
		t.Fatal("Expected STORAGE event")
	}
	if received.SupplyChainEventID == nil {
		t.Fatal("Expected inventory linked to its STORAGE event")
	}

	_, err = f.svc.Distributor.Receive(ctx, dist, &ReceiveInventoryRequest{
		Reference: trace.Reference{BatchNumber: "NOPE"},
		Quantity:  decimal.NewFromInt(1),
		Unit:      entity.UnitBottles,
	})
	expectStatus(t, err, http.StatusBadRequest)

	_, err = f.svc.Distributor.CreateShipment(ctx, dist, &CreateShipmentRequest{
		InventoryID:      received.ID,
		DestinationOrgID: f.makerOrg.ID,
		Quantity:         decimal.NewFromInt(150),
	})
	expectStatus(t, err, http.StatusBadRequest)

	_, err = f.svc.Distributor.CreateShipment(ctx, dist, &CreateShipmentRequest{
		InventoryID:      received.ID,
		DestinationOrgID: "missing",
		Quantity:         decimal.NewFromInt(10),
	})
	expectStatus(t, err, http.StatusNotFound)

	shipment, err := f.svc.Distributor.CreateShipment(ctx, dist, &CreateShipmentRequest{
		InventoryID:      received.ID,
		DestinationOrgID: f.makerOrg.ID,
		Quantity:         decimal.NewFromInt(30),
		Carrier:          "BlueDart",
	})
	if err != nil {
		t.Fatalf("Create shipment failed: %v", err)
	}
	if !strings.HasPrefix(shipment.ShipmentNumber, "SHP-") {
		t.Errorf("Expected SHP- shipment number, got %s", shipment.ShipmentNumber)
	}
	if shipment.Trace == nil || shipment.Trace.Event == nil || shipment.Trace.Event.EventType != entity.EventTypeDistribution {
		t.Fatal("Expected DISTRIBUTION event")
	}
	if shipment.Trace.Event.ToLocationID != f.makerOrg.ID {
		t.Errorf("Expected distribution to destination org")
	}

	item, _ := f.svc.Distributor.GetInventory(ctx, received.ID)
	if !item.Quantity.Equal(decimal.NewFromInt(70)) {
		t.Fatalf("Expected 70 remaining, got %s", item.Quantity)
	}

	_, err = f.svc.Distributor.UpdateShipmentStatus(ctx, dist, shipment.ID, &UpdateShipmentStatusRequest{Status: entity.ShipmentStatusDelivered})
	expectStatus(t, err, http.StatusBadRequest)

	inTransit, err := f.svc.Distributor.UpdateShipmentStatus(ctx, dist, shipment.ID, &UpdateShipmentStatusRequest{Status: entity.ShipmentStatusInTransit})
	if err != nil {
		t.Fatalf("Ship failed: %v", err)
	}
	if inTransit.ShippedAt == nil {
		t.Error("Expected shipped_at to be set")
	}
	delivered, err := f.svc.Distributor.UpdateShipmentStatus(ctx, dist, shipment.ID, &UpdateShipmentStatusRequest{Status: entity.ShipmentStatusDelivered})
	if err != nil {
		t.Fatalf("Deliver failed: %v", err)
	}
	if delivered.DeliveredAt == nil {
		t.Error("Expected delivered_at to be set")
	}
	if delivered.Trace == nil || delivered.Trace.Event == nil || delivered.Trace.Event.EventType != entity.EventTypeTransfer {
		t.Fatal("Expected TRANSFER event on delivery")
	}
}

func TestShipmentCancelRestoresInventory(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	dist := principal(f.distUser, f.distOrg)
	batch := testutil.SeedBatch(t, f.db, f.farmer, "RMB-E", "Giloy")

	received, err := f.svc.Distributor.Receive(ctx, dist, &ReceiveInventoryRequest{
		Reference: trace.Reference{RawMaterialBatchID: batch.ID},
		Quantity:  decimal.NewFromInt(50),
		Unit:      entity.UnitKG,
	})
	if err != nil {
		t.Fatalf("Receive failed: %v", err)
	}
	shipment, err := f.svc.Distributor.CreateShipment(ctx, dist, &CreateShipmentRequest{
		InventoryID:      received.ID,
		DestinationOrgID: f.makerOrg.ID,
		Quantity:         decimal.NewFromInt(20),
	})
	if err != nil {
		t.Fatalf("Create shipment failed: %v", err)
	}

	_, err = f.svc.Distributor.UpdateShipmentStatus(ctx, principal(f.maker, f.makerOrg), shipment.ID, &UpdateShipmentStatusRequest{Status: entity.ShipmentStatusCancelled})
	expectStatus(t, err, http.StatusForbidden)

	if _, err := f.svc.Distributor.UpdateShipmentStatus(ctx, dist, shipment.ID, &UpdateShipmentStatusRequest{Status: entity.ShipmentStatusCancelled}); err != nil {
		t.Fatalf("Cancel failed: %v", err)
	}
	item, _ := f.svc.Distributor.GetInventory(ctx, received.ID)
	if !item.Quantity.Equal(decimal.NewFromInt(50)) {
		t.Fatalf("Expected inventory restored to 50, got %s", item.Quantity)
	}
}

func TestQRGenerateScanDeactivate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	farmer := principal(f.farmer, f.farmerOrg)
	batch := testutil.SeedBatch(t, f.db, f.farmer, "RMB-F", "Amla")

	_, err := f.svc.QR.Generate(ctx, farmer, &GenerateQRRequest{SupplyChainEventID: "missing"})
	expectStatus(t, err, http.StatusNotFound)

	updated, err := f.svc.Batch.UpdateStatus(ctx, farmer, batch.ID, &UpdateBatchStatusRequest{Status: entity.BatchStatusQuarantined})
	if err != nil {
		t.Fatalf("Update batch status failed: %v", err)
	}
	if updated.Status != entity.BatchStatusQuarantined {
		t.Fatalf("Expected QUARANTINED, got %s", updated.Status)
	}
	events, total, err := f.svc.Event.List(ctx, 1, 10, map[string]string{"raw_material_batch_id": batch.ID})
	if err != nil || total != 1 {
		t.Fatalf("Expected one PROCESSING event, got %d (%v)", total, err)
	}

	qr, err := f.svc.QR.Generate(ctx, farmer, &GenerateQRRequest{
		SupplyChainEventID: events[0].ID,
		CustomData:         map[string]interface{}{"label": "crate 7"},
	})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if qr.EntityType != entity.KindSupplyChainEvent || qr.EntityID != events[0].ID {
		t.Fatalf("Expected QR to point at the event, got %s/%s", qr.EntityType, qr.EntityID)
	}
	if len(qr.QRHash) != 32 {
		t.Errorf("Expected 32 char hash, got %q", qr.QRHash)
	}

	scan, err := f.svc.QR.Scan(ctx, qr.QRHash)
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	if scan.Event == nil || scan.Event.ID != events[0].ID {
		t.Fatal("Expected scan to return the event")
	}
	if b, ok := scan.Entity.(*entity.RawMaterialBatch); !ok || b.Status != entity.BatchStatusQuarantined {
		t.Fatalf("Expected current batch state, got %#v", scan.Entity)
	}

	png, err := f.svc.QR.Image(ctx, qr.QRHash)
	if err != nil || len(png) < 8 || string(png[1:4]) != "PNG" {
		t.Fatalf("Expected PNG image, got %d bytes (%v)", len(png), err)
	}

	list, total, err := f.svc.QR.ListForOrganization(ctx, farmer, 1, 20, nil)
	if err != nil || total < 2 || len(list) != int(total) {
		t.Fatalf("Expected farmer org QR codes, got %d (%v)", total, err)
	}
	_, total, _ = f.svc.QR.ListForOrganization(ctx, principal(f.maker, f.makerOrg), 1, 20, nil)
	if total != 0 {
		t.Fatalf("Expected no QR codes for another org, got %d", total)
	}

	_, err = f.svc.QR.Deactivate(ctx, principal(f.maker, f.makerOrg), qr.ID)
	expectStatus(t, err, http.StatusForbidden)
	if _, err := f.svc.QR.Deactivate(ctx, farmer, qr.ID); err != nil {
		t.Fatalf("Deactivate failed: %v", err)
	}
	_, err = f.svc.QR.Scan(ctx, qr.QRHash)
	expectStatus(t, err, http.StatusNotFound)
	_, err = f.svc.QR.Scan(ctx, "0000")
	expectStatus(t, err, http.StatusNotFound)
}

func TestBatchStatusOwnership(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	batch := testutil.SeedBatch(t, f.db, f.farmer, "RMB-G", "Brahmi")

	_, err := f.svc.Batch.UpdateStatus(ctx, principal(f.maker, f.makerOrg), batch.ID, &UpdateBatchStatusRequest{Status: entity.BatchStatusInProcessing})
	expectStatus(t, err, http.StatusForbidden)

	_, err = f.svc.Batch.UpdateStatus(ctx, principal(f.farmer, f.farmerOrg), batch.ID, &UpdateBatchStatusRequest{Status: entity.BatchStatusProcessed})
	expectStatus(t, err, http.StatusBadRequest)

	_, err = f.svc.Batch.Create(ctx, principal(f.farmer, f.farmerOrg), &CreateBatchRequest{
		HerbName:           "Brahmi",
		Quantity:           decimal.NewFromInt(5),
		Unit:               entity.UnitKG,
		CollectionEventIDs: []string{"missing"},
	})
	expectStatus(t, err, http.StatusNotFound)
}

func TestSpeciesDeleteDeactivatesWhenReferenced(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	used, err := f.svc.Species.Create(ctx, &CreateSpeciesRequest{ScientificName: "Ocimum tenuiflorum", CommonName: "Tulsi"})
	if err != nil {
		t.Fatalf("Create species failed: %v", err)
	}
	// 空白差异视为同一学名
	_, err = f.svc.Species.Create(ctx, &CreateSpeciesRequest{ScientificName: " Ocimum   tenuiflorum ", CommonName: "Holy basil"})
	expectStatus(t, err, http.StatusConflict)

	testutil.SeedCollectionEvent(t, f.db, f.farmer, used, 10)
	hard, err := f.svc.Species.Delete(ctx, used.ID)
	if err != nil || hard {
		t.Fatalf("Expected soft delete, got hard=%v err=%v", hard, err)
	}
	got, _ := f.svc.Species.Get(ctx, used.ID)
	if got.IsActive {
		t.Fatal("Expected referenced species to be deactivated")
	}

	_, err = f.svc.Collection.Create(ctx, principal(f.farmer, f.farmerOrg), &CreateCollectionRequest{
		SpeciesID: used.ID,
		Quantity:  decimal.NewFromInt(1),
		Unit:      entity.UnitKG,
		Latitude:  float(1),
		Longitude: float(1),
	}, nil)
	expectStatus(t, err, http.StatusBadRequest)

	unused, _ := f.svc.Species.Create(ctx, &CreateSpeciesRequest{ScientificName: "Bacopa monnieri", CommonName: "Brahmi"})
	hard, err = f.svc.Species.Delete(ctx, unused.ID)
	if err != nil || !hard {
		t.Fatalf("Expected hard delete, got hard=%v err=%v", hard, err)
	}
	_, err = f.svc.Species.Get(ctx, unused.ID)
	expectStatus(t, err, http.StatusNotFound)
}

func TestAuthRegisterLoginRefresh(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	reg, err := f.svc.Auth.Register(ctx, &RegisterRequest{
		OrganizationName:   "Kerala Herbs",
		OrganizationType:   entity.OrgTypeFarmer,
		RegistrationNumber: "KL-001",
		Email:              "Owner@Kerala.example",
		Password:           "supersecret",
		FirstName:          "Anu",
	})
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if reg.User.Role != entity.RoleAdmin || reg.User.Email != "owner@kerala.example" {
		t.Fatalf("Unexpected registered user: %+v", reg.User)
	}
	if reg.Tokens.AccessToken == "" || reg.Tokens.RefreshToken == "" {
		t.Fatal("Expected token pair")
	}

	_, err = f.svc.Auth.Register(ctx, &RegisterRequest{
		OrganizationName:   "Other",
		OrganizationType:   entity.OrgTypeLabs,
		RegistrationNumber: "KL-002",
		Email:              "owner@kerala.example",
		Password:           "supersecret",
	})
	expectStatus(t, err, http.StatusConflict)

	_, err = f.svc.Auth.Register(ctx, &RegisterRequest{
		OrganizationName:   "Sneaky",
		OrganizationType:   entity.OrgTypeAdmin,
		RegistrationNumber: "KL-003",
		Email:              "sneaky@example.com",
		Password:           "supersecret",
	})
	expectStatus(t, err, http.StatusBadRequest)

	_, err = f.svc.Auth.Login(ctx, &LoginRequest{Email: "owner@kerala.example", Password: "wrong-password"})
	expectStatus(t, err, http.StatusUnauthorized)

	login, err := f.svc.Auth.Login(ctx, &LoginRequest{Email: "owner@kerala.example", Password: "supersecret"})
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	pair, err := f.svc.Auth.Refresh(ctx, login.Tokens.RefreshToken)
	if err != nil || pair.AccessToken == "" {
		t.Fatalf("Refresh failed: %v", err)
	}
	_, err = f.svc.Auth.Refresh(ctx, login.Tokens.AccessToken)
	expectStatus(t, err, http.StatusUnauthorized)

	me, err := f.svc.Auth.Me(ctx, reg.User.ID)
	if err != nil || me.Organization == nil || me.Organization.Name != "Kerala Herbs" {
		t.Fatalf("Expected me with organization, got %+v (%v)", me, err)
	}
}

func TestAdminDeactivateOrganizationBlocksLogin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	adminOrg := testutil.SeedOrganization(t, f.db, "AyuTrace Ops", entity.OrgTypeAdmin)
	admin := testutil.SeedUser(t, f.db, adminOrg, "ops@example.com", entity.RoleAdmin)
	p := principal(admin, adminOrg)

	inactive := false
	if _, err := f.svc.Admin.SetOrganizationStatus(ctx, p, f.farmerOrg.ID, &SetStatusRequest{IsActive: &inactive, Reason: "audit"}); err != nil {
		t.Fatalf("Deactivate organization failed: %v", err)
	}
	_, err := f.svc.Auth.Login(ctx, &LoginRequest{Email: "farmer@example.com", Password: testutil.TestPassword})
	expectStatus(t, err, http.StatusForbidden)

	_, err = f.svc.Admin.SetOrganizationStatus(ctx, p, adminOrg.ID, &SetStatusRequest{IsActive: &inactive})
	expectStatus(t, err, http.StatusBadRequest)

	actions, total, err := f.svc.Admin.ListActions(ctx, 1, 10, nil)
	if err != nil || total != 1 || actions[0].TargetID != f.farmerOrg.ID {
		t.Fatalf("Expected one admin action for the farmer org, got %d (%v)", total, err)
	}

	metrics, err := f.svc.Admin.Dashboard(ctx)
	if err != nil {
		t.Fatalf("Dashboard failed: %v", err)
	}
	if metrics.Users != 5 || metrics.OrganizationsByType[entity.OrgTypeFarmer] != 1 {
		t.Fatalf("Unexpected dashboard metrics: %+v", metrics)
	}
}
