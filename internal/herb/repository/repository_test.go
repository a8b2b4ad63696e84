package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/trishit-guin/ayutrace-backend-sub000/internal/herb/entity"
	"github.com/trishit-guin/ayutrace-backend-sub000/internal/herb/testutil"
)

func TestBatchNumberPastFourDigits(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := NewBatchRepository(db)
	ctx := context.Background()

	org := testutil.SeedOrganization(t, db, "Green Valley Farms", entity.OrgTypeFarmer)
	farmer := testutil.SeedUser(t, db, org, "farmer@example.com", entity.RoleUser)
	species := testutil.SeedSpecies(t, db, "Withania somnifera", "Ashwagandha")

	prefix := fmt.Sprintf("RMB-%s-", time.Now().Format("2006"))
	testutil.SeedBatch(t, db, farmer, prefix+"9999", "Ashwagandha")

	want := []string{prefix + "10000", prefix + "10001"}
	for i, expected := range want {
		event := testutil.SeedCollectionEvent(t, db, farmer, species, 10)
		batch := &entity.RawMaterialBatch{
			ID:             uuid.New().String(),
			HerbName:       "Ashwagandha",
			Quantity:       decimal.NewFromInt(10),
			Unit:           entity.UnitKG,
			Status:         entity.BatchStatusCreated,
			CurrentOwnerID: org.ID,
			CreatedByID:    farmer.ID,
		}
		if err := repo.CreateWithEvents(ctx, batch, []string{event.ID}); err != nil {
			t.Fatalf("create #%d failed: %v", i+1, err)
		}
		if batch.BatchNumber != expected {
			t.Fatalf("create #%d: expected %s, got %s", i+1, expected, batch.BatchNumber)
		}
	}
}

func TestGenerateCodeOrdersByLength(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()

	org := testutil.SeedOrganization(t, db, "Spice Route Traders", entity.OrgTypeDistributor)
	prefix := fmt.Sprintf("SHP-%s-", time.Now().Format("2006"))

	code, err := generateCode(ctx, db, &entity.DistributorShipment{}, "shipment_number", "SHP")
	if err != nil {
		t.Fatalf("generateCode on empty table: %v", err)
	}
	if code != prefix+"0001" {
		t.Fatalf("Expected %s0001, got %s", prefix, code)
	}

	// 字典序下 9999 大于 12000
	for _, n := range []string{"0002", "9999", "12000"} {
		shipment := &entity.DistributorShipment{
			ID:               uuid.New().String(),
			ShipmentNumber:   prefix + n,
			DistributorID:    org.ID,
			DestinationOrgID: org.ID,
			InventoryID:      uuid.New().String(),
			Quantity:         decimal.NewFromInt(1),
			Unit:             entity.UnitKG,
			Status:           entity.ShipmentStatusPending,
		}
		if err := db.Create(shipment).Error; err != nil {
			t.Fatalf("Failed to seed shipment %s: %v", n, err)
		}
	}

	code, err = generateCode(ctx, db, &entity.DistributorShipment{}, "shipment_number", "SHP")
	if err != nil {
		t.Fatalf("generateCode: %v", err)
	}
	if code != prefix+"12001" {
		t.Fatalf("Expected %s12001, got %s", prefix, code)
	}
}
