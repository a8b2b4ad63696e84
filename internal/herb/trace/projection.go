package trace

import (
	"strings"

	"github.com/trishit-guin/ayutrace-backend-sub000/internal/herb/entity"
	"github.com/trishit-guin/ayutrace-backend-sub000/internal/shared/notary"
)

// CollectionEventProjection 采集事件 → 公证投影
func CollectionEventProjection(ev *entity.CollectionEvent) notary.CollectionEventProjection {
	p := notary.CollectionEventProjection{
		ID:                 ev.ID,
		CollectorID:        ev.CollectorID,
		OrganizationID:     ev.OrganizationID,
		SpeciesID:          ev.SpeciesID,
		Quantity:           ev.Quantity.String(),
		Unit:               ev.Unit,
		HarvestDate:        notary.Time(&ev.HarvestDate),
		Latitude:           ev.Latitude,
		Longitude:          ev.Longitude,
		Location:           ev.Location,
		RawMaterialBatchID: notary.Str(ev.RawMaterialBatchID),
	}
	if ev.Species != nil {
		p.SpeciesName = ev.Species.ScientificName
	}
	return p
}

// FinishedGoodProjection 成品 → 公证投影，配比压平为字符串
func FinishedGoodProjection(fg *entity.FinishedGood) notary.FinishedGoodProjection {
	ids := make([]string, 0, len(fg.Compositions))
	parts := make([]string, 0, len(fg.Compositions))
	for _, c := range fg.Compositions {
		ids = append(ids, c.RawMaterialBatchID)
		parts = append(parts, c.RawMaterialBatchID+":"+c.Percentage.String())
	}
	return notary.FinishedGoodProjection{
		ID:                  fg.ID,
		BatchNumber:         fg.BatchNumber,
		ProductName:         fg.ProductName,
		ProductType:         fg.ProductType,
		Quantity:            fg.Quantity.String(),
		Unit:                fg.Unit,
		ManufactureDate:     notary.Time(fg.ManufactureDate),
		ExpiryDate:          notary.Time(fg.ExpiryDate),
		ManufacturerID:      fg.ManufacturerID,
		RawMaterialBatchIDs: strings.Join(ids, ","),
		Composition:         strings.Join(parts, ","),
	}
}

// SupplyChainEventProjection 账本行 → 公证投影
func SupplyChainEventProjection(ev *entity.SupplyChainEvent) notary.SupplyChainEventProjection {
	metadata := ""
	if len(ev.Metadata) > 0 {
		metadata = string(ev.Metadata)
	}
	return notary.SupplyChainEventProjection{
		ID:                 ev.ID,
		EventType:          ev.EventType,
		HandlerID:          ev.HandlerID,
		FromLocationID:     ev.FromLocationID,
		ToLocationID:       ev.ToLocationID,
		RawMaterialBatchID: notary.Str(ev.RawMaterialBatchID),
		FinishedGoodID:     notary.Str(ev.FinishedGoodID),
		Notes:              ev.Notes,
		Metadata:           metadata,
		EventTime:          notary.Time(&ev.EventTime),
	}
}
