package trace

import (
	"context"
	"errors"
	"testing"

	"gorm.io/datatypes"

	"github.com/trishit-guin/ayutrace-backend-sub000/internal/herb/entity"
	"github.com/trishit-guin/ayutrace-backend-sub000/internal/herb/repository"
)

type fakeBatches map[string]string // id -> batch number

func (f fakeBatches) Exists(_ context.Context, id string) (bool, error) {
	_, ok := f[id]
	return ok, nil
}

func (f fakeBatches) FindByBatchNumber(_ context.Context, n string) (*entity.RawMaterialBatch, error) {
	for id, number := range f {
		if number == n {
			return &entity.RawMaterialBatch{ID: id, BatchNumber: number}, nil
		}
	}
	return nil, repository.ErrNotFound
}

type fakeGoods map[string]string

func (f fakeGoods) Exists(_ context.Context, id string) (bool, error) {
	_, ok := f[id]
	return ok, nil
}

func (f fakeGoods) FindByBatchNumber(_ context.Context, n string) (*entity.FinishedGood, error) {
	for id, number := range f {
		if number == n {
			return &entity.FinishedGood{ID: id, BatchNumber: number}, nil
		}
	}
	return nil, repository.ErrNotFound
}

type fakeQRs map[string]*entity.QRCode

func (f fakeQRs) FindByHash(_ context.Context, hash string) (*entity.QRCode, error) {
	if qr, ok := f[hash]; ok {
		return qr, nil
	}
	return nil, repository.ErrNotFound
}

func newTestResolver(verify bool) *Resolver {
	batches := fakeBatches{"rmb-1": "RMB-2026-0001"}
	goods := fakeGoods{"fg-1": "ASH-TAB-01", "fg-2": "ASH-TAB-02"}
	qrs := fakeQRs{
		"hash-fg1": {QRHash: "hash-fg1", IsActive: true, CustomData: datatypes.JSON(`{"finished_good_id":"fg-1"}`)},
		"hash-off": {QRHash: "hash-off", IsActive: false, CustomData: datatypes.JSON(`{"finished_good_id":"fg-1"}`)},
	}
	return NewResolver(batches, goods, qrs, verify)
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func TestResolve(t *testing.T) {
	ctx := context.Background()
	r := newTestResolver(false)

	tests := []struct {
		name      string
		ref       Reference
		wantBatch string
		wantGood  string
		source    string
	}{
		{
			name:     "finished good snapshot wins over batch number",
			ref:      Reference{BatchNumber: "RMB-2026-0001", QRSnapshot: &Snapshot{EntityType: entity.KindFinishedGood, EntityID: "fg-x"}},
			wantGood: "fg-x",
			source:   SourceSnapshot,
		},
		{
			name:      "batch snapshot is not trusted",
			ref:       Reference{BatchNumber: "RMB-2026-0001", QRSnapshot: &Snapshot{EntityType: entity.KindRawMaterialBatch, EntityID: "rmb-x"}},
			wantBatch: "rmb-1",
			source:    SourceBatchNumber,
		},
		{
			name:     "explicit finished good id",
			ref:      Reference{FinishedGoodID: "fg-2"},
			wantGood: "fg-2",
			source:   SourceFinishedGood,
		},
		{
			name:      "explicit batch id",
			ref:       Reference{RawMaterialBatchID: "rmb-1"},
			wantBatch: "rmb-1",
			source:    SourceBatch,
		},
		{
			name:      "batch id passed as batch number",
			ref:       Reference{BatchNumber: "rmb-1"},
			wantBatch: "rmb-1",
			source:    SourceBatchNumber,
		},
		{
			name:     "finished good batch number",
			ref:      Reference{BatchNumber: "ASH-TAB-02"},
			wantGood: "fg-2",
			source:   SourceBatchNumber,
		},
		{
			name:     "finished good id passed as batch number",
			ref:      Reference{BatchNumber: "fg-1"},
			wantGood: "fg-1",
			source:   SourceBatchNumber,
		},
		{
			name: "nothing matches",
			ref:  Reference{BatchNumber: "UNKNOWN"},
		},
		{
			name: "empty reference",
			ref:  Reference{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.Resolve(ctx, tt.ref)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if deref(got.RawMaterialBatchID) != tt.wantBatch {
				t.Fatalf("expected batch %q, got %q", tt.wantBatch, deref(got.RawMaterialBatchID))
			}
			if deref(got.FinishedGoodID) != tt.wantGood {
				t.Fatalf("expected finished good %q, got %q", tt.wantGood, deref(got.FinishedGoodID))
			}
			if got.Source != tt.source {
				t.Fatalf("expected source %q, got %q", tt.source, got.Source)
			}
			if got.RawMaterialBatchID != nil && got.FinishedGoodID != nil {
				t.Fatal("both ids set")
			}
		})
	}
}

func TestResolveErrors(t *testing.T) {
	ctx := context.Background()
	r := newTestResolver(false)

	if _, err := r.Resolve(ctx, Reference{RawMaterialBatchID: "rmb-1", FinishedGoodID: "fg-1"}); !errors.Is(err, ErrAmbiguousReference) {
		t.Fatalf("expected ErrAmbiguousReference, got %v", err)
	}
	if _, err := r.Resolve(ctx, Reference{FinishedGoodID: "missing"}); !errors.Is(err, ErrReferenceNotFound) {
		t.Fatalf("expected ErrReferenceNotFound, got %v", err)
	}
	if _, err := r.Resolve(ctx, Reference{RawMaterialBatchID: "missing"}); !errors.Is(err, ErrReferenceNotFound) {
		t.Fatalf("expected ErrReferenceNotFound, got %v", err)
	}
}

func TestResolveVerifiedSnapshots(t *testing.T) {
	ctx := context.Background()
	r := newTestResolver(true)
	snap := &Snapshot{EntityType: entity.KindFinishedGood, EntityID: "fg-1"}

	got, err := r.Resolve(ctx, Reference{QRSnapshot: snap, QRHash: "hash-fg1", BatchNumber: "RMB-2026-0001"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if deref(got.FinishedGoodID) != "fg-1" || got.Source != SourceSnapshot {
		t.Fatalf("expected verified snapshot, got %+v", got)
	}

	// 未附带二维码、二维码停用或成品不存在时回退到批次号
	for _, ref := range []Reference{
		{QRSnapshot: snap, BatchNumber: "RMB-2026-0001"},
		{QRSnapshot: snap, QRHash: "hash-off", BatchNumber: "RMB-2026-0001"},
		{QRSnapshot: &Snapshot{EntityType: entity.KindFinishedGood, EntityID: "fg-ghost"}, QRHash: "hash-fg1", BatchNumber: "RMB-2026-0001"},
		{QRSnapshot: &Snapshot{EntityType: entity.KindFinishedGood, EntityID: "fg-2"}, QRHash: "hash-fg1", BatchNumber: "RMB-2026-0001"},
	} {
		got, err := r.Resolve(ctx, ref)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if deref(got.RawMaterialBatchID) != "rmb-1" || got.FinishedGoodID != nil {
			t.Fatalf("expected fallback to batch number, got %+v", got)
		}
	}
}
