package trace

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/trishit-guin/ayutrace-backend-sub000/internal/herb/entity"
	"github.com/trishit-guin/ayutrace-backend-sub000/internal/herb/repository"
)

var (
	ErrReferenceNotFound  = errors.New("referenced entity not found")
	ErrAmbiguousReference = errors.New("raw_material_batch_id and finished_good_id are mutually exclusive")
)

// 解析来源
const (
	SourceSnapshot     = "qr_snapshot"
	SourceFinishedGood = "finished_good_id"
	SourceBatch        = "raw_material_batch_id"
	SourceBatchNumber  = "batch_number"
)

// BatchLookup 原料批次查询
type BatchLookup interface {
	Exists(ctx context.Context, id string) (bool, error)
	FindByBatchNumber(ctx context.Context, batchNumber string) (*entity.RawMaterialBatch, error)
}

// GoodLookup 成品查询
type GoodLookup interface {
	Exists(ctx context.Context, id string) (bool, error)
	FindByBatchNumber(ctx context.Context, batchNumber string) (*entity.FinishedGood, error)
}

// QRLookup 二维码查询，用于快照校验
type QRLookup interface {
	FindByHash(ctx context.Context, hash string) (*entity.QRCode, error)
}

// Snapshot 客户端回传的二维码快照
type Snapshot struct {
	EntityType string `json:"entity_type"`
	EntityID   string `json:"entity_id"`
}

// Reference 客户端提交的实体引用，各字段均可为空
type Reference struct {
	BatchNumber        string    `json:"batch_number"`
	RawMaterialBatchID string    `json:"raw_material_batch_id"`
	FinishedGoodID     string    `json:"finished_good_id"`
	QRSnapshot         *Snapshot `json:"qr_snapshot"`
	QRHash             string    `json:"qr_hash"`
}

// Resolved 解析结果，两个ID至多一个非空
type Resolved struct {
	RawMaterialBatchID *string `json:"raw_material_batch_id"`
	FinishedGoodID     *string `json:"finished_good_id"`
	Source             string  `json:"source,omitempty"`
}

// Empty 未解析到任何实体
func (r Resolved) Empty() bool {
	return r.RawMaterialBatchID == nil && r.FinishedGoodID == nil
}

func batchRef(id, source string) Resolved {
	return Resolved{RawMaterialBatchID: &id, Source: source}
}

func goodRef(id, source string) Resolved {
	return Resolved{FinishedGoodID: &id, Source: source}
}

// Resolver 将客户端引用解析为具体的原料批次或成品
type Resolver struct {
	batches         BatchLookup
	goods           GoodLookup
	qrs             QRLookup
	verifySnapshots bool
}

func NewResolver(batches BatchLookup, goods GoodLookup, qrs QRLookup, verifySnapshots bool) *Resolver {
	return &Resolver{
		batches:         batches,
		goods:           goods,
		qrs:             qrs,
		verifySnapshots: verifySnapshots,
	}
}

// Resolve 解析顺序：成品快照 > 显式成品ID > 显式批次ID > 批次号探测。
// 全部落空返回空结果，不视为错误
func (r *Resolver) Resolve(ctx context.Context, ref Reference) (Resolved, error) {
	if ref.RawMaterialBatchID != "" && ref.FinishedGoodID != "" {
		return Resolved{}, ErrAmbiguousReference
	}

	if snap := ref.QRSnapshot; snap != nil && snap.EntityType == entity.KindFinishedGood && snap.EntityID != "" {
		if !r.verifySnapshots {
			return goodRef(snap.EntityID, SourceSnapshot), nil
		}
		ok, err := r.snapshotVerified(ctx, snap.EntityID, ref.QRHash)
		if err != nil {
			return Resolved{}, err
		}
		if ok {
			return goodRef(snap.EntityID, SourceSnapshot), nil
		}
	}

	if id := ref.FinishedGoodID; id != "" {
		exists, err := r.goods.Exists(ctx, id)
		if err != nil {
			return Resolved{}, fmt.Errorf("check finished good: %w", err)
		}
		if !exists {
			return Resolved{}, fmt.Errorf("%w: finished good %s", ErrReferenceNotFound, id)
		}
		return goodRef(id, SourceFinishedGood), nil
	}

	if id := ref.RawMaterialBatchID; id != "" {
		exists, err := r.batches.Exists(ctx, id)
		if err != nil {
			return Resolved{}, fmt.Errorf("check raw material batch: %w", err)
		}
		if !exists {
			return Resolved{}, fmt.Errorf("%w: raw material batch %s", ErrReferenceNotFound, id)
		}
		return batchRef(id, SourceBatch), nil
	}

	if n := strings.TrimSpace(ref.BatchNumber); n != "" {
		return r.byBatchNumber(ctx, n)
	}
	return Resolved{}, nil
}

// byBatchNumber 客户端常把ID当批次号传入，依次探测：批次ID、批次号、成品ID、成品批号
func (r *Resolver) byBatchNumber(ctx context.Context, n string) (Resolved, error) {
	if exists, err := r.batches.Exists(ctx, n); err != nil {
		return Resolved{}, err
	} else if exists {
		return batchRef(n, SourceBatchNumber), nil
	}

	batch, err := r.batches.FindByBatchNumber(ctx, n)
	if err == nil {
		return batchRef(batch.ID, SourceBatchNumber), nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return Resolved{}, err
	}

	if exists, err := r.goods.Exists(ctx, n); err != nil {
		return Resolved{}, err
	} else if exists {
		return goodRef(n, SourceBatchNumber), nil
	}

	fg, err := r.goods.FindByBatchNumber(ctx, n)
	if err == nil {
		return goodRef(fg.ID, SourceBatchNumber), nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return Resolved{}, err
	}
	return Resolved{}, nil
}

// snapshotVerified 快照必须对应已存在的成品，且附带的二维码由本系统签发并指向该成品
func (r *Resolver) snapshotVerified(ctx context.Context, finishedGoodID, qrHash string) (bool, error) {
	exists, err := r.goods.Exists(ctx, finishedGoodID)
	if err != nil || !exists {
		return false, err
	}
	if qrHash == "" || r.qrs == nil {
		return false, nil
	}
	qr, err := r.qrs.FindByHash(ctx, qrHash)
	if errors.Is(err, repository.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if !qr.IsActive {
		return false, nil
	}
	var data map[string]interface{}
	if err := json.Unmarshal(qr.CustomData, &data); err != nil {
		return false, nil
	}
	id, _ := data[KeyFinishedGoodID].(string)
	return id == finishedGoodID, nil
}
