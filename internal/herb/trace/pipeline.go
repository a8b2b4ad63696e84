package trace

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/trishit-guin/ayutrace-backend-sub000/internal/herb/entity"
	"github.com/trishit-guin/ayutrace-backend-sub000/internal/observability"
	"github.com/trishit-guin/ayutrace-backend-sub000/internal/shared/notary"
)

// 二维码快照中由流水线写入的键
const (
	KeyEventID            = "event_id"
	KeyEventType          = "event_type"
	KeyRawMaterialBatchID = "raw_material_batch_id"
	KeyFinishedGoodID     = "finished_good_id"
)

// EventWriter 账本写入
type EventWriter interface {
	Create(ctx context.Context, event *entity.SupplyChainEvent) error
}

// QRWriter 二维码写入
type QRWriter interface {
	Create(ctx context.Context, qr *entity.QRCode) error
}

// Notary 外部公证服务
type Notary interface {
	Enabled() bool
	SubmitCollectionEvent(ctx context.Context, p notary.CollectionEventProjection) (*notary.Receipt, error)
	SubmitFinishedGood(ctx context.Context, p notary.FinishedGoodProjection) (*notary.Receipt, error)
	SubmitSupplyChainEvent(ctx context.Context, p notary.SupplyChainEventProjection) (*notary.Receipt, error)
}

// Publisher 新账本行的实时推送
type Publisher interface {
	Publish(event *entity.SupplyChainEvent)
}

// LedgerInput 一次真实业务动作对应的账本行
type LedgerInput struct {
	EventType      string
	HandlerID      string
	FromLocationID string
	ToLocationID   string
	Target         Resolved
	Notes          string
	Metadata       map[string]interface{}
	EventTime      time.Time
}

// Enrichment 增强结果；任一步失败对应字段为 nil
type Enrichment struct {
	Event *entity.SupplyChainEvent `json:"supply_chain_event"`
	QR    *entity.QRCode           `json:"qr_code"`
}

// Pipeline 追溯增强流水线：账本 → 二维码 → 公证。
// 所有步骤在主写入提交之后执行，失败只记录日志与指标，不向调用方返回错误
type Pipeline struct {
	events    EventWriter
	qrs       QRWriter
	notary    Notary
	publisher Publisher
	logger    *zap.Logger
}

func NewPipeline(events EventWriter, qrs QRWriter, n Notary, logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{
		events: events,
		qrs:    qrs,
		notary: n,
		logger: logger,
	}
}

// SetPublisher 注入实时推送
func (p *Pipeline) SetPublisher(pub Publisher) {
	p.publisher = pub
}

// NewQRHash 16字节随机数的十六进制串
func NewQRHash() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

func (p *Pipeline) fail(step, msg string, fields ...zap.Field) {
	observability.EnrichmentFailures.WithLabelValues(step).Inc()
	p.logger.Warn(msg, fields...)
}

// Record 写入账本行，失败返回 nil
func (p *Pipeline) Record(ctx context.Context, in LedgerInput) *entity.SupplyChainEvent {
	if !entity.Contains(entity.SupplyChainEventTypes, in.EventType) {
		p.fail(observability.StepLedger, "ledger event rejected", zap.String("event_type", in.EventType))
		return nil
	}
	if in.EventTime.IsZero() {
		in.EventTime = time.Now()
	}

	event := &entity.SupplyChainEvent{
		ID:                 uuid.New().String(),
		EventType:          in.EventType,
		HandlerID:          in.HandlerID,
		FromLocationID:     in.FromLocationID,
		ToLocationID:       in.ToLocationID,
		RawMaterialBatchID: in.Target.RawMaterialBatchID,
		FinishedGoodID:     in.Target.FinishedGoodID,
		Notes:              in.Notes,
		EventTime:          in.EventTime,
	}
	if len(in.Metadata) > 0 {
		raw, err := json.Marshal(in.Metadata)
		if err != nil {
			p.fail(observability.StepLedger, "marshal ledger metadata failed", zap.String("event_type", in.EventType), zap.Error(err))
			return nil
		}
		event.Metadata = datatypes.JSON(raw)
	}

	if err := p.events.Create(ctx, event); err != nil {
		p.fail(observability.StepLedger, "record supply chain event failed",
			zap.String("event_type", in.EventType),
			zap.String("handler_id", in.HandlerID),
			zap.Stringp("raw_material_batch_id", in.Target.RawMaterialBatchID),
			zap.Stringp("finished_good_id", in.Target.FinishedGoodID),
			zap.Error(err),
		)
		return nil
	}

	observability.LedgerEvents.WithLabelValues(event.EventType).Inc()
	if p.publisher != nil {
		p.publisher.Publish(event)
	}
	return event
}

// IssueQR 为账本行生成二维码，entity_type 固定为 SUPPLY_CHAIN_EVENT
func (p *Pipeline) IssueQR(ctx context.Context, event *entity.SupplyChainEvent, generatedBy string, snapshot map[string]interface{}) *entity.QRCode {
	if event == nil {
		return nil
	}
	hash, err := NewQRHash()
	if err != nil {
		p.fail(observability.StepQR, "generate qr hash failed", zap.String("event_id", event.ID), zap.Error(err))
		return nil
	}

	data := make(map[string]interface{}, len(snapshot)+4)
	for k, v := range snapshot {
		data[k] = v
	}
	data[KeyEventID] = event.ID
	data[KeyEventType] = event.EventType
	if event.RawMaterialBatchID != nil {
		data[KeyRawMaterialBatchID] = *event.RawMaterialBatchID
	}
	if event.FinishedGoodID != nil {
		data[KeyFinishedGoodID] = *event.FinishedGoodID
	}
	raw, err := json.Marshal(data)
	if err != nil {
		p.fail(observability.StepQR, "marshal qr snapshot failed", zap.String("event_id", event.ID), zap.Error(err))
		return nil
	}

	qr := &entity.QRCode{
		ID:            uuid.New().String(),
		QRHash:        hash,
		EntityType:    entity.KindSupplyChainEvent,
		EntityID:      event.ID,
		GeneratedByID: generatedBy,
		CustomData:    datatypes.JSON(raw),
		IsActive:      true,
	}
	if err := p.qrs.Create(ctx, qr); err != nil {
		p.fail(observability.StepQR, "create qr code failed", zap.String("event_id", event.ID), zap.Error(err))
		return nil
	}
	return qr
}

// Enrich 账本 + 二维码 + 公证，一次完成
func (p *Pipeline) Enrich(ctx context.Context, in LedgerInput, snapshot map[string]interface{}) Enrichment {
	var out Enrichment
	out.Event = p.Record(ctx, in)
	if out.Event == nil {
		return out
	}
	out.QR = p.IssueQR(ctx, out.Event, in.HandlerID, snapshot)
	p.NotarizeEvent(ctx, out.Event)
	return out
}

// notaryContext 公证调用只受客户端固定超时约束，不随入站请求取消
func notaryContext(ctx context.Context) context.Context {
	return context.WithoutCancel(ctx)
}

func (p *Pipeline) notaryEnabled() bool {
	return p.notary != nil && p.notary.Enabled()
}

func (p *Pipeline) logReceipt(kind, id string, receipt *notary.Receipt, err error) {
	if err != nil {
		fields := []zap.Field{zap.String("kind", kind), zap.String("id", id), zap.Error(err)}
		if receipt != nil {
			fields = append(fields, zap.Int("status_code", receipt.StatusCode), zap.ByteString("body", receipt.Body))
		}
		p.fail(observability.StepNotary, "notary submission failed", fields...)
		return
	}
	p.logger.Info("notary submission accepted",
		zap.String("kind", kind),
		zap.String("id", id),
		zap.Int("status_code", receipt.StatusCode),
		zap.ByteString("body", receipt.Body),
	)
}

// NotarizeEvent 提交供应链事件
func (p *Pipeline) NotarizeEvent(ctx context.Context, event *entity.SupplyChainEvent) {
	if event == nil || !p.notaryEnabled() {
		return
	}
	receipt, err := p.notary.SubmitSupplyChainEvent(notaryContext(ctx), SupplyChainEventProjection(event))
	p.logReceipt("supply_chain_event", event.ID, receipt, err)
}

// NotarizeCollectionEvent 提交采集事件
func (p *Pipeline) NotarizeCollectionEvent(ctx context.Context, event *entity.CollectionEvent) {
	if event == nil || !p.notaryEnabled() {
		return
	}
	receipt, err := p.notary.SubmitCollectionEvent(notaryContext(ctx), CollectionEventProjection(event))
	p.logReceipt("collection_event", event.ID, receipt, err)
}

// NotarizeFinishedGood 提交成品；批次号缺失时在本地校验失败
func (p *Pipeline) NotarizeFinishedGood(ctx context.Context, fg *entity.FinishedGood) {
	if fg == nil || !p.notaryEnabled() {
		return
	}
	receipt, err := p.notary.SubmitFinishedGood(notaryContext(ctx), FinishedGoodProjection(fg))
	if err != nil {
		err = fmt.Errorf("finished good %s: %w", fg.BatchNumber, err)
	}
	p.logReceipt("finished_good", fg.ID, receipt, err)
}
