package notary

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// 公证服务路径
const (
	PathCollectionEvent  = "/collectionEvent"
	PathFinishedGood     = "/finishedGood"
	PathSupplyChainEvent = "/supplyChainEvent"
)

// Client 区块链公证服务客户端。调用方只记录结果，不重试
type Client struct {
	baseURL    string
	httpClient *http.Client
	tracer     trace.Tracer
}

// NewClient baseURL 为空时客户端处于停用状态
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		tracer: otel.Tracer("ayutrace/notary"),
	}
}

// Enabled 是否配置了公证服务
func (c *Client) Enabled() bool {
	return c != nil && c.baseURL != ""
}

// Receipt 公证服务返回，原样记录不做解释
type Receipt struct {
	StatusCode int             `json:"status_code"`
	Body       json.RawMessage `json:"body"`
}

// SubmitCollectionEvent 提交采集事件
func (c *Client) SubmitCollectionEvent(ctx context.Context, p CollectionEventProjection) (*Receipt, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return c.post(ctx, PathCollectionEvent, p)
}

// SubmitFinishedGood 提交成品
func (c *Client) SubmitFinishedGood(ctx context.Context, p FinishedGoodProjection) (*Receipt, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return c.post(ctx, PathFinishedGood, p)
}

// SubmitSupplyChainEvent 提交供应链事件
func (c *Client) SubmitSupplyChainEvent(ctx context.Context, p SupplyChainEventProjection) (*Receipt, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return c.post(ctx, PathSupplyChainEvent, p)
}

// post 执行公证请求；非2xx视为失败
func (c *Client) post(ctx context.Context, path string, body interface{}) (*Receipt, error) {
	if !c.Enabled() {
		return nil, fmt.Errorf("notary client not configured")
	}

	ctx, span := c.tracer.Start(ctx, "notary.post "+path, trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal notary payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create notary request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "request failed")
		return nil, fmt.Errorf("notary request %s: %w", path, err)
	}
	defer resp.Body.Close()

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read notary response: %w", err)
	}
	receipt := &Receipt{StatusCode: resp.StatusCode}
	if json.Valid(raw) {
		receipt.Body = raw
	} else if len(raw) > 0 {
		quoted, _ := json.Marshal(string(raw))
		receipt.Body = quoted
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		span.SetStatus(codes.Error, resp.Status)
		return receipt, fmt.Errorf("notary %s returned %d", path, resp.StatusCode)
	}
	return receipt, nil
}
