package handler

import (
	"encoding/json"
	"errors"
	"io"
	"reflect"
	"strconv"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/trishit-guin/ayutrace-backend-sub000/internal/herb/service"
	"github.com/trishit-guin/ayutrace-backend-sub000/internal/herb/sse"
)

// Handlers 处理器集合
type Handlers struct {
	Auth         *AuthHandler
	Admin        *AdminHandler
	Species      *SpeciesHandler
	Collection   *CollectionHandler
	Batch        *BatchHandler
	FinishedGood *FinishedGoodHandler
	Lab          *LabHandler
	Certificate  *CertificateHandler
	Distributor  *DistributorHandler
	QR           *QRHandler
	Document     *DocumentHandler
	Event        *EventHandler
	SSE          *SSEHandler
}

// NewHandlers 创建处理器集合
func NewHandlers(svcs *service.Services, hub *sse.Hub, logger *zap.Logger) *Handlers {
	if logger == nil {
		logger = zap.NewNop()
	}
	useJSONFieldNames()
	return &Handlers{
		Auth:         NewAuthHandler(svcs.Auth),
		Admin:        NewAdminHandler(svcs.Admin),
		Species:      NewSpeciesHandler(svcs.Species),
		Collection:   NewCollectionHandler(svcs.Collection),
		Batch:        NewBatchHandler(svcs.Batch),
		FinishedGood: NewFinishedGoodHandler(svcs.FinishedGood),
		Lab:          NewLabHandler(svcs.Lab),
		Certificate:  NewCertificateHandler(svcs.Certificate),
		Distributor:  NewDistributorHandler(svcs.Distributor),
		QR:           NewQRHandler(svcs.QR),
		Document:     NewDocumentHandler(svcs.Document),
		Event:        NewEventHandler(svcs.Event),
		SSE:          NewSSEHandler(hub, logger),
	}
}

// === 响应辅助函数 ===

type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

type ListResponse struct {
	Items      interface{} `json:"items"`
	Pagination *Pagination `json:"pagination"`
}

type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

// ValidationData 字段级错误明细
type ValidationData struct {
	Errors []service.FieldError `json:"errors"`
}

func Success(c *gin.Context, data interface{}) {
	c.JSON(200, Response{
		Code:    0,
		Message: "success",
		Data:    data,
	})
}

func Created(c *gin.Context, data interface{}) {
	c.JSON(201, Response{
		Code:    0,
		Message: "success",
		Data:    data,
	})
}

func Error(c *gin.Context, code int, message string) {
	statusCode := code / 100
	if statusCode < 100 || statusCode > 599 {
		statusCode = 500
	}
	c.JSON(statusCode, Response{
		Code:    code,
		Message: message,
	})
}

func BadRequest(c *gin.Context, message string) {
	Error(c, 40000, message)
}

func NotFound(c *gin.Context, message string) {
	Error(c, 40400, message)
}

func Forbidden(c *gin.Context, message string) {
	Error(c, 40300, message)
}

func InternalError(c *gin.Context, message string) {
	Error(c, 50000, message)
}

// ValidationFailed 40001，附字段明细
func ValidationFailed(c *gin.Context, fields []service.FieldError) {
	c.JSON(400, Response{
		Code:    40001,
		Message: "validation failed",
		Data:    ValidationData{Errors: fields},
	})
}

// HandleError 业务错误按其状态码输出，其余记为内部错误
func HandleError(c *gin.Context, err error) {
	var se *service.Error
	if errors.As(err, &se) {
		if len(se.Fields) > 0 {
			c.JSON(se.Status, Response{Code: se.Code, Message: se.Message, Data: ValidationData{Errors: se.Fields}})
			return
		}
		Error(c, se.Code, se.Message)
		return
	}
	c.Error(err)
	InternalError(c, "internal error")
}

var tagNameOnce sync.Once

// useJSONFieldNames 校验错误使用 json 字段名
func useJSONFieldNames() {
	tagNameOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name == "" {
				return f.Name
			}
			return name
		})
	})
}

// bindError 绑定失败时输出 400；校验失败给出字段明细
func bindError(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make([]service.FieldError, 0, len(verrs))
		for _, fe := range verrs {
			fields = append(fields, service.FieldError{
				Field:   fieldPath(fe),
				Rule:    fe.Tag(),
				Message: fe.Error(),
			})
		}
		ValidationFailed(c, fields)
		return
	}
	if errors.Is(err, io.EOF) {
		BadRequest(c, "request body is required")
		return
	}
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
		BadRequest(c, "malformed JSON: "+err.Error())
		return
	}
	BadRequest(c, err.Error())
}

// fieldPath 去掉顶层结构体名：CreateBatchRequest.collection_event_ids[0] → collection_event_ids[0]
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

// bindJSON 绑定并校验请求体，失败时已写出响应
func bindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		bindError(c, err)
		return false
	}
	return true
}

func GetUserID(c *gin.Context) string {
	userID, _ := c.Get("user_id")
	if id, ok := userID.(string); ok {
		return id
	}
	return ""
}

// GetPrincipal 由 JWT 中间件写入的调用者信息
func GetPrincipal(c *gin.Context) service.Principal {
	return service.Principal{
		UserID:  GetUserID(c),
		OrgID:   c.GetString("org_id"),
		OrgType: c.GetString("org_type"),
		Role:    c.GetString("role"),
	}
}

func GetPagination(c *gin.Context) (page, pageSize int) {
	page = 1
	pageSize = 20

	if p := c.Query("page"); p != "" {
		if v, err := strconv.Atoi(p); err == nil && v > 0 {
			page = v
		}
	}

	if ps := c.Query("page_size"); ps != "" {
		if v, err := strconv.Atoi(ps); err == nil && v > 0 && v <= 100 {
			pageSize = v
		}
	}

	return page, pageSize
}

// queryFilters 取出非空查询参数
func queryFilters(c *gin.Context, keys ...string) map[string]string {
	filters := make(map[string]string, len(keys))
	for _, k := range keys {
		if v := c.Query(k); v != "" {
			filters[k] = v
		}
	}
	return filters
}

// List 分页列表响应
func List(c *gin.Context, items interface{}, total int64, page, pageSize int) {
	totalPages := int(total) / pageSize
	if int(total)%pageSize > 0 {
		totalPages++
	}

	Success(c, ListResponse{
		Items: items,
		Pagination: &Pagination{
			Page:       page,
			PageSize:   pageSize,
			Total:      int(total),
			TotalPages: totalPages,
		},
	})
}
