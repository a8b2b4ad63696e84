package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/trishit-guin/ayutrace-backend-sub000/internal/herb/entity"
	"github.com/trishit-guin/ayutrace-backend-sub000/internal/herb/repository"
	"github.com/trishit-guin/ayutrace-backend-sub000/internal/shared/blob"
)

// MaxUploadSize 单个附件上限
const MaxUploadSize = 20 << 20

// Upload 待上传文件
type Upload struct {
	FileName    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// DocumentService 附件服务
type DocumentService struct {
	repo  *repository.DocumentRepository
	store blob.Store
}

func NewDocumentService(repo *repository.DocumentRepository, store blob.Store) *DocumentService {
	return &DocumentService{repo: repo, store: store}
}

// documentKey documents/<kind>/<id>/<uuid><ext>
func documentKey(ref entity.EntityRef, fileName string) string {
	ext := strings.ToLower(filepath.Ext(fileName))
	return fmt.Sprintf("documents/%s/%s/%s%s", strings.ToLower(ref.Kind), ref.ID, uuid.New().String(), ext)
}

// putUpload 写入文件存储并返回未落库的附件记录
func putUpload(ctx context.Context, store blob.Store, ref entity.EntityRef, up *Upload, description, uploadedBy string) (*entity.Document, error) {
	if up.Size > MaxUploadSize {
		return nil, Validation(FieldError{Field: "file", Rule: "max", Message: "file exceeds 20MB"})
	}
	name := filepath.Base(up.FileName)
	if name == "" || name == "." || name == "/" {
		return nil, Validation(FieldError{Field: "file", Rule: "required"})
	}
	contentType := up.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	info, err := store.Put(ctx, documentKey(ref, name), up.Body, up.Size, contentType)
	if err != nil {
		return nil, fmt.Errorf("store document: %w", err)
	}
	return &entity.Document{
		ID:           uuid.New().String(),
		EntityKind:   ref.Kind,
		EntityID:     ref.ID,
		FileName:     name,
		StorageKey:   info.Key,
		MimeType:     contentType,
		FileSize:     info.Size,
		Description:  description,
		UploadedByID: uploadedBy,
	}, nil
}

func refError(err error) error {
	if errors.Is(err, entity.ErrInvalidEntityRef) {
		return Validation(FieldError{Field: "entity_kind", Rule: "oneof", Message: err.Error()})
	}
	return err
}

// Upload 上传附件，关联实体必须存在
func (s *DocumentService) Upload(ctx context.Context, p Principal, kind, entityID, description string, up *Upload) (*entity.Document, error) {
	ref, err := entity.ParseEntityRef(kind, entityID)
	if err != nil {
		return nil, refError(err)
	}
	exists, err := s.repo.RefExists(ctx, ref)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, NotFound("%s %s not found", strings.ToLower(ref.Kind), ref.ID)
	}

	doc, err := putUpload(ctx, s.store, ref, up, description, p.UserID)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, doc); err != nil {
		s.store.Delete(ctx, doc.StorageKey)
		return nil, err
	}
	return doc, nil
}

// ListByEntity 实体的附件列表
func (s *DocumentService) ListByEntity(ctx context.Context, kind, entityID string) ([]entity.Document, error) {
	ref, err := entity.ParseEntityRef(kind, entityID)
	if err != nil {
		return nil, refError(err)
	}
	return s.repo.FindByRef(ctx, ref)
}

func (s *DocumentService) Get(ctx context.Context, id string) (*entity.Document, error) {
	doc, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "document")
	}
	return doc, nil
}

// Open 打开附件内容，调用方负责关闭
func (s *DocumentService) Open(ctx context.Context, id string) (*entity.Document, io.ReadCloser, error) {
	doc, err := s.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	_, rc, err := s.store.Get(ctx, doc.StorageKey)
	if errors.Is(err, blob.ErrNotFound) {
		return nil, nil, NotFound("document content not found")
	}
	if err != nil {
		return nil, nil, err
	}
	return doc, rc, nil
}

// Delete 仅上传者或平台管理员可删除
func (s *DocumentService) Delete(ctx context.Context, p Principal, id string) error {
	doc, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if doc.UploadedByID != p.UserID && !p.IsPlatformAdmin() {
		return Forbidden("only the uploader can delete this document")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return notFound(err, "document")
	}
	if err := s.store.Delete(ctx, doc.StorageKey); err != nil && !errors.Is(err, blob.ErrNotFound) {
		return fmt.Errorf("delete document content: %w", err)
	}
	return nil
}
