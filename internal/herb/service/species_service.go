package service

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/text/unicode/norm"

	"github.com/trishit-guin/ayutrace-backend-sub000/internal/herb/entity"
	"github.com/trishit-guin/ayutrace-backend-sub000/internal/herb/repository"
)

// SpeciesService 药材品种服务
type SpeciesService struct {
	repo *repository.SpeciesRepository
}

func NewSpeciesService(repo *repository.SpeciesRepository) *SpeciesService {
	return &SpeciesService{repo: repo}
}

// CreateSpeciesRequest 创建品种请求
type CreateSpeciesRequest struct {
	ScientificName string `json:"scientific_name" binding:"required,max=200"`
	CommonName     string `json:"common_name" binding:"required,max=200"`
	Family         string `json:"family" binding:"max=100"`
	Description    string `json:"description"`
	PartsUsed      string `json:"parts_used" binding:"max=200"`
}

// UpdateSpeciesRequest 更新品种请求
type UpdateSpeciesRequest struct {
	CommonName  *string `json:"common_name" binding:"omitempty,max=200"`
	Family      *string `json:"family" binding:"omitempty,max=100"`
	Description *string `json:"description"`
	PartsUsed   *string `json:"parts_used" binding:"omitempty,max=200"`
	IsActive    *bool   `json:"is_active"`
}

func (s *SpeciesService) List(ctx context.Context, page, pageSize int, filters map[string]string) ([]entity.HerbSpecies, int64, error) {
	return s.repo.FindAll(ctx, page, pageSize, filters)
}

func (s *SpeciesService) Get(ctx context.Context, id string) (*entity.HerbSpecies, error) {
	species, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "species")
	}
	return species, nil
}

// normalizeName NFC 规范化并压缩空白，学名唯一性按规范化结果判断
func normalizeName(name string) string {
	return strings.Join(strings.Fields(norm.NFC.String(name)), " ")
}

// Create 学名重复返回 409
func (s *SpeciesService) Create(ctx context.Context, req *CreateSpeciesRequest) (*entity.HerbSpecies, error) {
	species := &entity.HerbSpecies{
		ID:             uuid.New().String(),
		ScientificName: normalizeName(req.ScientificName),
		CommonName:     normalizeName(req.CommonName),
		Family:         req.Family,
		Description:    req.Description,
		PartsUsed:      req.PartsUsed,
		IsActive:       true,
	}
	if err := s.repo.Create(ctx, species); err != nil {
		return nil, conflict(err, "species")
	}
	return species, nil
}

func (s *SpeciesService) Update(ctx context.Context, id string, req *UpdateSpeciesRequest) (*entity.HerbSpecies, error) {
	species, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.CommonName != nil {
		species.CommonName = normalizeName(*req.CommonName)
	}
	if req.Family != nil {
		species.Family = *req.Family
	}
	if req.Description != nil {
		species.Description = *req.Description
	}
	if req.PartsUsed != nil {
		species.PartsUsed = *req.PartsUsed
	}
	if req.IsActive != nil {
		species.IsActive = *req.IsActive
	}
	if err := s.repo.Update(ctx, species); err != nil {
		return nil, conflict(err, "species")
	}
	return species, nil
}

// Delete 已被采集事件引用的品种只停用，否则物理删除。返回是否物理删除
func (s *SpeciesService) Delete(ctx context.Context, id string) (bool, error) {
	species, err := s.Get(ctx, id)
	if err != nil {
		return false, err
	}
	referenced, err := s.repo.IsReferenced(ctx, id)
	if err != nil {
		return false, err
	}
	if referenced {
		species.IsActive = false
		return false, s.repo.Update(ctx, species)
	}
	return true, notFound(s.repo.Delete(ctx, id), "species")
}
