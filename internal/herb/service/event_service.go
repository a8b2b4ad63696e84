package service

import (
	"context"

	"github.com/trishit-guin/ayutrace-backend-sub000/internal/herb/entity"
	"github.com/trishit-guin/ayutrace-backend-sub000/internal/herb/repository"
)

// EventService 供应链事件（只读）
type EventService struct {
	repo *repository.EventRepository
}

func NewEventService(repo *repository.EventRepository) *EventService {
	return &EventService{repo: repo}
}

func (s *EventService) List(ctx context.Context, page, pageSize int, filters map[string]string) ([]entity.SupplyChainEvent, int64, error) {
	return s.repo.FindAll(ctx, page, pageSize, filters)
}

func (s *EventService) Get(ctx context.Context, id string) (*entity.SupplyChainEvent, error) {
	event, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "supply chain event")
	}
	return event, nil
}
