package service

import (
	"context"
	"fmt"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"holocron/internal/domain"
)

// MissionStore описывает операции хранилища миссий, нужные сервису.
type MissionStore interface {
	Create(ctx context.Context, mission *domain.Mission) error
	List(ctx context.Context) ([]domain.Mission, error)
}

type MissionService struct {
	missions MissionStore
}

func NewMissionService(missions MissionStore) *MissionService {
	return &MissionService{missions: missions}
}

// Create создает миссию. Доступно только админу, user_id берётся из
// принципала.
func (s *MissionService) Create(ctx context.Context, principal *domain.Principal, title, description string) (*domain.Mission, error) {
	if !principal.IsAdmin {
		return nil, fmt.Errorf("mission creation requires admin: %w", domain.ErrPermissionDenied)
	}

	if err := (validation.Errors{
		"title":       validation.Validate(strings.TrimSpace(title), validation.Required),
		"description": validation.Validate(strings.TrimSpace(description), validation.Required),
	}).Filter(); err != nil {
		return nil, fmt.Errorf("title and description are required: %w", domain.ErrValidation)
	}

	mission := &domain.Mission{
		Title:       strings.TrimSpace(title),
		Description: strings.TrimSpace(description),
		Status:      domain.MissionStatusPending,
		UserID:      principal.ID,
	}

	if err := s.missions.Create(ctx, mission); err != nil {
		return nil, err
	}

	return mission, nil
}

func (s *MissionService) List(ctx context.Context) ([]domain.Mission, error) {
	return s.missions.List(ctx)
}
