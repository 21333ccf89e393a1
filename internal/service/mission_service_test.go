package service

import (
	"context"
	"errors"
	"testing"

	"holocron/internal/domain"
)

type fakeMissionStore struct {
	missions []domain.Mission
	nextID   int64
}

func (f *fakeMissionStore) Create(ctx context.Context, mission *domain.Mission) error {
	f.nextID++
	mission.ID = f.nextID
	f.missions = append(f.missions, *mission)
	return nil
}

func (f *fakeMissionStore) List(ctx context.Context) ([]domain.Mission, error) {
	return f.missions, nil
}

func TestMissionCreate(t *testing.T) {
	store := &fakeMissionStore{}
	svc := NewMissionService(store)
	p := admin()

	mission, err := svc.Create(context.Background(), p, " Organizar acervo ", " Revisar pastas duplicadas ")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if mission.Title != "Organizar acervo" || mission.Description != "Revisar pastas duplicadas" {
		t.Errorf("mission = %+v, want trimmed title/description", mission)
	}
	if mission.Status != domain.MissionStatusPending {
		t.Errorf("Status = %q, want pending", mission.Status)
	}
	if mission.UserID != p.ID {
		t.Errorf("UserID = %q, want %q", mission.UserID, p.ID)
	}
}

func TestMissionCreateRequiresAdmin(t *testing.T) {
	store := &fakeMissionStore{}
	svc := NewMissionService(store)

	_, err := svc.Create(context.Background(), regular(), "Titulo", "Descricao")
	if !errors.Is(err, domain.ErrPermissionDenied) {
		t.Fatalf("Create() error = %v, want ErrPermissionDenied", err)
	}
	if len(store.missions) != 0 {
		t.Errorf("missions created = %d, want 0", len(store.missions))
	}
}

func TestMissionCreateValidation(t *testing.T) {
	tests := []struct {
		name        string
		title       string
		description string
	}{
		{"blank title", "  ", "Descricao"},
		{"blank description", "Titulo", ""},
		{"both blank", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewMissionService(&fakeMissionStore{})
			_, err := svc.Create(context.Background(), admin(), tt.title, tt.description)
			if !errors.Is(err, domain.ErrValidation) {
				t.Fatalf("Create() error = %v, want ErrValidation", err)
			}
		})
	}
}
