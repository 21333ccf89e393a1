package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"holocron/internal/domain"
)

type MissionRepository struct {
	db *sqlx.DB
}

func NewMissionRepository(db *sqlx.DB) *MissionRepository {
	return &MissionRepository{db: db}
}

func (r *MissionRepository) Create(ctx context.Context, mission *domain.Mission) error {
	query := `
        INSERT INTO missions (title, description, status, user_id)
        VALUES ($1, $2, $3, $4)
        RETURNING id, created_at`

	err := r.db.QueryRowContext(
		ctx,
		query,
		mission.Title,
		mission.Description,
		mission.Status,
		mission.UserID,
	).Scan(&mission.ID, &mission.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create mission: %w", err)
	}

	return nil
}

func (r *MissionRepository) List(ctx context.Context) ([]domain.Mission, error) {
	missions := []domain.Mission{}
	query := `SELECT * FROM missions ORDER BY created_at DESC`

	if err := r.db.SelectContext(ctx, &missions, query); err != nil {
		return nil, fmt.Errorf("failed to list missions: %w", err)
	}

	return missions, nil
}
