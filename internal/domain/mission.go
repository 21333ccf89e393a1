package domain

import "time"

// Mission представляет запись миссии. Создаётся админом, статус свободный текст.
type Mission struct {
	ID          int64     `json:"id" db:"id"`
	Title       string    `json:"title" db:"title"`
	Description string    `json:"description" db:"description"`
	Status      string    `json:"status" db:"status"`
	UserID      string    `json:"user_id" db:"user_id"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

const MissionStatusPending = "pending"
