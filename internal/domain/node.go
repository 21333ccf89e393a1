package domain

import (
	"time"
)

// Category определяет корневой раздел дерева. Каждая категория владеет
// независимым деревом, узлы между категориями не пересекаются.
type Category string

const (
	CategorySeries   Category = "Séries"
	CategoryFilmes   Category = "Filmes"
	CategoryDesenhos Category = "Desenhos"
)

// Categories содержит полный список разделов в порядке отображения.
var Categories = []Category{CategorySeries, CategoryFilmes, CategoryDesenhos}

// Valid проверяет, что категория входит в фиксированный набор.
func (c Category) Valid() bool {
	switch c {
	case CategorySeries, CategoryFilmes, CategoryDesenhos:
		return true
	}
	return false
}

// StoragePrefix возвращает ASCII-префикс для ключей в объектном хранилище
// (без диакритики, чтобы ключи оставались переносимыми).
func (c Category) StoragePrefix() string {
	switch c {
	case CategorySeries:
		return "Series"
	case CategoryFilmes:
		return "Filmes"
	case CategoryDesenhos:
		return "Desenhos"
	}
	return "Outros"
}

// NodeStatus отражает состояние записи в жизненном цикле загрузки.
type NodeStatus string

const (
	// Обычная видимая запись.
	NodeStatusActive NodeStatus = "active"
	// Метаданные записаны, байты ещё не подтверждены в хранилище.
	NodeStatusPending NodeStatus = "pending"
	// Ключ в хранилище есть, подтверждение метаданных не прошло.
	NodeStatusOrphaned NodeStatus = "orphaned"
)

// Node представляет узел файловой системы: папку или файл.
// parent_id == nil означает корень категории. created_by_* заполняет сервер
// из аутентифицированного принципала.
type Node struct {
	ID             int64      `json:"id" db:"id"`
	Name           string     `json:"name" db:"name"`
	ParentID       *int64     `json:"parent_id,omitempty" db:"parent_id"`
	Category       Category   `json:"category" db:"category"`
	IsFolder       bool       `json:"is_folder" db:"is_folder"`
	FilePath       *string    `json:"file_path,omitempty" db:"file_path"`
	FileSize       int64      `json:"file_size" db:"file_size"`
	Status         NodeStatus `json:"status" db:"status"`
	CreatedAt      time.Time  `json:"created_at" db:"created_at"`
	CreatedByID    string     `json:"created_by_id" db:"created_by_id"`
	CreatedByEmail string     `json:"created_by_email" db:"created_by_email"`
}

// FolderInfo содержит сводку по прямым детям папки, без обхода поддерева.
type FolderInfo struct {
	Name         string  `json:"name"`
	TotalFiles   int     `json:"total_files"`
	TotalFolders int     `json:"total_folders"`
	TotalSize    int64   `json:"total_size"`
	TotalSizeMB  float64 `json:"total_size_mb"`
}
