package service

import (
	"context"
	"fmt"
	"log"
	"math"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"holocron/internal/domain"
	"holocron/internal/service/s3"
)

// NodeStore описывает операции хранилища метаданных, нужные сервису.
// Реализуется repository.NodeRepository, в тестах подменяется фейком.
type NodeStore interface {
	Create(ctx context.Context, node *domain.Node) error
	GetByID(ctx context.Context, id int64) (*domain.Node, error)
	ListAll(ctx context.Context, parentID *int64, category domain.Category) ([]domain.Node, error)
	ListFolders(ctx context.Context, parentID *int64, category domain.Category) ([]domain.Node, error)
	ListFiles(ctx context.Context, parentID *int64, category domain.Category) ([]domain.Node, error)
	ListCategoryFolders(ctx context.Context, category domain.Category) ([]domain.Node, error)
	Rename(ctx context.Context, id int64, newName string) (*domain.Node, error)
	Move(ctx context.Context, id int64, newParentID *int64) (*domain.Node, error)
	Delete(ctx context.Context, id int64) error
	Search(ctx context.Context, term string, category domain.Category) ([]domain.Node, error)
	IsDescendant(ctx context.Context, candidateID, ancestorID int64) (bool, error)
	ListSubtreeFiles(ctx context.Context, folderID int64) ([]domain.Node, error)
	MarkActive(ctx context.Context, id int64) (*domain.Node, error)
	MarkOrphaned(ctx context.Context, id int64) error
	ListOrphans(ctx context.Context, pendingOlderThan time.Duration) ([]domain.Node, error)
}

type FilesystemService struct {
	nodes   NodeStore
	storage s3.Storage
}

func NewFilesystemService(nodes NodeStore, storage s3.Storage) *FilesystemService {
	return &FilesystemService{
		nodes:   nodes,
		storage: storage,
	}
}

func validateName(name string) error {
	if err := validation.Validate(strings.TrimSpace(name),
		validation.Required,
		validation.Length(1, 255),
	); err != nil {
		return fmt.Errorf("invalid name: %w", domain.ErrValidation)
	}
	return nil
}

func validateCategory(category domain.Category) error {
	if !category.Valid() {
		return fmt.Errorf("unknown category %q: %w", category, domain.ErrValidation)
	}
	return nil
}

// CreateFolder создает папку. Проверка имени, категории и права на создание
// выполняются до обращения к хранилищу; создатель берётся из принципала,
// а не из запроса.
func (s *FilesystemService) CreateFolder(ctx context.Context, principal *domain.Principal, name string, parentID *int64, category domain.Category) (*domain.Node, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}
	if err := validateCategory(category); err != nil {
		return nil, err
	}
	if !principal.CanCreateIn(category) {
		return nil, fmt.Errorf("creation in %q requires admin: %w", category, domain.ErrPermissionDenied)
	}

	node := &domain.Node{
		Name:           strings.TrimSpace(name),
		ParentID:       parentID,
		Category:       category,
		IsFolder:       true,
		CreatedByID:    principal.ID,
		CreatedByEmail: principal.Email,
	}

	if err := s.nodes.Create(ctx, node); err != nil {
		return nil, fmt.Errorf("failed to create folder: %w", err)
	}

	return node, nil
}

func (s *FilesystemService) ListAll(ctx context.Context, parentID *int64, category domain.Category) ([]domain.Node, error) {
	if category != "" {
		if err := validateCategory(category); err != nil {
			return nil, err
		}
	}
	return s.nodes.ListAll(ctx, parentID, category)
}

func (s *FilesystemService) ListFolders(ctx context.Context, parentID *int64, category domain.Category) ([]domain.Node, error) {
	if category != "" {
		if err := validateCategory(category); err != nil {
			return nil, err
		}
	}
	return s.nodes.ListFolders(ctx, parentID, category)
}

func (s *FilesystemService) ListFiles(ctx context.Context, parentID *int64, category domain.Category) ([]domain.Node, error) {
	if category != "" {
		if err := validateCategory(category); err != nil {
			return nil, err
		}
	}
	return s.nodes.ListFiles(ctx, parentID, category)
}

// CategoryFolders возвращает все папки категории для диалога перемещения.
func (s *FilesystemService) CategoryFolders(ctx context.Context, category domain.Category) ([]domain.Node, error) {
	if err := validateCategory(category); err != nil {
		return nil, err
	}
	return s.nodes.ListCategoryFolders(ctx, category)
}

func (s *FilesystemService) GetNode(ctx context.Context, id int64) (*domain.Node, error) {
	return s.nodes.GetByID(ctx, id)
}

// Rename меняет имя узла. Разрешено админу либо создателю.
func (s *FilesystemService) Rename(ctx context.Context, principal *domain.Principal, id int64, newName string) (*domain.Node, error) {
	if err := validateName(newName); err != nil {
		return nil, err
	}

	node, err := s.nodes.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !principal.CanModify(node) {
		return nil, fmt.Errorf("rename of node %d: %w", id, domain.ErrPermissionDenied)
	}

	return s.nodes.Rename(ctx, id, strings.TrimSpace(newName))
}

// Move переносит узел в другую папку той же категории. Перемещение папки
// в саму себя или в собственное поддерево запрещено.
func (s *FilesystemService) Move(ctx context.Context, principal *domain.Principal, id int64, newParentID *int64) (*domain.Node, error) {
	node, err := s.nodes.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !principal.CanModify(node) {
		return nil, fmt.Errorf("move of node %d: %w", id, domain.ErrPermissionDenied)
	}

	if newParentID != nil {
		if *newParentID == id {
			return nil, fmt.Errorf("cannot move node into itself: %w", domain.ErrValidation)
		}
		if node.IsFolder {
			inSubtree, err := s.nodes.IsDescendant(ctx, *newParentID, id)
			if err != nil {
				return nil, err
			}
			if inSubtree {
				return nil, fmt.Errorf("cannot move folder into its own subtree: %w", domain.ErrValidation)
			}
		}
	}

	return s.nodes.Move(ctx, id, newParentID)
}

// Delete удаляет узел. Для папки каскадом уходит всё поддерево, операция
// необратима; блобы удалённых файлов зачищаются в хранилище по мере сил.
func (s *FilesystemService) Delete(ctx context.Context, principal *domain.Principal, id int64) error {
	node, err := s.nodes.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !principal.CanModify(node) {
		return fmt.Errorf("delete of node %d: %w", id, domain.ErrPermissionDenied)
	}

	// Ключи блобов собираем до удаления строк, после каскада их уже не найти
	var keys []string
	if node.IsFolder {
		files, err := s.nodes.ListSubtreeFiles(ctx, id)
		if err != nil {
			return err
		}
		for _, f := range files {
			if f.FilePath != nil {
				keys = append(keys, *f.FilePath)
			}
		}
	} else if node.FilePath != nil {
		keys = append(keys, *node.FilePath)
	}

	if err := s.nodes.Delete(ctx, id); err != nil {
		return err
	}

	for _, key := range keys {
		if err := s.storage.DeleteObject(ctx, key); err != nil {
			log.Printf("[Delete] Failed to delete blob %s: %v", key, err)
		}
	}

	return nil
}

// FolderInfo считает сводку по прямым детям: выбирается листинг и
// редуцируется здесь, сервер ничего не агрегирует. Стоимость O(детей),
// поддерево не обходится.
func (s *FilesystemService) FolderInfo(ctx context.Context, folderID *int64, category domain.Category) (*domain.FolderInfo, error) {
	items, err := s.nodes.ListAll(ctx, folderID, category)
	if err != nil {
		return nil, err
	}

	info := &domain.FolderInfo{Name: "Raiz"}
	for _, item := range items {
		if item.IsFolder {
			info.TotalFolders++
		} else {
			info.TotalFiles++
			info.TotalSize += item.FileSize
		}
	}
	if info.TotalSize > 0 {
		info.TotalSizeMB = math.Round(float64(info.TotalSize)/(1024*1024)*100) / 100
	}

	if folderID != nil {
		folder, err := s.nodes.GetByID(ctx, *folderID)
		if err == nil {
			info.Name = folder.Name
		}
	} else if category != "" {
		info.Name = string(category)
	}

	return info, nil
}

// Search ищет по подстроке имени без учёта регистра.
func (s *FilesystemService) Search(ctx context.Context, term string, category domain.Category) ([]domain.Node, error) {
	if strings.TrimSpace(term) == "" {
		return nil, fmt.Errorf("empty search term: %w", domain.ErrValidation)
	}
	if category != "" {
		if err := validateCategory(category); err != nil {
			return nil, err
		}
	}
	return s.nodes.Search(ctx, term, category)
}

// DownloadResult описывает выбранную стратегию скачивания: публичные
// объекты отдаются редиректом на публичный URL, приватные стримятся.
type DownloadResult struct {
	Node   *domain.Node
	Public bool
	URL    string
	Object s3.S3Object
}

// Download выбирает стратегию по HEAD-пробе публичной доступности.
func (s *FilesystemService) Download(ctx context.Context, id int64) (*DownloadResult, error) {
	node, err := s.nodes.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if node.IsFolder || node.FilePath == nil {
		return nil, fmt.Errorf("node %d has no file content: %w", id, domain.ErrValidation)
	}

	key := *node.FilePath
	if s.storage.IsPublic(ctx, key) {
		return &DownloadResult{
			Node:   node,
			Public: true,
			URL:    s.storage.PublicURL(key),
		}, nil
	}

	object, err := s.storage.GetObject(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch object: %w", domain.ErrStorage)
	}

	return &DownloadResult{Node: node, Object: object}, nil
}
