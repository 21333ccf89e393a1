package service

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"holocron/internal/domain"
)

// Загрузка двухфазная и безопасная к частичному отказу:
//
//	Uploading -> StoredPending -> Registered
//	                          \-> StorageOrphan
//
// Сначала пишется pending-строка метаданных, затем байты в хранилище, затем
// строка подтверждается. Если запись байтов упала, pending-строка убирается
// и блоба нет. Если упало подтверждение, строка помечается orphaned с
// сохранённым ключом и дочищается сверкой. Окна, в котором блоб существует
// без следа в базе, не остаётся.
const pendingUploadTTL = time.Hour

// Upload регистрирует файл: право на создание проверяется до любых записей,
// создатель берётся из принципала.
func (s *FilesystemService) Upload(ctx context.Context, principal *domain.Principal, name string, parentID *int64, category domain.Category, data []byte) (*domain.Node, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}
	if err := validateCategory(category); err != nil {
		return nil, err
	}
	if !principal.CanCreateIn(category) {
		return nil, fmt.Errorf("upload to %q requires admin: %w", category, domain.ErrPermissionDenied)
	}

	key := storageKey(name, category)
	node := &domain.Node{
		Name:           name,
		ParentID:       parentID,
		Category:       category,
		IsFolder:       false,
		FilePath:       &key,
		FileSize:       int64(len(data)),
		Status:         domain.NodeStatusPending,
		CreatedByID:    principal.ID,
		CreatedByEmail: principal.Email,
	}

	if err := s.nodes.Create(ctx, node); err != nil {
		return nil, fmt.Errorf("failed to register upload: %w", err)
	}

	if err := s.storage.UploadBytes(ctx, key, data); err != nil {
		// Байты не записались: убираем pending-строку, блоба не существует
		if delErr := s.nodes.Delete(ctx, node.ID); delErr != nil {
			log.Printf("[Upload] Failed to remove pending node %d: %v", node.ID, delErr)
		}
		return nil, fmt.Errorf("failed to store object %s: %w", key, domain.ErrStorage)
	}

	registered, err := s.nodes.MarkActive(ctx, node.ID)
	if err != nil {
		// Блоб записан, подтверждение не прошло: сохраняем ключ для сверки
		if orphErr := s.nodes.MarkOrphaned(ctx, node.ID); orphErr != nil {
			log.Printf("[Upload] Failed to mark node %d orphaned: %v", node.ID, orphErr)
		}
		return nil, fmt.Errorf("failed to confirm upload of %s: %w", key, err)
	}

	return registered, nil
}

// ReconcileOrphans дочищает осиротевшие записи и зависшие pending-строки:
// блоб удаляется из хранилища, строка из базы. Запускается периодически
// из main.
func (s *FilesystemService) ReconcileOrphans(ctx context.Context) error {
	orphans, err := s.nodes.ListOrphans(ctx, pendingUploadTTL)
	if err != nil {
		return err
	}

	for _, node := range orphans {
		if node.FilePath != nil {
			if err := s.storage.DeleteObject(ctx, *node.FilePath); err != nil {
				log.Printf("[ReconcileOrphans] Failed to delete blob %s: %v", *node.FilePath, err)
				continue
			}
		}
		if err := s.nodes.Delete(ctx, node.ID); err != nil {
			log.Printf("[ReconcileOrphans] Failed to delete node %d: %v", node.ID, err)
		}
	}

	if len(orphans) > 0 {
		log.Printf("[ReconcileOrphans] Processed %d orphaned uploads", len(orphans))
	}

	return nil
}

// storageKey строит ключ объекта: ASCII-префикс категории плюс уникальное
// имя, расширение исходного файла сохраняется.
func storageKey(name string, category domain.Category) string {
	ext := "bin"
	if i := strings.LastIndex(name, "."); i >= 0 && i < len(name)-1 {
		ext = name[i+1:]
	}
	return fmt.Sprintf("%s/%s.%s", category.StoragePrefix(), uuid.New(), ext)
}
