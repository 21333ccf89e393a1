package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"holocron/internal/domain"
)

const nodeColumns = `
        id, name, parent_id, category, is_folder, file_path, file_size,
        status, created_at, created_by_id, created_by_email`

type NodeRepository struct {
	db *sqlx.DB
}

func NewNodeRepository(db *sqlx.DB) *NodeRepository {
	return &NodeRepository{db: db}
}

// Create вставляет новый узел. Родитель проверяется в той же транзакции:
// существует, является папкой, та же категория.
func (r *NodeRepository) Create(ctx context.Context, node *domain.Node) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if node.ParentID != nil {
		if err := checkParent(ctx, tx, *node.ParentID, node.Category); err != nil {
			return err
		}
	}

	if node.Status == "" {
		node.Status = domain.NodeStatusActive
	}

	query := `
        INSERT INTO filesystem (name, parent_id, category, is_folder, file_path,
                                file_size, status, created_by_id, created_by_email)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
        RETURNING id, created_at`

	err = tx.QueryRowContext(
		ctx,
		query,
		node.Name,
		node.ParentID,
		node.Category,
		node.IsFolder,
		node.FilePath,
		node.FileSize,
		node.Status,
		node.CreatedByID,
		node.CreatedByEmail,
	).Scan(&node.ID, &node.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create node: %w", err)
	}

	return tx.Commit()
}

// GetByID возвращает только активные узлы. Pending и orphaned строки
// видны лишь машине загрузки и сверке.
func (r *NodeRepository) GetByID(ctx context.Context, id int64) (*domain.Node, error) {
	var node domain.Node
	query := `SELECT ` + nodeColumns + ` FROM filesystem WHERE id = $1 AND status = 'active'`

	err := r.db.GetContext(ctx, &node, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("node %d: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get node: %w", err)
	}

	return &node, nil
}

// list выбирает детей. parent_id = nil кодируется как IS NULL.
// Папки идут раньше файлов, дальше имя без учёта регистра.
func (r *NodeRepository) list(ctx context.Context, parentID *int64, category domain.Category, isFolder *bool) ([]domain.Node, error) {
	query := `SELECT ` + nodeColumns + ` FROM filesystem WHERE status = 'active'`
	args := []interface{}{}

	if parentID == nil {
		query += ` AND parent_id IS NULL`
	} else {
		args = append(args, *parentID)
		query += fmt.Sprintf(` AND parent_id = $%d`, len(args))
	}

	if category != "" {
		args = append(args, category)
		query += fmt.Sprintf(` AND category = $%d`, len(args))
	}

	if isFolder != nil {
		args = append(args, *isFolder)
		query += fmt.Sprintf(` AND is_folder = $%d`, len(args))
	}

	query += ` ORDER BY is_folder DESC, LOWER(name) ASC`

	nodes := []domain.Node{}
	if err := r.db.SelectContext(ctx, &nodes, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list nodes: %w", err)
	}

	return nodes, nil
}

func (r *NodeRepository) ListAll(ctx context.Context, parentID *int64, category domain.Category) ([]domain.Node, error) {
	return r.list(ctx, parentID, category, nil)
}

func (r *NodeRepository) ListFolders(ctx context.Context, parentID *int64, category domain.Category) ([]domain.Node, error) {
	folders := true
	return r.list(ctx, parentID, category, &folders)
}

func (r *NodeRepository) ListFiles(ctx context.Context, parentID *int64, category domain.Category) ([]domain.Node, error) {
	folders := false
	return r.list(ctx, parentID, category, &folders)
}

// ListCategoryFolders возвращает все папки категории независимо от уровня,
// для диалога перемещения.
func (r *NodeRepository) ListCategoryFolders(ctx context.Context, category domain.Category) ([]domain.Node, error) {
	query := `SELECT ` + nodeColumns + `
        FROM filesystem
        WHERE status = 'active' AND is_folder = TRUE AND category = $1
        ORDER BY LOWER(name) ASC`

	nodes := []domain.Node{}
	if err := r.db.SelectContext(ctx, &nodes, query, category); err != nil {
		return nil, fmt.Errorf("failed to list category folders: %w", err)
	}

	return nodes, nil
}

// Rename меняет только имя. id, is_folder, parent_id и category не трогаем.
func (r *NodeRepository) Rename(ctx context.Context, id int64, newName string) (*domain.Node, error) {
	query := `
        UPDATE filesystem
        SET name = $1
        WHERE id = $2 AND status = 'active'
        RETURNING ` + nodeColumns

	var node domain.Node
	err := r.db.GetContext(ctx, &node, query, newName, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("node %d: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to rename node: %w", err)
	}

	return &node, nil
}

// Move меняет только parent_id. Родитель обязан быть папкой той же категории.
func (r *NodeRepository) Move(ctx context.Context, id int64, newParentID *int64) (*domain.Node, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var node domain.Node
	err = tx.GetContext(ctx, &node, `SELECT `+nodeColumns+` FROM filesystem WHERE id = $1 AND status = 'active'`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("node %d: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get node: %w", err)
	}

	if newParentID != nil {
		if err := checkParent(ctx, tx, *newParentID, node.Category); err != nil {
			return nil, err
		}
	}

	query := `
        UPDATE filesystem
        SET parent_id = $1
        WHERE id = $2
        RETURNING ` + nodeColumns

	if err := tx.GetContext(ctx, &node, query, newParentID, id); err != nil {
		return nil, fmt.Errorf("failed to move node: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit move: %w", err)
	}

	return &node, nil
}

// Delete удаляет узел. Для папок потомки уходят каскадом по внешнему ключу,
// операция необратима.
func (r *NodeRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM filesystem WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete node: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("node %d: %w", id, domain.ErrNotFound)
	}

	return nil
}

// Search ищет по подстроке имени без учёта регистра, опционально в пределах
// категории. Порядок тот же, что и в листингах: папки раньше файлов.
func (r *NodeRepository) Search(ctx context.Context, term string, category domain.Category) ([]domain.Node, error) {
	query := `SELECT ` + nodeColumns + `
        FROM filesystem
        WHERE status = 'active' AND name ILIKE $1`
	args := []interface{}{"%" + term + "%"}

	if category != "" {
		args = append(args, category)
		query += ` AND category = $2`
	}

	query += ` ORDER BY is_folder DESC, LOWER(name) ASC`

	nodes := []domain.Node{}
	if err := r.db.SelectContext(ctx, &nodes, query, args...); err != nil {
		return nil, fmt.Errorf("failed to search nodes: %w", err)
	}

	return nodes, nil
}

// IsDescendant проверяет рекурсивным CTE, находится ли candidate в поддереве
// ancestor. Нужна для запрета перемещения папки в собственную подпапку.
func (r *NodeRepository) IsDescendant(ctx context.Context, candidateID, ancestorID int64) (bool, error) {
	var exists bool
	query := `
        WITH RECURSIVE subtree AS (
            SELECT id FROM filesystem WHERE id = $1

            UNION ALL

            SELECT f.id
            FROM filesystem f
            INNER JOIN subtree s ON f.parent_id = s.id
        )
        SELECT EXISTS(SELECT 1 FROM subtree WHERE id = $2)`

	err := r.db.GetContext(ctx, &exists, query, ancestorID, candidateID)
	if err != nil {
		return false, fmt.Errorf("failed to check hierarchy: %w", err)
	}

	return exists, nil
}

// ListSubtreeFiles возвращает все файлы поддерева папки. Используется перед
// каскадным удалением, чтобы зачистить блобы в хранилище.
func (r *NodeRepository) ListSubtreeFiles(ctx context.Context, folderID int64) ([]domain.Node, error) {
	query := `
        WITH RECURSIVE subtree AS (
            SELECT id FROM filesystem WHERE id = $1

            UNION ALL

            SELECT f.id
            FROM filesystem f
            INNER JOIN subtree s ON f.parent_id = s.id
        )
        SELECT ` + nodeColumns + `
        FROM filesystem
        WHERE id IN (SELECT id FROM subtree) AND is_folder = FALSE`

	nodes := []domain.Node{}
	if err := r.db.SelectContext(ctx, &nodes, query, folderID); err != nil {
		return nil, fmt.Errorf("failed to list subtree files: %w", err)
	}

	return nodes, nil
}

// MarkActive подтверждает pending-запись после успешной записи байтов в
// хранилище.
func (r *NodeRepository) MarkActive(ctx context.Context, id int64) (*domain.Node, error) {
	query := `
        UPDATE filesystem
        SET status = 'active'
        WHERE id = $1 AND status = 'pending'
        RETURNING ` + nodeColumns

	var node domain.Node
	err := r.db.GetContext(ctx, &node, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("pending node %d: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to mark node active: %w", err)
	}

	return &node, nil
}

// MarkOrphaned помечает запись как осиротевшую, ключ хранилища сохраняется
// для последующей сверки.
func (r *NodeRepository) MarkOrphaned(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE filesystem SET status = 'orphaned' WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to mark node orphaned: %w", err)
	}
	return nil
}

// ListOrphans возвращает осиротевшие записи плюс pending старше порога:
// зависший pending означает, что загрузка оборвалась между фазами.
func (r *NodeRepository) ListOrphans(ctx context.Context, pendingOlderThan time.Duration) ([]domain.Node, error) {
	query := `SELECT ` + nodeColumns + `
        FROM filesystem
        WHERE status = 'orphaned'
           OR (status = 'pending' AND created_at < $1)`

	nodes := []domain.Node{}
	cutoff := time.Now().Add(-pendingOlderThan)
	if err := r.db.SelectContext(ctx, &nodes, query, cutoff); err != nil {
		return nil, fmt.Errorf("failed to list orphans: %w", err)
	}

	return nodes, nil
}

func checkParent(ctx context.Context, tx *sqlx.Tx, parentID int64, category domain.Category) error {
	var parent struct {
		Category domain.Category `db:"category"`
		IsFolder bool            `db:"is_folder"`
	}

	err := tx.GetContext(ctx, &parent,
		`SELECT category, is_folder FROM filesystem WHERE id = $1 AND status = 'active'`, parentID)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("parent %d: %w", parentID, domain.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to get parent: %w", err)
	}

	if !parent.IsFolder {
		return fmt.Errorf("parent %d is not a folder: %w", parentID, domain.ErrValidation)
	}
	if parent.Category != category {
		return fmt.Errorf("parent %d belongs to category %q: %w", parentID, parent.Category, domain.ErrValidation)
	}

	return nil
}
