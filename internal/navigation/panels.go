package navigation

import (
	"fmt"
	"sync"

	"holocron/internal/domain"
)

// Panel хранит курсор навигации по категории: текущая папка и цепочка
// предков от корня.
type Panel struct {
	CurrentFolderID *int64        `json:"current_folder_id"`
	Breadcrumb      []domain.Node `json:"breadcrumb"`
}

// Open заходит в папку: узел добавляется в breadcrumb и становится текущим.
func (p *Panel) Open(node domain.Node) error {
	if !node.IsFolder {
		return fmt.Errorf("node %d is not a folder: %w", node.ID, domain.ErrValidation)
	}

	p.Breadcrumb = append(p.Breadcrumb, node)
	id := node.ID
	p.CurrentFolderID = &id
	return nil
}

// ToRoot возвращает курсор в корень категории.
func (p *Panel) ToRoot() {
	p.Breadcrumb = nil
	p.CurrentFolderID = nil
}

// ToIndex усекает breadcrumb до элемента i включительно.
func (p *Panel) ToIndex(i int) error {
	if i < 0 || i >= len(p.Breadcrumb) {
		return fmt.Errorf("breadcrumb index %d out of range: %w", i, domain.ErrValidation)
	}

	p.Breadcrumb = p.Breadcrumb[:i+1]
	id := p.Breadcrumb[len(p.Breadcrumb)-1].ID
	p.CurrentFolderID = &id
	return nil
}

// Panels содержит независимые панели пользователя, по одной на категорию.
type Panels struct {
	mu     sync.Mutex
	panels map[domain.Category]*Panel
}

func NewPanels() *Panels {
	panels := make(map[domain.Category]*Panel, len(domain.Categories))
	for _, c := range domain.Categories {
		panels[c] = &Panel{}
	}
	return &Panels{panels: panels}
}

// Get возвращает снимок панели категории.
func (ps *Panels) Get(category domain.Category) (Panel, error) {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	p, ok := ps.panels[category]
	if !ok {
		return Panel{}, fmt.Errorf("unknown category %q: %w", category, domain.ErrValidation)
	}
	return snapshot(p), nil
}

func (ps *Panels) Open(category domain.Category, node domain.Node) (Panel, error) {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	p, ok := ps.panels[category]
	if !ok {
		return Panel{}, fmt.Errorf("unknown category %q: %w", category, domain.ErrValidation)
	}
	if node.Category != category {
		return Panel{}, fmt.Errorf("node %d belongs to category %q: %w", node.ID, node.Category, domain.ErrValidation)
	}
	if err := p.Open(node); err != nil {
		return Panel{}, err
	}
	return snapshot(p), nil
}

func (ps *Panels) ToRoot(category domain.Category) (Panel, error) {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	p, ok := ps.panels[category]
	if !ok {
		return Panel{}, fmt.Errorf("unknown category %q: %w", category, domain.ErrValidation)
	}
	p.ToRoot()
	return snapshot(p), nil
}

func (ps *Panels) ToIndex(category domain.Category, i int) (Panel, error) {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	p, ok := ps.panels[category]
	if !ok {
		return Panel{}, fmt.Errorf("unknown category %q: %w", category, domain.ErrValidation)
	}
	if err := p.ToIndex(i); err != nil {
		return Panel{}, err
	}
	return snapshot(p), nil
}

func snapshot(p *Panel) Panel {
	out := Panel{}
	if p.CurrentFolderID != nil {
		id := *p.CurrentFolderID
		out.CurrentFolderID = &id
	}
	out.Breadcrumb = append([]domain.Node(nil), p.Breadcrumb...)
	return out
}

// Store хранит панели по идентификатору пользователя на время сессии.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*Panels
}

func NewStore() *Store {
	return &Store{sessions: make(map[string]*Panels)}
}

// ForUser возвращает панели пользователя, создавая их при первом обращении.
func (s *Store) ForUser(userID string) *Panels {
	s.mu.Lock()
	defer s.mu.Unlock()

	panels, ok := s.sessions[userID]
	if !ok {
		panels = NewPanels()
		s.sessions[userID] = panels
	}
	return panels
}

// Drop удаляет панели пользователя, вызывается при выходе из системы.
func (s *Store) Drop(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, userID)
}
