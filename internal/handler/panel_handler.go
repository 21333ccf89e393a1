package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"holocron/internal/auth"
	"holocron/internal/domain"
	"holocron/internal/navigation"
	"holocron/internal/service"
)

// PanelHandler обслуживает курсоры навигации. Панели независимы по
// категориям; каждый переход отвечает свежим листингом из репозитория,
// клиентского кэша нет.
type PanelHandler struct {
	store     *navigation.Store
	fsService *service.FilesystemService
}

func NewPanelHandler(store *navigation.Store, fsService *service.FilesystemService) *PanelHandler {
	return &PanelHandler{
		store:     store,
		fsService: fsService,
	}
}

// panelResponse содержит курсор панели и содержимое текущей папки.
type panelResponse struct {
	Panel navigation.Panel `json:"panel"`
	Items []domain.Node    `json:"items"`
}

func (h *PanelHandler) respond(w http.ResponseWriter, r *http.Request, category domain.Category, panel navigation.Panel) {
	items, err := h.fsService.ListAll(r.Context(), panel.CurrentFolderID, category)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, panelResponse{Panel: panel, Items: items})
}

func (h *PanelHandler) GetPanel(w http.ResponseWriter, r *http.Request) {
	principal, err := auth.FromRequest(r)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	category := domain.Category(chi.URLParam(r, "category"))
	panel, err := h.store.ForUser(principal.ID).Get(category)
	if err != nil {
		writeError(w, err)
		return
	}

	h.respond(w, r, category, panel)
}

// OpenFolder заходит в папку: узел проверяется по базе, затем панель
// двигается и возвращается новый листинг.
func (h *PanelHandler) OpenFolder(w http.ResponseWriter, r *http.Request) {
	principal, err := auth.FromRequest(r)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req struct {
		FolderID int64 `json:"folder_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	node, err := h.fsService.GetNode(r.Context(), req.FolderID)
	if err != nil {
		writeError(w, err)
		return
	}

	category := domain.Category(chi.URLParam(r, "category"))
	panel, err := h.store.ForUser(principal.ID).Open(category, *node)
	if err != nil {
		writeError(w, err)
		return
	}

	h.respond(w, r, category, panel)
}

func (h *PanelHandler) ToRoot(w http.ResponseWriter, r *http.Request) {
	principal, err := auth.FromRequest(r)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	category := domain.Category(chi.URLParam(r, "category"))
	panel, err := h.store.ForUser(principal.ID).ToRoot(category)
	if err != nil {
		writeError(w, err)
		return
	}

	h.respond(w, r, category, panel)
}

func (h *PanelHandler) Navigate(w http.ResponseWriter, r *http.Request) {
	principal, err := auth.FromRequest(r)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req struct {
		Index int `json:"index"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	category := domain.Category(chi.URLParam(r, "category"))
	panel, err := h.store.ForUser(principal.ID).ToIndex(category, req.Index)
	if err != nil {
		writeError(w, err)
		return
	}

	h.respond(w, r, category, panel)
}
