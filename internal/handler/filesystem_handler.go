package handler

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"holocron/internal/auth"
	"holocron/internal/domain"
	"holocron/internal/service"
)

// Максимальный размер тела загрузки, 256MB
const maxUploadSize = 256 << 20

type FilesystemHandler struct {
	fsService *service.FilesystemService
}

func NewFilesystemHandler(fsService *service.FilesystemService) *FilesystemHandler {
	return &FilesystemHandler{fsService: fsService}
}

type createFolderRequest struct {
	Name     string          `json:"name"`
	ParentID *int64          `json:"parent_id,omitempty"`
	Category domain.Category `json:"category"`
}

func (h *FilesystemHandler) CreateFolder(w http.ResponseWriter, r *http.Request) {
	principal, err := auth.FromRequest(r)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req createFolderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	folder, err := h.fsService.CreateFolder(r.Context(), principal, req.Name, req.ParentID, req.Category)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, folder)
}

// listParams читает общие параметры листинга: parent_id (отсутствие означает
// корень категории) и category.
func listParams(r *http.Request) (*int64, domain.Category, error) {
	parentID, err := parseOptionalID(r.URL.Query().Get("parent_id"))
	if err != nil {
		return nil, "", fmt.Errorf("invalid parent_id: %w", domain.ErrValidation)
	}
	return parentID, domain.Category(r.URL.Query().Get("category")), nil
}

func (h *FilesystemHandler) ListItems(w http.ResponseWriter, r *http.Request) {
	if _, err := auth.FromRequest(r); err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	parentID, category, err := listParams(r)
	if err != nil {
		writeError(w, err)
		return
	}

	items, err := h.fsService.ListAll(r.Context(), parentID, category)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, items)
}

func (h *FilesystemHandler) ListFolders(w http.ResponseWriter, r *http.Request) {
	if _, err := auth.FromRequest(r); err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	parentID, category, err := listParams(r)
	if err != nil {
		writeError(w, err)
		return
	}

	// all=true отдаёт папки всей категории для диалога перемещения
	if r.URL.Query().Get("all") == "true" {
		folders, err := h.fsService.CategoryFolders(r.Context(), category)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, folders)
		return
	}

	folders, err := h.fsService.ListFolders(r.Context(), parentID, category)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, folders)
}

func (h *FilesystemHandler) ListFiles(w http.ResponseWriter, r *http.Request) {
	if _, err := auth.FromRequest(r); err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	parentID, category, err := listParams(r)
	if err != nil {
		writeError(w, err)
		return
	}

	files, err := h.fsService.ListFiles(r.Context(), parentID, category)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, files)
}

func (h *FilesystemHandler) GetNode(w http.ResponseWriter, r *http.Request) {
	if _, err := auth.FromRequest(r); err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid node ID", http.StatusBadRequest)
		return
	}

	node, err := h.fsService.GetNode(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, node)
}

func (h *FilesystemHandler) RenameNode(w http.ResponseWriter, r *http.Request) {
	principal, err := auth.FromRequest(r)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid node ID", http.StatusBadRequest)
		return
	}

	var req struct {
		NewName string `json:"new_name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	node, err := h.fsService.Rename(r.Context(), principal, id, req.NewName)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, node)
}

func (h *FilesystemHandler) MoveNode(w http.ResponseWriter, r *http.Request) {
	principal, err := auth.FromRequest(r)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid node ID", http.StatusBadRequest)
		return
	}

	// new_parent_id = null переносит узел в корень категории
	var req struct {
		NewParentID *int64 `json:"new_parent_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	node, err := h.fsService.Move(r.Context(), principal, id, req.NewParentID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, node)
}

func (h *FilesystemHandler) DeleteNode(w http.ResponseWriter, r *http.Request) {
	principal, err := auth.FromRequest(r)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid node ID", http.StatusBadRequest)
		return
	}

	if err := h.fsService.Delete(r.Context(), principal, id); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
}

func (h *FilesystemHandler) FolderInfo(w http.ResponseWriter, r *http.Request) {
	if _, err := auth.FromRequest(r); err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	folderID, err := parseOptionalID(r.URL.Query().Get("folder_id"))
	if err != nil {
		http.Error(w, "Invalid folder_id", http.StatusBadRequest)
		return
	}

	info, err := h.fsService.FolderInfo(r.Context(), folderID, domain.Category(r.URL.Query().Get("category")))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, info)
}

func (h *FilesystemHandler) Search(w http.ResponseWriter, r *http.Request) {
	if _, err := auth.FromRequest(r); err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	items, err := h.fsService.Search(r.Context(), r.URL.Query().Get("q"), domain.Category(r.URL.Query().Get("category")))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, items)
}

// UploadFile принимает multipart-форму с полями file, category и
// необязательным parent_id. Байты пишутся в объектное хранилище, затем
// регистрируются метаданные.
func (h *FilesystemHandler) UploadFile(w http.ResponseWriter, r *http.Request) {
	principal, err := auth.FromRequest(r)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		http.Error(w, "Invalid multipart form", http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "File is required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	parentID, err := parseOptionalID(r.FormValue("parent_id"))
	if err != nil {
		http.Error(w, "Invalid parent_id", http.StatusBadRequest)
		return
	}

	data, err := io.ReadAll(io.LimitReader(file, maxUploadSize))
	if err != nil {
		log.Printf("[UploadFile] Failed to read upload body: %v", err)
		http.Error(w, "Failed to read file", http.StatusInternalServerError)
		return
	}

	node, err := h.fsService.Upload(
		r.Context(),
		principal,
		header.Filename,
		parentID,
		domain.Category(r.FormValue("category")),
		data,
	)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, node)
}

// DownloadFile отдает содержимое файла: публичные объекты редиректом,
// приватные потоком с Content-Disposition.
func (h *FilesystemHandler) DownloadFile(w http.ResponseWriter, r *http.Request) {
	if _, err := auth.FromRequest(r); err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid node ID", http.StatusBadRequest)
		return
	}

	result, err := h.fsService.Download(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	if result.Public {
		http.Redirect(w, r, result.URL, http.StatusFound)
		return
	}
	defer result.Object.Close()

	w.Header().Set("Content-Type", result.Object.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", result.Node.Name))
	if length := result.Object.ContentLength(); length > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(length, 10))
	}

	if _, err := io.Copy(w, result.Object); err != nil {
		log.Printf("[DownloadFile] Error streaming object: %v", err)
	}
}
