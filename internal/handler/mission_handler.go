package handler

import (
	"encoding/json"
	"net/http"

	"holocron/internal/auth"
	"holocron/internal/service"
)

type MissionHandler struct {
	missionService *service.MissionService
}

func NewMissionHandler(missionService *service.MissionService) *MissionHandler {
	return &MissionHandler{missionService: missionService}
}

func (h *MissionHandler) ListMissions(w http.ResponseWriter, r *http.Request) {
	if _, err := auth.FromRequest(r); err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	missions, err := h.missionService.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, missions)
}

func (h *MissionHandler) CreateMission(w http.ResponseWriter, r *http.Request) {
	principal, err := auth.FromRequest(r)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req struct {
		Title       string `json:"title"`
		Description string `json:"description"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	mission, err := h.missionService.Create(r.Context(), principal, req.Title, req.Description)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, mission)
}
