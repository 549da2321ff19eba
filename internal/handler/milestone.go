package handler

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/mlahtinen/paced/internal/auth"
	"github.com/mlahtinen/paced/internal/model"
	"github.com/mlahtinen/paced/internal/store"
)

type MilestoneHandler struct {
	milestones *store.MilestoneStore
}

func NewMilestoneHandler(ms *store.MilestoneStore) *MilestoneHandler {
	return &MilestoneHandler{milestones: ms}
}

type milestoneRequest struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Deadline    time.Time `json:"deadline"`
	Color       string    `json:"color"`
	Emoji       string    `json:"emoji"`
}

func (r milestoneRequest) validate() string {
	if strings.TrimSpace(r.Title) == "" {
		return "title is required"
	}
	if r.Deadline.IsZero() {
		return "deadline is required"
	}
	return ""
}

func (h *MilestoneHandler) List(w http.ResponseWriter, r *http.Request) {
	milestones, err := h.milestones.ListByUser(auth.UserID(r.Context()))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list milestones")
		return
	}
	if milestones == nil {
		milestones = []model.Milestone{}
	}
	writeJSON(w, http.StatusOK, milestones)
}

func (h *MilestoneHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req milestoneRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if msg := req.validate(); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	milestone, err := h.milestones.Create(auth.UserID(r.Context()), strings.TrimSpace(req.Title), req.Description, req.Deadline, req.Color, req.Emoji)
	if err != nil {
		log.Printf("failed to create milestone: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to create milestone")
		return
	}
	writeJSON(w, http.StatusCreated, milestone)
}

// owned loads a milestone and enforces that it belongs to the caller.
func (h *MilestoneHandler) owned(r *http.Request) (*model.Milestone, error) {
	id, err := parseIDParam(r)
	if err != nil {
		return nil, err
	}
	milestone, err := h.milestones.GetByID(id)
	if err != nil {
		return nil, err
	}
	if milestone == nil || milestone.UserID != auth.UserID(r.Context()) {
		return nil, nil
	}
	return milestone, nil
}

func (h *MilestoneHandler) Update(w http.ResponseWriter, r *http.Request) {
	existing, err := h.owned(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "milestone not found")
		return
	}

	var req milestoneRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if msg := req.validate(); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	milestone, err := h.milestones.Update(existing.ID, strings.TrimSpace(req.Title), req.Description, req.Deadline, req.Color, req.Emoji)
	if err != nil {
		writeStoreError(w, err, "failed to update milestone")
		return
	}
	writeJSON(w, http.StatusOK, milestone)
}

func (h *MilestoneHandler) Complete(w http.ResponseWriter, r *http.Request) {
	existing, err := h.owned(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "milestone not found")
		return
	}

	if err := h.milestones.SetCompleted(existing.ID, true); err != nil {
		writeStoreError(w, err, "failed to complete milestone")
		return
	}
	milestone, err := h.milestones.GetByID(existing.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load milestone")
		return
	}
	writeJSON(w, http.StatusOK, milestone)
}

func (h *MilestoneHandler) Delete(w http.ResponseWriter, r *http.Request) {
	existing, err := h.owned(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "milestone not found")
		return
	}

	// Courses referencing the milestone are detached by the schema.
	if err := h.milestones.Delete(existing.ID); err != nil {
		writeStoreError(w, err, "failed to delete milestone")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
