package handler

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"

	"github.com/mlahtinen/paced/internal/auth"
	"github.com/mlahtinen/paced/internal/model"
	"github.com/mlahtinen/paced/internal/store"
	"github.com/mlahtinen/paced/internal/websocket"
)

type CategoryHandler struct {
	categories *store.CategoryStore
	courses    *store.CourseStore
	hub        *websocket.Hub
}

func NewCategoryHandler(cat *store.CategoryStore, cs *store.CourseStore, hub *websocket.Hub) *CategoryHandler {
	return &CategoryHandler{categories: cat, courses: cs, hub: hub}
}

func (h *CategoryHandler) notify(userID int64, msg websocket.Message) {
	if h.hub != nil {
		h.hub.SendTo(userID, msg)
	}
}

// ownedCourse resolves the {id} path param as a course owned by the caller.
func (h *CategoryHandler) ownedCourse(r *http.Request) (*model.Course, error) {
	id, err := parseIDParam(r)
	if err != nil {
		return nil, err
	}
	course, err := h.courses.GetByID(id)
	if err != nil {
		return nil, err
	}
	if course == nil || course.UserID != auth.UserID(r.Context()) {
		return nil, nil
	}
	return course, nil
}

// ownedCategory resolves the {id} path param as a category whose course is
// owned by the caller.
func (h *CategoryHandler) ownedCategory(r *http.Request) (*model.Category, *model.Course, error) {
	id, err := parseIDParam(r)
	if err != nil {
		return nil, nil, err
	}
	category, err := h.categories.GetByID(id)
	if err != nil {
		return nil, nil, err
	}
	if category == nil {
		return nil, nil, nil
	}
	course, err := h.courses.GetByID(category.CourseID)
	if err != nil {
		return nil, nil, err
	}
	if course == nil || course.UserID != auth.UserID(r.Context()) {
		return nil, nil, nil
	}
	return category, course, nil
}

func (h *CategoryHandler) ListByCourse(w http.ResponseWriter, r *http.Request) {
	course, err := h.ownedCourse(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	if course == nil {
		writeError(w, http.StatusNotFound, "course not found")
		return
	}

	categories, err := h.categories.ListByCourse(course.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list categories")
		return
	}
	if categories == nil {
		categories = []model.Category{}
	}
	writeJSON(w, http.StatusOK, categories)
}

type categoryRequest struct {
	Name  string `json:"name"`
	Icon  string `json:"icon"`
	Color string `json:"color"`
	Total int    `json:"total"`
}

func (h *CategoryHandler) Create(w http.ResponseWriter, r *http.Request) {
	course, err := h.ownedCourse(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	if course == nil {
		writeError(w, http.StatusNotFound, "course not found")
		return
	}

	var req categoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	category, err := h.categories.Create(course.ID, req.Name, req.Icon, req.Color, req.Total)
	if err != nil {
		writeStoreError(w, err, "failed to create category")
		return
	}

	h.notify(course.UserID, websocket.NewMessage("category", "created", category.ID, nil))
	writeJSON(w, http.StatusCreated, category)
}

func (h *CategoryHandler) Update(w http.ResponseWriter, r *http.Request) {
	existing, course, err := h.ownedCategory(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "category not found")
		return
	}

	var req categoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	category, err := h.categories.Update(existing.ID, req.Name, req.Icon, req.Color, req.Total)
	if err != nil {
		writeStoreError(w, err, "failed to update category")
		return
	}

	h.notify(course.UserID, websocket.NewMessage("category", "updated", category.ID, nil))
	writeJSON(w, http.StatusOK, category)
}

func (h *CategoryHandler) Progress(w http.ResponseWriter, r *http.Request) {
	existing, course, err := h.ownedCategory(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "category not found")
		return
	}

	var req struct {
		Increment int `json:"increment"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	category, err := h.categories.UpdateProgress(existing.ID, req.Increment)
	if err != nil {
		writeStoreError(w, err, "failed to update progress")
		return
	}

	h.notify(course.UserID, websocket.NewMessage("category", "progress", category.ID, map[string]any{
		"completed":       category.Completed,
		"today_completed": category.TodayCompleted,
	}))
	writeJSON(w, http.StatusOK, category)
}

func (h *CategoryHandler) Reorder(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CategoryIDs []int64 `json:"category_ids"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if len(req.CategoryIDs) == 0 {
		writeError(w, http.StatusBadRequest, "category_ids is required")
		return
	}

	// All listed categories must belong to the caller's courses.
	userID := auth.UserID(r.Context())
	for _, id := range req.CategoryIDs {
		category, err := h.categories.GetByID(id)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "failed to check category")
			return
		}
		if category == nil {
			writeError(w, http.StatusNotFound, "category not found")
			return
		}
		course, err := h.courses.GetByID(category.CourseID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "failed to check course")
			return
		}
		if course == nil || course.UserID != userID {
			writeError(w, http.StatusNotFound, "category not found")
			return
		}
	}

	if err := h.categories.Reorder(req.CategoryIDs); err != nil {
		log.Printf("failed to reorder categories: %v", err)
		writeStoreError(w, err, "failed to reorder categories")
		return
	}

	h.notify(userID, websocket.NewMessage("category", "reordered", 0, nil))
	w.WriteHeader(http.StatusNoContent)
}

func (h *CategoryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	existing, course, err := h.ownedCategory(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "category not found")
		return
	}

	if err := h.categories.Delete(existing.ID); err != nil {
		writeStoreError(w, err, "failed to delete category")
		return
	}

	h.notify(course.UserID, websocket.NewMessage("category", "deleted", existing.ID, nil))
	w.WriteHeader(http.StatusNoContent)
}
