package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/mlahtinen/paced/internal/auth"
	"github.com/mlahtinen/paced/internal/model"
	"github.com/mlahtinen/paced/internal/store"
	"github.com/mlahtinen/paced/internal/websocket"
)

type EntryHandler struct {
	entries    *store.EntryStore
	categories *store.CategoryStore
	courses    *store.CourseStore
	hub        *websocket.Hub
}

func NewEntryHandler(es *store.EntryStore, cat *store.CategoryStore, cs *store.CourseStore, hub *websocket.Hub) *EntryHandler {
	return &EntryHandler{entries: es, categories: cat, courses: cs, hub: hub}
}

func (h *EntryHandler) notify(userID int64, msg websocket.Message) {
	if h.hub != nil {
		h.hub.SendTo(userID, msg)
	}
}

func (h *EntryHandler) Upsert(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CategoryID int64  `json:"category_id"`
		Date       string `json:"date"`
		Completed  int    `json:"completed"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.Date == "" {
		req.Date = time.Now().Format(dateLayout)
	}

	category, err := h.categories.GetByID(req.CategoryID)
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
	userID := auth.UserID(r.Context())
	if course == nil || course.UserID != userID {
		writeError(w, http.StatusNotFound, "category not found")
		return
	}

	entry, err := h.entries.Upsert(category.ID, course.ID, userID, req.Date, req.Completed)
	if err != nil {
		writeStoreError(w, err, "failed to save entry")
		return
	}

	h.notify(userID, websocket.NewMessage("entry", "upserted", entry.ID, map[string]any{
		"category_id": category.ID,
		"date":        req.Date,
	}))
	writeJSON(w, http.StatusOK, entry)
}

func (h *EntryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	entry, err := h.entries.GetByID(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get entry")
		return
	}
	userID := auth.UserID(r.Context())
	if entry == nil || entry.UserID != userID {
		writeError(w, http.StatusNotFound, "entry not found")
		return
	}

	if err := h.entries.Remove(id); err != nil {
		writeStoreError(w, err, "failed to remove entry")
		return
	}

	h.notify(userID, websocket.NewMessage("entry", "removed", id, nil))
	w.WriteHeader(http.StatusNoContent)
}

func (h *EntryHandler) ListRange(w http.ResponseWriter, r *http.Request) {
	courseID, err := strconv.ParseInt(r.URL.Query().Get("course"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "course query parameter is required")
		return
	}

	course, err := h.courses.GetByID(courseID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to check course")
		return
	}
	if course == nil || course.UserID != auth.UserID(r.Context()) {
		writeError(w, http.StatusNotFound, "course not found")
		return
	}

	start := r.URL.Query().Get("start")
	end := r.URL.Query().Get("end")
	if start == "" || end == "" {
		// Default to the trailing 30 days.
		now := time.Now()
		end = now.Format(dateLayout)
		start = now.AddDate(0, 0, -30).Format(dateLayout)
	}

	entries, err := h.entries.ListByCourseAndDateRange(courseID, start, end)
	if err != nil {
		writeStoreError(w, err, "failed to list entries")
		return
	}
	if entries == nil {
		entries = []model.DailyEntry{}
	}
	writeJSON(w, http.StatusOK, entries)
}
