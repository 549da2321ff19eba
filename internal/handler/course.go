package handler

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/mlahtinen/paced/internal/auth"
	"github.com/mlahtinen/paced/internal/checklist"
	"github.com/mlahtinen/paced/internal/model"
	"github.com/mlahtinen/paced/internal/store"
	"github.com/mlahtinen/paced/internal/websocket"
)

type CourseHandler struct {
	courses    *store.CourseStore
	categories *store.CategoryStore
	entries    *store.EntryStore
	milestones *store.MilestoneStore
	users      *store.UserStore
	hub        *websocket.Hub
}

func NewCourseHandler(cs *store.CourseStore, cat *store.CategoryStore, es *store.EntryStore, ms *store.MilestoneStore, us *store.UserStore, hub *websocket.Hub) *CourseHandler {
	return &CourseHandler{courses: cs, categories: cat, entries: es, milestones: ms, users: us, hub: hub}
}

func (h *CourseHandler) notify(userID int64, msg websocket.Message) {
	if h.hub != nil {
		h.hub.SendTo(userID, msg)
	}
}

type courseRequest struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	MilestoneID *int64     `json:"milestone_id"`
	StartDate   *time.Time `json:"start_date"`
	EndDate     *time.Time `json:"end_date"`
	Color       string     `json:"color"`
	Icon        string     `json:"icon"`
}

func (h *CourseHandler) List(w http.ResponseWriter, r *http.Request) {
	courses, err := h.courses.ListByUser(auth.UserID(r.Context()))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list courses")
		return
	}
	if courses == nil {
		courses = []model.Course{}
	}
	writeJSON(w, http.StatusOK, courses)
}

func (h *CourseHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req courseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		writeError(w, http.StatusBadRequest, "title is required")
		return
	}

	userID := auth.UserID(r.Context())
	if req.MilestoneID != nil {
		milestone, err := h.milestones.GetByID(*req.MilestoneID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "failed to check milestone")
			return
		}
		if milestone == nil || milestone.UserID != userID {
			writeError(w, http.StatusBadRequest, "milestone not found")
			return
		}
	}

	course, err := h.courses.Create(userID, req.Title, req.Description, req.MilestoneID, req.StartDate, req.EndDate, req.Color, req.Icon)
	if err != nil {
		log.Printf("failed to create course: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to create course")
		return
	}

	h.notify(userID, websocket.NewMessage("course", "created", course.ID, nil))
	writeJSON(w, http.StatusCreated, course)
}

// owned loads a course and enforces that it belongs to the caller.
func (h *CourseHandler) owned(r *http.Request) (*model.Course, error) {
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

func (h *CourseHandler) Get(w http.ResponseWriter, r *http.Request) {
	course, err := h.owned(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	if course == nil {
		writeError(w, http.StatusNotFound, "course not found")
		return
	}
	writeJSON(w, http.StatusOK, course)
}

func (h *CourseHandler) Update(w http.ResponseWriter, r *http.Request) {
	existing, err := h.owned(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "course not found")
		return
	}

	var req courseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		writeError(w, http.StatusBadRequest, "title is required")
		return
	}

	course, err := h.courses.Update(existing.ID, req.Title, req.Description, req.MilestoneID, req.StartDate, req.EndDate, req.Color, req.Icon)
	if err != nil {
		writeStoreError(w, err, "failed to update course")
		return
	}

	h.notify(course.UserID, websocket.NewMessage("course", "updated", course.ID, nil))
	writeJSON(w, http.StatusOK, course)
}

func (h *CourseHandler) Delete(w http.ResponseWriter, r *http.Request) {
	existing, err := h.owned(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "course not found")
		return
	}

	if err := h.courses.Delete(existing.ID); err != nil {
		writeStoreError(w, err, "failed to delete course")
		return
	}

	h.notify(existing.UserID, websocket.NewMessage("course", "deleted", existing.ID, nil))
	w.WriteHeader(http.StatusNoContent)
}

// deadline resolves the pacing deadline for a course: its own end date wins,
// then the linked milestone's deadline, then today (everything due now).
func (h *CourseHandler) deadline(course *model.Course, now time.Time) time.Time {
	if course.EndDate != nil {
		return *course.EndDate
	}
	if course.MilestoneID != nil {
		milestone, err := h.milestones.GetByID(*course.MilestoneID)
		if err == nil && milestone != nil {
			return milestone.Deadline
		}
	}
	return now
}

func (h *CourseHandler) Checklist(w http.ResponseWriter, r *http.Request) {
	course, err := h.owned(r)
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

	now := time.Now()
	items := checklist.BuildDay(*course, categories, h.deadline(course, now), now)
	if items == nil {
		items = []checklist.Item{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"date":  now.Format(dateLayout),
		"items": items,
	})
}

func (h *CourseHandler) Check(w http.ResponseWriter, r *http.Request) {
	course, err := h.owned(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	if course == nil {
		writeError(w, http.StatusNotFound, "course not found")
		return
	}

	var req struct {
		ItemID  string `json:"item_id"`
		Checked bool   `json:"checked"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	updated, err := h.courses.ToggleCheckItem(course.ID, req.ItemID, req.Checked, time.Now())
	if err != nil {
		writeStoreError(w, err, "failed to toggle item")
		return
	}

	h.notify(course.UserID, websocket.NewMessage("course", "check_toggled", course.ID, map[string]any{
		"item_id": req.ItemID,
		"checked": req.Checked,
	}))
	writeJSON(w, http.StatusOK, updated)
}

func (h *CourseHandler) CompleteDay(w http.ResponseWriter, r *http.Request) {
	course, err := h.owned(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	if course == nil {
		writeError(w, http.StatusNotFound, "course not found")
		return
	}

	now := time.Now()
	folded, err := h.courses.CompleteDay(course.ID, now)
	if err != nil {
		writeStoreError(w, err, "failed to complete day")
		return
	}

	streakData, err := refreshStreak(h.users, course.UserID, now)
	if err != nil {
		log.Printf("failed to refresh streak after complete-day: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to update streak")
		return
	}

	h.notify(course.UserID, websocket.NewMessage("course", "day_completed", course.ID, map[string]any{
		"folded":         folded,
		"current_streak": streakData.CurrentStreak,
	}))

	writeJSON(w, http.StatusOK, map[string]any{
		"folded": folded,
		"streak": streakData,
	})
}

func (h *CourseHandler) ResetDaily(w http.ResponseWriter, r *http.Request) {
	course, err := h.owned(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	if course == nil {
		writeError(w, http.StatusNotFound, "course not found")
		return
	}

	if err := h.categories.ResetDaily(course.ID); err != nil {
		writeStoreError(w, err, "failed to reset daily progress")
		return
	}

	h.notify(course.UserID, websocket.NewMessage("course", "daily_reset", course.ID, nil))
	w.WriteHeader(http.StatusNoContent)
}

func (h *CourseHandler) SaveDay(w http.ResponseWriter, r *http.Request) {
	course, err := h.owned(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	if course == nil {
		writeError(w, http.StatusNotFound, "course not found")
		return
	}

	var req struct {
		Date  string              `json:"date"`
		Items []store.SaveDayItem `json:"items"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.Date == "" {
		req.Date = time.Now().Format(dateLayout)
	}

	if err := h.entries.SaveDay(course.ID, course.UserID, req.Date, req.Items); err != nil {
		writeStoreError(w, err, "failed to save day")
		return
	}

	h.notify(course.UserID, websocket.NewMessage("entry", "day_saved", course.ID, map[string]any{
		"date": req.Date,
	}))
	w.WriteHeader(http.StatusNoContent)
}
