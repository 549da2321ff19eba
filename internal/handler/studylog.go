package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/mlahtinen/paced/internal/auth"
	"github.com/mlahtinen/paced/internal/model"
	"github.com/mlahtinen/paced/internal/store"
)

type StudyLogHandler struct {
	logs    *store.StudyLogStore
	courses *store.CourseStore
}

func NewStudyLogHandler(ls *store.StudyLogStore, cs *store.CourseStore) *StudyLogHandler {
	return &StudyLogHandler{logs: ls, courses: cs}
}

func (h *StudyLogHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CourseID   int64  `json:"course_id"`
		Date       string `json:"date"`
		Mood       int    `json:"mood"`
		Difficulty int    `json:"difficulty"`
		Note       string `json:"note"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.Date == "" {
		req.Date = time.Now().Format(dateLayout)
	}

	userID := auth.UserID(r.Context())
	course, err := h.courses.GetByID(req.CourseID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to check course")
		return
	}
	if course == nil || course.UserID != userID {
		writeError(w, http.StatusNotFound, "course not found")
		return
	}

	logEntry, err := h.logs.Upsert(userID, req.CourseID, req.Date, req.Mood, req.Difficulty, req.Note)
	if err != nil {
		writeStoreError(w, err, "failed to save study log")
		return
	}
	writeJSON(w, http.StatusOK, logEntry)
}

func (h *StudyLogHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	var (
		logs []model.StudyLog
		err  error
	)
	if courseParam := r.URL.Query().Get("course"); courseParam != "" {
		courseID, parseErr := strconv.ParseInt(courseParam, 10, 64)
		if parseErr != nil {
			writeError(w, http.StatusBadRequest, "invalid course")
			return
		}
		course, courseErr := h.courses.GetByID(courseID)
		if courseErr != nil {
			writeError(w, http.StatusInternalServerError, "failed to check course")
			return
		}
		if course == nil || course.UserID != userID {
			writeError(w, http.StatusNotFound, "course not found")
			return
		}
		logs, err = h.logs.ListByCourse(courseID, 50)
	} else {
		logs, err = h.logs.ListByUser(userID, 50)
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list study logs")
		return
	}
	if logs == nil {
		logs = []model.StudyLog{}
	}
	writeJSON(w, http.StatusOK, logs)
}
