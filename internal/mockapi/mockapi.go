// Package mockapi is an in-memory implementation of the civic reporting
// backend contract, for tests and local development.
//
// Unlike the real client, it owns the authoritative state machine: every
// transition handler enforces the legal-transition table and rejects
// anything else with a detail payload, which is exactly what the client
// must be prepared to receive.
package mockapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/civitrack/fieldops/internal/task"
)

// HistoryRecord is one timeline row as the backend reports it.
type HistoryRecord struct {
	Status    task.Status `json:"status"`
	Note      string      `json:"note,omitempty"`
	ChangedBy string      `json:"changed_by,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
}

// Server holds the in-memory backend state.
type Server struct {
	mu       sync.Mutex
	tasks    map[string]*task.Task
	history  map[string][]HistoryRecord
	updates  map[string][]string
	mediaSeq int
	calls    map[string]int

	// FailUpload, when set, makes uploads of matching filenames fail
	// with a 500. Used to exercise partial-upload tolerance.
	FailUpload func(filename string) bool
}

// New creates an empty mock backend.
func New() *Server {
	return &Server{
		tasks:   make(map[string]*task.Task),
		history: make(map[string][]HistoryRecord),
		updates: make(map[string][]string),
		calls:   make(map[string]int),
	}
}

// Seed installs a task, recording its current status in the history.
func (s *Server) Seed(t *task.Task) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *t
	s.tasks[t.ID] = &cp
	s.history[t.ID] = append(s.history[t.ID], HistoryRecord{
		Status:    t.Status,
		ChangedBy: "dispatcher",
		CreatedAt: time.Now().UTC(),
	})
}

// Task returns a copy of the stored task.
func (s *Server) Task(id string) *task.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[id]
	if !ok {
		return nil
	}
	cp := *t
	return &cp
}

// Updates returns the progress updates recorded for a task.
func (s *Server) Updates(id string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.updates[id]...)
}

// Calls returns how many times the named endpoint was hit.
func (s *Server) Calls(name string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[name]
}

// Handler returns the HTTP handler implementing the contract.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Get("/reports/assigned", s.handleListAssigned)
	r.Get("/reports/{id}", s.handleGetTask)
	r.Get("/reports/{id}/history", s.handleHistory)
	r.Post("/reports/{id}/acknowledge", s.handleAcknowledge)
	r.Post("/reports/{id}/start-work", s.handleStartWork)
	r.Post("/reports/{id}/reject-assignment", s.handleRejectAssignment)
	r.Post("/reports/{id}/on-hold", s.handleOnHold)
	r.Post("/reports/{id}/resume-work", s.handleResumeWork)
	r.Post("/reports/{id}/add-update", s.handleAddUpdate)
	r.Post("/reports/{id}/submit-for-verification", s.handleSubmit)
	r.Post("/media/upload/{id}", s.handleUpload)
	return r
}

func (s *Server) handleGetTask(w http.ResponseWriter, r *http.Request) {
	s.count("get")
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[chi.URLParam(r, "id")]
	if !ok {
		detail(w, http.StatusNotFound, "report not found")
		return
	}
	writeJSON(w, t)
}

func (s *Server) handleListAssigned(w http.ResponseWriter, r *http.Request) {
	s.count("list")
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*task.Task, 0, len(s.tasks))
	for _, t := range s.tasks {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	writeJSON(w, out)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	s.count("history")
	s.mu.Lock()
	defer s.mu.Unlock()
	id := chi.URLParam(r, "id")
	if _, ok := s.tasks[id]; !ok {
		detail(w, http.StatusNotFound, "report not found")
		return
	}
	writeJSON(w, s.history[id])
}

func (s *Server) handleAcknowledge(w http.ResponseWriter, r *http.Request) {
	s.count("acknowledge")
	s.transition(w, r, task.StatusAssigned, func(t *task.Task) {
		now := time.Now().UTC()
		t.Status = task.StatusAcknowledged
		t.AcknowledgedAt = &now
	})
}

func (s *Server) handleStartWork(w http.ResponseWriter, r *http.Request) {
	s.count("start")
	s.transition(w, r, task.StatusAcknowledged, func(t *task.Task) {
		now := time.Now().UTC()
		t.Status = task.StatusInProgress
		t.StartedAt = &now
	})
}

func (s *Server) handleResumeWork(w http.ResponseWriter, r *http.Request) {
	s.count("resume")
	s.transition(w, r, task.StatusOnHold, func(t *task.Task) {
		t.Status = task.StatusInProgress
		t.HoldReason = ""
		t.EstimatedResumeDate = ""
	})
}

func (s *Server) handleRejectAssignment(w http.ResponseWriter, r *http.Request) {
	s.count("reject")
	var body struct {
		RejectionReason string `json:"rejection_reason"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || len(body.RejectionReason) < 10 {
		// FastAPI-style detail array, to exercise client normalization.
		writeStatusJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"detail": []map[string]string{{"msg": "rejection_reason must be at least 10 characters"}},
		})
		return
	}
	s.transition(w, r, task.StatusAssigned, func(t *task.Task) {
		t.Status = task.StatusAssignmentRejected
		t.RejectionReason = body.RejectionReason
	})
}

func (s *Server) handleOnHold(w http.ResponseWriter, r *http.Request) {
	s.count("hold")
	if err := r.ParseMultipartForm(1 << 20); err != nil {
		detail(w, http.StatusBadRequest, "malformed form")
		return
	}
	reason := r.FormValue("reason")
	if reason == "" {
		detail(w, http.StatusUnprocessableEntity, "reason is required")
		return
	}
	s.transition(w, r, task.StatusInProgress, func(t *task.Task) {
		t.Status = task.StatusOnHold
		t.HoldReason = reason
		t.EstimatedResumeDate = r.FormValue("estimated_resume_date")
	})
}

func (s *Server) handleAddUpdate(w http.ResponseWriter, r *http.Request) {
	s.count("update")
	if err := r.ParseMultipartForm(1 << 20); err != nil {
		detail(w, http.StatusBadRequest, "malformed form")
		return
	}
	text := r.FormValue("update_text")
	if len(text) < 10 {
		detail(w, http.StatusUnprocessableEntity, "update_text must be at least 10 characters")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	id := chi.URLParam(r, "id")
	t, ok := s.tasks[id]
	if !ok {
		detail(w, http.StatusNotFound, "report not found")
		return
	}
	if t.Status != task.StatusAcknowledged && t.Status != task.StatusInProgress {
		detail(w, http.StatusConflict,
			fmt.Sprintf("cannot add update while report is %s", t.Status))
		return
	}
	s.updates[id] = append(s.updates[id], text)
	writeJSON(w, t)
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	s.count("upload")
	if err := r.ParseMultipartForm(task.MaxPhotoSizeBytes); err != nil {
		detail(w, http.StatusBadRequest, "malformed form")
		return
	}
	_, header, err := r.FormFile("file")
	if err != nil {
		detail(w, http.StatusUnprocessableEntity, "file is required")
		return
	}
	if s.FailUpload != nil && s.FailUpload(header.Filename) {
		detail(w, http.StatusInternalServerError, "storage backend unavailable")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	id := chi.URLParam(r, "id")
	t, ok := s.tasks[id]
	if !ok {
		detail(w, http.StatusNotFound, "report not found")
		return
	}
	s.mediaSeq++
	proof, _ := strconv.ParseBool(r.FormValue("is_proof_of_work"))
	m := task.Media{
		ID:            fmt.Sprintf("MEDIA-%03d", s.mediaSeq),
		Source:        task.MediaSource(r.FormValue("upload_source")),
		Caption:       r.FormValue("caption"),
		IsProofOfWork: proof,
		UploadedAt:    time.Now().UTC(),
	}
	t.Media = append(t.Media, m)
	writeJSON(w, m)
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	s.count("submit")
	if err := r.ParseMultipartForm(1 << 20); err != nil {
		detail(w, http.StatusBadRequest, "malformed form")
		return
	}
	notes := r.FormValue("resolution_notes")
	if notes == "" {
		detail(w, http.StatusUnprocessableEntity, "resolution_notes is required")
		return
	}
	duration, _ := strconv.ParseFloat(r.FormValue("work_duration_hours"), 64)

	s.mu.Lock()
	defer s.mu.Unlock()
	id := chi.URLParam(r, "id")
	t, ok := s.tasks[id]
	if !ok {
		detail(w, http.StatusNotFound, "report not found")
		return
	}
	if t.Status != task.StatusInProgress {
		detail(w, http.StatusConflict,
			fmt.Sprintf("cannot submit for verification while report is %s", t.Status))
		return
	}
	if len(t.AfterPhotos()) == 0 {
		detail(w, http.StatusUnprocessableEntity, "at least one proof-of-work photo is required")
		return
	}
	t.Status = task.StatusPendingVerification
	t.ResolutionNotes = notes
	t.WorkDurationHours = duration
	t.MaterialsUsed = r.FormValue("materials_used")
	s.record(id, t.Status, "officer")
	writeJSON(w, t)
}

// transition applies fn if the task exists and is in the required
// status, recording the resulting status in the history.
func (s *Server) transition(w http.ResponseWriter, r *http.Request, from task.Status, fn func(*task.Task)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := chi.URLParam(r, "id")
	t, ok := s.tasks[id]
	if !ok {
		detail(w, http.StatusNotFound, "report not found")
		return
	}
	if t.Status != from {
		detail(w, http.StatusConflict,
			fmt.Sprintf("illegal transition: report is %s, expected %s", t.Status, from))
		return
	}
	fn(t)
	s.record(id, t.Status, "officer")
	writeJSON(w, t)
}

// record must be called with s.mu held.
func (s *Server) record(id string, status task.Status, by string) {
	s.history[id] = append(s.history[id], HistoryRecord{
		Status:    status,
		ChangedBy: by,
		CreatedAt: time.Now().UTC(),
	})
}

// count must not be called with s.mu held.
func (s *Server) count(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls[name]++
}

func detail(w http.ResponseWriter, status int, msg string) {
	writeStatusJSON(w, status, map[string]string{"detail": msg})
}

func writeJSON(w http.ResponseWriter, v any) {
	writeStatusJSON(w, http.StatusOK, v)
}

func writeStatusJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
