// Package mockapi is an in-memory stand-in for the review service, for
// running reviewq locally without an account.
//
// Assignment requests succeed about a quarter of the time, assigned reviews
// complete on their own after 30-90 seconds, and a new unread feedback shows
// up every minute or so.
package mockapi

import (
	"encoding/json"
	"log/slog"
	"math/rand"
	"net/http"
	"strconv"
	"sync"
	"time"
)

// BasePath is the API prefix served by [Handler].
const BasePath = "/api/v1"

// maxAssigned mirrors the service's per-reviewer limit.
const maxAssigned = 2

type project struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

var projects = []project{
	{101, "Bikeshare Analysis"},
	{205, "Dog Breed Classifier"},
	{310, "Data Pipelines"},
}

type submission struct {
	ID         int       `json:"id"`
	ProjectID  int       `json:"project_id"`
	Project    project   `json:"project"`
	AssignedAt time.Time `json:"assigned_at"`

	doneAt time.Time
}

type feedback struct {
	ID           int        `json:"id"`
	Rating       int        `json:"rating"`
	ReadAt       *time.Time `json:"read_at"`
	Project      project    `json:"project"`
	SubmissionID int        `json:"submission_id"`
	CreatedAt    time.Time  `json:"created_at"`
}

// API holds the mock service state.
type API struct {
	mu             sync.Mutex
	rng            *rand.Rand
	now            func() time.Time
	nextID         int
	assigned       []submission
	feedbacks      []feedback
	nextFeedbackAt time.Time
	logger         *slog.Logger

	// AssignChance is the probability that a request gets a review.
	AssignChance float64
}

// New creates an API seeded with seed.
func New(seed int64, logger *slog.Logger) *API {
	a := &API{
		rng:          rand.New(rand.NewSource(seed)),
		now:          time.Now,
		nextID:       1000,
		logger:       logger,
		AssignChance: 0.25,
	}
	a.nextFeedbackAt = a.now().Add(a.jitter(45, 90))
	return a
}

func (a *API) jitter(minSec, maxSec int) time.Duration {
	return time.Duration(minSec+a.rng.Intn(maxSec-minSec+1)) * time.Second
}

// Handler returns the HTTP routes of the mock service.
func (a *API) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET "+BasePath+"/me/submissions/assigned", a.handleAssigned)
	mux.HandleFunc("POST "+BasePath+"/projects/{id}/submissions/assign", a.handleAssign)
	mux.HandleFunc("GET "+BasePath+"/me/student_feedbacks", a.handleFeedbacks)
	mux.HandleFunc("GET "+BasePath+"/me/certifications", a.handleCertifications)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") == "" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		mux.ServeHTTP(w, r)
	})
}

// ListenAndServe serves the mock API on addr until it fails.
func (a *API) ListenAndServe(addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           a.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return srv.ListenAndServe()
}

// advance completes finished reviews and produces due feedback.
// Caller must hold a.mu.
func (a *API) advance() {
	now := a.now()

	kept := a.assigned[:0]
	for _, s := range a.assigned {
		if now.Before(s.doneAt) {
			kept = append(kept, s)
			continue
		}
		a.logger.Info("review completed", "submission_id", s.ID)
	}
	a.assigned = kept

	if now.After(a.nextFeedbackAt) {
		p := projects[a.rng.Intn(len(projects))]
		a.nextID++
		a.feedbacks = append(a.feedbacks, feedback{
			ID:           a.nextID,
			Rating:       3 + a.rng.Intn(3),
			Project:      p,
			SubmissionID: a.nextID - 500,
			CreatedAt:    now,
		})
		a.nextFeedbackAt = now.Add(a.jitter(45, 90))
		a.logger.Info("feedback received", "feedback_id", a.nextID, "project", p.Name)
	}
}

func (a *API) handleAssigned(w http.ResponseWriter, r *http.Request) {
	a.mu.Lock()
	a.advance()
	out := append([]submission{}, a.assigned...)
	a.mu.Unlock()

	writeJSON(w, http.StatusOK, out)
}

func (a *API) handleAssign(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	var p *project
	for i := range projects {
		if projects[i].ID == id {
			p = &projects[i]
		}
	}
	if p == nil {
		w.WriteHeader(http.StatusForbidden)
		return
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	a.advance()

	if len(a.assigned) >= maxAssigned {
		w.WriteHeader(http.StatusUnprocessableEntity)
		return
	}
	if a.rng.Float64() >= a.AssignChance {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	a.nextID++
	now := a.now()
	sub := submission{
		ID:         a.nextID,
		ProjectID:  p.ID,
		Project:    *p,
		AssignedAt: now,
		doneAt:     now.Add(a.jitter(30, 90)),
	}
	a.assigned = append(a.assigned, sub)
	a.logger.Info("review assigned", "submission_id", sub.ID, "project_id", p.ID)

	writeJSON(w, http.StatusCreated, sub)
}

func (a *API) handleFeedbacks(w http.ResponseWriter, r *http.Request) {
	a.mu.Lock()
	a.advance()
	out := append([]feedback{}, a.feedbacks...)
	a.mu.Unlock()

	writeJSON(w, http.StatusOK, out)
}

func (a *API) handleCertifications(w http.ResponseWriter, r *http.Request) {
	type cert struct {
		Status    string  `json:"status"`
		ProjectID int     `json:"project_id"`
		Project   project `json:"project"`
	}
	out := make([]cert, 0, len(projects))
	for _, p := range projects {
		out = append(out, cert{Status: "certified", ProjectID: p.ID, Project: p})
	}
	writeJSON(w, http.StatusOK, out)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
