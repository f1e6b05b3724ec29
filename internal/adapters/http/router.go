package httpadapter

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/akoreshkov/docfields/internal/core/domain"
	"github.com/akoreshkov/docfields/internal/core/ports"
)

type Router struct {
	submitter ports.DocumentSubmitter
	jobs      ports.JobRepository
	results   ports.ResultRepository

	rateLimitRPS   int
	rateLimitBurst int
	maxInFlight    int
	observeUpload  func(sizeBytes int64)
}

type RouterOptions struct {
	RateLimitRPS   int
	RateLimitBurst int
	MaxInFlight    int

	// ObserveUpload, when set, is called once per accepted document
	// upload with the size of the uploaded file.
	ObserveUpload func(sizeBytes int64)
}

func NewRouter(
	submitter ports.DocumentSubmitter,
	jobs ports.JobRepository,
	results ports.ResultRepository,
	options RouterOptions,
) *Router {
	return &Router{
		submitter:      submitter,
		jobs:           jobs,
		results:        results,
		rateLimitRPS:   options.RateLimitRPS,
		rateLimitBurst: options.RateLimitBurst,
		maxInFlight:    options.MaxInFlight,
		observeUpload:  options.ObserveUpload,
	}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", rt.healthz)
	mux.HandleFunc("/v1/jobs", rt.jobsCollection)
	mux.HandleFunc("/v1/jobs/", rt.jobResource)
	mux.HandleFunc("/v1/documents", rt.uploadDocument)
	mux.HandleFunc("/v1/tasks/", rt.taskStatus)

	var handler http.Handler = mux
	if rt.maxInFlight > 0 {
		handler = backpressureMiddleware(handler, rt.maxInFlight, 50*time.Millisecond)
	}
	if rt.rateLimitRPS > 0 {
		handler = rateLimitMiddleware(handler, rt.rateLimitRPS, rt.rateLimitBurst)
	}
	return requestIDMiddleware(accessLogMiddleware(handler))
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (rt *Router) jobsCollection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		rt.listJobs(w, r)
	case http.MethodPost:
		rt.createJob(w, r)
	default:
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
	}
}

func (rt *Router) listJobs(w http.ResponseWriter, r *http.Request) {
	jobs, err := rt.jobs.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if jobs == nil {
		jobs = []domain.Job{}
	}
	writeJSON(w, http.StatusOK, jobs)
}

func (rt *Router) createJob(w http.ResponseWriter, r *http.Request) {
	var job domain.Job
	if err := json.NewDecoder(r.Body).Decode(&job); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if strings.TrimSpace(job.Title) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "title is required"})
		return
	}
	if strings.TrimSpace(job.Prompt) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "prompt is required"})
		return
	}
	if err := job.Schema.Validate(); err != nil {
		writeError(w, err)
		return
	}

	if err := rt.jobs.Create(r.Context(), &job); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, job)
}

func (rt *Router) jobResource(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	rest := strings.TrimPrefix(r.URL.Path, "/v1/jobs/")
	if idStr, ok := strings.CutSuffix(rest, "/export"); ok {
		rt.exportResults(w, r, idStr)
		return
	}

	id, err := strconv.ParseInt(rest, 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "job id must be an integer"})
		return
	}

	job, err := rt.jobs.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, job)
}

func (rt *Router) uploadDocument(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	jobID, err := strconv.ParseInt(r.FormValue("job_id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "form field 'job_id' must be an integer"})
		return
	}

	file, fileHeader, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "multipart field 'file' is required"})
		return
	}
	defer file.Close()

	taskID, err := rt.submitter.Submit(r.Context(), jobID, fileHeader.Filename, file)
	if err != nil {
		writeError(w, err)
		return
	}
	if rt.observeUpload != nil {
		rt.observeUpload(fileHeader.Size)
	}

	writeJSON(w, http.StatusAccepted, map[string]string{"task_id": taskID})
}

func (rt *Router) taskStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	taskID := strings.TrimPrefix(r.URL.Path, "/v1/tasks/")
	if taskID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "task id is required"})
		return
	}

	event, err := rt.results.LatestTaskEvent(r.Context(), taskID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, event)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
}
