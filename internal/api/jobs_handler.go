package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/phrazzld/jobvault/internal/job"
	"github.com/phrazzld/jobvault/internal/runner"
)

// TaskFactory builds a runnable task from the raw request parameters for
// one registered task type.
type TaskFactory func(params json.RawMessage) (runner.Task, error)

// SubmitJobRequest represents the request body for submitting a new job
type SubmitJobRequest struct {
	Type     string          `json:"type" validate:"required"`
	Params   json.RawMessage `json:"params,omitempty"`
	Metadata json.RawMessage `json:"metadata,omitempty"`
}

// SubmitJobResponse represents the response data for a submitted job
type SubmitJobResponse struct {
	ID string `json:"id"`
}

// JobResponse represents the response data for a job status query
type JobResponse struct {
	ID        string          `json:"id"`
	Status    string          `json:"status"`
	Result    json.RawMessage `json:"result,omitempty"`
	Error     string          `json:"error,omitempty"`
	Metadata  json.RawMessage `json:"metadata,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// JobsHandler handles job-related HTTP requests
type JobsHandler struct {
	runner    *runner.Runner
	tasks     map[string]TaskFactory
	validator *validator.Validate
}

// NewJobsHandler creates a new JobsHandler
func NewJobsHandler(r *runner.Runner) *JobsHandler {
	return &JobsHandler{
		runner:    r,
		tasks:     make(map[string]TaskFactory),
		validator: validator.New(),
	}
}

// RegisterTask makes a task type submittable over the API.
// Must be called before the router starts serving.
func (h *JobsHandler) RegisterTask(taskType string, factory TaskFactory) {
	h.tasks[taskType] = factory
}

// SubmitJob handles POST /jobs requests
func (h *JobsHandler) SubmitJob(w http.ResponseWriter, r *http.Request) {
	var req SubmitJobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		RespondWithError(w, r, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	factory, ok := h.tasks[req.Type]
	if !ok {
		RespondWithError(w, r, http.StatusBadRequest, "Unknown task type: "+req.Type)
		return
	}

	task, err := factory(req.Params)
	if err != nil {
		RespondWithError(w, r, http.StatusBadRequest, "Invalid task parameters: "+err.Error())
		return
	}

	var metadata any
	if len(req.Metadata) > 0 {
		metadata = req.Metadata
	}

	id, err := h.runner.SubmitWithMetadata(r.Context(), task, metadata)
	if err != nil {
		slog.Error("failed to submit job", "task_type", req.Type, "error", err)
		RespondWithError(w, r, http.StatusInternalServerError, "Failed to submit job")
		return
	}

	// 202 Accepted: the job executes asynchronously after this response
	RespondWithJSON(w, r, http.StatusAccepted, SubmitJobResponse{ID: id.String()})
}

// GetJob handles GET /jobs/{id} requests
func (h *JobsHandler) GetJob(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		RespondWithError(w, r, http.StatusBadRequest, "Invalid job id")
		return
	}

	rec, err := h.runner.Load(r.Context(), id)
	if err != nil {
		if errors.Is(err, runner.ErrUnknownJob) {
			RespondWithError(w, r, http.StatusNotFound, "Job not found")
			return
		}
		slog.Error("failed to load job", "job_id", id, "error", err)
		RespondWithError(w, r, http.StatusInternalServerError, "Failed to load job")
		return
	}

	RespondWithJSON(w, r, http.StatusOK, jobToResponse(rec))
}

// jobToResponse converts a job.Record to a JobResponse
func jobToResponse(rec job.Record) JobResponse {
	return JobResponse{
		ID:        rec.ID.String(),
		Status:    string(rec.Status),
		Result:    rec.Result,
		Error:     rec.Error,
		Metadata:  rec.Metadata,
		CreatedAt: rec.CreatedAt,
		UpdatedAt: rec.UpdatedAt,
	}
}
