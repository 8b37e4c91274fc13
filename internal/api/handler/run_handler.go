package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	logging "github.com/ipfs/go-log/v2"
	"golang.org/x/xerrors"

	"go-aggregate-dispatcher/internal/model"
	"go-aggregate-dispatcher/internal/store"
)

var log = logging.Logger("api")

// RunHandler serves the ledger read-only.
type RunHandler struct {
	db *store.DB
}

func NewRunHandler(db *store.DB) *RunHandler {
	return &RunHandler{db: db}
}

// ListRuns retrieves all recorded runs
// @Summary List runs
// @Description Get every dispatcher run recorded in the ledger, newest first
// @Tags runs
// @Produce json
// @Success 200 {array} model.RunRecord "List of runs"
// @Failure 500 {object} map[string]interface{} "Internal server error"
// @Router /runs [get]
func (h *RunHandler) ListRuns(w http.ResponseWriter, r *http.Request) {
	runs, err := h.db.ListRuns(r.Context())
	if err != nil {
		log.Errorw("listing runs", "error", err)
		http.Error(w, "Failed to fetch runs", http.StatusInternalServerError)
		return
	}
	if runs == nil {
		runs = []model.RunRecord{}
	}
	writeJSON(w, runs)
}

// GetRun retrieves a specific run
// @Summary Get run
// @Description Retrieve the configuration and counters of one run
// @Tags runs
// @Produce json
// @Param id path string true "Run ID"
// @Success 200 {object} model.RunRecord "Run details"
// @Failure 400 {object} map[string]interface{} "Invalid run ID"
// @Failure 404 {object} map[string]interface{} "Run not found"
// @Router /runs/{id} [get]
func (h *RunHandler) GetRun(w http.ResponseWriter, r *http.Request) {
	runID, ok := pathParam(r.URL.Path, "/api/v1/runs/", "")
	if !ok {
		http.Error(w, "Run ID is required", http.StatusBadRequest)
		return
	}

	run, err := h.db.GetRun(r.Context(), runID)
	if xerrors.Is(err, store.ErrNotFound) {
		http.Error(w, "Run not found", http.StatusNotFound)
		return
	}
	if err != nil {
		log.Errorw("fetching run", "run", runID, "error", err)
		http.Error(w, "Failed to fetch run", http.StatusInternalServerError)
		return
	}
	writeJSON(w, run)
}

// GetRunTasks retrieves the task outcomes of a run
// @Summary Get run tasks
// @Description Retrieve every skip and invocation a run recorded
// @Tags runs
// @Produce json
// @Param id path string true "Run ID"
// @Success 200 {object} map[string]interface{} "Run tasks"
// @Failure 400 {object} map[string]interface{} "Invalid run ID"
// @Failure 404 {object} map[string]interface{} "Run not found"
// @Failure 500 {object} map[string]interface{} "Internal server error"
// @Router /runs/{id}/tasks [get]
func (h *RunHandler) GetRunTasks(w http.ResponseWriter, r *http.Request) {
	runID, ok := pathParam(r.URL.Path, "/api/v1/runs/", "/tasks")
	if !ok {
		http.Error(w, "Run ID is required", http.StatusBadRequest)
		return
	}

	_, err := h.db.GetRun(r.Context(), runID)
	if xerrors.Is(err, store.ErrNotFound) {
		http.Error(w, "Run not found", http.StatusNotFound)
		return
	}
	if err != nil {
		log.Errorw("fetching run", "run", runID, "error", err)
		http.Error(w, "Failed to fetch run", http.StatusInternalServerError)
		return
	}

	tasks, err := h.db.ListTasks(r.Context(), runID)
	if err != nil {
		log.Errorw("listing tasks", "run", runID, "error", err)
		http.Error(w, "Failed to retrieve tasks", http.StatusInternalServerError)
		return
	}
	if tasks == nil {
		tasks = []model.TaskRecord{}
	}

	counts := map[model.TaskStatus]int{}
	for _, t := range tasks {
		counts[t.Status]++
	}
	writeJSON(w, map[string]interface{}{
		"run_id": runID,
		"tasks":  tasks,
		"counts": counts,
		"count":  len(tasks),
	})
}

// GetUserHistory retrieves every attempt recorded for one user
// @Summary Get user history
// @Description Retrieve all skips and invocations for a user across runs, oldest first
// @Tags users
// @Produce json
// @Param id path string true "User ID"
// @Success 200 {object} map[string]interface{} "User history"
// @Failure 400 {object} map[string]interface{} "Invalid user ID"
// @Failure 500 {object} map[string]interface{} "Internal server error"
// @Router /users/{id} [get]
func (h *RunHandler) GetUserHistory(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathParam(r.URL.Path, "/api/v1/users/", "")
	if !ok {
		http.Error(w, "User ID is required", http.StatusBadRequest)
		return
	}

	history, err := h.db.UserHistory(r.Context(), userID)
	if err != nil {
		log.Errorw("fetching user history", "user", userID, "error", err)
		http.Error(w, "Failed to retrieve history", http.StatusInternalServerError)
		return
	}
	if history == nil {
		history = []model.TaskRecord{}
	}

	done := false
	for _, t := range history {
		if t.Status == model.StatusSucceeded {
			done = true
			break
		}
	}
	writeJSON(w, map[string]interface{}{
		"user_id":   userID,
		"succeeded": done,
		"attempts":  history,
	})
}

// pathParam extracts the segment between prefix and suffix.
func pathParam(path, prefix, suffix string) (string, bool) {
	if !strings.HasPrefix(path, prefix) || !strings.HasSuffix(path, suffix) || len(path) < len(prefix)+len(suffix) {
		return "", false
	}
	id := path[len(prefix) : len(path)-len(suffix)]
	if id == "" || strings.Contains(id, "/") {
		return "", false
	}
	return id, true
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warnw("encoding response", "error", err)
	}
}
