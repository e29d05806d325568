package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"mercator-hq/archivist/pkg/archive"
	"mercator-hq/archivist/pkg/telemetry/logging"
)

// Query parameters understood by the trigger endpoint.
const (
	ParamTargetDate = "targetDate"
	ParamMonths     = "months"
	ParamDryRun     = "dryRun"
)

// Runner executes an archival run unless one is already active.
// *archive.Controller implements it.
type Runner interface {
	TryRun(ctx context.Context, req archive.Request) (*archive.RunSummary, error)
}

// RequestSource returns the configured run request. It is consulted on every
// trigger so reloaded configuration takes effect on the next run.
type RequestSource func() (archive.Request, error)

// TriggerHandler serves the run trigger endpoint.
type TriggerHandler struct {
	runner   Runner
	requests RequestSource
	logger   *slog.Logger
}

// NewTriggerHandler creates a trigger handler.
func NewTriggerHandler(runner Runner, requests RequestSource) *TriggerHandler {
	return &TriggerHandler{
		runner:   runner,
		requests: requests,
		logger:   slog.Default().With("component", "server.trigger"),
	}
}

// ServeHTTP starts a run and answers with its summary.
func (h *TriggerHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodPost {
		w.Header().Set("Allow", "GET, POST")
		writeError(w, http.StatusMethodNotAllowed, ErrorTypeMethod, "use GET or POST")
		return
	}

	req, err := h.requests()
	if err != nil {
		h.logger.ErrorContext(r.Context(), "failed to build run request", "error", err)
		writeError(w, http.StatusInternalServerError, ErrorTypeServer, err.Error())
		return
	}

	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, ErrorTypeInvalidRequest, err.Error())
		return
	}
	if err := applyParams(&req, r.Form); err != nil {
		writeError(w, http.StatusBadRequest, ErrorTypeInvalidRequest, err.Error())
		return
	}

	caller, _ := Caller(r.Context())
	h.logger.InfoContext(r.Context(), "run triggered over HTTP",
		"cutoff", req.Cutoff.String(),
		"dry_run", req.DryRun,
		"caller", caller,
	)

	// The run outlives a disconnecting client.
	summary, err := h.runner.TryRun(logging.WithTrigger(context.WithoutCancel(r.Context()), "http"), req)
	if errors.Is(err, archive.ErrRunInProgress) {
		writeError(w, http.StatusConflict, ErrorTypeConflict, err.Error())
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, ErrorTypeServer, err.Error())
		return
	}

	status := http.StatusOK
	if summary.State == archive.StateFailed {
		status = http.StatusInternalServerError
	}
	writeJSON(w, status, summary)
}

// applyParams overrides the cutoff and dry-run flag of req from the query.
func applyParams(req *archive.Request, form url.Values) error {
	date := form.Get(ParamTargetDate)
	months := form.Get(ParamMonths)

	switch {
	case date != "" && months != "":
		return fmt.Errorf("%s and %s are mutually exclusive", ParamTargetDate, ParamMonths)
	case date != "":
		t, err := archive.ParseDate(date)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", ParamTargetDate, err)
		}
		req.Cutoff = archive.AbsoluteCutoff(t)
	case months != "":
		n, err := strconv.Atoi(months)
		if err != nil || n <= 0 {
			return fmt.Errorf("invalid %s %q: must be a positive integer", ParamMonths, months)
		}
		req.Cutoff = archive.MonthsBefore(n)
	}

	if v := form.Get(ParamDryRun); v != "" {
		dryRun, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", ParamDryRun, v, err)
		}
		req.DryRun = dryRun
	}

	return nil
}
