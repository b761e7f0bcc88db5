// internal/api/handler/api/backtest.go
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/newthinker/thrust/internal/api/job"
	"github.com/newthinker/thrust/internal/api/response"
	"github.com/newthinker/thrust/internal/backtest"
	"github.com/newthinker/thrust/internal/collector/crypto"
	"github.com/newthinker/thrust/internal/core"
	"go.uber.org/zap"
)

const (
	backtestTimeout = 5 * time.Minute
	jobTypeBacktest = "backtest"
)

// BacktestRunner runs one backtest to completion.
type BacktestRunner interface {
	Run(ctx context.Context, req backtest.Request) (*backtest.Result, error)
}

// JobRecorder receives the number of unfinished jobs.
type JobRecorder interface {
	SetJobsActive(jobType string, count int)
}

// BacktestRequest is the request body for starting a backtest.
type BacktestRequest struct {
	Symbol    string   `json:"symbol"`
	Timeframe string   `json:"timeframe,omitempty"`
	K1        *float64 `json:"k1,omitempty"`
	K2        *float64 `json:"k2,omitempty"`
	Start     string   `json:"start"`
	End       string   `json:"end"`
}

// BacktestHandler handles backtest API requests.
type BacktestHandler struct {
	jobStore *job.Store
	runner   BacktestRunner
	defaults StrategyDefaults
	quote    string
	logger   *zap.Logger
	recorder JobRecorder
	wg       sync.WaitGroup
}

// NewBacktestHandler creates a new backtest handler. Symbols without a quote
// asset get quote appended.
func NewBacktestHandler(
	jobStore *job.Store,
	runner BacktestRunner,
	defaults StrategyDefaults,
	quote string,
	logger *zap.Logger,
	recorder JobRecorder,
) *BacktestHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BacktestHandler{
		jobStore: jobStore,
		runner:   runner,
		defaults: defaults,
		quote:    quote,
		logger:   logger,
		recorder: recorder,
	}
}

// Create validates the request and starts a backtest job.
func (h *BacktestHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req BacktestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest,
			core.WrapError(core.ErrConfigInvalid, err))
		return
	}

	if req.Symbol == "" {
		response.Error(w, http.StatusBadRequest,
			core.WrapError(core.ErrConfigMissing, errors.New("symbol required")))
		return
	}
	symbol := crypto.NormalizeSymbol(req.Symbol, h.quote)
	if err := crypto.ValidateCryptoSymbol(symbol); err != nil {
		response.Error(w, http.StatusBadRequest,
			core.WrapError(core.ErrInvalidConfig, err))
		return
	}

	tf, params, err := h.defaults.resolve(req.Timeframe, req.K1, req.K2)
	if err != nil {
		response.Fail(w, err)
		return
	}

	start, end, err := backtest.ParseDateRange(req.Start, req.End)
	if err != nil {
		response.Fail(w, err)
		return
	}

	run := backtest.Request{
		Symbol:    symbol,
		Timeframe: tf,
		K1:        params.K1,
		K2:        params.K2,
		Start:     start,
		End:       end,
	}

	j := h.jobStore.Create(jobTypeBacktest)
	h.reportActive()

	h.wg.Add(1)
	go h.runBacktest(j.ID, run)

	response.JSON(w, http.StatusAccepted, map[string]any{
		"job_id": j.ID,
		"status": j.Status,
	})
}

// runBacktest executes the backtest and updates job status.
func (h *BacktestHandler) runBacktest(jobID string, req backtest.Request) {
	defer h.wg.Done()
	defer h.reportActive()

	h.update(jobID, func(j *job.Job) {
		j.Status = job.StatusRunning
	})

	ctx, cancel := context.WithTimeout(context.Background(), backtestTimeout)
	defer cancel()
	result, err := h.runner.Run(ctx, req)

	if err != nil {
		h.logger.Warn("backtest job failed",
			zap.String("job_id", jobID),
			zap.String("symbol", req.Symbol),
			zap.Error(err),
		)
		h.update(jobID, func(j *job.Job) {
			j.Status = job.StatusFailed
			j.Error = jobError(err)
		})
		return
	}

	h.update(jobID, func(j *job.Job) {
		j.Status = job.StatusComplete
		j.Result = result
	})
}

// update applies fn to the job, logging when the job was evicted meanwhile.
func (h *BacktestHandler) update(jobID string, fn func(*job.Job)) {
	if err := h.jobStore.Update(jobID, fn); err != nil {
		h.logger.Warn("backtest job update dropped",
			zap.String("job_id", jobID),
			zap.Error(err),
		)
	}
}

// Wait blocks until every started job has finished.
func (h *BacktestHandler) Wait() {
	h.wg.Wait()
}

// GetStatus returns the status of a backtest job.
func (h *BacktestHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	j, err := h.jobStore.Get(r.PathValue("id"))
	if err != nil {
		response.Fail(w, err)
		return
	}

	resp := map[string]any{
		"job_id":     j.ID,
		"status":     j.Status,
		"created_at": j.CreatedAt,
		"updated_at": j.UpdatedAt,
	}

	if j.Status == job.StatusComplete {
		resp["result"] = j.Result
	}
	if j.Status == job.StatusFailed && j.Error != nil {
		resp["error"] = response.Detail(j.Error)
	}

	response.JSON(w, http.StatusOK, resp)
}

func (h *BacktestHandler) reportActive() {
	if h.recorder != nil {
		h.recorder.SetJobsActive(jobTypeBacktest, h.jobStore.Active(jobTypeBacktest))
	}
}

// jobError keeps the code of a core error and files anything else under
// BACKTEST_FAILED.
func jobError(err error) *core.Error {
	var coreErr *core.Error
	if errors.As(err, &coreErr) {
		return coreErr
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return core.WrapError(core.ErrBacktestFailed, fmt.Errorf("timed out after %s", backtestTimeout))
	}
	return core.WrapError(core.ErrBacktestFailed, err)
}
