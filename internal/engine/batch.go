package engine

import (
	"context"
	"sync"
	"time"

	"github.com/tradewind/tariffflow/internal/model"
)

// BatchError records the failure of a single request inside a batch.
type BatchError struct {
	RequestID string `json:"request_id"`
	Index     int    `json:"index"`
	Error     string `json:"error"`
}

// BatchResult aggregates the per-request outcomes of one batch run.
// Outcomes is index-aligned with the input; failed entries are nil there
// and reported in Errors.
type BatchResult struct {
	Outcomes     []*Outcome    `json:"outcomes"`
	Errors       []BatchError  `json:"errors"`
	SuccessCount int           `json:"success_count"`
	ErrorCount   int           `json:"error_count"`
	Elapsed      time.Duration `json:"elapsed"`
}

// ClassifyBatch processes requests in windows of BatchWindow, pausing
// BatchPause between windows. A failed request never aborts the batch;
// its error is recorded and the remaining requests proceed. Cancelling
// the context stops scheduling new windows and records the context error
// for every unprocessed request.
func (e *Engine) ClassifyBatch(ctx context.Context, requests []model.ClassificationRequest, onProgress func(done, total int)) BatchResult {
	start := time.Now()
	result := BatchResult{
		Outcomes: make([]*Outcome, len(requests)),
	}

	var mu sync.Mutex
	done := 0
	record := func(i int, out *Outcome, err error) {
		mu.Lock()
		defer mu.Unlock()
		result.Outcomes[i] = out
		if err != nil {
			id := requests[i].ID
			if out != nil && out.RequestID != "" {
				id = out.RequestID
			}
			result.Errors = append(result.Errors, BatchError{
				RequestID: id,
				Index:     i,
				Error:     err.Error(),
			})
		}
		done++
		if onProgress != nil {
			onProgress(done, len(requests))
		}
	}

	for windowStart := 0; windowStart < len(requests); windowStart += e.cfg.BatchWindow {
		if err := ctx.Err(); err != nil {
			for i := windowStart; i < len(requests); i++ {
				record(i, nil, err)
			}
			break
		}

		windowEnd := windowStart + e.cfg.BatchWindow
		if windowEnd > len(requests) {
			windowEnd = len(requests)
		}

		var wg sync.WaitGroup
		for i := windowStart; i < windowEnd; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				out, err := e.Classify(ctx, requests[i])
				record(i, out, err)
			}(i)
		}
		wg.Wait()

		if windowEnd < len(requests) && e.cfg.BatchPause > 0 {
			select {
			case <-ctx.Done():
			case <-time.After(e.cfg.BatchPause):
			}
		}
	}

	result.ErrorCount = len(result.Errors)
	result.SuccessCount = len(requests) - result.ErrorCount
	result.Elapsed = time.Since(start)

	e.logger.Info("batch classification complete",
		"total", len(requests),
		"succeeded", result.SuccessCount,
		"failed", result.ErrorCount,
		"elapsed", result.Elapsed)

	return result
}
