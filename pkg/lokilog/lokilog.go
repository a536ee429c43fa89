// Package lokilog ships per-node log lines to a Loki push endpoint and keeps
// compact per-stream aggregates for the run detail view.
package lokilog

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
)

const pushPath = "/loki/api/v1/push"

// Line is one log line attributed to a node of a run.
type Line struct {
	RunID     string
	NodeID    string
	Stream    string // stdout, stderr or agent
	Timestamp time.Time
	Message   string
}

// Aggregate summarizes all shipped lines of one (run, node, stream) triple.
type Aggregate struct {
	RunID          string    `json:"run_id"`
	NodeID         string    `json:"node_id"`
	Stream         string    `json:"stream"`
	LineCount      int       `json:"line_count"`
	FirstTimestamp time.Time `json:"first_timestamp"`
	LastTimestamp  time.Time `json:"last_timestamp"`
}

// Merge folds one line into the aggregate: counts accumulate, the timestamp
// window widens monotonically regardless of arrival order.
func Merge(agg Aggregate, line Line) Aggregate {
	agg.LineCount++

	if agg.FirstTimestamp.IsZero() || line.Timestamp.Before(agg.FirstTimestamp) {
		agg.FirstTimestamp = line.Timestamp
	}

	if line.Timestamp.After(agg.LastTimestamp) {
		agg.LastTimestamp = line.Timestamp
	}

	return agg
}

type aggregateKey struct {
	runID  string
	nodeID string
	stream string
}

// Shipper batches lines and pushes them to Loki, maintaining aggregates on
// the side. Push failures are logged and dropped; log shipping never blocks
// or fails a run.
type Shipper struct {
	client     *resty.Client
	logger     *slog.Logger
	mu         sync.Mutex
	pending    []Line
	aggregates map[aggregateKey]Aggregate
	batchSize  int
}

func NewShipper(baseURL string, logger *slog.Logger) *Shipper {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(10 * time.Second).
		SetRetryCount(2)

	return &Shipper{
		client:     client,
		logger:     logger,
		aggregates: make(map[aggregateKey]Aggregate),
		batchSize:  100,
	}
}

// Ship queues one line, flushing when the batch fills.
func (s *Shipper) Ship(ctx context.Context, line Line) {
	s.mu.Lock()

	key := aggregateKey{runID: line.RunID, nodeID: line.NodeID, stream: line.Stream}
	agg, ok := s.aggregates[key]

	if !ok {
		agg = Aggregate{RunID: line.RunID, NodeID: line.NodeID, Stream: line.Stream}
	}

	s.aggregates[key] = Merge(agg, line)
	s.pending = append(s.pending, line)
	flush := len(s.pending) >= s.batchSize

	s.mu.Unlock()

	if flush {
		s.Flush(ctx)
	}
}

// Flush pushes all queued lines. Safe to call with an empty queue.
func (s *Shipper) Flush(ctx context.Context) {
	s.mu.Lock()
	batch := s.pending
	s.pending = nil
	s.mu.Unlock()

	if len(batch) == 0 {
		return
	}

	if err := s.push(ctx, batch); err != nil {
		s.logger.Error("Failed to ship log batch", "lines", len(batch), "error", err)
	}
}

// Aggregates returns the current aggregate for each (run, node, stream)
// triple of the run.
func (s *Shipper) Aggregates(runID string) []Aggregate {
	s.mu.Lock()
	defer s.mu.Unlock()

	var result []Aggregate

	for key, agg := range s.aggregates {
		if key.runID == runID {
			result = append(result, agg)
		}
	}

	return result
}

// push speaks Loki's JSON push format: streams labeled by run, node and
// stream name, values as [nanosecond-timestamp, line] pairs.
func (s *Shipper) push(ctx context.Context, batch []Line) error {
	streams := make(map[aggregateKey][][2]string)

	for _, line := range batch {
		key := aggregateKey{runID: line.RunID, nodeID: line.NodeID, stream: line.Stream}
		streams[key] = append(streams[key], [2]string{
			strconv.FormatInt(line.Timestamp.UnixNano(), 10),
			line.Message,
		})
	}

	payload := map[string]any{"streams": []any{}}
	entries := make([]any, 0, len(streams))

	for key, values := range streams {
		entries = append(entries, map[string]any{
			"stream": map[string]string{
				"app":    "flowgraph",
				"run_id": key.runID,
				"node":   key.nodeID,
				"stream": key.stream,
			},
			"values": values,
		})
	}

	payload["streams"] = entries

	resp, err := s.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(payload).
		Post(pushPath)
	if err != nil {
		return fmt.Errorf("loki push failed: %w", err)
	}

	if resp.IsError() {
		return fmt.Errorf("loki push rejected: %s", resp.Status())
	}

	return nil
}
