package audit

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"
)

// Stats summarizes a set of attempts.
type Stats struct {
	Count        int            `json:"count"`
	ByStatus     map[Status]int `json:"by_status"`
	ErrorRate    float64        `json:"error_rate"`
	MeanMs       float64        `json:"mean_ms"`
	P50Ms        float64        `json:"p50_ms"`
	P95Ms        float64        `json:"p95_ms"`
	MaxMs        float64        `json:"max_ms"`
	FirstStarted time.Time      `json:"first_started,omitempty"`
	LastStarted  time.Time      `json:"last_started,omitempty"`
}

// Summarize computes latency and outcome statistics.
func Summarize(attempts []Attempt) Stats {
	st := Stats{ByStatus: make(map[Status]int)}
	n := len(attempts)
	if n == 0 {
		return st
	}

	latencies := make([]float64, 0, n)
	var sum float64
	for _, a := range attempts {
		st.ByStatus[a.Status]++
		v := float64(a.DurationMs)
		latencies = append(latencies, v)
		sum += v
		if st.FirstStarted.IsZero() || a.StartedAt.Before(st.FirstStarted) {
			st.FirstStarted = a.StartedAt
		}
		if a.StartedAt.After(st.LastStarted) {
			st.LastStarted = a.StartedAt
		}
	}
	sort.Float64s(latencies)

	st.Count = n
	st.ErrorRate = float64(n-st.ByStatus[StatusSuccess]) / float64(n)
	st.MeanMs = sum / float64(n)
	st.P50Ms = percentile(latencies, 0.50)
	st.P95Ms = percentile(latencies, 0.95)
	st.MaxMs = latencies[n-1]
	return st
}

// percentile uses nearest-rank on sorted values.
func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	rank := int(math.Ceil(p*float64(len(sorted)))) - 1
	if rank < 0 {
		rank = 0
	}
	return sorted[rank]
}

// Stats summarizes attempts started at or after since.
func (s *Store) Stats(ctx context.Context, since time.Time) (Stats, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT status, duration_ms, started_at FROM attempts WHERE started_at >= ?
	`, since.UTC())
	if err != nil {
		return Stats{}, fmt.Errorf("query stats: %w", err)
	}
	defer rows.Close()

	var attempts []Attempt
	for rows.Next() {
		var a Attempt
		var status string
		if err := rows.Scan(&status, &a.DurationMs, &a.StartedAt); err != nil {
			return Stats{}, fmt.Errorf("scan stats: %w", err)
		}
		a.Status = Status(status)
		attempts = append(attempts, a)
	}
	if err := rows.Err(); err != nil {
		return Stats{}, err
	}
	return Summarize(attempts), nil
}
