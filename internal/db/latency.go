package db

import (
	"fmt"
	"math"
	"time"

	"github.com/banshee-data/navmodel/internal/stats"
)

var _ stats.Store = (*DB)(nil)

// RecordLatencySummary inserts one summary.
func (db *DB) RecordLatencySummary(s stats.Summary) error {
	_, err := db.Exec(
		`INSERT INTO latency_summaries (
			start_unix, end_unix, frames, valid_frames,
			model_mean_ms, model_std_ms, model_p50_ms, model_p95_ms, model_max_ms,
			dsp_mean_ms, dsp_std_ms, dsp_p50_ms, dsp_p95_ms, dsp_max_ms
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		unixSeconds(s.Start), unixSeconds(s.End), s.Frames, s.Valid,
		s.ModelMean, s.ModelStd, s.ModelP50, s.ModelP95, s.ModelMax,
		s.DSPMean, s.DSPStd, s.DSPP50, s.DSPP95, s.DSPMax,
	)
	if err != nil {
		return fmt.Errorf("failed to insert latency summary: %w", err)
	}
	return nil
}

// LatencySummaries returns up to limit summaries, oldest first. A
// non-positive limit returns all of them.
func (db *DB) LatencySummaries(limit int) ([]stats.Summary, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := db.Query(
		`SELECT start_unix, end_unix, frames, valid_frames,
			model_mean_ms, model_std_ms, model_p50_ms, model_p95_ms, model_max_ms,
			dsp_mean_ms, dsp_std_ms, dsp_p50_ms, dsp_p95_ms, dsp_max_ms
		FROM (
			SELECT * FROM latency_summaries ORDER BY start_unix DESC, summary_id DESC LIMIT ?
		) ORDER BY start_unix ASC, summary_id ASC`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query latency summaries: %w", err)
	}
	defer rows.Close()

	var out []stats.Summary
	for rows.Next() {
		var s stats.Summary
		var start, end float64
		if err := rows.Scan(&start, &end, &s.Frames, &s.Valid,
			&s.ModelMean, &s.ModelStd, &s.ModelP50, &s.ModelP95, &s.ModelMax,
			&s.DSPMean, &s.DSPStd, &s.DSPP50, &s.DSPP95, &s.DSPMax); err != nil {
			return nil, fmt.Errorf("failed to scan latency summary: %w", err)
		}
		s.Start = fromUnixSeconds(start)
		s.End = fromUnixSeconds(end)
		out = append(out, s)
	}
	return out, rows.Err()
}

func unixSeconds(t time.Time) float64 {
	return float64(t.UnixNano()) / 1e9
}

func fromUnixSeconds(s float64) time.Time {
	sec, frac := math.Modf(s)
	return time.Unix(int64(sec), int64(math.Round(frac*1e9))).UTC()
}
