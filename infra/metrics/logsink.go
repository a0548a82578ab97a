package metrics

import (
	coremetrics "github.com/dispatchlab/fieldsched/core/metrics"
	"github.com/dispatchlab/fieldsched/infra/logger"
)

// LogSink writes batch records to the structured log at debug level. It is
// always wired so per-job outcomes stay observable without a time-series
// backend.
type LogSink struct {
	log logger.Logger
}

// NewLogSink creates a sink logging through log.
func NewLogSink(log logger.Logger) *LogSink {
	return &LogSink{log: log}
}

// RecordBatch logs one debug entry per record.
func (s *LogSink) RecordBatch(records []coremetrics.BatchRecord) error {
	for _, r := range records {
		fields := map[string]any{
			"run_id": r.RunID,
			"job_id": r.JobID,
			"status": r.Status,
		}
		if r.EngineerID != "" {
			fields["engineer_id"] = r.EngineerID
			fields["date"] = r.Date.Format("2006-01-02")
			fields["score"] = r.Score
			fields["distance_km"] = r.DistanceKm
		}
		if r.Reason != "" {
			fields["reason"] = r.Reason
		}
		s.log.Debugw("batch job outcome", fields)
	}
	return nil
}

// RecordRunSummary logs the run-level aggregate.
func (s *LogSink) RecordRunSummary(sum coremetrics.RunSummary) error {
	s.log.Debugw("batch run summary", map[string]any{
		"run_id":       sum.RunID,
		"jobs":         sum.Jobs,
		"scheduled":    sum.Scheduled,
		"unscheduled":  sum.Unscheduled,
		"success_rate": sum.SuccessRate,
		"elapsed":      sum.Elapsed.String(),
	})
	return nil
}
