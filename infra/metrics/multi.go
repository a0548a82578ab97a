package metrics

import (
	"errors"

	coremetrics "github.com/dispatchlab/fieldsched/core/metrics"
)

// MultiSink fans records out to several sinks, collecting all errors.
type MultiSink struct {
	sinks []coremetrics.Sink
}

// NewMultiSink creates a sink wrapping the given sinks.
func NewMultiSink(sinks ...coremetrics.Sink) *MultiSink {
	return &MultiSink{sinks: sinks}
}

// RecordBatch forwards to every sink.
func (m *MultiSink) RecordBatch(records []coremetrics.BatchRecord) error {
	var errs []error
	for _, s := range m.sinks {
		if err := s.RecordBatch(records); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// RecordRunSummary forwards to sinks that implement SummaryRecorder.
func (m *MultiSink) RecordRunSummary(sum coremetrics.RunSummary) error {
	var errs []error
	for _, s := range m.sinks {
		if sr, ok := s.(coremetrics.SummaryRecorder); ok {
			if err := sr.RecordRunSummary(sum); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}
