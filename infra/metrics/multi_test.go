package metrics

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coremetrics "github.com/dispatchlab/fieldsched/core/metrics"
)

type fakeSink struct {
	batches   [][]coremetrics.BatchRecord
	summaries []coremetrics.RunSummary
	err       error
}

func (f *fakeSink) RecordBatch(records []coremetrics.BatchRecord) error {
	f.batches = append(f.batches, records)
	return f.err
}

func (f *fakeSink) RecordRunSummary(s coremetrics.RunSummary) error {
	f.summaries = append(f.summaries, s)
	return f.err
}

// batchOnlySink does not implement SummaryRecorder.
type batchOnlySink struct{ calls int }

func (b *batchOnlySink) RecordBatch([]coremetrics.BatchRecord) error {
	b.calls++
	return nil
}

func TestMultiSink_RecordBatch(t *testing.T) {
	a, b := &fakeSink{}, &fakeSink{}
	m := NewMultiSink(a, b)

	recs := []coremetrics.BatchRecord{{RunID: "r1", JobID: "j1", Status: "sent"}}
	require.NoError(t, m.RecordBatch(recs))
	assert.Len(t, a.batches, 1)
	assert.Len(t, b.batches, 1)
}

func TestMultiSink_CollectsAllErrors(t *testing.T) {
	a := &fakeSink{err: errors.New("sink a down")}
	b := &fakeSink{}
	c := &fakeSink{err: errors.New("sink c down")}
	m := NewMultiSink(a, b, c)

	err := m.RecordBatch(nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sink a down")
	assert.Contains(t, err.Error(), "sink c down")
	// Healthy sinks still received the records.
	assert.Len(t, b.batches, 1)
}

func TestMultiSink_SummaryOnlyToRecorders(t *testing.T) {
	full := &fakeSink{}
	batchOnly := &batchOnlySink{}
	m := NewMultiSink(full, batchOnly)

	require.NoError(t, m.RecordRunSummary(coremetrics.RunSummary{RunID: "r1", Jobs: 3}))
	assert.Len(t, full.summaries, 1)
	assert.Zero(t, batchOnly.calls)
}
