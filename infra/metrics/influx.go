// Package metrics provides sink adapters for batch run records.
package metrics

import (
	"context"
	"math"
	"net/http"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/dispatchlab/fieldsched/core/metrics"
	"github.com/dispatchlab/fieldsched/infra/logger"
)

// InfluxSink writes batch records to an InfluxDB instance.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	log      logger.Logger
}

// NewInfluxSink creates a sink for the given InfluxDB endpoint.
func NewInfluxSink(url, token, org, bucket string) *InfluxSink {
	base := strings.TrimSuffix(url, "/api/v2/write")
	client := influxdb2.NewClientWithOptions(base, token,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: 5 * time.Second}))
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(org, bucket),
		log:      logger.New("influx-sink"),
	}
}

// NewInfluxSinkWithFallback pings the InfluxDB instance and returns a
// NopSink when the health check fails.
func NewInfluxSinkWithFallback(url, token, org, bucket string) coremetrics.Sink {
	sink := NewInfluxSink(url, token, org, bucket)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	health, err := sink.client.Health(ctx)
	if err != nil || health.Status != "pass" {
		if err != nil {
			sink.log.Errorf("influx health check error: %v", err)
		} else {
			sink.log.Errorf("influx health status: %s", health.Status)
		}
		sink.client.Close()
		return coremetrics.NopSink{}
	}
	return sink
}

// RecordBatch writes per-job outcomes as line protocol points.
func (s *InfluxSink) RecordBatch(records []coremetrics.BatchRecord) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	for _, r := range records {
		p := write.NewPointWithMeasurement("batch_job_outcome").
			AddTag("run_id", r.RunID).
			AddTag("job_id", r.JobID).
			AddTag("status", r.Status).
			AddField("score", round3(r.Score)).
			AddField("distance_km", round3(r.DistanceKm)).
			AddField("travel_minutes", r.TravelMinutes).
			SetTime(r.Time)
		if r.EngineerID != "" {
			p.AddTag("engineer_id", r.EngineerID)
		}
		if r.Reason != "" {
			p.AddTag("reason", r.Reason)
		}
		if err := s.writeAPI.WritePoint(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

// RecordRunSummary writes one aggregate point per run.
func (s *InfluxSink) RecordRunSummary(sum coremetrics.RunSummary) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("batch_run_summary").
		AddTag("run_id", sum.RunID).
		AddField("jobs", sum.Jobs).
		AddField("scheduled", sum.Scheduled).
		AddField("unscheduled", sum.Unscheduled).
		AddField("success_rate", round3(sum.SuccessRate)).
		AddField("elapsed_ms", sum.Elapsed.Milliseconds()).
		SetTime(sum.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

// Close releases the underlying client.
func (s *InfluxSink) Close() {
	s.client.Close()
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
