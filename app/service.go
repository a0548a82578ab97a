// Package app wires the scheduling engine from configuration.
package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/dispatchlab/fieldsched/config"
	"github.com/dispatchlab/fieldsched/core/events"
	"github.com/dispatchlab/fieldsched/core/logger"
	coremetrics "github.com/dispatchlab/fieldsched/core/metrics"
	"github.com/dispatchlab/fieldsched/core/model"
	corenotify "github.com/dispatchlab/fieldsched/core/notify"
	"github.com/dispatchlab/fieldsched/core/schedule"
	"github.com/dispatchlab/fieldsched/core/schedule/logging"
	"github.com/dispatchlab/fieldsched/core/store"
	coretravel "github.com/dispatchlab/fieldsched/core/travel"
	infralogger "github.com/dispatchlab/fieldsched/infra/logger"
	inframetrics "github.com/dispatchlab/fieldsched/infra/metrics"
	infranotify "github.com/dispatchlab/fieldsched/infra/notify"
	infrastore "github.com/dispatchlab/fieldsched/infra/store"
	infratravel "github.com/dispatchlab/fieldsched/infra/travel"
	"github.com/dispatchlab/fieldsched/internal/eventbus"
)

// Service owns the wired scheduling pipeline.
type Service struct {
	cfg          *config.Config
	log          logger.Logger
	store        store.Store
	orchestrator *schedule.Orchestrator
	preflight    *schedule.Preflight
	submitter    *schedule.Submitter
	runlog       logging.RunStore
	bus          *eventbus.Bus
	promSrv      *http.Server
	closers      []func() error
}

// New builds the service from configuration.
func New(cfg *config.Config) (*Service, error) {
	log := infralogger.New("fieldsched")
	svc := &Service{cfg: cfg, log: log, bus: eventbus.New()}

	st, err := svc.buildStore(cfg)
	if err != nil {
		return nil, err
	}
	svc.store = st

	estimator, err := svc.buildEstimator(cfg, log)
	if err != nil {
		return nil, err
	}

	sink := svc.buildSink(cfg)

	orch, err := schedule.NewOrchestrator(st, estimator, cfg.Schedule, log, svc.bus, sink)
	if err != nil {
		return nil, err
	}
	svc.orchestrator = orch

	pf, err := schedule.NewPreflight(st, log, svc.bus)
	if err != nil {
		return nil, err
	}
	svc.preflight = pf

	notifier, err := svc.buildNotifier(cfg, log)
	if err != nil {
		return nil, err
	}
	sub, err := schedule.NewSubmitter(notifier, st, cfg.Schedule.Channel, log, svc.bus)
	if err != nil {
		return nil, err
	}
	svc.submitter = sub

	runlog, err := svc.buildRunLog(cfg)
	if err != nil {
		return nil, err
	}
	svc.runlog = runlog

	if cfg.Metrics.PromAddr != "" {
		svc.promSrv = inframetrics.ServePrometheus(cfg.Metrics.PromAddr, log)
	}
	return svc, nil
}

func (s *Service) buildStore(cfg *config.Config) (store.Store, error) {
	switch cfg.Store.Driver {
	case "postgres":
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		pg, err := infrastore.NewPostgresStore(ctx, cfg.Store.DSN)
		if err != nil {
			return nil, err
		}
		s.closers = append(s.closers, func() error { pg.Close(); return nil })
		return pg, nil
	case "memory":
		s.log.Warnf("using in-memory store; nothing will persist")
		return store.NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown store driver %s", cfg.Store.Driver)
	}
}

func (s *Service) buildEstimator(cfg *config.Config, log logger.Logger) (*coretravel.Estimator, error) {
	var router coretravel.Router
	if cfg.Travel.GoogleAPIKey != "" {
		gr, err := infratravel.NewGoogleRouter(cfg.Travel.GoogleAPIKey)
		if err != nil {
			return nil, err
		}
		router = gr
	}
	var cache coretravel.Cache
	if cfg.Travel.RedisAddr != "" {
		rc := infratravel.NewRedisCache(cfg.Travel.RedisAddr, cfg.Travel.RedisPassword, cfg.Travel.RedisDB, log)
		s.closers = append(s.closers, rc.Close)
		cache = rc
	}
	return coretravel.NewEstimator(router, cfg.Travel.Regions, cache, log), nil
}

func (s *Service) buildSink(cfg *config.Config) coremetrics.Sink {
	sinks := []coremetrics.Sink{inframetrics.NewLogSink(s.log)}
	if cfg.Metrics.InfluxURL != "" {
		sinks = append(sinks, inframetrics.NewInfluxSinkWithFallback(
			cfg.Metrics.InfluxURL, cfg.Metrics.InfluxToken, cfg.Metrics.InfluxOrg, cfg.Metrics.InfluxBucket))
	}
	if len(sinks) == 1 {
		return sinks[0]
	}
	return inframetrics.NewMultiSink(sinks...)
}

func (s *Service) buildNotifier(cfg *config.Config, log logger.Logger) (corenotify.Notifier, error) {
	if cfg.Notify.Broker == "" {
		s.log.Warnf("no broker configured; offers will only be logged")
		return &logNotifier{log: log}, nil
	}
	mq, err := infranotify.NewMQTTNotifier(cfg.Notify, log)
	if err != nil {
		return nil, err
	}
	s.closers = append(s.closers, func() error { mq.Close(); return nil })
	return mq, nil
}

func (s *Service) buildRunLog(cfg *config.Config) (logging.RunStore, error) {
	switch cfg.Logging.Backend {
	case "sqlite":
		return logging.NewSQLiteStore(cfg.Logging.Path)
	default:
		return logging.NewJSONLStore(cfg.Logging.Path)
	}
}

// RunBatch executes one full scheduling pass: generation, preflight and,
// unless dryRun, submission. The run record is appended to the run log.
func (s *Service) RunBatch(ctx context.Context, dryRun bool) error {
	events.StartCollector(ctx, s.bus, s.log)

	result, err := s.orchestrator.Run(ctx, schedule.RunOptions{})
	if err != nil {
		return err
	}
	if err := s.preflight.Run(ctx, result); err != nil {
		return err
	}

	var sum schedule.SubmitSummary
	switch {
	case dryRun:
		s.log.Infof("dry run: skipping submission of %d proposals", len(result.Proposals))
	case !result.ReadyForSubmission():
		s.log.Warnf("submission blocked: proposals failed preflight; resolve and re-run")
	default:
		sum = s.submitter.Submit(ctx, result)
		s.log.Infof("submitted: %d sent (%d via fallback), %d failed, %d skipped",
			sum.Sent, sum.Fallbacks, sum.Failed, sum.Skipped)
	}

	if err := s.runlog.Append(ctx, buildRunRecord(result)); err != nil {
		s.log.Errorf("run log append: %v", err)
	}
	return nil
}

// RunLog exposes the run log store for the offers command.
func (s *Service) RunLog() logging.RunStore { return s.runlog }

func buildRunRecord(result *schedule.BatchResult) logging.RunRecord {
	rec := logging.RunRecord{
		RunID:       result.RunID,
		Timestamp:   time.Now(),
		Jobs:        result.Summary.Jobs,
		Scheduled:   result.Summary.Scheduled,
		Unscheduled: result.Summary.Unscheduled,
		SuccessRate: result.Summary.SuccessRate,
	}
	for _, p := range result.Proposals {
		pr := logging.ProposalRecord{
			JobID:      p.Job.ID,
			EngineerID: p.Selected.Engineer.ID,
			Date:       p.Selected.Date,
			Score:      p.Selected.Score,
			Status:     p.Status.String(),
			Message:    p.Message,
		}
		if p.SentOffer != nil {
			pr.OfferID = p.SentOffer.ID
		}
		rec.Proposals = append(rec.Proposals, pr)
	}
	for _, u := range result.Unscheduled {
		rec.Skipped = append(rec.Skipped, logging.UnscheduledRecord{
			JobID:  u.Job.ID,
			Reason: u.Reason.String(),
			Detail: u.Detail,
		})
	}
	return rec
}

// Close releases resources held by the service.
func (s *Service) Close() error {
	var firstErr error
	if s.promSrv != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := s.promSrv.Shutdown(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if s.runlog != nil {
		if err := s.runlog.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	for _, c := range s.closers {
		if err := c(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	s.bus.Close()
	return firstErr
}

// logNotifier accepts every offer and logs it. Used when no broker is
// configured (dev, dry environments).
type logNotifier struct {
	log logger.Logger
}

func (n *logNotifier) Send(ctx context.Context, offer model.Offer) error {
	n.log.Infof("offer %s: job %s -> engineer %s on %s (%s)",
		offer.ID, offer.JobID, offer.EngineerID, offer.Date.Format("2006-01-02"), offer.TimeWindow)
	return nil
}
