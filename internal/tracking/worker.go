package tracking

import (
	"context"
	"log/slog"
	"time"

	"github.com/vadimbarashkov/shortlink/internal/geo"
	"github.com/vadimbarashkov/shortlink/internal/models"
	"github.com/vadimbarashkov/shortlink/internal/trafficsource"
	"github.com/vadimbarashkov/shortlink/internal/useragent"
)

// insertTimeout bounds the persistence of a single click event, including
// the one still in flight during shutdown.
const insertTimeout = 5 * time.Second

// ClickWriter persists enriched click events.
type ClickWriter interface {
	Insert(ctx context.Context, event models.ClickEvent) error
}

// Worker is the single consumer of the tracking queue. It enriches each
// drained job into a click event and persists it. Exactly one worker runs
// per process, so events are persisted in enqueue order.
type Worker struct {
	queue  *Queue
	clicks ClickWriter
	geo    geo.Resolver
	logger *slog.Logger
}

func NewWorker(queue *Queue, clicks ClickWriter, resolver geo.Resolver, logger *slog.Logger) *Worker {
	return &Worker{
		queue:  queue,
		clicks: clicks,
		geo:    resolver,
		logger: logger,
	}
}

// Run drains the queue until the context is cancelled. A failing job is
// logged and never stops the loop. An item already dequeued when shutdown
// fires is allowed to finish.
func (w *Worker) Run(ctx context.Context) error {
	w.logger.Info("click tracking worker started")

	for {
		job, ok := w.queue.Dequeue(ctx)
		if !ok {
			w.logger.Info("click tracking worker stopped")
			return nil
		}

		w.process(job)
	}
}

// process runs the enrichment pipeline for one job. Each enrichment step
// may fail independently and defaults to "Unknown" rather than aborting
// the rest.
func (w *Worker) process(job models.ClickTrackingJob) {
	// Detached from the worker context so an in-flight item survives
	// shutdown.
	ctx, cancel := context.WithTimeout(context.Background(), insertTimeout)
	defer cancel()

	event := w.enrich(job)

	if err := w.clicks.Insert(ctx, event); err != nil {
		w.logger.Error("failed to persist click event",
			slog.Int64("short_url_id", job.ShortURLID), slog.Any("err", err))
	}
}

func (w *Worker) enrich(job models.ClickTrackingJob) models.ClickEvent {
	uaInfo := useragent.Parse(job.UserAgent)
	location := w.geo.Resolve(job.IP)
	source := trafficsource.Classify(job.UTM, job.Referrer)

	return models.ClickEvent{
		ShortURLID: job.ShortURLID,
		ClickedAt:  job.ClickedAt.UTC(),
		IP:         job.IP,
		SessionID:  job.SessionID,
		UserAgent:  job.UserAgent,

		Browser:    uaInfo.BrowserName,
		OS:         uaInfo.OSName,
		Device:     uaInfo.DeviceName,
		DeviceType: uaInfo.DeviceType,

		Country: location.Country,
		City:    location.City,

		Referrer:       job.Referrer,
		ReferrerDomain: source.ReferrerDomain,
		TrafficSource:  source.Source,

		UTMSource:   job.UTM.Source,
		UTMMedium:   job.UTM.Medium,
		UTMCampaign: job.UTM.Campaign,
		UTMTerm:     job.UTM.Term,
		UTMContent:  job.UTM.Content,
	}
}
