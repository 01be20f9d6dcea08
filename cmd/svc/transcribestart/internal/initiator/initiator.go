// Package initiator starts a transcription job for the most recently
// uploaded audio file.
package initiator

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"
	"github.com/samuel/go-metrics/metrics"
	"github.com/sprucehealth/transcriptreport/boot"
	"github.com/sprucehealth/transcriptreport/libs/clock"
	"github.com/sprucehealth/transcriptreport/libs/golog"
	"github.com/sprucehealth/transcriptreport/libs/storage"
	"github.com/sprucehealth/transcriptreport/libs/transcription"
)

const unit = "initiator"

// Initiator finds the newest audio object in the input bucket and submits it
// for transcription.
type Initiator struct {
	store       storage.Store
	transcriber transcription.Client
	clock       clock.Clock
	cfg         *boot.Config
	log         golog.Logger
	metrics     metrics.Registry

	statStarted *metrics.Counter
	statFailed  *metrics.Counter
}

// New returns an Initiator. A nil logger uses the default one and a nil
// registry keeps the counters unregistered.
func New(cfg *boot.Config, store storage.Store, transcriber transcription.Client, clk clock.Clock, log golog.Logger, reg metrics.Registry) *Initiator {
	if log == nil {
		log = golog.Default()
	}
	in := &Initiator{
		store:       store,
		transcriber: transcriber,
		clock:       clk,
		cfg:         cfg,
		log:         log,
		metrics:     reg,
		statStarted: metrics.NewCounter(),
		statFailed:  metrics.NewCounter(),
	}
	if reg != nil {
		reg.Add("jobs/started", in.statStarted)
		reg.Add("jobs/failed", in.statFailed)
	}
	return in
}

// FindLatestObject returns the URI of the most recently modified object in
// the input bucket.
func (in *Initiator) FindLatestObject(ctx context.Context) (string, error) {
	obj, err := storage.LatestObject(ctx, in.store, in.cfg.InBucket)
	if err != nil {
		return "", err
	}
	return storage.URI(in.cfg.InBucket, obj.Key), nil
}

// StartJob submits a job for the media at uri writing its output to the
// output bucket.
func (in *Initiator) StartJob(ctx context.Context, uri string) (*transcription.Job, error) {
	req := transcription.NewStartRequest(in.clock.Now(), uri, in.cfg.OutBucket)
	if in.cfg.LanguageCode != "" {
		req.LanguageCode = in.cfg.LanguageCode
	}
	if in.cfg.MediaFormat != "" {
		req.MediaFormat = in.cfg.MediaFormat
	}
	job, err := in.transcriber.Start(ctx, req)
	if err != nil {
		return nil, err
	}
	if job.Name == "" {
		job.Name = req.Name
	}
	return job, nil
}

// Handle is the entry point of the unit. The trigger payload is ignored.
// Failures are logged and reported through the response rather than
// returned so the trigger is not retried.
func (in *Initiator) Handle(ctx context.Context, payload json.RawMessage) (*boot.Response, error) {
	log := boot.InvocationLogger(ctx, in.log, unit)
	defer boot.LogMetrics(log, in.metrics)

	res, err := in.run(ctx, log)
	if err != nil {
		in.statFailed.Inc(1)
		log.Errorf("Failed to start transcription job: %s", err)
		return boot.ErrorResponse(), nil
	}
	return res, nil
}

func (in *Initiator) run(ctx context.Context, log golog.Logger) (*boot.Response, error) {
	uri, err := in.FindLatestObject(ctx)
	if err != nil {
		return nil, err
	}
	log.Infof("Latest audio object is %s", uri)

	job, err := in.StartJob(ctx, uri)
	if err != nil {
		return nil, err
	}
	log = log.Context("job", job.Name, "status", string(job.Status))
	if job.Status == transcription.StatusFailed {
		return nil, errors.Wrapf(transcription.ErrSubmission, "job %s failed on submission: %s", job.Name, job.FailureReason)
	}
	in.statStarted.Inc(1)
	log.Infof("Transcription job started")
	return boot.OKResponse(), nil
}
