// Package processor turns the output of the latest finished transcription job
// into a published word cloud and report page and announces the result.
package processor

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/samuel/go-metrics/metrics"
	"github.com/sprucehealth/transcriptreport/boot"
	"github.com/sprucehealth/transcriptreport/libs/awsutil"
	"github.com/sprucehealth/transcriptreport/libs/clock"
	"github.com/sprucehealth/transcriptreport/libs/golog"
	"github.com/sprucehealth/transcriptreport/libs/report"
	"github.com/sprucehealth/transcriptreport/libs/storage"
	"github.com/sprucehealth/transcriptreport/libs/transcription"
	"github.com/sprucehealth/transcriptreport/libs/wordcloud"
	"github.com/sprucehealth/transcriptreport/libs/wordfreq"
)

const unit = "processor"

// ImageContentType is the content type of the uploaded word cloud.
const ImageContentType = "image/png"

// Processor runs the result processing pipeline.
type Processor struct {
	store       storage.Store
	transcriber transcription.Client
	notifier    awsutil.Notifier
	clock       clock.Clock
	cfg         *boot.Config
	log         golog.Logger
	metrics     metrics.Registry
	cloudOpts   *wordcloud.Options

	statStatusFailed    *metrics.Counter
	statTranscriptEmpty *metrics.Counter
	statWordcloudFailed *metrics.Counter
	statReportFailed    *metrics.Counter
	statNotifyFailed    *metrics.Counter
	statNotifySent      *metrics.Counter
}

// New returns a Processor. A nil logger uses the default one and a nil
// registry keeps the counters unregistered.
func New(
	cfg *boot.Config,
	store storage.Store,
	transcriber transcription.Client,
	notifier awsutil.Notifier,
	clk clock.Clock,
	log golog.Logger,
	reg metrics.Registry,
) *Processor {
	if log == nil {
		log = golog.Default()
	}
	p := &Processor{
		store:               store,
		transcriber:         transcriber,
		notifier:            notifier,
		clock:               clk,
		cfg:                 cfg,
		log:                 log,
		metrics:             reg,
		cloudOpts:           wordcloud.DefaultOptions(),
		statStatusFailed:    metrics.NewCounter(),
		statTranscriptEmpty: metrics.NewCounter(),
		statWordcloudFailed: metrics.NewCounter(),
		statReportFailed:    metrics.NewCounter(),
		statNotifyFailed:    metrics.NewCounter(),
		statNotifySent:      metrics.NewCounter(),
	}
	if reg != nil {
		reg.Add("status/failed", p.statStatusFailed)
		reg.Add("transcript/empty", p.statTranscriptEmpty)
		reg.Add("wordcloud/failed", p.statWordcloudFailed)
		reg.Add("report/failed", p.statReportFailed)
		reg.Add("notify/failed", p.statNotifyFailed)
		reg.Add("notify/sent", p.statNotifySent)
	}
	return p
}

type loggerKey struct{}

func withLogger(ctx context.Context, log golog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, log)
}

func (p *Processor) logger(ctx context.Context) golog.Logger {
	if log, ok := ctx.Value(loggerKey{}).(golog.Logger); ok {
		return log
	}
	return p.log
}

// LatestJobStatus returns the status of the most recently completed job. It
// fails closed: any error, or no finished job, is reported as FAILED.
func (p *Processor) LatestJobStatus(ctx context.Context) transcription.Status {
	log := p.logger(ctx)
	jobs, err := p.transcriber.Jobs(ctx)
	if err != nil {
		log.Errorf("Failed to list transcription jobs: %s", err)
		return transcription.StatusFailed
	}
	latest := transcription.LatestCompleted(jobs)
	if latest == nil {
		log.Warningf("No finished transcription job among %d jobs", len(jobs))
		return transcription.StatusFailed
	}
	log.Context("job", latest.Name).Infof("Latest job status is %s", latest.Status)
	if latest.Status == "" {
		return transcription.StatusFailed
	}
	return latest.Status
}

// FetchTranscript returns the full text of the newest transcript document in
// the bucket. Any failure is logged and yields an empty transcript.
func (p *Processor) FetchTranscript(ctx context.Context, bucket string) string {
	log := p.logger(ctx)
	obj, err := storage.LatestObject(ctx, p.store, bucket)
	if err != nil {
		log.Errorf("Unable to find transcript: %s", err)
		return ""
	}
	data, _, err := p.store.Get(ctx, bucket, obj.Key)
	if err != nil {
		log.Errorf("Unable to retrieve transcript %s: %s", obj.Key, err)
		return ""
	}
	doc, err := transcription.ParseDocument(data)
	if err != nil {
		log.Errorf("Unable to parse transcript %s: %s", obj.Key, err)
		return ""
	}
	text := doc.FullText()
	log.Context("key", obj.Key, "chars", len(text)).Infof("Full transcript retrieved")
	return text
}

// RenderWordcloud draws the word cloud of text, writes it to the local
// scratch path and uploads it to the site bucket.
func (p *Processor) RenderWordcloud(ctx context.Context, text string) StageResult {
	return p.renderWordcloud(ctx, wordfreq.Analyze(text))
}

func (p *Processor) renderWordcloud(ctx context.Context, a *wordfreq.Analytics) StageResult {
	log := p.logger(ctx).Context("stage", StageWordcloud)
	res := StageResult{Stage: StageWordcloud}
	img, err := wordcloud.Render(a.Table.Ranked(), p.cloudOpts)
	if err == nil {
		err = wordcloud.WriteFile(p.cfg.WordcloudPath, img)
	}
	if err != nil {
		res.RenderErr = err
		log.Errorf("Unable to generate wordcloud from transcript: %s", err)
		return res
	}
	if err := storage.PutFile(ctx, p.store, p.cfg.SiteBucket, p.cfg.WordcloudKey, p.cfg.WordcloudPath, ImageContentType); err != nil {
		res.UploadErr = err
		log.Errorf("Unable to upload wordcloud: %s", err)
		return res
	}
	log.Infof("Wordcloud uploaded to %s", storage.URI(p.cfg.SiteBucket, p.cfg.WordcloudKey))
	return res
}

// RenderReport renders the site template with the analytics of text, writes
// the page to the local scratch path and uploads it to the site bucket.
func (p *Processor) RenderReport(ctx context.Context, text string) StageResult {
	return p.renderReport(ctx, wordfreq.Analyze(text))
}

func (p *Processor) renderReport(ctx context.Context, a *wordfreq.Analytics) StageResult {
	log := p.logger(ctx).Context("stage", StageReport)
	res := StageResult{Stage: StageReport}
	page, err := p.buildPage(ctx, a)
	if err == nil {
		if err = os.WriteFile(p.cfg.PagePath, []byte(page), 0644); err != nil {
			err = errors.Wrapf(report.ErrTemplate, "write %s: %s", p.cfg.PagePath, err)
		}
	}
	if err != nil {
		res.RenderErr = err
		log.Errorf("Unable to render report: %s", err)
		return res
	}
	if err := storage.PutFile(ctx, p.store, p.cfg.SiteBucket, p.cfg.PageKey, p.cfg.PagePath, report.ContentType); err != nil {
		res.UploadErr = err
		log.Errorf("Unable to upload report: %s", err)
		return res
	}
	log.Infof("Report uploaded to %s", storage.URI(p.cfg.SiteBucket, p.cfg.PageKey))
	return res
}

func (p *Processor) buildPage(ctx context.Context, a *wordfreq.Analytics) (string, error) {
	tmpl, _, err := p.store.Get(ctx, p.cfg.SiteBucket, p.cfg.TemplateKey)
	if err != nil {
		return "", errors.Wrapf(report.ErrTemplate, "fetch template %s: %s", storage.URI(p.cfg.SiteBucket, p.cfg.TemplateKey), err)
	}
	if missing := report.Missing(string(tmpl)); len(missing) != 0 {
		p.logger(ctx).Warningf("Template %s has no %s", p.cfg.TemplateKey, strings.Join(missing, ", "))
	}
	top := a.Top(report.TopN)
	if len(top) < report.TopN {
		p.logger(ctx).Warningf("Only %d distinct words, padding ranks with %s", len(top), report.Filler)
	}
	return report.Render(string(tmpl), &report.Fields{
		ImageLink: p.cfg.SiteLink(p.cfg.WordcloudKey),
		Date:      p.clock.Now().Format(report.DateFormat),
		WordCount: a.Total,
		Top:       top,
	})
}

// Run executes one invocation of the pipeline. Every stage failure degrades
// the outcome but the notification is always attempted exactly once.
func (p *Processor) Run(ctx context.Context) *Outcome {
	o := &Outcome{}
	o.enter(StateStart)

	o.Status = p.LatestJobStatus(ctx)
	o.enter(StateStatusChecked)

	if o.Status == transcription.StatusFailed {
		p.statStatusFailed.Inc(1)
		o.enter(StateFailedPath)
	} else {
		text := p.FetchTranscript(ctx, p.cfg.OutBucket)
		if text == "" {
			p.statTranscriptEmpty.Inc(1)
		}
		o.enter(StateTranscriptFetched)

		a := wordfreq.Analyze(text)
		o.WordCount = a.Total

		o.Wordcloud = p.renderWordcloud(ctx, a)
		if !o.Wordcloud.OK() {
			p.statWordcloudFailed.Inc(1)
		}
		o.enter(StateWordcloudDone)

		o.Report = p.renderReport(ctx, a)
		if !o.Report.OK() {
			p.statReportFailed.Inc(1)
		}
		o.enter(StateReportDone)
	}

	subject, message := p.notification(o)
	if err := p.notifier.Notify(ctx, subject, message); err != nil {
		o.NotifyErr = err
		p.statNotifyFailed.Inc(1)
		p.logger(ctx).Errorf("Failed to send notification: %s", err)
	} else {
		p.statNotifySent.Inc(1)
	}
	o.enter(StateNotified)
	o.enter(StateEnd)
	return o
}

// Subject returns the notification subject for a job status.
func Subject(status transcription.Status) string {
	return "Transcription Job - " + string(status)
}

func (p *Processor) notification(o *Outcome) (string, string) {
	var b strings.Builder
	fmt.Fprintf(&b, "Transcription job status: %s\n", o.Status)
	if o.Status == transcription.StatusFailed {
		b.WriteString("No transcript was processed.\n")
		return Subject(o.Status), b.String()
	}
	if o.Report.OK() {
		fmt.Fprintf(&b, "Report: %s\n", p.cfg.SiteLink(p.cfg.PageKey))
	}
	fmt.Fprintf(&b, "Word count: %d\n", o.WordCount)
	for _, f := range o.Failures() {
		fmt.Fprintf(&b, "Failed: %s\n", f)
	}
	return Subject(o.Status), b.String()
}

// Handle is the entry point of the unit. The trigger payload is ignored. It
// reports an error response only when the notification could not be sent.
func (p *Processor) Handle(ctx context.Context, payload json.RawMessage) (*boot.Response, error) {
	log := boot.InvocationLogger(ctx, p.log, unit)
	o := p.Run(withLogger(ctx, log))
	log.Context("status", string(o.Status), "states", o.States).Infof("Invocation finished")
	boot.LogMetrics(log, p.metrics)
	if o.NotifyErr != nil {
		return boot.ErrorResponse(), nil
	}
	return boot.OKResponse(), nil
}
