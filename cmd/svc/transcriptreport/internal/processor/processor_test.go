package processor

import (
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/sns"
	"github.com/aws/aws-sdk-go/service/transcribeservice"
	pkgerrors "github.com/pkg/errors"
	"github.com/samuel/go-metrics/metrics"
	"github.com/sprucehealth/transcriptreport/boot"
	"github.com/sprucehealth/transcriptreport/libs/awsutil"
	"github.com/sprucehealth/transcriptreport/libs/clock"
	"github.com/sprucehealth/transcriptreport/libs/golog"
	"github.com/sprucehealth/transcriptreport/libs/report"
	"github.com/sprucehealth/transcriptreport/libs/storage"
	"github.com/sprucehealth/transcriptreport/libs/test"
	"github.com/sprucehealth/transcriptreport/libs/testhelpers/mock"
	"github.com/sprucehealth/transcriptreport/libs/transcription"
	"github.com/sprucehealth/transcriptreport/libs/wordcloud"
)

var now = time.Date(2021, 3, 7, 14, 5, 9, 0, time.UTC)

const template = `<img src="{{image_link}}"><p>{{date}} {{wordcount}}</p>` +
	`<p>{{word1}}={{count1}} {{word2}}={{count2}} {{word3}}={{count3}}</p>`

type notification struct {
	subject, message string
}

type captureNotifier struct {
	sent []notification
	err  error
}

func (n *captureNotifier) Notify(ctx context.Context, subject, message string) error {
	n.sent = append(n.sent, notification{subject: subject, message: message})
	return n.err
}

type fakeTranscriber struct {
	jobs []*transcription.Job
	err  error
}

func (f *fakeTranscriber) Start(ctx context.Context, req *transcription.StartRequest) (*transcription.Job, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeTranscriber) Jobs(ctx context.Context) ([]*transcription.Job, error) {
	return f.jobs, f.err
}

func testConfig(t *testing.T) *boot.Config {
	dir := t.TempDir()
	return &boot.Config{
		OutBucket:     "transcripts-out",
		SiteBucket:    "site",
		SiteURL:       "http://site.s3-website-us-east-1.amazonaws.com",
		SNSTopic:      "arn:aws:sns:us-east-1:123456789012:jobs",
		WordcloudPath: filepath.Join(dir, "wordcloud.png"),
		PagePath:      filepath.Join(dir, "index.html"),
		WordcloudKey:  "wordcloud.png",
		PageKey:       "index.html",
		TemplateKey:   "template.html",
	}
}

func completedJobs() []*transcription.Job {
	return []*transcription.Job{
		{Name: "transcribe-job-old", Status: transcription.StatusFailed, CompletionTime: now.Add(-2 * time.Hour)},
		{Name: "transcribe-job-new", Status: transcription.StatusCompleted, CompletionTime: now.Add(-time.Hour)},
		{Name: "transcribe-job-running", Status: transcription.StatusInProgress},
	}
}

func seedStore(store *storage.TestStore, transcript ...string) {
	doc := `{"jobName":"transcribe-job-new","results":{"transcripts":[`
	for i, s := range transcript {
		if i > 0 {
			doc += ","
		}
		doc += `{"transcript":"` + s + `"}`
	}
	doc += `]}}`
	store.PutObject("transcripts-out", "old.json", []byte(`{"results":{"transcripts":[{"transcript":"stale words"}]}}`), "application/json", now.Add(-3*time.Hour))
	store.PutObject("transcripts-out", "new.json", []byte(doc), "application/json", now.Add(-time.Hour))
	store.PutObject("site", "template.html", []byte(template), "text/html", now.Add(-24*time.Hour))
}

type harness struct {
	p        *Processor
	store    *storage.TestStore
	notifier *captureNotifier
	logs     *golog.CaptureHandler
}

func newHarness(t *testing.T, tr transcription.Client) *harness {
	store := storage.NewTestStore()
	store.Now = func() time.Time { return now }
	n := &captureNotifier{}
	h := &golog.CaptureHandler{}
	p := New(testConfig(t), store, tr, n, clock.NewManaged(now), golog.New(h, golog.DEBUG), metrics.NewRegistry())
	return &harness{p: p, store: store, notifier: n, logs: h}
}

func TestRunCompleted(t *testing.T) {
	h := newHarness(t, &fakeTranscriber{jobs: completedJobs()})
	seedStore(h.store, "The cat sat on the mat. ", "The cat ran. ", "A dog sat.")

	o := h.p.Run(context.Background())
	test.Equals(t, []State{
		StateStart, StateStatusChecked, StateTranscriptFetched,
		StateWordcloudDone, StateReportDone, StateNotified, StateEnd,
	}, o.States)
	test.Equals(t, transcription.StatusCompleted, o.Status)
	test.Equals(t, 7, o.WordCount)
	test.Assert(t, o.Wordcloud.OK(), "wordcloud failed: %v", o.Wordcloud.Err())
	test.Assert(t, o.Report.OK(), "report failed: %v", o.Report.Err())

	img := h.store.Object("site", "wordcloud.png")
	test.Assert(t, img != nil, "wordcloud not uploaded")
	test.Equals(t, ImageContentType, img.ContentType)
	test.Assert(t, len(img.Data) > 0, "empty wordcloud")

	page := h.store.Object("site", "index.html")
	test.Assert(t, page != nil, "page not uploaded")
	test.Equals(t, "text/html", page.ContentType)
	test.Equals(t, `<img src="http://site.s3-website-us-east-1.amazonaws.com/wordcloud.png"><p>07-03-2021 7</p>`+
		`<p>cat=2 sat=2 mat=1</p>`, string(page.Data))

	test.Equals(t, 1, len(h.notifier.sent))
	n := h.notifier.sent[0]
	test.Equals(t, "Transcription Job - COMPLETED", n.subject)
	test.Assert(t, strings.Contains(n.message, "http://site.s3-website-us-east-1.amazonaws.com/index.html"), "missing site link: %s", n.message)
	test.Assert(t, strings.Contains(n.message, "Word count: 7"), "missing word count: %s", n.message)
	test.Assert(t, !strings.Contains(n.message, "Failed"), "unexpected failure: %s", n.message)
	test.Equals(t, uint64(1), h.p.statNotifySent.Count())
}

func TestRunFailedStatus(t *testing.T) {
	jobs := completedJobs()
	jobs = append(jobs, &transcription.Job{Name: "transcribe-job-latest", Status: transcription.StatusFailed, CompletionTime: now})
	h := newHarness(t, &fakeTranscriber{jobs: jobs})
	seedStore(h.store, "The cat sat.")

	o := h.p.Run(context.Background())
	test.Equals(t, []State{StateStart, StateStatusChecked, StateFailedPath, StateNotified, StateEnd}, o.States)
	test.Equals(t, 0, h.store.Calls["List"])
	test.Equals(t, 0, h.store.Calls["Get"])
	test.Equals(t, 0, h.store.Calls["Put"])
	test.Equals(t, 1, len(h.notifier.sent))
	test.Equals(t, "Transcription Job - FAILED", h.notifier.sent[0].subject)
	test.Assert(t, strings.Contains(h.notifier.sent[0].message, "FAILED"), "message should carry status: %s", h.notifier.sent[0].message)
	test.Equals(t, uint64(1), h.p.statStatusFailed.Count())
	_, err := os.Stat(h.p.cfg.WordcloudPath)
	test.Assert(t, os.IsNotExist(err), "wordcloud should not be rendered")
}

func TestLatestJobStatusFailsClosed(t *testing.T) {
	h := newHarness(t, &fakeTranscriber{err: pkgerrors.Wrap(transcription.ErrStatus, "denied")})
	test.Equals(t, transcription.StatusFailed, h.p.LatestJobStatus(context.Background()))

	h = newHarness(t, &fakeTranscriber{jobs: []*transcription.Job{{Name: "running", Status: transcription.StatusInProgress}}})
	test.Equals(t, transcription.StatusFailed, h.p.LatestJobStatus(context.Background()))

	h = newHarness(t, &fakeTranscriber{jobs: completedJobs()})
	test.Equals(t, transcription.StatusCompleted, h.p.LatestJobStatus(context.Background()))
}

func TestLatestJobStatusFromService(t *testing.T) {
	api := mock.NewMockTranscribeAPI(t)
	defer api.Finish()
	api.Expect(mock.NewExpectation(api.ListTranscriptionJobsPagesWithContext, &transcribeservice.ListTranscriptionJobsInput{}).
		WithReturns([]*transcribeservice.ListTranscriptionJobsOutput{
			{TranscriptionJobSummaries: []*transcribeservice.TranscriptionJobSummary{
				{TranscriptionJobName: aws.String("a"), TranscriptionJobStatus: aws.String("COMPLETED"), CompletionTime: aws.Time(now.Add(-time.Hour))},
			}},
			{TranscriptionJobSummaries: []*transcribeservice.TranscriptionJobSummary{
				{TranscriptionJobName: aws.String("b"), TranscriptionJobStatus: aws.String("FAILED"), CompletionTime: aws.Time(now)},
			}},
		}, nil))

	h := newHarness(t, transcription.New(api))
	test.Equals(t, transcription.StatusFailed, h.p.LatestJobStatus(context.Background()))
}

func TestFetchTranscript(t *testing.T) {
	h := newHarness(t, &fakeTranscriber{})
	seedStore(h.store, "A", "B", "C")
	ctx := context.Background()
	test.Equals(t, "ABC", h.p.FetchTranscript(ctx, "transcripts-out"))
	test.Equals(t, "ABC", h.p.FetchTranscript(ctx, "transcripts-out"))

	test.Equals(t, "", h.p.FetchTranscript(ctx, "empty-bucket"))

	h.store.PutObject("transcripts-out", "newest.json", []byte("{not json"), "application/json", now)
	test.Equals(t, "", h.p.FetchTranscript(ctx, "transcripts-out"))

	h.store.GetErr["transcripts-out"] = errors.New("denied")
	test.Equals(t, "", h.p.FetchTranscript(ctx, "transcripts-out"))
	test.Assert(t, h.logs.Count(golog.ERR) >= 3, "expected logged errors")
}

func TestRunEmptyTranscript(t *testing.T) {
	h := newHarness(t, &fakeTranscriber{jobs: completedJobs()})
	h.store.PutObject("site", "template.html", []byte(template), "text/html", now)

	o := h.p.Run(context.Background())
	test.Equals(t, StateEnd, o.States[len(o.States)-1])
	test.Equals(t, wordcloud.ErrNoWords, pkgerrors.Cause(o.Wordcloud.RenderErr))
	test.Equals(t, nil, o.Wordcloud.UploadErr)
	test.Assert(t, h.store.Object("site", "wordcloud.png") == nil, "wordcloud should not be uploaded")
	test.Assert(t, o.Report.OK(), "report failed: %v", o.Report.Err())
	test.Equals(t, `<img src="http://site.s3-website-us-east-1.amazonaws.com/wordcloud.png"><p>07-03-2021 0</p>`+
		`<p>N/A=0 N/A=0 N/A=0</p>`, string(h.store.Object("site", "index.html").Data))
	test.Equals(t, uint64(1), h.p.statTranscriptEmpty.Count())
	test.Equals(t, uint64(1), h.p.statWordcloudFailed.Count())
	test.Equals(t, 1, len(h.notifier.sent))
	test.Assert(t, strings.Contains(h.notifier.sent[0].message, "wordcloud render"), "failure not listed: %s", h.notifier.sent[0].message)
}

func TestRenderReportFewWords(t *testing.T) {
	h := newHarness(t, &fakeTranscriber{})
	h.store.PutObject("site", "template.html", []byte(template), "text/html", now)

	res := h.p.RenderReport(context.Background(), "hello hello world")
	test.Assert(t, res.OK(), "report failed: %v", res.Err())
	test.Equals(t, `<img src="http://site.s3-website-us-east-1.amazonaws.com/wordcloud.png"><p>07-03-2021 3</p>`+
		`<p>hello=2 world=1 N/A=0</p>`, string(h.store.Object("site", "index.html").Data))
	local, err := os.ReadFile(h.p.cfg.PagePath)
	test.OK(t, err)
	test.Equals(t, string(h.store.Object("site", "index.html").Data), string(local))
}

func TestRenderReportMissingTemplate(t *testing.T) {
	h := newHarness(t, &fakeTranscriber{})
	res := h.p.RenderReport(context.Background(), "hello world")
	test.Equals(t, report.ErrTemplate, pkgerrors.Cause(res.RenderErr))
	test.Equals(t, nil, res.UploadErr)
	test.Equals(t, 0, h.store.Calls["Put"])
}

func TestRenderWordcloud(t *testing.T) {
	h := newHarness(t, &fakeTranscriber{})
	res := h.p.RenderWordcloud(context.Background(), "cloud cloud cloud storage storage lambda")
	test.Assert(t, res.OK(), "wordcloud failed: %v", res.Err())
	_, err := os.Stat(h.p.cfg.WordcloudPath)
	test.OK(t, err)
	test.Equals(t, ImageContentType, h.store.Object("site", "wordcloud.png").ContentType)
}

func TestRunUploadFailures(t *testing.T) {
	h := newHarness(t, &fakeTranscriber{jobs: completedJobs()})
	seedStore(h.store, "The cat sat on the mat.")
	h.store.PutErr["site"] = errors.New("access denied")

	o := h.p.Run(context.Background())
	test.Equals(t, nil, o.Wordcloud.RenderErr)
	test.Equals(t, storage.ErrUpload, pkgerrors.Cause(o.Wordcloud.UploadErr))
	test.Equals(t, nil, o.Report.RenderErr)
	test.Equals(t, storage.ErrUpload, pkgerrors.Cause(o.Report.UploadErr))
	test.Equals(t, 2, len(o.Failures()))

	test.Equals(t, 1, len(h.notifier.sent))
	msg := h.notifier.sent[0].message
	test.Assert(t, !strings.Contains(msg, "Report: "), "link should be left out: %s", msg)
	test.Assert(t, strings.Contains(msg, "wordcloud upload"), "failure not listed: %s", msg)
	test.Assert(t, strings.Contains(msg, "report upload"), "failure not listed: %s", msg)
}

func TestHandle(t *testing.T) {
	h := newHarness(t, &fakeTranscriber{jobs: completedJobs()})
	seedStore(h.store, "The cat sat on the mat.")
	res, err := h.p.Handle(context.Background(), nil)
	test.OK(t, err)
	test.Equals(t, &boot.Response{StatusCode: http.StatusOK, Body: "OK"}, res)

	h = newHarness(t, &fakeTranscriber{jobs: completedJobs()})
	h.notifier.err = errors.New("throttled")
	res, err = h.p.Handle(context.Background(), nil)
	test.OK(t, err)
	test.Equals(t, http.StatusBadRequest, res.StatusCode)
	test.Equals(t, 1, len(h.notifier.sent))
	test.Equals(t, uint64(1), h.p.statNotifyFailed.Count())

	for _, e := range h.logs.Entries() {
		if e.Lvl == golog.ERR {
			test.Equals(t, "invocation", e.Ctx[0])
			test.Equals(t, "unit", e.Ctx[2])
			test.Equals(t, "processor", e.Ctx[3])
		}
	}
}

func TestHandleWithSNS(t *testing.T) {
	snsAPI := mock.NewMockSNSAPI(t)
	defer snsAPI.Finish()
	snsAPI.Expect(mock.NewExpectation(snsAPI.PublishWithContext).WithParamValidation(func(params ...interface{}) {
		in := params[0].(*sns.PublishInput)
		test.Equals(t, "arn:aws:sns:us-east-1:123456789012:jobs", *in.TopicArn)
		test.Equals(t, "Transcription Job - FAILED", *in.Subject)
	}).WithReturns(&sns.PublishOutput{}, nil))

	cfg := testConfig(t)
	p := New(cfg, storage.NewTestStore(), &fakeTranscriber{}, awsutil.NewSNSNotifier(snsAPI, cfg.SNSTopic), clock.NewManaged(now), nil, nil)
	res, err := p.Handle(context.Background(), nil)
	test.OK(t, err)
	test.Equals(t, http.StatusOK, res.StatusCode)
}
