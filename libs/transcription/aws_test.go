package transcription

import (
	"context"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/service/transcribeservice"
	"github.com/pkg/errors"
	"github.com/sprucehealth/transcriptreport/libs/test"
	"github.com/sprucehealth/transcriptreport/libs/testhelpers/mock"
)

func TestStart(t *testing.T) {
	ts := time.Date(2021, 3, 7, 14, 5, 9, 0, time.UTC)
	req := NewStartRequest(ts, "s3://in/a.flac", "out")

	m := mock.NewMockTranscribeAPI(t)
	defer m.Finish()
	m.Expect(mock.NewExpectation(m.StartTranscriptionJobWithContext, &transcribeservice.StartTranscriptionJobInput{
		TranscriptionJobName: aws.String("transcribe-job-07-03-2021_14-05-09"),
		LanguageCode:         aws.String("en-US"),
		MediaFormat:          aws.String("flac"),
		Media:                &transcribeservice.Media{MediaFileUri: aws.String("s3://in/a.flac")},
		OutputBucketName:     aws.String("out"),
		OutputKey:            aws.String("transcribed-session-07-03-2021_14-05-09.json"),
	}).WithReturns(&transcribeservice.StartTranscriptionJobOutput{
		TranscriptionJob: &transcribeservice.TranscriptionJob{
			TranscriptionJobName:   aws.String("transcribe-job-07-03-2021_14-05-09"),
			TranscriptionJobStatus: aws.String(transcribeservice.TranscriptionJobStatusInProgress),
			Media:                  &transcribeservice.Media{MediaFileUri: aws.String("s3://in/a.flac")},
			CreationTime:           aws.Time(ts),
		},
	}, nil))

	job, err := New(m).Start(context.Background(), req)
	test.OK(t, err)
	test.Equals(t, &Job{
		Name:         "transcribe-job-07-03-2021_14-05-09",
		Status:       StatusInProgress,
		MediaURI:     "s3://in/a.flac",
		OutputBucket: "out",
		OutputKey:    "transcribed-session-07-03-2021_14-05-09.json",
		CreationTime: ts,
	}, job)
}

func TestStartFailure(t *testing.T) {
	m := mock.NewMockTranscribeAPI(t)
	defer m.Finish()
	m.Expect(mock.NewExpectation(m.StartTranscriptionJobWithContext).
		WithParamValidation(func(params ...interface{}) {}).
		WithReturns((*transcribeservice.StartTranscriptionJobOutput)(nil), awserr.New(transcribeservice.ErrCodeConflictException, "job exists", nil)))
	m.Expect(mock.NewExpectation(m.StartTranscriptionJobWithContext).
		WithParamValidation(func(params ...interface{}) {}).
		WithReturns(&transcribeservice.StartTranscriptionJobOutput{}, nil))

	c := New(m)
	req := NewStartRequest(time.Now(), "s3://in/a.flac", "out")
	_, err := c.Start(context.Background(), req)
	test.Equals(t, ErrSubmission, errors.Cause(err))
	_, err = c.Start(context.Background(), req)
	test.Equals(t, ErrSubmission, errors.Cause(err))
}

func TestJobs(t *testing.T) {
	ts := time.Date(2021, 3, 7, 0, 0, 0, 0, time.UTC)
	m := mock.NewMockTranscribeAPI(t)
	defer m.Finish()
	m.Expect(mock.NewExpectation(m.ListTranscriptionJobsPagesWithContext, &transcribeservice.ListTranscriptionJobsInput{}).
		WithReturns([]*transcribeservice.ListTranscriptionJobsOutput{
			{TranscriptionJobSummaries: []*transcribeservice.TranscriptionJobSummary{
				{TranscriptionJobName: aws.String("a"), TranscriptionJobStatus: aws.String("COMPLETED"), CompletionTime: aws.Time(ts)},
			}, NextToken: aws.String("p2")},
			{TranscriptionJobSummaries: []*transcribeservice.TranscriptionJobSummary{
				{TranscriptionJobName: aws.String("b"), TranscriptionJobStatus: aws.String("FAILED"), FailureReason: aws.String("bad media"), CompletionTime: aws.Time(ts.Add(time.Minute))},
			}},
		}, nil))
	m.Expect(mock.NewExpectation(m.ListTranscriptionJobsPagesWithContext, &transcribeservice.ListTranscriptionJobsInput{}).
		WithReturns(([]*transcribeservice.ListTranscriptionJobsOutput)(nil), awserr.New("ThrottlingException", "slow down", nil)))

	c := New(m)
	jobs, err := c.Jobs(context.Background())
	test.OK(t, err)
	test.Equals(t, []*Job{
		{Name: "a", Status: StatusCompleted, CompletionTime: ts},
		{Name: "b", Status: StatusFailed, FailureReason: "bad media", CompletionTime: ts.Add(time.Minute)},
	}, jobs)

	_, err = c.Jobs(context.Background())
	test.Equals(t, ErrStatus, errors.Cause(err))
}
