package transcription

import (
	"context"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/transcribeservice"
	"github.com/aws/aws-sdk-go/service/transcribeservice/transcribeserviceiface"
	"github.com/pkg/errors"
)

type awsClient struct {
	api transcribeserviceiface.TranscribeServiceAPI
}

// New returns a Client backed by Amazon Transcribe.
func New(api transcribeserviceiface.TranscribeServiceAPI) Client {
	return &awsClient{api: api}
}

func (c *awsClient) Start(ctx context.Context, req *StartRequest) (*Job, error) {
	in := &transcribeservice.StartTranscriptionJobInput{
		TranscriptionJobName: aws.String(req.Name),
		LanguageCode:         aws.String(req.LanguageCode),
		MediaFormat:          aws.String(req.MediaFormat),
		Media: &transcribeservice.Media{
			MediaFileUri: aws.String(req.MediaURI),
		},
		OutputBucketName: aws.String(req.OutputBucket),
	}
	if req.OutputKey != "" {
		in.OutputKey = aws.String(req.OutputKey)
	}
	res, err := c.api.StartTranscriptionJobWithContext(ctx, in)
	if err != nil {
		return nil, errors.Wrapf(ErrSubmission, "job %s: %s", req.Name, err)
	}
	if res == nil || res.TranscriptionJob == nil {
		return nil, errors.Wrapf(ErrSubmission, "job %s: empty response", req.Name)
	}
	j := res.TranscriptionJob
	job := &Job{
		Name:           aws.StringValue(j.TranscriptionJobName),
		Status:         Status(aws.StringValue(j.TranscriptionJobStatus)),
		MediaURI:       req.MediaURI,
		OutputBucket:   req.OutputBucket,
		OutputKey:      req.OutputKey,
		FailureReason:  aws.StringValue(j.FailureReason),
		CreationTime:   aws.TimeValue(j.CreationTime),
		CompletionTime: aws.TimeValue(j.CompletionTime),
	}
	if j.Media != nil {
		job.MediaURI = aws.StringValue(j.Media.MediaFileUri)
	}
	return job, nil
}

func (c *awsClient) Jobs(ctx context.Context) ([]*Job, error) {
	var jobs []*Job
	err := c.api.ListTranscriptionJobsPagesWithContext(ctx, &transcribeservice.ListTranscriptionJobsInput{},
		func(page *transcribeservice.ListTranscriptionJobsOutput, lastPage bool) bool {
			for _, s := range page.TranscriptionJobSummaries {
				jobs = append(jobs, &Job{
					Name:           aws.StringValue(s.TranscriptionJobName),
					Status:         Status(aws.StringValue(s.TranscriptionJobStatus)),
					FailureReason:  aws.StringValue(s.FailureReason),
					CreationTime:   aws.TimeValue(s.CreationTime),
					CompletionTime: aws.TimeValue(s.CompletionTime),
				})
			}
			return true
		})
	if err != nil {
		return nil, errors.Wrap(ErrStatus, err.Error())
	}
	return jobs, nil
}
