// Package transcription starts speech-to-text jobs and reads back their
// status and transcript documents.
package transcription

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrSubmission is returned when a job cannot be started.
	ErrSubmission = errors.New("transcription: job submission failed")
	// ErrStatus is returned when job statuses cannot be determined.
	ErrStatus = errors.New("transcription: unable to determine job status")
)

// Status is the state of a job as reported by the transcription service.
type Status string

const (
	StatusQueued     Status = "QUEUED"
	StatusInProgress Status = "IN_PROGRESS"
	StatusCompleted  Status = "COMPLETED"
	StatusFailed     Status = "FAILED"
)

const (
	// DefaultLanguageCode is the locale jobs are started with.
	DefaultLanguageCode = "en-US"
	// DefaultMediaFormat is the audio codec jobs are started with.
	DefaultMediaFormat = "flac"

	timestampFormat = "02-01-2006_15-04-05"
)

// Job is a transcription job. Status transitions are owned by the service.
type Job struct {
	Name           string
	Status         Status
	MediaURI       string
	OutputBucket   string
	OutputKey      string
	FailureReason  string
	CreationTime   time.Time
	CompletionTime time.Time
}

// StartRequest describes a job to submit.
type StartRequest struct {
	Name         string
	LanguageCode string
	MediaFormat  string
	MediaURI     string
	OutputBucket string
	OutputKey    string
}

// Client talks to the transcription service.
type Client interface {
	// Start submits a job and returns its initial state.
	Start(ctx context.Context, req *StartRequest) (*Job, error)
	// Jobs lists every job known to the service.
	Jobs(ctx context.Context) ([]*Job, error)
}

// JobName returns the job name for a job started at t.
func JobName(t time.Time) string {
	return "transcribe-job-" + t.Format(timestampFormat)
}

// OutputKey returns the key the transcript of a job started at t is written to.
func OutputKey(t time.Time) string {
	return "transcribed-session-" + t.Format(timestampFormat) + ".json"
}

// NewStartRequest builds the request for transcribing mediaURI at time t.
func NewStartRequest(t time.Time, mediaURI, outputBucket string) *StartRequest {
	return &StartRequest{
		Name:         JobName(t),
		LanguageCode: DefaultLanguageCode,
		MediaFormat:  DefaultMediaFormat,
		MediaURI:     mediaURI,
		OutputBucket: outputBucket,
		OutputKey:    OutputKey(t),
	}
}

// LatestCompleted returns the job with the most recent completion time. Jobs
// that have not finished are skipped and ties go to the greatest name. It
// returns nil when no job has finished.
func LatestCompleted(jobs []*Job) *Job {
	var latest *Job
	for _, j := range jobs {
		if j == nil || j.CompletionTime.IsZero() {
			continue
		}
		if latest == nil ||
			j.CompletionTime.After(latest.CompletionTime) ||
			(j.CompletionTime.Equal(latest.CompletionTime) && j.Name > latest.Name) {
			latest = j
		}
	}
	return latest
}
