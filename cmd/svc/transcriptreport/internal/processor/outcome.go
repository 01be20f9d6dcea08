package processor

import (
	"github.com/sprucehealth/transcriptreport/libs/transcription"
)

// State is a step of one invocation.
type State string

const (
	StateStart             State = "START"
	StateStatusChecked     State = "STATUS_CHECKED"
	StateFailedPath        State = "FAILED_PATH"
	StateTranscriptFetched State = "TRANSCRIPT_FETCHED"
	StateWordcloudDone     State = "WORDCLOUD_DONE"
	StateReportDone        State = "REPORT_DONE"
	StateNotified          State = "NOTIFIED"
	StateEnd               State = "END"
)

// Stage names
const (
	StageWordcloud = "wordcloud"
	StageReport    = "report"
)

// StageResult is the outcome of an artifact stage. Rendering and uploading
// fail independently; an upload is not attempted after a render failure.
type StageResult struct {
	Stage     string
	RenderErr error
	UploadErr error
}

// OK returns true if the artifact was rendered and uploaded.
func (r StageResult) OK() bool {
	return r.RenderErr == nil && r.UploadErr == nil
}

// Err returns the failure of the stage if any.
func (r StageResult) Err() error {
	if r.RenderErr != nil {
		return r.RenderErr
	}
	return r.UploadErr
}

// Outcome records what happened during one invocation.
type Outcome struct {
	States    []State
	Status    transcription.Status
	WordCount int
	Wordcloud StageResult
	Report    StageResult
	NotifyErr error
}

func (o *Outcome) enter(s State) {
	o.States = append(o.States, s)
}

// Failures describes the failed stages.
func (o *Outcome) Failures() []string {
	var fs []string
	for _, r := range []StageResult{o.Wordcloud, o.Report} {
		if r.RenderErr != nil {
			fs = append(fs, r.Stage+" render: "+r.RenderErr.Error())
		}
		if r.UploadErr != nil {
			fs = append(fs, r.Stage+" upload: "+r.UploadErr.Error())
		}
	}
	return fs
}
