package mock

import (
	"testing"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/transcribeservice"
	"github.com/aws/aws-sdk-go/service/transcribeservice/transcribeserviceiface"
)

// TranscribeAPI mocks the Transcribe calls used by the transcription client. Other methods panic.
type TranscribeAPI struct {
	transcribeserviceiface.TranscribeServiceAPI
	*Expector
}

var _ transcribeserviceiface.TranscribeServiceAPI = NewMockTranscribeAPI(nil)

// NewMockTranscribeAPI returns a mock compatible TranscribeServiceAPI instance
func NewMockTranscribeAPI(t *testing.T) *TranscribeAPI {
	return &TranscribeAPI{Expector: &Expector{T: t}}
}

func (s *TranscribeAPI) StartTranscriptionJobWithContext(ctx aws.Context, in *transcribeservice.StartTranscriptionJobInput, opts ...request.Option) (*transcribeservice.StartTranscriptionJobOutput, error) {
	rets := s.Record(in)
	if len(rets) == 0 {
		return nil, nil
	}
	return rets[0].(*transcribeservice.StartTranscriptionJobOutput), SafeError(rets[1])
}

// ListTranscriptionJobsPagesWithContext expects returns of
// ([]*transcribeservice.ListTranscriptionJobsOutput, error) and feeds the pages to fn in order.
func (s *TranscribeAPI) ListTranscriptionJobsPagesWithContext(ctx aws.Context, in *transcribeservice.ListTranscriptionJobsInput, fn func(*transcribeservice.ListTranscriptionJobsOutput, bool) bool, opts ...request.Option) error {
	rets := s.Record(in)
	if len(rets) == 0 {
		return nil
	}
	if err := SafeError(rets[1]); err != nil {
		return err
	}
	pages := rets[0].([]*transcribeservice.ListTranscriptionJobsOutput)
	for i, p := range pages {
		if !fn(p, i == len(pages)-1) {
			break
		}
	}
	return nil
}
