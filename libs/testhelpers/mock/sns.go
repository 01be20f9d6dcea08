package mock

import (
	"testing"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/sns"
	"github.com/aws/aws-sdk-go/service/sns/snsiface"
)

// SNSAPI mocks the SNS calls used by the notifier. Other methods panic.
type SNSAPI struct {
	snsiface.SNSAPI
	*Expector
}

var _ snsiface.SNSAPI = NewMockSNSAPI(nil)

// NewMockSNSAPI returns a mock compatible SNSAPI instance
func NewMockSNSAPI(t *testing.T) *SNSAPI {
	return &SNSAPI{Expector: &Expector{T: t}}
}

func (s *SNSAPI) Publish(in *sns.PublishInput) (*sns.PublishOutput, error) {
	rets := s.Record(in)
	if len(rets) == 0 {
		return nil, nil
	}
	return rets[0].(*sns.PublishOutput), SafeError(rets[1])
}

func (s *SNSAPI) PublishWithContext(ctx aws.Context, in *sns.PublishInput, opts ...request.Option) (*sns.PublishOutput, error) {
	rets := s.Record(in)
	if len(rets) == 0 {
		return nil, nil
	}
	return rets[0].(*sns.PublishOutput), SafeError(rets[1])
}
