package mock

import (
	"testing"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
)

// S3API mocks the S3 calls used by the object store. Other methods panic.
type S3API struct {
	s3iface.S3API
	*Expector
}

var _ s3iface.S3API = NewMockS3API(nil)

// NewMockS3API returns a mock compatible S3API instance
func NewMockS3API(t *testing.T) *S3API {
	return &S3API{Expector: &Expector{T: t}}
}

// ListObjectsV2PagesWithContext expects returns of ([]*s3.ListObjectsV2Output, error)
// and feeds the pages to fn in order.
func (s *S3API) ListObjectsV2PagesWithContext(ctx aws.Context, in *s3.ListObjectsV2Input, fn func(*s3.ListObjectsV2Output, bool) bool, opts ...request.Option) error {
	rets := s.Record(in)
	if len(rets) == 0 {
		return nil
	}
	if err := SafeError(rets[1]); err != nil {
		return err
	}
	pages := rets[0].([]*s3.ListObjectsV2Output)
	for i, p := range pages {
		if !fn(p, i == len(pages)-1) {
			break
		}
	}
	return nil
}

func (s *S3API) GetObjectWithContext(ctx aws.Context, in *s3.GetObjectInput, opts ...request.Option) (*s3.GetObjectOutput, error) {
	rets := s.Record(in)
	if len(rets) == 0 {
		return nil, nil
	}
	return rets[0].(*s3.GetObjectOutput), SafeError(rets[1])
}

func (s *S3API) PutObjectWithContext(ctx aws.Context, in *s3.PutObjectInput, opts ...request.Option) (*s3.PutObjectOutput, error) {
	rets := s.Record(in)
	if len(rets) == 0 {
		return nil, nil
	}
	return rets[0].(*s3.PutObjectOutput), SafeError(rets[1])
}
