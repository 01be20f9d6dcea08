package storage

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strconv"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/pkg/errors"
)

// S3 is a Store that uses AWS S3
type S3 struct {
	s3 s3iface.S3API
}

// NewS3 returns a new Store that uses S3
func NewS3(s3api s3iface.S3API) *S3 {
	return &S3{s3: s3api}
}

func (s *S3) List(ctx context.Context, bucket string) ([]*Object, error) {
	var objects []*Object
	err := s.s3.ListObjectsV2PagesWithContext(ctx, &s3.ListObjectsV2Input{
		Bucket: aws.String(bucket),
	}, func(page *s3.ListObjectsV2Output, lastPage bool) bool {
		for _, o := range page.Contents {
			objects = append(objects, &Object{
				Key:          aws.StringValue(o.Key),
				LastModified: aws.TimeValue(o.LastModified),
				Size:         aws.Int64Value(o.Size),
			})
		}
		return true
	})
	if err != nil {
		return nil, errors.Wrapf(err, "list s3://%s", bucket)
	}
	return objects, nil
}

func (s *S3) Get(ctx context.Context, bucket, key string) ([]byte, http.Header, error) {
	obj, err := s.s3.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if isNotFound(err) {
		return nil, nil, errors.Wrapf(ErrNoObject, "s3://%s/%s", bucket, key)
	} else if err != nil {
		return nil, nil, errors.Wrapf(err, "get s3://%s/%s", bucket, key)
	}
	defer obj.Body.Close()
	data, err := io.ReadAll(obj.Body)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "read s3://%s/%s", bucket, key)
	}
	header := http.Header{}
	if obj.ContentType != nil {
		header.Set("Content-Type", *obj.ContentType)
	}
	header.Set("Content-Length", strconv.Itoa(len(data)))
	return data, header, nil
}

func (s *S3) Put(ctx context.Context, bucket, key string, data []byte, contentType string) error {
	if contentType == "" {
		contentType = DefaultContentType
	}
	_, err := s.s3.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String(contentType),
	})
	if err != nil {
		return errors.Wrapf(ErrUpload, "s3://%s/%s: %s", bucket, key, err)
	}
	return nil
}

func isNotFound(err error) bool {
	if e, ok := err.(awserr.RequestFailure); ok && e.StatusCode() == http.StatusNotFound {
		return true
	}
	if e, ok := err.(awserr.Error); ok {
		return e.Code() == s3.ErrCodeNoSuchKey || e.Code() == "NotFound"
	}
	return false
}
