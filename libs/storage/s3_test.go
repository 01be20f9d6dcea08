package storage

import (
	"context"
	"io"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/pkg/errors"
	"github.com/sprucehealth/transcriptreport/libs/test"
	"github.com/sprucehealth/transcriptreport/libs/testhelpers/mock"
)

func TestS3ListAllPages(t *testing.T) {
	ts := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	m := mock.NewMockS3API(t)
	defer m.Finish()
	m.Expect(mock.NewExpectation(m.ListObjectsV2PagesWithContext, &s3.ListObjectsV2Input{
		Bucket: aws.String("in"),
	}).WithReturns([]*s3.ListObjectsV2Output{
		{Contents: []*s3.Object{{Key: aws.String("a"), LastModified: aws.Time(ts), Size: aws.Int64(1)}}},
		{Contents: []*s3.Object{{Key: aws.String("b"), LastModified: aws.Time(ts.Add(time.Second)), Size: aws.Int64(2)}}},
	}, nil))

	objects, err := NewS3(m).List(context.Background(), "in")
	test.OK(t, err)
	test.Equals(t, []*Object{
		{Key: "a", LastModified: ts, Size: 1},
		{Key: "b", LastModified: ts.Add(time.Second), Size: 2},
	}, objects)
}

func TestS3ListError(t *testing.T) {
	m := mock.NewMockS3API(t)
	defer m.Finish()
	m.Expect(mock.NewExpectation(m.ListObjectsV2PagesWithContext, &s3.ListObjectsV2Input{
		Bucket: aws.String("in"),
	}).WithReturns(([]*s3.ListObjectsV2Output)(nil), awserr.New("AccessDenied", "denied", nil)))

	_, err := LatestObject(context.Background(), NewS3(m), "in")
	test.Equals(t, ErrListing, errors.Cause(err))
}

func TestS3Get(t *testing.T) {
	m := mock.NewMockS3API(t)
	defer m.Finish()
	m.Expect(mock.NewExpectation(m.GetObjectWithContext, &s3.GetObjectInput{
		Bucket: aws.String("out"),
		Key:    aws.String("t.json"),
	}).WithReturns(&s3.GetObjectOutput{
		Body:        io.NopCloser(strings.NewReader(`{"a":1}`)),
		ContentType: aws.String("application/json"),
	}, nil))
	m.Expect(mock.NewExpectation(m.GetObjectWithContext, &s3.GetObjectInput{
		Bucket: aws.String("out"),
		Key:    aws.String("missing"),
	}).WithReturns((*s3.GetObjectOutput)(nil), awserr.New(s3.ErrCodeNoSuchKey, "no such key", nil)))

	st := NewS3(m)
	data, h, err := st.Get(context.Background(), "out", "t.json")
	test.OK(t, err)
	test.Equals(t, `{"a":1}`, string(data))
	test.Equals(t, "application/json", h.Get("Content-Type"))
	test.Equals(t, "7", h.Get("Content-Length"))

	_, _, err = st.Get(context.Background(), "out", "missing")
	test.Equals(t, ErrNoObject, errors.Cause(err))
}

func TestS3Put(t *testing.T) {
	m := mock.NewMockS3API(t)
	defer m.Finish()
	m.Expect(mock.NewExpectation(m.PutObjectWithContext).WithParamValidation(func(params ...interface{}) {
		in := params[0].(*s3.PutObjectInput)
		test.Equals(t, "site", *in.Bucket)
		test.Equals(t, "index.html", *in.Key)
		test.Equals(t, "text/html", *in.ContentType)
		test.Equals(t, int64(4), *in.ContentLength)
		b, err := io.ReadAll(in.Body)
		test.OK(t, err)
		test.Equals(t, "<h1>", string(b))
	}).WithReturns(&s3.PutObjectOutput{}, nil))
	m.Expect(mock.NewExpectation(m.PutObjectWithContext).WithParamValidation(func(params ...interface{}) {
		test.Equals(t, DefaultContentType, *params[0].(*s3.PutObjectInput).ContentType)
	}).WithReturns((*s3.PutObjectOutput)(nil), awserr.New("AccessDenied", "denied", nil)))

	st := NewS3(m)
	test.OK(t, st.Put(context.Background(), "site", "index.html", []byte("<h1>"), "text/html"))
	err := st.Put(context.Background(), "site", "blob", []byte("x"), "")
	test.Equals(t, ErrUpload, errors.Cause(err))
}

func TestS3Integration(t *testing.T) {
	bucket := os.Getenv("TEST_S3_BUCKET")
	if bucket == "" {
		t.Skip("TEST_S3_BUCKET environment variable not set.")
	}
	sess, err := session.NewSession(&aws.Config{Region: aws.String("us-east-1")})
	if err != nil {
		t.Skip(err.Error())
	}
	if _, err := sess.Config.Credentials.Get(); err != nil {
		t.Skip(err.Error())
	}
	ctx := context.Background()
	st := NewS3(s3.New(sess))

	_, _, err = st.Get(ctx, bucket, "storage-test/ofiu3j2n90f32u09fnmeuw9")
	test.Equals(t, ErrNoObject, errors.Cause(err))

	test.OK(t, st.Put(ctx, bucket, "storage-test/test-1", []byte("foo"), "text/plain"))
	out, _, err := st.Get(ctx, bucket, "storage-test/test-1")
	test.OK(t, err)
	test.Equals(t, "foo", string(out))
}
