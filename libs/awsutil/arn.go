package awsutil

import (
	"strings"

	"github.com/aws/aws-sdk-go/aws/arn"
	"github.com/pkg/errors"
)

// ResourceNameFromARN returns the last component of the resource in an ARN,
// e.g. the topic name of an SNS topic ARN.
func ResourceNameFromARN(s string) (string, error) {
	a, err := arn.Parse(s)
	if err != nil {
		return "", errors.Wrapf(err, "awsutil: bad arn %q", s)
	}
	res := a.Resource
	if i := strings.LastIndexAny(res, ":/"); i >= 0 {
		res = res[i+1:]
	}
	if res == "" {
		return "", errors.Errorf("awsutil: arn %q has no resource name", s)
	}
	return res, nil
}

// ValidateTopicARN returns an error if s is not an SNS topic ARN.
func ValidateTopicARN(s string) error {
	a, err := arn.Parse(s)
	if err != nil {
		return errors.Wrapf(err, "awsutil: bad topic arn %q", s)
	}
	if a.Service != "sns" {
		return errors.Errorf("awsutil: arn %q is not an sns topic", s)
	}
	_, err = ResourceNameFromARN(s)
	return err
}
