// Package awsutil holds the AWS plumbing shared by the pipeline units.
package awsutil

import (
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/pkg/errors"
)

// Config returns an AWS config using either the provided credentials, the
// environment, or the SDK's default chain (shared profile, container and
// instance roles) depending on what's available.
func Config(region, accessKey, secretKey, token string) (*aws.Config, error) {
	if region == "" {
		return nil, errors.New("awsutil: no region provided")
	}
	cfg := &aws.Config{Region: aws.String(region)}
	if accessKey != "" && secretKey != "" {
		cfg.Credentials = credentials.NewStaticCredentials(accessKey, secretKey, token)
	} else if (accessKey == "") != (secretKey == "") {
		return nil, errors.New("awsutil: access key and secret key must be set together")
	} else {
		cred := credentials.NewEnvCredentials()
		if v, err := cred.Get(); err == nil && v.AccessKeyID != "" && v.SecretAccessKey != "" {
			cfg.Credentials = cred
		}
	}
	return cfg, nil
}
