// Package boot builds the configuration, logging and AWS session shared by
// the pipeline binaries.
package boot

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	flags "github.com/jessevdk/go-flags"
	"github.com/pkg/errors"
	"github.com/sprucehealth/transcriptreport/libs/awsutil"
	"github.com/sprucehealth/transcriptreport/libs/golog"
	"github.com/sprucehealth/transcriptreport/libs/storage"
	"github.com/sprucehealth/transcriptreport/libs/transcription"
)

// ConfigPathEnv names the optional TOML config file (local path or s3:// URL).
const ConfigPathEnv = "CONFIG_PATH"

// Defaults
const (
	DefaultRegion        = "us-east-1"
	DefaultWordcloudPath = "/tmp/wordcloud.png"
	DefaultPagePath      = "/tmp/index.html"
	DefaultWordcloudKey  = "wordcloud.png"
	DefaultPageKey       = "index.html"
	DefaultTemplateKey   = "template.html"
)

// Config is the process configuration. Values come from the optional config
// file first and are then overridden by the environment.
type Config struct {
	InBucket      string `long:"in_bucket" env:"inBucketName" toml:"in_bucket" description:"Bucket the audio files are uploaded to"`
	OutBucket     string `long:"out_bucket" env:"outBucketName" toml:"out_bucket" description:"Bucket transcription output is written to"`
	SiteBucket    string `long:"site_bucket" env:"siteBucketName" toml:"site_bucket" description:"Bucket the report site is published from"`
	WordcloudPath string `long:"wordcloud_path" env:"wordcloudPath" toml:"wordcloud_path" description:"Local scratch path of the word cloud image"`
	PagePath      string `long:"page_path" env:"pagePath" toml:"page_path" description:"Local scratch path of the rendered page"`
	WordcloudKey  string `long:"wordcloud_key" env:"wordcloudKey" toml:"wordcloud_key" description:"Site key of the word cloud image"`
	PageKey       string `long:"page_key" env:"pageKey" toml:"page_key" description:"Site key of the rendered page"`
	TemplateKey   string `long:"template_key" env:"templateKey" toml:"template_key" description:"Site key of the page template"`
	SNSTopic      string `long:"sns_topic" env:"snsArn" toml:"sns_topic" description:"SNS topic ARN for job notifications"`
	SiteURL       string `long:"site_url" env:"siteURL" toml:"site_url" description:"Public base URL of the site bucket"`
	LanguageCode  string `long:"language_code" env:"languageCode" toml:"language_code" description:"Transcription language code"`
	MediaFormat   string `long:"media_format" env:"mediaFormat" toml:"media_format" description:"Audio media format"`
	StorageURL    string `long:"storage_url" env:"storageURL" toml:"storage_url" description:"Storage backend (s3:// or file:///path)"`

	AWSRegion    string `long:"aws_region" env:"AWS_REGION" toml:"aws_region" description:"AWS region"`
	AWSAccessKey string `long:"aws_access_key" toml:"aws_access_key" description:"Access key for AWS"`
	AWSSecretKey string `long:"aws_secret_key" toml:"aws_secret_key" description:"Secret key for AWS"`
	AWSToken     string `long:"aws_token" toml:"aws_token" description:"Temporary access token for AWS"`

	LogLevel string `long:"log_level" env:"LOG_LEVEL" toml:"log_level" description:"Log level"`
	Debug    bool   `long:"debug" env:"debug" toml:"debug" description:"Enable debug logging"`
	JSONLogs bool   `long:"json_logs" env:"jsonLogs" toml:"json_logs" description:"Enable JSON formatted logs"`

	awsSessionOnce sync.Once
	awsSession     *session.Session
	awsSessionErr  error
}

// LoadConfig reads the config file named by CONFIG_PATH (if any), applies
// the environment on top and fills in defaults.
func LoadConfig(ctx context.Context) (*Config, error) {
	c := &Config{}
	if p := os.Getenv(ConfigPathEnv); p != "" {
		data, err := readConfigFile(ctx, p)
		if err != nil {
			return nil, err
		}
		if err := c.decode(data); err != nil {
			return nil, err
		}
	}
	if err := c.parseEnv(); err != nil {
		return nil, err
	}
	c.setDefaults()
	return c, nil
}

func (c *Config) decode(data []byte) error {
	md, err := toml.Decode(string(data), c)
	if err != nil {
		return errors.Wrap(err, "config: failed to parse config file")
	}
	if undec := md.Undecoded(); len(undec) != 0 {
		golog.Warningf("Unknown config keys: %v", undec)
	}
	return nil
}

// parseEnv overrides fields from their env variables. No command line
// arguments are consulted.
func (c *Config) parseEnv() error {
	parser := flags.NewParser(c, flags.IgnoreUnknown)
	if _, err := parser.ParseArgs([]string{}); err != nil {
		return errors.Wrap(err, "config: failed to parse environment")
	}
	return nil
}

func (c *Config) setDefaults() {
	if c.AWSRegion == "" {
		c.AWSRegion = DefaultRegion
	}
	if c.WordcloudPath == "" {
		c.WordcloudPath = DefaultWordcloudPath
	}
	if c.PagePath == "" {
		c.PagePath = DefaultPagePath
	}
	if c.WordcloudKey == "" {
		c.WordcloudKey = DefaultWordcloudKey
	}
	if c.PageKey == "" {
		c.PageKey = DefaultPageKey
	}
	if c.TemplateKey == "" {
		c.TemplateKey = DefaultTemplateKey
	}
	if c.LanguageCode == "" {
		c.LanguageCode = transcription.DefaultLanguageCode
	}
	if c.MediaFormat == "" {
		c.MediaFormat = transcription.DefaultMediaFormat
	}
	if c.SiteURL == "" && c.SiteBucket != "" {
		c.SiteURL = fmt.Sprintf("http://%s.s3-website-%s.amazonaws.com", c.SiteBucket, c.AWSRegion)
	}
}

func readConfigFile(ctx context.Context, p string) ([]byte, error) {
	if !strings.HasPrefix(p, "s3://") {
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, errors.Wrap(err, "config: failed to read config file")
		}
		return data, nil
	}
	bucket, key, err := storage.ParseURI(p)
	if err != nil {
		return nil, errors.Wrap(err, "config")
	}
	region := os.Getenv("AWS_REGION")
	if region == "" {
		region = DefaultRegion
	}
	awsConfig, err := awsutil.Config(region, "", "", "")
	if err != nil {
		return nil, errors.Wrap(err, "config")
	}
	sess, err := session.NewSession(awsConfig)
	if err != nil {
		return nil, errors.Wrap(err, "config: failed to create AWS session")
	}
	data, _, err := storage.NewS3(s3.New(sess)).Get(ctx, bucket, key)
	if err != nil {
		return nil, errors.Wrapf(err, "config: failed to get config from %s", p)
	}
	return data, nil
}

type missingError []string

func (e missingError) Error() string {
	return "config: missing required values: " + strings.Join(e, ", ")
}

func required(pairs ...string) error {
	var missing missingError
	for i := 0; i < len(pairs); i += 2 {
		if pairs[i+1] == "" {
			missing = append(missing, pairs[i])
		}
	}
	if len(missing) != 0 {
		return missing
	}
	return nil
}

// ValidateInitiator checks the values the job initiator needs.
func (c *Config) ValidateInitiator() error {
	return required(
		"inBucketName", c.InBucket,
		"outBucketName", c.OutBucket,
		"AWS_REGION", c.AWSRegion,
	)
}

// ValidateProcessor checks the values the result processor needs.
func (c *Config) ValidateProcessor() error {
	if err := required(
		"outBucketName", c.OutBucket,
		"siteBucketName", c.SiteBucket,
		"snsArn", c.SNSTopic,
		"AWS_REGION", c.AWSRegion,
	); err != nil {
		return err
	}
	return awsutil.ValidateTopicARN(c.SNSTopic)
}

// SiteLink returns the public URL of a key in the site bucket.
func (c *Config) SiteLink(key string) string {
	return strings.TrimRight(c.SiteURL, "/") + "/" + strings.TrimLeft(key, "/")
}

// AWSSession returns an AWS session. It returns the same session on every call.
func (c *Config) AWSSession() (*session.Session, error) {
	c.awsSessionOnce.Do(func() {
		awsConfig, err := awsutil.Config(c.AWSRegion, c.AWSAccessKey, c.AWSSecretKey, c.AWSToken)
		if err != nil {
			c.awsSessionErr = err
			return
		}
		c.awsSession, c.awsSessionErr = session.NewSession(awsConfig)
	})
	return c.awsSession, c.awsSessionErr
}

// Store returns the object store selected by StorageURL.
func (c *Config) Store() (storage.Store, error) {
	if strings.HasPrefix(c.StorageURL, "file://") {
		return storage.FromURL(c.StorageURL, nil)
	}
	sess, err := c.AWSSession()
	if err != nil {
		return nil, err
	}
	return storage.FromURL(c.StorageURL, s3.New(sess))
}
