package awsutil

import (
	"context"
	"unicode/utf8"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/sns"
	"github.com/aws/aws-sdk-go/service/sns/snsiface"
	"github.com/pkg/errors"
)

// MaxSubjectLength is the longest subject SNS accepts for email endpoints.
const MaxSubjectLength = 100

// ErrNotify is returned when a notification could not be published.
var ErrNotify = errors.New("awsutil: notification failed")

// Notifier sends a one-off notification.
type Notifier interface {
	Notify(ctx context.Context, subject, message string) error
}

// SNSNotifier publishes notifications to an SNS topic.
type SNSNotifier struct {
	snsAPI   snsiface.SNSAPI
	topicARN string
}

// NewSNSNotifier returns a notifier that publishes to the topic.
func NewSNSNotifier(snsAPI snsiface.SNSAPI, topicARN string) *SNSNotifier {
	return &SNSNotifier{snsAPI: snsAPI, topicARN: topicARN}
}

// Notify publishes the message. Subjects longer than the SNS limit are truncated.
func (n *SNSNotifier) Notify(ctx context.Context, subject, message string) error {
	in := &sns.PublishInput{
		TopicArn: aws.String(n.topicARN),
		Message:  aws.String(message),
	}
	if subject = TruncateSubject(subject); subject != "" {
		in.Subject = aws.String(subject)
	}
	if _, err := n.snsAPI.PublishWithContext(ctx, in); err != nil {
		return errors.Wrapf(ErrNotify, "topic=%s: %s", n.topicARN, err)
	}
	return nil
}

// TruncateSubject cuts s to MaxSubjectLength characters.
func TruncateSubject(s string) string {
	if utf8.RuneCountInString(s) <= MaxSubjectLength {
		return s
	}
	r := []rune(s)
	return string(r[:MaxSubjectLength])
}
