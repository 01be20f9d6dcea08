package main

import (
	"context"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go/service/sns"
	"github.com/aws/aws-sdk-go/service/transcribeservice"
	"github.com/samuel/go-metrics/metrics"
	"github.com/sprucehealth/transcriptreport/boot"
	"github.com/sprucehealth/transcriptreport/cmd/svc/transcriptreport/internal/processor"
	"github.com/sprucehealth/transcriptreport/libs/awsutil"
	"github.com/sprucehealth/transcriptreport/libs/clock"
	"github.com/sprucehealth/transcriptreport/libs/golog"
	"github.com/sprucehealth/transcriptreport/libs/transcription"
)

func main() {
	cfg, err := boot.LoadConfig(context.Background())
	if err != nil {
		golog.Fatalf("Failed to load config: %s", err)
	}
	if err := cfg.SetupLogging(); err != nil {
		golog.Fatalf("%s", err)
	}
	if err := cfg.ValidateProcessor(); err != nil {
		golog.Fatalf("%s", err)
	}

	awsSession, err := cfg.AWSSession()
	if err != nil {
		golog.Fatalf("Failed to create AWS session: %s", err)
	}
	store, err := cfg.Store()
	if err != nil {
		golog.Fatalf("Failed to create store: %s", err)
	}

	p := processor.New(
		cfg,
		store,
		transcription.New(transcribeservice.New(awsSession)),
		awsutil.NewSNSNotifier(sns.New(awsSession), cfg.SNSTopic),
		clock.New(),
		golog.Default(),
		metrics.NewRegistry().Scope("processor"))
	lambda.Start(p.Handle)
}
