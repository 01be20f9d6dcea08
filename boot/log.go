package boot

import (
	"context"
	"os"

	"github.com/aws/aws-lambda-go/lambdacontext"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/samuel/go-metrics/metrics"
	"github.com/sprucehealth/transcriptreport/libs/golog"
)

// SetupLogging configures the default logger's level and format.
func (c *Config) SetupLogging() error {
	lvl := golog.INFO
	if c.LogLevel != "" {
		l, err := golog.ParseLevel(c.LogLevel)
		if err != nil {
			return errors.Wrap(err, "config: bad LOG_LEVEL")
		}
		lvl = l
	}
	if c.Debug {
		lvl = golog.DEBUG
	}
	golog.Default().SetLevel(lvl)
	if c.JSONLogs {
		golog.Default().SetHandler(golog.WriterHandler(os.Stderr, golog.JSONFormatter()))
	}
	return nil
}

// InvocationID returns the Lambda request ID of the invocation, or a random
// ID when not running inside Lambda.
func InvocationID(ctx context.Context) string {
	if lc, ok := lambdacontext.FromContext(ctx); ok && lc.AwsRequestID != "" {
		return lc.AwsRequestID
	}
	return uuid.New().String()
}

// InvocationLogger returns a logger tagged with the invocation ID and unit.
func InvocationLogger(ctx context.Context, base golog.Logger, unit string) golog.Logger {
	if base == nil {
		base = golog.Default()
	}
	return base.Context("invocation", InvocationID(ctx), "unit", unit)
}

// LogMetrics writes the counters in the registry at DEBUG.
func LogMetrics(log golog.Logger, reg metrics.Registry) {
	if reg == nil || !log.L(golog.DEBUG) {
		return
	}
	reg.Do(func(name string, value interface{}) error {
		if c, ok := value.(*metrics.Counter); ok {
			log.Context("metric", name, "count", c.Count()).Debugf("Counter")
		}
		return nil
	})
}
