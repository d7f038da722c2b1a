// Package observability emits per-run metrics. Metric failures are logged
// and swallowed: losing a datapoint must never affect the run itself.
package observability

import (
	"context"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
)

// Metric and dimension names.
const (
	MetricRunOutcome      = "RunOutcome"
	MetricAlertHours      = "AlertHours"
	MetricDeliveryAttempt = "DeliveryAttempt"

	DimOutcome = "Outcome"
	DimKind    = "Kind"
	DimResult  = "Result"
)

// Outcome values for MetricRunOutcome.
const (
	OutcomeSuccess    = "success"
	OutcomeFetchError = "fetch_error"
	OutcomeDayMissing = "day_missing"
	OutcomePanic      = "panic"
)

// Alert kind values for MetricAlertHours.
const (
	KindSky  = "sky"
	KindRain = "rain"
)

// Delivery result values for MetricDeliveryAttempt.
const (
	ResultSuccess = "success"
	ResultFailure = "failure"
)

// RunMetrics records the observable outcomes of one run.
type RunMetrics interface {
	// RecordRun emits the overall run outcome.
	RecordRun(ctx context.Context, outcome string)
	// RecordAlerts emits the number of alert hours detected for a kind.
	RecordAlerts(ctx context.Context, kind string, count int)
	// RecordDelivery emits the result of a notification delivery attempt.
	RecordDelivery(ctx context.Context, result string)
}

// NoopMetrics discards all metrics. Used for local runs and tests.
type NoopMetrics struct{}

func (NoopMetrics) RecordRun(context.Context, string)         {}
func (NoopMetrics) RecordAlerts(context.Context, string, int) {}
func (NoopMetrics) RecordDelivery(context.Context, string)    {}

// CloudWatchClient abstracts the CloudWatch PutMetricData operation for
// testability.
type CloudWatchClient interface {
	PutMetricData(ctx context.Context, params *cloudwatch.PutMetricDataInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error)
}

// Compile-time assertion that CloudWatchMetrics implements RunMetrics.
var _ RunMetrics = (*CloudWatchMetrics)(nil)

// CloudWatchMetrics implements RunMetrics by publishing to a CloudWatch
// namespace.
type CloudWatchMetrics struct {
	client    CloudWatchClient
	namespace string
	logger    *slog.Logger
}

// NewCloudWatchMetrics creates a CloudWatchMetrics publishing to the given
// namespace.
func NewCloudWatchMetrics(client CloudWatchClient, namespace string, logger *slog.Logger) *CloudWatchMetrics {
	if logger == nil {
		logger = slog.Default()
	}
	return &CloudWatchMetrics{
		client:    client,
		namespace: namespace,
		logger:    logger,
	}
}

// RecordRun emits a RunOutcome count with the Outcome dimension.
func (m *CloudWatchMetrics) RecordRun(ctx context.Context, outcome string) {
	m.put(ctx, MetricRunOutcome, 1, cwtypes.StandardUnitCount, cwtypes.Dimension{
		Name:  aws.String(DimOutcome),
		Value: aws.String(outcome),
	})
}

// RecordAlerts emits an AlertHours count with the Kind dimension.
func (m *CloudWatchMetrics) RecordAlerts(ctx context.Context, kind string, count int) {
	m.put(ctx, MetricAlertHours, float64(count), cwtypes.StandardUnitCount, cwtypes.Dimension{
		Name:  aws.String(DimKind),
		Value: aws.String(kind),
	})
}

// RecordDelivery emits a DeliveryAttempt count with the Result dimension.
func (m *CloudWatchMetrics) RecordDelivery(ctx context.Context, result string) {
	m.put(ctx, MetricDeliveryAttempt, 1, cwtypes.StandardUnitCount, cwtypes.Dimension{
		Name:  aws.String(DimResult),
		Value: aws.String(result),
	})
}

func (m *CloudWatchMetrics) put(ctx context.Context, name string, value float64, unit cwtypes.StandardUnit, dims ...cwtypes.Dimension) {
	input := &cloudwatch.PutMetricDataInput{
		Namespace: aws.String(m.namespace),
		MetricData: []cwtypes.MetricDatum{
			{
				MetricName: aws.String(name),
				Value:      aws.Float64(value),
				Unit:       unit,
				Dimensions: dims,
			},
		},
	}

	if _, err := m.client.PutMetricData(ctx, input); err != nil {
		m.logger.Error("failed to publish metric",
			"metric", name,
			"error", err.Error(),
		)
	}
}
