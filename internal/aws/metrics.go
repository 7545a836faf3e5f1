package aws

import (
	"context"
	"log"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
)

// Metrics emits operational counters to CloudWatch. Emission is best-effort:
// a metric failure must never fail the calling operation.
type Metrics struct {
	client    CloudWatchAPI
	namespace string
	nowFunc   func() time.Time
}

// NewMetrics returns a Metrics emitter. A nil client disables emission, which
// keeps tests and local runs quiet.
func NewMetrics(client CloudWatchAPI, namespace string) *Metrics {
	return &Metrics{
		client:    client,
		namespace: namespace,
		nowFunc:   time.Now,
	}
}

// Count emits a unit-count datapoint with optional dimensions.
func (m *Metrics) Count(ctx context.Context, name string, value float64, dims map[string]string) {
	if m == nil || m.client == nil {
		return
	}

	datum := cwtypes.MetricDatum{
		MetricName: awsString(name),
		Value:      &value,
		Unit:       cwtypes.StandardUnitCount,
	}
	ts := m.nowFunc()
	datum.Timestamp = &ts

	for k, v := range dims {
		datum.Dimensions = append(datum.Dimensions, cwtypes.Dimension{
			Name:  awsString(k),
			Value: awsString(v),
		})
	}

	_, err := m.client.PutMetricData(ctx, &cloudwatch.PutMetricDataInput{
		Namespace:  &m.namespace,
		MetricData: []cwtypes.MetricDatum{datum},
	})
	if err != nil {
		log.Printf("put metric %s: %v", name, err)
	}
}
