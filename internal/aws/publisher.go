package aws

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqstypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"
)

// Event kinds handed off to the order-management side.
const (
	EventOrderStatus  = "order.status"
	EventNotification = "notification.trigger"
)

// Publisher wraps an SQS client and a queue URL. The order-management system
// consumes this queue to sync order statuses and fire customer notifications.
type Publisher struct {
	SQS      SQSAPI
	QueueURL string
}

// NewPublisher returns a Publisher bound to a queue URL.
func NewPublisher(sqsClient SQSAPI, queueURL string) *Publisher {
	return &Publisher{
		SQS:      sqsClient,
		QueueURL: queueURL,
	}
}

// OrderStatusEvent tells order management to move an order to a new status.
type OrderStatusEvent struct {
	OrderID     string `json:"order_id"`
	AWB         string `json:"awb"`
	OrderStatus string `json:"order_status"`
	State       string `json:"shipment_state"`
}

// NotificationEvent asks the notification pipeline to contact the customer.
// Content and delivery channel are decided downstream.
type NotificationEvent struct {
	OrderID string `json:"order_id"`
	AWB     string `json:"awb"`
	Kind    string `json:"kind"` // e.g. "ndr_detected"
	Reason  string `json:"reason,omitempty"`
}

// PublishOrderStatus sends an order-status sync event.
func (p *Publisher) PublishOrderStatus(ctx context.Context, ev OrderStatusEvent) error {
	return p.send(ctx, EventOrderStatus, ev, map[string]string{
		"order_id": ev.OrderID,
		"awb":      ev.AWB,
	})
}

// PublishNotification sends a notification-trigger event.
func (p *Publisher) PublishNotification(ctx context.Context, ev NotificationEvent) error {
	return p.send(ctx, EventNotification, ev, map[string]string{
		"order_id": ev.OrderID,
		"awb":      ev.AWB,
	})
}

func (p *Publisher) send(ctx context.Context, eventType string, payload interface{}, attributes map[string]string) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	messageBody := string(body)
	input := &sqs.SendMessageInput{
		QueueUrl:    &p.QueueURL,
		MessageBody: &messageBody,
	}

	msgAttrs := map[string]sqstypes.MessageAttributeValue{
		"event_type": {
			DataType:    awsString("String"),
			StringValue: awsString(eventType),
		},
	}
	for k, v := range attributes {
		msgAttrs[k] = sqstypes.MessageAttributeValue{
			DataType:    awsString("String"),
			StringValue: awsString(v),
		}
	}
	input.MessageAttributes = msgAttrs

	if _, err := p.SQS.SendMessage(ctx, input); err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	return nil
}

// awsString helper
func awsString(s string) *string { return &s }
