package shipments

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"
	"github.com/openfulfil/go-courier-sync/internal/aws"
	"github.com/openfulfil/go-courier-sync/internal/status"
)

// AWBIndex is the GSI that resolves a waybill back to its order record;
// webhooks arrive keyed by AWB, not order id.
const AWBIndex = "awb-index"

// Store encapsulates shipment persistence against DynamoDB.
type Store struct {
	client    aws.DynamoDBAPI
	tableName string
	nowFunc   func() time.Time
}

// NewStore returns a configured Store.
func NewStore(client aws.DynamoDBAPI, tableName string) *Store {
	return &Store{
		client:    client,
		tableName: tableName,
		nowFunc:   time.Now,
	}
}

// Save writes the full shipment record. Manifest reads, merges, and saves
// under the per-order lock, so a plain put is safe here.
func (s *Store) Save(ctx context.Context, sh *Shipment) error {
	now := s.nowFunc()
	if sh.CreatedAt.IsZero() {
		sh.CreatedAt = now
	}
	sh.UpdatedAt = now

	item, err := attributevalue.MarshalMap(sh)
	if err != nil {
		return fmt.Errorf("marshal shipment: %w", err)
	}

	_, err = s.client.PutItem(ctx, &dyn.PutItemInput{
		TableName: &s.tableName,
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("put shipment: %w", err)
	}
	return nil
}

// Get fetches a shipment by order id. Returns (nil, nil) if not found.
func (s *Store) Get(ctx context.Context, orderID string) (*Shipment, error) {
	out, err := s.client.GetItem(ctx, &dyn.GetItemInput{
		TableName: &s.tableName,
		Key: map[string]types.AttributeValue{
			"order_id": &types.AttributeValueMemberS{Value: orderID},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("get shipment: %w", err)
	}
	if len(out.Item) == 0 {
		return nil, nil
	}
	var sh Shipment
	if err := attributevalue.UnmarshalMap(out.Item, &sh); err != nil {
		return nil, fmt.Errorf("unmarshal shipment: %w", err)
	}
	return &sh, nil
}

// GetByAWB resolves a waybill to its shipment via the AWB index. Returns
// (nil, nil) if no shipment carries the waybill.
func (s *Store) GetByAWB(ctx context.Context, awb string) (*Shipment, error) {
	out, err := s.client.Query(ctx, &dyn.QueryInput{
		TableName:              &s.tableName,
		IndexName:              awsString(AWBIndex),
		KeyConditionExpression: awsString("awb = :awb"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":awb": &types.AttributeValueMemberS{Value: awb},
		},
		Limit: awsInt32(1),
	})
	if err != nil {
		return nil, fmt.Errorf("query by awb: %w", err)
	}
	if len(out.Items) == 0 {
		return nil, nil
	}
	var sh Shipment
	if err := attributevalue.UnmarshalMap(out.Items[0], &sh); err != nil {
		return nil, fmt.Errorf("unmarshal shipment: %w", err)
	}
	return &sh, nil
}

// StatusUpdate carries the fields one applied event mutates.
type StatusUpdate struct {
	State      status.State
	StatusType string
	StatusText string
	NSLCode    string
	Location   string
	StatusAt   time.Time
	NDRActive  bool
	NDRReason  string
	ExpectedAt *time.Time
	Scan       ScanEntry
}

// ApplyStatus conditionally applies a status update, guarded on the stored
// last_status_at the caller read. A concurrent writer that slipped in first
// fails the condition; the caller treats that as a duplicate and skips side
// effects.
func (s *Store) ApplyStatus(ctx context.Context, orderID string, upd StatusUpdate, prevStatusAt *time.Time) error {
	now := s.nowFunc()

	scan, err := attributevalue.Marshal(upd.Scan)
	if err != nil {
		return fmt.Errorf("marshal scan entry: %w", err)
	}

	expr := "SET #st = :state, status_type = :stype, status_text = :stext, nsl_code = :nsl, " +
		"last_location = :loc, last_status_at = :at, ndr_active = :ndr, ndr_reason = :ndrr, " +
		"scan_history = list_append(if_not_exists(scan_history, :empty), :scan), updated_at = :ua"

	values := map[string]types.AttributeValue{
		":state": &types.AttributeValueMemberS{Value: string(upd.State)},
		":stype": &types.AttributeValueMemberS{Value: upd.StatusType},
		":stext": &types.AttributeValueMemberS{Value: upd.StatusText},
		":nsl":   &types.AttributeValueMemberS{Value: upd.NSLCode},
		":loc":   &types.AttributeValueMemberS{Value: upd.Location},
		":at":    &types.AttributeValueMemberS{Value: upd.StatusAt.UTC().Format(time.RFC3339Nano)},
		":ndr":   &types.AttributeValueMemberBOOL{Value: upd.NDRActive},
		":ndrr":  &types.AttributeValueMemberS{Value: upd.NDRReason},
		":empty": &types.AttributeValueMemberL{Value: []types.AttributeValue{}},
		":scan":  &types.AttributeValueMemberL{Value: []types.AttributeValue{scan}},
		":ua":    &types.AttributeValueMemberS{Value: now.UTC().Format(time.RFC3339Nano)},
	}

	condition := "attribute_not_exists(last_status_at)"
	if prevStatusAt != nil {
		condition = "last_status_at = :prev"
		values[":prev"] = &types.AttributeValueMemberS{Value: prevStatusAt.UTC().Format(time.RFC3339Nano)}
	}

	if upd.ExpectedAt != nil {
		expr += ", expected_at = :exp"
		values[":exp"] = &types.AttributeValueMemberS{Value: upd.ExpectedAt.UTC().Format(time.RFC3339Nano)}
	}

	_, err = s.client.UpdateItem(ctx, &dyn.UpdateItemInput{
		TableName: &s.tableName,
		Key: map[string]types.AttributeValue{
			"order_id": &types.AttributeValueMemberS{Value: orderID},
		},
		UpdateExpression:          &expr,
		ExpressionAttributeNames:  map[string]string{"#st": "state"},
		ExpressionAttributeValues: values,
		ConditionExpression:       &condition,
	})
	if err != nil {
		if isConditionalCheckFailed(err) {
			return ErrStaleEvent
		}
		return fmt.Errorf("apply status: %w", err)
	}
	return nil
}

// The SDK surfaces condition failures either as the typed exception or, on
// some code paths, only as a generic API error carrying the code string.
func isConditionalCheckFailed(err error) bool {
	var cc *types.ConditionalCheckFailedException
	if errors.As(err, &cc) {
		return true
	}
	var sc smithy.APIError
	return errors.As(err, &sc) && sc.ErrorCode() == "ConditionalCheckFailedException"
}

// MarkCancelled retires the active waybill and bumps the manifest attempt
// counter so the next order reference differs from all prior ones. The raw
// status fields are rewritten too: the classifier reads those, and they must
// agree with the cancelled state or later precondition checks would treat
// the record as still live.
func (s *Store) MarkCancelled(ctx context.Context, orderID, awb string) error {
	now := s.nowFunc()

	_, err := s.client.UpdateItem(ctx, &dyn.UpdateItemInput{
		TableName: &s.tableName,
		Key: map[string]types.AttributeValue{
			"order_id": &types.AttributeValueMemberS{Value: orderID},
		},
		UpdateExpression: awsString("SET #st = :cancelled, status_type = :ctype, status_text = :ctext, " +
			"ndr_active = :false, " +
			"manifest_attempts = if_not_exists(manifest_attempts, :zero) + :one, " +
			"retired_awbs = list_append(if_not_exists(retired_awbs, :empty), :awb), updated_at = :ua " +
			"REMOVE awb"),
		ExpressionAttributeNames: map[string]string{"#st": "state"},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":cancelled": &types.AttributeValueMemberS{Value: string(status.StateCancelled)},
			":ctype":     &types.AttributeValueMemberS{Value: "CN"},
			":ctext":     &types.AttributeValueMemberS{Value: "Cancelled"},
			":false":     &types.AttributeValueMemberBOOL{Value: false},
			":zero":      &types.AttributeValueMemberN{Value: "0"},
			":one":       &types.AttributeValueMemberN{Value: "1"},
			":empty":     &types.AttributeValueMemberL{Value: []types.AttributeValue{}},
			":awb": &types.AttributeValueMemberL{Value: []types.AttributeValue{
				&types.AttributeValueMemberS{Value: awb},
			}},
			":ua": &types.AttributeValueMemberS{Value: now.UTC().Format(time.RFC3339Nano)},
		},
	})
	if err != nil {
		return fmt.Errorf("mark cancelled: %w", err)
	}
	return nil
}

// SetReturnAWB records the reverse-pickup waybill created after delivery.
func (s *Store) SetReturnAWB(ctx context.Context, orderID, returnAWB string) error {
	now := s.nowFunc()
	_, err := s.client.UpdateItem(ctx, &dyn.UpdateItemInput{
		TableName: &s.tableName,
		Key: map[string]types.AttributeValue{
			"order_id": &types.AttributeValueMemberS{Value: orderID},
		},
		UpdateExpression: awsString("SET return_awb = :r, updated_at = :ua"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":r":  &types.AttributeValueMemberS{Value: returnAWB},
			":ua": &types.AttributeValueMemberS{Value: now.UTC().Format(time.RFC3339Nano)},
		},
	})
	if err != nil {
		return fmt.Errorf("set return awb: %w", err)
	}
	return nil
}

// ListOpen returns shipments whose state is not terminal. The poller feeds
// these to the batch tracker.
func (s *Store) ListOpen(ctx context.Context) ([]Shipment, error) {
	out, err := s.client.Scan(ctx, &dyn.ScanInput{
		TableName:        &s.tableName,
		FilterExpression: awsString("NOT #st IN (:dl, :rto, :dto, :cn)"),
		ExpressionAttributeNames: map[string]string{
			"#st": "state",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":dl":  &types.AttributeValueMemberS{Value: string(status.StateDelivered)},
			":rto": &types.AttributeValueMemberS{Value: string(status.StateReturnCompleted)},
			":dto": &types.AttributeValueMemberS{Value: string(status.StateReversePickupCompleted)},
			":cn":  &types.AttributeValueMemberS{Value: string(status.StateCancelled)},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("scan open shipments: %w", err)
	}

	shipments := make([]Shipment, 0, len(out.Items))
	for _, item := range out.Items {
		var sh Shipment
		if err := attributevalue.UnmarshalMap(item, &sh); err != nil {
			return nil, fmt.Errorf("unmarshal shipment: %w", err)
		}
		shipments = append(shipments, sh)
	}
	return shipments, nil
}

func awsString(s string) *string { return &s }
func awsInt32(n int32) *int32    { return &n }
