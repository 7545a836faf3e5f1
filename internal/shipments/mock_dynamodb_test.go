package shipments

import (
	"context"
	"errors"
	"strconv"
	"sync"

	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// dynamoMock is a small in-memory stand-in for the DynamoDB operations the
// store uses. It implements just enough of the update and condition
// expressions the store actually issues.
type dynamoMock struct {
	mu    sync.Mutex
	table map[string]map[string]types.AttributeValue

	putCalls    int
	getCalls    int
	updateCalls int
	queryCalls  int
	scanCalls   int
}

func newDynamoMock() *dynamoMock {
	return &dynamoMock{table: map[string]map[string]types.AttributeValue{}}
}

func stringAttr(item map[string]types.AttributeValue, name string) string {
	if v, ok := item[name].(*types.AttributeValueMemberS); ok {
		return v.Value
	}
	return ""
}

func (m *dynamoMock) PutItem(ctx context.Context, params *dyn.PutItemInput, optFns ...func(*dyn.Options)) (*dyn.PutItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.putCalls++
	if params.Item == nil {
		return nil, errors.New("nil item")
	}
	k := stringAttr(params.Item, "order_id")
	if k == "" {
		return nil, errors.New("missing order_id")
	}
	m.table[k] = params.Item
	return &dyn.PutItemOutput{}, nil
}

func (m *dynamoMock) GetItem(ctx context.Context, params *dyn.GetItemInput, optFns ...func(*dyn.Options)) (*dyn.GetItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.getCalls++
	k := stringAttr(params.Key, "order_id")
	item, ok := m.table[k]
	if !ok {
		return &dyn.GetItemOutput{}, nil
	}
	return &dyn.GetItemOutput{Item: item}, nil
}

func (m *dynamoMock) Query(ctx context.Context, params *dyn.QueryInput, optFns ...func(*dyn.Options)) (*dyn.QueryOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queryCalls++
	// only the awb index query is issued
	want, ok := params.ExpressionAttributeValues[":awb"].(*types.AttributeValueMemberS)
	if !ok {
		return nil, errors.New("unexpected query expression")
	}
	for _, item := range m.table {
		if stringAttr(item, "awb") == want.Value {
			return &dyn.QueryOutput{Items: []map[string]types.AttributeValue{item}}, nil
		}
	}
	return &dyn.QueryOutput{}, nil
}

func (m *dynamoMock) UpdateItem(ctx context.Context, params *dyn.UpdateItemInput, optFns ...func(*dyn.Options)) (*dyn.UpdateItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.updateCalls++

	k := stringAttr(params.Key, "order_id")
	item, ok := m.table[k]
	if !ok {
		return nil, errors.New("item not found")
	}
	vals := params.ExpressionAttributeValues

	// conditional status apply, guarded on last_status_at
	if params.ConditionExpression != nil {
		switch *params.ConditionExpression {
		case "attribute_not_exists(last_status_at)":
			if _, exists := item["last_status_at"]; exists {
				return nil, &types.ConditionalCheckFailedException{}
			}
		case "last_status_at = :prev":
			prev, _ := vals[":prev"].(*types.AttributeValueMemberS)
			if prev == nil || stringAttr(item, "last_status_at") != prev.Value {
				return nil, &types.ConditionalCheckFailedException{}
			}
		default:
			return nil, errors.New("unexpected condition: " + *params.ConditionExpression)
		}
	}

	if v, ok := vals[":state"]; ok {
		item["state"] = v
		item["status_type"] = vals[":stype"]
		item["status_text"] = vals[":stext"]
		item["nsl_code"] = vals[":nsl"]
		item["last_location"] = vals[":loc"]
		item["last_status_at"] = vals[":at"]
		item["ndr_active"] = vals[":ndr"]
		item["ndr_reason"] = vals[":ndrr"]
		appendList(item, "scan_history", vals[":scan"])
	}
	if v, ok := vals[":cancelled"]; ok {
		item["state"] = v
		item["status_type"] = vals[":ctype"]
		item["status_text"] = vals[":ctext"]
		item["ndr_active"] = vals[":false"]
		bumpNumber(item, "manifest_attempts")
		appendList(item, "retired_awbs", vals[":awb"])
		delete(item, "awb") // the waybill is retired, never reused
	}
	if v, ok := vals[":r"]; ok {
		item["return_awb"] = v
	}
	if v, ok := vals[":exp"]; ok {
		item["expected_at"] = v
	}
	if v, ok := vals[":ua"]; ok {
		item["updated_at"] = v
	}

	m.table[k] = item
	return &dyn.UpdateItemOutput{Attributes: item}, nil
}

func (m *dynamoMock) Scan(ctx context.Context, params *dyn.ScanInput, optFns ...func(*dyn.Options)) (*dyn.ScanOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scanCalls++

	terminal := map[string]bool{}
	for _, token := range []string{":dl", ":rto", ":dto", ":cn"} {
		if v, ok := params.ExpressionAttributeValues[token].(*types.AttributeValueMemberS); ok {
			terminal[v.Value] = true
		}
	}

	out := &dyn.ScanOutput{}
	for _, item := range m.table {
		if terminal[stringAttr(item, "state")] {
			continue
		}
		out.Items = append(out.Items, item)
	}
	return out, nil
}

func appendList(item map[string]types.AttributeValue, name string, v types.AttributeValue) {
	add, ok := v.(*types.AttributeValueMemberL)
	if !ok {
		return
	}
	existing, ok := item[name].(*types.AttributeValueMemberL)
	if !ok {
		existing = &types.AttributeValueMemberL{}
	}
	item[name] = &types.AttributeValueMemberL{Value: append(existing.Value, add.Value...)}
}

func bumpNumber(item map[string]types.AttributeValue, name string) {
	cur := 0
	if n, ok := item[name].(*types.AttributeValueMemberN); ok {
		cur, _ = strconv.Atoi(n.Value)
	}
	item[name] = &types.AttributeValueMemberN{Value: strconv.Itoa(cur + 1)}
}
