package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imrishuroy/go-storefront-api/internal/catalog"
	"github.com/imrishuroy/go-storefront-api/internal/kv"
)

// --- in-memory fakes ---

type fakeDynamo struct {
	mu     sync.Mutex
	tables map[string]map[string]map[string]types.AttributeValue
}

func newFakeDynamo() *fakeDynamo {
	return &fakeDynamo{tables: map[string]map[string]map[string]types.AttributeValue{}}
}

func (m *fakeDynamo) ensure(tbl string) {
	if _, ok := m.tables[tbl]; !ok {
		m.tables[tbl] = map[string]map[string]types.AttributeValue{}
	}
}

func itemPK(attrs map[string]types.AttributeValue) (string, error) {
	for _, name := range []string{"idempotency_key", "checkout_id", "kv_key"} {
		if v, ok := attrs[name]; ok {
			return v.(*types.AttributeValueMemberS).Value, nil
		}
	}
	return "", errors.New("no primary key present")
}

func (m *fakeDynamo) PutItem(ctx context.Context, params *dyn.PutItemInput, optFns ...func(*dyn.Options)) (*dyn.PutItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ensure(*params.TableName)
	pk, err := itemPK(params.Item)
	if err != nil {
		return nil, err
	}
	m.tables[*params.TableName][pk] = params.Item
	return &dyn.PutItemOutput{}, nil
}

func (m *fakeDynamo) GetItem(ctx context.Context, params *dyn.GetItemInput, optFns ...func(*dyn.Options)) (*dyn.GetItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ensure(*params.TableName)
	pk, err := itemPK(params.Key)
	if err != nil {
		return nil, err
	}
	item, ok := m.tables[*params.TableName][pk]
	if !ok {
		return &dyn.GetItemOutput{}, nil
	}
	return &dyn.GetItemOutput{Item: item}, nil
}

func (m *fakeDynamo) UpdateItem(ctx context.Context, params *dyn.UpdateItemInput, optFns ...func(*dyn.Options)) (*dyn.UpdateItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ensure(*params.TableName)
	pk, err := itemPK(params.Key)
	if err != nil {
		return nil, err
	}
	item, ok := m.tables[*params.TableName][pk]
	if !ok {
		return nil, errors.New("item not found")
	}
	for attr, val := range map[string]string{":done": "status", ":failed": "status", ":rb": "response_body", ":rs": "response_status", ":ua": "updated_at"} {
		if v, ok := params.ExpressionAttributeValues[attr]; ok {
			item[val] = v
		}
	}
	m.tables[*params.TableName][pk] = item
	return &dyn.UpdateItemOutput{}, nil
}

func (m *fakeDynamo) DeleteItem(ctx context.Context, params *dyn.DeleteItemInput, optFns ...func(*dyn.Options)) (*dyn.DeleteItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ensure(*params.TableName)
	pk, err := itemPK(params.Key)
	if err != nil {
		return nil, err
	}
	delete(m.tables[*params.TableName], pk)
	return &dyn.DeleteItemOutput{}, nil
}

func (m *fakeDynamo) TransactWriteItems(ctx context.Context, params *dyn.TransactWriteItemsInput, optFns ...func(*dyn.Options)) (*dyn.TransactWriteItemsOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, it := range params.TransactItems {
		if p := it.Put; p != nil && p.ConditionExpression != nil && *p.ConditionExpression == "attribute_not_exists(idempotency_key)" {
			m.ensure(*p.TableName)
			pk, err := itemPK(p.Item)
			if err != nil {
				return nil, err
			}
			if _, exists := m.tables[*p.TableName][pk]; exists {
				return nil, &types.TransactionCanceledException{}
			}
		}
	}
	for _, it := range params.TransactItems {
		if p := it.Put; p != nil {
			m.ensure(*p.TableName)
			pk, err := itemPK(p.Item)
			if err != nil {
				return nil, err
			}
			m.tables[*p.TableName][pk] = p.Item
		}
	}
	return &dyn.TransactWriteItemsOutput{}, nil
}

type fakeSQS struct {
	mu   sync.Mutex
	sent []string
}

func (m *fakeSQS) SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, *params.MessageBody)
	return &sqs.SendMessageOutput{}, nil
}

// --- harness ---

func testProducts() []catalog.Product {
	return []catalog.Product{
		{ID: "lamp", Name: "Desk Lamp", Category: "lighting", Price: 35, OriginalPrice: 50, Stock: 12, Rating: 4.0},
		{ID: "chair", Name: "Office Chair", Category: "furniture", Price: 220, Stock: 0, Rating: 4.8},
		{ID: "desk", Name: "Walnut Desk", Category: "furniture", Price: 450, Stock: 3, Rating: 4.5},
	}
}

func newTestRouter(t *testing.T) (*gin.Engine, *fakeSQS) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	queue := &fakeSQS{}
	cfg := HandlerConfig{
		Snapshot:         catalog.NewSnapshotCache(&catalog.StaticSource{Products: testProducts()}, time.Minute),
		KV:               kv.NewMemoryStore(),
		DynamoDBClient:   newFakeDynamo(),
		SQSClient:        queue,
		IdempotencyTable: "idempotency",
		CheckoutsTable:   "checkouts",
		QueueURL:         "https://sqs.test/queue",
		TTLWindow:        48 * time.Hour,
	}

	r := gin.New()
	RegisterRoutes(r, cfg)
	return r, queue
}

func doJSON(t *testing.T, r *gin.Engine, method, path, body string, headers map[string]string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var decoded map[string]interface{}
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &decoded), "response body: %s", w.Body.String())
	}
	return w, decoded
}

// --- tests ---

func TestGetProducts_FilterSortPaginate(t *testing.T) {
	r, _ := newTestRouter(t)

	w, body := doJSON(t, r, http.MethodGet, "/products?category=furniture&sortBy=price-high&page=1&limit=10", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	assert.EqualValues(t, 2, body["totalCount"])
	assert.EqualValues(t, 1, body["totalPages"])
	page := body["products"].([]interface{})
	require.Len(t, page, 2)
	assert.Equal(t, "desk", page[0].(map[string]interface{})["id"])
	assert.Equal(t, "chair", page[1].(map[string]interface{})["id"])
}

func TestGetProducts_MalformedParamsFailOpen(t *testing.T) {
	r, _ := newTestRouter(t)

	w, body := doJSON(t, r, http.MethodGet, "/products?page=banana&limit=-2&minPrice=oops&rating=zz", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 3, body["totalCount"])
	assert.EqualValues(t, 1, body["page"])
}

func TestGetProduct_ByID(t *testing.T) {
	r, _ := newTestRouter(t)

	w, body := doJSON(t, r, http.MethodGet, "/products/lamp", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, body["onSale"])
	assert.EqualValues(t, 30, body["discountPercent"])

	w, _ = doJSON(t, r, http.MethodGet, "/products/ghost", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCartFlow(t *testing.T) {
	r, _ := newTestRouter(t)

	// add twice -> one merged line
	w, _ := doJSON(t, r, http.MethodPost, "/carts/s1/items", `{"productId":"lamp","quantity":2}`, nil)
	require.Equal(t, http.StatusOK, w.Code)
	w, body := doJSON(t, r, http.MethodPost, "/carts/s1/items", `{"productId":"lamp","quantity":3}`, nil)
	require.Equal(t, http.StatusOK, w.Code)

	assert.EqualValues(t, 5, body["itemCount"])
	assert.EqualValues(t, 175, body["total"])
	require.Len(t, body["items"].([]interface{}), 1)

	// set quantity
	w, body = doJSON(t, r, http.MethodPut, "/carts/s1/items/lamp", `{"quantity":1}`, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, body["itemCount"])

	// remove then clear
	w, body = doJSON(t, r, http.MethodDelete, "/carts/s1/items/lamp", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 0, body["itemCount"])

	w, _ = doJSON(t, r, http.MethodDelete, "/carts/s1", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCart_OutOfStockRejected(t *testing.T) {
	r, _ := newTestRouter(t)

	w, body := doJSON(t, r, http.MethodPost, "/carts/s1/items", `{"productId":"chair","quantity":1}`, nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "out_of_stock", body["error"])
}

func TestCart_UnknownProductRejected(t *testing.T) {
	r, _ := newTestRouter(t)

	w, _ := doJSON(t, r, http.MethodPost, "/carts/s1/items", `{"productId":"ghost","quantity":1}`, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPreferences(t *testing.T) {
	r, _ := newTestRouter(t)

	// defaults before anything is stored
	w, body := doJSON(t, r, http.MethodGet, "/preferences/s1", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "light", body["theme"])
	assert.Equal(t, "en", body["language"])
	assert.Equal(t, "medium", body["fontSize"])

	// partial update keeps unspecified fields
	w, body = doJSON(t, r, http.MethodPut, "/preferences/s1", `{"theme":"dark"}`, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "dark", body["theme"])
	assert.Equal(t, "en", body["language"])

	// invalid value rejected
	w, _ = doJSON(t, r, http.MethodPut, "/preferences/s1", `{"fontSize":"enormous"}`, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCheckout_HappyPathAndReplay(t *testing.T) {
	r, queue := newTestRouter(t)

	// build a cart worth 70.00
	w, _ := doJSON(t, r, http.MethodPost, "/carts/s1/items", `{"productId":"lamp","quantity":2}`, nil)
	require.Equal(t, http.StatusOK, w.Code)

	reqBody := `{"items":[{"productId":"lamp","quantity":2,"price":35}],"amount":70}`
	headers := map[string]string{"Idempotency-Key": "key-1"}

	w, body := doJSON(t, r, http.MethodPost, "/carts/s1/checkout", reqBody, headers)
	require.Equal(t, http.StatusCreated, w.Code, "body: %v", body)
	checkoutID := body["checkout_id"].(string)
	assert.NotEmpty(t, checkoutID)
	assert.Equal(t, "PENDING", body["status"])
	assert.Len(t, queue.sent, 1)

	// duplicate key replays the stored response without a second enqueue
	w, body = doJSON(t, r, http.MethodPost, "/carts/s1/checkout", reqBody, headers)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, checkoutID, body["checkout_id"])
	assert.Len(t, queue.sent, 1)

	// the checkout record is queryable
	w, _ = doJSON(t, r, http.MethodGet, "/checkouts/"+checkoutID, "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCheckout_RequiresIdempotencyKey(t *testing.T) {
	r, _ := newTestRouter(t)

	w, _ := doJSON(t, r, http.MethodPost, "/carts/s1/items", `{"productId":"lamp","quantity":1}`, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w, body := doJSON(t, r, http.MethodPost, "/carts/s1/checkout", `{"items":[{"productId":"lamp","quantity":1,"price":35}],"amount":35}`, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "missing_idempotency_key", body["error"])
}

func TestCheckout_EmptyCartAndAmountMismatch(t *testing.T) {
	r, _ := newTestRouter(t)
	headers := map[string]string{"Idempotency-Key": "key-2"}

	// empty cart
	w, body := doJSON(t, r, http.MethodPost, "/carts/empty/checkout", `{"items":[{"productId":"lamp","quantity":1,"price":35}],"amount":35}`, headers)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "cart_empty", body["error"])

	// cart changed since client rendered it
	w, _ = doJSON(t, r, http.MethodPost, "/carts/s1/items", `{"productId":"lamp","quantity":2}`, nil)
	require.Equal(t, http.StatusOK, w.Code)
	w, body = doJSON(t, r, http.MethodPost, "/carts/s1/checkout", `{"items":[{"productId":"lamp","quantity":1,"price":35}],"amount":35}`, headers)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "cart_changed", body["error"])
}
