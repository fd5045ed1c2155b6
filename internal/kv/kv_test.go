package kv

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	_, ok, err := s.Get(ctx, "missing")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Fatal("expected missing key")
	}

	if err := s.Set(ctx, "k", "v"); err != nil {
		t.Fatalf("set: %v", err)
	}
	v, ok, err := s.Get(ctx, "k")
	if err != nil || !ok || v != "v" {
		t.Fatalf("get after set: v=%q ok=%v err=%v", v, ok, err)
	}

	if err := s.Remove(ctx, "k"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	_, ok, _ = s.Get(ctx, "k")
	if ok {
		t.Fatal("expected key gone after remove")
	}

	// removing an absent key is not an error
	if err := s.Remove(ctx, "k"); err != nil {
		t.Fatalf("remove absent: %v", err)
	}
}

// kvMock is a minimal in-memory DynamoDB mock keyed by kv_key.
type kvMock struct {
	mu    sync.Mutex
	table map[string]map[string]types.AttributeValue
}

func newKVMock() *kvMock {
	return &kvMock{table: map[string]map[string]types.AttributeValue{}}
}

func (m *kvMock) keyOf(attrs map[string]types.AttributeValue) (string, error) {
	v, ok := attrs["kv_key"]
	if !ok {
		return "", errors.New("missing kv_key")
	}
	return v.(*types.AttributeValueMemberS).Value, nil
}

func (m *kvMock) PutItem(ctx context.Context, params *dyn.PutItemInput, optFns ...func(*dyn.Options)) (*dyn.PutItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k, err := m.keyOf(params.Item)
	if err != nil {
		return nil, err
	}
	m.table[k] = params.Item
	return &dyn.PutItemOutput{}, nil
}

func (m *kvMock) GetItem(ctx context.Context, params *dyn.GetItemInput, optFns ...func(*dyn.Options)) (*dyn.GetItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k, err := m.keyOf(params.Key)
	if err != nil {
		return nil, err
	}
	item, ok := m.table[k]
	if !ok {
		return &dyn.GetItemOutput{}, nil
	}
	return &dyn.GetItemOutput{Item: item}, nil
}

func (m *kvMock) UpdateItem(ctx context.Context, params *dyn.UpdateItemInput, optFns ...func(*dyn.Options)) (*dyn.UpdateItemOutput, error) {
	return nil, errors.New("not used by DynamoStore")
}

func (m *kvMock) DeleteItem(ctx context.Context, params *dyn.DeleteItemInput, optFns ...func(*dyn.Options)) (*dyn.DeleteItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k, err := m.keyOf(params.Key)
	if err != nil {
		return nil, err
	}
	delete(m.table, k)
	return &dyn.DeleteItemOutput{}, nil
}

func (m *kvMock) TransactWriteItems(ctx context.Context, params *dyn.TransactWriteItemsInput, optFns ...func(*dyn.Options)) (*dyn.TransactWriteItemsOutput, error) {
	return nil, errors.New("not used by DynamoStore")
}

func TestDynamoStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	mock := newKVMock()
	s := NewDynamoStore(mock, "sessions", time.Hour)

	if err := s.Set(ctx, "cart:abc", `{"items":[]}`); err != nil {
		t.Fatalf("set: %v", err)
	}

	v, ok, err := s.Get(ctx, "cart:abc")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !ok || v != `{"items":[]}` {
		t.Fatalf("unexpected value: ok=%v v=%q", ok, v)
	}

	// ttl window stamps an expires_at attribute
	item := mock.table["cart:abc"]
	if _, ok := item["expires_at"]; !ok {
		t.Fatal("expected expires_at attribute with ttl window set")
	}

	if err := s.Remove(ctx, "cart:abc"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	_, ok, _ = s.Get(ctx, "cart:abc")
	if ok {
		t.Fatal("expected key gone after remove")
	}
}

func TestDynamoStore_NoTTL(t *testing.T) {
	ctx := context.Background()
	mock := newKVMock()
	s := NewDynamoStore(mock, "sessions", 0)

	if err := s.Set(ctx, "prefs:abc", `{}`); err != nil {
		t.Fatalf("set: %v", err)
	}
	item := mock.table["prefs:abc"]
	if _, ok := item["expires_at"]; ok {
		t.Fatal("expected no expires_at attribute without ttl window")
	}
}
