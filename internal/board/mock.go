package board

import "context"

// MockClient implements Client with overridable function fields for tests.
type MockClient struct {
	GetSchemaFunc   func(ctx context.Context, boardID string) (*Board, error)
	CreateItemFunc  func(ctx context.Context, req CreateItemRequest) (*Item, error)
	UpdateItemFunc  func(ctx context.Context, itemID string, columnValues map[string]any) (*Item, error)
	SearchItemsFunc func(ctx context.Context, boardID, query string, limit int) ([]Item, error)
	ItemNameFunc    func(ctx context.Context, itemID string) (string, error)
}

func (m *MockClient) GetSchema(ctx context.Context, boardID string) (*Board, error) {
	if m.GetSchemaFunc != nil {
		return m.GetSchemaFunc(ctx, boardID)
	}
	return &Board{ID: boardID, Name: "Mock Board"}, nil
}

func (m *MockClient) CreateItem(ctx context.Context, req CreateItemRequest) (*Item, error) {
	if m.CreateItemFunc != nil {
		return m.CreateItemFunc(ctx, req)
	}
	return &Item{ID: "1", Name: req.ItemName}, nil
}

func (m *MockClient) UpdateItem(ctx context.Context, itemID string, columnValues map[string]any) (*Item, error) {
	if m.UpdateItemFunc != nil {
		return m.UpdateItemFunc(ctx, itemID, columnValues)
	}
	return &Item{ID: itemID}, nil
}

func (m *MockClient) SearchItems(ctx context.Context, boardID, query string, limit int) ([]Item, error) {
	if m.SearchItemsFunc != nil {
		return m.SearchItemsFunc(ctx, boardID, query, limit)
	}
	return []Item{}, nil
}

func (m *MockClient) ItemName(ctx context.Context, itemID string) (string, error) {
	if m.ItemNameFunc != nil {
		return m.ItemNameFunc(ctx, itemID)
	}
	return "Mock Item", nil
}
