package board

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// graphqlServer records the last request and replies with the given data
// payload.
func graphqlServer(t *testing.T, data string) (*httptest.Server, *map[string]any) {
	t.Helper()
	var last map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.NotEmpty(t, r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&last))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data":` + data + `}`))
	}))
	t.Cleanup(srv.Close)
	return srv, &last
}

func TestGetSchema(t *testing.T) {
	srv, _ := graphqlServer(t, `{"boards":[{
		"id":"42","name":"Bids","description":"Pipeline",
		"columns":[{"id":"status","title":"Status","type":"color","settings_str":"{\"labels\":{\"0\":\"Open\"}}"}],
		"groups":[{"id":"g1","title":"Active"}]
	}]}`)

	c := NewMondayClient("tok", WithEndpoint(srv.URL))
	b, err := c.GetSchema(context.Background(), "42")
	require.NoError(t, err)
	assert.Equal(t, "Bids", b.Name)
	require.Len(t, b.Columns, 1)
	assert.Equal(t, map[string]string{"0": "Open"}, b.Columns[0].Settings.Labels)
	require.Len(t, b.Groups, 1)
	assert.Equal(t, "Active", b.Groups[0].Title)
}

func TestGetSchemaNotFound(t *testing.T) {
	srv, _ := graphqlServer(t, `{"boards":[]}`)

	c := NewMondayClient("tok", WithEndpoint(srv.URL))
	_, err := c.GetSchema(context.Background(), "99")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.Code)
}

func TestCreateItem(t *testing.T) {
	srv, last := graphqlServer(t, `{"create_item":{"id":"999","name":"Test","group":{"id":"g1","title":"Active"}}}`)

	c := NewMondayClient("tok", WithEndpoint(srv.URL))
	item, err := c.CreateItem(context.Background(), CreateItemRequest{
		BoardID:      "42",
		GroupID:      "g1",
		ItemName:     "Test",
		ColumnValues: map[string]any{"status": map[string]any{"label": "Open"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "999", item.ID)
	assert.Equal(t, "Test", item.Name)

	// column values travel as a JSON-encoded string variable
	vars := (*last)["variables"].(map[string]any)
	assert.Equal(t, "42", vars["boardId"])
	assert.Equal(t, "g1", vars["groupId"])
	var decoded map[string]any
	require.NoError(t, json.Unmarshal([]byte(vars["columnValues"].(string)), &decoded))
	assert.Contains(t, decoded, "status")
}

func TestCreateItemOmitsEmptyGroup(t *testing.T) {
	srv, last := graphqlServer(t, `{"create_item":{"id":"1","name":"X"}}`)

	c := NewMondayClient("tok", WithEndpoint(srv.URL))
	_, err := c.CreateItem(context.Background(), CreateItemRequest{BoardID: "42", ItemName: "X"})
	require.NoError(t, err)

	vars := (*last)["variables"].(map[string]any)
	assert.NotContains(t, vars, "groupId")
}

func TestUpdateItem(t *testing.T) {
	srv, last := graphqlServer(t, `{"change_multiple_column_values":{"id":"999","name":"Test"}}`)

	c := NewMondayClient("tok", WithEndpoint(srv.URL))
	item, err := c.UpdateItem(context.Background(), "999", map[string]any{"status": map[string]any{"label": "Won"}})
	require.NoError(t, err)
	assert.Equal(t, "999", item.ID)

	vars := (*last)["variables"].(map[string]any)
	assert.Equal(t, "999", vars["itemId"])
	assert.IsType(t, "", vars["columnValues"])
}

func TestSearchItemsClampsLimit(t *testing.T) {
	srv, last := graphqlServer(t, `{"boards":[{"items_page":{"items":[{"id":"1","name":"A","column_values":[{"id":"status","text":"Open"}]}]}}]}`)
	c := NewMondayClient("tok", WithEndpoint(srv.URL))

	items, err := c.SearchItems(context.Background(), "42", "acme", 500)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Open", items[0].ColumnValues[0].Text)
	vars := (*last)["variables"].(map[string]any)
	assert.Equal(t, float64(100), vars["limit"])

	_, err = c.SearchItems(context.Background(), "42", "acme", 0)
	require.NoError(t, err)
	vars = (*last)["variables"].(map[string]any)
	assert.Equal(t, float64(20), vars["limit"])
}

func TestItemName(t *testing.T) {
	srv, _ := graphqlServer(t, `{"items":[{"id":"7","name":"Acme Bid"}]}`)

	c := NewMondayClient("tok", WithEndpoint(srv.URL))
	name, err := c.ItemName(context.Background(), "7")
	require.NoError(t, err)
	assert.Equal(t, "Acme Bid", name)
}

func TestGraphQLErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"errors":[{"message":"Invalid board id"}]}`))
	}))
	defer srv.Close()

	c := NewMondayClient("tok", WithEndpoint(srv.URL))
	_, err := c.GetSchema(context.Background(), "bad")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Contains(t, apiErr.Message, "Invalid board id")
}

func TestHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := NewMondayClient("tok", WithEndpoint(srv.URL))
	_, err := c.SearchItems(context.Background(), "42", "x", 10)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.Code)
	assert.Contains(t, apiErr.Detail, "nope")
}
