package storefrontv1

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAddItemRequest_UnmarshalKeepsQtyText(t *testing.T) {
	var req AddItemRequest
	require.NoError(t, json.Unmarshal([]byte(`{"visitor_id":"v1","product_id":"prod_001","qty":3}`), &req))
	require.Equal(t, "v1", req.VisitorId)
	require.Equal(t, "prod_001", req.ProductId)
	require.Equal(t, int32(3), req.Qty)
	require.Equal(t, "3", req.QtyText())

	req = AddItemRequest{}
	require.NoError(t, json.Unmarshal([]byte(`{"visitor_id":"v1","product_id":"prod_001","qty":1.5}`), &req))
	require.Zero(t, req.Qty)
	require.Equal(t, "1.5", req.QtyText())

	req = AddItemRequest{}
	require.NoError(t, json.Unmarshal([]byte(`{"visitor_id":"v1","qty":3e9}`), &req))
	require.Zero(t, req.Qty)
	require.Equal(t, "3e9", req.QtyText())

	require.Error(t, json.Unmarshal([]byte(`{"qty":"many"}`), &req))
}

func TestUpdateItemRequest_UnmarshalWithoutQty(t *testing.T) {
	var req UpdateItemRequest
	require.NoError(t, json.Unmarshal([]byte(`{"visitor_id":"v1","product_id":"prod_002"}`), &req))
	require.Zero(t, req.Qty)
	require.Empty(t, req.QtyText())

	data, err := json.Marshal(&UpdateItemRequest{VisitorId: "v1", ProductId: "prod_002", Qty: 4})
	require.NoError(t, err)
	require.JSONEq(t, `{"visitor_id":"v1","product_id":"prod_002","qty":4}`, string(data))
}
