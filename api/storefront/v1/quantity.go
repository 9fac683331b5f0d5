package storefrontv1

import (
	"encoding/json"
	"math"
	"strconv"
)

// QtyText возвращает qty в том виде, в каком оно пришло по сети.
// Пустая строка означает, что сообщение собрано в коде и верно поле Qty.
func (r *AddItemRequest) QtyText() string { return r.qtyText }

// QtyText возвращает qty в том виде, в каком оно пришло по сети.
func (r *UpdateItemRequest) QtyText() string { return r.qtyText }

// UnmarshalJSON принимает любое JSON-число в qty, чтобы сервер сам ответил
// InvalidArgument на дробное или слишком большое количество.
func (r *AddItemRequest) UnmarshalJSON(data []byte) error {
	type plain AddItemRequest
	var aux struct {
		plain
		Qty json.Number `json:"qty"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*r = AddItemRequest(aux.plain)
	r.Qty, r.qtyText = splitQty(aux.Qty)
	return nil
}

// UnmarshalJSON см. AddItemRequest.UnmarshalJSON.
func (r *UpdateItemRequest) UnmarshalJSON(data []byte) error {
	type plain UpdateItemRequest
	var aux struct {
		plain
		Qty json.Number `json:"qty"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*r = UpdateItemRequest(aux.plain)
	r.Qty, r.qtyText = splitQty(aux.Qty)
	return nil
}

func splitQty(n json.Number) (int32, string) {
	text := n.String()
	if text == "" {
		return 0, ""
	}
	v, err := strconv.ParseInt(text, 10, 64)
	if err != nil || v < math.MinInt32 || v > math.MaxInt32 {
		return 0, text
	}
	return int32(v), text
}
