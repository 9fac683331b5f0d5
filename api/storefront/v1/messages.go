package storefrontv1

// OrderStatus - статус заказа в контракте.
type OrderStatus string

const (
	OrderStatusUnspecified OrderStatus = ""
	OrderStatusPending     OrderStatus = "PENDING"
	OrderStatusConfirmed   OrderStatus = "CONFIRMED"
	OrderStatusShipped     OrderStatus = "SHIPPED"
	OrderStatusDelivered   OrderStatus = "DELIVERED"
	OrderStatusCancelled   OrderStatus = "CANCELLED"
)

type Product struct {
	Id          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	PriceMinor  int64  `json:"price_minor"`
	Price       string `json:"price"`
	Stock       int32  `json:"stock"`
	ImageUrl    string `json:"image_url,omitempty"`
	Category    string `json:"category"`
}

type CartItem struct {
	ProductId      string `json:"product_id"`
	Name           string `json:"name"`
	PriceMinor     int64  `json:"price_minor"`
	Qty            int32  `json:"qty"`
	LineTotalMinor int64  `json:"line_total_minor"`
}

type Summary struct {
	SubtotalMinor int64  `json:"subtotal_minor"`
	ShippingMinor int64  `json:"shipping_minor"`
	TaxMinor      int64  `json:"tax_minor"`
	TotalMinor    int64  `json:"total_minor"`
	Currency      string `json:"currency"`
	Total         string `json:"total"`
}

type Cart struct {
	Id         string      `json:"id"`
	VisitorId  string      `json:"visitor_id"`
	Items      []*CartItem `json:"items"`
	TotalMinor int64       `json:"total_minor"`
	Version    int64       `json:"version"`
	Summary    *Summary    `json:"summary,omitempty"`
}

type OrderItem struct {
	Id         string `json:"id"`
	ProductId  string `json:"product_id"`
	Name       string `json:"name"`
	PriceMinor int64  `json:"price_minor"`
	Qty        int32  `json:"qty"`
}

type Order struct {
	Id         string       `json:"id"`
	VisitorId  string       `json:"visitor_id"`
	Status     OrderStatus  `json:"status"`
	Items      []*OrderItem `json:"items"`
	TotalMinor int64        `json:"total_minor"`
	Total      string       `json:"total"`
	Version    int64        `json:"version"`
	CreatedAt  int64        `json:"created_at_unix"`
}

type TimelineEvent struct {
	Type     string      `json:"type"`
	Status   OrderStatus `json:"status,omitempty"`
	Reason   string      `json:"reason,omitempty"`
	UnixTime int64       `json:"unix_time"`
}

type ListProductsRequest struct{}

type ListProductsResponse struct {
	Products []*Product `json:"products"`
}

type GetProductRequest struct {
	ProductId string `json:"product_id"`
}

type GetProductResponse struct {
	Product *Product `json:"product"`
}

type AddItemRequest struct {
	VisitorId string `json:"visitor_id"`
	ProductId string `json:"product_id"`
	Qty       int32  `json:"qty"`

	qtyText string
}

type UpdateItemRequest struct {
	VisitorId string `json:"visitor_id"`
	ProductId string `json:"product_id"`
	Qty       int32  `json:"qty"`

	qtyText string
}

type RemoveItemRequest struct {
	VisitorId string `json:"visitor_id"`
	ProductId string `json:"product_id"`
}

type CartRequest struct {
	VisitorId string `json:"visitor_id"`
}

type CartResponse struct {
	Cart *Cart `json:"cart"`
}

type CheckoutRequest struct {
	VisitorId string `json:"visitor_id"`
}

type OrderResponse struct {
	Order *Order `json:"order"`
}

type OrderActionRequest struct {
	OrderId string `json:"order_id"`
}

type CancelOrderRequest struct {
	OrderId string `json:"order_id"`
	Reason  string `json:"reason,omitempty"`
}

type GetOrderRequest struct {
	OrderId string `json:"order_id"`
}

type GetOrderResponse struct {
	Order    *Order           `json:"order"`
	Timeline []*TimelineEvent `json:"timeline"`
}

type ListOrdersRequest struct {
	VisitorId string `json:"visitor_id"`
	PageSize  int32  `json:"page_size,omitempty"`
}

type ListOrdersResponse struct {
	Orders []*Order `json:"orders"`
}

func (x *CheckoutRequest) GetVisitorId() string {
	if x != nil {
		return x.VisitorId
	}
	return ""
}

func (x *CancelOrderRequest) GetOrderId() string {
	if x != nil {
		return x.OrderId
	}
	return ""
}

func (x *OrderResponse) GetOrder() *Order {
	if x != nil {
		return x.Order
	}
	return nil
}

func (x *Order) GetId() string {
	if x != nil {
		return x.Id
	}
	return ""
}

func (x *Order) GetStatus() OrderStatus {
	if x != nil {
		return x.Status
	}
	return OrderStatusUnspecified
}
