package storefrontv1

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// ServiceName - полное имя gRPC-сервиса.
const ServiceName = "storefront.v1.StorefrontService"

const (
	StorefrontService_ListProducts_FullMethodName = "/storefront.v1.StorefrontService/ListProducts"
	StorefrontService_GetProduct_FullMethodName   = "/storefront.v1.StorefrontService/GetProduct"
	StorefrontService_AddItem_FullMethodName      = "/storefront.v1.StorefrontService/AddItem"
	StorefrontService_UpdateItem_FullMethodName   = "/storefront.v1.StorefrontService/UpdateItem"
	StorefrontService_RemoveItem_FullMethodName   = "/storefront.v1.StorefrontService/RemoveItem"
	StorefrontService_ClearCart_FullMethodName    = "/storefront.v1.StorefrontService/ClearCart"
	StorefrontService_GetCart_FullMethodName      = "/storefront.v1.StorefrontService/GetCart"
	StorefrontService_Checkout_FullMethodName     = "/storefront.v1.StorefrontService/Checkout"
	StorefrontService_GetOrder_FullMethodName     = "/storefront.v1.StorefrontService/GetOrder"
	StorefrontService_ListOrders_FullMethodName   = "/storefront.v1.StorefrontService/ListOrders"
	StorefrontService_ConfirmOrder_FullMethodName = "/storefront.v1.StorefrontService/ConfirmOrder"
	StorefrontService_ShipOrder_FullMethodName    = "/storefront.v1.StorefrontService/ShipOrder"
	StorefrontService_DeliverOrder_FullMethodName = "/storefront.v1.StorefrontService/DeliverOrder"
	StorefrontService_CancelOrder_FullMethodName  = "/storefront.v1.StorefrontService/CancelOrder"
)

// StorefrontServiceClient - клиентский API StorefrontService.
type StorefrontServiceClient interface {
	ListProducts(ctx context.Context, in *ListProductsRequest, opts ...grpc.CallOption) (*ListProductsResponse, error)
	GetProduct(ctx context.Context, in *GetProductRequest, opts ...grpc.CallOption) (*GetProductResponse, error)
	AddItem(ctx context.Context, in *AddItemRequest, opts ...grpc.CallOption) (*CartResponse, error)
	UpdateItem(ctx context.Context, in *UpdateItemRequest, opts ...grpc.CallOption) (*CartResponse, error)
	RemoveItem(ctx context.Context, in *RemoveItemRequest, opts ...grpc.CallOption) (*CartResponse, error)
	ClearCart(ctx context.Context, in *CartRequest, opts ...grpc.CallOption) (*CartResponse, error)
	GetCart(ctx context.Context, in *CartRequest, opts ...grpc.CallOption) (*CartResponse, error)
	Checkout(ctx context.Context, in *CheckoutRequest, opts ...grpc.CallOption) (*OrderResponse, error)
	GetOrder(ctx context.Context, in *GetOrderRequest, opts ...grpc.CallOption) (*GetOrderResponse, error)
	ListOrders(ctx context.Context, in *ListOrdersRequest, opts ...grpc.CallOption) (*ListOrdersResponse, error)
	ConfirmOrder(ctx context.Context, in *OrderActionRequest, opts ...grpc.CallOption) (*OrderResponse, error)
	ShipOrder(ctx context.Context, in *OrderActionRequest, opts ...grpc.CallOption) (*OrderResponse, error)
	DeliverOrder(ctx context.Context, in *OrderActionRequest, opts ...grpc.CallOption) (*OrderResponse, error)
	CancelOrder(ctx context.Context, in *CancelOrderRequest, opts ...grpc.CallOption) (*OrderResponse, error)
}

type storefrontServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewStorefrontServiceClient создаёт клиента. JSON-кодек выбирается автоматически.
func NewStorefrontServiceClient(cc grpc.ClientConnInterface) StorefrontServiceClient {
	return &storefrontServiceClient{cc}
}

func (c *storefrontServiceClient) invoke(ctx context.Context, method string, in, out any, opts []grpc.CallOption) error {
	callOpts := make([]grpc.CallOption, 0, len(opts)+1)
	callOpts = append(callOpts, grpc.CallContentSubtype(CodecName))
	callOpts = append(callOpts, opts...)
	return c.cc.Invoke(ctx, method, in, out, callOpts...)
}

func (c *storefrontServiceClient) ListProducts(ctx context.Context, in *ListProductsRequest, opts ...grpc.CallOption) (*ListProductsResponse, error) {
	out := new(ListProductsResponse)
	if err := c.invoke(ctx, StorefrontService_ListProducts_FullMethodName, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *storefrontServiceClient) GetProduct(ctx context.Context, in *GetProductRequest, opts ...grpc.CallOption) (*GetProductResponse, error) {
	out := new(GetProductResponse)
	if err := c.invoke(ctx, StorefrontService_GetProduct_FullMethodName, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *storefrontServiceClient) AddItem(ctx context.Context, in *AddItemRequest, opts ...grpc.CallOption) (*CartResponse, error) {
	out := new(CartResponse)
	if err := c.invoke(ctx, StorefrontService_AddItem_FullMethodName, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *storefrontServiceClient) UpdateItem(ctx context.Context, in *UpdateItemRequest, opts ...grpc.CallOption) (*CartResponse, error) {
	out := new(CartResponse)
	if err := c.invoke(ctx, StorefrontService_UpdateItem_FullMethodName, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *storefrontServiceClient) RemoveItem(ctx context.Context, in *RemoveItemRequest, opts ...grpc.CallOption) (*CartResponse, error) {
	out := new(CartResponse)
	if err := c.invoke(ctx, StorefrontService_RemoveItem_FullMethodName, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *storefrontServiceClient) ClearCart(ctx context.Context, in *CartRequest, opts ...grpc.CallOption) (*CartResponse, error) {
	out := new(CartResponse)
	if err := c.invoke(ctx, StorefrontService_ClearCart_FullMethodName, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *storefrontServiceClient) GetCart(ctx context.Context, in *CartRequest, opts ...grpc.CallOption) (*CartResponse, error) {
	out := new(CartResponse)
	if err := c.invoke(ctx, StorefrontService_GetCart_FullMethodName, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *storefrontServiceClient) Checkout(ctx context.Context, in *CheckoutRequest, opts ...grpc.CallOption) (*OrderResponse, error) {
	out := new(OrderResponse)
	if err := c.invoke(ctx, StorefrontService_Checkout_FullMethodName, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *storefrontServiceClient) GetOrder(ctx context.Context, in *GetOrderRequest, opts ...grpc.CallOption) (*GetOrderResponse, error) {
	out := new(GetOrderResponse)
	if err := c.invoke(ctx, StorefrontService_GetOrder_FullMethodName, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *storefrontServiceClient) ListOrders(ctx context.Context, in *ListOrdersRequest, opts ...grpc.CallOption) (*ListOrdersResponse, error) {
	out := new(ListOrdersResponse)
	if err := c.invoke(ctx, StorefrontService_ListOrders_FullMethodName, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *storefrontServiceClient) ConfirmOrder(ctx context.Context, in *OrderActionRequest, opts ...grpc.CallOption) (*OrderResponse, error) {
	out := new(OrderResponse)
	if err := c.invoke(ctx, StorefrontService_ConfirmOrder_FullMethodName, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *storefrontServiceClient) ShipOrder(ctx context.Context, in *OrderActionRequest, opts ...grpc.CallOption) (*OrderResponse, error) {
	out := new(OrderResponse)
	if err := c.invoke(ctx, StorefrontService_ShipOrder_FullMethodName, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *storefrontServiceClient) DeliverOrder(ctx context.Context, in *OrderActionRequest, opts ...grpc.CallOption) (*OrderResponse, error) {
	out := new(OrderResponse)
	if err := c.invoke(ctx, StorefrontService_DeliverOrder_FullMethodName, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *storefrontServiceClient) CancelOrder(ctx context.Context, in *CancelOrderRequest, opts ...grpc.CallOption) (*OrderResponse, error) {
	out := new(OrderResponse)
	if err := c.invoke(ctx, StorefrontService_CancelOrder_FullMethodName, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

// StorefrontServiceServer - серверный API StorefrontService.
// Реализации должны встраивать UnimplementedStorefrontServiceServer.
type StorefrontServiceServer interface {
	ListProducts(context.Context, *ListProductsRequest) (*ListProductsResponse, error)
	GetProduct(context.Context, *GetProductRequest) (*GetProductResponse, error)
	AddItem(context.Context, *AddItemRequest) (*CartResponse, error)
	UpdateItem(context.Context, *UpdateItemRequest) (*CartResponse, error)
	RemoveItem(context.Context, *RemoveItemRequest) (*CartResponse, error)
	ClearCart(context.Context, *CartRequest) (*CartResponse, error)
	GetCart(context.Context, *CartRequest) (*CartResponse, error)
	Checkout(context.Context, *CheckoutRequest) (*OrderResponse, error)
	GetOrder(context.Context, *GetOrderRequest) (*GetOrderResponse, error)
	ListOrders(context.Context, *ListOrdersRequest) (*ListOrdersResponse, error)
	ConfirmOrder(context.Context, *OrderActionRequest) (*OrderResponse, error)
	ShipOrder(context.Context, *OrderActionRequest) (*OrderResponse, error)
	DeliverOrder(context.Context, *OrderActionRequest) (*OrderResponse, error)
	CancelOrder(context.Context, *CancelOrderRequest) (*OrderResponse, error)
	mustEmbedUnimplementedStorefrontServiceServer()
}

// UnimplementedStorefrontServiceServer возвращает codes.Unimplemented для всех методов.
type UnimplementedStorefrontServiceServer struct{}

func (UnimplementedStorefrontServiceServer) ListProducts(context.Context, *ListProductsRequest) (*ListProductsResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method ListProducts not implemented")
}
func (UnimplementedStorefrontServiceServer) GetProduct(context.Context, *GetProductRequest) (*GetProductResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method GetProduct not implemented")
}
func (UnimplementedStorefrontServiceServer) AddItem(context.Context, *AddItemRequest) (*CartResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method AddItem not implemented")
}
func (UnimplementedStorefrontServiceServer) UpdateItem(context.Context, *UpdateItemRequest) (*CartResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method UpdateItem not implemented")
}
func (UnimplementedStorefrontServiceServer) RemoveItem(context.Context, *RemoveItemRequest) (*CartResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method RemoveItem not implemented")
}
func (UnimplementedStorefrontServiceServer) ClearCart(context.Context, *CartRequest) (*CartResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method ClearCart not implemented")
}
func (UnimplementedStorefrontServiceServer) GetCart(context.Context, *CartRequest) (*CartResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method GetCart not implemented")
}
func (UnimplementedStorefrontServiceServer) Checkout(context.Context, *CheckoutRequest) (*OrderResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method Checkout not implemented")
}
func (UnimplementedStorefrontServiceServer) GetOrder(context.Context, *GetOrderRequest) (*GetOrderResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method GetOrder not implemented")
}
func (UnimplementedStorefrontServiceServer) ListOrders(context.Context, *ListOrdersRequest) (*ListOrdersResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method ListOrders not implemented")
}
func (UnimplementedStorefrontServiceServer) ConfirmOrder(context.Context, *OrderActionRequest) (*OrderResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method ConfirmOrder not implemented")
}
func (UnimplementedStorefrontServiceServer) ShipOrder(context.Context, *OrderActionRequest) (*OrderResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method ShipOrder not implemented")
}
func (UnimplementedStorefrontServiceServer) DeliverOrder(context.Context, *OrderActionRequest) (*OrderResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method DeliverOrder not implemented")
}
func (UnimplementedStorefrontServiceServer) CancelOrder(context.Context, *CancelOrderRequest) (*OrderResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method CancelOrder not implemented")
}
func (UnimplementedStorefrontServiceServer) mustEmbedUnimplementedStorefrontServiceServer() {}

// RegisterStorefrontServiceServer регистрирует реализацию на gRPC-сервере.
func RegisterStorefrontServiceServer(s grpc.ServiceRegistrar, srv StorefrontServiceServer) {
	s.RegisterService(&StorefrontService_ServiceDesc, srv)
}

func _StorefrontService_ListProducts_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(ListProductsRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(StorefrontServiceServer).ListProducts(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: StorefrontService_ListProducts_FullMethodName,
	}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(StorefrontServiceServer).ListProducts(ctx, req.(*ListProductsRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _StorefrontService_GetProduct_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(GetProductRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(StorefrontServiceServer).GetProduct(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: StorefrontService_GetProduct_FullMethodName,
	}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(StorefrontServiceServer).GetProduct(ctx, req.(*GetProductRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _StorefrontService_AddItem_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(AddItemRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(StorefrontServiceServer).AddItem(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: StorefrontService_AddItem_FullMethodName,
	}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(StorefrontServiceServer).AddItem(ctx, req.(*AddItemRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _StorefrontService_UpdateItem_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(UpdateItemRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(StorefrontServiceServer).UpdateItem(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: StorefrontService_UpdateItem_FullMethodName,
	}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(StorefrontServiceServer).UpdateItem(ctx, req.(*UpdateItemRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _StorefrontService_RemoveItem_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(RemoveItemRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(StorefrontServiceServer).RemoveItem(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: StorefrontService_RemoveItem_FullMethodName,
	}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(StorefrontServiceServer).RemoveItem(ctx, req.(*RemoveItemRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _StorefrontService_ClearCart_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(CartRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(StorefrontServiceServer).ClearCart(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: StorefrontService_ClearCart_FullMethodName,
	}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(StorefrontServiceServer).ClearCart(ctx, req.(*CartRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _StorefrontService_GetCart_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(CartRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(StorefrontServiceServer).GetCart(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: StorefrontService_GetCart_FullMethodName,
	}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(StorefrontServiceServer).GetCart(ctx, req.(*CartRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _StorefrontService_Checkout_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(CheckoutRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(StorefrontServiceServer).Checkout(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: StorefrontService_Checkout_FullMethodName,
	}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(StorefrontServiceServer).Checkout(ctx, req.(*CheckoutRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _StorefrontService_GetOrder_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(GetOrderRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(StorefrontServiceServer).GetOrder(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: StorefrontService_GetOrder_FullMethodName,
	}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(StorefrontServiceServer).GetOrder(ctx, req.(*GetOrderRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _StorefrontService_ListOrders_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(ListOrdersRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(StorefrontServiceServer).ListOrders(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: StorefrontService_ListOrders_FullMethodName,
	}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(StorefrontServiceServer).ListOrders(ctx, req.(*ListOrdersRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _StorefrontService_ConfirmOrder_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(OrderActionRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(StorefrontServiceServer).ConfirmOrder(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: StorefrontService_ConfirmOrder_FullMethodName,
	}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(StorefrontServiceServer).ConfirmOrder(ctx, req.(*OrderActionRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _StorefrontService_ShipOrder_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(OrderActionRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(StorefrontServiceServer).ShipOrder(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: StorefrontService_ShipOrder_FullMethodName,
	}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(StorefrontServiceServer).ShipOrder(ctx, req.(*OrderActionRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _StorefrontService_DeliverOrder_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(OrderActionRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(StorefrontServiceServer).DeliverOrder(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: StorefrontService_DeliverOrder_FullMethodName,
	}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(StorefrontServiceServer).DeliverOrder(ctx, req.(*OrderActionRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _StorefrontService_CancelOrder_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(CancelOrderRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(StorefrontServiceServer).CancelOrder(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: StorefrontService_CancelOrder_FullMethodName,
	}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(StorefrontServiceServer).CancelOrder(ctx, req.(*CancelOrderRequest))
	}
	return interceptor(ctx, in, info, handler)
}

// StorefrontService_ServiceDesc - описание сервиса для grpc.Server.
var StorefrontService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*StorefrontServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "ListProducts",
			Handler:    _StorefrontService_ListProducts_Handler,
		},
		{
			MethodName: "GetProduct",
			Handler:    _StorefrontService_GetProduct_Handler,
		},
		{
			MethodName: "AddItem",
			Handler:    _StorefrontService_AddItem_Handler,
		},
		{
			MethodName: "UpdateItem",
			Handler:    _StorefrontService_UpdateItem_Handler,
		},
		{
			MethodName: "RemoveItem",
			Handler:    _StorefrontService_RemoveItem_Handler,
		},
		{
			MethodName: "ClearCart",
			Handler:    _StorefrontService_ClearCart_Handler,
		},
		{
			MethodName: "GetCart",
			Handler:    _StorefrontService_GetCart_Handler,
		},
		{
			MethodName: "Checkout",
			Handler:    _StorefrontService_Checkout_Handler,
		},
		{
			MethodName: "GetOrder",
			Handler:    _StorefrontService_GetOrder_Handler,
		},
		{
			MethodName: "ListOrders",
			Handler:    _StorefrontService_ListOrders_Handler,
		},
		{
			MethodName: "ConfirmOrder",
			Handler:    _StorefrontService_ConfirmOrder_Handler,
		},
		{
			MethodName: "ShipOrder",
			Handler:    _StorefrontService_ShipOrder_Handler,
		},
		{
			MethodName: "DeliverOrder",
			Handler:    _StorefrontService_DeliverOrder_Handler,
		},
		{
			MethodName: "CancelOrder",
			Handler:    _StorefrontService_CancelOrder_Handler,
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "storefront/v1/storefront_service.json",
}
