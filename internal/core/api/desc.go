package api

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "vesmapper.rules.v1.MappingRulesService"

// Full method names.
const (
	ValidateMethod  = "/" + ServiceName + "/Validate"
	TranslateMethod = "/" + ServiceName + "/Translate"
	ImportMethod    = "/" + ServiceName + "/Import"
)

// MappingRulesServer is the server API for the mapping-rules service. Every
// request carries the mapping-rules document as JSON text: a Struct would
// lose rule order, which the translation depends on.
type MappingRulesServer interface {
	Validate(context.Context, *wrapperspb.StringValue) (*structpb.Struct, error)
	Translate(context.Context, *wrapperspb.StringValue) (*wrapperspb.StringValue, error)
	Import(context.Context, *wrapperspb.StringValue) (*wrapperspb.StringValue, error)
}

// RegisterMappingRulesServer registers srv on s.
func RegisterMappingRulesServer(s grpc.ServiceRegistrar, srv MappingRulesServer) {
	s.RegisterService(&MappingRulesServiceDesc, srv)
}

// MappingRulesServiceDesc describes the service over well-known message
// types, so no generated code is needed.
var MappingRulesServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*MappingRulesServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Validate", Handler: validateHandler},
		{MethodName: "Translate", Handler: translateHandler},
		{MethodName: "Import", Handler: importHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "vesmapper/rules/v1/rules.proto",
}

func validateHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(MappingRulesServer).Validate(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: ValidateMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(MappingRulesServer).Validate(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, in, info, handler)
}

func translateHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(MappingRulesServer).Translate(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: TranslateMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(MappingRulesServer).Translate(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, in, info, handler)
}

func importHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(MappingRulesServer).Import(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: ImportMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(MappingRulesServer).Import(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, in, info, handler)
}

// Client is a thin client for the mapping-rules service.
type Client struct {
	cc grpc.ClientConnInterface
}

// NewClient wraps an established connection.
func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

// Validate returns the validation report for document.
func (c *Client) Validate(ctx context.Context, document string, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, ValidateMethod, wrapperspb.String(document), out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// Translate returns the pipeline JSON for document.
func (c *Client) Translate(ctx context.Context, document string, opts ...grpc.CallOption) (string, error) {
	out := new(wrapperspb.StringValue)
	if err := c.cc.Invoke(ctx, TranslateMethod, wrapperspb.String(document), out, opts...); err != nil {
		return "", err
	}
	return out.GetValue(), nil
}

// Import returns document re-encoded with fresh rule UIDs.
func (c *Client) Import(ctx context.Context, document string, opts ...grpc.CallOption) (string, error) {
	out := new(wrapperspb.StringValue)
	if err := c.cc.Invoke(ctx, ImportMethod, wrapperspb.String(document), out, opts...); err != nil {
		return "", err
	}
	return out.GetValue(), nil
}
