package grpc

import (
	"context"
	"fmt"

	"github.com/bufbuild/protocompile/linker"
	"google.golang.org/grpc"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/types/dynamicpb"
)

// JSONHandler serves one unary method. It receives the request encoded as
// JSON with proto field names and returns the response as JSON.
type JSONHandler func(ctx context.Context, body []byte) ([]byte, error)

// Register exposes the service fullName from files on s, dispatching each
// method to the handler of the same simple name. Every method of the service
// needs a handler and must be unary.
func Register(s grpc.ServiceRegistrar, files linker.Files, fullName string, handlers map[string]JSONHandler) error {
	desc, err := ServiceDesc(files, fullName, handlers)
	if err != nil {
		return err
	}
	s.RegisterService(desc, struct{}{})
	return nil
}

// ServiceDesc builds the grpc.ServiceDesc used by Register.
func ServiceDesc(files linker.Files, fullName string, handlers map[string]JSONHandler) (*grpc.ServiceDesc, error) {
	sd, err := FindService(files, fullName)
	if err != nil {
		return nil, err
	}

	desc := &grpc.ServiceDesc{
		ServiceName: fullName,
		HandlerType: (*any)(nil),
		Streams:     []grpc.StreamDesc{},
		Metadata:    sd.ParentFile().Path(),
	}
	methods := sd.Methods()
	for i := 0; i < methods.Len(); i++ {
		md := methods.Get(i)
		name := string(md.Name())
		if md.IsStreamingClient() || md.IsStreamingServer() {
			return nil, fmt.Errorf("method %s is streaming", name)
		}
		h, ok := handlers[name]
		if !ok {
			return nil, fmt.Errorf("no handler for method %s", name)
		}
		desc.Methods = append(desc.Methods, grpc.MethodDesc{
			MethodName: name,
			Handler:    unaryHandler(md, fullMethodName(sd.ParentFile().Package(), md), h),
		})
	}
	return desc, nil
}

func unaryHandler(md protoreflect.MethodDescriptor, fullMethod string, h JSONHandler) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := dynamicpb.NewMessage(md.Input())
		if err := dec(in); err != nil {
			return nil, err
		}
		call := func(ctx context.Context, req any) (any, error) {
			out, err := invokeJSON(ctx, md, h, req.(*dynamicpb.Message))
			if err != nil {
				return nil, err
			}
			return out, nil
		}
		if interceptor == nil {
			return call(ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		return interceptor(ctx, in, info, call)
	}
}

func invokeJSON(ctx context.Context, md protoreflect.MethodDescriptor, h JSONHandler, in *dynamicpb.Message) (*dynamicpb.Message, error) {
	body, err := protojson.MarshalOptions{UseProtoNames: true}.Marshal(in)
	if err != nil {
		return nil, err
	}
	resp, err := h(ctx, body)
	if err != nil {
		return nil, err
	}
	out := dynamicpb.NewMessage(md.Output())
	if err := (protojson.UnmarshalOptions{DiscardUnknown: true}).Unmarshal(resp, out); err != nil {
		return nil, fmt.Errorf("encode %s response: %w", md.Name(), err)
	}
	return out, nil
}

// fullMethodName returns "/<package>.<Service>/<Method>".
func fullMethodName(pkg protoreflect.FullName, md protoreflect.MethodDescriptor) string {
	return "/" + string(pkg) + "." + string(md.Parent().Name()) + "/" + string(md.Name())
}
