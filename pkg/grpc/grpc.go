package grpc

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/bufbuild/protocompile/linker"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/dynamicpb"
)

// Client is a dynamic gRPC client that holds a connection and the compiled
// descriptors used to locate methods at runtime.
type Client struct {
	// GRPC is the underlying client connection.
	GRPC *grpc.ClientConn `json:"-"`
	// ProtoFiles are the compiled descriptors, including the completion service.
	ProtoFiles linker.Files `json:"-"`
}

// NewClient creates a dynamic client for endpoint. The scheme selects
// transport security:
//   - "https://": TLS (system defaults)
//   - "http://":  insecure
//   - no scheme:  insecure
//
// protoFiles may be nil; the completion service is always available. Extra
// dial options are appended after the transport credentials.
func NewClient(endpoint string, protoFiles map[string]string, opts ...grpc.DialOption) (*Client, error) {
	descriptors, err := Compile(protoFiles)
	if err != nil {
		return nil, err
	}

	addr, creds := grpcCredsFromEndpoint(endpoint)
	conn, err := grpc.NewClient(addr, append([]grpc.DialOption{creds}, opts...)...)
	if err != nil {
		zap.L().Error("Failed to create gRPC client", zap.String("endpoint", endpoint), zap.Error(err))
		return nil, err
	}
	conn.Connect()

	return &Client{
		GRPC:       conn,
		ProtoFiles: descriptors,
	}, nil
}

// Close shuts down the underlying connection. It is safe on a nil receiver.
func (c *Client) Close() error {
	if c == nil || c.GRPC == nil {
		return nil
	}
	return c.GRPC.Close()
}

// CallWithMap invokes a unary method with a map request body, routed through
// CallWithJSON.
func (c *Client) CallWithMap(ctx context.Context, method string, params map[string]any) (map[string]any, error) {
	jsonData, err := json.Marshal(params)
	if err != nil {
		return nil, err
	}

	jsonStr, err := c.CallWithJSON(ctx, method, jsonData)
	if err != nil {
		return nil, err
	}

	var result map[string]any
	if err := json.Unmarshal(jsonStr, &result); err != nil {
		return nil, err
	}

	return result, nil
}

// CallWithProto invokes a unary method with a concrete request message and
// returns a dynamic response.
func (c *Client) CallWithProto(ctx context.Context, method string, req proto.Message) (proto.Message, error) {
	fd, methodDesc, err := FindMethod(c.ProtoFiles, method)
	if err != nil {
		return nil, err
	}
	out := dynamicpb.NewMessage(methodDesc.Output())
	err = c.GRPC.Invoke(ctx, fullMethodName(fd.Package(), methodDesc), req, out)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// CallWithJSON invokes a unary method with a JSON body. Unknown request
// fields are discarded. The response uses proto field names and emits
// unpopulated fields.
func (c *Client) CallWithJSON(ctx context.Context, method string, body []byte) ([]byte, error) {
	fd, methodDesc, err := FindMethod(c.ProtoFiles, method)
	if err != nil {
		return nil, err
	}

	in := dynamicpb.NewMessage(methodDesc.Input())
	out := dynamicpb.NewMessage(methodDesc.Output())

	err = protojson.UnmarshalOptions{
		AllowPartial:   true,
		DiscardUnknown: true,
	}.Unmarshal(body, in)
	if err != nil {
		return nil, err
	}

	err = c.GRPC.Invoke(ctx, fullMethodName(fd.Package(), methodDesc), in, out)
	if err != nil {
		return nil, err
	}

	return protojson.MarshalOptions{
		EmitUnpopulated: true,
		UseProtoNames:   true,
	}.Marshal(out)
}

// grpcCredsFromEndpoint derives a dial address and credentials from endpoint.
func grpcCredsFromEndpoint(endpoint string) (string, grpc.DialOption) {
	if strings.HasPrefix(endpoint, "https://") {
		return strings.TrimPrefix(endpoint, "https://"), grpc.WithTransportCredentials(credentials.NewTLS(nil))
	}
	if strings.HasPrefix(endpoint, "http://") {
		return strings.TrimPrefix(endpoint, "http://"), grpc.WithTransportCredentials(insecure.NewCredentials())
	}
	return endpoint, grpc.WithTransportCredentials(insecure.NewCredentials())
}
