// Package grpc serves and calls gRPC methods without generated stubs.
//
// Proto sources are compiled at runtime with protocompile and messages are
// handled as dynamicpb values. The Haithe completion service definition is
// embedded and always part of the compiled set.
//
// # Serving
//
// Register binds every method of a service to a JSONHandler. Requests reach
// the handler as JSON with proto field names, and the returned JSON is decoded
// into the response message, so a handler can share its wire types with an
// HTTP endpoint:
//
//	files, err := grpc.Compile(nil)
//	err = grpc.Register(srv, files, grpc.CompletionService, map[string]grpc.JSONHandler{
//		"Complete":   complete,
//		"ListModels": listModels,
//	})
//
// # Calling
//
//	client, err := grpc.NewClient("http://localhost:9090", nil)
//	defer client.Close()
//	out, err := client.CallWithJSON(ctx, "ListModels", []byte(`{}`))
//
// The endpoint scheme selects transport security: "https://" uses TLS, while
// "http://" and bare addresses are plaintext.
package grpc
