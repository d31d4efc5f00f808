package grpc

import (
	"context"
	_ "embed"
	"fmt"
	"maps"
	"slices"

	"github.com/bufbuild/protocompile"
	"github.com/bufbuild/protocompile/linker"
	"go.uber.org/zap"
	"google.golang.org/protobuf/reflect/protoreflect"
)

// CompletionProtoFile is the file name of the embedded completion service.
const CompletionProtoFile = "haithe/v1/completion.proto"

// CompletionService is the fully-qualified name of the completion service.
const CompletionService = "haithe.v1.Completions"

// CompletionProto is the source of the completion service definition. It is
// compiled alongside any caller-provided sources.
//
//go:embed completion.proto
var CompletionProto string

// FindMethod searches the compiled files for a method with the simple name
// methodName and returns the first match with its file.
func FindMethod(files linker.Files, methodName string) (protoreflect.FileDescriptor, protoreflect.MethodDescriptor, error) {
	for _, file := range files {
		for i := 0; i < file.Services().Len(); i++ {
			service := file.Services().Get(i)
			method := service.Methods().ByName(protoreflect.Name(methodName))
			if method != nil {
				return file, method, nil
			}
		}
	}
	return nil, nil, fmt.Errorf("method %s not found in provided proto files", methodName)
}

// FindService returns the service with the fully-qualified name.
func FindService(files linker.Files, fullName string) (protoreflect.ServiceDescriptor, error) {
	for _, file := range files {
		for i := 0; i < file.Services().Len(); i++ {
			if s := file.Services().Get(i); string(s.FullName()) == fullName {
				return s, nil
			}
		}
	}
	return nil, fmt.Errorf("service %s not found in provided proto files", fullName)
}

// Compile compiles the given sources (file name to content) together with the
// embedded completion service. Standard imports are available.
func Compile(protoFiles map[string]string) (linker.Files, error) {
	sources := make(map[string]string, len(protoFiles)+1)
	maps.Copy(sources, protoFiles)
	sources[CompletionProtoFile] = CompletionProto

	accessor := protocompile.SourceAccessorFromMap(sources)
	r := protocompile.WithStandardImports(&protocompile.SourceResolver{Accessor: accessor})
	compiler := protocompile.Compiler{
		Resolver:       r,
		SourceInfoMode: protocompile.SourceInfoStandard,
	}
	names := slices.Sorted(maps.Keys(sources))
	fds, err := compiler.Compile(context.Background(), names...)
	if err != nil || fds == nil {
		zap.L().Error("Failed to compile proto files", zap.Error(err))
		return nil, fmt.Errorf("failed to compile proto files: %v", err)
	}
	return fds, nil
}
