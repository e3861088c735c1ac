package rpcservice

import (
	"fmt"

	"github.com/jhump/protoreflect/desc"
	"github.com/jhump/protoreflect/desc/protoparse"
)

// schemaFile is the single embedded .proto schema this service needs,
// parsed into descriptors at process startup rather than shipped as a
// protoc-generated .pb.go, grounded on the teacher's
// builtins_grpc.go/builtinGrpcLoadProto (protoparse.Parser.ParseFiles
// against a file on disk) adapted to an in-memory source via
// protoparse.FileContentsFromMap, since this schema has no reason to
// live as a file a user must ship alongside the binary.
const schemaFile = "kailua_check.proto"

const schemaSource = `
syntax = "proto3";
package kailua.rpc;

message CheckRequest {
  string unit = 1;
  string source = 2;
}

message Diagnostic {
  string severity = 1;
  string code = 2;
  string message = 3;
  int32 begin_offset = 4;
  int32 end_offset = 5;
}

message CheckResponse {
  repeated Diagnostic diagnostics = 1;
  string export_type = 2;
}

service CheckService {
  rpc Check(CheckRequest) returns (CheckResponse);
}
`

// descriptors holds the parsed handles this package's handler code needs
// to build and read dynamic.Message values without a codegen'd .pb.go.
type descriptors struct {
	file          *desc.FileDescriptor
	service       *desc.ServiceDescriptor
	checkMethod   *desc.MethodDescriptor
	requestType   *desc.MessageDescriptor
	responseType  *desc.MessageDescriptor
	diagnosticMsg *desc.MessageDescriptor
}

func parseSchema() (*descriptors, error) {
	parser := protoparse.Parser{
		Accessor: protoparse.FileContentsFromMap(map[string]string{
			schemaFile: schemaSource,
		}),
	}
	fds, err := parser.ParseFiles(schemaFile)
	if err != nil {
		return nil, fmt.Errorf("rpcservice: parse embedded schema: %w", err)
	}
	fd := fds[0]

	sd := fd.FindService("kailua.rpc.CheckService")
	if sd == nil {
		return nil, fmt.Errorf("rpcservice: embedded schema missing CheckService")
	}
	var checkMethod *desc.MethodDescriptor
	for _, m := range sd.GetMethods() {
		if m.GetName() == "Check" {
			checkMethod = m
			break
		}
	}
	if checkMethod == nil {
		return nil, fmt.Errorf("rpcservice: embedded schema missing CheckService.Check")
	}

	respType := checkMethod.GetOutputType()
	diagField := respType.FindFieldByName("diagnostics")
	if diagField == nil {
		return nil, fmt.Errorf("rpcservice: CheckResponse missing diagnostics field")
	}

	return &descriptors{
		file:          fd,
		service:       sd,
		checkMethod:   checkMethod,
		requestType:   checkMethod.GetInputType(),
		responseType:  respType,
		diagnosticMsg: diagField.GetMessageType(),
	}, nil
}
