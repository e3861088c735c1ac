// Package rpcservice exposes a single-method Check RPC over
// google.golang.org/grpc for IDE hosts that want a separate long-lived
// checking process instead of linking internal/checker in-process
// (SPEC_FULL.md §4.12). Grounded on the teacher's
// internal/evaluator/builtins_grpc.go: an embedded schema is parsed into
// descriptors via protoparse at startup (no protoc-generated .pb.go
// needed), a grpc.ServiceDesc is built by hand, and requests/responses
// flow through dynamic.Message the same way
// builtinGrpcRegister/FunxyGrpcHandler.HandleUnary drives a dynamically
// loaded service — generalized from the teacher's "register any proto
// service the script loaded" to this package's one fixed Check method.
package rpcservice

import (
	"context"
	"fmt"

	"github.com/jhump/protoreflect/dynamic"
	"google.golang.org/grpc"

	"github.com/evolbug/kailua/internal/diagnostics"
	"github.com/evolbug/kailua/internal/session"
)

// CheckFunc drives one checking run for a request, left to the caller
// (cmd/kailuad) so this package stays free of file-resolution policy —
// exactly the external-collaborator boundary spec.md §1 draws around
// the core.
type CheckFunc func(ctx context.Context, unit, source string) (diags []*diagnostics.DiagnosticError, exportType string, err error)

// Service wires CheckFunc to the embedded CheckService schema.
type Service struct {
	desc    *descriptors
	checkFn CheckFunc
}

// New parses the embedded schema and returns a Service ready to
// Register onto a *grpc.Server.
func New(checkFn CheckFunc) (*Service, error) {
	d, err := parseSchema()
	if err != nil {
		return nil, err
	}
	return &Service{desc: d, checkFn: checkFn}, nil
}

// Register installs the CheckService onto s, grounded on the teacher's
// builtinGrpcRegister (hand-built grpc.ServiceDesc + a single Methods
// entry whose Handler decodes a dynamic.Message, calls the
// implementation, and encodes the dynamic.Message reply).
func (svc *Service) Register(s *grpc.Server) {
	gd := &grpc.ServiceDesc{
		ServiceName: svc.desc.service.GetFullyQualifiedName(),
		HandlerType: (*interface{})(nil),
		Metadata:    schemaFile,
		Methods: []grpc.MethodDesc{
			{
				MethodName: svc.desc.checkMethod.GetName(),
				Handler: func(_ interface{}, ctx context.Context, dec func(interface{}) error, _ grpc.UnaryServerInterceptor) (interface{}, error) {
					return svc.handleCheck(ctx, dec)
				},
			},
		},
		Streams: []grpc.StreamDesc{},
	}
	s.RegisterService(gd, svc)
}

func (svc *Service) handleCheck(ctx context.Context, dec func(interface{}) error) (interface{}, error) {
	reqMsg := dynamic.NewMessage(svc.desc.requestType)
	if err := dec(reqMsg); err != nil {
		return nil, err
	}

	unit, _ := reqMsg.TryGetFieldByName("unit")
	source, _ := reqMsg.TryGetFieldByName("source")
	unitStr, _ := unit.(string)
	sourceStr, _ := source.(string)

	diags, exportType, err := svc.checkFn(ctx, unitStr, sourceStr)
	if err != nil {
		return nil, err
	}

	respMsg := dynamic.NewMessage(svc.desc.responseType)
	if err := respMsg.TrySetFieldByName("export_type", exportType); err != nil {
		return nil, fmt.Errorf("rpcservice: set export_type: %w", err)
	}

	entries := make([]interface{}, 0, len(diags))
	for _, d := range diags {
		entry := dynamic.NewMessage(svc.desc.diagnosticMsg)
		_ = entry.TrySetFieldByName("severity", string(d.Severity))
		_ = entry.TrySetFieldByName("code", string(d.Code))
		_ = entry.TrySetFieldByName("message", d.Error())
		_ = entry.TrySetFieldByName("begin_offset", int32(d.Span.Begin))
		_ = entry.TrySetFieldByName("end_offset", int32(d.Span.End))
		entries = append(entries, entry)
	}
	if err := respMsg.TrySetFieldByName("diagnostics", entries); err != nil {
		return nil, fmt.Errorf("rpcservice: set diagnostics: %w", err)
	}

	return respMsg, nil
}

// NewSessionCheckFunc builds a CheckFunc that runs one fresh
// session.Session per call, matching the concurrency note of
// SPEC_FULL.md §5: concurrent RPCs each get an independent
// ConstraintEnv/ScopeContext, no state shared across calls besides the
// resolve callback used to satisfy `require`.
func NewSessionCheckFunc(resolve func(path string) (string, bool), checkOne func(sess *session.Session, unit, source string) (typeExport string, err error)) CheckFunc {
	return func(ctx context.Context, unit, source string) ([]*diagnostics.DiagnosticError, string, error) {
		sess := session.New(nil, resolve)
		export, err := checkOne(sess, unit, source)
		if err != nil {
			return nil, "", err
		}
		return sess.Sink.All(), export, nil
	}
}
