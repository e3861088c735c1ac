package rpcservice

import (
	"context"
	"testing"

	"github.com/jhump/protoreflect/dynamic"

	"github.com/evolbug/kailua/internal/diagnostics"
	"github.com/evolbug/kailua/internal/session"
	"github.com/evolbug/kailua/internal/token"
)

func TestParseSchemaResolvesCheckMethod(t *testing.T) {
	d, err := parseSchema()
	if err != nil {
		t.Fatalf("unexpected error parsing the embedded schema: %v", err)
	}
	if d.checkMethod.GetName() != "Check" {
		t.Errorf("expected the Check method, got %q", d.checkMethod.GetName())
	}
	if d.requestType.FindFieldByName("unit") == nil {
		t.Errorf("expected CheckRequest to have a 'unit' field")
	}
	if d.responseType.FindFieldByName("diagnostics") == nil {
		t.Errorf("expected CheckResponse to have a 'diagnostics' field")
	}
	if d.diagnosticMsg.FindFieldByName("severity") == nil {
		t.Errorf("expected Diagnostic to have a 'severity' field")
	}
}

func TestNewBuildsServiceFromCheckFunc(t *testing.T) {
	called := false
	svc, err := New(func(ctx context.Context, unit, source string) ([]*diagnostics.DiagnosticError, string, error) {
		called = true
		return nil, "integer", nil
	})
	if err != nil {
		t.Fatalf("unexpected error building the service: %v", err)
	}
	if svc.desc == nil || svc.checkFn == nil {
		t.Fatalf("expected New to wire descriptors and the check function")
	}
	_, _, _ = svc.checkFn(context.Background(), "a.lua", "local x = 1")
	if !called {
		t.Errorf("expected the wired check function to be callable")
	}
}

func TestHandleCheckRoundTripsRequestAndResponse(t *testing.T) {
	svc, err := New(func(ctx context.Context, unit, source string) ([]*diagnostics.DiagnosticError, string, error) {
		if unit != "a.lua" || source != "local x = 1" {
			t.Errorf("unexpected unit/source passed to CheckFunc: %q %q", unit, source)
		}
		d := diagnostics.New(diagnostics.PhaseChecker, diagnostics.WarnUnusedLocal, token.Span{Begin: 0, End: 1}, "x")
		return []*diagnostics.DiagnosticError{d}, "integer", nil
	})
	if err != nil {
		t.Fatalf("unexpected error building the service: %v", err)
	}

	reqMsg := dynamic.NewMessage(svc.desc.requestType)
	if err := reqMsg.TrySetFieldByName("unit", "a.lua"); err != nil {
		t.Fatalf("unexpected error setting 'unit': %v", err)
	}
	if err := reqMsg.TrySetFieldByName("source", "local x = 1"); err != nil {
		t.Fatalf("unexpected error setting 'source': %v", err)
	}

	dec := func(v interface{}) error {
		msg, ok := v.(*dynamic.Message)
		if !ok {
			t.Fatalf("expected a *dynamic.Message to decode into, got %T", v)
		}
		bytes, err := reqMsg.Marshal()
		if err != nil {
			return err
		}
		return msg.Unmarshal(bytes)
	}

	resp, err := svc.handleCheck(context.Background(), dec)
	if err != nil {
		t.Fatalf("unexpected error from handleCheck: %v", err)
	}
	respMsg, ok := resp.(*dynamic.Message)
	if !ok {
		t.Fatalf("expected a *dynamic.Message response, got %T", resp)
	}

	exportType, _ := respMsg.TryGetFieldByName("export_type")
	if exportType != "integer" {
		t.Errorf("expected export_type 'integer', got %v", exportType)
	}
	diagsField, _ := respMsg.TryGetFieldByName("diagnostics")
	list, ok := diagsField.([]interface{})
	if !ok || len(list) != 1 {
		t.Fatalf("expected exactly 1 diagnostic entry, got %v", diagsField)
	}
}

func TestNewSessionCheckFuncUsesFreshSessionPerCall(t *testing.T) {
	var seenIDs []string
	checkFn := NewSessionCheckFunc(
		func(string) (string, bool) { return "", false },
		func(sess *session.Session, unit, source string) (string, error) {
			seenIDs = append(seenIDs, sess.String())
			sess.Sink.Report(diagnostics.New(diagnostics.PhaseChecker, diagnostics.WarnUnusedLocal, token.Span{}, "x"))
			return "string", nil
		},
	)

	diags, exportType, err := checkFn(context.Background(), "a.lua", "local x")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if exportType != "string" {
		t.Errorf("expected export type 'string', got %q", exportType)
	}
	if len(diags) != 1 {
		t.Fatalf("expected 1 diagnostic surfaced from the session sink, got %d", len(diags))
	}

	if _, _, err := checkFn(context.Background(), "b.lua", "local y"); err != nil {
		t.Fatalf("unexpected error on second call: %v", err)
	}
	if len(seenIDs) != 2 || seenIDs[0] == seenIDs[1] {
		t.Errorf("expected each call to use a distinct session, got %v", seenIDs)
	}
}
