// Command kailuad runs the Check RPC service (internal/rpcservice) as a
// long-lived daemon, grounded on the teacher's builtins_grpc.go server
// half (net.Listen + grpc.NewServer + RegisterService + Serve) pared
// down from "register whatever service a script builds at runtime" to
// this daemon's one fixed CheckService (SPEC_FULL.md §4.12).
package main

import (
	"flag"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"

	"google.golang.org/grpc"

	"github.com/evolbug/kailua/internal/checker"
	"github.com/evolbug/kailua/internal/config"
	"github.com/evolbug/kailua/internal/lexer"
	"github.com/evolbug/kailua/internal/parser"
	"github.com/evolbug/kailua/internal/rpcservice"
	"github.com/evolbug/kailua/internal/session"
)

func main() {
	addr := flag.String("addr", ":7332", "listen address")
	cfgPath := flag.String("config", ".kailua.yml", "project config path")
	flag.Parse()

	cfg := config.Default()
	if _, err := os.Stat(*cfgPath); err == nil {
		loaded, err := config.Load(*cfgPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		cfg = loaded
	}

	roots := cfg.Roots
	if len(roots) == 0 {
		roots = []string{"."}
	}
	resolve := fileResolver(roots)

	checkFn := rpcservice.NewSessionCheckFunc(resolve, func(sess *session.Session, unit, source string) (string, error) {
		toks := lexer.New(unit, source).Tokenize()
		p := parser.New(unit, toks)
		prog := p.ParseProgram()
		for _, e := range p.Errors {
			sess.Sink.Report(e)
		}
		c := checker.New(unit, sess.Env, sess.Consts, sess.Sink, sess.Graph, sess.Config)
		export := c.CheckProgram(prog)
		return export.String(), nil
	})

	svc, err := rpcservice.New(checkFn)
	if err != nil {
		fmt.Fprintf(os.Stderr, "kailuad: %s\n", err)
		os.Exit(1)
	}

	lis, err := net.Listen("tcp", *addr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "kailuad: %s\n", err)
		os.Exit(1)
	}

	server := grpc.NewServer()
	svc.Register(server)

	fmt.Printf("kailuad: listening on %s\n", *addr)
	if err := server.Serve(lis); err != nil {
		fmt.Fprintf(os.Stderr, "kailuad: %s\n", err)
		os.Exit(1)
	}
}

// fileResolver mirrors cmd/kailua's require-path resolution so the
// daemon resolves the same project layout a local `kailua` run would.
func fileResolver(roots []string) func(path string) (string, bool) {
	return func(path string) (string, bool) {
		rel := strings.ReplaceAll(path, ".", string(filepath.Separator))
		candidates := []string{rel + ".lua", filepath.Join(rel, "init.lua")}
		for _, root := range roots {
			for _, cand := range candidates {
				data, err := os.ReadFile(filepath.Join(root, cand))
				if err == nil {
					return string(data), true
				}
			}
		}
		return "", false
	}
}
