// Package lsp implements a minimal editor diagnostics server (supplemental
// to the distilled spec — an enrichment, not a compile-pipeline stage): it
// speaks just enough of the Language Server Protocol to run the same
// resolve -> flatten -> analyze pipeline as `shdlc compile` on every open
// or changed document and push back the resulting diagnostics. It is
// grounded on the protocol types used by the example pack's buflsp
// reference file, wired over go.lsp.dev/jsonrpc2 with go.uber.org/zap for
// structured logging (in place of the rest of this module's logrus, since
// the LSP's own ecosystem idiom is zap's structured fields over a
// request-scoped logger) and go.uber.org/atomic to guard against an
// out-of-order didChange notification clobbering a newer edit.
package lsp

import (
	"context"
	"encoding/json"
	"io"

	"go.lsp.dev/jsonrpc2"
	"go.lsp.dev/protocol"
	"go.uber.org/atomic"
	"go.uber.org/zap"

	"github.com/shdl-lang/shdlc/pkg/analyze"
	"github.com/shdl-lang/shdlc/pkg/diag"
	"github.com/shdl-lang/shdlc/pkg/flatten"
	"github.com/shdl-lang/shdlc/pkg/resolver"
	"github.com/shdl-lang/shdlc/pkg/source"
)

// Server is a stdio-driven LSP server handling just the lifecycle and
// text-synchronization methods needed to publish diagnostics.
type Server struct {
	logger   *zap.Logger
	conn     jsonrpc2.Conn
	includes []string
	version  atomic.Uint64
}

// Run serves an LSP session over stream until the client disconnects or
// sends "exit".
func Run(ctx context.Context, stream io.ReadWriteCloser, logger *zap.Logger, includes []string) error {
	s := &Server{logger: logger, includes: includes}

	rw := jsonrpc2.NewStream(stream)
	conn := jsonrpc2.NewConn(rw)
	s.conn = conn

	conn.Go(ctx, s.handle)
	<-conn.Done()

	return conn.Err()
}

func (s *Server) handle(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	s.logger.Debug("request", zap.String("method", req.Method()))

	switch req.Method() {
	case protocol.MethodInitialize:
		return reply(ctx, protocol.InitializeResult{
			Capabilities: protocol.ServerCapabilities{
				TextDocumentSync: protocol.TextDocumentSyncOptions{
					OpenClose: true,
					Change:    protocol.TextDocumentSyncKindFull,
				},
			},
			ServerInfo: &protocol.ServerInfo{Name: "shdlc", Version: "0.1.0"},
		}, nil)
	case protocol.MethodInitialized:
		return reply(ctx, nil, nil)
	case protocol.MethodTextDocumentDidOpen:
		var params protocol.DidOpenTextDocumentParams
		if err := json.Unmarshal(req.Params(), &params); err != nil {
			return reply(ctx, nil, err)
		}

		s.version.Store(uint64(params.TextDocument.Version))
		s.diagnose(ctx, params.TextDocument.URI, params.TextDocument.Text)

		return reply(ctx, nil, nil)
	case protocol.MethodTextDocumentDidChange:
		var params protocol.DidChangeTextDocumentParams
		if err := json.Unmarshal(req.Params(), &params); err != nil {
			return reply(ctx, nil, err)
		}

		seq := uint64(params.TextDocument.Version)
		if seq < s.version.Load() {
			// Stale notification, arrived out of order: ignore it rather
			// than republish diagnostics for an edit the client has since
			// superseded (§3.2 of the LSP spec recommends this; the version
			// counter is the only state this server keeps across requests).
			return reply(ctx, nil, nil)
		}

		s.version.Store(seq)

		if len(params.ContentChanges) > 0 {
			last := params.ContentChanges[len(params.ContentChanges)-1]
			s.diagnose(ctx, params.TextDocument.URI, last.Text)
		}

		return reply(ctx, nil, nil)
	case protocol.MethodShutdown:
		return reply(ctx, nil, nil)
	case protocol.MethodExit:
		return s.conn.Close()
	default:
		return reply(ctx, nil, jsonrpc2.ErrMethodNotFound)
	}
}

// diagnose runs resolve -> flatten -> analyze over the in-editor text of a
// single document and publishes whatever diagnostics result. It writes the
// text to a temporary file so the rest of the pipeline, which is
// file-path-oriented (imports resolve against a directory search path),
// doesn't need an in-memory-source special case.
func (s *Server) diagnose(ctx context.Context, docURI protocol.DocumentURI, text string) {
	path := docURI.Filename()

	tmp, err := writeScratch(path, text)
	if err != nil {
		s.logger.Warn("could not stage document for analysis", zap.Error(err))
		return
	}

	defer tmp.cleanup()

	var bag diag.Bag

	env, resolveBag := resolver.Resolve(tmp.path, s.includes)
	bag.Merge(resolveBag)

	if !resolveBag.HasErrors() && len(env.EntryModule.Order) > 0 {
		entry := env.EntryModule.Order[len(env.EntryModule.Order)-1].Name

		comp, flatBag := flatten.Flatten(env.Components, entry)
		bag.Merge(flatBag)

		if !flatBag.HasErrors() {
			result := analyze.Analyze(comp)
			bag.Merge(result.Bag)
		}
	}

	s.publish(ctx, docURI, bag)
}

func (s *Server) publish(ctx context.Context, docURI protocol.DocumentURI, bag diag.Bag) {
	diags := make([]protocol.Diagnostic, 0, len(bag.All()))

	for _, d := range bag.All() {
		diags = append(diags, protocol.Diagnostic{
			Range:    spanToRange(d.Span),
			Severity: severityOf(d),
			Code:     string(d.Code),
			Source:   "shdlc",
			Message:  d.Message,
		})
	}

	params := protocol.PublishDiagnosticsParams{
		URI:         docURI,
		Diagnostics: diags,
	}

	payload, err := json.Marshal(params)
	if err != nil {
		s.logger.Warn("could not marshal diagnostics", zap.Error(err))
		return
	}

	if err := s.conn.Notify(ctx, protocol.MethodTextDocumentPublishDiagnostics, payload); err != nil {
		s.logger.Warn("could not publish diagnostics", zap.Error(err))
	}
}

func severityOf(d diag.Diagnostic) protocol.DiagnosticSeverity {
	if d.Severity == diag.Warning {
		return protocol.DiagnosticSeverityWarning
	}

	return protocol.DiagnosticSeverityError
}

// spanToRange converts a 1-based, rune-offset Span into a 0-based LSP
// Range. Span carries only a start line/column, so the end is reported as
// the same point — precise enough to place a squiggle at the error's
// origin, which is all the analyzer's spans (often zero-value today,
// pending per-connection span plumbing) can promise.
func spanToRange(sp source.Span) protocol.Range {
	line := uint32(0)
	col := uint32(0)

	if sp.Line > 0 {
		line = uint32(sp.Line - 1)
	}

	if sp.Column > 0 {
		col = uint32(sp.Column - 1)
	}

	pos := protocol.Position{Line: line, Character: col}

	return protocol.Range{Start: pos, End: pos}
}
