// Package lsp is a minimal language server that reports compile errors as
// diagnostics while a document is edited.
package lsp

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"strings"
	"sync"

	"embryon/pkg/compiler"

	"github.com/pkg/errors"
	"pkg.nimblebun.works/go-lsp"
)

const Version = "0.1.0"

type Server struct {
	out io.Writer
	log *log.Logger

	mu          sync.Mutex // guards out
	initialized bool
	shutdown    bool

	openedDocuments map[lsp.DocumentURI]*lsp.TextDocumentItem
}

// NewServer returns a server that writes framed responses and
// notifications to out. A nil logger discards the trace.
func NewServer(out io.Writer, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Server{
		out:             out,
		log:             logger,
		openedDocuments: map[lsp.DocumentURI]*lsp.TextDocumentItem{},
	}
}

// Serve handles framed messages from r until the client sends exit or the
// stream ends.
func (s *Server) Serve(r io.Reader) error {
	in := bufio.NewReader(r)
	for {
		msg, err := ReadMessage(in)
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return errors.Wrap(err, "read message")
		}
		exit, err := s.HandleMessage(msg)
		if err != nil {
			s.log.Println(err)
		}
		if exit {
			return nil
		}
	}
}

// HandleMessage dispatches one JSON-RPC message. exit is true once the
// client asked the server to terminate.
func (s *Server) HandleMessage(msg []byte) (exit bool, err error) {
	var call rpcCall
	if err := json.Unmarshal(msg, &call); err != nil {
		s.respondError(call.Id, rpcParseError, err.Error())
		return false, errors.Wrap(err, "decode message")
	}
	s.log.Println("<- " + call.Method)

	switch call.Method {
	case "initialize":
		s.initialized = true
		return false, s.respond(call.Id, initializeResult{
			Capabilities: serverCapabilities{TextDocumentSync: syncFull},
			ServerInfo:   serverInfo{Name: "embryon-lsp", Version: Version},
		})
	case "initialized":
		return false, s.notify("window/logMessage", lsp.ShowMessageParams{
			Type:    lsp.MTInfo,
			Message: "embryon-lsp " + Version + " ready",
		})
	case "shutdown":
		s.shutdown = true
		return false, s.respond(call.Id, nil)
	case "exit":
		return true, nil
	}

	if !s.initialized || s.shutdown {
		switch {
		case isNotification(call.Method):
		case !s.initialized:
			s.respondError(call.Id, rpcServerNotInitialized, "server not initialized")
		default:
			s.respondError(call.Id, rpcInvalidRequest, "server is shutting down")
		}
		return false, nil
	}

	switch call.Method {
	case "textDocument/didOpen":
		var params didOpenParams
		if err := json.Unmarshal(call.Params, &params); err != nil {
			return false, errors.Wrap(err, call.Method)
		}
		doc := params.TextDocument
		s.openedDocuments[doc.URI] = &doc
		return false, s.publish(doc.URI, doc.Text)

	case "textDocument/didChange":
		var params didChangeParams
		if err := json.Unmarshal(call.Params, &params); err != nil {
			return false, errors.Wrap(err, call.Method)
		}
		doc, ok := s.openedDocuments[params.TextDocument.URI]
		if !ok {
			return false, errors.Errorf("%s: document %s is not open", call.Method, params.TextDocument.URI)
		}
		if n := len(params.ContentChanges); n > 0 {
			doc.Text = params.ContentChanges[n-1].Text
		}
		return false, s.publish(doc.URI, doc.Text)

	case "textDocument/didClose":
		var params didCloseParams
		if err := json.Unmarshal(call.Params, &params); err != nil {
			return false, errors.Wrap(err, call.Method)
		}
		delete(s.openedDocuments, params.TextDocument.URI)
		return false, s.notify("textDocument/publishDiagnostics", lsp.PublishDiagnosticsParams{
			URI:         params.TextDocument.URI,
			Diagnostics: []lsp.Diagnostic{},
		})
	}

	if isNotification(call.Method) {
		return false, nil
	}
	s.respondError(call.Id, rpcMethodNotFound, fmt.Sprintf("Method %s not implemented", call.Method))
	return false, nil
}

// isNotification reports whether method never expects a reply.
func isNotification(method string) bool {
	return strings.HasPrefix(method, "$/") ||
		strings.HasPrefix(method, "textDocument/did") ||
		strings.HasPrefix(method, "workspace/did")
}

// publish compiles text and reports its diagnostics, an empty list when it
// compiles cleanly.
func (s *Server) publish(uri lsp.DocumentURI, text string) error {
	return s.notify("textDocument/publishDiagnostics", lsp.PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: Diagnose(text),
	})
}

// Diagnose compiles src and converts the first error, if any, into a
// one-character diagnostic at the error position.
func Diagnose(src string) []lsp.Diagnostic {
	_, err := compiler.Compile(src, "document")
	if err == nil {
		return []lsp.Diagnostic{}
	}

	line, c := 0, 0
	if pos, ok := compiler.ErrorPos(err); ok {
		line, c = pos.Line-1, pos.Column-1
	}
	return []lsp.Diagnostic{{
		Range: lsp.Range{
			Start: lsp.Position{Line: line, Character: c},
			End:   lsp.Position{Line: line, Character: c + 1},
		},
		Severity: lsp.DSError,
		Message:  errors.Cause(err).Error(),
	}}
}

func (s *Server) respond(id lsp.ID, result any) error {
	data, err := json.Marshal(result)
	if err != nil {
		return err
	}
	return s.write(rpcResponse{Jsonrpc: "2.0", Id: id, Result: data})
}

func (s *Server) respondError(id lsp.ID, code rpcErrorCode, message string) {
	err := s.write(rpcResponse{
		Jsonrpc: "2.0",
		Id:      id,
		Error:   &rpcError{Code: code, Message: message},
	})
	if err != nil {
		s.log.Println(err)
	}
}

func (s *Server) notify(method string, params any) error {
	s.log.Println("-> " + method)
	data, err := json.Marshal(params)
	if err != nil {
		return err
	}
	return s.write(rpcNotification{Jsonrpc: "2.0", Method: method, Params: data})
}

func (s *Server) write(v any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return WriteMessage(s.out, v)
}
