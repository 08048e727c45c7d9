package lsp

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/pkg/errors"
	"pkg.nimblebun.works/go-lsp"
)

type rpcCall struct {
	Jsonrpc string          `json:"jsonrpc"`
	Id      lsp.ID          `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params"`
}

type rpcResponse struct {
	Jsonrpc string          `json:"jsonrpc"`
	Id      lsp.ID          `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *rpcError       `json:"error,omitempty"`
}

type rpcError struct {
	Code    rpcErrorCode `json:"code"`
	Message string       `json:"message"`
}

func (r rpcError) Error() string {
	return r.Message
}

type rpcErrorCode int

const (
	rpcParseError           rpcErrorCode = -32700
	rpcInvalidRequest       rpcErrorCode = -32600
	rpcMethodNotFound       rpcErrorCode = -32601
	rpcServerNotInitialized rpcErrorCode = -32002
)

type rpcNotification struct {
	Jsonrpc string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params"`
}

type initializeResult struct {
	Capabilities serverCapabilities `json:"capabilities"`
	ServerInfo   serverInfo         `json:"serverInfo"`
}

type serverCapabilities struct {
	TextDocumentSync textDocumentSyncKind `json:"textDocumentSync"`
}

type textDocumentSyncKind int

// Whole documents are sent on every change.
const syncFull textDocumentSyncKind = 1

type serverInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

type textDocumentIdentifier struct {
	URI lsp.DocumentURI `json:"uri"`
}

type didOpenParams struct {
	TextDocument lsp.TextDocumentItem `json:"textDocument"`
}

type contentChange struct {
	Text string `json:"text"`
}

type didChangeParams struct {
	TextDocument   textDocumentIdentifier `json:"textDocument"`
	ContentChanges []contentChange        `json:"contentChanges"`
}

type didCloseParams struct {
	TextDocument textDocumentIdentifier `json:"textDocument"`
}

// maxMessageSize bounds the body ReadMessage will allocate.
const maxMessageSize = 64 << 20

// ReadMessage reads one Content-Length framed message body from r. A clean
// end of stream between messages is io.EOF.
func ReadMessage(r *bufio.Reader) ([]byte, error) {
	contentLen := -1
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			if err == io.EOF && line == "" && contentLen < 0 {
				return nil, io.EOF
			}
			return nil, err
		}
		line = strings.TrimRight(line, "\r\n")
		if line == "" {
			break
		}
		if i := strings.IndexByte(line, ':'); i >= 0 {
			key := strings.ToLower(strings.TrimSpace(line[:i]))
			val := strings.TrimSpace(line[i+1:])
			if key == "content-length" {
				if _, err := fmt.Sscanf(val, "%d", &contentLen); err != nil {
					return nil, errors.Errorf("bad Content-Length %q", val)
				}
			}
		}
	}
	if contentLen < 0 {
		return nil, errors.New("message without Content-Length")
	}
	if contentLen > maxMessageSize {
		return nil, errors.Errorf("Content-Length %d exceeds the %d byte limit", contentLen, maxMessageSize)
	}
	buf := make([]byte, contentLen)
	_, err := io.ReadFull(r, buf)
	return buf, err
}

// WriteMessage encodes v as JSON and writes it with a Content-Length header.
func WriteMessage(w io.Writer, v any) error {
	body, err := json.Marshal(v)
	if err != nil {
		return err
	}
	var b bytes.Buffer
	fmt.Fprintf(&b, "Content-Length: %d\r\n\r\n", len(body))
	b.Write(body)
	_, err = w.Write(b.Bytes())
	return err
}
