// Package mcp implements a Context7-compatible JSON-RPC 2.0 tool endpoint.
package mcp

import "encoding/json"

// JSON-RPC 2.0 error codes.
const (
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
)

// Request is a JSON-RPC 2.0 request envelope.
type Request struct {
	JSONRPC string `json:"jsonrpc"`
	ID      any    `json:"id"`
	Method  string `json:"method"`
	Params  Params `json:"params"`
}

// Params carries the tool name and its arguments for a tools/call request.
type Params struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

// Response is a JSON-RPC 2.0 response envelope.
type Response struct {
	JSONRPC string  `json:"jsonrpc"`
	ID      any     `json:"id"`
	Result  *Result `json:"result,omitempty"`
	Error   *Error  `json:"error,omitempty"`
}

// Result is a successful tool invocation result.
type Result struct {
	Content []TextContent `json:"content"`
}

// TextContent is a single text item in a tool result.
type TextContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Error is a JSON-RPC 2.0 error object.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// resolveLibraryIDArgs are the arguments for the resolve-library-id tool.
type resolveLibraryIDArgs struct {
	LibraryName string `json:"libraryName" validate:"required"`
	Query       string `json:"query"`
}

// queryDocsArgs are the arguments for the query-docs tool.
type queryDocsArgs struct {
	LibraryID string `json:"libraryId" validate:"required"`
	Query     string `json:"query" validate:"required"`
}

func textResult(text string) *Result {
	return &Result{Content: []TextContent{{Type: "text", Text: text}}}
}
