package httptransport

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/httplog/v3"
)

const maxRPCBodyBytes = 1 << 20

// RPCCaptureMiddleware annotates the request log line of an MCP call with
// its JSON-RPC method, the tool name for tools/call, and bounded copies of
// both bodies. It must run inside APILogMiddleware.
func RPCCaptureMiddleware(maxCaptureBytes int) func(http.Handler) http.Handler {
	if maxCaptureBytes <= 0 {
		maxCaptureBytes = 4096
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reqBody, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxRPCBodyBytes))
			if err != nil {
				var tooLarge *http.MaxBytesError
				if errors.As(err, &tooLarge) {
					WriteHTTPError(w, http.StatusRequestEntityTooLarge, "request_too_large")
					return
				}
				WriteHTTPError(w, http.StatusBadRequest, "bad_request")
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(reqBody))

			cw := &captureWriter{ResponseWriter: w, maxBytes: maxCaptureBytes}
			next.ServeHTTP(cw, r)

			for _, attr := range rpcAttrs(reqBody, cw, maxCaptureBytes) {
				httplog.SetAttrs(r.Context(), attr)
			}
		})
	}
}

func rpcAttrs(reqBody []byte, cw *captureWriter, maxCaptureBytes int) []slog.Attr {
	method, tool := describeRPC(reqBody)
	reqLog := reqBody
	if len(reqLog) > maxCaptureBytes {
		reqLog = reqLog[:maxCaptureBytes]
	}
	attrs := []slog.Attr{slog.String("rpc_method", method)}
	if tool != "" {
		attrs = append(attrs, slog.String("mcp_tool", tool))
	}
	return append(attrs,
		slog.Any("request_body", parseMaybeJSON(reqLog)),
		slog.Bool("request_body_truncated", len(reqBody) > maxCaptureBytes),
		slog.Any("response_body", parseMaybeJSON(cw.body.Bytes())),
		slog.Bool("response_body_truncated", cw.truncated),
	)
}

// describeRPC extracts the JSON-RPC method of a single request and, for
// tools/call, the tool name. Batches and invalid bodies yield empty strings.
func describeRPC(body []byte) (method, tool string) {
	var call struct {
		Method string          `json:"method"`
		Params json.RawMessage `json:"params"`
	}
	if err := json.Unmarshal(body, &call); err != nil {
		return "", ""
	}
	if call.Method == "tools/call" && len(call.Params) > 0 {
		var params struct {
			Name string `json:"name"`
		}
		if err := json.Unmarshal(call.Params, &params); err == nil {
			tool = params.Name
		}
	}
	return call.Method, tool
}

// captureWriter keeps the first maxBytes of the response body.
type captureWriter struct {
	http.ResponseWriter
	body      bytes.Buffer
	maxBytes  int
	truncated bool
}

func (c *captureWriter) Write(p []byte) (int, error) {
	if remain := c.maxBytes - c.body.Len(); remain >= len(p) {
		_, _ = c.body.Write(p)
	} else {
		if remain > 0 {
			_, _ = c.body.Write(p[:remain])
		}
		c.truncated = true
	}
	return c.ResponseWriter.Write(p)
}

func (c *captureWriter) Flush() {
	if f, ok := c.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func parseMaybeJSON(b []byte) any {
	if len(b) == 0 {
		return ""
	}
	var out any
	if err := json.Unmarshal(b, &out); err == nil {
		return out
	}
	return string(b)
}
