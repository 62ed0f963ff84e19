package proxy

import (
	"encoding/json"
	"strings"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// controlRequest is a client frame addressed to the relay itself. The
// ID round-trips untouched so callers get back exactly what they sent.
type controlRequest struct {
	ID     any             `json:"id"`
	Method string          `json:"method"`
	Params json.RawMessage `json:"params"`
}

type controlSuccess struct {
	ID     any      `json:"id"`
	Result struct{} `json:"result"`
}

type controlFailure struct {
	ID    any          `json:"id"`
	Error controlError `json:"error"`
}

type controlError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

const methodNotFound = -32601

// handleControl inspects a text frame for a control-domain command and
// answers it locally. Returns false when the frame is ordinary traffic
// that must be forwarded upstream, including frames that merely mention
// the domain without being a well-formed command.
func (sess *session) handleControl(data []byte) bool {
	var req controlRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return false
	}
	if !strings.HasPrefix(req.Method, ControlDomain+".") {
		return false
	}

	switch req.Method {
	case ControlDomain + ".setLoggingEnabled":
		var params map[string]any
		if len(req.Params) > 0 {
			if err := json.Unmarshal(req.Params, &params); err != nil {
				return false
			}
		}
		enabled := truthy(params["enabled"])
		sess.verbose.Store(enabled)
		sess.logger.Info("session frame logging toggled",
			zap.Bool("enabled", enabled),
		)
		sess.metrics.RecordControlMessage(req.Method, "ok")
		sess.replyControl(controlSuccess{ID: req.ID})
		return true

	default:
		sess.logger.Warn("unknown control command", zap.String("method", req.Method))
		sess.metrics.RecordControlMessage(req.Method, "method_not_found")
		sess.replyControl(controlFailure{
			ID: req.ID,
			Error: controlError{
				Code:    methodNotFound,
				Message: "Method not found",
			},
		})
		return true
	}
}

// truthy coerces a loosely typed flag value. Empty strings, zero
// numbers, and empty collections count as false.
func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != ""
	case float64:
		return t != 0
	case []any:
		return len(t) > 0
	case map[string]any:
		return len(t) > 0
	default:
		return true
	}
}

// replyControl sends a control response to the client. Write failures
// surface on the next read, so they are only logged here.
func (sess *session) replyControl(payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		sess.logger.Error("marshal control response", zap.Error(err))
		return
	}
	if err := sess.writeClient(websocket.TextMessage, data); err != nil {
		sess.logger.Warn("write control response", zap.Error(err))
	}
}
