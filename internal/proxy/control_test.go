package proxy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

// Frames that must be forwarded rather than answered locally. These
// paths never write to the session, so no connection is needed.
func TestHandleControlPassesThroughOrdinaryTraffic(t *testing.T) {
	sess := &session{logger: zap.NewNop(), metrics: testMetrics}

	tests := []struct {
		name string
		data string
	}{
		{"invalid json", `{"method": "CDPProxy.setLoggingEnabled`},
		{"method not a string", `{"id":1,"method":42,"note":"CDPProxy"}`},
		{"different domain", `{"id":1,"method":"Network.enable"}`},
		{"domain in payload only", `{"id":1,"method":"Runtime.evaluate","params":{"expression":"CDPProxy"}}`},
		{"domain without dot", `{"id":1,"method":"CDPProxyOther"}`},
		{"params wrong shape", `{"id":1,"method":"CDPProxy.setLoggingEnabled","params":[1,2]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.False(t, sess.handleControl([]byte(tt.data)))
		})
	}
}
