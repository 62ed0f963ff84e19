package proxy

import (
	"errors"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/gemhq/cdpgate/internal/infrastructure/monitoring"
	"github.com/gemhq/cdpgate/internal/shared/id"
)

// session holds the state of one relay between a debugging client and
// the upstream browser. Writes to each side are serialized by a mutex
// because control replies and forwarded frames originate on different
// goroutines.
type session struct {
	id       id.SessionID
	path     string
	client   *websocket.Conn
	upstream *websocket.Conn

	clientMu   sync.Mutex
	upstreamMu sync.Mutex

	// verbose toggles per-frame logging; flipped at runtime by the
	// control channel.
	verbose atomic.Bool

	logger  *zap.Logger
	metrics *monitoring.Metrics
}

// Relay upgrades the request and pumps frames between the client and
// the upstream browser endpoint until either side disconnects. Close
// codes propagate across so each side sees why the other left.
func (s *Service) Relay(w http.ResponseWriter, r *http.Request, path string) {
	client, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer client.Close()

	if !s.configured {
		closeConn(client, websocket.CloseInternalServerErr, "CDP proxy not configured")
		return
	}

	sid := id.NewSessionID()
	logger := s.logger.With(
		zap.String("session", sid.String()),
		zap.String("path", "/"+path),
	)

	target := "ws://" + s.netloc + "/devtools/" + path
	logger.Info("establishing upstream websocket connection", zap.String("target", target))

	upstream, resp, err := s.dialer.Dial(target, nil)
	if err != nil {
		logger.Error("upstream websocket dial failed", zap.Error(err))
		if resp != nil {
			resp.Body.Close()
		}
		closeConn(client, websocket.CloseInternalServerErr, "upstream connection failed")
		return
	}
	defer upstream.Close()

	client.SetReadLimit(maxMessageSize)
	upstream.SetReadLimit(maxMessageSize)

	sess := &session{
		id:       sid,
		path:     path,
		client:   client,
		upstream: upstream,
		logger:   logger,
		metrics:  s.metrics,
	}
	sess.verbose.Store(s.verboseDefault())

	s.metrics.SessionStarted()
	defer s.metrics.SessionEnded()
	logger.Info("relay session established")

	upstream.SetReadDeadline(time.Now().Add(pingInterval + pingTimeout))
	upstream.SetPongHandler(func(string) error {
		return upstream.SetReadDeadline(time.Now().Add(pingInterval + pingTimeout))
	})

	stopPing := make(chan struct{})
	defer close(stopPing)
	go sess.pingUpstream(stopPing)

	done := make(chan struct{}, 2)
	go func() {
		sess.pumpClientToUpstream()
		done <- struct{}{}
	}()
	go func() {
		sess.pumpUpstreamToClient()
		done <- struct{}{}
	}()

	// First pump to finish has already propagated the close; closing
	// both conns unblocks the other pump.
	<-done
	client.Close()
	upstream.Close()
	<-done

	logger.Info("relay session finished")
}

// pumpClientToUpstream forwards client frames upstream, intercepting
// control-domain commands.
func (sess *session) pumpClientToUpstream() {
	for {
		msgType, data, err := sess.client.ReadMessage()
		if err != nil {
			sess.logClose("client disconnected", err)
			sess.propagateClose(err, sess.upstream, &sess.upstreamMu)
			return
		}

		if msgType == websocket.TextMessage && strings.Contains(string(data), ControlDomain) {
			if sess.handleControl(data) {
				continue
			}
		}

		if sess.verbose.Load() {
			sess.logFrame("client frame", msgType, data, 250)
		}
		sess.metrics.RecordSessionFrame("client_to_upstream", frameType(msgType))

		if err := sess.writeUpstream(msgType, data); err != nil {
			sess.logClose("upstream write failed", err)
			return
		}
	}
}

// pumpUpstreamToClient forwards upstream frames to the client verbatim.
func (sess *session) pumpUpstreamToClient() {
	for {
		msgType, data, err := sess.upstream.ReadMessage()
		if err != nil {
			sess.logClose("upstream disconnected", err)
			sess.propagateClose(err, sess.client, &sess.clientMu)
			return
		}

		if sess.verbose.Load() {
			sess.logFrame("upstream frame", msgType, data, 200)
		}
		sess.metrics.RecordSessionFrame("upstream_to_client", frameType(msgType))

		if err := sess.writeClient(msgType, data); err != nil {
			sess.logClose("client write failed", err)
			return
		}
	}
}

// pingUpstream keeps the upstream connection alive. The read deadline
// set alongside the pong handler tears the session down when pongs stop
// arriving.
func (sess *session) pingUpstream(stop <-chan struct{}) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			sess.upstreamMu.Lock()
			err := sess.upstream.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
			sess.upstreamMu.Unlock()
			if err != nil {
				return
			}
		case <-stop:
			return
		}
	}
}

func (sess *session) writeClient(msgType int, data []byte) error {
	sess.clientMu.Lock()
	defer sess.clientMu.Unlock()
	return sess.client.WriteMessage(msgType, data)
}

func (sess *session) writeUpstream(msgType int, data []byte) error {
	sess.upstreamMu.Lock()
	defer sess.upstreamMu.Unlock()
	return sess.upstream.WriteMessage(msgType, data)
}

// propagateClose forwards a close code and reason to the other side of
// the relay when the read error carries one.
func (sess *session) propagateClose(readErr error, other *websocket.Conn, mu *sync.Mutex) {
	var ce *websocket.CloseError
	if !errors.As(readErr, &ce) {
		return
	}
	mu.Lock()
	defer mu.Unlock()
	other.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(ce.Code, ce.Text),
		time.Now().Add(writeWait),
	)
}

func (sess *session) logClose(msg string, err error) {
	var ce *websocket.CloseError
	if errors.As(err, &ce) {
		sess.logger.Info(msg, zap.Int("code", ce.Code), zap.String("reason", ce.Text))
		return
	}
	sess.logger.Info(msg, zap.Error(err))
}

func (sess *session) logFrame(msg string, msgType int, data []byte, limit int) {
	if msgType == websocket.BinaryMessage {
		sess.logger.Info(msg, zap.String("type", "binary"), zap.Int("len", len(data)))
		return
	}
	text := string(data)
	if len(text) > limit {
		text = text[:limit] + "..."
	}
	sess.logger.Info(msg, zap.String("data", text))
}

func frameType(msgType int) string {
	if msgType == websocket.BinaryMessage {
		return "binary"
	}
	return "text"
}

// closeConn sends a close frame and gives the peer a moment to read it.
func closeConn(conn *websocket.Conn, code int, reason string) {
	conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(code, reason),
		time.Now().Add(writeWait),
	)
	time.Sleep(100 * time.Millisecond)
}
