package telemetry

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/anicoll/telemetry-integration/internal/pkg/config"
	"github.com/anicoll/telemetry-integration/internal/pkg/model"
	"github.com/anicoll/telemetry-integration/pkg/sockets"
)

var (
	ErrMissingToken  = errors.New("auth token is required")
	ErrSessionClosed = errors.New("session closed")
	ErrNotConnected  = errors.New("session not connected")
)

type SessionState string

const (
	StateDisconnected SessionState = "disconnected"
	StateConnecting   SessionState = "connecting"
	StateConnected    SessionState = "connected"
)

// Session owns the single persistent connection to the telemetry push
// server. It dials once per Start, reconnects on unexpected drops with a
// bounded number of fixed-delay attempts, and stops for good on Close.
type Session struct {
	cfg     *config.TelemetryConfig
	logger  *zap.Logger
	errChan chan<- error

	// newConn builds the underlying connection; swapped out in tests.
	newConn func() sockets.Connection

	mu     sync.Mutex
	conn   sockets.Connection
	state  SessionState
	closed bool

	onConnect    func()
	onDisconnect func()
	onMessage    func(model.Envelope)
}

type SessionOption func(*Session)

func OnSessionConnect(f func()) SessionOption {
	return func(s *Session) { s.onConnect = f }
}

func OnSessionDisconnect(f func()) SessionOption {
	return func(s *Session) { s.onDisconnect = f }
}

func OnSessionMessage(f func(model.Envelope)) SessionOption {
	return func(s *Session) { s.onMessage = f }
}

func WithConnectionFactory(f func() sockets.Connection) SessionOption {
	return func(s *Session) { s.newConn = f }
}

func WithSessionLogger(logger *zap.Logger) SessionOption {
	return func(s *Session) { s.logger = logger }
}

func NewSession(cfg *config.TelemetryConfig, errChan chan<- error, opts ...SessionOption) *Session {
	s := &Session{
		cfg:     cfg,
		logger:  zap.L(),
		errChan: errChan,
		state:   StateDisconnected,
	}
	s.newConn = s.defaultConn
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *Session) defaultConn() sockets.Connection {
	opts := []func(*sockets.Conn){
		sockets.OnConnected(s.handleConnected),
		sockets.OnMessage(s.handleMessage),
		sockets.OnError(s.handleError),
		sockets.WithPingIntervalSec(s.cfg.PingIntervalSecs),
		sockets.WithPingMsg([]byte("ping")),
	}
	if s.cfg.InsecureSkipVerify {
		opts = append(opts, sockets.InsecureSkipVerify())
	}
	return sockets.New(opts...)
}

// Start opens the connection, retrying per the reconnect policy. The session
// is single-use: after Close it cannot be started again.
func (s *Session) Start(ctx context.Context) error {
	if s.cfg.AuthToken == "" {
		return ErrMissingToken
	}
	s.warnIfTokenExpired()
	s.setState(StateConnecting)
	return s.dialWithRetry(ctx)
}

func (s *Session) dialWithRetry(ctx context.Context) error {
	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(s.cfg.ReconnectDelay), s.cfg.MaxReconnectAttempts),
		ctx,
	)
	return backoff.Retry(func() error {
		if s.isClosed() {
			return backoff.Permanent(ErrSessionClosed)
		}
		return s.dial(ctx)
	}, policy)
}

func (s *Session) dial(ctx context.Context) error {
	sessionURL, err := s.sessionURL()
	if err != nil {
		return backoff.Permanent(err)
	}

	conn := s.newConn()
	s.mu.Lock()
	s.conn = conn
	s.mu.Unlock()

	if err := conn.Dial(ctx, sessionURL, nil); err != nil {
		s.logger.Debug("connect attempt failed", zap.Error(err))
		return err
	}
	return nil
}

// sessionURL appends the auth credential to the configured server URL.
func (s *Session) sessionURL() (string, error) {
	u, err := url.Parse(s.cfg.ServerURL)
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set("token", s.cfg.AuthToken)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// warnIfTokenExpired peeks at the token's unverified claims. Opaque tokens
// are fine, only a parseable and already-expired JWT gets a warning.
func (s *Session) warnIfTokenExpired() {
	token, _, err := jwt.NewParser().ParseUnverified(s.cfg.AuthToken, jwt.MapClaims{})
	if err != nil {
		return
	}
	exp, err := token.Claims.GetExpirationTime()
	if err != nil || exp == nil {
		return
	}
	if exp.Before(time.Now()) {
		s.logger.Warn("auth token is expired, the handshake will likely be rejected",
			zap.Time("expired_at", exp.Time))
	}
}

func (s *Session) handleConnected(sockets.Connection) {
	s.setState(StateConnected)
	connectedGauge.Set(1)
	s.logger.Info("telemetry session connected")
	if s.onConnect != nil {
		s.onConnect()
	}
}

func (s *Session) handleMessage(data []byte, _ sockets.Connection) {
	env := model.Envelope{}
	if err := json.Unmarshal(data, &env); err != nil || env.Event == "" {
		pushDiscardedTotal.WithLabelValues("malformed_envelope").Inc()
		s.logger.Debug("discarding unparseable push frame", zap.ByteString("frame", data), zap.Error(err))
		return
	}
	pushMessagesTotal.WithLabelValues(env.Event).Inc()
	if s.onMessage != nil {
		s.onMessage(env)
	}
}

// handleError fires on unexpected drops and read failures. It flips the
// session back to connecting and redials in the background; the joined-room
// and connected bookkeeping is reset through the disconnect hook.
func (s *Session) handleError(err error) {
	if s.isClosed() {
		return
	}
	s.setState(StateConnecting)
	connectedGauge.Set(0)
	s.logger.Warn("telemetry connection dropped", zap.Error(err))
	if s.onDisconnect != nil {
		s.onDisconnect()
	}

	go func() {
		if err := s.dialWithRetry(context.Background()); err != nil {
			if s.isClosed() {
				return
			}
			s.setState(StateDisconnected)
			s.logger.Error("reconnect attempts exhausted", zap.Error(err))
			if s.errChan != nil {
				s.errChan <- err
			}
		}
	}()
}

// Emit sends one protocol message, fire and forget from the caller's
// perspective.
func (s *Session) Emit(event string, data any) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return err
	}
	body, err := json.Marshal(model.Envelope{Event: event, Data: raw})
	if err != nil {
		return err
	}

	s.mu.Lock()
	conn := s.conn
	connected := s.state == StateConnected
	s.mu.Unlock()
	if !connected || conn == nil {
		return ErrNotConnected
	}
	return conn.Send(sockets.Msg{Body: body})
}

func (s *Session) IsConnected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state == StateConnected
}

func (s *Session) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) setState(state SessionState) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
}

func (s *Session) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Close tears the session down. No reconnect attempts and no event delivery
// happen afterwards.
func (s *Session) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.state = StateDisconnected
	conn := s.conn
	s.mu.Unlock()

	connectedGauge.Set(0)
	if conn != nil {
		return conn.Close()
	}
	return nil
}
