package telemetry

import (
	"context"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/anicoll/telemetry-integration/internal/pkg/config"
	"github.com/anicoll/telemetry-integration/internal/pkg/model"
	"github.com/anicoll/telemetry-integration/pkg/sockets"
)

// Monitor composes the registry, store, room manager, session and dispatcher
// into the multi-entity subscription surface: add and remove entities at any
// time, read the live snapshot, and let the monitor keep the server-side
// subscriptions in step.
type Monitor struct {
	cfg        *config.TelemetryConfig
	registry   *Registry
	store      *Store
	rooms      *RoomManager
	session    *Session
	dispatcher *Dispatcher
	logger     *zap.Logger
}

type Option func(*options)

type options struct {
	clock       clockwork.Clock
	logger      *zap.Logger
	onValue     func(entity model.MonitoredEntity, variableKey string, value any, timestamp string)
	connFactory func() sockets.Connection
}

func WithClock(clock clockwork.Clock) Option {
	return func(o *options) { o.clock = clock }
}

func WithLogger(logger *zap.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// OnValue registers a hook fired for every accepted value, after the store
// update. Used to bridge values into the publisher fan-out.
func OnValue(f func(entity model.MonitoredEntity, variableKey string, value any, timestamp string)) Option {
	return func(o *options) { o.onValue = f }
}

// WithTransport swaps the connection factory, for tests.
func WithTransport(f func() sockets.Connection) Option {
	return func(o *options) { o.connFactory = f }
}

func New(cfg *config.TelemetryConfig, errChan chan<- error, opts ...Option) *Monitor {
	o := &options{
		clock:  clockwork.NewRealClock(),
		logger: zap.L(),
	}
	for _, opt := range opts {
		opt(o)
	}

	m := &Monitor{
		cfg:      cfg,
		registry: NewRegistry(),
		store:    NewStore(),
		logger:   o.logger,
	}

	sessionOpts := []SessionOption{
		OnSessionConnect(m.handleConnect),
		OnSessionDisconnect(m.handleDisconnect),
		OnSessionMessage(m.handleMessage),
		WithSessionLogger(o.logger),
	}
	if o.connFactory != nil {
		sessionOpts = append(sessionOpts, WithConnectionFactory(o.connFactory))
	}
	m.session = NewSession(cfg, errChan, sessionOpts...)
	m.rooms = NewRoomManager(m.session, o.logger)
	m.dispatcher = NewDispatcher(m.registry, m.store, o.clock, o.logger)
	m.dispatcher.onValue = o.onValue
	return m
}

// Start opens the push session. Room joins for entities added before Start
// are sent by the connect pass.
func (m *Monitor) Start(ctx context.Context) error {
	return m.session.Start(ctx)
}

// Close tears down the session and cancels outstanding decay timers.
func (m *Monitor) Close() error {
	m.dispatcher.Stop()
	return m.session.Close()
}

// AddEntity starts monitoring an entity: seeds its telemetry record and
// joins whatever rooms it needs. Adding an already-monitored id is a no-op.
func (m *Monitor) AddEntity(entity model.MonitoredEntity) {
	if !m.registry.Add(entity) {
		m.logger.Debug("entity already monitored", zap.String("entity_id", entity.ID))
		return
	}
	m.store.Seed(entity)
	m.store.ApplyConnectionChange(m.session.IsConnected())
	m.rooms.JoinAll(m.registry.List())
	m.logger.Info("monitoring entity",
		zap.String("entity_id", entity.ID),
		zap.String("type", entity.Type.String()),
		zap.String("name", entity.Name))
}

// RemoveEntity stops monitoring an entity: leaves its rooms (unless still
// required by another entity) and drops its record. Unknown ids are a no-op.
func (m *Monitor) RemoveEntity(entityID string) {
	removed, existed := m.registry.Remove(entityID)
	if !existed {
		return
	}
	m.rooms.LeaveFor(removed, m.registry.List())
	m.dispatcher.CancelDecay(entityID)
	m.store.Delete(entityID)
	m.logger.Info("stopped monitoring entity", zap.String("entity_id", entityID))
}

// TelemetryData returns a read-only snapshot of the live state, keyed by
// entity id.
func (m *Monitor) TelemetryData() map[string]model.EntityTelemetryData {
	return m.store.Snapshot()
}

func (m *Monitor) IsConnected() bool {
	return m.session.IsConnected()
}

// JoinedRooms reports the client-side membership bookkeeping, for the
// periodic summary.
func (m *Monitor) JoinedRooms() []string {
	return m.rooms.Joined()
}

func (m *Monitor) handleConnect() {
	m.store.ApplyConnectionChange(true)
	m.rooms.JoinAll(m.registry.List())
}

func (m *Monitor) handleDisconnect() {
	m.store.ApplyConnectionChange(false)
	// The server forgets memberships with the socket; forget ours too so the
	// reconnect pass re-sends every join.
	m.rooms.Reset()
}

func (m *Monitor) handleMessage(env model.Envelope) {
	m.dispatcher.Dispatch(env)
}
