package telemetry

import (
	"sync"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/anicoll/telemetry-integration/internal/pkg/model"
)

// emitter is the slice of the transport session the room manager needs.
type emitter interface {
	Emit(event string, data any) error
	IsConnected() bool
}

// RoomManager keeps server-side subscriptions consistent with the registry
// with minimal churn. It remembers which rooms it has joined and only sends
// the delta; the joined set is cleared on disconnect because the server
// forgets memberships, so the post-reconnect join pass re-sends everything.
type RoomManager struct {
	mu     sync.Mutex
	joined map[string]struct{}
	conn   emitter
	logger *zap.Logger
}

func NewRoomManager(conn emitter, logger *zap.Logger) *RoomManager {
	return &RoomManager{
		joined: make(map[string]struct{}),
		conn:   conn,
		logger: logger,
	}
}

// JoinAll sends a join for every room required by the given entities that is
// not already joined. Does nothing while disconnected; the connect handler
// runs the same pass once the session is up.
func (m *RoomManager) JoinAll(entities []model.MonitoredEntity) {
	if !m.conn.IsConnected() {
		return
	}
	required := requiredRooms(entities)

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, room := range required {
		if _, joined := m.joined[room]; joined {
			continue
		}
		if err := m.conn.Emit(model.EventJoin, room); err != nil {
			m.logger.Debug("join not sent", zap.String("room", room), zap.Error(err))
			continue
		}
		m.joined[room] = struct{}{}
		roomsJoinedTotal.Inc()
		m.logger.Debug("joined room", zap.String("room", room))
	}
}

// LeaveFor sends a leave for each of the removed entity's rooms, unless the
// room is still required by one of the remaining entities.
func (m *RoomManager) LeaveFor(removed model.MonitoredEntity, remaining []model.MonitoredEntity) {
	if !m.conn.IsConnected() {
		return
	}
	stillRequired := requiredRooms(remaining)

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, room := range removed.Rooms() {
		if lo.Contains(stillRequired, room) {
			continue
		}
		if _, joined := m.joined[room]; !joined {
			continue
		}
		if err := m.conn.Emit(model.EventLeave, room); err != nil {
			m.logger.Debug("leave not sent", zap.String("room", room), zap.Error(err))
			continue
		}
		delete(m.joined, room)
		roomsLeftTotal.Inc()
		m.logger.Debug("left room", zap.String("room", room))
	}
}

// Reset forgets all client-side membership bookkeeping. Called on disconnect;
// the server is the source of truth and drops memberships with the socket.
func (m *RoomManager) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.joined = make(map[string]struct{})
}

// Joined returns the rooms this client believes it is subscribed to.
func (m *RoomManager) Joined() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return lo.Keys(m.joined)
}

func requiredRooms(entities []model.MonitoredEntity) []string {
	return lo.Uniq(lo.FlatMap(entities, func(e model.MonitoredEntity, _ int) []string {
		return e.Rooms()
	}))
}
