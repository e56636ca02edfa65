// Package gate admits connections to the realtime channel. Every new
// connection gets a grace period to present a valid token; connections
// that fail or run out of time are force-disconnected.
package gate

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/g21-super-team/funny-movies-be/internal/metrics"
)

// ShareGroup receives the "new movie shared" broadcasts. Every
// authenticated connection joins it.
const ShareGroup = "share:new"

// UserGroup is the identity-scoped group one user's connections share.
func UserGroup(userID int64) string { return "user:" + strconv.FormatInt(userID, 10) }

var (
	ErrExpired      = errors.New("auth grace period elapsed")
	ErrInvalidToken = errors.New("invalid token")
)

// Transport is the capability surface the supervisor needs from the
// connection registry. It keeps the admission logic independent of the
// websocket library.
type Transport interface {
	JoinGroups(connID string, groups []string)
	LeaveGroup(connID, group string)
	GroupMembers(group string) []string
	ForceDisconnect(connID string)
}

// TokenSource validates a handshake bearer token and yields the user it
// belongs to.
type TokenSource interface {
	Validate(ctx context.Context, token string) (int64, error)
}

type Options struct {
	Grace time.Duration
}

// Supervisor tracks one grace timer per connecting socket. The timer is
// cancelled exactly once, on successful authentication; cancelling an
// already-fired timer is a safe no-op.
type Supervisor struct {
	transport Transport
	tokens    TokenSource
	log       *zap.Logger
	grace     time.Duration

	mu     sync.Mutex
	timers map[string]*time.Timer
}

func NewSupervisor(transport Transport, tokens TokenSource, log *zap.Logger, opt Options) *Supervisor {
	if opt.Grace <= 0 {
		opt.Grace = 5 * time.Second
	}
	return &Supervisor{
		transport: transport,
		tokens:    tokens,
		log:       log,
		grace:     opt.Grace,
		timers:    make(map[string]*time.Timer),
	}
}

// OnConnect arms the grace-period timer for a new connection.
func (s *Supervisor) OnConnect(connID string) {
	t := time.AfterFunc(s.grace, func() { s.expire(connID) })
	s.mu.Lock()
	s.timers[connID] = t
	s.mu.Unlock()
}

func (s *Supervisor) expire(connID string) {
	s.mu.Lock()
	_, pending := s.timers[connID]
	delete(s.timers, connID)
	s.mu.Unlock()
	if !pending {
		return
	}
	metrics.WSAuthTimeout.Inc()
	s.log.Info("grace period elapsed without auth, disconnecting", zap.String("conn_id", connID))
	s.transport.ForceDisconnect(connID)
}

// cancel removes the timer if it is still pending. Returns false when the
// timer already fired or was never armed.
func (s *Supervisor) cancel(connID string) bool {
	s.mu.Lock()
	t, ok := s.timers[connID]
	if ok {
		t.Stop()
		delete(s.timers, connID)
	}
	s.mu.Unlock()
	return ok
}

// Authenticate validates the handshake token. A bad credential means an
// immediate forced disconnect, no grace extension. On success the
// connection joins its user group plus ShareGroup and the grace timer is
// cancelled. A handshake arriving after the timer fired is ignored: the
// connection is already gone.
func (s *Supervisor) Authenticate(ctx context.Context, connID, token string) (int64, error) {
	s.mu.Lock()
	_, pending := s.timers[connID]
	s.mu.Unlock()
	if !pending {
		return 0, ErrExpired
	}

	userID, err := s.tokens.Validate(ctx, token)
	if err != nil {
		s.cancel(connID)
		metrics.WSAuthFail.Inc()
		s.log.Info("handshake rejected", zap.String("conn_id", connID), zap.Error(err))
		s.transport.ForceDisconnect(connID)
		return 0, errors.Join(ErrInvalidToken, err)
	}

	s.cancel(connID)
	s.transport.JoinGroups(connID, []string{UserGroup(userID), ShareGroup})
	metrics.WSAuthOK.Inc()
	return userID, nil
}

// OnDisconnect releases the timer of a connection that closed on its own.
func (s *Supervisor) OnDisconnect(connID string) {
	s.cancel(connID)
}

// Logout revokes ShareGroup membership for every connection of a user
// without closing the sockets. Credential logout is decoupled from the
// connection lifecycle.
func (s *Supervisor) Logout(userID int64) {
	for _, connID := range s.transport.GroupMembers(UserGroup(userID)) {
		s.transport.LeaveGroup(connID, ShareGroup)
	}
}
