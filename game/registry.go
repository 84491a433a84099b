package game

import (
	"errors"
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

var (
	ErrAlreadyInMatch  = errors.New("player already has an active match")
	ErrSessionNotFound = errors.New("session not found")
	ErrAlreadyQueued   = errors.New("player already waiting for quick play")
)

// Registry is the process-wide table of live sessions plus the
// player-to-session index. One player occupies at most one non-terminal
// session at a time; the check and the registration are a single critical
// section so two concurrent creates for the same player cannot both win.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*Session
	byPlayer map[int]string

	// quick-play waiting slot; first waiter pairs with the next caller
	waiting *PlayerInfo

	broadcaster Broadcaster
	onResult    func(Result)
	logger      *slog.Logger
}

func NewRegistry(b Broadcaster, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		sessions:    make(map[string]*Session),
		byPlayer:    make(map[int]string),
		broadcaster: b,
		logger:      logger,
	}
}

// SetResultHandler installs the callback invoked (off the tick path) with
// every terminal result. Must be called before any session is created.
func (r *Registry) SetResultHandler(fn func(Result)) {
	r.onResult = fn
}

// CreateSession registers a new session for two distinct, currently free
// players and starts its tick loop.
func (r *Registry) CreateSession(p1, p2 PlayerInfo, opts Options) (*Session, error) {
	if p1.ID == p2.ID {
		return nil, errors.New("a player cannot play against themselves")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, busy := r.byPlayer[p1.ID]; busy {
		return nil, ErrAlreadyInMatch
	}
	if _, busy := r.byPlayer[p2.ID]; busy {
		return nil, ErrAlreadyInMatch
	}

	id := uuid.NewString()
	sess := newSession(id, p1, p2, opts, r.broadcaster, r.onSessionTerminal, r.logger)
	r.sessions[id] = sess
	r.byPlayer[p1.ID] = id
	r.byPlayer[p2.ID] = id

	go sess.run()

	r.logger.Info("session created",
		slog.String("session_id", id),
		slog.Int("player1", p1.ID),
		slog.Int("player2", p2.ID),
		slog.String("origin", string(opts.Origin)))
	return sess, nil
}

// QueueQuickPlay puts a player into the waiting slot, or pairs them with the
// current waiter. Returns the created session when a pair formed, nil when
// the caller is now waiting.
func (r *Registry) QueueQuickPlay(p PlayerInfo, opts Options) (*Session, error) {
	r.mu.Lock()
	if _, busy := r.byPlayer[p.ID]; busy {
		r.mu.Unlock()
		return nil, ErrAlreadyInMatch
	}
	if r.waiting == nil {
		w := p
		r.waiting = &w
		r.mu.Unlock()
		return nil, nil
	}
	if r.waiting.ID == p.ID {
		r.mu.Unlock()
		return nil, ErrAlreadyQueued
	}
	waiter := *r.waiting
	r.waiting = nil
	r.mu.Unlock()

	opts.Origin = OriginQuickPlay
	sess, err := r.CreateSession(waiter, p, opts)
	if errors.Is(err, ErrAlreadyInMatch) {
		// The waiter got into a match through another path while queued.
		// The caller takes over the slot.
		r.mu.Lock()
		if r.waiting == nil {
			w := p
			r.waiting = &w
		}
		r.mu.Unlock()
		return nil, nil
	}
	return sess, err
}

// LeaveQuickPlay clears the waiting slot if the player holds it.
func (r *Registry) LeaveQuickPlay(playerID int) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.waiting != nil && r.waiting.ID == playerID {
		r.waiting = nil
		return true
	}
	return false
}

func (r *Registry) IsPlayerBusy(playerID int) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, busy := r.byPlayer[playerID]
	return busy
}

func (r *Registry) SessionForPlayer(playerID int) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.byPlayer[playerID]
	if !ok {
		return nil, false
	}
	sess, ok := r.sessions[id]
	return sess, ok
}

func (r *Registry) Session(sessionID string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sess, ok := r.sessions[sessionID]
	return sess, ok
}

// AbortSession force-terminates a session by id and waits for its tick loop
// to stop. Supports caller-side policies like ready-up timeouts.
func (r *Registry) AbortSession(sessionID string) error {
	r.mu.Lock()
	sess, ok := r.sessions[sessionID]
	r.mu.Unlock()
	if !ok {
		return ErrSessionNotFound
	}
	sess.Abort()
	<-sess.Done()
	return nil
}

// onSessionTerminal runs on the session goroutine after its ticker stopped.
// Idempotent: a second notification for the same session is a no-op.
func (r *Registry) onSessionTerminal(res Result) {
	r.mu.Lock()
	_, ok := r.sessions[res.SessionID]
	if ok {
		delete(r.sessions, res.SessionID)
		delete(r.byPlayer, res.Player1ID)
		delete(r.byPlayer, res.Player2ID)
	}
	r.mu.Unlock()
	if !ok {
		return
	}

	r.logger.Info("session terminal",
		slog.String("session_id", res.SessionID),
		slog.String("status", string(res.Status)))

	// Persistence and bracket advancement run on their own goroutine so the
	// session goroutine is free immediately.
	if r.onResult != nil {
		go r.onResult(res)
	}
}

// Shutdown aborts every live session and waits for their loops to stop.
func (r *Registry) Shutdown() {
	r.mu.Lock()
	live := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		live = append(live, s)
	}
	r.mu.Unlock()

	for _, s := range live {
		s.Abort()
		<-s.Done()
	}
}
