package game

import (
	"errors"
	"log/slog"
	"sync"
	"time"
)

// Status is the session lifecycle state. Finished and Aborted are absorbing.
type Status string

const (
	StatusWaitingForReady Status = "waiting_for_ready"
	StatusInProgress      Status = "in_progress"
	StatusFinished        Status = "finished"
	StatusAborted         Status = "aborted"
)

// Origin records how a session came to exist. Metadata only: invited,
// quick-play and tournament matches all run the same engine.
type Origin string

const (
	OriginInvite     Origin = "invite"
	OriginQuickPlay  Origin = "quickplay"
	OriginTournament Origin = "tournament"
)

var (
	ErrSessionTerminal = errors.New("session already terminated")
	ErrUnknownPlayer   = errors.New("player does not belong to this session")
	ErrInvalidInput    = errors.New("invalid input direction")
)

type PlayerInfo struct {
	ID          int
	DisplayName string
}

type Options struct {
	WinningScore      int
	Origin            Origin
	TournamentMatchID *int
}

// Result is handed to the terminal callback after the tick loop has stopped.
type Result struct {
	SessionID         string
	Origin            Origin
	TournamentMatchID *int
	Status            Status
	WinnerID          *int
	Player1ID         int
	Player2ID         int
	Player1Score      int
	Player2Score      int
}

type cmdReady struct{ playerID int }

type cmdInput struct {
	playerID  int
	direction string
}

type cmdLeave struct{ playerID int }

// Session owns one match: its state, its 60 Hz tick loop and its fan-out.
// All mutation happens on the session goroutine; public methods only queue
// commands, which take effect on the next tick boundary.
type Session struct {
	ID   string
	opts Options

	state    State
	status   Status
	winnerID *int
	lastTick time.Time

	inbox    chan interface{}
	quit     chan struct{}
	quitOnce sync.Once
	done     chan struct{}

	mu        sync.RWMutex // guards the externally visible status mirror
	extStatus Status

	broadcaster Broadcaster
	onTerminal  func(Result)
	logger      *slog.Logger
}

func newSession(id string, p1, p2 PlayerInfo, opts Options, b Broadcaster, onTerminal func(Result), logger *slog.Logger) *Session {
	if opts.Origin == "" {
		opts.Origin = OriginInvite
	}
	return &Session{
		ID:          id,
		opts:        opts,
		state:       NewState(p1.ID, p1.DisplayName, p2.ID, p2.DisplayName, opts.WinningScore),
		status:      StatusWaitingForReady,
		extStatus:   StatusWaitingForReady,
		inbox:       make(chan interface{}, 64),
		quit:        make(chan struct{}),
		done:        make(chan struct{}),
		broadcaster: b,
		onTerminal:  onTerminal,
		logger:      logger,
	}
}

// Status returns the last status the session goroutine published.
func (s *Session) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.extStatus
}

func (s *Session) Origin() Origin { return s.opts.Origin }

// Done is closed after the tick loop has fully stopped.
func (s *Session) Done() <-chan struct{} { return s.done }

func (s *Session) HasPlayer(playerID int) bool {
	return playerID == s.state.P1.PlayerID || playerID == s.state.P2.PlayerID
}

// SetReady marks a player ready. Once both slots are ready the session
// transitions to InProgress on its own goroutine.
func (s *Session) SetReady(playerID int) error {
	if !s.HasPlayer(playerID) {
		return ErrUnknownPlayer
	}
	return s.send(cmdReady{playerID: playerID})
}

// SetInput updates a player's movement intent with last-writer-wins
// semantics; it takes effect on the next tick, never mid-tick.
func (s *Session) SetInput(playerID int, direction string) error {
	if !s.HasPlayer(playerID) {
		return ErrUnknownPlayer
	}
	switch direction {
	case "up", "down", "stop_up", "stop_down":
	default:
		return ErrInvalidInput
	}
	return s.send(cmdInput{playerID: playerID, direction: direction})
}

// Leave removes a player. During a running match this forfeits in favor of
// the opponent; before the ready handshake completes it aborts the session.
func (s *Session) Leave(playerID int) error {
	if !s.HasPlayer(playerID) {
		return ErrUnknownPlayer
	}
	return s.send(cmdLeave{playerID: playerID})
}

// Abort force-terminates the session. Safe to call any number of times;
// callers that need the loop gone wait on Done.
func (s *Session) Abort() {
	s.quitOnce.Do(func() { close(s.quit) })
}

func (s *Session) send(cmd interface{}) error {
	select {
	case s.inbox <- cmd:
		return nil
	case <-s.done:
		return ErrSessionTerminal
	}
}

func (s *Session) run() {
	ticker := time.NewTicker(TickInterval)
	for s.status == StatusWaitingForReady || s.status == StatusInProgress {
		select {
		case <-s.quit:
			s.setStatus(StatusAborted)
		case cmd := <-s.inbox:
			s.handleCommand(cmd)
		case now := <-ticker.C:
			s.tick(now)
		}
	}

	// The ticker must be dead before anyone can observe the session as
	// removed, so no tick ever runs against torn-down state.
	ticker.Stop()
	s.broadcastGameOver()
	res := s.result()
	close(s.done)
	if s.onTerminal != nil {
		s.onTerminal(res)
	}
}

func (s *Session) setStatus(st Status) {
	s.status = st
	s.mu.Lock()
	s.extStatus = st
	s.mu.Unlock()
}

func (s *Session) handleCommand(cmd interface{}) {
	switch c := cmd.(type) {
	case cmdReady:
		if s.status != StatusWaitingForReady {
			return
		}
		slot := s.state.slotFor(c.playerID)
		if slot == nil || slot.Ready {
			return
		}
		slot.Ready = true
		if s.state.P1.Ready && s.state.P2.Ready {
			s.setStatus(StatusInProgress)
			// Waiting time must not count as elapsed simulation time.
			s.lastTick = time.Now()
		}
		s.broadcastState()

	case cmdInput:
		if s.status != StatusWaitingForReady && s.status != StatusInProgress {
			return
		}
		slot := s.state.slotFor(c.playerID)
		if slot == nil {
			return
		}
		switch c.direction {
		case "up":
			slot.Input = DirUp
		case "down":
			slot.Input = DirDown
		case "stop_up":
			if slot.Input == DirUp {
				slot.Input = DirNone
			}
		case "stop_down":
			if slot.Input == DirDown {
				slot.Input = DirNone
			}
		}

	case cmdLeave:
		switch s.status {
		case StatusInProgress:
			// Walking out forfeits the match.
			if opp := s.opponentOf(c.playerID); opp != nil {
				id := opp.PlayerID
				s.winnerID = &id
			}
			s.setStatus(StatusFinished)
		case StatusWaitingForReady:
			s.setStatus(StatusAborted)
		}
	}
}

func (s *Session) tick(now time.Time) {
	if s.status != StatusInProgress {
		return
	}
	dt := now.Sub(s.lastTick).Seconds()
	if dt <= 0 {
		return
	}
	if dt > MaxTickDelta {
		dt = MaxTickDelta
	}
	s.lastTick = now

	Advance(&s.state, dt)
	if winner, won := CheckWin(&s.state); won {
		id := winner
		s.winnerID = &id
		s.setStatus(StatusFinished)
	}
	s.broadcastState()
}

func (s *Session) broadcastState() {
	if s.broadcaster == nil {
		return
	}
	s.broadcaster.BroadcastToRoom(MatchRoom(s.ID), snapshotOf(s.ID, s.status, &s.state))
}

func (s *Session) broadcastGameOver() {
	if s.broadcaster == nil {
		return
	}
	s.broadcaster.BroadcastToRoom(MatchRoom(s.ID), GameOver{
		Type:      MsgGameOver,
		SessionID: s.ID,
		WinnerID:  s.winnerID,
		Scores: map[int]int{
			s.state.P1.PlayerID: s.state.P1.Score,
			s.state.P2.PlayerID: s.state.P2.Score,
		},
		Status: s.status,
	})
}

func (s *Session) opponentOf(playerID int) *PlayerSlot {
	switch playerID {
	case s.state.P1.PlayerID:
		return &s.state.P2
	case s.state.P2.PlayerID:
		return &s.state.P1
	}
	return nil
}

func (s *Session) result() Result {
	return Result{
		SessionID:         s.ID,
		Origin:            s.opts.Origin,
		TournamentMatchID: s.opts.TournamentMatchID,
		Status:            s.status,
		WinnerID:          s.winnerID,
		Player1ID:         s.state.P1.PlayerID,
		Player2ID:         s.state.P2.PlayerID,
		Player1Score:      s.state.P1.Score,
		Player2Score:      s.state.P2.Score,
	}
}
