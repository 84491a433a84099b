package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Transcendigos/tscd-main-sub000/game"
	"github.com/Transcendigos/tscd-main-sub000/models"
	"github.com/Transcendigos/tscd-main-sub000/repositories"
)

// resultTimeout bounds the DB work triggered by a finished session. The
// handler runs off the game tick path on its own goroutine.
const resultTimeout = 10 * time.Second

// MatchSessionInfo is what a caller needs to attach a websocket.
type MatchSessionInfo struct {
	SessionID string `json:"sessionId"`
	Status    string `json:"status"`
}

// QuickPlayResult reports either an immediately created session or that
// the caller is now holding the waiting slot.
type QuickPlayResult struct {
	Queued  bool              `json:"queued"`
	Session *MatchSessionInfo `json:"session,omitempty"`
}

type MatchService interface {
	CreateMatch(ctx context.Context, creatorID, opponentID int) (*MatchSessionInfo, error)
	QuickPlay(ctx context.Context, userID int) (*QuickPlayResult, error)
	CancelQuickPlay(ctx context.Context, userID int) error
	StartTournamentMatch(ctx context.Context, matchID, userID int) (*MatchSessionInfo, error)
	AbortSession(ctx context.Context, sessionID string, userID int) error
	History(ctx context.Context, userID, limit int) ([]*models.MatchHistory, error)
	// HandleResult persists a terminal session outcome. Wired into the
	// registry at startup.
	HandleResult(res game.Result)
}

type matchService struct {
	registry          *game.Registry
	userRepo          repositories.UserRepository
	matchRepo         repositories.TournamentMatchRepository
	historyRepo       repositories.MatchHistoryRepository
	tournamentService TournamentService
	logger            *slog.Logger
}

func NewMatchService(
	registry *game.Registry,
	userRepo repositories.UserRepository,
	matchRepo repositories.TournamentMatchRepository,
	historyRepo repositories.MatchHistoryRepository,
	tournamentService TournamentService,
	logger *slog.Logger,
) MatchService {
	return &matchService{
		registry:          registry,
		userRepo:          userRepo,
		matchRepo:         matchRepo,
		historyRepo:       historyRepo,
		tournamentService: tournamentService,
		logger:            logger,
	}
}

func (s *matchService) CreateMatch(ctx context.Context, creatorID, opponentID int) (*MatchSessionInfo, error) {
	if creatorID == opponentID {
		return nil, ErrSelfMatch
	}

	players, err := s.playerInfos(ctx, creatorID, opponentID)
	if err != nil {
		return nil, err
	}

	sess, err := s.registry.CreateSession(players[0], players[1], game.Options{
		WinningScore: game.DefaultWinningScore,
		Origin:       game.OriginInvite,
	})
	if err != nil {
		return nil, s.mapGameError(err)
	}
	return sessionInfo(sess), nil
}

func (s *matchService) QuickPlay(ctx context.Context, userID int) (*QuickPlayResult, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, s.mapRepoError(err)
	}

	sess, err := s.registry.QueueQuickPlay(game.PlayerInfo{ID: user.ID, DisplayName: user.DisplayName}, game.Options{
		WinningScore: game.DefaultWinningScore,
		Origin:       game.OriginQuickPlay,
	})
	if err != nil {
		// Players with a live match rejoin it instead of erroring.
		if errors.Is(err, game.ErrAlreadyInMatch) {
			if existing, ok := s.registry.SessionForPlayer(user.ID); ok {
				return &QuickPlayResult{Session: sessionInfo(existing)}, nil
			}
		}
		return nil, s.mapGameError(err)
	}
	if sess == nil {
		return &QuickPlayResult{Queued: true}, nil
	}
	return &QuickPlayResult{Session: sessionInfo(sess)}, nil
}

func (s *matchService) CancelQuickPlay(ctx context.Context, userID int) error {
	if !s.registry.LeaveQuickPlay(userID) {
		return ErrNotFound
	}
	return nil
}

func (s *matchService) StartTournamentMatch(ctx context.Context, matchID, userID int) (*MatchSessionInfo, error) {
	m, err := s.matchRepo.GetByID(ctx, matchID)
	if err != nil {
		return nil, s.mapRepoError(err)
	}
	if userID != m.Player1ID && userID != m.Player2ID {
		return nil, ErrForbiddenOperation
	}

	// A second start from the opponent attaches to the running session.
	if m.Status == models.MatchInProgress && m.SessionRef != nil {
		if sess, ok := s.registry.Session(*m.SessionRef); ok {
			return sessionInfo(sess), nil
		}
	}
	if m.Status != models.MatchPending {
		return nil, ErrMatchNotStartable
	}

	players, err := s.playerInfos(ctx, m.Player1ID, m.Player2ID)
	if err != nil {
		return nil, err
	}

	sess, err := s.registry.CreateSession(players[0], players[1], game.Options{
		WinningScore:      game.DefaultWinningScore,
		Origin:            game.OriginTournament,
		TournamentMatchID: &m.ID,
	})
	if err != nil {
		return nil, s.mapGameError(err)
	}

	sessionRef := sess.ID
	if err := s.matchRepo.UpdateStatusSession(ctx, nil, m.ID, models.MatchInProgress, &sessionRef); err != nil {
		if abortErr := s.registry.AbortSession(sess.ID); abortErr != nil {
			s.logger.Error("failed to abort session after DB error",
				slog.String("session_id", sess.ID), slog.Any("error", abortErr))
		}
		return nil, fmt.Errorf("failed to mark match %d in progress: %w", m.ID, err)
	}

	s.logger.Info("tournament match session started",
		slog.Int("match_id", m.ID),
		slog.String("session_id", sess.ID))
	return sessionInfo(sess), nil
}

func (s *matchService) AbortSession(ctx context.Context, sessionID string, userID int) error {
	sess, ok := s.registry.Session(sessionID)
	if !ok {
		return ErrSessionNotFound
	}
	if !sess.HasPlayer(userID) {
		return ErrForbiddenOperation
	}
	if err := s.registry.AbortSession(sessionID); err != nil {
		return s.mapGameError(err)
	}
	return nil
}

func (s *matchService) History(ctx context.Context, userID, limit int) ([]*models.MatchHistory, error) {
	records, err := s.historyRepo.ListByPlayer(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load match history for user %d: %w", userID, err)
	}
	return records, nil
}

func (s *matchService) HandleResult(res game.Result) {
	ctx, cancel := context.WithTimeout(context.Background(), resultTimeout)
	defer cancel()

	switch {
	case res.Origin == game.OriginTournament:
		s.handleTournamentResult(ctx, res)
	case res.Status == game.StatusFinished:
		s.recordCasualResult(ctx, res)
	}
	// An aborted casual session leaves no trace.
}

func (s *matchService) handleTournamentResult(ctx context.Context, res game.Result) {
	var matchID int
	if res.TournamentMatchID != nil {
		matchID = *res.TournamentMatchID
	} else {
		// Recover the bracket slot through the stored session reference.
		m, err := s.matchRepo.GetBySessionRef(ctx, res.SessionID)
		if err != nil {
			s.logger.Error("tournament session has no resolvable match",
				slog.String("session_id", res.SessionID), slog.Any("error", err))
			return
		}
		matchID = m.ID
	}

	if res.Status == game.StatusAborted {
		// The bracket match goes back to pending so the players can retry.
		if err := s.matchRepo.UpdateStatusSession(ctx, nil, matchID, models.MatchPending, nil); err != nil {
			s.logger.Error("failed to reset aborted tournament match",
				slog.Int("match_id", matchID), slog.Any("error", err))
		}
		return
	}

	if res.WinnerID == nil {
		s.logger.Error("finished tournament session carries no winner",
			slog.String("session_id", res.SessionID), slog.Int("match_id", matchID))
		return
	}
	if err := s.tournamentService.ReportMatchResult(ctx, matchID, *res.WinnerID, res.Player1Score, res.Player2Score); err != nil {
		s.logger.Error("failed to report tournament match result",
			slog.Int("match_id", matchID), slog.Any("error", err))
	}
}

func (s *matchService) recordCasualResult(ctx context.Context, res game.Result) {
	if res.WinnerID == nil {
		return
	}
	record := &models.MatchHistory{
		Player1ID:    res.Player1ID,
		Player2ID:    res.Player2ID,
		Player1Score: res.Player1Score,
		Player2Score: res.Player2Score,
		WinnerID:     *res.WinnerID,
	}
	if err := s.historyRepo.Create(ctx, nil, record); err != nil {
		s.logger.Error("failed to record match history",
			slog.String("session_id", res.SessionID), slog.Any("error", err))
	}
}

func (s *matchService) playerInfos(ctx context.Context, p1ID, p2ID int) ([2]game.PlayerInfo, error) {
	var infos [2]game.PlayerInfo
	users, err := s.userRepo.GetByIDs(ctx, []int{p1ID, p2ID})
	if err != nil {
		return infos, fmt.Errorf("failed to load match players: %w", err)
	}
	for i, id := range []int{p1ID, p2ID} {
		u, ok := users[id]
		if !ok {
			return infos, ErrUserNotFound
		}
		infos[i] = game.PlayerInfo{ID: u.ID, DisplayName: u.DisplayName}
	}
	return infos, nil
}

func sessionInfo(sess *game.Session) *MatchSessionInfo {
	return &MatchSessionInfo{
		SessionID: sess.ID,
		Status:    string(sess.Status()),
	}
}

func (s *matchService) mapGameError(err error) error {
	switch {
	case errors.Is(err, game.ErrAlreadyInMatch):
		return ErrAlreadyInMatch
	case errors.Is(err, game.ErrAlreadyQueued):
		return ErrAlreadyQueued
	case errors.Is(err, game.ErrSessionNotFound):
		return ErrSessionNotFound
	}
	return err
}

func (s *matchService) mapRepoError(err error) error {
	switch {
	case errors.Is(err, repositories.ErrUserNotFound):
		return ErrUserNotFound
	case errors.Is(err, repositories.ErrMatchNotFound):
		return ErrMatchNotFound
	}
	return err
}
