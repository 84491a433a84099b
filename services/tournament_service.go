package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/Transcendigos/tscd-main-sub000/brackets"
	"github.com/Transcendigos/tscd-main-sub000/game"
	"github.com/Transcendigos/tscd-main-sub000/models"
	"github.com/Transcendigos/tscd-main-sub000/repositories"
	"github.com/Transcendigos/tscd-main-sub000/storage"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// TournamentRoom is the fan-out room for one tournament's bracket viewers.
func TournamentRoom(tournamentID int) string {
	return "tournament_" + strconv.Itoa(tournamentID)
}

type bracketUpdate struct {
	Type       string             `json:"type"`
	Tournament *models.Tournament `json:"tournament"`
}

type CreateTournamentInput struct {
	Name string `json:"name"`
	Size int    `json:"size"`
}

type TournamentService interface {
	Create(ctx context.Context, creatorID int, input CreateTournamentInput) (*models.Tournament, error)
	Join(ctx context.Context, tournamentID, userID int) (*models.Tournament, error)
	Get(ctx context.Context, tournamentID int) (*models.Tournament, error)
	List(ctx context.Context, filter repositories.ListTournamentsFilter) ([]models.Tournament, error)
	// ReportMatchResult finishes one bracket match and, when it was the
	// round's last, advances the bracket or closes the tournament. The
	// whole transition is one transaction; reporting an already-finished
	// match is a no-op.
	ReportMatchResult(ctx context.Context, matchID, winnerID, p1Score, p2Score int) error
	UploadLogo(ctx context.Context, tournamentID, userID int, contentType string, r io.Reader) (*models.Tournament, error)
}

type tournamentService struct {
	db              TxBeginner
	tournamentRepo  repositories.TournamentRepository
	participantRepo repositories.ParticipantRepository
	matchRepo       repositories.TournamentMatchRepository
	historyRepo     repositories.MatchHistoryRepository
	uploader        storage.FileUploader
	broadcaster     game.Broadcaster
	logger          *slog.Logger
}

func NewTournamentService(
	db TxBeginner,
	tournamentRepo repositories.TournamentRepository,
	participantRepo repositories.ParticipantRepository,
	matchRepo repositories.TournamentMatchRepository,
	historyRepo repositories.MatchHistoryRepository,
	uploader storage.FileUploader,
	broadcaster game.Broadcaster,
	logger *slog.Logger,
) TournamentService {
	return &tournamentService{
		db:              db,
		tournamentRepo:  tournamentRepo,
		participantRepo: participantRepo,
		matchRepo:       matchRepo,
		historyRepo:     historyRepo,
		uploader:        uploader,
		broadcaster:     broadcaster,
		logger:          logger,
	}
}

func (s *tournamentService) Create(ctx context.Context, creatorID int, input CreateTournamentInput) (*models.Tournament, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, ErrTournamentNameRequired
	}
	if !brackets.ValidSize(input.Size) {
		return nil, ErrInvalidTournamentSize
	}

	tx, err := s.db.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	var txErr error
	defer func() {
		if txErr != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				s.logger.Error("rollback failed", slog.Any("error", rbErr))
			}
		}
	}()

	t := &models.Tournament{
		Name:      name,
		CreatorID: creatorID,
		Size:      input.Size,
		Status:    models.TournamentWaiting,
	}
	if txErr = s.tournamentRepo.Create(ctx, tx, t); txErr != nil {
		return nil, s.mapRepoError(txErr)
	}

	// The creator is always participant #1.
	creator := &models.Participant{
		TournamentID: t.ID,
		UserID:       creatorID,
		JoinOrder:    1,
	}
	if txErr = s.participantRepo.Create(ctx, tx, creator); txErr != nil {
		return nil, s.mapRepoError(txErr)
	}

	if txErr = tx.Commit(); txErr != nil {
		return nil, fmt.Errorf("failed to commit tournament creation: %w", txErr)
	}

	s.logger.Info("tournament created",
		slog.Int("tournament_id", t.ID),
		slog.Int("creator_id", creatorID),
		slog.Int("size", t.Size))
	return s.Get(ctx, t.ID)
}

func (s *tournamentService) Join(ctx context.Context, tournamentID, userID int) (*models.Tournament, error) {
	// Fast path before taking the row lock; the unique constraint still
	// backs this up inside the transaction.
	if _, err := s.participantRepo.FindByUserAndTournament(ctx, userID, tournamentID); err == nil {
		return nil, ErrAlreadyJoined
	} else if !errors.Is(err, repositories.ErrParticipantNotFound) {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	var txErr error
	defer func() {
		if txErr != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				s.logger.Error("rollback failed", slog.Any("error", rbErr))
			}
		}
	}()

	t, txErr := s.tournamentRepo.GetByIDForUpdate(ctx, tx, tournamentID)
	if txErr != nil {
		return nil, s.mapRepoError(txErr)
	}
	if t.Status != models.TournamentWaiting {
		txErr = ErrNotAcceptingPlayers
		return nil, txErr
	}

	count, txErr := s.participantRepo.CountByTournament(ctx, tx, tournamentID)
	if txErr != nil {
		return nil, txErr
	}
	if count >= t.Size {
		txErr = ErrTournamentFull
		return nil, txErr
	}

	p := &models.Participant{
		TournamentID: tournamentID,
		UserID:       userID,
		JoinOrder:    count + 1,
	}
	if txErr = s.participantRepo.Create(ctx, tx, p); txErr != nil {
		return nil, s.mapRepoError(txErr)
	}

	// The filling join starts the tournament: shuffle everyone and insert
	// the whole first round in the same transaction.
	if count+1 == t.Size {
		if txErr = s.startTournament(ctx, tx, t); txErr != nil {
			return nil, txErr
		}
	}

	if txErr = tx.Commit(); txErr != nil {
		return nil, fmt.Errorf("failed to commit join for tournament %d: %w", tournamentID, txErr)
	}

	full, err := s.Get(ctx, tournamentID)
	if err != nil {
		return nil, err
	}
	s.broadcastBracket(full)
	return full, nil
}

func (s *tournamentService) startTournament(ctx context.Context, tx Tx, t *models.Tournament) error {
	if err := s.tournamentRepo.UpdateStatus(ctx, tx, t.ID, models.TournamentInProgress); err != nil {
		return err
	}

	participants, err := s.participantRepo.ListByTournament(ctx, tx, t.ID, false)
	if err != nil {
		return err
	}
	userIDs := make([]int, 0, len(participants))
	for _, p := range participants {
		userIDs = append(userIDs, p.UserID)
	}

	pairings, err := brackets.PairRound(userIDs)
	if err != nil {
		return fmt.Errorf("failed to pair round 1 for tournament %d: %w", t.ID, err)
	}
	if err := s.insertRound(ctx, tx, t.ID, 1, pairings); err != nil {
		return err
	}

	s.logger.Info("tournament started",
		slog.Int("tournament_id", t.ID),
		slog.Int("round1_matches", len(pairings)))
	return nil
}

func (s *tournamentService) insertRound(ctx context.Context, tx Tx, tournamentID, round int, pairings []brackets.Pairing) error {
	for i, pair := range pairings {
		m := &models.TournamentMatch{
			TournamentID: tournamentID,
			Round:        round,
			MatchInRound: i + 1,
			Player1ID:    pair.Player1ID,
			Player2ID:    pair.Player2ID,
			Status:       models.MatchPending,
		}
		if err := s.matchRepo.Create(ctx, tx, m); err != nil {
			return fmt.Errorf("failed to insert round %d match %d: %w", round, i+1, err)
		}
	}
	return nil
}

func (s *tournamentService) ReportMatchResult(ctx context.Context, matchID, winnerID, p1Score, p2Score int) error {
	tx, err := s.db.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	var txErr error
	defer func() {
		if txErr != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				s.logger.Error("rollback failed", slog.Any("error", rbErr))
			}
		}
	}()

	m, txErr := s.matchRepo.GetByIDForUpdate(ctx, tx, matchID)
	if txErr != nil {
		return s.mapRepoError(txErr)
	}
	if m.Status == models.MatchFinished {
		// Duplicate report: the bracket already advanced past this match.
		if rbErr := tx.Rollback(); rbErr != nil {
			s.logger.Error("rollback failed", slog.Any("error", rbErr))
		}
		return nil
	}
	if winnerID != m.Player1ID && winnerID != m.Player2ID {
		txErr = ErrInvalidWinner
		return txErr
	}

	// The tournament row lock serializes result reports, so a round is
	// advanced by exactly one of them.
	t, txErr := s.tournamentRepo.GetByIDForUpdate(ctx, tx, m.TournamentID)
	if txErr != nil {
		return s.mapRepoError(txErr)
	}

	record := &models.MatchHistory{
		Player1ID:    m.Player1ID,
		Player2ID:    m.Player2ID,
		Player1Score: p1Score,
		Player2Score: p2Score,
		WinnerID:     winnerID,
		TournamentID: &m.TournamentID,
	}
	if txErr = s.historyRepo.Create(ctx, tx, record); txErr != nil {
		return txErr
	}
	if txErr = s.matchRepo.SetResult(ctx, tx, matchID, winnerID); txErr != nil {
		return txErr
	}

	roundMatches, txErr := s.matchRepo.ListByTournament(ctx, tx, m.TournamentID, &m.Round, nil)
	if txErr != nil {
		return txErr
	}

	winners, roundDone := roundOutcome(roundMatches, matchID, winnerID)

	if roundDone {
		if len(winners) == 1 {
			if txErr = s.tournamentRepo.SetWinner(ctx, tx, m.TournamentID, winners[0]); txErr != nil {
				return txErr
			}
			if txErr = s.tournamentRepo.UpdateStatus(ctx, tx, m.TournamentID, models.TournamentFinished); txErr != nil {
				return txErr
			}
			s.logger.Info("tournament finished",
				slog.Int("tournament_id", m.TournamentID),
				slog.Int("winner_id", winners[0]))
		} else {
			nextRound := m.Round + 1
			if nextRound > brackets.NumRounds(t.Size) {
				txErr = fmt.Errorf("tournament %d cannot advance to round %d: bracket of size %d plays %d rounds",
					m.TournamentID, nextRound, t.Size, brackets.NumRounds(t.Size))
				return txErr
			}
			// Winners are re-shuffled, mirroring the round-1 seeding policy.
			pairings, pairErr := brackets.PairRound(winners)
			if pairErr != nil {
				txErr = fmt.Errorf("failed to pair round %d for tournament %d: %w", nextRound, m.TournamentID, pairErr)
				return txErr
			}
			if txErr = s.insertRound(ctx, tx, m.TournamentID, nextRound, pairings); txErr != nil {
				return txErr
			}
		}
	}

	if txErr = tx.Commit(); txErr != nil {
		return fmt.Errorf("failed to commit result for match %d: %w", matchID, txErr)
	}

	if full, getErr := s.Get(ctx, m.TournamentID); getErr == nil {
		s.broadcastBracket(full)
	} else {
		s.logger.Error("failed to load tournament for bracket broadcast",
			slog.Int("tournament_id", m.TournamentID), slog.Any("error", getErr))
	}
	return nil
}

// roundOutcome folds the just-reported result into the round's match list
// and reports whether every match of the round now has a winner.
func roundOutcome(matches []*models.TournamentMatch, reportedMatchID, reportedWinnerID int) ([]int, bool) {
	winners := make([]int, 0, len(matches))
	for _, m := range matches {
		if m.ID == reportedMatchID {
			winners = append(winners, reportedWinnerID)
			continue
		}
		if m.Status != models.MatchFinished || m.WinnerID == nil {
			return nil, false
		}
		winners = append(winners, *m.WinnerID)
	}
	return winners, true
}

// Get loads the tournament with participants and matches for bracket
// rendering. The three reads run in parallel.
func (s *tournamentService) Get(ctx context.Context, tournamentID int) (*models.Tournament, error) {
	var t *models.Tournament

	g, gCtx := errgroup.WithContext(ctx)

	var participants []*models.Participant
	var matches []*models.TournamentMatch

	g.Go(func() error {
		loaded, err := s.tournamentRepo.GetByID(gCtx, tournamentID)
		if err != nil {
			return s.mapRepoError(err)
		}
		t = loaded
		return nil
	})
	g.Go(func() error {
		loaded, err := s.participantRepo.ListByTournament(gCtx, nil, tournamentID, true)
		if err != nil {
			return err
		}
		participants = loaded
		return nil
	})
	g.Go(func() error {
		loaded, err := s.matchRepo.ListByTournament(gCtx, nil, tournamentID, nil, nil)
		if err != nil {
			return err
		}
		matches = loaded
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	t.Participants = make([]models.Participant, 0, len(participants))
	for _, p := range participants {
		t.Participants = append(t.Participants, *p)
	}
	t.Matches = make([]models.TournamentMatch, 0, len(matches))
	for _, m := range matches {
		t.Matches = append(t.Matches, *m)
	}
	s.attachLogoURL(t)
	return t, nil
}

func (s *tournamentService) List(ctx context.Context, filter repositories.ListTournamentsFilter) ([]models.Tournament, error) {
	tournaments, err := s.tournamentRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list tournaments: %w", err)
	}
	for i := range tournaments {
		s.attachLogoURL(&tournaments[i])
	}
	return tournaments, nil
}

func (s *tournamentService) UploadLogo(ctx context.Context, tournamentID, userID int, contentType string, r io.Reader) (*models.Tournament, error) {
	if s.uploader == nil {
		return nil, ErrLogoStorageDisabled
	}

	t, err := s.tournamentRepo.GetByID(ctx, tournamentID)
	if err != nil {
		return nil, s.mapRepoError(err)
	}
	if t.CreatorID != userID {
		return nil, ErrForbiddenOperation
	}
	if !strings.HasPrefix(contentType, "image/") {
		return nil, ErrInvalidLogoType
	}

	key := fmt.Sprintf("tournaments/%d/logo-%s", tournamentID, uuid.NewString())
	if _, err := s.uploader.Upload(ctx, key, contentType, r); err != nil {
		return nil, fmt.Errorf("failed to upload tournament logo: %w", err)
	}

	oldKey := t.LogoKey
	if err := s.tournamentRepo.UpdateLogoKey(ctx, tournamentID, &key); err != nil {
		// Best effort: don't leave the fresh object orphaned.
		if delErr := s.uploader.Delete(ctx, key); delErr != nil {
			s.logger.Error("failed to delete orphaned logo", slog.String("key", key), slog.Any("error", delErr))
		}
		return nil, s.mapRepoError(err)
	}
	if oldKey != nil {
		if delErr := s.uploader.Delete(ctx, *oldKey); delErr != nil {
			s.logger.Error("failed to delete previous logo", slog.String("key", *oldKey), slog.Any("error", delErr))
		}
	}

	return s.Get(ctx, tournamentID)
}

func (s *tournamentService) attachLogoURL(t *models.Tournament) {
	if s.uploader == nil || t.LogoKey == nil {
		return
	}
	if url := s.uploader.GetPublicURL(*t.LogoKey); url != "" {
		t.LogoURL = &url
	}
}

func (s *tournamentService) broadcastBracket(t *models.Tournament) {
	if s.broadcaster == nil || t == nil {
		return
	}
	s.broadcaster.BroadcastToRoom(TournamentRoom(t.ID), bracketUpdate{
		Type:       "BRACKET_UPDATED",
		Tournament: t,
	})
}

func (s *tournamentService) mapRepoError(err error) error {
	switch {
	case errors.Is(err, repositories.ErrTournamentNotFound):
		return ErrTournamentNotFound
	case errors.Is(err, repositories.ErrMatchNotFound):
		return ErrMatchNotFound
	case errors.Is(err, repositories.ErrTournamentNameConflict):
		return ErrTournamentNameTaken
	case errors.Is(err, repositories.ErrParticipantConflict):
		return ErrAlreadyJoined
	case errors.Is(err, repositories.ErrParticipantUserInvalid), errors.Is(err, repositories.ErrTournamentInvalidUser):
		return ErrUserNotFound
	}
	return err
}
