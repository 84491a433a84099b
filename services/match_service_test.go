package services

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"

	"github.com/Transcendigos/tscd-main-sub000/game"
	"github.com/Transcendigos/tscd-main-sub000/models"
	"github.com/Transcendigos/tscd-main-sub000/repositories"
)

type reportCall struct {
	matchID  int
	winnerID int
	p1Score  int
	p2Score  int
}

type fakeTournamentService struct {
	mu      sync.Mutex
	reports []reportCall
}

func (f *fakeTournamentService) Create(ctx context.Context, creatorID int, input CreateTournamentInput) (*models.Tournament, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeTournamentService) Join(ctx context.Context, tournamentID, userID int) (*models.Tournament, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeTournamentService) Get(ctx context.Context, tournamentID int) (*models.Tournament, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeTournamentService) List(ctx context.Context, filter repositories.ListTournamentsFilter) ([]models.Tournament, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeTournamentService) ReportMatchResult(ctx context.Context, matchID, winnerID, p1Score, p2Score int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reports = append(f.reports, reportCall{matchID, winnerID, p1Score, p2Score})
	return nil
}

func (f *fakeTournamentService) UploadLogo(ctx context.Context, tournamentID, userID int, contentType string, r io.Reader) (*models.Tournament, error) {
	return nil, errors.New("not implemented")
}

type matchServiceFixture struct {
	svc         MatchService
	registry    *game.Registry
	matchRepo   *fakeMatchRepo
	historyRepo *fakeHistoryRepo
	tournaments *fakeTournamentService
}

func newMatchServiceFixture() *matchServiceFixture {
	registry := game.NewRegistry(nil, discardLogger())
	users := &fakeUserRepo{users: map[int]*models.User{
		1: {ID: 1, DisplayName: "alice"},
		2: {ID: 2, DisplayName: "bob"},
		3: {ID: 3, DisplayName: "carol"},
	}}
	matchRepo := newFakeMatchRepo()
	historyRepo := &fakeHistoryRepo{}
	tournaments := &fakeTournamentService{}

	svc := NewMatchService(registry, users, matchRepo, historyRepo, tournaments, discardLogger())
	return &matchServiceFixture{
		svc:         svc,
		registry:    registry,
		matchRepo:   matchRepo,
		historyRepo: historyRepo,
		tournaments: tournaments,
	}
}

func TestCreateMatchValidation(t *testing.T) {
	fx := newMatchServiceFixture()
	defer fx.registry.Shutdown()

	if _, err := fx.svc.CreateMatch(context.Background(), 1, 1); !errors.Is(err, ErrSelfMatch) {
		t.Errorf("self match: got %v, want %v", err, ErrSelfMatch)
	}
	if _, err := fx.svc.CreateMatch(context.Background(), 1, 99); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("unknown opponent: got %v, want %v", err, ErrUserNotFound)
	}
}

func TestCreateMatchStartsSession(t *testing.T) {
	fx := newMatchServiceFixture()
	defer fx.registry.Shutdown()

	info, err := fx.svc.CreateMatch(context.Background(), 1, 2)
	if err != nil {
		t.Fatalf("CreateMatch: %v", err)
	}
	if info.SessionID == "" {
		t.Fatal("empty session id")
	}
	if info.Status != string(game.StatusWaitingForReady) {
		t.Errorf("status: got %s, want %s", info.Status, game.StatusWaitingForReady)
	}

	if _, err := fx.svc.CreateMatch(context.Background(), 1, 3); !errors.Is(err, ErrAlreadyInMatch) {
		t.Errorf("busy creator: got %v, want %v", err, ErrAlreadyInMatch)
	}
}

func TestQuickPlayFlow(t *testing.T) {
	fx := newMatchServiceFixture()
	defer fx.registry.Shutdown()

	first, err := fx.svc.QuickPlay(context.Background(), 1)
	if err != nil {
		t.Fatalf("first QuickPlay: %v", err)
	}
	if !first.Queued || first.Session != nil {
		t.Fatalf("first caller should queue: %+v", first)
	}

	if _, err := fx.svc.QuickPlay(context.Background(), 1); !errors.Is(err, ErrAlreadyQueued) {
		t.Errorf("double queue: got %v, want %v", err, ErrAlreadyQueued)
	}

	second, err := fx.svc.QuickPlay(context.Background(), 2)
	if err != nil {
		t.Fatalf("second QuickPlay: %v", err)
	}
	if second.Queued || second.Session == nil {
		t.Fatalf("second caller should be paired: %+v", second)
	}
}

func TestCancelQuickPlay(t *testing.T) {
	fx := newMatchServiceFixture()

	if err := fx.svc.CancelQuickPlay(context.Background(), 1); !errors.Is(err, ErrNotFound) {
		t.Errorf("cancel without queueing: got %v, want %v", err, ErrNotFound)
	}

	if _, err := fx.svc.QuickPlay(context.Background(), 1); err != nil {
		t.Fatal(err)
	}
	if err := fx.svc.CancelQuickPlay(context.Background(), 1); err != nil {
		t.Errorf("cancel after queueing: %v", err)
	}
}

func TestStartTournamentMatch(t *testing.T) {
	fx := newMatchServiceFixture()
	defer fx.registry.Shutdown()

	m := &models.TournamentMatch{
		TournamentID: 1, Round: 1, MatchInRound: 1,
		Player1ID: 1, Player2ID: 2, Status: models.MatchPending,
	}
	if err := fx.matchRepo.Create(context.Background(), nil, m); err != nil {
		t.Fatal(err)
	}

	if _, err := fx.svc.StartTournamentMatch(context.Background(), m.ID, 3); !errors.Is(err, ErrForbiddenOperation) {
		t.Errorf("stranger start: got %v, want %v", err, ErrForbiddenOperation)
	}

	info, err := fx.svc.StartTournamentMatch(context.Background(), m.ID, 1)
	if err != nil {
		t.Fatalf("StartTournamentMatch: %v", err)
	}

	stored, err := fx.matchRepo.GetByID(context.Background(), m.ID)
	if err != nil {
		t.Fatal(err)
	}
	if stored.Status != models.MatchInProgress {
		t.Errorf("stored status: got %s, want %s", stored.Status, models.MatchInProgress)
	}
	if stored.SessionRef == nil || *stored.SessionRef != info.SessionID {
		t.Errorf("stored session ref: got %v, want %s", stored.SessionRef, info.SessionID)
	}

	// The opponent's start attaches to the running session.
	again, err := fx.svc.StartTournamentMatch(context.Background(), m.ID, 2)
	if err != nil {
		t.Fatalf("second start: %v", err)
	}
	if again.SessionID != info.SessionID {
		t.Errorf("second start session: got %s, want %s", again.SessionID, info.SessionID)
	}
}

func TestStartFinishedMatchFails(t *testing.T) {
	fx := newMatchServiceFixture()

	winner := 1
	m := &models.TournamentMatch{
		TournamentID: 1, Round: 1, MatchInRound: 1,
		Player1ID: 1, Player2ID: 2, Status: models.MatchFinished, WinnerID: &winner,
	}
	if err := fx.matchRepo.Create(context.Background(), nil, m); err != nil {
		t.Fatal(err)
	}

	if _, err := fx.svc.StartTournamentMatch(context.Background(), m.ID, 1); !errors.Is(err, ErrMatchNotStartable) {
		t.Errorf("got %v, want %v", err, ErrMatchNotStartable)
	}
}

func TestHandleResultCasualFinished(t *testing.T) {
	fx := newMatchServiceFixture()

	winner := 1
	fx.svc.HandleResult(game.Result{
		SessionID:    "s1",
		Origin:       game.OriginQuickPlay,
		Status:       game.StatusFinished,
		WinnerID:     &winner,
		Player1ID:    1,
		Player2ID:    2,
		Player1Score: 5,
		Player2Score: 3,
	})

	if fx.historyRepo.count() != 1 {
		t.Fatalf("history records: got %d, want 1", fx.historyRepo.count())
	}
	records, _ := fx.historyRepo.ListByPlayer(context.Background(), 1, 10)
	if records[0].WinnerID != 1 || records[0].Player1Score != 5 || records[0].Player2Score != 3 {
		t.Errorf("stored record: %+v", records[0])
	}
	if records[0].TournamentID != nil {
		t.Error("casual match stored with tournament reference")
	}
}

func TestHandleResultCasualAbortedLeavesNoTrace(t *testing.T) {
	fx := newMatchServiceFixture()

	fx.svc.HandleResult(game.Result{
		SessionID: "s1",
		Origin:    game.OriginInvite,
		Status:    game.StatusAborted,
		Player1ID: 1,
		Player2ID: 2,
	})

	if fx.historyRepo.count() != 0 {
		t.Errorf("aborted match recorded: %d records", fx.historyRepo.count())
	}
}

func TestHandleResultTournamentFinished(t *testing.T) {
	fx := newMatchServiceFixture()

	matchID := 7
	winner := 2
	fx.svc.HandleResult(game.Result{
		SessionID:         "s1",
		Origin:            game.OriginTournament,
		TournamentMatchID: &matchID,
		Status:            game.StatusFinished,
		WinnerID:          &winner,
		Player1ID:         1,
		Player2ID:         2,
		Player1Score:      2,
		Player2Score:      5,
	})

	if len(fx.tournaments.reports) != 1 {
		t.Fatalf("reports: got %d, want 1", len(fx.tournaments.reports))
	}
	got := fx.tournaments.reports[0]
	want := reportCall{matchID: 7, winnerID: 2, p1Score: 2, p2Score: 5}
	if got != want {
		t.Errorf("report: got %+v, want %+v", got, want)
	}
}

func TestHandleResultTournamentAbortedResetsMatch(t *testing.T) {
	fx := newMatchServiceFixture()

	ref := "s1"
	m := &models.TournamentMatch{
		TournamentID: 1, Round: 1, MatchInRound: 1,
		Player1ID: 1, Player2ID: 2, Status: models.MatchInProgress, SessionRef: &ref,
	}
	if err := fx.matchRepo.Create(context.Background(), nil, m); err != nil {
		t.Fatal(err)
	}

	fx.svc.HandleResult(game.Result{
		SessionID:         ref,
		Origin:            game.OriginTournament,
		TournamentMatchID: &m.ID,
		Status:            game.StatusAborted,
		Player1ID:         1,
		Player2ID:         2,
	})

	stored, err := fx.matchRepo.GetByID(context.Background(), m.ID)
	if err != nil {
		t.Fatal(err)
	}
	if stored.Status != models.MatchPending {
		t.Errorf("status after abort: got %s, want %s", stored.Status, models.MatchPending)
	}
	if stored.SessionRef != nil {
		t.Errorf("session ref not cleared: %v", stored.SessionRef)
	}
	if len(fx.tournaments.reports) != 0 {
		t.Error("aborted match reported a result")
	}
}
