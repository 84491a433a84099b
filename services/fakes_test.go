package services

import (
	"context"
	"database/sql"
	"io"
	"sync"

	"github.com/Transcendigos/tscd-main-sub000/models"
	"github.com/Transcendigos/tscd-main-sub000/repositories"
	"github.com/Transcendigos/tscd-main-sub000/storage"
)

// fakeTx satisfies Tx without a database. The in-memory repositories ignore
// their executor argument, so the SQLExecutor methods are never reached.
type fakeTx struct {
	committed  bool
	rolledBack bool
}

func (t *fakeTx) ExecContext(context.Context, string, ...interface{}) (sql.Result, error) {
	return nil, nil
}

func (t *fakeTx) QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error) {
	return nil, nil
}

func (t *fakeTx) QueryRowContext(context.Context, string, ...interface{}) *sql.Row {
	return nil
}

func (t *fakeTx) Commit() error   { t.committed = true; return nil }
func (t *fakeTx) Rollback() error { t.rolledBack = true; return nil }

type fakeTxBeginner struct {
	txs []*fakeTx
}

func (b *fakeTxBeginner) BeginTx(ctx context.Context) (Tx, error) {
	tx := &fakeTx{}
	b.txs = append(b.txs, tx)
	return tx, nil
}

func (b *fakeTxBeginner) last() *fakeTx {
	if len(b.txs) == 0 {
		return nil
	}
	return b.txs[len(b.txs)-1]
}

type fakeTournamentRepo struct {
	tournaments map[int]*models.Tournament
	logoKeys    map[int]string
}

func newFakeTournamentRepo() *fakeTournamentRepo {
	return &fakeTournamentRepo{
		tournaments: make(map[int]*models.Tournament),
		logoKeys:    make(map[int]string),
	}
}

func (f *fakeTournamentRepo) Create(ctx context.Context, exec repositories.SQLExecutor, t *models.Tournament) error {
	t.ID = len(f.tournaments) + 1
	cp := *t
	f.tournaments[t.ID] = &cp
	return nil
}

func (f *fakeTournamentRepo) GetByID(ctx context.Context, id int) (*models.Tournament, error) {
	t, ok := f.tournaments[id]
	if !ok {
		return nil, repositories.ErrTournamentNotFound
	}
	cp := *t
	return &cp, nil
}

func (f *fakeTournamentRepo) GetByIDForUpdate(ctx context.Context, exec repositories.SQLExecutor, id int) (*models.Tournament, error) {
	return f.GetByID(ctx, id)
}

func (f *fakeTournamentRepo) List(ctx context.Context, filter repositories.ListTournamentsFilter) ([]models.Tournament, error) {
	out := make([]models.Tournament, 0, len(f.tournaments))
	for _, t := range f.tournaments {
		out = append(out, *t)
	}
	return out, nil
}

func (f *fakeTournamentRepo) UpdateStatus(ctx context.Context, exec repositories.SQLExecutor, id int, status models.TournamentStatus) error {
	t, ok := f.tournaments[id]
	if !ok {
		return repositories.ErrTournamentNotFound
	}
	t.Status = status
	return nil
}

func (f *fakeTournamentRepo) SetWinner(ctx context.Context, exec repositories.SQLExecutor, id int, winnerID int) error {
	t, ok := f.tournaments[id]
	if !ok {
		return repositories.ErrTournamentNotFound
	}
	t.WinnerID = &winnerID
	return nil
}

func (f *fakeTournamentRepo) UpdateLogoKey(ctx context.Context, id int, logoKey *string) error {
	t, ok := f.tournaments[id]
	if !ok {
		return repositories.ErrTournamentNotFound
	}
	t.LogoKey = logoKey
	return nil
}

type fakeParticipantRepo struct {
	participants []*models.Participant
}

func (f *fakeParticipantRepo) Create(ctx context.Context, exec repositories.SQLExecutor, p *models.Participant) error {
	for _, existing := range f.participants {
		if existing.TournamentID == p.TournamentID && existing.UserID == p.UserID {
			return repositories.ErrParticipantConflict
		}
	}
	p.ID = len(f.participants) + 1
	cp := *p
	f.participants = append(f.participants, &cp)
	return nil
}

func (f *fakeParticipantRepo) FindByUserAndTournament(ctx context.Context, userID, tournamentID int) (*models.Participant, error) {
	for _, p := range f.participants {
		if p.UserID == userID && p.TournamentID == tournamentID {
			cp := *p
			return &cp, nil
		}
	}
	return nil, repositories.ErrParticipantNotFound
}

func (f *fakeParticipantRepo) CountByTournament(ctx context.Context, exec repositories.SQLExecutor, tournamentID int) (int, error) {
	count := 0
	for _, p := range f.participants {
		if p.TournamentID == tournamentID {
			count++
		}
	}
	return count, nil
}

func (f *fakeParticipantRepo) ListByTournament(ctx context.Context, exec repositories.SQLExecutor, tournamentID int, includeUsers bool) ([]*models.Participant, error) {
	out := make([]*models.Participant, 0)
	for _, p := range f.participants {
		if p.TournamentID == tournamentID {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

type fakeMatchRepo struct {
	mu      sync.Mutex
	matches map[int]*models.TournamentMatch
	nextID  int
}

func newFakeMatchRepo() *fakeMatchRepo {
	return &fakeMatchRepo{matches: make(map[int]*models.TournamentMatch)}
}

func (f *fakeMatchRepo) Create(ctx context.Context, exec repositories.SQLExecutor, m *models.TournamentMatch) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	m.ID = f.nextID
	cp := *m
	f.matches[m.ID] = &cp
	return nil
}

func (f *fakeMatchRepo) GetByID(ctx context.Context, id int) (*models.TournamentMatch, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.matches[id]
	if !ok {
		return nil, repositories.ErrMatchNotFound
	}
	cp := *m
	return &cp, nil
}

func (f *fakeMatchRepo) GetByIDForUpdate(ctx context.Context, exec repositories.SQLExecutor, id int) (*models.TournamentMatch, error) {
	return f.GetByID(ctx, id)
}

func (f *fakeMatchRepo) GetBySessionRef(ctx context.Context, sessionRef string) (*models.TournamentMatch, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, m := range f.matches {
		if m.SessionRef != nil && *m.SessionRef == sessionRef {
			cp := *m
			return &cp, nil
		}
	}
	return nil, repositories.ErrMatchNotFound
}

func (f *fakeMatchRepo) ListByTournament(ctx context.Context, exec repositories.SQLExecutor, tournamentID int, round *int, status *models.MatchStatus) ([]*models.TournamentMatch, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*models.TournamentMatch, 0)
	for _, m := range f.matches {
		if m.TournamentID != tournamentID {
			continue
		}
		if round != nil && m.Round != *round {
			continue
		}
		if status != nil && m.Status != *status {
			continue
		}
		cp := *m
		out = append(out, &cp)
	}
	return out, nil
}

func (f *fakeMatchRepo) SetResult(ctx context.Context, exec repositories.SQLExecutor, id int, winnerID int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.matches[id]
	if !ok {
		return repositories.ErrMatchNotFound
	}
	m.WinnerID = &winnerID
	m.Status = models.MatchFinished
	return nil
}

func (f *fakeMatchRepo) UpdateStatusSession(ctx context.Context, exec repositories.SQLExecutor, id int, status models.MatchStatus, sessionRef *string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.matches[id]
	if !ok {
		return repositories.ErrMatchNotFound
	}
	m.Status = status
	m.SessionRef = sessionRef
	return nil
}

type fakeHistoryRepo struct {
	mu      sync.Mutex
	records []*models.MatchHistory
}

func (f *fakeHistoryRepo) Create(ctx context.Context, exec repositories.SQLExecutor, h *models.MatchHistory) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	h.ID = len(f.records) + 1
	cp := *h
	f.records = append(f.records, &cp)
	return nil
}

func (f *fakeHistoryRepo) ListByPlayer(ctx context.Context, playerID int, limit int) ([]*models.MatchHistory, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*models.MatchHistory, 0)
	for _, h := range f.records {
		if h.Player1ID == playerID || h.Player2ID == playerID {
			cp := *h
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeHistoryRepo) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.records)
}

type fakeUserRepo struct {
	users map[int]*models.User
}

func (f *fakeUserRepo) GetByID(ctx context.Context, id int) (*models.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, repositories.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUserRepo) GetByIDs(ctx context.Context, ids []int) (map[int]*models.User, error) {
	out := make(map[int]*models.User, len(ids))
	for _, id := range ids {
		if u, ok := f.users[id]; ok {
			cp := *u
			out[id] = &cp
		}
	}
	return out, nil
}

type fakeUploader struct {
	uploaded []string
	deleted  []string
}

func (f *fakeUploader) Upload(ctx context.Context, key string, contentType string, reader io.Reader) (*storage.UploadResult, error) {
	f.uploaded = append(f.uploaded, key)
	return &storage.UploadResult{Key: key, Location: "https://cdn.test/" + key}, nil
}

func (f *fakeUploader) Delete(ctx context.Context, key string) error {
	f.deleted = append(f.deleted, key)
	return nil
}

func (f *fakeUploader) GetPublicURL(key string) string {
	return "https://cdn.test/" + key
}
