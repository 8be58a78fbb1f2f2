package services

import (
	"context"
	"sync"
	"time"

	"github.com/crownstage/pageant-system/models"
	"github.com/crownstage/pageant-system/repositories"
)

// In-memory реализации репозиториев для сервисных тестов. Возвращают копии,
// как это делает настоящий слой поверх database/sql.

type fakeCompetitionRepo struct {
	mu     sync.Mutex
	nextID int
	items  map[int]*models.Competition

	// getHook срабатывает после снятия снимка в GetByID: так тесты
	// вклинивают конкурентную запись между чтением и записью сервиса.
	getHook func()
}

func newFakeCompetitionRepo() *fakeCompetitionRepo {
	return &fakeCompetitionRepo{nextID: 1, items: make(map[int]*models.Competition)}
}

func (r *fakeCompetitionRepo) put(c *models.Competition) *models.Competition {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c.ID == 0 {
		c.ID = r.nextID
		r.nextID++
	}
	stored := *c
	r.items[c.ID] = &stored
	return c
}

func (r *fakeCompetitionRepo) Create(_ context.Context, c *models.Competition) error {
	r.put(c)
	return nil
}

func (r *fakeCompetitionRepo) GetByID(_ context.Context, id int) (*models.Competition, error) {
	r.mu.Lock()
	stored, ok := r.items[id]
	if !ok {
		r.mu.Unlock()
		return nil, repositories.ErrCompetitionNotFound
	}
	c := *stored
	// Строка конкурса не содержит раундов, их читает отдельный репозиторий.
	c.VotingRounds = nil
	r.mu.Unlock()

	if r.getHook != nil {
		r.getHook()
	}
	return &c, nil
}

func (r *fakeCompetitionRepo) List(_ context.Context, filter repositories.ListCompetitionsFilter) ([]models.Competition, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Competition
	for _, stored := range r.items {
		if filter.HostID != nil && stored.HostID != *filter.HostID {
			continue
		}
		if filter.Status != nil && stored.Status != *filter.Status {
			continue
		}
		out = append(out, *stored)
	}
	return out, nil
}

func (r *fakeCompetitionRepo) Update(_ context.Context, _ repositories.SQLExecutor, c *models.Competition) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	current, ok := r.items[c.ID]
	if !ok {
		return repositories.ErrCompetitionNotFound
	}
	stored := *c
	// Статус меняется только через UpdateStatusIf.
	stored.Status = current.Status
	r.items[c.ID] = &stored
	return nil
}

func (r *fakeCompetitionRepo) UpdateStatusIf(_ context.Context, _ repositories.SQLExecutor, id int, expected, next models.CompetitionStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.items[id]
	if !ok {
		return repositories.ErrCompetitionNotFound
	}
	if stored.Status != expected {
		return repositories.ErrStatusConflict
	}
	stored.Status = next
	return nil
}

func (r *fakeCompetitionRepo) Delete(_ context.Context, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; !ok {
		return repositories.ErrCompetitionNotFound
	}
	delete(r.items, id)
	return nil
}

func (r *fakeCompetitionRepo) UpdateCoverKey(_ context.Context, id int, coverKey *string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.items[id]
	if !ok {
		return repositories.ErrCompetitionNotFound
	}
	stored.CoverKey = coverKey
	return nil
}

func (r *fakeCompetitionRepo) AddVoteRevenue(_ context.Context, _ repositories.SQLExecutor, id int, amount float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.items[id]
	if !ok {
		return repositories.ErrCompetitionNotFound
	}
	stored.VoteRevenue += amount
	return nil
}

func (r *fakeCompetitionRepo) ListForAutoStatusUpdate(_ context.Context, _ repositories.SQLExecutor, now time.Time) ([]*models.Competition, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Competition
	for _, stored := range r.items {
		published := stored.Status == models.StatusPublished &&
			stored.NominationStart != nil && !now.Before(*stored.NominationStart)
		running := stored.Status.IsRunning() &&
			stored.FinaleDate != nil && !now.Before(*stored.FinaleDate)
		if published || running {
			c := *stored
			out = append(out, &c)
		}
	}
	return out, nil
}

type fakeNomineeRepo struct {
	mu     sync.Mutex
	nextID int
	items  map[int]*models.Nominee

	// Счётчик искусственных конфликтов токена для проверки ретраев.
	tokenConflicts int

	// getHook срабатывает после снятия снимка в GetByID.
	getHook func()
}

func newFakeNomineeRepo() *fakeNomineeRepo {
	return &fakeNomineeRepo{nextID: 1, items: make(map[int]*models.Nominee)}
}

func (r *fakeNomineeRepo) Create(_ context.Context, n *models.Nominee) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	n.ID = r.nextID
	r.nextID++
	stored := *n
	r.items[n.ID] = &stored
	return nil
}

func (r *fakeNomineeRepo) GetByID(_ context.Context, id int) (*models.Nominee, error) {
	r.mu.Lock()
	stored, ok := r.items[id]
	if !ok {
		r.mu.Unlock()
		return nil, repositories.ErrNomineeNotFound
	}
	n := *stored
	r.mu.Unlock()

	if r.getHook != nil {
		r.getHook()
	}
	return &n, nil
}

func (r *fakeNomineeRepo) GetByInviteToken(_ context.Context, token string) (*models.Nominee, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, stored := range r.items {
		if stored.InviteToken != nil && *stored.InviteToken == token {
			n := *stored
			return &n, nil
		}
	}
	return nil, repositories.ErrNomineeNotFound
}

func (r *fakeNomineeRepo) ListActive(_ context.Context, competitionID int) ([]models.Nominee, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Nominee
	for _, stored := range r.items {
		if stored.CompetitionID == competitionID && !stored.Status.IsTerminal() {
			out = append(out, *stored)
		}
	}
	return out, nil
}

func (r *fakeNomineeRepo) ListByStatus(_ context.Context, competitionID int, status models.NomineeStatus) ([]models.Nominee, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Nominee
	for _, stored := range r.items {
		if stored.CompetitionID == competitionID && stored.Status == status {
			out = append(out, *stored)
		}
	}
	return out, nil
}

func (r *fakeNomineeRepo) UpdateStatusIf(_ context.Context, _ repositories.SQLExecutor, id int, expected, next models.NomineeStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.items[id]
	if !ok {
		return repositories.ErrNomineeNotFound
	}
	if stored.Status != expected {
		return repositories.ErrNomineeStatusConflict
	}
	stored.Status = next
	return nil
}

func (r *fakeNomineeRepo) CompleteProfileIf(_ context.Context, n *models.Nominee, expected, next models.NomineeStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.items[n.ID]
	if !ok {
		return repositories.ErrNomineeNotFound
	}
	if stored.Status != expected {
		return repositories.ErrNomineeStatusConflict
	}
	updated := *n
	updated.Status = next
	r.items[n.ID] = &updated
	return nil
}

func (r *fakeNomineeRepo) SetInviteToken(_ context.Context, id int, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.tokenConflicts > 0 {
		r.tokenConflicts--
		return repositories.ErrNomineeTokenConflict
	}
	stored, ok := r.items[id]
	if !ok {
		return repositories.ErrNomineeNotFound
	}
	stored.InviteToken = &token
	return nil
}

func (r *fakeNomineeRepo) MarkClaimed(_ context.Context, id int, claimedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.items[id]
	if !ok {
		return repositories.ErrNomineeNotFound
	}
	if stored.ClaimedAt == nil {
		stored.ClaimedAt = &claimedAt
	}
	return nil
}

func (r *fakeNomineeRepo) MarkConverted(_ context.Context, _ repositories.SQLExecutor, id, contestantID int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.items[id]
	if !ok {
		return repositories.ErrNomineeNotFound
	}
	if stored.ConvertedToContestantID == nil {
		stored.ConvertedToContestantID = &contestantID
	}
	return nil
}

type fakeContestantRepo struct {
	mu       sync.Mutex
	nextID   int
	items    map[int]*models.Contestant
	bySource map[int]int
}

func newFakeContestantRepo() *fakeContestantRepo {
	return &fakeContestantRepo{
		nextID:   1,
		items:    make(map[int]*models.Contestant),
		bySource: make(map[int]int),
	}
}

func (r *fakeContestantRepo) Create(_ context.Context, _ repositories.SQLExecutor, c *models.Contestant) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c.SourceNomineeID != nil {
		if _, exists := r.bySource[*c.SourceNomineeID]; exists {
			return repositories.ErrContestantSourceConflict
		}
	}
	c.ID = r.nextID
	r.nextID++
	stored := *c
	r.items[c.ID] = &stored
	if c.SourceNomineeID != nil {
		r.bySource[*c.SourceNomineeID] = c.ID
	}
	return nil
}

func (r *fakeContestantRepo) GetByID(_ context.Context, id int) (*models.Contestant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.items[id]
	if !ok {
		return nil, repositories.ErrContestantNotFound
	}
	c := *stored
	return &c, nil
}

func (r *fakeContestantRepo) GetBySourceNomineeID(_ context.Context, nomineeID int) (*models.Contestant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.bySource[nomineeID]
	if !ok {
		return nil, repositories.ErrContestantNotFound
	}
	c := *r.items[id]
	return &c, nil
}

func (r *fakeContestantRepo) ListByCompetition(_ context.Context, competitionID int) ([]models.Contestant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Contestant
	for _, stored := range r.items {
		if stored.CompetitionID == competitionID {
			out = append(out, *stored)
		}
	}
	return out, nil
}

func (r *fakeContestantRepo) AddVotes(_ context.Context, _ repositories.SQLExecutor, id, delta int) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.items[id]
	if !ok {
		return 0, repositories.ErrContestantNotFound
	}
	stored.Votes += delta
	return stored.Votes, nil
}

func (r *fakeContestantRepo) SetVotes(_ context.Context, id, votes int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.items[id]
	if !ok {
		return repositories.ErrContestantNotFound
	}
	stored.Votes = votes
	return nil
}

func (r *fakeContestantRepo) UpdatePhotoKey(_ context.Context, id int, photoKey *string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.items[id]
	if !ok {
		return repositories.ErrContestantNotFound
	}
	stored.PhotoKey = photoKey
	return nil
}

func (r *fakeContestantRepo) Delete(_ context.Context, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.items[id]
	if !ok {
		return repositories.ErrContestantNotFound
	}
	if stored.SourceNomineeID != nil {
		delete(r.bySource, *stored.SourceNomineeID)
	}
	delete(r.items, id)
	return nil
}

type fakeJudgeRepo struct {
	mu          sync.Mutex
	nextID      int
	items       map[int]*models.Judge
	assignments map[int]map[int]bool // competitionID -> judgeID set
}

func newFakeJudgeRepo() *fakeJudgeRepo {
	return &fakeJudgeRepo{
		nextID:      1,
		items:       make(map[int]*models.Judge),
		assignments: make(map[int]map[int]bool),
	}
}

func (r *fakeJudgeRepo) Create(_ context.Context, j *models.Judge) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	j.ID = r.nextID
	r.nextID++
	stored := *j
	r.items[j.ID] = &stored
	return nil
}

func (r *fakeJudgeRepo) GetByID(_ context.Context, id int) (*models.Judge, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.items[id]
	if !ok {
		return nil, repositories.ErrJudgeNotFound
	}
	j := *stored
	return &j, nil
}

func (r *fakeJudgeRepo) List(_ context.Context, _, _ int) ([]models.Judge, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Judge
	for _, stored := range r.items {
		out = append(out, *stored)
	}
	return out, nil
}

func (r *fakeJudgeRepo) Update(_ context.Context, j *models.Judge) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[j.ID]; !ok {
		return repositories.ErrJudgeNotFound
	}
	stored := *j
	r.items[j.ID] = &stored
	return nil
}

func (r *fakeJudgeRepo) Delete(_ context.Context, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; !ok {
		return repositories.ErrJudgeNotFound
	}
	delete(r.items, id)
	return nil
}

func (r *fakeJudgeRepo) AssignToCompetition(_ context.Context, judgeID, competitionID int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.assignments[competitionID] == nil {
		r.assignments[competitionID] = make(map[int]bool)
	}
	if r.assignments[competitionID][judgeID] {
		return repositories.ErrJudgeAlreadyAssigned
	}
	r.assignments[competitionID][judgeID] = true
	return nil
}

func (r *fakeJudgeRepo) UnassignFromCompetition(_ context.Context, judgeID, competitionID int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.assignments[competitionID], judgeID)
	return nil
}

func (r *fakeJudgeRepo) ListByCompetition(_ context.Context, competitionID int) ([]models.Judge, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Judge
	for judgeID := range r.assignments[competitionID] {
		if stored, ok := r.items[judgeID]; ok {
			out = append(out, *stored)
		}
	}
	return out, nil
}

func (r *fakeJudgeRepo) CountByCompetition(_ context.Context, competitionID int) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.assignments[competitionID]), nil
}

type fakeRoundRepo struct {
	mu    sync.Mutex
	items map[int][]models.VotingRound
}

func newFakeRoundRepo() *fakeRoundRepo {
	return &fakeRoundRepo{items: make(map[int][]models.VotingRound)}
}

func (r *fakeRoundRepo) ListByCompetition(_ context.Context, competitionID int) ([]models.VotingRound, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.VotingRound(nil), r.items[competitionID]...), nil
}

func (r *fakeRoundRepo) ReplaceAll(_ context.Context, _ repositories.SQLExecutor, competitionID int, rounds []models.VotingRound) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[competitionID] = append([]models.VotingRound(nil), rounds...)
	return nil
}

func (r *fakeRoundRepo) DeleteByCompetition(_ context.Context, _ repositories.SQLExecutor, competitionID int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.items, competitionID)
	return nil
}

type fakeUserRepo struct {
	mu      sync.Mutex
	nextID  int
	items   map[int]*models.User
	byEmail map[string]int
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{nextID: 1, items: make(map[int]*models.User), byEmail: make(map[string]int)}
}

func (r *fakeUserRepo) Create(_ context.Context, u *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byEmail[u.Email]; exists {
		return repositories.ErrUserEmailConflict
	}
	u.ID = r.nextID
	r.nextID++
	stored := *u
	r.items[u.ID] = &stored
	r.byEmail[u.Email] = u.ID
	return nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id int) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.items[id]
	if !ok {
		return nil, repositories.ErrUserNotFound
	}
	u := *stored
	return &u, nil
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.byEmail[email]
	if !ok {
		return nil, repositories.ErrUserNotFound
	}
	u := *r.items[id]
	return &u, nil
}

func (r *fakeUserRepo) Delete(_ context.Context, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.items[id]
	if !ok {
		return repositories.ErrUserNotFound
	}
	delete(r.byEmail, stored.Email)
	delete(r.items, id)
	return nil
}

type fakeNotifier struct {
	mu      sync.Mutex
	sent    []int
	resent  []int
	sendErr error
}

func (n *fakeNotifier) SendNomineeInvite(nominee *models.Nominee) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.sendErr != nil {
		return n.sendErr
	}
	n.sent = append(n.sent, nominee.ID)
	return nil
}

func (n *fakeNotifier) ResendNomineeInvite(nominee *models.Nominee) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.resent = append(n.resent, nominee.ID)
	return nil
}

type statusEmail struct {
	userEmail       string
	competitionName string
	status          string
	competitionID   int
}

type fakeStatusNotifier struct {
	mu   sync.Mutex
	sent []statusEmail
}

func (n *fakeStatusNotifier) SendCompetitionStatusEmail(userEmail, competitionName, status string, competitionID int) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, statusEmail{
		userEmail:       userEmail,
		competitionName: competitionName,
		status:          status,
		competitionID:   competitionID,
	})
	return nil
}

type broadcastEvent struct {
	competitionID int
	event         interface{}
}

type fakeBroadcaster struct {
	mu     sync.Mutex
	events []broadcastEvent
}

func (b *fakeBroadcaster) BroadcastToCompetition(competitionID int, event interface{}) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, broadcastEvent{competitionID: competitionID, event: event})
}

func (b *fakeBroadcaster) count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.events)
}
