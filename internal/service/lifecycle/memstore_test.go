package lifecycle

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/yourusername/habitleague-api/internal/domain/entity"
	"github.com/yourusername/habitleague-api/internal/domain/repository"
	apperrors "github.com/yourusername/habitleague-api/internal/pkg/errors"
	"github.com/yourusername/habitleague-api/internal/service/payment"
)

// memStore хранилище в памяти с транзакциями через снимок состояния
type memStore struct {
	txMu sync.Mutex

	challenges    map[uint]entity.Challenge
	members       map[uint]entity.ChallengeMember
	evidence      map[uint][]time.Time // memberID -> submitted_at
	checks        []entity.DailyEvidenceCheck
	distributions map[uint]entity.PrizeDistribution
	nextID        uint

	// failMemberUpdate имитирует сбой при сохранении конкретного участника
	failMemberUpdate map[uint]error
}

func newMemStore() *memStore {
	return &memStore{
		challenges:       make(map[uint]entity.Challenge),
		members:          make(map[uint]entity.ChallengeMember),
		evidence:         make(map[uint][]time.Time),
		distributions:    make(map[uint]entity.PrizeDistribution),
		failMemberUpdate: make(map[uint]error),
	}
}

func (s *memStore) id() uint {
	s.nextID++
	return s.nextID
}

type memSnapshot struct {
	challenges    map[uint]entity.Challenge
	members       map[uint]entity.ChallengeMember
	checks        []entity.DailyEvidenceCheck
	distributions map[uint]entity.PrizeDistribution
	nextID        uint
}

func (s *memStore) snapshot() memSnapshot {
	snap := memSnapshot{
		challenges:    make(map[uint]entity.Challenge, len(s.challenges)),
		members:       make(map[uint]entity.ChallengeMember, len(s.members)),
		checks:        append([]entity.DailyEvidenceCheck(nil), s.checks...),
		distributions: make(map[uint]entity.PrizeDistribution, len(s.distributions)),
		nextID:        s.nextID,
	}
	for k, v := range s.challenges {
		snap.challenges[k] = v
	}
	for k, v := range s.members {
		snap.members[k] = v
	}
	for k, v := range s.distributions {
		snap.distributions[k] = v
	}
	return snap
}

func (s *memStore) restore(snap memSnapshot) {
	s.challenges = snap.challenges
	s.members = snap.members
	s.checks = snap.checks
	s.distributions = snap.distributions
	s.nextID = snap.nextID
}

type memTxKey struct{}

// WithinTransaction откатывает все изменения при ошибке или панике
func (s *memStore) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if ctx.Value(memTxKey{}) != nil {
		return fn(ctx)
	}
	s.txMu.Lock()
	defer s.txMu.Unlock()

	snap := s.snapshot()
	defer func() {
		if r := recover(); r != nil {
			s.restore(snap)
			panic(r)
		}
		if err != nil {
			s.restore(snap)
		}
	}()
	return fn(context.WithValue(ctx, memTxKey{}, true))
}

// --- challenges ---

type memChallenges struct{ s *memStore }

func (r memChallenges) Create(_ context.Context, c *entity.Challenge) error {
	c.ID = r.s.id()
	r.s.challenges[c.ID] = *c
	return nil
}

func (r memChallenges) GetByID(_ context.Context, id uint) (*entity.Challenge, error) {
	c, ok := r.s.challenges[id]
	if !ok {
		return nil, apperrors.ErrChallengeNotFound
	}
	return &c, nil
}

func (r memChallenges) GetByIDForUpdate(ctx context.Context, id uint) (*entity.Challenge, error) {
	return r.GetByID(ctx, id)
}

func (r memChallenges) FindActiveForDate(_ context.Context, date time.Time) ([]entity.Challenge, error) {
	var out []entity.Challenge
	for _, c := range r.s.challenges {
		if !c.StartDate.After(date) && !c.EndDate.Before(date) && !c.PrizesDistributed {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r memChallenges) List(_ context.Context, _ repository.ChallengeFilter, limit, offset int) ([]entity.Challenge, int64, error) {
	var out []entity.Challenge
	for _, c := range r.s.challenges {
		out = append(out, c)
	}
	return out, int64(len(out)), nil
}

func (r memChallenges) ListByUser(_ context.Context, userID uint) ([]entity.Challenge, error) {
	var out []entity.Challenge
	for _, m := range r.s.members {
		if m.UserID == userID {
			out = append(out, r.s.challenges[m.ChallengeID])
		}
	}
	return out, nil
}

func (r memChallenges) SaveLifecycleState(_ context.Context, c *entity.Challenge) error {
	stored, ok := r.s.challenges[c.ID]
	if !ok {
		return apperrors.ErrChallengeNotFound
	}
	stored.TotalPrizePool = c.TotalPrizePool
	stored.ActiveParticipantCount = c.ActiveParticipantCount
	stored.PrizesDistributed = c.PrizesDistributed
	stored.Status = c.Status
	stored.UnallocatedRemainder = c.UnallocatedRemainder
	r.s.challenges[c.ID] = stored
	return nil
}

// --- members ---

type memMembers struct{ s *memStore }

func (r memMembers) Create(_ context.Context, m *entity.ChallengeMember) error {
	for _, existing := range r.s.members {
		if existing.ChallengeID == m.ChallengeID && existing.UserID == m.UserID {
			return apperrors.ErrAlreadyMember
		}
	}
	m.ID = r.s.id()
	r.s.members[m.ID] = *m
	return nil
}

func (r memMembers) GetByChallengeAndUser(_ context.Context, challengeID, userID uint) (*entity.ChallengeMember, error) {
	for _, m := range r.s.members {
		if m.ChallengeID == challengeID && m.UserID == userID {
			return &m, nil
		}
	}
	return nil, apperrors.ErrMemberNotFound
}

func (r memMembers) GetByChallengeAndUserForUpdate(ctx context.Context, challengeID, userID uint) (*entity.ChallengeMember, error) {
	return r.GetByChallengeAndUser(ctx, challengeID, userID)
}

func (r memMembers) filter(challengeID uint, keep func(entity.ChallengeMember) bool) []entity.ChallengeMember {
	var out []entity.ChallengeMember
	for _, m := range r.s.members {
		if m.ChallengeID == challengeID && keep(m) {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (r memMembers) ListActiveForUpdate(_ context.Context, challengeID uint) ([]entity.ChallengeMember, error) {
	return r.filter(challengeID, func(m entity.ChallengeMember) bool { return m.HasCompleted }), nil
}

func (r memMembers) ListByChallenge(_ context.Context, challengeID uint) ([]entity.ChallengeMember, error) {
	return r.filter(challengeID, func(entity.ChallengeMember) bool { return true }), nil
}

func (r memMembers) ListByUser(_ context.Context, userID uint) ([]entity.ChallengeMember, error) {
	var out []entity.ChallengeMember
	for _, m := range r.s.members {
		if m.UserID == userID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r memMembers) CountActive(_ context.Context, challengeID uint) (int64, error) {
	return int64(len(r.filter(challengeID, func(m entity.ChallengeMember) bool { return m.HasCompleted }))), nil
}

func (r memMembers) CountPaid(_ context.Context, challengeID uint) (int64, error) {
	return int64(len(r.filter(challengeID, func(m entity.ChallengeMember) bool { return m.PaymentCompleted }))), nil
}

func (r memMembers) Update(_ context.Context, m *entity.ChallengeMember) error {
	if err := r.s.failMemberUpdate[m.ID]; err != nil {
		return err
	}
	r.s.members[m.ID] = *m
	return nil
}

// --- evidence ---

type memEvidence struct{ s *memStore }

func (r memEvidence) ExistsInWindow(_ context.Context, memberID uint, from, to time.Time) (bool, error) {
	for _, at := range r.s.evidence[memberID] {
		if !at.Before(from) && at.Before(to) {
			return true, nil
		}
	}
	return false, nil
}

// --- daily checks ---

type memChecks struct{ s *memStore }

func (r memChecks) Exists(_ context.Context, challengeID uint, date time.Time) (bool, error) {
	for _, c := range r.s.checks {
		if c.ChallengeID == challengeID && entity.SameDate(c.CheckDate, date) {
			return true, nil
		}
	}
	return false, nil
}

func (r memChecks) Create(ctx context.Context, check *entity.DailyEvidenceCheck) error {
	if exists, _ := r.Exists(ctx, check.ChallengeID, check.CheckDate); exists {
		return fmt.Errorf("%w: daily check already recorded", apperrors.ErrConflict)
	}
	check.ID = r.s.id()
	r.s.checks = append(r.s.checks, *check)
	return nil
}

func (r memChecks) ListByChallenge(_ context.Context, challengeID uint) ([]entity.DailyEvidenceCheck, error) {
	var out []entity.DailyEvidenceCheck
	for _, c := range r.s.checks {
		if c.ChallengeID == challengeID {
			out = append(out, c)
		}
	}
	return out, nil
}

// --- distributions ---

type memDistributions struct{ s *memStore }

func (r memDistributions) ExistsForMember(_ context.Context, challengeID, memberID uint) (bool, error) {
	for _, d := range r.s.distributions {
		if d.ChallengeID == challengeID && d.ChallengeMemberID == memberID {
			return true, nil
		}
	}
	return false, nil
}

func (r memDistributions) Create(ctx context.Context, d *entity.PrizeDistribution) error {
	if exists, _ := r.ExistsForMember(ctx, d.ChallengeID, d.ChallengeMemberID); exists {
		return fmt.Errorf("%w: distribution already exists", apperrors.ErrConflict)
	}
	d.ID = r.s.id()
	r.s.distributions[d.ID] = *d
	return nil
}

func (r memDistributions) GetForUpdate(_ context.Context, id uint) (*entity.PrizeDistribution, error) {
	d, ok := r.s.distributions[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return &d, nil
}

func (r memDistributions) Update(_ context.Context, d *entity.PrizeDistribution) error {
	r.s.distributions[d.ID] = *d
	return nil
}

func (r memDistributions) list(keep func(entity.PrizeDistribution) bool) []entity.PrizeDistribution {
	var out []entity.PrizeDistribution
	for _, d := range r.s.distributions {
		if keep(d) {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (r memDistributions) ListByChallenge(_ context.Context, challengeID uint) ([]entity.PrizeDistribution, error) {
	return r.list(func(d entity.PrizeDistribution) bool { return d.ChallengeID == challengeID }), nil
}

func (r memDistributions) ListUnpaid(_ context.Context, challengeID uint) ([]entity.PrizeDistribution, error) {
	return r.list(func(d entity.PrizeDistribution) bool {
		return !d.Paid && (challengeID == 0 || d.ChallengeID == challengeID)
	}), nil
}

// --- cache ---

type memCache struct {
	mu   sync.Mutex
	data map[string]string
}

func newMemCache() *memCache { return &memCache{data: make(map[string]string)} }

func (c *memCache) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = fmt.Sprint(value)
	return nil
}

func (c *memCache) Get(_ context.Context, key string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[key]
	if !ok {
		return "", apperrors.ErrNotFound
	}
	return v, nil
}

func (c *memCache) Delete(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.data, k)
	}
	return nil
}

func (c *memCache) Increment(_ context.Context, key string) (int64, error) {
	return 0, errors.New("not supported")
}

func (c *memCache) SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.Set(ctx, key, string(data), ttl)
}

func (c *memCache) GetJSON(ctx context.Context, key string, dest interface{}) error {
	v, err := c.Get(ctx, key)
	if err != nil {
		return err
	}
	return json.Unmarshal([]byte(v), dest)
}

func (c *memCache) Exists(_ context.Context, key string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.data[key]
	return ok, nil
}

func (c *memCache) SetNX(_ context.Context, key string, value interface{}, _ time.Duration) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.data[key]; ok {
		return false, nil
	}
	c.data[key] = fmt.Sprint(value)
	return true, nil
}

// --- collaborators ---

// fakePayouts отклоняет выплаты участникам из failFor
type fakePayouts struct {
	mu      sync.Mutex
	failFor map[uint]bool
	calls   []payment.PayoutRequest
}

func (p *fakePayouts) Payout(_ context.Context, req payment.PayoutRequest) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, req)
	if p.failFor[req.MemberID] {
		return "", fmt.Errorf("%w: simulated payout failure", apperrors.ErrExternal)
	}
	return fmt.Sprintf("po_test_%d_%d", req.ChallengeID, req.MemberID), nil
}

// recordingNotifier запоминает все события
type recordingNotifier struct {
	mu       sync.Mutex
	triggers []entity.AchievementTrigger
	panics   bool
}

func (n *recordingNotifier) Notify(t entity.AchievementTrigger) {
	if n.panics {
		panic("notifier exploded")
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	n.triggers = append(n.triggers, t)
}

func (n *recordingNotifier) count(kind entity.TriggerKind) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	c := 0
	for _, t := range n.triggers {
		if t.Kind == kind {
			c++
		}
	}
	return c
}
