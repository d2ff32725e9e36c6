package usecase

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"cofound/internal/domain"
	"cofound/internal/domain/builder"
	"cofound/internal/domain/conversation"
	"cofound/internal/domain/interest"
	"cofound/internal/domain/matching"
	"cofound/internal/domain/opening"
	"cofound/internal/domain/trial"
	"cofound/internal/domain/user"
)

// memStore backs every fake repository. One mutex gives the same
// single-winner guarantees the SQL constraints and row locks give.
type memStore struct {
	mu sync.Mutex

	users         map[uuid.UUID]user.User
	stats         map[uuid.UUID]user.Stats
	openings      map[uuid.UUID]opening.Opening
	openingOrder  []uuid.UUID
	profiles      map[uuid.UUID]builder.Profile
	interests     map[uuid.UUID]interest.Interest
	conversations map[uuid.UUID]conversation.Conversation
	messages      []conversation.Message
	trials        map[uuid.UUID]trial.Trial
	suggestions   map[uuid.UUID][]matching.Suggestion

	statsErr       error
	trialUpdateErr map[uuid.UUID]error
	suggestionErr  map[uuid.UUID]error
}

func newMemStore() *memStore {
	return &memStore{
		users:          map[uuid.UUID]user.User{},
		stats:          map[uuid.UUID]user.Stats{},
		openings:       map[uuid.UUID]opening.Opening{},
		profiles:       map[uuid.UUID]builder.Profile{},
		interests:      map[uuid.UUID]interest.Interest{},
		conversations:  map[uuid.UUID]conversation.Conversation{},
		trials:         map[uuid.UUID]trial.Trial{},
		suggestions:    map[uuid.UUID][]matching.Suggestion{},
		trialUpdateErr: map[uuid.UUID]error{},
		suggestionErr:  map[uuid.UUID]error{},
	}
}

type memUsers struct{ s *memStore }

func (r memUsers) GetByID(_ context.Context, id uuid.UUID) (user.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return user.User{}, domain.ErrUserNotFound
	}
	return u, nil
}

func (r memUsers) GetByIDs(_ context.Context, ids []uuid.UUID) (map[uuid.UUID]user.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := map[uuid.UUID]user.User{}
	for _, id := range ids {
		if u, ok := r.s.users[id]; ok {
			out[id] = u
		}
	}
	return out, nil
}

type memStats struct{ s *memStore }

func (r memStats) Increment(_ context.Context, userID uuid.UUID, field user.StatField, delta int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.statsErr != nil {
		return r.s.statsErr
	}
	st := r.s.stats[userID]
	st.UserID = userID
	switch field {
	case user.StatInterestsSent:
		st.InterestsSent += delta
	case user.StatInterestsReceived:
		st.InterestsReceived += delta
	case user.StatShortlists:
		st.Shortlists += delta
	case user.StatMatches:
		st.Matches += delta
	case user.StatTrialsCompleted:
		st.TrialsCompleted += delta
	default:
		return domain.ErrInvalidInput
	}
	r.s.stats[userID] = st
	return nil
}

func (r memStats) Get(_ context.Context, userID uuid.UUID) (user.Stats, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	st := r.s.stats[userID]
	st.UserID = userID
	return st, nil
}

type memOpenings struct{ s *memStore }

func (r memOpenings) Create(_ context.Context, o opening.Opening) (opening.Opening, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.openings[o.ID] = o
	r.s.openingOrder = append(r.s.openingOrder, o.ID)
	return o, nil
}

func (r memOpenings) GetByID(_ context.Context, id uuid.UUID) (opening.Opening, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	o, ok := r.s.openings[id]
	if !ok {
		return opening.Opening{}, domain.ErrOpeningNotFound
	}
	return o, nil
}

func (r memOpenings) ListByStatus(_ context.Context, status opening.Status, limit, offset int) ([]opening.Opening, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var all []opening.Opening
	for _, id := range r.s.openingOrder {
		if o := r.s.openings[id]; o.Status == status {
			all = append(all, o)
		}
	}
	return page(all, limit, offset), nil
}

func (r memOpenings) ListByFounder(_ context.Context, founderID uuid.UUID) ([]opening.Opening, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []opening.Opening
	for _, id := range r.s.openingOrder {
		if o := r.s.openings[id]; o.FounderID == founderID {
			out = append(out, o)
		}
	}
	return out, nil
}

func (r memOpenings) Update(_ context.Context, id uuid.UUID, fn func(*opening.Opening) error) (opening.Opening, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	o, ok := r.s.openings[id]
	if !ok {
		return opening.Opening{}, domain.ErrOpeningNotFound
	}
	if err := fn(&o); err != nil {
		return opening.Opening{}, err
	}
	r.s.openings[id] = o
	return o, nil
}

func (r memOpenings) Increment(_ context.Context, id uuid.UUID, c opening.Counter, delta int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	o, ok := r.s.openings[id]
	if !ok {
		return domain.ErrOpeningNotFound
	}
	switch c {
	case opening.CounterInterests:
		o.InterestCount += delta
	case opening.CounterViews:
		o.ViewCount += delta
	default:
		return domain.ErrInvalidInput
	}
	r.s.openings[id] = o
	return nil
}

type memBuilders struct{ s *memStore }

func (r memBuilders) GetByUserID(_ context.Context, userID uuid.UUID) (builder.Profile, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.profiles[userID]
	if !ok {
		return builder.Profile{}, domain.ErrProfileNotFound
	}
	return p, nil
}

func (r memBuilders) ListComplete(_ context.Context, limit, offset int) ([]builder.Profile, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var all []builder.Profile
	for _, p := range r.s.profiles {
		if p.IsComplete {
			all = append(all, p)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].UserID.String() < all[j].UserID.String() })
	return page(all, limit, offset), nil
}

type memInterests struct{ s *memStore }

func (r memInterests) CreateWithinQuota(_ context.Context, i interest.Interest, since time.Time, limit int) (interest.Interest, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	n := 0
	for _, v := range r.s.interests {
		if v.BuilderID != i.BuilderID {
			continue
		}
		if v.OpeningID == i.OpeningID {
			return interest.Interest{}, domain.ErrDuplicateInterest
		}
		if !v.CreatedAt.Before(since) {
			n++
		}
	}
	if n >= limit {
		return interest.Interest{}, domain.ErrDailyLimitReached
	}
	r.s.interests[i.ID] = i
	return i, nil
}

func (r memInterests) GetByID(_ context.Context, id uuid.UUID) (interest.Interest, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	i, ok := r.s.interests[id]
	if !ok {
		return interest.Interest{}, domain.ErrInterestNotFound
	}
	return i, nil
}

func (r memInterests) Update(_ context.Context, id uuid.UUID, fn func(*interest.Interest) error) (interest.Interest, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	i, ok := r.s.interests[id]
	if !ok {
		return interest.Interest{}, domain.ErrInterestNotFound
	}
	if err := fn(&i); err != nil {
		return interest.Interest{}, err
	}
	r.s.interests[id] = i
	return i, nil
}

func (r memInterests) CountCreatedSince(_ context.Context, builderID uuid.UUID, since time.Time) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	n := 0
	for _, v := range r.s.interests {
		if v.BuilderID == builderID && !v.CreatedAt.Before(since) {
			n++
		}
	}
	return n, nil
}

func (r memInterests) ListMutualMatches(_ context.Context, f interest.MatchFilter) ([]interest.Interest, error) {
	return r.filter(func(i interest.Interest) bool {
		return i.IsMutualMatch &&
			(f.FounderID == uuid.Nil || i.FounderID == f.FounderID) &&
			(f.BuilderID == uuid.Nil || i.BuilderID == f.BuilderID)
	}), nil
}

func (r memInterests) ListByOpening(_ context.Context, openingID uuid.UUID, status *interest.Status) ([]interest.Interest, error) {
	return r.filter(func(i interest.Interest) bool {
		return i.OpeningID == openingID && (status == nil || i.Status == *status)
	}), nil
}

func (r memInterests) ListByBuilder(_ context.Context, builderID uuid.UUID) ([]interest.Interest, error) {
	return r.filter(func(i interest.Interest) bool { return i.BuilderID == builderID }), nil
}

func (r memInterests) filter(keep func(interest.Interest) bool) []interest.Interest {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]interest.Interest, 0)
	for _, v := range r.s.interests {
		if keep(v) {
			out = append(out, v)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

type memConversations struct{ s *memStore }

func (r memConversations) CreateFromInterest(_ context.Context, c conversation.Conversation, seed conversation.Message) (conversation.Conversation, bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, v := range r.s.conversations {
		if v.InterestID == c.InterestID {
			return v, false, nil
		}
	}
	seed.ConversationID = c.ID
	r.s.messages = append(r.s.messages, seed)
	id, at := seed.ID, seed.CreatedAt
	c.MessageCount = 1
	c.LastMessageID = &id
	c.LastMessageAt = &at
	r.s.conversations[c.ID] = c

	i := r.s.interests[c.InterestID]
	cid := c.ID
	i.ConversationID = &cid
	r.s.interests[c.InterestID] = i
	return c, true, nil
}

func (r memConversations) GetByID(_ context.Context, id uuid.UUID) (conversation.Conversation, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.conversations[id]
	if !ok {
		return conversation.Conversation{}, domain.ErrConversationNotFound
	}
	return c, nil
}

func (r memConversations) GetByInterestID(_ context.Context, interestID uuid.UUID) (conversation.Conversation, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, v := range r.s.conversations {
		if v.InterestID == interestID {
			return v, nil
		}
	}
	return conversation.Conversation{}, domain.ErrConversationNotFound
}

func (r memConversations) ListByParticipant(_ context.Context, userID uuid.UUID) ([]conversation.Conversation, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]conversation.Conversation, 0)
	for _, v := range r.s.conversations {
		if v.IsParticipant(userID) {
			out = append(out, v)
		}
	}
	return out, nil
}

func (r memConversations) Update(_ context.Context, id uuid.UUID, fn func(*conversation.Conversation) error) (conversation.Conversation, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.conversations[id]
	if !ok {
		return conversation.Conversation{}, domain.ErrConversationNotFound
	}
	if err := fn(&c); err != nil {
		return conversation.Conversation{}, err
	}
	r.s.conversations[id] = c
	return c, nil
}

func (r memConversations) SetTrial(_ context.Context, id uuid.UUID, trialID uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.conversations[id]
	if !ok {
		return domain.ErrConversationNotFound
	}
	c.TrialID = &trialID
	r.s.conversations[id] = c
	return nil
}

type memMessages struct{ s *memStore }

func (r memMessages) Create(_ context.Context, m conversation.Message) (conversation.Message, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.conversations[m.ConversationID]
	if !ok {
		return conversation.Message{}, domain.ErrConversationNotFound
	}
	if c.Status != conversation.StatusActive {
		return conversation.Message{}, domain.ErrConversationNotActive
	}
	id, at := m.ID, m.CreatedAt
	c.MessageCount++
	c.LastMessageID = &id
	c.LastMessageAt = &at
	r.s.conversations[c.ID] = c
	r.s.messages = append(r.s.messages, m)
	return m, nil
}

func (r memMessages) GetByID(_ context.Context, id uuid.UUID) (conversation.Message, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, m := range r.s.messages {
		if m.ID == id {
			return m, nil
		}
	}
	return conversation.Message{}, domain.ErrMessageNotFound
}

func (r memMessages) List(_ context.Context, conversationID uuid.UUID, before *conversation.Cursor, limit int) ([]conversation.Message, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]conversation.Message, 0)
	for _, m := range r.s.messages {
		if m.ConversationID != conversationID {
			continue
		}
		if before != nil && !before.After(m) {
			continue
		}
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID.String() > out[j].ID.String()
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r memMessages) MarkRead(_ context.Context, conversationID, readerID uuid.UUID, upTo time.Time, at time.Time) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	n := 0
	for i, m := range r.s.messages {
		if m.ConversationID != conversationID || m.ReadAt != nil || m.CreatedAt.After(upTo) {
			continue
		}
		if m.SenderID != nil && *m.SenderID == readerID {
			continue
		}
		t := at
		r.s.messages[i].ReadAt = &t
		n++
	}
	return n, nil
}

func (s *memStore) messagesIn(conversationID uuid.UUID) []conversation.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []conversation.Message
	for _, m := range s.messages {
		if m.ConversationID == conversationID {
			out = append(out, m)
		}
	}
	return out
}

func countType(msgs []conversation.Message, typ conversation.MessageType) int {
	n := 0
	for _, m := range msgs {
		if m.Type == typ {
			n++
		}
	}
	return n
}

type memTrials struct{ s *memStore }

func (r memTrials) Create(_ context.Context, t trial.Trial) (trial.Trial, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, v := range r.s.trials {
		if v.ConversationID == t.ConversationID && v.Status.Live() {
			return trial.Trial{}, domain.ErrLiveTrialExists
		}
	}
	r.s.trials[t.ID] = t
	return t, nil
}

func (r memTrials) GetByID(_ context.Context, id uuid.UUID) (trial.Trial, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.trials[id]
	if !ok {
		return trial.Trial{}, domain.ErrTrialNotFound
	}
	return t, nil
}

func (r memTrials) Update(_ context.Context, id uuid.UUID, fn func(*trial.Trial) error) (trial.Trial, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.trialUpdateErr[id]; err != nil {
		return trial.Trial{}, err
	}
	t, ok := r.s.trials[id]
	if !ok {
		return trial.Trial{}, domain.ErrTrialNotFound
	}
	if err := fn(&t); err != nil {
		return trial.Trial{}, err
	}
	r.s.trials[id] = t
	return t, nil
}

func (r memTrials) ListByConversation(_ context.Context, conversationID uuid.UUID) ([]trial.Trial, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]trial.Trial, 0)
	for _, v := range r.s.trials {
		if v.ConversationID == conversationID {
			out = append(out, v)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ProposedAt.After(out[j].ProposedAt) })
	return out, nil
}

func (r memTrials) ListActiveEndingBefore(_ context.Context, before time.Time) ([]trial.Trial, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]trial.Trial, 0)
	for _, v := range r.s.trials {
		if v.Status == trial.StatusActive && v.EndsAt != nil && !v.EndsAt.After(before) {
			out = append(out, v)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EndsAt.Before(*out[j].EndsAt) })
	return out, nil
}

type memSuggestions struct{ s *memStore }

func (r memSuggestions) ReplaceForOpening(_ context.Context, openingID uuid.UUID, s []matching.Suggestion) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.suggestionErr[openingID]; err != nil {
		return err
	}
	r.s.suggestions[openingID] = append([]matching.Suggestion(nil), s...)
	return nil
}

func (r memSuggestions) ListForOpening(_ context.Context, openingID uuid.UUID, limit int) ([]matching.Suggestion, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return page(r.s.suggestions[openingID], limit, 0), nil
}

type memCache struct {
	mu      sync.Mutex
	entries map[string]any
	deletes int
}

func newMemCache() *memCache {
	return &memCache{entries: map[string]any{}}
}

func (c *memCache) GetJSON(_ context.Context, key string, out any) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.entries[key]
	if !ok {
		return false, nil
	}
	dst, ok := out.(*[]matching.Suggestion)
	if !ok {
		return false, nil
	}
	*dst = append([]matching.Suggestion(nil), v.([]matching.Suggestion)...)
	return true, nil
}

func (c *memCache) SetJSON(_ context.Context, key string, value any, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = value
	return nil
}

func (c *memCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
	c.deletes++
	return nil
}

func page[T any](all []T, limit, offset int) []T {
	if offset >= len(all) {
		return []T{}
	}
	all = all[offset:]
	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}
	return all
}

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type fixture struct {
	store *memStore
	clock *fakeClock
	cache *memCache

	interests     *Interests
	conversations *Conversations
	trials        *Trials
	openings      *Openings
	matching      *MatchGeneration
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	s := newMemStore()
	clock := &fakeClock{t: time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)}
	cache := newMemCache()
	log := zap.NewNop()
	opts := []Option{WithClock(clock.Now), WithPicker(func(int) int { return 0 })}

	scorer, err := matching.NewScorer(matching.DefaultWeights(), matching.DefaultThresholds())
	if err != nil {
		t.Fatalf("scorer: %v", err)
	}

	quota := Quota{Free: 5, Boosted: 15, Location: time.UTC}
	interests := NewInterestUsecase(memInterests{s}, memOpenings{s}, memBuilders{s}, memUsers{s}, memStats{s}, quota, log, opts...)
	conversations := NewConversationUsecase(memConversations{s}, memMessages{s}, memInterests{s}, memUsers{s}, log, opts...)
	trials := NewTrialUsecase(memTrials{s}, memConversations{s}, memMessages{s}, memUsers{s}, memStats{s}, log, opts...)
	generation := NewMatchingUsecase(memOpenings{s}, memBuilders{s}, memSuggestions{s}, scorer, matching.TierFair, 4, cache, log, opts...)

	return &fixture{
		store:         s,
		clock:         clock,
		cache:         cache,
		interests:     interests,
		conversations: conversations,
		trials:        trials,
		openings:      NewOpeningUsecase(memOpenings{s}, log, opts...),
		matching:      generation,
	}
}

func (f *fixture) addUser(role user.Role, name string) uuid.UUID {
	id := uuid.New()
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	f.store.users[id] = user.User{ID: id, Role: role, DisplayName: name, AvatarURL: "https://cdn.example/" + name + ".png"}
	return id
}

func completeProfile(userID uuid.UUID) builder.Profile {
	return builder.Profile{
		UserID:               userID,
		Skills:               []string{"Go", "PostgreSQL", "React"},
		RiskAppetite:         builder.RiskHigh,
		CompensationOpenness: []builder.Compensation{builder.CompEquityOnly, builder.CompEquityHeavy},
		HoursPerWeek:         40,
		RoleInterests:        []string{"CTO"},
		RemotePreference:     opening.RemoteOnly,
		SubscriptionTier:     builder.TierFree,
		IsComplete:           true,
	}
}

func (f *fixture) addBuilder(name string, mutate ...func(*builder.Profile)) uuid.UUID {
	id := f.addUser(user.RoleBuilder, name)
	p := completeProfile(id)
	for _, m := range mutate {
		m(&p)
	}
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	f.store.profiles[id] = p
	return id
}

func (f *fixture) addOpening(t *testing.T, founderID uuid.UUID) opening.Opening {
	t.Helper()
	o, err := f.openings.CreateOpening(context.Background(), founderID, opening.CreateInput{
		Title:            "Founding engineer",
		RoleType:         "CTO",
		RequiredSkills:   []string{"Go", "PostgreSQL"},
		Equity:           opening.Range{Min: 2, Max: 5},
		HoursPerWeek:     40,
		RemotePreference: opening.RemoteOnly,
	})
	if err != nil {
		t.Fatalf("create opening: %v", err)
	}
	return o
}

// matchedConversation walks a builder and founder through interest,
// shortlist and conversation creation.
func (f *fixture) matchedConversation(t *testing.T) (founderID, builderID uuid.UUID, c conversation.Conversation) {
	t.Helper()
	ctx := context.Background()
	founderID = f.addUser(user.RoleFounder, "fiona")
	builderID = f.addBuilder("bob")
	o := f.addOpening(t, founderID)

	i, _, err := f.interests.ExpressInterest(ctx, builderID, o.ID, "")
	if err != nil {
		t.Fatalf("express interest: %v", err)
	}
	if _, _, err := f.interests.ShortlistBuilder(ctx, founderID, i.ID); err != nil {
		t.Fatalf("shortlist: %v", err)
	}
	c, _, err = f.conversations.CreateConversationFromMatch(ctx, founderID, i.ID)
	if err != nil {
		t.Fatalf("create conversation: %v", err)
	}
	return founderID, builderID, c
}
