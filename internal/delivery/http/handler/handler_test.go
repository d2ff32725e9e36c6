package handler

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cofound/internal/delivery/http/middleware"
	"cofound/internal/domain"
	"cofound/internal/domain/interest"
	"cofound/internal/domain/trial"
	"cofound/internal/domain/user"
	"cofound/internal/usecase"
)

type recordingSink struct {
	mu  sync.Mutex
	got domain.Outbox
}

func (s *recordingSink) Dispatch(_ context.Context, out domain.Outbox) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.got = append(s.got, out...)
}

func (s *recordingSink) events() domain.Outbox {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append(domain.Outbox(nil), s.got...)
}

// identity stands in for the JWT middleware.
func identity(c fiber.Ctx) error {
	if raw := c.Get("X-Test-User"); raw != "" {
		c.Locals(middleware.CtxUserIDKey, uuid.MustParse(raw))
		c.Locals(middleware.CtxRoleKey, user.Role(c.Get("X-Test-Role")))
	}
	return c.Next()
}

type routes interface{ RegisterRoutes(fiber.Router) }

func newTestApp(h routes) *fiber.App {
	app := fiber.New()
	app.Use(middleware.NewErrorMiddleware(nil).Middleware())
	app.Use(identity)
	h.RegisterRoutes(app)
	return app
}

type envelope struct {
	Status  int             `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func call(t *testing.T, app *fiber.App, method, path string, as uuid.UUID, role user.Role, body string) (int, envelope) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if as != uuid.Nil {
		req.Header.Set("X-Test-User", as.String())
		req.Header.Set("X-Test-Role", string(role))
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	return resp.StatusCode, env
}

func errorCode(t *testing.T, env envelope) string {
	t.Helper()
	var d struct {
		Code string `json:"code"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &d))
	return d.Code
}

type fakeInterests struct {
	usecase.InterestUsecase

	expressErr   error
	gotBuilder   uuid.UUID
	gotOpening   uuid.UUID
	gotNote      string
	gotStatus    *interest.Status
	listCalled   bool
	expressCalls int
	gotCaller    uuid.UUID
	gotRole      user.Role
}

func (f *fakeInterests) ExpressInterest(_ context.Context, builderID, openingID uuid.UUID, note string) (interest.Interest, domain.Outbox, error) {
	f.expressCalls++
	f.gotBuilder, f.gotOpening, f.gotNote = builderID, openingID, note
	if f.expressErr != nil {
		return interest.Interest{}, nil, f.expressErr
	}
	founder := uuid.New()
	var out domain.Outbox
	out.Add(domain.EventNewInterest, founder, domain.Actor{ID: builderID}, nil, time.Now())
	return interest.Interest{
		ID:        uuid.New(),
		BuilderID: builderID,
		OpeningID: openingID,
		FounderID: founder,
		Status:    interest.StatusInterested,
		Note:      note,
	}, out, nil
}

func (f *fakeInterests) CheckMutualMatch(_ context.Context, callerID uuid.UUID, role user.Role, founderID, builderID uuid.UUID) (bool, error) {
	f.gotCaller, f.gotRole = callerID, role
	if callerID != founderID && callerID != builderID {
		return false, domain.ErrNotMatchParty
	}
	return true, nil
}

func (f *fakeInterests) ListOpeningInterests(_ context.Context, _, _ uuid.UUID, status *interest.Status) ([]interest.Interest, error) {
	f.listCalled = true
	f.gotStatus = status
	return nil, nil
}

func TestInterestHandler_Express(t *testing.T) {
	uc := &fakeInterests{}
	sink := &recordingSink{}
	app := newTestApp(NewInterestHandler(uc, sink))
	builder, openingID := uuid.New(), uuid.New()

	status, env := call(t, app, http.MethodPost, "/openings/"+openingID.String()+"/interests",
		builder, user.RoleBuilder, `{"note":"keen"}`)

	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, builder, uc.gotBuilder)
	assert.Equal(t, openingID, uc.gotOpening)
	assert.Equal(t, "keen", uc.gotNote)

	var got struct {
		Status string `json:"status"`
		Note   string `json:"note"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &got))
	assert.Equal(t, "INTERESTED", got.Status)

	events := sink.events()
	require.Len(t, events, 1)
	assert.Equal(t, domain.EventNewInterest, events[0].Type)
}

func TestInterestHandler_ExpressDailyLimit(t *testing.T) {
	uc := &fakeInterests{expressErr: domain.ErrDailyLimitReached}
	sink := &recordingSink{}
	app := newTestApp(NewInterestHandler(uc, sink))

	status, env := call(t, app, http.MethodPost, "/openings/"+uuid.NewString()+"/interests",
		uuid.New(), user.RoleBuilder, "")

	assert.Equal(t, http.StatusTooManyRequests, status)
	assert.Equal(t, "DAILY_LIMIT_REACHED", errorCode(t, env))
	assert.Empty(t, sink.events())
}

func TestInterestHandler_Guards(t *testing.T) {
	uc := &fakeInterests{}
	app := newTestApp(NewInterestHandler(uc, nil))
	path := "/openings/" + uuid.NewString() + "/interests"

	status, env := call(t, app, http.MethodPost, path, uuid.New(), user.RoleFounder, "")
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "FORBIDDEN", errorCode(t, env))

	status, _ = call(t, app, http.MethodPost, "/openings/not-a-uuid/interests", uuid.New(), user.RoleBuilder, "")
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = call(t, app, http.MethodPost, path, uuid.New(), user.RoleBuilder, `{"note":`)
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = call(t, app, http.MethodPost, path, uuid.Nil, "", "")
	assert.Equal(t, http.StatusForbidden, status)

	assert.Zero(t, uc.expressCalls)
}

func TestInterestHandler_ListStatusFilter(t *testing.T) {
	uc := &fakeInterests{}
	app := newTestApp(NewInterestHandler(uc, nil))
	path := "/openings/" + uuid.NewString() + "/interests"
	founder := uuid.New()

	status, _ := call(t, app, http.MethodGet, path+"?status=shortlisted", founder, user.RoleFounder, "")
	require.Equal(t, http.StatusOK, status)
	require.NotNil(t, uc.gotStatus)
	assert.Equal(t, interest.StatusShortlisted, *uc.gotStatus)

	uc.listCalled = false
	status, _ = call(t, app, http.MethodGet, path+"?status=MATCHED", founder, user.RoleFounder, "")
	assert.Equal(t, http.StatusBadRequest, status)
	assert.False(t, uc.listCalled)
}

func TestInterestHandler_CheckMutualMatchScopedToCaller(t *testing.T) {
	uc := &fakeInterests{}
	app := newTestApp(NewInterestHandler(uc, nil))
	founder, b := uuid.New(), uuid.New()
	path := "/matches/check?founder_id=" + founder.String() + "&builder_id=" + b.String()

	status, env := call(t, app, http.MethodGet, path, b, user.RoleBuilder, "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, b, uc.gotCaller)
	assert.Equal(t, user.RoleBuilder, uc.gotRole)
	var got struct {
		IsMutualMatch bool `json:"is_mutual_match"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &got))
	assert.True(t, got.IsMutualMatch)

	status, env = call(t, app, http.MethodGet, path, uuid.New(), user.RoleBuilder, "")
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "FORBIDDEN", errorCode(t, env))

	uc.gotCaller = uuid.Nil
	status, _ = call(t, app, http.MethodGet, path, founder, user.RoleAdmin, "")
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, uuid.Nil, uc.gotCaller)
}

type fakeTrials struct {
	usecase.TrialUsecase

	trial       trial.Trial
	gotFeedback *trial.Feedback
	gotDays     int
}

func (f *fakeTrials) SubmitFeedback(_ context.Context, _, _ uuid.UUID, fb trial.Feedback) (trial.Trial, domain.Outbox, error) {
	f.gotFeedback = &fb
	return f.trial, nil, nil
}

func (f *fakeTrials) GetTrial(context.Context, uuid.UUID, uuid.UUID) (trial.Trial, error) {
	return f.trial, nil
}

func (f *fakeTrials) ListTrialsEndingWithin(_ context.Context, days int) ([]trial.Trial, error) {
	f.gotDays = days
	return []trial.Trial{f.trial}, nil
}

func TestTrialHandler_FeedbackRequiresWouldContinue(t *testing.T) {
	uc := &fakeTrials{}
	app := newTestApp(NewTrialHandler(uc, nil))
	path := "/trials/" + uuid.NewString() + "/feedback"

	status, _ := call(t, app, http.MethodPost, path, uuid.New(), user.RoleBuilder,
		`{"communication":4,"reliability":5,"skill_match":3}`)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Nil(t, uc.gotFeedback)

	status, _ = call(t, app, http.MethodPost, path, uuid.New(), user.RoleBuilder,
		`{"communication":4,"reliability":5,"skill_match":3,"would_continue":false,"private_notes":"n"}`)
	require.Equal(t, http.StatusOK, status)
	require.NotNil(t, uc.gotFeedback)
	assert.False(t, uc.gotFeedback.WouldContinue)
	assert.Equal(t, 5, uc.gotFeedback.Reliability)
	assert.Equal(t, "n", uc.gotFeedback.PrivateNotes)
}

func TestTrialHandler_HidesCounterpartFeedbackUntilResolved(t *testing.T) {
	founder, builder := uuid.New(), uuid.New()
	uc := &fakeTrials{trial: trial.Trial{
		ID:              uuid.New(),
		FounderID:       founder,
		BuilderID:       builder,
		Status:          trial.StatusCompleted,
		Outcome:         trial.OutcomePending,
		FounderFeedback: &trial.Feedback{Communication: 5, Reliability: 5, SkillMatch: 5, WouldContinue: true, PrivateNotes: "secret"},
	}}
	app := newTestApp(NewTrialHandler(uc, nil))
	path := "/trials/" + uc.trial.ID.String()

	type view struct {
		FounderFeedback map[string]any `json:"founder_feedback"`
	}

	_, env := call(t, app, http.MethodGet, path, builder, user.RoleBuilder, "")
	var v view
	require.NoError(t, json.Unmarshal(env.Data, &v))
	assert.Nil(t, v.FounderFeedback)

	_, env = call(t, app, http.MethodGet, path, founder, user.RoleFounder, "")
	v = view{}
	require.NoError(t, json.Unmarshal(env.Data, &v))
	require.NotNil(t, v.FounderFeedback)
	assert.NotContains(t, v.FounderFeedback, "private_notes")

	uc.trial.Outcome = trial.OutcomeContinue
	_, env = call(t, app, http.MethodGet, path, builder, user.RoleBuilder, "")
	v = view{}
	require.NoError(t, json.Unmarshal(env.Data, &v))
	assert.NotNil(t, v.FounderFeedback)
}

func TestAdminHandler_TrialsEndingDays(t *testing.T) {
	uc := &fakeTrials{trial: trial.Trial{ID: uuid.New()}}
	app := newTestApp(NewAdminHandler(uc, nil, nil))
	admin := uuid.New()

	status, _ := call(t, app, http.MethodGet, "/trials/ending", admin, user.RoleAdmin, "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, 3, uc.gotDays)

	status, _ = call(t, app, http.MethodGet, "/trials/ending?days=10", admin, user.RoleAdmin, "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, 10, uc.gotDays)

	status, _ = call(t, app, http.MethodGet, "/trials/ending?days=soon", admin, user.RoleAdmin, "")
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestHealthHandler(t *testing.T) {
	failing := false
	h := NewHealthHandler(map[string]Check{
		"postgres": func(context.Context) error {
			if failing {
				return context.DeadlineExceeded
			}
			return nil
		},
	})
	app := newTestApp(h)

	status, _ := call(t, app, http.MethodGet, "/health", uuid.Nil, "", "")
	assert.Equal(t, http.StatusOK, status)

	failing = true
	status, env := call(t, app, http.MethodGet, "/health", uuid.Nil, "", "")
	assert.Equal(t, http.StatusServiceUnavailable, status)
	assert.Equal(t, "degraded", env.Message)
}
