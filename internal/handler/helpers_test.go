package handler_test

import (
	"context"
	"log/slog"
	"os"
	"testing"

	"github.com/LuciuSVN/webcompat.com/internal/apperror"
	"github.com/LuciuSVN/webcompat.com/internal/handler"
	"github.com/LuciuSVN/webcompat.com/internal/model"
	"github.com/LuciuSVN/webcompat.com/internal/workflow"
)

// Shared fakes for the handler tests. The handlers talk to a real Workflow
// wired with these, so the tests cover the handler → workflow seam as well.

type memSessions struct {
	saved map[string]*model.Session
}

func newMemSessions() *memSessions {
	return &memSessions{saved: map[string]*model.Session{}}
}

func (m *memSessions) Get(ctx context.Context, token string) (*model.Session, error) {
	s, ok := m.saved[token]
	if !ok {
		return nil, apperror.NotFound("session", token)
	}
	return s, nil
}

func (m *memSessions) Create(ctx context.Context, sess *model.Session) error {
	m.saved[sess.Token] = sess
	return nil
}

func (m *memSessions) Save(ctx context.Context, sess *model.Session) error {
	m.saved[sess.Token] = sess
	return nil
}

type memUsers struct {
	byToken map[string]*model.User
	byID    map[string]*model.User
	creates int
}

func newMemUsers() *memUsers {
	return &memUsers{byToken: map[string]*model.User{}, byID: map[string]*model.User{}}
}

func (m *memUsers) LookupOrCreateByToken(ctx context.Context, token string) (*model.User, error) {
	if u, ok := m.byToken[token]; ok {
		return u, nil
	}
	m.creates++
	u := &model.User{ID: "user-" + token, AccessToken: token}
	m.byToken[token] = u
	m.byID[u.ID] = u
	return u, nil
}

func (m *memUsers) GetByID(ctx context.Context, id string) (*model.User, error) {
	u, ok := m.byID[id]
	if !ok {
		return nil, apperror.NotFound("user", id)
	}
	return u, nil
}

type mockClient struct {
	userCalls int
	anonCalls int
	lastToken string
	returnNum int
	returnErr error
}

func (m *mockClient) SubmitAsUser(ctx context.Context, token string, report *model.Report) (int, error) {
	m.userCalls++
	m.lastToken = token
	return m.returnNum, m.returnErr
}

func (m *mockClient) SubmitAnonymous(ctx context.Context, report *model.Report) (int, error) {
	m.anonCalls++
	return m.returnNum, m.returnErr
}

// fixture bundles everything a handler test needs.
type fixture struct {
	users    *memUsers
	sessions *memSessions
	client   *mockClient
	flow     *workflow.Workflow
	renderer *handler.Renderer
	logger   *slog.Logger
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

	renderer, err := handler.NewRenderer(logger)
	if err != nil {
		t.Fatalf("creating renderer: %v", err)
	}

	f := &fixture{
		users:    newMemUsers(),
		sessions: newMemSessions(),
		client:   &mockClient{returnNum: 100},
		renderer: renderer,
		logger:   logger,
	}
	f.flow = workflow.New(f.users, f.sessions, f.client, logger)
	return f
}

// newSession registers a session in the fake store and returns it.
func (f *fixture) newSession(t *testing.T, token string) *model.Session {
	t.Helper()
	sess := &model.Session{Token: token}
	if err := f.sessions.Create(context.Background(), sess); err != nil {
		t.Fatalf("creating session: %v", err)
	}
	return sess
}
