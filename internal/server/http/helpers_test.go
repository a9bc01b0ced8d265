package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/and161185/podsub/internal/errs"
	"github.com/and161185/podsub/internal/model"
	"github.com/and161185/podsub/internal/service"
	"github.com/and161185/podsub/internal/token"
)

type fakeResolver struct {
	users map[uuid.UUID]model.User
	err   error
}

func (f *fakeResolver) GetByStableID(_ context.Context, id uuid.UUID) (*model.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	u, ok := f.users[id]
	if !ok {
		return nil, errs.ErrUserNotFound
	}
	return &u, nil
}

type fakeAuth struct {
	register func(username, password string) (uuid.UUID, error)
	login    func(username, password, remote string) (model.Tokens, model.User, error)
	refresh  func(username, raw string) (model.Tokens, error)
	logout   func(username, raw string) error
}

func (f *fakeAuth) Register(_ context.Context, u, p string) (uuid.UUID, error) { return f.register(u, p) }
func (f *fakeAuth) Login(_ context.Context, u, p, remote string) (model.Tokens, model.User, error) {
	return f.login(u, p, remote)
}
func (f *fakeAuth) Refresh(_ context.Context, u, raw string) (model.Tokens, error) {
	return f.refresh(u, raw)
}
func (f *fakeAuth) Logout(_ context.Context, u, raw string) error { return f.logout(u, raw) }

var _ AuthService = (*fakeAuth)(nil)
var _ SubscriptionService = (*service.SubscriptionService)(nil)
var _ UserService = (*service.UserService)(nil)
var _ AuthService = (*service.AuthService)(nil)

type fakePinger struct{ err error }

func (p fakePinger) Ping(context.Context) error { return p.err }

type testEnv struct {
	srv      *httptest.Server
	resolver *fakeResolver
	auth     *fakeAuth
	subs     *memSubs
	issuer   *token.AccessIssuer
	user     model.User
	admin    model.User
}

func newEnv(t *testing.T) *testEnv {
	t.Helper()
	log := zaptest.NewLogger(t)

	codec, err := token.NewCodec("http-test-secret")
	require.NoError(t, err)

	user := model.User{ID: 1, StableID: uuid.Must(uuid.NewV4()), Username: "alice", Roles: []string{model.RoleUser}}
	admin := model.User{ID: 2, StableID: uuid.Must(uuid.NewV4()), Username: "root", Roles: []string{model.RoleAdmin, model.RoleUser}}
	resolver := &fakeResolver{users: map[uuid.UUID]model.User{user.StableID: user, admin.StableID: admin}}

	subs := &memSubs{}
	users := service.NewUserService(&memUsers{r: resolver}, log)
	auth := &fakeAuth{}

	h := NewHandlers(auth, service.NewSubscriptionService(subs, log), users, fakePinger{}, log)
	gate := NewGate(codec, resolver, []string{"/api/auth/", "/healthz", "/docs"}, log)
	srv := httptest.NewServer(NewRouter(h, gate, log))
	t.Cleanup(srv.Close)

	return &testEnv{
		srv:      srv,
		resolver: resolver,
		auth:     auth,
		subs:     subs,
		issuer:   token.NewAccessIssuer(codec, 15*time.Minute),
		user:     user,
		admin:    admin,
	}
}

func (e *testEnv) tokenFor(t *testing.T, u model.User) string {
	t.Helper()
	tok, _, err := e.issuer.Issue(u)
	require.NoError(t, err)
	return tok
}

func (e *testEnv) do(t *testing.T, method, path, bearer string, body any) (*http.Response, []byte) {
	t.Helper()
	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rdr = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, e.srv.URL+path, rdr)
	require.NoError(t, err)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	resp, err := e.srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	out, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, out
}

func decodeErr(t *testing.T, b []byte) errorBody {
	t.Helper()
	var eb errorBody
	require.NoError(t, json.Unmarshal(b, &eb), string(b))
	return eb
}

// memUsers adapts fakeResolver to the user repository used by the user service.
type memUsers struct{ r *fakeResolver }

func (m *memUsers) Create(context.Context, *model.User) error { return nil }
func (m *memUsers) GetByStableID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	return m.r.GetByStableID(ctx, id)
}
func (m *memUsers) GetByUsername(context.Context, string) (*model.User, error) {
	return nil, errs.ErrUserNotFound
}
func (m *memUsers) SetRoles(_ context.Context, id uuid.UUID, roles []string) error {
	u, ok := m.r.users[id]
	if !ok {
		return errs.ErrUserNotFound
	}
	u.Roles = roles
	m.r.users[id] = u
	return nil
}

type memSubs struct{ rows []model.Subscription }

func (m *memSubs) Create(_ context.Context, s *model.Subscription) error {
	for _, r := range m.rows {
		if r.UserID == s.UserID && r.FeedUUID == s.FeedUUID {
			return errs.ErrAlreadyExists
		}
	}
	s.ID = int64(len(m.rows) + 1)
	s.CreatedAt = time.Now().UTC()
	m.rows = append(m.rows, *s)
	return nil
}

func (m *memSubs) List(_ context.Context, userID int64, limit, offset int) ([]model.Subscription, error) {
	out := []model.Subscription{}
	for _, r := range m.rows {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	if offset >= len(out) {
		return []model.Subscription{}, nil
	}
	out = out[offset:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memSubs) Delete(_ context.Context, userID int64, id uuid.UUID) error {
	for i, r := range m.rows {
		if r.UserID == userID && r.FeedUUID == id {
			m.rows = append(m.rows[:i], m.rows[i+1:]...)
			return nil
		}
	}
	return errs.ErrNotFound
}
