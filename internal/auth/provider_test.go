package auth

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/muurk/skylog/internal/config"
	"github.com/muurk/skylog/internal/errreport"
	"github.com/muurk/skylog/internal/store"
)

type memState struct {
	mu    sync.Mutex
	state config.State
}

func (m *memState) Load() (*config.State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.state
	if s.PendingSignIn != nil {
		p := *s.PendingSignIn
		s.PendingSignIn = &p
	}
	return &s, nil
}

func (m *memState) Save(s *config.State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = *s
	return nil
}

type captureMailer struct {
	mu   sync.Mutex
	sent []Message
	err  error
}

func (c *captureMailer) Send(_ context.Context, msg Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	c.sent = append(c.sent, msg)
	return nil
}

func (c *captureMailer) last(t *testing.T) Message {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.sent) == 0 {
		t.Fatal("no mail sent")
	}
	return c.sent[len(c.sent)-1]
}

// link returns the most recent link, or "" if nothing was sent.
func (c *captureMailer) link() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.sent) == 0 {
		return ""
	}
	return c.sent[len(c.sent)-1].Link
}

type fixture struct {
	provider *Provider
	store    *store.Store
	state    *memState
	mailer   *captureMailer
	now      time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	st, err := store.Open(store.DriverSQLite, filepath.Join(t.TempDir(), "skylog.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { st.Close() })

	f := &fixture{
		store:  st,
		state:  &memState{},
		mailer: &captureMailer{},
		now:    time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC),
	}
	f.provider = f.newProvider(t)
	return f
}

func (f *fixture) newProvider(t *testing.T) *Provider {
	t.Helper()
	p, err := NewProvider(f.store, f.state, f.mailer,
		WithClock(func() time.Time { return f.now }),
		WithSettings(config.AuthSettings{LinkBaseURL: "https://skylog.example.com/finish", SenderName: "SkyLog"}),
	)
	if err != nil {
		t.Fatalf("NewProvider() error = %v", err)
	}
	t.Cleanup(p.Close)
	return p
}

func TestNewProviderGeneratesKeyOnce(t *testing.T) {
	f := newFixture(t)
	first := f.state.state.SigningKey
	if len(first) != 64 {
		t.Fatalf("SigningKey length = %d, want 64 hex chars", len(first))
	}
	f.newProvider(t)
	if f.state.state.SigningKey != first {
		t.Error("signing key regenerated on second provider")
	}
}

func TestSendMagicLinkCachesPending(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if err := f.provider.SendMagicLink(ctx, " Pat@Example.com ", "Pat", "Lee"); err != nil {
		t.Fatalf("SendMagicLink() error = %v", err)
	}

	msg := f.mailer.last(t)
	if msg.To != "pat@example.com" {
		t.Errorf("mail To = %q", msg.To)
	}
	if !strings.HasPrefix(msg.Link, "https://skylog.example.com/finish?token=") {
		t.Errorf("mail Link = %q", msg.Link)
	}

	pending := f.state.state.PendingSignIn
	if pending == nil || pending.Email != "pat@example.com" || pending.FirstName != "Pat" || pending.LastName != "Lee" {
		t.Errorf("PendingSignIn = %+v", pending)
	}
}

func TestSendMagicLinkInvalidEmail(t *testing.T) {
	f := newFixture(t)
	err := f.provider.SendMagicLink(context.Background(), "not-an-email", "", "")
	if !errors.Is(err, ErrInvalidEmail) {
		t.Errorf("SendMagicLink() error = %v, want ErrInvalidEmail", err)
	}
	if f.state.state.PendingSignIn != nil {
		t.Error("pending sign-in cached for invalid email")
	}
}

func TestSendMagicLinkMailerFailureKeepsNoPending(t *testing.T) {
	f := newFixture(t)
	f.mailer.err = errors.New("smtp down")
	if err := f.provider.SendMagicLink(context.Background(), "pat@example.com", "Pat", ""); err == nil {
		t.Fatal("SendMagicLink() expected error")
	}
	if f.state.state.PendingSignIn != nil {
		t.Error("pending sign-in cached although delivery failed")
	}
}

func TestCompleteMagicLink(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	var seen []*User
	sub := f.provider.Subscribe(func(u *User) { seen = append(seen, u) })
	defer sub.Unsubscribe()

	if err := f.provider.SendMagicLink(ctx, "pat@example.com", "Pat", "Lee"); err != nil {
		t.Fatal(err)
	}
	f.now = f.now.Add(10 * time.Minute)

	user, err := f.provider.CompleteMagicLink(ctx, f.mailer.last(t).Link)
	if err != nil {
		t.Fatalf("CompleteMagicLink() error = %v", err)
	}

	if user.UID != UIDFor("pat@example.com") || user.DisplayName() != "Pat Lee" {
		t.Errorf("user = %+v", user)
	}
	if f.state.state.PendingSignIn != nil {
		t.Error("pending sign-in not cleared")
	}
	if f.state.state.SessionToken == "" {
		t.Error("session token not saved")
	}
	if got, ok := f.provider.CurrentUser(); !ok || got.Email != "pat@example.com" {
		t.Errorf("CurrentUser() = %+v, %v", got, ok)
	}
	if f.provider.DisplayName() != "Pat Lee" {
		t.Errorf("DisplayName() = %q", f.provider.DisplayName())
	}

	if len(seen) != 2 || seen[0] != nil || seen[1] == nil || seen[1].Email != "pat@example.com" {
		t.Errorf("subscriber saw %v", seen)
	}

	doc, err := f.store.GetRecord(ctx, UsersCollection, user.UID)
	if err != nil {
		t.Fatal(err)
	}
	if doc.Data["createdAt"] != "2024-06-01T10:10:00Z" || doc.Data["lastLogin"] != "2024-06-01T10:10:00Z" {
		t.Errorf("user doc = %v", doc.Data)
	}
}

func TestCompleteMagicLinkAcceptsBareToken(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_ = f.provider.SendMagicLink(ctx, "pat@example.com", "Pat", "")

	link := f.mailer.last(t).Link
	token := link[strings.Index(link, "token=")+len("token="):]
	if _, err := f.provider.CompleteMagicLink(ctx, token); err != nil {
		t.Errorf("CompleteMagicLink(bare token) error = %v", err)
	}
}

func TestCompleteMagicLinkWithoutPending(t *testing.T) {
	f := newFixture(t)
	_, err := f.provider.CompleteMagicLink(context.Background(), "https://skylog.example.com/finish?token=x")
	if !errors.Is(err, ErrSessionExpired) {
		t.Fatalf("CompleteMagicLink() error = %v, want ErrSessionExpired", err)
	}
	if got := errreport.UserMessage(err); got != errreport.MsgSessionExpired {
		t.Errorf("UserMessage() = %q", got)
	}
}

func TestCompleteMagicLinkRejects(t *testing.T) {
	tests := []struct {
		name  string
		setup func(f *fixture) string
	}{
		{
			name: "expired",
			setup: func(f *fixture) string {
				_ = f.provider.SendMagicLink(context.Background(), "pat@example.com", "", "")
				f.now = f.now.Add(LinkTTL + time.Minute)
				return f.mailer.link()
			},
		},
		{
			name: "tampered",
			setup: func(f *fixture) string {
				_ = f.provider.SendMagicLink(context.Background(), "pat@example.com", "", "")
				return f.mailer.link() + "x"
			},
		},
		{
			name: "other address",
			setup: func(f *fixture) string {
				_ = f.provider.SendMagicLink(context.Background(), "pat@example.com", "", "")
				link := f.mailer.link()
				_ = f.provider.SendMagicLink(context.Background(), "sam@example.com", "", "")
				return link
			},
		},
		{
			name: "session token",
			setup: func(f *fixture) string {
				_ = f.provider.SendMagicLink(context.Background(), "pat@example.com", "", "")
				tok, _ := f.provider.IssueSession(User{UID: "u1", Email: "pat@example.com"})
				return tok
			},
		},
		{
			name: "garbage",
			setup: func(f *fixture) string {
				_ = f.provider.SendMagicLink(context.Background(), "pat@example.com", "", "")
				return "not a link"
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			link := tt.setup(f)
			_, err := f.provider.CompleteMagicLink(context.Background(), link)
			if !errors.Is(err, ErrInvalidLink) {
				t.Errorf("CompleteMagicLink() error = %v, want ErrInvalidLink", err)
			}
			if _, ok := f.provider.CurrentUser(); ok {
				t.Error("user signed in after rejected link")
			}
		})
	}
}

func TestSecondSignInPreservesCreatedAt(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_ = f.provider.SendMagicLink(ctx, "pat@example.com", "Pat", "")
	first, err := f.provider.CompleteMagicLink(ctx, f.mailer.last(t).Link)
	if err != nil {
		t.Fatal(err)
	}

	f.now = f.now.Add(48 * time.Hour)
	_ = f.provider.SendMagicLink(ctx, "pat@example.com", "Patricia", "Lee")
	second, err := f.provider.CompleteMagicLink(ctx, f.mailer.last(t).Link)
	if err != nil {
		t.Fatal(err)
	}

	if !second.CreatedAt.Equal(first.CreatedAt) {
		t.Errorf("CreatedAt = %v, want %v", second.CreatedAt, first.CreatedAt)
	}
	if !second.LastLogin.After(first.LastLogin) {
		t.Errorf("LastLogin not refreshed: %v", second.LastLogin)
	}
	if second.FirstName != "Patricia" {
		t.Errorf("FirstName = %q", second.FirstName)
	}
}

func TestRestoreAndSignOut(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_ = f.provider.SendMagicLink(ctx, "pat@example.com", "Pat", "Lee")
	if _, err := f.provider.CompleteMagicLink(ctx, f.mailer.last(t).Link); err != nil {
		t.Fatal(err)
	}

	next := f.newProvider(t)
	if _, ok := next.CurrentUser(); ok {
		t.Fatal("new provider signed in before Restore")
	}
	user, err := next.Restore(ctx)
	if err != nil {
		t.Fatalf("Restore() error = %v", err)
	}
	if user == nil || user.Email != "pat@example.com" || user.LastName != "Lee" {
		t.Fatalf("Restore() = %+v", user)
	}

	if err := next.SignOut(); err != nil {
		t.Fatal(err)
	}
	if _, ok := next.CurrentUser(); ok {
		t.Error("CurrentUser() after SignOut")
	}
	if again, err := next.Restore(ctx); err != nil || again != nil {
		t.Errorf("Restore() after SignOut = %v, %v", again, err)
	}
}

func TestRestoreExpiredSessionClearsToken(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_ = f.provider.SendMagicLink(ctx, "pat@example.com", "Pat", "")
	_, _ = f.provider.CompleteMagicLink(ctx, f.mailer.last(t).Link)

	f.now = f.now.Add(SessionTTL + time.Hour)
	user, err := f.newProvider(t).Restore(ctx)
	if err != nil || user != nil {
		t.Errorf("Restore() = %v, %v; want nil, nil", user, err)
	}
	if f.state.state.SessionToken != "" {
		t.Error("expired session token kept")
	}
}

func TestSessionClaims(t *testing.T) {
	f := newFixture(t)
	tok, err := f.provider.IssueSession(User{UID: "u1", Email: "pat@example.com"})
	if err != nil {
		t.Fatal(err)
	}
	claims, err := f.provider.SessionClaims(tok)
	if err != nil {
		t.Fatalf("SessionClaims() error = %v", err)
	}
	if claims.Subject != "u1" || claims.Email != "pat@example.com" {
		t.Errorf("claims = %+v", claims)
	}

	if _, err := f.provider.SessionClaims("garbage"); !errors.Is(err, ErrInvalidSession) {
		t.Errorf("SessionClaims(garbage) error = %v", err)
	}
}

func TestDisplayName(t *testing.T) {
	tests := []struct {
		first, last, want string
	}{
		{"Pat", "Lee", "Pat Lee"},
		{"Pat", "", "Pat"},
		{" Pat ", " ", "Pat"},
		{"", "", ""},
	}
	for _, tt := range tests {
		if got := (User{FirstName: tt.first, LastName: tt.last}).DisplayName(); got != tt.want {
			t.Errorf("DisplayName(%q, %q) = %q, want %q", tt.first, tt.last, got, tt.want)
		}
	}
}

func TestUIDForIsStable(t *testing.T) {
	if UIDFor("Pat@Example.com") != UIDFor(" pat@example.com") {
		t.Error("UIDFor should ignore case and surrounding space")
	}
	if UIDFor("pat@example.com") == UIDFor("sam@example.com") {
		t.Error("UIDFor collision")
	}
}
