package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net/mail"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/muurk/skylog/internal/config"
	"github.com/muurk/skylog/internal/feed"
	"github.com/muurk/skylog/internal/logging"
	"github.com/muurk/skylog/internal/store"
)

const (
	// UsersCollection holds one document per user, keyed by UID.
	UsersCollection = "users"

	// LinkTTL bounds how long a magic link stays valid.
	LinkTTL = time.Hour
	// SessionTTL bounds how long a session token stays valid.
	SessionTTL = 30 * 24 * time.Hour

	purposeSignIn  = "sign-in"
	purposeSession = "session"
	issuer         = "skylog"
)

// uidNamespace scopes the name-based UUIDs derived from email addresses.
var uidNamespace = uuid.MustParse("6f1d5a3c-2b7e-4c1a-9e0f-5d8b7a6c4e21")

// StateStore persists the pending sign-in, the session token and the
// signing key. *config.StateFile satisfies it.
type StateStore interface {
	Load() (*config.State, error)
	Save(*config.State) error
}

// User is the signed-in identity.
type User struct {
	UID       string    `json:"uid"`
	Email     string    `json:"email"`
	FirstName string    `json:"firstName,omitempty"`
	LastName  string    `json:"lastName,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	LastLogin time.Time `json:"lastLogin"`
}

// DisplayName is "First Last", or only the first name when there is no
// last name.
func (u User) DisplayName() string {
	first := strings.TrimSpace(u.FirstName)
	last := strings.TrimSpace(u.LastName)
	if last == "" {
		return first
	}
	return strings.TrimSpace(first + " " + last)
}

// Claims are carried by both link and session tokens.
type Claims struct {
	Purpose   string `json:"purpose"`
	Email     string `json:"email"`
	FirstName string `json:"first,omitempty"`
	LastName  string `json:"last,omitempty"`
	jwt.RegisteredClaims
}

// Provider implements magic-link sign-in over the document store.
type Provider struct {
	users    *store.Store
	state    StateStore
	mailer   Mailer
	settings config.AuthSettings
	key      []byte
	now      func() time.Time

	mu      sync.Mutex
	current *User
	hub     *feed.Hub[*User]
}

// Option configures a Provider.
type Option func(*Provider)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(p *Provider) { p.now = now }
}

// WithSettings sets the link base URL and sender details.
func WithSettings(s config.AuthSettings) Option {
	return func(p *Provider) { p.settings = s }
}

// NewProvider loads or creates the signing key from state. No user is
// signed in until Restore or CompleteMagicLink succeeds.
func NewProvider(users *store.Store, state StateStore, mailer Mailer, opts ...Option) (*Provider, error) {
	p := &Provider{
		users:    users,
		state:    state,
		mailer:   mailer,
		settings: config.AuthSettings{LinkBaseURL: "skylog://sign-in", SenderName: "SkyLog"},
		now:      time.Now,
		hub:      feed.NewHub[*User](true),
	}
	for _, opt := range opts {
		opt(p)
	}

	st, err := state.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load auth state: %w", err)
	}
	if st.SigningKey == "" {
		buf := make([]byte, 32)
		if _, err := rand.Read(buf); err != nil {
			return nil, fmt.Errorf("failed to generate signing key: %w", err)
		}
		st.SigningKey = hex.EncodeToString(buf)
		if err := state.Save(st); err != nil {
			return nil, fmt.Errorf("failed to save signing key: %w", err)
		}
	}
	p.key, err = hex.DecodeString(st.SigningKey)
	if err != nil {
		return nil, fmt.Errorf("invalid signing key in state: %w", err)
	}

	p.hub.Publish(nil)
	return p, nil
}

// Close detaches every current-user subscriber.
func (p *Provider) Close() {
	p.hub.Close()
}

// UIDFor derives the stable user id for an email address.
func UIDFor(email string) string {
	return uuid.NewSHA1(uidNamespace, []byte(normalizeEmail(email))).String()
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// SendMagicLink mails a one-time sign-in link and caches the pending
// sign-in so the link can be completed on this machine.
func (p *Provider) SendMagicLink(ctx context.Context, email, firstName, lastName string) error {
	addr, err := mail.ParseAddress(strings.TrimSpace(email))
	if err != nil {
		return ErrInvalidEmail
	}
	email = normalizeEmail(addr.Address)
	now := p.now()

	token, err := p.sign(Claims{
		Purpose:   purposeSignIn,
		Email:     email,
		FirstName: strings.TrimSpace(firstName),
		LastName:  strings.TrimSpace(lastName),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   email,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(LinkTTL)),
		},
	})
	if err != nil {
		return err
	}

	link, err := p.linkFor(token)
	if err != nil {
		return err
	}

	if err := p.mailer.Send(ctx, Message{
		To:      email,
		From:    formatSender(p.settings),
		Subject: "Sign in to SkyLog",
		Link:    link,
		Support: p.settings.SupportEmail,
	}); err != nil {
		return fmt.Errorf("failed to deliver sign-in link: %w", err)
	}

	st, err := p.state.Load()
	if err != nil {
		return fmt.Errorf("failed to load auth state: %w", err)
	}
	st.PendingSignIn = &config.PendingSignIn{
		Email:       email,
		FirstName:   strings.TrimSpace(firstName),
		LastName:    strings.TrimSpace(lastName),
		RequestedAt: now,
	}
	if err := p.state.Save(st); err != nil {
		return fmt.Errorf("failed to save pending sign-in: %w", err)
	}

	logging.LogSignIn("link_sent", email)
	return nil
}

// CompleteMagicLink finishes a sign-in started on this machine. link may
// be the full URL or the bare token.
func (p *Provider) CompleteMagicLink(ctx context.Context, link string) (User, error) {
	st, err := p.state.Load()
	if err != nil {
		return User{}, fmt.Errorf("failed to load auth state: %w", err)
	}
	pending := st.PendingSignIn
	if pending == nil || pending.Email == "" {
		return User{}, ErrSessionExpired
	}

	claims, err := p.parse(extractToken(link), purposeSignIn)
	if err != nil {
		logging.Debug("Rejected sign-in link", zap.Error(err))
		return User{}, ErrInvalidLink
	}
	if normalizeEmail(claims.Email) != normalizeEmail(pending.Email) {
		return User{}, ErrInvalidLink
	}

	first, last := pending.FirstName, pending.LastName
	if first == "" {
		first, last = claims.FirstName, claims.LastName
	}

	user, err := p.upsertUser(ctx, pending.Email, first, last)
	if err != nil {
		return User{}, err
	}

	session, err := p.issueSession(user)
	if err != nil {
		return User{}, err
	}

	st.PendingSignIn = nil
	st.SessionToken = session
	if err := p.state.Save(st); err != nil {
		return User{}, fmt.Errorf("failed to save session: %w", err)
	}

	logging.LogSignIn("signed_in", user.Email)
	p.setCurrent(&user)
	return user, nil
}

// upsertUser creates or refreshes the user document. createdAt is written
// only on first sign-in; lastLogin on every sign-in.
func (p *Provider) upsertUser(ctx context.Context, email, first, last string) (User, error) {
	uid := UIDFor(email)
	now := p.now().UTC()

	user := User{UID: uid, Email: normalizeEmail(email), FirstName: first, LastName: last, CreatedAt: now, LastLogin: now}
	data := map[string]any{
		"email":     user.Email,
		"firstName": first,
		"lastName":  last,
		"lastLogin": now.Format(time.RFC3339),
	}

	existing, err := p.users.GetRecord(ctx, UsersCollection, uid)
	switch {
	case errors.Is(err, store.ErrNotFound):
		data["createdAt"] = now.Format(time.RFC3339)
	case err != nil:
		return User{}, fmt.Errorf("failed to read user: %w", err)
	default:
		if created, ok := existing.Data["createdAt"].(string); ok {
			if t, err := time.Parse(time.RFC3339, created); err == nil {
				user.CreatedAt = t
			}
		}
	}

	if err := p.users.SetRecord(ctx, UsersCollection, uid, uid, data, true); err != nil {
		return User{}, fmt.Errorf("failed to save user: %w", err)
	}
	return user, nil
}

func (p *Provider) issueSession(user User) (string, error) {
	now := p.now()
	return p.sign(Claims{
		Purpose:   purposeSession,
		Email:     user.Email,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   user.UID,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(SessionTTL)),
		},
	})
}

// IssueSession signs a session token for user. The HTTP API hands it to
// clients that completed a sign-in.
func (p *Provider) IssueSession(user User) (string, error) {
	return p.issueSession(user)
}

// SessionClaims validates a session token.
func (p *Provider) SessionClaims(token string) (*Claims, error) {
	claims, err := p.parse(token, purposeSession)
	if err != nil {
		return nil, ErrInvalidSession
	}
	return claims, nil
}

// Restore resumes the session saved in state. It returns nil without
// error when there is none or it has expired.
func (p *Provider) Restore(ctx context.Context) (*User, error) {
	st, err := p.state.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load auth state: %w", err)
	}
	if st.SessionToken == "" {
		return nil, nil
	}

	claims, err := p.SessionClaims(st.SessionToken)
	if err != nil {
		logging.Info("Saved session is no longer valid")
		st.SessionToken = ""
		if err := p.state.Save(st); err != nil {
			return nil, fmt.Errorf("failed to clear session: %w", err)
		}
		return nil, nil
	}

	user, err := p.loadUser(ctx, claims.Subject)
	if err != nil {
		return nil, err
	}
	p.setCurrent(&user)
	return &user, nil
}

func (p *Provider) loadUser(ctx context.Context, uid string) (User, error) {
	doc, err := p.users.GetRecord(ctx, UsersCollection, uid)
	if err != nil {
		return User{}, fmt.Errorf("failed to load user %s: %w", uid, err)
	}
	user := User{UID: uid}
	user.Email, _ = doc.Data["email"].(string)
	user.FirstName, _ = doc.Data["firstName"].(string)
	user.LastName, _ = doc.Data["lastName"].(string)
	if s, ok := doc.Data["createdAt"].(string); ok {
		user.CreatedAt, _ = time.Parse(time.RFC3339, s)
	}
	if s, ok := doc.Data["lastLogin"].(string); ok {
		user.LastLogin, _ = time.Parse(time.RFC3339, s)
	}
	return user, nil
}

// SignOut forgets the saved session.
func (p *Provider) SignOut() error {
	st, err := p.state.Load()
	if err != nil {
		return fmt.Errorf("failed to load auth state: %w", err)
	}
	st.SessionToken = ""
	if err := p.state.Save(st); err != nil {
		return fmt.Errorf("failed to save auth state: %w", err)
	}

	p.mu.Lock()
	was := p.current
	p.mu.Unlock()
	if was != nil {
		logging.LogSignIn("signed_out", was.Email)
	}
	p.setCurrent(nil)
	return nil
}

// CurrentUser returns the signed-in user, if any.
func (p *Provider) CurrentUser() (User, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.current == nil {
		return User{}, false
	}
	return *p.current, true
}

// DisplayName returns the current user's display name, or "".
func (p *Provider) DisplayName() string {
	u, ok := p.CurrentUser()
	if !ok {
		return ""
	}
	return u.DisplayName()
}

// Subscribe streams the current user. fn receives the present value
// (nil when signed out) before Subscribe returns.
func (p *Provider) Subscribe(fn func(*User)) *feed.Subscription {
	return p.hub.Subscribe(fn)
}

func (p *Provider) setCurrent(u *User) {
	p.mu.Lock()
	p.current = u
	p.mu.Unlock()
	p.hub.Publish(u)
}

func (p *Provider) sign(claims Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(p.key)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

func (p *Provider) parse(token, purpose string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return p.key, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(p.now),
	)
	if err != nil {
		return nil, err
	}
	if claims.Purpose != purpose {
		return nil, fmt.Errorf("token purpose %q, want %q", claims.Purpose, purpose)
	}
	return claims, nil
}

func (p *Provider) linkFor(token string) (string, error) {
	u, err := url.Parse(p.settings.LinkBaseURL)
	if err != nil {
		return "", fmt.Errorf("invalid link base URL: %w", err)
	}
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// extractToken accepts a sign-in URL with a token parameter, or a bare token.
func extractToken(link string) string {
	link = strings.TrimSpace(link)
	if u, err := url.Parse(link); err == nil {
		if t := u.Query().Get("token"); t != "" {
			return t
		}
	}
	return link
}

func formatSender(s config.AuthSettings) string {
	if s.SenderEmail == "" {
		return s.SenderName
	}
	return (&mail.Address{Name: s.SenderName, Address: s.SenderEmail}).String()
}
