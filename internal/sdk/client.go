// Package sdk is the HTTP client of the Eventix server. It owns the
// persisted session and broadcasts auth-state changes to subscribers.
//
// Subscribers are called while the client's session lock is held. A
// subscriber must not call back into the client synchronously: every
// request reads the access token under the same lock and would block
// forever. Work that needs the client has to be handed off to another
// goroutine.
package sdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Shivanand-hulikatti/eventix/internal/model"
)

// AuthListener receives auth-state changes. ident is nil when signed out.
type AuthListener func(event model.AuthEvent, ident *model.Identity)

// Client talks to the server.
type Client struct {
	baseURL string
	http    *http.Client
	store   SessionStore
	log     logrus.FieldLogger
	now     func() time.Time

	mu        sync.Mutex // guards everything below; held while listeners run
	session   *Session
	loaded    bool
	listeners map[int]AuthListener
	nextID    int
}

// Option configures a Client.
type Option func(*Client)

func WithHTTPClient(h *http.Client) Option { return func(c *Client) { c.http = h } }

func WithSessionStore(s SessionStore) Option { return func(c *Client) { c.store = s } }

func WithLogger(l logrus.FieldLogger) Option { return func(c *Client) { c.log = l } }

// New returns a client for the server at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		http:      &http.Client{Timeout: 15 * time.Second},
		store:     &MemorySessionStore{},
		log:       logrus.StandardLogger(),
		now:       time.Now,
		listeners: make(map[int]AuthListener),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// loadLocked reads the persisted session once. Caller holds c.mu.
func (c *Client) loadLocked() {
	if c.loaded {
		return
	}
	c.loaded = true
	s, err := c.store.Load()
	if err != nil {
		c.log.WithError(err).Warn("ignoring unreadable session")
		return
	}
	if s != nil && s.Expired(c.now()) {
		_ = c.store.Clear()
		return
	}
	c.session = s
}

func (c *Client) userLocked() *model.Identity {
	if c.session == nil {
		return nil
	}
	u := c.session.User
	return &u
}

// emitLocked calls every listener. Caller holds c.mu.
func (c *Client) emitLocked(event model.AuthEvent) {
	for _, fn := range c.listeners {
		fn(event, c.userLocked())
	}
}

// OnAuthStateChange registers fn. INITIAL_SESSION is delivered shortly
// after registration with the persisted session; later sign-ins,
// sign-outs and user updates follow. The returned function unsubscribes.
func (c *Client) OnAuthStateChange(fn func(event model.AuthEvent, ident *model.Identity)) (unsubscribe func()) {
	c.mu.Lock()
	id := c.nextID
	c.nextID++
	c.listeners[id] = fn
	c.mu.Unlock()

	go func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if _, ok := c.listeners[id]; !ok {
			return
		}
		c.loadLocked()
		fn(model.AuthInitialSession, c.userLocked())
	}()

	return func() {
		c.mu.Lock()
		delete(c.listeners, id)
		c.mu.Unlock()
	}
}

// Session returns a copy of the current session, or nil.
func (c *Client) Session() *Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.loadLocked()
	if c.session == nil {
		return nil
	}
	cp := *c.session
	return &cp
}

func (c *Client) accessToken() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.loadLocked()
	if c.session == nil {
		return ""
	}
	return c.session.AccessToken
}

func (c *Client) setSession(s *Session, event model.AuthEvent) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.loaded = true
	c.session = s
	var err error
	if s == nil {
		err = c.store.Clear()
	} else {
		err = c.store.Save(s)
	}
	if err != nil {
		c.log.WithError(err).Warn("session not persisted")
	}
	c.emitLocked(event)
}

// do sends a JSON request and decodes a JSON response into out.
func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}
	return c.send(ctx, method, path, body, "application/json", nil, out)
}

func (c *Client) send(ctx context.Context, method, path string, body io.Reader, contentType string, header http.Header, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	for k, v := range header {
		req.Header[k] = v
	}
	tok := c.accessToken()
	if tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		apiErr := decodeError(resp)
		if resp.StatusCode == http.StatusUnauthorized && tok != "" && tok == c.accessToken() {
			// The server no longer accepts the stored token.
			c.setSession(nil, model.AuthSignedOut)
		}
		return apiErr
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// SignUp creates an account. It does not sign in.
func (c *Client) SignUp(ctx context.Context, req model.SignUpRequest) (*model.Identity, error) {
	var ident model.Identity
	if err := c.do(ctx, http.MethodPost, "/auth/signup", req, &ident); err != nil {
		return nil, err
	}
	return &ident, nil
}

// SignIn signs in with a password and emits SIGNED_IN.
func (c *Client) SignIn(ctx context.Context, email, password string) (*model.Identity, error) {
	var resp model.TokenResponse
	err := c.do(ctx, http.MethodPost, "/auth/token", model.SignInRequest{Email: email, Password: password}, &resp)
	if err != nil {
		return nil, err
	}
	c.setSession(&Session{AccessToken: resp.AccessToken, ExpiresAt: resp.ExpiresAt, User: resp.User}, model.AuthSignedIn)
	user := resp.User
	return &user, nil
}

// SignOut revokes the token on the server and forgets the local session.
// The local session is dropped even when the server call fails; that
// failure is returned.
func (c *Client) SignOut(ctx context.Context) error {
	var err error
	if c.accessToken() != "" {
		err = c.do(ctx, http.MethodPost, "/auth/logout", nil, nil)
	}
	c.setSession(nil, model.AuthSignedOut)
	return err
}

// UpdateUser rewrites the caller's full name and emits USER_UPDATED.
func (c *Client) UpdateUser(ctx context.Context, fullName string) (*model.Identity, error) {
	var ident model.Identity
	req := model.UpdateUserRequest{Data: model.UpdateUserData{FullName: fullName}}
	if err := c.do(ctx, http.MethodPut, "/auth/user", req, &ident); err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session != nil && c.session.User.ID == ident.ID {
		c.session.User = ident
		if err := c.store.Save(c.session); err != nil {
			c.log.WithError(err).Warn("session not persisted")
		}
	}
	c.emitLocked(model.AuthUserUpdated)
	return &ident, nil
}
