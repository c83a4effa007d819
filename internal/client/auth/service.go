// Package auth adapts the external identity provider. It resolves the
// effective acting identity (authenticated user or device-local guest),
// caches the session in the local metadata store so resolution keeps
// working offline, and publishes auth-state changes to subscribers.
//
// Provider failures are swallowed on the read path: every local feature
// must work without a network, so "cannot resolve user" always degrades to
// the guest identity rather than an error.
package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/golang-jwt/jwt/v5"

	"github.com/ShiyouQi888/on-tab/internal/client/repositories/metadata"
	"github.com/ShiyouQi888/on-tab/internal/common"
	"github.com/ShiyouQi888/on-tab/internal/logging"
)

const sessionKey = "session"

// Service defines identity operations for the client.
type Service interface {
	// SignUp registers a new account with the identity provider.
	SignUp(ctx context.Context, email, password string) error

	// SignIn exchanges credentials for a session and caches it locally.
	SignIn(ctx context.Context, email, password string) (*User, error)

	// SignOut drops the cached session. Local data is kept; queries simply
	// switch back to the guest scope.
	SignOut(ctx context.Context) error

	// Current resolves the effective identity. It never returns an error:
	// a missing, malformed or unrefreshable session yields the guest.
	Current(ctx context.Context) Identity

	// EffectiveOwnerID is shorthand for Current(ctx).OwnerID().
	EffectiveOwnerID(ctx context.Context) string

	// OnAuthStateChange registers fn to run after every sign-in and
	// sign-out. The returned func unsubscribes.
	OnAuthStateChange(fn func(Identity)) (unsubscribe func())
}

// session is the locally cached provider session.
type session struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	User         User   `json:"user"`
}

// tokenResponse is the provider's token-endpoint payload.
type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	User         struct {
		ID           string `json:"id"`
		Email        string `json:"email"`
		UserMetadata struct {
			AvatarURL string `json:"avatar_url"`
		} `json:"user_metadata"`
	} `json:"user"`
}

type claims struct {
	Email        string `json:"email"`
	UserMetadata struct {
		AvatarURL string `json:"avatar_url"`
	} `json:"user_metadata"`
	jwt.RegisteredClaims
}

// HTTPService is the resty-backed Service implementation.
type HTTPService struct {
	client *resty.Client
	meta   metadata.Repository
	log    logging.Logger

	mu      sync.Mutex
	nextSub int
	subs    map[int]func(Identity)
}

// NewHTTPService builds a Service talking to the identity provider at
// baseURL, caching sessions in meta.
func NewHTTPService(baseURL string, meta metadata.Repository, log logging.Logger) *HTTPService {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(10 * time.Second).
		SetHeader("Content-Type", "application/json")
	return &HTTPService{
		client: client,
		meta:   meta,
		log:    log,
		subs:   make(map[int]func(Identity)),
	}
}

func (s *HTTPService) SignUp(ctx context.Context, email, password string) error {
	resp, err := s.client.R().
		SetContext(ctx).
		SetBody(map[string]string{"email": email, "password": password}).
		Post("/auth/v1/signup")
	if err != nil {
		return fmt.Errorf("signup request failed: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("signup rejected: %s: %w", resp.Status(), common.ErrorUnauthorized)
	}
	return nil
}

func (s *HTTPService) SignIn(ctx context.Context, email, password string) (*User, error) {
	var tr tokenResponse
	resp, err := s.client.R().
		SetContext(ctx).
		SetQueryParam("grant_type", "password").
		SetBody(map[string]string{"email": email, "password": password}).
		SetResult(&tr).
		Post("/auth/v1/token")
	if err != nil {
		return nil, fmt.Errorf("signin request failed: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("signin rejected: %s: %w", resp.Status(), common.ErrorUnauthorized)
	}

	sess := session{
		AccessToken:  tr.AccessToken,
		RefreshToken: tr.RefreshToken,
		User: User{
			ID:      tr.User.ID,
			Email:   tr.User.Email,
			Profile: Profile{AvatarURL: tr.User.UserMetadata.AvatarURL},
		},
	}
	if err := s.saveSession(ctx, &sess); err != nil {
		return nil, err
	}

	user := sess.User
	s.notify(Authenticated(&user))
	return &user, nil
}

func (s *HTTPService) SignOut(ctx context.Context) error {
	if err := s.meta.Delete(ctx, sessionKey); err != nil {
		return fmt.Errorf("failed to drop session: %w", err)
	}
	s.notify(Guest())
	return nil
}

func (s *HTTPService) Current(ctx context.Context) Identity {
	sess, err := s.loadSession(ctx)
	if err != nil {
		s.log.Warn(ctx, "failed to load session, acting as guest", "error", err.Error())
		return Guest()
	}
	if sess == nil {
		return Guest()
	}

	// The token is parsed without signature verification: the client has
	// no provider key and the remote store re-checks authorization on
	// every request anyway. Claims only drive local scoping.
	var c claims
	if _, _, err := jwt.NewParser().ParseUnverified(sess.AccessToken, &c); err != nil {
		s.log.Warn(ctx, "malformed session token, acting as guest", "error", err.Error())
		return Guest()
	}
	if c.Subject != "" && c.Subject != sess.User.ID {
		// cached user block drifted from the token; trust the token
		sess.User.ID = c.Subject
		sess.User.Email = c.Email
	}

	if c.ExpiresAt != nil && time.Until(c.ExpiresAt.Time) < time.Minute {
		if refreshed, err := s.refresh(ctx, sess); err != nil {
			// Stale token is tolerated offline; the remote store will
			// reject it if it is truly unusable.
			s.log.Warn(ctx, "session refresh failed", "error", err.Error())
		} else {
			sess = refreshed
		}
	}

	s.ensureAvatar(ctx, sess)

	user := sess.User
	return Authenticated(&user)
}

func (s *HTTPService) EffectiveOwnerID(ctx context.Context) string {
	return s.Current(ctx).OwnerID()
}

func (s *HTTPService) OnAuthStateChange(fn func(Identity)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs, id)
	}
}

func (s *HTTPService) notify(ident Identity) {
	s.mu.Lock()
	fns := make([]func(Identity), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.mu.Unlock()
	for _, fn := range fns {
		fn(ident)
	}
}

func (s *HTTPService) refresh(ctx context.Context, sess *session) (*session, error) {
	var tr tokenResponse
	resp, err := s.client.R().
		SetContext(ctx).
		SetQueryParam("grant_type", "refresh_token").
		SetBody(map[string]string{"refresh_token": sess.RefreshToken}).
		SetResult(&tr).
		Post("/auth/v1/token")
	if err != nil {
		return nil, fmt.Errorf("refresh request failed: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("refresh rejected: %s: %w", resp.Status(), common.ErrorUnauthorized)
	}

	next := *sess
	next.AccessToken = tr.AccessToken
	if tr.RefreshToken != "" {
		next.RefreshToken = tr.RefreshToken
	}
	if err := s.saveSession(ctx, &next); err != nil {
		return nil, err
	}
	return &next, nil
}

// ensureAvatar assigns a deterministic avatar to users that have none and
// persists it upstream. Purely cosmetic: every failure is swallowed.
func (s *HTTPService) ensureAvatar(ctx context.Context, sess *session) {
	if sess.User.Profile.AvatarURL != "" {
		return
	}
	avatar := fmt.Sprintf("https://api.dicebear.com/7.x/avataaars/svg?seed=%s", sess.User.ID)

	resp, err := s.client.R().
		SetContext(ctx).
		SetAuthToken(sess.AccessToken).
		SetBody(map[string]any{"data": map[string]string{"avatar_url": avatar}}).
		Put("/auth/v1/user")
	if err != nil || resp.IsError() {
		return
	}

	sess.User.Profile.AvatarURL = avatar
	if err := s.saveSession(ctx, sess); err != nil {
		s.log.Warn(ctx, "failed to cache avatar", "error", err.Error())
	}
}

func (s *HTTPService) loadSession(ctx context.Context) (*session, error) {
	raw, err := s.meta.Get(ctx, sessionKey)
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, nil
	}
	var sess session
	if err := json.Unmarshal(raw, &sess); err != nil {
		return nil, fmt.Errorf("%w: %s", common.ErrSessionMalformed, err.Error())
	}
	return &sess, nil
}

func (s *HTTPService) saveSession(ctx context.Context, sess *session) error {
	raw, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}
	if err := s.meta.Set(ctx, sessionKey, raw); err != nil {
		return fmt.Errorf("failed to store session: %w", err)
	}
	return nil
}
