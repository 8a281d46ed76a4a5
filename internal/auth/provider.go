package auth

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	ierr "go-firestore-estate/internal/errors"
	"go-firestore-estate/internal/model"

	firebaseAuth "firebase.google.com/go/v4/auth"
	"github.com/rs/zerolog/log"
)

// PasswordSigner exchanges email and password for an identity with fresh tokens.
type PasswordSigner interface {
	SignInWithPassword(ctx context.Context, email, password string) (model.Identity, error)
}

// TokenAdmin is the part of the Firebase Admin auth client the provider needs.
type TokenAdmin interface {
	VerifyIDTokenAndCheckRevoked(ctx context.Context, idToken string) (*firebaseAuth.Token, error)
	RevokeRefreshTokens(ctx context.Context, uid string) error
}

var _ TokenAdmin = (*firebaseAuth.Client)(nil)

// AuthStateSource reports identity changes: nil when signed out.
type AuthStateSource interface {
	OnAuthStateChange(fn func(*model.Identity)) (unsubscribe func())
}

// Provider holds one session. Listeners are called synchronously, in registration order, for
// every change; they must not call back into the provider.
type Provider struct {
	signer PasswordSigner
	admin  TokenAdmin

	deliverMu sync.Mutex

	mu        sync.Mutex
	current   *model.Identity
	resolved  bool
	listeners map[int]func(*model.Identity)
	nextID    int
}

var _ AuthStateSource = (*Provider)(nil)

func NewProvider(signer PasswordSigner, admin TokenAdmin) *Provider {
	return &Provider{
		signer:    signer,
		admin:     admin,
		listeners: make(map[int]func(*model.Identity)),
	}
}

// Restore resolves the initial session from a stored ID token. An empty or rejected token
// resolves to signed out.
func (p *Provider) Restore(ctx context.Context, idToken string) (*model.Identity, error) {
	if idToken == "" {
		p.set(nil)
		return nil, nil
	}

	identity, err := p.Verify(ctx, idToken)
	if err != nil {
		p.set(nil)
		return nil, err
	}

	p.set(&identity)
	return &identity, nil
}

func (p *Provider) SignIn(ctx context.Context, email, password string) (model.Identity, error) {
	identity, err := p.signer.SignInWithPassword(ctx, email, password)
	if err != nil {
		return model.Identity{}, err
	}

	log.Info().Msgf("signed in uid %s", identity.UID)
	p.set(&identity)
	return identity, nil
}

// SignOut clears the session and revokes the refresh tokens of the signed-in user. The local
// session is cleared even when revocation fails.
func (p *Provider) SignOut(ctx context.Context) error {
	current := p.CurrentUser()
	p.set(nil)

	if current == nil {
		return nil
	}
	return p.Revoke(ctx, current.UID)
}

func (p *Provider) Revoke(ctx context.Context, uid string) error {
	if p.admin == nil {
		return nil
	}
	if err := p.admin.RevokeRefreshTokens(ctx, uid); err != nil {
		log.Error().Err(err).Msgf("failed to revoke refresh tokens of uid %s", uid)
		return fmt.Errorf("sign out: %w, uid: %s", err, uid)
	}
	return nil
}

// Verify checks an ID token, including revocation, and returns its identity.
func (p *Provider) Verify(ctx context.Context, idToken string) (model.Identity, error) {
	if p.admin == nil {
		return model.Identity{}, fmt.Errorf("%w: token verification is not configured", ierr.ErrNotSignedIn)
	}

	token, err := p.admin.VerifyIDTokenAndCheckRevoked(ctx, idToken)
	if err != nil {
		return model.Identity{}, fmt.Errorf("%w: %v", ierr.ErrNotSignedIn, err)
	}

	email, _ := token.Claims["email"].(string)
	return model.Identity{
		UID:       token.UID,
		Email:     email,
		IDToken:   idToken,
		ExpiresAt: time.Unix(token.Expires, 0).UTC(),
	}, nil
}

func (p *Provider) CurrentUser() *model.Identity {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current
}

// OnAuthStateChange registers fn. When the session is already resolved fn is called with it
// before OnAuthStateChange returns.
func (p *Provider) OnAuthStateChange(fn func(*model.Identity)) func() {
	p.deliverMu.Lock()
	defer p.deliverMu.Unlock()

	p.mu.Lock()
	id := p.nextID
	p.nextID++
	p.listeners[id] = fn
	current, resolved := p.current, p.resolved
	p.mu.Unlock()

	if resolved {
		fn(current)
	}

	// unsubscribe returns only once no delivery to fn is running
	var once sync.Once
	return func() {
		once.Do(func() {
			p.deliverMu.Lock()
			defer p.deliverMu.Unlock()
			p.mu.Lock()
			delete(p.listeners, id)
			p.mu.Unlock()
		})
	}
}

func (p *Provider) set(identity *model.Identity) {
	p.deliverMu.Lock()
	defer p.deliverMu.Unlock()

	p.mu.Lock()
	p.current = identity
	p.resolved = true
	ids := make([]int, 0, len(p.listeners))
	for id := range p.listeners {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	fns := make([]func(*model.Identity), 0, len(ids))
	for _, id := range ids {
		fns = append(fns, p.listeners[id])
	}
	p.mu.Unlock()

	for _, fn := range fns {
		fn(identity)
	}
}
