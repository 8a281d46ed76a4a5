package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	ierr "go-firestore-estate/internal/errors"
	"go-firestore-estate/internal/model"

	"google.golang.org/api/googleapi"
	"google.golang.org/api/identitytoolkit/v3"
	"google.golang.org/api/option"
)

// IdentityToolkitSigner signs users in with email and password through the Identity Toolkit
// REST API, the same endpoint the Firebase web SDK uses.
type IdentityToolkitSigner struct {
	svc *identitytoolkit.Service
	now func() time.Time
}

var _ PasswordSigner = (*IdentityToolkitSigner)(nil)

func NewIdentityToolkitSigner(ctx context.Context, webApiKey string, opts ...option.ClientOption) (*IdentityToolkitSigner, error) {
	if webApiKey == "" {
		return nil, fmt.Errorf("identity toolkit: web api key is empty")
	}

	svc, err := identitytoolkit.NewService(ctx, append(opts, option.WithAPIKey(webApiKey))...)
	if err != nil {
		return nil, fmt.Errorf("identity toolkit: %w", err)
	}

	return &IdentityToolkitSigner{svc: svc, now: time.Now}, nil
}

func (s *IdentityToolkitSigner) SignInWithPassword(ctx context.Context, email, password string) (model.Identity, error) {
	resp, err := s.svc.Relyingparty.VerifyPassword(&identitytoolkit.IdentitytoolkitRelyingpartyVerifyPasswordRequest{
		Email:             email,
		Password:          password,
		ReturnSecureToken: true,
	}).Context(ctx).Do()
	if err != nil {
		var gerr *googleapi.Error
		if errors.As(err, &gerr) && gerr.Code == http.StatusBadRequest {
			return model.Identity{}, fmt.Errorf("%w: %s", ierr.ErrInvalidCredentials, gerr.Message)
		}
		return model.Identity{}, fmt.Errorf("sign in: %w", err)
	}

	identity := model.Identity{
		UID:          resp.LocalId,
		Email:        resp.Email,
		IDToken:      resp.IdToken,
		RefreshToken: resp.RefreshToken,
	}
	if resp.ExpiresIn > 0 {
		identity.ExpiresAt = s.now().Add(time.Duration(resp.ExpiresIn) * time.Second).UTC()
	}
	return identity, nil
}
