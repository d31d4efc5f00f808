// Package auth identifies API callers.
//
// A caller presents an API key issued by the platform wallet together with
// the organization and project it acts for. The key must carry a valid
// signature and the issued-at stamp recorded on the caller's account, so
// issuing a new key revokes the previous one. The caller must then be an
// owner or admin of the organization, or an admin or developer of the
// project.
package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"github.com/Haithedotai/core/pkg/apierr"
	"github.com/Haithedotai/core/pkg/model"
	"github.com/Haithedotai/core/pkg/store"
)

// Header names. The OpenAI names are accepted so that OpenAI SDKs work
// unchanged.
const (
	HeaderOrganization       = "Haithe-Organization"
	HeaderProject            = "Haithe-Project"
	HeaderOpenAIOrganization = "OpenAI-Organization"
	HeaderOpenAIProject      = "OpenAI-Project"
)

// Store is the account and membership data. *store.Store implements it.
type Store interface {
	Account(ctx context.Context, wallet string) (*model.Account, error)
	OrganizationByUID(ctx context.Context, uid string) (*model.Organization, error)
	ProjectByUID(ctx context.Context, uid string) (*model.Project, error)
	OrgRole(ctx context.Context, org *model.Organization, wallet string) (string, error)
	ProjectRole(ctx context.Context, projectID int64, wallet string) (string, error)
}

// Caller is an authenticated and authorized API caller.
type Caller struct {
	Wallet     string
	OrgUID     string
	ProjectUID string
}

// Authenticator checks API keys against the platform wallet address.
type Authenticator struct {
	store  Store
	server common.Address
}

// NewAuthenticator returns an Authenticator accepting keys signed by server.
func NewAuthenticator(st Store, server common.Address) *Authenticator {
	return &Authenticator{store: st, server: server}
}

// FromHeaders authenticates the request headers.
func (a *Authenticator) FromHeaders(ctx context.Context, h http.Header) (*Caller, error) {
	token, ok := strings.CutPrefix(h.Get("Authorization"), "Bearer ")
	if !ok {
		return nil, apierr.Unauthorized("Unauthorized")
	}
	return a.Authenticate(ctx, strings.TrimSpace(token),
		firstHeader(h, HeaderOrganization, HeaderOpenAIOrganization),
		firstHeader(h, HeaderProject, HeaderOpenAIProject))
}

func firstHeader(h http.Header, names ...string) string {
	for _, n := range names {
		if v := strings.TrimSpace(h.Get(n)); v != "" {
			return v
		}
	}
	return ""
}

// Authenticate verifies apiKey and the caller's rights on the organization
// and project.
func (a *Authenticator) Authenticate(ctx context.Context, apiKey, orgUID, projectUID string) (*Caller, error) {
	key, err := ParseKey(apiKey)
	if err != nil {
		return nil, apierr.Unauthorized("Unauthorized")
	}
	if orgUID == "" {
		return nil, apierr.BadRequest("Missing or invalid Organization header")
	}
	if projectUID == "" {
		return nil, apierr.BadRequest("Missing or invalid Project header")
	}

	wallet := key.Address.Hex()
	acct, err := a.store.Account(ctx, wallet)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apierr.Unauthorized("Unauthorized")
	}
	if err != nil {
		return nil, apierr.Internal("Failed to fetch API key timestamp", err)
	}
	if acct.APIKeyLastIssuedAt == nil || acct.APIKeyLastIssuedAt.Unix() != key.IssuedAt.Unix() {
		return nil, apierr.Unauthorized("Unauthorized")
	}
	if !key.SignedBy(a.server) {
		return nil, apierr.Unauthorized("Unauthorized")
	}

	if err := a.authorize(ctx, wallet, orgUID, projectUID); err != nil {
		return nil, err
	}
	return &Caller{Wallet: wallet, OrgUID: orgUID, ProjectUID: projectUID}, nil
}

func (a *Authenticator) authorize(ctx context.Context, wallet, orgUID, projectUID string) error {
	org, err := a.store.OrganizationByUID(ctx, orgUID)
	if errors.Is(err, store.ErrNotFound) {
		return apierr.NotFound("Organization not found")
	}
	if err != nil {
		return apierr.Internal("Failed to fetch organization", err)
	}
	project, err := a.store.ProjectByUID(ctx, projectUID)
	if errors.Is(err, store.ErrNotFound) {
		return apierr.NotFound("Project not found")
	}
	if err != nil {
		return apierr.Internal("Failed to fetch project", err)
	}
	if project.OrgID != org.ID {
		return apierr.BadRequest("Project does not belong to organization")
	}

	orgRole, err := a.store.OrgRole(ctx, org, wallet)
	if err != nil {
		return apierr.Internal("Failed to fetch organization role", err)
	}
	if orgRole == model.RoleOwner || orgRole == model.RoleAdmin {
		return nil
	}
	projectRole, err := a.store.ProjectRole(ctx, project.ID, wallet)
	if err != nil {
		return apierr.Internal("Failed to fetch project role", err)
	}
	if projectRole == model.RoleAdmin || projectRole == model.RoleDeveloper {
		return nil
	}
	return apierr.Forbidden("Insufficient permissions for this project")
}
