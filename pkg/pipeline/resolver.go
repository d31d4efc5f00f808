package pipeline

import (
	"context"
	"errors"
	"slices"

	"github.com/ethereum/go-ethereum/common"

	"github.com/Haithedotai/core/pkg/apierr"
	"github.com/Haithedotai/core/pkg/model"
	"github.com/Haithedotai/core/pkg/store"
)

// Entitlement is the validated identity of a request.
type Entitlement struct {
	Org     *model.Organization
	Project *model.Project
	Model   model.Model
	N       int
}

func (p *Pipeline) loadOrg(ctx context.Context, uid string) (*model.Organization, error) {
	org, err := p.deps.Store.OrganizationByUID(ctx, uid)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apierr.NotFound("Organization not found")
	}
	if err != nil {
		return nil, apierr.Internal("Failed to load organization", err)
	}
	return org, nil
}

func (p *Pipeline) resolveEntitlement(ctx context.Context, req *model.CompletionRequest) (*Entitlement, error) {
	org, err := p.loadOrg(ctx, req.OrgUID)
	if err != nil {
		return nil, err
	}
	if !common.IsHexAddress(org.Address) {
		return nil, apierr.BadRequest("Invalid organization address format")
	}

	project, err := p.deps.Store.ProjectByUID(ctx, req.ProjectUID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apierr.NotFound("Project not found")
	}
	if err != nil {
		return nil, apierr.Internal("Failed to load project", err)
	}
	if project.OrgID != org.ID {
		return nil, apierr.BadRequest("Project does not belong to organization")
	}

	enrolled, err := p.deps.Store.EnrolledModelIDs(ctx, org.ID)
	if err != nil {
		return nil, apierr.Internal("Failed to load model enrollments", err)
	}

	m, ok := p.deps.Catalogue.ByName(req.Model)
	if !ok {
		return nil, apierr.BadRequest("Invalid model")
	}
	if !m.IsActive || !slices.Contains(enrolled, m.ID) {
		return nil, apierr.Forbidden("Model is not enabled for this organization")
	}

	switch {
	case req.N < 1:
		return nil, apierr.BadRequest("n must be at least 1")
	case req.N > MaxChoices:
		return nil, apierr.BadRequest("n must be less than or equal to 5")
	}

	return &Entitlement{Org: org, Project: project, Model: m, N: int(req.N)}, nil
}

// EnrolledModels lists the catalogue entries the organization is enrolled
// in, in catalogue order.
func (p *Pipeline) EnrolledModels(ctx context.Context, orgUID string) ([]model.Model, error) {
	org, err := p.loadOrg(ctx, orgUID)
	if err != nil {
		return nil, err
	}
	ids, err := p.deps.Store.EnrolledModelIDs(ctx, org.ID)
	if err != nil {
		return nil, apierr.Internal("Failed to load model enrollments", err)
	}
	var out []model.Model
	for _, m := range p.deps.Catalogue.All() {
		if slices.Contains(ids, m.ID) {
			out = append(out, m)
		}
	}
	return out, nil
}
