package pipeline

import (
	"context"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"github.com/Haithedotai/core/pkg/apierr"
)

// MatchProducts intersects the products enabled on the organization contract
// with those enabled for the project, keeping the on-chain order.
//
// On-chain addresses are compared in checksum form. When that yields nothing
// but a case-insensitive comparison does, the lowercase result is returned so
// that project rows stored before normalization still match.
func MatchProducts(onChain []common.Address, projectEnabled []string) []string {
	exact := make(map[string]struct{}, len(projectEnabled))
	lower := make(map[string]struct{}, len(projectEnabled))
	for _, a := range projectEnabled {
		exact[a] = struct{}{}
		lower[strings.ToLower(a)] = struct{}{}
	}

	var matched, matchedLower []string
	seen := make(map[string]struct{}, len(onChain))
	for _, addr := range onChain {
		hex := addr.Hex()
		if _, dup := seen[hex]; dup {
			continue
		}
		seen[hex] = struct{}{}

		if _, ok := exact[hex]; ok {
			matched = append(matched, hex)
		}
		if l := strings.ToLower(hex); hasKey(lower, l) {
			matchedLower = append(matchedLower, l)
		}
	}

	if len(matched) == 0 && len(matchedLower) > 0 {
		return matchedLower
	}
	return matched
}

func hasKey(m map[string]struct{}, k string) bool {
	_, ok := m[k]
	return ok
}

func (p *Pipeline) matchProducts(ctx context.Context, ent *Entitlement) ([]string, error) {
	onChain, err := p.deps.Chain.EnabledProducts(ctx, ent.Org.GetAddress())
	if err != nil {
		return nil, apierr.Internal("Failed to call contract method", err)
	}
	enabled, err := p.deps.Store.ProjectProductAddresses(ctx, ent.Project.ID)
	if err != nil {
		return nil, apierr.Internal("Failed to load project products", err)
	}
	return MatchProducts(onChain, enabled), nil
}
