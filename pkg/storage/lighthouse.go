package storage

import (
	"context"

	"go.uber.org/zap"
)

// lighthouseFetcher resolves Filecoin content through a Lighthouse HTTP
// gateway, reusing the HTTP fetcher's status and size checks.
type lighthouseFetcher struct {
	http HTTPFetcher
}

// Fetch performs a GET to {endpoint}{cid}. The CID is concatenated directly
// to the endpoint; keep the trailing slash the gateway expects.
func (f lighthouseFetcher) Fetch(ctx context.Context, endpoint, cid string) ([]byte, error) {
	zap.L().Debug("Getting lighthouse file", zap.String("cid", cid))
	return f.http.Fetch(ctx, endpoint+cid)
}
