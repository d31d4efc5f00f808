package storage

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/ipfs/go-cid"
	"github.com/ipfs/kubo/client/rpc"
	"go.uber.org/zap"
)

// ErrIPFSUnavailable is returned for ipfs:// reads when no Kubo client is configured.
var ErrIPFSUnavailable = errors.New("ipfs client not configured")

// ipfsFetcher is the concrete implementation of IPFSFetcher using Kubo HTTP API.
type ipfsFetcher struct {
	api      *rpc.HttpApi
	maxBytes int64
}

// newIPFSFetcher creates a new IPFS fetcher with the given HTTP API client.
func newIPFSFetcher(api *rpc.HttpApi, maxBytes int64) IPFSFetcher {
	return &ipfsFetcher{api: api, maxBytes: maxBytes}
}

// Fetch content by CID from IPFS using `ipfs cat`. For raw-codec CIDs the
// content is re-hashed with the CID's own prefix and a mismatch is an error;
// dag-pb content is chunked by the node and cannot be checked this way.
func (f *ipfsFetcher) Fetch(ctx context.Context, hash string) ([]byte, error) {
	zap.L().Debug("Hash Used to retrieve from IPFS", zap.String("hash", hash))

	if f.api == nil {
		return nil, ErrIPFSUnavailable
	}

	cID, err := cid.Parse(hash)
	if err != nil {
		return nil, fmt.Errorf("parse cid %q: %w", hash, err)
	}

	resp, err := f.api.Request("cat", cID.String()).Send(ctx)
	if err != nil {
		zap.L().Error("error executing the cat command in ipfs", zap.String("hash", hash), zap.Error(err))
		return nil, err
	}
	defer func(resp *rpc.Response) {
		if cerr := resp.Close(); cerr != nil {
			zap.L().Debug("error closing response in ipfs", zap.String("hash", hash), zap.Error(cerr))
		}
	}(resp)

	if resp.Error != nil {
		return nil, fmt.Errorf("ipfs cat %s: %w", hash, resp.Error)
	}

	content, err := readCapped(resp.Output, f.maxBytes)
	if err != nil {
		return nil, err
	}

	if err := verifyCID(cID, content); err != nil {
		return nil, err
	}
	return content, nil
}

// verifyCID recomputes a raw-codec CID over content and compares it with
// expected. Other codecs pass unchecked.
func verifyCID(expected cid.Cid, content []byte) error {
	if expected.Type() != cid.Raw {
		return nil
	}
	got, err := expected.Prefix().Sum(content)
	if err != nil {
		return fmt.Errorf("hash ipfs content: %w", err)
	}
	if !got.Equals(expected) {
		zap.L().Error("IPFS hash verification failed. Generated hash does not match with expected hash",
			zap.String("expectedHash", expected.String()),
			zap.String("hashFromIPFSContent", got.String()))
		return fmt.Errorf("ipfs content does not match cid %s", expected)
	}
	return nil
}

// NewIPFSClient constructs a Kubo HTTP API client pointed at url.
func NewIPFSClient(url string) (*rpc.HttpApi, error) {
	httpClient := http.Client{
		Timeout: 30 * time.Second,
	}
	client, err := rpc.NewURLApiWithClient(url, &httpClient)
	if err != nil {
		return nil, fmt.Errorf("connect to ipfs %s: %w", url, err)
	}
	return client, nil
}
