package storage

import (
	"context"
	"net/http"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/ipfs/kubo/client/rpc"
	"go.uber.org/zap"
)

const (
	// IpfsPrefix is the URI scheme prefix recognized for IPFS content.
	IpfsPrefix = "ipfs://"
	// FilecoinPrefix is the URI scheme prefix recognized for Filecoin/Lighthouse content.
	FilecoinPrefix = "filecoin://"

	// DefaultMaxBytes caps a single payload when no limit is configured.
	DefaultMaxBytes int64 = 32 << 20
)

// Reader fetches a payload by URI.
type Reader interface {
	ReadFile(ctx context.Context, uri string) ([]byte, error)
}

// LighthouseFetcher fetches content from a Lighthouse gateway.
type LighthouseFetcher interface {
	Fetch(ctx context.Context, endpoint, cid string) ([]byte, error)
}

// IPFSFetcher fetches content addressed by CID from IPFS.
type IPFSFetcher interface {
	Fetch(ctx context.Context, hash string) ([]byte, error)
}

// HTTPFetcher fetches content from a plain HTTP(S) URL.
type HTTPFetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// Client aggregates the configured storage backends and routes each URI to
// one of them by prefix.
type Client struct {
	// HttpApi is a connected Kubo HTTP API client used for IPFS reads.
	*rpc.HttpApi
	// LighthouseURL is the base URL of the Lighthouse HTTP gateway.
	LighthouseURL string

	// defaults fills the fetchers left nil, once, so a zero Client is safe
	// for concurrent reads.
	defaults sync.Once

	lighthouseFetcher LighthouseFetcher
	ipfsFetcher       IPFSFetcher
	httpFetcher       HTTPFetcher
}

// NewStorage constructs a Client using the provided IPFS API endpoint and
// Lighthouse gateway URL. maxBytes caps every payload; zero or less selects
// DefaultMaxBytes. If the IPFS client fails to initialize, the error is logged
// and ipfs:// reads fail while the other backends keep working.
func NewStorage(ipfsURL, lighthouseURL string, maxBytes int64) *Client {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	httpClient := &http.Client{Timeout: 60 * time.Second}

	s := new(Client)
	api, err := NewIPFSClient(ipfsURL)
	if err != nil {
		zap.L().Error("IPFS client unavailable", zap.String("url", ipfsURL), zap.Error(err))
	}
	s.HttpApi = api
	s.LighthouseURL = lighthouseURL
	s.httpFetcher = &httpFetcher{client: httpClient, maxBytes: maxBytes}
	s.lighthouseFetcher = lighthouseFetcher{http: s.httpFetcher}
	s.ipfsFetcher = newIPFSFetcher(api, maxBytes)
	return s
}

// ReadFile fetches content identified by uri. "ipfs://" content comes from
// the Kubo API, "filecoin://" content from the Lighthouse gateway, and
// anything else is fetched over HTTP(S) after EnsureProtocol.
func (s *Client) ReadFile(ctx context.Context, uri string) ([]byte, error) {
	s.defaults.Do(func() {
		if s.httpFetcher == nil {
			s.httpFetcher = &httpFetcher{client: http.DefaultClient, maxBytes: DefaultMaxBytes}
		}
		if s.lighthouseFetcher == nil {
			s.lighthouseFetcher = lighthouseFetcher{http: s.httpFetcher}
		}
		if s.ipfsFetcher == nil {
			s.ipfsFetcher = newIPFSFetcher(s.HttpApi, DefaultMaxBytes)
		}
	})

	switch {
	case strings.HasPrefix(uri, FilecoinPrefix):
		return s.lighthouseFetcher.Fetch(ctx, s.LighthouseURL, formatHash(uri))
	case strings.HasPrefix(uri, IpfsPrefix):
		return s.ipfsFetcher.Fetch(ctx, formatHash(uri))
	default:
		return s.httpFetcher.Fetch(ctx, EnsureProtocol(uri))
	}
}

// EnsureProtocol prefixes raw with "https://" unless it already starts with
// "http://" or "https://".
func EnsureProtocol(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "http://") || strings.HasPrefix(raw, "https://") {
		return raw
	}
	return "https://" + raw
}

var specialCharacters = regexp.MustCompile("[^a-zA-Z0-9=]")

// formatHash removes known URI scheme prefixes and any non-alphanumeric
// characters (except '=') from the supplied hash/URI to produce a clean CID
// string suitable for the underlying backends.
func formatHash(hash string) string {
	hash = strings.Replace(hash, IpfsPrefix, "", -1)
	hash = strings.Replace(hash, FilecoinPrefix, "", -1)
	hash = removeSpecialCharacters(hash)
	return hash
}

// removeSpecialCharacters strips all characters except ASCII letters, digits,
// and '=' from pString. Used to sanitize incoming CIDs/IDs.
func removeSpecialCharacters(pString string) string {
	return specialCharacters.ReplaceAllString(pString, "")
}
