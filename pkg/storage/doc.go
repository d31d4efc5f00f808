// Package storage retrieves product payloads from the places creators publish
// them: IPFS, Filecoin via the Lighthouse gateway, and plain HTTP(S).
//
// # Supported Backends
//
// IPFS:
//   - URI form: ipfs://<cid>
//   - Access via Kubo HTTP API (`ipfs cat`)
//   - Raw-codec CIDs are verified against the downloaded bytes
//
// Lighthouse (Filecoin Gateway):
//   - URI form: filecoin://<cid>
//   - Access via HTTP gateway
//   - Default: https://gateway.lighthouse.storage/ipfs/
//
// HTTP(S):
//   - Any other URI; "https://" is added when no scheme is present
//   - Non-2xx responses are rejected with *StatusError
//
// Every backend enforces the same size cap and fails with *TooLargeError
// once it is exceeded.
//
// # Usage
//
//	client := storage.NewStorage(cfg.IpfsURL, cfg.LighthouseURL, cfg.Pipeline.MaxPayloadBytes)
//	payload, err := client.ReadFile(ctx, product.URI)
//
// ReadFile honours ctx cancellation for all backends.
package storage
