// Package config provides configuration management for the Haithe core service.
//
// This package defines the Config structure that controls chain access, the
// relational store, payload gateways, LLM provider keys, pipeline knobs and
// timeouts.
//
// # Loading
//
// Load reads an optional config file (YAML, JSON or TOML, detected from the
// extension) and overlays environment variables:
//
//	cfg, err := config.Load("haithe.yaml")
//
// Every key can be set with a HAITHE_ prefixed variable, dots replaced by
// underscores:
//
//	HAITHE_RPC_ADDR=https://hyperion-testnet.metisdevops.link
//	HAITHE_DATABASE_DSN=postgres://haithe@localhost/haithe
//	HAITHE_TIMEOUTS_LLM=45s
//
// Variables used by earlier deployments are still recognised:
//
//	TEE_SECRET        tee_secret
//	MOCK_TEE_PVT_KEY  private_key
//	GEMINI_API_KEY    providers.gemini_api_key
//	OPENAI_API_KEY    providers.openai_api_key
//	DEEPSEEK_API_KEY  providers.deepseek_api_key
//	MOONSHOT_API_KEY  providers.moonshot_api_key
//	GROQ_API_KEY      providers.groq_api_key
//
// # Networks
//
//	config.HyperionTestnet - default (ChainID: 133717)
//	config.Sepolia         - Ethereum Sepolia testnet (ChainID: 11155111)
//
// # Private Key
//
// The platform wallet key signs payment collection transactions and API keys.
// It is hex-encoded, with or without the "0x" prefix.
//
// # Timeouts
//
//	cfg.Timeouts = config.Timeouts{
//		ChainRead:   15 * time.Second,  // eth_call
//		ChainSubmit: 60 * time.Second,  // transaction submission
//		ReceiptWait: 180 * time.Second, // transaction confirmation
//		Fetch:       30 * time.Second,  // product payload download
//		LLM:         60 * time.Second,  // one provider call
//		Pipeline:    180 * time.Second, // whole completion request
//	}
//
// Zero values are replaced with defaults via WithDefaults().
//
// # Validation
//
// Validate() is called by Load. It will:
//   - Set default storage URLs, network, listeners and pipeline knobs
//   - Return an error if RPCAddr or TEESecret is empty
//   - Reject database drivers other than postgres and sqlite
package config
