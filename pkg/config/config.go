package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all settings required to run the Haithe core service.
// Use Validate to fill implicit defaults and to check for required fields.
type Config struct {
	// Network selects the target chain (chain ID and human-readable name).
	Network Network `json:"network" yaml:"network" mapstructure:"network"`
	// RPCAddr is the Ethereum RPC/WS endpoint URL (required).
	RPCAddr string `json:"rpc_addr" yaml:"rpc_addr" mapstructure:"rpc_addr"`
	// PrivateKey is the hex-encoded ECDSA key of the platform wallet. It signs
	// payment transactions and API keys.
	PrivateKey string `json:"private_key" yaml:"private_key" mapstructure:"private_key"`
	// ContractsFile points to the JSON file with deployed contract addresses.
	// Default: contracts.json
	ContractsFile string `json:"contracts_file" yaml:"contracts_file" mapstructure:"contracts_file"`
	// Database configures the relational store.
	Database Database `json:"database" yaml:"database" mapstructure:"database"`
	// Redis enables the shared memory store when Addr is set.
	Redis Redis `json:"redis" yaml:"redis" mapstructure:"redis"`
	// LighthouseURL is the HTTP gateway used to fetch Filecoin-backed content.
	// Default: https://gateway.lighthouse.storage/ipfs/
	LighthouseURL string `json:"lighthouse_url" yaml:"lighthouse_url" mapstructure:"lighthouse_url"`
	// IpfsURL is the HTTP API endpoint of the IPFS node used to read files.
	// Default: https://ipfs.io:443
	IpfsURL string `json:"ipfs_url" yaml:"ipfs_url" mapstructure:"ipfs_url"`
	// TEESecret decrypts product payloads (required).
	TEESecret string `json:"tee_secret" yaml:"tee_secret" mapstructure:"tee_secret"`
	// Server configures the HTTP and gRPC listeners.
	Server Server `json:"server" yaml:"server" mapstructure:"server"`
	// Providers holds the LLM provider API keys.
	Providers Providers `json:"providers" yaml:"providers" mapstructure:"providers"`
	// Pipeline tunes the completion pipeline.
	Pipeline Pipeline `json:"pipeline" yaml:"pipeline" mapstructure:"pipeline"`
	// Debug enables verbose logging.
	Debug bool `json:"debug" yaml:"debug" mapstructure:"debug"`
	// Timeouts configures per-operation timeouts. See Timeouts.WithDefaults for defaults.
	Timeouts Timeouts `json:"timeouts" yaml:"timeouts" mapstructure:"timeouts"`
}

// Network describes a blockchain network (chain ID and name). ChainID is used
// for EIP-155 signing; Name is informational.
type Network struct {
	ChainID string `json:"chain_id" mapstructure:"chain_id"`
	Name    string `json:"network_name" mapstructure:"network_name"`
}

// HyperionTestnet is the default network the Haithe contracts are deployed on.
var HyperionTestnet = Network{
	ChainID: "133717",
	Name:    "hyperion-testnet",
}

// Sepolia is a predefined Network for Ethereum Sepolia testnet.
var Sepolia = Network{
	ChainID: "11155111",
	Name:    "sepolia",
}

// Database selects the GORM dialect. Driver is "postgres" or "sqlite".
type Database struct {
	Driver string `json:"driver" yaml:"driver" mapstructure:"driver"`
	DSN    string `json:"dsn" yaml:"dsn" mapstructure:"dsn"`
}

// Redis connection settings.
type Redis struct {
	Addr     string `json:"addr" yaml:"addr" mapstructure:"addr"`
	Password string `json:"password" yaml:"password" mapstructure:"password"`
	DB       int    `json:"db" yaml:"db" mapstructure:"db"`
}

// Server listener addresses.
type Server struct {
	HTTPAddr string `json:"http_addr" yaml:"http_addr" mapstructure:"http_addr"`
	GRPCAddr string `json:"grpc_addr" yaml:"grpc_addr" mapstructure:"grpc_addr"`
}

// Providers holds one API key per LLM provider.
type Providers struct {
	GeminiAPIKey   string `json:"gemini_api_key" yaml:"gemini_api_key" mapstructure:"gemini_api_key"`
	OpenAIAPIKey   string `json:"openai_api_key" yaml:"openai_api_key" mapstructure:"openai_api_key"`
	DeepSeekAPIKey string `json:"deepseek_api_key" yaml:"deepseek_api_key" mapstructure:"deepseek_api_key"`
	MoonshotAPIKey string `json:"moonshot_api_key" yaml:"moonshot_api_key" mapstructure:"moonshot_api_key"`
	GroqAPIKey     string `json:"groq_api_key" yaml:"groq_api_key" mapstructure:"groq_api_key"`
}

// Pipeline knobs.
type Pipeline struct {
	// FetchConcurrency bounds parallel payload fetches. Default: 4
	FetchConcurrency int `json:"fetch_concurrency" yaml:"fetch_concurrency" mapstructure:"fetch_concurrency"`
	// MaxPayloadBytes caps a single fetched payload. Default: 32 MiB
	MaxPayloadBytes int64 `json:"max_payload_bytes" yaml:"max_payload_bytes" mapstructure:"max_payload_bytes"`
	// MemoryWindow is the number of messages kept per project. Default: 30
	MemoryWindow int `json:"memory_window" yaml:"memory_window" mapstructure:"memory_window"`
	// MaxTokens per LLM call. Default: 1024
	MaxTokens int32 `json:"max_tokens" yaml:"max_tokens" mapstructure:"max_tokens"`
}

// Timeouts controls operation deadlines.
// Zero values will be replaced by sane defaults in WithDefaults.
type Timeouts struct {
	Dial        time.Duration `mapstructure:"dial"`         // Web3 dial/connect
	ChainRead   time.Duration `mapstructure:"chain_read"`   // eth_call, balance etc
	ChainSubmit time.Duration `mapstructure:"chain_submit"` // send tx
	ReceiptWait time.Duration `mapstructure:"receipt_wait"` // wait tx
	Fetch       time.Duration `mapstructure:"fetch"`        // payload download
	LLM         time.Duration `mapstructure:"llm"`          // one provider call
	Pipeline    time.Duration `mapstructure:"pipeline"`     // whole completion
}

// legacyEnv maps config keys to the environment variable names used by
// existing deployments.
var legacyEnv = map[string]string{
	"tee_secret":                 "TEE_SECRET",
	"private_key":                "MOCK_TEE_PVT_KEY",
	"providers.gemini_api_key":   "GEMINI_API_KEY",
	"providers.openai_api_key":   "OPENAI_API_KEY",
	"providers.deepseek_api_key": "DEEPSEEK_API_KEY",
	"providers.moonshot_api_key": "MOONSHOT_API_KEY",
	"providers.groq_api_key":     "GROQ_API_KEY",
}

// envKeys lists every key that may be supplied through HAITHE_* variables.
var envKeys = []string{
	"network.chain_id", "network.network_name",
	"rpc_addr", "contracts_file",
	"database.driver", "database.dsn",
	"redis.addr", "redis.password", "redis.db",
	"lighthouse_url", "ipfs_url",
	"server.http_addr", "server.grpc_addr",
	"pipeline.fetch_concurrency", "pipeline.max_payload_bytes",
	"pipeline.memory_window", "pipeline.max_tokens",
	"debug",
	"timeouts.dial", "timeouts.chain_read", "timeouts.chain_submit",
	"timeouts.receipt_wait", "timeouts.fetch", "timeouts.llm", "timeouts.pipeline",
}

// Load reads configuration from path (optional; any format viper supports)
// and from the environment. HAITHE_RPC_ADDR overrides rpc_addr,
// HAITHE_DATABASE_DSN overrides database.dsn and so on. The legacy variables
// in legacyEnv are honoured as well. The returned config is validated.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("HAITHE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for _, key := range envKeys {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", key, err)
		}
	}
	for key, env := range legacyEnv {
		prefixed := "HAITHE_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, prefixed, env); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", key, err)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate normalizes the configuration by applying implicit defaults and
// verifies that RPCAddr and TEESecret are provided.
func (c *Config) Validate() error {

	if c.LighthouseURL == "" {
		c.LighthouseURL = "https://gateway.lighthouse.storage/ipfs/"
	}

	if c.IpfsURL == "" {
		c.IpfsURL = "https://ipfs.io:443"
	}

	if c.Network.ChainID == "" {
		c.Network = HyperionTestnet
	}

	if c.ContractsFile == "" {
		c.ContractsFile = "contracts.json"
	}

	if c.Database.Driver == "" {
		c.Database.Driver = "postgres"
	}

	if c.Server.HTTPAddr == "" {
		c.Server.HTTPAddr = ":8080"
	}

	if c.Server.GRPCAddr == "" {
		c.Server.GRPCAddr = ":9090"
	}

	c.Pipeline = c.Pipeline.WithDefaults()
	c.Timeouts = c.Timeouts.WithDefaults()

	if c.RPCAddr == "" {
		return errors.New("RPC address is required")
	}

	if c.TEESecret == "" {
		return errors.New("TEE secret is required")
	}

	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}

	return nil
}

// WithDefaults returns a copy of p with zero values replaced by defaults.
func (p Pipeline) WithDefaults() Pipeline {
	pp := p
	if pp.FetchConcurrency <= 0 {
		pp.FetchConcurrency = 4
	}
	if pp.MaxPayloadBytes <= 0 {
		pp.MaxPayloadBytes = 32 << 20
	}
	if pp.MemoryWindow <= 0 {
		pp.MemoryWindow = 30
	}
	if pp.MaxTokens <= 0 {
		pp.MaxTokens = 1024
	}
	return pp
}

// WithDefaults returns a copy of t with zero values replaced by defaults:
//
//	Dial:        5s
//	ChainRead:   12s
//	ChainSubmit: 25s
//	ReceiptWait: 90s
//	Fetch:       30s
//	LLM:         60s
//	Pipeline:    180s
func (t Timeouts) WithDefaults() Timeouts {
	tt := t
	if tt.Dial == 0 {
		tt.Dial = 5 * time.Second
	}
	if tt.ChainRead == 0 {
		tt.ChainRead = 12 * time.Second
	}
	if tt.ChainSubmit == 0 {
		tt.ChainSubmit = 25 * time.Second
	}
	if tt.ReceiptWait == 0 {
		tt.ReceiptWait = 90 * time.Second
	}
	if tt.Fetch == 0 {
		tt.Fetch = 30 * time.Second
	}
	if tt.LLM == 0 {
		tt.LLM = 60 * time.Second
	}
	if tt.Pipeline == 0 {
		tt.Pipeline = 180 * time.Second
	}
	return tt
}
