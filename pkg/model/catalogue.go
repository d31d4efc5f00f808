package model

import "github.com/shopspring/decimal"

// Providers known to the catalogue.
const (
	ProviderGoogle   = "Google"
	ProviderOpenAI   = "OpenAI"
	ProviderDeepSeek = "DeepSeek"
	ProviderMoonshot = "Moonshot"
	ProviderHaithe   = "Haithe"
)

// TokenDecimals is the number of decimals of the payment token.
const TokenDecimals = 18

// Model is a static catalogue entry. PricePerCall is in the smallest token unit.
type Model struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	DisplayName  string `json:"display_name"`
	Provider     string `json:"provider"`
	IsActive     bool   `json:"is_active"`
	PricePerCall uint64 `json:"price_per_call"`
}

// tokens converts a whole-token decimal string into smallest units.
func tokens(amount string) uint64 {
	return decimal.RequireFromString(amount).Shift(TokenDecimals).BigInt().Uint64()
}

var catalogue = []Model{
	{ID: 1, Name: "gemini-2.0-flash", DisplayName: "Gemini 2.0 Flash", Provider: ProviderGoogle, IsActive: true, PricePerCall: 0},
	{ID: 2, Name: "gemini-2.0-flash-lite", DisplayName: "Gemini 2.0 Flash Lite", Provider: ProviderGoogle, IsActive: true, PricePerCall: tokens("0.0001")},
	{ID: 3, Name: "gemini-2.5-pro", DisplayName: "Gemini 2.5 Pro", Provider: ProviderGoogle, IsActive: false, PricePerCall: tokens("0.0015")},
	{ID: 4, Name: "gemini-2.5-flash", DisplayName: "Gemini 2.5 Flash", Provider: ProviderGoogle, IsActive: true, PricePerCall: tokens("0.001")},
	{ID: 5, Name: "gemini-2.5-flash-lite", DisplayName: "Gemini 2.5 Flash Lite", Provider: ProviderGoogle, IsActive: true, PricePerCall: tokens("0.0008")},
	{ID: 6, Name: "openai/gpt-oss-20b", DisplayName: "GPT-OSS 20B", Provider: ProviderHaithe, IsActive: true, PricePerCall: tokens("0.0001")},
	{ID: 7, Name: "openai/gpt-oss-120b", DisplayName: "GPT-OSS 120B", Provider: ProviderHaithe, IsActive: false, PricePerCall: tokens("0.00035")},
	{ID: 8, Name: "gpt-o3", DisplayName: "GPT-o3", Provider: ProviderOpenAI, IsActive: false},
	{ID: 9, Name: "gpt-o3-mini", DisplayName: "GPT-o3 Mini", Provider: ProviderOpenAI, IsActive: false},
	{ID: 10, Name: "gpt-o4-mini", DisplayName: "GPT-o4 Mini", Provider: ProviderOpenAI, IsActive: false},
	{ID: 11, Name: "gpt-4.1-nano", DisplayName: "GPT-4.1 Nano", Provider: ProviderOpenAI, IsActive: false},
	{ID: 12, Name: "gpt-4.1-mini", DisplayName: "GPT-4.1 Mini", Provider: ProviderOpenAI, IsActive: false},
	{ID: 13, Name: "deepseek-chat", DisplayName: "DeepSeek Chat", Provider: ProviderDeepSeek, IsActive: false},
	{ID: 14, Name: "deepseek-reasoner", DisplayName: "DeepSeek Reasoner", Provider: ProviderDeepSeek, IsActive: false},
	{ID: 15, Name: "moonshotai/kimi-k2-instruct", DisplayName: "Kimi K2", Provider: ProviderHaithe, IsActive: true, PricePerCall: tokens("0.005")},
}

// Catalogue is a read-only view of the static model list.
type Catalogue struct {
	models []Model
}

// DefaultCatalogue returns the built-in model list.
func DefaultCatalogue() *Catalogue {
	return NewCatalogue(catalogue)
}

// NewCatalogue builds a catalogue from models. The slice is copied.
func NewCatalogue(models []Model) *Catalogue {
	c := &Catalogue{models: make([]Model, len(models))}
	copy(c.models, models)
	return c
}

// ByName returns the entry whose Name matches exactly.
func (c *Catalogue) ByName(name string) (Model, bool) {
	for _, m := range c.models {
		if m.Name == name {
			return m, true
		}
	}
	return Model{}, false
}

// ByID returns the entry with the given id.
func (c *Catalogue) ByID(id int64) (Model, bool) {
	for _, m := range c.models {
		if m.ID == id {
			return m, true
		}
	}
	return Model{}, false
}

// All returns a copy of every entry in catalogue order.
func (c *Catalogue) All() []Model {
	out := make([]Model, len(c.models))
	copy(out, c.models)
	return out
}
