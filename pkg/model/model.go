package model

import (
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"gorm.io/gorm"
)

// Organization is the billing tenant. Expenditure is the cumulative amount
// charged in the smallest token unit and is only ever increased.
type Organization struct {
	ID          int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	UID         string    `gorm:"column:organization_uid;uniqueIndex;not null" json:"organization_uid"`
	Name        string    `gorm:"size:100" json:"name"`
	Address     string    `gorm:"size:42;not null" json:"address"`
	Owner       string    `gorm:"size:42;index;not null" json:"owner"`
	Expenditure int64     `gorm:"not null;default:0" json:"expenditure"`
	CreatedAt   time.Time `json:"created_at"`
}

// BeforeSave normalizes addresses.
func (o *Organization) BeforeSave(*gorm.DB) error {
	o.Address = NormalizeAddress(o.Address)
	o.Owner = NormalizeAddress(o.Owner)
	return nil
}

// GetAddress returns the organization contract address.
func (o *Organization) GetAddress() common.Address {
	return common.HexToAddress(o.Address)
}

// Project is a workspace under an organization. Enabled products are stored
// in ProjectProduct, not on the row itself.
type Project struct {
	ID            int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	UID           string    `gorm:"column:project_uid;uniqueIndex;not null" json:"project_uid"`
	OrgID         int64     `gorm:"index;not null" json:"org_id"`
	Name          string    `gorm:"size:100" json:"name"`
	SearchEnabled bool      `gorm:"not null;default:false" json:"search_enabled"`
	MemoryEnabled bool      `gorm:"not null;default:false" json:"memory_enabled"`
	DefaultModel  string    `gorm:"size:100" json:"default_model"`
	CreatedAt     time.Time `json:"created_at"`
}

// Product is a purchasable unit of context owned by a creator. URI points to
// an encrypted payload; EncryptedKey is stored for the marketplace and is not
// used when assembling knowledge.
type Product struct {
	ID           int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Address      string    `gorm:"size:42;uniqueIndex;not null" json:"address"`
	Name         string    `gorm:"size:200" json:"name"`
	Creator      string    `gorm:"size:42;index;not null" json:"creator"`
	Category     string    `gorm:"size:50;not null" json:"category"`
	PricePerCall int64     `gorm:"not null;default:0" json:"price_per_call"`
	URI          string    `gorm:"column:uri" json:"uri"`
	EncryptedKey string    `json:"encrypted_key"`
	CreatedAt    time.Time `json:"created_at"`
}

// BeforeSave normalizes addresses.
func (p *Product) BeforeSave(*gorm.DB) error {
	p.Address = NormalizeAddress(p.Address)
	p.Creator = NormalizeAddress(p.Creator)
	return nil
}

// Kind decodes the stored category tag.
func (p *Product) Kind() Category {
	return ParseCategory(p.Category)
}

// ProjectProduct records that a project has enabled a product.
type ProjectProduct struct {
	ProjectID int64 `gorm:"primaryKey"`
	ProductID int64 `gorm:"primaryKey"`
}

// TableName keeps the historical table name.
func (ProjectProduct) TableName() string { return "project_products_enabled" }

// Enrollment authorizes an organization to use a catalogue model.
type Enrollment struct {
	OrgID   int64 `gorm:"primaryKey"`
	ModelID int64 `gorm:"primaryKey"`
}

// TableName keeps the historical table name.
func (Enrollment) TableName() string { return "org_model_enrollments" }

// Account is a wallet known to the platform. APIKeyLastIssuedAt is the
// issued-at stamp embedded in the only currently valid API key.
type Account struct {
	WalletAddress      string     `gorm:"primaryKey;size:42" json:"wallet_address"`
	APIKeyLastIssuedAt *time.Time `json:"api_key_last_issued_at"`
	CreatedAt          time.Time  `json:"created_at"`
}

// BeforeSave normalizes the wallet address.
func (a *Account) BeforeSave(*gorm.DB) error {
	a.WalletAddress = NormalizeAddress(a.WalletAddress)
	return nil
}

// OrgRole and ProjectRole values.
const (
	RoleOwner     = "owner"
	RoleAdmin     = "admin"
	RoleDeveloper = "developer"
	RoleViewer    = "viewer"
)

// OrgMember grants a wallet a role inside an organization.
type OrgMember struct {
	OrgID         int64  `gorm:"primaryKey"`
	WalletAddress string `gorm:"primaryKey;size:42"`
	Role          string `gorm:"size:20;not null"`
}

func (m *OrgMember) BeforeSave(*gorm.DB) error {
	m.WalletAddress = NormalizeAddress(m.WalletAddress)
	return nil
}

// ProjectMember grants a wallet a role inside a project.
type ProjectMember struct {
	ProjectID     int64  `gorm:"primaryKey"`
	WalletAddress string `gorm:"primaryKey;size:42"`
	Role          string `gorm:"size:20;not null"`
}

func (m *ProjectMember) BeforeSave(*gorm.DB) error {
	m.WalletAddress = NormalizeAddress(m.WalletAddress)
	return nil
}

// CallEvent is an append-only record of a billable API call.
type CallEvent struct {
	ID            int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Type          string    `gorm:"size:100;index;not null" json:"type"`
	OrgID         *int64    `gorm:"index" json:"org_id,omitempty"`
	ProjectID     *int64    `gorm:"index" json:"project_id,omitempty"`
	WalletAddress string    `gorm:"size:42" json:"wallet_address,omitempty"`
	Metadata      string    `gorm:"type:text" json:"metadata,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// NormalizeAddress returns the EIP-55 checksum form of a hex address. Strings
// that are not valid hex addresses are returned trimmed and unchanged.
func NormalizeAddress(addr string) string {
	addr = strings.TrimSpace(addr)
	if !common.IsHexAddress(addr) {
		return addr
	}
	return common.HexToAddress(addr).Hex()
}
