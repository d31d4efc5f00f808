// Package store reads and updates the relational data the completion
// pipeline depends on: organizations, projects, products, model enrollments,
// accounts, memberships and the call event log.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/Haithedotai/core/pkg/config"
	"github.com/Haithedotai/core/pkg/model"
)

// ErrNotFound is returned when a looked-up row does not exist.
var ErrNotFound = errors.New("store: record not found")

// Store wraps a GORM handle.
type Store struct {
	db *gorm.DB
}

// Open connects with the configured driver and migrates the schema.
func Open(cfg config.Database) (*Store, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case "postgres":
		dialector = postgres.Open(cfg.DSN)
	case "sqlite":
		dialector = sqlite.Open(cfg.DSN)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if cfg.Driver == "sqlite" {
		// sqlite serializes writers anyway; one connection avoids SQLITE_BUSY
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("open database: %w", err)
		}
		sqlDB.SetMaxOpenConns(1)
	}

	s := New(db)
	if err := s.Migrate(); err != nil {
		return nil, err
	}
	zap.L().Debug("Database ready", zap.String("driver", cfg.Driver))
	return s, nil
}

// New wraps an existing handle without migrating.
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// DB exposes the underlying handle for fixtures and tooling.
func (s *Store) DB() *gorm.DB {
	return s.db
}

// Migrate creates or updates the tables the pipeline reads.
func (s *Store) Migrate() error {
	if err := s.db.AutoMigrate(
		&model.Organization{},
		&model.Project{},
		&model.Product{},
		&model.ProjectProduct{},
		&model.Enrollment{},
		&model.Account{},
		&model.OrgMember{},
		&model.ProjectMember{},
		&model.CallEvent{},
	); err != nil {
		return fmt.Errorf("schema migration failed: %w", err)
	}
	return nil
}

// Ping checks the connection.
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close releases the connection pool.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

// OrganizationByUID looks an organization up by its external UID.
func (s *Store) OrganizationByUID(ctx context.Context, uid string) (*model.Organization, error) {
	var org model.Organization
	if err := s.db.WithContext(ctx).Where("organization_uid = ?", uid).First(&org).Error; err != nil {
		return nil, notFound(err)
	}
	return &org, nil
}

// ProjectByUID looks a project up by its external UID.
func (s *Store) ProjectByUID(ctx context.Context, uid string) (*model.Project, error) {
	var p model.Project
	if err := s.db.WithContext(ctx).Where("project_uid = ?", uid).First(&p).Error; err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

// EnrolledModelIDs returns the catalogue ids the organization may use.
func (s *Store) EnrolledModelIDs(ctx context.Context, orgID int64) ([]int64, error) {
	var ids []int64
	err := s.db.WithContext(ctx).Model(&model.Enrollment{}).
		Where("org_id = ?", orgID).
		Order("model_id").
		Pluck("model_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("enrolled models of org %d: %w", orgID, err)
	}
	return ids, nil
}

// ProjectProductAddresses returns the addresses of the products the project
// has enabled.
func (s *Store) ProjectProductAddresses(ctx context.Context, projectID int64) ([]string, error) {
	var addrs []string
	err := s.db.WithContext(ctx).Model(&model.Product{}).
		Joins("JOIN project_products_enabled ppe ON ppe.product_id = products.id").
		Where("ppe.project_id = ?", projectID).
		Order("products.id").
		Pluck("products.address", &addrs).Error
	if err != nil {
		return nil, fmt.Errorf("enabled products of project %d: %w", projectID, err)
	}
	return addrs, nil
}

// ProductByAddress finds a product by address. Rows stored before addresses
// were normalized are matched case-insensitively.
func (s *Store) ProductByAddress(ctx context.Context, address string) (*model.Product, error) {
	var p model.Product
	db := s.db.WithContext(ctx)
	err := db.Where("address = ?", address).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		err = db.Where("LOWER(address) = ?", strings.ToLower(address)).First(&p).Error
	}
	if err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

// Expenditure returns the organization's cumulative expenditure.
func (s *Store) Expenditure(ctx context.Context, orgID int64) (int64, error) {
	var org model.Organization
	if err := s.db.WithContext(ctx).Select("expenditure").First(&org, orgID).Error; err != nil {
		return 0, notFound(err)
	}
	return org.Expenditure, nil
}

// AddExpenditure atomically increases the organization's expenditure by
// amount and returns the value it had before.
func (s *Store) AddExpenditure(ctx context.Context, orgID, amount int64) (int64, error) {
	if amount < 0 {
		return 0, fmt.Errorf("negative expenditure increment %d", amount)
	}
	var before int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.Organization{}).
			Where("id = ?", orgID).
			UpdateColumn("expenditure", gorm.Expr("expenditure + ?", amount))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		var org model.Organization
		if err := tx.Select("expenditure").First(&org, orgID).Error; err != nil {
			return err
		}
		before = org.Expenditure - amount
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("add expenditure to org %d: %w", orgID, err)
	}
	return before, nil
}

// RecordEvent appends to the call event log.
func (s *Store) RecordEvent(ctx context.Context, ev *model.CallEvent) error {
	if err := s.db.WithContext(ctx).Create(ev).Error; err != nil {
		return fmt.Errorf("record event %s: %w", ev.Type, err)
	}
	return nil
}

// Account returns the platform account of wallet.
func (s *Store) Account(ctx context.Context, wallet string) (*model.Account, error) {
	var a model.Account
	err := s.db.WithContext(ctx).Where("wallet_address = ?", model.NormalizeAddress(wallet)).First(&a).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &a, nil
}

// SetAPIKeyIssuedAt records issuedAt as the stamp of the only valid API key of
// wallet, creating the account when needed.
func (s *Store) SetAPIKeyIssuedAt(ctx context.Context, wallet string, issuedAt time.Time) error {
	issuedAt = issuedAt.UTC().Truncate(time.Second)
	acct := model.Account{WalletAddress: model.NormalizeAddress(wallet), APIKeyLastIssuedAt: &issuedAt}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "wallet_address"}},
		DoUpdates: clause.AssignmentColumns([]string{"api_key_last_issued_at"}),
	}).Create(&acct).Error
	if err != nil {
		return fmt.Errorf("save account %s: %w", wallet, err)
	}
	return nil
}

// OrgRole returns the role of wallet in the organization, RoleOwner for the
// owner, or "" when the wallet is not a member.
func (s *Store) OrgRole(ctx context.Context, org *model.Organization, wallet string) (string, error) {
	wallet = model.NormalizeAddress(wallet)
	if strings.EqualFold(org.Owner, wallet) {
		return model.RoleOwner, nil
	}
	var m model.OrgMember
	err := s.db.WithContext(ctx).Where("org_id = ? AND wallet_address = ?", org.ID, wallet).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("org role: %w", err)
	}
	return m.Role, nil
}

// ProjectRole returns the role of wallet in the project or "".
func (s *Store) ProjectRole(ctx context.Context, projectID int64, wallet string) (string, error) {
	var m model.ProjectMember
	err := s.db.WithContext(ctx).
		Where("project_id = ? AND wallet_address = ?", projectID, model.NormalizeAddress(wallet)).
		First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("project role: %w", err)
	}
	return m.Role, nil
}
