package store

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"

	"github.com/Haithedotai/core/pkg/config"
	"github.com/Haithedotai/core/pkg/model"
)

const (
	orgAddr     = "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed"
	ownerAddr   = "0xfB6916095ca1df60bB79Ce92cE3Ea74c37c5d359"
	devAddr     = "0xdbF03B407c01E7cD3CBea99509d93f8DDDC8C6FB"
	productAddr = "0xD1220A0cf47c7B9Be7A2E6BA89F429762e7b9aDb"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(config.Database{
		Driver: "sqlite",
		DSN:    "file:" + uuid.NewString() + "?mode=memory&cache=shared",
	})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

type fixture struct {
	org     model.Organization
	project model.Project
	product model.Product
}

func seed(t *testing.T, s *Store) fixture {
	t.Helper()
	db := s.DB()
	f := fixture{
		org: model.Organization{UID: "org-1", Name: "Acme", Address: "0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed", Owner: ownerAddr, Expenditure: 40},
	}
	if err := db.Create(&f.org).Error; err != nil {
		t.Fatal(err)
	}
	f.project = model.Project{UID: "proj-1", OrgID: f.org.ID, Name: "Bot", SearchEnabled: true}
	if err := db.Create(&f.project).Error; err != nil {
		t.Fatal(err)
	}
	f.product = model.Product{Address: productAddr, Name: "Docs", Creator: devAddr, Category: "knowledge:text", PricePerCall: 100, URI: "example.com/docs"}
	if err := db.Create(&f.product).Error; err != nil {
		t.Fatal(err)
	}
	rows := []any{
		&model.ProjectProduct{ProjectID: f.project.ID, ProductID: f.product.ID},
		&model.Enrollment{OrgID: f.org.ID, ModelID: 15},
		&model.Enrollment{OrgID: f.org.ID, ModelID: 2},
		&model.OrgMember{OrgID: f.org.ID, WalletAddress: "0xdbf03b407c01e7cd3cbea99509d93f8dddc8c6fb", Role: model.RoleAdmin},
		&model.ProjectMember{ProjectID: f.project.ID, WalletAddress: devAddr, Role: model.RoleDeveloper},
	}
	for _, r := range rows {
		if err := db.Create(r).Error; err != nil {
			t.Fatal(err)
		}
	}
	return f
}

func TestLookups(t *testing.T) {
	s := openTestStore(t)
	f := seed(t, s)
	ctx := context.Background()

	org, err := s.OrganizationByUID(ctx, "org-1")
	if err != nil {
		t.Fatalf("OrganizationByUID: %v", err)
	}
	if org.Address != orgAddr {
		t.Fatalf("address not normalized: %s", org.Address)
	}

	if _, err := s.OrganizationByUID(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing org: err = %v", err)
	}

	p, err := s.ProjectByUID(ctx, "proj-1")
	if err != nil || p.OrgID != f.org.ID || !p.SearchEnabled || p.MemoryEnabled {
		t.Fatalf("ProjectByUID = %+v, %v", p, err)
	}
	if _, err := s.ProjectByUID(ctx, "nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing project: err = %v", err)
	}

	ids, err := s.EnrolledModelIDs(ctx, f.org.ID)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]int64{2, 15}, ids); diff != "" {
		t.Fatalf("enrolled (-want +got):\n%s", diff)
	}

	addrs, err := s.ProjectProductAddresses(ctx, f.project.ID)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{productAddr}, addrs); diff != "" {
		t.Fatalf("project products (-want +got):\n%s", diff)
	}
}

func TestProductByAddress(t *testing.T) {
	s := openTestStore(t)
	f := seed(t, s)
	ctx := context.Background()

	got, err := s.ProductByAddress(ctx, productAddr)
	if err != nil || got.ID != f.product.ID || got.PricePerCall != 100 || got.Kind() != model.CategoryKnowledgeText {
		t.Fatalf("exact = %+v, %v", got, err)
	}

	// legacy lowercase row written without hooks
	legacy := "0x00000000000000000000000000000000000000aa"
	if err := s.DB().Exec("INSERT INTO products (address, name, creator, category, price_per_call, uri, encrypted_key, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
		legacy, "Legacy", devAddr, "promptset", 7, "example.com/p", "", time.Now()).Error; err != nil {
		t.Fatal(err)
	}
	got, err = s.ProductByAddress(ctx, "0x00000000000000000000000000000000000000AA")
	if err != nil || got.PricePerCall != 7 {
		t.Fatalf("fallback = %+v, %v", got, err)
	}

	if _, err := s.ProductByAddress(ctx, "0x0000000000000000000000000000000000000001"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing: err = %v", err)
	}
}

func TestAddExpenditure(t *testing.T) {
	s := openTestStore(t)
	f := seed(t, s)
	ctx := context.Background()

	before, err := s.AddExpenditure(ctx, f.org.ID, 100)
	if err != nil {
		t.Fatalf("AddExpenditure: %v", err)
	}
	if before != 40 {
		t.Fatalf("before = %d, want 40", before)
	}
	now, _ := s.Expenditure(ctx, f.org.ID)
	if now != 140 {
		t.Fatalf("expenditure = %d, want 140", now)
	}

	if _, err := s.AddExpenditure(ctx, 999, 1); !errors.Is(err, ErrNotFound) {
		t.Fatalf("unknown org: err = %v", err)
	}
	if _, err := s.AddExpenditure(ctx, f.org.ID, -1); err == nil {
		t.Fatal("negative increment accepted")
	}
}

func TestAddExpenditureConcurrent(t *testing.T) {
	s := openTestStore(t)
	f := seed(t, s)
	ctx := context.Background()

	const workers = 10
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		befores []int64
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			b, err := s.AddExpenditure(ctx, f.org.ID, 5)
			if err != nil {
				t.Errorf("AddExpenditure: %v", err)
				return
			}
			mu.Lock()
			befores = append(befores, b)
			mu.Unlock()
		}()
	}
	wg.Wait()

	sort.Slice(befores, func(i, j int) bool { return befores[i] < befores[j] })
	want := make([]int64, workers)
	for i := range want {
		want[i] = 40 + int64(i)*5
	}
	if diff := cmp.Diff(want, befores); diff != "" {
		t.Fatalf("pre-increment values (-want +got):\n%s", diff)
	}
	if now, _ := s.Expenditure(ctx, f.org.ID); now != 90 {
		t.Fatalf("expenditure = %d, want 90", now)
	}
}

func TestRecordEvent(t *testing.T) {
	s := openTestStore(t)
	f := seed(t, s)
	ctx := context.Background()

	ev := &model.CallEvent{Type: "api.call.gemini-2.0-flash", OrgID: &f.org.ID, ProjectID: &f.project.ID, WalletAddress: devAddr, Metadata: `{"cost":0}`}
	if err := s.RecordEvent(ctx, ev); err != nil {
		t.Fatal(err)
	}
	var n int64
	s.DB().Model(&model.CallEvent{}).Where("type = ?", ev.Type).Count(&n)
	if n != 1 {
		t.Fatalf("events = %d", n)
	}
}

func TestAccountsAndRoles(t *testing.T) {
	s := openTestStore(t)
	f := seed(t, s)
	ctx := context.Background()

	if _, err := s.Account(ctx, devAddr); !errors.Is(err, ErrNotFound) {
		t.Fatalf("account before issue: err = %v", err)
	}
	first := time.Unix(1_700_000_000, 0)
	if err := s.SetAPIKeyIssuedAt(ctx, "0xdbf03b407c01e7cd3cbea99509d93f8dddc8c6fb", first); err != nil {
		t.Fatal(err)
	}
	second := first.Add(time.Hour)
	if err := s.SetAPIKeyIssuedAt(ctx, devAddr, second); err != nil {
		t.Fatal(err)
	}
	acct, err := s.Account(ctx, devAddr)
	if err != nil {
		t.Fatal(err)
	}
	if acct.APIKeyLastIssuedAt == nil || acct.APIKeyLastIssuedAt.Unix() != second.Unix() {
		t.Fatalf("issued at = %v", acct.APIKeyLastIssuedAt)
	}

	tests := []struct {
		wallet string
		org    string
		proj   string
	}{
		{wallet: ownerAddr, org: model.RoleOwner},
		{wallet: devAddr, org: model.RoleAdmin, proj: model.RoleDeveloper},
		{wallet: orgAddr},
	}
	for _, tt := range tests {
		got, err := s.OrgRole(ctx, &f.org, tt.wallet)
		if err != nil || got != tt.org {
			t.Fatalf("OrgRole(%s) = %q, %v; want %q", tt.wallet, got, err, tt.org)
		}
		got, err = s.ProjectRole(ctx, f.project.ID, tt.wallet)
		if err != nil || got != tt.proj {
			t.Fatalf("ProjectRole(%s) = %q, %v; want %q", tt.wallet, got, err, tt.proj)
		}
	}
}

func TestOpenRejectsDriver(t *testing.T) {
	if _, err := Open(config.Database{Driver: "mysql"}); err == nil {
		t.Fatal("expected error")
	}
}
