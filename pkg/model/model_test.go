package model

import (
	"testing"
)

func TestParseCategory(t *testing.T) {
	tests := []struct {
		tag       string
		want      Category
		knowledge bool
	}{
		{tag: "knowledge:text", want: CategoryKnowledgeText, knowledge: true},
		{tag: "knowledge:html", want: CategoryKnowledgeHTML, knowledge: true},
		{tag: "knowledge:pdf", want: CategoryKnowledgePDF, knowledge: true},
		{tag: "knowledge:url", want: CategoryKnowledgeURL, knowledge: true},
		{tag: "promptset", want: CategoryPromptSet},
		{tag: "Knowledge:Text", want: CategoryUnknown},
		{tag: "knowledge:csv", want: CategoryUnknown},
		{tag: "", want: CategoryUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.tag, func(t *testing.T) {
			got := ParseCategory(tt.tag)
			if got != tt.want {
				t.Fatalf("ParseCategory(%q) = %v, want %v", tt.tag, got, tt.want)
			}
			if got.IsKnowledge() != tt.knowledge {
				t.Fatalf("IsKnowledge() = %v, want %v", got.IsKnowledge(), tt.knowledge)
			}
		})
	}
}

func TestCategoryString(t *testing.T) {
	if got := CategoryKnowledgePDF.String(); got != "knowledge:pdf" {
		t.Fatalf("String() = %q", got)
	}
	if got := CategoryUnknown.String(); got != "unknown" {
		t.Fatalf("String() = %q", got)
	}
}

func TestProductKind(t *testing.T) {
	p := &Product{Category: "promptset"}
	if p.Kind() != CategoryPromptSet {
		t.Fatalf("Kind() = %v", p.Kind())
	}
}

func TestNormalizeAddress(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "lowercase",
			in:   "0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed",
			want: "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed",
		},
		{
			name: "already checksummed with spaces",
			in:   "  0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed ",
			want: "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed",
		},
		{
			name: "not an address",
			in:   " hello ",
			want: "hello",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeAddress(tt.in); got != tt.want {
				t.Fatalf("NormalizeAddress(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestCatalogueLookup(t *testing.T) {
	c := DefaultCatalogue()

	m, ok := c.ByName("gemini-2.0-flash-lite")
	if !ok {
		t.Fatal("gemini-2.0-flash-lite missing")
	}
	if m.ID != 2 || !m.IsActive || m.Provider != ProviderGoogle {
		t.Fatalf("unexpected entry %+v", m)
	}
	if m.PricePerCall != 100_000_000_000_000 {
		t.Fatalf("price = %d, want 1e14", m.PricePerCall)
	}

	if _, ok := c.ByName("Gemini-2.0-Flash"); ok {
		t.Fatal("lookup must be case sensitive")
	}

	k, ok := c.ByID(15)
	if !ok || k.Name != "moonshotai/kimi-k2-instruct" {
		t.Fatalf("ByID(15) = %+v, %v", k, ok)
	}
	if k.PricePerCall != 5_000_000_000_000_000 {
		t.Fatalf("kimi price = %d", k.PricePerCall)
	}
}

func TestCatalogueAllIsCopy(t *testing.T) {
	c := DefaultCatalogue()
	all := c.All()
	if len(all) != 15 {
		t.Fatalf("len = %d, want 15", len(all))
	}
	all[0].Name = "mutated"
	if m, _ := c.ByID(1); m.Name != "gemini-2.0-flash" {
		t.Fatal("All() must not expose internal storage")
	}
}
