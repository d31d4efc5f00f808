package blockchain

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
)

const testDefinitions = `{
  "tUSDT": {"abi": [], "address": "0x00000000000000000000000000000000000000aa"},
  "HaitheOrchestrator": {"abi": [], "address": "0x00000000000000000000000000000000000000bb"},
  "HaitheOrganization": {"abi": []}
}`

func TestLoadDefinitions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "definitions.json")
	if err := os.WriteFile(path, []byte(testDefinitions), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	defs, err := LoadDefinitions(path)
	if err != nil {
		t.Fatalf("LoadDefinitions: %v", err)
	}

	addr, err := defs.Address(ContractToken)
	if err != nil {
		t.Fatalf("Address(tUSDT): %v", err)
	}
	if addr != common.HexToAddress("0xaa") {
		t.Fatalf("unexpected token address %s", addr.Hex())
	}

	if _, err := defs.Address(ContractOrganization); err == nil {
		t.Fatal("organization has no fixed address")
	}
	_, err = defs.Address("Missing")
	if err == nil || !strings.Contains(err.Error(), "not defined") {
		t.Fatalf("expected not defined error, got %v", err)
	}
}

func TestLoadDefinitions_Errors(t *testing.T) {
	if _, err := LoadDefinitions(filepath.Join(t.TempDir(), "absent.json")); err == nil {
		t.Fatal("expected error for missing file")
	}
	if _, err := ParseDefinitions([]byte("{")); err == nil {
		t.Fatal("expected error for malformed json")
	}
}
