package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/ethereum/go-ethereum/accounts/abi/abigen"
)

// bindings maps a definitions entry to the Go type name generated for it.
// The package under generation is not imported so a broken binding file can
// always be regenerated.
var bindings = []struct {
	contract string
	typeName string
}{
	{"HaitheOrchestrator", "HaitheOrchestrator"},
	{"HaitheOrganization", "HaitheOrganization"},
	{"tUSDT", "TUSDT"},
}

type definitions map[string]struct {
	ABI json.RawMessage `json:"abi"`
}

func main() {
	root, err := moduleRoot()
	if err != nil {
		log.Fatalf("Failed to locate module root: %v", err)
	}

	defsPath := flag.String("definitions", filepath.Join(root, "definitions.json"), "definitions file written by the deploy script")
	flag.Parse()

	raw, err := os.ReadFile(*defsPath)
	if err != nil {
		log.Fatalf("Failed to read definitions: %v", err)
	}
	var defs definitions
	if err := json.Unmarshal(raw, &defs); err != nil {
		log.Fatalf("Failed to parse definitions: %v", err)
	}

	types := make([]string, 0, len(bindings))
	abis := make([]string, 0, len(bindings))
	bytecodes := make([]string, 0, len(bindings))
	for _, b := range bindings {
		def, ok := defs[b.contract]
		if !ok || len(def.ABI) == 0 {
			log.Fatalf("Definitions have no ABI for %s", b.contract)
		}
		types = append(types, b.typeName)
		abis = append(abis, string(def.ABI))
		bytecodes = append(bytecodes, "")
	}

	bindContent, err := abigen.Bind(types, abis, bytecodes, nil, "blockchain", nil, nil)
	if err != nil {
		log.Fatalf("Failed to generate binding: %v", err)
	}

	outPath := filepath.Join(root, "pkg", "blockchain", "haithe_contracts.go")
	if err := os.WriteFile(outPath, []byte(bindContent), 0o600); err != nil {
		log.Fatalf("Failed to write ABI binding: %v", err)
	}
}

func moduleRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for {
		if _, statErr := os.Stat(filepath.Join(dir, "go.mod")); statErr == nil {
			return dir, nil
		}
		next := filepath.Dir(dir)
		if next == dir {
			return "", fmt.Errorf("go.mod not found from %q", dir)
		}
		dir = next
	}
}
