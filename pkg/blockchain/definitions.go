package blockchain

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/ethereum/go-ethereum/common"
)

// Contract names as they appear in the definitions file.
const (
	ContractOrchestrator = "HaitheOrchestrator"
	ContractOrganization = "HaitheOrganization"
	ContractToken        = "tUSDT"
)

// Definition is one entry of the deployment definitions file. Address is
// empty for contracts deployed per tenant, such as HaitheOrganization.
type Definition struct {
	ABI     json.RawMessage `json:"abi,omitempty"`
	Address string          `json:"address,omitempty"`
}

// Definitions maps contract name to its deployment definition.
type Definitions map[string]Definition

// LoadDefinitions reads and decodes a definitions file written by the
// contracts deploy script.
func LoadDefinitions(path string) (Definitions, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read definitions: %w", err)
	}
	return ParseDefinitions(raw)
}

// ParseDefinitions decodes definitions from raw JSON.
func ParseDefinitions(raw []byte) (Definitions, error) {
	var defs Definitions
	if err := json.Unmarshal(raw, &defs); err != nil {
		return nil, fmt.Errorf("parse definitions: %w", err)
	}
	return defs, nil
}

// Address returns the deployed address of the named contract.
func (d Definitions) Address(name string) (common.Address, error) {
	def, ok := d[name]
	if !ok {
		return common.Address{}, fmt.Errorf("contract %s not defined", name)
	}
	if !common.IsHexAddress(def.Address) {
		return common.Address{}, fmt.Errorf("contract %s has invalid address %q", name, def.Address)
	}
	return common.HexToAddress(def.Address), nil
}
