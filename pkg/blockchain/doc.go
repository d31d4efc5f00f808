// Package blockchain provides Go bindings and helpers to interact with the
// Haithe contracts on EVM chains.
//
// # Contracts
//
// Three contracts are involved in a metered completion:
//
// 1. HaitheOrchestrator:
//   - Maps creator addresses to numeric creator ids (creators)
//   - Moves tUSDT from an organization to a creator (collectPaymentForCall)
//   - Moves tUSDT from an organization to the platform (collectPaymentForLLMCall)
//
// 2. HaitheOrganization:
//   - Deployed once per organization, address stored off-chain
//   - Lists the products the organization has enabled (getEnabledProducts)
//
// 3. tUSDT:
//   - ERC-20 token, 18 decimals
//   - Holds organization balances (balanceOf)
//
// Orchestrator and token addresses come from the definitions file written by
// the deploy script:
//
//	{
//	  "HaitheOrchestrator": {"abi": [...], "address": "0x..."},
//	  "tUSDT":              {"abi": [...], "address": "0x..."},
//	  "HaitheOrganization": {"abi": [...]}
//	}
//
// # Client
//
//	defs, err := blockchain.LoadDefinitions(cfg.ContractsFile)
//	evm, err := blockchain.InitEvm(cfg, defs)
//
//	products, err := evm.EnabledProducts(ctx, orgAddr)
//	balance, err := evm.TokenBalance(ctx, orgAddr)
//
// Read calls are bounded by Timeouts.ChainRead. Write calls are signed with the
// platform wallet, bounded by Timeouts.ChainSubmit, and then wait for the
// receipt for at most Timeouts.ReceiptWait. A reverted transaction is an error.
// Submissions from one client are serialized so nonces are never reused.
//
// # Units
//
// ToSmallestUnit and FromSmallestUnit convert between whole tokens and the
// 18-decimal integer unit used on chain:
//
//	wei, _ := blockchain.ToSmallestUnit("0.0001") // 100000000000000
//	blockchain.FromSmallestUnit(wei)              // 0.0001
//
// # Signatures
//
// GetSignature signs with the Ethereum personal-sign scheme and RecoverSigner
// reverses it. Both are used for API keys.
//
// # Bindings
//
// haithe_contracts.go is generated from the definitions file by
// cmd/generate-contract-binds.
//
//go:generate go run ../../cmd/generate-contract-binds/main.go
package blockchain
