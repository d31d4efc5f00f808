package blockchain

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/Haithedotai/core/pkg/config"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"go.uber.org/zap"
)

var (
	// HashPrefix32Bytes is the standard Ethereum personal-sign prefix for 32-byte
	// messages: "\x19Ethereum Signed Message:\n32".
	// See Geth reference:
	// https://github.com/ethereum/go-ethereum/blob/bf468a81ec261745b25206b2a596eb0ee0a24a74/internal/ethapi/api.go#L361
	HashPrefix32Bytes = []byte("\x19Ethereum Signed Message:\n32")

	// ErrNoWallet is returned by write operations on a client without a key.
	ErrNoWallet = errors.New("private key is required for transactions")
)

// Backend is the subset of ethclient.Client the EVM client relies on.
type Backend interface {
	bind.ContractBackend
	HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error)
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
}

// EVMClient holds a connected backend and typed bindings for the Haithe
// contracts: the orchestrator that collects payments and the tUSDT token that
// holds organization balances. Organization contracts are bound on demand.
type EVMClient struct {
	Client       Backend
	Orchestrator *HaitheOrchestrator
	Token        *TUSDT

	chainID  *big.Int
	wallet   *ecdsa.PrivateKey
	timeouts config.Timeouts

	// txMu serializes submissions from the platform wallet so concurrent
	// requests never reuse a pending nonce.
	txMu sync.Mutex
}

// InitEvm dials cfg.RPCAddr and binds the orchestrator and token contracts
// at the addresses listed in defs. The platform wallet is parsed from
// cfg.PrivateKey; an empty key yields a read-only client.
func InitEvm(cfg *config.Config, defs Definitions) (*EVMClient, error) {
	timeouts := cfg.Timeouts.WithDefaults()

	ctx, cancel := context.WithTimeout(context.Background(), timeouts.Dial)
	defer cancel()

	client, err := ethclient.DialContext(ctx, cfg.RPCAddr)
	if err != nil {
		zap.L().Error("Failed to ethdial", zap.Error(err))
		return nil, err
	}

	chainID, ok := new(big.Int).SetString(cfg.Network.ChainID, 10)
	if !ok {
		client.Close()
		return nil, fmt.Errorf("invalid chain id %q", cfg.Network.ChainID)
	}

	var wallet *ecdsa.PrivateKey
	if cfg.PrivateKey != "" {
		_, wallet, err = ParsePrivateKeyECDSA(cfg.PrivateKey)
		if err != nil {
			client.Close()
			return nil, fmt.Errorf("parse private key: %w", err)
		}
	}

	evm, err := NewEVMClient(client, defs, chainID, wallet, timeouts)
	if err != nil {
		client.Close()
		return nil, err
	}
	return evm, nil
}

// NewEVMClient binds the Haithe contracts on an existing backend.
func NewEVMClient(backend Backend, defs Definitions, chainID *big.Int, wallet *ecdsa.PrivateKey, timeouts config.Timeouts) (*EVMClient, error) {
	orchestratorAddr, err := defs.Address(ContractOrchestrator)
	if err != nil {
		return nil, err
	}
	tokenAddr, err := defs.Address(ContractToken)
	if err != nil {
		return nil, err
	}

	evm := &EVMClient{
		Client:   backend,
		chainID:  chainID,
		wallet:   wallet,
		timeouts: timeouts.WithDefaults(),
	}

	evm.Orchestrator, err = NewHaitheOrchestrator(orchestratorAddr, backend)
	if err != nil {
		return nil, fmt.Errorf("bind %s: %w", ContractOrchestrator, err)
	}

	evm.Token, err = NewTUSDT(tokenAddr, backend)
	if err != nil {
		return nil, fmt.Errorf("bind %s: %w", ContractToken, err)
	}

	return evm, nil
}

// WalletAddress returns the address of the platform wallet, or the zero
// address for a read-only client.
func (evm *EVMClient) WalletAddress() common.Address {
	if addr := GetAddressFromPrivateKeyECDSA(evm.wallet); addr != nil {
		return *addr
	}
	return common.Address{}
}

// Organization binds the HaitheOrganization contract deployed at addr.
func (evm *EVMClient) Organization(addr common.Address) (*HaitheOrganization, error) {
	return NewHaitheOrganization(addr, evm.Client)
}

// EnabledProducts returns the product addresses the organization contract
// has enabled, in contract order.
func (evm *EVMClient) EnabledProducts(ctx context.Context, org common.Address) ([]common.Address, error) {
	contract, err := evm.Organization(org)
	if err != nil {
		return nil, fmt.Errorf("bind %s: %w", ContractOrganization, err)
	}

	c, cancel := withTimeout(ctx, evm.timeouts.ChainRead)
	defer cancel()

	products, err := contract.GetEnabledProducts(&bind.CallOpts{Context: c})
	if err != nil {
		return nil, fmt.Errorf("getEnabledProducts: %w", err)
	}
	return products, nil
}

// CreatorID returns the orchestrator's id for a creator address. Zero means
// the creator is not registered.
func (evm *EVMClient) CreatorID(ctx context.Context, creator common.Address) (*big.Int, error) {
	c, cancel := withTimeout(ctx, evm.timeouts.ChainRead)
	defer cancel()

	id, err := evm.Orchestrator.Creators(&bind.CallOpts{Context: c}, creator)
	if err != nil {
		return nil, fmt.Errorf("creators: %w", err)
	}
	return id, nil
}

// TokenBalance returns the tUSDT balance of owner in the smallest unit.
func (evm *EVMClient) TokenBalance(ctx context.Context, owner common.Address) (*big.Int, error) {
	c, cancel := withTimeout(ctx, evm.timeouts.ChainRead)
	defer cancel()

	bal, err := evm.Token.BalanceOf(&bind.CallOpts{Context: c}, owner)
	if err != nil {
		return nil, fmt.Errorf("balanceOf: %w", err)
	}
	zap.L().Debug("Token balance", zap.String("owner", owner.Hex()), zap.String("balance", bal.String()))
	return bal, nil
}

// CollectPaymentForCall charges org amount on behalf of the creator with the
// given id and waits for the transaction to be mined.
func (evm *EVMClient) CollectPaymentForCall(ctx context.Context, org common.Address, creatorID, amount *big.Int) (*types.Receipt, error) {
	return evm.submit(ctx, "collectPaymentForCall", func(opts *bind.TransactOpts) (*types.Transaction, error) {
		return evm.Orchestrator.CollectPaymentForCall(opts, org, creatorID, org, amount)
	})
}

// CollectPaymentForLLMCall charges org amount for a model call and waits for
// the transaction to be mined.
func (evm *EVMClient) CollectPaymentForLLMCall(ctx context.Context, org common.Address, amount *big.Int) (*types.Receipt, error) {
	return evm.submit(ctx, "collectPaymentForLLMCall", func(opts *bind.TransactOpts) (*types.Transaction, error) {
		return evm.Orchestrator.CollectPaymentForLLMCall(opts, org, org, amount)
	})
}

// submit sends one transaction under txMu and waits for its receipt outside
// of the lock.
func (evm *EVMClient) submit(ctx context.Context, method string, send func(*bind.TransactOpts) (*types.Transaction, error)) (*types.Receipt, error) {
	if evm.wallet == nil {
		return nil, ErrNoWallet
	}

	opts, err := GetTransactOpts(evm.chainID, evm.wallet)
	if err != nil {
		return nil, err
	}

	submitCtx, cancel := withTimeout(ctx, evm.timeouts.ChainSubmit)
	defer cancel()
	opts.Context = submitCtx

	evm.txMu.Lock()
	tx, err := send(opts)
	evm.txMu.Unlock()
	if err != nil {
		zap.L().Error("Failed to submit transaction", zap.String("method", method), zap.Error(err))
		return nil, fmt.Errorf("%s: %w", method, err)
	}
	zap.L().Debug("Transaction submitted", zap.String("method", method), zap.String("tx", tx.Hash().Hex()))

	waitCtx, cancelWait := withTimeout(ctx, evm.timeouts.ReceiptWait)
	defer cancelWait()

	receipt, err := evm.WaitForTransaction(waitCtx, tx.Hash(), 8*time.Second)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", method, err)
	}
	return receipt, nil
}

// GetCurrentBlockNumberCtx returns the latest block number using the provided context.
func (evm *EVMClient) GetCurrentBlockNumberCtx(ctx context.Context) (*big.Int, error) {
	header, err := evm.Client.HeaderByNumber(ctx, nil)
	if err != nil {
		zap.L().Error("failed to get last block number", zap.Error(err))
		return nil, err
	}
	return header.Number, nil
}

// WaitForTransaction polls for a transaction receipt with exponential backoff,
// until receipt is available, context is done, or an error occurs. If maxBackoff
// is non-zero, backoff will not exceed it. It returns an error if the tx is reverted.
func (evm *EVMClient) WaitForTransaction(ctx context.Context, txHash common.Hash, maxBackoff time.Duration) (*types.Receipt, error) {
	backoff := 500 * time.Millisecond
	for {
		receipt, err := evm.Client.TransactionReceipt(ctx, txHash)
		switch {
		case err == nil:
			if receipt.Status == types.ReceiptStatusFailed {
				return nil, fmt.Errorf("tx reverted: %s", txHash)
			}
			return receipt, nil
		case errors.Is(err, ethereum.NotFound):
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
			if maxBackoff == 0 || backoff < maxBackoff {
				backoff *= 2
			}
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			return nil, err
		default:
			return nil, fmt.Errorf("receipt error: %w", err)
		}
	}
}

// withTimeout returns ctx unchanged if d <= 0, otherwise returns a child context with timeout d.
// The returned cancel function is always non-nil and should be called to release resources.
func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, d)
}
