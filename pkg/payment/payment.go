package payment

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"
)

var (
	// ErrTransactionFailed marks a payment transaction that could not be sent
	// or was reverted.
	ErrTransactionFailed = errors.New("transaction failed")
	// ErrCostOverflow is returned when the summed prices do not fit in uint64.
	ErrCostOverflow = errors.New("total cost overflows")
	// ErrInvalidCreator is returned before any transaction when an item's
	// creator is not a hex address.
	ErrInvalidCreator = errors.New("invalid creator address")
)

// Chain is the orchestrator surface used to collect payments.
// *blockchain.EVMClient implements it.
type Chain interface {
	CreatorID(ctx context.Context, creator common.Address) (*big.Int, error)
	CollectPaymentForCall(ctx context.Context, org common.Address, creatorID, amount *big.Int) (*types.Receipt, error)
	CollectPaymentForLLMCall(ctx context.Context, org common.Address, amount *big.Int) (*types.Receipt, error)
}

// Item is one product charge. Amount is in the smallest token unit.
type Item struct {
	Product string
	Creator string
	Amount  uint64
}

// Payment is a mined charge. Product is empty for the model charge.
type Payment struct {
	Product   string
	CreatorID *big.Int
	Amount    uint64
	TxHash    common.Hash
}

// TotalCost returns modelPrice plus the amount of every item.
func TotalCost(modelPrice uint64, items []Item) (uint64, error) {
	total := modelPrice
	for _, it := range items {
		if it.Amount > math.MaxUint64-total {
			return 0, ErrCostOverflow
		}
		total += it.Amount
	}
	return total, nil
}

// Collector sends payment transactions one at a time.
type Collector struct {
	chain Chain
}

// NewCollector returns a Collector backed by chain.
func NewCollector(chain Chain) *Collector {
	return &Collector{chain: chain}
}

// Collect charges org for every item and then for the model. It returns the
// payments that were mined, in order, even when it fails part way. Creator
// addresses are checked before the first transaction.
func (c *Collector) Collect(ctx context.Context, org common.Address, items []Item, modelPrice uint64) ([]Payment, error) {
	for _, it := range items {
		if it.Amount > 0 && !common.IsHexAddress(it.Creator) {
			return nil, fmt.Errorf("%w: product %s: %q", ErrInvalidCreator, it.Product, it.Creator)
		}
	}

	var paid []Payment
	for _, it := range items {
		if it.Amount == 0 {
			continue
		}
		creator := common.HexToAddress(it.Creator)
		creatorID, err := c.chain.CreatorID(ctx, creator)
		if err != nil {
			return paid, fmt.Errorf("creator id of %s: %w", creator.Hex(), err)
		}
		if creatorID == nil || creatorID.Sign() == 0 {
			zap.L().Debug("Creator not registered, skipping payment",
				zap.String("product", it.Product),
				zap.String("creator", creator.Hex()))
			continue
		}

		amount := new(big.Int).SetUint64(it.Amount)
		receipt, err := c.chain.CollectPaymentForCall(ctx, org, creatorID, amount)
		if err != nil {
			return paid, fmt.Errorf("%w: product %s: %v", ErrTransactionFailed, it.Product, err)
		}
		p := Payment{Product: it.Product, CreatorID: creatorID, Amount: it.Amount, TxHash: receipt.TxHash}
		paid = append(paid, p)
		zap.L().Info("Product payment collected",
			zap.String("product", it.Product),
			zap.String("creatorId", creatorID.String()),
			zap.Uint64("cost", it.Amount),
			zap.String("txHash", receipt.TxHash.Hex()))
	}

	if modelPrice > 0 {
		amount := new(big.Int).SetUint64(modelPrice)
		receipt, err := c.chain.CollectPaymentForLLMCall(ctx, org, amount)
		if err != nil {
			return paid, fmt.Errorf("%w: model call: %v", ErrTransactionFailed, err)
		}
		paid = append(paid, Payment{Amount: modelPrice, TxHash: receipt.TxHash})
		zap.L().Info("Model payment collected",
			zap.Uint64("cost", modelPrice),
			zap.String("txHash", receipt.TxHash.Hex()))
	}

	return paid, nil
}
