package payment

import (
	"context"
	"errors"
	"math"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

var org = common.HexToAddress("0x00000000000000000000000000000000000000Aa")

type call struct {
	method    string
	creatorID int64
	amount    uint64
}

// fakeChain records calls. Creator ids come from ids; failOn makes the n-th
// transaction (1-based) fail.
type fakeChain struct {
	ids    map[common.Address]int64
	failOn int
	calls  []call
	txs    int
}

func (f *fakeChain) CreatorID(_ context.Context, creator common.Address) (*big.Int, error) {
	return big.NewInt(f.ids[creator]), nil
}

func (f *fakeChain) tx(method string, creatorID int64, amount *big.Int) (*types.Receipt, error) {
	f.txs++
	if f.txs == f.failOn {
		return nil, errors.New("execution reverted")
	}
	f.calls = append(f.calls, call{method: method, creatorID: creatorID, amount: amount.Uint64()})
	return &types.Receipt{TxHash: common.BigToHash(big.NewInt(int64(f.txs))), Status: types.ReceiptStatusSuccessful}, nil
}

func (f *fakeChain) CollectPaymentForCall(_ context.Context, o common.Address, creatorID, amount *big.Int) (*types.Receipt, error) {
	if o != org {
		return nil, errors.New("wrong organization")
	}
	return f.tx("collectPaymentForCall", creatorID.Int64(), amount)
}

func (f *fakeChain) CollectPaymentForLLMCall(_ context.Context, o common.Address, amount *big.Int) (*types.Receipt, error) {
	if o != org {
		return nil, errors.New("wrong organization")
	}
	return f.tx("collectPaymentForLLMCall", 0, amount)
}

const (
	alice = "0x1111111111111111111111111111111111111111"
	bob   = "0x2222222222222222222222222222222222222222"
)

func TestTotalCost(t *testing.T) {
	tests := []struct {
		name    string
		model   uint64
		items   []Item
		want    uint64
		wantErr error
	}{
		{name: "model only", model: 5, want: 5},
		{name: "products and model", model: 5, items: []Item{{Amount: 100}, {Amount: 0}, {Amount: 7}}, want: 112},
		{name: "free", want: 0},
		{name: "overflow", model: math.MaxUint64, items: []Item{{Amount: 1}}, wantErr: ErrCostOverflow},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := TotalCost(tt.model, tt.items)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Fatalf("TotalCost = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestCollect(t *testing.T) {
	chain := &fakeChain{ids: map[common.Address]int64{common.HexToAddress(alice): 3}}
	items := []Item{
		{Product: "p1", Creator: alice, Amount: 100},
		{Product: "p2", Creator: bob, Amount: 50}, // unregistered creator
		{Product: "p3", Creator: alice, Amount: 0},
	}

	paid, err := NewCollector(chain).Collect(context.Background(), org, items, 9)
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}

	want := []call{
		{method: "collectPaymentForCall", creatorID: 3, amount: 100},
		{method: "collectPaymentForLLMCall", amount: 9},
	}
	if len(chain.calls) != len(want) {
		t.Fatalf("calls = %+v", chain.calls)
	}
	for i := range want {
		if chain.calls[i] != want[i] {
			t.Fatalf("call %d = %+v, want %+v", i, chain.calls[i], want[i])
		}
	}
	if len(paid) != 2 || paid[0].Product != "p1" || paid[1].Product != "" {
		t.Fatalf("paid = %+v", paid)
	}
}

func TestCollectFreeModelSkipsLLMPayment(t *testing.T) {
	chain := &fakeChain{ids: map[common.Address]int64{common.HexToAddress(alice): 1}}
	_, err := NewCollector(chain).Collect(context.Background(), org, []Item{{Product: "p", Creator: alice, Amount: 100}}, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(chain.calls) != 1 || chain.calls[0].method != "collectPaymentForCall" {
		t.Fatalf("calls = %+v", chain.calls)
	}
}

func TestCollectStopsOnFailure(t *testing.T) {
	chain := &fakeChain{
		ids:    map[common.Address]int64{common.HexToAddress(alice): 1, common.HexToAddress(bob): 2},
		failOn: 2,
	}
	items := []Item{
		{Product: "p1", Creator: alice, Amount: 10},
		{Product: "p2", Creator: bob, Amount: 20},
	}

	paid, err := NewCollector(chain).Collect(context.Background(), org, items, 5)
	if !errors.Is(err, ErrTransactionFailed) {
		t.Fatalf("err = %v, want ErrTransactionFailed", err)
	}
	// the first payment stays; the model payment is never attempted
	if len(paid) != 1 || paid[0].Product != "p1" {
		t.Fatalf("paid = %+v", paid)
	}
	if chain.txs != 2 {
		t.Fatalf("txs = %d, want 2", chain.txs)
	}
}

func TestCollectRejectsInvalidCreator(t *testing.T) {
	chain := &fakeChain{ids: map[common.Address]int64{common.HexToAddress(alice): 1}}
	items := []Item{
		{Product: "p1", Creator: alice, Amount: 10},
		{Product: "p2", Creator: "not-an-address", Amount: 20},
	}

	paid, err := NewCollector(chain).Collect(context.Background(), org, items, 5)
	if !errors.Is(err, ErrInvalidCreator) {
		t.Fatalf("err = %v, want ErrInvalidCreator", err)
	}
	if len(paid) != 0 || chain.txs != 0 {
		t.Fatalf("charged before validation: paid = %+v, txs = %d", paid, chain.txs)
	}
}
