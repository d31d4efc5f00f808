package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/Haithedotai/core/pkg/apierr"
	"github.com/Haithedotai/core/pkg/config"
	"github.com/Haithedotai/core/pkg/llm"
	"github.com/Haithedotai/core/pkg/memory"
	"github.com/Haithedotai/core/pkg/model"
	"github.com/Haithedotai/core/pkg/payment"
	"github.com/Haithedotai/core/pkg/storage"
)

// MaxChoices is the largest n a request may ask for.
const MaxChoices = 5

// Store is the relational data the pipeline reads and the expenditure it
// updates. *store.Store implements it.
type Store interface {
	OrganizationByUID(ctx context.Context, uid string) (*model.Organization, error)
	ProjectByUID(ctx context.Context, uid string) (*model.Project, error)
	EnrolledModelIDs(ctx context.Context, orgID int64) ([]int64, error)
	ProjectProductAddresses(ctx context.Context, projectID int64) ([]string, error)
	ProductByAddress(ctx context.Context, address string) (*model.Product, error)
	Expenditure(ctx context.Context, orgID int64) (int64, error)
	AddExpenditure(ctx context.Context, orgID, amount int64) (int64, error)
	RecordEvent(ctx context.Context, ev *model.CallEvent) error
}

// Chain is the contract surface the pipeline uses. *blockchain.EVMClient
// implements it.
type Chain interface {
	payment.Chain
	EnabledProducts(ctx context.Context, org common.Address) ([]common.Address, error)
	TokenBalance(ctx context.Context, owner common.Address) (*big.Int, error)
}

// Decrypter opens product payloads. *tee.Cipher implements it.
type Decrypter interface {
	Decrypt(payload []byte) ([]byte, error)
}

// ModelResolver returns a provider client for a catalogue model.
// *llm.Resolver implements it.
type ModelResolver interface {
	Resolve(ctx context.Context, m model.Model) (llm.Client, error)
}

// Deps are the collaborators of a Pipeline. Memory and Search are optional;
// without them the project flags are ignored.
type Deps struct {
	Store     Store
	Chain     Chain
	Storage   storage.Reader
	Cipher    Decrypter
	Catalogue *model.Catalogue
	Models    ModelResolver
	Memory    memory.Store
	Search    llm.Searcher
}

// Options tune a Pipeline. Zero values are replaced by the config defaults.
type Options struct {
	FetchConcurrency int
	MaxTokens        int32
	Timeout          time.Duration
	FetchTimeout     time.Duration
	LLMTimeout       time.Duration
}

// OptionsFromConfig picks the pipeline knobs out of cfg.
func OptionsFromConfig(cfg *config.Config) Options {
	p := cfg.Pipeline.WithDefaults()
	t := cfg.Timeouts.WithDefaults()
	return Options{
		FetchConcurrency: p.FetchConcurrency,
		MaxTokens:        p.MaxTokens,
		Timeout:          t.Pipeline,
		FetchTimeout:     t.Fetch,
		LLMTimeout:       t.LLM,
	}
}

func (o Options) withDefaults() Options {
	p := config.Pipeline{FetchConcurrency: o.FetchConcurrency, MaxTokens: o.MaxTokens}.WithDefaults()
	t := config.Timeouts{Pipeline: o.Timeout, Fetch: o.FetchTimeout, LLM: o.LLMTimeout}.WithDefaults()
	return Options{
		FetchConcurrency: p.FetchConcurrency,
		MaxTokens:        p.MaxTokens,
		Timeout:          t.Pipeline,
		FetchTimeout:     t.Fetch,
		LLMTimeout:       t.LLM,
	}
}

// Pipeline runs metered completions.
type Pipeline struct {
	deps      Deps
	opts      Options
	collector *payment.Collector
	locks     *keyedMutex
}

// New checks deps and returns a Pipeline.
func New(deps Deps, opts Options) (*Pipeline, error) {
	switch {
	case deps.Store == nil:
		return nil, errors.New("pipeline: store is required")
	case deps.Chain == nil:
		return nil, errors.New("pipeline: chain client is required")
	case deps.Storage == nil:
		return nil, errors.New("pipeline: payload storage is required")
	case deps.Cipher == nil:
		return nil, errors.New("pipeline: cipher is required")
	case deps.Models == nil:
		return nil, errors.New("pipeline: model resolver is required")
	}
	if deps.Catalogue == nil {
		deps.Catalogue = model.DefaultCatalogue()
	}
	return &Pipeline{
		deps:      deps,
		opts:      opts.withDefaults(),
		collector: payment.NewCollector(deps.Chain),
		locks:     newKeyedMutex(),
	}, nil
}

// Complete runs one completion request end to end:
//
//  1. Resolve organization, project and model entitlement; validate n.
//  2. Intersect the on-chain and project-enabled products.
//  3. Fetch, decrypt and classify every product payload.
//  4. Resolve the provider client for the model.
//  5. Under the organization lock: check the token balance against the total
//     cost, collect the payments, then add the cost to the expenditure.
//  6. Run the model n times and record the call.
//
// Nothing is charged when steps 1 to 4 or the balance check fail. Payments
// that were mined before a later failure are not reversed.
//
// Errors are *apierr.Error values.
func (p *Pipeline) Complete(ctx context.Context, req *model.CompletionRequest) (*model.CompletionResult, error) {
	ctx, cancel := context.WithTimeout(ctx, p.opts.Timeout)
	defer cancel()

	log := zap.L().With(
		zap.String("orgUID", req.OrgUID),
		zap.String("projectUID", req.ProjectUID),
		zap.String("model", req.Model))
	run := &run{log: log, stage: StageStart}

	ent, err := p.resolveEntitlement(ctx, req)
	if err != nil {
		return nil, run.fail(err)
	}
	run.advance(StageEntitlementResolved)

	addrs, err := p.matchProducts(ctx, ent)
	if err != nil {
		return nil, run.fail(err)
	}
	run.advance(StageProductsMatched, zap.Int("products", len(addrs)))

	asm, err := p.assemble(ctx, addrs)
	if err != nil {
		return nil, run.fail(err)
	}
	run.advance(StageKnowledgeAssembled, zap.Int("documents", len(asm.Knowledge)))

	total, err := payment.TotalCost(ent.Model.PricePerCall, asm.Items)
	if err != nil {
		return nil, run.fail(apierr.Internal("Failed to compute cost", err))
	}

	client, err := p.deps.Models.Resolve(ctx, ent.Model)
	if err != nil {
		return nil, run.fail(apierr.Internal("Failed to initialize model", err))
	}

	before, err := p.charge(ctx, run, ent, asm, total)
	if err != nil {
		return nil, run.fail(err)
	}

	choices, prompt, err := p.execute(ctx, ent, asm, client, req)
	if err != nil {
		return nil, run.fail(err)
	}
	run.advance(StageCompleted, zap.Uint64("cost", total), zap.Int("choices", len(choices)))

	p.recordCall(ctx, ent, req, total)

	return &model.CompletionResult{
		Choices:            choices,
		TotalCost:          total,
		CurrentExpenditure: before,
		PromptTokens:       uint64(len(prompt)),
		OrgID:              ent.Org.ID,
		ProjectID:          ent.Project.ID,
	}, nil
}

// charge runs the balance check, the payments and the ledger update while
// holding the organization lock. It returns the expenditure before the charge.
func (p *Pipeline) charge(ctx context.Context, run *run, ent *Entitlement, asm *Assembly, total uint64) (uint64, error) {
	unlock, err := p.locks.Lock(ctx, ent.Org.ID)
	if err != nil {
		return 0, apierr.Internal("Request timed out waiting for organization", err)
	}
	defer unlock()

	orgAddr := ent.Org.GetAddress()
	spent, err := p.checkBalance(ctx, ent.Org, total)
	if err != nil {
		return 0, err
	}
	run.advance(StageBalanceChecked, zap.Uint64("cost", total), zap.Uint64("expenditure", spent))

	paid, err := p.collector.Collect(ctx, orgAddr, asm.Items, ent.Model.PricePerCall)
	if err != nil {
		if len(paid) > 0 {
			run.log.Warn("Payments mined before failure are not reversed", zap.Int("payments", len(paid)))
		}
		if errors.Is(err, payment.ErrInvalidCreator) {
			return 0, apierr.BadRequestf("Invalid creator address format", err)
		}
		if errors.Is(err, payment.ErrTransactionFailed) {
			return 0, apierr.BadRequestf("Transaction failed", err)
		}
		return 0, apierr.Internal("Failed to call contract method", err)
	}
	run.advance(StagePaymentsCollected, zap.Int("payments", len(paid)))

	before, err := p.commit(ctx, ent.Org, total)
	if err != nil {
		return 0, err
	}
	return before, nil
}

func (p *Pipeline) recordCall(ctx context.Context, ent *Entitlement, req *model.CompletionRequest, cost uint64) {
	meta, err := json.Marshal(map[string]any{
		"model":         ent.Model.Name,
		"cost":          cost,
		"message_count": len(req.Messages),
	})
	if err != nil {
		zap.L().Warn("Failed to encode call metadata", zap.Error(err))
		return
	}
	orgID, projectID := ent.Org.ID, ent.Project.ID
	ev := &model.CallEvent{
		Type:          fmt.Sprintf("api.call.%s", ent.Model.Name),
		OrgID:         &orgID,
		ProjectID:     &projectID,
		WalletAddress: req.Wallet,
		Metadata:      string(meta),
	}
	if err := p.deps.Store.RecordEvent(context.WithoutCancel(ctx), ev); err != nil {
		zap.L().Warn("Failed to record call event", zap.String("type", ev.Type), zap.Error(err))
	}
}
