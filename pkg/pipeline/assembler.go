package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Haithedotai/core/pkg/apierr"
	"github.com/Haithedotai/core/pkg/knowledge"
	"github.com/Haithedotai/core/pkg/model"
	"github.com/Haithedotai/core/pkg/payment"
	"github.com/Haithedotai/core/pkg/storage"
	"github.com/Haithedotai/core/pkg/store"
)

// Assembly is the context built from the enabled products.
type Assembly struct {
	Knowledge []knowledge.Document
	Preamble  string
	// Items has one entry per product, whatever its category.
	Items []payment.Item
}

// part is what one product contributes.
type part struct {
	doc     *knowledge.Document
	prompts []string
	item    payment.Item
}

// assemble loads every product concurrently and merges the parts in the
// order of addrs. The first failure cancels the remaining work.
func (p *Pipeline) assemble(ctx context.Context, addrs []string) (*Assembly, error) {
	parts := make([]part, len(addrs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.opts.FetchConcurrency)
	for i, addr := range addrs {
		g.Go(func() error {
			pt, err := p.loadProduct(gctx, addr)
			if err != nil {
				return err
			}
			parts[i] = pt
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	asm := &Assembly{}
	var preamble strings.Builder
	for _, pt := range parts {
		if pt.doc != nil {
			asm.Knowledge = append(asm.Knowledge, *pt.doc)
		}
		for _, prompt := range pt.prompts {
			preamble.WriteString(prompt)
			preamble.WriteByte('\n')
		}
		asm.Items = append(asm.Items, pt.item)
	}
	asm.Preamble = preamble.String()
	return asm, nil
}

func (p *Pipeline) loadProduct(ctx context.Context, addr string) (part, error) {
	product, err := p.deps.Store.ProductByAddress(ctx, addr)
	if errors.Is(err, store.ErrNotFound) {
		return part{}, apierr.Internal("Enabled product is not registered", err)
	}
	if err != nil {
		return part{}, apierr.Internal("Failed to load product", err)
	}
	if !common.IsHexAddress(product.Creator) {
		return part{}, apierr.BadRequest("Invalid creator address format")
	}

	pt := part{item: payment.Item{Product: addr, Creator: product.Creator, Amount: uint64(max(product.PricePerCall, 0))}}

	if product.URI == "" {
		return part{}, apierr.BadRequest("Product URI is empty")
	}
	if _, err := url.Parse(storage.EnsureProtocol(product.URI)); err != nil {
		return part{}, apierr.BadRequestf("Invalid URI format", err)
	}

	sealed, err := p.fetch(ctx, product.URI)
	if err != nil {
		return part{}, apierr.BadRequestf("Failed to fetch product data", err)
	}
	plain, err := p.deps.Cipher.Decrypt(sealed)
	if err != nil {
		return part{}, apierr.Internal("Failed to decrypt product data", err)
	}

	switch product.Kind() {
	case model.CategoryKnowledgeText:
		doc, err := knowledge.FromText(addr, plain)
		if err != nil {
			return part{}, apierr.BadRequestf("Product payload is not valid text", err)
		}
		pt.doc = &doc
	case model.CategoryKnowledgeHTML:
		doc, err := knowledge.FromHTML(addr, bytes.NewReader(plain), nil)
		if err != nil {
			return part{}, apierr.BadRequestf("Failed to parse HTML knowledge", err)
		}
		pt.doc = &doc
	case model.CategoryKnowledgePDF:
		doc, err := knowledge.FromPDF(addr, plain)
		if err != nil {
			return part{}, apierr.BadRequestf("Failed to parse PDF knowledge", err)
		}
		pt.doc = &doc
	case model.CategoryKnowledgeURL:
		doc, err := p.loadURLKnowledge(ctx, addr, plain)
		if err != nil {
			return part{}, err
		}
		pt.doc = &doc
	case model.CategoryPromptSet:
		if err := json.Unmarshal(plain, &pt.prompts); err != nil {
			return part{}, apierr.BadRequestf("Failed to parse prompts", err)
		}
	default:
		zap.L().Debug("Ignoring product with unknown category",
			zap.String("product", addr),
			zap.String("category", product.Category))
	}
	return pt, nil
}

// loadURLKnowledge fetches the page a knowledge:url payload points to.
func (p *Pipeline) loadURLKnowledge(ctx context.Context, addr string, plain []byte) (knowledge.Document, error) {
	raw := strings.TrimSpace(string(plain))
	if raw == "" {
		return knowledge.Document{}, apierr.BadRequest("URL string is empty")
	}
	target := storage.EnsureProtocol(raw)
	base, err := url.Parse(target)
	if err != nil || base.Host == "" {
		return knowledge.Document{}, apierr.BadRequestf("Invalid URL", err)
	}
	page, err := p.fetch(ctx, target)
	if err != nil {
		return knowledge.Document{}, apierr.BadRequestf("Failed to fetch URL content", err)
	}
	doc, err := knowledge.FromHTML(addr, bytes.NewReader(page), base)
	if err != nil {
		return knowledge.Document{}, apierr.BadRequestf("Failed to parse HTML knowledge", err)
	}
	return doc, nil
}

func (p *Pipeline) fetch(ctx context.Context, uri string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, p.opts.FetchTimeout)
	defer cancel()
	return p.deps.Storage.ReadFile(ctx, uri)
}
