package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
	"google.golang.org/grpc/metadata"

	"github.com/Haithedotai/core/pkg/auth"
	"github.com/Haithedotai/core/pkg/blockchain"
	hgrpc "github.com/Haithedotai/core/pkg/grpc"
	"github.com/Haithedotai/core/pkg/model"
	"github.com/Haithedotai/core/pkg/store"
)

var apiKeyCmd = &cobra.Command{
	Use:   "apikey",
	Short: "Manage API keys",
}

var apiKeyIssueCmd = &cobra.Command{
	Use:   "issue <wallet-address>",
	Short: "Issue a new API key for a wallet, revoking the previous one",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if !common.IsHexAddress(args[0]) {
			return fmt.Errorf("invalid wallet address %q", args[0])
		}
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		_, serverKey, err := blockchain.ParsePrivateKeyECDSA(cfg.PrivateKey)
		if err != nil {
			return fmt.Errorf("parse private key: %w", err)
		}
		st, err := store.Open(cfg.Database)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer func() { _ = st.Close() }()

		wallet := common.HexToAddress(args[0])
		issuedAt := time.Now().UTC().Truncate(time.Second)
		key, err := auth.Issue(serverKey, wallet, issuedAt)
		if err != nil {
			return err
		}
		if err := st.SetAPIKeyIssuedAt(cmd.Context(), wallet.Hex(), issuedAt); err != nil {
			return err
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), key)
		return err
	},
}

var (
	showInactive bool
	maxPrice     string
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List the model catalogue with per-call prices",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		var limit *big.Int
		if maxPrice != "" {
			v, err := blockchain.ToSmallestUnit(maxPrice)
			if err != nil {
				return fmt.Errorf("invalid --max-price: %w", err)
			}
			limit = v
		}
		return printCatalogue(cmd.OutOrStdout(), model.DefaultCatalogue(), showInactive, limit)
	},
}

// printCatalogue writes the catalogue as a table. A non-nil maxPrice hides
// models priced above it.
func printCatalogue(w io.Writer, c *model.Catalogue, inactive bool, maxPrice *big.Int) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tPROVIDER\tACTIVE\tPRICE")
	for _, m := range c.All() {
		if !m.IsActive && !inactive {
			continue
		}
		if maxPrice != nil && new(big.Int).SetUint64(m.PricePerCall).Cmp(maxPrice) > 0 {
			continue
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%t\t%s\n", m.ID, m.Name, m.Provider, m.IsActive,
			blockchain.FromSmallestUnit(m.PricePerCall).String())
	}
	return tw.Flush()
}

var (
	callEndpoint string
	callAPIKey   string
	callOrg      string
	callProject  string
	callTimeout  time.Duration
)

var callCmd = &cobra.Command{
	Use:   "call <method> [json-body]",
	Short: "Call the completion gRPC service",
	Long: `Calls a method of the haithe.v1.Completions service and prints the
JSON response. The body defaults to {} and may be "-" to read stdin.

  haithe-core call Complete '{"model":"gemini-2.0-flash","messages":[{"role":"user","content":"hi"}]}'
  haithe-core call ListModels`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		body := []byte("{}")
		if len(args) == 2 {
			body = []byte(args[1])
			if args[1] == "-" {
				raw, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return err
				}
				body = raw
			}
		}
		if !json.Valid(body) {
			return fmt.Errorf("body is not valid JSON")
		}
		if callAPIKey == "" {
			callAPIKey = os.Getenv("HAITHE_API_KEY")
		}

		client, err := hgrpc.NewClient(callEndpoint, nil)
		if err != nil {
			return err
		}
		defer func() { _ = client.Close() }()

		ctx, cancel := context.WithTimeout(cmd.Context(), callTimeout)
		defer cancel()
		ctx = metadata.AppendToOutgoingContext(ctx,
			"authorization", "Bearer "+callAPIKey,
			strings.ToLower(auth.HeaderOrganization), callOrg,
			strings.ToLower(auth.HeaderProject), callProject)

		out, err := client.CallWithJSON(ctx, args[0], body)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), string(out))
		return err
	},
}

func init() {
	apiKeyCmd.AddCommand(apiKeyIssueCmd)
	modelsCmd.Flags().BoolVar(&showInactive, "all", false, "include inactive models")
	modelsCmd.Flags().StringVar(&maxPrice, "max-price", "", "hide models costing more than this many tokens per call")

	f := callCmd.Flags()
	f.StringVar(&callEndpoint, "endpoint", "localhost:9090", "gRPC endpoint; https:// selects TLS")
	f.StringVar(&callAPIKey, "api-key", "", "API key (default $HAITHE_API_KEY)")
	f.StringVar(&callOrg, "org", "", "organization UID")
	f.StringVar(&callProject, "project", "", "project UID")
	f.DurationVar(&callTimeout, "timeout", 2*time.Minute, "call deadline")
}
