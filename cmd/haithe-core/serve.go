package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"

	"github.com/Haithedotai/core/pkg/auth"
	"github.com/Haithedotai/core/pkg/blockchain"
	"github.com/Haithedotai/core/pkg/config"
	"github.com/Haithedotai/core/pkg/llm"
	"github.com/Haithedotai/core/pkg/memory"
	"github.com/Haithedotai/core/pkg/model"
	"github.com/Haithedotai/core/pkg/pipeline"
	"github.com/Haithedotai/core/pkg/server"
	"github.com/Haithedotai/core/pkg/storage"
	"github.com/Haithedotai/core/pkg/store"
	"github.com/Haithedotai/core/pkg/tee"
)

var (
	migrate        bool
	healthInterval time.Duration
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the completion API over HTTP and gRPC",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return serve(ctx, cfg)
	},
}

func init() {
	serveCmd.Flags().BoolVar(&migrate, "migrate", false, "create or update the database schema before serving")
	serveCmd.Flags().DurationVar(&healthInterval, "health-interval", 15*time.Second, "how often the gRPC health status is refreshed")
}

func serve(ctx context.Context, cfg *config.Config) error {
	st, err := store.Open(cfg.Database)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer func() { _ = st.Close() }()
	if migrate {
		if err := st.Migrate(); err != nil {
			return fmt.Errorf("migrate database: %w", err)
		}
	}

	defs, err := blockchain.LoadDefinitions(cfg.ContractsFile)
	if err != nil {
		return err
	}
	evm, err := blockchain.InitEvm(cfg, defs)
	if err != nil {
		return fmt.Errorf("init chain client: %w", err)
	}
	if evm.WalletAddress() == (common.Address{}) {
		return errors.New("private key is required to collect payments and verify API keys")
	}

	cipher, err := tee.New(cfg.TEESecret)
	if err != nil {
		return fmt.Errorf("init cipher: %w", err)
	}

	probes := map[string]server.Probe{
		"database": st.Ping,
		"chain": func(ctx context.Context) error {
			_, err := evm.GetCurrentBlockNumberCtx(ctx)
			return err
		},
	}

	var mem memory.Store = memory.NewLocalStore(cfg.Pipeline.MemoryWindow)
	if cfg.Redis.Addr != "" {
		rdb, err := memory.DialRedis(ctx, cfg.Redis)
		if err != nil {
			return err
		}
		defer func() { _ = rdb.Close() }()
		mem = memory.NewRedisStore(rdb, cfg.Pipeline.MemoryWindow)
		probes["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
	}

	httpClient := &http.Client{}
	p, err := pipeline.New(pipeline.Deps{
		Store:     st,
		Chain:     evm,
		Storage:   storage.NewStorage(cfg.IpfsURL, cfg.LighthouseURL, cfg.Pipeline.MaxPayloadBytes),
		Cipher:    cipher,
		Catalogue: model.DefaultCatalogue(),
		Models:    llm.NewResolver(cfg.Providers, httpClient),
		Memory:    mem,
		Search:    llm.NewDuckDuckGo(httpClient),
	}, pipeline.OptionsFromConfig(cfg))
	if err != nil {
		return err
	}

	srv := server.New(server.Deps{
		Pipeline: p,
		Auth:     auth.NewAuthenticator(st, evm.WalletAddress()),
		Probes:   probes,
	})
	grpcSrv := server.NewGRPCServer()
	hs, err := srv.RegisterGRPC(grpcSrv)
	if err != nil {
		return fmt.Errorf("register gRPC services: %w", err)
	}

	httpLis, err := net.Listen("tcp", cfg.Server.HTTPAddr)
	if err != nil {
		return err
	}
	grpcLis, err := net.Listen("tcp", cfg.Server.GRPCAddr)
	if err != nil {
		_ = httpLis.Close()
		return err
	}

	zap.L().Info("Haithe core starting",
		zap.String("network", cfg.Network.Name),
		zap.String("wallet", evm.WalletAddress().Hex()),
		zap.String("http", httpLis.Addr().String()),
		zap.String("grpc", grpcLis.Addr().String()))

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return srv.Serve(ctx, httpLis) })
	g.Go(func() error {
		if err := grpcSrv.Serve(grpcLis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		srv.WatchHealth(ctx, hs, healthInterval)
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		hs.Shutdown()
		grpcSrv.GracefulStop()
		return nil
	})

	err = g.Wait()
	zap.L().Info("Haithe core stopped")
	return err
}
