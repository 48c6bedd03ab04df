package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"ledger/internal/backend"
	"ledger/internal/cli"
	"ledger/internal/config"
	"ledger/internal/core"
	"ledger/internal/loader"
	"ledger/internal/log"
	"ledger/internal/vault"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(log.ComponentLoader)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(logger).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd(logger *log.Logger) *cobra.Command {
	var kindName, owner, file string
	cmd := &cobra.Command{
		Use:           "ledger-load",
		Short:         "Encrypt a JSON array of payloads and store it for one owner",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			kind, err := core.ParseKind(kindName)
			if err != nil {
				return err
			}
			if file == "" {
				file = fmt.Sprintf("data/%sData.json", kind)
			}
			return run(cmd.Context(), logger, kind, owner, file)
		},
	}
	cmd.Flags().StringVar(&kindName, "kind", "", "collection to load: income or expense")
	cmd.Flags().StringVar(&owner, "owner", "", "owner id the records are stored for")
	cmd.Flags().StringVar(&file, "file", "", "JSON array of payloads (default data/<kind>Data.json)")
	_ = cmd.MarkFlagRequired("kind")
	_ = cmd.MarkFlagRequired("owner")
	return cmd
}

func run(ctx context.Context, logger *log.Logger, kind core.Kind, owner, file string) error {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return err
	}
	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return err
	}
	store, err := backend.NewFactory(logger).CreateBackend(ctx, backendCfg)
	if err != nil {
		return err
	}
	if store.Cleanup != nil {
		defer store.Cleanup()
	}
	cipher, err := vault.New(vault.Config{Secret: cfg.SecretKey})
	if err != nil {
		return err
	}

	f, err := os.Open(file)
	if err != nil {
		return fmt.Errorf("open data file: %w", err)
	}
	defer f.Close()

	n, err := loader.New(store.Backend, cipher, logger).Load(ctx, kind, owner, f)
	if err != nil {
		return fmt.Errorf("load %s after %d records: %w", file, n, err)
	}
	logger.Info("Load complete", log.FieldFile, file, log.FieldKind, kind, log.FieldCount, n)
	return nil
}
