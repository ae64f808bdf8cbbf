package main

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/clinicore/clinic-api/internal/pkg/config"
	"github.com/clinicore/clinic-api/pkg/logger"
)

const serviceName = "clinic-api"

// NewRootCmd creates the root command for the clinic API binary.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           serviceName,
		Short:         "Multi-tenant clinic backend",
		Long:          `Clinic API serves clinic signup, staff login and staff invitations.`,
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewMigrateCmd())

	return cmd
}

// bootstrap loads configuration from the environment and initialises the
// process logger from it.
func bootstrap(ctx context.Context) (*config.Config, zerolog.Logger, error) {
	cfg, err := config.Load(ctx)
	if err != nil {
		return nil, zerolog.Nop(), err
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.Pretty(),
		Service: serviceName,
	})
	return cfg, log, nil
}
