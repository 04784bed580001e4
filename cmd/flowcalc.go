package main

import (
	"context"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "flowcalc",
		Short:         "Streaming balance, auction price and quadratic matching calculator",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(
		serveCmd(),
		balanceCmd(),
		priceCmd(),
		reclaimCmd(),
		impactCmd(),
		sqrtCmd(),
	)
	return root
}

func main() {
	if err := rootCmd().ExecuteContext(context.Background()); err != nil {
		log := zerolog.New(os.Stderr)
		log.Fatal().Err(err).Msg("flowcalc")
	}
}
