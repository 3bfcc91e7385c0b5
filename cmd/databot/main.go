package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "databot",
	Short: "Chat assistant with live weather, news, crypto, currency and stock data",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// .env опционален, переменные окружения важнее
		_ = godotenv.Load()
		return nil
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(newServeCmd(), newAskCmd(), newMigrateCmd())
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}
