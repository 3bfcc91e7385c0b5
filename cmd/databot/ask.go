package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kitbuilder587/databot/internal/domain"
	"github.com/kitbuilder587/databot/internal/service"
)

func newAskCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "ask <query...>",
		Short: "Route one query to the data sources and print the result",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAsk(cmd.Context(), cmd.OutOrStdout(), strings.Join(args, " "), asJSON)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print results as JSON")
	return cmd
}

func runAsk(ctx context.Context, out io.Writer, query string, asJSON bool) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	// метрики в CLI никуда не отдаются
	stack, err := buildDataStack(ctx, cfg, logger, nil)
	if err != nil {
		return err
	}
	defer stack.Close()

	svc := service.NewSearchService(service.SearchServiceDeps{
		Router:    stack.router,
		Providers: stack.providers,
		Logger:    logger,
	})
	resp, err := svc.Search(ctx, &domain.QueryRequest{UserID: "cli", Text: query})
	if err != nil {
		return err
	}

	return printAnswer(out, resp, asJSON, logger)
}

func printAnswer(out io.Writer, resp *domain.QueryResponse, asJSON bool, logger *zap.Logger) error {
	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(resp)
	}
	if resp.Formatted == "" {
		logger.Debug("no live data matched", zap.String("query", resp.Query))
		_, err := fmt.Fprintln(out, "No live data found for this query.")
		return err
	}
	_, err := fmt.Fprintln(out, resp.Formatted)
	return err
}
