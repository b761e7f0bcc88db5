package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/newthinker/thrust/internal/collector/crypto"
	"github.com/spf13/cobra"
)

var (
	reportsSymbol string
	reportsJSON   bool
)

var reportsCmd = &cobra.Command{
	Use:   "reports",
	Short: "List backtest reports saved with --save",
	Args:  cobra.NoArgs,
	RunE:  runReports,
}

var reportsShowCmd = &cobra.Command{
	Use:   "show KEY",
	Short: "Show a saved backtest report",
	Args:  cobra.ExactArgs(1),
	RunE:  runReportsShow,
}

func init() {
	reportsCmd.Flags().StringVar(&reportsSymbol, "symbol", "", "Only list reports for this pair")
	reportsShowCmd.Flags().BoolVar(&reportsJSON, "json", false, "Print the report as JSON")

	reportsCmd.AddCommand(reportsShowCmd)
	rootCmd.AddCommand(reportsCmd)
}

func runReports(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	reports, err := newReports(cfg)
	if err != nil {
		return err
	}

	symbol := reportsSymbol
	if symbol != "" {
		if err := crypto.ValidateCryptoSymbol(symbol); err != nil {
			return err
		}
		symbol = crypto.NormalizeSymbol(symbol, cfg.Screener.Quote)
	}

	keys, err := reports.List(cmd.Context(), symbol)
	if err != nil {
		return err
	}
	for _, k := range keys {
		fmt.Fprintln(os.Stdout, k)
	}
	fmt.Fprintf(os.Stdout, "%d reports\n", len(keys))
	return nil
}

func runReportsShow(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	reports, err := newReports(cfg)
	if err != nil {
		return err
	}

	rep, err := reports.Load(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	if reportsJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(rep)
	}
	fmt.Fprintf(os.Stdout, "Saved:     %s\n", rep.CreatedAt.Format(timeLayout))
	return renderBacktest(os.Stdout, rep.Result, rep.Start, rep.End)
}
