package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/MarySophiaR/CuraNode-Healthcare-Hackathon/config"
	"github.com/MarySophiaR/CuraNode-Healthcare-Hackathon/core/ledger"
	"github.com/MarySophiaR/CuraNode-Healthcare-Hackathon/core/model"
	"github.com/MarySophiaR/CuraNode-Healthcare-Hackathon/infra/logger"
	"github.com/MarySophiaR/CuraNode-Healthcare-Hackathon/infra/store"
	"github.com/MarySophiaR/CuraNode-Healthcare-Hackathon/pkg/export"
)

var (
	exportFormat string
	exportOut    string
)

var exportCmd = &cobra.Command{
	Use:   "export <holder-id>",
	Short: "Export a holder's dispatch history as JSON or CSV",
	Args:  cobra.ExactArgs(1),
	RunE:  runExport,
}

func init() {
	exportCmd.Flags().StringVarP(&exportFormat, "format", "t", "json", "output format: json or csv")
	exportCmd.Flags().StringVarP(&exportOut, "output", "o", "-", "output file, - for stdout")
	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	st, err := store.Open(cfg.Store)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer func() { _ = st.Close() }()

	ctx := context.Background()
	led := ledger.New(st, logger.New("export"))
	if err := led.Load(ctx); err != nil {
		return fmt.Errorf("load ledger: %w", err)
	}

	var dispatches []model.Dispatch
	err = led.View(ctx, args[0], func(h *model.Hospital) {
		dispatches = append([]model.Dispatch(nil), h.Dispatches...)
	})
	if err != nil {
		return err
	}

	var out io.Writer = os.Stdout
	if exportOut != "-" {
		f, err := os.Create(exportOut)
		if err != nil {
			return err
		}
		defer func() { _ = f.Close() }()
		out = f
	}
	switch exportFormat {
	case "json":
		return export.WriteJSON(out, dispatches)
	case "csv":
		return export.WriteCSV(out, dispatches)
	default:
		return fmt.Errorf("unknown format %q", exportFormat)
	}
}
