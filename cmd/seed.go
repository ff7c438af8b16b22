package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/MarySophiaR/CuraNode-Healthcare-Hackathon/config"
	"github.com/MarySophiaR/CuraNode-Healthcare-Hackathon/core/ledger"
	"github.com/MarySophiaR/CuraNode-Healthcare-Hackathon/core/model"
	"github.com/MarySophiaR/CuraNode-Healthcare-Hackathon/infra/logger"
	"github.com/MarySophiaR/CuraNode-Healthcare-Hackathon/infra/store"
)

var seedFile string

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Register hospitals from a JSON file into the store",
	RunE:  seed,
}

func init() {
	seedCmd.Flags().StringVarP(&seedFile, "file", "f", "hospitals.json", "hospitals JSON file")
	rootCmd.AddCommand(seedCmd)
}

func seed(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	raw, err := os.ReadFile(seedFile)
	if err != nil {
		return fmt.Errorf("read %s: %w", seedFile, err)
	}
	var hospitals []*model.Hospital
	if err := json.Unmarshal(raw, &hospitals); err != nil {
		return fmt.Errorf("parse %s: %w", seedFile, err)
	}

	st, err := store.Open(cfg.Store)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer func() { _ = st.Close() }()

	logg := logger.New("seed")
	led := ledger.New(st, logg)
	ctx := context.Background()
	for _, h := range hospitals {
		for _, pool := range []*model.Capacity{
			&h.Counters.Beds, &h.Counters.ICU, &h.Counters.Oxygen, &h.Counters.Ambulances,
		} {
			if pool.Available == 0 {
				pool.Available = pool.Total
			}
		}
		if err := led.Register(ctx, h); err != nil {
			return fmt.Errorf("register %s: %w", h.ID, err)
		}
		logg.Infof("registered holder %s (%s)", h.ID, h.Name)
	}
	logg.Infof("seeded %d holders", len(hospitals))
	return nil
}
