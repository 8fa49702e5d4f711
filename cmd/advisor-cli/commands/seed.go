package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/phonepilot/advisor-engine/cmd/advisor-cli/ui"
	"github.com/phonepilot/advisor-engine/internal/catalog"
)

var seedFile string

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Bulk-load the phone catalog from a JSON file",
	Long: `Seed reads a JSON array of phone records and inserts them into the
configured catalog database, creating the schema when absent.`,
	RunE: runSeed,
}

func init() {
	seedCmd.Flags().StringVarP(&seedFile, "file", "f", "", "path to the catalog JSON file (required)")
	seedCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(seedCmd)
}

func runSeed(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	ui.Init(noColor)

	data, err := os.ReadFile(seedFile)
	if err != nil {
		return fmt.Errorf("read seed file: %w", err)
	}

	var phones []catalog.Phone
	if err := json.Unmarshal(data, &phones); err != nil {
		return fmt.Errorf("parse seed file: %w", err)
	}
	if len(phones) == 0 {
		return fmt.Errorf("seed file %s contains no phones", seedFile)
	}

	r, err := newStoreRuntime(ctx)
	if err != nil {
		return err
	}
	defer r.Close()

	bar := ui.NewProgressBar(int64(len(phones)), "seeding catalog")
	inserted := 0
	for i := range phones {
		if err := r.store.Insert(ctx, &phones[i]); err != nil {
			bar.Finish()
			return fmt.Errorf("insert %s %s: %w", phones[i].Brand, phones[i].Model, err)
		}
		inserted++
		bar.Add(1)
	}
	bar.Finish()

	total, err := r.store.Count(ctx)
	if err != nil {
		return fmt.Errorf("count phones: %w", err)
	}

	ui.Success("inserted %d phones (%d total in catalog)", inserted, total)
	return nil
}
