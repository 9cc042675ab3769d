package cli

import (
	"github.com/spf13/cobra"

	"github.com/veranda-labs/concierge/internal/adapters/driven/querylog/sqlite"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent queries from the durable log",
	Args:  cobra.NoArgs,
	RunE:  runHistory,
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "maximum number of entries")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	log, err := sqlite.NewQueryLog(flagDataDir)
	if err != nil {
		return err
	}
	defer log.Close()

	entries, err := log.Recent(cmd.Context(), historyLimit)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		cmd.Println("no logged queries")
		return nil
	}
	for _, e := range entries {
		cmd.Printf("%s  [%s]  %q  %d results in %dms\n",
			e.CreatedAt.Format("2006-01-02 15:04:05"), e.Intent, e.Query, e.ResultCount, e.DurationMs)
	}
	return nil
}
