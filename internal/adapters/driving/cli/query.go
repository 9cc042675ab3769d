package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/veranda-labs/concierge/internal/core/domain"
)

var (
	queryUserID string
	queryJSON   bool
)

var queryCmd = &cobra.Command{
	Use:   "query [text]",
	Short: "Ask a free-text question",
	Long: `Runs one natural-language query through the full pipeline:
intent analysis, plan generation, multi-collection execution,
post-processing and response synthesis.`,
	Args: cobra.ExactArgs(1),
	RunE: runQuery,
}

func init() {
	queryCmd.Flags().StringVar(&queryUserID, "user", "", "user id for user-bound predicates")
	queryCmd.Flags().BoolVar(&queryJSON, "json", false, "output the full result as JSON")
	rootCmd.AddCommand(queryCmd)
}

func runQuery(cmd *cobra.Command, args []string) error {
	engine, closeAll, err := buildEngine(cmd.Context())
	if err != nil {
		return err
	}
	defer closeAll()

	result := engine.ProcessUserQuery(cmd.Context(), args[0], queryUserID)
	return printResult(cmd, result, queryJSON)
}

func printResult(cmd *cobra.Command, result domain.QueryResult, asJSON bool) error {
	if asJSON {
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return err
		}
		cmd.Println(string(data))
		return nil
	}

	cmd.Println(result.Response)
	if len(result.Profiles) > 0 {
		cmd.Println()
		for i, p := range result.Profiles {
			line := fmt.Sprintf("%d. %s (%s)", i+1, p.DisplayName, p.Type)
			if rating, ok := p.Attributes["rating"]; ok {
				line += fmt.Sprintf(" — note %v", rating)
			}
			cmd.Println(line)
		}
	}
	cmd.Printf("\n%d results in %dms [intent: %s]\n", result.ResultCount, result.ExecutionTimeMs, result.Intent)
	if result.Err != "" {
		cmd.Printf("warning: %s\n", result.Err)
	}
	return nil
}
