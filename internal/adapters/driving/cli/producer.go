package cli

import (
	"github.com/spf13/cobra"
)

var producerJSON bool

var producerCmd = &cobra.Command{
	Use:   "producer [producer-id] [text]",
	Short: "Ask a question as a listed business",
	Long: `Runs a producer-bound query: the plan always includes a guaranteed
self-lookup and the competitive analytics engine compares the producer
against its same-category peers.`,
	Args: cobra.ExactArgs(2),
	RunE: runProducer,
}

func init() {
	producerCmd.Flags().BoolVar(&producerJSON, "json", false, "output the full result as JSON")
	rootCmd.AddCommand(producerCmd)
}

func runProducer(cmd *cobra.Command, args []string) error {
	engine, closeAll, err := buildEngine(cmd.Context())
	if err != nil {
		return err
	}
	defer closeAll()

	result := engine.ProcessProducerQuery(cmd.Context(), args[1], args[0])
	return printResult(cmd, result, producerJSON)
}
