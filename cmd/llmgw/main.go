// Command llmgw issues requests against the configured LLM providers.
package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/harborml/gateway/client"
	"github.com/harborml/gateway/common"
	"github.com/harborml/gateway/config"
	"github.com/harborml/gateway/internal/logging"
	"github.com/harborml/gateway/models"
)

var (
	flagConfig     string
	flagVerbose    bool
	flagModel      string
	flagDimensions int
	flagFormat     string
	flagJSON       bool
)

func main() {
	// A local .env is optional.
	_ = godotenv.Load()

	root := &cobra.Command{
		Use:          "llmgw",
		Short:        "Issue requests against the configured LLM providers",
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVar(&flagConfig, "config", "", "path to a model list file")
	root.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable info logging")

	embedCmd := &cobra.Command{
		Use:   "embed [text]...",
		Short: "Generate embeddings for one or more input texts",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runEmbed,
	}
	embedCmd.Flags().StringVarP(&flagModel, "model", "m", "lodash/all-MiniLM-L6-v2", "provider/model string or model list alias")
	embedCmd.Flags().IntVar(&flagDimensions, "dimensions", 0, "requested vector dimensions (0 = provider default)")
	embedCmd.Flags().StringVar(&flagFormat, "encoding-format", "", "vector encoding format: float or base64")
	embedCmd.Flags().BoolVar(&flagJSON, "json", false, "print the full response as JSON")
	root.AddCommand(embedCmd)

	modelsCmd := &cobra.Command{
		Use:   "models",
		Short: "List the logical models defined in the model list file",
		RunE:  runModels,
	}
	root.AddCommand(modelsCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func newClient(cmd *cobra.Command) (*client.Client, error) {
	options := []client.ClientOption{}
	if flagVerbose {
		logger := logging.NewLogrusLogger()
		logger.SetLevel(common.InfoLevel)
		options = append(options, client.WithLogger(logger))
	}

	if flagConfig != "" {
		list, err := config.Load(flagConfig)
		if err != nil {
			return nil, err
		}
		options = append(options, client.WithModelList(list))
	}

	return client.NewClient(cmd.Context(), options...)
}

func runEmbed(cmd *cobra.Command, args []string) error {
	c, err := newClient(cmd)
	if err != nil {
		return err
	}
	defer c.Close()

	req := models.EmbeddingRequest{
		Model:          flagModel,
		Input:          args,
		Dimensions:     flagDimensions,
		EncodingFormat: models.EncodingFormat(flagFormat),
	}

	resp, err := c.GenerateEmbeddings(cmd.Context(), req)
	if err != nil {
		return err
	}

	if flagJSON {
		return json.NewEncoder(os.Stdout).Encode(resp)
	}

	for i, embedding := range resp.Data {
		fmt.Printf("[%d] %d dimensions\n", i, len(embedding.Vector))
	}
	if resp.Usage != nil {
		fmt.Printf("tokens: %d\n", resp.Usage.TotalTokens)
	}

	return nil
}

func runModels(cmd *cobra.Command, args []string) error {
	if flagConfig == "" {
		return fmt.Errorf("no model list file given, use --config")
	}

	list, err := config.Load(flagConfig)
	if err != nil {
		return err
	}

	for _, m := range list.Models {
		fmt.Printf("%s -> %s/%s\n", m.ModelName, m.Provider, m.Model)
	}

	return nil
}
