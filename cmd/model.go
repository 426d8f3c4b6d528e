package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/kozaktomas/attendance-kiosk/internal/classifier"
	"github.com/kozaktomas/attendance-kiosk/internal/config"
	"github.com/spf13/cobra"
)

var modelCmd = &cobra.Command{
	Use:   "model",
	Short: "Model bundle operations",
}

var modelInfoCmd = &cobra.Command{
	Use:   "info [model.json]",
	Short: "Load and validate the model manifest",
	Long: `Load model.json from MODEL_URL (or the given location), apply defaults,
validate it and check that every weights shard is reachable.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runModelInfo,
}

func init() {
	rootCmd.AddCommand(modelCmd)
	modelCmd.AddCommand(modelInfoCmd)

	modelInfoCmd.Flags().Bool("json", false, "Output as JSON")
}

func runModelInfo(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	location := cfg.Model.URL
	if len(args) == 1 {
		location = args[0]
	}

	m, err := classifier.NewLoader(location, cfg.Defaults.Model).Load(context.Background())
	if err != nil {
		return fmt.Errorf("failed to load model: %w", err)
	}

	if mustGetBool(cmd, "json") {
		return outputJSON(m)
	}

	fmt.Printf("Model:     %s %s\n", m.Name, m.Version)
	fmt.Printf("Source:    %s\n", m.Source)
	if m.Format != "" {
		fmt.Printf("Format:    %s\n", m.Format)
	}
	fmt.Printf("Input:     %dx%dx%d (scale 1/%g)\n", m.Input.Width, m.Input.Height, m.Input.Channels, m.Input.Scale)
	fmt.Printf("Labels:    %s\n", strings.Join(m.Labels, ", "))
	fmt.Printf("Threshold: %.2f (effective %.2f)\n", m.Threshold, classifier.EffectiveThreshold(cfg.Classifier.Threshold, m))
	fmt.Printf("Weights:   %d shard(s)\n", len(m.Weights))
	return nil
}
