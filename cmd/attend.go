package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/kozaktomas/attendance-kiosk/internal/config"
	"github.com/spf13/cobra"
)

var attendCmd = &cobra.Command{
	Use:   "attend <image>",
	Short: "Record attendance from an image file",
	Long: `Run one attendance attempt using an image file as the webcam frame.
The attempt follows the kiosk procedure: load the model, classify the frame
and store a record when the top confidence reaches the threshold.

Use "-" to read the image from stdin.

Examples:
  attendance-kiosk attend frame.jpg
  attendance-kiosk attend --threshold 0.9 --json frame.jpg`,
	Args:         cobra.ExactArgs(1),
	SilenceUsage: true,
	RunE:         runAttend,
}

func init() {
	rootCmd.AddCommand(attendCmd)

	attendCmd.Flags().Float64("threshold", 0, "Confidence threshold override (0 = manifest/config)")
	attendCmd.Flags().Bool("json", false, "Output as JSON")
}

func readImageArg(path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(path)
}

func runAttend(cmd *cobra.Command, args []string) error {
	jsonOutput := mustGetBool(cmd, "json")

	cfg := config.Load()
	if err := applyThresholdFlag(cmd, cfg); err != nil {
		return err
	}

	frame, err := readImageArg(args[0])
	if err != nil {
		return fmt.Errorf("failed to read image: %w", err)
	}

	ctx := context.Background()
	rt, err := newKioskRuntime(ctx, cfg, true)
	if err != nil {
		return err
	}
	defer rt.close()

	out, err := rt.service.Attempt(ctx, frame)
	if err != nil {
		return err
	}

	if jsonOutput {
		if err := outputJSON(out); err != nil {
			return err
		}
	} else {
		fmt.Println(out.Status)
		if out.Label != "" {
			fmt.Printf("Top match: %s (%.3f, threshold %.2f)\n", out.Label, out.Confidence, out.Threshold)
		}
		if out.Recorded() {
			fmt.Printf("Record %s at %s\n", out.RecordID, out.Timestamp)
		}
		if out.Error != "" {
			fmt.Printf("Cause: %s\n", out.Error)
		}
		printUsage(rt.classifier)
	}

	if !out.Recorded() {
		return fmt.Errorf("attendance not recorded (%s)", out.Kind)
	}
	return nil
}
