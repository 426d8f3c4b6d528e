package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/kozaktomas/attendance-kiosk/internal/attendance"
	"github.com/kozaktomas/attendance-kiosk/internal/config"
	"github.com/kozaktomas/attendance-kiosk/internal/constants"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var classifyCmd = &cobra.Command{
	Use:   "classify <image>...",
	Short: "Classify images without recording attendance",
	Long: `Run the recognition step on one or more image files and report who the
model sees in each. Nothing is written to the attendance store.

Examples:
  # Classify a folder of test frames with 8 workers
  attendance-kiosk classify --concurrency 8 frames/*.jpg

  # Machine-readable output
  attendance-kiosk classify --json frame1.jpg frame2.jpg`,
	Args: cobra.MinimumNArgs(1),
	RunE: runClassify,
}

func init() {
	rootCmd.AddCommand(classifyCmd)

	classifyCmd.Flags().Int("concurrency", constants.DefaultConcurrency, "Number of parallel workers")
	classifyCmd.Flags().Float64("threshold", 0, "Confidence threshold override (0 = manifest/config)")
	classifyCmd.Flags().Bool("json", false, "Output as JSON")
}

// ClassifyResult is the outcome for one image.
type ClassifyResult struct {
	File       string                 `json:"file"`
	Kind       attendance.OutcomeKind `json:"kind"`
	Identity   string                 `json:"identity,omitempty"`
	Label      string                 `json:"label,omitempty"`
	Confidence float64                `json:"confidence"`
	Error      string                 `json:"error,omitempty"`
}

// ClassifySummary is the --json output of the classify command.
type ClassifySummary struct {
	Results    []ClassifyResult `json:"results"`
	Recognized map[string]int   `json:"recognized"`
	Failed     int              `json:"failed"`
}

func runClassify(cmd *cobra.Command, args []string) error {
	concurrency := max(mustGetInt(cmd, "concurrency"), 1)
	jsonOutput := mustGetBool(cmd, "json")

	cfg := config.Load()
	if err := applyThresholdFlag(cmd, cfg); err != nil {
		return err
	}

	ctx := context.Background()
	rt, err := newKioskRuntime(ctx, cfg, false)
	if err != nil {
		return err
	}
	defer rt.close()

	// Fail fast on a broken model instead of once per image.
	m, err := rt.loader.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load model: %w", err)
	}
	if !jsonOutput {
		fmt.Printf("Model %s (%d labels), classifier %s\n", m.Name, len(m.Labels), rt.classifier.Name())
	}

	var bar *progressbar.ProgressBar
	if !jsonOutput {
		bar = progressbar.NewOptions(len(args),
			progressbar.OptionSetDescription("Classifying"),
			progressbar.OptionShowCount(),
			progressbar.OptionShowIts(),
			progressbar.OptionSetItsString("images"),
			progressbar.OptionShowElapsedTimeOnFinish(),
			progressbar.OptionFullWidth(),
		)
	}

	results := make([]ClassifyResult, len(args))
	g := new(errgroup.Group)
	g.SetLimit(concurrency)

	for i, path := range args {
		g.Go(func() error {
			results[i] = classifyFile(ctx, rt.service, path)
			if bar != nil {
				bar.Add(1)
			}
			return nil
		})
	}
	g.Wait()

	summary := ClassifySummary{Results: results, Recognized: make(map[string]int)}
	for _, r := range results {
		switch {
		case r.Identity != "":
			summary.Recognized[r.Identity]++
		case r.Error != "":
			summary.Failed++
		}
	}

	if jsonOutput {
		return outputJSON(summary)
	}

	fmt.Println()
	for _, r := range results {
		switch {
		case r.Identity != "":
			fmt.Printf("%-40s %s (%.3f)\n", filepath.Base(r.File), r.Identity, r.Confidence)
		case r.Error != "":
			fmt.Printf("%-40s %s: %s\n", filepath.Base(r.File), r.Kind, r.Error)
		default:
			fmt.Printf("%-40s not recognized (best %s %.3f)\n", filepath.Base(r.File), r.Label, r.Confidence)
		}
	}
	fmt.Printf("\nRecognized: %v, not recognized or failed: %d of %d\n",
		summary.Recognized, len(results)-sumCounts(summary.Recognized), len(results))
	printUsage(rt.classifier)
	return nil
}

func classifyFile(ctx context.Context, service *attendance.Service, path string) ClassifyResult {
	result := ClassifyResult{File: path}

	frame, err := os.ReadFile(path)
	if err != nil {
		result.Kind = attendance.OutcomeCaptureFailed
		result.Error = err.Error()
		return result
	}

	out, _ := service.Classify(ctx, frame)
	result.Kind = out.Kind
	result.Identity = out.Identity
	result.Label = out.Label
	result.Confidence = out.Confidence
	result.Error = out.Error
	return result
}

func sumCounts(counts map[string]int) int {
	total := 0
	for _, n := range counts {
		total += n
	}
	return total
}
