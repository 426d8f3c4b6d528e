package cmd

import (
	"fmt"

	"github.com/kozaktomas/attendance-kiosk/internal/config"
	"github.com/spf13/cobra"
)

// mustGetFlag reads a flag registered in init(). A lookup error means the
// command and its flag set disagree, so it panics.
func mustGetFlag[T any](name string, get func(string) (T, error)) T {
	val, err := get(name)
	if err != nil {
		panic(fmt.Sprintf("flag error for --%s: %v", name, err))
	}
	return val
}

func mustGetBool(cmd *cobra.Command, name string) bool {
	return mustGetFlag(name, cmd.Flags().GetBool)
}

func mustGetInt(cmd *cobra.Command, name string) int {
	return mustGetFlag(name, cmd.Flags().GetInt)
}

func mustGetString(cmd *cobra.Command, name string) string {
	return mustGetFlag(name, cmd.Flags().GetString)
}

// applyThresholdFlag copies --threshold into cfg when it is set. Zero keeps
// the manifest/config threshold; anything outside (0, 1] is rejected.
func applyThresholdFlag(cmd *cobra.Command, cfg *config.Config) error {
	threshold := mustGetFlag("threshold", cmd.Flags().GetFloat64)
	switch {
	case threshold == 0:
		return nil
	case threshold < 0 || threshold > 1:
		return fmt.Errorf("--threshold must be between 0 and 1, got %g", threshold)
	}
	cfg.Classifier.Threshold = threshold
	return nil
}
