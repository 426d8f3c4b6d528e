package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "attendance-kiosk",
	Short: "A face recognition attendance kiosk",
	Long: `Attendance Kiosk captures a webcam frame, recognizes the face with an
image classification model (TensorFlow Serving or an LLM vision backend) and
records attendance for the recognized person.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
}

func initConfig() {
	// .env file is optional, don't fail if not found
	_ = godotenv.Load()
}
