package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/kozaktomas/attendance-kiosk/internal/config"
	"github.com/kozaktomas/attendance-kiosk/internal/web"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the kiosk web server",
	Long: `Start the attendance kiosk web server.
The server hosts the kiosk page (webcam preview, start button, status line),
the attendance API and, when MODEL_DIR exists, the model bundle under /model/.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().Int("port", 8080, "Port to listen on")
	serveCmd.Flags().String("host", "0.0.0.0", "Host to bind to")
}

// resolveServeHostPort resolves port and host from flags and environment variables.
func resolveServeHostPort(cmd *cobra.Command) (int, string) {
	port := mustGetInt(cmd, "port")
	host := mustGetString(cmd, "host")

	if envPort := os.Getenv("WEB_PORT"); envPort != "" {
		fmt.Sscanf(envPort, "%d", &port)
	}
	if envHost := os.Getenv("WEB_HOST"); envHost != "" {
		host = envHost
	}
	return port, host
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	ctx := context.Background()

	fmt.Printf("Connecting to %s attendance store...\n", cfg.Store.Backend)
	rt, err := newKioskRuntime(ctx, cfg, true)
	if err != nil {
		return err
	}
	defer rt.close()

	fmt.Printf("Classifier: %s, model: %s\n", rt.classifier.Name(), cfg.Model.URL)
	if len(cfg.Kafka.Brokers) > 0 {
		fmt.Printf("Publishing attendance events to Kafka topic %s\n", cfg.Kafka.Topic)
	}

	// Warm the manifest cache; a failure here is reported again per attempt.
	if _, err := rt.loader.Load(ctx); err != nil {
		fmt.Printf("Warning: failed to load model manifest: %v\n", err)
	}

	port, host := resolveServeHostPort(cmd)
	server := web.NewServer(cfg, port, host, rt.service, rt.loader)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Printf("Starting attendance kiosk on http://%s:%d\n", host, port)
	fmt.Println("Press Ctrl+C to stop")

	// Run returns after in-flight attempts finish, before rt.close releases
	// the store and the event publisher.
	if err := server.Run(ctx); err != nil {
		return fmt.Errorf("serving: %w", err)
	}
	fmt.Println("Server stopped")
	return nil
}
