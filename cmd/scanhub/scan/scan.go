package scan

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"scanhub/pkg/adapters"
	"scanhub/pkg/admission"
	"scanhub/pkg/engine"
	"scanhub/pkg/executor"
	"scanhub/pkg/findings"
	"scanhub/pkg/logger"
	"scanhub/pkg/scanerr"
)

// Config holds one-shot scan invocation options
type Config struct {
	Target    string
	Kind      string
	Verbose   bool
	ToolsPath string
	Timeout   time.Duration
	Grace     time.Duration
}

// NewScanCommand creates the scan command: run a single scan from the CLI
// and print the normalized result.
func NewScanCommand() *cobra.Command {
	config := &Config{}

	scanCmd := &cobra.Command{
		Use:   "scan",
		Short: "Run a single scan against a target",
		Long:  `Run one scan of the given kind against a target and print the normalized findings as JSON`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true

			logLevel := logrus.InfoLevel
			if config.Verbose {
				logLevel = logrus.DebugLevel
			}
			appLogger := logger.NewLogger(logLevel)

			kind, ok := findings.ParseKind(config.Kind)
			if !ok {
				return fmt.Errorf("unknown scan kind %q (expected nmap, nuclei, or nikto)", config.Kind)
			}

			registry, err := adapters.LoadRegistry(config.ToolsPath)
			if err != nil {
				return fmt.Errorf("failed to load tool definitions: %w", err)
			}

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			sigChan := make(chan os.Signal, 1)
			signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
			go func() {
				sig := <-sigChan
				appLogger.WithFields(logger.Fields{
					"signal": sig.String(),
				}).Info("Received shutdown signal")
				cancel()
			}()

			coordinator := engine.NewCoordinator(
				engine.WithRegistry(registry),
				engine.WithExecutor(executor.New(config.Grace)),
				engine.WithAdmission(admission.New(1, 0)),
				engine.WithTimeout(config.Timeout),
			)

			result, err := coordinator.Execute(ctx, engine.ScanRequest{
				Target: config.Target,
				Kind:   kind,
			})
			if result != nil {
				printResult(result)
			}
			if err != nil {
				if errors.Is(err, scanerr.ErrTimeout) && result != nil {
					appLogger.WithError(err).Warnf("Scan timed out, %d partial findings printed", len(result.Findings))
				}
				return err
			}

			appLogger.Info("Scan finished")
			return nil
		},
	}

	scanCmd.Flags().StringVarP(&config.Target, "target", "t", "", "Target host or IP to scan (required)")
	scanCmd.Flags().StringVarP(&config.Kind, "kind", "k", "", "Scan kind: nmap, nuclei, or nikto (required)")
	scanCmd.Flags().BoolVarP(&config.Verbose, "verbose", "v", false, "Enable verbose logging")
	scanCmd.Flags().StringVar(&config.ToolsPath, "tools-config", "./config/tools.yaml", "Tool definition file path")
	scanCmd.Flags().DurationVar(&config.Timeout, "timeout", 2*time.Minute, "Wall-clock timeout for the scan")
	scanCmd.Flags().DurationVar(&config.Grace, "grace", 5*time.Second, "Grace period between SIGTERM and SIGKILL")

	scanCmd.MarkFlagRequired("target")
	scanCmd.MarkFlagRequired("kind")

	return scanCmd
}

func printResult(result *findings.ScanResult) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		logger.Errorf("Failed to encode result: %v", err)
	}
}

// NewListToolsCommand creates the list-tools command
func NewListToolsCommand() *cobra.Command {
	var toolsPath string
	var asYAML bool

	listToolsCmd := &cobra.Command{
		Use:   "list-tools",
		Short: "List configured tool definitions",
		Long:  `List the external tool definitions scanhub is configured to invoke`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true

			cfg, err := adapters.LoadToolsConfig(toolsPath)
			if err != nil {
				return err
			}

			if asYAML {
				out, err := yaml.Marshal(cfg)
				if err != nil {
					return err
				}
				fmt.Print(string(out))
				return nil
			}

			fmt.Println("Configured Tools:")
			fmt.Println("=================")
			for _, tool := range cfg.Tools {
				fmt.Printf("\n• %s\n", tool.Name)
				fmt.Printf("  Command: %s\n", tool.Command)
				fmt.Printf("  Args: %v\n", tool.Args)
				if len(tool.FatalExitCodes) > 0 {
					fmt.Printf("  Fatal exit codes: %v\n", tool.FatalExitCodes)
				}
			}
			return nil
		},
	}

	listToolsCmd.Flags().StringVar(&toolsPath, "tools-config", "./config/tools.yaml", "Tool definition file path")
	listToolsCmd.Flags().BoolVar(&asYAML, "yaml", false, "Print tool definitions as YAML")

	return listToolsCmd
}
