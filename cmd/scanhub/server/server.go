package server

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"scanhub/api/routes"
	"scanhub/internal/config"
	"scanhub/internal/notification"
	"scanhub/internal/services"
	"scanhub/pkg/adapters"
	"scanhub/pkg/admission"
	"scanhub/pkg/engine"
	"scanhub/pkg/executor"
	"scanhub/pkg/logger"
)

type ServerOpts struct {
	Port int
}

func NewServerCommand() *cobra.Command {
	serverConfig := &ServerOpts{}

	serverCmd := &cobra.Command{
		Use:   "server",
		Short: "Start the scanhub server",
		Long:  `Start the scanhub server exposing the scan orchestration API`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true

			cfg := config.LoadConfig()
			if cmd.Flags().Changed("port") {
				cfg.Port = serverConfig.Port
			}

			registry, err := adapters.LoadRegistry(cfg.ToolsConfigPath)
			if err != nil {
				return fmt.Errorf("failed to load tool definitions: %w", err)
			}

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			go func() {
				if err := registry.Watch(ctx, cfg.ToolsConfigPath); err != nil {
					logger.Errorf("Tool config watcher stopped: %v", err)
				}
			}()

			var admissionOpts []admission.Option
			if cfg.QueueDuplicates {
				admissionOpts = append(admissionOpts, admission.WithQueueDuplicates())
			}

			coordinator := engine.NewCoordinator(
				engine.WithRegistry(registry),
				engine.WithExecutor(executor.New(cfg.GracePeriod)),
				engine.WithAdmission(admission.New(cfg.MaxConcurrent, cfg.QueueDepth, admissionOpts...)),
				engine.WithTimeout(cfg.ScanTimeout),
			)

			var notifier *notification.NotificationClient
			if os.Getenv("DISCORD_TOKEN") != "" {
				notifier, err = notification.NewNotificationClient()
				if err != nil {
					logger.Errorf("Failed to initialize Discord client: %v", err)
				} else {
					defer notifier.Close()
					logger.Info("Discord notifications enabled")
				}
			} else {
				logger.Info("DISCORD_TOKEN not set - Discord notifications disabled")
			}

			scanService := services.NewScanService(coordinator, notifier)
			limiter := rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateBurst)

			router := routes.InitRouter(scanService, limiter)
			return router.Run(fmt.Sprintf(":%d", cfg.Port))
		},
	}

	serverCmd.Flags().IntVarP(&serverConfig.Port, "port", "p", 8080, "Port to run the server on")

	return serverCmd
}
