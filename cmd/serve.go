package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/interview-coach/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the interview page in the browser",
	Run: func(_ *cobra.Command, _ []string) {
		serve()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringP("listen", "l", "", "address to listen on (default :8080)")

	viper.BindPFlag("listen", serveCmd.Flags().Lookup("listen"))
}

func serve() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	config, logger, service := setup(ctx)

	store := server.NewStore(config.Memory.MaxTurns, config.Session.TTL, logger)
	srv := server.New(service, store, logger)
	srv.SecureCookie = config.Session.SecureCookie

	logger.Info("starting the web interface",
		zap.String("listen", config.Listen),
		zap.Duration("session_ttl", config.Session.TTL),
	)

	if err := srv.ListenAndServe(ctx, config.Listen); err != nil {
		logger.Fatal("serving", zap.Error(err))
	}
}
