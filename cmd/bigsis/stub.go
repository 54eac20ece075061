package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bigsis-chat/internal/bootstrap"
	"bigsis-chat/internal/pkg/logger"
	"bigsis-chat/internal/pkg/serverutils"
	"bigsis-chat/internal/server"
	"bigsis-chat/internal/tracer"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var (
	stubPort  string
	stubDelay time.Duration
	stubUser  string
)

var stubCmd = &cobra.Command{
	Use:   "stub",
	Short: "Serve a local stand-in for the BigSis brain",
	Long: `Serves the diagnostic stream and the diagnostic persistence endpoints
under /api/v1 with scripted answers and in-memory storage.

A development access token is printed at startup; pass it to
'bigsis chat --token' to save diagnostics and send feedback.`,
	RunE: runStub,
}

func init() {
	stubCmd.Flags().StringVar(&stubPort, "port", "", "Listen port (overrides STUB_PORT)")
	stubCmd.Flags().DurationVar(&stubDelay, "delay", 30*time.Millisecond, "Pause between streamed events")
	stubCmd.Flags().StringVar(&stubUser, "user", "", "User id of the printed token (random by default)")
}

func runStub(cmd *cobra.Command, args []string) error {
	if stubPort != "" {
		cfg.Stub.Port = stubPort
	}
	if stubUser == "" {
		stubUser = uuid.NewString()
	}

	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.IsProduction())
	defer sysLogger.Sync()

	shutdownTracer := tracer.InitTracer(cfg.Tracing, sysLogger)
	defer shutdownTracer(context.Background())

	token, err := serverutils.SignToken(cfg.Stub.JwtSecret, stubUser, 24*time.Hour)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	color.New(color.FgCyan).Fprintf(out, "Dev access token (user %s, 24h):\n", stubUser)
	color.New(color.FgGreen).Fprintf(out, "  %s\n", token)

	srv := server.New(cfg, bootstrap.NewStubContainer(cfg, sysLogger, stubDelay))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		_ = srv.Shutdown()
	}()

	return srv.Run()
}
