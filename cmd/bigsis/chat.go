package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"bigsis-chat/internal/bootstrap"
	"bigsis-chat/internal/config"
	"bigsis-chat/internal/presenter"
	"bigsis-chat/internal/service"
	"bigsis-chat/internal/tracer"
	"bigsis-chat/pkg/events"

	"github.com/spf13/cobra"
)

var (
	chatZone  string
	chatToken string
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive diagnostic conversation",
	Long: `Chat with BigSis. Answers stream in as they are generated; when a
diagnostic is ready it is shown as a card with its badges and score.

In-chat commands:
  /new [zone]   start over, optionally on a zone (front, glabelle, pattes_oie, sillon_nasogenien)
  /save         save the current diagnostic to your account
  /good [note]  rate the diagnostic as useful
  /bad [note]   rate the diagnostic as not useful
  /token <jwt>  sign in with an access token
  /logout       forget the access token
  /quit         leave`,
	RunE: runChat,
}

func init() {
	chatCmd.Flags().StringVar(&chatZone, "zone", "", "Start the conversation on a zone (overrides BRAIN_ZONE)")
	chatCmd.Flags().StringVar(&chatToken, "token", "", "Access token (overrides BIGSIS_ACCESS_TOKEN)")
}

func runChat(cmd *cobra.Command, args []string) error {
	if chatZone != "" {
		cfg.Brain.Zone = chatZone
	}
	if chatToken != "" {
		cfg.Auth.AccessToken = chatToken
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	repl, container := newChatSession(cfg, cmd.OutOrStdout())
	defer container.Close()

	shutdownTracer := tracer.InitTracer(cfg.Tracing, container.Logger)
	defer shutdownTracer(context.Background())

	return repl.run(ctx, cmd.InOrStdin())
}

// newChatSession wires a REPL writing to out.
func newChatSession(cfg *config.Config, out io.Writer) (*chatREPL, *bootstrap.ChatContainer) {
	live := presenter.NewLiveText(out)
	container := bootstrap.NewChatContainer(cfg, service.WithTokenObserver(live.Write))
	return newChatREPL(container, out, live), container
}

func subscribeLearning(ctx context.Context, bus *events.Bus) <-chan events.Event {
	ch, err := bus.Subscribe(ctx, events.TypeLearningTriggered)
	if err != nil {
		return nil
	}
	return ch
}
