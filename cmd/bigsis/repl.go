package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"bigsis-chat/internal/auth"
	"bigsis-chat/internal/bootstrap"
	"bigsis-chat/internal/constant"
	"bigsis-chat/internal/entity"
	"bigsis-chat/internal/presenter"
	"bigsis-chat/internal/service"
	"bigsis-chat/pkg/conversation"
	"bigsis-chat/pkg/events"

	"github.com/fatih/color"
)

type sendOutcome struct {
	res *service.ExchangeResult
	err error
}

// chatREPL drives one conversation from line input. While an answer streams,
// /new and /quit act at once and everything else waits its turn.
type chatREPL struct {
	chat        service.IChatbotService
	diagnostics service.IDiagnosticService
	sessions    *auth.TokenProvider
	store       *conversation.Store
	bus         *events.Bus

	out  io.Writer
	live *presenter.LiveText
	card *presenter.DiagnosticPresenter

	assistant *color.Color
	system    *color.Color
	warn      *color.Color
}

func newChatREPL(c *bootstrap.ChatContainer, out io.Writer, live *presenter.LiveText) *chatREPL {
	return &chatREPL{
		chat:        c.ChatService,
		diagnostics: c.DiagnosticService,
		sessions:    c.Sessions,
		store:       c.Store,
		bus:         c.Bus,
		out:         out,
		live:        live,
		card:        presenter.NewDiagnosticPresenter(out),
		assistant:   color.New(color.FgMagenta, color.Bold),
		system:      color.New(color.FgYellow),
		warn:        color.New(color.FgRed),
	}
}

func (r *chatREPL) run(ctx context.Context, in io.Reader) error {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	learning := subscribeLearning(ctx, r.bus)

	r.greet()

	var (
		pending <-chan sendOutcome
		queue   []string
	)
	for {
		for pending == nil && len(queue) > 0 {
			line := queue[0]
			queue = queue[1:]
			var quit bool
			if quit, pending = r.handle(ctx, line); quit {
				return nil
			}
		}
		if pending == nil && lines == nil {
			return nil
		}

		select {
		case <-ctx.Done():
			r.wait(pending)
			return nil

		case ev, ok := <-learning:
			if !ok {
				learning = nil
				continue
			}
			r.learningNotice(ev)

		case o := <-pending:
			pending = nil
			r.showResult(o)

		case line, ok := <-lines:
			if !ok {
				lines = nil
				continue
			}
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}
			if pending != nil && interrupts(line) {
				if quit, _ := r.handle(ctx, line); quit {
					r.wait(pending)
					return nil
				}
				continue
			}
			queue = append(queue, line)
		}
	}
}

func interrupts(line string) bool {
	cmd, _, _ := strings.Cut(line, " ")
	return cmd == "/new" || cmd == "/quit"
}

func (r *chatREPL) wait(pending <-chan sendOutcome) {
	if pending != nil {
		<-pending
		r.live.Discard()
		fmt.Fprintln(r.out)
	}
}

// handle runs a command or starts an exchange.
func (r *chatREPL) handle(ctx context.Context, line string) (bool, <-chan sendOutcome) {
	if !strings.HasPrefix(line, "/") {
		return false, r.send(ctx, line)
	}

	cmd, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)
	switch cmd {
	case "/quit":
		return true, nil
	case "/new":
		r.chat.Reset(arg)
		r.live.Discard()
		r.greet()
	case "/save":
		r.saveNotice(r.diagnostics.Save(ctx))
	case "/good":
		r.feedback(ctx, constant.FeedbackRatingUseful, arg)
	case "/bad":
		r.feedback(ctx, constant.FeedbackRatingNotUseful, arg)
	case "/token":
		r.signIn(arg)
	case "/logout":
		r.sessions.Clear()
		r.system.Fprintln(r.out, "Deconnecte.")
	default:
		r.warn.Fprintf(r.out, "Commande inconnue : %s\n", cmd)
	}
	return false, nil
}

func (r *chatREPL) send(ctx context.Context, text string) <-chan sendOutcome {
	done := make(chan sendOutcome, 1)
	r.assistant.Fprint(r.out, "BigSis : ")
	go func() {
		res, err := r.chat.Send(ctx, text)
		done <- sendOutcome{res: res, err: err}
	}()
	return done
}

func (r *chatREPL) showResult(o sendOutcome) {
	if o.err != nil {
		r.live.Discard()
		fmt.Fprintln(r.out)
		r.warn.Fprintln(r.out, o.err)
		return
	}

	switch o.res.Outcome {
	case service.OutcomeAbandoned:
		r.live.Discard()
		fmt.Fprintln(r.out)
		return
	case service.OutcomeFallback:
		r.live.Discard()
		fmt.Fprintln(r.out)
		r.warn.Fprintln(r.out, o.res.Text)
		return
	}

	r.live.Finish()
	fmt.Fprintln(r.out)
	if o.res.Diagnostic == nil {
		return
	}

	var breakdown *entity.ScoreBreakdown
	if score, ok := r.store.Score(); ok {
		breakdown = &score
	}
	r.card.Render(o.res.Diagnostic, r.store.Enrichment().Snapshot(), breakdown)
	r.system.Fprintln(r.out, "Ce diagnostic t'aide ? /good ou /bad. /save pour le garder.")
}

func (r *chatREPL) greet() {
	if turns := r.store.Turns(); len(turns) > 0 {
		r.assistant.Fprint(r.out, "BigSis : ")
		fmt.Fprintln(r.out, turns[0].Text)
	}
	if suggestions := r.chat.Suggestions(); len(suggestions) > 0 {
		r.system.Fprintf(r.out, "Suggestions : %s\n", strings.Join(suggestions, " | "))
	}
}

func (r *chatREPL) feedback(ctx context.Context, rating int, comment string) {
	if r.diagnostics.FeedbackGiven() {
		r.system.Fprintln(r.out, "Tu as deja donne ton avis sur ce diagnostic.")
		return
	}

	var note *string
	if comment != "" {
		note = &comment
	}
	res, err := r.diagnostics.SubmitFeedback(ctx, rating, note)
	if err != nil {
		r.warn.Fprintln(r.out, err)
		return
	}
	if res.Save != nil && res.Save.Status != service.SaveStatusSaved {
		r.saveNotice(*res.Save)
	}
	r.system.Fprintln(r.out, "Merci pour ton retour !")
}

func (r *chatREPL) saveNotice(res service.SaveResult) {
	switch res.Status {
	case service.SaveStatusSaved:
		r.system.Fprintf(r.out, "Diagnostic sauvegarde (%s).\n", res.Id)
	case service.SaveStatusAlreadySaved:
		r.system.Fprintln(r.out, "Ce diagnostic est deja sauvegarde.")
	case service.SaveStatusRedirect:
		r.system.Fprintf(r.out, "Connecte-toi pour sauvegarder : %s puis /token <jwt>\n", res.LoginURL)
	case service.SaveStatusNoDiagnostic:
		r.system.Fprintln(r.out, "Pas encore de diagnostic a sauvegarder.")
	default:
		r.warn.Fprintln(r.out, "La sauvegarde a echoue, reessaie plus tard.")
	}
}

func (r *chatREPL) signIn(token string) {
	session, err := auth.ParseToken(token, time.Now())
	if err != nil {
		r.warn.Fprintf(r.out, "Token refuse : %v\n", err)
		return
	}
	r.sessions.SetToken(token)
	r.system.Fprintf(r.out, "Connecte en tant que %s.\n", session.UserId)
}

func (r *chatREPL) learningNotice(ev events.Event) {
	name, _ := ev.Payload()["name"].(string)
	if name == "" {
		name, _ = ev.Payload()["slug"].(string)
	}
	r.system.Fprintf(r.out, "BigSis se documente sur %s, la fiche arrive bientot.\n", name)
}
