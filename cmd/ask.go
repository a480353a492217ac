package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/calctutor/internal/assistant"
	"github.com/abhisek/calctutor/internal/logging"
	"github.com/abhisek/calctutor/internal/render"
)

const askWidth = 80

var askCmd = &cobra.Command{
	Use:   "ask --name <student> <message>",
	Short: "Send one message and print the reply",
	Long: "Enrolls the student if needed, sends one message and prints the tutor's\n" +
		"reply. Markdown is rendered when stdout is a terminal and printed as it\n" +
		"streams otherwise.",
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		name, _ := cmd.Flags().GetString("name")
		if strings.TrimSpace(name) == "" {
			return errors.New("--name is required")
		}
		text := strings.Join(args, " ")

		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if err := logging.Init(cfg.Log, os.Stderr); err != nil {
			return err
		}
		defer logging.Close()

		d, closeDispatcher := newDispatcher(ctx, cfg)
		defer closeDispatcher()

		client := newChatClient(cfg)
		enrollment, err := client.Enroll(ctx, name)
		if err != nil {
			fmt.Fprintln(cmd.ErrOrStderr(), render.StartErrorText)
			return fmt.Errorf("enroll: %w", err)
		}

		turn, err := client.StartTurn(ctx, d, enrollment.ThreadID, text)
		if err != nil {
			fmt.Fprintln(cmd.ErrOrStderr(), render.ReplyErrorText)
			return fmt.Errorf("send: %w", err)
		}

		var p printer
		if render.IsOutputTTY() {
			p = newRenderedPrinter(cmd.OutOrStdout(), client.FileURL)
		} else {
			p = &streamPrinter{w: cmd.OutOrStdout(), fileURL: client.FileURL}
		}
		if err := turn.Run(ctx, p.print); err != nil {
			fmt.Fprintln(cmd.ErrOrStderr(), render.ReplyErrorText)
			return err
		}
		return nil
	},
}

func init() {
	askCmd.Flags().StringP("name", "n", "", "Student name")
}

type printer interface {
	print(ev assistant.Event)
}

// streamPrinter writes text as it arrives.
type streamPrinter struct {
	w       io.Writer
	fileURL func(string) string
}

func (p *streamPrinter) print(ev assistant.Event) {
	switch d := ev.Data.(type) {
	case *assistant.MessageDelta:
		if d.Text != "" {
			fmt.Fprint(p.w, d.Text)
		}
		if d.ImageFileID != "" {
			fmt.Fprintf(p.w, "\n![%s](%s)\n", d.ImageFileID, p.fileURL(d.ImageFileID))
		}
	case *assistant.MessageCompleted:
		fmt.Fprintln(p.w)
	}
}

// renderedPrinter prints each message once it is complete, as markdown.
type renderedPrinter struct {
	w       io.Writer
	t       *render.Transcript
	md      *render.Markdown
	printed int
}

func newRenderedPrinter(w io.Writer, fileURL func(string) string) *renderedPrinter {
	// A nil renderer prints raw markdown.
	md, _ := render.NewMarkdown(askWidth, "")
	return &renderedPrinter{w: w, t: render.NewTranscript(fileURL), md: md}
}

func (p *renderedPrinter) print(ev assistant.Event) {
	p.t.Apply(ev)
	if ev.Type != assistant.EventMessageCompleted {
		return
	}
	entries := p.t.Entries()
	for _, e := range entries[p.printed:] {
		switch e.Role {
		case render.RoleCode:
			fmt.Fprintln(p.w, render.NumberLines(e.Text))
			fmt.Fprintln(p.w)
		case render.RoleAssistant:
			fmt.Fprintln(p.w, p.md.Render(e.Text))
			fmt.Fprintln(p.w)
		}
	}
	p.printed = len(entries)
}
