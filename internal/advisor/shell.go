package advisor

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/chzyer/readline"
)

// Shell is the interactive front end of a Session.
type Shell struct {
	rl      *readline.Instance
	session *Session
	out     io.Writer
}

// NewShell sets up readline with completion for the shell commands.
func NewShell(session *Session, historyFile string) (*Shell, error) {
	completer := readline.NewPrefixCompleter(
		readline.PcItem("help"),
		readline.PcItem("rules"),
		readline.PcItem("quit"),
		readline.PcItem("result",
			readline.PcItem("w"),
			readline.PcItem("l"),
			readline.PcItem("p"),
		),
	)

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          session.styles.Prompt.Render("hand> "),
		HistoryFile:     historyFile,
		AutoComplete:    completer,
		InterruptPrompt: "^C",
		EOFPrompt:       "quit",
	})
	if err != nil {
		return nil, err
	}
	return &Shell{rl: rl, session: session, out: rl.Stdout()}, nil
}

// Close flushes pending advice and releases the terminal.
func (sh *Shell) Close() error {
	flushErr := sh.session.Flush()
	return errors.Join(flushErr, sh.rl.Close())
}

// Run reads lines until quit, EOF or cancellation.
func (sh *Shell) Run(ctx context.Context) error {
	fmt.Fprintln(sh.out, sh.session.styles.Info.Render("Type 'help' for usage."))
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		line, err := sh.rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			fmt.Fprintln(sh.out, sh.session.styles.Info.Render("Use 'quit' to exit"))
			continue
		} else if errors.Is(err, io.EOF) {
			return nil
		} else if err != nil {
			return err
		}

		out, quit, err := sh.session.Handle(line)
		if err != nil {
			fmt.Fprintln(sh.out, sh.session.styles.Error.Render("Error: "+err.Error()))
			continue
		}
		if out != "" {
			fmt.Fprintln(sh.out, out)
		}
		if quit {
			return nil
		}
	}
}
