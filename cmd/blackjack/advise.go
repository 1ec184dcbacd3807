package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/coder/quartz"
	"github.com/rs/zerolog"

	"github.com/lox/blackjackbot/internal/advisor"
	"github.com/lox/blackjackbot/solver/runtime"
)

type AdviseCmd struct {
	Policy  string   `help:"policy file or LevelDB directory" required:"" type:"path"`
	Log     string   `help:"CSV file recording every advised decision (empty disables)" default:"advisor_log.csv" type:"path"`
	History string   `help:"readline history file" type:"path"`
	Query   []string `arg:"" optional:"" help:"answer a single query, e.g. 'A,7 6', and exit"`
}

func (cmd *AdviseCmd) Run(ctx context.Context, logger zerolog.Logger) error {
	policy, err := runtime.Load(cmd.Policy)
	if err != nil {
		return fmt.Errorf("load policy: %w", err)
	}
	logger.Debug().Str("path", cmd.Policy).Str("run_id", policy.RunID()).Int("states", policy.Len()).Msg("policy loaded")

	var sessionLog *advisor.SessionLog
	if cmd.Log != "" {
		sessionLog, err = advisor.OpenSessionLog(cmd.Log)
		if err != nil {
			return err
		}
		defer sessionLog.Close()
	}
	session := advisor.NewSession(advisor.New(policy), sessionLog, quartz.NewReal())

	if len(cmd.Query) > 0 {
		out, _, err := session.Handle(strings.Join(cmd.Query, " "))
		if err != nil {
			return err
		}
		fmt.Println(out)
		return session.Flush()
	}

	history := cmd.History
	if history == "" {
		if home, err := os.UserHomeDir(); err == nil {
			history = filepath.Join(home, ".blackjack_history")
		}
	}
	shell, err := advisor.NewShell(session, history)
	if err != nil {
		return fmt.Errorf("start shell: %w", err)
	}
	runErr := shell.Run(ctx)
	closeErr := shell.Close()
	if errors.Is(runErr, context.Canceled) {
		runErr = nil
	}
	return errors.Join(runErr, closeErr)
}
