package main

import (
	"context"
	"errors"

	"github.com/alecthomas/kong"
	"github.com/rs/zerolog/log"

	"github.com/lox/blackjackbot/blackjack"
	"github.com/lox/blackjackbot/cmd/blackjack/shared"
	"github.com/lox/blackjackbot/solver"
)

// version is set by ldflags during build
var version = "dev"

// Globals are flags shared by every command.
type Globals struct {
	Debug    bool   `help:"enable debug logging"`
	JSONLogs bool   `name:"json-logs" help:"emit structured JSON logs"`
	Config   string `short:"c" help:"HCL, TOML or YAML config file; missing files fall back to defaults" default:"blackjack.hcl" type:"path"`
}

type CLI struct {
	Globals

	Version   kong.VersionFlag `short:"v" help:"Show version"`
	Train     TrainCmd         `cmd:"" help:"Train a policy by self-play"`
	Eval      EvalCmd          `cmd:"" help:"Measure the expected profit of a policy"`
	Advise    AdviseCmd        `cmd:"" help:"Interactive strategy advisor"`
	Weakspots WeakspotsCmd     `cmd:"" help:"List the decisions that lose the most"`
	Export    ExportCmd        `cmd:"" help:"Copy a policy file into a LevelDB store"`
}

func main() {
	var cli CLI
	kctx := kong.Parse(&cli,
		kong.Name("blackjack"),
		kong.Description("Blackjack self-play trainer, evaluator and advisor"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
		kong.Vars{
			"version": version,
		},
	)

	logger := shared.SetupLogger(cli.Debug, cli.JSONLogs)
	ctx, cancel := shared.SetupSignalHandler(logger)
	defer cancel()

	kctx.BindTo(ctx, (*context.Context)(nil))
	kctx.Bind(&cli.Globals, logger)
	if err := kctx.Run(); err != nil {
		cancel()
		event := log.Fatal().Err(err).Str("command", kctx.Command()).Str("kind", errorKind(err))
		var se *blackjack.StateError
		if errors.As(err, &se) {
			event = event.
				Str("player", se.Player.String()).
				Str("dealer", se.Dealer.String()).
				Str("legal", se.Legal.String())
		}
		event.Msg("command failed")
	}
}

func errorKind(err error) string {
	switch {
	case errors.Is(err, context.Canceled):
		return "interrupted"
	case errors.Is(err, blackjack.ErrEmptyShoe):
		return "empty_shoe"
	case errors.Is(err, blackjack.ErrIllegalAction):
		return "illegal_action"
	case errors.Is(err, blackjack.ErrInvalidState):
		return "invalid_state"
	case errors.Is(err, solver.ErrDivergence):
		return "divergence"
	default:
		return "error"
	}
}
