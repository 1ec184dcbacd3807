package main

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/lox/blackjackbot/solver"
)

type ExportCmd struct {
	Policy string `help:"policy file to export" required:"" type:"existingfile"`
	Out    string `help:"LevelDB directory to write" required:"" type:"path"`
}

func (cmd *ExportCmd) Run(logger zerolog.Logger) error {
	pf, err := solver.LoadPolicyFile(cmd.Policy)
	if err != nil {
		return fmt.Errorf("load policy: %w", err)
	}
	table, err := pf.Table()
	if err != nil {
		return err
	}
	if err := exportLevelDB(cmd.Out, table, pf.RunID, pf.Rules); err != nil {
		return err
	}
	logger.Info().Str("path", cmd.Out).Str("run_id", pf.RunID).Int("states", table.Len()).Msg("leveldb store written")
	return nil
}
