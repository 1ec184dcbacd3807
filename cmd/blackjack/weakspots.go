package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"

	"github.com/lox/blackjackbot/internal/weakspots"
	"github.com/lox/blackjackbot/solver/runtime"
)

type WeakspotsCmd struct {
	Policy    string `help:"policy file or LevelDB directory" required:"" type:"path"`
	Rounds    int    `help:"rounds to replay" default:"50000"`
	Seed      int64  `help:"random seed" default:"123"`
	MinVisits int    `help:"ignore decisions seen fewer times" default:"50"`
	Top       int    `help:"number of decisions to list (0 lists all)" default:"40"`
	Coarse    bool   `help:"group by total, softness and dealer card only"`
}

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#96CEB4"))
	lossStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B"))
	gainStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#04B575"))
)

func (cmd *WeakspotsCmd) Run(ctx context.Context, logger zerolog.Logger) error {
	policy, err := runtime.Load(cmd.Policy)
	if err != nil {
		return fmt.Errorf("load policy: %w", err)
	}

	cfg := weakspots.Config{
		Rounds:    cmd.Rounds,
		Seed:      cmd.Seed,
		MinVisits: cmd.MinVisits,
		Top:       cmd.Top,
		Coarse:    cmd.Coarse,
	}
	logger.Info().Int("rounds", cfg.Rounds).Int64("seed", cfg.Seed).Bool("coarse", cfg.Coarse).Msg("replaying policy")
	spots, err := weakspots.Analyze(ctx, policy, cfg)
	if err != nil {
		return err
	}
	if len(spots) == 0 {
		logger.Warn().Int("min_visits", cfg.MinVisits).Msg("no decision reached the visit threshold")
		return nil
	}

	fmt.Println(renderSpots(spots, cfg.Coarse))
	return nil
}

func renderSpots(spots []weakspots.Spot, coarse bool) string {
	var b strings.Builder
	b.WriteString(headerStyle.Render(fmt.Sprintf("%-36s %-9s %8s %9s %9s", "decision", "action", "visits", "mean", "estimate")))
	for _, s := range spots {
		style := gainStyle
		if s.Mean < 0 {
			style = lossStyle
		}
		estimate := "-"
		if !coarse {
			estimate = fmt.Sprintf("%+.4f", s.Estimate)
		}
		b.WriteByte('\n')
		fmt.Fprintf(&b, "%-36s %-9s %8d %s %9s",
			s.Label(coarse), s.Action, s.Visits, style.Render(fmt.Sprintf("%+9.4f", s.Mean)), estimate)
	}
	return b.String()
}
