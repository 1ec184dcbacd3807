package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/blackjackbot/blackjack"
	"github.com/lox/blackjackbot/solver"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.hcl"))
	require.NoError(t, err)
	assert.Equal(t, blackjack.DefaultRules(), cfg.Rules)
	assert.Equal(t, solver.DefaultTrainingConfig(), cfg.Training)
	assert.Equal(t, 0, cfg.CheckpointEvery)

	cfg, err = Load("")
	require.NoError(t, err)
	assert.Equal(t, 6, cfg.Rules.Decks)
}

func TestParseHCLOverridesPreset(t *testing.T) {
	src := `
rules {
  preset          = "single-deck-h17"
  allow_surrender = true
  priority        = ["hit", "stand"]
}

training {
  chunks           = 20
  chunk_size       = 5000
  learning_rate    = 0.05
  checkpoint_every = 4

  epsilon {
    initial = 0.5
    floor   = 0.02
  }
}

evaluation {
  rounds  = 200000
  workers = 4
}
`
	cfg, err := ParseHCL([]byte(src), "inline.hcl")
	require.NoError(t, err)

	assert.Equal(t, 1, cfg.Rules.Decks)
	assert.True(t, cfg.Rules.DealerHitsSoft17)
	assert.True(t, cfg.Rules.AllowSurrender)
	assert.Equal(t, []blackjack.Action{blackjack.Hit, blackjack.Stand}, cfg.Rules.Priority)
	assert.Equal(t, 3, cfg.Rules.MaxSplits, "untouched fields keep preset values")

	assert.Equal(t, 20, cfg.Training.Chunks)
	assert.Equal(t, 5000, cfg.Training.ChunkSize)
	assert.Equal(t, 0.05, cfg.Training.LearningRate)
	assert.Equal(t, 0.5, cfg.Training.Epsilon.Initial)
	assert.Equal(t, 0.95, cfg.Training.Epsilon.Decay)
	assert.Equal(t, 0.02, cfg.Training.Epsilon.Floor)
	assert.Equal(t, 4, cfg.CheckpointEvery)

	assert.Equal(t, 200000, cfg.Evaluation.Rounds)
	assert.Equal(t, 4, cfg.Evaluation.Workers)
	assert.Equal(t, 0.95, cfg.Evaluation.Confidence)
}

func TestExplicitFalseOverridesDefault(t *testing.T) {
	cfg, err := ParseHCL([]byte(`rules {
  allow_double   = false
  auto_reshuffle = false
}`), "inline.hcl")
	require.NoError(t, err)
	assert.False(t, cfg.Rules.AllowDouble)
	assert.False(t, cfg.Rules.AutoReshuffle)
	assert.True(t, cfg.Rules.AllowSplit)
}

func TestDisablingSplitClearsBudget(t *testing.T) {
	cfg, err := ParseHCL([]byte(`rules { allow_split = false }`), "inline.hcl")
	require.NoError(t, err)
	assert.False(t, cfg.Rules.AllowSplit)
	assert.Equal(t, 0, cfg.Rules.MaxSplits)
}

func TestParseHCLErrors(t *testing.T) {
	cases := map[string]string{
		"syntax":        `rules {`,
		"unknown attr":  `rules { jokers = true }`,
		"bad preset":    `rules { preset = "atlantic-city" }`,
		"bad action":    `rules { priority = ["fold"] }`,
		"invalid rules": `rules { decks = 0 }`,
		"bad training":  `training { chunk_size = 0 }`,
		"bad epsilon":   "training {\n  epsilon {\n    decay = 0\n  }\n}",
		"bad eval":      `evaluation { confidence = 1.5 }`,
		"bad interval":  `training { checkpoint_every = -1 }`,
	}
	for name, src := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseHCL([]byte(src), "inline.hcl")
			assert.Error(t, err)
		})
	}
}

func TestParseTOML(t *testing.T) {
	src := `
[rules]
decks = 2
dealer_hits_soft17 = true

[training]
chunks = 3
seed = 99

[training.epsilon]
initial = 0.1

[evaluation]
curve_every = 1000
`
	cfg, err := ParseTOML(src)
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.Rules.Decks)
	assert.True(t, cfg.Rules.DealerHitsSoft17)
	assert.Equal(t, 3, cfg.Training.Chunks)
	assert.Equal(t, int64(99), cfg.Training.Seed)
	assert.Equal(t, 0.1, cfg.Training.Epsilon.Initial)
	assert.Equal(t, 1000, cfg.Evaluation.CurveEvery)

	_, err = ParseTOML("[rules]\nwild_cards = 3\n")
	assert.ErrorContains(t, err, "wild_cards")
}

func TestLoadDispatchesOnExtension(t *testing.T) {
	dir := t.TempDir()

	hclPath := filepath.Join(dir, "table.hcl")
	require.NoError(t, os.WriteFile(hclPath, []byte(`rules { decks = 4 }`), 0o644))
	cfg, err := Load(hclPath)
	require.NoError(t, err)
	assert.Equal(t, 4, cfg.Rules.Decks)

	tomlPath := filepath.Join(dir, "table.toml")
	require.NoError(t, os.WriteFile(tomlPath, []byte("[rules]\ndecks = 8\n"), 0o644))
	cfg, err = Load(tomlPath)
	require.NoError(t, err)
	assert.Equal(t, 8, cfg.Rules.Decks)

	yamlPath := filepath.Join(dir, "table.yml")
	require.NoError(t, os.WriteFile(yamlPath, []byte("rules:\n  decks: 2\n"), 0o644))
	cfg, err = Load(yamlPath)
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.Rules.Decks)

	iniPath := filepath.Join(dir, "table.ini")
	require.NoError(t, os.WriteFile(iniPath, []byte("[rules]\n"), 0o644))
	_, err = Load(iniPath)
	assert.Error(t, err)
}

func TestParseYAML(t *testing.T) {
	src := `
rules:
  preset: single-deck-h17
  priority: [stand, double]
training:
  chunk_size: 1000
  epsilon:
    decay: 0.9
evaluation:
  workers: 3
`
	cfg, err := ParseYAML([]byte(src))
	require.NoError(t, err)
	assert.True(t, cfg.Rules.DealerHitsSoft17)
	assert.Equal(t, []blackjack.Action{blackjack.Stand, blackjack.Double}, cfg.Rules.Priority)
	assert.Equal(t, 1000, cfg.Training.ChunkSize)
	assert.Equal(t, 0.9, cfg.Training.Epsilon.Decay)
	assert.Equal(t, 3, cfg.Evaluation.Workers)

	_, err = ParseYAML([]byte("rules:\n  jokers: true\n"))
	assert.Error(t, err)

	cfg, err = ParseYAML(nil)
	require.NoError(t, err)
	assert.Equal(t, blackjack.DefaultRules(), cfg.Rules)
}
