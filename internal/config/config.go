// Package config loads table rules and run parameters from HCL, TOML or
// YAML files.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"gopkg.in/yaml.v3"

	"github.com/lox/blackjackbot/blackjack"
	"github.com/lox/blackjackbot/internal/evaluation"
	"github.com/lox/blackjackbot/solver"
)

// Preset names accepted by the rules block.
const (
	PresetDefault       = "default"
	PresetSingleDeckH17 = "single-deck-h17"
)

// File mirrors the on-disk layout. Every attribute is optional; anything
// left out keeps the preset or default value.
type File struct {
	Rules      *RulesBlock      `hcl:"rules,block" toml:"rules" yaml:"rules"`
	Training   *TrainingBlock   `hcl:"training,block" toml:"training" yaml:"training"`
	Evaluation *EvaluationBlock `hcl:"evaluation,block" toml:"evaluation" yaml:"evaluation"`
}

// RulesBlock overrides fields of the selected preset.
type RulesBlock struct {
	Preset           *string  `hcl:"preset,optional" toml:"preset" yaml:"preset"`
	Decks            *int     `hcl:"decks,optional" toml:"decks" yaml:"decks"`
	Penetration      *float64 `hcl:"penetration,optional" toml:"penetration" yaml:"penetration"`
	BlackjackPayout  *float64 `hcl:"blackjack_payout,optional" toml:"blackjack_payout" yaml:"blackjack_payout"`
	DealerHitsSoft17 *bool    `hcl:"dealer_hits_soft17,optional" toml:"dealer_hits_soft17" yaml:"dealer_hits_soft17"`
	AllowDouble      *bool    `hcl:"allow_double,optional" toml:"allow_double" yaml:"allow_double"`
	DoubleAfterSplit *bool    `hcl:"double_after_split,optional" toml:"double_after_split" yaml:"double_after_split"`
	AllowSplit       *bool    `hcl:"allow_split,optional" toml:"allow_split" yaml:"allow_split"`
	MaxSplits        *int     `hcl:"max_splits,optional" toml:"max_splits" yaml:"max_splits"`
	SplitByValue     *bool    `hcl:"split_by_value,optional" toml:"split_by_value" yaml:"split_by_value"`
	HitSplitAces     *bool    `hcl:"hit_split_aces,optional" toml:"hit_split_aces" yaml:"hit_split_aces"`
	ResplitAces      *bool    `hcl:"resplit_aces,optional" toml:"resplit_aces" yaml:"resplit_aces"`
	AllowSurrender   *bool    `hcl:"allow_surrender,optional" toml:"allow_surrender" yaml:"allow_surrender"`
	AutoReshuffle    *bool    `hcl:"auto_reshuffle,optional" toml:"auto_reshuffle" yaml:"auto_reshuffle"`
	Priority         []string `hcl:"priority,optional" toml:"priority" yaml:"priority"`
}

// TrainingBlock overrides solver.DefaultTrainingConfig.
type TrainingBlock struct {
	Chunks          *int          `hcl:"chunks,optional" toml:"chunks" yaml:"chunks"`
	ChunkSize       *int          `hcl:"chunk_size,optional" toml:"chunk_size" yaml:"chunk_size"`
	LearningRate    *float64      `hcl:"learning_rate,optional" toml:"learning_rate" yaml:"learning_rate"`
	InitialValue    *float64      `hcl:"initial_value,optional" toml:"initial_value" yaml:"initial_value"`
	Seed            *int64        `hcl:"seed,optional" toml:"seed" yaml:"seed"`
	Bet             *float64      `hcl:"bet,optional" toml:"bet" yaml:"bet"`
	Tolerance       *float64      `hcl:"tolerance,optional" toml:"tolerance" yaml:"tolerance"`
	Patience        *int          `hcl:"patience,optional" toml:"patience" yaml:"patience"`
	CheckpointEvery *int          `hcl:"checkpoint_every,optional" toml:"checkpoint_every" yaml:"checkpoint_every"`
	Epsilon         *EpsilonBlock `hcl:"epsilon,block" toml:"epsilon" yaml:"epsilon"`
}

// EpsilonBlock overrides the exploration schedule.
type EpsilonBlock struct {
	Initial *float64 `hcl:"initial,optional" toml:"initial" yaml:"initial"`
	Decay   *float64 `hcl:"decay,optional" toml:"decay" yaml:"decay"`
	Floor   *float64 `hcl:"floor,optional" toml:"floor" yaml:"floor"`
}

// EvaluationBlock overrides evaluation.DefaultConfig.
type EvaluationBlock struct {
	Rounds     *int     `hcl:"rounds,optional" toml:"rounds" yaml:"rounds"`
	Bet        *float64 `hcl:"bet,optional" toml:"bet" yaml:"bet"`
	Seed       *int64   `hcl:"seed,optional" toml:"seed" yaml:"seed"`
	Workers    *int     `hcl:"workers,optional" toml:"workers" yaml:"workers"`
	Confidence *float64 `hcl:"confidence,optional" toml:"confidence" yaml:"confidence"`
	CurveEvery *int     `hcl:"curve_every,optional" toml:"curve_every" yaml:"curve_every"`
}

// Config is the resolved configuration with defaults applied.
type Config struct {
	Rules      blackjack.Rules
	Training   solver.TrainingConfig
	Evaluation evaluation.Config

	// CheckpointEvery is the number of chunks between checkpoints once a
	// checkpoint path is set. Zero means every chunk.
	CheckpointEvery int
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Rules:      blackjack.DefaultRules(),
		Training:   solver.DefaultTrainingConfig(),
		Evaluation: evaluation.DefaultConfig(),
	}
}

// Load reads filename, choosing the decoder from its extension. A missing
// file yields the defaults.
func Load(filename string) (*Config, error) {
	if filename == "" {
		return Default(), nil
	}
	if _, err := os.Stat(filename); errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}

	var (
		file File
		err  error
	)
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".toml":
		err = decodeTOML(filename, &file)
	case ".yaml", ".yml":
		err = decodeYAML(filename, &file)
	case ".hcl", "":
		err = decodeHCL(filename, &file)
	default:
		return nil, fmt.Errorf("unsupported config format %q", filepath.Ext(filename))
	}
	if err != nil {
		return nil, err
	}

	cfg, err := file.Resolve()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	return cfg, nil
}

// ParseHCL decodes HCL source, mostly useful for tests and inline configs.
func ParseHCL(src []byte, filename string) (*Config, error) {
	parser := hclparse.NewParser()
	f, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL: %s", diags.Error())
	}
	var file File
	if diags := gohcl.DecodeBody(f.Body, nil, &file); diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL: %s", diags.Error())
	}
	return file.Resolve()
}

// ParseTOML decodes TOML source.
func ParseTOML(src string) (*Config, error) {
	var file File
	md, err := toml.Decode(src, &file)
	if err != nil {
		return nil, fmt.Errorf("failed to decode TOML: %w", err)
	}
	if err := checkUndecoded(md); err != nil {
		return nil, err
	}
	return file.Resolve()
}

// ParseYAML decodes YAML source, rejecting unknown keys.
func ParseYAML(src []byte) (*Config, error) {
	var file File
	if err := unmarshalYAML(bytes.NewReader(src), &file); err != nil {
		return nil, err
	}
	return file.Resolve()
}

func decodeYAML(filename string, file *File) error {
	f, err := os.Open(filename)
	if err != nil {
		return err
	}
	defer f.Close()
	return unmarshalYAML(f, file)
}

func unmarshalYAML(r io.Reader, file *File) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(file); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("failed to decode YAML: %w", err)
	}
	return nil
}

func decodeHCL(filename string, file *File) error {
	parser := hclparse.NewParser()
	f, diags := parser.ParseHCLFile(filename)
	if diags.HasErrors() {
		return fmt.Errorf("failed to parse HCL file: %s", diags.Error())
	}
	if diags := gohcl.DecodeBody(f.Body, nil, file); diags.HasErrors() {
		return fmt.Errorf("failed to decode HCL: %s", diags.Error())
	}
	return nil
}

func decodeTOML(filename string, file *File) error {
	md, err := toml.DecodeFile(filename, file)
	if err != nil {
		return fmt.Errorf("failed to decode TOML file: %w", err)
	}
	return checkUndecoded(md)
}

// checkUndecoded rejects unknown keys, matching HCL's strictness.
func checkUndecoded(md toml.MetaData) error {
	if keys := md.Undecoded(); len(keys) > 0 {
		names := make([]string, len(keys))
		for i, k := range keys {
			names[i] = k.String()
		}
		return fmt.Errorf("unknown config keys: %s", strings.Join(names, ", "))
	}
	return nil
}

// Resolve applies the file's overrides on top of the defaults and validates
// the result.
func (f File) Resolve() (*Config, error) {
	cfg := Default()

	if f.Rules != nil {
		rules, err := f.Rules.resolve()
		if err != nil {
			return nil, err
		}
		cfg.Rules = rules
	}
	if f.Training != nil {
		f.Training.apply(&cfg.Training)
		if f.Training.CheckpointEvery != nil {
			cfg.CheckpointEvery = *f.Training.CheckpointEvery
		}
	}
	if f.Evaluation != nil {
		f.Evaluation.apply(&cfg.Evaluation)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks every section.
func (c *Config) Validate() error {
	if err := c.Rules.Validate(); err != nil {
		return fmt.Errorf("rules: %w", err)
	}
	if err := c.Training.Validate(); err != nil {
		return fmt.Errorf("training: %w", err)
	}
	if err := c.Evaluation.Validate(); err != nil {
		return fmt.Errorf("evaluation: %w", err)
	}
	if c.CheckpointEvery < 0 {
		return errors.New("training: checkpoint_every cannot be negative")
	}
	return nil
}

// Preset returns the rules registered under name.
func Preset(name string) (blackjack.Rules, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", PresetDefault:
		return blackjack.DefaultRules(), nil
	case PresetSingleDeckH17:
		return blackjack.SingleDeckH17(), nil
	default:
		return blackjack.Rules{}, fmt.Errorf("unknown rules preset %q", name)
	}
}

func (b *RulesBlock) resolve() (blackjack.Rules, error) {
	preset := ""
	if b.Preset != nil {
		preset = *b.Preset
	}
	r, err := Preset(preset)
	if err != nil {
		return r, err
	}

	setInt(&r.Decks, b.Decks)
	setFloat(&r.Penetration, b.Penetration)
	setFloat(&r.BlackjackPayout, b.BlackjackPayout)
	setBool(&r.DealerHitsSoft17, b.DealerHitsSoft17)
	setBool(&r.AllowDouble, b.AllowDouble)
	setBool(&r.DoubleAfterSplit, b.DoubleAfterSplit)
	setBool(&r.AllowSplit, b.AllowSplit)
	setInt(&r.MaxSplits, b.MaxSplits)
	setBool(&r.SplitByValue, b.SplitByValue)
	setBool(&r.HitSplitAces, b.HitSplitAces)
	setBool(&r.ResplitAces, b.ResplitAces)
	setBool(&r.AllowSurrender, b.AllowSurrender)
	setBool(&r.AutoReshuffle, b.AutoReshuffle)

	if len(b.Priority) > 0 {
		order := make([]blackjack.Action, 0, len(b.Priority))
		for _, name := range b.Priority {
			a, err := blackjack.ParseAction(name)
			if err != nil {
				return r, fmt.Errorf("priority: %w", err)
			}
			order = append(order, a)
		}
		r.Priority = order
	}

	// A table without splitting has no split budget to validate.
	if !r.AllowSplit && b.MaxSplits == nil {
		r.MaxSplits = 0
	}
	return r, nil
}

func (b *TrainingBlock) apply(c *solver.TrainingConfig) {
	setInt(&c.Chunks, b.Chunks)
	setInt(&c.ChunkSize, b.ChunkSize)
	setFloat(&c.LearningRate, b.LearningRate)
	setFloat(&c.InitialValue, b.InitialValue)
	setInt64(&c.Seed, b.Seed)
	setFloat(&c.Bet, b.Bet)
	setFloat(&c.Tolerance, b.Tolerance)
	setInt(&c.Patience, b.Patience)
	if e := b.Epsilon; e != nil {
		setFloat(&c.Epsilon.Initial, e.Initial)
		setFloat(&c.Epsilon.Decay, e.Decay)
		setFloat(&c.Epsilon.Floor, e.Floor)
	}
}

func (b *EvaluationBlock) apply(c *evaluation.Config) {
	setInt(&c.Rounds, b.Rounds)
	setFloat(&c.Bet, b.Bet)
	setInt64(&c.Seed, b.Seed)
	setInt(&c.Workers, b.Workers)
	setFloat(&c.Confidence, b.Confidence)
	setInt(&c.CurveEvery, b.CurveEvery)
}

func setInt(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}

func setInt64(dst *int64, v *int64) {
	if v != nil {
		*dst = *v
	}
}

func setFloat(dst *float64, v *float64) {
	if v != nil {
		*dst = *v
	}
}

func setBool(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}
