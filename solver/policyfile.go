package solver

import (
	"errors"
	"fmt"
	"time"

	"github.com/lox/blackjackbot/blackjack"
	"github.com/lox/blackjackbot/internal/fileutil"
)

const policyFileVersion = 1

// PolicyFile is the persisted result of a training run: the rules it was
// trained under and the full action value table.
type PolicyFile struct {
	Version      int                          `json:"version"`
	GeneratedAt  time.Time                    `json:"generated_at"`
	RunID        string                       `json:"run_id"`
	Seed         int64                        `json:"seed"`
	Chunks       int                          `json:"chunks"`
	Episodes     int64                        `json:"episodes"`
	Rules        blackjack.Rules              `json:"rules"`
	InitialValue float64                      `json:"initial_value"`
	Entries      map[blackjack.StateKey]Entry `json:"entries"`
}

// PolicyFile materialises the table trained so far.
func (t *Trainer) PolicyFile() *PolicyFile {
	return &PolicyFile{
		Version:      policyFileVersion,
		GeneratedAt:  t.clock.Now().UTC(),
		RunID:        t.runID,
		Seed:         t.seed,
		Chunks:       t.chunk,
		Episodes:     t.episodes,
		Rules:        t.rules,
		InitialValue: t.table.Initial(),
		Entries:      t.table.Entries(),
	}
}

// Save writes the policy file atomically in JSON format.
func (p *PolicyFile) Save(path string) error {
	if p == nil {
		return errors.New("nil policy file")
	}
	if path == "" {
		return errors.New("destination path is required")
	}
	return fileutil.WriteJSONAtomic(path, p)
}

// Table rebuilds the action value table described by the file.
func (p *PolicyFile) Table() (*Table, error) {
	return RestoreTable(p.InitialValue, p.Rules.PriorityOrder(), p.Entries)
}

// LoadPolicyFile reads a policy file and checks that it is usable: a known
// version, valid rules and finite values.
func LoadPolicyFile(path string) (*PolicyFile, error) {
	var p PolicyFile
	if err := fileutil.ReadJSON(path, &p); err != nil {
		return nil, err
	}
	if p.Version != policyFileVersion {
		return nil, errors.New("unsupported policy file version")
	}
	if err := p.Rules.Validate(); err != nil {
		return nil, fmt.Errorf("policy rules: %w", err)
	}
	if _, err := p.Table(); err != nil {
		return nil, err
	}
	return &p, nil
}
