package data

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"bertrand-replay/internal/codec"
	"bertrand-replay/internal/model"
	"bertrand-replay/internal/policy"
	"bertrand-replay/internal/replay"
)

// MarketsFile is the on-disk shape of a set of trained markets (JSON or YAML).
//
// Example:
//
//	{"markets": [{"id": "seed_17", "state_of_convergence": 18,
//	  "agents": [{"kind": "qtable", "q_values": [[...], ...]}, {"kind": "stationary", "action": 3}]}]}
type MarketsFile struct {
	Markets []MarketSpec `json:"markets" yaml:"markets"`
}

type MarketSpec struct {
	ID                 string      `json:"id" yaml:"id"`
	StateOfConvergence int         `json:"state_of_convergence" yaml:"state_of_convergence"`
	Agents             []AgentSpec `json:"agents" yaml:"agents"`
}

// AgentSpec describes one trained policy. Kind selects which fields are read.
type AgentSpec struct {
	Kind    string      `json:"kind" yaml:"kind"`
	QValues [][]float64 `json:"q_values,omitempty" yaml:"q_values,omitempty"`
	Actions []int       `json:"actions,omitempty" yaml:"actions,omitempty"`
	Action  int         `json:"action,omitempty" yaml:"action,omitempty"`
}

const (
	KindQTable     = "qtable"
	KindTable      = "table"
	KindStationary = "stationary"
	KindUndercut   = "undercut"
)

// LoadMarketsFile reads a markets file; .yaml/.yml is parsed as YAML, anything else as JSON.
func LoadMarketsFile(path string) (*MarketsFile, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read markets file %s", path)
	}
	var f MarketsFile
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(raw, &f)
	default:
		err = json.Unmarshal(raw, &f)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "parse markets file %s", path)
	}
	return &f, nil
}

// LoadMarkets accepts comma-separated files and/or directories. Directory
// entries are read in name order so market order is reproducible.
func LoadMarkets(paths []string) (*MarketsFile, error) {
	out := &MarketsFile{}
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, errors.Wrapf(err, "stat %s", p)
		}
		if !info.IsDir() {
			f, err := LoadMarketsFile(p)
			if err != nil {
				return nil, err
			}
			out.Markets = append(out.Markets, f.Markets...)
			continue
		}
		entries, err := os.ReadDir(p)
		if err != nil {
			return nil, errors.Wrapf(err, "read dir %s", p)
		}
		names := make([]string, 0, len(entries))
		for _, e := range entries {
			if e.IsDir() || !isMarketsFile(e.Name()) {
				continue
			}
			names = append(names, e.Name())
		}
		sort.Strings(names)
		for _, name := range names {
			f, err := LoadMarketsFile(filepath.Join(p, name))
			if err != nil {
				return nil, err
			}
			out.Markets = append(out.Markets, f.Markets...)
		}
	}
	return out, nil
}

func isMarketsFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".json", ".yaml", ".yml":
		return true
	}
	return false
}

// BuildMarkets turns specs into replayable markets, checking every policy
// against the codec's state and action space before anything is simulated.
func BuildMarkets(specs []MarketSpec, c *codec.Codec) ([]replay.Market, error) {
	out := make([]replay.Market, 0, len(specs))
	for i, s := range specs {
		id := s.ID
		if id == "" {
			id = fmt.Sprintf("market_%d", i)
		}
		m, err := BuildMarket(id, s, c)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}

func BuildMarket(id string, s MarketSpec, c *codec.Codec) (replay.Market, error) {
	if len(s.Agents) != c.NAgent() {
		return replay.Market{}, &model.ConfigurationError{
			Field:  "agents",
			Reason: fmt.Sprintf("market %s has %d agents, want %d", id, len(s.Agents), c.NAgent()),
		}
	}
	if s.StateOfConvergence < 0 || s.StateOfConvergence >= c.TotalStates() {
		return replay.Market{}, &model.InvalidStateError{
			Reason: fmt.Sprintf("market %s: state of convergence %d outside [0, %d)", id, s.StateOfConvergence, c.TotalStates()),
		}
	}
	pols := make([]policy.Policy, len(s.Agents))
	for i, a := range s.Agents {
		p, err := BuildPolicy(a, i, c)
		if err != nil {
			return replay.Market{}, fmt.Errorf("market %s agent %d: %w", id, i, err)
		}
		pols[i] = p
	}
	return replay.Market{
		ID:                 id,
		StateOfConvergence: model.IntState(s.StateOfConvergence),
		Policies:           pols,
	}, nil
}

func BuildPolicy(a AgentSpec, agent int, c *codec.Codec) (policy.Policy, error) {
	var p policy.Policy
	switch strings.ToLower(a.Kind) {
	case KindQTable:
		p = &policy.QTable{Q: a.QValues}
	case KindTable:
		p = &policy.Table{Actions: a.Actions}
	case KindStationary:
		p = policy.Stationary{Action: a.Action}
	case KindUndercut:
		u, err := policy.NewUndercut(c, agent)
		if err != nil {
			return nil, err
		}
		return u, nil
	default:
		return nil, &model.ConfigurationError{Field: "kind", Reason: fmt.Sprintf("unsupported agent kind %q", a.Kind)}
	}
	if err := policy.Validate(p, c.TotalStates(), c.NPricePoints()); err != nil {
		return nil, &model.ConfigurationError{Field: "agents", Reason: err.Error()}
	}
	if q, ok := p.(*policy.QTable); ok {
		return q.Greedy(), nil
	}
	return p, nil
}
