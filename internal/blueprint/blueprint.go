// Package blueprint loads ensemble definitions from TOML files and turns
// them into runnable stacks. It owns the learner type registry, so it is
// also the place where fitted stacks are marshalled for storage.
package blueprint

import (
	"fmt"
	"io/ioutil"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"meld/internal/dataset"
	"meld/internal/learner"
	"meld/internal/learner/bayes"
	"meld/internal/learner/gauss"
	"meld/internal/learner/knn"
	"meld/internal/learner/linear"
	"meld/internal/resample"
	"meld/internal/stack"
)

// Definition is a parsed blueprint file.
type Definition struct {
	Name        string      `toml:"name"`
	Strategy    StrategyDef `toml:"strategy"`
	MetaLearner ModelDef    `toml:"metalearner"`
	Models      []ModelDef  `toml:"model"`
}

// ModelDef names one learner and its hyperparameters.
type ModelDef struct {
	Name   string `toml:"name"`
	Type   string `toml:"type"`
	Params Params `toml:"params"`
}

// Params carries the union of hyperparameters the registered learner types
// accept. Zero values fall back to each learner's defaults.
type Params struct {
	Ridge     float64 `toml:"ridge"`
	KNum      int     `toml:"k"`
	Distance  string  `toml:"distance"`
	Smoothing float64 `toml:"smoothing"`
}

// StrategyDef selects the resampling plan.
type StrategyDef struct {
	Kind    string `toml:"kind"`
	Folds   int    `toml:"folds"`
	Shuffle bool   `toml:"shuffle"`
	Seed    int64  `toml:"seed"`
}

// Load parses one blueprint file.
func Load(path string) (*Definition, error) {
	var def Definition
	if _, err := toml.DecodeFile(path, &def); err != nil {
		return nil, fmt.Errorf("decode blueprint %s: %w", path, err)
	}
	if def.Name == "" {
		def.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return &def, nil
}

// Parse parses blueprint TOML from memory.
func Parse(data string) (*Definition, error) {
	var def Definition
	if _, err := toml.Decode(data, &def); err != nil {
		return nil, fmt.Errorf("decode blueprint: %w", err)
	}
	return &def, nil
}

// LoadDir loads every *.toml blueprint in dir, keyed by definition name.
func LoadDir(dir string) (map[string]*Definition, error) {
	entries, err := ioutil.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read blueprint dir %s: %w", dir, err)
	}
	defs := make(map[string]*Definition)
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".toml" {
			continue
		}
		def, err := Load(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, err
		}
		if _, ok := defs[def.Name]; ok {
			return nil, fmt.Errorf("duplicate blueprint name %q", def.Name)
		}
		defs[def.Name] = def
	}
	return defs, nil
}

// Build assembles the stack the definition describes.
func (d *Definition) Build() (*stack.Stack, error) {
	meta, err := buildLearner(d.MetaLearner)
	if err != nil {
		return nil, fmt.Errorf("metalearner: %w", err)
	}
	strategy, err := buildStrategy(d.Strategy)
	if err != nil {
		return nil, err
	}
	models := make([]stack.NamedLearner, 0, len(d.Models))
	for _, m := range d.Models {
		l, err := buildLearner(m)
		if err != nil {
			return nil, fmt.Errorf("model %q: %w", m.Name, err)
		}
		models = append(models, stack.NamedLearner{Name: m.Name, Learner: l})
	}
	return stack.New(meta, strategy, models)
}

func buildLearner(def ModelDef) (learner.Learner, error) {
	switch def.Type {
	case "linear":
		if def.Params.Ridge > 0 {
			return linear.New(linear.WithRidge(def.Params.Ridge)), nil
		}
		return linear.New(), nil
	case "gauss":
		if def.Params.Ridge > 0 {
			return gauss.New(gauss.WithRidge(def.Params.Ridge)), nil
		}
		return gauss.New(), nil
	case "bayes":
		if def.Params.Smoothing > 0 {
			return bayes.New(bayes.WithVarSmoothing(def.Params.Smoothing)), nil
		}
		return bayes.New(), nil
	case "knn":
		var opts []knn.Option
		if def.Params.KNum > 0 {
			opts = append(opts, knn.WithKNum(def.Params.KNum))
		}
		if def.Params.Distance != "" {
			if _, err := dataset.DistanceFor(def.Params.Distance); err != nil {
				return nil, err
			}
			opts = append(opts, knn.WithDistance(def.Params.Distance))
		}
		return knn.New(opts...), nil
	default:
		return nil, fmt.Errorf("unknown learner type %q", def.Type)
	}
}

func buildStrategy(def StrategyDef) (resample.Strategy, error) {
	folds := def.Folds
	if folds == 0 {
		folds = 5
	}
	var opts []resample.Option
	if def.Shuffle {
		opts = append(opts, resample.WithShuffle(def.Seed))
	}
	switch def.Kind {
	case "", "kfold":
		return resample.NewKFold(folds, opts...)
	case "stratified":
		return resample.NewStratifiedKFold(folds, opts...)
	default:
		return nil, fmt.Errorf("unknown resampling strategy %q", def.Kind)
	}
}
