package types

import (
	"os"
	"runtime"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"

	"github.com/rulego/streamagg/aggregates"
)

// Channel selects how the sink feeds values into accumulators.
type Channel string

const (
	// ChannelAuto uses the typed channel when the value column is a typed
	// series. The choice is made on the first chunk and then fixed.
	ChannelAuto Channel = "auto"
	// ChannelTyped requires a typed series of the configured input kind.
	ChannelTyped Channel = "typed"
	// ChannelDynamic always feeds through PreAgg.
	ChannelDynamic Channel = "dynamic"
)

// Config groupby sink configuration
type Config struct {
	Name    string   `yaml:"name" json:"name"`
	GroupBy []string `yaml:"groupBy" json:"groupBy"` // key columns, empty for a global aggregate
	Value   string   `yaml:"value" json:"value"`     // value column
	// Expr computes the value from the row's columns; it replaces Value.
	Expr      string  `yaml:"expr" json:"expr"`
	Aggregate string  `yaml:"aggregate" json:"aggregate"`
	Kind      string  `yaml:"kind" json:"kind"` // accumulator representation, f32 or f64 for mean
	Channel   Channel `yaml:"channel" json:"channel"`
	Branches  int     `yaml:"branches" json:"branches"`
	// Checked selects the checked dynamic channel; false uses PreAggUnchecked.
	Checked bool   `yaml:"checked" json:"checked"`
	Output  string `yaml:"output" json:"output"`
}

// NewConfig 创建默认配置
func NewConfig() Config {
	return Config{
		Aggregate: "mean",
		Kind:      aggregates.Float64.String(),
		Channel:   ChannelAuto,
		Branches:  runtime.NumCPU(),
		Checked:   true,
	}
}

// Parse decodes a YAML document on top of the defaults.
func Parse(data []byte) (Config, error) {
	cfg := NewConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, errors.Wrap(err, "parse groupby config")
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Load reads and parses a YAML config file.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrapf(err, "read groupby config %s", path)
	}
	return Parse(data)
}

// AccumulatorKind resolves Kind.
func (c Config) AccumulatorKind() (aggregates.Kind, error) {
	return aggregates.ParseKind(c.Kind)
}

// OutputName returns Output, defaulting to <value>_<aggregate>.
func (c Config) OutputName() string {
	if c.Output != "" {
		return c.Output
	}
	src := c.Value
	if src == "" {
		src = "expr"
	}
	return src + "_" + strings.ToLower(c.Aggregate)
}

// Validate reports every problem of the configuration at once.
func (c Config) Validate() error {
	var errs error
	if c.Value == "" && c.Expr == "" {
		errs = multierr.Append(errs, errors.New("one of value or expr must be set"))
	}
	if c.Value != "" && c.Expr != "" {
		errs = multierr.Append(errs, errors.New("value and expr are mutually exclusive"))
	}
	if c.Aggregate == "" {
		errs = multierr.Append(errs, errors.New("aggregate must be set"))
	}
	if _, err := c.AccumulatorKind(); err != nil {
		errs = multierr.Append(errs, err)
	}
	switch c.Channel {
	case ChannelAuto, ChannelDynamic:
	case ChannelTyped:
		if c.Expr != "" {
			errs = multierr.Append(errs, errors.New("expr results can only be fed through the dynamic channel"))
		}
	default:
		errs = multierr.Append(errs, errors.Errorf("unknown channel %q", c.Channel))
	}
	if c.Branches < 1 {
		errs = multierr.Append(errs, errors.Errorf("branches must be at least 1, got %d", c.Branches))
	}
	seen := make(map[string]struct{}, len(c.GroupBy))
	for _, key := range c.GroupBy {
		if key == "" {
			errs = multierr.Append(errs, errors.New("empty group by column"))
			continue
		}
		if _, dup := seen[key]; dup {
			errs = multierr.Append(errs, errors.Errorf("duplicate group by column %s", key))
		}
		seen[key] = struct{}{}
		if key == c.OutputName() {
			errs = multierr.Append(errs, errors.Errorf("output %s collides with a group by column", key))
		}
	}
	if errs != nil {
		return errors.Wrap(errs, "invalid groupby config")
	}
	return nil
}
