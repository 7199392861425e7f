package actor

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/arcstate/hsm"
)

// Config controls an Actor's timing and overflow behavior. It is usually
// loaded once at startup with LoadConfig.
type Config struct {
	// TickInterval is how often Run invokes Instance.Update. Zero or a
	// negative value means DefaultConfig's TickInterval is used instead.
	TickInterval time.Duration `yaml:"tick_interval"`

	// DeferredQueueBound is the maximum number of deferred events an
	// Instance will hold at once. Zero means unbounded.
	DeferredQueueBound int `yaml:"deferred_queue_bound"`

	// DeferredOverflowPolicy selects what happens when a deferred event
	// arrives and the queue is already at DeferredQueueBound: "drop_oldest"
	// or "drop_newest". Defaults to "drop_oldest".
	DeferredOverflowPolicy string `yaml:"deferred_overflow_policy"`

	// MaxAnonymousChain bounds how many anonymous transitions may fire in
	// a row following one delivered event. Zero means use Instance's
	// built-in default.
	MaxAnonymousChain int `yaml:"max_anonymous_chain"`
}

// DefaultConfig returns the configuration an Actor uses when none is
// supplied explicitly.
func DefaultConfig() Config {
	return Config{
		TickInterval:           100 * time.Millisecond,
		DeferredQueueBound:     0,
		DeferredOverflowPolicy: "drop_oldest",
		MaxAnonymousChain:      0,
	}
}

// LoadConfig reads and parses a YAML configuration document from path.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("actor: reading config %s: %w", path, err)
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("actor: parsing config %s: %w", path, err)
	}
	return cfg, nil
}

// rawConfig mirrors Config but with TickInterval as the duration string
// the YAML document actually spells it with (e.g. "50ms"), since
// time.Duration has no YAML-native scalar form.
type rawConfig struct {
	TickInterval           string `yaml:"tick_interval"`
	DeferredQueueBound     int    `yaml:"deferred_queue_bound"`
	DeferredOverflowPolicy string `yaml:"deferred_overflow_policy"`
	MaxAnonymousChain      int    `yaml:"max_anonymous_chain"`
}

// UnmarshalYAML parses TickInterval through time.ParseDuration, leaving
// fields absent from the document at whatever value cfg already holds
// (LoadConfig seeds it with DefaultConfig first).
func (c *Config) UnmarshalYAML(value *yaml.Node) error {
	raw := rawConfig{
		TickInterval:           c.TickInterval.String(),
		DeferredQueueBound:     c.DeferredQueueBound,
		DeferredOverflowPolicy: c.DeferredOverflowPolicy,
		MaxAnonymousChain:      c.MaxAnonymousChain,
	}
	if err := value.Decode(&raw); err != nil {
		return err
	}
	d, err := time.ParseDuration(raw.TickInterval)
	if err != nil {
		return fmt.Errorf("actor: invalid tick_interval %q: %w", raw.TickInterval, err)
	}
	c.TickInterval = d
	c.DeferredQueueBound = raw.DeferredQueueBound
	c.DeferredOverflowPolicy = raw.DeferredOverflowPolicy
	c.MaxAnonymousChain = raw.MaxAnonymousChain
	return nil
}

// overflowPolicy translates the config's string policy name into the
// hsm package's DeferredOverflowPolicy enum.
func (c Config) overflowPolicy() hsm.DeferredOverflowPolicy {
	if c.DeferredOverflowPolicy == "drop_newest" {
		return hsm.DropNewest
	}
	return hsm.DropOldest
}
