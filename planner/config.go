package planner

import (
	"slices"
	"strings"
)

const (
	// DefaultMaxRelevantFunctions bounds the functions taken from memory.
	DefaultMaxRelevantFunctions = 100
	// DefaultMaxTokens bounds the plan completion.
	DefaultMaxTokens = 1024

	// PluginName is the plugin the planner's own prompt function belongs to.
	// It is never offered to the model.
	PluginName = "SequentialPlanner_Excluded"
	// FunctionName is the name of the planner's prompt function.
	FunctionName = "CreatePlan"

	// MemoryCollection holds the embedded function manuals used for
	// relevancy filtering.
	MemoryCollection = "Planning.SKFunctionsManual"
)

// Config controls which functions the planner offers and how it asks.
type Config struct {
	// RelevancyThreshold, when set and the host has memory, limits the
	// offered functions to those whose manual is at least this similar to
	// the goal.
	RelevancyThreshold *float64
	// MaxRelevantFunctions caps the functions taken from memory.
	MaxRelevantFunctions int
	// ExcludedPlugins are never offered.
	ExcludedPlugins []string
	// ExcludedFunctions are never offered. Entries match a bare function
	// name or a plugin.function name.
	ExcludedFunctions []string
	// IncludedFunctions are always offered when relevancy filtering is on.
	IncludedFunctions []string
	// MaxTokens bounds the plan completion.
	MaxTokens int
	// AllowMissingFunctions drops plan steps naming unknown functions
	// instead of failing.
	AllowMissingFunctions bool
	// Prompt replaces the built-in planner prompt when non-empty. It must
	// reference $input and $available_functions.
	Prompt string
}

// ConfigOption configures a Config.
type ConfigOption func(*Config)

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		MaxRelevantFunctions: DefaultMaxRelevantFunctions,
		MaxTokens:            DefaultMaxTokens,
	}
}

// NewConfig creates a Config with the given options applied over defaults.
func NewConfig(opts ...ConfigOption) *Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// WithRelevancyThreshold enables relevancy filtering.
func WithRelevancyThreshold(threshold float64) ConfigOption {
	return func(c *Config) {
		c.RelevancyThreshold = &threshold
	}
}

// WithMaxRelevantFunctions sets the cap on functions taken from memory.
func WithMaxRelevantFunctions(n int) ConfigOption {
	return func(c *Config) {
		c.MaxRelevantFunctions = n
	}
}

// WithExcludedPlugins adds plugins that are never offered.
func WithExcludedPlugins(plugins ...string) ConfigOption {
	return func(c *Config) {
		c.ExcludedPlugins = append(c.ExcludedPlugins, plugins...)
	}
}

// WithExcludedFunctions adds functions that are never offered.
func WithExcludedFunctions(functions ...string) ConfigOption {
	return func(c *Config) {
		c.ExcludedFunctions = append(c.ExcludedFunctions, functions...)
	}
}

// WithIncludedFunctions adds functions that bypass relevancy filtering.
func WithIncludedFunctions(functions ...string) ConfigOption {
	return func(c *Config) {
		c.IncludedFunctions = append(c.IncludedFunctions, functions...)
	}
}

// WithMaxTokens sets the completion budget for the plan.
func WithMaxTokens(n int) ConfigOption {
	return func(c *Config) {
		c.MaxTokens = n
	}
}

// WithAllowMissingFunctions drops unknown steps instead of failing.
func WithAllowMissingFunctions(allow bool) ConfigOption {
	return func(c *Config) {
		c.AllowMissingFunctions = allow
	}
}

// WithPrompt replaces the planner prompt.
func WithPrompt(prompt string) ConfigOption {
	return func(c *Config) {
		c.Prompt = prompt
	}
}

// Normalize fills zero values with defaults.
func (c *Config) Normalize() {
	if c.MaxRelevantFunctions <= 0 {
		c.MaxRelevantFunctions = DefaultMaxRelevantFunctions
	}
	if c.MaxTokens <= 0 {
		c.MaxTokens = DefaultMaxTokens
	}
}

func (c *Config) clone() *Config {
	out := *c
	if c.RelevancyThreshold != nil {
		threshold := *c.RelevancyThreshold
		out.RelevancyThreshold = &threshold
	}
	out.ExcludedPlugins = slices.Clone(c.ExcludedPlugins)
	out.ExcludedFunctions = slices.Clone(c.ExcludedFunctions)
	out.IncludedFunctions = slices.Clone(c.IncludedFunctions)
	return &out
}

// excludedPlugin reports whether plugin may not be offered.
func (c *Config) excludedPlugin(plugin string) bool {
	if strings.EqualFold(plugin, PluginName) {
		return true
	}
	return containsFold(c.ExcludedPlugins, plugin)
}

func (c *Config) excludedFunction(plugin, name string) bool {
	return matchesFunction(c.ExcludedFunctions, plugin, name)
}

func (c *Config) includedFunction(plugin, name string) bool {
	return matchesFunction(c.IncludedFunctions, plugin, name)
}

func matchesFunction(list []string, plugin, name string) bool {
	return containsFold(list, name) || containsFold(list, plugin+"."+name)
}

func containsFold(list []string, s string) bool {
	for _, item := range list {
		if strings.EqualFold(item, s) {
			return true
		}
	}
	return false
}
