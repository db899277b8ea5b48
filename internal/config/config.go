package config

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/example/maskeraser/internal/theme"
)

// Defaults used when the config file leaves a value unset.
const (
	DefaultBrushSize      = 30
	DefaultRequestTimeout = 120 * time.Second
)

// Notify selects which events raise a desktop notification.
type Notify struct {
	Result  bool
	Failure bool
	Save    bool
	Copy    bool
}

// Config holds the application configuration.
type Config struct {
	Theme          string
	SaveDir        string
	Model          string
	APIKey         string
	BrushSize      int
	RequestTimeout time.Duration
	Notify         Notify
	Themes         map[string]*theme.Theme
}

// New creates a new Config with defaults.
func New() *Config {
	return &Config{
		BrushSize:      DefaultBrushSize,
		RequestTimeout: DefaultRequestTimeout,
		Themes:         make(map[string]*theme.Theme),
	}
}

// String implements fmt.Stringer and returns the configuration in RC format.
func (c *Config) String() string {
	var sb strings.Builder

	if c.Theme != "" {
		fmt.Fprintf(&sb, "theme = %s\n", c.Theme)
	}
	if c.SaveDir != "" {
		fmt.Fprintf(&sb, "save_dir = %s\n", c.SaveDir)
	}
	if c.Model != "" {
		fmt.Fprintf(&sb, "model = %s\n", c.Model)
	}
	if c.APIKey != "" {
		fmt.Fprintf(&sb, "api_key = %s\n", c.APIKey)
	}
	fmt.Fprintf(&sb, "brush_size = %d\n", c.BrushSize)
	fmt.Fprintf(&sb, "request_timeout = %s\n", c.RequestTimeout)
	sb.WriteString("\n")

	sb.WriteString("[notify]\n")
	fmt.Fprintf(&sb, "result = %v\n", c.Notify.Result)
	fmt.Fprintf(&sb, "failure = %v\n", c.Notify.Failure)
	fmt.Fprintf(&sb, "save = %v\n", c.Notify.Save)
	fmt.Fprintf(&sb, "copy = %v\n", c.Notify.Copy)
	sb.WriteString("\n")

	// Sort keys for deterministic output
	var themeNames []string
	for name := range c.Themes {
		themeNames = append(themeNames, name)
	}
	sort.Strings(themeNames)

	for _, name := range themeNames {
		fmt.Fprintf(&sb, "[theme.%s]\n", name)
		_, _ = c.Themes[name].WriteTo(&sb)
		sb.WriteString("\n")
	}

	return sb.String()
}
