// Package config holds the compiler's small warning-toggle surface, a
// scaled-down analogue of the teacher's much larger Feature/Warning
// matrix (this language has exactly the two non-fatal warning classes
// named in the error taxonomy: division/modulus by zero, and constant
// array index out of bounds).
package config

// Warning identifies one of this compiler's non-fatal warning classes.
type Warning int

const (
	WarnDivByZero Warning = iota
	WarnOOBIndex
	WarnCount
)

type warningInfo struct {
	Name        string
	Enabled     bool
	Description string
}

// Config carries the enabled/disabled state of each warning class.
type Config struct {
	warnings map[Warning]warningInfo
	nameMap  map[string]Warning
}

// New returns a Config with both warning classes enabled by default.
func New() *Config {
	c := &Config{
		warnings: map[Warning]warningInfo{
			WarnDivByZero: {"div-by-zero", true, "Division or modulus by zero in a constant expression"},
			WarnOOBIndex:  {"oob-index", true, "Constant array index out of bounds"},
		},
		nameMap: make(map[string]Warning),
	}
	for w, info := range c.warnings {
		c.nameMap[info.Name] = w
	}
	return c
}

func (c *Config) IsEnabled(w Warning) bool { return c.warnings[w].Enabled }

func (c *Config) SetEnabled(w Warning, enabled bool) {
	info := c.warnings[w]
	info.Enabled = enabled
	c.warnings[w] = info
}

// SetAll toggles every warning class at once (-all / -no-all).
func (c *Config) SetAll(enabled bool) {
	for w := Warning(0); w < WarnCount; w++ {
		c.SetEnabled(w, enabled)
	}
}

// ApplyFlagName applies a CLI flag of the form "div-by-zero" (enable) or
// "no-div-by-zero" (disable); "all"/"no-all" toggle every warning class.
func (c *Config) ApplyFlagName(name string, enable bool) bool {
	if name == "all" {
		c.SetAll(enable)
		return true
	}
	if w, ok := c.nameMap[name]; ok {
		c.SetEnabled(w, enable)
		return true
	}
	return false
}
