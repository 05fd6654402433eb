/*
Package config loads exprbind settings and model documents.

# Settings

Settings are read from YAML or JSON, chosen by file extension:

	s, err := config.Load("exprbind.yaml")

Missing keys keep their defaults (see Default); out-of-range values fail
with ErrInvalidSetting.

# Loose Documents

Config wraps a decoded map[string]any with accessors that fall back to a
default on missing keys or mismatched types:

	cfg, _ := config.FromYAML(data)
	cycles := cfg.Int("max_cycles", 1000)
	every := cfg.Duration("interval", 100*time.Millisecond)

# Models

LoadModel reads the object graph a template is bound to. The result is a
plain map[string]any that expressions can read and write.
*/
package config
