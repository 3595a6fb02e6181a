package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// LoadProject loads and parses a project file. Relative paths inside it are
// resolved against the file's directory.
func LoadProject(path string) (*Project, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read project file %s: %w", path, err)
	}
	p, err := ParseProjectYAML(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse project file %s: %w", path, err)
	}
	p.resolvePaths(filepath.Dir(path))
	return p, nil
}

func (p *Project) resolvePaths(base string) {
	abs := func(s string) string {
		if s == "" || filepath.IsAbs(s) {
			return s
		}
		return filepath.Join(base, s)
	}
	p.Document.Dir = abs(p.Document.Dir)
	p.Document.Layout = abs(p.Document.Layout)
	if p.Materials != nil {
		p.Materials.Library = abs(p.Materials.Library)
	}
}

// applyDefaults fills the fields an operator usually leaves out
func applyDefaults(p *Project) {
	if p.LogLevel == "" {
		p.LogLevel = "info"
	}
	if p.LogFormat == "" {
		p.LogFormat = "json"
	}
	if p.Engine.Binary == "" {
		p.Engine.Binary = "bsimw32"
	}
	if p.Engine.Workers == 0 {
		p.Engine.Workers = 4
	}
	if p.Engine.ResultExt == "" {
		p.Engine.ResultExt = ".mon"
	}
	if p.Policies == nil {
		p.Policies = &Policies{}
	}
	if p.Policies.FilenameMismatch == "" {
		p.Policies.FilenameMismatch = "drop"
	}
	if p.Notify != nil {
		if p.Notify.MaxRetries == 0 {
			p.Notify.MaxRetries = 3
		}
		if p.Notify.Backoff == "" {
			p.Notify.Backoff = "exponential"
		}
		if p.Notify.BaseMs == 0 {
			p.Notify.BaseMs = 1000
		}
	}
}

// validateProject performs validation on the project file
func validateProject(p *Project) error {
	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[p.LogLevel] {
		return fmt.Errorf("invalid log_level: %s (must be debug, info, warn, or error)", p.LogLevel)
	}
	if p.LogFormat != "json" && p.LogFormat != "text" {
		return fmt.Errorf("invalid log_format: %s (must be json or text)", p.LogFormat)
	}

	if p.Document.Name == "" {
		return fmt.Errorf("document name cannot be empty")
	}
	if p.Document.Dir == "" {
		return fmt.Errorf("document dir cannot be empty")
	}

	if err := validateEngine(&p.Engine); err != nil {
		return fmt.Errorf("engine validation failed: %w", err)
	}

	switch p.Policies.FilenameMismatch {
	case "drop", "fail":
	default:
		return fmt.Errorf("invalid filename_mismatch policy: %s (must be drop or fail)", p.Policies.FilenameMismatch)
	}

	if p.Sweep != nil {
		if err := validateParameters(p.Sweep.Parameters, 2); err != nil {
			return fmt.Errorf("sweep validation failed: %w", err)
		}
	}

	if p.Optimization != nil {
		if err := validateParameters(p.Optimization.Parameters, 2); err != nil {
			return fmt.Errorf("optimization validation failed: %w", err)
		}
	}

	if p.Notify != nil {
		if err := validateNotify(p.Notify); err != nil {
			return fmt.Errorf("notify validation failed: %w", err)
		}
	}

	return nil
}

// validateEngine validates the engine section
func validateEngine(e *Engine) error {
	if e.Workers < 0 {
		return fmt.Errorf("workers must be positive, got %d", e.Workers)
	}
	if _, err := e.GetRunTimeout(); err != nil {
		return fmt.Errorf("invalid run_timeout %s: %w", e.RunTimeout, err)
	}
	if e.ResultExt[0] != '.' {
		return fmt.Errorf("result_ext must start with a dot, got %s", e.ResultExt)
	}
	return nil
}

// validateParameters checks names are unique and every list expands
func validateParameters(params []Parameter, minCount int) error {
	if len(params) < minCount {
		return fmt.Errorf("at least %d parameters must be defined, got %d", minCount, len(params))
	}
	names := make(map[string]bool)
	for _, prm := range params {
		if prm.Name == "" {
			return fmt.Errorf("parameter name cannot be empty")
		}
		if names[prm.Name] {
			return fmt.Errorf("duplicate parameter name: %s", prm.Name)
		}
		names[prm.Name] = true
		if _, err := prm.Expand(); err != nil {
			return err
		}
	}
	return nil
}

// validateNotify validates the webhook configuration
func validateNotify(n *Notify) error {
	if n.CallbackURL == "" {
		return fmt.Errorf("callback_url cannot be empty when notify is set")
	}
	if n.MaxRetries < 0 {
		return fmt.Errorf("max_retries cannot be negative, got %d", n.MaxRetries)
	}
	if n.Backoff != "exponential" && n.Backoff != "constant" {
		return fmt.Errorf("invalid backoff type: %s (must be exponential or constant)", n.Backoff)
	}
	if n.BaseMs < 0 {
		return fmt.Errorf("base_ms cannot be negative, got %d", n.BaseMs)
	}
	return nil
}
