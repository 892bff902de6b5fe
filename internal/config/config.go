package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration is a time.Duration that unmarshals from a YAML string like "30s".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	dur, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	d.Duration = dur
	return nil
}

// Application identifies the monitored application whose composite status is
// derived from its dependencies.
type Application struct {
	Name     string `yaml:"name"`
	HostName string `yaml:"host_name"`
}

// Dependency describes one service the application depends on and how its
// raw state is probed.
type Dependency struct {
	Name     string   `yaml:"name"`
	Provider string   `yaml:"provider"`
	Target   string   `yaml:"target"`
	Timeout  Duration `yaml:"timeout"`
}

// CheckConfig holds check-cycle scheduling settings.
type CheckConfig struct {
	Interval Duration `yaml:"interval"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Address string `yaml:"address"`
}

// StorageConfig selects and configures the status repository backend.
type StorageConfig struct {
	Driver string `yaml:"driver"`
	Path   string `yaml:"path"`
	Dir    string `yaml:"dir"`
}

// Config is the root application configuration. It is constructed once by
// Load and passed by reference into every component; nothing mutates it
// afterwards.
type Config struct {
	Application  Application   `yaml:"application"`
	Dependencies []Dependency  `yaml:"dependencies"`
	Check        CheckConfig   `yaml:"check"`
	Server       ServerConfig  `yaml:"server"`
	Storage      StorageConfig `yaml:"storage"`
}

// DependencyNames returns the configured dependency names in order.
func (c *Config) DependencyNames() []string {
	names := make([]string, len(c.Dependencies))
	for i, d := range c.Dependencies {
		names[i] = d.Name
	}
	return names
}

var validProviders = map[string]bool{
	"systemd": true,
	"tcp":     true,
	"http":    true,
	"docker":  true,
}

var validDrivers = map[string]bool{
	"sqlite": true,
	"file":   true,
}

// Load reads, parses, and validates the config file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	type rawDependency struct {
		Name     string `yaml:"name"`
		Provider string `yaml:"provider"`
		Target   string `yaml:"target"`
		Timeout  string `yaml:"timeout"`
	}
	type rawConfig struct {
		Application  Application     `yaml:"application"`
		Dependencies []rawDependency `yaml:"dependencies"`
		Check        struct {
			Interval string `yaml:"interval"`
		} `yaml:"check"`
		Server  ServerConfig  `yaml:"server"`
		Storage StorageConfig `yaml:"storage"`
	}

	var raw rawConfig
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if raw.Application.Name == "" {
		return nil, fmt.Errorf("application.name is required")
	}
	if len(raw.Dependencies) == 0 {
		return nil, fmt.Errorf("at least one dependency must be configured")
	}

	// Apply defaults.
	if raw.Server.Address == "" {
		raw.Server.Address = ":8080"
	}
	if raw.Storage.Driver == "" {
		raw.Storage.Driver = "sqlite"
	}
	if !validDrivers[raw.Storage.Driver] {
		return nil, fmt.Errorf("storage.driver %q is invalid (must be sqlite or file)", raw.Storage.Driver)
	}
	if raw.Storage.Path == "" {
		raw.Storage.Path = "appstatus.db"
	}
	if raw.Storage.Dir == "" {
		raw.Storage.Dir = "data"
	}

	cfg := &Config{
		Application: raw.Application,
		Server:      raw.Server,
		Storage:     raw.Storage,
	}

	if raw.Check.Interval == "" {
		cfg.Check.Interval = Duration{60 * time.Second}
	} else {
		d, err := time.ParseDuration(raw.Check.Interval)
		if err != nil {
			return nil, fmt.Errorf("invalid check.interval %q: %w", raw.Check.Interval, err)
		}
		cfg.Check.Interval = Duration{d}
	}

	names := make(map[string]bool, len(raw.Dependencies))
	for i, rd := range raw.Dependencies {
		if rd.Name == "" {
			return nil, fmt.Errorf("dependency[%d]: name is required", i)
		}
		if names[rd.Name] {
			return nil, fmt.Errorf("duplicate dependency name %q", rd.Name)
		}
		names[rd.Name] = true

		// The application's status is always derived, never probed raw.
		if rd.Name == raw.Application.Name {
			return nil, fmt.Errorf("dependency %q must not share the application name", rd.Name)
		}

		if rd.Provider == "" {
			rd.Provider = "systemd"
		}
		if !validProviders[rd.Provider] {
			return nil, fmt.Errorf("dependency %q: invalid provider %q (must be systemd, tcp, http, or docker)", rd.Name, rd.Provider)
		}

		dep := Dependency{
			Name:     rd.Name,
			Provider: rd.Provider,
			Target:   rd.Target,
		}

		// systemd and docker default the target to the dependency name;
		// tcp and http have no sensible default.
		if dep.Target == "" {
			switch dep.Provider {
			case "systemd", "docker":
				dep.Target = dep.Name
			default:
				return nil, fmt.Errorf("dependency %q: target is required for provider %q", rd.Name, rd.Provider)
			}
		}

		if rd.Timeout == "" {
			dep.Timeout = Duration{10 * time.Second}
		} else {
			d, err := time.ParseDuration(rd.Timeout)
			if err != nil {
				return nil, fmt.Errorf("dependency %q: invalid timeout %q: %w", rd.Name, rd.Timeout, err)
			}
			dep.Timeout = Duration{d}
		}

		cfg.Dependencies = append(cfg.Dependencies, dep)
	}

	return cfg, nil
}
