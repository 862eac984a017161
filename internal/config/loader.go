package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/pflag"
)

// EnvPrefix is the prefix of environment variables read by Load.
const EnvPrefix = "EVENTSIGNAL_"

// flagKeys maps command-line flag names to configuration keys.
var flagKeys = map[string]string{
	"log-level":  "log.level",
	"log-format": "log.format",
	"queue-size": "loop.queue_size",
}

// Manager loads configuration and keeps the last valid result.
type Manager struct {
	mu      sync.RWMutex
	path    string
	flags   *pflag.FlagSet
	environ func() []string
	current Config
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithFlags merges changed flags from fs on every load.
func WithFlags(fs *pflag.FlagSet) ManagerOption {
	return func(m *Manager) {
		m.flags = fs
	}
}

// WithEnviron overrides the environment source, mainly for tests.
func WithEnviron(environ func() []string) ManagerOption {
	return func(m *Manager) {
		m.environ = environ
	}
}

// NewManager creates a manager for the file at path. An empty path loads
// defaults, environment and flags only.
func NewManager(path string, opts ...ManagerOption) *Manager {
	m := &Manager{
		path:    path,
		current: DefaultConfig(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Path returns the configuration file path.
func (m *Manager) Path() string {
	return m.path
}

// Load reads every source, validates the result and makes it current.
// On error the previous configuration stays current.
func (m *Manager) Load() (Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(DefaultConfigAsMap(), "."), nil); err != nil {
		return Config{}, fmt.Errorf("error loading defaults: %w", err)
	}

	if m.path != "" {
		if err := loadFile(k, m.path); err != nil {
			return Config{}, err
		}
	}

	if m.environ != nil {
		if err := loadEnv(k, m.environ()); err != nil {
			return Config{}, err
		}
	} else if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return Config{}, fmt.Errorf("error loading environment variables: %w", err)
	}

	if m.flags != nil {
		provider := posflag.ProviderWithFlag(m.flags, ".", k, func(f *pflag.Flag) (string, any) {
			key, ok := flagKeys[f.Name]
			if !ok {
				return "", nil
			}
			return key, posflag.FlagVal(m.flags, f)
		})
		if err := k.Load(provider, nil); err != nil {
			return Config{}, fmt.Errorf("error loading command-line flags: %w", err)
		}
	}

	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return Config{}, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return Config{}, err
	}

	m.mu.Lock()
	m.current = cfg
	m.mu.Unlock()

	return cfg, nil
}

// Get returns the current configuration.
func (m *Manager) Get() Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// loadFile merges a YAML or TOML file into k.
func loadFile(k *koanf.Koanf, path string) error {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
		return fmt.Errorf("error checking config file %s: %w", path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return &ParseError{Path: path, Err: err}
		}
	case ".toml":
		data, err := parseTOML(path)
		if err != nil {
			return err
		}
		if err := k.Load(confmap.Provider(data, ""), nil); err != nil {
			return fmt.Errorf("error loading config file %s: %w", path, err)
		}
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
	return nil
}

// parseTOML decodes a TOML file into a nested map.
func parseTOML(path string) (map[string]any, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", path, err)
	}

	var data map[string]any
	if err := toml.Unmarshal(content, &data); err != nil {
		var decodeErr *toml.DecodeError
		if errors.As(err, &decodeErr) {
			line, col := decodeErr.Position()
			return nil, &ParseError{Path: path, Line: line, Column: col, Err: err}
		}
		return nil, &ParseError{Path: path, Err: err}
	}
	if data == nil {
		data = make(map[string]any)
	}
	return data, nil
}

// loadEnv merges EVENTSIGNAL_* variables from a custom environ into k.
func loadEnv(k *koanf.Koanf, environ []string) error {
	vars := make(map[string]any)
	for _, kv := range environ {
		name, value, ok := strings.Cut(kv, "=")
		if !ok || !strings.HasPrefix(name, EnvPrefix) {
			continue
		}
		if key := envKey(name); key != "" {
			vars[key] = value
		}
	}
	if len(vars) == 0 {
		return nil
	}
	if err := k.Load(confmap.Provider(vars, "."), nil); err != nil {
		return fmt.Errorf("error loading environment variables: %w", err)
	}
	return nil
}

// envKey maps EVENTSIGNAL_LOOP_QUEUE_SIZE to loop.queue_size.
func envKey(name string) string {
	key := strings.ToLower(strings.TrimPrefix(name, EnvPrefix))
	return strings.Replace(key, "_", ".", 1)
}
