package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"sync"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type configCache struct {
	mu     sync.RWMutex
	values map[reflect.Type]any
	onces  map[reflect.Type]*sync.Once
}

var (
	cache = &configCache{
		values: make(map[reflect.Type]any),
		onces:  make(map[reflect.Type]*sync.Once),
	}

	defaultEnvLoaded sync.Once
)

// Load parses environment variables into v. Each struct type is parsed once;
// later calls copy the cached value. The default .env file is read on first
// use when present.
func Load[T any](v *T) error {
	defaultEnvLoaded.Do(func() {
		// the .env file is optional
		_ = godotenv.Load()
	})
	if v == nil {
		return ErrNilPointer
	}

	key := reflect.TypeFor[T]()

	if cached, ok := cache.get(key); ok {
		*v = cached.(T)
		return nil
	}

	cache.mu.Lock()
	once, exists := cache.onces[key]
	if !exists {
		once = new(sync.Once)
		cache.onces[key] = once
	}
	cache.mu.Unlock()

	var err error
	once.Do(func() {
		var parsed T
		if parseErr := env.Parse(&parsed); parseErr != nil {
			err = errors.Join(ErrParsingConfig, parseErr)
			cache.mu.Lock()
			delete(cache.onces, key)
			cache.mu.Unlock()
			return
		}
		cache.mu.Lock()
		cache.values[key] = parsed
		cache.mu.Unlock()
	})
	if err != nil {
		return err
	}

	if cached, ok := cache.get(key); ok {
		*v = cached.(T)
		return nil
	}
	return ErrConfigNotLoaded
}

// MustLoad works like Load but panics if configuration loading fails.
func MustLoad[T any](v *T) {
	if err := Load(v); err != nil {
		panic(fmt.Sprintf("failed to load required configuration: %v", err))
	}
}

// Reset drops every cached value. Meant for tests.
func Reset() {
	cache.mu.Lock()
	defer cache.mu.Unlock()
	cache.values = make(map[reflect.Type]any)
	cache.onces = make(map[reflect.Type]*sync.Once)
}

func (c *configCache) get(key reflect.Type) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.values[key]
	return v, ok
}

// Option configures Parse.
type Option func(*parseConfig)

type parseConfig struct {
	prefix      string
	files       []string
	environment map[string]string
}

// WithPrefix prepends prefix to every variable name.
func WithPrefix(prefix string) Option {
	return func(c *parseConfig) { c.prefix = prefix }
}

// WithEnvFiles reads the given .env files. Unlike Load's default file, a
// missing file is an error.
func WithEnvFiles(files ...string) Option {
	return func(c *parseConfig) { c.files = append(c.files, files...) }
}

// WithEnvironment parses from vars instead of the process environment.
func WithEnvironment(vars map[string]string) Option {
	return func(c *parseConfig) { c.environment = vars }
}

// Parse builds a T from the environment without touching the cache.
func Parse[T any](opts ...Option) (T, error) {
	var cfg parseConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	var out T
	envOpts := env.Options{Prefix: cfg.prefix}

	if len(cfg.files) > 0 {
		vars, err := godotenv.Read(cfg.files...)
		if err != nil {
			return out, errors.Join(ErrLoadingEnvFile, err)
		}
		if cfg.environment == nil {
			cfg.environment = env.ToMap(os.Environ())
		}
		for k, v := range vars {
			if _, set := cfg.environment[k]; !set {
				cfg.environment[k] = v
			}
		}
	}
	if cfg.environment != nil {
		envOpts.Environment = cfg.environment
	}

	if err := env.ParseWithOptions(&out, envOpts); err != nil {
		return out, errors.Join(ErrParsingConfig, err)
	}
	return out, nil
}
