package tts

import (
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sort"
	"sync"
)

var (
	// ErrEngineNotFound is returned for an engine name nobody registered.
	ErrEngineNotFound = errors.New("TTS engine not found")
	// ErrEngineExists is returned when a name is registered twice.
	ErrEngineExists = errors.New("TTS engine already registered")
)

// Registry holds the engines found at startup. The first registered engine
// is the default until SetDefault picks another.
type Registry struct {
	mu      sync.RWMutex
	engines map[string]Engine
	def     string
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{engines: make(map[string]Engine)}
}

// Register adds engine under its Name.
func (r *Registry) Register(engine Engine) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := engine.Name()
	if _, ok := r.engines[name]; ok {
		return fmt.Errorf("%w: %s", ErrEngineExists, name)
	}
	r.engines[name] = engine
	if r.def == "" {
		r.def = name
	}
	return nil
}

// Get returns the engine registered as name.
func (r *Registry) Get(name string) (Engine, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.lookup(name)
}

// Default returns the engine sessions should use.
func (r *Registry) Default() (Engine, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.def == "" {
		return nil, ErrEngineNotFound
	}
	return r.engines[r.def], nil
}

// SetDefault makes name the default engine.
func (r *Registry) SetDefault(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, err := r.lookup(name); err != nil {
		return err
	}
	r.def = name
	return nil
}

// List returns the registered engine names in sorted order.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.engines))
	for name := range r.engines {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *Registry) lookup(name string) (Engine, error) {
	engine, ok := r.engines[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrEngineNotFound, name)
	}
	return engine, nil
}

// DetectConfig selects and configures engines for Detect.
type DetectConfig struct {
	// Preferred is the engine to make default. Empty keeps the first found.
	Preferred  string
	PiperPath  string
	PiperModel string
	EspeakPath string
	// TempDir roots the files that file-writing engines produce.
	TempDir string
}

// Detect registers every engine whose backend is installed on this host.
// The platform engine (sapi on Windows, say on macOS) is tried first, so it
// is the default unless cfg.Preferred names another.
func Detect(cfg DetectConfig, logger *slog.Logger) (*Registry, error) {
	reg := NewRegistry()

	type candidate struct {
		name string
		make func() (Engine, error)
	}
	var candidates []candidate

	switch runtime.GOOS {
	case "windows":
		candidates = append(candidates, candidate{"sapi", func() (Engine, error) { return NewSAPIEngine(cfg.TempDir, logger) }})
	case "darwin":
		candidates = append(candidates, candidate{"say", func() (Engine, error) { return NewSayEngine(cfg.TempDir, logger) }})
	}
	candidates = append(candidates, candidate{"espeak", func() (Engine, error) { return NewEspeakEngine(cfg.EspeakPath, cfg.TempDir, logger) }})
	if cfg.PiperModel != "" {
		candidates = append(candidates, candidate{"piper", func() (Engine, error) {
			return NewPiperEngine(PiperConfig{BinaryPath: cfg.PiperPath, ModelPath: cfg.PiperModel}, logger)
		}})
	}

	for _, c := range candidates {
		engine, err := c.make()
		if err != nil {
			logger.Debug("TTS engine not available", "engine", c.name, "error", err)
			continue
		}
		if err := reg.Register(engine); err != nil {
			return nil, err
		}
		logger.Info("TTS engine registered", "engine", c.name)
	}

	if len(reg.List()) == 0 {
		return nil, fmt.Errorf("%w: no engine found on %s", ErrEngineUnavailable, runtime.GOOS)
	}

	if cfg.Preferred != "" {
		if err := reg.SetDefault(cfg.Preferred); err != nil {
			return nil, fmt.Errorf("%w (available: %v)", err, reg.List())
		}
	}
	return reg, nil
}
