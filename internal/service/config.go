package service

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"
)

// LayerConfigService manages the ordered list of configured layers,
// persisted as YAML in the data directory.
type LayerConfigService struct {
	dataDir string
	layers  []LayerConfig
	mu      sync.RWMutex
}

type layersFile struct {
	Layers []LayerConfig `yaml:"layers"`
}

// NewLayerConfigService creates a config service, seeding it from disk when
// a layers file exists. A malformed file is reported as an error.
func NewLayerConfigService(dataDir string) (*LayerConfigService, error) {
	s := &LayerConfigService{dataDir: dataDir}
	if err := s.loadFromDisk(); err != nil {
		return nil, err
	}
	return s, nil
}

// List returns all layer configurations in order.
func (s *LayerConfigService) List() []LayerConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]LayerConfig, len(s.layers))
	copy(out, s.layers)
	return out
}

// Get returns a layer configuration by ID or name.
func (s *LayerConfigService) Get(key string) (LayerConfig, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, l := range s.layers {
		if l.ID == key || l.Name == key {
			return l, true
		}
	}
	return LayerConfig{}, false
}

// Create appends a layer configuration.
func (s *LayerConfigService) Create(layer LayerConfig) (LayerConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if layer.Name == "" {
		return LayerConfig{}, errors.New("layer name is required")
	}
	if layer.URL == "" {
		return LayerConfig{}, errors.New("layer url is required")
	}
	// Generate ID from name if not provided
	if layer.ID == "" {
		layer.ID = Slug(layer.Name)
	}

	// Check for duplicate
	for _, l := range s.layers {
		if l.ID == layer.ID || l.Name == layer.Name {
			return LayerConfig{}, fmt.Errorf("layer %q already exists", layer.Name)
		}
	}

	s.layers = append(s.layers, layer)
	if err := s.saveToDisk(); err != nil {
		s.layers = s.layers[:len(s.layers)-1]
		return LayerConfig{}, err
	}

	return layer, nil
}

// Delete removes a layer configuration by ID.
func (s *LayerConfigService) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, l := range s.layers {
		if l.ID == id {
			s.layers = append(s.layers[:i:i], s.layers[i+1:]...)
			return s.saveToDisk()
		}
	}
	return fmt.Errorf("layer %q not found", id)
}

// configFile returns the path to the layers config file.
func (s *LayerConfigService) configFile() string {
	return filepath.Join(s.dataDir, "layers.yaml")
}

func (s *LayerConfigService) loadFromDisk() error {
	data, err := os.ReadFile(s.configFile())
	if err != nil {
		if os.IsNotExist(err) {
			return nil // start empty
		}
		return fmt.Errorf("reading layers file: %w", err)
	}

	var f layersFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("parsing %s: %w", s.configFile(), err)
	}
	for i := range f.Layers {
		if f.Layers[i].ID == "" {
			f.Layers[i].ID = Slug(f.Layers[i].Name)
		}
	}
	s.layers = f.Layers
	return nil
}

func (s *LayerConfigService) saveToDisk() error {
	if s.dataDir == "" {
		return nil
	}
	// Ensure data directory exists
	if err := os.MkdirAll(s.dataDir, 0755); err != nil {
		return err
	}

	data, err := yaml.Marshal(layersFile{Layers: s.layers})
	if err != nil {
		return err
	}

	return os.WriteFile(s.configFile(), data, 0644)
}
