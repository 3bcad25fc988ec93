package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// DefaultConfigPath is where navmodeld looks for its configuration. A missing
// file means all defaults.
const DefaultConfigPath = "/data/navmodeld/config.json"

// ConfigPathEnv overrides DefaultConfigPath.
const ConfigPathEnv = "NAVMODELD_CONFIG"

// BackendEnv selects the backend when the config file does not. It holds an
// integer: non-zero for the accelerator model, zero for the portable model.
// Unset means zero.
const BackendEnv = "USE_SNPE_MODEL"

// Config is the navmodeld configuration. Every field is optional; the Get*
// methods supply defaults for fields left out of the JSON.
type Config struct {
	// Model
	Backend         *string `json:"backend,omitempty"` // snpe, onnx or fixture
	ModelsDir       *string `json:"models_dir,omitempty"`
	OnnxLibraryPath *string `json:"onnx_library_path,omitempty"`

	// Startup gate
	ParamsDir    *string `json:"params_dir,omitempty"`
	ReadinessKey *string `json:"readiness_key,omitempty"`

	// Frame source
	VisionDir      *string `json:"vision_dir,omitempty"`
	VisionName     *string `json:"vision_name,omitempty"`
	ConnectBackoff *string `json:"connect_backoff,omitempty"` // duration string like "100ms"

	// Bus
	BusDir *string `json:"bus_dir,omitempty"`

	// Process
	RealtimePriority *int  `json:"realtime_priority,omitempty"` // 0 disables
	CPUCores         []int `json:"cpu_cores,omitempty"`
	GCMemoryLimitMB  *int  `json:"gc_memory_limit_mb,omitempty"`

	// Latency statistics
	StatsDB     *string `json:"stats_db,omitempty"` // empty disables storage
	StatsWindow *int    `json:"stats_window,omitempty"`
}

func ptrString(v string) *string { return &v }
func ptrInt(v int) *int          { return &v }

// Empty returns a Config with every field unset.
func Empty() *Config {
	return &Config{}
}

// Default returns a Config with every field set to its default.
func Default() *Config {
	c := Empty()
	return &Config{
		Backend:          ptrString(c.GetBackend()),
		ModelsDir:        ptrString(c.GetModelsDir()),
		OnnxLibraryPath:  ptrString(c.GetOnnxLibraryPath()),
		ParamsDir:        ptrString(c.GetParamsDir()),
		ReadinessKey:     ptrString(c.GetReadinessKey()),
		VisionDir:        ptrString(c.GetVisionDir()),
		VisionName:       ptrString(c.GetVisionName()),
		ConnectBackoff:   ptrString(c.GetConnectBackoff().String()),
		BusDir:           ptrString(c.GetBusDir()),
		RealtimePriority: ptrInt(c.GetRealtimePriority()),
		GCMemoryLimitMB:  ptrInt(c.GetGCMemoryLimitMB()),
		StatsDB:          ptrString(c.GetStatsDB()),
		StatsWindow:      ptrInt(c.GetStatsWindow()),
	}
}

// Load reads a Config from a JSON file. The file must have a .json extension
// and be under 1MB. Fields omitted from the file keep their defaults.
func Load(path string) (*Config, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Empty()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// LoadOrDefault is Load, except that a missing file yields an empty Config.
func LoadOrDefault(path string) (*Config, error) {
	if _, err := os.Stat(filepath.Clean(path)); errors.Is(err, fs.ErrNotExist) {
		cfg := Empty()
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("invalid configuration: %w", err)
		}
		return cfg, nil
	}
	return Load(path)
}

// Path returns the config path from the environment or the default.
func Path() string {
	if p := os.Getenv(ConfigPathEnv); p != "" {
		return p
	}
	return DefaultConfigPath
}

// Validate checks that the configuration values are valid.
func (c *Config) Validate() error {
	if c.Backend != nil {
		switch *c.Backend {
		case "snpe", "onnx", "fixture":
		default:
			return fmt.Errorf("backend must be one of snpe, onnx, fixture, got %q", *c.Backend)
		}
	} else if _, err := backendEnvValue(); err != nil {
		return err
	}

	if c.ReadinessKey != nil {
		if *c.ReadinessKey == "" || strings.ContainsAny(*c.ReadinessKey, `/\`) {
			return fmt.Errorf("invalid readiness_key %q", *c.ReadinessKey)
		}
	}

	if c.VisionName != nil {
		if *c.VisionName == "" || strings.ContainsAny(*c.VisionName, `/\`) {
			return fmt.Errorf("invalid vision_name %q", *c.VisionName)
		}
	}

	if c.ConnectBackoff != nil && *c.ConnectBackoff != "" {
		d, err := time.ParseDuration(*c.ConnectBackoff)
		if err != nil {
			return fmt.Errorf("invalid connect_backoff '%s': %w", *c.ConnectBackoff, err)
		}
		if d <= 0 {
			return fmt.Errorf("connect_backoff must be positive, got %s", d)
		}
	}

	if c.RealtimePriority != nil {
		if *c.RealtimePriority < 0 || *c.RealtimePriority > 99 {
			return fmt.Errorf("realtime_priority must be between 0 and 99, got %d", *c.RealtimePriority)
		}
	}

	for _, core := range c.CPUCores {
		if core < 0 {
			return fmt.Errorf("cpu_cores must be non-negative, got %d", core)
		}
	}

	if c.GCMemoryLimitMB != nil && *c.GCMemoryLimitMB < 0 {
		return fmt.Errorf("gc_memory_limit_mb must be non-negative, got %d", *c.GCMemoryLimitMB)
	}

	if c.StatsWindow != nil && *c.StatsWindow <= 0 {
		return fmt.Errorf("stats_window must be positive, got %d", *c.StatsWindow)
	}

	return nil
}

// GetBackend returns the backend. Without a configured value it follows
// USE_SNPE_MODEL: snpe when non-zero, onnx otherwise. The fixture backend is
// only selected by the config file.
func (c *Config) GetBackend() string {
	if c.Backend != nil && *c.Backend != "" {
		return *c.Backend
	}
	if n, err := backendEnvValue(); err == nil && n != 0 {
		return "snpe"
	}
	return "onnx"
}

func backendEnvValue() (int, error) {
	v := strings.TrimSpace(os.Getenv(BackendEnv))
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer, got %q", BackendEnv, v)
	}
	return n, nil
}

// GetModelsDir returns the model artifact directory.
func (c *Config) GetModelsDir() string {
	if c.ModelsDir == nil || *c.ModelsDir == "" {
		return "models"
	}
	return *c.ModelsDir
}

// GetOnnxLibraryPath returns the onnxruntime shared library path. Empty uses
// the library's own default.
func (c *Config) GetOnnxLibraryPath() string {
	if c.OnnxLibraryPath == nil {
		return ""
	}
	return *c.OnnxLibraryPath
}

// GetParamsDir returns the params directory holding the readiness flag.
func (c *Config) GetParamsDir() string {
	if c.ParamsDir == nil || *c.ParamsDir == "" {
		return "/data/params/d"
	}
	return *c.ParamsDir
}

// GetReadinessKey returns the readiness flag key.
func (c *Config) GetReadinessKey() string {
	if c.ReadinessKey == nil || *c.ReadinessKey == "" {
		return "DmModelInitialized"
	}
	return *c.ReadinessKey
}

// GetVisionDir returns the directory holding vision stream sockets.
func (c *Config) GetVisionDir() string {
	if c.VisionDir == nil || *c.VisionDir == "" {
		return "/tmp"
	}
	return *c.VisionDir
}

// GetVisionName returns the name of the vision server publishing map frames.
func (c *Config) GetVisionName() string {
	if c.VisionName == nil || *c.VisionName == "" {
		return "navd"
	}
	return *c.VisionName
}

// GetConnectBackoff parses and returns the ConnectBackoff as a time.Duration.
func (c *Config) GetConnectBackoff() time.Duration {
	if c.ConnectBackoff == nil || *c.ConnectBackoff == "" {
		return 100 * time.Millisecond // default
	}
	d, err := time.ParseDuration(*c.ConnectBackoff)
	if err != nil || d <= 0 {
		return 100 * time.Millisecond // default on parse error
	}
	return d
}

// GetBusDir returns the directory holding bus sockets.
func (c *Config) GetBusDir() string {
	if c.BusDir == nil || *c.BusDir == "" {
		return "/tmp/navbus"
	}
	return *c.BusDir
}

// GetRealtimePriority returns the SCHED_FIFO priority of the frame loop.
func (c *Config) GetRealtimePriority() int {
	if c.RealtimePriority == nil {
		return 53 // default
	}
	return *c.RealtimePriority
}

// GetCPUCores returns the cores the frame loop is pinned to. Empty means no
// pinning.
func (c *Config) GetCPUCores() []int {
	return c.CPUCores
}

// GetGCMemoryLimitMB returns the soft memory limit that triggers collection
// while the garbage collector is otherwise disabled. Zero leaves the collector
// enabled.
func (c *Config) GetGCMemoryLimitMB() int {
	if c.GCMemoryLimitMB == nil {
		return 256 // default
	}
	return *c.GCMemoryLimitMB
}

// GetStatsDB returns the latency database path.
func (c *Config) GetStatsDB() string {
	if c.StatsDB == nil {
		return "/data/navmodeld/latency.db"
	}
	return *c.StatsDB
}

// GetStatsWindow returns how many frames make one latency summary.
func (c *Config) GetStatsWindow() int {
	if c.StatsWindow == nil {
		return 1200 // default
	}
	return *c.StatsWindow
}
