package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// DefaultConfigPath is the path to the canonical pipeline defaults file.
const DefaultConfigPath = "config/pipeline.defaults.json"

// PipelineConfig holds the parameters of the trajectory curation pipeline.
// Every field is optional; the Get* accessors supply the defaults, so a
// partial JSON file is safe.
type PipelineConfig struct {
	// Stability segmenter
	StableWindow    *int     `json:"stable_window,omitempty"`
	StableThreshold *float64 `json:"stable_threshold,omitempty"`

	// Example windows
	PastSeconds   *int           `json:"past_seconds,omitempty"`
	FutureSeconds *int           `json:"future_seconds,omitempty"`
	DefaultFPS    *int           `json:"default_fps,omitempty"`
	FPSOverrides  map[string]int `json:"fps_overrides,omitempty"`

	// Pose dump layout
	QuaternionOrder *string `json:"quaternion_order,omitempty"` // "xyzw" or "wxyz"
	MetadataDir     *string `json:"metadata_dir,omitempty"`

	// Outputs
	ReuseValidCache  *bool `json:"reuse_valid_cache,omitempty"`
	WriteDiagnostics *bool `json:"write_diagnostics,omitempty"`
}

func ptrFloat64(v float64) *float64 { return &v }
func ptrBool(v bool) *bool          { return &v }
func ptrString(v string) *string    { return &v }
func ptrInt(v int) *int             { return &v }

// defaultFPSOverrides lists the sub-videos recorded at a frame rate other
// than 60 fps.
var defaultFPSOverrides = map[string]int{
	"P09_07": 30, "P09_08": 30, "P10_01": 30, "P10_04": 30,
	"P11_01": 30, "P18_02": 30, "P18_03": 30,
	"P17_01": 48, "P17_02": 48, "P17_03": 48, "P17_04": 48,
	"P18_09": 90,
}

// EmptyPipelineConfig returns a PipelineConfig with all fields unset.
func EmptyPipelineConfig() *PipelineConfig {
	return &PipelineConfig{}
}

// DefaultPipelineConfig returns a config with every field populated with
// its default value.
func DefaultPipelineConfig() *PipelineConfig {
	overrides := make(map[string]int, len(defaultFPSOverrides))
	for k, v := range defaultFPSOverrides {
		overrides[k] = v
	}
	return &PipelineConfig{
		StableWindow:     ptrInt(5),
		StableThreshold:  ptrFloat64(0.01),
		PastSeconds:      ptrInt(2),
		FutureSeconds:    ptrInt(5),
		DefaultFPS:       ptrInt(60),
		FPSOverrides:     overrides,
		QuaternionOrder:  ptrString("xyzw"),
		MetadataDir:      ptrString("pos_info"),
		ReuseValidCache:  ptrBool(true),
		WriteDiagnostics: ptrBool(true),
	}
}

// LoadPipelineConfig loads a PipelineConfig from a JSON file.
// The file must have a .json extension and be under 1MB.
func LoadPipelineConfig(path string) (*PipelineConfig, error) {
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

	cfg := EmptyPipelineConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// MustLoadDefaultConfig loads the canonical defaults from DefaultConfigPath,
// searching the current directory and its parents. Panics if the file
// cannot be loaded; intended for test setup.
func MustLoadDefaultConfig() *PipelineConfig {
	candidates := []string{
		DefaultConfigPath,
		"../../" + DefaultConfigPath,
		"../../../" + DefaultConfigPath,
		"../../../../" + DefaultConfigPath,
	}
	for _, path := range candidates {
		if cfg, err := LoadPipelineConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Validate checks that the configured values are usable.
func (c *PipelineConfig) Validate() error {
	if c.StableWindow != nil && *c.StableWindow < 1 {
		return fmt.Errorf("stable_window must be at least 1, got %d", *c.StableWindow)
	}
	if c.StableThreshold != nil && *c.StableThreshold <= 0 {
		return fmt.Errorf("stable_threshold must be positive, got %f", *c.StableThreshold)
	}
	if c.PastSeconds != nil && *c.PastSeconds < 1 {
		return fmt.Errorf("past_seconds must be at least 1, got %d", *c.PastSeconds)
	}
	if c.FutureSeconds != nil && *c.FutureSeconds < 1 {
		return fmt.Errorf("future_seconds must be at least 1, got %d", *c.FutureSeconds)
	}
	if c.DefaultFPS != nil && *c.DefaultFPS < 1 {
		return fmt.Errorf("default_fps must be at least 1, got %d", *c.DefaultFPS)
	}
	for _, id := range sortedKeys(c.FPSOverrides) {
		if c.FPSOverrides[id] < 1 {
			return fmt.Errorf("fps_overrides[%s] must be at least 1, got %d", id, c.FPSOverrides[id])
		}
	}
	if c.QuaternionOrder != nil {
		switch *c.QuaternionOrder {
		case "xyzw", "wxyz":
		default:
			return fmt.Errorf("quaternion_order must be \"xyzw\" or \"wxyz\", got %q", *c.QuaternionOrder)
		}
	}
	if c.MetadataDir != nil && (*c.MetadataDir == "" || filepath.IsAbs(*c.MetadataDir)) {
		return fmt.Errorf("metadata_dir must be a non-empty relative path, got %q", *c.MetadataDir)
	}
	return nil
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// GetStableWindow returns the number of consecutive keyframes that must agree
// before a segment opens.
func (c *PipelineConfig) GetStableWindow() int {
	if c.StableWindow == nil {
		return 5
	}
	return *c.StableWindow
}

// GetStableThreshold returns the frame/keyframe distance threshold.
func (c *PipelineConfig) GetStableThreshold() float64 {
	if c.StableThreshold == nil {
		return 0.01
	}
	return *c.StableThreshold
}

// GetPastSeconds returns the past horizon of an example.
func (c *PipelineConfig) GetPastSeconds() int {
	if c.PastSeconds == nil {
		return 2
	}
	return *c.PastSeconds
}

// GetFutureSeconds returns the future horizon of an example.
func (c *PipelineConfig) GetFutureSeconds() int {
	if c.FutureSeconds == nil {
		return 5
	}
	return *c.FutureSeconds
}

// GetDefaultFPS returns the frame rate used when no override is known.
func (c *PipelineConfig) GetDefaultFPS() int {
	if c.DefaultFPS == nil {
		return 60
	}
	return *c.DefaultFPS
}

// FPSFor returns the frame rate of a sub-video: configured override first,
// then the built-in list, then the default.
func (c *PipelineConfig) FPSFor(subID string) int {
	if fps, ok := c.FPSOverrides[subID]; ok {
		return fps
	}
	if c.FPSOverrides == nil {
		if fps, ok := defaultFPSOverrides[subID]; ok {
			return fps
		}
	}
	return c.GetDefaultFPS()
}

// GetQuaternionOrder returns the pose dump quaternion layout.
func (c *PipelineConfig) GetQuaternionOrder() string {
	if c.QuaternionOrder == nil {
		return "xyzw"
	}
	return *c.QuaternionOrder
}

// GetMetadataDir returns the per-sub-video directory holding pose dumps.
func (c *PipelineConfig) GetMetadataDir() string {
	if c.MetadataDir == nil {
		return "pos_info"
	}
	return *c.MetadataDir
}

// GetReuseValidCache reports whether an existing validFrame.csv is reused
// instead of re-segmenting.
func (c *PipelineConfig) GetReuseValidCache() bool {
	if c.ReuseValidCache == nil {
		return true
	}
	return *c.ReuseValidCache
}

// GetWriteDiagnostics reports whether vis.png / vis.html are produced.
func (c *PipelineConfig) GetWriteDiagnostics() bool {
	if c.WriteDiagnostics == nil {
		return true
	}
	return *c.WriteDiagnostics
}
