package config

import (
	"encoding/json"
	"errors"
	"maps"
	"os"
	"path/filepath"
	"strings"
)

// Search defaults, mirrored from the search package so config stays free of
// engine imports.
const (
	DefaultMinScore          = 0.02
	DefaultMaxResults        = 200
	DefaultSortBy            = "relevance"
	DefaultParallelThreshold = 512
	DefaultCacheSize         = 4096
	DefaultLogLevel          = "info"
)

var knownSortKeys = map[string]bool{"relevance": true, "date": true, "name": true, "status": true}

// SearchConfig tunes the search engine.
type SearchConfig struct {
	// MinScore drops results scoring below it (0..1)
	MinScore float64 `json:"min_score,omitempty"`

	// MaxResults caps the number of results per search
	MaxResults int `json:"max_results,omitempty"`

	// SortBy is the default ordering: relevance, date, name or status
	SortBy string `json:"sort_by,omitempty"`

	// Workers is the number of goroutines scoring large collections.
	// 0 means GOMAXPROCS.
	Workers int `json:"workers,omitempty"`

	// ParallelThreshold is the collection size from which scoring runs in parallel
	ParallelThreshold int `json:"parallel_threshold,omitempty"`

	// CacheSize is the number of searchable projections kept in memory
	CacheSize int `json:"cache_size,omitempty"`

	// Abbreviations are merged over the built-in shorthand table.
	// An empty expansion removes a built-in entry.
	Abbreviations map[string]string `json:"abbreviations,omitempty"`
}

// Config holds application configuration.
type Config struct {
	Search SearchConfig `json:"search"`

	// AllowedPaths is an allowlist of directories for import and export.
	// Paths outside ~/.timeline/exports require either being in this list or AllowUnsafePaths=true.
	// Paths should be absolute (relative paths are ignored).
	AllowedPaths []string `json:"allowed_paths,omitempty"`

	// AllowUnsafePaths disables directory restrictions for import and export.
	// When true, any directory is allowed (but symlink and extension checks still apply).
	AllowUnsafePaths bool `json:"allow_unsafe_paths,omitempty"`

	// DBMaxOpenConns limits the maximum number of open database connections.
	// If set to 1, all database access is serialized (reduces "database is locked" errors).
	// 0 means use sql.DB default (unlimited).
	DBMaxOpenConns int `json:"db_max_open_conns,omitempty"`

	// DBMaxIdleConns limits the maximum number of idle database connections.
	// 0 means use sql.DB default. Typically set equal to DBMaxOpenConns.
	DBMaxIdleConns int `json:"db_max_idle_conns,omitempty"`

	// DisabledTools is a list of MCP tool names to exclude from registration.
	// Unknown tool names are logged as warnings.
	DisabledTools []string `json:"disabled_tools,omitempty"`

	// LogLevel is one of debug, info, warn, error
	LogLevel string `json:"log_level,omitempty"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Search: SearchConfig{
			MinScore:          DefaultMinScore,
			MaxResults:        DefaultMaxResults,
			SortBy:            DefaultSortBy,
			ParallelThreshold: DefaultParallelThreshold,
			CacheSize:         DefaultCacheSize,
		},
		LogLevel: DefaultLogLevel,
	}
}

// DefaultBaseDir returns ~/.timeline, or .timeline in the working directory
// when the home directory cannot be determined.
func DefaultBaseDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".timeline"
	}
	return filepath.Join(home, ".timeline")
}

// Load loads configuration from baseDir/config.json.
// Returns default config if the file doesn't exist.
// The baseDir parameter allows tests to use t.TempDir() instead of ~/.timeline.
func Load(baseDir string) (*Config, error) {
	return loadFile(filepath.Join(baseDir, "config.json"))
}

// LoadWithRepo loads configuration from both global (~/.timeline) and repo (.timeline) directories.
// Repo config is found by walking upward from startDir to find the nearest .timeline/config.json.
// Repo config takes precedence for scalar values; arrays and maps are merged.
// Either or both configs may be missing.
func LoadWithRepo(globalDir, startDir string) (*Config, error) {
	global, err := loadFileRaw(filepath.Join(globalDir, "config.json"))
	if err != nil {
		return nil, err
	}

	repo, err := loadFileRaw(FindRepoConfig(startDir))
	if err != nil {
		return nil, err
	}

	return Merge(Merge(DefaultConfig(), global), repo).Sanitize(), nil
}

// FindRepoConfig walks upward from startDir to find the nearest .timeline/config.json.
// Returns the path if found, or empty string if not found.
func FindRepoConfig(startDir string) string {
	if startDir == "" {
		return ""
	}
	dir := startDir
	for {
		configPath := filepath.Join(dir, ".timeline", "config.json")
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// loadFileRaw loads configuration from a specific file path.
// Returns zero-valued config if the file doesn't exist (not defaults).
func loadFileRaw(configPath string) (*Config, error) {
	if configPath == "" {
		return &Config{}, nil
	}
	data, err := os.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, err
	}

	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadFile loads configuration from a specific file path.
// Returns default config if the file doesn't exist.
func loadFile(configPath string) (*Config, error) {
	cfg, err := loadFileRaw(configPath)
	if err != nil {
		return nil, err
	}
	return Merge(DefaultConfig(), cfg).Sanitize(), nil
}

// Merge combines base and overlay configs.
// Overlay values take precedence for scalars; arrays are merged and deduplicated;
// maps are merged key-wise.
func Merge(base, overlay *Config) *Config {
	result := &Config{}

	result.Search.MinScore = overlayValue(base.Search.MinScore, overlay.Search.MinScore)
	result.Search.MaxResults = overlayValue(base.Search.MaxResults, overlay.Search.MaxResults)
	result.Search.SortBy = overlayString(base.Search.SortBy, overlay.Search.SortBy)
	result.Search.Workers = overlayValue(base.Search.Workers, overlay.Search.Workers)
	result.Search.ParallelThreshold = overlayValue(base.Search.ParallelThreshold, overlay.Search.ParallelThreshold)
	result.Search.CacheSize = overlayValue(base.Search.CacheSize, overlay.Search.CacheSize)
	result.Search.Abbreviations = mergeStringMap(base.Search.Abbreviations, overlay.Search.Abbreviations)

	result.DBMaxOpenConns = overlayValue(base.DBMaxOpenConns, overlay.DBMaxOpenConns)
	result.DBMaxIdleConns = overlayValue(base.DBMaxIdleConns, overlay.DBMaxIdleConns)
	result.LogLevel = overlayString(base.LogLevel, overlay.LogLevel)

	// Booleans: overlay wins if true, else base
	result.AllowUnsafePaths = base.AllowUnsafePaths || overlay.AllowUnsafePaths

	result.AllowedPaths = mergeStringSlice(base.AllowedPaths, overlay.AllowedPaths)
	result.DisabledTools = mergeStringSlice(base.DisabledTools, overlay.DisabledTools)

	return result
}

// Sanitize replaces out-of-range values with defaults. It never fails.
func (c *Config) Sanitize() *Config {
	s := &c.Search
	if s.MinScore < 0 || s.MinScore > 1 || s.MinScore != s.MinScore {
		s.MinScore = DefaultMinScore
	}
	if s.MaxResults <= 0 {
		s.MaxResults = DefaultMaxResults
	}
	s.SortBy = strings.ToLower(strings.TrimSpace(s.SortBy))
	if !knownSortKeys[s.SortBy] {
		s.SortBy = DefaultSortBy
	}
	if s.Workers < 0 {
		s.Workers = 0
	}
	if s.ParallelThreshold <= 0 {
		s.ParallelThreshold = DefaultParallelThreshold
	}
	if s.CacheSize <= 0 {
		s.CacheSize = DefaultCacheSize
	}
	if c.DBMaxOpenConns < 0 {
		c.DBMaxOpenConns = 0
	}
	if c.DBMaxIdleConns < 0 {
		c.DBMaxIdleConns = 0
	}
	if strings.TrimSpace(c.LogLevel) == "" {
		c.LogLevel = DefaultLogLevel
	}
	return c
}

// overlayValue returns overlay unless it is the zero value.
func overlayValue[T int | float64](base, overlay T) T {
	if overlay != 0 {
		return overlay
	}
	return base
}

func overlayString(base, overlay string) string {
	if strings.TrimSpace(overlay) != "" {
		return overlay
	}
	return base
}

// mergeStringSlice combines two slices, trims whitespace, and removes duplicates.
func mergeStringSlice(a, b []string) []string {
	seen := make(map[string]bool)
	result := make([]string, 0, len(a)+len(b))

	for _, s := range append(append([]string(nil), a...), b...) {
		s = strings.TrimSpace(s)
		if s != "" && !seen[s] {
			seen[s] = true
			result = append(result, s)
		}
	}

	if len(result) == 0 {
		return nil
	}
	return result
}

// mergeStringMap copies a and overlays b key by key.
func mergeStringMap(a, b map[string]string) map[string]string {
	if len(a) == 0 && len(b) == 0 {
		return nil
	}
	result := make(map[string]string, len(a)+len(b))
	maps.Copy(result, a)
	maps.Copy(result, b)
	return result
}
