package config

import (
	"math"
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, dir, content string) {
	t.Helper()
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("MkdirAll() error = %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "config.json"), []byte(content), 0600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Search.MinScore != DefaultMinScore {
		t.Errorf("MinScore = %v, want %v", cfg.Search.MinScore, DefaultMinScore)
	}
	if cfg.Search.MaxResults != DefaultMaxResults {
		t.Errorf("MaxResults = %d, want %d", cfg.Search.MaxResults, DefaultMaxResults)
	}
	if cfg.Search.SortBy != "relevance" {
		t.Errorf("SortBy = %q, want relevance", cfg.Search.SortBy)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q, want info", cfg.LogLevel)
	}
	if len(cfg.DisabledTools) != 0 {
		t.Errorf("DisabledTools = %v, want empty", cfg.DisabledTools)
	}
}

func TestLoad_CustomValues(t *testing.T) {
	tmpDir := t.TempDir()
	writeConfig(t, tmpDir, `{
		"search": {"min_score": 0.3, "max_results": 25, "sort_by": "date", "workers": 2, "abbreviations": {"dnd": "dungeons and dragons"}},
		"disabled_tools": ["event_delete"],
		"log_level": "debug"
	}`)

	cfg, err := Load(tmpDir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Search.MinScore != 0.3 {
		t.Errorf("MinScore = %v, want 0.3", cfg.Search.MinScore)
	}
	if cfg.Search.MaxResults != 25 {
		t.Errorf("MaxResults = %d, want 25", cfg.Search.MaxResults)
	}
	if cfg.Search.SortBy != "date" {
		t.Errorf("SortBy = %q, want date", cfg.Search.SortBy)
	}
	if cfg.Search.Workers != 2 {
		t.Errorf("Workers = %d, want 2", cfg.Search.Workers)
	}
	if cfg.Search.CacheSize != DefaultCacheSize {
		t.Errorf("CacheSize = %d, want default %d", cfg.Search.CacheSize, DefaultCacheSize)
	}
	if cfg.Search.Abbreviations["dnd"] != "dungeons and dragons" {
		t.Errorf("Abbreviations = %v", cfg.Search.Abbreviations)
	}
	if len(cfg.DisabledTools) != 1 || cfg.DisabledTools[0] != "event_delete" {
		t.Errorf("DisabledTools = %v, want [event_delete]", cfg.DisabledTools)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want debug", cfg.LogLevel)
	}
}

func TestLoad_InvalidJSON(t *testing.T) {
	tmpDir := t.TempDir()
	writeConfig(t, tmpDir, `{"search": `)

	if _, err := Load(tmpDir); err == nil {
		t.Fatal("Load() error = nil, want JSON error")
	}
}

func TestLoad_SanitizesOutOfRange(t *testing.T) {
	tmpDir := t.TempDir()
	writeConfig(t, tmpDir, `{"search": {"min_score": 4.5, "max_results": -3, "sort_by": "popularity", "workers": -1, "parallel_threshold": -10, "cache_size": -1}}`)

	cfg, err := Load(tmpDir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Search.MinScore != DefaultMinScore {
		t.Errorf("MinScore = %v, want default", cfg.Search.MinScore)
	}
	if cfg.Search.MaxResults != DefaultMaxResults {
		t.Errorf("MaxResults = %d, want default", cfg.Search.MaxResults)
	}
	if cfg.Search.SortBy != DefaultSortBy {
		t.Errorf("SortBy = %q, want default", cfg.Search.SortBy)
	}
	if cfg.Search.Workers != 0 {
		t.Errorf("Workers = %d, want 0", cfg.Search.Workers)
	}
	if cfg.Search.ParallelThreshold != DefaultParallelThreshold {
		t.Errorf("ParallelThreshold = %d, want default", cfg.Search.ParallelThreshold)
	}
	if cfg.Search.CacheSize != DefaultCacheSize {
		t.Errorf("CacheSize = %d, want default", cfg.Search.CacheSize)
	}
}

func TestSanitize_NaNAndCase(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Search.MinScore = math.NaN()
	cfg.Search.SortBy = "  Status "
	cfg.LogLevel = " "

	cfg.Sanitize()

	if cfg.Search.MinScore != DefaultMinScore {
		t.Errorf("MinScore = %v, want default", cfg.Search.MinScore)
	}
	if cfg.Search.SortBy != "status" {
		t.Errorf("SortBy = %q, want status", cfg.Search.SortBy)
	}
	if cfg.LogLevel != DefaultLogLevel {
		t.Errorf("LogLevel = %q, want default", cfg.LogLevel)
	}
}

func TestLoadWithRepo_BothPresent(t *testing.T) {
	globalDir := t.TempDir()
	repoRoot := t.TempDir()

	writeConfig(t, globalDir, `{"search": {"max_results": 50, "abbreviations": {"dnd": "dungeons and dragons"}}, "disabled_tools": ["event_import"]}`)
	writeConfig(t, filepath.Join(repoRoot, ".timeline"), `{"search": {"max_results": 10, "abbreviations": {"tpk": "total party kill"}}, "disabled_tools": ["event_delete"]}`)

	cfg, err := LoadWithRepo(globalDir, repoRoot)
	if err != nil {
		t.Fatalf("LoadWithRepo() error = %v", err)
	}

	// Repo overrides scalar
	if cfg.Search.MaxResults != 10 {
		t.Errorf("MaxResults = %d, want 10 (repo override)", cfg.Search.MaxResults)
	}

	// Arrays and maps merged
	if len(cfg.DisabledTools) != 2 {
		t.Errorf("DisabledTools length = %d, want 2", len(cfg.DisabledTools))
	}
	if len(cfg.Search.Abbreviations) != 2 {
		t.Errorf("Abbreviations = %v, want both entries", cfg.Search.Abbreviations)
	}
}

func TestLoadWithRepo_OnlyGlobal(t *testing.T) {
	globalDir := t.TempDir()
	repoDir := t.TempDir() // No config file

	writeConfig(t, globalDir, `{"search": {"sort_by": "name"}, "disabled_tools": ["event_import"]}`)

	cfg, err := LoadWithRepo(globalDir, repoDir)
	if err != nil {
		t.Fatalf("LoadWithRepo() error = %v", err)
	}

	if cfg.Search.SortBy != "name" {
		t.Errorf("SortBy = %q, want name", cfg.Search.SortBy)
	}
	if len(cfg.DisabledTools) != 1 || cfg.DisabledTools[0] != "event_import" {
		t.Errorf("DisabledTools = %v, want [event_import]", cfg.DisabledTools)
	}
}

func TestLoadWithRepo_OnlyRepo(t *testing.T) {
	globalDir := t.TempDir() // No config file
	repoRoot := t.TempDir()

	writeConfig(t, filepath.Join(repoRoot, ".timeline"), `{"disabled_tools": ["event_delete", "event_update"]}`)

	cfg, err := LoadWithRepo(globalDir, repoRoot)
	if err != nil {
		t.Fatalf("LoadWithRepo() error = %v", err)
	}

	// Default value preserved
	if cfg.Search.MaxResults != DefaultMaxResults {
		t.Errorf("MaxResults = %d, want %d (default)", cfg.Search.MaxResults, DefaultMaxResults)
	}
	if len(cfg.DisabledTools) != 2 {
		t.Errorf("DisabledTools length = %d, want 2", len(cfg.DisabledTools))
	}
}

func TestLoadWithRepo_NeitherPresent(t *testing.T) {
	cfg, err := LoadWithRepo(t.TempDir(), t.TempDir())
	if err != nil {
		t.Fatalf("LoadWithRepo() error = %v", err)
	}

	if cfg.Search.MaxResults != DefaultMaxResults {
		t.Errorf("MaxResults = %d, want %d", cfg.Search.MaxResults, DefaultMaxResults)
	}
	if len(cfg.DisabledTools) != 0 {
		t.Errorf("DisabledTools = %v, want empty", cfg.DisabledTools)
	}
}

func TestMerge_ScalarOverride(t *testing.T) {
	base := &Config{Search: SearchConfig{MaxResults: 100}, DBMaxOpenConns: 5}
	overlay := &Config{Search: SearchConfig{MaxResults: 20}} // DBMaxOpenConns is 0 (zero value)

	result := Merge(base, overlay)

	if result.Search.MaxResults != 20 {
		t.Errorf("MaxResults = %d, want 20 (overlay)", result.Search.MaxResults)
	}
	if result.DBMaxOpenConns != 5 {
		t.Errorf("DBMaxOpenConns = %d, want 5 (base, overlay is zero)", result.DBMaxOpenConns)
	}
}

func TestMerge_BooleanOr(t *testing.T) {
	base := &Config{AllowUnsafePaths: true}
	overlay := &Config{AllowUnsafePaths: false}

	result := Merge(base, overlay)

	if !result.AllowUnsafePaths {
		t.Error("AllowUnsafePaths should be true (base OR overlay)")
	}
}

func TestMerge_ArrayMergeDedup(t *testing.T) {
	base := &Config{DisabledTools: []string{"event_import", "event_delete"}}
	overlay := &Config{DisabledTools: []string{"event_delete", " event_update "}}

	result := Merge(base, overlay)

	if len(result.DisabledTools) != 3 {
		t.Errorf("DisabledTools length = %d, want 3 (merged, deduped)", len(result.DisabledTools))
	}

	has := make(map[string]bool)
	for _, s := range result.DisabledTools {
		has[s] = true
	}
	for _, want := range []string{"event_import", "event_delete", "event_update"} {
		if !has[want] {
			t.Errorf("DisabledTools missing %q", want)
		}
	}
}

func TestMerge_MapOverlayWinsPerKey(t *testing.T) {
	base := &Config{Search: SearchConfig{Abbreviations: map[string]string{"sl": "spielleiter", "hp": "hitpoints"}}}
	overlay := &Config{Search: SearchConfig{Abbreviations: map[string]string{"hp": "lebenspunkte"}}}

	result := Merge(base, overlay)

	if result.Search.Abbreviations["hp"] != "lebenspunkte" {
		t.Errorf("hp = %q, want overlay value", result.Search.Abbreviations["hp"])
	}
	if result.Search.Abbreviations["sl"] != "spielleiter" {
		t.Errorf("sl = %q, want base value", result.Search.Abbreviations["sl"])
	}
	// base must not be mutated
	if base.Search.Abbreviations["hp"] != "hitpoints" {
		t.Error("Merge mutated the base map")
	}
}

func TestFindRepoConfig_InParentDir(t *testing.T) {
	tmpDir := t.TempDir()
	writeConfig(t, filepath.Join(tmpDir, ".timeline"), `{}`)
	configPath := filepath.Join(tmpDir, ".timeline", "config.json")

	subdir := filepath.Join(tmpDir, "subdir", "deeper")
	if err := os.MkdirAll(subdir, 0755); err != nil {
		t.Fatalf("MkdirAll() error = %v", err)
	}

	if found := FindRepoConfig(tmpDir); found != configPath {
		t.Errorf("FindRepoConfig(root) = %q, want %q", found, configPath)
	}
	if found := FindRepoConfig(subdir); found != configPath {
		t.Errorf("FindRepoConfig(subdir) = %q, want %q", found, configPath)
	}
}

func TestFindRepoConfig_NotFound(t *testing.T) {
	if found := FindRepoConfig(t.TempDir()); found != "" {
		t.Errorf("FindRepoConfig() = %q, want empty string", found)
	}
	if found := FindRepoConfig(""); found != "" {
		t.Errorf("FindRepoConfig(\"\") = %q, want empty string", found)
	}
}
