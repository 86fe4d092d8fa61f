package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

const validConfig = `
schedule:
  daily_at: "09:00"
sources:
  - name: remoteok
    type: remoteok
    url: https://remoteok.com/api
    enabled: true
rules:
  categories:
    - data science
  max_age_days: 7
scorer:
  type: heuristic
sink:
  type: ndjson
  path: out.ndjson
store:
  type: nop
`

func TestLoad_ValidConfig(t *testing.T) {
	cfg, err := Load(writeConfig(t, validConfig))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(cfg.Sources) != 1 || cfg.Sources[0].Name != "remoteok" {
		t.Errorf("Sources = %+v", cfg.Sources)
	}
	if cfg.Rules.MaxAge != 7*24*time.Hour {
		t.Errorf("Rules.MaxAge = %v, want 168h", cfg.Rules.MaxAge)
	}
	if !cfg.Rules.CategoryEnabled {
		t.Error("category rule should default to enabled when categories are set")
	}
	if !cfg.Rules.RecencyEnabled {
		t.Error("recency rule should default to enabled")
	}
	if cfg.MaxScoredPerRun != 20 {
		t.Errorf("MaxScoredPerRun = %d, want default 20", cfg.MaxScoredPerRun)
	}
	if cfg.Sink.MaxFieldLen != 10000 {
		t.Errorf("Sink.MaxFieldLen = %d, want default 10000", cfg.Sink.MaxFieldLen)
	}
	if cfg.Sink.Fields["title"] != "Title" {
		t.Errorf("default field map missing title mapping: %v", cfg.Sink.Fields)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nonexistent.yaml"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoad_NoEnabledSources(t *testing.T) {
	content := strings.Replace(validConfig, "enabled: true", "enabled: false", 1)
	_, err := Load(writeConfig(t, content))
	if err == nil || !strings.Contains(err.Error(), "at least one source") {
		t.Fatalf("expected enabled-source error, got %v", err)
	}
}

func TestLoad_ExpandsEnvVars(t *testing.T) {
	t.Setenv("TEST_SERPAPI_KEY", "secret-key")
	content := `
sources:
  - name: search
    type: serpapi
    query: data scientist
    api_key: ${TEST_SERPAPI_KEY}
    enabled: true
scorer:
  type: heuristic
sink:
  type: ndjson
  path: out.ndjson
store:
  type: nop
rules:
  max_age_days: 7
`
	cfg, err := Load(writeConfig(t, content))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Sources[0].APIKey != "secret-key" {
		t.Errorf("APIKey = %q, want expanded env var", cfg.Sources[0].APIKey)
	}
}

func TestLoad_HeuristicWeightsMustSumTo100(t *testing.T) {
	content := strings.Replace(validConfig, "type: heuristic", `type: heuristic
  heuristic:
    recency_weight: 50
    relevance_weight: 30
    salary_bonus: 10
    contact_bonus: 5
    salary_threshold: 140000`, 1)
	_, err := Load(writeConfig(t, content))
	if err == nil || !strings.Contains(err.Error(), "sum to 100") {
		t.Fatalf("expected weight-sum error, got %v", err)
	}
}

func TestLoad_LLMScorerRequiresKeyAndModel(t *testing.T) {
	content := strings.Replace(validConfig, "type: heuristic", "type: llm", 1)
	_, err := Load(writeConfig(t, content))
	if err == nil {
		t.Fatal("expected error for llm scorer without api_key")
	}
}

func TestLoad_AirtableSinkRequiresCredentials(t *testing.T) {
	content := strings.Replace(validConfig, "type: ndjson\n  path: out.ndjson", "type: airtable", 1)
	_, err := Load(writeConfig(t, content))
	if err == nil {
		t.Fatal("expected error for airtable sink without base/table/token")
	}
}

func TestLoad_BadDailyAt(t *testing.T) {
	content := strings.Replace(validConfig, `daily_at: "09:00"`, `daily_at: "25:99"`, 1)
	_, err := Load(writeConfig(t, content))
	if err == nil {
		t.Fatal("expected error for out-of-range daily_at")
	}
}

func TestParseDailyAt(t *testing.T) {
	hm, err := ParseDailyAt("09:30")
	if err != nil {
		t.Fatalf("ParseDailyAt: %v", err)
	}
	if hm != [2]int{9, 30} {
		t.Errorf("ParseDailyAt = %v, want [9 30]", hm)
	}
	if _, err := ParseDailyAt("not a time"); err == nil {
		t.Error("expected error for unparsable time of day")
	}
}
