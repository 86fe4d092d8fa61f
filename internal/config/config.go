package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration for the jobsift pipeline.
type Config struct {
	Schedule        ScheduleConfig
	Sources         []SourceConfig
	Rules           RulesConfig
	Scorer          ScorerConfig
	Sink            SinkConfig
	Store           StoreConfig
	Owners          map[string]string // lower-cased company substring -> owner label
	RateLimit       RateLimitConfig
	MaxScoredPerRun int // cap on external scoring calls per run, 0 = unlimited
}

// ScheduleConfig controls the daemon's daily cron tick.
type ScheduleConfig struct {
	DailyAt    string `yaml:"daily_at"`     // "HH:MM", local time
	RunOnStart bool   `yaml:"run_on_start"` // run one batch immediately on startup
}

// SourceConfig describes a single posting source.
type SourceConfig struct {
	Name     string       `yaml:"name"`
	Type     string       `yaml:"type"` // "remoteok", "serpapi", "careers", "bucket"
	URL      string       `yaml:"url"`
	Query    string       `yaml:"query"`   // serpapi search query
	APIKey   string       `yaml:"api_key"` // serpapi credential
	Enabled  bool         `yaml:"enabled"`
	Selector CardSelector `yaml:"selector"` // careers-page CSS selectors
}

// CardSelector names the CSS selectors used to parse a careers page into
// repeated posting cards.
type CardSelector struct {
	Card     string `yaml:"card"`
	Title    string `yaml:"title"`
	Company  string `yaml:"company"`
	Location string `yaml:"location"`
	Link     string `yaml:"link"`
	Posted   string `yaml:"posted"`
}

// RulesConfig holds the eligibility rules applied before scoring.
// Each rule is independently toggleable; active rules compose by AND.
type RulesConfig struct {
	Categories       []string // category keywords (substring match)
	Seniority        []string // seniority keywords matched against titles
	MaxAge           time.Duration
	CategoryEnabled  bool
	SeniorityEnabled bool
	RecencyEnabled   bool
}

// ScorerConfig selects and parameterizes the scoring strategy.
type ScorerConfig struct {
	Type      string // "heuristic" or "llm"
	Heuristic HeuristicConfig
	LLM       LLMConfig
}

// HeuristicConfig holds the weights of the offline scorer. The two weights
// plus both bonuses must sum to 100, the scorer's maximum.
type HeuristicConfig struct {
	RecencyWeight   int `yaml:"recency_weight"`
	RelevanceWeight int `yaml:"relevance_weight"`
	SalaryBonus     int `yaml:"salary_bonus"`
	ContactBonus    int `yaml:"contact_bonus"`
	SalaryThreshold int `yaml:"salary_threshold"` // annual dollars
}

// LLMConfig controls the model-assisted scorer.
type LLMConfig struct {
	BaseURL string        // defaults to https://api.openai.com/v1
	Model   string        // e.g. "gpt-4o-mini"
	APIKey  string        // expanded from env var by Load
	Timeout time.Duration // per-request timeout
}

// SinkConfig controls where qualifying postings are written.
type SinkConfig struct {
	Type        string            // "airtable" or "ndjson"
	BaseID      string            // airtable base
	Table       string            // airtable table name
	Token       string            // bearer credential
	Path        string            // ndjson output file
	Fields      map[string]string // posting field -> column name
	RowDelay    time.Duration     // pacing between consecutive row writes
	MaxFieldLen int               // sink-imposed cap on text fields
}

// StoreConfig selects the seen-set backing store.
type StoreConfig struct {
	Type      string // "sqlite", "redis", "nop"
	Path      string // sqlite file
	RedisURL  string
	RedisKey  string
	Retention time.Duration // seen entries older than this are cleaned up
}

// RateLimitConfig controls source-level politeness.
type RateLimitConfig struct {
	MinDelay        time.Duration            // minimum gap between fetches of the same source
	SourceOverrides map[string]time.Duration // per-source overrides, keyed by source name
}

// MinDelayFor returns the configured delay for the given source, falling back to MinDelay.
func (r RateLimitConfig) MinDelayFor(source string) time.Duration {
	if d, ok := r.SourceOverrides[source]; ok {
		return d
	}
	return r.MinDelay
}

const (
	defaultOpenAIBaseURL = "https://api.openai.com/v1"
	defaultMaxFieldLen   = 10000
	defaultRowDelay      = 20 * time.Second
	defaultRedisKey      = "jobsift:seen"
)

// defaultFieldMap is the Posting -> sink column mapping used when the config
// does not override it.
var defaultFieldMap = map[string]string{
	"title":   "Title",
	"company": "Company",
	"url":     "URL",
	"score":   "Score",
	"reason":  "Reason",
	"date":    "Date",
	"owner":   "Owner",
}

// rawConfig is used for YAML unmarshaling (snake_case fields and durations as strings).
type rawConfig struct {
	Schedule        ScheduleConfig    `yaml:"schedule"`
	Sources         []SourceConfig    `yaml:"sources"`
	Rules           rawRulesConfig    `yaml:"rules"`
	Scorer          rawScorerConfig   `yaml:"scorer"`
	Sink            rawSinkConfig     `yaml:"sink"`
	Store           rawStoreConfig    `yaml:"store"`
	Owners          map[string]string `yaml:"owners"`
	RateLimit       rawRateLimit      `yaml:"rate_limit"`
	MaxScoredPerRun *int              `yaml:"max_scored_per_run"`
}

type rawRulesConfig struct {
	Categories       []string `yaml:"categories"`
	Seniority        []string `yaml:"seniority"`
	MaxAgeDays       int      `yaml:"max_age_days"`
	CategoryEnabled  *bool    `yaml:"category_enabled"`
	SeniorityEnabled *bool    `yaml:"seniority_enabled"`
	RecencyEnabled   *bool    `yaml:"recency_enabled"`
}

type rawScorerConfig struct {
	Type      string          `yaml:"type"`
	Heuristic HeuristicConfig `yaml:"heuristic"`
	LLM       rawLLMConfig    `yaml:"llm"`
}

type rawLLMConfig struct {
	BaseURL string `yaml:"base_url"`
	Model   string `yaml:"model"`
	APIKey  string `yaml:"api_key"`
	Timeout string `yaml:"timeout"`
}

type rawSinkConfig struct {
	Type        string            `yaml:"type"`
	BaseID      string            `yaml:"base_id"`
	Table       string            `yaml:"table"`
	Token       string            `yaml:"token"`
	Path        string            `yaml:"path"`
	Fields      map[string]string `yaml:"fields"`
	RowDelay    string            `yaml:"row_delay"`
	MaxFieldLen int               `yaml:"max_field_len"`
}

type rawStoreConfig struct {
	Type      string `yaml:"type"`
	Path      string `yaml:"path"`
	RedisURL  string `yaml:"redis_url"`
	RedisKey  string `yaml:"redis_key"`
	Retention string `yaml:"retention"`
}

type rawRateLimit struct {
	MinDelay        string            `yaml:"min_delay"`
	SourceOverrides map[string]string `yaml:"source_overrides"`
}

// Load reads and parses the YAML config file at path, validates it, and returns Config.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	// Expand environment variables so secrets stay out of the file.
	expanded := os.ExpandEnv(string(data))

	var raw rawConfig
	if err := yaml.Unmarshal([]byte(expanded), &raw); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	maxAge := 7 * 24 * time.Hour
	if raw.Rules.MaxAgeDays > 0 {
		maxAge = time.Duration(raw.Rules.MaxAgeDays) * 24 * time.Hour
	}

	llmTimeout := 30 * time.Second
	var err2 error
	if raw.Scorer.LLM.Timeout != "" {
		llmTimeout, err2 = time.ParseDuration(raw.Scorer.LLM.Timeout)
		if err2 != nil {
			return nil, fmt.Errorf("parse scorer.llm.timeout %q: %w", raw.Scorer.LLM.Timeout, err2)
		}
	}

	llmBaseURL := raw.Scorer.LLM.BaseURL
	if llmBaseURL == "" {
		llmBaseURL = defaultOpenAIBaseURL
	}

	rowDelay := defaultRowDelay
	if raw.Sink.RowDelay != "" {
		rowDelay, err2 = time.ParseDuration(raw.Sink.RowDelay)
		if err2 != nil {
			return nil, fmt.Errorf("parse sink.row_delay %q: %w", raw.Sink.RowDelay, err2)
		}
	}

	maxFieldLen := raw.Sink.MaxFieldLen
	if maxFieldLen == 0 {
		maxFieldLen = defaultMaxFieldLen
	}

	fields := raw.Sink.Fields
	if len(fields) == 0 {
		fields = defaultFieldMap
	}

	retention := 60 * 24 * time.Hour
	if raw.Store.Retention != "" {
		retention, err2 = time.ParseDuration(raw.Store.Retention)
		if err2 != nil {
			return nil, fmt.Errorf("parse store.retention %q: %w", raw.Store.Retention, err2)
		}
	}

	redisKey := raw.Store.RedisKey
	if redisKey == "" {
		redisKey = defaultRedisKey
	}

	minDelay := 1 * time.Second
	if raw.RateLimit.MinDelay != "" {
		minDelay, err2 = time.ParseDuration(raw.RateLimit.MinDelay)
		if err2 != nil {
			return nil, fmt.Errorf("parse rate_limit.min_delay %q: %w", raw.RateLimit.MinDelay, err2)
		}
	}

	overrides := make(map[string]time.Duration)
	for name, v := range raw.RateLimit.SourceOverrides {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("parse rate_limit.source_overrides[%q]: %w", name, err)
		}
		overrides[name] = d
	}

	maxScored := 20 // original daily screening cap
	if raw.MaxScoredPerRun != nil {
		maxScored = *raw.MaxScoredPerRun
	}

	cfg := &Config{
		Schedule: raw.Schedule,
		Sources:  raw.Sources,
		Rules: RulesConfig{
			Categories:       raw.Rules.Categories,
			Seniority:        raw.Rules.Seniority,
			MaxAge:           maxAge,
			CategoryEnabled:  boolOr(raw.Rules.CategoryEnabled, len(raw.Rules.Categories) > 0),
			SeniorityEnabled: boolOr(raw.Rules.SeniorityEnabled, false),
			RecencyEnabled:   boolOr(raw.Rules.RecencyEnabled, true),
		},
		Scorer: ScorerConfig{
			Type:      raw.Scorer.Type,
			Heuristic: raw.Scorer.Heuristic,
			LLM: LLMConfig{
				BaseURL: llmBaseURL,
				Model:   raw.Scorer.LLM.Model,
				APIKey:  raw.Scorer.LLM.APIKey,
				Timeout: llmTimeout,
			},
		},
		Sink: SinkConfig{
			Type:        raw.Sink.Type,
			BaseID:      raw.Sink.BaseID,
			Table:       raw.Sink.Table,
			Token:       raw.Sink.Token,
			Path:        raw.Sink.Path,
			Fields:      fields,
			RowDelay:    rowDelay,
			MaxFieldLen: maxFieldLen,
		},
		Store: StoreConfig{
			Type:      raw.Store.Type,
			Path:      raw.Store.Path,
			RedisURL:  raw.Store.RedisURL,
			RedisKey:  redisKey,
			Retention: retention,
		},
		Owners: raw.Owners,
		RateLimit: RateLimitConfig{
			MinDelay:        minDelay,
			SourceOverrides: overrides,
		},
		MaxScoredPerRun: maxScored,
	}

	applyDefaults(cfg)

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Schedule.DailyAt == "" {
		cfg.Schedule.DailyAt = "09:00"
	}
	if cfg.Scorer.Type == "" {
		cfg.Scorer.Type = "heuristic"
	}
	if cfg.Scorer.Type == "heuristic" && cfg.Scorer.Heuristic == (HeuristicConfig{}) {
		cfg.Scorer.Heuristic = HeuristicConfig{
			RecencyWeight:   40,
			RelevanceWeight: 40,
			SalaryBonus:     10,
			ContactBonus:    10,
			SalaryThreshold: 140000,
		}
	}
	// The LLM scorer also quotes the salary floor in its rubric.
	if cfg.Scorer.Heuristic.SalaryThreshold == 0 {
		cfg.Scorer.Heuristic.SalaryThreshold = 140000
	}
	if cfg.Sink.Type == "" {
		cfg.Sink.Type = "ndjson"
	}
	if cfg.Sink.Type == "ndjson" && cfg.Sink.Path == "" {
		cfg.Sink.Path = "postings.ndjson"
	}
	if cfg.Store.Type == "" {
		cfg.Store.Type = "sqlite"
	}
	if cfg.Store.Type == "sqlite" && cfg.Store.Path == "" {
		cfg.Store.Path = "seen.db"
	}
}

func validate(cfg *Config) error {
	if _, err := ParseDailyAt(cfg.Schedule.DailyAt); err != nil {
		return fmt.Errorf("schedule.daily_at: %w", err)
	}

	enabled := 0
	for _, s := range cfg.Sources {
		if !s.Enabled {
			continue
		}
		enabled++
		switch s.Type {
		case "remoteok", "careers", "bucket":
			if s.URL == "" {
				return fmt.Errorf("source %q: url is required for type %q", s.Name, s.Type)
			}
		case "serpapi":
			if s.APIKey == "" {
				return fmt.Errorf("source %q: api_key is required for type serpapi", s.Name)
			}
			if s.Query == "" {
				return fmt.Errorf("source %q: query is required for type serpapi", s.Name)
			}
		default:
			return fmt.Errorf("source %q: unknown type %q", s.Name, s.Type)
		}
		if s.Type == "careers" && s.Selector.Card == "" {
			return fmt.Errorf("source %q: selector.card is required for type careers", s.Name)
		}
	}
	if enabled == 0 {
		return fmt.Errorf("at least one source must be enabled")
	}

	if cfg.Rules.RecencyEnabled && cfg.Rules.MaxAge <= 0 {
		return fmt.Errorf("rules.max_age_days must be positive when the recency rule is enabled")
	}
	if cfg.Rules.CategoryEnabled && len(cfg.Rules.Categories) == 0 {
		return fmt.Errorf("rules.categories is required when the category rule is enabled")
	}
	if cfg.Rules.SeniorityEnabled && len(cfg.Rules.Seniority) == 0 {
		return fmt.Errorf("rules.seniority is required when the seniority rule is enabled")
	}

	switch cfg.Scorer.Type {
	case "heuristic":
		h := cfg.Scorer.Heuristic
		sum := h.RecencyWeight + h.RelevanceWeight + h.SalaryBonus + h.ContactBonus
		if sum != 100 {
			return fmt.Errorf("scorer.heuristic weights must sum to 100, got %d", sum)
		}
	case "llm":
		if cfg.Scorer.LLM.APIKey == "" {
			return fmt.Errorf("scorer.llm.api_key is required when scorer.type is \"llm\"")
		}
		if cfg.Scorer.LLM.Model == "" {
			return fmt.Errorf("scorer.llm.model is required when scorer.type is \"llm\"")
		}
	default:
		return fmt.Errorf("scorer.type must be \"heuristic\" or \"llm\", got %q", cfg.Scorer.Type)
	}

	switch cfg.Sink.Type {
	case "airtable":
		if cfg.Sink.BaseID == "" || cfg.Sink.Table == "" || cfg.Sink.Token == "" {
			return fmt.Errorf("sink.base_id, sink.table and sink.token are required when sink.type is \"airtable\"")
		}
	case "ndjson":
		if cfg.Sink.Path == "" {
			return fmt.Errorf("sink.path is required when sink.type is \"ndjson\"")
		}
	default:
		return fmt.Errorf("sink.type must be \"airtable\" or \"ndjson\", got %q", cfg.Sink.Type)
	}

	switch cfg.Store.Type {
	case "sqlite":
		if cfg.Store.Path == "" {
			return fmt.Errorf("store.path is required when store.type is \"sqlite\"")
		}
	case "redis":
		if cfg.Store.RedisURL == "" {
			return fmt.Errorf("store.redis_url is required when store.type is \"redis\"")
		}
	case "nop":
	default:
		return fmt.Errorf("store.type must be \"sqlite\", \"redis\" or \"nop\", got %q", cfg.Store.Type)
	}

	if cfg.MaxScoredPerRun < 0 {
		return fmt.Errorf("max_scored_per_run must not be negative, got %d", cfg.MaxScoredPerRun)
	}

	return nil
}

func boolOr(v *bool, fallback bool) bool {
	if v != nil {
		return *v
	}
	return fallback
}

// ParseDailyAt parses an "HH:MM" time-of-day into hour and minute.
func ParseDailyAt(s string) ([2]int, error) {
	var hm [2]int
	var hour, minute int
	if _, err := fmt.Sscanf(s, "%d:%d", &hour, &minute); err != nil {
		return hm, fmt.Errorf("expected HH:MM, got %q", s)
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return hm, fmt.Errorf("time of day out of range: %q", s)
	}
	return [2]int{hour, minute}, nil
}
