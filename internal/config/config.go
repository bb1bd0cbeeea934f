package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultSources are the mailing lists summarized when neither SOURCES nor
// SOURCES_FILE is set.
var DefaultSources = []string{
	"https://lists.linuxfoundation.org/pipermail/bitcoin-dev/",
	"https://lists.linuxfoundation.org/pipermail/lightning-dev/",
}

// Common contains Elasticsearch parameters shared by every binary.
type Common struct {
	ElasticsearchAddr     string
	ElasticsearchCloudID  string
	ElasticsearchUsername string
	ElasticsearchPassword string
	ElasticsearchIndex    string
	FetchSize             int
	ScrollKeepAlive       time.Duration
}

// LLM selects and authenticates the completion provider.
type LLM struct {
	Provider     string
	Model        string
	APIKey       string
	Organization string
	BaseURL      string
	Timeout      time.Duration
}

// Summary bounds the chunking and recursive consolidation.
type Summary struct {
	ChunkTokens int
	MaxTokens   int
	Encoding    string
}

// Retry is a fixed-delay retry ceiling. Model calls also wait Delay before
// their first attempt to stay under provider rate limits.
type Retry struct {
	MaxRetries int
	Delay      time.Duration
}

// Notify configures the optional feed-updated events.
type Notify struct {
	KafkaBrokers []string
	KafkaTopic   string
}

// XML configures the per-post Atom generator.
type XML struct {
	Common
	LLM           LLM
	Summary       Summary
	Retry         Retry
	StaticDir     string
	Sources       []string
	PerMonthLimit int
}

// Feed configures the homepage and newsletter JSON generators.
type Feed struct {
	Common
	LLM               LLM
	Summary           Summary
	Retry             Retry
	JobRetry          Retry
	Notify            Notify
	StaticDir         string
	Sources           []string
	Window            time.Duration
	ActiveTopN        int
	ActiveLimit       int
	RecentTopN        int
	RecentLimit       int
	SentenceThreshold int
}

// Digest configures the pipermail archive digest.
type Digest struct {
	LLM        LLM
	Summary    Summary
	Retry      Retry
	ArchiveURL string
	OutputDir  string
	Window     time.Duration
}

// API describes the HTTP layer serving the generated files.
type API struct {
	Common
	BindAddr  string
	StaticDir string
}

// LoadXML builds an XML config from environment variables.
func LoadXML() (*XML, error) {
	sources, err := loadSources()
	if err != nil {
		return nil, err
	}
	c := &XML{
		Common:        loadCommon(),
		LLM:           loadLLM(),
		Summary:       loadSummary(),
		Retry:         loadRetry("2s"),
		StaticDir:     getEnv("STATIC_DIR", "static"),
		Sources:       sources,
		PerMonthLimit: getInt("XML_PER_MONTH_LIMIT", 6),
	}

	if err := validateCommon(c.Common); err != nil {
		return nil, err
	}
	if err := validateLLM(c.LLM); err != nil {
		return nil, err
	}
	if err := validateSummary(c.Summary); err != nil {
		return nil, err
	}
	if err := validateRetry("RETRY_MAX", c.Retry); err != nil {
		return nil, err
	}
	if c.PerMonthLimit <= 0 {
		return nil, fmt.Errorf("XML_PER_MONTH_LIMIT must be positive")
	}
	return c, nil
}

// LoadHomepage builds the homepage.json config from environment variables.
func LoadHomepage() (*Feed, error) {
	return loadFeed("1s")
}

// LoadNewsletter builds the newsletter.json config from environment variables.
func LoadNewsletter() (*Feed, error) {
	return loadFeed("5s")
}

func loadFeed(jobDelay string) (*Feed, error) {
	sources, err := loadSources()
	if err != nil {
		return nil, err
	}
	c := &Feed{
		Common:    loadCommon(),
		LLM:       loadLLM(),
		Summary:   loadSummary(),
		Retry:     loadRetry("2s"),
		StaticDir: getEnv("STATIC_DIR", "static"),
		Sources:   sources,
		JobRetry: Retry{
			MaxRetries: getInt("JOB_RETRY_MAX", 5),
			Delay:      getDuration("JOB_RETRY_DELAY", jobDelay),
		},
		Notify: Notify{
			KafkaBrokers: splitAndTrim(getEnv("KAFKA_BROKERS", "")),
			KafkaTopic:   getEnv("KAFKA_TOPIC", "feeds_updated"),
		},
		Window:            getDuration("FEED_WINDOW", "168h"),
		ActiveTopN:        getInt("FEED_ACTIVE_TOP_N", 10),
		ActiveLimit:       getInt("FEED_ACTIVE_LIMIT", 3),
		RecentTopN:        getInt("FEED_RECENT_TOP_N", 20),
		RecentLimit:       getInt("FEED_RECENT_LIMIT", 3),
		SentenceThreshold: getInt("FEED_SENTENCE_THRESHOLD", 2),
	}

	if err := validateCommon(c.Common); err != nil {
		return nil, err
	}
	if err := validateLLM(c.LLM); err != nil {
		return nil, err
	}
	if err := validateSummary(c.Summary); err != nil {
		return nil, err
	}
	if err := validateRetry("RETRY_MAX", c.Retry); err != nil {
		return nil, err
	}
	if err := validateRetry("JOB_RETRY_MAX", c.JobRetry); err != nil {
		return nil, err
	}
	if c.Window <= 0 {
		return nil, fmt.Errorf("FEED_WINDOW must be positive")
	}
	if c.ActiveTopN <= 0 || c.RecentTopN <= 0 {
		return nil, fmt.Errorf("FEED_ACTIVE_TOP_N and FEED_RECENT_TOP_N must be positive")
	}
	if c.ActiveLimit < 0 || c.RecentLimit < 0 {
		return nil, fmt.Errorf("FEED_ACTIVE_LIMIT and FEED_RECENT_LIMIT cannot be negative")
	}
	if len(c.Notify.KafkaBrokers) > 0 && c.Notify.KafkaTopic == "" {
		return nil, fmt.Errorf("KAFKA_TOPIC is required when KAFKA_BROKERS is set")
	}
	return c, nil
}

// LoadDigest builds the archive digest config from environment variables.
func LoadDigest() (*Digest, error) {
	c := &Digest{
		LLM:        loadLLM(),
		Summary:    loadSummary(),
		Retry:      loadRetry("2s"),
		ArchiveURL: strings.TrimRight(getEnv("DIGEST_ARCHIVE_URL", "https://lists.linuxfoundation.org/pipermail/bitcoin-dev"), "/"),
		OutputDir:  getEnv("DIGEST_OUTPUT_DIR", "output"),
		Window:     getDuration("DIGEST_WINDOW", "168h"),
	}

	if err := validateLLM(c.LLM); err != nil {
		return nil, err
	}
	if err := validateSummary(c.Summary); err != nil {
		return nil, err
	}
	if err := validateRetry("RETRY_MAX", c.Retry); err != nil {
		return nil, err
	}
	if !strings.HasPrefix(c.ArchiveURL, "http://") && !strings.HasPrefix(c.ArchiveURL, "https://") {
		return nil, fmt.Errorf("DIGEST_ARCHIVE_URL must be an http(s) URL")
	}
	if c.Window <= 0 {
		return nil, fmt.Errorf("DIGEST_WINDOW must be positive")
	}
	return c, nil
}

// LoadAPI builds an API config from environment variables.
func LoadAPI() (*API, error) {
	c := &API{
		Common:    loadCommon(),
		BindAddr:  getEnv("API_BIND_ADDR", "0.0.0.0:8080"),
		StaticDir: getEnv("STATIC_DIR", "static"),
	}
	if err := validateCommon(c.Common); err != nil {
		return nil, err
	}
	return c, nil
}

func loadCommon() Common {
	addr := getEnv("ES_ADDR", getEnv("ELASTICSEARCH_ADDR", ""))
	cloudID := getEnv("ES_CLOUD_ID", "")
	if addr == "" && cloudID == "" {
		addr = "http://localhost:9200"
	}
	return Common{
		ElasticsearchAddr:     addr,
		ElasticsearchCloudID:  cloudID,
		ElasticsearchUsername: getEnv("ES_USERNAME", ""),
		ElasticsearchPassword: getEnv("ES_PASSWORD", ""),
		ElasticsearchIndex:    getEnv("ES_INDEX", getEnv("ELASTICSEARCH_INDEX", "mailing-list")),
		FetchSize:             getInt("ES_DATA_FETCH_SIZE", 1000),
		ScrollKeepAlive:       getDuration("ES_SCROLL_KEEPALIVE", "5m"),
	}
}

func loadLLM() LLM {
	provider := strings.ToLower(getEnv("LLM_PROVIDER", "openai"))
	c := LLM{
		Provider: provider,
		Timeout:  getDuration("LLM_TIMEOUT", "2m"),
	}
	switch provider {
	case "gemini":
		c.Model = getEnv("LLM_MODEL", "gemini-2.0-flash")
		c.APIKey = getEnv("GEMINI_API_KEY", "")
		c.BaseURL = getEnv("GEMINI_BASE_URL", "")
	default:
		c.Model = getEnv("LLM_MODEL", "gpt-4-1106-preview")
		c.APIKey = getEnv("OPENAI_API_KEY", "")
		c.Organization = getEnv("OPENAI_ORG_KEY", "")
		c.BaseURL = getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1")
	}
	return c
}

func loadSummary() Summary {
	return Summary{
		ChunkTokens: getInt("SUMMARY_CHUNK_TOKENS", 2700),
		MaxTokens:   getInt("SUMMARY_MAX_TOKENS", 2800),
		Encoding:    getEnv("TOKENIZER_ENCODING", "cl100k_base"),
	}
}

func loadRetry(delay string) Retry {
	return Retry{
		MaxRetries: getInt("RETRY_MAX", 5),
		Delay:      getDuration("RETRY_DELAY", delay),
	}
}

type sourcesFile struct {
	Sources []struct {
		URL string `yaml:"url"`
	} `yaml:"sources"`
}

func loadSources() ([]string, error) {
	if path := getEnv("SOURCES_FILE", ""); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read SOURCES_FILE: %w", err)
		}
		var f sourcesFile
		if err := yaml.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("parse SOURCES_FILE: %w", err)
		}
		out := make([]string, 0, len(f.Sources))
		for _, s := range f.Sources {
			if u := strings.TrimSpace(s.URL); u != "" {
				out = append(out, u)
			}
		}
		if len(out) == 0 {
			return nil, fmt.Errorf("SOURCES_FILE must list at least one source")
		}
		return out, nil
	}

	if raw := getEnv("SOURCES", ""); raw != "" {
		out := splitAndTrim(raw)
		if len(out) == 0 {
			return nil, fmt.Errorf("SOURCES must contain at least one source")
		}
		return out, nil
	}

	return append([]string(nil), DefaultSources...), nil
}

func validateCommon(c Common) error {
	if c.ElasticsearchIndex == "" {
		return fmt.Errorf("ES_INDEX must be set")
	}
	if c.FetchSize <= 0 {
		return fmt.Errorf("ES_DATA_FETCH_SIZE must be positive")
	}
	if c.ScrollKeepAlive <= 0 {
		return fmt.Errorf("ES_SCROLL_KEEPALIVE must be positive")
	}
	return nil
}

func validateLLM(c LLM) error {
	switch c.Provider {
	case "openai", "gemini":
	default:
		return fmt.Errorf("LLM_PROVIDER %q is not supported", c.Provider)
	}
	if c.APIKey == "" {
		return fmt.Errorf("API key for LLM_PROVIDER %q is not set", c.Provider)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("LLM_TIMEOUT must be positive")
	}
	return nil
}

func validateSummary(c Summary) error {
	if c.ChunkTokens <= 0 {
		return fmt.Errorf("SUMMARY_CHUNK_TOKENS must be positive")
	}
	if c.MaxTokens <= 0 {
		return fmt.Errorf("SUMMARY_MAX_TOKENS must be positive")
	}
	return nil
}

func validateRetry(key string, c Retry) error {
	if c.MaxRetries < 0 {
		return fmt.Errorf("%s cannot be negative", key)
	}
	if c.Delay < 0 {
		return fmt.Errorf("%s delay cannot be negative", key)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			return parsed
		}
	}
	return fallback
}

func getDuration(key, fallback string) time.Duration {
	raw := getEnv(key, fallback)
	d, err := time.ParseDuration(raw)
	if err != nil {
		fd, ferr := time.ParseDuration(fallback)
		if ferr != nil {
			panic(fmt.Sprintf("invalid fallback duration %q: %v", fallback, ferr))
		}
		return fd
	}
	return d
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
