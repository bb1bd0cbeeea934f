package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/DeafMist/list-digest/internal/config"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"ES_ADDR", "ELASTICSEARCH_ADDR", "ES_CLOUD_ID", "ES_USERNAME", "ES_PASSWORD",
		"ES_INDEX", "ELASTICSEARCH_INDEX", "ES_DATA_FETCH_SIZE", "ES_SCROLL_KEEPALIVE",
		"LLM_PROVIDER", "LLM_MODEL", "OPENAI_API_KEY", "OPENAI_ORG_KEY", "OPENAI_BASE_URL",
		"GEMINI_API_KEY", "LLM_TIMEOUT", "STATIC_DIR", "SOURCES", "SOURCES_FILE",
		"SUMMARY_CHUNK_TOKENS", "SUMMARY_MAX_TOKENS", "TOKENIZER_ENCODING",
		"RETRY_MAX", "RETRY_DELAY", "JOB_RETRY_MAX", "JOB_RETRY_DELAY",
		"KAFKA_BROKERS", "KAFKA_TOPIC", "FEED_WINDOW", "XML_PER_MONTH_LIMIT",
		"DIGEST_ARCHIVE_URL", "DIGEST_OUTPUT_DIR", "DIGEST_WINDOW", "API_BIND_ADDR",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadHomepageDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("OPENAI_API_KEY", "sk-test")

	cfg, err := config.LoadHomepage()
	require.NoError(t, err)

	require.Equal(t, "http://localhost:9200", cfg.ElasticsearchAddr)
	require.Equal(t, "mailing-list", cfg.ElasticsearchIndex)
	require.Equal(t, 1000, cfg.FetchSize)
	require.Equal(t, 5*time.Minute, cfg.ScrollKeepAlive)
	require.Equal(t, config.DefaultSources, cfg.Sources)
	require.Equal(t, "openai", cfg.LLM.Provider)
	require.Equal(t, "gpt-4-1106-preview", cfg.LLM.Model)
	require.Equal(t, 2700, cfg.Summary.ChunkTokens)
	require.Equal(t, 2800, cfg.Summary.MaxTokens)
	require.Equal(t, 5, cfg.Retry.MaxRetries)
	require.Equal(t, time.Second, cfg.JobRetry.Delay)
	require.Equal(t, 7*24*time.Hour, cfg.Window)
	require.Equal(t, 10, cfg.ActiveTopN)
	require.Equal(t, 3, cfg.ActiveLimit)
	require.Equal(t, 20, cfg.RecentTopN)
	require.Equal(t, 2, cfg.SentenceThreshold)
	require.Empty(t, cfg.Notify.KafkaBrokers)
}

func TestLoadNewsletterUsesLongerJobDelay(t *testing.T) {
	clearEnv(t)
	t.Setenv("OPENAI_API_KEY", "sk-test")

	cfg, err := config.LoadNewsletter()
	require.NoError(t, err)
	require.Equal(t, 5*time.Second, cfg.JobRetry.Delay)
}

func TestLoadFeedOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("ES_CLOUD_ID", "deployment:abc")
	t.Setenv("ES_USERNAME", "elastic")
	t.Setenv("ES_PASSWORD", "secret")
	t.Setenv("ES_INDEX", "lists")
	t.Setenv("ES_DATA_FETCH_SIZE", "50")
	t.Setenv("LLM_PROVIDER", "gemini")
	t.Setenv("GEMINI_API_KEY", "g-key")
	t.Setenv("SOURCES", "https://a.example/pipermail/a-dev/, https://b.example/pipermail/b-dev/")
	t.Setenv("KAFKA_BROKERS", "kafka-a:9092,kafka-b:9092")
	t.Setenv("RETRY_MAX", "2")
	t.Setenv("RETRY_DELAY", "10ms")

	cfg, err := config.LoadHomepage()
	require.NoError(t, err)

	require.Equal(t, "", cfg.ElasticsearchAddr)
	require.Equal(t, "deployment:abc", cfg.ElasticsearchCloudID)
	require.Equal(t, "elastic", cfg.ElasticsearchUsername)
	require.Equal(t, "lists", cfg.ElasticsearchIndex)
	require.Equal(t, 50, cfg.FetchSize)
	require.Equal(t, "gemini", cfg.LLM.Provider)
	require.Equal(t, "g-key", cfg.LLM.APIKey)
	require.Len(t, cfg.Sources, 2)
	require.Equal(t, "https://b.example/pipermail/b-dev/", cfg.Sources[1])
	require.Equal(t, []string{"kafka-a:9092", "kafka-b:9092"}, cfg.Notify.KafkaBrokers)
	require.Equal(t, "feeds_updated", cfg.Notify.KafkaTopic)
	require.Equal(t, 2, cfg.Retry.MaxRetries)
	require.Equal(t, 10*time.Millisecond, cfg.Retry.Delay)
}

func TestLoadSourcesFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("OPENAI_API_KEY", "sk-test")

	path := filepath.Join(t.TempDir(), "sources.yaml")
	content := "sources:\n  - url: https://lists.example.org/pipermail/one-dev/\n  - url: \"  \"\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	t.Setenv("SOURCES_FILE", path)

	cfg, err := config.LoadXML()
	require.NoError(t, err)
	require.Equal(t, []string{"https://lists.example.org/pipermail/one-dev/"}, cfg.Sources)
	require.Equal(t, 6, cfg.PerMonthLimit)
}

func TestLoadRejectsInvalid(t *testing.T) {
	clearEnv(t)
	_, err := config.LoadXML()
	require.ErrorContains(t, err, "API key")

	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("LLM_PROVIDER", "llama")
	_, err = config.LoadHomepage()
	require.ErrorContains(t, err, "not supported")

	t.Setenv("LLM_PROVIDER", "")
	t.Setenv("SUMMARY_CHUNK_TOKENS", "-1")
	_, err = config.LoadNewsletter()
	require.ErrorContains(t, err, "SUMMARY_CHUNK_TOKENS")

	t.Setenv("SUMMARY_CHUNK_TOKENS", "")
	t.Setenv("RETRY_MAX", "-3")
	_, err = config.LoadDigest()
	require.ErrorContains(t, err, "RETRY_MAX")
}

func TestLoadDigest(t *testing.T) {
	clearEnv(t)
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("DIGEST_ARCHIVE_URL", "https://lists.example.org/pipermail/one-dev/")
	t.Setenv("DIGEST_OUTPUT_DIR", "out")

	cfg, err := config.LoadDigest()
	require.NoError(t, err)
	require.Equal(t, "https://lists.example.org/pipermail/one-dev", cfg.ArchiveURL)
	require.Equal(t, "out", cfg.OutputDir)

	t.Setenv("DIGEST_ARCHIVE_URL", "ftp://nope")
	_, err = config.LoadDigest()
	require.Error(t, err)
}

func TestLoadAPI(t *testing.T) {
	clearEnv(t)
	t.Setenv("API_BIND_ADDR", ":9090")
	t.Setenv("ELASTICSEARCH_ADDR", "http://api-es:9200")
	t.Setenv("STATIC_DIR", "/srv/static")

	cfg, err := config.LoadAPI()
	require.NoError(t, err)
	require.Equal(t, ":9090", cfg.BindAddr)
	require.Equal(t, "http://api-es:9200", cfg.ElasticsearchAddr)
	require.Equal(t, "/srv/static", cfg.StaticDir)
}
