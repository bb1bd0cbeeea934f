package elasticsearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"github.com/DeafMist/list-digest/internal/config"
	"github.com/DeafMist/list-digest/internal/models"
)

const dayLayout = "2006-01-02"

// Client wraps go-elasticsearch with the read-only queries the feed
// generators need.
type Client struct {
	es        *elasticsearch.Client
	index     string
	fetchSize int
	keepAlive time.Duration
	log       *slog.Logger
}

// Option customizes the underlying client.
type Option func(*elasticsearch.Config)

// WithTransport replaces the HTTP transport, e.g. with a test double.
func WithTransport(rt http.RoundTripper) Option {
	return func(c *elasticsearch.Config) {
		c.Transport = rt
	}
}

// New instantiates the Elasticsearch client. A cloud ID takes precedence
// over a plain address.
func New(cfg config.Common, logger *slog.Logger, opts ...Option) (*Client, error) {
	esCfg := elasticsearch.Config{
		Username: cfg.ElasticsearchUsername,
		Password: cfg.ElasticsearchPassword,
	}
	if cfg.ElasticsearchCloudID != "" {
		esCfg.CloudID = cfg.ElasticsearchCloudID
	} else {
		esCfg.Addresses = []string{cfg.ElasticsearchAddr}
	}
	for _, opt := range opts {
		opt(&esCfg)
	}

	es, err := elasticsearch.NewClient(esCfg)
	if err != nil {
		return nil, fmt.Errorf("create elasticsearch client: %w", err)
	}

	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	fetchSize := cfg.FetchSize
	if fetchSize <= 0 {
		fetchSize = 1000
	}
	keepAlive := cfg.ScrollKeepAlive
	if keepAlive <= 0 {
		keepAlive = 5 * time.Minute
	}

	return &Client{
		es:        es,
		index:     cfg.ElasticsearchIndex,
		fetchSize: fetchSize,
		keepAlive: keepAlive,
		log:       logger,
	}, nil
}

// Ping checks if Elasticsearch is available.
func (c *Client) Ping(ctx context.Context) error {
	res, err := c.es.Ping(c.es.Ping.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("ping elasticsearch: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("elasticsearch ping failed: %s", res.Status())
	}

	return nil
}

// Health reports an error when the cluster health endpoint is unhappy.
func (c *Client) Health(ctx context.Context) error {
	res, err := c.es.Cluster.Health(c.es.Cluster.Health.WithContext(ctx))
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.StatusCode >= http.StatusBadRequest {
		data, _ := io.ReadAll(res.Body)
		return fmt.Errorf("cluster health bad: %s", strings.TrimSpace(string(data)))
	}
	return nil
}

// FetchDomain returns every post of the mailing list archived under domain.
func (c *Client) FetchDomain(ctx context.Context, domain string) ([]models.Post, error) {
	query := map[string]any{
		"query": map[string]any{
			"match_phrase": map[string]any{
				"domain": domain,
			},
		},
	}
	return c.scroll(ctx, query)
}

// FetchDomainRange returns the posts of domain created between the start of
// day start and the end of day end, both UTC.
func (c *Client) FetchDomainRange(ctx context.Context, domain string, start, end time.Time) ([]models.Post, error) {
	query := map[string]any{
		"query": map[string]any{
			"bool": map[string]any{
				"must": []map[string]any{
					{
						"prefix": map[string]any{
							"domain.keyword": domain,
						},
					},
					{
						"range": map[string]any{
							"created_at": map[string]any{
								"gte": start.UTC().Format(dayLayout) + "T00:00:00.000Z",
								"lte": end.UTC().Format(dayLayout) + "T23:59:59.999Z",
							},
						},
					},
				},
			},
		},
	}
	return c.scroll(ctx, query)
}

type scrollPage struct {
	ScrollID string `json:"_scroll_id"`
	Hits     struct {
		Hits []struct {
			Index  string      `json:"_index"`
			ID     string      `json:"_id"`
			Source models.Post `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

// scroll pages through every hit of query until an empty page comes back.
func (c *Client) scroll(ctx context.Context, query map[string]any) ([]models.Post, error) {
	started := time.Now()

	payload, err := json.Marshal(query)
	if err != nil {
		return nil, fmt.Errorf("marshal search body: %w", err)
	}

	res, err := c.es.Search(
		c.es.Search.WithContext(ctx),
		c.es.Search.WithIndex(c.index),
		c.es.Search.WithBody(bytes.NewReader(payload)),
		c.es.Search.WithSize(c.fetchSize),
		c.es.Search.WithScroll(c.keepAlive),
	)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	page, err := decodePage(res, "search")
	if err != nil {
		return nil, err
	}

	scrollID := page.ScrollID
	defer func() { c.clearScroll(scrollID) }()

	var posts []models.Post
	for len(page.Hits.Hits) > 0 {
		for _, hit := range page.Hits.Hits {
			posts = append(posts, hit.Source)
		}

		res, err := c.es.Scroll(
			c.es.Scroll.WithContext(ctx),
			c.es.Scroll.WithScrollID(scrollID),
			c.es.Scroll.WithScroll(c.keepAlive),
		)
		if err != nil {
			return nil, fmt.Errorf("scroll: %w", err)
		}
		page, err = decodePage(res, "scroll")
		if err != nil {
			return nil, err
		}
		if page.ScrollID != "" {
			scrollID = page.ScrollID
		}
	}

	c.log.Info("fetched posts",
		slog.String("index", c.index),
		slog.Int("count", len(posts)),
		slog.Duration("took", time.Since(started)),
	)
	return posts, nil
}

func decodePage(res *esapi.Response, op string) (*scrollPage, error) {
	defer res.Body.Close()

	if res.IsError() {
		data, _ := io.ReadAll(res.Body)
		return nil, fmt.Errorf("%s failed: %s", op, strings.TrimSpace(string(data)))
	}

	var page scrollPage
	if err := json.NewDecoder(res.Body).Decode(&page); err != nil {
		return nil, fmt.Errorf("decode %s response: %w", op, err)
	}
	return &page, nil
}

// clearScroll releases the server-side cursor; failures are only logged.
func (c *Client) clearScroll(scrollID string) {
	if scrollID == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	res, err := c.es.ClearScroll(
		c.es.ClearScroll.WithContext(ctx),
		c.es.ClearScroll.WithScrollID(scrollID),
	)
	if err != nil {
		c.log.Debug("clear scroll", slog.Any("err", err))
		return
	}
	res.Body.Close()
}
