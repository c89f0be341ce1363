package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/pders01/headlines/internal/config"
	"github.com/pders01/headlines/internal/debuglog"
	"github.com/pders01/headlines/internal/storage"
)

const (
	defaultUserAgent = "headlines/1.0 (news reader; github.com/pders01/headlines)"
	defaultTimeout   = 30 * time.Second
	// maxErrorBody bounds how much of an error response is read.
	maxErrorBody = 64 << 10
)

// Client queries NewsAPI's /everything endpoint.
type Client struct {
	client        *http.Client
	baseURL       string
	apiKey        string
	language      string
	userAgent     string
	fallbackQuery string
	pageSize      int
}

func NewClient(cfg config.ProviderConfig) *Client {
	timeout := cfg.HTTPTimeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	ua := cfg.UserAgent
	if ua == "" {
		ua = defaultUserAgent
	}
	fallback := cfg.FallbackQuery
	if fallback == "" {
		fallback = "latest"
	}
	size := cfg.PageSize
	if size <= 0 {
		size = DefaultPageSize
	}

	return &Client{
		client: &http.Client{
			Timeout: timeout,
		},
		baseURL:       strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:        cfg.APIKey,
		language:      cfg.Language,
		userAgent:     ua,
		fallbackQuery: fallback,
		pageSize:      size,
	}
}

func (c *Client) Name() string {
	return "newsapi"
}

type apiResponse struct {
	Status       string       `json:"status"`
	TotalResults int          `json:"totalResults"`
	Articles     []apiArticle `json:"articles"`
	Code         string       `json:"code"`
	Message      string       `json:"message"`
}

type apiArticle struct {
	Source struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"source"`
	Author      string `json:"author"`
	Title       string `json:"title"`
	Description string `json:"description"`
	URL         string `json:"url"`
	URLToImage  string `json:"urlToImage"`
	PublishedAt string `json:"publishedAt"`
	Content     string `json:"content"`
}

func (a apiArticle) toArticle() *storage.Article {
	return &storage.Article{
		Title:       a.Title,
		Author:      a.Author,
		Description: a.Description,
		Content:     a.Content,
		URLToImage:  a.URLToImage,
		URL:         a.URL,
		PublishedAt: a.PublishedAt,
		Source:      a.Source.Name,
	}
}

// RequestURL builds the search URL for req, including the API key.
func (c *Client) RequestURL(req Request) string {
	req = normalize(req, c.fallbackQuery, c.pageSize)

	params := url.Values{}
	params.Set("q", req.Query)
	if req.SortBy != "" {
		params.Set("sortBy", req.SortBy)
	}
	params.Set("apiKey", c.apiKey)
	params.Set("page", strconv.Itoa(req.Page))
	params.Set("pageSize", strconv.Itoa(req.PageSize))
	if c.language != "" {
		params.Set("language", c.language)
	}
	return c.baseURL + "/everything?" + params.Encode()
}

// Search fetches one page of results. Articles are returned in provider order
// with nothing filtered.
func (c *Client) Search(ctx context.Context, req Request) (*Page, error) {
	if c.apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	req = normalize(req, c.fallbackQuery, c.pageSize)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.RequestURL(req), nil)
	if err != nil {
		redactAPIKey(err)
		return nil, fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("User-Agent", c.userAgent)
	httpReq.Header.Set("Accept", "application/json")

	debuglog.WithFields(map[string]interface{}{
		"query":  req.Query,
		"sortBy": req.SortBy,
		"page":   req.Page,
	}).Debugf("searching provider")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, classifyTransport(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, statusError(resp)
	}

	var body apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	if body.Status == "error" {
		return nil, &StatusError{StatusCode: resp.StatusCode, Code: body.Code, Message: body.Message}
	}

	page := &Page{
		Articles: make([]*storage.Article, 0, len(body.Articles)),
		Total:    body.TotalResults,
	}
	for _, a := range body.Articles {
		page.Articles = append(page.Articles, a.toArticle())
	}

	debuglog.Debugf("provider returned %d of %d articles", len(page.Articles), page.Total)
	return page, nil
}

func statusError(resp *http.Response) error {
	se := &StatusError{StatusCode: resp.StatusCode}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil {
		return se
	}
	var body apiResponse
	if json.Unmarshal(data, &body) == nil {
		se.Code = body.Code
		se.Message = body.Message
	}
	return se
}
