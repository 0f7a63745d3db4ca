package lofin

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"lofin_collector/internal/config"
	"lofin_collector/internal/domain"
)

// Client issues single page requests against the QWGJK endpoint.
type Client struct {
	httpClient *http.Client
	baseURL    string
	key        string
	userAgent  string
	pageSize   int
	logger     *slog.Logger
}

// NewClient builds a client from API configuration, including the TLS floor
// the upstream gateway requires.
func NewClient(cfg config.APIConfig, logger *slog.Logger) (*Client, error) {
	minVersion, err := cfg.TLSMin()
	if err != nil {
		return nil, err
	}

	transport := &http.Transport{
		TLSClientConfig: &tls.Config{
			MinVersion:         minVersion,
			InsecureSkipVerify: cfg.InsecureSkipVerify,
		},
	}

	return &Client{
		httpClient: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: transport,
		},
		baseURL:   cfg.BaseURL,
		key:       cfg.Key,
		userAgent: cfg.UserAgent,
		pageSize:  cfg.PageSize,
		logger:    logger.With("component", "lofin_client"),
	}, nil
}

// PageSize returns the configured records-per-request ceiling.
func (c *Client) PageSize() int {
	return c.pageSize
}

// FetchPage requests one page for a date. Pages are 1-based.
func (c *Client) FetchPage(ctx context.Context, date domain.TargetDate, page int) (*PageResult, error) {
	params := url.Values{}
	params.Set("Key", c.key)
	params.Set("Type", "json")
	params.Set("pIndex", strconv.Itoa(page))
	params.Set("pSize", strconv.Itoa(c.pageSize))
	params.Set("fyr", strconv.Itoa(date.Year))
	params.Set("exe_ymd", date.Compact())

	reqURL := c.baseURL + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &APIError{Class: ErrorClassNetwork, Message: "execute request", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Class:      classifyStatus(resp.StatusCode),
			Message:    fmt.Sprintf("unexpected status for %s page %d", date, page),
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &APIError{Class: ErrorClassNetwork, Message: "read response body", Err: err}
	}

	return c.parsePage(date, page, body)
}

func (c *Client) parsePage(date domain.TargetDate, page int, body []byte) (*PageResult, error) {
	result := &PageResult{Total: -1}

	// The API signals an exhausted query with a bare empty object.
	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" || trimmed == "{}" {
		c.logger.Debug("empty page", "date", date.String(), "page", page)
		return result, nil
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, &APIError{Class: ErrorClassMalformed, Message: "decode response", Err: err}
	}

	for _, sec := range env.QWGJK {
		for _, h := range sec.Head {
			if h.ListTotalCount != nil {
				result.Total = *h.ListTotalCount
			}
			if h.HasMore != nil {
				result.More = h.HasMore
			}
			if h.Result != nil {
				switch h.Result.Code {
				case resultCodeOK:
				case resultCodeNoData:
					return result, nil
				default:
					return nil, &APIError{
						Class:   ErrorClassClient,
						Message: fmt.Sprintf("API result %s: %s", h.Result.Code, h.Result.Message),
					}
				}
			}
		}
		result.Records = append(result.Records, sec.Row...)
	}

	c.logger.Debug("fetched page",
		"date", date.String(),
		"page", page,
		"records", len(result.Records),
		"total", result.Total,
	)

	return result, nil
}
