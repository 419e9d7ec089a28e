// Package mailchimp is a client for the mailing-list endpoints of the
// MailChimp v3 REST API: lists, list members and ping.
//
// A 404 on a lists or member call is not an error. It is reported as
// domain.NotFound so callers can tell "no such member" apart from a failed
// request. Every other non-2xx status is an *APIError and every failure to
// obtain a response is a *TransportError.
package mailchimp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/ignite/list-subscriptions/internal/config"
	"github.com/ignite/list-subscriptions/internal/domain"
	"github.com/ignite/list-subscriptions/internal/pkg/httpretry"
	"github.com/ignite/list-subscriptions/internal/pkg/logger"
)

// Client is a MailChimp API client
type Client struct {
	baseURL     string
	credentials string
	username    string
	apiKey      string
	pageSize    int
	httpClient  httpretry.HTTPDoer
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the transport. Tests use it to inject fakes.
func WithHTTPClient(doer httpretry.HTTPDoer) Option {
	return func(c *Client) {
		c.httpClient = doer
	}
}

// NewClient creates a new MailChimp API client. Retries follow
// cfg.MaxRetries, which is zero unless configured.
func NewClient(cfg config.MailChimpConfig, opts ...Option) *Client {
	c := &Client{
		baseURL:     cfg.BaseURL,
		credentials: cfg.Credentials,
		username:    cfg.Username,
		apiKey:      cfg.APIKey,
		pageSize:    cfg.ListPageSize,
		httpClient: httpretry.NewRetryClient(&http.Client{
			Timeout: cfg.Timeout(),
		}, cfg.MaxRetries),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ListsURL returns the lists collection URL.
func (c *Client) ListsURL() string {
	return c.baseURL + "/lists/"
}

// MembersURL returns the members collection URL of a list.
func (c *Client) MembersURL(listID string) string {
	return c.baseURL + "/lists/" + url.PathEscape(listID) + "/members"
}

// MemberURL returns the URL of the member resource for email on a list.
func (c *Client) MemberURL(listID, email string) string {
	return c.MembersURL(listID) + "/" + domain.SubscriberHash(email)
}

// response is a completed exchange whose status was 2xx or 404.
type response struct {
	status int
	body   []byte
}

func (r *response) outcome() domain.Outcome {
	if r.status == http.StatusNotFound {
		return domain.NotFound
	}
	return domain.Found
}

// doRequest makes an HTTP request to the MailChimp API with Basic Auth.
// It returns an error for transport failures and for any status other than
// 2xx or 404.
func (c *Client) doRequest(ctx context.Context, method, fullURL string, body interface{}) (*response, error) {
	var reqBody io.Reader
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshaling request body: %w", err)
		}
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, fullURL, reqBody)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	c.authorize(req)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// *url.Error repeats the full URL, query string included.
		var uErr *url.Error
		if errors.As(err, &uErr) {
			err = uErr.Err
		}
		return nil, &TransportError{Method: method, URL: redactedURL(req.URL), Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Method: method, URL: redactedURL(req.URL), Err: fmt.Errorf("reading response: %w", err)}
	}

	logger.Debug("mailchimp: request complete", "method", method, "path", req.URL.Path, "status", resp.StatusCode)

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return &response{status: resp.StatusCode, body: respBody}, nil
	case resp.StatusCode == http.StatusNotFound:
		return &response{status: resp.StatusCode, body: respBody}, nil
	default:
		apiErr := newAPIError(resp.StatusCode, respBody)
		logger.Warn("mailchimp: API error", "method", method, "path", req.URL.Path,
			"status", resp.StatusCode, "title", apiErr.Title, "detail", apiErr.Detail)
		return nil, apiErr
	}
}

// authorize sets the Authorization header. A pre-encoded credential string
// is sent verbatim; otherwise username and API key go through basic auth.
func (c *Client) authorize(req *http.Request) {
	if c.credentials != "" {
		req.Header.Set("Authorization", "Basic "+c.credentials)
		return
	}
	req.SetBasicAuth(c.username, c.apiKey)
}

func newAPIError(status int, body []byte) *APIError {
	apiErr := &APIError{StatusCode: status, Body: string(body)}
	var p Problem
	if err := json.Unmarshal(body, &p); err == nil {
		apiErr.Title = p.Title
		apiErr.Detail = p.Detail
	}
	return apiErr
}

// redactedURL drops the query string, which may carry an email address.
func redactedURL(u *url.URL) string {
	cp := *u
	cp.RawQuery = ""
	cp.User = nil
	return cp.String()
}

// GetLists fetches every mailing list visible to the account.
func (c *Client) GetLists(ctx context.Context) (*domain.ListsResult, error) {
	result, err := c.getLists(ctx, url.Values{})
	if err != nil {
		return nil, fmt.Errorf("fetching lists: %w", err)
	}
	return result, nil
}

// GetListsByEmail fetches the lists email is a member of.
func (c *Client) GetListsByEmail(ctx context.Context, email string) (*domain.ListsResult, error) {
	params := url.Values{}
	params.Set("email", email)
	result, err := c.getLists(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("fetching lists by email: %w", err)
	}
	return result, nil
}

func (c *Client) getLists(ctx context.Context, params url.Values) (*domain.ListsResult, error) {
	if c.pageSize > 0 {
		params.Set("count", strconv.Itoa(c.pageSize))
	}
	fullURL := c.ListsURL()
	if len(params) > 0 {
		fullURL += "?" + params.Encode()
	}

	resp, err := c.doRequest(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, err
	}

	switch resp.outcome() {
	case domain.NotFound:
		return &domain.ListsResult{Outcome: domain.NotFound, Lists: []domain.MailingList{}}, nil
	default:
		var lr ListsResponse
		if err := json.Unmarshal(resp.body, &lr); err != nil {
			return nil, fmt.Errorf("parsing lists response: %w", err)
		}
		return &domain.ListsResult{Outcome: domain.Found, Lists: lr.toDomain()}, nil
	}
}

// UpdateMemberStatus sets the status of an existing member. A missing
// member is reported as domain.NotFound with a nil error.
func (c *Client) UpdateMemberStatus(ctx context.Context, listID, email string, status domain.MemberStatus) (domain.Outcome, error) {
	resp, err := c.doRequest(ctx, http.MethodPatch, c.MemberURL(listID, email), StatusRequest{Status: status})
	if err != nil {
		return domain.NotFound, fmt.Errorf("updating member status: %w", err)
	}
	return resp.outcome(), nil
}

// CreateMember adds email to a list with the given status. A 404 here means
// the list itself is missing, which is returned as an *APIError.
func (c *Client) CreateMember(ctx context.Context, listID, email string, status domain.MemberStatus) error {
	req := MemberRequest{EmailAddress: email, Status: status}
	resp, err := c.doRequest(ctx, http.MethodPost, c.MembersURL(listID), req)
	if err != nil {
		return fmt.Errorf("creating member: %w", err)
	}
	if resp.outcome() == domain.NotFound {
		return fmt.Errorf("creating member: %w", newAPIError(resp.status, resp.body))
	}
	return nil
}

// Ping checks that the API is reachable and the credentials are accepted.
func (c *Client) Ping(ctx context.Context) error {
	resp, err := c.doRequest(ctx, http.MethodGet, c.baseURL+"/ping", nil)
	if err != nil {
		return fmt.Errorf("pinging: %w", err)
	}
	if resp.outcome() == domain.NotFound {
		return fmt.Errorf("pinging: %w", newAPIError(resp.status, resp.body))
	}
	return nil
}
