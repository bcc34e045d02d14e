package skillrank

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"iter"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/kailas-cloud/skillrank/internal/transport/chi"
)

// maxEventSize bounds one SSE data line.
const maxEventSize = 4 << 20

// Client is the skillrank SDK entry point.
type Client struct {
	baseURL *url.URL
	http    *http.Client
	headers http.Header
	obs     *observer
}

// New creates a Client for the server at baseURL (for example "http://localhost:8080").
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("skillrank: parse base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("skillrank: base url must be http or https, got %q", baseURL)
	}

	cfg := &clientConfig{httpClient: http.DefaultClient, headers: http.Header{}}
	for _, o := range opts {
		o.apply(cfg)
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		return nil, err
	}

	return &Client{baseURL: u, http: cfg.httpClient, headers: cfg.headers, obs: obs}, nil
}

// Search streams the stages of one search. The sequence ends after the complete stage,
// on the first error, or when the caller stops iterating (which closes the connection).
func (c *Client) Search(ctx context.Context, text string, opts ...SearchOption) iter.Seq2[StageResult, error] {
	return func(yield func(StageResult, error) bool) {
		tr := c.obs.begin("search")
		err := c.search(ctx, text, opts, tr, yield)
		tr.end(err)
		if err != nil {
			yield(StageResult{}, err)
		}
	}
}

// SearchComplete waits for the complete stage and returns it.
func (c *Client) SearchComplete(ctx context.Context, text string, opts ...SearchOption) (StageResult, error) {
	for res, err := range c.Search(ctx, text, opts...) {
		if err != nil {
			return StageResult{}, err
		}
		if res.Stage.IsFinal() {
			return res, nil
		}
	}
	return StageResult{}, ErrIncompleteStream
}

func (c *Client) search(
	ctx context.Context, text string, opts []SearchOption, tr *call, yield func(StageResult, error) bool,
) error {
	p := searchParams{}
	for _, o := range opts {
		o(&p)
	}
	q := url.Values{"q": {text}, "scope": {p.scope}}
	if p.limit > 0 {
		q.Set("limit", strconv.Itoa(p.limit))
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	req, err := c.newRequest(ctx, http.MethodGet, "/search", q, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "text/event-stream")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("skillrank: search request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return decodeAPIError(resp)
	}

	for ev, err := range readEvents(resp.Body) {
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}
		var res StageResult
		if err := json.Unmarshal(ev.data, &res); err != nil {
			return fmt.Errorf("skillrank: decode %s event: %w", ev.name, err)
		}
		tr.stage(res.Stage)
		if !yield(res, nil) {
			return nil
		}
		if res.Stage.IsFinal() {
			return nil
		}
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return ErrIncompleteStream
}

// RecordFeedback tells the server which corrected query the user accepted.
func (c *Client) RecordFeedback(ctx context.Context, original, accepted string) (learned int, err error) {
	tr := c.obs.begin("record_feedback")
	defer func() { tr.end(err) }()

	body, err := json.Marshal(chi.FeedbackRequest{Original: original, Accepted: accepted})
	if err != nil {
		return 0, fmt.Errorf("skillrank: encode feedback: %w", err)
	}
	req, err := c.newRequest(ctx, http.MethodPost, "/corrections/feedback", nil, bytes.NewReader(body))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("skillrank: feedback request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return 0, decodeAPIError(resp)
	}

	var out chi.FeedbackResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return 0, fmt.Errorf("skillrank: decode feedback response: %w", err)
	}
	return out.Learned, nil
}

// Health checks the health of all server components. A degraded server answers 503 with a body,
// so the status is returned rather than an error.
func (c *Client) Health(ctx context.Context) (HealthStatus, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/health", nil, nil)
	if err != nil {
		return HealthStatus{}, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return HealthStatus{}, fmt.Errorf("skillrank: health request: %w", err)
	}
	defer resp.Body.Close()

	var hs HealthStatus
	if err := json.NewDecoder(resp.Body).Decode(&hs); err != nil {
		return HealthStatus{}, fmt.Errorf("skillrank: decode health response: %w", err)
	}
	return hs, nil
}

func (c *Client) newRequest(
	ctx context.Context, method, path string, q url.Values, body io.Reader,
) (*http.Request, error) {
	u := *c.baseURL
	u.Path += path
	if q != nil {
		u.RawQuery = q.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, fmt.Errorf("skillrank: build request: %w", err)
	}
	for k, vs := range c.headers {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	return req, nil
}

func decodeAPIError(resp *http.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(apiErr); err != nil {
		apiErr.Code = "unknown"
		apiErr.Message = http.StatusText(resp.StatusCode)
	}
	return apiErr
}

type event struct {
	name string
	data []byte
}

// readEvents parses a text/event-stream body. Multi-line data fields are joined with newlines.
func readEvents(r io.Reader) iter.Seq2[event, error] {
	return func(yield func(event, error) bool) {
		sc := bufio.NewScanner(r)
		sc.Buffer(make([]byte, 0, 64<<10), maxEventSize)

		var (
			cur     event
			hasData bool
		)
		for sc.Scan() {
			line := sc.Text()
			if line == "" {
				if hasData {
					if !yield(cur, nil) {
						return
					}
				}
				cur, hasData = event{}, false
				continue
			}
			field, value, _ := strings.Cut(line, ":")
			value = strings.TrimPrefix(value, " ")
			switch field {
			case "event":
				cur.name = value
			case "data":
				if hasData {
					cur.data = append(cur.data, '\n')
				}
				cur.data = append(cur.data, value...)
				hasData = true
			}
		}
		if err := sc.Err(); err != nil && !errors.Is(err, io.EOF) {
			yield(event{}, fmt.Errorf("skillrank: read stream: %w", err))
		}
	}
}
