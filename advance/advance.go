// Package advance asks the server to move the session queue to the next entry.
package advance

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"time"

	"github.com/plst4-cli/plst4/log"
	"github.com/plst4-cli/plst4/metrics"
	"golang.org/x/time/rate"
)

// DefaultMinInterval is the minimum spacing between two advance requests.
const DefaultMinInterval = 100 * time.Millisecond

const maxResponseBody = 1 << 20

// Swapper receives the markup returned by the server.
type Swapper interface {
	Swap(fragment string)
}

// Requester sends rate-limited advance requests. Requests arriving faster than
// the minimum interval wait for their turn; none are dropped.
type Requester struct {
	client   *http.Client
	endpoint string
	swapper  Swapper
	limiter  *rate.Limiter
	clientID func() string
	stats    metrics.Collector

	// ctx bounds requests started by Trigger.
	ctx context.Context
}

type Option func(*Requester)

func WithMinInterval(d time.Duration) Option {
	return func(r *Requester) { r.limiter = rate.NewLimiter(rate.Every(d), 1) }
}

// WithClientID attaches the connection's handshake id to each request as websocket-id.
func WithClientID(f func() string) Option {
	return func(r *Requester) { r.clientID = f }
}

func WithCollector(m metrics.Collector) Option {
	return func(r *Requester) { r.stats = m }
}

// WithContext sets the context of requests started by Trigger.
func WithContext(ctx context.Context) Option {
	return func(r *Requester) { r.ctx = ctx }
}

// New creates a requester for session on the server at base.
func New(client *http.Client, base *url.URL, session string, swapper Swapper, opts ...Option) *Requester {
	r := &Requester{
		client:   client,
		endpoint: base.JoinPath("watch", session, "queue", "nextreq").String(),
		swapper:  swapper,
		limiter:  rate.NewLimiter(rate.Every(DefaultMinInterval), 1),
		clientID: func() string { return "" },
		stats:    metrics.Nop{},
		ctx:      context.Background(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Endpoint is the URL requests are posted to.
func (r *Requester) Endpoint() string {
	return r.endpoint
}

// Trigger requests an advance in the background. Failures are logged.
func (r *Requester) Trigger() {
	go func() {
		if err := r.Request(r.ctx); err != nil {
			log.With("endpoint", r.endpoint).Warn("advance: " + err.Error())
		}
	}()
}

// Request waits for its turn, posts the advance request and swaps the
// response into the page.
func (r *Requester) Request(ctx context.Context) error {
	if err := r.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit: %w", err)
	}

	body, contentType, err := r.form()
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint, body)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := r.client.Do(req)
	if err != nil {
		r.stats.AdvanceRequested("error")
		return fmt.Errorf("connection failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		r.stats.AdvanceRequested("error")
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		r.stats.AdvanceRequested("rejected")
		return fmt.Errorf("server returned status %d", resp.StatusCode)
	}

	r.stats.AdvanceRequested("ok")
	log.With("endpoint", r.endpoint).Info("advance requested")
	r.swapper.Swap(string(data))
	return nil
}

func (r *Requester) form() (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	if err := w.WriteField("quiet", "true"); err != nil {
		return nil, "", err
	}
	if id := r.clientID(); id != "" {
		if err := w.WriteField("websocket-id", id); err != nil {
			return nil, "", err
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}
