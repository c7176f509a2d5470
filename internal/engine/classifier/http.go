package classifier

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/tidwall/gjson"

	httpclient "intent-engine/internal/common/http"
	"intent-engine/internal/common/logger"
)

// healthTTL bounds how long a health answer, fetched or learned from a Classify
// call, is reused before /health is asked again.
const healthTTL = 30 * time.Second

// HTTPClassifier posts the prompt to a classification service. The service
// answers either with the JSON object itself or with {"text": "<json>"}.
type HTTPClassifier struct {
	baseURL string
	client  *httpclient.Client
	timeout time.Duration
	logger  logger.Logger
	now     func() time.Time

	mu        sync.Mutex
	healthy   bool
	checkedAt time.Time
}

func NewHTTPClassifier(baseURL string, timeout time.Duration, log logger.Logger) *HTTPClassifier {
	return &HTTPClassifier{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  httpclient.NewClient(timeout),
		timeout: timeout,
		logger:  logger.ForComponent(log, "classifier-http"),
		now:     time.Now,
	}
}

func (c *HTTPClassifier) Classify(ctx context.Context, req Request) (*Result, error) {
	if c.baseURL == "" {
		return nil, fmt.Errorf("%w: no base url", ErrUnavailable)
	}
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	payload := map[string]interface{}{
		"question": req.Question,
		"scope":    string(req.Scope),
		"prompt":   BuildPrompt(req),
	}
	if req.Summary != "" {
		payload["summary"] = req.Summary
	}

	body, err := c.client.PostJSON(ctx, c.baseURL+"/classify", nil, payload)
	if err != nil {
		err = classifyTransportError(ctx, err)
		c.markHealth(false)
		return nil, err
	}
	c.markHealth(true)

	raw := string(body)
	if text := gjson.Get(raw, "text"); text.Type == gjson.String {
		raw = text.Str
	}
	res, err := ParseResponse(raw)
	if err != nil {
		c.logger.Debug("unparseable classifier response", map[string]interface{}{
			"error": err.Error(),
		})
		return nil, err
	}
	return res, nil
}

// Available reports the last known health. /health is called only when that
// answer is older than healthTTL, so an escalation normally costs one round trip.
func (c *HTTPClassifier) Available(ctx context.Context) bool {
	if c.baseURL == "" {
		return false
	}
	c.mu.Lock()
	if !c.checkedAt.IsZero() && c.now().Sub(c.checkedAt) < healthTTL {
		healthy := c.healthy
		c.mu.Unlock()
		return healthy
	}
	c.mu.Unlock()

	status, err := c.client.Get(ctx, c.baseURL+"/health")
	healthy := err == nil && status == http.StatusOK
	c.markHealth(healthy)
	return healthy
}

func (c *HTTPClassifier) markHealth(healthy bool) {
	c.mu.Lock()
	c.healthy = healthy
	c.checkedAt = c.now()
	c.mu.Unlock()
}

func classifyTransportError(ctx context.Context, err error) error {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || ctx.Err() == context.DeadlineExceeded ||
		(errors.As(err, &netErr) && netErr.Timeout()) {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	return fmt.Errorf("%w: %v", ErrUnavailable, err)
}
