package api

import (
	"context"
	"encoding/json"
	"fmt"
	"math"

	"github.com/amidaware/schedctl/console/config"
	"github.com/amidaware/schedctl/console/metrics"
	"github.com/amidaware/schedctl/console/utils"
	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// TokenSource hands out the bearer token for the next request.
// An empty token means the request goes out unauthenticated.
type TokenSource interface {
	Token() string
}

type Client struct {
	rClient *resty.Client
	tokens  TokenSource
	limiter *rate.Limiter
	log     *logrus.Entry
}

func New(cfg *config.ConsoleConfig, tokens TokenSource, logger *logrus.Logger, version string) *Client {
	headers := map[string]string{
		"Content-Type": "application/json",
		"Accept":       "application/json",
		"User-Agent":   utils.UserAgent(version),
	}

	restyC := resty.New()
	restyC.SetBaseURL(cfg.BaseURL())
	restyC.SetHeaders(headers)
	restyC.SetTimeout(cfg.Timeout)
	restyC.SetLogger(logger)
	restyC.SetDebug(logger.IsLevelEnabled(logrus.DebugLevel))

	if len(cfg.Proxy) > 0 {
		restyC.SetProxy(cfg.Proxy)
	}
	if len(cfg.Cert) > 0 {
		restyC.SetRootCertificate(cfg.Cert)
	}

	c := &Client{
		rClient: restyC,
		tokens:  tokens,
		log:     logger.WithField("component", "api"),
	}
	if cfg.RateLimit > 0 {
		// a fractional rate still lets one request through at a time
		burst := int(math.Ceil(cfg.RateLimit))
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}
	restyC.OnBeforeRequest(c.authorize)
	return c
}

// authorize waits for the rate limiter, then reads the token at send time so
// a login or logout in between two requests is picked up without rebuilding
// the client
func (c *Client) authorize(_ *resty.Client, r *resty.Request) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(r.Context()); err != nil {
			return err
		}
	}
	if c.tokens != nil {
		if token := c.tokens.Token(); token != "" {
			r.SetAuthToken(token)
		}
	}
	r.SetHeader("X-Request-ID", uuid.NewString())
	return nil
}

type call struct {
	op     string
	method string
	path   string
	params map[string]string
	query  map[string]string
	body   interface{}
	out    interface{}
}

func (c *Client) do(ctx context.Context, cl call) error {
	timer := metrics.NewTimer()

	r := c.rClient.R().SetContext(ctx)
	if cl.params != nil {
		r.SetPathParams(cl.params)
	}
	if cl.query != nil {
		r.SetQueryParams(cl.query)
	}
	if cl.body != nil {
		r.SetBody(cl.body)
	}

	resp, err := r.Execute(cl.method, cl.path)
	if err != nil {
		timer.ObserveRequest(cl.op, 0)
		c.log.WithField("op", cl.op).Debugln(err)
		return &Error{Message: err.Error()}
	}
	timer.ObserveRequest(cl.op, resp.StatusCode())

	if !resp.IsSuccess() {
		msg := ErrorMessage(resp.StatusCode(), resp.Body())
		c.log.WithFields(logrus.Fields{"op": cl.op, "status": resp.StatusCode()}).Debugln(msg)
		return &Error{Status: resp.StatusCode(), Message: msg}
	}

	if cl.out != nil && len(resp.Body()) > 0 {
		if err := json.Unmarshal(resp.Body(), cl.out); err != nil {
			return &Error{Status: resp.StatusCode(), Message: fmt.Sprintf("decoding %s response: %v", cl.op, err)}
		}
	}
	return nil
}

func id(v int64) map[string]string {
	return map[string]string{"id": fmt.Sprint(v)}
}
