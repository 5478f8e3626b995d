package request

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"io/ioutil"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/pkg/errors"

	"github.com/evgeny-myasishchev/ledger.accounting/pkg/lib-core-golang/diag"
)

var defaultLogger = diag.CreateLogger()

const maxErrorBody = 4096

// HTTPError is returned for responses with non 2xx status
type HTTPError struct {
	StatusCode int
	Status     string
	Body       string
}

func (e HTTPError) Error() string {
	return fmt.Sprintf("[%v](%v): %v", e.StatusCode, e.Status, e.Body)
}

// NewHTTPErrorFromResponse returns an error with status and beginning of the body of a response.
// The body is closed
func NewHTTPErrorFromResponse(res *http.Response) error {
	defer res.Body.Close()
	body, _ := ioutil.ReadAll(io.LimitReader(res.Body, maxErrorBody))
	return HTTPError{
		StatusCode: res.StatusCode,
		Status:     http.StatusText(res.StatusCode),
		Body:       string(body),
	}
}

type sendCfg struct {
	logger   diag.Logger
	client   *http.Client
	newRetry func() backoff.BackOff
}

// SendOpt is a send specific option
type SendOpt func(cfg *sendCfg)

// WithClient sets http client used to send the request
func WithClient(client *http.Client) SendOpt {
	return func(cfg *sendCfg) {
		cfg.client = client
	}
}

// WithTimeout sets a timeout of the request
func WithTimeout(timeout time.Duration) SendOpt {
	return func(cfg *sendCfg) {
		cfg.client = &http.Client{Transport: http.DefaultTransport, Timeout: timeout}
	}
}

// WithRetry resends the request according to the policy while it fails
// with a network error or a 5xx status. Other failures are not retried
func WithRetry(newPolicy func() backoff.BackOff) SendOpt {
	return func(cfg *sendCfg) {
		cfg.newRetry = newPolicy
	}
}

// ReqFactory is a function that creates an instance of a request
type ReqFactory func() (*http.Request, error)

// WithHeader returns a factory that sets a header on created requests
func (f ReqFactory) WithHeader(name string, value string) ReqFactory {
	return func() (*http.Request, error) {
		req, err := f()
		if err != nil {
			return nil, err
		}
		req.Header.Set(name, value)
		return req, nil
	}
}

// Get creates a new req factory that creates a get request for given url
func Get(url string) ReqFactory {
	return func() (*http.Request, error) {
		return http.NewRequest(http.MethodGet, url, nil)
	}
}

// Post creates a new req factory that creates a post request with given body
func Post(url string, contentType string, body io.Reader) ReqFactory {
	return func() (*http.Request, error) {
		req, err := http.NewRequest(http.MethodPost, url, body)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", contentType)
		return req, nil
	}
}

// PostJSON creates a new req factory that creates a post request with json of the payload
func PostJSON(url string, payload interface{}) ReqFactory {
	return func() (*http.Request, error) {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, errors.Wrap(err, "Failed to marshal request payload")
		}
		return Post(url, "application/json", bytes.NewReader(data))()
	}
}

// ResFactory is a function that holds a request result with a response or error
type ResFactory func() (*http.Response, error)

// ReadAll will read entire body as a byte array
func (f ResFactory) ReadAll() ([]byte, error) {
	res, err := f()
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()
	return ioutil.ReadAll(res.Body)
}

// DecodeJSON will decode json body into the receiver
func (f ResFactory) DecodeJSON(receiver interface{}) error {
	res, err := f()
	if err != nil {
		return err
	}
	defer res.Body.Close()
	return errors.Wrap(json.NewDecoder(res.Body).Decode(receiver), "Failed to decode response")
}

// Close will discard the body of a successful response
func (f ResFactory) Close() error {
	res, err := f()
	if err != nil {
		return err
	}
	return res.Body.Close()
}

func newResFactory(res *http.Response, err error) ResFactory {
	return func() (*http.Response, error) {
		return res, err
	}
}

// send makes a single attempt. Errors that should not be retried are permanent
func send(ctx context.Context, cfg *sendCfg, factory ReqFactory) (*http.Response, error) {
	req, err := factory()
	if err != nil {
		return nil, backoff.Permanent(err)
	}
	req = req.WithContext(ctx)
	cfg.logger.Debug(ctx, "Sending %v %v", req.Method, req.URL)
	res, err := cfg.client.Do(req)
	if err != nil {
		cfg.logger.WithError(err).Warn(ctx, "%v %v failed", req.Method, req.URL)
		return nil, err
	}
	cfg.logger.Debug(ctx, "%v %v completed with %v", req.Method, req.URL, res.StatusCode)
	switch {
	case res.StatusCode >= http.StatusInternalServerError:
		return nil, NewHTTPErrorFromResponse(res)
	case res.StatusCode >= http.StatusMultipleChoices:
		return nil, backoff.Permanent(NewHTTPErrorFromResponse(res))
	}
	return res, nil
}

// Do will send the request. Will fail if response status is other than 2xx
func Do(ctx context.Context, factory ReqFactory, opts ...SendOpt) ResFactory {
	cfg := &sendCfg{
		logger: defaultLogger,
		client: &http.Client{Transport: http.DefaultTransport},
	}
	for _, opt := range opts {
		opt(cfg)
	}

	var res *http.Response
	attempt := func() (err error) {
		res, err = send(ctx, cfg, factory)
		return err
	}
	var err error
	if cfg.newRetry == nil {
		err = attempt()
	} else {
		err = backoff.RetryNotify(attempt, backoff.WithContext(cfg.newRetry(), ctx), func(err error, next time.Duration) {
			cfg.logger.WithError(err).Info(ctx, "Request failed, retrying in %v", next)
		})
	}
	var permanent *backoff.PermanentError
	if errors.As(err, &permanent) {
		err = permanent.Err
	}
	return newResFactory(res, err)
}
