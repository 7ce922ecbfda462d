package clientx

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"

	"go.barcircle.dev/web/clientx/internal"
	"go.barcircle.dev/web/core/errors"
	"go.barcircle.dev/web/core/identity"
	"go.barcircle.dev/web/core/log"
	"go.barcircle.dev/web/core/notice"
	"go.barcircle.dev/web/core/utils"
	"go.barcircle.dev/web/logx"
)

const maxBodyBytes = 8 << 20

// Request describes one API call. Path is relative to the API root, e.g. "/circle/feed".
type Request struct {
	Method      string
	Path        string
	Query       url.Values
	Body        any    // JSON-encoded unless it is []byte or io.Reader
	ContentType string // Used with raw bodies; defaults to application/json
}

// Get builds a GET request.
func Get(path string, query url.Values) Request {
	return Request{Method: http.MethodGet, Path: path, Query: query}
}

// Post builds a POST request with a JSON body.
func Post(path string, body any) Request {
	return Request{Method: http.MethodPost, Path: path, Body: body}
}

// Put builds a PUT request with a JSON body.
func Put(path string, body any) Request {
	return Request{Method: http.MethodPut, Path: path, Body: body}
}

// Delete builds a DELETE request.
func Delete(path string) Request {
	return Request{Method: http.MethodDelete, Path: path}
}

func (r Request) op() string {
	return r.Method + " " + r.Path
}

// Envelope is the response wrapper every backend endpoint uses.
type Envelope struct {
	Code    *int            `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// Send performs r and returns the envelope data on code 200.
// Failures are classified, reconciled with the session and reported at most once.
func (g *Gateway) Send(ctx context.Context, r Request) (json.RawMessage, error) {
	if r.Method == "" {
		r.Method = http.MethodGet
	}

	start := time.Now()
	trace := &internal.Trace{}

	data, err := g.send(internal.WithTrace(ctx, trace), r)

	outcome := "ok"
	if err != nil {
		outcome = strings.ToLower(string(errors.CodeOf(err)))
		g.reconcile(ctx, r, err)
	}
	g.opts.Metrics.settled(ctx, r.Method, outcome, time.Since(start))

	logx.FromContext(ctx, g.logger).Debug("request settled",
		"op", r.op(),
		"outcome", outcome,
		"attempts", trace.Count(),
		"elapsed", time.Since(start),
	)
	return data, err
}

func (g *Gateway) send(ctx context.Context, r Request) (json.RawMessage, error) {
	req, err := g.newRequest(ctx, r)
	if err != nil {
		return nil, errors.Wrap(errors.CodeInvalidArgument, r.op(), err)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, errors.Build(errors.CodeConnection).WithOp(r.op()).WithErr(err).Err()
	}
	defer resp.Body.Close()

	return settle(r.op(), resp)
}

func (g *Gateway) newRequest(ctx context.Context, r Request) (*http.Request, error) {
	if !strings.HasPrefix(r.Path, "/") {
		return nil, fmt.Errorf("path %q must start with /", r.Path)
	}

	u := g.base.JoinPath(r.Path)
	if len(r.Query) > 0 {
		u.RawQuery = r.Query.Encode()
	}

	body, contentType, err := encodeBody(r)
	if err != nil {
		return nil, err
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, r.Method, u.String(), reader)
	if err != nil {
		return nil, err
	}

	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("X-Request-ID", requestID(ctx))
	return req, nil
}

func encodeBody(r Request) ([]byte, string, error) {
	contentType := r.ContentType
	switch b := r.Body.(type) {
	case nil:
		return nil, "", nil
	case []byte:
		if contentType == "" {
			contentType = "application/json"
		}
		return b, contentType, nil
	case io.Reader:
		data, err := io.ReadAll(b)
		if err != nil {
			return nil, "", fmt.Errorf("read request body: %w", err)
		}
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		return data, contentType, nil
	default:
		data, err := sonic.Marshal(b)
		if err != nil {
			return nil, "", fmt.Errorf("encode request body: %w", err)
		}
		return data, "application/json", nil
	}
}

func requestID(ctx context.Context) string {
	if meta, ok := identity.MetaFrom(ctx); ok && meta.RequestID != "" {
		return meta.RequestID
	}
	return uuid.NewString()
}

// settle turns a received response into data or a classified failure.
// Transport status is checked first; then the envelope code decides.
func settle(op string, resp *http.Response) (json.RawMessage, error) {
	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, errors.Build(errors.CodeConnection).WithOp(op).WithErr(err).WithMsg("read response body").Err()
	}

	var env Envelope
	decodeErr := sonic.Unmarshal(raw, &env)

	if resp.StatusCode >= http.StatusBadRequest {
		b := errors.Build(errors.CodeHTTPStatus).WithOp(op).WithStatus(resp.StatusCode)
		if decodeErr == nil {
			b.WithMsg(env.Message)
		}
		return nil, b.Err()
	}

	if decodeErr != nil || env.Code == nil {
		if decodeErr == nil {
			decodeErr = fmt.Errorf("missing envelope code")
		}
		return nil, errors.Build(errors.CodeInternal).WithOp(op).WithErr(decodeErr).
			WithStatus(resp.StatusCode).Err()
	}

	if *env.Code != http.StatusOK {
		return nil, errors.Build(errors.CodeApplication).WithOp(op).
			WithAppCode(*env.Code).WithMsg(env.Message).Err()
	}
	return env.Data, nil
}

// reconcile applies the side effects of a terminal failure: session reset and notices.
func (g *Gateway) reconcile(ctx context.Context, r Request, err error) {
	logger := logx.FromContext(ctx, g.logger).With("op", r.op())

	switch {
	case errors.IsCode(err, errors.CodeConnection):
		if ctx.Err() != nil {
			logger.Debug("request abandoned by caller", "error", ctx.Err())
			return
		}
		if utils.ContainsAny(r.Path, g.opts.SilentPaths) {
			logger.Warn("connection failed on silent path", "error", err)
			return
		}
		logger.Error(err, "connection failed")
		g.notify(ctx, notice.Error(g.opts.Messages.Network))

	case errors.IsUnauthenticated(err):
		g.reconcileUnauthenticated(ctx, r, err, logger)

	case errors.IsCode(err, errors.CodeInvalidArgument):
		logger.Error(err, "request not sent")

	default:
		logger.Warn("request failed", "error", err)
		g.notify(ctx, notice.Error(notice.Pick(g.fallback(errors.StatusOf(err)), serverMessage(err))))
	}
}

func (g *Gateway) reconcileUnauthenticated(ctx context.Context, r Request, err error, logger log.Logger) {
	switch {
	case strings.Contains(r.Path, ProbePath):
		if g.opts.Auth != nil {
			g.opts.Auth.Reset()
		}
		g.opts.Metrics.reset(ctx)
		logger.Info("session probe unauthorized, session reset")
	case utils.ContainsAny(r.Path, authEndpoints):
		logger.Debug("unauthorized on auth endpoint")
	case utils.HasAnyPrefix(PageFrom(ctx), authPages):
		logger.Debug("unauthorized while on auth page", "page", PageFrom(ctx))
	default:
		logger.Info("unauthorized, session kept")
		g.notify(ctx, notice.Error(notice.Pick(g.opts.Messages.Unauthorized, serverMessage(err))))
	}
}

func (g *Gateway) fallback(status int) string {
	switch status {
	case http.StatusBadRequest:
		return g.opts.Messages.BadRequest
	case http.StatusForbidden:
		return g.opts.Messages.Forbidden
	case http.StatusNotFound:
		return g.opts.Messages.NotFound
	default:
		return g.opts.Messages.Failed
	}
}

func (g *Gateway) notify(ctx context.Context, n notice.Notice) {
	g.opts.Metrics.noticed(ctx, string(n.Kind))
	g.opts.Notifier.Notify(ctx, n)
}

func serverMessage(err error) string {
	var e *errors.E
	if errors.As(err, &e) {
		return e.Msg
	}
	return ""
}

// Do sends r and decodes the envelope data into T. A null or absent data field yields the zero T.
func Do[T any](ctx context.Context, g *Gateway, r Request) (T, error) {
	var out T
	data, err := g.Send(ctx, r)
	if err != nil {
		return out, err
	}
	if len(data) == 0 || string(data) == "null" {
		return out, nil
	}
	if err := sonic.Unmarshal(data, &out); err != nil {
		return out, errors.Wrap(errors.CodeInternal, r.op(), fmt.Errorf("decode %T: %w", out, err))
	}
	return out, nil
}
