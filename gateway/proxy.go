package gateway

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/drummonds/bandgap/database"
	"github.com/drummonds/bandgap/store"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// maxPredictBody caps how much of an upload is inspected and buffered
const maxPredictBody = 32 << 20

// HeaderRunID carries the ID of the run recorded for a proxied request
const HeaderRunID = "X-Run-Id"

// maxErrorSnippet caps the upstream error body stored on a failed run
const maxErrorSnippet = 512

// ProxyMiddleware forwards requests to the prediction service
func ProxyMiddleware(upstream *url.URL) echo.MiddlewareFunc {
	return middleware.ProxyWithConfig(middleware.ProxyConfig{
		Balancer: middleware.NewRoundRobinBalancer([]*middleware.ProxyTarget{
			{
				URL: upstream,
			},
		}),
	})
}

// describePredictRequest reads the multipart form without consuming it, so
// the proxy still forwards the original body
func describePredictRequest(req *http.Request) (database.RunDetails, error) {
	details := database.RunDetails{RemoteAddr: req.RemoteAddr}
	if req.Body == nil {
		return details, nil
	}

	body, err := io.ReadAll(io.LimitReader(req.Body, maxPredictBody+1))
	req.Body.Close()
	if err != nil {
		return details, fmt.Errorf("reading request body: %w", err)
	}
	if len(body) > maxPredictBody {
		return details, echo.NewHTTPError(http.StatusRequestEntityTooLarge, "request body too large")
	}
	req.Body = io.NopCloser(bytes.NewReader(body))
	req.ContentLength = int64(len(body))

	mediaType, params, err := mime.ParseMediaType(req.Header.Get(echo.HeaderContentType))
	if err != nil || !strings.HasPrefix(mediaType, "multipart/") {
		// let the prediction service reject it
		return details, nil
	}

	reader := multipart.NewReader(bytes.NewReader(body), params["boundary"])
	for {
		part, err := reader.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			Logger.Debug("Stopped inspecting malformed multipart body", "error", err)
			break
		}
		switch part.FormName() {
		case store.FieldFormula:
			details.FormulaCount++
		case store.FieldModelType:
			value, _ := io.ReadAll(io.LimitReader(part, 256))
			details.ModelType = strings.TrimSpace(string(value))
		case store.FieldFile:
			details.HasFile = true
		}
		part.Close()
	}
	return details, nil
}

// captureWriter keeps the first bytes of the upstream response
type captureWriter struct {
	http.ResponseWriter
	buf bytes.Buffer
}

func (w *captureWriter) Write(b []byte) (int, error) {
	if room := maxErrorSnippet - w.buf.Len(); room > 0 {
		if len(b) < room {
			room = len(b)
		}
		w.buf.Write(b[:room])
	}
	return w.ResponseWriter.Write(b)
}

func (w *captureWriter) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (w *captureWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

// RecordRun wraps a proxied route so each request becomes a Run with its
// outcome, duration and metrics
func (serverHandler *ServerHandler) RecordRun(kind database.RunKind) echo.MiddlewareFunc {
	route := string(kind)
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			// the run is finished even when the client goes away
			ctx := context.WithoutCancel(req.Context())

			details := database.RunDetails{RemoteAddr: c.RealIP()}
			if kind == database.RunKindPredict {
				described, err := describePredictRequest(req)
				if err != nil {
					return err
				}
				described.RemoteAddr = details.RemoteAddr
				details = described
			}

			run, err := serverHandler.DB.CreateRun(ctx, kind, details)
			if err != nil {
				// history is best effort, the request still goes through
				Logger.Error("Failed to record run", "kind", kind, "error", err)
			} else {
				c.Response().Header().Set(HeaderRunID, run.ID.String())
			}

			capture := &captureWriter{ResponseWriter: c.Response().Writer}
			c.Response().Writer = capture

			start := time.Now()
			proxyErr := next(c)
			elapsed := time.Since(start)

			code := c.Response().Status
			errMsg := ""
			if proxyErr != nil {
				var he *echo.HTTPError
				if errors.As(proxyErr, &he) {
					code = he.Code
				} else {
					code = http.StatusBadGateway
				}
				errMsg = proxyErr.Error()
			} else if code >= http.StatusBadRequest {
				errMsg = strings.TrimSpace(capture.buf.String())
				if errMsg == "" {
					errMsg = http.StatusText(code)
				}
			}

			if serverHandler.Metrics != nil {
				serverHandler.Metrics.ObserveProxied(route, code, elapsed)
			}

			if run != nil {
				if errMsg == "" {
					err = serverHandler.DB.CompleteRun(ctx, run.ID, code, elapsed)
				} else {
					err = serverHandler.DB.FailRun(ctx, run.ID, code, elapsed, errMsg)
				}
				if err != nil {
					Logger.Error("Failed to finish run", "runID", run.ID, "error", err)
				}
			}

			Logger.Info("Proxied request", "route", route, "code", code, "duration", elapsed, "formulas", details.FormulaCount)
			return proxyErr
		}
	}
}
