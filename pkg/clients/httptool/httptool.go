package httptool

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/coder-lang/Chatbotscannedpdf/config"
	"github.com/coder-lang/Chatbotscannedpdf/pkg/tools"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

const (
	HeaderContentType     = "Content-Type"
	HeaderContentTypeJSON = "application/json"
	HeaderContentTypePDF  = "application/pdf"
)

type HTTPClient struct {
	sync.RWMutex
	hc                http.Client
	baseAddr          string
	defaultRespReader HTTPResponseReader
	header            http.Header
	clientName        string
}

type HTTPResponseReader func(*http.Response, *http.Request, time.Time) ([]byte, error)

// NewHTTPClient wraps an http.Client with a base address, shared headers and
// request logging. baseAddr is a full URL including scheme.
func NewHTTPClient(baseAddr, clientName string, timeout time.Duration, transport *http.Transport, defaultRespReader HTTPResponseReader) *HTTPClient {
	ret := &HTTPClient{
		baseAddr: strings.TrimSuffix(baseAddr, "/"),
		hc: http.Client{
			Timeout:   timeout,
			Transport: transport,
		},
		clientName: clientName,
	}
	if defaultRespReader == nil {
		ret.defaultRespReader = ret.readResponse
	} else {
		ret.defaultRespReader = defaultRespReader
	}
	return ret
}

func (hc *HTTPClient) SetHeader(key, value string) {
	hc.Lock()
	defer hc.Unlock()

	if hc.header == nil {
		hc.header = http.Header{}
	}

	hc.header.Set(key, value)
}

func (hc *HTTPClient) GetWithContext(ctx context.Context, url string) ([]byte, error) {
	_, body, err := hc.fetchWithContext(ctx, http.MethodGet, hc.baseAddr+url, nil)
	return body, err
}

// GetURLWithContext fetches an absolute URL, bypassing the base address. Used
// for server-issued polling locations.
func (hc *HTTPClient) GetURLWithContext(ctx context.Context, absoluteURL string) ([]byte, error) {
	_, body, err := hc.fetchWithContext(ctx, http.MethodGet, absoluteURL, nil)
	return body, err
}

func (hc *HTTPClient) PostWithContext(ctx context.Context, url string, body io.Reader) (http.Header, []byte, error) {
	return hc.fetchWithContext(ctx, http.MethodPost, hc.baseAddr+url, body)
}

func (hc *HTTPClient) PostJSONWithContext(ctx context.Context, url string, obj interface{}) (http.Header, []byte, error) {
	body, err := json.Marshal(obj)
	if err != nil {
		return nil, nil, errors.WithStack(err)
	}
	return hc.fetchWithContext(ctx, http.MethodPost, hc.baseAddr+url, bytes.NewBuffer(body))
}

func (hc *HTTPClient) fetchWithContext(ctx context.Context, method, targetURL string, body io.Reader) (http.Header, []byte, error) {
	requestLog := config.GetInstance().GetBool(config.ClientsCommonRequestLog)
	now := time.Now()

	if requestLog {
		log.Debugf("%s: sending %v request to %v", hc.clientName, method, targetURL)
	}

	req, err := http.NewRequestWithContext(ctx, method, targetURL, body)
	if err != nil {
		return nil, nil, errors.WithStack(err)
	}

	hc.RLock()
	for key, values := range hc.header {
		for _, value := range values {
			req.Header.Add(key, value)
		}
	}
	hc.RUnlock()

	resp, err := hc.hc.Do(req)
	if err != nil {
		return nil, nil, errors.WithStack(err)
	}
	defer tools.ErrorWithPrintContext(resp.Body.Close, "close response body")

	responseBody, err := hc.defaultRespReader(resp, req, now)
	return resp.Header, responseBody, err
}

func (hc *HTTPClient) readResponse(resp *http.Response, req *http.Request, start time.Time) ([]byte, error) {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	if config.GetInstance().GetBool(config.ClientsCommonRequestLog) {
		log.Debugf("%s: %s %s -> %d in %v", hc.clientName, req.Method, req.URL.Path, resp.StatusCode, time.Since(start))
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return body, fmt.Errorf("%s: unexpected status %d: %s", hc.clientName, resp.StatusCode, string(body))
	}

	return body, nil
}
