package ocr

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/coder-lang/Chatbotscannedpdf/config"
	"github.com/coder-lang/Chatbotscannedpdf/pkg/clients/httptool"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

const (
	clientNameOcr = "ocr"

	apiVersion          = "2023-07-31"
	headerOperationLoc  = "Operation-Location"
	headerSubscription  = "Ocp-Apim-Subscription-Key"
	statusSucceeded     = "succeeded"
	statusFailed        = "failed"
	defaultPollInterval = 3
	defaultPollTimeout  = 300
)

// Client talks to an Azure Document Intelligence endpoint. Analysis is
// asynchronous: submit the document, then poll the operation location the
// service hands back until it reports a terminal status.
type Client struct {
	http         *httptool.HTTPClient
	pollInterval time.Duration
	pollTimeout  time.Duration
}

var (
	instance *Client
	once     sync.Once
	initErr  error
)

func GetInstance() (*Client, error) {
	once.Do(func() {
		cfg := config.GetInstance()

		endpoint := cfg.GetString(config.OcrClientEndpoint)
		if endpoint == "" {
			initErr = fmt.Errorf("%s is required", config.OcrClientEndpoint)
			return
		}
		key := cfg.GetString(config.OcrClientKey)
		if key == "" {
			initErr = fmt.Errorf("%s is required", config.OcrClientKey)
			return
		}

		pollInterval := cfg.GetIntOrDefault(config.OcrClientPollInterval, defaultPollInterval)
		pollTimeout := cfg.GetIntOrDefault(config.OcrClientPollTimeout, defaultPollTimeout)

		hc := httptool.NewHTTPClient(endpoint, clientNameOcr, time.Minute, nil, nil)
		hc.SetHeader(headerSubscription, key)

		instance = &Client{
			http:         hc,
			pollInterval: time.Duration(pollInterval) * time.Second,
			pollTimeout:  time.Duration(pollTimeout) * time.Second,
		}
	})
	return instance, initErr
}

// NewClient builds a client against an explicit endpoint. GetInstance is the
// config-driven path; this one exists for tests.
func NewClient(endpoint, key string, pollInterval, pollTimeout time.Duration) *Client {
	hc := httptool.NewHTTPClient(endpoint, clientNameOcr, time.Minute, nil, nil)
	hc.SetHeader(headerSubscription, key)
	return &Client{
		http:         hc,
		pollInterval: pollInterval,
		pollTimeout:  pollTimeout,
	}
}

// Analyze submits document bytes under the given model and waits for the
// result. modelID is ModelRead or ModelLayout.
func (c *Client) Analyze(ctx context.Context, modelID string, document []byte) (*AnalyzeResult, error) {
	operationURL, err := c.submit(ctx, modelID, document)
	if err != nil {
		return nil, err
	}
	return c.poll(ctx, operationURL)
}

func (c *Client) submit(ctx context.Context, modelID string, document []byte) (string, error) {
	url := fmt.Sprintf("/formrecognizer/documentModels/%s:analyze?api-version=%s", modelID, apiVersion)

	c.http.SetHeader(httptool.HeaderContentType, httptool.HeaderContentTypePDF)
	header, _, err := c.http.PostWithContext(ctx, url, bytes.NewReader(document))
	if err != nil {
		return "", errors.WithStack(err)
	}

	operationURL := header.Get(headerOperationLoc)
	if operationURL == "" {
		return "", fmt.Errorf("%s: analyze accepted but no %s header", clientNameOcr, headerOperationLoc)
	}
	return operationURL, nil
}

func (c *Client) poll(ctx context.Context, operationURL string) (*AnalyzeResult, error) {
	deadline := time.Now().Add(c.pollTimeout)
	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}

		if time.Now().After(deadline) {
			return nil, fmt.Errorf("%s: analyze operation timed out after %v", clientNameOcr, c.pollTimeout)
		}

		body, err := c.http.GetURLWithContext(ctx, operationURL)
		if err != nil {
			return nil, errors.WithStack(err)
		}

		var resp analyzeResponse
		if err := json.Unmarshal(body, &resp); err != nil {
			return nil, errors.WithStack(err)
		}

		switch resp.Status {
		case statusSucceeded:
			if resp.AnalyzeResult == nil {
				return nil, fmt.Errorf("%s: succeeded without analyzeResult", clientNameOcr)
			}
			return resp.AnalyzeResult, nil
		case statusFailed:
			if resp.Error != nil {
				return nil, fmt.Errorf("%s: analyze failed: %s: %s", clientNameOcr, resp.Error.Code, resp.Error.Message)
			}
			return nil, fmt.Errorf("%s: analyze failed", clientNameOcr)
		default:
			log.Debugf("%s: operation status %q, polling again", clientNameOcr, resp.Status)
		}
	}
}
