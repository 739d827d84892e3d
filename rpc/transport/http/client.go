package http

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ValentinKolb/kvrpc/rpc/common"
	"github.com/ValentinKolb/kvrpc/rpc/transport"
)

func NewHttpClientTransport() transport.IRPCClientTransport {
	return &httpClientTransport{}
}

type httpClientTransport struct {
	mu         sync.RWMutex
	serverURLs []string
	client     *http.Client
	counter    atomic.Uint32
}

// --------------------------------------------------------------------------
// Interface Methods (docu see transport.IRPCClientTransport)
// --------------------------------------------------------------------------

func (t *httpClientTransport) Connect(config common.ClientConfig) error {
	if len(config.Transport.Endpoints) == 0 {
		return fmt.Errorf("no endpoints provided")
	}

	// Build the call URL of each endpoint
	serverURLs := make([]string, len(config.Transport.Endpoints))
	for i, endpoint := range config.Transport.Endpoints {
		if !strings.Contains(endpoint, "://") {
			endpoint = "http://" + endpoint
		}
		parsedURL, err := url.Parse(endpoint)
		if err != nil {
			return fmt.Errorf("invalid endpoint %q: %w", endpoint, err)
		}
		parsedURL.Path = strings.TrimSuffix(parsedURL.Path, "/") + rpcPath
		serverURLs[i] = parsedURL.String()
	}

	connectionsPerEP := max(1, config.Transport.ConnectionsPerEndpoint)

	client := &http.Client{
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: connectionsPerEP,
		},
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.client != nil {
		t.client.CloseIdleConnections()
	}
	t.client = client
	t.serverURLs = serverURLs
	return nil
}

func (t *httpClientTransport) Send(ctx context.Context, req []byte) ([]byte, error) {
	t.mu.RLock()
	client, serverURLs := t.client, t.serverURLs
	t.mu.RUnlock()

	if client == nil {
		return nil, transport.NewError(transport.ErrKindUnavailable, fmt.Errorf("http transport not initialized"))
	}

	// Select the next server via round-robin
	idx := t.counter.Add(1) % uint32(len(serverURLs))

	httpRequest, err := http.NewRequestWithContext(ctx, http.MethodPost, serverURLs[idx], bytes.NewReader(req))
	if err != nil {
		return nil, transport.NewError(transport.ErrKindOther, err)
	}
	httpRequest.Header.Set("Content-Type", "application/octet-stream")
	if deadline, ok := ctx.Deadline(); ok {
		// an expired deadline is still sent, 1ns is the smallest valid timeout
		left := max(int64(time.Until(deadline)), 1)
		httpRequest.Header.Set(timeoutHeader, strconv.FormatInt(left, 10))
	}

	httpResponse, err := client.Do(httpRequest)
	if err != nil {
		return nil, classify(ctx, err)
	}
	defer httpResponse.Body.Close()

	if httpResponse.StatusCode != http.StatusOK {
		return nil, transport.NewError(transport.ErrKindOther, fmt.Errorf("http error: %s", httpResponse.Status))
	}

	body, err := io.ReadAll(httpResponse.Body)
	if err != nil {
		return nil, classify(ctx, err)
	}
	return body, nil
}

func (t *httpClientTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.client != nil {
		t.client.CloseIdleConnections()
	}
	t.client = nil
	t.serverURLs = nil
	return nil
}

// classify converts err into a transport error, using ctx to tell a
// cancellation from a timeout
func classify(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		if errors.Is(ctxErr, context.DeadlineExceeded) {
			return transport.NewError(transport.ErrKindTimeout, ctxErr)
		}
		return transport.NewError(transport.ErrKindOther, ctxErr)
	}
	return transport.Classify(err)
}
