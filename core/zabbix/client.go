package zabbix

import (
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// APIError is a JSON-RPC level error returned by the Zabbix API.
type APIError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    string `json:"data"`
}

func (e *APIError) Error() string {
	if e.Data != "" {
		return fmt.Sprintf("zabbix api error %d: %s %s", e.Code, e.Message, e.Data)
	}
	return fmt.Sprintf("zabbix api error %d: %s", e.Code, e.Message)
}

// Client talks JSON-RPC 2.0 to the Zabbix frontend API.
type Client struct {
	endpoint string
	token    string
	user     string
	password string
	http     *http.Client
	logger   *zap.Logger
	auth     string
	reqID    atomic.Int64
}

// NewClient creates a Zabbix API client from the configuration. Call
// Authenticate before issuing any request other than the version probe.
func NewClient(cfg Config, logger *zap.Logger) (*Client, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("zabbix host is required")
	}
	if cfg.Token == "" && (cfg.User == "" || cfg.Password == "") {
		return nil, fmt.Errorf("either a zabbix token or user and password are required")
	}

	timeout := cfg.TimeoutSeconds
	if timeout <= 0 {
		timeout = 30
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	if cfg.CABundle != "" {
		pem, err := os.ReadFile(cfg.CABundle)
		if err != nil {
			return nil, fmt.Errorf("failed to read CA bundle: %w", err)
		}
		pool, err := x509.SystemCertPool()
		if err != nil {
			pool = x509.NewCertPool()
		}
		pool.AppendCertsFromPEM(pem)
		transport.TLSClientConfig = &tls.Config{RootCAs: pool}
	}

	endpoint := strings.TrimRight(cfg.Host, "/")
	if !strings.HasSuffix(endpoint, "api_jsonrpc.php") {
		endpoint += "/api_jsonrpc.php"
	}

	return &Client{
		endpoint: endpoint,
		token:    cfg.Token,
		user:     cfg.User,
		password: cfg.Password,
		http: &http.Client{
			Timeout:   time.Duration(timeout) * time.Second,
			Transport: transport,
		},
		logger: logger,
	}, nil
}

// Authenticate establishes an API session. With a token configured this is a
// plain assignment; otherwise user.login is called.
func (c *Client) Authenticate(ctx context.Context) error {
	if c.token != "" {
		c.auth = c.token
		return nil
	}
	var session string
	params := map[string]any{"username": c.user, "password": c.password}
	if err := c.call(ctx, "user.login", params, &session); err != nil {
		return fmt.Errorf("zabbix login failed: %w", err)
	}
	c.auth = session
	return nil
}

// APIVersion probes the API version. This is the only method that works
// without authentication.
func (c *Client) APIVersion(ctx context.Context) (string, error) {
	var version string
	if err := c.call(ctx, "apiinfo.version", []any{}, &version); err != nil {
		return "", fmt.Errorf("failed to probe zabbix version: %w", err)
	}
	return version, nil
}

// HostGet fetches hosts with the given parameters (filter and field
// selection included).
func (c *Client) HostGet(ctx context.Context, params map[string]any) ([]Host, error) {
	var hosts []Host
	if err := c.call(ctx, "host.get", params, &hosts); err != nil {
		return nil, err
	}
	return hosts, nil
}

// HostCreate creates a host and returns the new host ID.
func (c *Client) HostCreate(ctx context.Context, params map[string]any) (string, error) {
	var result struct {
		HostIDs []string `json:"hostids"`
	}
	if err := c.call(ctx, "host.create", params, &result); err != nil {
		return "", err
	}
	if len(result.HostIDs) == 0 {
		return "", fmt.Errorf("host.create returned no host ID")
	}
	return result.HostIDs[0], nil
}

// HostUpdate applies a partial update to a host. The params map must carry
// the hostid key.
func (c *Client) HostUpdate(ctx context.Context, params map[string]any) error {
	return c.call(ctx, "host.update", params, nil)
}

// HostDelete removes a host.
func (c *Client) HostDelete(ctx context.Context, hostID string) error {
	return c.call(ctx, "host.delete", []string{hostID}, nil)
}

// HostgroupGet lists all host groups.
func (c *Client) HostgroupGet(ctx context.Context) ([]Group, error) {
	var groups []Group
	params := map[string]any{"output": []string{"groupid", "name"}}
	if err := c.call(ctx, "hostgroup.get", params, &groups); err != nil {
		return nil, err
	}
	return groups, nil
}

// HostgroupCreate creates a host group and returns its ID.
func (c *Client) HostgroupCreate(ctx context.Context, name string) (string, error) {
	var result struct {
		GroupIDs []string `json:"groupids"`
	}
	if err := c.call(ctx, "hostgroup.create", map[string]any{"name": name}, &result); err != nil {
		return "", err
	}
	if len(result.GroupIDs) == 0 {
		return "", fmt.Errorf("hostgroup.create returned no group ID")
	}
	return result.GroupIDs[0], nil
}

// TemplateGet lists all templates.
func (c *Client) TemplateGet(ctx context.Context) ([]Template, error) {
	var templates []Template
	params := map[string]any{"output": []string{"templateid", "name"}}
	if err := c.call(ctx, "template.get", params, &templates); err != nil {
		return nil, err
	}
	return templates, nil
}

// ProxyGet lists all proxies. The name field differs between API
// generations, so the caller passes it in from the capabilities.
func (c *Client) ProxyGet(ctx context.Context, nameField string) ([]Proxy, error) {
	var proxies []Proxy
	params := map[string]any{"output": []string{"proxyid", nameField}}
	if err := c.call(ctx, "proxy.get", params, &proxies); err != nil {
		return nil, err
	}
	return proxies, nil
}

// ProxyGroupGet lists all proxy groups. Only valid on Zabbix 7+.
func (c *Client) ProxyGroupGet(ctx context.Context) ([]ProxyGroup, error) {
	var groups []ProxyGroup
	params := map[string]any{"output": []string{"proxy_groupid", "name"}}
	if err := c.call(ctx, "proxygroup.get", params, &groups); err != nil {
		return nil, err
	}
	return groups, nil
}

// HostInterfaceUpdate applies a partial update to a host interface.
func (c *Client) HostInterfaceUpdate(ctx context.Context, params map[string]any) error {
	return c.call(ctx, "hostinterface.update", params, nil)
}

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	Method  string `json:"method"`
	Params  any    `json:"params"`
	ID      int64  `json:"id"`
	Auth    string `json:"auth,omitempty"`
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *APIError       `json:"error"`
}

// call performs one JSON-RPC round trip. API level errors are returned as
// *APIError so callers can distinguish them from transport failures.
func (c *Client) call(ctx context.Context, method string, params, result any) error {
	request := rpcRequest{
		JSONRPC: "2.0",
		Method:  method,
		Params:  params,
		ID:      c.reqID.Add(1),
	}
	// apiinfo.version and user.login reject an auth field
	if method != "apiinfo.version" && method != "user.login" {
		request.Auth = c.auth
	}

	payload, err := json.Marshal(request)
	if err != nil {
		return fmt.Errorf("failed to encode %s request: %w", method, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json-rpc")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("zabbix request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("zabbix returned %s: %s", resp.Status, strings.TrimSpace(string(detail)))
	}

	var rpcResp rpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&rpcResp); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", method, err)
	}
	if rpcResp.Error != nil {
		return rpcResp.Error
	}
	if result == nil {
		return nil
	}
	if err := json.Unmarshal(rpcResp.Result, result); err != nil {
		return fmt.Errorf("failed to decode %s result: %w", method, err)
	}
	return nil
}
