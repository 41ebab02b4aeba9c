package netbox

import (
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/TheNetworkGuy/netbox-zabbix-sync/core/utils"
)

// ContentTypeDevice and ContentTypeVM are the NetBox content types the sync
// operates on.
const (
	ContentTypeDevice = "dcim.device"
	ContentTypeVM     = "virtualization.virtualmachine"
)

// Client is a thin REST client for the NetBox API.
type Client struct {
	base   string
	token  string
	http   *http.Client
	logger *zap.Logger
}

// NewClient creates a NetBox API client from the configuration.
func NewClient(cfg Config, logger *zap.Logger) (*Client, error) {
	if cfg.Host == "" || cfg.Token == "" {
		return nil, fmt.Errorf("netbox host and token are required")
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

	return &Client{
		base:  strings.TrimRight(cfg.Host, "/"),
		token: cfg.Token,
		http: &http.Client{
			Timeout:   time.Duration(timeout) * time.Second,
			Transport: transport,
		},
		logger: logger,
	}, nil
}

// Version returns the NetBox version reported by the status endpoint.
func (c *Client) Version(ctx context.Context) (string, error) {
	var status struct {
		NetboxVersion string `json:"netbox-version"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/status/", nil, nil, &status); err != nil {
		return "", fmt.Errorf("failed to probe NetBox version: %w", err)
	}
	return status.NetboxVersion, nil
}

// Devices lists devices matching the given filter query.
func (c *Client) Devices(ctx context.Context, filter url.Values) ([]*Object, error) {
	return c.listObjects(ctx, "/api/dcim/devices/", filter)
}

// VirtualMachines lists virtual machines matching the given filter query.
func (c *Client) VirtualMachines(ctx context.Context, filter url.Values) ([]*Object, error) {
	return c.listObjects(ctx, "/api/virtualization/virtual-machines/", filter)
}

// Device fetches a single device by ID.
func (c *Client) Device(ctx context.Context, id int64) (*Object, error) {
	return c.getObject(ctx, fmt.Sprintf("/api/dcim/devices/%d/", id))
}

// VirtualMachine fetches a single virtual machine by ID.
func (c *Client) VirtualMachine(ctx context.Context, id int64) (*Object, error) {
	return c.getObject(ctx, fmt.Sprintf("/api/virtualization/virtual-machines/%d/", id))
}

// Sites lists all sites, keyed by ID. Device and VM records embed only a
// brief site object, so the full records are fetched once per run and
// spliced in for region and site-group resolution.
func (c *Client) Sites(ctx context.Context) (map[int64]*Object, error) {
	sites, err := c.listObjects(ctx, "/api/dcim/sites/", nil)
	if err != nil {
		return nil, err
	}
	out := make(map[int64]*Object, len(sites))
	for _, site := range sites {
		out[site.ID()] = site
	}
	return out, nil
}

// Regions lists all regions as tree nodes for nested hostgroup resolution.
func (c *Client) Regions(ctx context.Context) ([]TreeNode, error) {
	return c.listTree(ctx, "/api/dcim/regions/")
}

// SiteGroups lists all site groups as tree nodes.
func (c *Client) SiteGroups(ctx context.Context) ([]TreeNode, error) {
	return c.listTree(ctx, "/api/dcim/site-groups/")
}

// CustomFields lists the custom field definitions attached to the given
// content type, e.g. dcim.device.
func (c *Client) CustomFields(ctx context.Context, contentType string) ([]CustomFieldDef, error) {
	filter := url.Values{}
	filter.Set("content_types", contentType)
	records, err := c.listObjects(ctx, "/api/extras/custom-fields/", filter)
	if err != nil {
		return nil, err
	}
	out := make([]CustomFieldDef, 0, len(records))
	for _, rec := range records {
		def := CustomFieldDef{Name: rec.Name()}
		if v, ok := rec.Lookup("type", "value"); ok {
			def.Type = utils.ToString(v)
		}
		out = append(out, def)
	}
	return out, nil
}

// SetCustomField patches a single custom field on a device or VM. Passing a
// nil value clears the field (used to unlink a removed Zabbix host).
func (c *Client) SetCustomField(ctx context.Context, contentType string, id int64, field string, value any) error {
	var path string
	switch contentType {
	case ContentTypeDevice:
		path = fmt.Sprintf("/api/dcim/devices/%d/", id)
	case ContentTypeVM:
		path = fmt.Sprintf("/api/virtualization/virtual-machines/%d/", id)
	default:
		return fmt.Errorf("unsupported content type %q", contentType)
	}
	body := map[string]any{
		"custom_fields": map[string]any{field: value},
	}
	if err := c.do(ctx, http.MethodPatch, path, nil, body, nil); err != nil {
		return fmt.Errorf("failed to update custom field %s: %w", field, err)
	}
	return nil
}

// CreateJournalEntry appends an audit note to a device or VM. Kind must be
// one of info, success, warning or danger.
func (c *Client) CreateJournalEntry(ctx context.Context, contentType string, id int64, kind, comments string) error {
	switch kind {
	case "info", "success", "warning", "danger":
	default:
		return fmt.Errorf("invalid journal kind %q", kind)
	}
	body := map[string]any{
		"assigned_object_type": contentType,
		"assigned_object_id":   id,
		"kind":                 kind,
		"comments":             comments,
	}
	if err := c.do(ctx, http.MethodPost, "/api/extras/journal-entries/", nil, body, nil); err != nil {
		return fmt.Errorf("failed to create journal entry: %w", err)
	}
	return nil
}

// listObjects walks a paginated list endpoint and returns all results.
func (c *Client) listObjects(ctx context.Context, path string, filter url.Values) ([]*Object, error) {
	var out []*Object
	query := url.Values{}
	for k, vs := range filter {
		for _, v := range vs {
			query.Add(k, v)
		}
	}
	query.Set("limit", "500")

	next := path + "?" + query.Encode()
	for next != "" {
		var page struct {
			Next    *string          `json:"next"`
			Results []map[string]any `json:"results"`
		}
		if err := c.do(ctx, http.MethodGet, next, nil, nil, &page); err != nil {
			return nil, err
		}
		for _, rec := range page.Results {
			out = append(out, NewObject(rec))
		}
		next = ""
		if page.Next != nil {
			// The API returns an absolute URL for the next page.
			if u, err := url.Parse(*page.Next); err == nil {
				next = u.Path + "?" + u.RawQuery
			}
		}
	}
	return out, nil
}

func (c *Client) getObject(ctx context.Context, path string) (*Object, error) {
	var rec map[string]any
	if err := c.do(ctx, http.MethodGet, path, nil, nil, &rec); err != nil {
		return nil, err
	}
	return NewObject(rec), nil
}

func (c *Client) listTree(ctx context.Context, path string) ([]TreeNode, error) {
	records, err := c.listObjects(ctx, path, nil)
	if err != nil {
		return nil, err
	}
	out := make([]TreeNode, 0, len(records))
	for _, rec := range records {
		node := TreeNode{Name: rec.Name()}
		if v, ok := rec.Lookup("parent", "name"); ok {
			node.Parent = utils.ToString(v)
		}
		if v, ok := rec.Lookup("_depth"); ok {
			node.Depth = utils.ToInt(v)
		}
		out = append(out, node)
	}
	return out, nil
}

// do performs one API request. A non-2xx response is returned as an error
// with the NetBox error detail attached.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	u := c.base + path
	if query != nil {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Token "+c.token)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("netbox request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("netbox returned %s: %s", resp.Status, strings.TrimSpace(string(detail)))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode netbox response: %w", err)
	}
	return nil
}
