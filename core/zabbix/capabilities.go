package zabbix

import (
	"strconv"
	"strings"
)

// Capabilities captures the API generation dependent behavior of a Zabbix
// server. It is resolved once at startup from the version probe so the
// version conditionals do not leak into the reconciliation logic.
type Capabilities struct {
	version string
	major   int
}

// NewCapabilities parses a version string like "7.0.4" into a capability set.
func NewCapabilities(version string) Capabilities {
	major := 0
	if idx := strings.IndexByte(version, '.'); idx > 0 {
		major, _ = strconv.Atoi(version[:idx])
	} else if version != "" {
		major, _ = strconv.Atoi(version)
	}
	return Capabilities{version: version, major: major}
}

// Version returns the raw version string.
func (c Capabilities) Version() string {
	return c.version
}

// SupportsProxyGroups reports whether the proxy group API exists (7+).
func (c Capabilities) SupportsProxyGroups() bool {
	return c.major >= 7
}

// ProxyIDField returns the host field that carries the proxy assignment:
// the legacy single field on 6 and below, the modern proxy field on 7+.
func (c Capabilities) ProxyIDField() string {
	if c.major >= 7 {
		return "proxyid"
	}
	return "proxy_hostid"
}

// ProxyNameField returns the proxy.get output field holding the display
// name, which was renamed between generations.
func (c Capabilities) ProxyNameField() string {
	if c.major >= 7 {
		return "name"
	}
	return "host"
}

// GroupSelectField returns the host.get selector for group membership.
func (c Capabilities) GroupSelectField() string {
	if c.major >= 7 {
		return "selectHostGroups"
	}
	return "selectGroups"
}
