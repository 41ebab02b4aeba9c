package sync

import (
	"go.uber.org/zap"

	"github.com/TheNetworkGuy/netbox-zabbix-sync/core/netbox"
	"github.com/TheNetworkGuy/netbox-zabbix-sync/core/utils"
	"github.com/TheNetworkGuy/netbox-zabbix-sync/core/zabbix"
)

// Proxy descriptor kinds, matching the config context keys that name them.
const (
	ProxyKindProxy = "proxy"
	ProxyKindGroup = "proxy_group"
)

// ProxyDescriptor is the normalized form of an individual proxy or a proxy
// group. IDField names the host property the ID must be written to, which
// differs per kind and per API generation.
type ProxyDescriptor struct {
	Name        string
	ID          string
	IDField     string
	Kind        string
	MonitoredBy string
}

// PrepareProxies flattens the two proxy collections into one descriptor
// list. On API generations without proxy group support the groups list is
// expected to be empty.
func PrepareProxies(proxies []zabbix.Proxy, groups []zabbix.ProxyGroup, caps zabbix.Capabilities) []ProxyDescriptor {
	descriptors := make([]ProxyDescriptor, 0, len(proxies)+len(groups))
	for _, proxy := range proxies {
		name := proxy.Name
		if caps.ProxyNameField() == "host" {
			name = proxy.Host
		}
		descriptors = append(descriptors, ProxyDescriptor{
			Name:        name,
			ID:          proxy.ProxyID,
			IDField:     caps.ProxyIDField(),
			Kind:        ProxyKindProxy,
			MonitoredBy: zabbix.MonitoredByProxy,
		})
	}
	for _, group := range groups {
		descriptors = append(descriptors, ProxyDescriptor{
			Name:        group.Name,
			ID:          group.ProxyGroupID,
			IDField:     "proxy_groupid",
			Kind:        ProxyKindGroup,
			MonitoredBy: zabbix.MonitoredByProxyGroup,
		})
	}
	return descriptors
}

// ResolveProxy picks the proxy or proxy group named in the object's config
// context. A proxy group takes priority over a proxy on API generations
// that support groups, since groups are HA. An explicitly empty value
// disables proxy assignment; a nil return with explicit false means no
// override was present at all.
func ResolveProxy(obj *netbox.Object, candidates []ProxyDescriptor, caps zabbix.Capabilities, host string, logger *zap.Logger) (desc *ProxyDescriptor, explicit bool) {
	context := obj.ConfigContext()
	section, ok := context["zabbix"].(map[string]any)
	if !ok {
		return nil, false
	}

	kinds := []string{ProxyKindProxy}
	if caps.SupportsProxyGroups() {
		kinds = []string{ProxyKindGroup, ProxyKindProxy}
	}
	for _, kind := range kinds {
		raw, present := section[kind]
		if !present {
			continue
		}
		name := utils.ToString(raw)
		if name == "" {
			// Explicitly cleared: the entity must not use a proxy.
			return nil, true
		}
		for i := range candidates {
			if candidates[i].Kind == kind && candidates[i].Name == name {
				logger.Debug("resolved monitoring proxy",
					zap.String("host", host),
					zap.String("kind", kind),
					zap.String("proxy", name))
				return &candidates[i], true
			}
		}
		logger.Warn("unable to find configured proxy",
			zap.String("host", host),
			zap.String("kind", kind),
			zap.String("proxy", name))
	}
	return nil, false
}
