package zabbix

import (
	"bytes"
	"encoding/json"
)

// Macro value types as used by the usermacro API.
const (
	MacroTypeText   = "0"
	MacroTypeSecret = "1"
	MacroTypeVault  = "2"
)

// Interface types as used by the hostinterface API.
const (
	InterfaceTypeAgent = "1"
	InterfaceTypeSNMP  = "2"
	InterfaceTypeIPMI  = "3"
	InterfaceTypeJMX   = "4"
)

// monitored_by discriminator values for Zabbix 7+.
const (
	MonitoredByServer     = "0"
	MonitoredByProxy      = "1"
	MonitoredByProxyGroup = "2"
)

// StringMap is a map[string]string that tolerates the empty-array encoding
// the Zabbix API emits for empty objects.
type StringMap map[string]string

// UnmarshalJSON accepts both {} and [] encodings.
func (m *StringMap) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if bytes.Equal(trimmed, []byte("[]")) || bytes.Equal(trimmed, []byte("null")) {
		*m = StringMap{}
		return nil
	}
	var raw map[string]string
	if err := json.Unmarshal(trimmed, &raw); err != nil {
		return err
	}
	*m = raw
	return nil
}

// Host is a monitored host record as returned by host.get. All scalar values
// are strings, matching the wire format of the API.
type Host struct {
	HostID        string      `json:"hostid"`
	Host          string      `json:"host"`
	Name          string      `json:"name"`
	Status        string      `json:"status"`
	ProxyHostID   string      `json:"proxy_hostid,omitempty"`
	ProxyID       string      `json:"proxyid,omitempty"`
	ProxyGroupID  string      `json:"proxy_groupid,omitempty"`
	MonitoredBy   string      `json:"monitored_by,omitempty"`
	InventoryMode string      `json:"inventory_mode,omitempty"`
	Inventory     StringMap   `json:"inventory,omitempty"`
	Interfaces    []Interface `json:"interfaces,omitempty"`
	Groups        []Group     `json:"groups,omitempty"`
	HostGroups    []Group     `json:"hostgroups,omitempty"`
	Templates     []Template  `json:"parentTemplates,omitempty"`
	Macros        []Macro     `json:"macros,omitempty"`
	Tags          []Tag       `json:"tags,omitempty"`
}

// GroupRefs returns the host's group memberships regardless of which
// selector name the API generation used.
func (h *Host) GroupRefs() []Group {
	if len(h.HostGroups) > 0 {
		return h.HostGroups
	}
	return h.Groups
}

// Interface is a host interface record.
type Interface struct {
	InterfaceID string    `json:"interfaceid,omitempty"`
	Type        string    `json:"type"`
	Main        string    `json:"main"`
	UseIP       string    `json:"useip"`
	IP          string    `json:"ip"`
	DNS         string    `json:"dns"`
	Port        string    `json:"port"`
	Details     StringMap `json:"details,omitempty"`
}

// Group is a host group reference.
type Group struct {
	GroupID string `json:"groupid"`
	Name    string `json:"name,omitempty"`
}

// Template is a template reference.
type Template struct {
	TemplateID string `json:"templateid"`
	Name       string `json:"name,omitempty"`
}

// Macro is a host usermacro record.
type Macro struct {
	Macro       string `json:"macro"`
	Value       string `json:"value"`
	Type        string `json:"type"`
	Description string `json:"description"`
}

// Tag is a host tag record.
type Tag struct {
	Tag   string `json:"tag"`
	Value string `json:"value"`
}

// Proxy is an individual proxy record. Depending on the API generation the
// display name is carried in either the host or the name field.
type Proxy struct {
	ProxyID string `json:"proxyid"`
	Host    string `json:"host,omitempty"`
	Name    string `json:"name,omitempty"`
}

// ProxyGroup is a proxy group record (Zabbix 7+).
type ProxyGroup struct {
	ProxyGroupID string `json:"proxy_groupid"`
	Name         string `json:"name"`
}
