package zabbix

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCapabilities_LegacyGeneration(t *testing.T) {
	caps := NewCapabilities("6.0.32")

	assert.False(t, caps.SupportsProxyGroups())
	assert.Equal(t, "proxy_hostid", caps.ProxyIDField())
	assert.Equal(t, "host", caps.ProxyNameField())
	assert.Equal(t, "selectGroups", caps.GroupSelectField())
}

func TestCapabilities_ModernGeneration(t *testing.T) {
	caps := NewCapabilities("7.0.4")

	assert.True(t, caps.SupportsProxyGroups())
	assert.Equal(t, "proxyid", caps.ProxyIDField())
	assert.Equal(t, "name", caps.ProxyNameField())
	assert.Equal(t, "selectHostGroups", caps.GroupSelectField())
}

func TestCapabilities_UnparsableVersion(t *testing.T) {
	caps := NewCapabilities("")

	assert.False(t, caps.SupportsProxyGroups())
	assert.Equal(t, "proxy_hostid", caps.ProxyIDField())
}

func TestStringMap_EmptyArrayEncoding(t *testing.T) {
	// host.get encodes an empty inventory as [] instead of {}
	var m StringMap
	err := m.UnmarshalJSON([]byte("[]"))
	assert.NoError(t, err)
	assert.Empty(t, m)

	err = m.UnmarshalJSON([]byte(`{"version":"2"}`))
	assert.NoError(t, err)
	assert.Equal(t, "2", m["version"])
}

func TestRedactHostParams_SecretMacros(t *testing.T) {
	params := map[string]any{
		"hostid": "10105",
		"macros": []Macro{
			{Macro: "{$PLAIN}", Value: "visible", Type: MacroTypeText},
			{Macro: "{$SECRET}", Value: "hunter2", Type: MacroTypeSecret},
		},
	}

	out := RedactHostParams(params)

	macros := out["macros"].([]Macro)
	assert.Equal(t, "visible", macros[0].Value)
	assert.Equal(t, "********", macros[1].Value)
	// original payload untouched
	assert.Equal(t, "hunter2", params["macros"].([]Macro)[1].Value)
}

func TestRedactHostParams_InterfaceDetails(t *testing.T) {
	params := map[string]any{
		"host": "sw-01",
		"interfaces": []Interface{{
			Type:  InterfaceTypeSNMP,
			Main:  "1",
			UseIP: "1",
			IP:    "192.0.2.1",
			Port:  "161",
			Details: StringMap{
				"version":        "3",
				"securityname":   "snmp-admin",
				"authpassphrase": "super-secret-pass",
				"bulk":           "1",
			},
		}},
	}

	out := RedactHostParams(params)

	ifaces := out["interfaces"].([]Interface)
	assert.Equal(t, "********", ifaces[0].Details["authpassphrase"])
	assert.Equal(t, "********", ifaces[0].Details["securityname"])
	assert.Equal(t, "3", ifaces[0].Details["version"])
	assert.Equal(t, "1", ifaces[0].Details["bulk"])
	// original payload untouched
	original := params["interfaces"].([]Interface)
	assert.Equal(t, "super-secret-pass", original[0].Details["authpassphrase"])
}

func TestRedactHostParams_DetailsKey(t *testing.T) {
	params := map[string]any{
		"interfaceid": "77",
		"details":     map[string]string{"community": "private-string", "version": "2"},
	}

	out := RedactHostParams(params)

	details := out["details"].(map[string]string)
	assert.Equal(t, "********", details["community"])
	assert.Equal(t, "2", details["version"])
	assert.NotContains(t, out, "interfaceid")
}

func TestRedactInterfaceDetails(t *testing.T) {
	details := map[string]string{
		"version":        "2",
		"community":      "private-string",
		"authpassphrase": "{$SNMP_AUTH}",
	}

	out := RedactInterfaceDetails(details)

	assert.Equal(t, "2", out["version"])
	assert.Equal(t, "********", out["community"])
	// macro references are not sensitive
	assert.Equal(t, "{$SNMP_AUTH}", out["authpassphrase"])
}
