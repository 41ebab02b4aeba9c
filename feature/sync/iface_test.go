package sync

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TheNetworkGuy/netbox-zabbix-sync/core/zabbix"
)

func TestResolveInterfaceDefault(t *testing.T) {
	iface, err := ResolveInterface(nil, "192.0.2.1")
	require.NoError(t, err)

	assert.Equal(t, zabbix.InterfaceTypeSNMP, iface.Type)
	assert.Equal(t, "1", iface.Main)
	assert.Equal(t, "1", iface.UseIP)
	assert.Equal(t, "192.0.2.1", iface.IP)
	assert.Equal(t, "161", iface.Port)
	assert.Equal(t, zabbix.StringMap{
		"version":   "2",
		"community": "{$SNMP_COMMUNITY}",
		"bulk":      "1",
	}, iface.Details)
}

func TestResolveInterfaceAgent(t *testing.T) {
	context := map[string]any{
		"zabbix": map[string]any{"interface_type": float64(1)},
	}
	iface, err := ResolveInterface(context, "192.0.2.1")
	require.NoError(t, err)

	assert.Equal(t, zabbix.InterfaceTypeAgent, iface.Type)
	assert.Equal(t, "10050", iface.Port)
	assert.Nil(t, iface.Details)
}

func TestResolveInterfaceExplicitPort(t *testing.T) {
	context := map[string]any{
		"zabbix": map[string]any{
			"interface_type": float64(1),
			"interface_port": float64(1650),
		},
	}
	iface, err := ResolveInterface(context, "192.0.2.1")
	require.NoError(t, err)
	assert.Equal(t, "1650", iface.Port)
}

func TestResolveInterfaceSNMPv2Community(t *testing.T) {
	context := map[string]any{
		"zabbix": map[string]any{
			"interface_type": float64(2),
			"snmp": map[string]any{
				"version":   float64(2),
				"community": "my-community",
				"bulk":      float64(0),
			},
		},
	}
	iface, err := ResolveInterface(context, "192.0.2.1")
	require.NoError(t, err)

	assert.Equal(t, zabbix.StringMap{
		"version":   "2",
		"community": "my-community",
		"bulk":      "0",
	}, iface.Details)
}

func TestResolveInterfaceSNMPv3(t *testing.T) {
	context := map[string]any{
		"zabbix": map[string]any{
			"interface_type": float64(2),
			"snmp": map[string]any{
				"version":        float64(3),
				"securityname":   "monitor",
				"securitylevel":  "authPriv",
				"authpassphrase": "authpass",
				"privpassphrase": "privpass",
				"authprotocol":   "sha512",
				"privprotocol":   "aes256",
				"ignored_key":    "dropped",
			},
		},
	}
	iface, err := ResolveInterface(context, "192.0.2.1")
	require.NoError(t, err)

	assert.Equal(t, "3", iface.Details["version"])
	assert.Equal(t, "monitor", iface.Details["securityname"])
	assert.Equal(t, "aes256", iface.Details["privprotocol"])
	assert.NotContains(t, iface.Details, "ignored_key")
	assert.NotContains(t, iface.Details, "community")
}

func TestResolveInterfaceSNMPErrors(t *testing.T) {
	// SNMP type without an snmp section.
	_, err := ResolveInterface(map[string]any{
		"zabbix": map[string]any{"interface_type": float64(2)},
	}, "192.0.2.1")
	assert.Error(t, err)

	// Missing version.
	_, err = ResolveInterface(map[string]any{
		"zabbix": map[string]any{
			"interface_type": float64(2),
			"snmp":           map[string]any{"community": "public"},
		},
	}, "192.0.2.1")
	assert.Error(t, err)

	// Unsupported version.
	_, err = ResolveInterface(map[string]any{
		"zabbix": map[string]any{
			"interface_type": float64(2),
			"snmp":           map[string]any{"version": float64(4)},
		},
	}, "192.0.2.1")
	assert.Error(t, err)
}
