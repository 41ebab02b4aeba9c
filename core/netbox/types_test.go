package netbox

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testObject() *Object {
	return NewObject(map[string]any{
		"id":   float64(42),
		"name": "sw-01",
		"status": map[string]any{
			"value": "active",
			"label": "Active",
		},
		"primary_ip": map[string]any{
			"address": "192.0.2.1/24",
		},
		"site": map[string]any{
			"name": "AMS01",
			"region": map[string]any{
				"name": "Amsterdam",
			},
		},
		"custom_fields": map[string]any{
			"zabbix_hostid":   nil,
			"zabbix_template": "Template Net",
		},
		"config_context": map[string]any{
			"zabbix": map[string]any{
				"proxy": "proxy-ams",
			},
		},
		"tags": []any{
			map[string]any{"name": "Managed", "slug": "managed"},
		},
	})
}

func TestObjectScalars(t *testing.T) {
	obj := testObject()

	assert.Equal(t, int64(42), obj.ID())
	assert.Equal(t, "sw-01", obj.Name())
	assert.Equal(t, "Active", obj.StatusLabel())
	assert.Equal(t, "192.0.2.1/24", obj.PrimaryIP())
}

func TestLookupNilSafety(t *testing.T) {
	obj := testObject()

	_, ok := obj.Lookup("site", "region", "parent")
	assert.False(t, ok)

	_, ok = obj.Lookup("cluster", "name")
	assert.False(t, ok)

	v, ok := obj.Lookup("config_context", "zabbix", "proxy")
	require.True(t, ok)
	assert.Equal(t, "proxy-ams", v)
}

func TestNestedName(t *testing.T) {
	obj := testObject()

	assert.Equal(t, "Amsterdam", obj.NestedName("site", "region"))
	assert.Equal(t, "", obj.NestedName("site", "group"))
}

func TestCustomFieldDefinedButEmpty(t *testing.T) {
	obj := testObject()

	v, defined := obj.CustomField("zabbix_hostid")
	assert.True(t, defined)
	assert.Nil(t, v)

	v, defined = obj.CustomField("zabbix_template")
	assert.True(t, defined)
	assert.Equal(t, "Template Net", v)

	_, defined = obj.CustomField("unknown")
	assert.False(t, defined)
}

func TestTags(t *testing.T) {
	obj := testObject()

	tags := obj.Tags()
	require.Len(t, tags, 1)
	assert.Equal(t, "Managed", tags[0]["name"])

	assert.Nil(t, NewObject(nil).Tags())
}
