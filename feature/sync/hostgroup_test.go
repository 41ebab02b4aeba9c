package sync

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/TheNetworkGuy/netbox-zabbix-sync/core/netbox"
)

func testDevice() *netbox.Object {
	return netbox.NewObject(map[string]any{
		"id":   float64(42),
		"name": "sw-core-01",
		"site": map[string]any{
			"name":   "AMS01",
			"region": map[string]any{"name": "Amsterdam"},
			"group":  map[string]any{"name": "EU-West"},
		},
		"role": map[string]any{"name": "Switch"},
		"device_type": map[string]any{
			"model":        "EX4300",
			"manufacturer": map[string]any{"name": "Juniper"},
		},
		"tenant":        map[string]any{"name": "ACME", "group": map[string]any{"name": "Customers"}},
		"custom_fields": map[string]any{"environment": "production", "unset_cf": nil},
	})
}

func TestHostgroupGenerate(t *testing.T) {
	hg, err := NewHostgroup(KindDevice, testDevice(), nil, NestingOptions{}, zap.NewNop())
	require.NoError(t, err)

	path, err := hg.Generate("site/manufacturer/role")
	require.NoError(t, err)
	assert.Equal(t, "AMS01/Juniper/Switch", path)
}

func TestHostgroupGenerateDropsEmptySegments(t *testing.T) {
	hg, err := NewHostgroup(KindDevice, testDevice(), nil, NestingOptions{}, zap.NewNop())
	require.NoError(t, err)

	// No location on the object, segment silently drops.
	path, err := hg.Generate("site/location/role")
	require.NoError(t, err)
	assert.Equal(t, "AMS01/Switch", path)
}

func TestHostgroupGenerateAllEmpty(t *testing.T) {
	obj := netbox.NewObject(map[string]any{"id": float64(1), "name": "bare"})
	hg, err := NewHostgroup(KindDevice, obj, nil, NestingOptions{}, zap.NewNop())
	require.NoError(t, err)

	path, err := hg.Generate("site/location")
	require.NoError(t, err)
	assert.Empty(t, path)
}

func TestHostgroupQuotedLiteral(t *testing.T) {
	hg, err := NewHostgroup(KindDevice, testDevice(), nil, NestingOptions{}, zap.NewNop())
	require.NoError(t, err)

	path, err := hg.Generate("'Managed by NetBox'/site")
	require.NoError(t, err)
	assert.Equal(t, "Managed by NetBox/AMS01", path)
}

func TestHostgroupCustomField(t *testing.T) {
	fields := map[string]netbox.CustomFieldDef{
		"environment": {Name: "environment", Type: "text"},
		"unset_cf":    {Name: "unset_cf", Type: "text"},
	}
	hg, err := NewHostgroup(KindDevice, testDevice(), fields, NestingOptions{}, zap.NewNop())
	require.NoError(t, err)

	path, err := hg.Generate("environment/role")
	require.NoError(t, err)
	assert.Equal(t, "production/Switch", path)

	// Defined but unset custom fields drop out without error.
	path, err = hg.Generate("unset_cf/role")
	require.NoError(t, err)
	assert.Equal(t, "Switch", path)
}

func TestHostgroupUnknownToken(t *testing.T) {
	hg, err := NewHostgroup(KindDevice, testDevice(), nil, NestingOptions{}, zap.NewNop())
	require.NoError(t, err)

	_, err = hg.Generate("site/bogus")
	require.Error(t, err)
	var confErr *ConfigurationError
	assert.ErrorAs(t, err, &confErr)
}

func TestHostgroupVMOptions(t *testing.T) {
	vm := netbox.NewObject(map[string]any{
		"id":   float64(7),
		"name": "vm-web-01",
		"cluster": map[string]any{
			"name": "prod-cluster",
			"type": map[string]any{"name": "VMware"},
		},
		"role": map[string]any{"name": "Webserver"},
	})
	hg, err := NewHostgroup(KindVM, vm, nil, NestingOptions{}, zap.NewNop())
	require.NoError(t, err)

	path, err := hg.Generate("cluster_type/cluster/role")
	require.NoError(t, err)
	assert.Equal(t, "VMware/prod-cluster/Webserver", path)

	// Device-only options are not valid for VMs.
	_, err = hg.Generate("manufacturer")
	assert.Error(t, err)
}

func TestHostgroupNestedRegions(t *testing.T) {
	nodes := []netbox.TreeNode{
		{Name: "Europe", Parent: "", Depth: 0},
		{Name: "Netherlands", Parent: "Europe", Depth: 1},
		{Name: "Amsterdam", Parent: "Netherlands", Depth: 2},
	}
	nesting := NestingOptions{Regions: true, RegionNodes: nodes}
	hg, err := NewHostgroup(KindDevice, testDevice(), nil, nesting, zap.NewNop())
	require.NoError(t, err)

	path, err := hg.Generate("region/site")
	require.NoError(t, err)
	assert.Equal(t, "Europe/Netherlands/Amsterdam/AMS01", path)
}

func TestHostgroupGenerateAllDedupes(t *testing.T) {
	hg, err := NewHostgroup(KindDevice, testDevice(), nil, NestingOptions{}, zap.NewNop())
	require.NoError(t, err)

	groups, err := hg.GenerateAll([]string{"site/role", "site/role", "tenant"})
	require.NoError(t, err)
	assert.Equal(t, []string{"AMS01/Switch", "ACME"}, groups)
}

func TestBuildPath(t *testing.T) {
	nodes := []netbox.TreeNode{
		{Name: "Europe", Parent: ""},
		{Name: "Netherlands", Parent: "Europe"},
		{Name: "Amsterdam", Parent: "Netherlands"},
	}
	assert.Equal(t, []string{"Europe", "Netherlands", "Amsterdam"}, BuildPath("Amsterdam", nodes))
	assert.Equal(t, []string{"Europe"}, BuildPath("Europe", nodes))
	// Unknown endpoint still yields itself.
	assert.Equal(t, []string{"Mars"}, BuildPath("Mars", nodes))
}

func TestBuildPathBrokenChain(t *testing.T) {
	nodes := []netbox.TreeNode{
		{Name: "Amsterdam", Parent: "Netherlands"},
	}
	// Parent exists by name only, the chain truncates there.
	assert.Equal(t, []string{"Netherlands", "Amsterdam"}, BuildPath("Amsterdam", nodes))
}

func TestVerifyFormat(t *testing.T) {
	fields := map[string]netbox.CustomFieldDef{"environment": {Name: "environment", Type: "text"}}

	assert.NoError(t, VerifyFormat([]string{"site/manufacturer/role"}, KindDevice, fields))
	assert.NoError(t, VerifyFormat([]string{"'Static'/environment"}, KindDevice, fields))
	assert.Error(t, VerifyFormat([]string{"site/nonsense"}, KindDevice, fields))
	assert.Error(t, VerifyFormat([]string{"manufacturer"}, KindVM, fields))
}
