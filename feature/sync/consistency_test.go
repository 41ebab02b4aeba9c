package sync

import (
	"context"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/TheNetworkGuy/netbox-zabbix-sync/core/netbox"
	"github.com/TheNetworkGuy/netbox-zabbix-sync/core/zabbix"
)

type fakeAPI struct {
	hosts         []zabbix.Host
	hostGetErr    error
	groups        []zabbix.Group
	templates     []zabbix.Template
	proxies       []zabbix.Proxy
	proxyGroups   []zabbix.ProxyGroup
	updates       []map[string]any
	ifaceUpdates  []map[string]any
	createdGroups []string
	deleted       []string
	nextGroupID   int
}

func (f *fakeAPI) HostGet(_ context.Context, _ map[string]any) ([]zabbix.Host, error) {
	return f.hosts, f.hostGetErr
}

func (f *fakeAPI) HostCreate(_ context.Context, _ map[string]any) (string, error) {
	return "999", nil
}

func (f *fakeAPI) HostUpdate(_ context.Context, params map[string]any) error {
	f.updates = append(f.updates, params)
	return nil
}

func (f *fakeAPI) HostDelete(_ context.Context, hostID string) error {
	f.deleted = append(f.deleted, hostID)
	return nil
}

func (f *fakeAPI) HostgroupGet(_ context.Context) ([]zabbix.Group, error) { return f.groups, nil }

func (f *fakeAPI) HostgroupCreate(_ context.Context, name string) (string, error) {
	f.nextGroupID++
	f.createdGroups = append(f.createdGroups, name)
	return strconv.Itoa(100 + f.nextGroupID), nil
}

func (f *fakeAPI) TemplateGet(_ context.Context) ([]zabbix.Template, error) {
	return f.templates, nil
}

func (f *fakeAPI) ProxyGet(_ context.Context, _ string) ([]zabbix.Proxy, error) {
	return f.proxies, nil
}

func (f *fakeAPI) ProxyGroupGet(_ context.Context) ([]zabbix.ProxyGroup, error) {
	return f.proxyGroups, nil
}

func (f *fakeAPI) HostInterfaceUpdate(_ context.Context, params map[string]any) error {
	f.ifaceUpdates = append(f.ifaceUpdates, params)
	return nil
}

func syncedHost() zabbix.Host {
	return zabbix.Host{
		HostID: "5",
		Host:   "sw-01",
		Name:   "sw-01",
		Status: StateEnabled,
		Groups: []zabbix.Group{{GroupID: "10"}},
		Templates: []zabbix.Template{
			{TemplateID: "20", Name: "Template Net"},
		},
		Interfaces: []zabbix.Interface{{
			InterfaceID: "77",
			Type:        zabbix.InterfaceTypeSNMP,
			Main:        "1",
			UseIP:       "1",
			IP:          "192.0.2.1",
			Port:        "161",
			Details: zabbix.StringMap{
				"version":   "2",
				"community": "{$SNMP_COMMUNITY}",
				"bulk":      "1",
			},
		}},
	}
}

func syncedEntity() *Entity {
	return &Entity{
		ID:            42,
		Kind:          KindDevice,
		Name:          "sw-01",
		IP:            "192.0.2.1",
		State:         StateEnabled,
		HostID:        "5",
		Groups:        []string{"AMS01/Switch"},
		TemplateNames: []string{"Template Net"},
		Interface: zabbix.Interface{
			Type:  zabbix.InterfaceTypeSNMP,
			Main:  "1",
			UseIP: "1",
			IP:    "192.0.2.1",
			Port:  "161",
			Details: zabbix.StringMap{
				"version":   "2",
				"community": "{$SNMP_COMMUNITY}",
				"bulk":      "1",
			},
		},
		logger: zap.NewNop(),
	}
}

func newTestChecker(api *fakeAPI, cfg *Config, version string) *Checker {
	if cfg == nil {
		cfg = &Config{CreateHostgroups: true}
	}
	cfg.Normalize()
	cache := NewGroupCache([]zabbix.Group{{GroupID: "10", Name: "AMS01/Switch"}})
	templates := map[string]string{"Template Net": "20", "Template OS": "21"}
	return NewChecker(api, zabbix.NewCapabilities(version), cfg, cache, templates, zap.NewNop())
}

func TestCheckerIdempotent(t *testing.T) {
	api := &fakeAPI{hosts: []zabbix.Host{syncedHost()}}
	checker := newTestChecker(api, nil, "7.0.4")

	changes, err := checker.Run(context.Background(), syncedEntity())

	require.NoError(t, err)
	assert.Empty(t, changes)
	assert.Empty(t, api.updates)
	assert.Empty(t, api.ifaceUpdates)
}

func TestCheckerIdentityDrift(t *testing.T) {
	host := syncedHost()
	host.Host = "old-name"
	host.Status = StateDisabled
	api := &fakeAPI{hosts: []zabbix.Host{host}}
	checker := newTestChecker(api, nil, "7.0.4")

	changes, err := checker.Run(context.Background(), syncedEntity())

	require.NoError(t, err)
	assert.Equal(t, []string{"hostname", "status"}, changes)
	require.Len(t, api.updates, 2)
	assert.Equal(t, "sw-01", api.updates[0]["host"])
	assert.Equal(t, StateEnabled, api.updates[1]["status"])
}

func TestCheckerTemplateReplace(t *testing.T) {
	host := syncedHost()
	host.Templates = []zabbix.Template{{TemplateID: "30", Name: "Stale"}}
	api := &fakeAPI{hosts: []zabbix.Host{host}}
	checker := newTestChecker(api, nil, "7.0.4")

	entity := syncedEntity()
	entity.TemplateNames = []string{"Template Net", "Template OS"}

	changes, err := checker.Run(context.Background(), entity)

	require.NoError(t, err)
	assert.Contains(t, changes, "templates")
	require.Len(t, api.updates, 1)
	// Stale assignments are cleared and the desired set applied in one call.
	assert.Equal(t, []map[string]string{{"templateid": "30"}}, api.updates[0]["templates_clear"])
	assert.Equal(t, []map[string]string{{"templateid": "20"}, {"templateid": "21"}}, api.updates[0]["templates"])
}

func TestCheckerGroupReplaceAndCreation(t *testing.T) {
	api := &fakeAPI{hosts: []zabbix.Host{syncedHost()}}
	checker := newTestChecker(api, nil, "7.0.4")

	entity := syncedEntity()
	entity.Groups = []string{"AMS01/Switch", "Tenants/ACME"}

	changes, err := checker.Run(context.Background(), entity)

	require.NoError(t, err)
	assert.Contains(t, changes, "hostgroups")
	assert.Equal(t, []string{"Tenants/ACME"}, api.createdGroups)
	require.Len(t, api.updates, 1)
	assert.Equal(t, []zabbix.Group{{GroupID: "10"}, {GroupID: "101"}}, api.updates[0]["groups"])
}

func TestCheckerGroupCreationDisabled(t *testing.T) {
	api := &fakeAPI{hosts: []zabbix.Host{syncedHost()}}
	checker := newTestChecker(api, &Config{CreateHostgroups: false}, "7.0.4")

	entity := syncedEntity()
	entity.Groups = []string{"Tenants/ACME"}

	_, err := checker.Run(context.Background(), entity)

	var precondition *PreconditionError
	require.ErrorAs(t, err, &precondition)
	assert.Empty(t, api.createdGroups)
}

func TestCheckerHostCountPreconditions(t *testing.T) {
	checker := newTestChecker(&fakeAPI{hosts: nil}, nil, "7.0.4")
	_, err := checker.Run(context.Background(), syncedEntity())
	var precondition *PreconditionError
	require.ErrorAs(t, err, &precondition)

	checker = newTestChecker(&fakeAPI{hosts: []zabbix.Host{syncedHost(), syncedHost()}}, nil, "7.0.4")
	_, err = checker.Run(context.Background(), syncedEntity())
	require.ErrorAs(t, err, &precondition)
}

func TestCheckerProxyAssignment(t *testing.T) {
	api := &fakeAPI{hosts: []zabbix.Host{syncedHost()}}
	checker := newTestChecker(api, nil, "7.0.4")

	entity := syncedEntity()
	entity.Proxy = &ProxyDescriptor{
		Name:        "ha-group",
		ID:          "3",
		IDField:     "proxy_groupid",
		Kind:        ProxyKindGroup,
		MonitoredBy: zabbix.MonitoredByProxyGroup,
	}

	changes, err := checker.Run(context.Background(), entity)

	require.NoError(t, err)
	assert.Contains(t, changes, "proxy")
	require.Len(t, api.updates, 1)
	assert.Equal(t, "3", api.updates[0]["proxy_groupid"])
	assert.Equal(t, zabbix.MonitoredByProxyGroup, api.updates[0]["monitored_by"])
}

func TestCheckerProxyRemovalNeedsFullSync(t *testing.T) {
	host := syncedHost()
	host.ProxyID = "9"
	host.MonitoredBy = zabbix.MonitoredByProxy
	api := &fakeAPI{hosts: []zabbix.Host{host}}
	checker := newTestChecker(api, nil, "7.0.4")

	// Without full proxy sync the stray proxy stays untouched.
	changes, err := checker.Run(context.Background(), syncedEntity())
	require.NoError(t, err)
	assert.Empty(t, changes)

	api = &fakeAPI{hosts: []zabbix.Host{host}}
	checker = newTestChecker(api, &Config{CreateHostgroups: true, FullProxySync: true}, "7.0.4")
	changes, err = checker.Run(context.Background(), syncedEntity())
	require.NoError(t, err)
	assert.Contains(t, changes, "proxy removal")
	require.Len(t, api.updates, 1)
	assert.Equal(t, "0", api.updates[0]["proxyid"])
	assert.Equal(t, zabbix.MonitoredByServer, api.updates[0]["monitored_by"])
}

func TestCheckerSecretMacrosExcluded(t *testing.T) {
	host := syncedHost()
	host.Macros = []zabbix.Macro{
		// Zabbix never returns secret values on read.
		{Macro: "{$SECRET}", Value: "", Type: zabbix.MacroTypeSecret},
		{Macro: "{$PLAIN}", Value: "abc", Type: zabbix.MacroTypeText},
	}
	api := &fakeAPI{hosts: []zabbix.Host{host}}
	checker := newTestChecker(api, &Config{CreateHostgroups: true, UsermacroSync: MacroSyncOn}, "7.0.4")

	entity := syncedEntity()
	entity.Macros = []zabbix.Macro{
		{Macro: "{$PLAIN}", Value: "abc", Type: zabbix.MacroTypeText},
		{Macro: "{$SECRET}", Value: "hidden", Type: zabbix.MacroTypeSecret},
	}

	changes, err := checker.Run(context.Background(), entity)
	require.NoError(t, err)
	assert.Empty(t, changes)

	// Full macro sync compares the secret value and corrects it.
	api = &fakeAPI{hosts: []zabbix.Host{host}}
	checker = newTestChecker(api, &Config{CreateHostgroups: true, UsermacroSync: MacroSyncFull}, "7.0.4")
	changes, err = checker.Run(context.Background(), entity)
	require.NoError(t, err)
	assert.Contains(t, changes, "usermacros")
}

func TestCheckerTagDrift(t *testing.T) {
	host := syncedHost()
	host.Tags = []zabbix.Tag{{Tag: "site", Value: "old"}}
	api := &fakeAPI{hosts: []zabbix.Host{host}}
	checker := newTestChecker(api, &Config{CreateHostgroups: true, TagSync: true}, "7.0.4")

	entity := syncedEntity()
	entity.Tags = []zabbix.Tag{{Tag: "site", Value: "ams01"}}

	changes, err := checker.Run(context.Background(), entity)
	require.NoError(t, err)
	assert.Contains(t, changes, "tags")
}

func TestCheckerInventory(t *testing.T) {
	host := syncedHost()
	host.InventoryMode = "-1"
	host.Inventory = zabbix.StringMap{}
	api := &fakeAPI{hosts: []zabbix.Host{host}}
	cfg := &Config{CreateHostgroups: true, InventorySync: true, InventoryMode: InventoryModeManual}
	checker := newTestChecker(api, cfg, "7.0.4")

	entity := syncedEntity()
	entity.InventoryMode = "0"
	entity.Inventory = map[string]string{"serialno_a": "ABC123"}

	changes, err := checker.Run(context.Background(), entity)
	require.NoError(t, err)
	// Mode must be corrected before values are written.
	assert.Equal(t, []string{"inventory mode", "inventory"}, changes)
	require.Len(t, api.updates, 2)
	assert.Equal(t, "0", api.updates[0]["inventory_mode"])
}

func TestCheckerInventoryClearedFieldSettles(t *testing.T) {
	host := syncedHost()
	host.InventoryMode = "0"
	host.Inventory = zabbix.StringMap{"serialno_a": "ABC123", "location": ""}
	api := &fakeAPI{hosts: []zabbix.Host{host}}
	cfg := &Config{CreateHostgroups: true, InventorySync: true, InventoryMode: InventoryModeManual}
	checker := newTestChecker(api, cfg, "7.0.4")

	// A mapping that points at a nested object resolves to no scalar value;
	// the field must compare equal to the empty remote value instead of
	// triggering an update on every run.
	obj := netbox.NewObject(map[string]any{
		"serial": "ABC123",
		"site":   map[string]any{"name": "AMS01"},
	})
	entity := syncedEntity()
	entity.InventoryMode = "0"
	entity.Inventory = MapFields(obj, map[string]string{
		"serial": "serialno_a",
		"site":   "location",
	}, entity.Name, zap.NewNop())

	changes, err := checker.Run(context.Background(), entity)
	require.NoError(t, err)
	assert.Empty(t, changes)
	assert.Empty(t, api.updates)
}

func TestCheckerSNMPVersionCascade(t *testing.T) {
	api := &fakeAPI{hosts: []zabbix.Host{syncedHost()}}
	checker := newTestChecker(api, nil, "7.0.4")

	entity := syncedEntity()
	entity.Interface.Details = zabbix.StringMap{
		"version":      "3",
		"bulk":         "1",
		"securityname": "monitor",
	}

	changes, err := checker.Run(context.Background(), entity)

	require.NoError(t, err)
	assert.Contains(t, changes, "interface")
	require.Len(t, api.ifaceUpdates, 1)
	details := api.ifaceUpdates[0]["details"].(map[string]string)
	// The version switch forces every desired detail into the update, even
	// ones whose value did not change.
	assert.Equal(t, map[string]string{
		"version":      "3",
		"bulk":         "1",
		"securityname": "monitor",
	}, details)
	assert.Equal(t, "77", api.ifaceUpdates[0]["interfaceid"])
}

func TestCheckerInterfaceTypeChangeFatal(t *testing.T) {
	api := &fakeAPI{hosts: []zabbix.Host{syncedHost()}}
	checker := newTestChecker(api, nil, "7.0.4")

	entity := syncedEntity()
	entity.Interface.Type = zabbix.InterfaceTypeAgent
	entity.Interface.Port = "10050"
	entity.Interface.Details = nil

	_, err := checker.Run(context.Background(), entity)

	var confErr *ConfigurationError
	require.ErrorAs(t, err, &confErr)
	assert.Empty(t, api.ifaceUpdates)
}

func TestCheckerMultipleInterfacesFatal(t *testing.T) {
	host := syncedHost()
	host.Interfaces = append(host.Interfaces, zabbix.Interface{InterfaceID: "78", Type: "1"})
	api := &fakeAPI{hosts: []zabbix.Host{host}}
	checker := newTestChecker(api, nil, "7.0.4")

	_, err := checker.Run(context.Background(), syncedEntity())

	var precondition *PreconditionError
	require.ErrorAs(t, err, &precondition)
	assert.Empty(t, api.ifaceUpdates)
}

func TestCheckerCreate(t *testing.T) {
	api := &fakeAPI{}
	checker := newTestChecker(api, nil, "7.0.4")

	hostID, err := checker.Create(context.Background(), syncedEntity())

	require.NoError(t, err)
	assert.Equal(t, "999", hostID)
}

func TestCheckerUnknownTemplate(t *testing.T) {
	api := &fakeAPI{hosts: []zabbix.Host{syncedHost()}}
	checker := newTestChecker(api, nil, "7.0.4")

	entity := syncedEntity()
	entity.TemplateNames = []string{"Missing Template"}

	_, err := checker.Run(context.Background(), entity)

	var precondition *PreconditionError
	require.ErrorAs(t, err, &precondition)
}
