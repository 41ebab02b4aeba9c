package sync

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/TheNetworkGuy/netbox-zabbix-sync/core/zabbix"
)

// TargetAPI is the slice of the Zabbix client the reconciliation logic
// consumes. It exists so the checker can be tested against a fake.
type TargetAPI interface {
	HostGet(ctx context.Context, params map[string]any) ([]zabbix.Host, error)
	HostCreate(ctx context.Context, params map[string]any) (string, error)
	HostUpdate(ctx context.Context, params map[string]any) error
	HostDelete(ctx context.Context, hostID string) error
	HostgroupGet(ctx context.Context) ([]zabbix.Group, error)
	HostgroupCreate(ctx context.Context, name string) (string, error)
	TemplateGet(ctx context.Context) ([]zabbix.Template, error)
	ProxyGet(ctx context.Context, nameField string) ([]zabbix.Proxy, error)
	ProxyGroupGet(ctx context.Context) ([]zabbix.ProxyGroup, error)
	HostInterfaceUpdate(ctx context.Context, params map[string]any) error
}

// GroupCache is the shared hostgroup name to ID map for one run. Entities
// are reconciled concurrently, so access is synchronized.
type GroupCache struct {
	mu     sync.Mutex
	groups map[string]string
}

// NewGroupCache seeds the cache from a hostgroup listing.
func NewGroupCache(groups []zabbix.Group) *GroupCache {
	cache := &GroupCache{groups: make(map[string]string, len(groups))}
	for _, group := range groups {
		cache.groups[group.Name] = group.GroupID
	}
	return cache
}

// Ensure returns the group ID for name, creating the group when permitted.
func (c *GroupCache) Ensure(ctx context.Context, api TargetAPI, name string, create bool) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if id, ok := c.groups[name]; ok {
		return id, nil
	}
	if !create {
		return "", preconditionErrorf("hostgroup %q does not exist and hostgroup creation is disabled", name)
	}
	id, err := api.HostgroupCreate(ctx, name)
	if err != nil {
		return "", externalError(fmt.Sprintf("unable to create hostgroup %q", name), err)
	}
	c.groups[name] = id
	return id, nil
}

// Checker reconciles one entity's desired state against the live Zabbix
// host record. Construction data (group cache, template index) is shared
// across the run.
type Checker struct {
	api       TargetAPI
	caps      zabbix.Capabilities
	cfg       *Config
	groups    *GroupCache
	templates map[string]string
	logger    *zap.Logger
}

// NewChecker builds a checker over run-scoped lookup data. templates maps
// template names to IDs.
func NewChecker(api TargetAPI, caps zabbix.Capabilities, cfg *Config, groups *GroupCache, templates map[string]string, logger *zap.Logger) *Checker {
	return &Checker{
		api:       api,
		caps:      caps,
		cfg:       cfg,
		groups:    groups,
		templates: templates,
		logger:    logger,
	}
}

// ResolveGroups maps the entity's hostgroup paths to group IDs, creating
// missing groups when the driver allows it.
func (ch *Checker) ResolveGroups(ctx context.Context, e *Entity) ([]string, error) {
	ids := make([]string, 0, len(e.Groups))
	for _, name := range e.Groups {
		id, err := ch.groups.Ensure(ctx, ch.api, name, ch.cfg.CreateHostgroups)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// ResolveTemplates maps the entity's template names to template references.
func (ch *Checker) ResolveTemplates(e *Entity) ([]zabbix.Template, error) {
	if len(e.TemplateNames) == 0 {
		return nil, preconditionErrorf("%s %s: no templates found", e.Kind, e.Name)
	}
	refs := make([]zabbix.Template, 0, len(e.TemplateNames))
	for _, name := range e.TemplateNames {
		id, ok := ch.templates[name]
		if !ok {
			return nil, preconditionErrorf("%s %s: unable to find template %q in Zabbix", e.Kind, e.Name, name)
		}
		refs = append(refs, zabbix.Template{TemplateID: id, Name: name})
	}
	return refs, nil
}

// Create registers the entity as a new Zabbix host and returns the host ID.
func (ch *Checker) Create(ctx context.Context, e *Entity) (string, error) {
	groupIDs, err := ch.ResolveGroups(ctx, e)
	if err != nil {
		return "", err
	}
	templates, err := ch.ResolveTemplates(e)
	if err != nil {
		return "", err
	}

	params := map[string]any{
		"host":        e.Name,
		"name":        e.ZabbixName(),
		"status":      e.State,
		"interfaces":  []zabbix.Interface{e.Interface},
		"groups":      groupRefs(groupIDs),
		"templates":   templateRefs(templates),
		"description": "Host added by NetBox sync.",
	}
	if e.Proxy != nil {
		params[e.Proxy.IDField] = e.Proxy.ID
		if ch.caps.SupportsProxyGroups() {
			params["monitored_by"] = e.Proxy.MonitoredBy
		}
	}
	if ch.cfg.InventorySync {
		params["inventory_mode"] = e.InventoryMode
		if len(e.Inventory) > 0 {
			params["inventory"] = e.Inventory
		}
	}
	if ch.cfg.MacroSyncEnabled() && len(e.Macros) > 0 {
		params["macros"] = e.Macros
	}
	if ch.cfg.TagSync && len(e.Tags) > 0 {
		params["tags"] = e.Tags
	}

	ch.logger.Debug("creating host", zap.String("host", e.Name),
		zap.Any("params", zabbix.RedactHostParams(params)))
	hostID, err := ch.api.HostCreate(ctx, params)
	if err != nil {
		return "", externalError(fmt.Sprintf("unable to create host %s", e.Name), err)
	}
	return hostID, nil
}

// Run checks the live Zabbix host against the entity's desired state and
// corrects every divergence. It returns a description of each applied
// change.
func (ch *Checker) Run(ctx context.Context, e *Entity) ([]string, error) {
	groupIDs, err := ch.ResolveGroups(ctx, e)
	if err != nil {
		return nil, err
	}
	templates, err := ch.ResolveTemplates(e)
	if err != nil {
		return nil, err
	}

	host, err := ch.fetchHost(ctx, e)
	if err != nil {
		return nil, err
	}

	var changes []string
	apply := func(description string, params map[string]any) error {
		params["hostid"] = e.HostID
		if err := ch.api.HostUpdate(ctx, params); err != nil {
			return externalError(fmt.Sprintf("unable to update host %s", e.Name), err)
		}
		ch.logger.Info("corrected host divergence",
			zap.String("host", e.Name), zap.String("change", description))
		changes = append(changes, description)
		return nil
	}

	if err := ch.checkIdentity(e, host, apply); err != nil {
		return changes, err
	}
	if err := ch.checkTemplates(e, host, templates, apply); err != nil {
		return changes, err
	}
	if err := ch.checkGroups(e, host, groupIDs, apply); err != nil {
		return changes, err
	}
	if err := ch.checkProxy(e, host, apply); err != nil {
		return changes, err
	}
	if ch.cfg.InventorySync {
		if err := ch.checkInventory(e, host, apply); err != nil {
			return changes, err
		}
	}
	if ch.cfg.MacroSyncEnabled() {
		if err := ch.checkMacros(e, host, apply); err != nil {
			return changes, err
		}
	}
	if ch.cfg.TagSync {
		if err := ch.checkTags(e, host, apply); err != nil {
			return changes, err
		}
	}
	ifaceChange, err := ch.checkInterface(ctx, e, host)
	if err != nil {
		return changes, err
	}
	if ifaceChange != "" {
		changes = append(changes, ifaceChange)
	}
	return changes, nil
}

func (ch *Checker) fetchHost(ctx context.Context, e *Entity) (zabbix.Host, error) {
	params := map[string]any{
		"filter":                map[string]any{"hostid": []string{e.HostID}},
		"selectInterfaces":      []string{"interfaceid", "type", "main", "useip", "ip", "dns", "port", "details"},
		"selectParentTemplates": []string{"templateid", "name"},
		ch.caps.GroupSelectField(): []string{"groupid"},
	}
	if ch.cfg.InventorySync {
		mapping := ch.cfg.DeviceInventoryMap
		if e.Kind == KindVM {
			mapping = ch.cfg.VMInventoryMap
		}
		fields := make([]string, 0, len(mapping))
		for _, field := range mapping {
			fields = append(fields, field)
		}
		sort.Strings(fields)
		params["selectInventory"] = fields
	}
	if ch.cfg.MacroSyncEnabled() {
		params["selectMacros"] = []string{"macro", "value", "type", "description"}
	}
	if ch.cfg.TagSync {
		params["selectTags"] = []string{"tag", "value"}
	}

	hosts, err := ch.api.HostGet(ctx, params)
	if err != nil {
		return zabbix.Host{}, externalError(fmt.Sprintf("unable to fetch host %s", e.Name), err)
	}
	if len(hosts) > 1 {
		return zabbix.Host{}, preconditionErrorf("%s %s: got %d hosts for ID %s", e.Kind, e.Name, len(hosts), e.HostID)
	}
	if len(hosts) == 0 {
		return zabbix.Host{}, preconditionErrorf(
			"%s %s: no host found for ID %s, likely a deleted host without zeroing the link field",
			e.Kind, e.Name, e.HostID)
	}
	return hosts[0], nil
}

func (ch *Checker) checkIdentity(e *Entity, host zabbix.Host, apply func(string, map[string]any) error) error {
	if host.Host != e.Name {
		if err := apply("hostname", map[string]any{"host": e.Name}); err != nil {
			return err
		}
	}
	if e.UseVisible && host.Name != e.VisibleName {
		if err := apply("visible name", map[string]any{"name": e.VisibleName}); err != nil {
			return err
		}
	}
	if host.Status != e.State {
		if err := apply("status", map[string]any{"status": e.State}); err != nil {
			return err
		}
	}
	return nil
}

// checkTemplates compares template ID sets and on divergence replaces the
// whole assignment in one call, clearing the current set and applying the
// desired one together.
func (ch *Checker) checkTemplates(e *Entity, host zabbix.Host, desired []zabbix.Template, apply func(string, map[string]any) error) error {
	current := make(map[string]bool, len(host.Templates))
	for _, t := range host.Templates {
		current[t.TemplateID] = true
	}
	want := make(map[string]bool, len(desired))
	for _, t := range desired {
		want[t.TemplateID] = true
	}
	if idSetsEqual(current, want) {
		return nil
	}
	return apply("templates", map[string]any{
		"templates_clear": templateRefs(host.Templates),
		"templates":       templateRefs(desired),
	})
}

func (ch *Checker) checkGroups(e *Entity, host zabbix.Host, desired []string, apply func(string, map[string]any) error) error {
	current := make(map[string]bool)
	for _, group := range host.GroupRefs() {
		current[group.GroupID] = true
	}
	want := make(map[string]bool, len(desired))
	for _, id := range desired {
		want[id] = true
	}
	if idSetsEqual(current, want) {
		return nil
	}
	return apply("hostgroups", map[string]any{"groups": groupRefs(desired)})
}

func (ch *Checker) checkProxy(e *Entity, host zabbix.Host, apply func(string, map[string]any) error) error {
	if e.Proxy != nil {
		if currentProxyID(host, e.Proxy.IDField) == e.Proxy.ID {
			return nil
		}
		// Legacy field carries the same assignment on pre-7 servers.
		if host.ProxyHostID == e.Proxy.ID && e.Proxy.ID != "" {
			return nil
		}
		params := map[string]any{e.Proxy.IDField: e.Proxy.ID}
		if ch.caps.SupportsProxyGroups() {
			params["monitored_by"] = e.Proxy.MonitoredBy
		}
		return apply("proxy", params)
	}

	assignedField := ""
	for _, field := range []string{"proxy_hostid", "proxyid", "proxy_groupid"} {
		if id := currentProxyID(host, field); id != "" && id != "0" {
			assignedField = field
			break
		}
	}
	if assignedField == "" {
		return nil
	}
	// A proxy is set in Zabbix but not in NetBox. Removal is destructive,
	// so it needs either the full sync flag or an explicitly cleared
	// override on the object.
	if !ch.cfg.FullProxySync && !e.ProxyExplicit {
		ch.logger.Warn("host has a proxy in Zabbix but none in NetBox, leaving it untouched",
			zap.String("host", e.Name))
		return nil
	}
	params := map[string]any{assignedField: "0"}
	if assignedField != "proxy_hostid" {
		params["monitored_by"] = zabbix.MonitoredByServer
	}
	return apply("proxy removal", params)
}

func (ch *Checker) checkInventory(e *Entity, host zabbix.Host, apply func(string, map[string]any) error) error {
	// Mode first: Zabbix rejects inventory values while disabled.
	if host.InventoryMode != e.InventoryMode {
		if err := apply("inventory mode", map[string]any{"inventory_mode": e.InventoryMode}); err != nil {
			return err
		}
	}
	current := map[string]string(host.Inventory)
	if current == nil {
		current = map[string]string{}
	}
	if mapsEqual(current, e.Inventory) {
		return nil
	}
	return apply("inventory", map[string]any{"inventory": e.Inventory})
}

// checkMacros compares name-sorted macro lists. Secret values never come
// back from the API, so they are excluded from comparison unless the driver
// enabled full macro sync.
func (ch *Checker) checkMacros(e *Entity, host zabbix.Host, apply func(string, map[string]any) error) error {
	if macroListsEqual(e.Macros, host.Macros, ch.cfg.FullMacroSync()) {
		return nil
	}
	return apply("usermacros", map[string]any{"macros": e.Macros})
}

func (ch *Checker) checkTags(e *Entity, host zabbix.Host, apply func(string, map[string]any) error) error {
	current := sortTags(dedupeTags(append([]zabbix.Tag(nil), host.Tags...)))
	if tagListsEqual(current, e.Tags) {
		return nil
	}
	return apply("tags", map[string]any{"tags": e.Tags})
}

// checkInterface diffs the single host interface field by field. A changed
// SNMP version forces a rewrite of every detail key since the remaining
// parameters are version specific. Interface type changes are never
// attempted.
func (ch *Checker) checkInterface(ctx context.Context, e *Entity, host zabbix.Host) (string, error) {
	if len(host.Interfaces) != 1 {
		return "", preconditionErrorf(
			"%s %s has an unsupported interface configuration with %d interfaces, manual intervention required",
			e.Kind, e.Name, len(host.Interfaces))
	}
	current := host.Interfaces[0]
	desired := e.Interface

	if current.Type != desired.Type {
		return "", configErrorf("%s %s: changing the interface type to %s is not supported",
			e.Kind, e.Name, desired.Type)
	}

	updates := map[string]any{}
	if current.UseIP != desired.UseIP {
		updates["useip"] = desired.UseIP
	}
	if current.Main != desired.Main {
		updates["main"] = desired.Main
	}
	if current.IP != desired.IP {
		updates["ip"] = desired.IP
	}
	if current.DNS != desired.DNS {
		updates["dns"] = desired.DNS
	}
	if current.Port != desired.Port {
		updates["port"] = desired.Port
	}
	if detailUpdates := diffDetails(current.Details, desired.Details); len(detailUpdates) > 0 {
		updates["details"] = detailUpdates
	}
	if len(updates) == 0 {
		return "", nil
	}

	updates["interfaceid"] = current.InterfaceID
	ch.logger.Warn("interface out of sync", zap.String("host", e.Name),
		zap.Any("updates", zabbix.RedactHostParams(updates)))
	if err := ch.api.HostInterfaceUpdate(ctx, updates); err != nil {
		return "", externalError(fmt.Sprintf("unable to update interface of host %s", e.Name), err)
	}
	return "interface", nil
}

func diffDetails(current, desired zabbix.StringMap) map[string]string {
	updates := map[string]string{}
	for key, value := range desired {
		if current[key] != value {
			updates[key] = value
		}
	}
	if _, versionChanged := updates["version"]; versionChanged {
		// A version switch invalidates the remaining parameters, push the
		// full desired detail set.
		for key, value := range desired {
			updates[key] = value
		}
	}
	return updates
}

func macroListsEqual(desired, current []zabbix.Macro, compareSecrets bool) bool {
	normalize := func(macros []zabbix.Macro) []zabbix.Macro {
		out := append([]zabbix.Macro(nil), macros...)
		sort.Slice(out, func(i, j int) bool { return out[i].Macro < out[j].Macro })
		if !compareSecrets {
			for i := range out {
				if out[i].Type == zabbix.MacroTypeSecret {
					out[i].Value = ""
				}
			}
		}
		return out
	}
	a, b := normalize(desired), normalize(current)
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func tagListsEqual(a, b []zabbix.Tag) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func idSetsEqual(a, b map[string]bool) bool {
	if len(a) != len(b) {
		return false
	}
	for id := range a {
		if !b[id] {
			return false
		}
	}
	return true
}

func mapsEqual(a, b map[string]string) bool {
	if len(a) != len(b) {
		return false
	}
	for key, value := range a {
		if b[key] != value {
			return false
		}
	}
	return true
}

func currentProxyID(host zabbix.Host, field string) string {
	switch field {
	case "proxyid":
		return host.ProxyID
	case "proxy_groupid":
		return host.ProxyGroupID
	default:
		return host.ProxyHostID
	}
}

func groupRefs(ids []string) []zabbix.Group {
	refs := make([]zabbix.Group, 0, len(ids))
	for _, id := range ids {
		refs = append(refs, zabbix.Group{GroupID: id})
	}
	return refs
}

func templateRefs(templates []zabbix.Template) []map[string]string {
	refs := make([]map[string]string, 0, len(templates))
	for _, t := range templates {
		refs = append(refs, map[string]string{"templateid": t.TemplateID})
	}
	return refs
}
