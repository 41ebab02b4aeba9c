package sync

import (
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/TheNetworkGuy/netbox-zabbix-sync/core/netbox"
	"github.com/TheNetworkGuy/netbox-zabbix-sync/core/utils"
	"github.com/TheNetworkGuy/netbox-zabbix-sync/core/zabbix"
)

// Zabbix host status values.
const (
	StateEnabled  = "0"
	StateDisabled = "1"
)

// hostnamePattern is the character set Zabbix accepts for technical host
// names. Anything outside it forces a substituted name.
var hostnamePattern = regexp.MustCompile(`^[a-zA-Z0-9 ._-]+$`)

// Entity is the desired Zabbix state of one NetBox device or virtual
// machine, fully computed from NetBox data before any Zabbix write.
type Entity struct {
	ID          int64
	Kind        string
	ContentType string

	// Name is the technical host name. When the NetBox name contains
	// characters Zabbix rejects, Name is a substituted identifier and
	// VisibleName carries the original.
	Name        string
	VisibleName string
	UseVisible  bool

	IP     string
	Status string
	State  string
	HostID string

	Groups        []string
	TemplateNames []string
	Interface     zabbix.Interface
	InventoryMode string
	Inventory     map[string]string
	Macros        []zabbix.Macro
	Tags          []zabbix.Tag

	Proxy         *ProxyDescriptor
	ProxyExplicit bool

	obj    *netbox.Object
	logger *zap.Logger
}

// EntityDeps bundles the run-scoped data an entity needs for construction:
// custom field definitions for its content type, hostgroup nesting nodes,
// the capability set and the normalized proxy list.
type EntityDeps struct {
	Fields  map[string]netbox.CustomFieldDef
	Nesting NestingOptions
	Caps    zabbix.Capabilities
	Proxies []ProxyDescriptor
}

// NewDevice builds the desired state for a NetBox device. nameOverride, when
// non-empty, replaces the device name (used for virtual chassis promotion).
func NewDevice(obj *netbox.Object, cfg *Config, deps EntityDeps, nameOverride string, logger *zap.Logger) (*Entity, error) {
	return newEntity(KindDevice, netbox.ContentTypeDevice, obj, cfg, deps, nameOverride, logger)
}

// NewVirtualMachine builds the desired state for a NetBox virtual machine.
func NewVirtualMachine(obj *netbox.Object, cfg *Config, deps EntityDeps, logger *zap.Logger) (*Entity, error) {
	return newEntity(KindVM, netbox.ContentTypeVM, obj, cfg, deps, "", logger)
}

func newEntity(kind, contentType string, obj *netbox.Object, cfg *Config, deps EntityDeps, nameOverride string, logger *zap.Logger) (*Entity, error) {
	e := &Entity{
		ID:          obj.ID(),
		Kind:        kind,
		ContentType: contentType,
		Status:      obj.StatusLabel(),
		State:       StateEnabled,
		obj:         obj,
		logger:      logger,
	}
	if err := e.setBasics(obj, cfg, nameOverride); err != nil {
		return nil, err
	}
	if err := e.setHostgroups(obj, cfg, deps); err != nil {
		return nil, err
	}
	e.setTemplates(obj, cfg)
	e.setInventory(obj, cfg)
	e.setUsermacros(obj, cfg)
	e.setTags(obj, cfg)
	if err := e.setInterface(obj); err != nil {
		return nil, err
	}
	e.setProxy(obj, deps)
	return e, nil
}

func (e *Entity) setBasics(obj *netbox.Object, cfg *Config, nameOverride string) error {
	name := obj.Name()
	if nameOverride != "" {
		name = nameOverride
	}
	if name == "" {
		return preconditionErrorf("%s %d has no name", e.Kind, e.ID)
	}

	ip := obj.PrimaryIP()
	if ip == "" {
		return preconditionErrorf("%s %s has no primary IP address", e.Kind, name)
	}
	// Strip the CIDR suffix NetBox appends to addresses.
	if idx := strings.IndexByte(ip, '/'); idx > 0 {
		ip = ip[:idx]
	}
	e.IP = ip

	fields := obj.CustomFields()
	raw, defined := fields[cfg.LinkCustomField]
	if !defined {
		return preconditionErrorf("%s %s has no custom field %q", e.Kind, name, cfg.LinkCustomField)
	}
	if raw != nil {
		e.HostID = utils.ToString(raw)
	}

	if hostnamePattern.MatchString(name) {
		e.Name = name
	} else {
		e.Name = "NETBOX_ID" + utils.ToString(e.ID)
		e.VisibleName = name
		e.UseVisible = true
		e.logger.Info("name contains unsupported characters, using substituted host name",
			zap.String("host", e.Name), zap.String("visible_name", name))
	}
	return nil
}

func (e *Entity) setHostgroups(obj *netbox.Object, cfg *Config, deps EntityDeps) error {
	formats := cfg.HostgroupFormats()
	if e.Kind == KindVM {
		formats = cfg.VMHostgroupFormats()
	}
	hg, err := NewHostgroup(e.Kind, obj, deps.Fields, deps.Nesting, e.logger)
	if err != nil {
		return err
	}
	groups, err := hg.GenerateAll(formats)
	if err != nil {
		return err
	}
	if len(groups) == 0 {
		return preconditionErrorf("%s %s: unable to generate a hostgroup from any format", e.Kind, e.Name)
	}
	e.Groups = groups
	return nil
}

// setTemplates chooses the template source. Virtual machines only carry
// templates in config context; devices can additionally take them from the
// device type custom field, with the precedence the driver configured.
func (e *Entity) setTemplates(obj *netbox.Object, cfg *Config) {
	fromContext := e.contextTemplates(obj)
	if e.Kind == KindVM || cfg.TemplatesConfigContext {
		e.TemplateNames = fromContext
		return
	}
	if cfg.TemplatesConfigContextOverrule && len(fromContext) > 0 {
		e.TemplateNames = fromContext
		return
	}
	e.TemplateNames = e.customFieldTemplates(obj, cfg)
}

func (e *Entity) contextTemplates(obj *netbox.Object) []string {
	raw, ok := obj.Lookup("config_context", "zabbix", "templates")
	if !ok {
		return nil
	}
	switch v := raw.(type) {
	case string:
		if v == "" {
			return nil
		}
		return []string{v}
	case []any:
		var names []string
		for _, item := range v {
			if name := utils.ToString(item); name != "" {
				names = append(names, name)
			}
		}
		return names
	default:
		return nil
	}
}

func (e *Entity) customFieldTemplates(obj *netbox.Object, cfg *Config) []string {
	raw, ok := obj.Lookup("device_type", "custom_fields", cfg.TemplateCustomField)
	if !ok {
		e.logger.Warn("template custom field not found on device type",
			zap.String("host", e.Name), zap.String("field", cfg.TemplateCustomField))
		return nil
	}
	if name := utils.ToString(raw); name != "" {
		return []string{name}
	}
	return nil
}

func (e *Entity) setInventory(obj *netbox.Object, cfg *Config) {
	e.InventoryMode = "-1"
	e.Inventory = map[string]string{}
	if !cfg.InventorySync || cfg.InventoryMode == InventoryModeDisabled {
		return
	}
	if cfg.InventoryMode == InventoryModeAutomatic {
		e.InventoryMode = "1"
	} else {
		e.InventoryMode = "0"
	}
	mapping := cfg.DeviceInventoryMap
	if e.Kind == KindVM {
		mapping = cfg.VMInventoryMap
	}
	e.Inventory = MapFields(obj, mapping, e.Name, e.logger)
}

func (e *Entity) setUsermacros(obj *netbox.Object, cfg *Config) {
	if !cfg.MacroSyncEnabled() {
		return
	}
	mapping := cfg.DeviceUsermacroMap
	if e.Kind == KindVM {
		mapping = cfg.VMUsermacroMap
	}
	e.Macros = BuildUsermacros(obj, mapping, e.Name, e.logger)
}

func (e *Entity) setTags(obj *netbox.Object, cfg *Config) {
	if !cfg.TagSync {
		return
	}
	mapping := cfg.DeviceTagMap
	if e.Kind == KindVM {
		mapping = cfg.VMTagMap
	}
	opts := TagOptions{
		Lower:         cfg.TagLower,
		IdentityTag:   cfg.TagName,
		IdentityValue: cfg.TagValue,
	}
	e.Tags = BuildTags(obj, mapping, opts, e.Name, e.logger)
}

func (e *Entity) setInterface(obj *netbox.Object) error {
	iface, err := ResolveInterface(obj.ConfigContext(), e.IP)
	if err != nil {
		return err
	}
	e.Interface = iface
	return nil
}

func (e *Entity) setProxy(obj *netbox.Object, deps EntityDeps) {
	e.Proxy, e.ProxyExplicit = ResolveProxy(obj, deps.Proxies, deps.Caps, e.Name, e.logger)
}

// Disable marks the host for the disabled state in Zabbix.
func (e *Entity) Disable() {
	e.State = StateDisabled
}

// ZabbixName returns the display name shown in Zabbix.
func (e *Entity) ZabbixName() string {
	if e.UseVisible {
		return e.VisibleName
	}
	return e.Name
}

// LookupFilter returns the host.get filter matching this entity by name.
// Substituted names match on the visible name instead of the technical one.
func (e *Entity) LookupFilter() map[string]any {
	if e.UseVisible {
		return map[string]any{"name": e.VisibleName}
	}
	return map[string]any{"host": e.Name}
}

// ClusterPromotion inspects a device's virtual chassis membership. The
// primary member is promoted to the chassis name; other members are skipped.
func ClusterPromotion(obj *netbox.Object, logger *zap.Logger) (nameOverride string, skip bool, err error) {
	chassis, ok := obj.Lookup("virtual_chassis")
	if !ok || chassis == nil {
		return "", false, nil
	}
	name := obj.Name()
	masterRaw, ok := obj.Lookup("virtual_chassis", "master", "id")
	if !ok {
		return "", false, preconditionErrorf("device %s is part of a virtual chassis without a configured master", name)
	}
	if int64(utils.ToInt(masterRaw)) != obj.ID() {
		logger.Debug("skipping non-primary virtual chassis member", zap.String("host", name))
		return "", true, nil
	}
	chassisName := obj.NestedName("virtual_chassis")
	if chassisName == "" {
		return "", false, preconditionErrorf("device %s: virtual chassis has no name", name)
	}
	logger.Debug("promoting primary virtual chassis member to chassis name",
		zap.String("host", name), zap.String("chassis", chassisName))
	return chassisName, false, nil
}
