package sync

import "strings"

// Sync level settings for the usermacro feature.
const (
	MacroSyncOff  = "disabled"
	MacroSyncOn   = "enabled"
	MacroSyncFull = "full"
)

// Inventory modes.
const (
	InventoryModeDisabled  = "disabled"
	InventoryModeManual    = "manual"
	InventoryModeAutomatic = "automatic"
)

// Config holds all driver-supplied sync behavior settings. List-valued
// settings are comma-separated strings so they can be set from environment
// variables; map-valued settings fall back to the defaults applied by
// Normalize when left empty.
type Config struct {
	// SyncVMs enables virtual machine synchronization.
	SyncVMs bool `mapstructure:"vms" default:"false"`
	// HostgroupFormat is one or more slash-delimited hostgroup formats for
	// devices, separated by commas.
	HostgroupFormat string `mapstructure:"hostgroup_format" default:"site/manufacturer/role"`
	// VMHostgroupFormat is the hostgroup format list for virtual machines.
	VMHostgroupFormat string `mapstructure:"vm_hostgroup_format" default:"cluster_type/cluster/role"`
	// CreateHostgroups allows creation of missing hostgroups.
	CreateHostgroups bool `mapstructure:"create_hostgroups" default:"true"`
	// CreateJournal enables journal entries on NetBox objects.
	CreateJournal bool `mapstructure:"create_journal" default:"false"`
	// TemplatesConfigContext reads templates only from config context.
	TemplatesConfigContext bool `mapstructure:"templates_config_context" default:"false"`
	// TemplatesConfigContextOverrule prefers config context templates over
	// the device type custom field when both are present.
	TemplatesConfigContextOverrule bool `mapstructure:"templates_config_context_overrule" default:"false"`
	// TemplateCustomField is the device type custom field holding the
	// template name.
	TemplateCustomField string `mapstructure:"template_cf" default:"zabbix_template"`
	// LinkCustomField is the device/VM custom field holding the Zabbix
	// host ID.
	LinkCustomField string `mapstructure:"device_cf" default:"zabbix_hostid"`
	// Clustering promotes the primary member of a virtual chassis to the
	// chassis name and skips the other members.
	Clustering bool `mapstructure:"clustering" default:"false"`
	// FullProxySync permits removal of proxies that are set in Zabbix but
	// not in NetBox.
	FullProxySync bool `mapstructure:"full_proxy_sync" default:"false"`
	// RemovalStatuses are source statuses that remove the Zabbix host.
	RemovalStatuses string `mapstructure:"zabbix_device_removal" default:"Decommissioning,Inventory"`
	// DisableStatuses are source statuses that disable the Zabbix host.
	DisableStatuses string `mapstructure:"zabbix_device_disable" default:"Offline,Planned,Staged,Failed"`
	// TraverseRegions splices the full region ancestor chain into nested
	// hostgroup segments.
	TraverseRegions bool `mapstructure:"traverse_regions" default:"false"`
	// TraverseSiteGroups does the same for site groups.
	TraverseSiteGroups bool `mapstructure:"traverse_site_groups" default:"false"`
	// DeviceFilter is a raw query string applied to the device listing.
	DeviceFilter string `mapstructure:"nb_device_filter" default:"name__n=null"`
	// VMFilter is a raw query string applied to the VM listing.
	VMFilter string `mapstructure:"nb_vm_filter" default:"name__n=null"`

	// InventorySync enables inventory field synchronization.
	InventorySync bool `mapstructure:"inventory_sync" default:"false"`
	// InventoryMode is disabled, manual or automatic.
	InventoryMode string `mapstructure:"inventory_mode" default:"disabled"`
	// DeviceInventoryMap maps NetBox attribute paths to inventory fields.
	DeviceInventoryMap map[string]string `mapstructure:"device_inventory_map"`
	// VMInventoryMap is the inventory map for virtual machines.
	VMInventoryMap map[string]string `mapstructure:"vm_inventory_map"`

	// UsermacroSync is disabled, enabled or full. Full sync permits
	// comparison (and thus rewriting) of secret macro values.
	UsermacroSync string `mapstructure:"usermacro_sync" default:"disabled"`
	// DeviceUsermacroMap maps NetBox attribute paths to macro names.
	DeviceUsermacroMap map[string]string `mapstructure:"device_usermacro_map"`
	// VMUsermacroMap is the usermacro map for virtual machines.
	VMUsermacroMap map[string]string `mapstructure:"vm_usermacro_map"`

	// TagSync enables host tag synchronization.
	TagSync bool `mapstructure:"tag_sync" default:"false"`
	// TagLower lower-cases tag names and values.
	TagLower bool `mapstructure:"tag_lower" default:"true"`
	// TagName, when set, synthesizes an identity tag from the object's own
	// NetBox tags.
	TagName string `mapstructure:"tag_name" default:"NetBox"`
	// TagValue selects the tag representation field (display, name, slug).
	TagValue string `mapstructure:"tag_value" default:"name"`
	// DeviceTagMap maps NetBox attribute paths to tag names.
	DeviceTagMap map[string]string `mapstructure:"device_tag_map"`
	// VMTagMap is the tag map for virtual machines.
	VMTagMap map[string]string `mapstructure:"vm_tag_map"`

	// Workers bounds the number of entities reconciled in parallel.
	Workers int `mapstructure:"workers" default:"1"`
}

// Normalize fills map-valued settings that were left empty with the stock
// defaults and clamps invalid values.
func (c *Config) Normalize() {
	if c.DeviceInventoryMap == nil {
		c.DeviceInventoryMap = map[string]string{
			"asset_tag":                      "asset_tag",
			"virtual_chassis/name":           "chassis",
			"status/label":                   "deployment_status",
			"location/name":                  "location",
			"latitude":                       "location_lat",
			"longitude":                      "location_lon",
			"comments":                       "notes",
			"name":                           "name",
			"rack/name":                      "site_rack",
			"serial":                         "serialno_a",
			"device_type/model":              "type",
			"device_type/manufacturer/name":  "vendor",
			"oob_ip/address":                 "oob_ip",
		}
	}
	if c.VMInventoryMap == nil {
		c.VMInventoryMap = map[string]string{
			"status/label": "deployment_status",
			"comments":     "notes",
			"name":         "name",
		}
	}
	if c.DeviceUsermacroMap == nil {
		c.DeviceUsermacroMap = map[string]string{
			"serial":    "{$HW_SERIAL}",
			"role/name": "{$DEV_ROLE}",
			"url":       "{$NB_URL}",
			"id":        "{$NB_ID}",
		}
	}
	if c.VMUsermacroMap == nil {
		c.VMUsermacroMap = map[string]string{
			"memory":    "{$TOTAL_MEMORY}",
			"role/name": "{$DEV_ROLE}",
			"url":       "{$NB_URL}",
			"id":        "{$NB_ID}",
		}
	}
	if c.DeviceTagMap == nil {
		c.DeviceTagMap = map[string]string{
			"site/name":     "site",
			"rack/name":     "rack",
			"platform/name": "target",
		}
	}
	if c.VMTagMap == nil {
		c.VMTagMap = map[string]string{
			"site/name":     "site",
			"cluster/name":  "cluster",
			"platform/name": "target",
		}
	}
	if c.Workers < 1 {
		c.Workers = 1
	}
	switch c.InventoryMode {
	case InventoryModeDisabled, InventoryModeManual, InventoryModeAutomatic:
	default:
		c.InventoryMode = InventoryModeDisabled
	}
	switch c.UsermacroSync {
	case MacroSyncOff, MacroSyncOn, MacroSyncFull:
	default:
		c.UsermacroSync = MacroSyncOff
	}
}

// HostgroupFormats returns the device hostgroup format list.
func (c *Config) HostgroupFormats() []string {
	return splitList(c.HostgroupFormat)
}

// VMHostgroupFormats returns the VM hostgroup format list.
func (c *Config) VMHostgroupFormats() []string {
	return splitList(c.VMHostgroupFormat)
}

// RemovalStatusList returns the statuses that trigger host removal.
func (c *Config) RemovalStatusList() []string {
	return splitList(c.RemovalStatuses)
}

// DisableStatusList returns the statuses that trigger host disabling.
func (c *Config) DisableStatusList() []string {
	return splitList(c.DisableStatuses)
}

// MacroSyncEnabled reports whether usermacros are synced at all.
func (c *Config) MacroSyncEnabled() bool {
	return c.UsermacroSync == MacroSyncOn || c.UsermacroSync == MacroSyncFull
}

// FullMacroSync reports whether secret macro values take part in comparison.
func (c *Config) FullMacroSync() bool {
	return c.UsermacroSync == MacroSyncFull
}

func splitList(value string) []string {
	var out []string
	for _, item := range strings.Split(value, ",") {
		if trimmed := strings.TrimSpace(item); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
