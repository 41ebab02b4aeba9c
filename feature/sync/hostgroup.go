package sync

import (
	"strings"

	"go.uber.org/zap"

	"github.com/TheNetworkGuy/netbox-zabbix-sync/core/netbox"
)

// Hostgroup kinds.
const (
	KindDevice = "dev"
	KindVM     = "vm"
)

// NestingOptions controls whether region and site group segments expand to
// their full ancestor chains.
type NestingOptions struct {
	Regions     bool
	SiteGroups  bool
	RegionNodes []netbox.TreeNode
	GroupNodes  []netbox.TreeNode
}

// Hostgroup renders hostgroup paths for a single NetBox object. The set of
// recognized format tokens depends on the object kind; unrecognized tokens
// fall back to custom field lookups.
type Hostgroup struct {
	kind    string
	obj     *netbox.Object
	fields  map[string]netbox.CustomFieldDef
	nesting NestingOptions
	logger  *zap.Logger
	name    string
}

// NewHostgroup builds the path generator for one device or virtual machine.
func NewHostgroup(kind string, obj *netbox.Object, fields map[string]netbox.CustomFieldDef, nesting NestingOptions, logger *zap.Logger) (*Hostgroup, error) {
	if kind != KindDevice && kind != KindVM {
		return nil, configErrorf("unsupported hostgroup object kind %q", kind)
	}
	return &Hostgroup{
		kind:    kind,
		obj:     obj,
		fields:  fields,
		nesting: nesting,
		logger:  logger,
		name:    obj.Name(),
	}, nil
}

// Generate renders one slash-delimited format into a hostgroup path. Tokens
// that resolve to nothing are dropped; when every token drops out the result
// is empty with no error. A token that is neither a known option nor a
// defined custom field is a configuration error.
func (hg *Hostgroup) Generate(format string) (string, error) {
	var segments []string
	for _, token := range strings.Split(format, "/") {
		if literal, ok := quotedLiteral(token); ok {
			if literal != "" {
				segments = append(segments, literal)
			}
			continue
		}
		value, err := hg.resolve(token)
		if err != nil {
			return "", err
		}
		if value != "" {
			segments = append(segments, value)
		}
	}
	if len(segments) == 0 {
		hg.logger.Debug("hostgroup format yielded no segments",
			zap.String("object", hg.name), zap.String("format", format))
		return "", nil
	}
	return strings.Join(segments, "/"), nil
}

// GenerateAll renders each format and returns the deduplicated union of the
// non-empty results, preserving first-seen order.
func (hg *Hostgroup) GenerateAll(formats []string) ([]string, error) {
	seen := make(map[string]bool)
	var groups []string
	for _, format := range formats {
		path, err := hg.Generate(format)
		if err != nil {
			return nil, err
		}
		if path == "" || seen[path] {
			continue
		}
		seen[path] = true
		groups = append(groups, path)
	}
	return groups, nil
}

func (hg *Hostgroup) resolve(token string) (string, error) {
	switch token {
	case "role":
		if value := hg.obj.NestedName("role"); value != "" {
			return value, nil
		}
		// Pre-3.6 NetBox exposes the device role under a different key.
		if hg.kind == KindDevice {
			return hg.obj.NestedName("device_role"), nil
		}
		return "", nil
	case "site":
		return hg.obj.NestedName("site"), nil
	case "region":
		return hg.regionPath()
	case "site_group":
		return hg.siteGroupPath()
	case "tenant":
		return hg.obj.NestedName("tenant"), nil
	case "tenant_group":
		return hg.obj.NestedName("tenant", "group"), nil
	case "platform":
		return hg.obj.NestedName("platform"), nil
	}
	if hg.kind == KindDevice {
		switch token {
		case "manufacturer":
			return hg.obj.NestedName("device_type", "manufacturer"), nil
		case "location":
			return hg.obj.NestedName("location"), nil
		case "rack":
			return hg.obj.NestedName("rack"), nil
		}
	} else {
		switch token {
		case "cluster":
			return hg.obj.NestedName("cluster"), nil
		case "cluster_type":
			return hg.obj.NestedName("cluster", "type"), nil
		}
	}
	return hg.customField(token)
}

func (hg *Hostgroup) customField(name string) (string, error) {
	if _, defined := hg.fields[name]; !defined {
		return "", configErrorf("hostgroup format item %q is not a valid option or custom field for %s objects", name, hg.kind)
	}
	value, set := hg.obj.CustomField(name)
	if !set || value == nil {
		return "", nil
	}
	text, ok := value.(string)
	if !ok || text == "" {
		hg.logger.Debug("custom field unusable as hostgroup segment",
			zap.String("object", hg.name), zap.String("field", name))
		return "", nil
	}
	return text, nil
}

func (hg *Hostgroup) regionPath() (string, error) {
	name := hg.obj.NestedName("site", "region")
	if name == "" || !hg.nesting.Regions {
		return name, nil
	}
	return strings.Join(BuildPath(name, hg.nesting.RegionNodes), "/"), nil
}

func (hg *Hostgroup) siteGroupPath() (string, error) {
	name := hg.obj.NestedName("site", "group")
	if name == "" || !hg.nesting.SiteGroups {
		return name, nil
	}
	return strings.Join(BuildPath(name, hg.nesting.GroupNodes), "/"), nil
}

// BuildPath walks the parent chain of the named node and returns the path
// from the root down to the node itself. A broken chain truncates the path
// at the deepest reachable ancestor.
func BuildPath(endpoint string, nodes []netbox.TreeNode) []string {
	byName := make(map[string]netbox.TreeNode, len(nodes))
	for _, node := range nodes {
		byName[node.Name] = node
	}
	path := []string{endpoint}
	current, ok := byName[endpoint]
	if !ok {
		return path
	}
	for current.Parent != "" {
		parent, ok := byName[current.Parent]
		if !ok {
			path = append([]string{current.Parent}, path...)
			break
		}
		path = append([]string{parent.Name}, path...)
		current = parent
	}
	return path
}

// quotedLiteral reports whether the token is a quoted literal segment and
// returns its unquoted text.
func quotedLiteral(token string) (string, bool) {
	if len(token) >= 2 {
		if (token[0] == '\'' && token[len(token)-1] == '\'') ||
			(token[0] == '"' && token[len(token)-1] == '"') {
			return token[1 : len(token)-1], true
		}
	}
	return "", false
}

// VerifyFormat validates a hostgroup format list ahead of a run: every item
// of every format must be a known option for the kind, a quoted literal, or
// a defined custom field.
func VerifyFormat(formats []string, kind string, fields map[string]netbox.CustomFieldDef) error {
	options := map[string]bool{
		"role": true, "site": true, "region": true, "site_group": true,
		"tenant": true, "tenant_group": true, "platform": true,
	}
	if kind == KindDevice {
		options["manufacturer"] = true
		options["location"] = true
		options["rack"] = true
	} else {
		options["cluster"] = true
		options["cluster_type"] = true
	}
	var invalid []string
	for _, format := range formats {
		for _, token := range strings.Split(format, "/") {
			if _, ok := quotedLiteral(token); ok {
				continue
			}
			if options[token] {
				continue
			}
			if _, defined := fields[token]; defined {
				continue
			}
			invalid = append(invalid, token)
		}
	}
	if len(invalid) > 0 {
		return configErrorf("invalid hostgroup format items for %s objects: %s", kind, strings.Join(invalid, ", "))
	}
	return nil
}
