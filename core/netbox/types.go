package netbox

import (
	"github.com/TheNetworkGuy/netbox-zabbix-sync/core/utils"
)

// Object is a read-only view over a decoded NetBox record. All attribute
// access goes through path lookups on the underlying JSON tree, so callers
// never depend on a generated schema for a particular NetBox version.
type Object struct {
	attrs map[string]any
}

// NewObject wraps a decoded NetBox record.
func NewObject(attrs map[string]any) *Object {
	if attrs == nil {
		attrs = map[string]any{}
	}
	return &Object{attrs: attrs}
}

// Attrs exposes the raw attribute tree. Callers must treat it as read-only.
func (o *Object) Attrs() map[string]any {
	return o.attrs
}

// ID returns the NetBox object ID.
func (o *Object) ID() int64 {
	v, ok := o.Lookup("id")
	if !ok {
		return 0
	}
	return int64(utils.ToInt(v))
}

// Name returns the object name.
func (o *Object) Name() string {
	v, ok := o.Lookup("name")
	if !ok {
		return ""
	}
	return utils.ToString(v)
}

// StatusLabel returns the human readable status label, e.g. "Active".
func (o *Object) StatusLabel() string {
	v, ok := o.Lookup("status", "label")
	if !ok {
		return ""
	}
	return utils.ToString(v)
}

// PrimaryIP returns the primary IP address in CIDR notation, or "" when the
// object has no primary IP assigned.
func (o *Object) PrimaryIP() string {
	v, ok := o.Lookup("primary_ip", "address")
	if !ok {
		return ""
	}
	return utils.ToString(v)
}

// CustomFields returns the custom field map, never nil.
func (o *Object) CustomFields() map[string]any {
	v, ok := o.Lookup("custom_fields")
	if !ok {
		return map[string]any{}
	}
	if m, ok := v.(map[string]any); ok {
		return m
	}
	return map[string]any{}
}

// CustomField returns a single custom field value. The second return value
// reports whether the field is defined on the object at all; a defined but
// empty field returns (nil, true).
func (o *Object) CustomField(name string) (any, bool) {
	cfs := o.CustomFields()
	v, ok := cfs[name]
	return v, ok
}

// ConfigContext returns the rendered config context, never nil.
func (o *Object) ConfigContext() map[string]any {
	v, ok := o.Lookup("config_context")
	if !ok {
		return map[string]any{}
	}
	if m, ok := v.(map[string]any); ok {
		return m
	}
	return map[string]any{}
}

// Lookup walks the attribute tree along the given path. A missing key or a
// nil intermediate yields (nil, false) rather than an error, so callers can
// treat unresolved paths as an absent value.
func (o *Object) Lookup(path ...string) (any, bool) {
	var cur any = o.attrs
	for _, key := range path {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = m[key]
		if !ok || cur == nil {
			return nil, false
		}
	}
	if cur == nil {
		return nil, false
	}
	return cur, true
}

// NestedName resolves the "name" attribute of a nested object, e.g.
// NestedName("site", "region"). It returns "" when any link in the chain is
// absent.
func (o *Object) NestedName(path ...string) string {
	v, ok := o.Lookup(append(path, "name")...)
	if !ok {
		return ""
	}
	return utils.ToString(v)
}

// Tags returns the object's own classification tags as raw records.
func (o *Object) Tags() []map[string]any {
	v, ok := o.Lookup("tags")
	if !ok {
		return nil
	}
	list, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]map[string]any, 0, len(list))
	for _, item := range list {
		if m, ok := item.(map[string]any); ok {
			out = append(out, m)
		}
	}
	return out
}

// TreeNode is one record of a region or site-group forest, used to resolve
// ancestor chains for nested hostgroup segments.
type TreeNode struct {
	Name   string
	Parent string
	Depth  int
}

// CustomFieldDef describes a custom field definition in NetBox.
type CustomFieldDef struct {
	Name string
	Type string
}
