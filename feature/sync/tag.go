package sync

import (
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/TheNetworkGuy/netbox-zabbix-sync/core/netbox"
	"github.com/TheNetworkGuy/netbox-zabbix-sync/core/utils"
	"github.com/TheNetworkGuy/netbox-zabbix-sync/core/zabbix"
)

// maxTagLength is the Zabbix limit on tag names and values.
const maxTagLength = 256

// TagOptions controls tag rendering.
type TagOptions struct {
	// Lower lower-cases tag names and values.
	Lower bool
	// IdentityTag, when non-empty, is the tag name under which the object's
	// own NetBox tags are mirrored.
	IdentityTag string
	// IdentityValue selects which representation of a NetBox tag to mirror:
	// display, name or slug.
	IdentityValue string
}

// BuildTags collects the desired host tag set from the configured attribute
// map, the zabbix.tags section of the object's config context and the
// object's own NetBox tags. The result is deduplicated and sorted by name,
// then value.
func BuildTags(obj *netbox.Object, mapping map[string]string, opts TagOptions, host string, logger *zap.Logger) []zabbix.Tag {
	var tags []zabbix.Tag

	for name, value := range MapFields(obj, mapping, host, logger) {
		if value == "" {
			logger.Warn("mapped tag has no value, skipping",
				zap.String("host", host), zap.String("tag", name))
			continue
		}
		tags = appendTag(tags, name, value, opts, host, logger)
	}
	for _, tag := range contextTags(obj, host, logger) {
		tags = appendTag(tags, tag.Tag, tag.Value, opts, host, logger)
	}
	for _, value := range identityTagValues(obj, opts) {
		tags = appendTag(tags, opts.IdentityTag, value, opts, host, logger)
	}

	return sortTags(dedupeTags(tags))
}

func appendTag(tags []zabbix.Tag, name, value string, opts TagOptions, host string, logger *zap.Logger) []zabbix.Tag {
	if len(name) > maxTagLength || len(value) > maxTagLength {
		logger.Warn("tag name or value exceeds 256 characters, skipping",
			zap.String("host", host), zap.String("tag", name))
		return tags
	}
	if opts.Lower {
		name = strings.ToLower(name)
		value = strings.ToLower(value)
	}
	return append(tags, zabbix.Tag{Tag: name, Value: value})
}

// contextTags reads zabbix.tags from the config context, a list of dicts
// with tag and value keys.
func contextTags(obj *netbox.Object, host string, logger *zap.Logger) []zabbix.Tag {
	context := obj.ConfigContext()
	if context == nil {
		return nil
	}
	section, ok := context["zabbix"].(map[string]any)
	if !ok {
		return nil
	}
	raw, ok := section["tags"].([]any)
	if !ok {
		return nil
	}

	var tags []zabbix.Tag
	for _, entry := range raw {
		dict, ok := entry.(map[string]any)
		if !ok {
			logger.Warn("unsupported tag entry in config context, skipping",
				zap.String("host", host))
			continue
		}
		name := utils.ToString(dict["tag"])
		if name == "" {
			logger.Warn("tag entry in config context has no name, skipping",
				zap.String("host", host))
			continue
		}
		tags = append(tags, zabbix.Tag{Tag: name, Value: utils.ToString(dict["value"])})
	}
	return tags
}

func identityTagValues(obj *netbox.Object, opts TagOptions) []string {
	if opts.IdentityTag == "" {
		return nil
	}
	field := opts.IdentityValue
	switch field {
	case "display", "name", "slug":
	default:
		field = "name"
	}
	var values []string
	for _, tag := range obj.Tags() {
		if value := utils.ToString(tag[field]); value != "" {
			values = append(values, value)
		}
	}
	return values
}

func dedupeTags(tags []zabbix.Tag) []zabbix.Tag {
	seen := make(map[zabbix.Tag]bool, len(tags))
	out := tags[:0]
	for _, tag := range tags {
		if seen[tag] {
			continue
		}
		seen[tag] = true
		out = append(out, tag)
	}
	return out
}

func sortTags(tags []zabbix.Tag) []zabbix.Tag {
	sort.Slice(tags, func(i, j int) bool {
		if tags[i].Tag != tags[j].Tag {
			return tags[i].Tag < tags[j].Tag
		}
		return tags[i].Value < tags[j].Value
	})
	return tags
}
