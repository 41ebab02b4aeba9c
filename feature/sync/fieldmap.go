package sync

import (
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/TheNetworkGuy/netbox-zabbix-sync/core/netbox"
)

// MapFields resolves a {source path -> destination key} map against a NetBox
// object and returns a flat map of string values. The same lookup serves
// inventory, usermacro and tag generation; it must not special-case any of
// the three call sites.
//
// Paths are slash-delimited and walked level by level; a missing
// intermediate yields an absent terminal rather than an error. Numeric zero
// and the empty string are real values ("0" and ""), an absent terminal maps
// to "", and a non-scalar terminal is dropped from the output with a
// diagnostic.
func MapFields(obj *netbox.Object, mapping map[string]string, host string, logger *zap.Logger) map[string]string {
	data := make(map[string]string, len(mapping))
	mapped := 0
	for srcPath, destKey := range mapping {
		value, ok := obj.Lookup(strings.Split(srcPath, "/")...)
		if !ok {
			logger.Debug("field lookup returned an empty value",
				zap.String("host", host), zap.String("field", srcPath))
			data[destKey] = ""
			continue
		}
		switch v := value.(type) {
		case string:
			data[destKey] = v
		case float64:
			data[destKey] = strconv.FormatFloat(v, 'f', -1, 64)
		case bool:
			data[destKey] = strconv.FormatBool(v)
		case int:
			data[destKey] = strconv.Itoa(v)
		case int64:
			data[destKey] = strconv.FormatInt(v, 10)
		default:
			// Keep the key with an empty value so a stale remote value is
			// cleared and the comparison settles instead of re-updating.
			logger.Warn("field lookup returned an unexpected type, clearing",
				zap.String("host", host), zap.String("field", srcPath))
			data[destKey] = ""
			continue
		}
		if data[destKey] != "" {
			mapped++
		}
	}
	logger.Debug("field mapping complete",
		zap.String("host", host), zap.Int("mapped", mapped))
	return data
}
