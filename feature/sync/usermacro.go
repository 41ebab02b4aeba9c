package sync

import (
	"regexp"
	"sort"

	"go.uber.org/zap"

	"github.com/TheNetworkGuy/netbox-zabbix-sync/core/netbox"
	"github.com/TheNetworkGuy/netbox-zabbix-sync/core/utils"
	"github.com/TheNetworkGuy/netbox-zabbix-sync/core/zabbix"
)

// macroNamePattern matches a Zabbix usermacro name, optionally with a
// context part after the colon.
var macroNamePattern = regexp.MustCompile(`^\{\$[A-Z0-9\._]+(:.*)?\}$`)

// BuildUsermacros collects the desired usermacro set for a host from two
// sources: the configured attribute map and the zabbix.usermacros section of
// the object's config context. Context macros win over mapped ones of the
// same name. The result is sorted by macro name.
func BuildUsermacros(obj *netbox.Object, mapping map[string]string, host string, logger *zap.Logger) []zabbix.Macro {
	byName := make(map[string]zabbix.Macro)

	for _, macro := range mappedMacros(obj, mapping, host, logger) {
		byName[macro.Macro] = macro
	}
	for _, macro := range contextMacros(obj, host, logger) {
		byName[macro.Macro] = macro
	}

	names := make([]string, 0, len(byName))
	for name := range byName {
		names = append(names, name)
	}
	sort.Strings(names)

	macros := make([]zabbix.Macro, 0, len(names))
	for _, name := range names {
		macros = append(macros, byName[name])
	}
	return macros
}

func mappedMacros(obj *netbox.Object, mapping map[string]string, host string, logger *zap.Logger) []zabbix.Macro {
	var macros []zabbix.Macro
	for name, value := range MapFields(obj, mapping, host, logger) {
		if value == "" {
			logger.Warn("mapped usermacro has no value, skipping",
				zap.String("host", host), zap.String("macro", name))
			continue
		}
		if !macroNamePattern.MatchString(name) {
			logger.Warn("invalid usermacro name, skipping",
				zap.String("host", host), zap.String("macro", name))
			continue
		}
		macros = append(macros, zabbix.Macro{
			Macro: name,
			Value: value,
			Type:  zabbix.MacroTypeText,
		})
	}
	return macros
}

// contextMacros reads zabbix.usermacros from the config context. Entries may
// be a plain string value or a dict with value, type and description keys.
func contextMacros(obj *netbox.Object, host string, logger *zap.Logger) []zabbix.Macro {
	context := obj.ConfigContext()
	if context == nil {
		return nil
	}
	section, ok := context["zabbix"].(map[string]any)
	if !ok {
		return nil
	}
	raw, ok := section["usermacros"].(map[string]any)
	if !ok {
		return nil
	}

	var macros []zabbix.Macro
	for name, entry := range raw {
		if !macroNamePattern.MatchString(name) {
			logger.Warn("invalid usermacro name in config context, skipping",
				zap.String("host", host), zap.String("macro", name))
			continue
		}
		macro := zabbix.Macro{Macro: name, Type: zabbix.MacroTypeText}
		switch v := entry.(type) {
		case string:
			macro.Value = v
		case map[string]any:
			macro.Value = utils.ToString(v["value"])
			if kind, ok := v["type"]; ok {
				macro.Type = macroType(utils.ToString(kind))
			}
			macro.Description = utils.ToString(v["description"])
		default:
			logger.Warn("unsupported usermacro entry in config context, skipping",
				zap.String("host", host), zap.String("macro", name))
			continue
		}
		macros = append(macros, macro)
	}
	return macros
}

func macroType(kind string) string {
	switch kind {
	case "secret", zabbix.MacroTypeSecret:
		return zabbix.MacroTypeSecret
	case "vault", zabbix.MacroTypeVault:
		return zabbix.MacroTypeVault
	default:
		return zabbix.MacroTypeText
	}
}
