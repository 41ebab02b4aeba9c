package sync

import (
	"github.com/TheNetworkGuy/netbox-zabbix-sync/core/utils"
	"github.com/TheNetworkGuy/netbox-zabbix-sync/core/zabbix"
)

// defaultPorts maps interface types to their conventional ports.
var defaultPorts = map[string]string{
	zabbix.InterfaceTypeAgent: "10050",
	zabbix.InterfaceTypeSNMP:  "161",
	zabbix.InterfaceTypeIPMI:  "623",
	zabbix.InterfaceTypeJMX:   "12345",
}

// snmpV3Options are the SNMPv3 detail keys taken from config context; any
// other key in the snmp section is ignored for v3.
var snmpV3Options = []string{
	"securityname", "securitylevel", "authpassphrase",
	"privpassphrase", "authprotocol", "privprotocol", "contextname",
}

// ResolveInterface builds the desired host interface from the object's
// config context and primary IP. Without an interface_type in the context
// the interface defaults to SNMPv2 on port 161 with the community macro.
func ResolveInterface(context map[string]any, ip string) (zabbix.Interface, error) {
	iface := zabbix.Interface{
		Main:  "1",
		UseIP: "1",
		DNS:   "",
		IP:    ip,
	}

	section, _ := context["zabbix"].(map[string]any)
	rawType, hasType := section["interface_type"]
	if !hasType {
		iface.Type = zabbix.InterfaceTypeSNMP
		iface.Port = "161"
		iface.Details = zabbix.StringMap{
			"version":   "2",
			"community": "{$SNMP_COMMUNITY}",
			"bulk":      "1",
		}
		return iface, nil
	}

	iface.Type = utils.ToString(rawType)
	if rawPort, ok := section["interface_port"]; ok {
		iface.Port = utils.ToString(rawPort)
	} else {
		iface.Port = defaultPorts[iface.Type]
	}

	if iface.Type == zabbix.InterfaceTypeSNMP {
		details, err := snmpDetails(section)
		if err != nil {
			return zabbix.Interface{}, err
		}
		iface.Details = details
	}
	return iface, nil
}

func snmpDetails(section map[string]any) (zabbix.StringMap, error) {
	snmp, ok := section["snmp"].(map[string]any)
	if !ok {
		return nil, configErrorf("interface type is SNMP but no snmp parameters are provided in config context")
	}

	details := zabbix.StringMap{}
	if bulk, ok := snmp["bulk"]; ok {
		details["bulk"] = utils.ToString(bulk)
	} else {
		details["bulk"] = "1"
	}

	version := utils.ToString(snmp["version"])
	if version == "" {
		return nil, configErrorf("snmp version option is not defined in config context")
	}
	details["version"] = version

	switch version {
	case "1", "2":
		if community, ok := snmp["community"]; ok {
			details["community"] = utils.ToString(community)
		} else {
			details["community"] = "{$SNMP_COMMUNITY}"
		}
	case "3":
		for _, key := range snmpV3Options {
			if value, ok := snmp[key]; ok {
				details[key] = utils.ToString(value)
			}
		}
	default:
		return nil, configErrorf("unsupported snmp version %q", version)
	}
	return details, nil
}
