package zabbix

import "strings"

const redactedValue = "********"

// snmpSecretDetails are the interface detail fields that may carry
// credentials.
var snmpSecretDetails = map[string]struct{}{
	"authpassphrase": {},
	"privpassphrase": {},
	"securityname":   {},
	"community":      {},
}

// RedactHostParams returns a copy of a host create/update payload that is
// safe to log: secret macro values are masked and the interface ID is
// dropped since it carries no diagnostic value.
func RedactHostParams(params map[string]any) map[string]any {
	out := make(map[string]any, len(params))
	for k, v := range params {
		out[k] = v
	}
	if raw, ok := out["macros"]; ok {
		if macros, ok := raw.([]Macro); ok {
			masked := make([]Macro, len(macros))
			copy(masked, macros)
			for i := range masked {
				if masked[i].Type == MacroTypeSecret {
					masked[i].Value = redactedValue
				}
			}
			out["macros"] = masked
		}
	}
	delete(out, "interfaceid")
	if raw, ok := out["interfaces"]; ok {
		if ifaces, ok := raw.([]Interface); ok {
			masked := make([]Interface, len(ifaces))
			copy(masked, ifaces)
			for i := range masked {
				if len(masked[i].Details) > 0 {
					masked[i].Details = RedactInterfaceDetails(masked[i].Details)
				}
			}
			out["interfaces"] = masked
		}
	}
	if raw, ok := out["details"]; ok {
		switch details := raw.(type) {
		case map[string]string:
			out["details"] = RedactInterfaceDetails(details)
		case StringMap:
			out["details"] = RedactInterfaceDetails(details)
		}
	}
	return out
}

// RedactInterfaceDetails masks SNMP credential fields unless the value is a
// macro reference, which is not sensitive by itself.
func RedactInterfaceDetails(details map[string]string) map[string]string {
	out := make(map[string]string, len(details))
	for k, v := range details {
		if _, secret := snmpSecretDetails[k]; secret {
			if !(strings.HasPrefix(v, "{$") && strings.HasSuffix(v, "}")) {
				out[k] = redactedValue
				continue
			}
		}
		out[k] = v
	}
	return out
}
