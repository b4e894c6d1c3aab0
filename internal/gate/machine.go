package gate

import (
	"net"
	"os"
	"strings"
)

// envAuthorizedMachines lists the machine identities (hostnames or MAC
// addresses, comma-separated) allowed to run the gate. An empty or
// unset list is development mode: every machine is allowed.
const envAuthorizedMachines = "POWERGATE_AUTHORIZED_MACHINES"

// MachineAuthorized checks the local machine against the allowlist.
// It returns the matched identity for audit purposes; in development
// mode the identity is "dev-mode".
func MachineAuthorized() (bool, string) {
	raw := os.Getenv(envAuthorizedMachines)
	allowed := parseAllowlist(raw)
	if len(allowed) == 0 {
		return true, "dev-mode"
	}

	for _, id := range localIdentities() {
		if allowed[id] {
			return true, id
		}
	}
	return false, ""
}

// parseAllowlist normalizes the comma-separated allowlist: lowercase,
// trimmed, MAC-style separators unified to colons.
func parseAllowlist(raw string) map[string]bool {
	out := make(map[string]bool)
	for _, part := range strings.Split(raw, ",") {
		id := normalizeIdentity(part)
		if id != "" {
			out[id] = true
		}
	}
	return out
}

// localIdentities gathers this machine's hostname and the MAC address
// of every non-loopback interface.
func localIdentities() []string {
	var out []string
	if host, err := os.Hostname(); err == nil {
		out = append(out, normalizeIdentity(host))
	}
	ifaces, err := net.Interfaces()
	if err != nil {
		return out
	}
	for _, iface := range ifaces {
		if iface.Flags&net.FlagLoopback != 0 || len(iface.HardwareAddr) == 0 {
			continue
		}
		out = append(out, normalizeIdentity(iface.HardwareAddr.String()))
	}
	return out
}

// normalizeIdentity lowercases an identity and, for MAC addresses
// written with dashes, rewrites the separators to colons. Hostnames
// keep their hyphens.
func normalizeIdentity(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if hw, err := net.ParseMAC(s); err == nil {
		return hw.String()
	}
	return s
}
