package authority

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Bboy9090/Bobbys-World-Tools-sub004/internal/model"
)

func TestParseMatcher(t *testing.T) {
	exact, err := ParseMatcher("flash.boot")
	if err != nil {
		t.Fatal(err)
	}
	if !exact.Matches("flash.boot") || exact.Matches("flash.boots") {
		t.Error("exact matcher must require full equality")
	}

	pattern, err := ParseMatcher(`regex:flash\..+`)
	if err != nil {
		t.Fatal(err)
	}
	if !pattern.Matches("flash.boot") {
		t.Error("pattern should match flash.boot")
	}
	if pattern.Matches("reflash.boot") {
		t.Error("patterns are anchored to the whole operation name")
	}

	if _, err := ParseMatcher("regex:("); err == nil {
		t.Error("invalid regex must be rejected")
	}
}

func TestParseCondition(t *testing.T) {
	cond, err := ParseCondition("device_mode_equals=fastboot")
	if err != nil {
		t.Fatal(err)
	}
	if cond.Type != CondDeviceModeEquals || cond.Value != "fastboot" {
		t.Errorf("unexpected condition: %+v", cond)
	}

	if _, err := ParseCondition("device_mode_equals"); err == nil {
		t.Error("valued condition without value must fail")
	}
	if _, err := ParseCondition("operator_verified=yes"); err == nil {
		t.Error("flag condition with value must fail")
	}
	if _, err := ParseCondition("quantum_entangled"); err == nil {
		t.Error("unknown condition type must fail")
	}
}

func TestLoadRoutesMissingFileUsesDefaults(t *testing.T) {
	routes, hash, err := LoadRoutes(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if hash != "" {
		t.Error("built-in table must report an empty hash")
	}
	if len(routes) != len(DefaultRoutes()) {
		t.Errorf("expected default table, got %d routes", len(routes))
	}
}

func TestLoadRoutesFromYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "routes.yaml")
	doc := `routes:
  - pattern: "regex:sideload\\..+"
    domain: bootforge
    category: destructive
    roles: [owner]
    requires_device: true
    requires_confirmation: true
    conditions: [device_mode_equals=recovery]
    metadata:
      no_cache: "true"
`
	if err := os.WriteFile(path, []byte(doc), 0644); err != nil {
		t.Fatal(err)
	}

	routes, hash, err := LoadRoutes(path)
	if err != nil {
		t.Fatal(err)
	}
	if hash == "" {
		t.Error("loaded config must carry a hash")
	}
	if len(routes) != 1 {
		t.Fatalf("expected 1 route, got %d", len(routes))
	}

	route := routes[0]
	if !route.Pattern.Matches("sideload.ota") {
		t.Error("pattern did not compile as expected")
	}
	if !route.NoCache() {
		t.Error("metadata no_cache lost in translation")
	}
	if len(route.Conditions) != 1 || route.Conditions[0].Type != CondDeviceModeEquals {
		t.Errorf("conditions not parsed: %+v", route.Conditions)
	}
	if route.Roles[0] != model.RoleOwner {
		t.Errorf("roles not parsed: %+v", route.Roles)
	}
}

func TestLoadRoutesRejectsUnknownRole(t *testing.T) {
	path := filepath.Join(t.TempDir(), "routes.yaml")
	doc := `routes:
  - pattern: x.y
    domain: workbench
    category: safe
    roles: [superuser]
`
	if err := os.WriteFile(path, []byte(doc), 0644); err != nil {
		t.Fatal(err)
	}

	if _, _, err := LoadRoutes(path); err == nil {
		t.Error("unknown role must be rejected at load time")
	}
}

func TestDefaultConfigYAMLRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "routes.yaml")
	if err := os.WriteFile(path, []byte(DefaultConfigYAML()), 0644); err != nil {
		t.Fatal(err)
	}

	routes, _, err := LoadRoutes(path)
	if err != nil {
		t.Fatalf("generated config must load cleanly: %v", err)
	}
	if len(routes) != len(DefaultRoutes()) {
		t.Errorf("generated config has %d routes, built-ins have %d", len(routes), len(DefaultRoutes()))
	}
}
