package authority

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/Bboy9090/Bobbys-World-Tools-sub004/internal/model"
)

// RouteConfig is the YAML form of one route.
type RouteConfig struct {
	Pattern              string            `yaml:"pattern"`
	Domain               string            `yaml:"domain"`
	Category             string            `yaml:"category"`
	Roles                []string          `yaml:"roles"`
	RequiresDevice       bool              `yaml:"requires_device"`
	RequiresConfirmation bool              `yaml:"requires_confirmation"`
	Handoff              string            `yaml:"handoff"`
	Conditions           []string          `yaml:"conditions"`
	Metadata             map[string]string `yaml:"metadata"`
}

// TableConfig is the YAML route table document.
type TableConfig struct {
	Routes []RouteConfig `yaml:"routes"`
}

// Build converts a config route into a runtime Route.
func (rc RouteConfig) Build() (Route, error) {
	matcher, err := ParseMatcher(rc.Pattern)
	if err != nil {
		return Route{}, err
	}

	route := Route{
		Pattern:              matcher,
		Domain:               rc.Domain,
		Category:             model.Category(rc.Category),
		RequiresDevice:       rc.RequiresDevice,
		RequiresConfirmation: rc.RequiresConfirmation,
		Handoff:              rc.Handoff,
		Metadata:             rc.Metadata,
	}

	for _, name := range rc.Roles {
		role, ok := model.ParseRole(name)
		if !ok {
			return Route{}, fmt.Errorf("route %q: unknown role %q", rc.Pattern, name)
		}
		route.Roles = append(route.Roles, role)
	}

	for _, s := range rc.Conditions {
		cond, err := ParseCondition(s)
		if err != nil {
			return Route{}, fmt.Errorf("route %q: %w", rc.Pattern, err)
		}
		route.Conditions = append(route.Conditions, cond)
	}

	return route, nil
}

// LoadRoutes loads a route table from a YAML file and returns the routes
// with the sha256 hash of the raw config bytes. Empty path falls back to
// ~/.powergate/routes.yaml. A missing file returns the built-in table
// with an empty hash. Invalid YAML or an invalid route returns an error.
func LoadRoutes(path string) ([]Route, string, error) {
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return DefaultRoutes(), "", nil
		}
		path = filepath.Join(home, ".powergate", "routes.yaml")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultRoutes(), "", nil
		}
		return nil, "", fmt.Errorf("failed to read route config: %w", err)
	}

	h := sha256.Sum256(data)
	hash := "sha256:" + hex.EncodeToString(h[:])

	var cfg TableConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, "", fmt.Errorf("failed to parse route config: %w", err)
	}

	routes := make([]Route, 0, len(cfg.Routes))
	for _, rc := range cfg.Routes {
		route, err := rc.Build()
		if err != nil {
			return nil, "", err
		}
		routes = append(routes, route)
	}

	return routes, hash, nil
}

// Reload loads the route config at path and swaps it into the router.
func (r *Router) Reload(path string) error {
	routes, hash, err := LoadRoutes(path)
	if err != nil {
		return err
	}
	r.Replace(routes, hash)
	return nil
}

// DefaultRoutes returns the built-in route table. Order is priority.
func DefaultRoutes() []Route {
	flashPattern, _ := Pattern(`flash\.(boot|recovery|system|vendor|partition)`)
	diagPattern, _ := Pattern(`device\.(info|battery|props|logcat)`)

	return []Route{
		{
			Pattern:        diagPattern,
			Domain:         "workbench",
			Category:       model.CategoryDiagnostics,
			Roles:          []model.Role{model.RoleOwner, model.RoleAdmin, model.RoleTechnician, model.RoleViewer},
			RequiresDevice: true,
		},
		{
			Pattern:        Exact("backup.create"),
			Domain:         "workbench",
			Category:       model.CategoryBackup,
			Roles:          []model.Role{model.RoleOwner, model.RoleAdmin, model.RoleTechnician},
			RequiresDevice: true,
		},
		{
			Pattern:              Exact("backup.restore"),
			Domain:               "workbench",
			Category:             model.CategoryRestore,
			Roles:                []model.Role{model.RoleOwner, model.RoleAdmin, model.RoleTechnician},
			RequiresDevice:       true,
			RequiresConfirmation: true,
		},
		{
			Pattern:              flashPattern,
			Domain:               "bootforge",
			Category:             model.CategoryDestructive,
			Roles:                []model.Role{model.RoleOwner, model.RoleAdmin},
			RequiresDevice:       true,
			RequiresConfirmation: true,
			Conditions:           []Condition{{Type: CondDeviceModeEquals, Value: "fastboot"}},
		},
		{
			Pattern:              Exact("bootloader.unlock"),
			Domain:               "bootforge",
			Category:             model.CategoryDestructive,
			Roles:                []model.Role{model.RoleOwner, model.RoleAdmin},
			RequiresDevice:       true,
			RequiresConfirmation: true,
			Conditions:           []Condition{{Type: CondDeviceModeEquals, Value: "fastboot"}},
		},
		{
			Pattern:              Exact("factory.reset"),
			Domain:               "bootforge",
			Category:             model.CategoryDestructive,
			Roles:                []model.Role{model.RoleOwner, model.RoleAdmin},
			RequiresDevice:       true,
			RequiresConfirmation: true,
		},
		{
			Pattern:              Exact("frp.remove"),
			Domain:               "bootforge",
			Category:             model.CategoryDestructive,
			Roles:                []model.Role{model.RoleOwner},
			RequiresDevice:       true,
			RequiresConfirmation: true,
			Conditions:           []Condition{{Type: CondOperatorVerified}},
		},
		{
			Pattern:  Exact("codex.roles"),
			Domain:   "codex",
			Category: model.CategoryAdministrative,
			Roles:    []model.Role{model.RoleOwner, model.RoleAdmin},
		},
		// Trapdoor: maintenance domain, inert unless the session carries
		// the maintenance flag and the operator is verified.
		{
			Pattern:              Exact("maintenance.unlock"),
			Domain:               "trapdoor",
			Category:             model.CategoryAdministrative,
			Roles:                []model.Role{model.RoleOwner, model.RoleAdmin},
			RequiresConfirmation: true,
			Conditions: []Condition{
				{Type: CondSessionFlagSet, Value: "maintenance"},
				{Type: CondOperatorVerified},
			},
			Metadata: map[string]string{MetaNoCache: "true", MetaEphemeral: "true"},
		},
	}
}

// DefaultConfigYAML returns a commented route table for init-routes.
func DefaultConfigYAML() string {
	return `# powergate route table
# Generated by: powergate init-routes
#
# Routes are evaluated in order; the first pattern match wins.
# Fields:
#   pattern: exact operation name, or "regex:" prefix for a pattern
#   domain: authority domain that executes the operation once granted
#   category: diagnostics | safe | backup | restore | destructive | administrative
#   roles: roles allowed to use the route
#   requires_device: route needs a device descriptor on the request
#   requires_confirmation: route always needs a power star
#   handoff: optional domain that takes over after authorization
#   conditions: contextual gates, all must hold
#     device_mode_equals=<mode> | session_flag_set=<flag> |
#     operator_verified | device_connected
#   metadata: free-form; no_cache=true disables decision caching

routes:
  - pattern: "regex:device\\.(info|battery|props|logcat)"
    domain: workbench
    category: diagnostics
    roles: [owner, admin, technician, viewer]
    requires_device: true

  - pattern: backup.create
    domain: workbench
    category: backup
    roles: [owner, admin, technician]
    requires_device: true

  - pattern: backup.restore
    domain: workbench
    category: restore
    roles: [owner, admin, technician]
    requires_device: true
    requires_confirmation: true

  - pattern: "regex:flash\\.(boot|recovery|system|vendor|partition)"
    domain: bootforge
    category: destructive
    roles: [owner, admin]
    requires_device: true
    requires_confirmation: true
    conditions: [device_mode_equals=fastboot]

  - pattern: bootloader.unlock
    domain: bootforge
    category: destructive
    roles: [owner, admin]
    requires_device: true
    requires_confirmation: true
    conditions: [device_mode_equals=fastboot]

  - pattern: factory.reset
    domain: bootforge
    category: destructive
    roles: [owner, admin]
    requires_device: true
    requires_confirmation: true

  - pattern: frp.remove
    domain: bootforge
    category: destructive
    roles: [owner]
    requires_device: true
    requires_confirmation: true
    conditions: [operator_verified]

  - pattern: codex.roles
    domain: codex
    category: administrative
    roles: [owner, admin]

  - pattern: maintenance.unlock
    domain: trapdoor
    category: administrative
    roles: [owner, admin]
    requires_confirmation: true
    conditions: [session_flag_set=maintenance, operator_verified]
    metadata:
      no_cache: "true"
      ephemeral: "true"
`
}
