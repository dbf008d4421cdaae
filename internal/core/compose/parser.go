package compose

import (
	"context"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/compose-spec/compose-go/v2/loader"
	"github.com/compose-spec/compose-go/v2/types"
	"gopkg.in/yaml.v3"
)

// defaultProjectName is used when the caller has no COMPOSE_PROJECT_NAME.
const defaultProjectName = "uniform-check"

// LoadOptions carry what the compose tool itself would see when invoked
// for a component.
type LoadOptions struct {
	ProjectName string            // COMPOSE_PROJECT_NAME
	Filename    string            // reported in errors only
	WorkingDir  string            // directory of the compose file
	Environment map[string]string // interpolation environment
}

// =============================================================================
// Parser Functions
// =============================================================================

// ParseComposeSpec parses compose YAML into a ParsedSpec, interpolating
// ${VAR} references against opts.Environment.
// This is a pure function - no I/O, no side effects.
func ParseComposeSpec(yamlContent string, opts LoadOptions) (*ParsedSpec, error) {
	// Input validation
	if strings.TrimSpace(yamlContent) == "" {
		return nil, ErrEmptyInput
	}

	project, err := loadComposeSpec(yamlContent, opts)
	if err != nil {
		return nil, err
	}

	if len(project.Services) == 0 {
		return nil, ErrNoServices
	}

	spec := &ParsedSpec{
		Name:     project.Name,
		Services: make([]Service, 0, len(project.Services)),
	}

	for _, svc := range project.Services {
		converted, err := convertService(svc)
		if err != nil {
			return nil, err
		}
		spec.Services = append(spec.Services, converted)
	}
	slices.SortFunc(spec.Services, func(a, b Service) int {
		return strings.Compare(a.Name, b.Name)
	})

	if err := detectCircularDependencies(spec.Services); err != nil {
		return nil, err
	}

	if err := validatePorts(spec.Services); err != nil {
		return nil, err
	}

	for name := range project.Networks {
		spec.Networks = append(spec.Networks, name)
	}
	slices.Sort(spec.Networks)

	for name := range project.Volumes {
		spec.Volumes = append(spec.Volumes, name)
	}
	slices.Sort(spec.Volumes)

	return spec, nil
}

// loadComposeSpec loads a compose file using compose-go
func loadComposeSpec(yamlContent string, opts LoadOptions) (*types.Project, error) {
	// Parse YAML into a map first
	var dict map[string]interface{}
	if err := yaml.Unmarshal([]byte(yamlContent), &dict); err != nil {
		return nil, NewParseError(opts.Filename, "invalid YAML syntax", ErrInvalidYAML)
	}
	if dict == nil {
		return nil, NewParseError(opts.Filename, "invalid YAML syntax", ErrInvalidYAML)
	}

	env := types.Mapping{}
	for k, v := range opts.Environment {
		env[k] = v
	}

	project, err := loader.LoadWithContext(context.Background(), types.ConfigDetails{
		WorkingDir: opts.WorkingDir,
		ConfigFiles: []types.ConfigFile{
			{
				Filename: opts.Filename,
				Content:  []byte(yamlContent),
				Config:   dict,
			},
		},
		Environment: env,
	}, func(o *loader.Options) {
		o.SetProjectName(sanitizeProjectName(opts.ProjectName), true)
		o.SkipValidation = false
		o.SkipInterpolation = false
		// Nothing outside the given content is read
		o.SkipNormalization = true
		o.SkipExtends = true
		o.SkipInclude = true
		o.SkipResolveEnvironment = true
	})
	if err != nil {
		errStr := err.Error()
		if strings.Contains(errStr, "dependency cycle detected") {
			return nil, NewParseError(opts.Filename, "circular dependency detected", ErrCircularDependency)
		}
		return nil, NewParseError(opts.Filename, errStr, ErrInvalidYAML)
	}

	return project, nil
}

// sanitizeProjectName maps name onto the character set compose accepts
// for project names: lowercase letters, digits, dashes and underscores.
func sanitizeProjectName(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-' || r == '_' {
			b.WriteRune(r)
		}
	}
	out := strings.TrimLeft(b.String(), "-_")
	if out == "" {
		return defaultProjectName
	}
	return out
}

// convertService converts a compose-go service to our Service type
func convertService(svc types.ServiceConfig) (Service, error) {
	service := Service{
		Name:          svc.Name,
		Image:         svc.Image,
		ContainerName: svc.ContainerName,
		WorkingDir:    svc.WorkingDir,
		User:          svc.User,
		Environment:   make(map[string]string),
		DependsOn:     make([]string, 0, len(svc.DependsOn)),
	}

	if svc.Build != nil {
		service.Build = svc.Build.Context
		if service.Build == "" {
			service.Build = "."
		}
	}

	// Validate image or build
	if service.Image == "" && svc.Build == nil {
		return Service{}, NewParseError("services."+svc.Name, "service must have image or build", ErrServiceNoImage)
	}

	// Ports
	for _, p := range svc.Ports {
		var published uint32
		if p.Published != "" {
			pub, err := strconv.ParseUint(p.Published, 10, 32)
			if err == nil {
				published = uint32(pub)
			}
		}
		service.Ports = append(service.Ports, Port{
			Target:    p.Target,
			Published: published,
			Protocol:  p.Protocol,
			HostIP:    p.HostIP,
		})
	}

	// Environment
	for k, v := range svc.Environment {
		if v != nil {
			service.Environment[k] = *v
		}
	}

	// DependsOn
	for dep := range svc.DependsOn {
		service.DependsOn = append(service.DependsOn, dep)
	}
	slices.Sort(service.DependsOn)

	return service, nil
}

// detectCircularDependencies detects circular dependencies in service dependencies
func detectCircularDependencies(services []Service) error {
	// Build adjacency list
	deps := make(map[string][]string)
	for _, svc := range services {
		deps[svc.Name] = svc.DependsOn
	}

	// Track visited and recursion stack for DFS
	visited := make(map[string]bool)
	recStack := make(map[string]bool)

	var hasCycle func(node string) bool
	hasCycle = func(node string) bool {
		visited[node] = true
		recStack[node] = true

		for _, dep := range deps[node] {
			if dep == node {
				return true
			}
			if !visited[dep] {
				if hasCycle(dep) {
					return true
				}
			} else if recStack[dep] {
				return true
			}
		}

		recStack[node] = false
		return false
	}

	for _, svc := range services {
		if !visited[svc.Name] {
			if hasCycle(svc.Name) {
				return ErrCircularDependency
			}
		}
	}

	return nil
}

// validatePorts validates all port configurations
func validatePorts(services []Service) error {
	for _, svc := range services {
		for i, port := range svc.Ports {
			field := "services." + svc.Name + ".ports[" + strconv.Itoa(i) + "]"
			if port.Target == 0 {
				return NewParseError(field, "target port cannot be 0", ErrServiceInvalidPort)
			}
			if port.Target > 65535 {
				return NewParseError(field, "target port must be <= 65535", ErrServiceInvalidPort)
			}
			if port.Published > 65535 {
				return NewParseError(field, "published port must be <= 65535", ErrServiceInvalidPort)
			}
		}
	}
	return nil
}

// RequireService returns ErrServiceNotFound when spec has no service name.
func RequireService(spec *ParsedSpec, name string) error {
	if _, ok := spec.Service(name); !ok {
		return NewParseError("services."+name, "not defined, have "+strings.Join(spec.ServiceNames(), ", "), ErrServiceNotFound)
	}
	return nil
}

// =============================================================================
// Variable Extraction
// =============================================================================

// variablePlaceholderRegex matches ${VAR}, ${VAR:-default}, ${VAR-default},
// ${VAR:?err} and ${VAR:+alt}. Group 2 holds the modifier, if any.
var variablePlaceholderRegex = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(:?[-?+][^}]*)?\}`)

// ExtractVariablesFromYAML returns the unique variable names referenced in
// raw compose YAML, before interpolation, in order of first appearance.
func ExtractVariablesFromYAML(yamlContent string) []string {
	seen := make(map[string]bool)
	var vars []string

	for _, match := range variablePlaceholderRegex.FindAllStringSubmatch(yamlContent, -1) {
		name := match[1]
		if !seen[name] {
			seen[name] = true
			vars = append(vars, name)
		}
	}

	return vars
}

// MissingVariables returns the variables referenced without a default or
// alternative that env does not define. Such references interpolate to
// an empty string.
func MissingVariables(yamlContent string, env map[string]string) []string {
	seen := make(map[string]bool)
	var missing []string

	for _, match := range variablePlaceholderRegex.FindAllStringSubmatch(yamlContent, -1) {
		name, modifier := match[1], match[2]
		if modifier != "" || seen[name] {
			continue
		}
		seen[name] = true
		if _, ok := env[name]; !ok {
			missing = append(missing, name)
		}
	}

	return missing
}
