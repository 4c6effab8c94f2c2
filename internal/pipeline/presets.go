package pipeline

import "fmt"

// Preset defines a named workflow template with pre-configured settings.
type Preset struct {
	Name        string
	Description string
	Stages      []string // which stages to run
}

// builtinPresets is the registry of all known presets.
var builtinPresets = map[string]Preset{
	"full": {
		Name:        "full",
		Description: "Complete pipeline — enumeration, liveness, JS mining, payload probing, archive lookup, report",
		Stages:      []string{"enumerate", "liveness", "jsendpoints", "vulnprobe", "wayback", "report"},
	},
	"surface-map": {
		Name:        "surface-map",
		Description: "Attack-surface mapping only — no payload probing",
		Stages:      []string{"enumerate", "liveness", "jsendpoints", "wayback", "report"},
	},
	"probe-only": {
		Name:        "probe-only",
		Description: "Liveness plus payload probing — skips endpoint harvesting",
		Stages:      []string{"enumerate", "liveness", "vulnprobe", "report"},
	},
}

// BuiltinPresets returns the available preset templates.
func BuiltinPresets() map[string]Preset {
	// Return a copy so callers cannot mutate the registry.
	out := make(map[string]Preset, len(builtinPresets))
	for k, v := range builtinPresets {
		out[k] = v
	}
	return out
}

// GetPreset returns a preset by name, or an error if not found.
func GetPreset(name string) (*Preset, error) {
	p, ok := builtinPresets[name]
	if !ok {
		return nil, fmt.Errorf("unknown preset %q — available: full, surface-map, probe-only", name)
	}
	cp := p
	return &cp, nil
}
