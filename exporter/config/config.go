package config

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// Config holds every knob of one export invocation. The zero value is not
// usable; start from Default and override, or load a TOML file on top of
// the defaults with Load.
type Config struct {
	// Object kinds included in the export. Kinds not listed here are
	// filtered out before traversal.
	ObjectTypes []string `toml:"object_types"`
	// Export only objects carrying the selection flag.
	UseExportSelected bool `toml:"use_export_selected"`
	// Skip objects whose visibility flag is off.
	UseVisibleOnly bool `toml:"use_visible_only"`
	// Apply mesh modifiers before generating surface arrays. Part of the
	// mesh resource dedup key: the same mesh data with and without
	// modifiers yields two resources.
	UseMeshModifiers bool `toml:"use_mesh_modifiers"`
	// Export shape keys as blend shapes.
	UseExportShapeKey bool `toml:"use_export_shape_key"`
	// Leave non-deforming control bones out of exported skeletons.
	UseExcludeCtrlBone bool `toml:"use_exclude_ctrl_bone"`
	// Give every animated object its own AnimationPlayer instead of
	// reusing the closest existing one.
	UseSeparateAnimationPlayer bool `toml:"use_separate_animation_player"`

	// Decimal digits for float formatting. Negative means shortest
	// round-trip form. This value is part of the output contract: the
	// regression diff depends on it.
	FloatPrecision int `toml:"float_precision"`
	// Up axis of the authoring scene ("Z") and of the target engine
	// ("Y"). Pinned here rather than hardcoded so the basis change is
	// explicit configuration.
	SourceUpAxis string `toml:"source_up_axis"`
	TargetUpAxis string `toml:"target_up_axis"`

	// Directory all external resource paths are written relative to.
	// Defaults to the output document's directory.
	ProjectRoot string `toml:"project_root"`
}

// Default returns the configuration used when no TOML file is supplied.
func Default() *Config {
	return &Config{
		ObjectTypes: []string{
			"EMPTY", "MESH", "ARMATURE", "LIGHT", "CAMERA", "CURVE",
		},
		UseMeshModifiers:   true,
		UseExportShapeKey:  true,
		UseExcludeCtrlBone: true,
		FloatPrecision:     -1,
		SourceUpAxis:       "Z",
		TargetUpAxis:       "Y",
	}
}

// Load reads a TOML file over the default configuration.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	return cfg, nil
}

// ObjectTypeEnabled reports whether the given object kind survives the
// export filter.
func (c *Config) ObjectTypeEnabled(kind string) bool {
	for _, t := range c.ObjectTypes {
		if t == kind {
			return true
		}
	}
	return false
}
