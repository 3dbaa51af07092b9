package converters

import (
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"github.com/spaghettifunk/escargot/exporter/escn"
	"github.com/spaghettifunk/escargot/exporter/scene"
)

// ExportMaterial registers a SpatialMaterial sub-resource for the data
// block and returns a reference to it. Properties are emitted in sorted
// key order: the canonical order must not depend on how the authoring
// tool happens to iterate material slots.
func ExportMaterial(ctx *Context, mat *scene.Material) (escn.SubResourceRef, error) {
	key := escn.ResourceKey{Kind: "SpatialMaterial", ID: mat.ID}
	id, err := ctx.File.RegisterInternalResource(key, func() (*escn.InternalResource, error) {
		props := map[string]interface{}{
			"albedo_color": escn.Color(mat.BaseColor),
			"metallic":     mat.Metallic,
			"roughness":    mat.Roughness,
		}
		if mat.Emission != [3]float32{} {
			props["emission"] = escn.Color{mat.Emission[0], mat.Emission[1], mat.Emission[2], 1}
			props["emission_enabled"] = true
		}
		if mat.DoubleSided {
			// 2 == cull disabled
			props["params_cull_mode"] = 2
		}
		if mat.Unshaded {
			props["flags_unshaded"] = true
		}
		if mat.Transparent {
			props["flags_transparent"] = true
		}
		if mat.BaseColorImage != nil {
			ref, err := ExportImage(ctx, mat.BaseColorImage)
			if err != nil {
				return nil, err
			}
			props["albedo_texture"] = ref
		}

		res := escn.NewInternalResource("SpatialMaterial", mat.Name)
		keys := maps.Keys(props)
		slices.Sort(keys)
		for _, k := range keys {
			res.Set(k, props[k])
		}
		return res, nil
	})
	return escn.SubResourceRef(id), err
}
