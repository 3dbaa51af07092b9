package converters

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	// Register decoders for payload formats the stdlib doesn't cover.
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "image/gif"
	_ "image/jpeg"

	"github.com/spaghettifunk/escargot/exporter/core"
	"github.com/spaghettifunk/escargot/exporter/escn"
	"github.com/spaghettifunk/escargot/exporter/scene"
)

// ExportImage registers an external Texture resource for the image data
// block. Images that exist on disk are referenced in place; in-memory
// payloads are written beside the output document first. Every path in
// the document is relative to the project root and uses forward slashes
// regardless of host OS.
func ExportImage(ctx *Context, img *scene.Image) (escn.ExtResourceRef, error) {
	key := escn.ResourceKey{Kind: "Texture", ID: img.ID}
	id, err := ctx.File.RegisterExternalResource(key, func() (*escn.ExternalResource, error) {
		var onDisk string
		if img.URI != "" {
			onDisk = img.URI
		} else {
			path, err := writeImagePayload(ctx, img)
			if err != nil {
				return nil, err
			}
			onDisk = path
		}
		return escn.NewExternalResource(relativeResourcePath(ctx, onDisk), "Texture"), nil
	})
	return escn.ExtResourceRef(id), err
}

// relativeResourcePath rebases a file path onto the project root. Paths
// that escape the root are kept as given rather than leaking host
// directories through "..".
func relativeResourcePath(ctx *Context, path string) string {
	rel, err := filepath.Rel(ctx.ProjectRoot, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		rel = path
	}
	return filepath.ToSlash(rel)
}

// writeImagePayload unpacks an in-memory image next to the document and
// returns the written path. PNG and JPEG payloads are kept verbatim;
// anything else is re-encoded as PNG so the target can always load it.
func writeImagePayload(ctx *Context, img *scene.Image) (string, error) {
	data := img.Data
	ext := ""
	switch img.MimeType {
	case "image/png":
		ext = ".png"
	case "image/jpeg":
		ext = ".jpg"
	default:
		decoded, _, err := image.Decode(bytes.NewReader(data))
		if err != nil {
			return "", fmt.Errorf("image '%s': %v", img.Name, err)
		}
		var buf bytes.Buffer
		if err := png.Encode(&buf, decoded); err != nil {
			return "", fmt.Errorf("image '%s': %v", img.Name, err)
		}
		data = buf.Bytes()
		ext = ".png"
	}

	path := filepath.Join(ctx.OutputDir, ctx.uniqueFilename(sanitizeFilename(img.Name), ext))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("%w: %v", core.ErrOutputIO, err)
	}
	return path, nil
}

// uniqueFilename resolves name collisions among side-channel files the
// same way sibling nodes do: first free numeric suffix starting at 2.
func (ctx *Context) uniqueFilename(base, ext string) string {
	name := base + ext
	for i := 2; ctx.usedFilenames[name]; i++ {
		name = base + strconv.Itoa(i) + ext
	}
	ctx.usedFilenames[name] = true
	return name
}

func sanitizeFilename(name string) string {
	if name == "" {
		name = "image"
	}
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '_'
		}
		return r
	}, name)
}
