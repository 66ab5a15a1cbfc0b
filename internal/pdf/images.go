package pdf

import (
	"sort"

	lpdf "github.com/ledongthuc/pdf"

	"github.com/spherical/docconv/internal/domain"
)

// maxFormDepth bounds recursion through nested form XObjects.
const maxFormDepth = 8

// imageRefs lists image XObjects reachable from a resource dictionary,
// including those drawn by form XObjects.
func imageRefs(resources lpdf.Value, depth int) []domain.ImageRef {
	xobjects := resources.Key("XObject")
	if xobjects.Kind() != lpdf.Dict {
		return nil
	}

	names := xobjects.Keys()
	sort.Strings(names)

	var refs []domain.ImageRef
	for _, name := range names {
		obj := xobjects.Key(name)
		switch obj.Key("Subtype").Name() {
		case "Image":
			refs = append(refs, domain.ImageRef{
				Name:   name,
				Width:  int(obj.Key("Width").Int64()),
				Height: int(obj.Key("Height").Int64()),
			})
		case "Form":
			if depth < maxFormDepth {
				refs = append(refs, imageRefs(obj.Key("Resources"), depth+1)...)
			}
		}
	}
	return refs
}
