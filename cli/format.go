package cli

import (
	"fmt"

	"github.com/golang/geo/r3"

	"github.com/slicerar/arview/viewport"
)

func vecString(v r3.Vector) string {
	return fmt.Sprintf("(%g, %g, %g)", v.X, v.Y, v.Z)
}

func textureString(tex *viewport.Texture) string {
	if tex == nil {
		return "-"
	}
	size := tex.Image.Bounds().Size()
	return fmt.Sprintf("%s %dx%d", tex.SourceID, size.X, size.Y)
}
