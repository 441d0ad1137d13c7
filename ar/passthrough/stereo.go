// Package passthrough shows a pair of live camera frames behind a stereo view, one per eye.
package passthrough

import (
	"github.com/slicerar/arview/scene"
	"github.com/slicerar/arview/viewport"
)

// EyeSources names the volume nodes holding the left and right eye frames.
type EyeSources struct {
	Left  string
	Right string
}

// StereoFrame is an immutable snapshot of both eyes' images.
type StereoFrame struct {
	Sources EyeSources
	Left    *scene.ImageData
	Right   *scene.ImageData
}

// modifiedTimes returns the modification times of both eyes, zero for a missing image.
func (f StereoFrame) modifiedTimes() [2]uint64 {
	var times [2]uint64
	if f.Left != nil {
		times[0] = f.Left.ModifiedTime
	}
	if f.Right != nil {
		times[1] = f.Right.ModifiedTime
	}
	return times
}

// Complete reports whether both eyes have pixel data.
func (f StereoFrame) Complete() bool {
	return f.Left.HasPixelData() && f.Right.HasPixelData()
}

// Snapshot reads the current images of both eyes.
func Snapshot(s scene.Scene, eyes EyeSources) StereoFrame {
	return StereoFrame{
		Sources: eyes,
		Left:    volumeImage(s, eyes.Left),
		Right:   volumeImage(s, eyes.Right),
	}
}

func volumeImage(s scene.Scene, id string) *scene.ImageData {
	if id == "" {
		return nil
	}
	node, ok := s.Node(id)
	if !ok {
		return nil
	}
	vol, ok := node.(*scene.VolumeNode)
	if !ok {
		return nil
	}
	return vol.Image
}

// applyStereoBackground shows both eyes when both have a frame and turns the background off
// otherwise. It reports whether the background is on.
func applyStereoBackground(vp viewport.Viewport, frame StereoFrame) bool {
	if !frame.Complete() {
		vp.SetTexturedBackground(false)
		vp.SetLeftBackgroundTexture(nil)
		vp.SetRightBackgroundTexture(nil)
		return false
	}
	vp.SetTexturedBackground(true)
	vp.SetLeftBackgroundTexture(&viewport.Texture{SourceID: frame.Sources.Left, Image: frame.Left.Frame})
	vp.SetRightBackgroundTexture(&viewport.Texture{SourceID: frame.Sources.Right, Image: frame.Right.Frame})
	return true
}
