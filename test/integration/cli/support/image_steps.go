package support

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"

	"github.com/MeKo-Tech/notescan/internal/testutil"
	"github.com/MeKo-Tech/notescan/internal/utils"
	"github.com/cucumber/godog"
)

// coverScene is a 1280x720 camera frame with the cover well inside it.
func coverScene() testutil.SceneConfig {
	sc := testutil.DefaultScene()
	sc.Width, sc.Height = 720, 1280
	sc.Document = image.Rect(160, 240, 560, 906)
	return sc
}

func cornerFlag(pts []utils.Point) string {
	parts := make([]string, len(pts))
	for i, p := range pts {
		parts[i] = fmt.Sprintf("%g,%g", p.X, p.Y)
	}
	return strings.Join(parts, ";")
}

// aNotebookPhoto writes a portrait photo and exposes {photo}, {corners}
// and {frame_size} (the photo size in landscape order, so no rescale).
func (testCtx *TestContext) aNotebookPhoto() error {
	sc := testutil.DefaultScene()
	path := testCtx.Path("photo.png")
	if err := utils.SaveImage(path, sc.Portrait(), 95); err != nil {
		return err
	}
	testCtx.Vars["photo"] = path
	testCtx.Vars["corners"] = cornerFlag(sc.Corners())
	testCtx.Vars["frame_size"] = fmt.Sprintf("%dx%d", sc.Height, sc.Width)
	return nil
}

// aNotebookPhotoWithMarkedIcon inks one icon segment on the bottom strip.
// The strip sits in the bottom 6% of the cover, shifted 10px right for a
// left-side QR code; segment 5 spans x 206..224 on the default scene.
func (testCtx *TestContext) aNotebookPhotoWithMarkedIcon() error {
	sc := testutil.DefaultScene()
	img := sc.Portrait()
	testutil.Fill(img, image.Rect(210, 415, 220, 440), testutil.Ink)
	path := testCtx.Path("marked.png")
	if err := utils.SaveImage(path, img, 95); err != nil {
		return err
	}
	testCtx.Vars["photo"] = path
	testCtx.Vars["corners"] = cornerFlag(sc.Corners())
	testCtx.Vars["frame_size"] = fmt.Sprintf("%dx%d", sc.Height, sc.Width)
	return nil
}

func (testCtx *TestContext) aCameraFrameWithACover() error {
	path := testCtx.Path("frame.png")
	if err := utils.SaveImage(path, coverScene().Landscape(), 95); err != nil {
		return err
	}
	testCtx.Vars["frame"] = path
	return nil
}

func (testCtx *TestContext) aBlankCameraFrame() error {
	path := testCtx.Path("blank.png")
	if err := utils.SaveImage(path, testutil.Flat(1280, 720, testutil.Background), 95); err != nil {
		return err
	}
	testCtx.Vars["frame"] = path
	return nil
}

func (testCtx *TestContext) aDirectoryOfRecordedFrames(n int) error {
	dir := testCtx.Path("frames")
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return err
	}
	img := coverScene().Landscape()
	for i := range n {
		if err := utils.SaveImage(filepath.Join(dir, fmt.Sprintf("frame-%03d.png", i)), img, 95); err != nil {
			return err
		}
	}
	testCtx.Vars["frames"] = dir
	return nil
}

// RegisterImageSteps registers the synthetic input fixtures.
func (testCtx *TestContext) RegisterImageSteps(sc *godog.ScenarioContext) {
	sc.Step(`^a notebook photo$`, testCtx.aNotebookPhoto)
	sc.Step(`^a notebook photo with the fifth icon marked$`, testCtx.aNotebookPhotoWithMarkedIcon)
	sc.Step(`^a camera frame with a notebook cover$`, testCtx.aCameraFrameWithACover)
	sc.Step(`^a blank camera frame$`, testCtx.aBlankCameraFrame)
	sc.Step(`^a directory of (\d+) recorded frames$`, testCtx.aDirectoryOfRecordedFrames)
}
