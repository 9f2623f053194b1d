package scan

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MeKo-Tech/notescan/internal/barcode"
	"github.com/MeKo-Tech/notescan/internal/imgproc"
	"github.com/MeKo-Tech/notescan/internal/mempool"
	"github.com/MeKo-Tech/notescan/internal/testutil"
	"github.com/MeKo-Tech/notescan/internal/utils"
)

func newScanner(t *testing.T, mutate ...func(*Config)) *Scanner {
	t.Helper()
	cfg := DefaultConfig()
	for _, m := range mutate {
		m(&cfg)
	}
	s, err := New(cfg)
	require.NoError(t, err)
	return s
}

func rect(w, h float64) []utils.Point {
	return []utils.Point{{X: 0, Y: 0}, {X: w, Y: 0}, {X: w, Y: h}, {X: 0, Y: h}}
}

func TestScan_FlatGrayPage(t *testing.T) {
	s := newScanner(t)
	res := s.Scan(context.Background(), Request{
		Image:       testutil.Gray(300, 500, 200),
		Corners:     rect(300, 500),
		FrameWidth:  500,
		FrameHeight: 300,
	})

	require.True(t, res.Success, res.Error)
	assert.NotEmpty(t, res.ID)
	assert.Equal(t, Day, res.Light)
	assert.Equal(t, 200, res.Brightness)
	assert.Equal(t, 12, res.Boost)
	// 300x500 unwarp, 1% trim to 294x490, then 1.5% / 8% bottom
	assert.Equal(t, 286, res.Width)
	assert.Equal(t, 444, res.Height)
	require.NotNil(t, res.Image)
	assert.Equal(t, image.Rect(0, 0, 286, 444), res.Image.Bounds())
	assert.Empty(t, res.SelectedIcons)
	assert.Len(t, res.DarkPixelRatios, 8)
	assert.Positive(t, res.Duration)
}

func TestCropBorder_BottomTrimStaysAtBottom(t *testing.T) {
	img := testutil.Gray(200, 100, 200)
	testutil.Fill(img, image.Rect(0, 0, 200, 10), testutil.Ink)
	testutil.Fill(img, image.Rect(0, 90, 200, 100), testutil.Ink)

	out := cropBorder(img, 0.05, 0, 0.2, 0)
	require.Equal(t, image.Rect(0, 0, 200, 75), out.Bounds())
	assert.Equal(t, testutil.Ink, out.NRGBAAt(0, 0), "top rows 5..9 are ink")
	assert.Equal(t, uint8(200), out.NRGBAAt(0, 74).R, "bottom ink band is trimmed")
}

func TestScan_KeepsLeftEdge(t *testing.T) {
	page := testutil.Gray(300, 500, 200)
	testutil.Fill(page, image.Rect(0, 0, 30, 500), testutil.Ink)

	res := newScanner(t).Scan(context.Background(), Request{
		Image:       page,
		Corners:     rect(300, 500),
		FrameWidth:  500,
		FrameHeight: 300,
	})
	require.True(t, res.Success, res.Error)
	assert.Equal(t, 286, res.Width)
	assert.Equal(t, 444, res.Height)
	assert.Less(t, res.Image.NRGBAAt(0, res.Height/2).R, uint8(100))
}

func TestScan_UnwarpMatchesCornerRectangle(t *testing.T) {
	s := newScanner(t, func(c *Config) {
		c.CropRatio, c.BorderRatio, c.BottomCropRatio = 0, 0, 0
	})
	res := s.Scan(context.Background(), Request{
		Image:       testutil.Gray(400, 600, 120),
		Corners:     rect(240, 400),
		FrameWidth:  600,
		FrameHeight: 400,
	})
	require.True(t, res.Success, res.Error)
	assert.Equal(t, 240, res.Width)
	assert.Equal(t, 400, res.Height)
	assert.Equal(t, Normal, res.Light)
}

func TestScan_RescalesFrameCornersToPhoto(t *testing.T) {
	s := newScanner(t, func(c *Config) {
		c.CropRatio, c.BorderRatio, c.BottomCropRatio = 0, 0, 0
	})
	// Corners live in the 360x640 rotated frame; the photo is twice as large.
	res := s.Scan(context.Background(), Request{
		Image:       testutil.Gray(720, 1280, 200),
		Corners:     rect(180, 300),
		FrameWidth:  640,
		FrameHeight: 360,
	})
	require.True(t, res.Success, res.Error)
	assert.Equal(t, 360, res.Width)
	assert.Equal(t, 600, res.Height)
}

func TestScan_DefaultFrameSize(t *testing.T) {
	s := newScanner(t, func(c *Config) {
		c.CropRatio, c.BorderRatio, c.BottomCropRatio = 0, 0, 0
	})
	res := s.Scan(context.Background(), Request{
		Image:   testutil.Gray(720, 1280, 200),
		Corners: rect(720, 1280),
	})
	require.True(t, res.Success, res.Error)
	assert.Equal(t, 720, res.Width)
	assert.Equal(t, 1280, res.Height)
}

func TestScan_SceneWithMarkedIcon(t *testing.T) {
	scene := testutil.DefaultScene()
	portrait := scene.Portrait()
	// slot 5 of the icon row when the QR code sits on the left
	testutil.Fill(portrait, image.Rect(210, 415, 220, 440), testutil.Ink)

	var buf bytes.Buffer
	require.NoError(t, utils.EncodeImage(&buf, imaging.Rotate90(portrait), "png", 0))

	s := newScanner(t)
	res := s.Scan(context.Background(), Request{
		Photo:       buf.Bytes(),
		Corners:     scene.Corners(),
		QRSide:      barcode.SideLeft,
		FrameWidth:  640,
		FrameHeight: 360,
	})

	require.True(t, res.Success, res.Error)
	assert.Equal(t, Day, res.Light)
	assert.Equal(t, []int{5}, res.SelectedIcons)
	assert.Equal(t, []string{"clover"}, res.IconNames)
	// a 10x25 mark in an 18x40 segment
	assert.InDelta(t, 250.0/720.0, res.DarkPixelRatios[5], 0.05)
}

func TestScan_Failures(t *testing.T) {
	s := newScanner(t)
	ctx := context.Background()

	tests := []struct {
		name string
		req  Request
		want string
	}{
		{
			name: "three corners",
			req:  Request{Image: testutil.Gray(100, 100, 200), Corners: rect(50, 50)[:3]},
			want: "exactly 4 corners required, got 3",
		},
		{
			name: "collapsed corners",
			req: Request{
				Image:   testutil.Gray(100, 100, 200),
				Corners: []utils.Point{{X: 5, Y: 5}, {X: 5, Y: 5}, {X: 5, Y: 5}, {X: 5, Y: 5}},
			},
			want: "degenerate document dimensions",
		},
		{
			name: "undecodable photo",
			req:  Request{Photo: []byte("not an image"), Corners: rect(50, 50)},
			want: "photo decode failed",
		},
		{
			name: "empty photo",
			req:  Request{Corners: rect(50, 50)},
			want: "empty photo",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := s.Scan(ctx, tt.req)
			assert.False(t, res.Success)
			assert.Nil(t, res.Image)
			assert.Contains(t, res.Error, tt.want)
			assert.NotEmpty(t, res.ID)
		})
	}
}

func TestScan_CancelledContext(t *testing.T) {
	s := newScanner(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res := s.Scan(ctx, Request{Image: testutil.Gray(100, 100, 200), Corners: rect(100, 100)})
	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "context canceled")
}

func TestScan_ReleasesPooledBuffers(t *testing.T) {
	s := newScanner(t)
	before := mempool.Outstanding()
	res := s.Scan(context.Background(), Request{
		Image:   testutil.Gray(200, 300, 180),
		Corners: rect(200, 300),
	})
	require.True(t, res.Success, res.Error)
	assert.Equal(t, before, mempool.Outstanding())
}

func TestError_Unwrap(t *testing.T) {
	err := stageErr("input", ErrCornerCount)
	var se *Error
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "input", se.Stage)
	assert.ErrorIs(t, err, ErrCornerCount)
	assert.Equal(t, "scan input: exactly 4 corners required", err.Error())
}

func TestClassifyStrip_SingleBlackSegment(t *testing.T) {
	strip := testutil.Gray(800, 50, 255)
	testutil.Fill(strip, image.Rect(300, 0, 400, 50), testutil.Ink)

	selected, ratios := DefaultIconConfig().ClassifyStrip(strip)

	assert.Equal(t, []int{3}, selected)
	require.Len(t, ratios, 8)
	for i, r := range ratios {
		if i == 3 {
			assert.InDelta(t, 1.0, r, 1e-9)
			continue
		}
		assert.InDelta(t, 0.0, r, 1e-9, "segment %d", i)
	}
}

func TestClassifyStrip_SelectThreshold(t *testing.T) {
	cfg := DefaultIconConfig()
	strip := testutil.Gray(80, 100, 255)
	// 10x100 segments: 5 dark pixels is exactly 0.5%, 4 is below
	testutil.Fill(strip, image.Rect(0, 0, 5, 1), testutil.Ink)
	testutil.Fill(strip, image.Rect(10, 0, 14, 1), testutil.Ink)

	selected, ratios := cfg.ClassifyStrip(strip)
	assert.Equal(t, []int{0}, selected)
	assert.InDelta(t, 0.005, ratios[0], 1e-9)
	assert.InDelta(t, 0.004, ratios[1], 1e-9)
}

func TestLayout(t *testing.T) {
	cfg := DefaultIconConfig()

	tests := []struct {
		name      string
		side      barcode.Side
		hasBounds bool
		wantLeft  int
	}{
		// 1000 wide: strip 750, centred at 125
		{"qr left", barcode.SideLeft, true, 135},
		{"qr left without bounds", barcode.SideLeft, false, 135},
		{"qr right with bounds", barcode.SideRight, true, 125 - 40 - 10},
		{"no qr", barcode.SideNone, false, 75},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := cfg.Layout(1000, 1500, tt.side, tt.hasBounds)
			assert.Equal(t, tt.wantLeft, l.Strip.Min.X)
			assert.Equal(t, 750, l.Strip.Dx())
			assert.Equal(t, 1500-90, l.Strip.Min.Y)
			require.Len(t, l.Segments, 8)
			assert.Equal(t, 93, l.Segments[0].Dx())
			assert.Equal(t, 750-7*93, l.Segments[7].Dx())
			assert.Equal(t, l.Strip.Max.X, l.Segments[7].Max.X)
		})
	}

	small := cfg.Layout(200, 300, barcode.SideLeft, false)
	assert.Equal(t, 40, small.Strip.Dy(), "strip height has a floor")
}

func TestRequest_QRPositioned(t *testing.T) {
	bounds := &barcode.Bounds{Left: 900, Top: 100, Width: 80, Height: 80}

	tests := []struct {
		name string
		req  Request
		want bool
	}{
		{"bounds and frame", Request{QRBounds: bounds, FrameWidth: 1280, FrameHeight: 720}, true},
		{"bounds without frame", Request{QRBounds: bounds}, false},
		{"bounds with partial frame", Request{QRBounds: bounds, FrameWidth: 1280}, false},
		{"frame without bounds", Request{FrameWidth: 1280, FrameHeight: 720}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.req.qrPositioned())
		})
	}
}

func TestResult_JSONRoundTrip(t *testing.T) {
	res := newScanner(t).Scan(context.Background(), Request{
		Image:       testutil.Gray(300, 500, 200),
		Corners:     rect(300, 500),
		FrameWidth:  500,
		FrameHeight: 300,
	})
	require.True(t, res.Success, res.Error)

	b, err := json.Marshal(res)
	require.NoError(t, err)
	var got Result
	require.NoError(t, json.Unmarshal(b, &got))
	assert.Equal(t, res.Light, got.Light)
	assert.Equal(t, res.DarkPixelRatios, got.DarkPixelRatios)
	assert.Equal(t, res.Width, got.Width)

	var l Light
	require.Error(t, json.Unmarshal([]byte(`"dusk"`), &l))
}

func TestDebugStripFrame(t *testing.T) {
	cfg := DefaultIconConfig()
	img := testutil.Gray(400, 600, 255)
	layout := cfg.Layout(400, 600, barcode.SideLeft, false)
	drawStripFrame(img, layout)

	red := img.NRGBAAt(layout.Segments[1].Min.X+1, layout.Strip.Min.Y+1)
	assert.Equal(t, stripFrameColor, red)
	// slot 0 stays unframed
	assert.Equal(t, uint8(255), img.NRGBAAt(layout.Segments[0].Min.X+2, layout.Strip.Min.Y+1).G)
}

func TestEstimateBrightness(t *testing.T) {
	tests := []struct {
		name   string
		lo, hi uint8
		want   int
	}{
		{"flat", 200, 200, 200},
		{"narrow range midpoint", 100, 180, 140},
		{"medium range", 50, 170, 134},
		{"wide range favours bright end", 0, 255, 204},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := imgproc.NewGray(2, 1)
			defer g.Release()
			g.Pix[0], g.Pix[1] = tt.lo, tt.hi
			assert.Equal(t, tt.want, EstimateBrightness(g))
		})
	}
}

func TestBoostAndLight(t *testing.T) {
	cfg := DefaultEnhanceConfig()
	assert.Equal(t, 0, cfg.Boost(230))
	assert.Equal(t, 0, cfg.Boost(250))
	assert.Equal(t, 12, cfg.Boost(200))
	assert.Equal(t, 80, cfg.Boost(0), "boost is capped")

	assert.Equal(t, Day, ClassifyLight(151))
	assert.Equal(t, Normal, ClassifyLight(150))
	assert.Equal(t, Normal, ClassifyLight(81))
	assert.Equal(t, Night, ClassifyLight(80))
	assert.Equal(t, "night", Night.String())
}

func TestIconNames(t *testing.T) {
	assert.Equal(t, []string{"arrow", "horseshoe"}, IconNames([]int{1, 7}, "en"))
	assert.Equal(t, []string{"nyíl", "csengő"}, IconNames([]int{1, 4}, "hu-HU"))
	assert.Equal(t, []string{"star"}, IconNames([]int{0, 6, 9}, "fr"), "unknown languages fall back to English")
	assert.Equal(t, []string{"apple"}, IconNames([]int{3}, ""))
	assert.Len(t, IconCatalog("hu"), 8)
}

func TestConfigValidate(t *testing.T) {
	require.NoError(t, DefaultConfig().Validate())

	cfg := DefaultConfig()
	cfg.Icons.Segments = 0
	cfg.CropRatio = 0.6
	cfg.DefaultFrameWidth = 0
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "icon segments")
	assert.Contains(t, err.Error(), "crop ratio")
	assert.Contains(t, err.Error(), "default frame size")

	_, err = New(cfg)
	assert.Error(t, err)
}

func TestWritePDF(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scan.pdf")

	require.NoError(t, WritePDF(path, testutil.Gray(120, 200, 240)))
	// a second export replaces rather than appends
	require.NoError(t, WritePDF(path, testutil.Gray(120, 200, 240)))

	n, err := PageCount(path)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	assert.Error(t, WritePDF(path, nil))
}
