package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"image"
	"path/filepath"
	"testing"

	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MeKo-Tech/notescan/internal/barcode"
	"github.com/MeKo-Tech/notescan/internal/exposure"
	"github.com/MeKo-Tech/notescan/internal/testutil"
	"github.com/MeKo-Tech/notescan/internal/utils"
)

// hdScene is the default scene at twice the size: a 1280x720 landscape
// frame, which the session downscales to 1080 on the long side.
func hdScene() testutil.SceneConfig {
	sc := testutil.DefaultScene()
	sc.Width, sc.Height = 720, 1280
	sc.Document = image.Rect(160, 240, 560, 906)
	return sc
}

func sceneFrame(sc testutil.SceneConfig, seq uint64) Frame {
	return FrameFromImage(sc.Landscape(), seq)
}

func blankFrame(seq uint64) Frame {
	return FrameFromImage(testutil.Flat(1280, 720, testutil.Background), seq)
}

func newTestSession(t *testing.T, mutate ...func(*Builder)) *Session {
	t.Helper()
	b := NewBuilder().WithBarcode(false).WithSessionID("test")
	for _, m := range mutate {
		m(b)
	}
	s, err := b.Build()
	require.NoError(t, err)
	return s
}

func TestSession_StableAfterFiveFrames(t *testing.T) {
	s := newTestSession(t)
	ctx := context.Background()
	sc := hdScene()

	for i := range 4 {
		_, ok := s.ProcessFrame(ctx, sceneFrame(sc, uint64(i)))
		assert.False(t, ok, "frame %d is held back until stable", i)
	}
	_, ok := s.LastStable()
	assert.False(t, ok)

	res, ok := s.ProcessFrame(ctx, sceneFrame(sc, 4))
	require.True(t, ok)
	require.True(t, res.HasDocument(), res.Error)
	assert.True(t, res.Stable)
	assert.Equal(t, "test", res.SessionID)
	assert.Equal(t, uint64(4), res.Seq)
	assert.InDelta(t, 1.0, res.Confidence, 1e-9)
	assert.Equal(t, 1280, res.FrameWidth)
	assert.Equal(t, 720, res.FrameHeight)
	assert.Equal(t, "QR:✗", res.QRInfo)
	assert.Contains(t, res.BlurInfo, "Blur:")

	// processed corners are back in the full-resolution portrait frame
	want := []utils.Point{{X: 160, Y: 240}, {X: 559, Y: 240}, {X: 559, Y: 905}, {X: 160, Y: 905}}
	got := utils.OrderCorners(res.ProcessedCorners)
	for i := range want {
		assert.InDelta(t, want[i].X, got[i].X, 5, "corner %d x", i)
		assert.InDelta(t, want[i].Y, got[i].Y, 5, "corner %d y", i)
	}

	last, ok := s.LastStable()
	require.True(t, ok)
	assert.Equal(t, res.ProcessedCorners, last.ProcessedCorners)

	assert.True(t, s.SeekerState().Frozen)
	m := s.Metrics()
	assert.InDelta(t, 5, promtest.ToFloat64(m.framesAdmitted), 0)
	assert.InDelta(t, 5, promtest.ToFloat64(m.detections.WithLabelValues("accepted")), 0)
	assert.InDelta(t, 1, promtest.ToFloat64(m.stableTransitions.WithLabelValues("detected")), 0)
	assert.InDelta(t, 1, promtest.ToFloat64(m.seekerEvents.WithLabelValues("freeze")), 0)
}

func TestSession_ScreenMapping(t *testing.T) {
	s := newTestSession(t, func(b *Builder) { b.WithScreen(304, 540) })
	sc := hdScene()

	var res Result
	for i := range 5 {
		res, _ = s.ProcessFrame(context.Background(), sceneFrame(sc, uint64(i)))
	}
	require.True(t, res.HasDocument())
	// the processing frame is 608x1080, so the screen is exactly half
	got := utils.OrderCorners(res.Corners)
	assert.InDelta(t, 160*0.84375/2, got[0].X, 3)
	assert.InDelta(t, 240*0.84375/2, got[0].Y, 3)
}

func TestSession_NoDocument(t *testing.T) {
	s := newTestSession(t)
	res, ok := s.ProcessFrame(context.Background(), blankFrame(1))
	require.True(t, ok, "negative frames always produce a result")
	assert.False(t, res.HasDocument())
	assert.NotNil(t, res.Corners)
	assert.Empty(t, res.Corners)
	assert.False(t, res.Stable)
	assert.Zero(t, res.Confidence)
	assert.Empty(t, res.Error)
	assert.Contains(t, res.SeekerInfo, "S:ON")
	assert.InDelta(t, 1, promtest.ToFloat64(s.Metrics().detections.WithLabelValues("none")), 0)
}

func TestSession_StableHeldThroughShortLoss(t *testing.T) {
	s := newTestSession(t)
	ctx := context.Background()
	sc := hdScene()
	for i := range 5 {
		s.ProcessFrame(ctx, sceneFrame(sc, uint64(i)))
	}
	for i := range 3 {
		res, ok := s.ProcessFrame(ctx, blankFrame(uint64(10+i)))
		require.True(t, ok)
		assert.False(t, res.HasDocument())
	}
	res, ok := s.ProcessFrame(ctx, sceneFrame(sc, 20))
	require.True(t, ok, "still stable, so the next hit is reported at once")
	assert.True(t, res.HasDocument())
}

func TestSession_BadFrameBecomesErrorResult(t *testing.T) {
	s := newTestSession(t)
	res, ok := s.ProcessFrame(context.Background(), Frame{Seq: 9, Width: 10, Height: 10, Data: []byte{1, 2, 3}})
	require.True(t, ok)
	assert.Contains(t, res.Error, "malformed frame")
	assert.Equal(t, "ERROR", res.SeekerInfo)
	assert.Equal(t, "QR:ERROR", res.QRInfo)
	assert.Empty(t, res.Corners)
	assert.Zero(t, res.Confidence)
	assert.Equal(t, exposure.DefaultCalibration(), res.Calibration)
	assert.InDelta(t, 1, promtest.ToFloat64(s.Metrics().frameErrors), 0)

	// the session keeps going
	res, ok = s.ProcessFrame(context.Background(), blankFrame(10))
	require.True(t, ok)
	assert.Empty(t, res.Error)
}

func TestSession_DebugImageInterval(t *testing.T) {
	s := newTestSession(t, func(b *Builder) { b.WithDebug(true) })
	sc := hdScene()
	var results []Result
	for i := range 7 {
		if res, ok := s.ProcessFrame(context.Background(), sceneFrame(sc, uint64(i))); ok {
			results = append(results, res)
		}
	}
	require.Len(t, results, 3)
	assert.Nil(t, results[0].DebugImage, "frame 5")
	require.NotNil(t, results[1].DebugImage, "frame 6")
	assert.Equal(t, image.Rect(0, 0, 608, 1080), results[1].DebugImage.Bounds())
	assert.Nil(t, results[2].DebugImage, "frame 7")
}

type qrBackend struct{ rect image.Rectangle }

func (q qrBackend) Decode(context.Context, image.Image, barcode.Options) ([]barcode.Result, error) {
	return []barcode.Result{{Format: barcode.FormatQR, Value: "NB-7", BBox: q.rect}}, nil
}

func TestSession_QRSide(t *testing.T) {
	s := newTestSession(t, func(b *Builder) {
		b.WithBarcode(true).WithBarcodeBackend(qrBackend{rect: image.Rect(1000, 500, 1100, 600)})
	})
	res, ok := s.ProcessFrame(context.Background(), blankFrame(1))
	require.True(t, ok)
	assert.Equal(t, barcode.SideLeft, res.QRSide)
	require.NotNil(t, res.QRBounds)
	assert.Equal(t, "NB-7", res.QRBounds.Value)
	assert.Contains(t, res.QRInfo, "QR:✓ LEFT")
}

func TestSession_MetricsTextfile(t *testing.T) {
	s := newTestSession(t)
	s.ProcessFrame(context.Background(), blankFrame(1))

	path := filepath.Join(t.TempDir(), "notescan.prom")
	require.NoError(t, s.Metrics().WriteTextfile(path))
	assert.True(t, testutil.FileExists(path))
}

func TestBuilder_InvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SkipInterval = 0
	cfg.MaxProcessDimension = 10
	_, err := NewBuilder().WithConfig(cfg).Build()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "skip interval")
	assert.Contains(t, err.Error(), "max process dimension")

	_, err = NewBuilder().WithConfig(cfg).BuildController(nil)
	assert.Error(t, err)
}

func TestNewSession_GeneratesID(t *testing.T) {
	a, err := NewSession(DefaultConfig())
	require.NoError(t, err)
	b, err := NewSession(DefaultConfig())
	require.NoError(t, err)
	assert.NotEmpty(t, a.ID())
	assert.NotEqual(t, a.ID(), b.ID())
}

func TestErrorResult_DecodesFromJSON(t *testing.T) {
	res := errorResult("s1", Frame{Seq: 3, Width: 640, Height: 360}, errors.New("boom"))
	assert.Equal(t, exposure.Up, res.Seeker.Direction)
	assert.Equal(t, exposure.DefaultCalibration(), res.Calibration)

	b, err := json.Marshal(res)
	require.NoError(t, err)
	var got Result
	require.NoError(t, json.Unmarshal(b, &got))
	assert.Equal(t, "boom", got.Error)
	assert.Equal(t, exposure.Up, got.Seeker.Direction)
	assert.Empty(t, got.Corners)
	assert.Equal(t, uint64(3), got.Seq)
}
