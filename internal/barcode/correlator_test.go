package barcode

import (
	"context"
	"errors"
	"image"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MeKo-Tech/notescan/internal/testutil"
)

type fakeBackend struct {
	results []Result
	err     error
	calls   int
	lastImg image.Image
}

func (f *fakeBackend) Decode(_ context.Context, img image.Image, _ Options) ([]Result, error) {
	f.calls++
	f.lastImg = img
	return f.results, f.err
}

func TestSideFor(t *testing.T) {
	assert.Equal(t, SideLeft, SideFor(500, 720))
	assert.Equal(t, SideRight, SideFor(360, 720))
	assert.Equal(t, SideRight, SideFor(100, 720))
}

func TestParseSide(t *testing.T) {
	tests := map[string]Side{"left": SideLeft, "RIGHT": SideRight, "": SideNone, "none": SideNone}
	for in, want := range tests {
		got, err := ParseSide(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseSide("top")
	assert.Error(t, err)

	var s Side
	require.NoError(t, s.UnmarshalText([]byte("left")))
	assert.Equal(t, SideLeft, s)
	b, err := SideRight.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "right", string(b))
}

func TestCorrelator_LowerHalfIsLeft(t *testing.T) {
	fb := &fakeBackend{results: []Result{{
		Format: FormatQR,
		Value:  "NB-42",
		BBox:   image.Rect(600, 500, 700, 600),
	}}}
	c := NewCorrelator(DefaultConfig(), fb)

	obs, err := c.Locate(context.Background(), testutil.Gray(1280, 720, 0))
	require.NoError(t, err)
	require.True(t, obs.Found)
	assert.Equal(t, SideLeft, obs.Side)
	require.NotNil(t, obs.Bounds)
	assert.Equal(t, Bounds{Left: 600, Top: 500, Width: 100, Height: 100, Value: "NB-42"}, *obs.Bounds)
	assert.Equal(t, `QR:✓ LEFT @650,550 "NB-42"`, obs.Info)
}

func TestCorrelator_UpperHalfIsRight(t *testing.T) {
	fb := &fakeBackend{results: []Result{{Value: "x", BBox: image.Rect(10, 10, 50, 50)}}}
	obs, err := NewCorrelator(DefaultConfig(), fb).Locate(context.Background(), testutil.Gray(200, 100, 0))
	require.NoError(t, err)
	assert.Equal(t, SideRight, obs.Side)
	assert.Equal(t, `QR:✓ RIGHT @30,30 "x"`, obs.Info)
}

func TestCorrelator_NotFoundAndErrors(t *testing.T) {
	frame := testutil.Gray(64, 64, 128)

	obs, err := NewCorrelator(DefaultConfig(), &fakeBackend{err: ErrNotFound}).Locate(context.Background(), frame)
	require.NoError(t, err)
	assert.False(t, obs.Found)
	assert.Equal(t, "QR:✗", obs.Info)
	assert.Nil(t, obs.Bounds)

	obs, err = NewCorrelator(DefaultConfig(), &fakeBackend{}).Locate(context.Background(), frame)
	require.NoError(t, err)
	assert.False(t, obs.Found)

	boom := errors.New("boom")
	obs, err = NewCorrelator(DefaultConfig(), &fakeBackend{err: boom}).Locate(context.Background(), frame)
	require.ErrorIs(t, err, boom)
	assert.Equal(t, "QR:ERROR", obs.Info)
	assert.Equal(t, SideNone, obs.Side)
}

func TestCorrelator_DisabledSkipsBackend(t *testing.T) {
	fb := &fakeBackend{}
	obs, err := NewCorrelator(Config{}, fb).Locate(context.Background(), testutil.Gray(10, 10, 0))
	require.NoError(t, err)
	assert.Equal(t, "QR:✗", obs.Info)
	assert.Zero(t, fb.calls)
}

func TestCorrelator_DownscalesAndRescalesBounds(t *testing.T) {
	fb := &fakeBackend{results: []Result{{Value: "v", BBox: image.Rect(100, 100, 150, 150)}}}
	cfg := DefaultConfig()
	cfg.MaxDimension = 640
	obs, err := NewCorrelator(cfg, fb).Locate(context.Background(), testutil.Gray(1280, 720, 0))
	require.NoError(t, err)
	assert.Equal(t, 640, fb.lastImg.Bounds().Dx())
	assert.InDelta(t, 200, obs.Bounds.Left, 1e-9)
	assert.InDelta(t, 100, obs.Bounds.Width, 1e-9)
}

func TestGozxingBackend_DecodesRenderedQR(t *testing.T) {
	frame := testutil.Gray(640, 360, 255)
	qr := testutil.RenderQR(t, "notebook-7", 150)
	testutil.Paste(frame, qr, image.Pt(400, 190))

	obs, err := NewCorrelator(DefaultConfig(), nil).Locate(context.Background(), frame)
	require.NoError(t, err)
	require.True(t, obs.Found)
	assert.Equal(t, "notebook-7", obs.Bounds.Value)
	assert.Equal(t, SideLeft, obs.Side)
	cx, cy := obs.Bounds.Center()
	assert.InDelta(t, 475, cx, 30)
	assert.InDelta(t, 265, cy, 30)
}

func TestGozxingBackend_BlankImage(t *testing.T) {
	_, err := NewBackend().Decode(context.Background(), testutil.Gray(100, 100, 255), Options{})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGozxingBackend_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewBackend().Decode(ctx, testutil.Gray(100, 100, 255), Options{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNormalizeValue(t *testing.T) {
	// "e" + combining acute composes to a single rune.
	assert.Equal(t, "caf\u00e9", NormalizeValue("cafe\u0301"))
	assert.Equal(t, "ab", NormalizeValue(" a\nb\t"))
}

func TestTracker_AntiJitter(t *testing.T) {
	clock := time.Unix(1000, 0)
	tr := NewTracker(DefaultTrackerConfig())
	tr.now = func() time.Time { return clock }

	hit := Observation{Found: true, Side: SideLeft, Info: "QR:✓ LEFT"}
	miss := Observation{Info: "QR:✗"}

	assert.False(t, tr.Observe(hit).Found)
	assert.False(t, tr.Observe(hit).Found)
	assert.True(t, tr.Observe(hit).Found, "confirmed on third hit")

	for range 10 {
		assert.True(t, tr.Observe(miss).Found, "held within persistence window")
	}
	clock = clock.Add(3 * time.Second)
	got := tr.Observe(miss)
	assert.False(t, got.Found)
	assert.Equal(t, "QR:✗", got.Info)
	assert.Equal(t, SideNone, tr.Current().Side)
}

func TestTracker_MissResetsHitStreak(t *testing.T) {
	tr := NewTracker(DefaultTrackerConfig())
	hit := Observation{Found: true, Side: SideRight}
	tr.Observe(hit)
	tr.Observe(hit)
	tr.Observe(Observation{})
	assert.False(t, tr.Observe(hit).Found)
}
