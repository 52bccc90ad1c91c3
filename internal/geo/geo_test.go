package geo

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-polyline"
	"go.uber.org/goleak"
)

const googleSample = "_p~iF~ps|U_ulLnnqC_mqNvxq`@"

func TestDecodePolyline(t *testing.T) {
	ls, err := DecodePolyline(googleSample)
	require.NoError(t, err)

	want := []orb.Point{{-120.2, 38.5}, {-120.95, 40.7}, {-126.453, 43.252}}
	require.Len(t, ls, len(want))
	for i, p := range want {
		assert.InDelta(t, p.Lon(), ls[i].Lon(), 1e-5)
		assert.InDelta(t, p.Lat(), ls[i].Lat(), 1e-5)
	}

	_, err = DecodePolyline("")
	assert.ErrorIs(t, err, ErrNoPoints)

	_, err = DecodePolyline("_p~iF~ps|U_")
	assert.Error(t, err)
}

// encode is the inverse of DecodePolyline.
func encode(ls orb.LineString) string {
	coords := make([][]float64, 0, len(ls))
	for _, p := range ls {
		coords = append(coords, []float64{p.Lat(), p.Lon()})
	}
	return string(polyline.EncodeCoords(coords))
}

func TestEncodeDecodeAgree(t *testing.T) {
	in := orb.LineString{{106.8456, -6.2088}, {107.0, -6.5}, {107.6105, -6.8906}}
	ls, err := DecodePolyline(encode(in))
	require.NoError(t, err)
	require.Len(t, ls, 3)
	assert.InDelta(t, -6.8906, ls[2].Lat(), 1e-5)
}

// A decoded route draws exactly as many points as the decoder yields, inside
// bounds that contain all of them.
func TestRenderRoute_MatchesDecoder(t *testing.T) {
	path := orb.LineString{
		{106.8456, -6.2088}, {106.90, -6.30}, {107.05, -6.45},
		{107.30, -6.70}, {107.6105, -6.8906}, {107.62, -6.91},
	}
	encoded := encode(path)

	coords, _, err := polyline.DecodeCoords([]byte(encoded))
	require.NoError(t, err)

	c, ls, err := RenderRoute(encoded, 40, 12)
	require.NoError(t, err)
	assert.Len(t, ls, len(coords))

	for _, p := range ls {
		assert.True(t, c.Bound.Contains(p), "bound must contain %v", p)
	}

	redrawn := NewCanvas(40, 12, c.Bound)
	assert.Equal(t, len(coords), redrawn.DrawPath(ls))

	out := c.String()
	assert.Contains(t, out, "A")
	assert.Contains(t, out, "B")
	assert.Contains(t, out, "·")
	assert.Len(t, strings.Split(out, "\n"), 12)
}

func TestFit(t *testing.T) {
	_, err := Fit()
	assert.ErrorIs(t, err, ErrNoPoints)

	b, err := Fit(orb.Point{1, 2}, orb.Point{-3, 5})
	require.NoError(t, err)
	assert.Equal(t, orb.Point{-3, 2}, b.Min)
	assert.Equal(t, orb.Point{1, 5}, b.Max)
}

func TestCanvas_DegenerateBound(t *testing.T) {
	p := orb.Point{107.6, -6.9}
	b, err := Fit(p)
	require.NoError(t, err)

	c := NewCanvas(9, 5, b)
	x, y, ok := c.Project(p)
	require.True(t, ok)
	assert.Equal(t, 4, x)
	assert.Equal(t, 2, y)

	_, _, ok = c.Project(orb.Point{0, 0})
	assert.False(t, ok)
}

func TestCanvas_CornersAndStops(t *testing.T) {
	b := orb.Bound{Min: orb.Point{0, 0}, Max: orb.Point{10, 10}}
	c := NewCanvas(11, 11, b)

	x, y, _ := c.Project(orb.Point{0, 10})
	assert.Equal(t, 0, x)
	assert.Equal(t, 0, y)
	x, y, _ = c.Project(orb.Point{10, 0})
	assert.Equal(t, 10, x)
	assert.Equal(t, 10, y)

	assert.True(t, c.MarkStop(orb.Point{5, 5}))
	assert.Equal(t, '*', c.At(5, 5))
	assert.False(t, c.MarkStop(orb.Point{20, 5}))
}

func TestParseLatLng(t *testing.T) {
	p, err := ParseLatLng(" -6.890614, 107.610531 ")
	require.NoError(t, err)
	assert.Equal(t, -6.890614, p.Lat())
	assert.Equal(t, 107.610531, p.Lon())
	assert.Equal(t, "-6.890614,107.610531", FormatLatLng(p))

	for _, bad := range []string{"", "1", "a,b", "1,b", "91,0", "0,181"} {
		_, err := ParseLatLng(bad)
		assert.Error(t, err, bad)
	}
}

type failingLocator struct{ err error }

func (f failingLocator) Locate(context.Context) (orb.Point, error) { return orb.Point{}, f.err }

type blockingLocator struct{}

func (blockingLocator) Locate(ctx context.Context) (orb.Point, error) {
	<-ctx.Done()
	return orb.Point{}, ctx.Err()
}

func TestChainLocator(t *testing.T) {
	want := orb.Point{107.6, -6.9}
	chain := ChainLocator{failingLocator{errors.New("no gps")}, StaticLocator{want}}
	got, err := chain.Locate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, want, got)

	_, err = ChainLocator{}.Locate(context.Background())
	assert.ErrorIs(t, err, ErrUnavailable)

	first := errors.New("first")
	_, err = ChainLocator{failingLocator{first}, failingLocator{errors.New("second")}}.Locate(context.Background())
	assert.ErrorIs(t, err, first)
}

func TestResolve(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())
	fallback := orb.Point{107.610531, -6.890614}

	t.Run("success", func(t *testing.T) {
		fix := Resolve(context.Background(), StaticLocator{orb.Point{1, 2}}, time.Second, fallback)
		assert.False(t, fix.Fallback)
		assert.Equal(t, orb.Point{1, 2}, fix.Point)
	})

	t.Run("failure uses fallback", func(t *testing.T) {
		fix := Resolve(context.Background(), failingLocator{errors.New("denied")}, time.Second, fallback)
		assert.True(t, fix.Fallback)
		assert.Equal(t, fallback, fix.Point)
		assert.EqualError(t, fix.Err, "denied")
	})

	t.Run("timeout uses fallback", func(t *testing.T) {
		start := time.Now()
		fix := Resolve(context.Background(), blockingLocator{}, 20*time.Millisecond, fallback)
		assert.True(t, fix.Fallback)
		assert.ErrorIs(t, fix.Err, context.DeadlineExceeded)
		assert.Less(t, time.Since(start), 2*time.Second)
	})

	t.Run("nil locator", func(t *testing.T) {
		fix := Resolve(context.Background(), nil, time.Second, fallback)
		assert.True(t, fix.Fallback)
	})
}

func TestIPLocator(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ipapi":
			_, _ = w.Write([]byte(`{"status":"success","lat":-6.9147,"lon":107.6098}`))
		case "/ipco":
			_, _ = w.Write([]byte(`{"latitude":-6.2,"longitude":106.8}`))
		case "/empty":
			_, _ = w.Write([]byte(`{}`))
		default:
			w.WriteHeader(http.StatusTooManyRequests)
		}
	}))
	defer srv.Close()

	p, err := NewIPLocator(srv.URL + "/ipapi").Locate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, orb.Point{107.6098, -6.9147}, p)

	p, err = NewIPLocator(srv.URL + "/ipco").Locate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, orb.Point{106.8, -6.2}, p)

	_, err = NewIPLocator(srv.URL + "/empty").Locate(context.Background())
	assert.ErrorIs(t, err, ErrUnavailable)

	_, err = NewIPLocator(srv.URL + "/limited").Locate(context.Background())
	assert.Error(t, err)

	_, err = NewIPLocator("").Locate(context.Background())
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestReadiness(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	t.Run("runs once", func(t *testing.T) {
		calls := 0
		r := NewReadiness(func() error { calls++; return nil })
		assert.False(t, r.Ready())
		require.NoError(t, r.Wait(context.Background()))
		require.NoError(t, r.Wait(context.Background()))
		r.Start()
		assert.True(t, r.Ready())
		assert.Equal(t, 1, calls)
	})

	t.Run("error is sticky", func(t *testing.T) {
		boom := errors.New("renderer")
		r := NewReadiness(func() error { return boom })
		assert.ErrorIs(t, r.Wait(context.Background()), boom)
		assert.ErrorIs(t, r.Wait(context.Background()), boom)
	})

	t.Run("waiter canceled with its page", func(t *testing.T) {
		release := make(chan struct{})
		r := NewReadiness(func() error { <-release; return nil })

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		assert.ErrorIs(t, r.Wait(ctx), context.Canceled)

		close(release)
		require.NoError(t, r.Wait(context.Background()))
	})
}
