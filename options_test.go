package starfield

import (
	"bytes"
	"errors"
	"log/slog"
	"math"
	"strings"
	"testing"
	"time"
)

func TestNew_Defaults(t *testing.T) {
	sf, err := New()
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if sf.Port() != 8000 {
		t.Errorf("Port() = %v, want %v", sf.Port(), 8000)
	}
	if sf.KeepAlive() != 15*time.Second {
		t.Errorf("KeepAlive() = %v, want %v", sf.KeepAlive(), 15*time.Second)
	}
	if got := len(sf.Stars()); got != 150 {
		t.Errorf("len(Stars()) = %v, want %v", got, 150)
	}
}

func TestWithPort(t *testing.T) {
	sf, err := New(WithPort(9090))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if sf.Port() != 9090 {
		t.Errorf("Port() = %v, want %v", sf.Port(), 9090)
	}
}

func TestWithPort_Invalid(t *testing.T) {
	tests := []struct {
		name string
		port int
	}{
		{"zero", 0},
		{"negative", -1},
		{"too high", 65536},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(WithPort(tt.port))
			if err == nil {
				t.Errorf("New() expected error for port %d, got nil", tt.port)
			}
		})
	}
}

func TestWithSeedCount(t *testing.T) {
	tests := []struct {
		name string
		n    int
	}{
		{"empty", 0},
		{"small", 3},
		{"large", 1000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sf, err := New(WithSeedCount(tt.n))
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}
			if got := len(sf.Stars()); got != tt.n {
				t.Errorf("len(Stars()) = %v, want %v", got, tt.n)
			}
		})
	}
}

func TestWithSeedCount_Negative(t *testing.T) {
	_, err := New(WithSeedCount(-1))
	if err == nil {
		t.Error("New() expected error for negative seed count, got nil")
	}
}

func TestWithSeed_Reproducible(t *testing.T) {
	a, err := New(WithSeed(42), WithSeedCount(20))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	b, err := New(WithSeed(42), WithSeedCount(20))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	sa, sb := a.Stars(), b.Stars()
	for i := range sa {
		if sa[i] != sb[i] {
			t.Fatalf("star %d differs: %+v vs %+v", i, sa[i], sb[i])
		}
	}
}

func TestWithKeepAlive(t *testing.T) {
	sf, err := New(WithKeepAlive(30 * time.Second))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if sf.KeepAlive() != 30*time.Second {
		t.Errorf("KeepAlive() = %v, want %v", sf.KeepAlive(), 30*time.Second)
	}
}

func TestWithKeepAlive_Invalid(t *testing.T) {
	for _, d := range []time.Duration{0, -time.Second} {
		if _, err := New(WithKeepAlive(d)); err == nil {
			t.Errorf("New() expected error for keep-alive %v, got nil", d)
		}
	}
}

func TestWithSubscriberBuffer_Invalid(t *testing.T) {
	for _, n := range []int{0, -5} {
		if _, err := New(WithSubscriberBuffer(n)); err == nil {
			t.Errorf("New() expected error for subscriber buffer %d, got nil", n)
		}
	}
}

func TestWithLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	sf, err := New(WithLogger(logger))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if sf == nil {
		t.Fatal("New() returned nil Starfield")
	}
	if !strings.Contains(buf.String(), "store seeded") {
		t.Errorf("expected seeding to be logged, got %q", buf.String())
	}
}

func TestWithLogger_Nil(t *testing.T) {
	_, err := New(WithLogger(nil))
	if err == nil {
		t.Error("New() expected error for nil logger, got nil")
	}
	if err != nil && !strings.Contains(err.Error(), "logger cannot be nil") {
		t.Errorf("New() error = %v, want error containing 'logger cannot be nil'", err)
	}
}

func TestWithTitle(t *testing.T) {
	sf, err := New(WithTitle("Night Sky"))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if sf.title != "Night Sky" {
		t.Errorf("title = %q, want %q", sf.title, "Night Sky")
	}
}

func TestWithUpdateCallback_Nil(t *testing.T) {
	sf, err := New(WithUpdateCallback(nil))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if len(sf.updateCallbacks) != 0 {
		t.Errorf("len(updateCallbacks) = %d, want 0", len(sf.updateCallbacks))
	}
}

func TestStarfield_Mutations(t *testing.T) {
	sf, err := New(WithSeedCount(0))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	a := mustAddStar(t, sf, 0, 0, "origin")
	b := mustAddStar(t, sf, 0.5, 0.5, "middle")
	mustAddStar(t, sf, -1, -1, "corner")

	got := sf.Query(0, 1, 0, 1)
	if len(got) != 2 || got[0] != a || got[1] != b {
		t.Errorf("Query() = %+v, want [%+v %+v]", got, a, b)
	}

	removed, ok := sf.RemoveStar(a.ID)
	if !ok || removed != a {
		t.Errorf("RemoveStar() = %+v, %v", removed, ok)
	}
	if _, ok := sf.RemoveStar(a.ID); ok {
		t.Error("RemoveStar() of removed id should report false")
	}
	if got := len(sf.Stars()); got != 2 {
		t.Errorf("len(Stars()) = %d, want 2", got)
	}
}

func mustAddStar(t *testing.T, sf *Starfield, x, y float64, msg string) Star {
	t.Helper()
	s, err := sf.AddStar(x, y, msg)
	if err != nil {
		t.Fatalf("AddStar(%v, %v) error = %v", x, y, err)
	}
	return s
}

func TestStarfield_AddStarRejectsNonFinite(t *testing.T) {
	sf, err := New(WithSeedCount(0))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	tests := []struct {
		name string
		x, y float64
	}{
		{"positive infinity x", math.Inf(1), 0},
		{"negative infinity y", 0, math.Inf(-1)},
		{"nan x", math.NaN(), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := sf.AddStar(tt.x, tt.y, "bad"); !errors.Is(err, ErrNonFiniteCoordinate) {
				t.Errorf("AddStar() error = %v, want ErrNonFiniteCoordinate", err)
			}
		})
	}

	if got := len(sf.Stars()); got != 0 {
		t.Errorf("len(Stars()) = %d after rejected adds, want 0", got)
	}
	if _, err := sf.AddStar(math.MaxFloat64, -math.MaxFloat64, "far but finite"); err != nil {
		t.Errorf("AddStar() with finite extremes error = %v", err)
	}
}
