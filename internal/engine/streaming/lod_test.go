package streaming

import "testing"

func TestLodSelectorBands(t *testing.T) {
	s := NewLodSelector([]float32{100, 200, 400})

	tests := []struct {
		dist float32
		want int
	}{
		{0, 0},
		{50, 0},
		{99, 0},
		{101, 1},
		{199, 1},
		{250, 2},
		{399, 2},
		{401, -1},
		{10000, -1},
	}
	for _, tt := range tests {
		if got := s.Select(tt.dist*tt.dist, -2); got != tt.want { // -2: no current, no hysteresis path
			t.Errorf("Select(dist=%g) = %d, want %d", tt.dist, got, tt.want)
		}
	}
}

func TestLodSelectorFreshSelection(t *testing.T) {
	s := NewLodSelector([]float32{100, 200})

	// With no current LOD the base band wins outright.
	if got := s.Select(50*50, -1); got != 0 {
		t.Errorf("fresh select at 50 = %d, want 0", got)
	}
}

func TestLodSelectorHysteresis(t *testing.T) {
	s := NewLodSelector([]float32{100, 200})

	// Just past the 100 threshold: a chunk already at LOD 0 stays there.
	near := float32(100.5)
	if got := s.Select(near*near, 0); got != 0 {
		t.Errorf("hysteresis did not hold LOD 0 just past the threshold, got %d", got)
	}
	// The same distance selects LOD 1 for a chunk already there.
	if got := s.Select(near*near, 1); got != 1 {
		t.Errorf("chunk at LOD 1 flipped at %g, got %d", near, got)
	}
	// Far past the widened band the switch happens.
	far := float32(110)
	if got := s.Select(far*far, 0); got != 1 {
		t.Errorf("hysteresis held LOD 0 well past the margin, got %d", got)
	}

	// Same at the visibility edge: just past 200 an active chunk stays.
	edge := float32(200.5)
	if got := s.Select(edge*edge, 1); got != 1 {
		t.Errorf("chunk vanished immediately at the last threshold, got %d", got)
	}
	if got := s.Select(250*250, 1); got != -1 {
		t.Errorf("chunk still visible far past the last threshold, got %d", got)
	}
	// And an invisible chunk does not pop in while inside the margin.
	justIn := float32(199.5)
	if got := s.Select(justIn*justIn, -1); got != -1 {
		t.Errorf("invisible chunk popped in inside the hysteresis margin, got %d", got)
	}
}

func TestLodSelectorRejectsBadTables(t *testing.T) {
	tests := []struct {
		name      string
		distances []float32
	}{
		{"empty", nil},
		{"zero entry", []float32{0, 100}},
		{"descending", []float32{200, 100}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defer func() {
				if recover() == nil {
					t.Error("expected panic")
				}
			}()
			NewLodSelector(tt.distances)
		})
	}
}
