package gpu

import "testing"

func TestFillGridSetsExactBits(t *testing.T) {
	g := New()
	if err := g.Execute("DRGRD", []int{2, 3, 4, 2}); err != nil {
		t.Fatalf("DRGRD failed: %v", err)
	}
	buf := g.EditBuffer()
	for y := 0; y < Height; y++ {
		inRect := y >= 3 && y < 5
		for x := 0; x < Width; x++ {
			want := inRect && x >= 2 && x < 6
			got := buf[y]&(1<<uint(31-x)) != 0
			if got != want {
				t.Fatalf("pixel (%d,%d) = %v, want %v", x, y, got, want)
			}
		}
	}
}

func TestFillThenClearGridIsIdempotent(t *testing.T) {
	g := New()
	if err := g.Execute("DRGRD", []int{5, 5, 10, 10}); err != nil {
		t.Fatalf("DRGRD failed: %v", err)
	}
	if err := g.Execute("CLRGRID", []int{5, 5, 10, 10}); err != nil {
		t.Fatalf("CLRGRID failed: %v", err)
	}
	buf := g.EditBuffer()
	for y := 5; y < 15; y++ {
		mask := g.rowMask(5, 10)
		if buf[y]&mask != 0 {
			t.Fatalf("row %d still has bits set in the rectangle: %032b", y, buf[y])
		}
	}
}

func TestGPURegisterSelectsDisplayBuffer(t *testing.T) {
	g := New()
	g.GPURegister = 0 // display=0, edit=0
	g.EditBuffer()[0] = 0xFFFFFFFF
	if *g.DisplayBuffer() != g.buffer0 {
		t.Fatalf("expected display buffer 0 to be selected")
	}

	g.GPURegister = 1 // display=1, edit=0
	if *g.DisplayBuffer() != g.buffer1 {
		t.Fatalf("expected display buffer 1 to be selected when gpu_register&1==1")
	}
}

func TestDrawHorizontalLine(t *testing.T) {
	g := New()
	if err := g.Execute("DRLINE", []int{2, 5, 8, 5}); err != nil {
		t.Fatalf("DRLINE failed: %v", err)
	}
	buf := g.EditBuffer()
	for x := 0; x < Width; x++ {
		want := x >= 2 && x <= 8
		got := buf[5]&(1<<uint(31-x)) != 0
		if got != want {
			t.Fatalf("pixel (%d,5) = %v, want %v", x, got, want)
		}
	}
}

func TestSpriteRoundTrip(t *testing.T) {
	g := New()
	// A single bit at row 0, col 0 of the 5x3 sprite.
	if err := g.Execute("LDSPR", []int{3, 0x1}); err != nil {
		t.Fatalf("LDSPR failed: %v", err)
	}
	if err := g.Execute("DRSPR", []int{3, 10, 10}); err != nil {
		t.Fatalf("DRSPR failed: %v", err)
	}
	buf := g.EditBuffer()
	if buf[10]&(1<<uint(31-10)) == 0 {
		t.Fatalf("expected sprite bit (0,0) set at (10,10)")
	}
}

func TestEncodeDecode6BitChar(t *testing.T) {
	for _, ch := range []byte("ABCZ0129!?+-*.,") {
		code := Encode6BitChar(ch)
		if decode6BitChar(code) != ch {
			t.Errorf("round trip for %q failed: code=%d decoded=%q", ch, code, decode6BitChar(code))
		}
	}
}

func TestScrollBufferVertical(t *testing.T) {
	g := New()
	buf := g.EditBuffer()
	buf[5] = 0xAAAAAAAA
	if err := g.Execute("SCRLBFR", []int{0, 1}); err != nil {
		t.Fatalf("SCRLBFR failed: %v", err)
	}
	if buf[4] != 0xAAAAAAAA {
		t.Fatalf("row 5's content should have moved to row 4 after offy=1, got row4=%032b", buf[4])
	}
}
