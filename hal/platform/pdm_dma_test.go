package platform

import "testing"

func TestDMAChunks_SplitsAtMaxCount(t *testing.T) {
	cases := []struct {
		n    int
		want []int
	}{
		{1, []int{1}},
		{pdmMaxCount, []int{pdmMaxCount}},
		{32768, []int{pdmMaxCount, 1}},
		{40000, []int{pdmMaxCount, 40000 - pdmMaxCount}},
		{2*pdmMaxCount + 5, []int{pdmMaxCount, pdmMaxCount, 5}},
	}
	for _, c := range cases {
		var sizes []int
		got := dmaChunks(make([]int16, c.n), pdmMaxCount, func(ch []int16) int {
			if len(ch) == 0 || len(ch) > pdmMaxCount {
				t.Fatalf("n=%d: transfer of %d samples", c.n, len(ch))
			}
			sizes = append(sizes, len(ch))
			return len(ch)
		})
		if got != c.n {
			t.Fatalf("n=%d: filled %d", c.n, got)
		}
		if len(sizes) != len(c.want) {
			t.Fatalf("n=%d: chunks %v want %v", c.n, sizes, c.want)
		}
		for i := range sizes {
			if sizes[i] != c.want[i] {
				t.Fatalf("n=%d: chunks %v want %v", c.n, sizes, c.want)
			}
		}
	}
}

func TestDMAChunks_ChunksAreContiguous(t *testing.T) {
	buf := make([]int16, 10)
	next := int16(0)
	dmaChunks(buf, 4, func(ch []int16) int {
		for i := range ch {
			ch[i] = next
			next++
		}
		return len(ch)
	})
	for i, v := range buf {
		if v != int16(i) {
			t.Fatalf("buf[%d]=%d: %v", i, v, buf)
		}
	}
}

func TestDMAChunks_ShortTransferStops(t *testing.T) {
	calls := 0
	got := dmaChunks(make([]int16, 10), 4, func(ch []int16) int {
		calls++
		if calls == 2 {
			return 1
		}
		return len(ch)
	})
	if got != 5 || calls != 2 {
		t.Fatalf("filled %d in %d transfers, want 5 in 2", got, calls)
	}
}

func TestDMAChunks_Empty(t *testing.T) {
	if got := dmaChunks(nil, pdmMaxCount, func([]int16) int { t.Fatal("unexpected transfer"); return 0 }); got != 0 {
		t.Fatalf("filled %d", got)
	}
}
