// Package quantize reduces an RGBA image to a bounded palette and encodes
// it as an indexed-colour PNG.
package quantize

import (
	"image"
	"image/color"
	"sort"
)

// MaxColors is the largest palette an indexed PNG can carry.
const MaxColors = 256

type entry struct {
	c     color.NRGBA
	count int
}

func key(c color.NRGBA) uint32 {
	return uint32(c.R)<<24 | uint32(c.G)<<16 | uint32(c.B)<<8 | uint32(c.A)
}

// histogram returns the distinct colours of m sorted by value so that
// palette construction is deterministic.
func histogram(m *image.NRGBA) []entry {
	counts := make(map[uint32]int)
	b := m.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		off := m.PixOffset(b.Min.X, y)
		row := m.Pix[off : off+b.Dx()*4]
		for i := 0; i < len(row); i += 4 {
			counts[uint32(row[i])<<24|uint32(row[i+1])<<16|uint32(row[i+2])<<8|uint32(row[i+3])]++
		}
	}

	keys := make([]uint32, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	out := make([]entry, len(keys))
	for i, k := range keys {
		out[i] = entry{
			c:     color.NRGBA{R: uint8(k >> 24), G: uint8(k >> 16), B: uint8(k >> 8), A: uint8(k)},
			count: counts[k],
		}
	}
	return out
}

func channel(c color.NRGBA, ch int) uint8 {
	switch ch {
	case 0:
		return c.R
	case 1:
		return c.G
	case 2:
		return c.B
	}
	return c.A
}

// box is a set of histogram entries. ch and spread cache the widest
// channel, computed once when the box is made.
type box struct {
	entries []entry
	count   int
	ch      int
	spread  int
}

func newBox(entries []entry, count int) box {
	b := box{entries: entries, count: count}
	b.ch, b.spread = widest(entries)
	return b
}

// widest returns the channel with the largest spread and that spread.
func widest(entries []entry) (ch int, spread int) {
	for c := 0; c < 4; c++ {
		lo, hi := uint8(255), uint8(0)
		for _, e := range entries {
			v := channel(e.c, c)
			if v < lo {
				lo = v
			}
			if v > hi {
				hi = v
			}
		}
		if s := int(hi) - int(lo); s > spread {
			ch, spread = c, s
		}
	}
	return ch, spread
}

// split cuts the box at the weighted median of its widest channel.
func (b box) split() (box, box) {
	ch := b.ch
	sort.SliceStable(b.entries, func(i, j int) bool {
		return channel(b.entries[i].c, ch) < channel(b.entries[j].c, ch)
	})

	half := b.count / 2
	acc, cut := 0, 1
	for i, e := range b.entries {
		acc += e.count
		if acc >= half {
			cut = i + 1
			break
		}
	}
	if cut >= len(b.entries) {
		cut = len(b.entries) - 1
	}

	left := 0
	for _, e := range b.entries[:cut] {
		left += e.count
	}
	return newBox(b.entries[:cut], left), newBox(b.entries[cut:], b.count-left)
}

func (b box) mean() color.NRGBA {
	var r, g, bl, a, n uint64
	for _, e := range b.entries {
		w := uint64(e.count)
		r += uint64(e.c.R) * w
		g += uint64(e.c.G) * w
		bl += uint64(e.c.B) * w
		a += uint64(e.c.A) * w
		n += w
	}
	if n == 0 {
		return color.NRGBA{}
	}
	return color.NRGBA{
		R: uint8((r + n/2) / n),
		G: uint8((g + n/2) / n),
		B: uint8((bl + n/2) / n),
		A: uint8((a + n/2) / n),
	}
}

// medianCut builds a palette of at most n colours from the histogram.
func medianCut(hist []entry, n int) color.Palette {
	total := 0
	for _, e := range hist {
		total += e.count
	}
	boxes := []box{newBox(append([]entry(nil), hist...), total)}

	for len(boxes) < n {
		best, bestSpread := -1, 0
		for i, b := range boxes {
			if len(b.entries) < 2 {
				continue
			}
			if b.spread > bestSpread {
				best, bestSpread = i, b.spread
			}
		}
		if best < 0 {
			break
		}
		l, r := boxes[best].split()
		boxes[best] = l
		boxes = append(boxes, r)
	}

	p := make(color.Palette, len(boxes))
	for i, b := range boxes {
		p[i] = b.mean()
	}
	return p
}
