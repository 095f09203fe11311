package svgo

import (
	"io"
	"math"

	"github.com/pkg/errors"
	"github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/xml"
)

// Default object size used by browsers for SVGs without intrinsic size.
const (
	DefaultWidth  = 300
	DefaultHeight = 150
)

// Size reports the intrinsic size of an SVG document: width/height
// attributes of the root element when they are absolute lengths, else the
// viewBox extent, else the 300x150 default.
func Size(markup []byte) (width, height int, err error) {
	l := xml.NewLexer(parse.NewInputBytes(markup))

	var root *tag
	for {
		tt, _ := l.Next()
		switch tt {
		case xml.ErrorToken:
			if l.Err() != io.EOF {
				return 0, 0, errors.Wrap(l.Err(), "svgo: parse")
			}
			return 0, 0, errors.New("svgo: no <svg> element")

		case xml.StartTagToken:
			name := string(l.Text())
			if localName(name) != "svg" {
				return 0, 0, errors.Errorf("svgo: root element is <%s>, want <svg>", name)
			}
			root = &tag{name: name}

		case xml.AttributeToken:
			if root != nil {
				root.attrs = append(root.attrs, attr{
					key: string(l.Text()),
					raw: append([]byte(nil), l.AttrVal()...),
				})
			}

		case xml.StartTagCloseToken, xml.StartTagCloseVoidToken:
			if root != nil {
				w, h := rootSize(root)
				return w, h, nil
			}
		}
	}
}

func rootSize(t *tag) (int, int) {
	var vw, vh float64
	if vb, ok := t.get("viewBox"); ok {
		if box, err := parseViewBox(vb); err == nil && box[2] > 0 && box[3] > 0 {
			vw, vh = box[2], box[3]
		}
	}

	w, wok := length(t, "width")
	h, hok := length(t, "height")
	switch {
	case wok && hok:
	case wok && vw > 0:
		h = w * vh / vw
	case hok && vh > 0:
		w = h * vw / vh
	case vw > 0:
		w, h = vw, vh
	default:
		return DefaultWidth, DefaultHeight
	}
	return int(math.Round(w)), int(math.Round(h))
}

func length(t *tag, key string) (float64, bool) {
	s, ok := t.get(key)
	if !ok {
		return 0, false
	}
	v, err := parseLength(s)
	if err != nil {
		return 0, false
	}
	return v, true
}
