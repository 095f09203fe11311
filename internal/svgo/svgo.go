// Package svgo performs structural optimisation of SVG markup. It never
// rasterises: the output describes the same drawing with less text.
package svgo

import (
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/xml"
)

// Plugin names understood by Optimize.
const (
	RemoveDoctype     = "removeDoctype"
	RemoveXMLProcInst = "removeXMLProcInst"
	RemoveComments    = "removeComments"
	RemoveMetadata    = "removeMetadata"
	RemoveViewBox     = "removeViewBox"
	RemoveDimensions  = "removeDimensions"
)

var defaults = map[string]bool{
	RemoveDoctype:     true,
	RemoveXMLProcInst: true,
	RemoveComments:    true,
	RemoveMetadata:    true,
	RemoveViewBox:     false,
	RemoveDimensions:  false,
}

// Plugin toggles one optimisation by name.
type Plugin struct {
	Name   string
	Active bool
}

// Options override the default plugin set.
type Options struct {
	Plugins []Plugin
}

// Result holds the optimised markup.
type Result struct {
	Data string
}

// elements whose whitespace-only text is significant
var preserveSpace = map[string]bool{
	"text": true, "tspan": true, "textPath": true,
	"style": true, "script": true, "title": true, "desc": true,
}

type attr struct {
	key string
	raw []byte // value as written, including quotes
}

func (a attr) value() string {
	v := a.raw
	if len(v) >= 2 && (v[0] == '"' || v[0] == '\'') && v[len(v)-1] == v[0] {
		v = v[1 : len(v)-1]
	}
	return strings.TrimSpace(string(v))
}

type tag struct {
	name  string
	attrs []attr
	root  bool
}

func (t *tag) get(key string) (string, bool) {
	for _, a := range t.attrs {
		if a.key == key {
			return a.value(), true
		}
	}
	return "", false
}

func (t *tag) del(keys ...string) {
	out := t.attrs[:0]
	for _, a := range t.attrs {
		drop := false
		for _, k := range keys {
			if a.key == k {
				drop = true
			}
		}
		if !drop {
			out = append(out, a)
		}
	}
	t.attrs = out
}

func (t *tag) write(w *bytes.Buffer) {
	w.WriteByte('<')
	w.WriteString(t.name)
	for _, a := range t.attrs {
		w.WriteByte(' ')
		w.WriteString(a.key)
		if len(a.raw) > 0 {
			w.WriteByte('=')
			w.Write(a.raw)
		}
	}
}

func resolve(plugins []Plugin) (map[string]bool, error) {
	active := make(map[string]bool, len(defaults))
	for k, v := range defaults {
		active[k] = v
	}
	for _, p := range plugins {
		if _, ok := defaults[p.Name]; !ok {
			return nil, errors.Errorf("svgo: unknown plugin %q", p.Name)
		}
		active[p.Name] = p.Active
	}
	return active, nil
}

// Optimize rewrites markup according to the active plugins. Whitespace-only
// text between elements is always dropped.
func Optimize(markup string, opts Options) (Result, error) {
	active, err := resolve(opts.Plugins)
	if err != nil {
		return Result{}, err
	}

	var (
		w        bytes.Buffer
		stack    []string
		cur      *tag
		seenRoot bool
		skipAt   = -1
		skipPI   bool
	)
	w.Grow(len(markup))

	l := xml.NewLexer(parse.NewInputString(markup))
	for {
		tt, data := l.Next()
		emit := skipAt < 0

		switch tt {
		case xml.ErrorToken:
			if l.Err() != io.EOF {
				return Result{}, errors.Wrap(l.Err(), "svgo: parse")
			}
			if !seenRoot {
				return Result{}, errors.New("svgo: no <svg> element")
			}
			return Result{Data: w.String()}, nil

		case xml.CommentToken:
			if emit && !active[RemoveComments] {
				w.Write(data)
			}

		case xml.DOCTYPEToken:
			if emit && !active[RemoveDoctype] {
				w.Write(data)
			}

		case xml.StartTagPIToken:
			skipPI = !emit || (active[RemoveXMLProcInst] && string(l.Text()) == "xml")
			if !skipPI {
				w.Write(data)
			}

		case xml.StartTagClosePIToken:
			if !skipPI {
				w.Write(data)
			}
			skipPI = false

		case xml.StartTagToken:
			name := string(l.Text())
			cur = &tag{name: name}
			if len(stack) == 0 && !seenRoot {
				if localName(name) != "svg" {
					return Result{}, errors.Errorf("svgo: root element is <%s>, want <svg>", name)
				}
				cur.root, seenRoot = true, true
			}
			if skipAt < 0 && active[RemoveMetadata] && localName(name) == "metadata" {
				skipAt = len(stack)
			}
			stack = append(stack, name)

		case xml.AttributeToken:
			if cur == nil {
				if skipPI || !emit {
					continue
				}
				// attribute of a processing instruction
				w.WriteByte(' ')
				w.Write(l.Text())
				if v := l.AttrVal(); len(v) > 0 {
					w.WriteByte('=')
					w.Write(v)
				}
				continue
			}
			cur.attrs = append(cur.attrs, attr{
				key: string(l.Text()),
				raw: append([]byte(nil), l.AttrVal()...),
			})

		case xml.StartTagCloseToken, xml.StartTagCloseVoidToken:
			if cur == nil {
				continue
			}
			if cur.root {
				applyRootPlugins(cur, active)
			}
			if skipAt < 0 {
				cur.write(&w)
				w.Write(data)
			}
			cur = nil
			if tt == xml.StartTagCloseVoidToken {
				stack = pop(stack, &skipAt)
			}

		case xml.EndTagToken:
			stack = pop(stack, &skipAt)
			if emit {
				w.Write(data)
			}

		case xml.TextToken:
			if !emit {
				continue
			}
			if len(bytes.TrimSpace(data)) == 0 && !inPreserved(stack) {
				continue
			}
			w.Write(data)

		default:
			if emit {
				w.Write(data)
			}
		}
	}
}

func pop(stack []string, skipAt *int) []string {
	if len(stack) > 0 {
		stack = stack[:len(stack)-1]
	}
	if len(stack) == *skipAt {
		*skipAt = -1
	}
	return stack
}

func inPreserved(stack []string) bool {
	for _, n := range stack {
		if preserveSpace[localName(n)] {
			return true
		}
	}
	return false
}

func localName(n string) string {
	if i := strings.LastIndexByte(n, ':'); i >= 0 {
		return n[i+1:]
	}
	return n
}

func applyRootPlugins(t *tag, active map[string]bool) {
	if active[RemoveViewBox] {
		vb, ok := t.get("viewBox")
		w, wok := t.get("width")
		h, hok := t.get("height")
		if ok && wok && hok {
			if box, err := parseViewBox(vb); err == nil && box[0] == 0 && box[1] == 0 {
				if wv, err := parseLength(w); err == nil && wv == box[2] {
					if hv, err := parseLength(h); err == nil && hv == box[3] {
						t.del("viewBox")
					}
				}
			}
		}
	}

	if active[RemoveDimensions] {
		if _, ok := t.get("viewBox"); ok {
			t.del("width", "height")
			return
		}
		w, wok := t.get("width")
		h, hok := t.get("height")
		if !wok || !hok {
			return
		}
		wv, err := parseLength(w)
		if err != nil {
			return
		}
		hv, err := parseLength(h)
		if err != nil {
			return
		}
		t.del("width", "height")
		t.attrs = append(t.attrs, attr{
			key: "viewBox",
			raw: []byte(fmt.Sprintf(`"0 0 %s %s"`, formatNum(wv), formatNum(hv))),
		})
	}
}

// parseLength accepts unitless or px lengths.
func parseLength(s string) (float64, error) {
	s = strings.TrimSuffix(strings.TrimSpace(s), "px")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if v < 0 {
		return 0, errors.Errorf("negative length %q", s)
	}
	return v, nil
}

func parseViewBox(s string) ([4]float64, error) {
	var box [4]float64
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ' ' || r == ',' || r == '\t' || r == '\n' || r == '\r'
	})
	if len(fields) != 4 {
		return box, errors.Errorf("viewBox %q: want 4 numbers", s)
	}
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return box, errors.Wrapf(err, "viewBox %q", s)
		}
		box[i] = v
	}
	return box, nil
}

func formatNum(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
