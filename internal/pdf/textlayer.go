/**
 * PDF text layer
 *
 * Documents produced digitally carry their text; reading it back is exact,
 * so every text element gets confidence 1.0 and no recognition engine runs.
 */

package pdf

import (
	"fmt"
	"math"
	"strings"

	pdfreader "github.com/ledongthuc/pdf"

	"github.com/adverant/nexus/docextract/internal/ocr"
)

// TextLayer reads embedded PDF text
type TextLayer struct{}

// NewTextLayer creates a text layer reader
func NewTextLayer() *TextLayer {
	return &TextLayer{}
}

// HasSelectableText reports whether any page has non-whitespace text.
func (t *TextLayer) HasSelectableText(path string) (bool, error) {
	f, r, err := pdfreader.Open(path)
	if err != nil {
		return false, fmt.Errorf("failed to open PDF: %w", err)
	}
	defer f.Close()

	fonts := make(map[string]*pdfreader.Font)
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(fonts)
		if err != nil {
			return false, fmt.Errorf("failed to read page %d: %w", i, err)
		}
		if strings.TrimSpace(text) != "" {
			return true, nil
		}
	}
	return false, nil
}

// ExtractTextWithConfidence returns the native result bundle: one entry per
// page, pages without text included.
func (t *TextLayer) ExtractTextWithConfidence(path string) (ocr.DocumentResult, error) {
	f, r, err := pdfreader.Open(path)
	if err != nil {
		return ocr.DocumentResult{}, fmt.Errorf("failed to open PDF: %w", err)
	}
	defer f.Close()

	pages := make([]ocr.PageResult, 0, r.NumPage())
	for i := 1; i <= r.NumPage(); i++ {
		var lines []textLine
		if page := r.Page(i); !page.V.IsNull() {
			texts, err := pageTexts(page)
			if err != nil {
				return ocr.DocumentResult{}, fmt.Errorf("failed to read page %d: %w", i, err)
			}
			lines = groupLines(texts)
		}
		pages = append(pages, nativePage(i, lines))
	}

	return ocr.DocumentResult{Engine: ocr.NativeEngine, Pages: pages}, nil
}

// pageTexts returns the positioned glyph runs of a page. The parser panics
// on some malformed content streams.
func pageTexts(page pdfreader.Page) (texts []pdfreader.Text, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("malformed content stream: %v", r)
		}
	}()
	return page.Content().Text, nil
}

// textLine is one text container: a run of glyphs sharing a baseline.
type textLine struct {
	text           []byte
	x0, y0, x1, y1 float64
	lastX, lastY   float64
	lastSpace      bool
}

func groupLines(texts []pdfreader.Text) []textLine {
	var (
		lines []textLine
		cur   *textLine
	)
	for _, t := range texts {
		size := t.FontSize
		if size <= 0 {
			size = 1
		}
		if cur == nil || math.Abs(t.Y-cur.lastY) > size*0.5 || t.X < cur.lastX-size {
			lines = append(lines, textLine{x0: t.X, y0: t.Y, x1: t.X + t.W, y1: t.Y + size, lastX: t.X, lastY: t.Y})
			cur = &lines[len(lines)-1]
		} else if gap := t.X - cur.lastX; gap > size*0.3 && !cur.lastSpace && strings.TrimSpace(t.S) != "" {
			cur.text = append(cur.text, ' ')
		}

		cur.text = append(cur.text, t.S...)
		cur.lastSpace = strings.TrimSpace(t.S) == ""
		cur.lastX = t.X + t.W
		cur.lastY = t.Y
		cur.x0 = math.Min(cur.x0, t.X)
		cur.y0 = math.Min(cur.y0, t.Y)
		cur.x1 = math.Max(cur.x1, t.X+t.W)
		cur.y1 = math.Max(cur.y1, t.Y+size)
	}
	return lines
}

func nativePage(number int, lines []textLine) ocr.PageResult {
	texts := make([]string, 0, len(lines))
	boxes := make([]ocr.Quad, 0, len(lines))
	confs := make([]float64, 0, len(lines))
	words := make([]ocr.Word, 0, len(lines))
	for i := range lines {
		text := strings.TrimSpace(string(lines[i].text))
		if text == "" {
			continue
		}
		l := &lines[i]
		box := ocr.QuadFromRect(l.x0, l.y0, l.x1, l.y1)
		texts = append(texts, text)
		boxes = append(boxes, box)
		confs = append(confs, 1.0)
		words = append(words, ocr.Word{Text: text, Confidence: 1.0, Box: box})
	}

	return ocr.PageResult{
		Page: number,
		RecognitionResult: ocr.RecognitionResult{
			Engine:     ocr.NativeEngine,
			Text:       strings.Join(texts, " "),
			Confidence: ocr.PerElement(confs),
			Boxes:      boxes,
			Words:      words,
		},
	}
}
