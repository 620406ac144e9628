/**
 * OCR Types - Shared result shapes for every engine
 *
 * A RecognitionResult serializes either a "text" field or an "error" field,
 * never both. Successful results always carry a "boxes" array, empty when
 * the engine has no geometry.
 */

package ocr

import (
	"encoding/json"
	"fmt"

	apperrors "github.com/adverant/nexus/docextract/internal/errors"
)

// Point is an (x, y) coordinate in image or page space.
type Point [2]float64

// Quad is a 4-point polygon, clockwise from the top-left corner.
type Quad [4]Point

// QuadFromRect builds the quadrilateral of an axis-aligned rectangle.
func QuadFromRect(x0, y0, x1, y1 float64) Quad {
	return Quad{{x0, y0}, {x1, y0}, {x1, y1}, {x0, y1}}
}

// Word is per-token detail: the recognized text, its confidence and its box.
type Word struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
	Box        Quad    `json:"box"`
}

// Confidence is either a single value or one value per text element.
// The zero value means "not reported".
type Confidence struct {
	scalar  *float64
	perItem []float64
	isList  bool
}

// Scalar returns a single-valued confidence.
func Scalar(v float64) Confidence {
	return Confidence{scalar: &v}
}

// PerElement returns a per-element confidence list.
func PerElement(values []float64) Confidence {
	if values == nil {
		values = []float64{}
	}
	return Confidence{perItem: values, isList: true}
}

// IsSet reports whether the engine reported any confidence.
func (c Confidence) IsSet() bool {
	return c.scalar != nil || c.isList
}

// Value returns the scalar confidence. ok is false for lists and unset values.
func (c Confidence) Value() (v float64, ok bool) {
	if c.scalar == nil {
		return 0, false
	}
	return *c.scalar, true
}

// List returns the per-element values, or nil for scalars.
func (c Confidence) List() []float64 {
	return c.perItem
}

func (c Confidence) MarshalJSON() ([]byte, error) {
	switch {
	case c.scalar != nil:
		return json.Marshal(*c.scalar)
	case c.isList:
		return json.Marshal(c.perItem)
	default:
		return []byte("null"), nil
	}
}

func (c *Confidence) UnmarshalJSON(data []byte) error {
	*c = Confidence{}
	if string(data) == "null" {
		return nil
	}
	if len(data) > 0 && data[0] == '[' {
		var list []float64
		if err := json.Unmarshal(data, &list); err != nil {
			return err
		}
		*c = PerElement(list)
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("confidence: %w", err)
	}
	*c = Scalar(v)
	return nil
}

// RecognitionResult is what one engine returns for one image.
type RecognitionResult struct {
	Engine      string
	Model       string
	Text        string
	Confidence  Confidence
	Boxes       []Quad
	Words       []Word
	RawResponse json.RawMessage
	Err         *apperrors.ProcessingError
}

// Failure builds an error-shaped result.
func Failure(engine string, err *apperrors.ProcessingError) RecognitionResult {
	return RecognitionResult{Engine: engine, Err: err}
}

// OK reports whether the result carries text rather than an error.
func (r RecognitionResult) OK() bool {
	return r.Err == nil
}

// PageResult is a RecognitionResult tagged with its 1-based page number.
type PageResult struct {
	Page int
	RecognitionResult
}

// DocumentResult is what one engine returns for one PDF.
type DocumentResult struct {
	Engine string
	Model  string
	Pages  []PageResult
	Err    *apperrors.ProcessingError
}

// DocumentFailure builds an error-shaped document result.
func DocumentFailure(engine string, err *apperrors.ProcessingError) DocumentResult {
	return DocumentResult{Engine: engine, Err: err}
}

// OK reports whether the document result carries pages rather than an error.
func (d DocumentResult) OK() bool {
	return d.Err == nil
}

// NativeEngine is the engine name of results taken from a PDF text layer.
const NativeEngine = "native_pdf"

type wireResult struct {
	Page        *int            `json:"page,omitempty"`
	Engine      string          `json:"engine,omitempty"`
	Model       string          `json:"model,omitempty"`
	Text        *string         `json:"text,omitempty"`
	Confidence  *Confidence     `json:"confidence,omitempty"`
	Boxes       *[]Quad         `json:"boxes,omitempty"`
	Words       []Word          `json:"word_data,omitempty"`
	RawResponse json.RawMessage `json:"raw_response,omitempty"`
	Error       string          `json:"error,omitempty"`
	ErrorCode   string          `json:"error_code,omitempty"`
}

func (r RecognitionResult) wire() wireResult {
	w := wireResult{Engine: r.Engine, Model: r.Model}
	if r.Err != nil {
		w.Error = r.Err.Text()
		w.ErrorCode = string(r.Err.Code)
		return w
	}

	text := r.Text
	w.Text = &text
	if r.Confidence.IsSet() {
		c := r.Confidence
		w.Confidence = &c
	}
	boxes := r.Boxes
	if boxes == nil {
		boxes = []Quad{}
	}
	w.Boxes = &boxes
	w.Words = r.Words
	w.RawResponse = r.RawResponse
	return w
}

func (r *RecognitionResult) fromWire(w wireResult) {
	*r = RecognitionResult{Engine: w.Engine, Model: w.Model}
	if w.Error != "" || w.Text == nil {
		code := apperrors.ErrorCode(w.ErrorCode)
		if code == "" {
			code = apperrors.ErrorBackendFailure
		}
		r.Err = &apperrors.ProcessingError{Code: code, Message: w.Error}
		return
	}
	r.Text = *w.Text
	if w.Confidence != nil {
		r.Confidence = *w.Confidence
	}
	if w.Boxes != nil {
		r.Boxes = *w.Boxes
	}
	r.Words = w.Words
	r.RawResponse = w.RawResponse
}

func (r RecognitionResult) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.wire())
}

func (r *RecognitionResult) UnmarshalJSON(data []byte) error {
	var w wireResult
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	r.fromWire(w)
	return nil
}

func (p PageResult) MarshalJSON() ([]byte, error) {
	w := p.RecognitionResult.wire()
	page := p.Page
	w.Page = &page
	return json.Marshal(w)
}

func (p *PageResult) UnmarshalJSON(data []byte) error {
	var w wireResult
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	p.RecognitionResult.fromWire(w)
	if w.Page != nil {
		p.Page = *w.Page
	}
	return nil
}

type wireDocument struct {
	Engine    string        `json:"engine,omitempty"`
	Model     string        `json:"model,omitempty"`
	Pages     *[]PageResult `json:"pages,omitempty"`
	Error     string        `json:"error,omitempty"`
	ErrorCode string        `json:"error_code,omitempty"`
}

func (d DocumentResult) MarshalJSON() ([]byte, error) {
	w := wireDocument{Engine: d.Engine, Model: d.Model}
	if d.Err != nil {
		w.Error = d.Err.Text()
		w.ErrorCode = string(d.Err.Code)
		return json.Marshal(w)
	}
	pages := d.Pages
	if pages == nil {
		pages = []PageResult{}
	}
	w.Pages = &pages
	return json.Marshal(w)
}

func (d *DocumentResult) UnmarshalJSON(data []byte) error {
	var w wireDocument
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*d = DocumentResult{Engine: w.Engine, Model: w.Model}
	if w.Error != "" || w.Pages == nil {
		d.Err = &apperrors.ProcessingError{Code: apperrors.ErrorCode(w.ErrorCode), Message: w.Error}
		return nil
	}
	d.Pages = *w.Pages
	return nil
}
