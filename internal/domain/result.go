package domain

import "strconv"

// Result is a single search match: a location plus, for raw-value matches,
// the matched text or number.
type Result struct {
	Location      Location `validate:"-"`
	MatchedText   string
	MatchedNumber *float64 `validate:"excluded_with=MatchedText"`
}

// NewClassResult creates a structural match inside a class.
func NewClassResult(loc *ClassLocation) Result {
	return Result{Location: loc}
}

// NewTextResult creates a match on text inside a file.
func NewTextResult(file *FileInfo, text string) Result {
	return Result{Location: &FileLocation{File: file}, MatchedText: text}
}

// NewNumberResult creates a match on a numeric literal inside a file.
func NewNumberResult(file *FileInfo, n float64) Result {
	return Result{Location: &FileLocation{File: file}, MatchedNumber: &n}
}

// HasMatchedValue reports whether the result carries a raw matched value.
func (r Result) HasMatchedValue() bool {
	return r.MatchedText != "" || r.MatchedNumber != nil
}

// MatchedValue returns the matched text, or the matched number in its
// shortest decimal form. It returns "" when neither is set.
func (r Result) MatchedValue() string {
	if r.MatchedNumber != nil {
		return strconv.FormatFloat(*r.MatchedNumber, 'g', -1, 64)
	}
	return r.MatchedText
}
