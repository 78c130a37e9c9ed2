// ABOUTME: Line is a single extracted transcript line with its page position
// ABOUTME: Page and line numbers are 1-based and anchor chunk provenance spans
package models

// Line is one line of text pulled from the source PDF. LineNo restarts
// at 1 on every page.
type Line struct {
	Text   string `json:"text"`
	Page   int    `json:"page"`
	LineNo int    `json:"line_no"`
}
