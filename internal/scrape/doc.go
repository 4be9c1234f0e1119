// Package scrape fetches the first HTML table of a page and prepares its rows
// for extraction prompts.
//
// Rows are cleaned of presentational markup (span, a, div, link, style, i, b
// and sup elements are unwrapped, row attributes dropped), split into chunks
// that each repeat the header row, and rendered either as HTML or Markdown.
package scrape
