package scrape

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
	"golang.org/x/net/html"
)

// DefaultChunkSize is the number of data rows per chunk.
const DefaultChunkSize = 10

// Chunk splits rows into chunks of at most size data rows. The first row is
// the header and is repeated at the top of every chunk. Non-positive sizes
// use DefaultChunkSize. A table with only a header yields no chunks.
func Chunk(rows []*html.Node, size int) [][]*html.Node {
	if size <= 0 {
		size = DefaultChunkSize
	}
	if len(rows) < 2 {
		return nil
	}

	header := rows[0]
	var chunks [][]*html.Node
	for i := 1; i < len(rows); i += size {
		end := min(i+size, len(rows))
		chunk := make([]*html.Node, 0, end-i+1)
		chunk = append(chunk, header)
		chunk = append(chunk, rows[i:end]...)
		chunks = append(chunks, chunk)
	}
	return chunks
}

// RenderHTML renders each row of chunk and joins them with a blank line.
func RenderHTML(chunk []*html.Node) (string, error) {
	parts := make([]string, 0, len(chunk))
	for _, row := range chunk {
		var buf bytes.Buffer
		if err := html.Render(&buf, row); err != nil {
			return "", fmt.Errorf("failed to render row: %w", err)
		}
		parts = append(parts, buf.String())
	}
	return strings.Join(parts, "\n\n"), nil
}

// Markdown renders chunk as a Markdown table, header row first.
func Markdown(chunk []*html.Node) (string, error) {
	var buf bytes.Buffer
	buf.WriteString("<table>")
	for _, row := range chunk {
		if err := html.Render(&buf, row); err != nil {
			return "", fmt.Errorf("failed to render row: %w", err)
		}
	}
	buf.WriteString("</table>")

	conv := converter.NewConverter(
		converter.WithPlugins(
			base.NewBasePlugin(),
			commonmark.NewCommonmarkPlugin(),
			table.NewTablePlugin(),
		),
	)
	markdown, err := conv.ConvertString(buf.String())
	if err != nil {
		return "", fmt.Errorf("failed to convert HTML to Markdown: %w", err)
	}
	return markdown, nil
}

// SaveJSON re-indents the JSON document raw with four spaces and writes it
// to path.
func SaveJSON(path string, raw []byte) error {
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "    "); err != nil {
		return fmt.Errorf("invalid JSON document: %w", err)
	}
	buf.WriteByte('\n')

	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
