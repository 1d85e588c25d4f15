// Copyright (C) 2025 Octank Labs (oss@octanklabs.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package docview turns raw knowledge-base markdown into renderable blocks
// and locates a retrieved chunk inside its source document so the viewer
// can highlight the exact passage a reply was grounded on.
package docview

import "strings"

const (
	// minChunkLen guards against highlighting trivially short chunks,
	// which match all over the document.
	minChunkLen = 30

	// needleHead and needleProbe bound the search: the needle is the
	// chunk's first needleHead characters, and matching probes only its
	// first needleProbe characters. Chunks are extracted verbatim from
	// the document, so a prefix match is reliable; the tail of a chunk
	// may span reformatted whitespace and is not.
	needleHead  = 60
	needleProbe = 40
)

// Region is a half-open byte range [Start, End) in the document.
type Region struct {
	Start int
	End   int
}

// Resolve locates chunk inside doc and returns the region to highlight.
// The match is case-insensitive on the chunk's leading characters; the
// region covers the full chunk length, clamped to the document. ok is
// false when the chunk is too short or not found, in which case the
// caller renders the document without a highlight.
func Resolve(doc, chunk string) (Region, bool) {
	chunk = strings.TrimSpace(chunk)
	if len(chunk) <= minChunkLen {
		return Region{}, false
	}

	needle := chunk
	if len(needle) > needleHead {
		needle = needle[:needleHead]
	}
	needle = strings.TrimSpace(needle)
	if len(needle) > needleProbe {
		needle = needle[:needleProbe]
	}

	start := strings.Index(strings.ToLower(doc), strings.ToLower(needle))
	if start < 0 {
		return Region{}, false
	}

	end := start + len(chunk)
	if end > len(doc) {
		end = len(doc)
	}
	return Region{Start: start, End: end}, true
}

// BlockKind classifies a rendered line.
type BlockKind int

const (
	BlockParagraph BlockKind = iota
	BlockHeading
	BlockListItem
	BlockBlank
)

// Block is one renderable unit of a document. Highlight marks blocks that
// overlap the resolved chunk region.
type Block struct {
	Kind      BlockKind
	Level     int // heading level 1..4, 0 otherwise
	Ordered   bool
	Text      string
	Highlight bool
}

// Render splits markdown into blocks in a single pass over its lines,
// marking each block that overlaps region. Pass a zero Region with no
// match to render without highlights.
//
// Recognized structure is deliberately small: ATX headings to four
// levels, bulleted and numbered list items, blank separators, and
// paragraphs. Everything else renders as paragraph text.
func Render(doc string, region Region, highlight bool) []Block {
	lines := strings.Split(doc, "\n")
	blocks := make([]Block, 0, len(lines))

	offset := 0
	for _, line := range lines {
		lineStart := offset
		lineEnd := offset + len(line)
		offset = lineEnd + 1 // the split newline

		b := classify(line)
		if highlight && lineStart < region.End && lineEnd > region.Start {
			b.Highlight = true
		}
		blocks = append(blocks, b)
	}
	return blocks
}

func classify(line string) Block {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return Block{Kind: BlockBlank}
	}

	if strings.HasPrefix(trimmed, "#") {
		level := 0
		for level < len(trimmed) && trimmed[level] == '#' {
			level++
		}
		if level <= 4 && level < len(trimmed) && trimmed[level] == ' ' {
			return Block{
				Kind:  BlockHeading,
				Level: level,
				Text:  strings.TrimSpace(trimmed[level:]),
			}
		}
	}

	if strings.HasPrefix(trimmed, "- ") || strings.HasPrefix(trimmed, "* ") {
		return Block{Kind: BlockListItem, Text: strings.TrimSpace(trimmed[2:])}
	}
	if text, ok := numberedItem(trimmed); ok {
		return Block{Kind: BlockListItem, Ordered: true, Text: text}
	}

	return Block{Kind: BlockParagraph, Text: trimmed}
}

// numberedItem matches "1. text" style list markers.
func numberedItem(line string) (string, bool) {
	i := 0
	for i < len(line) && line[i] >= '0' && line[i] <= '9' {
		i++
	}
	if i == 0 || i+1 >= len(line) || line[i] != '.' || line[i+1] != ' ' {
		return "", false
	}
	return strings.TrimSpace(line[i+1:]), true
}
