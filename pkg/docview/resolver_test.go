// Copyright (C) 2025 Octank Labs (oss@octanklabs.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package docview

import (
	"strings"
	"testing"
)

const sampleDoc = `# Claims FAQ

## Filing a claim

Claims are reviewed within 5 business days of submission. Members can
check status at any time through the portal.

- Gather your documents
- Submit through the portal
1. Review confirmation email
2. Wait for adjuster contact
`

func TestResolve(t *testing.T) {
	t.Run("locates a verbatim chunk", func(t *testing.T) {
		chunk := "Claims are reviewed within 5 business days of submission."
		region, ok := Resolve(sampleDoc, chunk)
		if !ok {
			t.Fatal("Resolve = false, want match")
		}
		want := strings.Index(sampleDoc, "Claims are reviewed")
		if region.Start != want {
			t.Errorf("Start = %d, want %d", region.Start, want)
		}
		if region.End != want+len(chunk) {
			t.Errorf("End = %d, want %d", region.End, want+len(chunk))
		}
	})

	t.Run("match is case-insensitive", func(t *testing.T) {
		chunk := "CLAIMS ARE REVIEWED WITHIN 5 BUSINESS DAYS of it"
		if _, ok := Resolve(sampleDoc, chunk); !ok {
			t.Error("Resolve = false, want case-insensitive match")
		}
	})

	t.Run("short chunks never match", func(t *testing.T) {
		if _, ok := Resolve(sampleDoc, "Claims are reviewed"); ok {
			t.Error("Resolve = true for chunk at or under the length floor")
		}
	})

	t.Run("absent chunk reports no match", func(t *testing.T) {
		chunk := "This sentence appears nowhere in the source document at all."
		if _, ok := Resolve(sampleDoc, chunk); ok {
			t.Error("Resolve = true, want no match")
		}
	})

	t.Run("region clamps at document end", func(t *testing.T) {
		// The chunk's prefix matches but its tail runs past the document.
		chunk := "Review confirmation email\n2. Wait for adjuster contact and then some extra trailing text"
		region, ok := Resolve(sampleDoc, chunk)
		if !ok {
			t.Fatal("Resolve = false, want prefix match")
		}
		if region.End != len(sampleDoc) {
			t.Errorf("End = %d, want clamped to %d", region.End, len(sampleDoc))
		}
	})
}

func TestRender_Structure(t *testing.T) {
	blocks := Render(sampleDoc, Region{}, false)

	if blocks[0].Kind != BlockHeading || blocks[0].Level != 1 || blocks[0].Text != "Claims FAQ" {
		t.Errorf("block 0 = %+v, want level-1 heading", blocks[0])
	}
	if blocks[1].Kind != BlockBlank {
		t.Errorf("block 1 = %+v, want blank", blocks[1])
	}
	if blocks[2].Kind != BlockHeading || blocks[2].Level != 2 {
		t.Errorf("block 2 = %+v, want level-2 heading", blocks[2])
	}

	var bullets, numbered, paragraphs int
	for _, b := range blocks {
		switch b.Kind {
		case BlockListItem:
			if b.Ordered {
				numbered++
			} else {
				bullets++
			}
		case BlockParagraph:
			paragraphs++
		}
	}
	if bullets != 2 {
		t.Errorf("bullets = %d, want 2", bullets)
	}
	if numbered != 2 {
		t.Errorf("numbered = %d, want 2", numbered)
	}
	if paragraphs == 0 {
		t.Error("no paragraph blocks")
	}
}

func TestRender_DeepHeadingLevels(t *testing.T) {
	doc := "#### Fourth\n##### Fifth"
	blocks := Render(doc, Region{}, false)

	if blocks[0].Kind != BlockHeading || blocks[0].Level != 4 {
		t.Errorf("block 0 = %+v, want level-4 heading", blocks[0])
	}
	// Beyond four levels renders as a paragraph.
	if blocks[1].Kind != BlockParagraph {
		t.Errorf("block 1 = %+v, want paragraph", blocks[1])
	}
}

func TestRender_Highlight(t *testing.T) {
	chunk := "Claims are reviewed within 5 business days of submission."
	region, ok := Resolve(sampleDoc, chunk)
	if !ok {
		t.Fatal("Resolve failed")
	}

	blocks := Render(sampleDoc, region, true)

	var highlighted []string
	for _, b := range blocks {
		if b.Highlight {
			highlighted = append(highlighted, b.Text)
		}
	}
	if len(highlighted) != 1 {
		t.Fatalf("highlighted %d blocks, want 1: %v", len(highlighted), highlighted)
	}
	if !strings.HasPrefix(highlighted[0], "Claims are reviewed") {
		t.Errorf("highlighted wrong block: %q", highlighted[0])
	}

	// Heading above the chunk stays unhighlighted.
	if blocks[2].Highlight {
		t.Error("heading highlighted")
	}
}

func TestRender_NoHighlightFlag(t *testing.T) {
	blocks := Render(sampleDoc, Region{Start: 0, End: len(sampleDoc)}, false)
	for i, b := range blocks {
		if b.Highlight {
			t.Errorf("block %d highlighted with highlighting disabled", i)
		}
	}
}
