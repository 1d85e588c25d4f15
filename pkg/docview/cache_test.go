// Copyright (C) 2025 Octank Labs (oss@octanklabs.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package docview

import "testing"

func TestCache(t *testing.T) {
	c := NewCache()

	if _, ok := c.Get("claims_faq.md"); ok {
		t.Error("Get on empty cache returned a hit")
	}

	c.Put("claims_faq.md", "# Claims FAQ")
	body, ok := c.Get("claims_faq.md")
	if !ok || body != "# Claims FAQ" {
		t.Errorf("Get = %q, %v; want cached body", body, ok)
	}
	if c.Len() != 1 {
		t.Errorf("Len = %d, want 1", c.Len())
	}

	c.Clear()
	if c.Len() != 0 {
		t.Errorf("Len after Clear = %d, want 0", c.Len())
	}
	if _, ok := c.Get("claims_faq.md"); ok {
		t.Error("Get after Clear returned a hit")
	}
}
