// Copyright (C) 2025 Octank Labs (oss@octanklabs.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package docview

// Cache memoizes fetched document bodies for the life of a session.
// Documents never change mid-session, so there is no eviction; only
// successful fetches are stored, so a transient fetch failure is retried
// on the next open. Clear it on session reset.
//
// Cache is used only from the event loop and needs no locking.
type Cache struct {
	docs map[string]string
}

func NewCache() *Cache {
	return &Cache{docs: make(map[string]string)}
}

// Get returns the cached body for a document name.
func (c *Cache) Get(name string) (string, bool) {
	body, ok := c.docs[name]
	return body, ok
}

// Put stores a successfully fetched body.
func (c *Cache) Put(name, body string) {
	c.docs[name] = body
}

// Len reports how many documents are cached.
func (c *Cache) Len() int { return len(c.docs) }

// Clear drops every cached document.
func (c *Cache) Clear() {
	c.docs = make(map[string]string)
}
