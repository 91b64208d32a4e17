// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package report

// Section is one keyed piece of report content produced by a stage.
type Section struct {
	Key   string
	Value any
}

// Context accumulates report sections in insertion order. Stages read it;
// only the pipeline writes to it, merging each stage's sections once the
// stage returns.
type Context struct {
	keys   []string
	values map[string]any
}

// NewContext returns an empty Context.
func NewContext() *Context {
	return &Context{values: map[string]any{}}
}

// Set stores v under key. Replacing an existing key keeps its position.
func (c *Context) Set(key string, v any) {
	if _, ok := c.values[key]; !ok {
		c.keys = append(c.keys, key)
	}
	c.values[key] = v
}

// Merge stores every section in order.
func (c *Context) Merge(sections []Section) {
	for _, s := range sections {
		c.Set(s.Key, s.Value)
	}
}

// Value returns the content stored under key.
func (c *Context) Value(key string) (any, bool) {
	v, ok := c.values[key]
	return v, ok
}

// String returns the string stored under key, or "" when absent or not a string.
func (c *Context) String(key string) string {
	s, _ := c.values[key].(string)
	return s
}

// Keys returns the keys in insertion order.
func (c *Context) Keys() []string {
	out := make([]string, len(c.keys))
	copy(out, c.keys)
	return out
}

// Len returns the number of keys.
func (c *Context) Len() int { return len(c.keys) }
