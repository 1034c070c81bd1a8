package dom

import (
	"iter"
	"strings"
)

// AttrValue is either a string value or a boolean presence flag.
// A boolean attribute renders as its bare name.
type AttrValue struct {
	Value string
	Bool  bool
}

// String returns the string form of the value. Boolean attributes have none.
func (v AttrValue) String() string {
	if v.Bool {
		return ""
	}
	return v.Value
}

// ClassList is an ordered set of class names.
type ClassList struct {
	names OrderedMap[struct{}]
}

// Add adds each name that is not already present. Existing names keep
// their position.
func (c *ClassList) Add(names ...string) {
	for _, name := range names {
		if name == "" || c.names.Has(name) {
			continue
		}
		c.names.Set(name, struct{}{})
	}
}

// Remove removes name and reports whether it was present.
func (c *ClassList) Remove(name string) bool {
	return c.names.Delete(name)
}

// Toggle adds name when absent and removes it when present.
// It returns whether name is present afterwards.
func (c *ClassList) Toggle(name string) bool {
	if c.names.Has(name) {
		c.names.Delete(name)
		return false
	}
	c.Add(name)
	return true
}

// ToggleForce adds name when force is true and removes it otherwise.
// It returns force.
func (c *ClassList) ToggleForce(name string, force bool) bool {
	if force {
		c.Add(name)
	} else {
		c.names.Delete(name)
	}
	return force
}

// Contains reports whether name is present.
func (c *ClassList) Contains(name string) bool {
	return c.names.Has(name)
}

// Len returns the number of classes.
func (c *ClassList) Len() int {
	return c.names.Len()
}

// Values returns the class names in order.
func (c *ClassList) Values() []string {
	return c.names.Keys()
}

// Clear removes all classes.
func (c *ClassList) Clear() {
	c.names.Clear()
}

// String joins the class names with single spaces.
func (c *ClassList) String() string {
	return strings.Join(c.names.Keys(), " ")
}

// StyleMap is an ordered table of style properties.
type StyleMap struct {
	props OrderedMap[string]
}

// Set sets property to value. An existing property keeps its position.
func (s *StyleMap) Set(property, value string) {
	s.props.Set(property, value)
}

// Get returns the value of property.
func (s *StyleMap) Get(property string) (string, bool) {
	return s.props.Get(property)
}

// Has reports whether property is set.
func (s *StyleMap) Has(property string) bool {
	return s.props.Has(property)
}

// Remove removes property and reports whether it was set.
func (s *StyleMap) Remove(property string) bool {
	return s.props.Delete(property)
}

// Len returns the number of properties.
func (s *StyleMap) Len() int {
	return s.props.Len()
}

// All yields property/value pairs in order.
func (s *StyleMap) All() iter.Seq2[string, string] {
	return s.props.All()
}

// Clear removes every property.
func (s *StyleMap) Clear() {
	s.props.Clear()
}
