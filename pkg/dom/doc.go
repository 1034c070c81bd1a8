// Package dom provides the retained node tree that patches are applied to.
//
// A tree is made of two node kinds. Element carries a tag, an ordered
// attribute table, an ordered class list, an ordered style table and an
// ordered list of children. Text is a leaf holding raw, unescaped content;
// escaping happens only when the tree is serialized.
//
// # Ordering
//
// Attributes, classes and styles iterate in insertion order. Updating an
// existing key keeps its position; removing a key and adding it again moves
// it to the end. The serializer depends on this for deterministic output.
//
// # Ownership
//
// An Element is owned by exactly one parent. Detach it before inserting it
// somewhere else. A Text node may be shared by several parents, and a
// SetContent call is visible through all of them.
//
// # Building trees
//
//	list := dom.NewElement("ul").Append(
//	    dom.NewElement("li").Append(dom.NewText("one")),
//	    dom.NewElement("li").Append(dom.NewText("two")),
//	)
//	list.Classes().Add("menu")
//
// Parse builds detached subtrees from existing markup.
package dom
