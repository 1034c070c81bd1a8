// Package errors provides the coded, structured errors raised by treepatch.
//
// Every failure that reaches a caller is a *TreeError carrying a stable code
// from the registry, a category, and the operation that failed. Tree
// operations never clamp or repair their input: a failing call leaves the
// tree exactly as it was and reports why.
//
// # Error Categories
//
//   - bounds: an index or count falls outside the child list
//   - structural: a text node was treated as a container, the node is not a
//     child of the current container, or the cursor was popped past the root
//   - protocol: a patch frame could not be decoded
//   - config: configuration failed validation
//   - storage: a snapshot store call failed
//
// # Usage
//
//	err := errors.Bounds("remove", 7, 3)
//	fmt.Println(err)
//	// E100: remove: index 7 out of bounds for length 3
//
//	if errors.IsStructural(err) { ... }
//
// Sentinels such as ErrTextNode match any error with the same code through
// the standard library errors.Is.
package errors
