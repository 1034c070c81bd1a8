// Package applier applies positional patch operations to a dom tree.
//
// A TreeApplier holds a cursor: the current container, initially the root,
// and a stack of the containers above it. Insert, Remove, Move and Clear act
// on the children of the current container. Down enters one of those
// children and Up returns to the container it was entered from.
//
//	a := applier.New(root)
//	a.InsertBottomUp(0, list)   // list already has its children
//	a.Down(list)
//	a.Move(3, 1, 2)
//	a.Up()
//
// Only bottom-up insertion is supported. InsertTopDown exists so that
// reconcilers written against both directions can drive this applier, and
// does nothing.
//
// Every failing call leaves the tree and the cursor unchanged. The applier
// is not safe for concurrent use; callers serialize batches.
package applier
