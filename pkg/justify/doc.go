// Package justify packs items with known aspect ratios into justified rows.
//
// # Overview
//
// Given an ordered list of [Item] values and a container width, [Pack]
// partitions the items into contiguous rows and assigns each item a display
// width and height. Every row except the last is scaled so that its items
// plus the gaps between them span the container exactly; the last row keeps
// the target row height and may leave space on the right.
//
// The packer is a pure function. It never logs, never blocks, and carries no
// state between calls: re-running it on every resize is the intended usage.
//
// # Algorithm
//
// Items are accumulated left to right. After considering each item the packer
// predicts the row's width at the target height:
//
//	predicted = ratioSum * rowHeight + gap * (count - 1)
//
// With the default [FlushBefore] policy, once appending an item would make
// predicted reach the container width, the row is closed without that item
// and the item starts the next row. An item that overflows an empty row stays
// alone in its own row. [FlushAfter] closes the row after appending the
// overflowing item instead.
//
// A closed interior row of k items with ratio sum S gets the height that
// solves
//
//	H * S + gap * (k - 1) == containerWidth
//
// rounded to whole units. Each item's width is H * ratio rounded to the floor
// or ceiling so that the row sums as close to the container width as integer
// units allow.
//
// # Options
//
//   - [WithMaxPerRow]: close a row once it holds n items
//   - [WithPolicy]: [FlushBefore] (default) or [FlushAfter]
//   - [WithGrowthCap]: clamp interior rows to [rowHeight/f, rowHeight*f] and
//     never let the final row grow past its natural fill height
//
// # Responsive Layouts
//
// [PackResponsive] resolves the row height and gap from a
// [breakpoint.Table] before packing:
//
//	l, err := justify.PackResponsive(items, 1024, breakpoint.Default)
//
// # Errors
//
// Invalid arguments (non-positive width or row height, negative gap, a
// non-positive or non-finite ratio) are rejected with an
// errors.ErrCodeInvalidInput error before any row is built. An empty item
// list is not an error and yields an empty [Layout].
package justify
