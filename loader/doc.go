// Package loader evaluates script modules into an interpreter in a
// declared order.
//
// A Sequence names each module, where its source lives and which modules it
// requires. Validate rejects sequences whose requirements are unknown,
// duplicated, cyclic or placed later in the list, before any source is read.
// Load then evaluates each module as one compile-and-run unit tagged with
// its label and stops at the first failure.
package loader
