// Package assembly records where every piece of an assembly ends up.
//
// A Context is a named, rooted list of PathSets. A PathSet is one
// destination directory with an ordered list of PathEntry placements. The
// same Context drives three renderings: the exploded directory on disk, the
// zip archive and the IDE artifact descriptor. Rebase converts a Context to
// another root without touching its structure, so one resolution pass serves
// all of them.
package assembly
