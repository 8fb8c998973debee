// Package syncdir keeps an assembly directory in step with the computed set
// of artifacts.
//
// Place copies resolved artifacts into a directory, skipping files that are
// already up to date: a destination is rewritten only when it is missing,
// when the artifact is a session module, or when its size differs from the
// source. Prune then removes whatever a previous run left behind. Running
// both with an unchanged artifact set leaves the directory untouched.
package syncdir
