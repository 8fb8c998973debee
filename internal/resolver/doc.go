// Package resolver turns coordinates into local files.
//
// Resolution proper is delegated: a Resolver only answers "which file on disk
// holds this coordinate, and is it a module of the current build". The
// LocalRepository implementation reads a repository laid out as
// group/as/path/name/version/name-version[-classifier].ext and serves
// configured session modules from their build output. Cached puts an LRU in
// front of any Resolver.
package resolver
