// Package archive packs assembled directories into zip archives.
//
// Archives are rebuilt from scratch on every call: the destination is
// removed first and entries are written in lexical order with a fixed
// modification time, so two runs over the same tree produce the same entry
// list. Trees holding a file above LargeFileThreshold are streamed through
// a temporary file instead of an in-memory buffer.
package archive
