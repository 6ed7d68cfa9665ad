/*
Package nodeid defines the textual forms of node identifiers and port
endpoints.

A node id is a dot-separated sequence of segments, e.g. `a`, `blur-1` or
`group.blur`; generated ids are UUIDs. An endpoint names one port of one
node as `node.port`. Since node ids may contain dots, an endpoint is split at
its last dot.

This package centralizes the format so every snapshot codec agrees on it.
*/
package nodeid
