// Package registry is the node catalog. Modules register the kinds of node
// they provide; the graph store instantiates nodes by kind name when the user
// picks one from the menu or when a snapshot is loaded.
//
// During application startup, the registry is populated and then validated so
// that a broken kind fails fast instead of when a user first adds it.
package registry
