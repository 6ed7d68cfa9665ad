// Package app contains the core application logic. It defines the main App
// struct, its configuration, and the primary lifecycle: load a graph, then
// either evaluate it headless or serve it to UI clients, and finally save
// it. It is decoupled from any specific entrypoint like a CLI.
package app
