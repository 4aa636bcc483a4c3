// Package app contains the core application logic: configuring the
// inclusion engine, assembling a root settings file into a scope, and
// rendering the result, decoupled from any specific entrypoint.
package app
