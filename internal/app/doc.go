// Package app is the composition root of the two binaries. NewApplication
// wires the phase server (sources, phase service, optional Redis publisher,
// health checks, HTTP router) and Build runs the configured matrix jobs once.
package app
