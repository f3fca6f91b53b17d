// Package rolling provides causal window statistics over nullable arrays.
// Every function only reads positions at or before the output index.
package rolling
