// Package filters contains the causal indicator pipelines applied to price
// arrays: Wilder RSI, the roofing-filter cycle oscillator, the squeeze
// compression detector, the Williams VIX fix and MACD.
//
// Every function takes dense price slices and returns series.Series outputs of
// the same length. Leading positions without enough history are null, and no
// output at index i reads an input beyond i.
package filters
