// Package matrix assembles point-in-time feature matrices.
//
// A Builder takes one Job and the pre-loaded Inputs, computes every derived
// array over the full primary series in one bulk pass, then emits one Row per
// primary bar. Macro values are read through lag-enforced as-of lookups,
// secondary instruments through the gap-tolerant aligner, and calendar data
// through the event phase classifier and the surprise normalizer. Label
// columns look forward and are never used as inputs to other columns.
package matrix
