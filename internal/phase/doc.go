// Package phase classifies the market's position relative to scheduled
// high-impact releases.
//
// Classification is a pure function of (now, events). Post-event phases
// take priority over pre-event phases: a release that has just printed
// matters more than one still pending. DayCache keeps the parsed schedule
// for the current exchange day and is the only state in the package.
package phase
