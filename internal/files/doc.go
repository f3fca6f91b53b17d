// Package files inspects the file-backed data directory and the output
// directory.
//
// Discover builds an Inventory of the data directory:
//
//	<dir>/bars/<CODE>.csv | <CODE>.parquet
//	<dir>/macro/<SERIES_ID>.csv
//	<dir>/calendar.csv
//
// Inventory.Missing reports the files a set of requests would fail on, so a
// build can stop before any loading starts. EnsureWritable checks that the
// output directory exists or can be created and accepts new files.
package files
