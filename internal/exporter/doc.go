// Package exporter writes built feature matrices.
//
// Every matrix is written as CSV with a companion schema.json. Parquet and an
// XLSX preview are optional. Null cells are empty in CSV and null in Parquet;
// text cells containing delimiters or quotes are quoted with doubled quotes.
//
// Example usage:
//
//	files, err := exporter.New(outDir, logger).Export(ctx, m, exporter.Formats{Parquet: true})
package exporter
