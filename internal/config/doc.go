// Package config loads the runtime configuration for the feature build and
// the phase service.
//
// # Configuration Sources
//
// Values are resolved in order of precedence:
//
//  1. Environment variables (highest priority), prefixed FUSION_
//  2. The YAML file named by the caller, FUSION_CONFIG, or ./config.yaml
//  3. Default values (lowest priority)
//
// Examples:
//
//	FUSION_SERVER_PORT=8090
//	FUSION_SOURCES_KIND=postgres
//	FUSION_SOURCES_DSN=postgres://fusion@localhost/markets?sslmode=disable
//	FUSION_OUTPUT_PARQUET=true
//	FUSION_REDIS_ENABLED=true
//
// Jobs can only be declared in the file:
//
//	jobs:
//	  - primary: ES
//	    cross: [NQ, ZN, DX]
//	    macro: [DGS10, DGS2, VIXCLS]
//	    surprise: {cpi: 1, nfp: 1}
//	    horizons: [1, 4]
//
// Every error returned by Load and MatrixJobs is a configuration error.
package config
