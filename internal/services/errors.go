package services

import "errors"

// ErrNoJobs is returned by BuildService.Run when called without jobs.
var ErrNoJobs = errors.New("no jobs to build")
