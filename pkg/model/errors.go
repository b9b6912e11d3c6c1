package model

import "github.com/m-mizutani/goerr/v2"

var (
	// ErrIndexBuild indicates the embedding index could not be built
	// from the given dataset. Individual degenerate records are skipped
	// and logged, not fatal; this fires when nothing indexable remains.
	ErrIndexBuild = goerr.New("failed to build embedding index")

	// ErrGenerationUnavailable indicates the external generation service
	// stayed unreachable after bounded retries. It is an infrastructure
	// failure and must never be reinterpreted as a grounding verdict.
	ErrGenerationUnavailable = goerr.New("generation service unavailable")

	// ErrModelMismatch indicates stored embeddings were produced by a
	// different embedding model than the one serving queries.
	ErrModelMismatch = goerr.New("embedding model mismatch")

	// ErrRecordNotFound indicates the requested record does not exist.
	ErrRecordNotFound = goerr.New("record not found")
)
