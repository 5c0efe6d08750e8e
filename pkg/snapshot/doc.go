// Package snapshot saves the cells of a store.Store to a Backend and
// restores them later.
//
// A snapshot is a JSON document holding the JSON encoding of every cell:
//
//	{
//	  "version": 1,
//	  "takenAt": "2024-05-01T12:00:00Z",
//	  "cells": {"count": 3, "title": "draft"}
//	}
//
// Restoring writes each value through the cell's normal change pipeline, so
// interceptors, enhancers and listeners all run, inside one action.
//
// Two backends are provided: MemoryBackend for tests and single-process
// use, and S3Backend for an S3 bucket.
package snapshot
