// Package scoring implements the similarity, lexical-overlap, blending and
// grading functions shared by candidate selection and the refinement loop.
// Everything here is pure and safe for concurrent use.
package scoring
