// Package gamma measures how much several annotators disagree when they
// segment the same timeline.
//
// A Grouping ties together at most one unit from every annotator (a missing
// unit is a gap) and scores the mean pairwise dissimilarity of its members.
// An Alignment is a set of groupings that covers every unit exactly once; its
// disorder is the mean disorder of its groupings.
//
// ComputeBestAlignment searches for the alignment with the lowest disorder:
//
//	candidates  Generator enumerates groupings, pruning any whose disorder
//	            reaches annotators × gap cost
//	problem     BuildProblem turns the candidates into an exact-cover matrix
//	solve       a Solver picks the cheapest exact cover (BranchAndBound by
//	            default, seeded by an LP relaxation)
//	validate    NewAlignment re-checks the partition before anything is returned
//
// The timeline and the distance between two units are supplied by the caller
// through the Timeline and Dissimilarity interfaces.
package gamma
