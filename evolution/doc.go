// Package evolution tunes strategy parameters with a simple genetic loop.
//
// An Originator seeds random Specimens (Genetics plus Penalties) and
// mutates survivors; a World seats one BayesianAgent per specimen, plays a
// trial of games with random spy allocation and ranks the population by
// wins. World.Evolve repeats trial, selection and mutation for a number of
// generations and reports the champion of each.
package evolution
