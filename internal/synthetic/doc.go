// Package synthetic looks for generative-model artifacts.
//
// Two independent checks run: a block frequency test that flags periodic
// up-sampling peaks in the luminance spectrum, and a bilateral symmetry test
// on the primary face. Either one firing produces a synthetic finding.
package synthetic
