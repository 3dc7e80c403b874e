// Package model defines the structural model tables (nodes, beam elements,
// sections, materials, joints) and the degree-of-freedom identity scheme
// shared by every stage of the reduction pipeline.
//
// A DOF is identified by an exact composite key (node ID, component code);
// a DOFSet pairs an ordered DOF sequence with its matrix positions so the
// order fixed at assembly time travels with the matrices it indexes.
package model
