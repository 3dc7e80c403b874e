// Package reduce implements Craig-Bampton model reduction for the assembled
// 2D beam system: DOF partitioning into master (interface) and slave
// (internal) sets, Guyan static condensation, fixed-interface vibration
// modes, and the assembly of the reduced stiffness/mass pair with the
// transformation back to full-model coordinates.
//
// Every stage allocates new matrices and never mutates its inputs. Numerical
// degradations (ill-conditioned blocks, eigensolver failure) are absorbed
// with a fallback and reported as Warnings and an explicit Fidelity value;
// structural failures (empty partitions, unknown interface nodes) abort the
// whole call with no partial result.
package reduce
