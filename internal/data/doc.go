// Package data defines the versioned data records exchanged between gateway
// components: sensor readings, system performance snapshots, system state
// aggregates, and actuator commands.
//
// # Versioning
//
// Every record carries a version counter and a UTC timestamp. All mutators
// increment the version and refresh the timestamp; neither ever decreases,
// even if the wall clock steps backwards.
//
// # Variants
//
// Record is a closed set: only the four variants in this package implement
// it. Merging (UpdateData) is a match over the variant, and merging a
// different variant into a record is a silent no-op.
//
// # Serialization
//
// ToJSON and FromJSON round-trip every field of every variant losslessly.
// The String form is a key=value debug representation and is not meant for
// interchange.
//
// Thread Safety:
//   - Records are value-like and are not safe for concurrent mutation.
//     Producers hand them off and do not touch them afterwards.
package data
