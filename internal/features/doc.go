// Package features provides the object types used by documents loaded from
// definition files: sketches, pads, pockets, datum planes and groups.
//
// They compute simple scalar outputs (area, volume, position, member count)
// instead of geometry, which is enough to exercise dependency ordering,
// failure propagation and the MustExecute policies.
package features
