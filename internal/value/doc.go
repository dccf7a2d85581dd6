// Package value provides the scalar value and data type model shared by the
// expression tree, both compilers, and the reference index engine.
//
// This package contains value definitions only. All other internal packages
// import value; value imports nothing internal. This keeps it the foundational
// layer with no circular dependencies.
//
// Key design constraints:
//   - Value is a sealed interface; Null is an explicit type, never a Go nil
//   - Integer and Float carry their storage width (int32, float32)
//   - Canonical encoding is the only serialization used for fingerprints
package value
