// Package conv converts between integer types with overflow checks.
//
// Use it for values read from untrusted headers and for values written into
// fixed-width fields. Conversions that are safe by construction use plain
// casts.
package conv
