// Package types defines the public vocabulary shared by every gcdkit package:
// space-type enums for the memory and I/O maps, attribute and capability bits,
// allocation policies, owner handles, space descriptors, and typed errors.
//
// Design goals:
//   - Sum-type enums per space kind so a memory type can never be stored in
//     the I/O map and vice versa.
//   - Value-type descriptors; callers own every slice returned to them.
//   - Typed errors with stable categories (invalid argument, not found,
//     access denied, unsupported, out of memory) that callers branch on with
//     errors.Is.
//
// This package has no dependencies beyond the standard library.
package types
