// Package catalog answers the two questions the linearizer asks about an
// operator: how many operands it takes, and what type it produces for a
// given combination of operand types.
//
// The linearizer consults a Catalog through its interface and never embeds
// promotion rules of its own, so an embedding application can substitute a
// custom catalog (extra operators, different promotion) without touching
// the linearization core. Default returns the built-in catalog.
package catalog
