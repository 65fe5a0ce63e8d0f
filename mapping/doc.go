// Package mapping converts registered structs into condition sets and
// reads table rows back into structs.
//
// Both directions share one conversion table, Coerce.
package mapping
