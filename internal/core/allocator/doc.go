// Package allocator finds free physical shelf coordinates for book copies.
//
// A section is a grid of shelves x rows-per-shelf x slots-per-row. Given a
// starting coordinate the allocator tries, in order of cost:
//
//  1. the coordinate itself
//  2. an expanding radius search over the six axis-aligned neighbours
//     (slot+r, slot-r, row+r, row-r, shelf+r, shelf-r)
//  3. a row-major scan of the whole section
//  4. rollover into the next section of the cyclic order A..F
//
// The search is read-only. Callers that write the chosen coordinate must do
// so inside the same transaction that ran the search.
package allocator
