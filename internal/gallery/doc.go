// Package gallery owns the canonical list of memories shown to the user.
//
// A Controller opens one live subscription on the "memories" collection,
// ordered by date descending, and replaces its records with every snapshot
// the store pushes. It never sorts, inserts or removes records locally: the
// store's snapshot is the only source of the list.
//
// Add writes the image blob first and the document second; Delete removes
// the document first and the blob second. Either way the only inconsistency
// a partial failure can leave behind is an unreferenced blob, never a
// document pointing at a missing image.
package gallery
