// Package document owns the objects of one featuregraph document.
//
// A Document assigns each object a unique name and insertion sequence,
// keeps labels unique, removes objects without leaving dangling links, orders
// objects topologically and rebuilds itself from an ir.DocumentSnapshot.
package document
