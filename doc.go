// Package kfst implements HFST-compatible finite-state transducer
// lookup and generation: loading transducers from the tabular ("ATT")
// and compact binary ("KFST") formats, and analyzing or generating
// surface/lexical forms against them via weighted backtracking search.
//
// A Transducer is immutable once loaded. Lookup is safe to call
// concurrently from multiple goroutines against the same Transducer.
package kfst
