// Package portalloc assigns every combination a (client, server) port pair
// that is unique across the whole generation pass. The run-wide claimed set
// is authoritative; the advancing base pointer only proposes candidates.
package portalloc
