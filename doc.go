// Package bigbedkit opens BigBed files and answers range queries against
// them: a self-indexed container pairing a chromosome B+ tree with a
// chromosome-interval R-tree over compressed BED records. Opening a file
// maps it into memory once; every Query walks the two trees fresh against
// that mapping and never retains parsed node state between calls.
package bigbedkit
