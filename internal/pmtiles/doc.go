// Package pmtiles reads and writes PMTiles version 3 archives.
//
// A v3 archive is a single file laid out as:
//
//	header (127 bytes) | root directory | JSON metadata | leaf directories | tile data
//
// Directories map Hilbert-curve tile IDs to byte ranges in the tile data
// section. Entries are varint-encoded with delta tile IDs and run lengths,
// then compressed (gzip here, the format default). When the root directory
// would exceed its 16 KiB budget it points at leaf directories instead:
// a root entry with run length zero addresses a byte range in the leaf
// section rather than tile data.
//
// The Reader serves random tile lookups for the tile server; the Writer and
// Traverse support the archive combiner, which rewrites tiles from several
// zoom-partitioned archives into one deduplicated file.
package pmtiles
