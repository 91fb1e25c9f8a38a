package http

import "bytes"

// sniffTile infers a tile's Content-Type from its leading bytes and whether
// the payload is gzip-compressed. Tippecanoe writes gzipped MVT, so gzip
// magic means a vector tile served with Content-Encoding: gzip.
func sniffTile(data []byte) (contentType string, gzipped bool) {
	switch {
	case len(data) >= 2 && data[0] == 0x1f && data[1] == 0x8b:
		return "application/x-protobuf", true
	case len(data) >= 1 && (data[0] == 0x08 || data[0] == 0x12):
		return "application/x-protobuf", false
	case bytes.HasPrefix(data, []byte("\x89PNG")):
		return "image/png", false
	case len(data) >= 2 && data[0] == 0xff && data[1] == 0xd8:
		return "image/jpeg", false
	case len(data) >= 1 && data[0] == '<':
		return "image/svg+xml", false
	default:
		return "application/octet-stream", false
	}
}
