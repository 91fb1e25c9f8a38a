package pmtiles

// Tile IDs order tiles on the Hilbert curve of their zoom level, offset by
// the total tile count of all lower levels: id 0 is z0, ids 1-4 are z1, and
// so on. Hilbert ordering keeps geographically close tiles close in the
// file, which is what makes clustered archives cheap to range-read.

// ZxyToID converts tile coordinates to a tile ID.
func ZxyToID(z uint8, x, y uint32) uint64 {
	acc := levelOffset(z)
	tx, ty := uint64(x), uint64(y)
	var d uint64
	for s := uint64(1) << z / 2; s > 0; s /= 2 {
		var rx, ry uint64
		if tx&s > 0 {
			rx = 1
		}
		if ty&s > 0 {
			ry = 1
		}
		d += s * s * ((3 * rx) ^ ry)
		hilbertRotate(s, &tx, &ty, rx, ry)
	}
	return acc + d
}

// IDToZxy converts a tile ID back to zoom and coordinates.
func IDToZxy(id uint64) (uint8, uint32, uint32) {
	var acc uint64
	for z := uint8(0); z < 32; z++ {
		count := uint64(1) << (2 * z)
		if id-acc < count {
			return positionOnLevel(z, id-acc)
		}
		acc += count
	}
	return 0, 0, 0
}

// levelOffset is the number of tiles on all levels below z.
func levelOffset(z uint8) uint64 {
	var acc uint64
	for t := uint8(0); t < z; t++ {
		acc += uint64(1) << (2 * t)
	}
	return acc
}

func positionOnLevel(z uint8, pos uint64) (uint8, uint32, uint32) {
	n := uint64(1) << z
	t := pos
	var x, y uint64
	for s := uint64(1); s < n; s *= 2 {
		rx := 1 & (t / 2)
		ry := 1 & (t ^ rx)
		hilbertRotate(s, &x, &y, rx, ry)
		x += s * rx
		y += s * ry
		t /= 4
	}
	return z, uint32(x), uint32(y)
}

func hilbertRotate(n uint64, x, y *uint64, rx, ry uint64) {
	if ry != 0 {
		return
	}
	if rx == 1 {
		*x = n - 1 - *x
		*y = n - 1 - *y
	}
	*x, *y = *y, *x
}
