// Package domain models the hazard tile archives the pipeline produces and
// the tile server reads.
//
// # Archive Naming
//
// Every PMTiles archive in the tiles directory encodes its provenance in the
// filename. The pipeline writes, and the catalog parses, the following forms:
//
//	NFHL_<FIPS>_<YYYYMMDD>[_<zoomrange>].pmtiles
//	  FEMA National Flood Hazard Layer, one archive per state FIPS code.
//	  e.g. NFHL_02_20250811_z10_16.pmtiles = Alaska, built 2025-08-11,
//	  zoom levels 10 through 16. No zoom range means the archive covers
//	  the full pyramid.
//
//	SLOSH_<REGION>_Category<n>[_<zoomrange>].pmtiles
//	  NOAA SLOSH maximum-of-maximums storm surge, one archive per basin
//	  region and hurricane category (1-5). Region prefixes follow the
//	  NHC basin folders: PR, US, HAWAII, SOUTHERN_CALIFORNIA,
//	  AMERICAN_SAMOA.
//
//	<stem>[_<zoomrange>].pmtiles
//	  Everything else (NRI census tracts, USA structures, wildfire risk).
//
// Zoom range tokens are z<min>_<max> for a span (z0_10, z10_16, z16_20) or
// z<n> for a single level (z17, z18). Intermediate SLOSH rasters use the same
// tokens in .cog.tif names: <prefix>_<category>_<zoomrange>_<runtag>.cog.tif.
//
// # Freshness Ordering
//
// When several archives or COGs exist for the same (dataset, key, zoom range)
// the newest wins, ordered by (filename, mtime). Filenames embed the build
// date, so lexicographic order is usually enough; mtime breaks ties for
// same-day rebuilds.
//
// # Bounds
//
// Geographic bounds are carried as E7-scaled integers (degrees * 10^7), the
// PMTiles header convention, and converted to degrees only at the edges.
package domain
