package toolchain

import "strconv"

// Flood zones below this risk level are dropped before tiling: open water,
// undetermined (D), and X zones marked minimal hazard.
const floodzoneFilter = "FLD_ZONE NOT IN ('OPEN WATER','D') AND NOT (FLD_ZONE='X' AND ZONE_SUBTY='AREA OF MINIMAL FLOOD HAZARD')"

// GDBToFlatGeobuf converts an NFHL geodatabase layer to FlatGeobuf,
// reprojecting NAD83 to WGS84 and keeping only the zone attributes the
// tiles need.
func GDBToFlatGeobuf(gdbDir, layer, out string) Command {
	return Command{Tool: "ogr2ogr", Args: []string{
		"-f", "FlatGeobuf",
		"-s_srs", "EPSG:4269",
		"-t_srs", "EPSG:4326",
		"-skipfailures",
		"-select", "FLD_ZONE,ZONE_SUBTY,SOURCE_CIT",
		out, gdbDir, layer,
	}}
}

// FilterFloodzones drops low-risk flood zones from a FlatGeobuf.
func FilterFloodzones(in, out string) Command {
	return Command{Tool: "ogr2ogr", Args: []string{
		"-f", "FlatGeobuf",
		"-skipfailures",
		"-where", floodzoneFilter,
		out, in,
	}}
}

// ShapefileToFlatGeobuf converts a shapefile to WGS84 FlatGeobuf, promoting
// mixed geometries to multi types so tippecanoe sees one geometry class.
func ShapefileToFlatGeobuf(shp, out string) Command {
	return Command{Tool: "ogr2ogr", Args: []string{
		"-f", "FlatGeobuf",
		"-t_srs", "EPSG:4326",
		"-skipfailures",
		"-dim", "XY",
		"-nlt", "PROMOTE_TO_MULTI",
		out, shp,
	}}
}

// GDBToGeoJSON converts a geodatabase layer to GeoJSON (structure footprints).
func GDBToGeoJSON(gdbDir, layer, out string) Command {
	args := []string{
		"-f", "GeoJSON",
		"-t_srs", "EPSG:4326",
		"-skipfailures",
		out, gdbDir,
	}
	if layer != "" {
		args = append(args, layer)
	}
	return Command{Tool: "ogr2ogr", Args: args}
}

// ExtractGeoJSON converts any OGR-readable source (zipped shoreline
// shapefiles included) to GeoJSON.
func ExtractGeoJSON(src, out string) Command {
	return Command{Tool: "ogr2ogr", Args: []string{
		"-f", "GeoJSON",
		"-t_srs", "EPSG:4326",
		out, src,
	}}
}

// TippecanoeOpts selects the zoom span and layer for a vector tile build.
type TippecanoeOpts struct {
	MinZoom  int // -1 means unset (tippecanoe default 0)
	MaxZoom  int
	Layer    string
	Detail   int // -1 means unset
	MaxBytes int // 0 means unset

	// Point-heavy sources drop features instead of coalescing them.
	DropDensest bool // --drop-densest-as-needed instead of --coalesce-densest-as-needed
	ExtendZooms bool // --extend-zooms-if-still-dropping
}

// Tippecanoe builds a PMTiles archive from a FlatGeobuf or GeoJSON source.
func Tippecanoe(src, out string, o TippecanoeOpts) Command {
	args := []string{}
	if o.MinZoom >= 0 {
		args = append(args, "-Z"+strconv.Itoa(o.MinZoom))
	}
	args = append(args, "-z"+strconv.Itoa(o.MaxZoom))
	if o.Detail >= 0 {
		args = append(args, "-D"+strconv.Itoa(o.Detail))
	}
	maxBytes := o.MaxBytes
	if maxBytes == 0 {
		maxBytes = 1000000
	}
	args = append(args,
		"--maximum-tile-bytes="+strconv.Itoa(maxBytes),
		"--progress-interval=30",
		"--read-parallel",
		"--hilbert",
	)
	if o.DropDensest {
		args = append(args, "--drop-densest-as-needed")
	} else {
		args = append(args, "--coalesce-densest-as-needed")
	}
	if o.ExtendZooms {
		args = append(args, "--extend-zooms-if-still-dropping")
	}
	args = append(args,
		"--force",
		"--output="+out,
		"-l", o.Layer,
		src,
	)
	return Command{Tool: "tippecanoe", Args: args}
}

// BuildVRT mosaics rasters into a VRT, taking the highest resolution where
// inputs overlap and treating zero as nodata.
func BuildVRT(out string, inputs []string) Command {
	args := []string{
		"-resolution", "highest",
		"-srcnodata", "0",
		"-vrtnodata", "0",
		out,
	}
	return Command{Tool: "gdalbuildvrt", Args: append(args, inputs...)}
}

// WarpToWebMercatorCOG reprojects a raster to EPSG:3857 as a tiled COG.
func WarpToWebMercatorCOG(in, out string) Command {
	return Command{Tool: "gdalwarp", Args: []string{
		"-t_srs", "EPSG:3857",
		"-r", "bilinear",
		"-of", "COG",
		"-co", "COMPRESS=LZW",
		"-co", "PREDICTOR=2",
		"-co", "TILED=YES",
		"-co", "BLOCKXSIZE=512",
		"-co", "BLOCKYSIZE=512",
		"-wo", "NUM_THREADS=ALL_CPUS",
		"-multi",
		"--config", "GDAL_CACHEMAX", "4096",
		in, out,
	}}
}

// ResampleCOG warps a raster to a target resolution (degrees per pixel) as
// a COG, averaging source pixels. Used for the low/medium zoom COGs.
func ResampleCOG(in, out string, resolution float64) Command {
	res := strconv.FormatFloat(resolution, 'f', -1, 64)
	return Command{Tool: "gdalwarp", Args: []string{
		"-tr", res, res,
		"-r", "average",
		"-of", "COG",
		"-co", "COMPRESS=LZW",
		"-co", "PREDICTOR=2",
		"-co", "BLOCKSIZE=512",
		"-co", "OVERVIEW_RESAMPLING=AVERAGE",
		"-co", "NUM_THREADS=ALL_CPUS",
		in, out,
	}}
}

// FullResolutionCOG rewrites a raster as a full-resolution COG, preserving
// exact cell values (nearest-neighbour overviews).
func FullResolutionCOG(in, out string) Command {
	return Command{Tool: "gdal_translate", Args: []string{
		"-of", "COG",
		"-co", "COMPRESS=LZW",
		"-co", "PREDICTOR=2",
		"-co", "BLOCKSIZE=512",
		"-co", "OVERVIEW_RESAMPLING=NEAREST",
		"-co", "OVERVIEW_COUNT=6",
		"-co", "NUM_THREADS=ALL_CPUS",
		in, out,
	}}
}

// TranslateCOG rewrites a raster as a COG with averaged overviews,
// optionally resampling to a target resolution (degrees per pixel). Depth
// rasters average cleanly, unlike the categorical surge grids.
func TranslateCOG(in, out string, resolution float64) Command {
	args := []string{
		"-of", "COG",
		"-co", "COMPRESS=LZW",
		"-co", "PREDICTOR=2",
		"-co", "BLOCKSIZE=512",
		"-co", "OVERVIEW_RESAMPLING=AVERAGE",
		"-co", "NUM_THREADS=ALL_CPUS",
	}
	if resolution > 0 {
		res := strconv.FormatFloat(resolution, 'f', -1, 64)
		args = append(args, "-tr", res, res, "-r", "average")
	}
	args = append(args, in, out)
	return Command{Tool: "gdal_translate", Args: args}
}

// TranslateToMBTiles renders a raster into PNG MBTiles.
func TranslateToMBTiles(in, out string) Command {
	return Command{Tool: "gdal_translate", Args: []string{
		"-of", "MBTILES",
		"-co", "TILE_FORMAT=PNG",
		in, out,
	}}
}

// AddOverviews builds the overview pyramid inside an MBTiles file.
func AddOverviews(mbtiles string) Command {
	return Command{Tool: "gdaladdo", Args: []string{
		"-r", "average",
		mbtiles,
		"2", "4", "8", "16", "32", "64",
	}}
}

// ConvertToPMTiles converts MBTiles to a PMTiles archive.
func ConvertToPMTiles(in, out string) Command {
	return Command{Tool: "pmtiles", Args: []string{"convert", in, out}}
}
