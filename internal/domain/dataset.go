package domain

import "strings"

// Dataset identifies a hazard data source processed by the pipeline.
type Dataset string

const (
	DatasetFloodzone  Dataset = "floodzone"  // FEMA National Flood Hazard Layer
	DatasetSurge      Dataset = "surge"      // NOAA SLOSH storm surge MOMs
	DatasetWildfire   Dataset = "wildfire"   // USDA wildfire risk to communities
	DatasetStructures Dataset = "structures" // FEMA USA structure footprints
	DatasetNRI        Dataset = "nri"        // FEMA National Risk Index
	DatasetCoastline  Dataset = "coastline"  // NOAA shoreline points
	DatasetCEMS       Dataset = "cems"       // CEMS-EFAS European flood hazard
)

// LayerName returns the vector tile layer the dataset is encoded under.
// Raster datasets (surge) have no layer.
func (d Dataset) LayerName() string {
	switch d {
	case DatasetFloodzone:
		return "floodzones"
	case DatasetWildfire:
		return "wildfire"
	case DatasetStructures:
		return "structures"
	case DatasetNRI:
		return "nri"
	default:
		return ""
	}
}

// ParseDataset validates a dataset name from the CLI.
func ParseDataset(s string) (Dataset, bool) {
	switch Dataset(s) {
	case DatasetFloodzone, DatasetSurge, DatasetWildfire,
		DatasetStructures, DatasetNRI, DatasetCoastline, DatasetCEMS:
		return Dataset(s), true
	}
	return "", false
}

// HurricaneCategories are the SLOSH MOM categories processed per region.
var HurricaneCategories = []string{
	"Category1",
	"Category2",
	"Category3",
	"Category4",
	"Category5",
}

// Region describes a SLOSH basin region.
type Region struct {
	Folder string // subdirectory under processed/ and outputs/
	Prefix string // archive filename prefix, e.g. SLOSH_PR
}

// regionAliases maps CLI-facing names (and their short forms) to regions.
var regionAliases = map[string]Region{
	"pr":                  {Folder: "puerto_rico", Prefix: "SLOSH_PR"},
	"puerto_rico":         {Folder: "puerto_rico", Prefix: "SLOSH_PR"},
	"us":                  {Folder: "us", Prefix: "SLOSH_US"},
	"hawaii":              {Folder: "hawaii", Prefix: "SLOSH_HAWAII"},
	"hi":                  {Folder: "hawaii", Prefix: "SLOSH_HAWAII"},
	"southern_california": {Folder: "southern_california", Prefix: "SLOSH_SOUTHERN_CALIFORNIA"},
	"sc":                  {Folder: "southern_california", Prefix: "SLOSH_SOUTHERN_CALIFORNIA"},
	"american_samoa":      {Folder: "american_samoa", Prefix: "SLOSH_AMERICAN_SAMOA"},
	"as":                  {Folder: "american_samoa", Prefix: "SLOSH_AMERICAN_SAMOA"},
}

// ParseRegion resolves a region name or alias, case-insensitively.
func ParseRegion(name string) (Region, bool) {
	r, ok := regionAliases[strings.ToLower(name)]
	return r, ok
}

// RegionNames lists the canonical region names for CLI help text.
func RegionNames() []string {
	return []string{"pr", "us", "hawaii", "southern_california", "american_samoa"}
}
