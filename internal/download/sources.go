package download

import (
	"fmt"
	"path"
	"strings"

	"github.com/couchcryptid/hazard-tile-service/internal/domain"
)

// Source is one remote file to fetch.
type Source struct {
	URL      string
	Filename string
}

const nfhlURLTemplate = "https://hazards.fema.gov/nfhlv2/output/State/NFHL_%s.zip"

// NFHLSources builds the per-FIPS flood hazard layer source set.
func NFHLSources(fipsCodes []string) []Source {
	sources := make([]Source, 0, len(fipsCodes))
	for _, fips := range fipsCodes {
		url := fmt.Sprintf(nfhlURLTemplate, fips)
		sources = append(sources, Source{URL: url, Filename: path.Base(url)})
	}
	return sources
}

const wildfireURLTemplate = "https://www.fs.usda.gov/rds/archive/products/RDS-2020-0060-2/RDS-2020-0060-2_%s.zip"

var wildfireStates = []string{
	"Alabama", "Alaska", "Arizona", "Arkansas", "California", "Colorado",
	"Connecticut", "Delaware", "DistrictOfColumbia", "Florida", "Georgia",
	"Hawaii", "Idaho", "Illinois", "Indiana", "Iowa", "Kansas", "Kentucky",
	"Louisiana", "Maine", "Maryland", "Massachusetts", "Michigan",
	"Minnesota", "Mississippi", "Missouri", "Montana", "Nebraska", "Nevada",
	"NewHampshire", "NewJersey", "NewMexico", "NewYork", "NorthCarolina",
	"NorthDakota", "Ohio", "Oklahoma", "Oregon", "Pennsylvania",
	"RhodeIsland", "SouthCarolina", "SouthDakota", "Tennessee", "Texas",
	"Utah", "Vermont", "Virginia", "Washington", "WestVirginia",
	"Wisconsin", "Wyoming",
}

// WildfireSources returns the per-state wildfire risk zips.
func WildfireSources() []Source {
	sources := make([]Source, 0, len(wildfireStates))
	for _, state := range wildfireStates {
		url := fmt.Sprintf(wildfireURLTemplate, state)
		sources = append(sources, Source{URL: url, Filename: path.Base(url)})
	}
	return sources
}

var sloshURLs = []string{
	"https://www.nhc.noaa.gov/gis/hazardmaps/US_SLOSH_MOM_Inundation_v3.zip",
	"https://www.nhc.noaa.gov/gis/hazardmaps/PR_SLOSH_MOM_Inundation.zip",
	"https://www.nhc.noaa.gov/gis/hazardmaps/USVI_SLOSH_MOM_Inundation.zip",
	"https://www.nhc.noaa.gov/gis/hazardmaps/Hawaii_SLOSH_MOM_Inundation.zip",
	"https://www.nhc.noaa.gov/gis/hazardmaps/Southern_California_SLOSH_MOM_Inundation_v3.zip",
	"https://www.nhc.noaa.gov/gis/hazardmaps/Guam_SLOSH_MOM_Inundation_v3.zip",
	"https://www.nhc.noaa.gov/gis/hazardmaps/American_Samoa_SLOSH_MOM_Inundation_v3.zip",
	"https://www.nhc.noaa.gov/gis/hazardmaps/Hispaniola_SLOSH_MOM_Inundation.zip",
	"https://www.nhc.noaa.gov/gis/hazardmaps/Yucatan_SLOSH_MOM_Inundation_v3.zip",
}

// SLOSHSources returns the storm surge inundation region zips.
func SLOSHSources() []Source {
	sources := make([]Source, 0, len(sloshURLs))
	for _, url := range sloshURLs {
		sources = append(sources, Source{URL: url, Filename: path.Base(url)})
	}
	return sources
}

const nriURL = "https://hazards.fema.gov/nri/Content/StaticDocuments/DataDownload/" +
	"NRI_Shapefile_CensusTracts/NRI_Shapefile_CensusTracts.zip"

// NRISources returns the single national risk index shapefile zip.
func NRISources() []Source {
	return []Source{{URL: nriURL, Filename: path.Base(nriURL)}}
}

// structureURLs are the per-state building footprint deliverables. Paths
// carry URL-encoded state names and release dates that vary by state, so
// they are listed rather than templated.
var structureURLs = []string{
	"https://fema-femadata.s3.amazonaws.com/Partners/ORNL/USA_Structures/Alabama/Deliverable20250606AL.zip",
	"https://fema-femadata.s3.amazonaws.com/Partners/ORNL/USA_Structures/Alaska/Deliverable20250606AK.zip",
	"https://fema-femadata.s3.amazonaws.com/Partners/ORNL/USA_Structures/American+Samoa/Deliverable20250606AS.zip",
	"https://fema-femadata.s3.amazonaws.com/Partners/ORNL/USA_Structures/Arizona/Deliverable20230502AZ.zip",
	"https://fema-femadata.s3.amazonaws.com/Partners/ORNL/USA_Structures/Arkansas/Deliverable20230630AR.zip",
	"https://fema-femadata.s3.amazonaws.com/Partners/ORNL/USA_Structures/California/Deliverable20230728CA.zip",
	"https://fema-femadata.s3.amazonaws.com/Partners/ORNL/USA_Structures/Colorado/Deliverable20230630CO.zip",
	"https://fema-femadata.s3.amazonaws.com/Partners/ORNL/USA_Structures/Connecticut/Deliverable20250606CT.zip",
	"https://fema-femadata.s3.amazonaws.com/Partners/ORNL/USA_Structures/Delaware/Deliverable20250606DE.zip",
	"https://fema-femadata.s3.amazonaws.com/Partners/ORNL/USA_Structures/District+of+Columbia/Deliverable20250606DC.zip",
	"https://fema-femadata.s3.amazonaws.com/Partners/ORNL/USA_Structures/Guam/Deliverable20250606GU.zip",
	"https://fema-femadata.s3.amazonaws.com/Partners/ORNL/USA_Structures/Florida/Deliverable20250606FL.zip",
	"https://fema-femadata.s3.amazonaws.com/Partners/ORNL/USA_Structures/Georgia/Deliverable20250606GA.zip",
	"https://fema-femadata.s3.amazonaws.com/Partners/ORNL/USA_Structures/Hawaii/Deliverable20250606HI.zip",
	"https://fema-femadata.s3.amazonaws.com/Partners/ORNL/USA_Structures/Idaho/Deliverable20230526ID.zip",
	"https://fema-femadata.s3.amazonaws.com/Partners/ORNL/USA_Structures/Illinois/Deliverable20230831IL.zip",
	"https://fema-femadata.s3.amazonaws.com/Partners/ORNL/USA_Structures/Indiana/Deliverable20230502IN.zip",
	"https://fema-femadata.s3.amazonaws.com/Partners/ORNL/USA_Structures/Iowa/Deliverable20250606IA.zip",
	"https://fema-femadata.s3.amazonaws.com/Partners/ORNL/USA_Structures/Kansas/Deliverable20250606KS.zip",
	"https://fema-femadata.s3.amazonaws.com/Partners/ORNL/USA_Structures/Kentucky/Deliverable20250606KY.zip",
	"https://fema-femadata.s3.amazonaws.com/Partners/ORNL/USA_Structures/Louisiana/Deliverable20250606LA.zip",
	"https://fema-femadata.s3.amazonaws.com/Partners/ORNL/USA_Structures/Maine/Deliverable20250606ME.zip",
	"https://fema-femadata.s3.amazonaws.com/Partners/ORNL/USA_Structures/Maryland/Deliverable20230728MD.zip",
	"https://fema-femadata.s3.amazonaws.com/Partners/ORNL/USA_Structures/Massachusetts/Deliverable20230502MA.zip",
	"https://fema-femadata.s3.amazonaws.com/Partners/ORNL/USA_Structures/Michigan/Deliverable20250606MI.zip",
	"https://fema-femadata.s3.amazonaws.com/Partners/ORNL/USA_Structures/Minnesota/Deliverable20250606MN.zip",
	"https://fema-femadata.s3.amazonaws.com/Partners/ORNL/USA_Structures/Missouri/Deliverable20230728MO.zip",
	"https://fema-femadata.s3.amazonaws.com/Partners/ORNL/USA_Structures/Mississippi/Deliverable20250606MS.zip",
	"https://fema-femadata.s3.amazonaws.com/Partners/ORNL/USA_Structures/Montana/Deliverable20250606MT.zip",
	"https://fema-femadata.s3.amazonaws.com/Partners/ORNL/USA_Structures/Nebraska/Deliverable20250606NE.zip",
	"https://fema-femadata.s3.amazonaws.com/Partners/ORNL/USA_Structures/Nevada/Deliverable20230526NV.zip",
	"https://fema-femadata.s3.amazonaws.com/Partners/ORNL/USA_Structures/New+Hampshire/Deliverable20250606NH.zip",
	"https://fema-femadata.s3.amazonaws.com/Partners/ORNL/USA_Structures/New+Jersey/Deliverable20230502NJ.zip",
	"https://fema-femadata.s3.amazonaws.com/Partners/ORNL/USA_Structures/New+Mexico/Deliverable20250606NM.zip",
	"https://fema-femadata.s3.amazonaws.com/Partners/ORNL/USA_Structures/New+York/Deliverable20250606NY.zip",
	"https://fema-femadata.s3.amazonaws.com/Partners/ORNL/USA_Structures/North+Carolina/Deliverable20250606NC.zip",
	"https://fema-femadata.s3.amazonaws.com/Partners/ORNL/USA_Structures/North+Dakota/Deliverable20250606ND.zip",
	"https://fema-femadata.s3.amazonaws.com/Partners/ORNL/USA_Structures/Northern+Mariana+Islands/Deliverable20250606MP.zip",
	"https://fema-femadata.s3.amazonaws.com/Partners/ORNL/USA_Structures/Ohio/Deliverable20230502OH.zip",
	"https://fema-femadata.s3.amazonaws.com/Partners/ORNL/USA_Structures/Oklahoma/Deliverable20231003OK.zip",
	"https://fema-femadata.s3.amazonaws.com/Partners/ORNL/USA_Structures/Oregon/Deliverable20250606OR.zip",
	"https://fema-femadata.s3.amazonaws.com/Partners/ORNL/USA_Structures/Pennsylvania/Deliverable20230831PA.zip",
	"https://fema-femadata.s3.amazonaws.com/Partners/ORNL/USA_Structures/Puerto+Rico/Deliverable20250606PR.zip",
	"https://fema-femadata.s3.amazonaws.com/Partners/ORNL/USA_Structures/Rhode+Island/Deliverable20250606RI.zip",
	"https://fema-femadata.s3.amazonaws.com/Partners/ORNL/USA_Structures/South+Carolina/Deliverable20250606SC.zip",
	"https://fema-femadata.s3.amazonaws.com/Partners/ORNL/USA_Structures/South+Dakota/Deliverable20250606SD.zip",
	"https://fema-femadata.s3.amazonaws.com/Partners/ORNL/USA_Structures/Tennessee/Deliverable20250606TN.zip",
	"https://fema-femadata.s3.amazonaws.com/Partners/ORNL/USA_Structures/Texas/Deliverable20250606TX.zip",
	"https://fema-femadata.s3.amazonaws.com/Partners/ORNL/USA_Structures/Utah/Deliverable20250606UT.zip",
	"https://fema-femadata.s3.amazonaws.com/Partners/ORNL/USA_Structures/Vermont/Deliverable20250606VT.zip",
	"https://fema-femadata.s3.amazonaws.com/Partners/ORNL/USA_Structures/Virgin+Islands/Deliverable20250606VI.zip",
	"https://fema-femadata.s3.amazonaws.com/Partners/ORNL/USA_Structures/Virginia/Deliverable20250606VA.zip",
	"https://fema-femadata.s3.amazonaws.com/Partners/ORNL/USA_Structures/Washington/Deliverable20250606WA.zip",
	"https://fema-femadata.s3.amazonaws.com/Partners/ORNL/USA_Structures/West+Virginia/Deliverable20250606WV.zip",
	"https://fema-femadata.s3.amazonaws.com/Partners/ORNL/USA_Structures/Wisconsin/Deliverable20250606WI.zip",
	"https://fema-femadata.s3.amazonaws.com/Partners/ORNL/USA_Structures/Wyoming/Deliverable20250606WY.zip",
}

// StructureSources returns the building footprint deliverables.
func StructureSources() []Source {
	sources := make([]Source, 0, len(structureURLs))
	for _, url := range structureURLs {
		sources = append(sources, Source{URL: url, Filename: path.Base(url)})
	}
	return sources
}

const shorelineURL = "https://coast.noaa.gov/htdata/Shoreline/us_medium_shoreline.zip"

// ShorelineSources returns the national shoreline zip used to seed the
// coastline point store.
func ShorelineSources() []Source {
	return []Source{{URL: shorelineURL, Filename: path.Base(shorelineURL)}}
}

const cemsURLBase = "https://jeodpp.jrc.ec.europa.eu/ftp/jrc-opendata/CEMS-EFAS/flood_hazard/"

// cemsFiles are the CEMS-EFAS pan-European flood hazard rasters: filled
// depth per return period plus the two mask layers.
var cemsFiles = []string{
	"Europe_RP10_filled_depth.tif",
	"Europe_RP20_filled_depth.tif",
	"Europe_RP30_filled_depth.tif",
	"Europe_RP40_filled_depth.tif",
	"Europe_RP50_filled_depth.tif",
	"Europe_RP75_filled_depth.tif",
	"Europe_RP100_filled_depth.tif",
	"Europe_RP200_filled_depth.tif",
	"Europe_RP500_filled_depth.tif",
	"Europe_permanent_water_bodies.tif",
	"Europe_spurious_depth_areas.tif",
}

// CEMSSources returns the European flood hazard GeoTIFFs.
func CEMSSources() []Source {
	sources := make([]Source, 0, len(cemsFiles))
	for _, f := range cemsFiles {
		sources = append(sources, Source{URL: cemsURLBase + f, Filename: f})
	}
	return sources
}

// SourcesFor maps a dataset to its source set. NFHL needs FIPS codes; the
// other sets are fixed.
func SourcesFor(dataset domain.Dataset, fipsCodes []string) ([]Source, error) {
	switch dataset {
	case domain.DatasetFloodzone:
		if len(fipsCodes) == 0 {
			return nil, fmt.Errorf("dataset %s requires FIPS codes", dataset)
		}
		return NFHLSources(fipsCodes), nil
	case domain.DatasetWildfire:
		return WildfireSources(), nil
	case domain.DatasetSurge:
		return SLOSHSources(), nil
	case domain.DatasetNRI:
		return NRISources(), nil
	case domain.DatasetStructures:
		return StructureSources(), nil
	case domain.DatasetCoastline:
		return ShorelineSources(), nil
	case domain.DatasetCEMS:
		return CEMSSources(), nil
	default:
		return nil, fmt.Errorf("no sources for dataset %q", dataset)
	}
}

// SubdirFor returns the raw-storage subdirectory for a dataset, derived
// from the source host layout (one folder per dataset).
func SubdirFor(dataset domain.Dataset) string {
	return strings.ToLower(string(dataset))
}
