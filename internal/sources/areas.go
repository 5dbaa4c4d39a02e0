package sources

import "sort"

// entsoeAreaCodes maps bidding-zone names to ENTSO-E EIC area codes.
var entsoeAreaCodes = map[string]string{
	"DE_LU": "10Y1001A1001A82H",
	"FR":    "10YFR-RTE------C",
	"ES":    "10YES-REE------0",
	"GB":    "10YGB----------A",
	"IT":    "10YIT-GRTN-----B",
	"NL":    "10YNL----------L",
	"BE":    "10YBE----------2",
	"AT":    "10YAT-APG------L",
	"CH":    "10YCH-SWISSGRIDZ",
	"PL":    "10YPL-AREA-----S",
	"DK_1":  "10YDK-1--------W",
	"DK_2":  "10YDK-2--------M",
	"NO_1":  "10YNO-1--------2",
	"SE_1":  "10Y1001A1001A44P",
	"SE_2":  "10Y1001A1001A45N",
	"SE_3":  "10Y1001A1001A46L",
	"SE_4":  "10Y1001A1001A47J",
}

// entsoePSRTypes maps production-type filters to the ENTSO-E PSR type
// codes they cover.
var entsoePSRTypes = map[string][]string{
	"wind":  {"B18", "B19"},
	"solar": {"B16"},
}

// entsoePSRNames maps PSR type codes back to human-readable production
// type names as published in the transparency platform.
var entsoePSRNames = map[string]string{
	"B16": "Solar",
	"B18": "Wind Offshore",
	"B19": "Wind Onshore",
}

// AreaCode resolves a bidding-zone name to its EIC code.
func AreaCode(zone string) (string, bool) {
	code, ok := entsoeAreaCodes[zone]
	return code, ok
}

// KnownZones lists the bidding zones this package can resolve, sorted.
func KnownZones() []string {
	out := make([]string, 0, len(entsoeAreaCodes))
	for zone := range entsoeAreaCodes {
		out = append(out, zone)
	}
	sort.Strings(out)
	return out
}
