package airports

import (
	"sort"
	"strings"
	"time"
	_ "time/tzdata"
)

type Airport struct {
	Code     string `json:"code"`
	Name     string `json:"name"`
	City     string `json:"city"`
	Country  string `json:"country"`
	Timezone string `json:"timezone"`
}

// Display returns the "City, Country" form used in destinationFull.
func (a Airport) Display() string {
	return a.City + ", " + a.Country
}

var airports = map[string]Airport{
	// Ireland / UK
	"DUB": {"DUB", "Dublin Airport", "Dublin", "Ireland", "Europe/Dublin"},
	"ORK": {"ORK", "Cork Airport", "Cork", "Ireland", "Europe/Dublin"},
	"SNN": {"SNN", "Shannon Airport", "Shannon", "Ireland", "Europe/Dublin"},
	"STN": {"STN", "London Stansted", "London", "United Kingdom", "Europe/London"},
	"LTN": {"LTN", "London Luton", "London", "United Kingdom", "Europe/London"},
	"MAN": {"MAN", "Manchester Airport", "Manchester", "United Kingdom", "Europe/London"},
	"EDI": {"EDI", "Edinburgh Airport", "Edinburgh", "United Kingdom", "Europe/London"},

	// Central Europe
	"BTS": {"BTS", "M. R. Štefánik Airport", "Bratislava", "Slovakia", "Europe/Bratislava"},
	"KSC": {"KSC", "Košice International", "Košice", "Slovakia", "Europe/Bratislava"},
	"VIE": {"VIE", "Vienna International", "Vienna", "Austria", "Europe/Vienna"},
	"PRG": {"PRG", "Václav Havel Airport", "Prague", "Czech Republic", "Europe/Prague"},
	"BUD": {"BUD", "Budapest Ferenc Liszt", "Budapest", "Hungary", "Europe/Budapest"},
	"KRK": {"KRK", "Kraków John Paul II", "Kraków", "Poland", "Europe/Warsaw"},
	"WAW": {"WAW", "Warsaw Chopin", "Warsaw", "Poland", "Europe/Warsaw"},
	"WMI": {"WMI", "Warsaw Modlin", "Warsaw", "Poland", "Europe/Warsaw"},
	"BER": {"BER", "Berlin Brandenburg", "Berlin", "Germany", "Europe/Berlin"},
	"HHN": {"HHN", "Frankfurt-Hahn", "Frankfurt", "Germany", "Europe/Berlin"},

	// Western Europe
	"CRL": {"CRL", "Brussels South Charleroi", "Brussels", "Belgium", "Europe/Brussels"},
	"EIN": {"EIN", "Eindhoven Airport", "Eindhoven", "Netherlands", "Europe/Amsterdam"},
	"BVA": {"BVA", "Paris Beauvais", "Paris", "France", "Europe/Paris"},
	"ORY": {"ORY", "Paris Orly", "Paris", "France", "Europe/Paris"},
	"MRS": {"MRS", "Marseille Provence", "Marseille", "France", "Europe/Paris"},
	"NCE": {"NCE", "Nice Côte d'Azur", "Nice", "France", "Europe/Paris"},

	// Southern Europe
	"BCN": {"BCN", "Barcelona El Prat", "Barcelona", "Spain", "Europe/Madrid"},
	"MAD": {"MAD", "Madrid Barajas", "Madrid", "Spain", "Europe/Madrid"},
	"AGP": {"AGP", "Málaga Airport", "Málaga", "Spain", "Europe/Madrid"},
	"PMI": {"PMI", "Palma de Mallorca", "Palma", "Spain", "Europe/Madrid"},
	"LIS": {"LIS", "Humberto Delgado", "Lisbon", "Portugal", "Europe/Lisbon"},
	"OPO": {"OPO", "Francisco Sá Carneiro", "Porto", "Portugal", "Europe/Lisbon"},
	"FCO": {"FCO", "Rome Fiumicino", "Rome", "Italy", "Europe/Rome"},
	"CIA": {"CIA", "Rome Ciampino", "Rome", "Italy", "Europe/Rome"},
	"BGY": {"BGY", "Milan Bergamo", "Milan", "Italy", "Europe/Rome"},
	"NAP": {"NAP", "Naples International", "Naples", "Italy", "Europe/Rome"},
	"ATH": {"ATH", "Athens International", "Athens", "Greece", "Europe/Athens"},
	"MLA": {"MLA", "Malta International", "Malta", "Malta", "Europe/Malta"},
	"ZAG": {"ZAG", "Zagreb Franjo Tuđman", "Zagreb", "Croatia", "Europe/Zagreb"},
	"SPU": {"SPU", "Split Airport", "Split", "Croatia", "Europe/Zagreb"},

	// Nordics / Baltics
	"CPH": {"CPH", "Copenhagen Kastrup", "Copenhagen", "Denmark", "Europe/Copenhagen"},
	"ARN": {"ARN", "Stockholm Arlanda", "Stockholm", "Sweden", "Europe/Stockholm"},
	"RIX": {"RIX", "Riga International", "Riga", "Latvia", "Europe/Riga"},
	"VNO": {"VNO", "Vilnius International", "Vilnius", "Lithuania", "Europe/Vilnius"},
}

func Lookup(code string) (Airport, bool) {
	a, ok := airports[strings.ToUpper(strings.TrimSpace(code))]
	return a, ok
}

func Known(code string) bool {
	_, ok := Lookup(code)
	return ok
}

// Countries lists every country that has at least one airport, sorted.
func Countries() []string {
	seen := make(map[string]bool)
	result := make([]string, 0, len(airports))
	for _, a := range airports {
		if !seen[a.Country] {
			seen[a.Country] = true
			result = append(result, a.Country)
		}
	}
	sort.Strings(result)
	return result
}

func GetLocationByAirport(code string) *time.Location {
	a, ok := Lookup(code)
	if !ok {
		return time.UTC
	}
	if loc, err := time.LoadLocation(a.Timezone); err == nil {
		return loc
	}
	return time.UTC
}

// ParseTime parses a leg timestamp. Timestamps carrying an offset keep it;
// naive timestamps are read in the airport's local zone.
func ParseTime(timeStr string, airportCode string) (time.Time, error) {
	formats := []string{
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02T15:04:05-0700", // Without colon
		"2006-01-02T15:04:05.000Z",
	}

	for _, format := range formats {
		if t, err := time.Parse(format, timeStr); err == nil {
			return t, nil
		}
	}

	loc := GetLocationByAirport(airportCode)
	simpleFormats := []string{
		"2006-01-02T15:04:05.000",
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05",
		"2006-01-02T15:04",
		"2006-01-02 15:04",
	}
	for _, format := range simpleFormats {
		if t, err := time.ParseInLocation(format, timeStr, loc); err == nil {
			return t, nil
		}
	}

	return time.Time{}, &time.ParseError{
		Value:   timeStr,
		Message: "unable to parse time string",
	}
}
