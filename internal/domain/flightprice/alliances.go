package flightprice

import "strings"

// Alliance names.
const (
	StarAlliance = "Star Alliance"
	Oneworld     = "oneworld"
	SkyTeam      = "SkyTeam"
)

// allianceMembers maps IATA carrier codes to their alliance.
var allianceMembers = map[string]string{
	// Star Alliance
	"A3": StarAlliance, "AC": StarAlliance, "AI": StarAlliance, "AV": StarAlliance,
	"BR": StarAlliance, "CA": StarAlliance, "CM": StarAlliance, "ET": StarAlliance,
	"LH": StarAlliance, "LO": StarAlliance, "LX": StarAlliance, "MS": StarAlliance,
	"NH": StarAlliance, "NZ": StarAlliance, "OS": StarAlliance, "OU": StarAlliance,
	"OZ": StarAlliance, "SA": StarAlliance, "SN": StarAlliance, "SQ": StarAlliance,
	"TG": StarAlliance, "TK": StarAlliance, "TP": StarAlliance, "UA": StarAlliance,
	"ZH": StarAlliance,
	// oneworld
	"AA": Oneworld, "AS": Oneworld, "AT": Oneworld, "AY": Oneworld, "BA": Oneworld,
	"CX": Oneworld, "FJ": Oneworld, "IB": Oneworld, "JL": Oneworld, "MH": Oneworld,
	"QF": Oneworld, "QR": Oneworld, "RJ": Oneworld, "UL": Oneworld, "WY": Oneworld,
	// SkyTeam
	"AF": SkyTeam, "AM": SkyTeam, "AR": SkyTeam, "CI": SkyTeam, "DL": SkyTeam,
	"GA": SkyTeam, "KE": SkyTeam, "KL": SkyTeam, "KQ": SkyTeam, "ME": SkyTeam,
	"MF": SkyTeam, "MU": SkyTeam, "RO": SkyTeam, "SK": SkyTeam, "SV": SkyTeam,
	"UX": SkyTeam, "VN": SkyTeam, "VS": SkyTeam,
}

// AllianceOf returns the alliance of carrier, if any.
func AllianceOf(carrier string) (string, bool) {
	a, ok := allianceMembers[strings.ToUpper(strings.TrimSpace(carrier))]
	return a, ok
}

// allianceOnly keeps offers whose every segment is operated by an alliance member.
func allianceOnly(offers []Offer) []Offer {
	kept := make([]Offer, 0, len(offers))
	for _, o := range offers {
		if o.allianceOperated() {
			kept = append(kept, o)
		}
	}
	return kept
}

func (o Offer) allianceOperated() bool {
	segments := 0
	for _, it := range o.Itineraries {
		for _, seg := range it.Segments {
			if _, ok := AllianceOf(seg.Operator()); !ok {
				return false
			}
			segments++
		}
	}
	return segments > 0
}
