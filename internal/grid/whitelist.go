package grid

import "github.com/yourusername/esports-scout-api/internal/models"

// Tournament ids included in the hackathon dataset. Content is limited to
// the past two years plus these tournaments.
var (
	LoLTournamentIDs = []string{
		"775192", "758024", "774794", "825490", "826679", "775623", // LCK
		"758043", "774888", // LCS
		"758077", "774622", "758041", "775075", "825468", "826906", "775513", // LEC
		"775167", "758054", "774845", "775662", "825450", "826789", // LPL
		"775631", "825567", "826763", // LTA North
		"775636", "825600", "826775", // LTA South
		"775878", "826782", // LTA Cross-Conference
	}

	ValorantTournamentIDs = []string{
		"757371", "757481", "774782", // VCT Americas 2024
		"775516", "800675", "826660", // VCT Americas 2025
		"757614", // Masters Madrid
	}
)

// DefaultTournamentIDs is the LoL + VALORANT whitelist.
func DefaultTournamentIDs() []string {
	ids := make([]string, 0, len(LoLTournamentIDs)+len(ValorantTournamentIDs))
	ids = append(ids, LoLTournamentIDs...)
	return append(ids, ValorantTournamentIDs...)
}

// FilterWhitelisted keeps tournaments whose id is in whitelist, preserving order.
func FilterWhitelisted(tournaments []models.Tournament, whitelist []string) []models.Tournament {
	allowed := make(map[string]struct{}, len(whitelist))
	for _, id := range whitelist {
		allowed[id] = struct{}{}
	}

	out := make([]models.Tournament, 0, len(tournaments))
	for _, t := range tournaments {
		if _, ok := allowed[t.ID]; ok {
			out = append(out, t)
		}
	}
	return out
}
