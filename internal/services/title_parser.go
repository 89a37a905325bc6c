package services

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	titleYearPattern   = regexp.MustCompile(`\b(19[0-9]{2}|20[0-9]{2})\b`)
	titleGradePattern  = regexp.MustCompile(`(?i)\b(PSA|BGS|SGC|CGC)[\s-]*(10|[1-9](?:\.5)?)\b`)
	titleSerialPattern = regexp.MustCompile(`\b\d{1,4}\s*/\s*(\d{1,4})\b`)
	titleNumberPattern = regexp.MustCompile(`#\s?([A-Za-z0-9-]+)`)
)

// knownBrands is ordered longest-first so compound brands win over their
// prefixes ("Topps Chrome" before "Topps").
var knownBrands = []string{
	"Topps Chrome Sapphire",
	"Topps Chrome Update",
	"Bowman Chrome Draft",
	"Bowman Chrome",
	"Bowman Sterling",
	"Bowman Draft",
	"Topps Chrome",
	"Topps Update",
	"Topps Finest",
	"Topps Heritage",
	"Stadium Club",
	"Panini Prizm",
	"Panini Select",
	"Panini Mosaic",
	"Panini Contenders",
	"Panini Immaculate",
	"National Treasures",
	"Donruss Optic",
	"Upper Deck",
	"Bowman",
	"Topps",
	"Prizm",
	"Select",
	"Mosaic",
	"Donruss",
	"Optic",
	"Fleer",
	"Leaf",
	"Score",
	"Hoops",
}

// variationKeywords identify parallel/insert variants. Longest-first for the
// same reason as brands.
var variationKeywords = []string{
	"Superfractor",
	"Cracked Ice",
	"Silver Prizm",
	"X-Fractor",
	"Refractor",
	"Sapphire",
	"Negative",
	"Velocity",
	"Shimmer",
	"Disco",
	"Atomic",
	"Mojo",
	"Wave",
	"Holo",
	"Gold",
	"Silver",
}

var sportKeywords = map[string]string{
	"baseball":   "baseball",
	"basketball": "basketball",
	"football":   "football",
	"hockey":     "hockey",
	"soccer":     "soccer",
}

// titleStopwords are filler tokens that never belong to a player name.
var titleStopwords = map[string]struct{}{
	"CARD": {}, "CARDS": {}, "MINT": {}, "GEM": {}, "GRADED": {},
	"HOT": {}, "RARE": {}, "SP": {}, "SSP": {}, "POP": {}, "LOT": {},
	"NM": {}, "NRMT": {}, "INVEST": {}, "SHARP": {}, "CENTERED": {},
	"BEAUTIFUL": {}, "NICE": {}, "LOW": {}, "HIGH": {}, "THE": {},
	"RPA": {}, "NO": {}, "W": {}, "WITH": {},
}

// HeuristicParser extracts structured card data from listing titles using
// pattern tables and keyword lists. It stands in for the remote parsing
// service when none is configured, so the pipeline still works offline.
type HeuristicParser struct{}

func NewHeuristicParser() *HeuristicParser {
	return &HeuristicParser{}
}

// ParseTitle extracts player, brand, year, grade, and variant details from a
// listing title. It fails only when no player name or brand can be
// identified; everything else degrades to a warning.
func (p *HeuristicParser) ParseTitle(_ context.Context, title string) (*ParsedCard, error) {
	working := title
	parsed := &ParsedCard{Confidence: "low"}

	// Grading: "PSA 10", "BGS 9.5"
	if m := titleGradePattern.FindStringSubmatch(working); m != nil {
		parsed.IsGraded = true
		parsed.GradingCompany = strings.ToUpper(m[1])
		if grade, err := strconv.ParseFloat(m[2], 64); err == nil {
			parsed.Grade = &grade
		}
		working = strings.Replace(working, m[0], " ", 1)
	}

	// Serial numbering: "12/99" records the print run
	if m := titleSerialPattern.FindStringSubmatch(working); m != nil {
		if run, err := strconv.Atoi(m[1]); err == nil {
			parsed.SerialNumbered = &run
		}
		working = strings.Replace(working, m[0], " ", 1)
	}

	// Card number: "#168", "#BDC-17"
	if m := titleNumberPattern.FindStringSubmatch(working); m != nil {
		parsed.CardNumber = m[1]
		working = strings.Replace(working, m[0], " ", 1)
	}

	if m := titleYearPattern.FindStringSubmatch(working); m != nil {
		if year, err := strconv.Atoi(m[1]); err == nil {
			parsed.Year = &year
		}
		working = strings.Replace(working, m[0], " ", 1)
	}

	for _, brand := range knownBrands {
		if replaced, found := removeCaseInsensitive(working, brand); found {
			parsed.Brand = brand
			working = replaced
			break
		}
	}

	for _, variation := range variationKeywords {
		if replaced, found := removeCaseInsensitive(working, variation); found {
			parsed.Variation = variation
			working = replaced
			break
		}
	}

	working = p.extractFlags(parsed, working)

	parsed.PlayerName = extractPlayerName(working)
	if parsed.PlayerName == "" {
		return nil, fmt.Errorf("unable to extract player name from title %q", title)
	}
	if parsed.Brand == "" {
		return nil, fmt.Errorf("unable to identify brand in title %q", title)
	}

	if parsed.Year == nil {
		parsed.Warnings = append(parsed.Warnings, "no year found in title")
	}
	if !parsed.IsGraded {
		parsed.Warnings = append(parsed.Warnings, "no grading information found")
	}

	parsed.Confidence = scoreConfidence(parsed)
	return parsed, nil
}

// extractFlags detects rookie/auto/patch markers and the sport, removing the
// marker tokens so they cannot leak into the player name.
func (p *HeuristicParser) extractFlags(parsed *ParsedCard, working string) string {
	var kept []string
	for _, token := range strings.Fields(working) {
		upper := strings.ToUpper(strings.Trim(token, ".,!()[]{}*"))
		switch upper {
		case "RC", "ROOKIE":
			parsed.IsRookie = true
			continue
		case "AUTO", "AUTOGRAPH", "AUTOGRAPHED":
			parsed.IsAutograph = true
			continue
		case "PATCH":
			parsed.HasPatch = true
			continue
		case "RPA":
			parsed.IsRookie = true
			parsed.IsAutograph = true
			parsed.HasPatch = true
			continue
		}
		if sport, ok := sportKeywords[strings.ToLower(upper)]; ok {
			parsed.Sport = sport
			continue
		}
		kept = append(kept, token)
	}
	return strings.Join(kept, " ")
}

// extractPlayerName finds the longest run of consecutive alphabetic tokens in
// what remains of the title after every known pattern has been stripped.
func extractPlayerName(working string) string {
	var best, current []string

	flush := func() {
		if len(current) > len(best) {
			best = current
		}
		current = nil
	}

	for _, token := range strings.Fields(working) {
		cleaned := strings.Trim(token, ".,!?()[]{}*#&-")
		if cleaned == "" || strings.ContainsAny(cleaned, "0123456789") {
			flush()
			continue
		}
		if _, stop := titleStopwords[strings.ToUpper(cleaned)]; stop {
			flush()
			continue
		}
		if !isAlphabetic(cleaned) {
			flush()
			continue
		}
		current = append(current, cleaned)
	}
	flush()

	return strings.Join(best, " ")
}

func isAlphabetic(s string) bool {
	for _, r := range s {
		if (r < 'a' || r > 'z') && (r < 'A' || r > 'Z') && r != '\'' && r != '.' {
			return false
		}
	}
	return true
}

// scoreConfidence grades the extraction by how many of the key attributes
// were found.
func scoreConfidence(parsed *ParsedCard) string {
	found := 0
	if parsed.PlayerName != "" {
		found++
	}
	if parsed.Brand != "" {
		found++
	}
	if parsed.Year != nil {
		found++
	}
	if parsed.IsGraded {
		found++
	}

	switch {
	case found >= 4:
		return "high"
	case found == 3:
		return "medium"
	default:
		return "low"
	}
}

// removeCaseInsensitive removes the first case-insensitive occurrence of sub,
// reporting whether it was found. Candidate windows are compared in place
// rather than indexing into a lowercased copy: lowercasing can change a
// rune's byte length, so indexes found in the copy do not transfer back to s.
func removeCaseInsensitive(s, sub string) (string, bool) {
	if sub == "" || len(sub) > len(s) {
		return s, false
	}
	subLower := strings.ToLower(sub)
	for i := range s {
		end := i + len(sub)
		if end > len(s) {
			break
		}
		if strings.ToLower(s[i:end]) == subLower {
			return s[:i] + " " + s[end:], true
		}
	}
	return s, false
}
