// Package extract converts raw Chess.com game records into model.GameFact values.
package extract

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/pable/susscan/internal/model"
)

var (
	tagLine = regexp.MustCompile(`^\[(\w+)\s+"(.*)"\]$`)
	// comment strips {...} annotations such as clock times before counting.
	comment = regexp.MustCompile(`\{[^}]*\}`)
	// moveNumber matches "12." and "12..." alike; only the former starts a move pair.
	moveNumber = regexp.MustCompile(`\b\d+\.(\.\.)?`)
)

// Extractor builds GameFacts for a single game mode.
type Extractor struct {
	mode string
}

// New returns an extractor that keeps only records whose time_class equals mode.
func New(mode string) *Extractor {
	return &Extractor{mode: mode}
}

// ExtractAll converts every record of the extractor's mode, silently skipping the rest.
func (e *Extractor) ExtractAll(username string, raws []json.RawMessage) []model.GameFact {
	facts := make([]model.GameFact, 0, len(raws))
	for _, raw := range raws {
		if f, ok := e.Extract(username, raw); ok {
			facts = append(facts, f)
		}
	}
	return facts
}

// Extract converts one raw record. ok is false when the record is not of the
// extractor's mode.
func (e *Extractor) Extract(username string, raw []byte) (model.GameFact, bool) {
	rec := gjson.ParseBytes(raw)
	if rec.Get("time_class").String() != e.mode {
		return model.GameFact{}, false
	}

	side := model.SideUnknown
	switch {
	case strings.EqualFold(rec.Get("white.username").String(), username):
		side = model.SideWhite
	case strings.EqualFold(rec.Get("black.username").String(), username):
		side = model.SideBlack
	}

	pgn := rec.Get("pgn").String()
	tags := ParseTags(pgn)

	fact := model.GameFact{
		Outcome:     model.OutcomeFor(tags["Result"], side),
		Plies:       CountPlies(pgn),
		Termination: strings.ToLower(tags["Termination"]),
		Rated:       rec.Get("rated").Bool(),
		Tournament:  rec.Get("tournament").Exists(),
	}

	mine, theirs := "white", "black"
	if side == model.SideBlack {
		mine, theirs = "black", "white"
	}
	if side != model.SideUnknown {
		fact.MyRating = intField(rec, mine+".rating")
		fact.OpponentRating = intField(rec, theirs+".rating")
	}
	if end := rec.Get("end_time"); end.Exists() && end.Type == gjson.Number {
		v := end.Int()
		fact.EndTime = &v
	}
	return fact, true
}

// ParseTags reads the PGN tag section into a map. Only tags before the first
// blank line are considered.
func ParseTags(pgn string) map[string]string {
	tags := make(map[string]string)
	head, _ := splitPGN(pgn)
	for _, line := range strings.Split(head, "\n") {
		m := tagLine.FindStringSubmatch(strings.TrimSpace(line))
		if m != nil {
			tags[m[1]] = m[2]
		}
	}
	return tags
}

// CountPlies estimates the ply count as twice the number of move-number markers
// in the movetext. It returns nil when no marker is found.
//
// Unlike a plain count of "digits followed by a period", {...} comments are
// stripped first and "N..." continuation markers are skipped, so clock
// annotated movetext is not double counted.
func CountPlies(pgn string) *int {
	_, moves := splitPGN(pgn)
	moves = comment.ReplaceAllString(moves, " ")

	n := 0
	for _, m := range moveNumber.FindAllStringSubmatch(moves, -1) {
		if m[1] == "" {
			n++
		}
	}
	if n == 0 {
		return nil
	}
	plies := 2 * n
	return &plies
}

// splitPGN splits a PGN at the first blank line into tag section and movetext.
func splitPGN(pgn string) (head, moves string) {
	pgn = strings.ReplaceAll(pgn, "\r\n", "\n")
	if i := strings.Index(pgn, "\n\n"); i >= 0 {
		return pgn[:i], pgn[i+2:]
	}
	return pgn, ""
}

func intField(rec gjson.Result, path string) *int {
	v := rec.Get(path)
	if !v.Exists() || v.Type != gjson.Number {
		return nil
	}
	n := int(v.Int())
	return &n
}
