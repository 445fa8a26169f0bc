package extract

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pable/susscan/internal/model"
)

const samplePGN = `[Event "Let's Play!"]
[Site "Chess.com"]
[White "Alice"]
[Black "bob"]
[Result "0-1"]
[Termination "bob won by resignation"]

1. e4 {[%clk 71:59:58]} 1... e5 {[%clk 71:59:50]} 2. Nf3 Nc6 3. Bb5 a6 4. Ba4 0-1`

// rawGame builds a Chess.com style record. extra is spliced in verbatim.
func rawGame(timeClass, pgn string, extra string) []byte {
	pgnJSON, _ := json.Marshal(pgn)
	s := fmt.Sprintf(`{
		"url": "https://www.chess.com/game/daily/1",
		"pgn": %s,
		"time_class": %q,
		"rated": true,
		"end_time": 1735689600,
		"white": {"username": "Alice", "rating": 1400, "result": "resigned"},
		"black": {"username": "bob", "rating": 1720, "result": "win"}%s
	}`, pgnJSON, timeClass, extra)
	return []byte(s)
}

func TestExtract_SideAndOutcome(t *testing.T) {
	e := New("daily")

	asBlack, ok := e.Extract("BOB", rawGame("daily", samplePGN, ""))
	require.True(t, ok)
	assert.Equal(t, model.OutcomeWin, asBlack.Outcome)
	require.NotNil(t, asBlack.MyRating)
	require.NotNil(t, asBlack.OpponentRating)
	assert.Equal(t, 1720, *asBlack.MyRating)
	assert.Equal(t, 1400, *asBlack.OpponentRating)

	asWhite, ok := e.Extract("alice", rawGame("daily", samplePGN, ""))
	require.True(t, ok)
	assert.Equal(t, model.OutcomeLoss, asWhite.Outcome)
	assert.Equal(t, 1400, *asWhite.MyRating)
}

func TestExtract_TerminationAndBail(t *testing.T) {
	f, ok := New("daily").Extract("bob", rawGame("daily", samplePGN, ""))
	require.True(t, ok)
	assert.Equal(t, "bob won by resignation", f.Termination)
	assert.True(t, f.BailFinish())
	assert.True(t, f.Rated)
	require.NotNil(t, f.EndTime)
	assert.EqualValues(t, 1735689600, *f.EndTime)
}

func TestExtract_SkipsOtherModes(t *testing.T) {
	_, ok := New("daily").Extract("bob", rawGame("blitz", samplePGN, ""))
	assert.False(t, ok)
}

func TestExtract_TournamentPresenceNotValue(t *testing.T) {
	e := New("daily")

	f, _ := e.Extract("bob", rawGame("daily", samplePGN, `, "tournament": ""`))
	assert.True(t, f.Tournament, "an empty tournament value still marks the game")

	f, _ = e.Extract("bob", rawGame("daily", samplePGN, ""))
	assert.False(t, f.Tournament)
}

func TestExtract_MissingFieldsStayUnknown(t *testing.T) {
	raw := []byte(`{"time_class":"daily","white":{"username":"x"},"black":{"username":"y","rating":1500},"pgn":"[Result \"1-0\"]"}`)
	f, ok := New("daily").Extract("x", raw)
	require.True(t, ok)
	assert.Equal(t, model.OutcomeWin, f.Outcome)
	assert.Nil(t, f.MyRating)
	require.NotNil(t, f.OpponentRating)
	assert.Nil(t, f.Plies)
	assert.Nil(t, f.EndTime)
	assert.Equal(t, "", f.Termination)
	assert.False(t, f.Rated)
}

func TestExtract_NotAParticipant(t *testing.T) {
	f, ok := New("daily").Extract("carol", rawGame("daily", samplePGN, ""))
	require.True(t, ok)
	assert.Equal(t, model.OutcomeUnknown, f.Outcome)
	assert.Nil(t, f.MyRating)
}

func TestParseTags(t *testing.T) {
	tags := ParseTags(samplePGN)
	assert.Equal(t, "0-1", tags["Result"])
	assert.Equal(t, "Alice", tags["White"])
	_, ok := tags["Nope"]
	assert.False(t, ok)
}

func TestCountPlies(t *testing.T) {
	// four move numbers; the "1..." continuation and the clock comments do not count.
	p := CountPlies(samplePGN)
	require.NotNil(t, p)
	assert.Equal(t, 8, *p)

	assert.Nil(t, CountPlies("[Result \"*\"]"), "no movetext means unknown")
	assert.Nil(t, CountPlies("[Result \"*\"]\n\n*"), "movetext without move numbers means unknown")

	crlf := "[Result \"1-0\"]\r\n\r\n1.e4 e5 2.Qh5 Nc6 3.Bc4 Nf6 4.Qxf7# 1-0"
	p = CountPlies(crlf)
	require.NotNil(t, p)
	assert.Equal(t, 8, *p)
}

func TestExtractAll(t *testing.T) {
	raws := []json.RawMessage{
		rawGame("daily", samplePGN, ""),
		rawGame("rapid", samplePGN, ""),
		rawGame("daily", samplePGN, `, "tournament": "https://api.chess.com/pub/tournament/x"`),
	}
	facts := New("daily").ExtractAll("bob", raws)
	require.Len(t, facts, 2)
	assert.False(t, facts[0].Tournament)
	assert.True(t, facts[1].Tournament)
}
