package pokerstars

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/lox/handreplay/internal/dialect/builder"
	hh "github.com/lox/handreplay/internal/handhistory"
	"github.com/lox/handreplay/internal/money"
	"github.com/lox/handreplay/internal/textscan"
	"github.com/lox/handreplay/poker"
)

// The table, seat, action and summary grammar below is shared by every
// room that exports in the PokerStars layout.
var (
	tableRe = regexp.MustCompile(`^Table '([^']+)' (\d+)-max(?: \([^)]*\))? Seat #(\d+) is the button$`)
	seatRe  = regexp.MustCompile(`^Seat (\d+): (.+) \((\S+) in chips(?:, (\S+) bounty)?\)(.*)$`)

	anteRe      = regexp.MustCompile(`^(.+?): posts the ante (\S+)( and is all-in)?$`)
	smallRe     = regexp.MustCompile(`^(.+?): posts small blind (\S+)( and is all-in)?$`)
	bigRe       = regexp.MustCompile(`^(.+?): posts big blind (\S+)( and is all-in)?$`)
	bothRe      = regexp.MustCompile(`^(.+?): posts small & big blinds (\S+)( and is all-in)?$`)
	straddleRe  = regexp.MustCompile(`^(.+?): posts straddle (\S+)( and is all-in)?$`)
	foldRe      = regexp.MustCompile(`^(.+?): folds(?: \[([^\]]+)\])?$`)
	checkRe     = regexp.MustCompile(`^(.+?): checks$`)
	callRe      = regexp.MustCompile(`^(.+?): calls (\S+)( and is all-in)?$`)
	betRe       = regexp.MustCompile(`^(.+?): bets (\S+)( and is all-in)?$`)
	raiseRe     = regexp.MustCompile(`^(.+?): raises (\S+) to (\S+)( and is all-in)?$`)
	uncalledRe  = regexp.MustCompile(`^Uncalled bet \((\S+)\) returned to (.+)$`)
	showRe      = regexp.MustCompile(`^(.+?): shows \[([^\]]+)\](?: \(.*\))?$`)
	muckRe      = regexp.MustCompile(`^(.+?): (?:mucks hand|doesn't show hand)$`)
	collectedRe = regexp.MustCompile(`^(.+?) collected (\S+) from (?:the )?(?:[Mm]ain |[Ss]ide )?pot(?:-\d+)?$`)
	dealtRe     = regexp.MustCompile(`^Dealt to (.+?)(?: \[([^\]]+)\])?$`)

	holeCardsRe = regexp.MustCompile(`^\*\*\* HOLE CARDS \*\*\*$`)
	flopRe      = regexp.MustCompile(`^\*\*\* FLOP \*\*\* \[([^\]]+)\]$`)
	turnRe      = regexp.MustCompile(`^\*\*\* TURN \*\*\* \[[^\]]+\] \[([^\]]+)\]$`)
	riverRe     = regexp.MustCompile(`^\*\*\* RIVER \*\*\* \[[^\]]+\] \[([^\]]+)\]$`)
	showdownRe  = regexp.MustCompile(`^\*\*\* SHOW ?DOWN \*\*\*$`)
	summaryRe   = regexp.MustCompile(`^\*\*\* SUMMARY \*\*\*$`)
	twiceRe     = regexp.MustCompile(`^\*\*\* (?:FIRST|SECOND|THIRD) (?:FLOP|TURN|RIVER|SHOW ?DOWN) \*\*\*`)

	totalPotRe  = regexp.MustCompile(`^Total pot (\S+)`)
	houseTakeRe = regexp.MustCompile(`\| (?:Rake|Jackpot|Bingo|Fortune|Tax) (\S+)`)
	boardRe     = regexp.MustCompile(`^Board \[([^\]]+)\]$`)
	seatSumRe   = regexp.MustCompile(`^Seat (\d+): (.*)$`)
	sumShowRe   = regexp.MustCompile(`(?:showed|mucked) \[([^\]]+)\]`)
	sumWonRe    = regexp.MustCompile(`(?:won|collected) \((\S+)\)`)

	ignoredRe = []*regexp.Regexp{
		regexp.MustCompile(` said, "`),
		regexp.MustCompile(`^.+?:? (?:is disconnected|is connected|has timed out.*|has returned|is sitting out|sits out|is back|` +
			`joins the table at seat #\d+|leaves the table|will be allowed to play after the button|` +
			`was removed from the table.*|finished the tournament.*|wins the tournament.*|re-buys .*)$`),
	}
)

// ParseTable reads everything after the header line: table, seats,
// actions and summary. cents selects currency amounts over chip counts.
func ParseTable(cur *textscan.Cursor, b *builder.Builder, cents bool) error {
	h := b.Hand()
	amount := func(s string) (int64, error) { return money.Parse(s, cents) }

	line, _ := cur.Peek()
	m, ok := cur.Match(tableRe)
	if !ok {
		return b.Fail(cur.Line(), line, "missing table line", nil)
	}
	h.TableName = m[1]
	h.MaxPlayers, _ = strconv.Atoi(m[2])
	h.ButtonSeat, _ = strconv.Atoi(m[3])

	for {
		lineNo := cur.Line()
		m, ok := cur.Match(seatRe)
		if !ok {
			break
		}
		seat, _ := strconv.Atoi(m[1])
		stack, err := amount(m[3])
		if err != nil {
			return b.Fail(lineNo, m[0], "bad stack", err)
		}
		var bounty int64
		if m[4] != "" {
			if bounty, err = money.Parse(m[4], true); err != nil {
				return b.Fail(lineNo, m[0], "bad bounty", err)
			}
		}
		out := strings.Contains(m[5], "sitting out") || strings.Contains(m[5], "out of hand")
		if err := b.AddPlayer(m[2], seat, stack, out, bounty); err != nil {
			return b.Fail(lineNo, m[0], err.Error(), nil)
		}
	}
	if len(h.Players) == 0 {
		line, _ := cur.Peek()
		return b.Fail(cur.Line(), line, "no seat lines", nil)
	}

	// The summary ends at the first blank line; anything after it belongs
	// to some other export.
	summary := false
	for !(summary && cur.AtBlank()) && !cur.Done() {
		lineNo := cur.Line()
		line, _ := cur.Next()
		var err error
		if summary {
			err = summaryLine(b, line, amount)
		} else {
			summary, err = actionLine(b, line, amount)
		}
		if err != nil {
			var pe *hh.ParseError
			if errors.As(err, &pe) {
				return err
			}
			return b.Fail(lineNo, line, err.Error(), nil)
		}
	}
	return nil
}

// actionLine handles one line before the summary. It reports true when the
// summary header is reached.
func actionLine(b *builder.Builder, line string, amount func(string) (int64, error)) (bool, error) {
	h := b.Hand()
	twoAmounts := func(m []string, i int) (int64, bool, error) {
		v, err := amount(m[i])
		return v, m[i+1] != "", err
	}

	if m := anteRe.FindStringSubmatch(line); m != nil {
		v, allIn, err := twoAmounts(m, 2)
		if err != nil {
			return false, err
		}
		if h.Ante == 0 {
			h.Ante = v
		}
		return false, b.PostAnte(m[1], v, allIn)
	}
	if m := smallRe.FindStringSubmatch(line); m != nil {
		v, allIn, err := twoAmounts(m, 2)
		if err != nil {
			return false, err
		}
		return false, b.PostBlind(m[1], v, allIn)
	}
	if m := bigRe.FindStringSubmatch(line); m != nil {
		v, allIn, err := twoAmounts(m, 2)
		if err != nil {
			return false, err
		}
		return false, b.PostBlind(m[1], v, allIn)
	}
	if m := bothRe.FindStringSubmatch(line); m != nil {
		v, allIn, err := twoAmounts(m, 2)
		if err != nil {
			return false, err
		}
		dead := min(h.SmallBlind, v)
		if err := b.PostDead(m[1], dead); err != nil {
			return false, err
		}
		return false, b.PostBlind(m[1], v-dead, allIn)
	}
	if m := straddleRe.FindStringSubmatch(line); m != nil {
		v, allIn, err := twoAmounts(m, 2)
		if err != nil {
			return false, err
		}
		return false, b.PostBlind(m[1], v, allIn)
	}
	if m := foldRe.FindStringSubmatch(line); m != nil {
		var shown []poker.Card
		if m[2] != "" {
			var err error
			if shown, err = poker.ParseCards(m[2]); err != nil {
				return false, err
			}
		}
		return false, b.Fold(m[1], shown)
	}
	if m := checkRe.FindStringSubmatch(line); m != nil {
		return false, b.Check(m[1])
	}
	if m := callRe.FindStringSubmatch(line); m != nil {
		v, allIn, err := twoAmounts(m, 2)
		if err != nil {
			return false, err
		}
		return false, b.Call(m[1], v, allIn)
	}
	if m := betRe.FindStringSubmatch(line); m != nil {
		v, allIn, err := twoAmounts(m, 2)
		if err != nil {
			return false, err
		}
		return false, b.Bet(m[1], v, allIn)
	}
	if m := raiseRe.FindStringSubmatch(line); m != nil {
		to, allIn, err := twoAmounts(m, 3)
		if err != nil {
			return false, err
		}
		return false, b.RaiseTo(m[1], to, allIn)
	}
	if m := uncalledRe.FindStringSubmatch(line); m != nil {
		v, err := amount(m[1])
		if err != nil {
			return false, err
		}
		return false, b.ReturnUncalled(m[2], v)
	}
	if m := showRe.FindStringSubmatch(line); m != nil {
		cards, err := poker.ParseCards(m[2])
		if err != nil {
			return false, err
		}
		return false, b.Show(m[1], cards)
	}
	if m := muckRe.FindStringSubmatch(line); m != nil {
		return false, b.Muck(m[1])
	}
	if m := collectedRe.FindStringSubmatch(line); m != nil {
		v, err := amount(m[2])
		if err != nil {
			return false, err
		}
		return false, b.Collected(m[1], v)
	}
	if m := dealtRe.FindStringSubmatch(line); m != nil {
		if m[2] == "" {
			if !b.Known(m[1]) {
				return false, fmt.Errorf("cards dealt to unknown player %q", m[1])
			}
			return false, nil
		}
		cards, err := poker.ParseCards(m[2])
		if err != nil {
			return false, err
		}
		if h.Hero == "" {
			return false, b.SetHero(m[1], cards)
		}
		return false, b.Reveal(m[1], cards)
	}

	switch {
	case holeCardsRe.MatchString(line):
		return false, nil
	case twiceRe.MatchString(line):
		return false, errors.New("hands run more than once are not supported")
	case showdownRe.MatchString(line):
		return false, b.StartStreet(hh.Showdown, nil)
	case summaryRe.MatchString(line):
		return true, nil
	}
	for _, re := range []struct {
		re     *regexp.Regexp
		street hh.Street
	}{{flopRe, hh.Flop}, {turnRe, hh.Turn}, {riverRe, hh.River}} {
		if m := re.re.FindStringSubmatch(line); m != nil {
			board, err := poker.ParseCards(m[1])
			if err != nil {
				return false, err
			}
			return false, b.StartStreet(re.street, board)
		}
	}
	for _, re := range ignoredRe {
		if re.MatchString(line) {
			return false, nil
		}
	}
	return false, errors.New("unrecognized line")
}

func summaryLine(b *builder.Builder, line string, amount func(string) (int64, error)) error {
	h := b.Hand()
	if m := totalPotRe.FindStringSubmatch(line); m != nil {
		total, err := amount(m[1])
		if err != nil {
			return err
		}
		b.SetTotalPot(total)
		var take int64
		for _, t := range houseTakeRe.FindAllStringSubmatch(line, -1) {
			v, err := amount(t[1])
			if err != nil {
				return err
			}
			take += v
		}
		b.SetRake(take)
		return nil
	}
	if m := boardRe.FindStringSubmatch(line); m != nil {
		board, err := poker.ParseCards(m[1])
		if err != nil {
			return err
		}
		if poker.NewHand(board...) != poker.NewHand(h.Board()...) {
			return fmt.Errorf("summary board %s does not match dealt board %s",
				poker.FormatCards(board), poker.FormatCards(h.Board()))
		}
		return nil
	}
	if m := seatSumRe.FindStringSubmatch(line); m != nil {
		seat, _ := strconv.Atoi(m[1])
		var name string
		for _, p := range h.Players {
			if p.Seat == seat && strings.HasPrefix(m[2], p.Name) {
				name = p.Name
			}
		}
		if name == "" {
			return fmt.Errorf("summary for empty seat %d", seat)
		}
		rest := m[2][len(name):]
		if s := sumShowRe.FindStringSubmatch(rest); s != nil {
			cards, err := poker.ParseCards(s[1])
			if err != nil {
				return err
			}
			if err := b.Reveal(name, cards); err != nil {
				return err
			}
		}
		if w := sumWonRe.FindStringSubmatch(rest); w != nil {
			v, err := amount(w[1])
			if err != nil {
				return err
			}
			return b.SummaryWon(name, v)
		}
		return nil
	}
	// Hand-level notes such as "Hand was run twice" or rake breakdowns.
	return nil
}
