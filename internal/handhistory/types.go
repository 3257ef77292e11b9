// Package handhistory defines the canonical hand model produced by the
// dialect parsers and consumed by the replay engine.
//
// A HandHistory is built once by a parser and is read-only afterwards.
// All money is held in integer minor units: cents for cash games, literal
// chips for tournaments.
package handhistory

import (
	"fmt"
	"time"

	"github.com/lox/handreplay/poker"
)

// Site identifies a supported hand-history dialect.
type Site string

const (
	SiteUnknown    Site = ""
	SitePokerStars Site = "pokerstars"
	SiteGGPoker    Site = "ggpoker"
	SitePartyPoker Site = "partypoker"
	SiteWinamax    Site = "winamax"
)

// String returns the display name of the site.
func (s Site) String() string {
	switch s {
	case SitePokerStars:
		return "PokerStars"
	case SiteGGPoker:
		return "GGPoker"
	case SitePartyPoker:
		return "PartyPoker"
	case SiteWinamax:
		return "Winamax"
	default:
		return "unknown"
	}
}

// GameType is the poker variant.
type GameType string

const (
	HoldEm GameType = "holdem"
	Omaha  GameType = "omaha"
)

// BettingLimit is the betting structure.
type BettingLimit string

const (
	NoLimit    BettingLimit = "no-limit"
	PotLimit   BettingLimit = "pot-limit"
	FixedLimit BettingLimit = "fixed-limit"
)

// GameContext classifies the hand as tournament or cash and records how
// amounts were converted at the parse boundary.
type GameContext struct {
	Tournament bool `json:"tournament"`
	// Currency is the ISO-ish unit for cash games ("USD", "EUR") or "chips".
	Currency string `json:"currency"`
	// NeedsCentsConversion is true when the text carries decimal currency
	// amounts that were multiplied into minor units.
	NeedsCentsConversion bool   `json:"needs_cents_conversion"`
	TournamentID         string `json:"tournament_id,omitempty"`
}

// Street is a betting round.
type Street int

const (
	Preflop Street = iota
	Flop
	Turn
	River
	Showdown
)

// String returns the street name.
func (s Street) String() string {
	switch s {
	case Preflop:
		return "preflop"
	case Flop:
		return "flop"
	case Turn:
		return "turn"
	case River:
		return "river"
	case Showdown:
		return "showdown"
	default:
		return "unknown"
	}
}

// MarshalText encodes the street by name.
func (s Street) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText decodes a street name.
func (s *Street) UnmarshalText(b []byte) error {
	for st := Preflop; st <= Showdown; st++ {
		if st.String() == string(b) {
			*s = st
			return nil
		}
	}
	return fmt.Errorf("unknown street %q", b)
}

// ActionKind enumerates everything a player can do in the action log.
type ActionKind string

const (
	Fold           ActionKind = "fold"
	Check          ActionKind = "check"
	Call           ActionKind = "call"
	Bet            ActionKind = "bet"
	Raise          ActionKind = "raise"
	PostAnte       ActionKind = "post-ante"
	PostBlind      ActionKind = "post-blind"
	UncalledReturn ActionKind = "uncalled-return"
	Show           ActionKind = "show"
	Muck           ActionKind = "muck"
)

// MovesChips reports whether the action changes a player's wager.
func (k ActionKind) MovesChips() bool {
	switch k {
	case Call, Bet, Raise, PostAnte, PostBlind, UncalledReturn:
		return true
	}
	return false
}

// Action is a single entry in the action log.
type Action struct {
	Player PlayerID   `json:"player"`
	Kind   ActionKind `json:"kind"`
	// Amount is the chips this action adds to the player's wager for
	// calls, bets, posts and uncalled returns. For raises it is the
	// increment over the previous bet as printed by the site.
	Amount int64 `json:"amount"`
	// RaiseTo is the player's total wager on the street after a raise.
	RaiseTo int64 `json:"raise_to,omitempty"`
	// Dead marks blind chips that go straight to the pot and do not count
	// toward the player's current street wager.
	Dead   bool   `json:"dead,omitempty"`
	AllIn  bool   `json:"all_in,omitempty"`
	Street Street `json:"street"`
	// Cards are set on Show actions.
	Cards []poker.Card `json:"cards,omitempty"`
}

// StreetLog is the action list for one street together with the
// community cards revealed at its start.
type StreetLog struct {
	Street  Street       `json:"street"`
	Board   []poker.Card `json:"board,omitempty"`
	Actions []Action     `json:"actions,omitempty"`
}

// PlayerStatus distinguishes seated players from those sitting out.
type PlayerStatus string

const (
	StatusActive     PlayerStatus = "active"
	StatusSittingOut PlayerStatus = "sitting-out"
)

// Player is a seated player at hand start.
type Player struct {
	ID            PlayerID     `json:"id"`
	Name          string       `json:"name"`
	Seat          int          `json:"seat"`
	StartingStack int64        `json:"starting_stack"`
	Position      Position     `json:"position"`
	HoleCards     []poker.Card `json:"hole_cards,omitempty"`
	Bounty        int64        `json:"bounty,omitempty"`
	Status        PlayerStatus `json:"status"`
}

// ShowdownResult is what the hand's own summary text says about the result.
type ShowdownResult struct {
	// Winnings holds literal collected/won amounts parsed from the text.
	Winnings map[PlayerID]int64 `json:"winnings,omitempty"`
	// Revealed holds cards shown at showdown.
	Revealed map[PlayerID][]poker.Card `json:"revealed,omitempty"`
	// Mucked lists players who mucked without showing.
	Mucked []PlayerID `json:"mucked,omitempty"`
	// Winners lists players the text names as collecting, in text order.
	Winners []PlayerID `json:"winners,omitempty"`
}

// HandHistory is one parsed hand.
type HandHistory struct {
	HandID       string         `json:"hand_id"`
	Site         Site           `json:"site"`
	GameType     GameType       `json:"game_type"`
	BettingLimit BettingLimit   `json:"betting_limit"`
	TableName    string         `json:"table_name"`
	MaxPlayers   int            `json:"max_players"`
	ButtonSeat   int            `json:"button_seat"`
	SmallBlind   int64          `json:"small_blind"`
	BigBlind     int64          `json:"big_blind"`
	Ante         int64          `json:"ante"`
	Timestamp    time.Time      `json:"timestamp"`
	Context      GameContext    `json:"context"`
	Players      []Player       `json:"players,omitempty"`
	Streets      []StreetLog    `json:"streets,omitempty"`
	Showdown     ShowdownResult `json:"showdown"`
	TotalPot     int64          `json:"total_pot"`
	Rake         int64          `json:"rake"`
	Currency     string         `json:"currency"`
	Hero         PlayerID       `json:"hero,omitempty"`
}

// Player returns the player with the given id.
func (h *HandHistory) Player(id PlayerID) (Player, bool) {
	for _, p := range h.Players {
		if p.ID == id {
			return p, true
		}
	}
	return Player{}, false
}

// Actions returns the whole action log in order.
func (h *HandHistory) Actions() []Action {
	var out []Action
	for _, s := range h.Streets {
		out = append(out, s.Actions...)
	}
	return out
}

// Street returns the log for a street, if the hand reached it.
func (h *HandHistory) Street(s Street) (StreetLog, bool) {
	for _, l := range h.Streets {
		if l.Street == s {
			return l, true
		}
	}
	return StreetLog{}, false
}

// Board returns every community card revealed during the hand.
func (h *HandHistory) Board() []poker.Card {
	var board []poker.Card
	for _, s := range h.Streets {
		board = append(board, s.Board...)
	}
	return board
}
