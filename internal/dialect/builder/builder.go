// Package builder accumulates parsed hand-history lines into a canonical
// handhistory.HandHistory. Dialect parsers translate their grammar into
// builder calls; the builder owns player identity, street bookkeeping and
// the final validation, so a hand is published whole or not at all.
package builder

import (
	"fmt"
	"sort"

	hh "github.com/lox/handreplay/internal/handhistory"
	"github.com/lox/handreplay/poker"
)

// Builder is a draft hand. The zero value is not usable; call New.
type Builder struct {
	hand    hh.HandHistory
	byName  map[string]hh.PlayerID
	street  int // index into hand.Streets
	live    map[hh.PlayerID]int64
	toCall  int64
	folded  map[hh.PlayerID]bool
	collect map[hh.PlayerID]int64
	won     map[hh.PlayerID]int64
	winners []hh.PlayerID

	totalPotSet bool
	rakeSet     bool

	// SynthesizeReturns is set by dialects that never print uncalled-bet
	// lines. Unmatched wagers are handed back when each street closes.
	SynthesizeReturns bool
}

// New starts a draft for the given site.
func New(site hh.Site) *Builder {
	b := &Builder{
		byName:  make(map[string]hh.PlayerID),
		live:    make(map[hh.PlayerID]int64),
		folded:  make(map[hh.PlayerID]bool),
		collect: make(map[hh.PlayerID]int64),
		won:     make(map[hh.PlayerID]int64),
	}
	b.hand.Site = site
	b.hand.GameType = hh.HoldEm
	b.hand.BettingLimit = hh.NoLimit
	b.hand.Streets = []hh.StreetLog{{Street: hh.Preflop}}
	b.hand.Showdown.Revealed = make(map[hh.PlayerID][]poker.Card)
	return b
}

// Hand exposes the header fields for the parser to fill in directly.
func (b *Builder) Hand() *hh.HandHistory {
	return &b.hand
}

// AddPlayer seats a player. The player id is derived here, once.
func (b *Builder) AddPlayer(name string, seat int, stack int64, sittingOut bool, bounty int64) error {
	if _, ok := b.byName[name]; ok {
		return fmt.Errorf("player %q seated twice", name)
	}
	id := hh.NewPlayerID(name)
	for _, p := range b.hand.Players {
		if p.ID == id {
			return fmt.Errorf("players %q and %q collide after normalization", p.Name, name)
		}
	}
	status := hh.StatusActive
	if sittingOut {
		status = hh.StatusSittingOut
	}
	b.byName[name] = id
	b.hand.Players = append(b.hand.Players, hh.Player{
		ID:            id,
		Name:          name,
		Seat:          seat,
		StartingStack: stack,
		Bounty:        bounty,
		Status:        status,
	})
	return nil
}

// Known reports whether name is seated.
func (b *Builder) Known(name string) bool {
	_, ok := b.byName[name]
	return ok
}

// ID resolves a seated player's name.
func (b *Builder) ID(name string) (hh.PlayerID, error) {
	id, ok := b.byName[name]
	if !ok {
		return "", fmt.Errorf("unknown player %q", name)
	}
	return id, nil
}

// SetHero records the player whose hole cards were dealt face up.
func (b *Builder) SetHero(name string, cards []poker.Card) error {
	id, err := b.ID(name)
	if err != nil {
		return err
	}
	b.hand.Hero = id
	return b.setHoleCards(id, cards)
}

// CurrentStreet returns the street actions are being filed under.
func (b *Builder) CurrentStreet() hh.Street {
	return b.hand.Streets[b.street].Street
}

// Live returns the player's live wager on the current street.
func (b *Builder) Live(name string) int64 {
	return b.live[b.byName[name]]
}

// ToCall returns the highest live wager on the current street.
func (b *Builder) ToCall() int64 {
	return b.toCall
}

func (b *Builder) add(a hh.Action) {
	a.Street = b.CurrentStreet()
	log := &b.hand.Streets[b.street]
	log.Actions = append(log.Actions, a)
}

// PostAnte records an ante. Antes are dead money.
func (b *Builder) PostAnte(name string, amount int64, allIn bool) error {
	id, err := b.ID(name)
	if err != nil {
		return err
	}
	b.add(hh.Action{Player: id, Kind: hh.PostAnte, Amount: amount, Dead: true, AllIn: allIn})
	return nil
}

// PostBlind records a live blind or straddle.
func (b *Builder) PostBlind(name string, amount int64, allIn bool) error {
	id, err := b.ID(name)
	if err != nil {
		return err
	}
	b.add(hh.Action{Player: id, Kind: hh.PostBlind, Amount: amount, AllIn: allIn})
	b.live[id] += amount
	if b.live[id] > b.toCall {
		b.toCall = b.live[id]
	}
	return nil
}

// PostDead records a dead blind that does not count as a live wager.
func (b *Builder) PostDead(name string, amount int64) error {
	id, err := b.ID(name)
	if err != nil {
		return err
	}
	b.add(hh.Action{Player: id, Kind: hh.PostBlind, Amount: amount, Dead: true})
	return nil
}

// Fold records a fold. Cards shown while folding are kept.
func (b *Builder) Fold(name string, shown []poker.Card) error {
	id, err := b.ID(name)
	if err != nil {
		return err
	}
	b.add(hh.Action{Player: id, Kind: hh.Fold})
	b.folded[id] = true
	if len(shown) > 0 {
		return b.setHoleCards(id, shown)
	}
	return nil
}

// Check records a check.
func (b *Builder) Check(name string) error {
	id, err := b.ID(name)
	if err != nil {
		return err
	}
	b.add(hh.Action{Player: id, Kind: hh.Check})
	return nil
}

// Call records a call of the given increment.
func (b *Builder) Call(name string, amount int64, allIn bool) error {
	id, err := b.ID(name)
	if err != nil {
		return err
	}
	b.add(hh.Action{Player: id, Kind: hh.Call, Amount: amount, AllIn: allIn})
	b.live[id] += amount
	return nil
}

// Bet records an opening bet.
func (b *Builder) Bet(name string, amount int64, allIn bool) error {
	id, err := b.ID(name)
	if err != nil {
		return err
	}
	b.add(hh.Action{Player: id, Kind: hh.Bet, Amount: amount, AllIn: allIn})
	b.live[id] += amount
	if b.live[id] > b.toCall {
		b.toCall = b.live[id]
	}
	return nil
}

// RaiseTo records a raise to a street total.
func (b *Builder) RaiseTo(name string, to int64, allIn bool) error {
	id, err := b.ID(name)
	if err != nil {
		return err
	}
	if to <= b.live[id] {
		return fmt.Errorf("%s raises to %d but already has %d in", name, to, b.live[id])
	}
	by := to - b.toCall
	if by < 0 {
		by = 0
	}
	b.add(hh.Action{Player: id, Kind: hh.Raise, Amount: by, RaiseTo: to, AllIn: allIn})
	b.live[id] = to
	if to > b.toCall {
		b.toCall = to
	}
	return nil
}

// Wager records chips added by a player when the text does not say what
// kind of action it was (all-in lines, bracketed amounts). The kind is
// derived from the live wagers.
func (b *Builder) Wager(name string, added int64, allIn bool) error {
	id, err := b.ID(name)
	if err != nil {
		return err
	}
	total := b.live[id] + added
	switch {
	case total <= b.toCall:
		return b.Call(name, added, allIn)
	case b.toCall == 0:
		return b.Bet(name, added, allIn)
	default:
		return b.RaiseTo(name, total, allIn)
	}
}

// ReturnUncalled records chips handed back to a player.
func (b *Builder) ReturnUncalled(name string, amount int64) error {
	id, err := b.ID(name)
	if err != nil {
		return err
	}
	b.add(hh.Action{Player: id, Kind: hh.UncalledReturn, Amount: amount})
	b.live[id] -= amount
	return nil
}

// Show records cards revealed at showdown.
func (b *Builder) Show(name string, cards []poker.Card) error {
	id, err := b.ID(name)
	if err != nil {
		return err
	}
	b.add(hh.Action{Player: id, Kind: hh.Show, Cards: cards})
	b.hand.Showdown.Revealed[id] = cards
	return b.setHoleCards(id, cards)
}

// Reveal records cards that were shown without an action line, e.g. in
// the summary section.
func (b *Builder) Reveal(name string, cards []poker.Card) error {
	id, err := b.ID(name)
	if err != nil {
		return err
	}
	if _, ok := b.hand.Showdown.Revealed[id]; !ok {
		b.hand.Showdown.Revealed[id] = cards
	}
	return b.setHoleCards(id, cards)
}

// Muck records a player mucking at showdown.
func (b *Builder) Muck(name string) error {
	id, err := b.ID(name)
	if err != nil {
		return err
	}
	b.add(hh.Action{Player: id, Kind: hh.Muck})
	b.hand.Showdown.Mucked = append(b.hand.Showdown.Mucked, id)
	return nil
}

// StartStreet opens a new street with the cards it reveals.
func (b *Builder) StartStreet(street hh.Street, board []poker.Card) error {
	if street <= b.CurrentStreet() {
		return fmt.Errorf("street %s after %s", street, b.CurrentStreet())
	}
	if err := b.closeStreet(); err != nil {
		return err
	}
	b.hand.Streets = append(b.hand.Streets, hh.StreetLog{Street: street, Board: board})
	b.street = len(b.hand.Streets) - 1
	b.live = make(map[hh.PlayerID]int64)
	b.toCall = 0
	return nil
}

// Collected adds a pot-collection amount printed in the action section.
func (b *Builder) Collected(name string, amount int64) error {
	id, err := b.ID(name)
	if err != nil {
		return err
	}
	if _, ok := b.collect[id]; !ok {
		b.winners = append(b.winners, id)
	}
	b.collect[id] += amount
	return nil
}

// SummaryWon records a won/collected amount from the summary section. It
// is only used when the action section printed no collection lines.
func (b *Builder) SummaryWon(name string, amount int64) error {
	id, err := b.ID(name)
	if err != nil {
		return err
	}
	b.won[id] += amount
	return nil
}

// Awarded reports whether any collected or won amount has been recorded.
func (b *Builder) Awarded() bool {
	return len(b.collect) > 0 || len(b.won) > 0
}

// SetTotalPot records the pot total printed by the site.
func (b *Builder) SetTotalPot(v int64) {
	b.hand.TotalPot = v
	b.totalPotSet = true
}

// SetRake records the house take printed by the site.
func (b *Builder) SetRake(v int64) {
	b.hand.Rake = v
	b.rakeSet = true
}

func (b *Builder) setHoleCards(id hh.PlayerID, cards []poker.Card) error {
	for i := range b.hand.Players {
		if b.hand.Players[i].ID != id {
			continue
		}
		if prev := b.hand.Players[i].HoleCards; len(prev) > 0 && poker.NewHand(prev...) != poker.NewHand(cards...) {
			return fmt.Errorf("player %q shows %s but was dealt %s", b.hand.Players[i].Name,
				poker.FormatCards(cards), poker.FormatCards(prev))
		}
		b.hand.Players[i].HoleCards = cards
		return nil
	}
	return fmt.Errorf("unknown player id %q", id)
}

// closeStreet hands back any wager nobody matched.
func (b *Builder) closeStreet() error {
	if !b.SynthesizeReturns {
		return nil
	}
	type wager struct {
		id  hh.PlayerID
		amt int64
	}
	var ws []wager
	for id, amt := range b.live {
		ws = append(ws, wager{id, amt})
	}
	if len(ws) == 0 {
		return nil
	}
	sort.Slice(ws, func(i, j int) bool {
		if ws[i].amt != ws[j].amt {
			return ws[i].amt > ws[j].amt
		}
		return ws[i].id < ws[j].id
	})
	var second int64
	if len(ws) > 1 {
		second = ws[1].amt
	}
	excess := ws[0].amt - second
	if excess <= 0 {
		return nil
	}
	for _, p := range b.hand.Players {
		if p.ID == ws[0].id {
			return b.ReturnUncalled(p.Name, excess)
		}
	}
	return nil
}

// Finish closes the hand, fills derived fields and validates it.
func (b *Builder) Finish() (*hh.HandHistory, error) {
	if err := b.closeStreet(); err != nil {
		return nil, err
	}

	h := &b.hand
	assignActivePositions(h)
	if h.MaxPlayers == 0 {
		h.MaxPlayers = len(h.Players)
	}

	switch {
	case len(b.collect) > 0:
		h.Showdown.Winnings = b.collect
		h.Showdown.Winners = b.winners
	case len(b.won) > 0:
		h.Showdown.Winnings = b.won
		for _, p := range h.Players {
			if _, ok := b.won[p.ID]; ok {
				h.Showdown.Winners = append(h.Showdown.Winners, p.ID)
			}
		}
	}

	if !b.totalPotSet {
		h.TotalPot = Committed(h)
	}
	if !b.rakeSet && len(h.Showdown.Winnings) > 0 {
		var won int64
		for _, v := range h.Showdown.Winnings {
			won += v
		}
		if won <= h.TotalPot {
			h.Rake = h.TotalPot - won
		}
	}
	if h.Currency == "" {
		h.Currency = h.Context.Currency
	}

	if err := h.Validate(); err != nil {
		return nil, err
	}
	return h, nil
}

// Committed sums the chips that stayed in the pot: every wager minus
// uncalled returns. Raises contribute their street total less what the
// player already had in.
func Committed(h *hh.HandHistory) int64 {
	var total int64
	for _, s := range h.Streets {
		live := make(map[hh.PlayerID]int64)
		for _, a := range s.Actions {
			switch {
			case a.Kind == hh.Raise:
				total += a.RaiseTo - live[a.Player]
				live[a.Player] = a.RaiseTo
			case a.Kind == hh.UncalledReturn:
				total -= a.Amount
				live[a.Player] -= a.Amount
			case a.Kind.MovesChips():
				total += a.Amount
				if !a.Dead {
					live[a.Player] += a.Amount
				}
			}
		}
	}
	return total
}

// Fail builds a parse error for the draft hand.
func (b *Builder) Fail(line int, text, reason string, err error) *hh.ParseError {
	return &hh.ParseError{
		Site:   b.hand.Site,
		HandID: b.hand.HandID,
		Line:   line,
		Text:   text,
		Reason: reason,
		Err:    err,
	}
}

// assignActivePositions maps positions over the players dealt in. Players
// sitting out keep an empty position.
func assignActivePositions(h *hh.HandHistory) {
	var active []hh.Player
	var idx []int
	for i, p := range h.Players {
		if p.Status == hh.StatusActive {
			active = append(active, p)
			idx = append(idx, i)
		}
	}
	hh.AssignPositions(active, h.ButtonSeat)
	for i, p := range active {
		h.Players[idx[i]].Position = p.Position
	}
}
