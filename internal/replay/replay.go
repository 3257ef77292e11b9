// Package replay rebuilds the money flow of a parsed hand as a sequence of
// immutable snapshots.
//
// The replay walks the action log in order, tracking per-player street
// wagers, cumulative commitments, stacks and uncalled returns. Street
// transitions sweep wagers into pots and recompute the main and side pots.
// At the end every pot is awarded, either from the hand's own literal
// collected amounts or by evaluating the eligible hands. Any amount that
// cannot be reconciled stops the replay with a
// *handhistory.ReplayInconsistencyError; a snapshot sequence is never
// returned with money that does not add up.
package replay

import (
	"fmt"
	"sort"

	hh "github.com/lox/handreplay/internal/handhistory"
	"github.com/lox/handreplay/internal/money"
	"github.com/lox/handreplay/poker"
)

// Kind labels the event a snapshot records.
type Kind string

const (
	KindHandStart Kind = "hand-start"
	KindAction    Kind = "action"
	KindStreet    Kind = "street"
	KindShowdown  Kind = "showdown"
	KindPayout    Kind = "payout"
)

// Snapshot is the table state after one event. Maps are owned by the
// snapshot and never shared with other snapshots.
type Snapshot struct {
	Index        int                          `json:"index"`
	Kind         Kind                         `json:"kind"`
	Street       hh.Street                    `json:"street"`
	Description  string                       `json:"description"`
	Action       *hh.Action                   `json:"action,omitempty"`
	ActivePlayer hh.PlayerID                  `json:"active_player,omitempty"`
	Pots         []Pot                        `json:"pots"`
	TotalPot     int64                        `json:"total_displayed_pot"`
	Pending      map[hh.PlayerID]int64        `json:"pending_contribs"`
	Committed    map[hh.PlayerID]int64        `json:"total_committed"`
	Returned     map[hh.PlayerID]int64        `json:"uncalled_returned"`
	Stacks       map[hh.PlayerID]int64        `json:"player_stacks"`
	Folded       []hh.PlayerID                `json:"folded"`
	Board        []poker.Card                 `json:"community_cards"`
	Revealed     map[hh.PlayerID][]poker.Card `json:"revealed_hands"`
	Winners      []hh.PlayerID                `json:"winners"`
	Payouts      map[hh.PlayerID]int64        `json:"payouts"`
	Rake         int64                        `json:"rake"`
}

// Final returns the last snapshot, which carries final stacks and payouts.
func Final(snaps []Snapshot) (Snapshot, bool) {
	if len(snaps) == 0 {
		return Snapshot{}, false
	}
	return snaps[len(snaps)-1], true
}

type replayer struct {
	hand      *hh.HandHistory
	order     []hh.PlayerID // seat order
	clockwise []hh.PlayerID // from the first seat after the button
	players   map[hh.PlayerID]hh.Player

	stacks    map[hh.PlayerID]int64
	pending   map[hh.PlayerID]int64
	live      map[hh.PlayerID]int64
	committed map[hh.PlayerID]int64
	returned  map[hh.PlayerID]int64
	folded    map[hh.PlayerID]bool
	allIn     map[hh.PlayerID]bool
	revealed  map[hh.PlayerID][]poker.Card
	maxLive   int64

	street  hh.Street
	board   []poker.Card
	pots    []Pot
	winners []hh.PlayerID
	payouts map[hh.PlayerID]int64
	paid    int // winners already paid out
	rake    int64

	snaps []Snapshot
}

// Build replays a hand. Calling it twice on the same hand yields equal
// sequences; nothing depends on time or randomness.
func Build(hand *hh.HandHistory) ([]Snapshot, error) {
	if hand == nil {
		return nil, &hh.ReplayInconsistencyError{Index: -1, Reason: "nil hand"}
	}
	r := newReplayer(hand)
	if err := r.run(); err != nil {
		return nil, err
	}
	if err := Verify(hand, r.snaps); err != nil {
		return nil, err
	}
	return r.snaps, nil
}

func newReplayer(hand *hh.HandHistory) *replayer {
	r := &replayer{
		hand:      hand,
		players:   make(map[hh.PlayerID]hh.Player, len(hand.Players)),
		stacks:    make(map[hh.PlayerID]int64),
		pending:   make(map[hh.PlayerID]int64),
		live:      make(map[hh.PlayerID]int64),
		committed: make(map[hh.PlayerID]int64),
		returned:  make(map[hh.PlayerID]int64),
		folded:    make(map[hh.PlayerID]bool),
		allIn:     make(map[hh.PlayerID]bool),
		revealed:  make(map[hh.PlayerID][]poker.Card),
		payouts:   make(map[hh.PlayerID]int64),
	}
	seated := make([]hh.Player, len(hand.Players))
	copy(seated, hand.Players)
	sort.Slice(seated, func(i, j int) bool { return seated[i].Seat < seated[j].Seat })
	for _, p := range seated {
		r.order = append(r.order, p.ID)
		r.players[p.ID] = p
		r.stacks[p.ID] = p.StartingStack
		r.committed[p.ID] = 0
		r.pending[p.ID] = 0
		r.returned[p.ID] = 0
		r.payouts[p.ID] = 0
	}
	for _, i := range hh.ClockwiseFrom(hand.Players, hand.ButtonSeat) {
		r.clockwise = append(r.clockwise, hand.Players[i].ID)
	}
	return r
}

func (r *replayer) fail(format string, args ...any) error {
	return &hh.ReplayInconsistencyError{
		HandID: r.hand.HandID,
		Index:  len(r.snaps),
		Reason: fmt.Sprintf(format, args...),
	}
}

func (r *replayer) run() error {
	r.snapshot(KindHandStart, r.describeStart(), nil)

	for i, log := range r.hand.Streets {
		if i > 0 || log.Street != hh.Preflop {
			if log.Street <= r.street && i > 0 {
				return r.fail("street %s follows %s", log.Street, r.street)
			}
			r.transition(log.Street, log.Board)
		}
		for j := range log.Actions {
			a := log.Actions[j]
			if err := r.apply(a); err != nil {
				return err
			}
			r.snapshot(KindAction, r.describeAction(a), &a)
		}
	}

	r.sweep()
	for _, id := range r.order {
		if c, ok := r.hand.Showdown.Revealed[id]; ok && r.revealed[id] == nil {
			r.revealed[id] = c
		}
	}
	r.snapshot(KindShowdown, r.describeShowdown(), nil)

	if err := r.resolve(); err != nil {
		return err
	}
	for i, id := range r.winners {
		amount := r.payouts[id]
		r.stacks[id] += amount
		r.paid = i + 1
		r.snapshot(KindPayout, r.describePayout(id, amount), nil)
	}
	return nil
}

// transition sweeps street wagers into pots and opens the next street.
func (r *replayer) transition(street hh.Street, board []poker.Card) {
	r.sweep()
	r.street = street
	r.board = append(r.board, board...)
	r.snapshot(KindStreet, r.describeStreet(street, board), nil)
}

func (r *replayer) sweep() {
	for id := range r.pending {
		r.pending[id] = 0
	}
	r.live = make(map[hh.PlayerID]int64)
	r.maxLive = 0
	r.pots = partition(r.order, r.contributions(), r.folded, r.allIn)
}

// contributions returns what each player has left in the pot.
func (r *replayer) contributions() map[hh.PlayerID]int64 {
	out := make(map[hh.PlayerID]int64, len(r.order))
	for _, id := range r.order {
		out[id] = r.committed[id] - r.returned[id]
	}
	return out
}

func (r *replayer) apply(a hh.Action) error {
	id := a.Player
	p, ok := r.players[id]
	if !ok {
		return r.fail("action by unknown player %q", id)
	}
	if p.Status == hh.StatusSittingOut {
		return r.fail("%s is sitting out but acts", p.Name)
	}
	if a.Street != r.street {
		return r.fail("%s action by %s tagged %s", r.street, p.Name, a.Street)
	}

	var delta int64
	switch a.Kind {
	case hh.Fold:
		if r.folded[id] {
			return r.fail("%s folds twice", p.Name)
		}
		r.folded[id] = true
		return nil
	case hh.Check, hh.Muck:
		if r.folded[id] && a.Kind == hh.Check {
			return r.fail("%s checks after folding", p.Name)
		}
		return nil
	case hh.Show:
		if len(p.HoleCards) > 0 && poker.NewHand(p.HoleCards...) != poker.NewHand(a.Cards...) {
			return r.fail("%s shows %s but holds %s", p.Name, poker.FormatCards(a.Cards), poker.FormatCards(p.HoleCards))
		}
		r.revealed[id] = a.Cards
		return nil
	case hh.UncalledReturn:
		if a.Amount > r.pending[id] {
			return r.fail("%s is returned %d but only has %d in this street", p.Name, a.Amount, r.pending[id])
		}
		r.stacks[id] += a.Amount
		r.pending[id] -= a.Amount
		r.returned[id] += a.Amount
		r.live[id] = max(0, r.live[id]-a.Amount)
		r.allIn[id] = r.stacks[id] == 0
		return nil
	case hh.Raise:
		delta = a.RaiseTo - r.live[id]
		if delta <= 0 {
			return r.fail("%s raises to %d with %d already in", p.Name, a.RaiseTo, r.live[id])
		}
	case hh.Call, hh.Bet, hh.PostAnte, hh.PostBlind:
		delta = a.Amount
	default:
		return r.fail("unknown action kind %q", a.Kind)
	}

	if r.folded[id] {
		return r.fail("%s wagers after folding", p.Name)
	}
	if delta > r.stacks[id] {
		return r.fail("%s wagers %d with only %d behind", p.Name, delta, r.stacks[id])
	}
	if a.Kind == hh.Call && r.live[id]+delta > r.maxLive {
		return r.fail("%s calls %d but only %d is owed", p.Name, delta, r.maxLive-r.live[id])
	}

	r.stacks[id] -= delta
	r.pending[id] += delta
	r.committed[id] += delta
	if !a.Dead && a.Kind != hh.PostAnte {
		r.live[id] += delta
		r.maxLive = max(r.maxLive, r.live[id])
	}
	r.allIn[id] = r.stacks[id] == 0
	if a.AllIn && !r.allIn[id] {
		return r.fail("%s is marked all-in with %d behind", p.Name, r.stacks[id])
	}
	return nil
}

// resolve fills payouts and winners.
func (r *replayer) resolve() error {
	var total, returned int64
	for _, id := range r.order {
		total += r.committed[id] - r.returned[id]
		returned += r.returned[id]
	}
	if total != r.hand.TotalPot {
		return r.fail("players committed %s but the total pot is %s", r.amount(total), r.amount(r.hand.TotalPot))
	}
	r.rake = r.hand.Rake

	computed, order, err := r.computePayouts()
	if len(r.hand.Showdown.Winnings) == 0 {
		if err != nil {
			return err
		}
		r.award(computed, order)
		return nil
	}
	if err != nil {
		// Without a computed resolution the text has to account for the whole pot.
		computed, order = nil, nil
	}
	return r.resolveLiteral(computed, order)
}

// resolveLiteral trusts the amounts printed by the site for the players it
// names. Everyone else keeps their computed payout, or nothing when the pot
// could not be resolved from the cards.
func (r *replayer) resolveLiteral(computed map[hh.PlayerID]int64, order []hh.PlayerID) error {
	for id, v := range r.hand.Showdown.Winnings {
		if _, ok := r.players[id]; !ok {
			return r.fail("winnings for unknown player %q", id)
		}
		if v < 0 {
			return r.fail("negative winnings for %s", r.players[id].Name)
		}
	}

	payouts := make(map[hh.PlayerID]int64, len(r.order))
	var sum int64
	for _, id := range r.order {
		v, ok := r.hand.Showdown.Winnings[id]
		if !ok {
			v = computed[id]
		}
		payouts[id] = v
		sum += v
	}
	if sum+r.rake != r.hand.TotalPot {
		return r.fail("payouts %s plus rake %s do not match total pot %s",
			r.amount(sum), r.amount(r.rake), r.amount(r.hand.TotalPot))
	}

	r.award(payouts, append(append([]hh.PlayerID{}, r.hand.Showdown.Winners...), order...))
	return nil
}

// award records payouts and lists winners in the given order, then seat order.
func (r *replayer) award(payouts map[hh.PlayerID]int64, order []hh.PlayerID) {
	for id, v := range payouts {
		r.payouts[id] = v
	}
	seen := make(map[hh.PlayerID]bool)
	for _, id := range append(append([]hh.PlayerID{}, order...), r.order...) {
		if r.payouts[id] > 0 && !seen[id] {
			r.winners = append(r.winners, id)
			seen[id] = true
		}
	}
}

// computePayouts awards each pot to the best eligible hand. Winners are
// returned in the order they first win a pot.
func (r *replayer) computePayouts() (map[hh.PlayerID]int64, []hh.PlayerID, error) {
	payouts := make(map[hh.PlayerID]int64)
	var order []hh.PlayerID
	seen := make(map[hh.PlayerID]bool)
	for i, pot := range deductRake(r.pots, r.rake) {
		if pot.Amount == 0 {
			continue
		}
		if len(pot.Eligible) == 0 {
			return nil, nil, r.fail("pot %d has no eligible player", i+1)
		}

		winners := pot.Eligible
		if len(pot.Eligible) > 1 {
			var err error
			if winners, err = r.best(pot.Eligible); err != nil {
				return nil, nil, err
			}
		}
		for id, v := range split(pot.Amount, winners, r.clockwise) {
			payouts[id] += v
		}
		for _, id := range r.order {
			if !seen[id] && contains(winners, id) {
				order = append(order, id)
				seen[id] = true
			}
		}
	}
	return payouts, order, nil
}

func (r *replayer) best(eligible []hh.PlayerID) ([]hh.PlayerID, error) {
	if len(r.board) != 5 {
		return nil, r.fail("pot contested by %d players with %d board cards", len(eligible), len(r.board))
	}
	var (
		top     poker.HandValue
		winners []hh.PlayerID
	)
	for _, id := range eligible {
		v, ok := r.value(id)
		if !ok {
			return nil, r.fail("cannot resolve pot: %s's hole cards are unknown", r.players[id].Name)
		}
		switch c := v.Compare(top); {
		case len(winners) == 0 || c > 0:
			top = v
			winners = []hh.PlayerID{id}
		case c == 0:
			winners = append(winners, id)
		}
	}
	return winners, nil
}

// value evaluates a player's hand against the board, when both are known.
func (r *replayer) value(id hh.PlayerID) (poker.HandValue, bool) {
	cards := r.holeCards(id)
	if len(cards) != 2 || len(r.board) < 3 {
		return 0, false
	}
	v, err := poker.Evaluate(append(append([]poker.Card{}, cards...), r.board...))
	if err != nil {
		return 0, false
	}
	return v, true
}

func (r *replayer) holeCards(id hh.PlayerID) []poker.Card {
	if c, ok := r.revealed[id]; ok {
		return c
	}
	return r.players[id].HoleCards
}

func (r *replayer) amount(v int64) string {
	return money.Format(v, r.hand.Context.NeedsCentsConversion, money.Symbol(r.hand.Currency))
}

func (r *replayer) snapshot(kind Kind, description string, action *hh.Action) {
	s := Snapshot{
		Index:       len(r.snaps),
		Kind:        kind,
		Street:      r.street,
		Description: description,
		Action:      action,
		Pots:        clonePots(r.pots),
		Pending:     cloneAmounts(r.pending),
		Committed:   cloneAmounts(r.committed),
		Returned:    cloneAmounts(r.returned),
		Stacks:      cloneAmounts(r.stacks),
		Board:       append([]poker.Card{}, r.board...),
		Revealed:    make(map[hh.PlayerID][]poker.Card, len(r.revealed)),
		Winners:     append([]hh.PlayerID{}, r.winners...),
		Payouts:     make(map[hh.PlayerID]int64),
		Rake:        r.rake,
	}
	if action != nil {
		s.ActivePlayer = action.Player
	}
	for _, p := range s.Pots {
		s.TotalPot += p.Amount
	}
	for _, v := range r.pending {
		s.TotalPot += v
	}
	for _, id := range r.order {
		if r.folded[id] {
			s.Folded = append(s.Folded, id)
		}
		if c, ok := r.revealed[id]; ok {
			s.Revealed[id] = append([]poker.Card{}, c...)
		}
	}
	for _, id := range r.winners[:r.paid] {
		s.Payouts[id] = r.payouts[id]
	}
	if kind == KindPayout {
		s.ActivePlayer = r.winners[r.paid-1]
	}
	r.snaps = append(r.snaps, s)
}

func clonePots(pots []Pot) []Pot {
	out := make([]Pot, len(pots))
	for i, p := range pots {
		p.Eligible = append([]hh.PlayerID{}, p.Eligible...)
		out[i] = p
	}
	return out
}

func cloneAmounts(m map[hh.PlayerID]int64) map[hh.PlayerID]int64 {
	out := make(map[hh.PlayerID]int64, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func contains(ids []hh.PlayerID, id hh.PlayerID) bool {
	for _, x := range ids {
		if x == id {
			return true
		}
	}
	return false
}
