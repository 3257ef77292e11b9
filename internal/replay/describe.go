package replay

import (
	"fmt"
	"strings"

	hh "github.com/lox/handreplay/internal/handhistory"
	"github.com/lox/handreplay/poker"
)

func (r *replayer) name(id hh.PlayerID) string {
	if p, ok := r.players[id]; ok {
		return p.Name
	}
	return string(id)
}

func (r *replayer) describeStart() string {
	h := r.hand
	var b strings.Builder
	fmt.Fprintf(&b, "%s hand #%s", h.Site, h.HandID)
	if h.TableName != "" {
		fmt.Fprintf(&b, " at %s", h.TableName)
	}
	fmt.Fprintf(&b, ", blinds %s/%s", r.amount(h.SmallBlind), r.amount(h.BigBlind))
	if h.Ante > 0 {
		fmt.Fprintf(&b, " ante %s", r.amount(h.Ante))
	}
	active := 0
	for _, p := range h.Players {
		if p.Status != hh.StatusSittingOut {
			active++
		}
	}
	fmt.Fprintf(&b, ", %d players", active)
	return b.String()
}

func (r *replayer) describeAction(a hh.Action) string {
	who := r.name(a.Player)
	var s string
	switch a.Kind {
	case hh.Fold:
		s = who + " folds"
	case hh.Check:
		s = who + " checks"
	case hh.Call:
		s = fmt.Sprintf("%s calls %s", who, r.amount(a.Amount))
	case hh.Bet:
		s = fmt.Sprintf("%s bets %s", who, r.amount(a.Amount))
	case hh.Raise:
		s = fmt.Sprintf("%s raises to %s", who, r.amount(a.RaiseTo))
	case hh.PostAnte:
		s = fmt.Sprintf("%s posts ante %s", who, r.amount(a.Amount))
	case hh.PostBlind:
		kind := "blind"
		switch {
		case a.Dead:
			kind = "dead blind"
		case a.Amount == r.hand.SmallBlind && r.hand.SmallBlind != r.hand.BigBlind:
			kind = "small blind"
		case a.Amount == r.hand.BigBlind:
			kind = "big blind"
		}
		s = fmt.Sprintf("%s posts %s %s", who, kind, r.amount(a.Amount))
	case hh.UncalledReturn:
		s = fmt.Sprintf("Uncalled bet of %s returned to %s", r.amount(a.Amount), who)
	case hh.Show:
		s = fmt.Sprintf("%s shows %s", who, poker.FormatCards(a.Cards))
		if v, ok := r.value(a.Player); ok {
			s += " (" + v.String() + ")"
		}
	case hh.Muck:
		s = who + " mucks"
	default:
		s = fmt.Sprintf("%s %s", who, a.Kind)
	}
	if a.AllIn {
		s += " and is all-in"
	}
	return s
}

func (r *replayer) describeStreet(street hh.Street, board []poker.Card) string {
	name := strings.ToUpper(street.String()[:1]) + street.String()[1:]
	if len(board) == 0 {
		return name
	}
	return fmt.Sprintf("%s: %s", name, poker.FormatCards(board))
}

func (r *replayer) describeShowdown() string {
	var left []hh.PlayerID
	for _, id := range r.order {
		if !r.folded[id] && r.players[id].Status != hh.StatusSittingOut {
			left = append(left, id)
		}
	}
	if len(left) == 1 {
		return r.name(left[0]) + " is the only player left"
	}
	parts := make([]string, 0, len(left))
	for _, id := range left {
		part := r.name(id)
		if v, ok := r.value(id); ok && len(r.board) == 5 {
			part += " has " + v.String()
		}
		parts = append(parts, part)
	}
	return "Showdown: " + strings.Join(parts, "; ")
}

func (r *replayer) describePayout(id hh.PlayerID, amount int64) string {
	s := fmt.Sprintf("%s collects %s", r.name(id), r.amount(amount))
	if v, ok := r.value(id); ok && len(r.board) == 5 && !r.uncontested() {
		s += " with " + v.String()
	}
	return s
}

func (r *replayer) uncontested() bool {
	n := 0
	for _, id := range r.order {
		if !r.folded[id] && r.players[id].Status != hh.StatusSittingOut {
			n++
		}
	}
	return n <= 1
}
