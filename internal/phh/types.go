package phh

// HandHistory is a single hand in the Poker Hand History (PHH) format.
// Amounts are in the source hand's minor units; Currency names them.
type HandHistory struct {
	Variant           string   `toml:"variant"`
	Table             string   `toml:"table,omitempty"`
	SeatCount         int      `toml:"seat_count,omitzero"`
	Seats             []int    `toml:"seats,omitempty"`
	Antes             []int64  `toml:"antes"`
	BlindsOrStraddles []int64  `toml:"blinds_or_straddles"`
	MinBet            int64    `toml:"min_bet"`
	StartingStacks    []int64  `toml:"starting_stacks"`
	FinishingStacks   []int64  `toml:"finishing_stacks,omitempty"`
	Winnings          []int64  `toml:"winnings,omitempty"`
	Actions           []string `toml:"actions"`
	Players           []string `toml:"players,omitempty"`
	Event             string   `toml:"event,omitempty"`
	HandID            string   `toml:"hand"`
	Currency          string   `toml:"currency,omitempty"`
	Rake              int64    `toml:"rake,omitzero"`
	Time              string   `toml:"time,omitempty"`
	TimeZone          string   `toml:"time_zone,omitempty"`
	Day               int      `toml:"day,omitzero"`
	Month             int      `toml:"month,omitzero"`
	Year              int      `toml:"year,omitzero"`
}
