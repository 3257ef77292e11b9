package phh

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
)

// Encode writes the hand history to the provided writer in PHH TOML format.
func Encode(w io.Writer, hand *HandHistory) error {
	if hand == nil {
		return fmt.Errorf("phh: hand history is nil")
	}

	enc := toml.NewEncoder(w)
	enc.Indent = "\t"
	return enc.Encode(hand)
}

// EncodeToBytes encodes and returns the result as bytes.
func EncodeToBytes(hand *HandHistory) ([]byte, error) {
	var buf strings.Builder
	if err := Encode(&buf, hand); err != nil {
		return nil, err
	}
	return []byte(buf.String()), nil
}

// EncodeSession writes several hands as a PHHS session, one numbered
// table per hand.
func EncodeSession(w io.Writer, hands []*HandHistory) error {
	for i, hand := range hands {
		if i > 0 {
			if _, err := io.WriteString(w, "\n"); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintf(w, "[%d]\n", i+1); err != nil {
			return err
		}
		if err := Encode(w, hand); err != nil {
			return fmt.Errorf("phh: hand %d: %w", i+1, err)
		}
	}
	return nil
}

// DecodeSession reads a PHHS session written by EncodeSession, or a single
// PHH hand.
func DecodeSession(r io.Reader) ([]HandHistory, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	sections := make(map[string]HandHistory)
	if _, err := toml.Decode(string(data), &sections); err == nil && len(sections) > 0 && isSectioned(sections) {
		keys := make([]string, 0, len(sections))
		for k := range sections {
			keys = append(keys, k)
		}
		sort.Slice(keys, func(i, j int) bool {
			return compareSectionKeys(keys[i], keys[j])
		})
		hands := make([]HandHistory, 0, len(keys))
		for _, key := range keys {
			hand := sections[key]
			if hand.HandID == "" {
				hand.HandID = key
			}
			hands = append(hands, hand)
		}
		return hands, nil
	}

	var hand HandHistory
	if _, err := toml.Decode(string(data), &hand); err != nil {
		return nil, fmt.Errorf("phh: decode: %w", err)
	}
	return []HandHistory{hand}, nil
}

func isSectioned(sections map[string]HandHistory) bool {
	for _, h := range sections {
		if h.Variant == "" {
			return false
		}
	}
	return true
}

func compareSectionKeys(a, b string) bool {
	ai, errA := strconv.Atoi(a)
	bi, errB := strconv.Atoi(b)
	if errA == nil && errB == nil {
		return ai < bi
	}
	return a < b
}
