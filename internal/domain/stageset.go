package domain

import (
	"encoding/json"
	"fmt"
	"math/bits"
	"strconv"
	"strings"
)

// StageSet is the set of completed stage sequence numbers, one bit per stage.
// Bit 0 is stage 1. Numbers outside 1..StageCount are never stored.
type StageSet uint8

const fullStageSet StageSet = 1<<StageCount - 1

// NewStageSet builds a set from sequence numbers, dropping out-of-range values
func NewStageSet(seqs ...int) StageSet {
	var s StageSet
	for _, seq := range seqs {
		s = s.With(seq)
	}
	return s
}

// StagesThrough returns the prefix set {1..k}
func StagesThrough(k int) StageSet {
	if k <= 0 {
		return 0
	}
	if k >= StageCount {
		return fullStageSet
	}
	return StageSet(1<<k - 1)
}

// Has reports whether the stage is in the set
func (s StageSet) Has(seq int) bool {
	if seq < 1 || seq > StageCount {
		return false
	}
	return s&(1<<(seq-1)) != 0
}

// With returns a copy of the set including seq
func (s StageSet) With(seq int) StageSet {
	if seq < 1 || seq > StageCount {
		return s
	}
	return s | 1<<(seq-1)
}

// Without returns a copy of the set excluding seq
func (s StageSet) Without(seq int) StageSet {
	if seq < 1 || seq > StageCount {
		return s
	}
	return s &^ (1 << (seq - 1))
}

// Len returns the number of stages in the set
func (s StageSet) Len() int {
	return bits.OnesCount8(uint8(s & fullStageSet))
}

// Highest returns the largest sequence number in the set, or 0 if empty
func (s StageSet) Highest() int {
	return bits.Len8(uint8(s & fullStageSet))
}

// FirstMissing returns the smallest stage not in the set, or 0 if the set is full
func (s StageSet) FirstMissing() int {
	missing := ^s & fullStageSet
	if missing == 0 {
		return 0
	}
	return bits.TrailingZeros8(uint8(missing)) + 1
}

// IsFull returns true when every stage is in the set
func (s StageSet) IsFull() bool {
	return s&fullStageSet == fullStageSet
}

// IsPrefix returns true when the set is exactly {1..Highest()}
func (s StageSet) IsPrefix() bool {
	return s&fullStageSet == StagesThrough(s.Highest())
}

// Sequences returns the stage numbers in ascending order
func (s StageSet) Sequences() []int {
	seqs := make([]int, 0, s.Len())
	for seq := 1; seq <= StageCount; seq++ {
		if s.Has(seq) {
			seqs = append(seqs, seq)
		}
	}
	return seqs
}

func (s StageSet) String() string {
	parts := make([]string, 0, s.Len())
	for _, seq := range s.Sequences() {
		parts = append(parts, strconv.Itoa(seq))
	}
	return "{" + strings.Join(parts, ",") + "}"
}

// MarshalJSON encodes the set as a sorted array of integers
func (s StageSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Sequences())
}

// UnmarshalJSON accepts an array mixing numbers and numeric strings, as
// written by older clients. Entries that are not stage numbers are ignored.
func (s *StageSet) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*s = 0
		return nil
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("completed stages must be an array: %w", err)
	}

	var set StageSet
	for _, item := range raw {
		if seq, ok := parseStageNumber(item); ok {
			set = set.With(seq)
		}
	}
	*s = set
	return nil
}

func parseStageNumber(item json.RawMessage) (int, bool) {
	var n json.Number
	if err := json.Unmarshal(item, &n); err == nil {
		if i, err := n.Int64(); err == nil {
			return int(i), true
		}
		if f, err := n.Float64(); err == nil && f == float64(int(f)) {
			return int(f), true
		}
		return 0, false
	}

	var str string
	if err := json.Unmarshal(item, &str); err == nil {
		i, err := strconv.Atoi(strings.TrimSpace(str))
		return i, err == nil
	}
	return 0, false
}
