package types

import (
	"sort"
	"time"
)

// Kind identifies one of the three tab assignment collections.
type Kind string

const (
	// KindHotkeys is the keyed-slot kind: slot key to item ID.
	KindHotkeys Kind = "hotkeys"
	// KindHoldingTank is the ordered-list kind: a sequence of item IDs.
	KindHoldingTank Kind = "holdingTank"
	// KindSoundboard is the grid-position kind: "row-col" to item ID.
	KindSoundboard Kind = "soundboard"
)

const (
	// TabCount is the fixed number of tab slots per kind.
	TabCount = 5

	// StateVersion is written into every persisted session state.
	StateVersion = "1.0.0"
)

// Kinds returns every assignment kind in persistence order.
func Kinds() []Kind {
	return []Kind{KindHotkeys, KindHoldingTank, KindSoundboard}
}

// Valid reports whether k names a known kind.
func (k Kind) Valid() bool {
	switch k {
	case KindHotkeys, KindHoldingTank, KindSoundboard:
		return true
	}
	return false
}

// Ordered reports whether the kind preserves item order.
func (k Kind) Ordered() bool {
	return k == KindHoldingTank
}

// ValidTab reports whether n is within 1..TabCount.
func ValidTab(n int) bool {
	return n >= 1 && n <= TabCount
}

// TabAssignment is the normalized form of one tab of one kind.
// Keyed-slot and grid kinds populate Slots; the ordered-list kind
// populates Items.
type TabAssignment struct {
	Kind      Kind              `json:"kind"`
	TabNumber int               `json:"tabNumber"`
	TabName   *string           `json:"tabName"`
	Slots     map[string]string `json:"slots,omitempty"`
	Items     []string          `json:"items,omitempty"`
}

// Len returns the number of assigned items in the tab.
func (t TabAssignment) Len() int {
	if t.Kind.Ordered() {
		return len(t.Items)
	}
	return len(t.Slots)
}

// Empty reports whether the tab carries neither items nor a custom name.
func (t TabAssignment) Empty() bool {
	return t.Len() == 0 && (t.TabName == nil || *t.TabName == "")
}

// Clone returns a deep copy of t.
func (t TabAssignment) Clone() TabAssignment {
	out := TabAssignment{Kind: t.Kind, TabNumber: t.TabNumber}
	if t.TabName != nil {
		name := *t.TabName
		out.TabName = &name
	}
	if t.Slots != nil {
		out.Slots = make(map[string]string, len(t.Slots))
		for k, v := range t.Slots {
			out.Slots[k] = v
		}
	}
	if t.Items != nil {
		out.Items = append([]string(nil), t.Items...)
	}
	return out
}

// EmptyTab returns an unassigned tab of the given kind.
func EmptyTab(kind Kind, n int) TabAssignment {
	t := TabAssignment{Kind: kind, TabNumber: n}
	if kind.Ordered() {
		t.Items = []string{}
	} else {
		t.Slots = map[string]string{}
	}
	return t
}

// HotkeyTab is the persisted form of a keyed-slot tab.
type HotkeyTab struct {
	TabNumber int               `json:"tabNumber"`
	TabName   *string           `json:"tabName"`
	Hotkeys   map[string]string `json:"hotkeys"`
}

// HoldingTankTab is the persisted form of an ordered-list tab.
type HoldingTankTab struct {
	TabNumber int      `json:"tabNumber"`
	TabName   *string  `json:"tabName"`
	SongIDs   []string `json:"songIds"`
}

// SoundboardTab is the persisted form of a grid-position tab.
type SoundboardTab struct {
	TabNumber int               `json:"tabNumber"`
	TabName   *string           `json:"tabName"`
	Buttons   map[string]string `json:"buttons"`
}

// SessionState is the state.json payload.
type SessionState struct {
	Version     string           `json:"version"`
	Timestamp   int64            `json:"timestamp"`
	Hotkeys     []HotkeyTab      `json:"hotkeys"`
	HoldingTank []HoldingTankTab `json:"holdingTank"`
	Soundboard  []SoundboardTab  `json:"soundboard"`
}

// NewSessionState returns a state stamped with now and the current version.
func NewSessionState(now time.Time) *SessionState {
	return &SessionState{
		Version:     StateVersion,
		Timestamp:   now.UnixMilli(),
		Hotkeys:     []HotkeyTab{},
		HoldingTank: []HoldingTankTab{},
		Soundboard:  []SoundboardTab{},
	}
}

// Normalize replaces missing collections with empty ones.
func (s *SessionState) Normalize() {
	if s.Hotkeys == nil {
		s.Hotkeys = []HotkeyTab{}
	}
	if s.HoldingTank == nil {
		s.HoldingTank = []HoldingTankTab{}
	}
	if s.Soundboard == nil {
		s.Soundboard = []SoundboardTab{}
	}
}

// Tabs returns the normalized tabs of kind, ascending by tab number.
// Tabs numbered outside 1..TabCount are ignored; a repeated tab number
// keeps its last occurrence.
func (s *SessionState) Tabs(kind Kind) []TabAssignment {
	if s == nil {
		return nil
	}
	byNumber := make(map[int]TabAssignment)
	switch kind {
	case KindHotkeys:
		for _, t := range s.Hotkeys {
			byNumber[t.TabNumber] = TabAssignment{Kind: kind, TabNumber: t.TabNumber, TabName: t.TabName, Slots: copyMap(t.Hotkeys)}
		}
	case KindHoldingTank:
		for _, t := range s.HoldingTank {
			items := append([]string{}, t.SongIDs...)
			byNumber[t.TabNumber] = TabAssignment{Kind: kind, TabNumber: t.TabNumber, TabName: t.TabName, Items: items}
		}
	case KindSoundboard:
		for _, t := range s.Soundboard {
			byNumber[t.TabNumber] = TabAssignment{Kind: kind, TabNumber: t.TabNumber, TabName: t.TabName, Slots: copyMap(t.Buttons)}
		}
	}

	out := make([]TabAssignment, 0, len(byNumber))
	for n, t := range byNumber {
		if ValidTab(n) {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TabNumber < out[j].TabNumber })
	return out
}

// SetTabs replaces the collection of kind with tabs.
func (s *SessionState) SetTabs(kind Kind, tabs []TabAssignment) {
	switch kind {
	case KindHotkeys:
		s.Hotkeys = make([]HotkeyTab, 0, len(tabs))
		for _, t := range tabs {
			s.Hotkeys = append(s.Hotkeys, HotkeyTab{TabNumber: t.TabNumber, TabName: t.TabName, Hotkeys: nonNilMap(t.Slots)})
		}
	case KindHoldingTank:
		s.HoldingTank = make([]HoldingTankTab, 0, len(tabs))
		for _, t := range tabs {
			items := t.Items
			if items == nil {
				items = []string{}
			}
			s.HoldingTank = append(s.HoldingTank, HoldingTankTab{TabNumber: t.TabNumber, TabName: t.TabName, SongIDs: items})
		}
	case KindSoundboard:
		s.Soundboard = make([]SoundboardTab, 0, len(tabs))
		for _, t := range tabs {
			s.Soundboard = append(s.Soundboard, SoundboardTab{TabNumber: t.TabNumber, TabName: t.TabName, Buttons: nonNilMap(t.Slots)})
		}
	}
}

// IsEmpty reports whether no tab of any kind carries an item or a name.
func (s *SessionState) IsEmpty() bool {
	if s == nil {
		return true
	}
	for _, kind := range Kinds() {
		for _, t := range s.Tabs(kind) {
			if !t.Empty() {
				return false
			}
		}
	}
	return true
}

// ItemCount returns the total number of assigned items across all kinds.
func (s *SessionState) ItemCount() int {
	n := 0
	for _, kind := range Kinds() {
		for _, t := range s.Tabs(kind) {
			n += t.Len()
		}
	}
	return n
}

func copyMap(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func nonNilMap(in map[string]string) map[string]string {
	if in == nil {
		return map[string]string{}
	}
	return in
}
