package engine

import "fmt"

type Correctness string

const (
	CorrectnessUnknown Correctness = "unknown"
	Correct            Correctness = "correct"
	Incorrect          Correctness = "incorrect"
)

const emptySlotMark = "？"

// Slot is one ordered letter position. Filled is always Letter != "".
type Slot struct {
	Index       int         `json:"index"`
	Letter      string      `json:"letter"`
	Filled      bool        `json:"filled"`
	Correctness Correctness `json:"correctness"`
}

// Label is the accessible description of the slot.
func (s Slot) Label() string {
	value := s.Letter
	if value == "" {
		value = emptySlotMark
	}
	status := ""
	switch {
	case !s.Filled:
	case s.Correctness == Correct:
		status = " - せいかい"
	case s.Correctness == Incorrect:
		status = " - ちがうよ"
	}
	return fmt.Sprintf("%d文字目のスロット（%s）%s", s.Index+1, value, status)
}

// Slots tracks fill and correctness per position against the round's word.
type Slots struct {
	slots []Slot
	word  []string
}

func NewSlots(count int, word []string) *Slots {
	s := &Slots{}
	s.Reset(count, word)
	return s
}

// Reset empties every slot, resizing to count.
func (s *Slots) Reset(count int, word []string) {
	if count < 0 {
		count = 0
	}
	s.word = append(s.word[:0], word...)
	s.slots = make([]Slot, count)
	for i := range s.slots {
		s.slots[i] = Slot{Index: i, Correctness: CorrectnessUnknown}
	}
}

func (s *Slots) Len() int { return len(s.slots) }

// ExpectedLetter reports the word's letter at index, if index is inside the word.
func (s *Slots) ExpectedLetter(index int) (string, bool) {
	if index < 0 || index >= len(s.word) {
		return "", false
	}
	return s.word[index], true
}

// Fill places letter into an empty slot. Occupied slots must be cleared first.
func (s *Slots) Fill(index int, letter string) (Slot, error) {
	if index < 0 || index >= len(s.slots) {
		return Slot{}, fmt.Errorf("fill %d: %w", index, ErrSlotOutOfRange)
	}
	if s.slots[index].Filled {
		return s.slots[index], fmt.Errorf("fill %d: %w", index, ErrSlotOccupied)
	}
	if letter == "" {
		return s.slots[index], fmt.Errorf("fill %d: %w", index, ErrInertTile)
	}

	slot := Slot{Index: index, Letter: letter, Filled: true, Correctness: CorrectnessUnknown}
	if expected, ok := s.ExpectedLetter(index); ok {
		if expected == letter {
			slot.Correctness = Correct
		} else {
			slot.Correctness = Incorrect
		}
	}
	s.slots[index] = slot
	return slot, nil
}

// Clear returns the slot to its initial unfilled state. Clearing an empty
// slot is a no-op.
func (s *Slots) Clear(index int) (Slot, error) {
	if index < 0 || index >= len(s.slots) {
		return Slot{}, fmt.Errorf("clear %d: %w", index, ErrSlotOutOfRange)
	}
	s.slots[index] = Slot{Index: index, Correctness: CorrectnessUnknown}
	return s.slots[index], nil
}

func (s *Slots) Get(index int) (Slot, bool) {
	if index < 0 || index >= len(s.slots) {
		return Slot{}, false
	}
	return s.slots[index], true
}

// FirstUnfilled returns the lowest-index empty slot.
func (s *Slots) FirstUnfilled() (int, bool) {
	for i, slot := range s.slots {
		if !slot.Filled {
			return i, true
		}
	}
	return -1, false
}

func (s *Slots) All() []Slot {
	out := make([]Slot, len(s.slots))
	copy(out, s.slots)
	return out
}

// Word returns the letters the slots are judged against.
func (s *Slots) Word() []string { return s.word }
