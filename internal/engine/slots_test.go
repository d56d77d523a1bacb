package engine

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlots_FillThenClearRestoresInitialState(t *testing.T) {
	s := NewSlots(2, Letters("ねこ"))
	initial := s.All()

	_, err := s.Fill(1, "ね")
	require.NoError(t, err)
	_, err = s.Clear(1)
	require.NoError(t, err)

	assert.Equal(t, initial, s.All())
}

func TestSlots_FillComputesCorrectness(t *testing.T) {
	cases := []struct {
		name   string
		count  int
		index  int
		letter string
		want   Correctness
	}{
		{name: "expected letter", count: 2, index: 0, letter: "ね", want: Correct},
		{name: "wrong letter", count: 2, index: 1, letter: "ね", want: Incorrect},
		{name: "past the word is never correct", count: 3, index: 2, letter: "こ", want: CorrectnessUnknown},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := NewSlots(tc.count, Letters("ねこ"))
			slot, err := s.Fill(tc.index, tc.letter)
			require.NoError(t, err)
			assert.True(t, slot.Filled)
			assert.Equal(t, tc.letter, slot.Letter)
			assert.Equal(t, tc.want, slot.Correctness)
		})
	}
}

func TestSlots_FillRejectsOccupiedAndOutOfRange(t *testing.T) {
	s := NewSlots(2, Letters("ねこ"))
	_, err := s.Fill(0, "ね")
	require.NoError(t, err)

	_, err = s.Fill(0, "こ")
	assert.True(t, errors.Is(err, ErrSlotOccupied), "got %v", err)

	_, err = s.Fill(2, "こ")
	assert.True(t, errors.Is(err, ErrSlotOutOfRange), "got %v", err)

	_, err = s.Clear(-1)
	assert.True(t, errors.Is(err, ErrSlotOutOfRange), "got %v", err)
}

func TestSlots_ExpectedLetterAndFirstUnfilled(t *testing.T) {
	s := NewSlots(3, Letters("ねこ"))

	l, ok := s.ExpectedLetter(1)
	assert.True(t, ok)
	assert.Equal(t, "こ", l)
	_, ok = s.ExpectedLetter(2)
	assert.False(t, ok)

	i, ok := s.FirstUnfilled()
	assert.True(t, ok)
	assert.Equal(t, 0, i)

	_, _ = s.Fill(0, "ね")
	i, _ = s.FirstUnfilled()
	assert.Equal(t, 1, i)
}

func TestSlot_Label(t *testing.T) {
	assert.Equal(t, "1文字目のスロット（？）", Slot{Index: 0}.Label())
	assert.Equal(t, "2文字目のスロット（こ） - せいかい",
		Slot{Index: 1, Letter: "こ", Filled: true, Correctness: Correct}.Label())
	assert.Equal(t, "1文字目のスロット（こ） - ちがうよ",
		Slot{Index: 0, Letter: "こ", Filled: true, Correctness: Incorrect}.Label())
}
