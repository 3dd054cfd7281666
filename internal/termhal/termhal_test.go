package termhal

import (
	"bytes"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/kapitanov/chip8/internal/machine"
	"github.com/kapitanov/chip8/internal/vm"
	"github.com/retroenv/retrogolib/assert"
)

type keyEvent struct {
	Key     vm.Key
	Pressed bool
}

type recorder struct {
	events []keyEvent
}

func (r *recorder) setKey(key vm.Key, pressed bool) {
	r.events = append(r.events, keyEvent{key, pressed})
}

func newTestTerminal(out *bytes.Buffer, input string) (*Terminal, *time.Time) {
	t := New(nil, out)
	for i := 0; i < len(input); i++ {
		t.input <- input[i]
	}

	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	t.now = func() time.Time { return now }
	return t, &now
}

func TestKeyMap(t *testing.T) {
	key, ok := keyMap('w')
	assert.True(t, ok)
	assert.Equal(t, vm.Key5, key)

	key, ok = keyMap('V')
	assert.True(t, ok)
	assert.Equal(t, vm.KeyF, key)

	_, ok = keyMap('p')
	assert.False(t, ok)
}

func TestReadInputPressAndRelease(t *testing.T) {
	term, now := newTestTerminal(&bytes.Buffer{}, "ww1")
	rec := &recorder{}

	assert.NoError(t, term.ReadInput(rec.setKey))
	want := []keyEvent{{vm.Key5, true}, {vm.Key1, true}}
	if diff := cmp.Diff(want, rec.events); diff != "" {
		t.Errorf("events mismatch (-want +got):\n%s", diff)
	}

	// Autorepeat keeps 1 down while 5 times out.
	*now = now.Add(DefaultHoldTime / 2)
	term.input <- '1'
	assert.NoError(t, term.ReadInput(rec.setKey))
	*now = now.Add(DefaultHoldTime / 2)
	assert.NoError(t, term.ReadInput(rec.setKey))

	want = append(want, keyEvent{vm.Key5, false})
	if diff := cmp.Diff(want, rec.events); diff != "" {
		t.Errorf("events mismatch (-want +got):\n%s", diff)
	}

	*now = now.Add(DefaultHoldTime)
	assert.NoError(t, term.ReadInput(rec.setKey))
	want = append(want, keyEvent{vm.Key1, false})
	if diff := cmp.Diff(want, rec.events); diff != "" {
		t.Errorf("events mismatch (-want +got):\n%s", diff)
	}
}

func TestReadInputControls(t *testing.T) {
	tests := []struct {
		input string
		want  error
	}{
		{"\x03", machine.ErrQuit},
		{"\x04", machine.ErrQuit},
		{"\x7f", machine.ErrReboot},
		{"\x08", machine.ErrReboot},
	}

	for _, tt := range tests {
		term, _ := newTestTerminal(&bytes.Buffer{}, tt.input)
		err := term.ReadInput(func(vm.Key, bool) {})
		assert.True(t, errors.Is(err, tt.want))
	}
}

func TestReadInputKeyHeldAcrossReboot(t *testing.T) {
	term, now := newTestTerminal(&bytes.Buffer{}, "w")
	rec := &recorder{}

	assert.NoError(t, term.ReadInput(rec.setKey))

	term.input <- del
	err := term.ReadInput(rec.setKey)
	assert.True(t, errors.Is(err, machine.ErrReboot))

	// Autorepeat continues within the hold time; the rebooted VM must see the key again.
	*now = now.Add(DefaultHoldTime / 5)
	term.input <- 'w'
	assert.NoError(t, term.ReadInput(rec.setKey))

	want := []keyEvent{{vm.Key5, true}, {vm.Key5, true}}
	if diff := cmp.Diff(want, rec.events); diff != "" {
		t.Errorf("events mismatch (-want +got):\n%s", diff)
	}
}

func TestCloseStopsBlockedReader(t *testing.T) {
	r, w, err := os.Pipe()
	assert.NoError(t, err)
	defer func() {
		_ = w.Close()
		_ = r.Close()
	}()

	term := New(r, &bytes.Buffer{})
	assert.NoError(t, term.Start())

	// More input than the channel holds, so the reader blocks on a send.
	_, err = w.Write(bytes.Repeat([]byte{'x'}, 4*cap(term.input)))
	assert.NoError(t, err)

	deadline := time.Now().Add(5 * time.Second)
	for len(term.input) < cap(term.input) && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	assert.Equal(t, cap(term.input), len(term.input))

	term.Close()
	time.Sleep(20 * time.Millisecond)

	timeout := time.After(5 * time.Second)
	for {
		select {
		case _, ok := <-term.input:
			if !ok {
				return
			}
		case <-timeout:
			t.Fatal("reader did not stop after Close")
		}
	}
}

func TestReadInputClosed(t *testing.T) {
	term, _ := newTestTerminal(&bytes.Buffer{}, "")
	close(term.input)

	err := term.ReadInput(func(vm.Key, bool) {})
	assert.True(t, errors.Is(err, machine.ErrQuit))
}

func TestDraw(t *testing.T) {
	v := vm.New()
	assert.NoError(t, v.LoadProgram([]byte{
		0x60, 0x01, // mov v0, 1
		0xF0, 0x29, // font v0
		0xD1, 0x15, // sprite v1, v1, 5
	}))
	for i := 0; i < 3; i++ {
		assert.NoError(t, v.Step())
	}

	out := &bytes.Buffer{}
	term, _ := newTestTerminal(out, "")
	assert.NoError(t, term.Draw(v.Framebuffer()))

	s := out.String()
	assert.True(t, strings.HasPrefix(s, escHome))
	lines := strings.Split(strings.TrimPrefix(s, escHome), "\r\n")
	assert.Equal(t, vm.ScreenHeight/2+1, len(lines))

	// Glyph 1 rows: 0x20 0x60 0x20 0x20 0x70.
	blank := strings.Repeat(" ", vm.ScreenWidth-4)
	assert.Equal(t, " ▄█ "+blank, lines[0])
	assert.Equal(t, "  █ "+blank, lines[1])
	assert.Equal(t, " ▀▀▀"+blank, lines[2])
	assert.Equal(t, strings.Repeat(" ", vm.ScreenWidth), lines[3])
}
