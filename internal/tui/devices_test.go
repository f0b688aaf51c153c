package tui

import (
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"spectrum/internal/audio"
)

var testDevices = []audio.Device{
	{ID: 0, Name: "Speakers", MaxOutputChannels: 2, DefaultSampleRate: 48000},
	{ID: 1, Name: "Microphone", MaxInputChannels: 1, DefaultSampleRate: 48000},
	{ID: 2, Name: "Interface", MaxInputChannels: 2, MaxOutputChannels: 2, DefaultSampleRate: 96000},
}

func send(t *testing.T, m DeviceListModel, msgs ...tea.Msg) (DeviceListModel, tea.Cmd) {
	t.Helper()
	var cmd tea.Cmd
	for _, msg := range msgs {
		var next tea.Model
		next, cmd = m.Update(msg)
		m = next.(DeviceListModel)
	}
	return m, cmd
}

func keyMsg(k tea.KeyType) tea.KeyMsg { return tea.KeyMsg{Type: k} }

func runeMsg(r rune) tea.KeyMsg { return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}} }

func ready(t *testing.T) DeviceListModel {
	m, _ := send(t, NewDeviceListModel(),
		tea.WindowSizeMsg{Width: 80, Height: 40},
		devicesMsg{testDevices},
	)
	return m
}

func isQuit(cmd tea.Cmd) bool {
	if cmd == nil {
		return false
	}
	_, ok := cmd().(tea.QuitMsg)
	return ok
}

func TestPickDeviceAndRate(t *testing.T) {
	m := ready(t)
	m, _ = send(t, m, keyMsg(tea.KeyDown), keyMsg(tea.KeyDown), keyMsg(tea.KeyEnter))
	if m.activeScreen != ConfigScreen {
		t.Fatalf("activeScreen = %v, want ConfigScreen", m.activeScreen)
	}
	if got := sampleRates[m.sampleRateIndex]; got != 96000 {
		t.Errorf("initial rate = %v, want device default 96000", got)
	}

	m, cmd := send(t, m, keyMsg(tea.KeyUp), keyMsg(tea.KeyEnter))
	if !isQuit(cmd) {
		t.Error("confirming should quit")
	}
	sel, ok := m.Selection()
	if !ok {
		t.Fatal("Selection() not confirmed")
	}
	want := Selection{DeviceID: 2, Name: "Interface", SampleRate: 88200}
	if sel != want {
		t.Errorf("Selection() = %+v, want %+v", sel, want)
	}
}

func TestOutputOnlyDeviceCannotBeConfigured(t *testing.T) {
	m := ready(t)
	m, _ = send(t, m, keyMsg(tea.KeyEnter))
	if m.activeScreen != ListScreen {
		t.Error("output-only device opened the configuration screen")
	}
}

func TestNavigationBounds(t *testing.T) {
	m := ready(t)
	m, _ = send(t, m, keyMsg(tea.KeyUp))
	if m.selectedIndex != 0 {
		t.Errorf("selectedIndex = %d after up at top", m.selectedIndex)
	}
	m, _ = send(t, m, runeMsg('j'), runeMsg('j'), runeMsg('j'), runeMsg('j'))
	if m.selectedIndex != len(testDevices)-1 {
		t.Errorf("selectedIndex = %d, want %d", m.selectedIndex, len(testDevices)-1)
	}
}

func TestEscReturnsToList(t *testing.T) {
	m := ready(t)
	m, _ = send(t, m, keyMsg(tea.KeyDown), keyMsg(tea.KeyEnter), keyMsg(tea.KeyEsc))
	if m.activeScreen != ListScreen {
		t.Errorf("activeScreen = %v, want ListScreen", m.activeScreen)
	}
	if _, ok := m.Selection(); ok {
		t.Error("Esc must not confirm a selection")
	}
}

func TestQuitWithoutSelection(t *testing.T) {
	m := ready(t)
	m, cmd := send(t, m, runeMsg('q'))
	if !isQuit(cmd) {
		t.Error("q should quit")
	}
	if _, ok := m.Selection(); ok {
		t.Error("quit must not confirm a selection")
	}
}

func TestView(t *testing.T) {
	if got := NewDeviceListModel().View(); got != "Initializing..." {
		t.Errorf("View() before size = %q", got)
	}

	m := ready(t)
	view := m.View()
	for _, want := range []string{"Audio Device List", "Microphone", "Input/Output"} {
		if !strings.Contains(view, want) {
			t.Errorf("View() missing %q", want)
		}
	}

	m, _ = send(t, m, errMsg{errors.New("portaudio gone")})
	if !strings.Contains(m.View(), "portaudio gone") {
		t.Error("View() does not show the error")
	}
}

func TestFetchDevices(t *testing.T) {
	orig := deviceSource
	t.Cleanup(func() { deviceSource = orig })

	deviceSource = func() ([]audio.Device, error) { return testDevices, nil }
	if msg, ok := fetchDevices().(devicesMsg); !ok || len(msg.devices) != 3 {
		t.Errorf("fetchDevices() = %#v", msg)
	}

	deviceSource = func() ([]audio.Device, error) { return nil, errors.New("boom") }
	if _, ok := fetchDevices().(errMsg); !ok {
		t.Error("fetchDevices() should report the error")
	}
}
