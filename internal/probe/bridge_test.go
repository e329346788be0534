package probe

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseWindowIDLines(t *testing.T) {
	tests := []struct {
		name   string
		output string
		want   []uint32
	}{
		{
			name:   "single id",
			output: "50331651\n",
			want:   []uint32{50331651},
		},
		{
			name:   "multiple ids with blank lines",
			output: "100\n\n200\n300\n",
			want:   []uint32{100, 200, 300},
		},
		{
			name:   "garbage lines skipped",
			output: "100\nnot-a-number\n200\n",
			want:   []uint32{100, 200},
		},
		{
			name:   "empty output",
			output: "",
			want:   nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, parseWindowIDLines(tt.output))
		})
	}
}

func TestParseWmctrlList(t *testing.T) {
	output := "" +
		"0x03200003  0 1234   navigator.Firefox     host Mozilla Firefox\n" +
		"0x04a00001  1 5678   code.Code             host editor\n" +
		"0x05000007 -1 9999   gnome-shell.Gnome-shell host Desktop\n" +
		"malformed\n"

	ids := parseWmctrlList(output, "firefox")
	assert.Equal(t, []uint32{0x03200003}, ids)

	ids = parseWmctrlList(output, "code")
	assert.Equal(t, []uint32{0x04a00001}, ids)

	assert.Empty(t, parseWmctrlList(output, "spotify"))
}

func TestParseXpropName(t *testing.T) {
	tests := []struct {
		name   string
		output string
		want   string
	}{
		{
			name:   "net wm name",
			output: "_NET_WM_NAME(UTF8_STRING) = \"Mozilla Firefox\"\n",
			want:   "Mozilla Firefox",
		},
		{
			name:   "falls through to second line",
			output: "_NET_WM_NAME: not found.\nWM_NAME(STRING) = \"Terminal\"\n",
			want:   "Terminal",
		},
		{
			name:   "title containing quotes",
			output: "_NET_WM_NAME(UTF8_STRING) = \"a \"quoted\" title\"\n",
			want:   "a \"quoted\" title",
		},
		{
			name:   "no property",
			output: "_NET_WM_NAME: not found.\n",
			want:   "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, parseXpropName(tt.output))
		})
	}
}

func TestMatchesProcess(t *testing.T) {
	assert.True(t, matchesProcess("Firefox", "firefox"))
	assert.True(t, matchesProcess("gnome-calendar", "GNOME-Calendar"))
	// Kernel comm truncation: 15 bytes of a longer name still matches.
	assert.True(t, matchesProcess("gnome-control-c", "gnome-control-center"))
	assert.False(t, matchesProcess("", "firefox"))
	assert.False(t, matchesProcess("chromium", "firefox"))
}
