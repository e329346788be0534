package probe

import (
	"bufio"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"syscall"

	"github.com/stagehand-dev/stagehand/internal/config"
	"github.com/stagehand-dev/stagehand/internal/logger"
)

// BridgeProber shells out to the desktop automation tools. It is the
// "UI automation" path, used when the direct X11 query yields nothing.
// Tool availability is resolved once at construction; missing tools shrink
// the fallback chain instead of failing calls.
type BridgeProber struct {
	timing config.ProbeTiming

	xdotoolPath string
	wmctrlPath  string
	xpropPath   string
}

// NewBridgeProber probes the PATH for automation tools.
func NewBridgeProber(timing config.ProbeTiming) *BridgeProber {
	p := &BridgeProber{timing: timing}

	log := logger.WithComponent("bridge-probe")
	if path, err := exec.LookPath("xdotool"); err == nil {
		p.xdotoolPath = path
	} else {
		log.Info().Msg("xdotool not found, relying on wmctrl")
	}
	if path, err := exec.LookPath("wmctrl"); err == nil {
		p.wmctrlPath = path
	} else {
		log.Info().Msg("wmctrl not found")
	}
	if path, err := exec.LookPath("xprop"); err == nil {
		p.xpropPath = path
	}
	return p
}

// IsRunning checks the process table directly.
func (p *BridgeProber) IsRunning(ctx context.Context, process string) bool {
	running := false
	err := call(ctx, p.timing.LivenessTimeout, func() error {
		running = processRunning(process)
		return nil
	})
	return err == nil && running
}

// WindowIDs tries xdotool first and wmctrl second. Both failing degrades
// to an empty set.
func (p *BridgeProber) WindowIDs(ctx context.Context, process string) []uint32 {
	cctx, cancel := context.WithTimeout(ctx, p.timing.WindowQueryTimeout)
	defer cancel()

	if p.xdotoolPath != "" {
		out, err := exec.CommandContext(cctx, p.xdotoolPath,
			"search", "--onlyvisible", "--classname", "^"+process+"$").Output()
		if err == nil {
			if ids := parseWindowIDLines(string(out)); len(ids) > 0 {
				return ids
			}
		}
	}

	if p.wmctrlPath != "" {
		out, err := exec.CommandContext(cctx, p.wmctrlPath, "-l", "-p", "-x").Output()
		if err == nil {
			if ids := parseWmctrlList(string(out), process); len(ids) > 0 {
				return ids
			}
		}
	}

	return nil
}

// WindowTitle asks xdotool for the window name, falling back to xprop.
func (p *BridgeProber) WindowTitle(ctx context.Context, id uint32) (string, bool) {
	cctx, cancel := context.WithTimeout(ctx, p.timing.TitleQueryTimeout)
	defer cancel()

	if p.xdotoolPath != "" {
		out, err := exec.CommandContext(cctx, p.xdotoolPath,
			"getwindowname", strconv.FormatUint(uint64(id), 10)).Output()
		if err == nil {
			if title := strings.TrimSpace(string(out)); title != "" {
				return title, true
			}
		}
	}

	if p.xpropPath != "" {
		out, err := exec.CommandContext(cctx, p.xpropPath,
			"-id", fmt.Sprintf("0x%x", id), "_NET_WM_NAME", "WM_NAME").Output()
		if err == nil {
			if title := parseXpropName(string(out)); title != "" {
				return title, true
			}
		}
	}

	return "", false
}

// CloseWindow asks the window manager to close gracefully via wmctrl and
// falls back to xdotool's direct close request.
func (p *BridgeProber) CloseWindow(ctx context.Context, id uint32) error {
	cctx, cancel := context.WithTimeout(ctx, p.timing.WindowQueryTimeout)
	defer cancel()

	var firstErr error
	if p.wmctrlPath != "" {
		err := exec.CommandContext(cctx, p.wmctrlPath, "-i", "-c", fmt.Sprintf("0x%x", id)).Run()
		if err == nil {
			return nil
		}
		firstErr = err
	}

	if p.xdotoolPath != "" {
		err := exec.CommandContext(cctx, p.xdotoolPath,
			"windowclose", strconv.FormatUint(uint64(id), 10)).Run()
		if err == nil {
			return nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}

	if firstErr == nil {
		firstErr = fmt.Errorf("no window close tool available")
	}
	return fmt.Errorf("failed to close window 0x%x: %w", id, firstErr)
}

// Quit delivers SIGTERM to the process.
func (p *BridgeProber) Quit(ctx context.Context, process string) error {
	return signalProcess(process, syscall.SIGTERM)
}

// Terminate delivers SIGKILL to the process.
func (p *BridgeProber) Terminate(ctx context.Context, process string) error {
	return signalProcess(process, syscall.SIGKILL)
}

// parseWindowIDLines parses xdotool search output, one decimal id per line.
func parseWindowIDLines(output string) []uint32 {
	var ids []uint32
	scanner := bufio.NewScanner(strings.NewReader(output))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		id, err := strconv.ParseUint(line, 10, 32)
		if err != nil {
			continue
		}
		ids = append(ids, uint32(id))
	}
	return ids
}

// parseWmctrlList parses `wmctrl -l -p -x` output and keeps windows whose
// WM_CLASS column or owning pid matches the process.
// Format: windowID desktop pid wmclass hostname title...
func parseWmctrlList(output, process string) []uint32 {
	pidSet := make(map[int]struct{})
	for _, pid := range pidsOf(process) {
		pidSet[pid] = struct{}{}
	}

	var ids []uint32
	scanner := bufio.NewScanner(strings.NewReader(output))
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 4 {
			continue
		}

		matched := false
		if pid, err := strconv.Atoi(fields[2]); err == nil {
			_, matched = pidSet[pid]
		}
		if !matched {
			// WM_CLASS column is "instance.Class"
			for _, part := range strings.Split(fields[3], ".") {
				if matchesProcess(part, process) {
					matched = true
					break
				}
			}
		}
		if !matched {
			continue
		}

		raw := strings.TrimPrefix(fields[0], "0x")
		id, err := strconv.ParseUint(raw, 16, 32)
		if err != nil {
			continue
		}
		ids = append(ids, uint32(id))
	}
	return ids
}

// parseXpropName extracts the first quoted string from xprop output.
func parseXpropName(output string) string {
	for _, line := range strings.Split(output, "\n") {
		start := strings.Index(line, "\"")
		if start < 0 {
			continue
		}
		end := strings.LastIndex(line, "\"")
		if end <= start {
			continue
		}
		return line[start+1 : end]
	}
	return ""
}
