package probe

import (
	"context"
	"fmt"
	"strings"
	"syscall"

	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/stagehand-dev/stagehand/internal/config"
	"github.com/stagehand-dev/stagehand/internal/logger"
)

// X11Prober asks the window manager directly via EWMH properties. This is
// the "direct application query" path, preferred over the automation-tool
// bridge because it is faster and does not depend on external binaries.
type X11Prober struct {
	conn   *xgb.Conn
	root   xproto.Window
	timing config.ProbeTiming

	clientListAtom xproto.Atom
	pidAtom        xproto.Atom
	netNameAtom    xproto.Atom
	utf8Atom       xproto.Atom
	nameAtom       xproto.Atom
	classAtom      xproto.Atom
	closeAtom      xproto.Atom
}

// NewX11Prober connects to the X server and resolves the atoms used for
// window enumeration.
func NewX11Prober(timing config.ProbeTiming) (*X11Prober, error) {
	conn, err := xgb.NewConn()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to X server: %w", err)
	}

	setup := xproto.Setup(conn)
	root := setup.DefaultScreen(conn).Root

	p := &X11Prober{
		conn:   conn,
		root:   root,
		timing: timing,
	}

	atoms := map[string]*xproto.Atom{
		"_NET_CLIENT_LIST":  &p.clientListAtom,
		"_NET_WM_PID":       &p.pidAtom,
		"_NET_WM_NAME":      &p.netNameAtom,
		"UTF8_STRING":       &p.utf8Atom,
		"WM_NAME":           &p.nameAtom,
		"WM_CLASS":          &p.classAtom,
		"_NET_CLOSE_WINDOW": &p.closeAtom,
	}
	for name, dst := range atoms {
		reply, err := xproto.InternAtom(conn, false, uint16(len(name)), name).Reply()
		if err != nil {
			conn.Close()
			return nil, fmt.Errorf("failed to intern atom %s: %w", name, err)
		}
		*dst = reply.Atom
	}

	return p, nil
}

// Close closes the X11 connection.
func (p *X11Prober) Close() error {
	p.conn.Close()
	return nil
}

// IsRunning checks the process table, not the window system.
func (p *X11Prober) IsRunning(ctx context.Context, process string) bool {
	running := false
	err := call(ctx, p.timing.LivenessTimeout, func() error {
		running = processRunning(process)
		return nil
	})
	return err == nil && running
}

// WindowIDs enumerates _NET_CLIENT_LIST and keeps windows whose owning pid
// or WM_CLASS matches the process name.
func (p *X11Prober) WindowIDs(ctx context.Context, process string) []uint32 {
	var ids []uint32
	err := call(ctx, p.timing.WindowQueryTimeout, func() error {
		clients, err := p.clientList()
		if err != nil {
			return err
		}
		for _, win := range clients {
			if p.windowBelongsTo(win, process) {
				ids = append(ids, uint32(win))
			}
		}
		return nil
	})
	if err != nil {
		logger.WithComponent("x11-probe").Debug().
			Err(err).
			Str("process", process).
			Msg("window id query degraded to empty")
		return nil
	}
	return ids
}

// WindowTitle reads _NET_WM_NAME, falling back to WM_NAME.
func (p *X11Prober) WindowTitle(ctx context.Context, id uint32) (string, bool) {
	var title string
	err := call(ctx, p.timing.TitleQueryTimeout, func() error {
		win := xproto.Window(id)
		if s, err := p.stringProperty(win, p.netNameAtom, p.utf8Atom); err == nil && s != "" {
			title = s
			return nil
		}
		s, err := p.stringProperty(win, p.nameAtom, xproto.AtomString)
		if err != nil {
			return err
		}
		title = s
		return nil
	})
	if err != nil || title == "" {
		return "", false
	}
	return title, true
}

// CloseWindow sends an EWMH _NET_CLOSE_WINDOW client message, the
// window-manager-level equivalent of clicking the close control.
func (p *X11Prober) CloseWindow(ctx context.Context, id uint32) error {
	return call(ctx, p.timing.WindowQueryTimeout, func() error {
		ev := xproto.ClientMessageEvent{
			Format: 32,
			Window: xproto.Window(id),
			Type:   p.closeAtom,
			// Data32: timestamp (0 = unknown), source indication 2 (pager)
			Data: xproto.ClientMessageDataUnionData32New([]uint32{0, 2, 0, 0, 0}),
		}
		mask := uint32(xproto.EventMaskSubstructureRedirect | xproto.EventMaskSubstructureNotify)
		return xproto.SendEventChecked(p.conn, false, p.root, mask, string(ev.Bytes())).Check()
	})
}

// Quit delivers SIGTERM to the process.
func (p *X11Prober) Quit(ctx context.Context, process string) error {
	return signalProcess(process, syscall.SIGTERM)
}

// Terminate delivers SIGKILL to the process.
func (p *X11Prober) Terminate(ctx context.Context, process string) error {
	return signalProcess(process, syscall.SIGKILL)
}

// clientList reads the EWMH _NET_CLIENT_LIST property from the root window.
func (p *X11Prober) clientList() ([]xproto.Window, error) {
	reply, err := xproto.GetProperty(
		p.conn, false, p.root, p.clientListAtom, xproto.AtomWindow, 0, (1<<32)-1,
	).Reply()
	if err != nil {
		return nil, err
	}

	windows := make([]xproto.Window, 0, reply.ValueLen)
	for i := 0; i+4 <= len(reply.Value); i += 4 {
		id := uint32(reply.Value[i]) |
			uint32(reply.Value[i+1])<<8 |
			uint32(reply.Value[i+2])<<16 |
			uint32(reply.Value[i+3])<<24
		windows = append(windows, xproto.Window(id))
	}
	return windows, nil
}

// windowBelongsTo matches a window to a process by _NET_WM_PID first and
// WM_CLASS second.
func (p *X11Prober) windowBelongsTo(win xproto.Window, process string) bool {
	pidReply, err := xproto.GetProperty(p.conn, false, win, p.pidAtom, xproto.AtomCardinal, 0, 1).Reply()
	if err == nil && len(pidReply.Value) >= 4 {
		pid := int(uint32(pidReply.Value[0]) |
			uint32(pidReply.Value[1])<<8 |
			uint32(pidReply.Value[2])<<16 |
			uint32(pidReply.Value[3])<<24)
		if pid > 0 && matchesProcess(processNameOfPID(pid), process) {
			return true
		}
	}

	classReply, err := xproto.GetProperty(p.conn, false, win, p.classAtom, xproto.AtomString, 0, 256).Reply()
	if err == nil && len(classReply.Value) > 0 {
		// WM_CLASS is two null-terminated strings: instance and class
		for _, part := range strings.Split(string(classReply.Value), "\x00") {
			if matchesProcess(part, process) {
				return true
			}
		}
	}
	return false
}

// stringProperty reads a string window property.
func (p *X11Prober) stringProperty(win xproto.Window, prop, typ xproto.Atom) (string, error) {
	reply, err := xproto.GetProperty(p.conn, false, win, prop, typ, 0, 256).Reply()
	if err != nil {
		return "", err
	}
	if reply.ValueLen == 0 {
		return "", fmt.Errorf("empty property")
	}
	return string(reply.Value), nil
}
