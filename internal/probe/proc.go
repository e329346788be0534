package probe

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
)

// commLen is the kernel's truncation limit for /proc/<pid>/comm.
const commLen = 15

// pidsOf scans the process table for processes whose name matches. The
// comparison is case-insensitive and tolerates the kernel's 15-byte comm
// truncation for long names.
func pidsOf(process string) []int {
	want := strings.ToLower(process)
	truncated := want
	if len(truncated) > commLen {
		truncated = truncated[:commLen]
	}

	entries, err := os.ReadDir("/proc")
	if err != nil {
		return nil
	}

	var pids []int
	for _, entry := range entries {
		pid, err := strconv.Atoi(entry.Name())
		if err != nil {
			continue
		}
		comm, err := os.ReadFile(filepath.Join("/proc", entry.Name(), "comm"))
		if err != nil {
			continue
		}
		name := strings.ToLower(strings.TrimSpace(string(comm)))
		if name == want || name == truncated {
			pids = append(pids, pid)
		}
	}
	return pids
}

// processRunning is the fast liveness check. It reads the process table
// instead of asking the window system, which is an order of magnitude
// slower and can hang on unresponsive applications.
func processRunning(process string) bool {
	return len(pidsOf(process)) > 0
}

// signalProcess delivers sig to every process matching the name. Processes
// that vanish between lookup and delivery are ignored.
func signalProcess(process string, sig syscall.Signal) error {
	pids := pidsOf(process)
	if len(pids) == 0 {
		return nil
	}
	var firstErr error
	for _, pid := range pids {
		if err := syscall.Kill(pid, sig); err != nil && err != syscall.ESRCH && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// processNameOfPID resolves a pid back to its comm name, lowercased.
func processNameOfPID(pid int) string {
	comm, err := os.ReadFile(filepath.Join("/proc", strconv.Itoa(pid), "comm"))
	if err != nil {
		return ""
	}
	return strings.ToLower(strings.TrimSpace(string(comm)))
}

// matchesProcess reports whether a process name observed on a window (comm
// or WM_CLASS) belongs to the process we are probing for.
func matchesProcess(observed, process string) bool {
	observed = strings.ToLower(strings.TrimSpace(observed))
	want := strings.ToLower(process)
	if observed == "" {
		return false
	}
	if observed == want {
		return true
	}
	if len(want) > commLen && observed == want[:commLen] {
		return true
	}
	return false
}
