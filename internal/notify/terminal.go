package notify

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"coinwatch/internal/models"
)

// ANSI colors for terminal output.
const (
	termReset  = "\033[0m"
	termBold   = "\033[1m"
	termRed    = "\033[31m"
	termGreen  = "\033[32m"
	termYellow = "\033[33m"
)

// TerminalNotifier prints notifications to the terminal. Triggered
// alarms ring the bell, with a double ring for upward crossings and a
// single ring for downward ones so the two are distinguishable by ear.
type TerminalNotifier struct {
	out          io.Writer
	mu           sync.Mutex
	enabled      bool
	bellEnabled  bool
	colorEnabled bool
}

// NewTerminalNotifier creates a TerminalNotifier writing to out.
// A nil out defaults to stdout.
func NewTerminalNotifier(out io.Writer) *TerminalNotifier {
	if out == nil {
		out = os.Stdout
	}
	return &TerminalNotifier{
		out:          out,
		enabled:      true,
		bellEnabled:  true,
		colorEnabled: true,
	}
}

// SetBellEnabled enables or disables the terminal bell.
func (tn *TerminalNotifier) SetBellEnabled(enabled bool) {
	tn.mu.Lock()
	defer tn.mu.Unlock()
	tn.bellEnabled = enabled
}

// SetColorEnabled enables or disables colored output.
func (tn *TerminalNotifier) SetColorEnabled(enabled bool) {
	tn.mu.Lock()
	defer tn.mu.Unlock()
	tn.colorEnabled = enabled
}

// Name returns the name of the notifier.
func (tn *TerminalNotifier) Name() string {
	return "terminal"
}

// IsEnabled returns whether the notifier is enabled.
func (tn *TerminalNotifier) IsEnabled() bool {
	tn.mu.Lock()
	defer tn.mu.Unlock()
	return tn.enabled
}

// Send prints the notification.
func (tn *TerminalNotifier) Send(ctx context.Context, n Notification) error {
	tn.mu.Lock()
	defer tn.mu.Unlock()

	if !tn.enabled {
		return nil
	}

	if tn.bellEnabled && n.Type == NotificationAlarm {
		fmt.Fprint(tn.out, bellPattern(n.Direction))
	}

	title := n.Title
	if tn.colorEnabled {
		title = tn.colorFor(n) + termBold + title + termReset
	}

	if _, err := fmt.Fprintf(tn.out, "\n%s\n%s\n", title, n.Message); err != nil {
		return fmt.Errorf("writing terminal notification: %w", err)
	}
	return nil
}

// bellPattern returns the bell sequence for an alarm direction.
func bellPattern(dir models.Condition) string {
	if dir == models.ConditionBelow {
		return "\a"
	}
	return "\a\a"
}

func (tn *TerminalNotifier) colorFor(n Notification) string {
	switch n.Type {
	case NotificationError:
		return termRed
	case NotificationAlarm:
		if n.Direction == models.ConditionBelow {
			return termYellow
		}
		return termGreen
	default:
		return ""
	}
}
