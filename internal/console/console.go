// Package console runs the scheduling assistant as a terminal REPL.
package console

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/Proton-105/aadee-assistant/internal/i18n"
	"github.com/Proton-105/aadee-assistant/internal/transcript"
	"github.com/Proton-105/aadee-assistant/internal/widget"
)

const (
	cmdOpen     = "/open"
	cmdSchedule = "/schedule"
	cmdTimes    = "/times"
	cmdPick     = "/pick"
	cmdHelp     = "/help"
	cmdQuit     = "/quit"
)

// Console reads commands and chat lines from in and prints the conversation to out.
type Console struct {
	widget   *widget.Widget
	in       io.Reader
	out      io.Writer
	renderer *transcript.Renderer
	tr       i18n.Translator
	log      *slog.Logger

	canShowTimes bool
}

// New builds a console over w. Times are printed in loc.
func New(w *widget.Widget, in io.Reader, out io.Writer, loc *time.Location, tr i18n.Translator, log *slog.Logger) *Console {
	if log == nil {
		log = slog.Default()
	}

	return &Console{
		widget:   w,
		in:       in,
		out:      out,
		renderer: transcript.NewRenderer(out, loc),
		tr:       tr,
		log:      log,
	}
}

// Run opens the widget and processes lines until /quit, end of input or ctx cancellation.
func (c *Console) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	c.println(c.tr.T("ui.console_help"))
	if err := c.show(c.widget.Open(ctx)); err != nil {
		return err
	}

	lines := make(chan string)
	scanErr := make(chan error, 1)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(c.in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		scanErr <- scanner.Err()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				select {
				case err := <-scanErr:
					return err
				default:
					return nil
				}
			}

			quit, err := c.Handle(ctx, line)
			if err != nil {
				return err
			}
			if quit {
				return nil
			}
		}
	}
}

// Handle processes one input line and reports whether the user asked to quit.
func (c *Console) Handle(ctx context.Context, line string) (bool, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return false, nil
	}

	cmd, arg, _ := strings.Cut(line, " ")
	switch strings.ToLower(cmd) {
	case cmdQuit:
		return true, nil
	case cmdHelp:
		c.println(c.tr.T("ui.console_help"))
		return false, nil
	case cmdOpen:
		c.renderer.Reset()
		return false, c.show(c.widget.Open(ctx))
	case cmdSchedule:
		return false, c.show(c.widget.ScheduleMeeting(ctx))
	case cmdTimes:
		return false, c.show(c.widget.ShowTimes(ctx))
	case cmdPick:
		return false, c.pick(ctx, arg)
	default:
		return false, c.show(c.widget.Send(ctx, line))
	}
}

func (c *Console) pick(ctx context.Context, arg string) error {
	n, err := strconv.Atoi(strings.TrimSpace(arg))
	if err != nil {
		c.println(c.tr.T("ui.unknown_slot"))
		return nil
	}

	iso, ok := c.renderer.Chip(n)
	if !ok {
		c.println(c.tr.T("ui.unknown_slot"))
		return nil
	}

	snap, err := c.widget.ChooseTime(ctx, iso)
	if err != nil {
		c.log.Debug("slot not selectable", slog.String("slot", iso), slog.Any("error", err))
		c.println(c.tr.T("ui.unknown_slot"))
		return nil
	}
	return c.show(snap)
}

func (c *Console) show(snap widget.Snapshot) error {
	if err := c.renderer.Render(snap.Transcript, snap.Slots, snap.ShowingSlots); err != nil {
		return err
	}

	if snap.CanShowTimes && !c.canShowTimes {
		c.println(fmt.Sprintf("  %s (%s)", c.tr.T("ui.show_times"), cmdTimes))
	}
	c.canShowTimes = snap.CanShowTimes

	if snap.Placeholder != "" {
		_, err := fmt.Fprintf(c.out, "(%s)\n", snap.Placeholder)
		return err
	}
	return nil
}

func (c *Console) println(s string) {
	if _, err := fmt.Fprintln(c.out, s); err != nil {
		c.log.Warn("console write failed", slog.Any("error", err))
	}
}
