package control

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/gogpu/dewarp/camera"
)

// ErrBadCommand is returned for a console line that does not parse.
var ErrBadCommand = errors.New("control: bad command")

// Op is a console command verb.
type Op int

const (
	OpInvalid Op = iota
	OpMode
	OpSet
	OpNudge
	OpReset
	OpShow
	OpSnapshot
	OpQuit
	OpHelp
)

var opNames = map[string]Op{
	"mode":     OpMode,
	"set":      OpSet,
	"nudge":    OpNudge,
	"reset":    OpReset,
	"show":     OpShow,
	"snapshot": OpSnapshot,
	"quit":     OpQuit,
	"exit":     OpQuit,
	"help":     OpHelp,
}

func (o Op) String() string {
	switch o {
	case OpMode:
		return "mode"
	case OpSet:
		return "set"
	case OpNudge:
		return "nudge"
	case OpReset:
		return "reset"
	case OpShow:
		return "show"
	case OpSnapshot:
		return "snapshot"
	case OpQuit:
		return "quit"
	case OpHelp:
		return "help"
	default:
		return "invalid"
	}
}

// Command is one parsed console line.
type Command struct {
	Op    Op
	Kind  camera.Kind
	Param string
	Value float64
	Steps int
	Path  string
	// Err is set when the line failed to parse; Op is then OpInvalid.
	Err error
}

// Usage lists the console commands.
const Usage = `commands:
  mode <linear|undistort|fisheye|omnidir>
  set <param> <value>
  nudge <param> <+n|-n>
  reset
  show
  snapshot [path.png]
  quit`

// ParseCommand parses one console line.
func ParseCommand(line string) (Command, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return Command{}, fmt.Errorf("%w: empty line", ErrBadCommand)
	}
	op, ok := opNames[strings.ToLower(fields[0])]
	if !ok {
		return Command{}, fmt.Errorf("%w: unknown verb %q", ErrBadCommand, fields[0])
	}
	args := fields[1:]
	cmd := Command{Op: op}

	switch op {
	case OpMode:
		if len(args) == 0 {
			return Command{}, fmt.Errorf("%w: mode needs a model name", ErrBadCommand)
		}
		kind, err := camera.ParseKind(strings.Join(args, " "))
		if err != nil {
			return Command{}, fmt.Errorf("%w: %w", ErrBadCommand, err)
		}
		cmd.Kind = kind
	case OpSet:
		if len(args) != 2 {
			return Command{}, fmt.Errorf("%w: usage: set <param> <value>", ErrBadCommand)
		}
		v, err := strconv.ParseFloat(args[1], 64)
		if err != nil {
			return Command{}, fmt.Errorf("%w: value %q: %w", ErrBadCommand, args[1], err)
		}
		cmd.Param, cmd.Value = args[0], v
	case OpNudge:
		if len(args) != 2 {
			return Command{}, fmt.Errorf("%w: usage: nudge <param> <+n|-n>", ErrBadCommand)
		}
		n, err := strconv.Atoi(args[1])
		if err != nil {
			return Command{}, fmt.Errorf("%w: steps %q: %w", ErrBadCommand, args[1], err)
		}
		cmd.Param, cmd.Steps = args[0], n
	case OpSnapshot:
		if len(args) > 1 {
			return Command{}, fmt.Errorf("%w: usage: snapshot [path]", ErrBadCommand)
		}
		if len(args) == 1 {
			cmd.Path = args[0]
		}
	default:
		if len(args) != 0 {
			return Command{}, fmt.Errorf("%w: %s takes no arguments", ErrBadCommand, fields[0])
		}
	}
	return cmd, nil
}

// Apply executes the state-changing commands (mode, set, nudge, reset)
// and reports whether the state changed. Other commands are left to the
// caller and report false.
func (c *Controller) Apply(cmd Command) (bool, error) {
	switch cmd.Op {
	case OpMode:
		c.SwitchMode(cmd.Kind)
		return true, nil
	case OpSet:
		return c.Set(cmd.Param, cmd.Value)
	case OpNudge:
		_, changed, err := c.Nudge(cmd.Param, cmd.Steps)
		return changed, err
	case OpReset:
		c.Reset()
		return true, nil
	case OpInvalid:
		if cmd.Err != nil {
			return false, cmd.Err
		}
		return false, ErrBadCommand
	default:
		return false, nil
	}
}

// WriteTable prints the active mode and its parameters, formatting numbers
// for the given language.
func (c *Controller) WriteTable(w io.Writer, tag language.Tag) error {
	p := message.NewPrinter(tag)
	if _, err := p.Fprintf(w, "mode: %s\n", c.kind.Title()); err != nil {
		return err
	}
	for _, prm := range c.Params() {
		s := prm.Spec
		_, err := p.Fprintf(w, "  %-30s %14s   [%v, %v] step %v\n",
			s.Label, p.Sprintf(s.Format, prm.Value), s.Min, s.Max, s.Step)
		if err != nil {
			return err
		}
	}
	return nil
}

// Console reads commands line by line on its own goroutine and queues
// them for the frame loop, which drains them with Poll. The console never
// touches a Controller.
type Console struct {
	cmds chan Command
}

// NewConsole starts reading r. Lines that fail to parse are delivered as
// OpInvalid commands carrying the error. The queue closes at EOF.
func NewConsole(r io.Reader) *Console {
	c := &Console{cmds: make(chan Command, 16)}
	go c.read(r)
	return c
}

func (c *Console) read(r io.Reader) {
	defer close(c.cmds)
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		cmd, err := ParseCommand(line)
		if err != nil {
			cmd = Command{Op: OpInvalid, Err: err}
		}
		c.cmds <- cmd
	}
}

// Poll returns the next queued command without blocking.
func (c *Console) Poll() (Command, bool) {
	select {
	case cmd, ok := <-c.cmds:
		return cmd, ok
	default:
		return Command{}, false
	}
}
