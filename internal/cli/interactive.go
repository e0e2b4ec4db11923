package cli

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/kailas-cloud/protsearch"
)

const interactiveHelp = `Type text to see suggestions. Commands:
  :submit [text]   search for text (or the current input)
  :pick N          search for suggestion N
  :k N             set the number of results
  :source on|off   toggle the alternative data source
  :url             print the shareable query string
  :state           print the current results and suggestions
  :help            show this help
  :quit            leave`

// settleTimeout bounds how long the prompt waits for a response.
const settleTimeout = 30 * time.Second

// NewInteractiveCmd creates the 'interactive' command, a line-based search session.
func NewInteractiveCmd(a *app) *cobra.Command {
	var (
		flow            string
		k               int
		anotherSource   bool
		suggestDebounce time.Duration
		searchDebounce  time.Duration
	)

	cmd := &cobra.Command{
		Use:     "interactive",
		Aliases: []string{"i"},
		Short:   "Start an interactive search session",
		Long: `Start a search session that mirrors the web page: typing fetches
suggestions, submitting or picking a suggestion runs a search.

` + interactiveHelp,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f, err := protsearch.ParseFlow(flow)
			if err != nil {
				return errors.WithHint(err, "use --flow submit or --flow typeahead")
			}

			c, err := a.newClient(a.v)
			if err != nil {
				return err
			}
			defer c.Close()

			s := c.NewSession(protsearch.SessionOptions{
				Flow:            f,
				SearchDebounce:  searchDebounce,
				SuggestDebounce: suggestDebounce,
				Defaults:        protsearch.Params{K: k, FromAnotherSource: anotherSource},
			})
			defer s.Close()

			r := &repl{
				s:       s,
				out:     cmd.OutOrStdout(),
				changed: make(chan struct{}, 1),
				wait:    suggestDebounce,
			}
			if f == protsearch.FlowTypeAhead && searchDebounce > r.wait {
				r.wait = searchDebounce
			}
			s.OnChange(func(protsearch.SessionState) {
				select {
				case r.changed <- struct{}{}:
				default:
				}
			})
			return r.run(cmd.InOrStdin())
		},
	}

	cmd.Flags().StringVar(&flow, "flow", string(protsearch.FlowSubmit), "when to search: submit or typeahead")
	cmd.Flags().IntVar(&k, "k", 5, "number of results")
	cmd.Flags().BoolVar(&anotherSource, "another-source", false, "search the alternative data source")
	cmd.Flags().DurationVar(&suggestDebounce, "suggest-debounce", 300*time.Millisecond, "idle time before suggestions are fetched")
	cmd.Flags().DurationVar(&searchDebounce, "search-debounce", 700*time.Millisecond, "idle time before a type-ahead search")
	return cmd
}

type repl struct {
	s       *protsearch.Session
	out     io.Writer
	changed chan struct{}
	// wait is the debounce delay a typed line needs before its responses start.
	wait time.Duration
}

func (r *repl) run(in io.Reader) error {
	fmt.Fprintln(r.out, interactiveHelp)
	sc := bufio.NewScanner(in)
	for {
		fmt.Fprint(r.out, "> ")
		if !sc.Scan() {
			fmt.Fprintln(r.out)
			return errors.Wrap(sc.Err(), "read input")
		}
		quit, err := r.handle(sc.Text())
		if err != nil {
			fmt.Fprintln(r.out, FormatError(err))
		}
		if quit {
			return nil
		}
	}
}

// handle runs one input line and reports whether the session should end.
func (r *repl) handle(line string) (bool, error) {
	if !strings.HasPrefix(line, ":") {
		if err := r.s.Type(line); err != nil {
			return false, err
		}
		time.Sleep(r.wait + 50*time.Millisecond)
		st := r.settle()
		if strings.TrimSpace(st.Input) != "" {
			printEntries(r.out, st.Suggestions, st.Input)
		}
		if st.Params.Query != "" && st.Params.Query == strings.TrimSpace(st.Input) {
			r.printResults(st)
		}
		return false, nil
	}

	name, arg, _ := strings.Cut(strings.TrimPrefix(line, ":"), " ")
	arg = strings.TrimSpace(arg)
	switch name {
	case "q", "quit", "exit":
		return true, nil
	case "h", "help":
		fmt.Fprintln(r.out, interactiveHelp)
		return false, nil
	case "submit", "s":
		if arg == "" {
			arg = r.s.State().Input
		}
		if err := r.s.Submit(arg); err != nil {
			return false, err
		}
	case "pick", "p":
		n, err := strconv.Atoi(arg)
		if err != nil {
			return false, errors.WithHint(errors.Newf("invalid suggestion number %q", arg), "use :pick N with N from the list")
		}
		if err := r.s.Pick(n); err != nil {
			return false, err
		}
	case "k":
		n, err := strconv.Atoi(arg)
		if err != nil {
			return false, errors.WithHint(errors.Newf("invalid k %q", arg), "use :k N")
		}
		if err := r.s.SetK(n); err != nil {
			return false, explain(err, "")
		}
	case "source":
		on, err := parseSwitch(arg)
		if err != nil {
			return false, err
		}
		if err := r.s.SetFromAnotherSource(on); err != nil {
			return false, err
		}
	case "url":
		loc := r.s.Location()
		if loc == "" {
			fmt.Fprintln(r.out, "(nothing searched yet)")
		} else {
			fmt.Fprintln(r.out, "?"+loc)
		}
		return false, nil
	case "state":
		st := r.s.State()
		fmt.Fprintf(r.out, "input=%q %s\n", st.Input, st.Params.Encode())
		if st.DropdownOpen {
			printEntries(r.out, st.Suggestions, st.Input)
		}
		r.printResults(st)
		return false, nil
	default:
		return false, errors.WithHint(errors.Newf("unknown command :%s", name), "type :help for the command list")
	}

	r.printResults(r.settle())
	return false, nil
}

// settle waits until no request is in flight and returns the resulting state.
func (r *repl) settle() protsearch.SessionState {
	deadline := time.After(settleTimeout)
	for {
		st := r.s.State()
		if !st.Loading && !st.SuggestLoading {
			return st
		}
		select {
		case <-r.changed:
		case <-deadline:
			return r.s.State()
		}
	}
}

func (r *repl) printResults(st protsearch.SessionState) {
	if st.List == protsearch.ListResults {
		printRows(r.out, st.Rows)
		return
	}
	fmt.Fprintln(r.out, st.Message)
}

func parseSwitch(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "on", "true", "yes", "1":
		return true, nil
	case "off", "false", "no", "0":
		return false, nil
	default:
		return false, errors.WithHint(errors.Newf("invalid switch %q", s), "use :source on or :source off")
	}
}
