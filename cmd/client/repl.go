package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/peterh/liner"

	"chat-client/internal/engine"
	"chat-client/internal/models"
	"chat-client/internal/store"
)

const commandTimeout = 10 * time.Second

const helpText = `Commands:
  /rooms                     refresh and list rooms
  /join <room>               join a room
  /create <room> [display]   create a room and join it
  /dm <user>                 open a private conversation
  /back                      return to the current room
  /who                       list online users
  /notifications             show recent notifications
  /logout                    end the session and log in again
  /quit                      exit
Anything else is sent to the active room or conversation.`

var errUsage = errors.New("wrong arguments, see /help")

type repl struct {
	eng      *engine.Engine
	line     *liner.State
	renderer *renderer

	mu  sync.Mutex
	out io.Writer
}

func newREPL(eng *engine.Engine, line *liner.State, out io.Writer) *repl {
	return &repl{
		eng:      eng,
		line:     line,
		renderer: newRenderer(),
		out:      out,
	}
}

func (r *repl) run(ctx context.Context, username string) error {
	if err := r.login(ctx, username); err != nil {
		return err
	}
	r.printf("%s\n", helpText)

	go r.watch(ctx)

	for {
		input, err := r.line.Prompt(r.prompt())
		if err != nil {
			if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		r.line.AppendHistory(input)

		quit, err := r.handle(ctx, input)
		if err != nil {
			r.printf("error: %v\n", err)
		}
		if quit {
			return nil
		}
	}
}

func (r *repl) login(ctx context.Context, username string) error {
	for {
		name := username
		username = ""
		if name == "" {
			var err error
			if name, err = r.line.Prompt("Username: "); err != nil {
				return err
			}
		}

		err := r.wait(ctx, r.eng.Login(name))
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		r.printf("error: %v\n", err)
	}
}

// handle runs one line of input and reports whether the user asked to quit.
func (r *repl) handle(ctx context.Context, input string) (bool, error) {
	name, args := parseCommand(input)
	switch name {
	case "":
		return false, r.wait(ctx, r.eng.Submit(input))
	case "quit", "exit":
		return true, nil
	case "help":
		r.printf("%s\n", helpText)
	case "rooms":
		if err := r.wait(ctx, r.eng.FetchRooms()); err != nil {
			return false, err
		}
		return false, r.view(func(w io.Writer, v store.Reader) { writeRooms(w, v) })
	case "join":
		if len(args) != 1 {
			return false, errUsage
		}
		return false, r.wait(ctx, r.eng.JoinRoom(args[0]))
	case "create":
		if len(args) == 0 {
			return false, errUsage
		}
		display := strings.Join(args[1:], " ")
		if display == "" {
			display = args[0]
		}
		return false, r.wait(ctx, r.eng.CreateRoom(args[0], display))
	case "dm":
		if len(args) != 1 {
			return false, errUsage
		}
		return false, r.wait(ctx, r.eng.OpenConversation(args[0]))
	case "back":
		return false, r.wait(ctx, r.eng.ShowRooms())
	case "who":
		return false, r.view(func(w io.Writer, v store.Reader) { writeOnline(w, v) })
	case "notifications":
		return false, r.view(func(w io.Writer, v store.Reader) { writeNotifications(w, v.Notifications()) })
	case "logout":
		if err := r.wait(ctx, r.eng.Logout()); err != nil {
			return false, err
		}
		return false, r.login(ctx, "")
	default:
		return false, fmt.Errorf("unknown command /%s", name)
	}
	return false, nil
}

// watch renders store updates as they happen.
func (r *repl) watch(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-r.eng.Changes():
		}
		if err := r.view(r.renderer.render); err != nil {
			return
		}
	}
}

func (r *repl) prompt() string {
	prompt := "> "
	r.eng.View(func(v store.Reader) {
		scope := v.ActiveScope()
		switch {
		case scope.IsZero():
		case scope.Mode == models.ModePrivate:
			prompt = "@" + scope.Key + "> "
		default:
			prompt = "#" + scope.Key + "> "
		}
	})
	return prompt
}

func (r *repl) wait(ctx context.Context, ack *engine.Ack) error {
	ctx, cancel := context.WithTimeout(ctx, commandTimeout)
	defer cancel()
	return ack.Wait(ctx)
}

// view renders into a buffer on the engine loop and prints the result.
func (r *repl) view(fn func(w io.Writer, v store.Reader)) error {
	var buf bytes.Buffer
	if err := r.eng.View(func(v store.Reader) { fn(&buf, v) }); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	_, err := r.out.Write(buf.Bytes())
	return err
}

func (r *repl) printf(format string, args ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintf(r.out, format, args...)
}

// parseCommand splits a slash command into its lowercased name and
// arguments. Plain text yields an empty name.
func parseCommand(input string) (string, []string) {
	input = strings.TrimSpace(input)
	if !strings.HasPrefix(input, "/") {
		return "", nil
	}
	fields := strings.Fields(input[1:])
	if len(fields) == 0 {
		return "help", nil
	}
	return strings.ToLower(fields[0]), fields[1:]
}
