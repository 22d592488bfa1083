package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"

	"github.com/mcoot/dilemmagame/internal/model"
	"github.com/mcoot/dilemmagame/internal/protocol"
)

const playHelp = "Commands: [c]ooperate, [s]teal, [n]ext round, [q]uit"

func newPlayCmd() *cobra.Command {
	var (
		roomID string
		name   string
		create bool
	)

	cmd := &cobra.Command{
		Use:   "play",
		Short: "Play a session over the websocket",
		Long: `Connect to the server's websocket endpoint and play interactively.

Use --create to open a room (the server picks a code when --room is empty),
or --room to join an existing one. Then type one command per line:

  c  cooperate this round
  s  steal this round
  n  move on once the round is revealed
  q  leave the room

Press Ctrl+C to disconnect.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !create && roomID == "" {
				return errors.New("--room is required unless --create is set")
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			wsURL, err := client.WebSocketURL()
			if err != nil {
				return err
			}

			p, err := dialPlayer(ctx, wsURL, NewOutput(cfg.Output, cmd.OutOrStdout()))
			if err != nil {
				return err
			}
			defer p.close()

			var hello protocol.Inbound
			if create {
				hello = &protocol.CreateRoom{RoomID: model.RoomID(roomID), PlayerName: name}
			} else {
				hello = &protocol.JoinRoom{RoomID: model.RoomID(roomID), PlayerName: name}
			}
			p.setRoom(model.RoomID(roomID))
			if err := p.send(hello); err != nil {
				return err
			}

			if cfg.Verbose {
				p.out.PrintMessage(playHelp)
			}
			return p.run(ctx, cmd.InOrStdin())
		},
	}

	cmd.Flags().StringVar(&roomID, "room", "", "Room to join, or code to create with --create")
	cmd.Flags().StringVar(&name, "name", "", "Your display name")
	cmd.Flags().BoolVar(&create, "create", false, "Create the room instead of joining it")
	_ = cmd.MarkFlagRequired("name")

	return cmd
}

// player is one interactive websocket session
type player struct {
	conn *websocket.Conn
	out  *Output

	writeMu sync.Mutex

	mu     sync.Mutex
	roomID model.RoomID

	done    chan struct{}
	readErr error
}

func dialPlayer(ctx context.Context, wsURL string, out *Output) (*player, error) {
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return nil, fmt.Errorf("connection failed: %w", err)
	}

	p := &player{
		conn: conn,
		out:  out,
		done: make(chan struct{}),
	}
	go p.readLoop()
	return p, nil
}

func (p *player) room() model.RoomID {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.roomID
}

func (p *player) setRoom(id model.RoomID) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.roomID = id
}

func (p *player) send(msg protocol.Inbound) error {
	frame, err := protocol.EncodeInbound(msg)
	if err != nil {
		return err
	}
	p.writeMu.Lock()
	defer p.writeMu.Unlock()
	_ = p.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	return p.conn.WriteMessage(websocket.TextMessage, frame)
}

// readLoop prints server frames until the connection closes
func (p *player) readLoop() {
	defer close(p.done)
	for {
		_, frame, err := p.conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				p.readErr = err
			}
			return
		}

		msg, err := protocol.DecodeServerMessage(frame)
		if err != nil {
			slog.Debug("ignoring malformed frame", slog.Any("error", err))
			continue
		}
		if msg.Event == model.EventRoomCreated {
			if created, err := msg.RoomCreated(); err == nil {
				p.setRoom(model.RoomID(created.RoomID))
			}
		}
		p.out.PrintEvent(msg)
	}
}

// run reads commands from in until quit, end of input, or disconnect
func (p *player) run(ctx context.Context, in io.Reader) error {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-p.done:
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-p.done:
			return p.readErr
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			quit, err := p.handle(line)
			if err != nil {
				return err
			}
			if quit {
				return nil
			}
		}
	}
}

// handle sends the message for one command line
func (p *player) handle(line string) (bool, error) {
	cmd := strings.ToLower(strings.TrimSpace(line))
	if cmd == "" {
		return false, nil
	}

	roomID := p.room()
	if roomID == "" && cmd != "q" && cmd != "quit" {
		p.out.PrintMessage("No room yet, wait for the server to confirm")
		return false, nil
	}

	switch cmd {
	case "c", "cooperate":
		return false, p.send(&protocol.MakeChoice{RoomID: roomID, Decision: model.DecisionCooperate})
	case "s", "steal":
		return false, p.send(&protocol.MakeChoice{RoomID: roomID, Decision: model.DecisionSteal})
	case "n", "next":
		return false, p.send(&protocol.NextRound{RoomID: roomID})
	case "q", "quit":
		return true, nil
	default:
		p.out.PrintMessage(playHelp)
		return false, nil
	}
}

// close says goodbye and waits briefly for the server to hang up
func (p *player) close() {
	p.writeMu.Lock()
	_ = p.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	p.writeMu.Unlock()

	select {
	case <-p.done:
	case <-time.After(time.Second):
	}
	_ = p.conn.Close()
}
