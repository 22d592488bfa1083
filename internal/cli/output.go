package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/mcoot/dilemmagame/internal/api/response"
	"github.com/mcoot/dilemmagame/internal/model"
	"github.com/mcoot/dilemmagame/internal/protocol"
)

// Output handles formatting output based on the configured format.
// It is safe for concurrent use.
type Output struct {
	format string

	mu sync.Mutex
	w  io.Writer
}

// NewOutput creates a new Output formatter
func NewOutput(format string, w io.Writer) *Output {
	return &Output{format: format, w: w}
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.format == OutputJSON {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

// PrintMessage outputs a simple message
func (o *Output) PrintMessage(msg string) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.format == OutputJSON {
		data, _ := json.Marshal(map[string]string{"message": msg})
		fmt.Fprintln(o.w, string(data))
	} else {
		fmt.Fprintln(o.w, msg)
	}
}

// PrintEvent outputs a frame received from the websocket
func (o *Output) PrintEvent(msg protocol.ServerMessage) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.format == OutputJSON {
		data, _ := json.Marshal(protocol.Envelope{Event: string(msg.Event), Data: msg.Data})
		fmt.Fprintln(o.w, string(data))
		return
	}
	o.printEvent(msg)
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(o.w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case response.Health:
		o.printHealth(v)
	case response.RoomList:
		o.printRoomList(v)
	case protocol.Room:
		o.printRoom(v)
	case response.ResultList:
		o.printResultList(v)
	case response.Result:
		o.printResult(v)
	default:
		// Fallback to JSON for unknown types
		o.printJSON(data)
	}
}

func (o *Output) printHealth(h response.Health) {
	fmt.Fprintf(o.w, "Status: %s\n", h.Status)
	fmt.Fprintf(o.w, "Rooms: %d\n", h.Rooms)
	fmt.Fprintf(o.w, "Connections: %d\n", h.Connections)
}

func (o *Output) printRoomList(l response.RoomList) {
	if len(l.Rooms) == 0 {
		fmt.Fprintln(o.w, "No rooms")
		return
	}
	for _, r := range l.Rooms {
		fmt.Fprintf(o.w, "%-10s %-22s round %d/%d  %s\n",
			r.RoomID, r.State, r.Round, r.RoundCap, strings.Join(r.Participants, " vs "))
	}
}

func (o *Output) printRoom(r protocol.Room) {
	fmt.Fprintf(o.w, "Room: %s\n", r.RoomID)
	fmt.Fprintf(o.w, "State: %s\n", r.State)
	fmt.Fprintf(o.w, "Round: %d of %d\n", r.Round, r.RoundCap)
	fmt.Fprintf(o.w, "Players (%d):\n", len(r.Players))
	for _, p := range r.Players {
		choice := "-"
		if p.Choice != nil {
			choice = *p.Choice
		}
		fmt.Fprintf(o.w, "  - %s (%s) score %d, choice %s\n", p.Name, p.ID, p.Score, choice)
	}
	o.printHistory(r.GameHistory, playerNames(r.Players))
}

func (o *Output) printHistory(history []protocol.HistoryEntry, names map[string]string) {
	if len(history) == 0 {
		return
	}
	fmt.Fprintln(o.w, "History:")
	for _, h := range history {
		fmt.Fprintf(o.w, "  %d: %s\n", h.Round, describeChoices(h.Choices, names))
	}
}

func (o *Output) printResultList(l response.ResultList) {
	if len(l.Results) == 0 {
		fmt.Fprintln(o.w, "No results")
		return
	}
	for _, r := range l.Results {
		fmt.Fprintf(o.w, "%s  %-8s %-9s %2d rounds  %s\n",
			r.ID, r.RoomID, r.Outcome, r.RoundsPlayed, describeScores(r.Scores))
	}
}

func (o *Output) printResult(r response.Result) {
	fmt.Fprintf(o.w, "Result: %s\n", r.ID)
	fmt.Fprintf(o.w, "Room: %s\n", r.RoomID)
	fmt.Fprintf(o.w, "Outcome: %s\n", r.Outcome)
	fmt.Fprintf(o.w, "Rounds: %d\n", r.RoundsPlayed)
	fmt.Fprintf(o.w, "Ended: %s\n", r.EndedAt.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(o.w, "Scores: %s\n", describeScores(r.Scores))

	names := make(map[string]string, len(r.Scores))
	for _, s := range r.Scores {
		names[s.PlayerID] = s.Name
	}
	if r.Winner != nil {
		fmt.Fprintf(o.w, "Winner: %s\n", nameOr(names, *r.Winner))
	} else {
		fmt.Fprintln(o.w, "Winner: tie")
	}
	o.printHistory(r.History, names)
}

func (o *Output) printEvent(msg protocol.ServerMessage) {
	switch msg.Event {
	case model.EventRoomCreated:
		created, err := msg.RoomCreated()
		if err != nil {
			break
		}
		fmt.Fprintf(o.w, "Room %s created, waiting for an opponent\n", created.RoomID)
		return

	case model.EventCreateRoomError, model.EventJoinError, model.EventChoiceError,
		model.EventNextRoundError, model.EventError:
		payload, err := msg.ErrorData()
		if err != nil {
			break
		}
		fmt.Fprintf(o.w, "%s: %s (%s)\n", msg.Event, payload.Message, payload.Code)
		return

	default:
		room, err := msg.Room()
		if err != nil {
			break
		}
		o.printRoomEvent(msg.Event, room)
		return
	}

	fmt.Fprintf(o.w, "%s: %s\n", msg.Event, string(msg.Data))
}

func (o *Output) printRoomEvent(event model.EventType, r protocol.Room) {
	names := playerNames(r.Players)
	totals := strings.Join(r.Totals(), " ")

	switch event {
	case model.EventGameStart:
		fmt.Fprintf(o.w, "Game started in room %s: %s\n", r.RoomID, strings.Join(joinNames(r.Players), " vs "))
		fmt.Fprintf(o.w, "Round %d of %d. Choose [c]ooperate or [s]teal\n", r.Round, r.RoundCap)
	case model.EventRoundEnd:
		if n := len(r.GameHistory); n > 0 {
			last := r.GameHistory[n-1]
			fmt.Fprintf(o.w, "Round %d: %s\n", last.Round, describeChoices(last.Choices, names))
		}
		fmt.Fprintf(o.w, "Scores: %s\n", totals)
		if r.Round < r.RoundCap {
			fmt.Fprintln(o.w, "[n]ext round")
		} else {
			fmt.Fprintln(o.w, "Final round played, [n] to finish")
		}
	case model.EventNewRound:
		fmt.Fprintf(o.w, "Round %d of %d. Choose [c]ooperate or [s]teal\n", r.Round, r.RoundCap)
	case model.EventGameEnd:
		fmt.Fprintf(o.w, "Game over after %d rounds. Final scores: %s\n", len(r.GameHistory), totals)
	case model.EventPlayerLeft:
		fmt.Fprintf(o.w, "Your opponent left. Final scores: %s\n", totals)
	default:
		fmt.Fprintf(o.w, "%s: room %s (%s)\n", event, r.RoomID, r.State)
	}
}

func playerNames(players []protocol.Player) map[string]string {
	names := make(map[string]string, len(players))
	for _, p := range players {
		names[p.ID] = p.Name
	}
	return names
}

func joinNames(players []protocol.Player) []string {
	names := make([]string, len(players))
	for i, p := range players {
		names[i] = p.Name
	}
	return names
}

func nameOr(names map[string]string, id string) string {
	if name, ok := names[id]; ok {
		return name
	}
	return id
}

// describeChoices renders a round's choices as "Alice steal, Bob cooperate"
func describeChoices(choices map[string]string, names map[string]string) string {
	parts := make([]string, 0, len(choices))
	for id, choice := range choices {
		parts = append(parts, nameOr(names, id)+" "+choice)
	}
	sort.Strings(parts)
	return strings.Join(parts, ", ")
}

func describeScores(scores []response.Score) string {
	parts := make([]string, len(scores))
	for i, s := range scores {
		parts[i] = fmt.Sprintf("%s=%d", s.Name, s.Score)
	}
	return strings.Join(parts, " ")
}
