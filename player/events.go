package player

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"sync"

	"github.com/anisan-cli/anistream/log"
)

// observed mpv properties, keyed by observer id.
var observed = []string{"time-pos", "duration", "pause", "eof-reached", "demuxer-cache-time"}

// eventListener reads mpv's event stream on a dedicated connection and translates it into Events.
type eventListener struct {
	socketPath string
	gate       *entryGate
	handler    func(Event)

	mu        sync.Mutex
	conn      net.Conn
	listening bool
}

func newEventListener(socketPath string, gate *entryGate, handler func(Event)) *eventListener {
	return &eventListener{socketPath: socketPath, gate: gate, handler: handler}
}

// start subscribes to the observed properties and begins the read loop.
// done is closed when the loop exits.
func (el *eventListener) start(done chan<- struct{}) error {
	el.mu.Lock()
	defer el.mu.Unlock()

	if el.listening {
		return nil
	}

	conn, err := net.Dial("unix", el.socketPath)
	if err != nil {
		return fmt.Errorf("event listener connect: %w", err)
	}

	// Observers are bound to the connection that registered them.
	for i, name := range observed {
		payload, _ := json.Marshal(ipcCommand{Command: []any{"observe_property", i + 1, name}})
		if _, err := conn.Write(append(payload, '\n')); err != nil {
			conn.Close()
			return fmt.Errorf("observe %s: %w", name, err)
		}
	}

	el.conn = conn
	el.listening = true
	go el.readLoop(conn, done)

	log.Infof("mpv event listener started on %s", el.socketPath)
	return nil
}

func (el *eventListener) stop() {
	el.mu.Lock()
	defer el.mu.Unlock()

	if !el.listening {
		return
	}
	el.listening = false
	_ = el.conn.Close()
}

func (el *eventListener) readLoop(conn net.Conn, done chan<- struct{}) {
	defer close(done)

	sc := bufio.NewScanner(conn)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		el.gate.deliver(sc.Bytes(), el.handler)
	}

	el.mu.Lock()
	wasListening := el.listening
	el.listening = false
	el.mu.Unlock()

	if wasListening {
		if err := sc.Err(); err != nil {
			log.Warnf("mpv event listener: %v", err)
		}
		if el.handler != nil {
			el.handler(Exited{})
		}
	}
}

type mpvEvent struct {
	Event   string          `json:"event"`
	Name    string          `json:"name"`
	Data    json.RawMessage `json:"data"`
	Reason  string          `json:"reason"`
	Error   string          `json:"file_error"`
	EntryID int64           `json:"playlist_entry_id"`
}

const (
	// noEntry admits nothing: no media was loaded, or it was stopped.
	noEntry int64 = 0
	// anyEntry admits everything, for mpv builds whose loadfile reply carries no entry id.
	anyEntry int64 = -1
)

// entryGate drops events that belong to playlist entries other than the one
// requested by the last loadfile. Load and Unload hold mu across their IPC
// round trip, so no event of the replaced media is delivered after they return.
type entryGate struct {
	mu      sync.Mutex
	want    int64
	current int64
}

// deliver passes one event line to handler if it belongs to the wanted entry.
func (g *entryGate) deliver(line []byte, handler func(Event)) {
	var e mpvEvent
	if err := json.Unmarshal(line, &e); err != nil || e.Event == "" {
		return
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if e.Event == "start-file" {
		g.current = e.EntryID
	}
	if !g.admits(e) {
		return
	}
	if ev := translateEvent(e); ev != nil && handler != nil {
		handler(ev)
	}
}

func (g *entryGate) admits(e mpvEvent) bool {
	switch {
	case e.Event == "shutdown", g.want == anyEntry:
		return true
	case g.want == noEntry:
		return false
	case e.Event == "end-file":
		return e.EntryID == g.want
	}
	return g.current == g.want
}

// expect records the entry id a loadfile reply carried.
func (g *entryGate) expect(reply any) {
	g.want = anyEntry
	if fields, ok := reply.(map[string]any); ok {
		if id, ok := fields["playlist_entry_id"].(float64); ok && id > 0 {
			g.want = int64(id)
		}
	}
}

// translate maps one mpv event line to an Event, or nil when it is not interesting.
func translate(line []byte) Event {
	var e mpvEvent
	if err := json.Unmarshal(line, &e); err != nil || e.Event == "" {
		return nil
	}
	return translateEvent(e)
}

func translateEvent(e mpvEvent) Event {
	switch e.Event {
	case "file-loaded":
		return Ready{}
	case "end-file":
		switch e.Reason {
		case "error":
			reason := e.Error
			if reason == "" {
				reason = "playback failed"
			}
			return Failed{Reason: reason}
		case "eof":
			return Ended{}
		}
		return nil
	case "shutdown":
		return Exited{}
	case "property-change":
		return property(e.Name, e.Data)
	}
	return nil
}

func property(name string, raw json.RawMessage) Event {
	switch name {
	case "time-pos", "duration", "demuxer-cache-time":
		var v *float64
		if err := json.Unmarshal(raw, &v); err != nil || v == nil {
			return nil
		}
		switch name {
		case "time-pos":
			return TimeChanged{Position: *v}
		case "duration":
			return DurationChanged{Duration: *v}
		default:
			return BufferChanged{BufferedUntil: *v}
		}
	case "pause":
		var paused bool
		if err := json.Unmarshal(raw, &paused); err != nil {
			return nil
		}
		return PauseChanged{Paused: paused}
	case "eof-reached":
		var eof bool
		if err := json.Unmarshal(raw, &eof); err != nil || !eof {
			return nil
		}
		return Ended{}
	}
	return nil
}
