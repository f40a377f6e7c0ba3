package cmd

import (
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"github.com/spf13/cobra"
	"github.com/tactuslabs/tactus/player"
	"github.com/tactuslabs/tactus/score"
	"github.com/tactuslabs/tactus/util"
	"github.com/tactuslabs/tactus/wire"
)

func init() {
	rootCmd.AddCommand(conductCmd)
}

var conductCmd = &cobra.Command{
	Use:   "conduct <song.bin>",
	Short: "Run the conductor",
	Long: `Run the conductor: load the song, play it locally, distribute it
to satellites that announce themselves, and broadcast transport control
and tick packets.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return conduct(args[0])
	},
}

// command is one control action pushed from the HTTP surface into the
// device loop. The loop is the only goroutine that touches the player.
type command struct {
	kind    string
	channel uint8
	reply   chan status
}

type status struct {
	Session string  `json:"session"`
	Song    string  `json:"song"`
	State   string  `json:"state"`
	Cursor  int     `json:"cursor"`
	Tick    int     `json:"tick"`
	Length  float64 `json:"songLength"`
	Muted   []uint8 `json:"muted"`
}

func conduct(songPath string) error {
	song, err := score.LoadSong(songPath)
	if err != nil {
		return err
	}
	meta := song.Metadata()
	logger.Info("song loaded",
		"path", songPath,
		"events", song.EventCount(),
		"tempo", meta.Tempo,
		"length_s", meta.SongLength,
		"instruments", meta.Instruments,
	)

	tr, err := openTransport()
	if err != nil {
		return err
	}
	handler := wire.NewHandler(tr, cfg.Channel, logger)
	defer handler.Close()

	out, closeOut := openRenderer(func(position int) {
		logger.Debug("cursor", "position", position)
	})
	defer closeOut()

	p := player.New(song, out, handler, nil, logger)

	commands := make(chan command, 16)
	sessionID := uuid.New().String()
	if cfg.HTTPAddr != "" {
		startControlServer(cfg.HTTPAddr, commands)
		logger.Info("control server listening", "addr", cfg.HTTPAddr, "session", sessionID)
	}

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)

	for {
		select {
		case <-sigs:
			logger.Info("shutting down")
			p.Pause()
			return nil
		case c := <-commands:
			applyCommand(p, c, sessionID, song)
		default:
		}

		if err := p.Update(); err != nil {
			logger.Error("playback error", "err", err)
		}

		pkt, err := handler.Read()
		if err != nil {
			// receive errors mean "no packet this iteration"
			logger.Warn("packet read failed", "err", err)
		} else if pkt != nil {
			if err := p.HandlePacket(pkt); err != nil {
				logger.Warn("packet handling failed", "type", string(pkt.Type()), "err", err)
			}
		}

		time.Sleep(time.Millisecond)
	}
}

func applyCommand(p *player.Player, c command, sessionID string, song *score.Song) {
	switch c.kind {
	case "play":
		p.Play()
	case "pause":
		p.Pause()
	case "reset":
		p.Reset()
	case "mute":
		p.ToggleMute(c.channel)
	case "status":
		s := status{
			Session: sessionID,
			Song:    filepath.Base(song.Path),
			State:   p.State().String(),
			Cursor:  p.Cursor(),
			Tick:    p.CurrentTick(),
			Length:  song.Metadata().SongLength,
		}
		muted := make(map[uint8]bool)
		for ch := uint8(0); ch < 16; ch++ {
			if p.Muted(ch) {
				muted[ch] = true
			}
		}
		s.Muted = util.SortedKeys(muted)
		c.reply <- s
	}
}

// startControlServer exposes transport control over HTTP. Handlers only
// push commands into the loop's channel, so the player stays owned by
// one goroutine.
func startControlServer(addr string, commands chan<- command) {
	push := func(kind string) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			commands <- command{kind: kind}
			w.WriteHeader(http.StatusAccepted)
		}
	}

	router := mux.NewRouter().StrictSlash(true)
	router.HandleFunc("/play", push("play")).Methods("POST")
	router.HandleFunc("/pause", push("pause")).Methods("POST")
	router.HandleFunc("/reset", push("reset")).Methods("POST")
	router.HandleFunc("/mute/{channel}", func(w http.ResponseWriter, r *http.Request) {
		ch, err := strconv.Atoi(mux.Vars(r)["channel"])
		if err != nil || ch < 0 || ch > 255 {
			http.Error(w, "bad channel", http.StatusBadRequest)
			return
		}
		commands <- command{kind: "mute", channel: uint8(ch)}
		w.WriteHeader(http.StatusAccepted)
	}).Methods("POST")
	router.HandleFunc("/status", func(w http.ResponseWriter, r *http.Request) {
		reply := make(chan status, 1)
		commands <- command{kind: "status", reply: reply}
		select {
		case s := <-reply:
			json.NewEncoder(w).Encode(s)
		case <-time.After(time.Second):
			http.Error(w, "device loop busy", http.StatusServiceUnavailable)
		}
	}).Methods("GET")

	srv := cors.Default().Handler(router)
	go func() {
		if err := http.ListenAndServe(addr, srv); err != nil {
			logger.Error("control server stopped", "err", err)
		}
	}()
}
