package cmd

import (
	"context"
	"fmt"
	"html/template"
	"net/http"
	"os"
	"os/signal"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	sim "github.com/inference-sim/lovehater/sim"
	"github.com/inference-sim/lovehater/sim/layout"
	"github.com/inference-sim/lovehater/sim/replay"
	"github.com/inference-sim/lovehater/sim/trace"
)

var (
	serveAddr     string        // HTTP listen address
	playInterval  time.Duration // delay between frames
	mqttBroker    string        // tcp://host:port
	mqttTopic     string
	mqttClientID  string
	mqttQoS       int
	mqttKeepAlive time.Duration
)

// resultForArgs loads the archived run named by args[0], or runs a fresh
// simulation from the run flags when no id is given.
func resultForArgs(cmd *cobra.Command, args []string) (*sim.Result, error) {
	if len(args) == 1 {
		return loadArchivedResult(cmd.Context(), args[0])
	}
	cfg, err := resolveRunConfig(cmd)
	if err != nil {
		return nil, err
	}
	return simulate(cfg, trace.TraceLevelNone), nil
}

var uiTemplate = template.Must(template.New("").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>lovehater</title></head>
<body>
<div>
<button onclick="op('first')">|&lt;</button>
<button onclick="op('prev')">&lt;</button>
<button onclick="op('play')">play</button>
<button onclick="op('pause')">pause</button>
<button onclick="op('next')">&gt;</button>
<button onclick="op('last')">&gt;|</button>
<span id="pos"></span>
</div>
<svg id="tree" width="800" height="500"></svg>
<ol id="log" style="height:240px;overflow:auto;font-family:monospace"></ol>
<script>
var ws = new WebSocket("ws://" + location.host + "{{.WSPath}}");
var logLines = [];
function op(name) { ws.send(JSON.stringify({op: name})); }
function renderLog() {
  var ol = document.getElementById("log");
  ol.innerHTML = "";
  logLines.forEach(function(line) {
    var li = document.createElement("li");
    li.textContent = line;
    ol.appendChild(li);
  });
  ol.scrollTop = ol.scrollHeight;
}
ws.onmessage = function(ev) {
  var f = JSON.parse(ev.data);
  document.getElementById("pos").textContent = f.index + " / " + (f.total - 1);
  if (f.history) {
    logLines = f.history.slice();
  } else if (f.index === 0) {
    logLines = [];
  } else if (f.index === logLines.length + 1) {
    logLines.push(f.line);
  }
  renderLog();
  var svg = document.getElementById("tree");
  svg.setAttribute("height", f.height);
  var out = "";
  var procs = f.snapshot.processes;
  for (var pid in procs) {
    var p = procs[pid], a = f.layout[pid];
    if (p.ppid && f.layout[p.ppid]) {
      var b = f.layout[p.ppid];
      out += '<line x1="'+a.x+'" y1="'+a.y+'" x2="'+b.x+'" y2="'+b.y+'" stroke="gray"/>';
    }
  }
  for (var pid in procs) {
    var p = procs[pid], a = f.layout[pid];
    var fill = p.kind === "lover" ? "#22c55e" : "#f97316";
    out += '<circle cx="'+a.x+'" cy="'+a.y+'" r="20" fill="'+fill+'"/>';
    out += '<text x="'+a.x+'" y="'+(a.y+40)+'" text-anchor="middle" font-size="12">pid: '+pid+'</text>';
  }
  svg.innerHTML = out;
};
</script>
</body>
</html>
`))

var serveCmd = &cobra.Command{
	Use:   "serve [run-id]",
	Short: "Serve websocket playback of an archived or fresh run",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		res, err := resultForArgs(cmd, args)
		if err != nil {
			logrus.Fatalf("%v", err)
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		mux := http.NewServeMux()
		mux.Handle("/ws", replay.NewHandler(res, layout.DefaultOptions(), playInterval))
		mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
			if err := uiTemplate.Execute(w, map[string]string{"WSPath": "/ws"}); err != nil {
				logrus.Warnf("render ui: %v", err)
			}
		})
		srv := &http.Server{Addr: serveAddr, Handler: mux}
		go func() {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()

		logrus.Infof("Serving %d frames (%s) on %s", len(res.Snapshots), res.Outcome, serveAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.Fatalf("serve: %v", err)
		}
	},
}

var publishCmd = &cobra.Command{
	Use:   "publish [run-id]",
	Short: "Replay frames of an archived or fresh run to an MQTT topic",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		qos, err := parseQoS(mqttQoS)
		if err != nil {
			logrus.Fatalf("%v", err)
		}
		res, err := resultForArgs(cmd, args)
		if err != nil {
			logrus.Fatalf("%v", err)
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		opts := mqtt.NewClientOptions()
		opts.AddBroker(mqttBroker)
		opts.SetClientID(mqttClientID)
		opts.SetKeepAlive(mqttKeepAlive)
		opts.OnConnectionLost = func(client mqtt.Client, err error) {
			logrus.Warnf("MQTT connection lost: %v", err)
		}
		client := mqtt.NewClient(opts)
		if token := client.Connect(); token.Wait() && token.Error() != nil {
			logrus.Fatalf("MQTT connect %s: %v", mqttBroker, token.Error())
		}
		defer client.Disconnect(250)
		logrus.Infof("Connected to broker %s, publishing %d frames on %s", mqttBroker, len(res.Snapshots), mqttTopic)

		sink := &replay.MQTTSink{Client: client, Topic: mqttTopic, QoS: qos, Timeout: 10 * time.Second}
		player := replay.NewPlayer(res, layout.DefaultOptions())
		if err := player.Play(ctx, playInterval, sink); err != nil {
			logrus.Fatalf("publish: %v", err)
		}
		fmt.Fprintf(os.Stdout, "Published %d frames to %s\n", player.Len(), mqttTopic)
	},
}

// parseQoS accepts the MQTT delivery levels 0, 1 and 2.
func parseQoS(n int) (byte, error) {
	if n < 0 || n > 2 {
		return 0, fmt.Errorf("invalid MQTT QoS %d (want 0, 1 or 2)", n)
	}
	return byte(n), nil
}

func init() {
	addRunFlags(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", ":8080", "HTTP listen address")
	serveCmd.Flags().DurationVar(&playInterval, "interval", replay.DefaultInterval, "Delay between frames during playback")

	addRunFlags(publishCmd)
	publishCmd.Flags().DurationVar(&playInterval, "interval", replay.DefaultInterval, "Delay between published frames")
	publishCmd.Flags().StringVar(&mqttBroker, "broker", "tcp://localhost:1883", "MQTT broker URL")
	publishCmd.Flags().StringVar(&mqttTopic, "topic", "lovehater/frames", "MQTT topic for frames")
	publishCmd.Flags().StringVar(&mqttClientID, "client-id", "lovehater", "MQTT client id")
	publishCmd.Flags().IntVar(&mqttQoS, "qos", 0, "MQTT QoS (0, 1, 2)")
	publishCmd.Flags().DurationVar(&mqttKeepAlive, "keep-alive", 30*time.Second, "MQTT keep-alive")

	rootCmd.AddCommand(serveCmd, publishCmd)
}
