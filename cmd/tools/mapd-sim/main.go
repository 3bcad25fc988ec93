// Command mapd-sim stands in for the map renderer and navigation daemon so
// navmodeld can run on a development machine.
//
// It serves synthetic 256x256 map frames on the navd vision stream, publishes
// navInstruction events on the bus and, with -watch, logs the navModel events
// navmodeld sends back.
//
// Usage:
//
//	go run ./cmd/tools/mapd-sim [flags]
//
// Flags:
//
//	-vision-dir  Directory for the vision socket (default: /tmp)
//	-bus-dir     Directory for bus sockets (default: /tmp/navbus)
//	-params-dir  Params directory; when set the readiness flag is written there
//	-rate        Frame rate in Hz (default: 20)
//	-invalid     Publish navInstruction events marked invalid
//	-watch       Log navModel events
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/banshee-data/navmodel/internal/config"
	"github.com/banshee-data/navmodel/internal/messaging"
	"github.com/banshee-data/navmodel/internal/messaging/bridge"
	"github.com/banshee-data/navmodel/internal/params"
	"github.com/banshee-data/navmodel/internal/timeutil"
	"github.com/banshee-data/navmodel/internal/visionipc"
)

const (
	frameSide = 256
	lumaSize  = frameSide * frameSide
)

func main() {
	defaults := config.Default()
	visionDir := flag.String("vision-dir", defaults.GetVisionDir(), "Directory for the vision socket")
	visionName := flag.String("vision-name", defaults.GetVisionName(), "Vision server name")
	busDir := flag.String("bus-dir", defaults.GetBusDir(), "Directory for bus sockets")
	paramsDir := flag.String("params-dir", "", "Params directory; when set the readiness flag is written there")
	readinessKey := flag.String("readiness-key", defaults.GetReadinessKey(), "Readiness param key")
	rate := flag.Float64("rate", 20, "Frame rate in Hz")
	instructionRate := flag.Float64("instruction-rate", 1, "navInstruction rate in Hz")
	invalid := flag.Bool("invalid", false, "Publish navInstruction events marked invalid")
	watch := flag.Bool("watch", false, "Log navModel events")
	flag.Parse()

	if *rate <= 0 || *instructionRate <= 0 {
		log.Fatalf("rates must be positive")
	}

	if *paramsDir != "" {
		if err := params.New(nil, *paramsDir).PutBool(*readinessKey, true); err != nil {
			log.Fatalf("Failed to write %s: %v", *readinessKey, err)
		}
		log.Printf("Set %s in %s", *readinessKey, *paramsDir)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	clock := timeutil.RealClock{}
	info := visionipc.BufferInfo{
		Len:      lumaSize * 3 / 2,
		Width:    frameSide,
		Height:   frameSide,
		Stride:   frameSide,
		UVOffset: lumaSize,
	}
	vsrv := visionipc.NewServer(*visionDir, *visionName, visionipc.StreamMap, info)
	if err := vsrv.Start(); err != nil {
		log.Fatalf("Failed to start vision server: %v", err)
	}
	defer vsrv.Close()
	log.Printf("Serving map frames on %s at %.1f Hz", vsrv.Path(), *rate)

	hub := messaging.NewHub(clock)
	defer hub.Close()
	bsrv := bridge.NewServer(hub, bridge.DefaultConfig())
	defer bsrv.Stop()
	sock := bridge.SocketPath(*busDir, messaging.NavInstructionTopic)
	go func() {
		if err := bsrv.Serve(sock); err != nil {
			log.Printf("Bus server failed: %v", err)
		}
	}()
	log.Printf("Publishing navInstruction on %s", sock)

	if *watch {
		target := bridge.Target(bridge.SocketPath(*busDir, messaging.NavModelTopic))
		go func() {
			err := bridge.Watch(ctx, target, messaging.NavModelTopic, logNavModel)
			if err != nil {
				log.Printf("navModel watch stopped: %v", err)
			}
		}()
	}

	frameTicker := time.NewTicker(time.Duration(float64(time.Second) / *rate))
	defer frameTicker.Stop()
	instrTicker := time.NewTicker(time.Duration(float64(time.Second) / *instructionRate))
	defer instrTicker.Stop()

	data := make([]byte, info.Len)
	var frameID uint32
	for {
		select {
		case <-ctx.Done():
			log.Printf("Shutting down after %d frames", frameID)
			return
		case <-instrTicker.C:
			ev := &messaging.Event{
				Valid:          !*invalid,
				NavInstruction: instruction(frameID),
			}
			if err := hub.Publish(messaging.NavInstructionTopic, ev); err != nil {
				log.Printf("Failed to publish navInstruction: %v", err)
			}
		case <-frameTicker.C:
			render(data, frameID)
			f := &visionipc.Frame{
				FrameID:      frameID,
				TimestampSof: clock.MonoNanos(),
				Valid:        true,
				Width:        info.Width,
				Height:       info.Height,
				Stride:       info.Stride,
				UVOffset:     info.UVOffset,
				Data:         data,
			}
			f.TimestampEof = f.TimestampSof
			if err := vsrv.Send(f); err != nil {
				log.Printf("Failed to send frame %d: %v", frameID, err)
			}
			frameID++
		}
	}
}

// render draws a road stripe that drifts sideways over a dark background. The
// chroma plane is left neutral.
func render(data []byte, frameID uint32) {
	offset := int(frameID % frameSide)
	for y := 0; y < frameSide; y++ {
		row := data[y*frameSide : (y+1)*frameSide]
		centre := (frameSide/2 + (offset+y)/4) % frameSide
		for x := range row {
			d := x - centre
			if d < 0 {
				d = -d
			}
			if d < 6 {
				row[x] = 0xff
			} else {
				row[x] = 0x20
			}
		}
	}
	for i := range data[lumaSize:] {
		data[lumaSize+i] = 0x80
	}
}

func instruction(n uint32) *messaging.NavInstructionData {
	remaining := float32(1000 - n%1000)
	return &messaging.NavInstructionData{
		ManeuverPrimaryText: "Main Street",
		ManeuverType:        "turn",
		ManeuverDistance:    remaining / 10,
		DistanceRemaining:   remaining,
		TimeRemaining:       remaining / 13.9,
		SpeedLimit:          13.9,
	}
}

func logNavModel(ev *messaging.Event) error {
	m := ev.NavModel
	if m == nil {
		return nil
	}
	log.Printf("navModel frame=%d valid=%v model=%.2fms dsp=%.2fms x[32]=%.3f ystd[0]=%.3f",
		m.FrameID, ev.Valid, m.ModelExecutionTime*1e3, m.DspExecutionTime*1e3,
		m.Position.X[messaging.TrajectorySize-1], m.Position.YStd[0])
	return nil
}
