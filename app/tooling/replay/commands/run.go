package commands

import (
	"bufio"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/tumigisla/zenpool/foundation/feed"
	"github.com/tumigisla/zenpool/foundation/pulse/state"
	"github.com/tumigisla/zenpool/foundation/pulse/tone"
)

var (
	runFile     string
	runInterval time.Duration
	runSpeed    float64
	runPreset   string
	runSeed     int64
)

func init() {
	runCmd.Flags().StringVarP(&runFile, "file", "f", "", "Path to the feed capture, one raw message per line.")
	runCmd.Flags().DurationVarP(&runInterval, "interval", "i", 20*time.Millisecond, "Inter-arrival time between messages.")
	runCmd.Flags().Float64VarP(&runSpeed, "speed", "s", 1, "Replay speed multiplier applied to the interval.")
	runCmd.Flags().StringVar(&runPreset, "preset", "ambient", "Admission preset to replay against.")
	runCmd.Flags().Int64Var(&runSeed, "seed", 1, "Seed for the jitter and shedding randomness.")
	runCmd.MarkFlagRequired("file")

	rootCmd.AddCommand(runCmd)
}

// runCmd replays a capture through a session and prints what came out.
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Replay a feed capture through an engine session",
	Run: func(cmd *cobra.Command, args []string) {
		if err := replay(); err != nil {
			log.Fatal(err)
		}
	},
}

func replay() error {
	f, err := os.Open(runFile)
	if err != nil {
		return fmt.Errorf("opening capture: %w", err)
	}
	defer f.Close()

	session, err := state.New(state.Config{
		AdmitPreset: runPreset,
		Seed:        runSeed,
	})
	if err != nil {
		return fmt.Errorf("constructing session: %w", err)
	}

	var sounds, strikes int
	session.OnSound(func(tone.Sound) {
		sounds++
	})
	session.OnStrike(func(tone.Strike) {
		strikes++
	})

	// The replay runs on a synthetic clock so results don't depend on wall
	// time: each message advances the clock by the scaled interval, and the
	// periodic ticks fire at the same cadence the worker would drive them.
	if runSpeed <= 0 {
		runSpeed = 1
	}
	step := time.Duration(float64(runInterval) / runSpeed)
	clock := time.Date(2023, time.January, 1, 0, 0, 0, 0, time.UTC)
	lastStress := clock
	lastFrame := clock

	scanner := bufio.NewScanner(f)
	lines := 0
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		lines++

		msg, err := feed.Decode(line, clock)
		if err != nil {
			session.RecordMalformed()
		} else {
			switch msg.Kind {
			case feed.KindTransaction:
				session.SubmitTransaction(msg.Tx)
			case feed.KindBlock:
				session.SubmitBlock(msg.Block)
			}
		}

		clock = clock.Add(step)
		for !lastStress.Add(250 * time.Millisecond).After(clock) {
			lastStress = lastStress.Add(250 * time.Millisecond)
			session.TickStress(lastStress)
		}
		for !lastFrame.Add(33 * time.Millisecond).After(clock) {
			lastFrame = lastFrame.Add(33 * time.Millisecond)
			session.TickSim(lastFrame)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading capture: %w", err)
	}

	c := session.Counters()
	particles, _, _ := session.Particles()

	fmt.Printf("replayed  %d lines\n", lines)
	fmt.Printf("seen      %d\n", c.Seen)
	fmt.Printf("admitted  %d\n", c.Admitted)
	fmt.Printf("rejected  %d\n", c.Rejected)
	fmt.Printf("malformed %d\n", c.Malformed)
	fmt.Printf("blocks    %d\n", c.Blocks)
	fmt.Printf("sounds    %d, strikes %d\n", sounds, strikes)
	fmt.Printf("congestion %.3f, %d live particles\n", session.Congestion(), len(particles))

	return nil
}
