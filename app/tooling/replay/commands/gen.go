package commands

import (
	"bufio"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log"
	"math"
	"math/rand"
	"os"

	"github.com/spf13/cobra"
)

var (
	genRate    int
	genSeconds int
	genBlocks  int
	genWhale   float64
	genOut     string
	genSeed    int64
)

func init() {
	genCmd.Flags().IntVarP(&genRate, "rate", "r", 50, "Transactions per second of feed time.")
	genCmd.Flags().IntVar(&genSeconds, "seconds", 10, "Length of the capture in feed seconds.")
	genCmd.Flags().IntVar(&genBlocks, "blocks", 1, "Number of block events spread across the capture.")
	genCmd.Flags().Float64Var(&genWhale, "whale", 0.02, "Probability a transaction moves one BTC or more.")
	genCmd.Flags().StringVarP(&genOut, "out", "o", "", "File to write the capture to. Defaults to stdout.")
	genCmd.Flags().Int64Var(&genSeed, "seed", 1, "Seed for the value and size distributions.")

	rootCmd.AddCommand(genCmd)
}

// genCmd synthesizes a feed capture that the run command can replay.
var genCmd = &cobra.Command{
	Use:   "gen",
	Short: "Generate a synthetic feed capture",
	Run: func(cmd *cobra.Command, args []string) {
		if err := generate(); err != nil {
			log.Fatal(err)
		}
	},
}

// wireTx and wireBlock mirror the feed wire format.
type wireTx struct {
	ID          string  `json:"id"`
	Value       uint64  `json:"value"`
	VirtualSize float64 `json:"vsize"`
	Fee         float64 `json:"fee"`
}

type wireBlock struct {
	Height uint64 `json:"height"`
	Hash   string `json:"hash"`
}

type wireEnvelope struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

func generate() error {
	out := os.Stdout
	if genOut != "" {
		f, err := os.Create(genOut)
		if err != nil {
			return fmt.Errorf("creating capture: %w", err)
		}
		defer f.Close()
		out = f
	}

	w := bufio.NewWriter(out)
	defer w.Flush()

	rng := rand.New(rand.NewSource(genSeed))

	total := genRate * genSeconds
	blockEvery := 0
	if genBlocks > 0 {
		blockEvery = total / (genBlocks + 1)
	}

	height := uint64(800_000)
	for i := 0; i < total; i++ {
		env := wireEnvelope{
			Type: "transaction",
			Data: synthTx(rng, i),
		}
		if err := writeLine(w, env); err != nil {
			return err
		}

		if blockEvery > 0 && (i+1)%blockEvery == 0 && height < 800_000+uint64(genBlocks) {
			height++
			env := wireEnvelope{
				Type: "block",
				Data: wireBlock{
					Height: height,
					Hash:   captureID(rng, int(height)),
				},
			}
			if err := writeLine(w, env); err != nil {
				return err
			}
		}
	}

	return nil
}

// synthTx draws a transaction from a rough shape of real mempool traffic:
// values log-uniform between a few thousand sats and half a BTC, with an
// occasional whale, and fees derived from a sat/vB rate.
func synthTx(rng *rand.Rand, n int) wireTx {
	value := uint64(math.Pow(10, 3.5+rng.Float64()*4.2))
	if rng.Float64() < genWhale {
		value = uint64(math.Pow(10, 8+rng.Float64()*1.5))
	}

	vsize := 110 + rng.Float64()*1500
	feeRate := 1 + rng.ExpFloat64()*20

	return wireTx{
		ID:          captureID(rng, n),
		Value:       value,
		VirtualSize: math.Round(vsize),
		Fee:         math.Round(vsize * feeRate),
	}
}

// captureID produces a stable hex id the way a txid looks on the wire.
func captureID(rng *rand.Rand, n int) string {
	data := fmt.Sprintf("capture:%d:%d", n, rng.Int63())
	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}

func writeLine(w *bufio.Writer, env wireEnvelope) error {
	data, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("encoding line: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("writing line: %w", err)
	}
	return w.WriteByte('\n')
}
