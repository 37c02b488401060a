package main

import (
	"fmt"
	"hash"
	"hash/crc32"
	"log"
	"math"
	"time"

	"github.com/spf13/pflag"

	"github.com/FabianRolfMatthiasNoll/signalgraph/internal/patch"
)

func main() {
	patchPath := pflag.StringP("patch", "p", "", "path to a patch YAML file describing the graph")
	blocks := pflag.IntP("blocks", "b", 10_000, "number of blocks to run")
	channels := pflag.IntP("channels", "c", 2, "number of host output channels to drive")
	crc := pflag.Bool("crc", false, "print a CRC32 of the rendered output")
	pflag.Parse()

	if *patchPath == "" {
		log.Fatal("-patch is required")
	}

	cfg, err := patch.Load(*patchPath)
	if err != nil {
		log.Fatalf("load patch: %v", err)
	}

	g, _, err := patch.Build(cfg)
	if err != nil {
		log.Fatalf("build patch: %v", err)
	}

	out := make([][]float32, *channels)
	for i := range out {
		out[i] = make([]float32, cfg.MaxBlockSize)
	}

	var hasher hash.Hash32
	if *crc {
		hasher = crc32.NewIEEE()
	}
	var bits [4]byte

	start := time.Now()
	var t0 int64
	for b := 0; b < *blocks; b++ {
		g.Run(t0, nil, out)
		t0 += int64(cfg.MaxBlockSize)
		if hasher != nil {
			for _, ch := range out {
				for _, v := range ch {
					binaryLEPutFloat32(&bits, v)
					hasher.Write(bits[:])
				}
			}
		}
	}
	dur := time.Since(start)

	totalFrames := int64(*blocks) * int64(cfg.MaxBlockSize)
	seconds := float64(totalFrames) / float64(cfg.SampleRate)
	realtimeFactor := seconds / dur.Seconds()

	fmt.Printf("blocks=%d frames=%d sample_rate=%d elapsed=%s realtime_factor=%.1fx\n",
		*blocks, totalFrames, cfg.SampleRate, dur.Truncate(time.Millisecond), realtimeFactor)
	if hasher != nil {
		fmt.Printf("output_crc32=%08x\n", hasher.Sum32())
	}
}

func binaryLEPutFloat32(b *[4]byte, v float32) {
	bits := math.Float32bits(v)
	b[0] = byte(bits)
	b[1] = byte(bits >> 8)
	b[2] = byte(bits >> 16)
	b[3] = byte(bits >> 24)
}
