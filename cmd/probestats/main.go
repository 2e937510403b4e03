// Copyright 2025 The Randprobe Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Command probestats exercises a randprobe.Map and reports probe-count
// statistics, the empirical check that probes per operation track
// 1/(1-alpha) for load factor alpha independently of capacity.
package main

import (
	"context"
	"fmt"
	"math"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/urfave/cli/v3"
	"gonum.org/v1/gonum/stat"

	"github.com/randprobe/randprobe"
)

func main() {
	cmd := &cli.Command{
		Name:  "probestats",
		Usage: "exercise a pseudo-random-probed hash table and report probe counts",
		Commands: []*cli.Command{
			demoCommand(),
			scalingCommand(),
		},
	}
	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func demoCommand() *cli.Command {
	return &cli.Command{
		Name:  "demo",
		Usage: "walk a small table through inserts, removals, and dumps",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "seed",
				Value: 1,
				Usage: "seed for the probe-offset shuffles",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			m := randprobe.New(0, randprobe.WithSeed(uint64(cmd.Int("seed"))))
			fmt.Printf("empty table (capacity %d):\n%s\n", m.Cap(), m.String())

			for i, k := range []string{"one", "two", "three"} {
				fmt.Printf("insert %q=%d: %v\n", k, i+1, m.Insert(k, uint64(i+1)))
			}
			fmt.Printf("table just before growth from %d buckets:\n%s\n", m.Cap(), m.String())

			for i, k := range []string{"four", "five", "six", "seven"} {
				fmt.Printf("insert %q=%d: %v\n", k, i+4, m.Insert(k, uint64(i+4)))
			}
			fmt.Printf("after growth: capacity=%d size=%d load=%.2f\n%s\n",
				m.Cap(), m.Len(), m.LoadFactor(), m.String())

			fmt.Printf("keys: %v\n", m.Keys())
			fmt.Printf("contains %q: %v\n", "seven", m.Contains("seven"))
			fmt.Printf("contains %q: %v\n", "blarg", m.Contains("blarg"))
			fmt.Printf("duplicate insert %q: %v\n", "seven", m.Insert("seven", 16))

			*m.At("four") = 27
			fmt.Printf("after writing 27 through At(%q):\n%s\n", "four", m.String())

			for _, k := range []string{"five", "six", "seven"} {
				fmt.Printf("remove %q: %v\n", k, m.Remove(k))
			}
			fmt.Printf("remove %q again: %v\n", "seven", m.Remove("seven"))
			fmt.Printf("after removals: size=%d keys=%v\n%s\n", m.Len(), m.Keys(), m.String())

			for _, k := range []string{"four", "blarg"} {
				if v, ok := m.Get(k); ok {
					fmt.Printf("get %q: %d\n", k, v)
				} else {
					fmt.Printf("get %q: absent\n", k)
				}
			}
			return nil
		},
	}
}

func scalingCommand() *cli.Command {
	return &cli.Command{
		Name:  "scaling",
		Usage: "measure probes per operation at a fixed load factor across capacities",
		Flags: []cli.Flag{
			&cli.FloatFlag{
				Name:  "load",
				Value: 0.4,
				Usage: "target load factor in (0, 1)",
			},
			&cli.IntFlag{
				Name:  "capacity",
				Value: 256,
				Usage: "smallest table capacity to measure",
			},
			&cli.IntFlag{
				Name:  "doublings",
				Value: 4,
				Usage: "number of times to double the capacity",
			},
			&cli.IntFlag{
				Name:  "seed",
				Value: 1,
				Usage: "seed for the probe-offset shuffles",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			alpha := cmd.Float("load")
			if alpha <= 0 || alpha >= 1 {
				return fmt.Errorf("load factor %v outside (0, 1)", alpha)
			}

			w := tabwriter.NewWriter(os.Stdout, 2, 0, 2, ' ', 0)
			fmt.Fprintln(w, "capacity\tentries\tinsert probes\tget probes\tremove probes\t1/(1-load)")
			for d, capacity := 0, cmd.Int("capacity"); d <= cmd.Int("doublings"); d, capacity = d+1, capacity*2 {
				ins, get, rem := measure(capacity, alpha, uint64(cmd.Int("seed"))+uint64(d))
				fmt.Fprintf(w, "%d\t%d\t%s\t%s\t%s\t%.2f\n",
					capacity, len(ins), meanStddev(ins), meanStddev(get), meanStddev(rem),
					1/(1-alpha))
			}
			return w.Flush()
		},
	}
}

// measure fills a table of the given capacity to the target load
// factor and returns the per-operation probe counts for the inserts,
// a lookup of every key, and the removal of every key. Growth is
// disabled (threshold 1) so the measured load factor stays put.
func measure(capacity int, alpha float64, seed uint64) (ins, get, rem []float64) {
	m := randprobe.New(capacity,
		randprobe.WithSeed(seed),
		randprobe.WithGrowthThreshold(1))

	n := int(alpha * float64(capacity))
	for i := 0; i < n; i++ {
		key := "key-" + strconv.Itoa(i)
		if ok, probes := m.InsertProbed(key, uint64(i)); ok {
			ins = append(ins, float64(probes))
		}
	}
	for i := 0; i < n; i++ {
		if _, ok, probes := m.GetProbed("key-" + strconv.Itoa(i)); ok {
			get = append(get, float64(probes))
		}
	}
	for i := 0; i < n; i++ {
		if ok, probes := m.RemoveProbed("key-" + strconv.Itoa(i)); ok {
			rem = append(rem, float64(probes))
		}
	}
	return ins, get, rem
}

func meanStddev(xs []float64) string {
	if len(xs) == 0 {
		return "-"
	}
	mean := stat.Mean(xs, nil)
	sd := stat.StdDev(xs, nil)
	if math.IsNaN(sd) {
		sd = 0
	}
	return fmt.Sprintf("%.2f±%.2f", mean, sd)
}
