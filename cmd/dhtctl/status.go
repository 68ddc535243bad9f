package main

import (
	"fmt"
	"os"
	"time"

	"github.com/gizak/termui"
	"github.com/olekukonko/tablewriter"

	"github.com/DFriend01/dht-go/dht/wire"
)

const statusSampleInterval = 500 * time.Millisecond

// runStatusOnce sends one Ping probe and one GetPid probe and renders
// a one-shot table, using the teacher's own tablewriter dependency.
func runStatusOnce(addr string) error {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"addr", "op", "result", "latency"})

	latency, err := pingLatency(addr)
	if err != nil {
		table.Append([]string{addr, "ping", "unreachable", "-"})
	} else {
		table.Append([]string{addr, "ping", "ok", latency.String()})
	}

	reply, err := sendRequest(addr, wire.RequestPayload{Operation: wire.OpGetPid})
	if err != nil || reply.Status != wire.StatusSuccess || reply.Pid == nil {
		table.Append([]string{addr, "getpid", "unreachable", "-"})
	} else {
		table.Append([]string{addr, "getpid", fmt.Sprintf("pid=%d", *reply.Pid), "-"})
	}

	table.Render()
	return nil
}

// runStatusWatch renders a live-updating latency gauge and sparkline
// until 'q' is pressed, built on the teacher's termui/termbox pair.
func runStatusWatch(addr string) error {
	if err := termui.Init(); err != nil {
		return err
	}
	defer termui.Close()

	gauge := termui.NewGauge()
	gauge.Height = 3
	gauge.Width = 50
	gauge.BorderLabel = fmt.Sprintf("round trip to %s", addr)
	gauge.Percent = 0

	spark := termui.NewSparkline()
	spark.Title = "latency (ms)"
	spark.Data = []int{}
	sparklines := termui.NewSparklines(spark)
	sparklines.Height = 8
	sparklines.Width = 50
	sparklines.Y = 4

	termui.Render(gauge, sparklines)

	ticker := time.NewTicker(statusSampleInterval)
	defer ticker.Stop()

	samples := make([]int, 0, 64)
	evt := termui.EventCh()
	for {
		select {
		case e := <-evt:
			if e.Type == termui.EventKey && e.Ch == 'q' {
				return nil
			}
		case <-ticker.C:
			latency, err := pingLatency(addr)
			ms := 0
			if err == nil {
				ms = int(latency.Milliseconds())
				gauge.Percent = 100
				gauge.BorderLabel = fmt.Sprintf("round trip to %s: %s", addr, latency)
			} else {
				gauge.Percent = 0
				gauge.BorderLabel = fmt.Sprintf("round trip to %s: unreachable", addr)
			}
			samples = append(samples, ms)
			if len(samples) > 50 {
				samples = samples[len(samples)-50:]
			}
			spark.Data = samples
			sparklines.Lines[0] = spark
			termui.Render(gauge, sparklines)
		}
	}
}
