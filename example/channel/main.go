package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/ucn-triumf/epics2midas-modern"
)

func main() {
	sink, records, closeRecords := epics2midas.NewChannelRecordSink("fanout", 32)
	defer closeRecords()

	go fanoutWorker("ingest", records)

	rt, err := epics2midas.Open("../../data/config.yaml", epics2midas.WithRecordSink(sink))
	if err != nil {
		log.Fatalf("open runtime: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := rt.Run(ctx); err != nil && err != context.Canceled {
		log.Fatalf("runtime error: %v", err)
	}
}

func fanoutWorker(name string, records <-chan []byte) {
	for rec := range records {
		fmt.Printf("[%s] forwarding %d byte event at %s\n", name, len(rec), time.Now().Format(time.RFC3339))
	}
}
