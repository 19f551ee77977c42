package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/ucn-triumf/epics2midas-modern/pkg/epics2midas"
)

func main() {
	sink := epics2midas.NewCallbackRecordSink("stdout", func(rec []byte) error {
		name, values, err := epics2midas.DecodeRecord(rec)
		if err != nil {
			return err
		}
		fmt.Printf("%s bank=%s values=%v\n", time.Now().Format(time.RFC3339Nano), name, values)
		return nil
	})

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
