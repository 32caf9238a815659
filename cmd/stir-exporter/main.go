// Command stir-exporter replays a binary state dump produced by the PINS
// STIR adapter and projects it onto the slot co-occurrence relation,
// writing CSV to stdout.
//
// Usage: stir-exporter <stir_file> <bin_file>
package main

import (
	"flag"
	"os"

	"github.com/golang/glog"

	"github.com/sws-lab/stir"
	"github.com/sws-lab/stir/export"
)

func main() {
	flag.Parse()
	defer glog.Flush()

	args := flag.Args()
	if len(args) < 2 {
		glog.Fatalf("usage: %s stir_file bin_file", os.Args[0])
	}
	stirFile, binFile := args[0], args[1]

	model := stir.MustOpenModelFile(stirFile)

	dump, err := os.Open(binFile)
	if err != nil {
		stir.Fatal(err, "failed to open state dump")
	}
	defer dump.Close()

	glog.V(1).Infof("loaded model: %d slots, %d transitions", model.NumSlots(), model.NumTransitions())

	if err := export.Run(model, dump, os.Stdout); err != nil {
		stir.Fatal(err, "failed to export co-occurrence projection")
	}
}
