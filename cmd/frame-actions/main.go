// Command frame-actions builds the per-frame action table used to label
// egocentric examples from the dataset's annotation CSVs.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/minhpvo/ORB-SLAM2/internal/egodata/l5examples"
	"github.com/minhpvo/ORB-SLAM2/internal/fsutil"
	"github.com/minhpvo/ORB-SLAM2/internal/monitoring"
	"github.com/minhpvo/ORB-SLAM2/internal/version"
)

var (
	framesInfo  = flag.String("frames-info", "video_frames_info.csv", "CSV of video ids and num_frames")
	labels      = flag.String("labels", "EPIC_100_train.csv", "action annotation CSV")
	out         = flag.String("out", "frame_action.json", "output JSON path")
	showVersion = flag.Bool("version", false, "print version and exit")
)

// build reads both CSVs and writes the table to outPath.
func build(fsys fsutil.FileSystem, infoPath, labelsPath, outPath string) (*l5examples.FrameActionTable, error) {
	info, err := fsys.Open(infoPath)
	if err != nil {
		return nil, fmt.Errorf("open frames info: %w", err)
	}
	defer info.Close()
	lab, err := fsys.Open(labelsPath)
	if err != nil {
		return nil, fmt.Errorf("open labels: %w", err)
	}
	defer lab.Close()

	table, err := l5examples.LoadAnnotationsCSV(info, lab)
	if err != nil {
		return nil, err
	}
	if err := l5examples.SaveFrameActions(fsys, outPath, table); err != nil {
		return nil, err
	}
	return table, nil
}

func main() {
	flag.Parse()
	if *showVersion {
		fmt.Println("frame-actions", version.String())
		return
	}
	monitoring.SetLogger(log.Printf)

	table, err := build(fsutil.OSFileSystem{}, *framesInfo, *labels, *out)
	if err != nil {
		log.Printf("frame-actions: %v", err)
		os.Exit(1)
	}
	fmt.Printf("wrote %d videos to %s\n", len(table.Videos()), *out)
}
