// Package posegrid turns recorded pose-estimation sequences into fixed-size
// matrices for image-style machine learning models.
//
// Keypoint coordinates are read from XML exports, cleaned of noise frames and
// short detection gaps, drawn onto a small intensity grid and collected into a
// labeled dataset, one label per class folder. Built datasets are cached on
// disk keyed by the configuration that produced them.
//
// # Installation
//
//	go get github.com/YuminosukeSato/posegrid
//
// # Quick Start
//
//	package main
//
//	import (
//	    "fmt"
//	    "log"
//
//	    "github.com/YuminosukeSato/posegrid/cache"
//	    "github.com/YuminosukeSato/posegrid/config"
//	    "github.com/YuminosukeSato/posegrid/partition"
//	)
//
//	func main() {
//	    cfg, err := config.Load("posegrid.yaml")
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//
//	    // Built on the first run, read from disk afterwards
//	    ds, err := cache.New(cfg.Paths.CacheRootPath).LoadOrBuild(cfg)
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//
//	    p, err := partition.Split(ds, partition.Ratios{Train: 0.8, ValidationShare: 0.5})
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    X := p.Train.Flatten() // n × (rows·cols)
//	    y := p.Train.Labels()
//	    fmt.Println(X.Dims())
//	    fmt.Println(len(y))
//	}
//
// # Directory layout
//
//	xml_files/
//	    sit/    take1.xml take2.xml
//	    stand/  take1.xml
//
// Class folders are sorted by name; the position in that order is the label.
//
// # Packages
//
//   - keypoint: keypoint sets, frames and the XML parser
//   - conditioner: noise-frame trimming and gap interpolation
//   - preprocessing: coordinate normalization
//   - raster: frame rasterization and dilation
//   - dataset: class-folder walking and dataset assembly
//   - cache: configuration-keyed dataset storage
//   - partition: train/validation/test views
//   - preview: heat-map images of frames
//   - config: YAML configuration
//   - core/parallel: bounded worker fan-out
//   - pkg/errors, pkg/log: error types and structured logging
//
// The posegrid command wires these together:
//
//	posegrid -config posegrid.yaml -preview-dir previews
package posegrid
