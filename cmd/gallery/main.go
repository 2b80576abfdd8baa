// Pixicam gallery - inspect, export and delete stored captures
package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"pixicam/internal/media"
	"pixicam/internal/storage"
)

const usage = `usage: gallery [flags] <command>

commands:
  list                 list stored items
  export <id> <file>   write an item to a PNG file
  delete <id>          remove an item

flags:
`

func main() {
	storePath := flag.String("store", "pixicam.db", "Capture store file")
	category := flag.String("category", "photos", "Store category (photos or videos)")
	debugMode := flag.Bool("debug", false, "Enable debug logging")
	flag.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), usage)
		flag.PrintDefaults()
	}
	flag.Parse()

	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	logger.SetLevel(logrus.WarnLevel)
	if *debugMode {
		logger.SetLevel(logrus.DebugLevel)
	}

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	store, err := storage.Open(*storePath, logger)
	if err != nil {
		logger.WithError(err).Fatal("Cannot open store")
	}

	err = run(store, media.NewLoader(logger), *category, flag.Args())
	store.Close()
	if err != nil {
		logger.WithError(err).Error("Command failed")
		os.Exit(1)
	}
}

func run(store *storage.Store, loader *media.Loader, category string, args []string) error {
	switch cmd := args[0]; cmd {
	case "list":
		return list(store, category)
	case "export":
		if len(args) != 3 {
			return errors.New("export needs <id> <file>")
		}
		id, err := parseID(args[1])
		if err != nil {
			return err
		}
		blob, err := store.Get(category, id)
		if err != nil {
			return err
		}
		return loader.Export(blob, args[2])
	case "delete":
		if len(args) != 2 {
			return errors.New("delete needs <id>")
		}
		id, err := parseID(args[1])
		if err != nil {
			return err
		}
		return store.Delete(category, id)
	default:
		return errors.Errorf("unknown command %q", cmd)
	}
}

func parseID(s string) (uint64, error) {
	id, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, errors.Wrapf(err, "invalid id %q", s)
	}
	return id, nil
}

func list(store *storage.Store, category string) error {
	items, err := store.List(category)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tBYTES\tSIZE")
	for _, item := range items {
		size := "?"
		if frame, err := media.DecodeRGBA(item.Blob); err == nil {
			size = fmt.Sprintf("%dx%d", frame.Cols(), frame.Rows())
			frame.Close()
		}
		fmt.Fprintf(w, "%d\t%d\t%s\n", item.ID, len(item.Blob), size)
	}
	return w.Flush()
}
