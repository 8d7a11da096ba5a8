// collect samples an entropy source at a fixed cadence and writes each
// batch to a raw .bin file plus a .csv of per-sample ones counts, named by
// the capture convention so the analysis tools can interpret them later.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Thiagojm/neorv32_trng_go/bitstat"
	"github.com/Thiagojm/neorv32_trng_go/ftdilink"
	"github.com/Thiagojm/neorv32_trng_go/naming"
	"github.com/Thiagojm/neorv32_trng_go/pseudorng"
	"github.com/Thiagojm/neorv32_trng_go/simreg"
	"github.com/Thiagojm/neorv32_trng_go/trng"
	"github.com/Thiagojm/neorv32_trng_go/uartlink"
)

func main() {
	bitsFlag := flag.Int("bits", 2048, "number of bits per batch (required > 0)")
	intervalSec := flag.Int("interval", 1, "interval between batches in seconds (required > 0)")
	deviceFlag := flag.String("device", "trng", "entropy source: trng|sim|pseudo")
	port := flag.String("port", "", "serial port of the debug bridge (auto-detect if empty)")
	baud := flag.Int("baud", 0, "baud rate (0 for the NEORV32 default)")
	usb := flag.Bool("usb", false, "talk to the bridge through raw USB (libusb) instead of the serial driver")
	outDir := flag.String("outdir", "data", "output directory for files")
	flag.Parse()

	log := logrus.StandardLogger()

	if *bitsFlag <= 0 {
		log.Fatal("-bits must be > 0")
	}
	if *intervalSec <= 0 {
		log.Fatal("-interval must be > 0")
	}

	dev := naming.Device(*deviceFlag)
	if err := dev.Validate(); err != nil {
		log.WithError(err).Fatal("invalid -device")
	}

	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		log.WithError(err).Fatal("creating outdir")
	}

	startTime := time.Now()
	binPath, csvPath, err := naming.BuildBinCSVPaths(*outDir, startTime, dev, *bitsFlag, *intervalSec)
	if err != nil {
		log.WithError(err).Fatal("building file names")
	}

	binFile, err := os.OpenFile(binPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		log.WithError(err).Fatal("opening bin file")
	}
	defer func() { _ = binFile.Close() }()
	binBuf := bufio.NewWriter(binFile)
	defer binBuf.Flush()

	csvFile, err := os.OpenFile(csvPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		log.WithError(err).Fatal("opening csv file")
	}
	defer func() { _ = csvFile.Close() }()
	csvBuf := bufio.NewWriter(csvFile)
	defer csvBuf.Flush()

	bitCount := *bitsFlag
	var readBits func(context.Context) ([]byte, error)
	var linkErr func() error = func() error { return nil }

	switch dev {
	case naming.DevicePseudo:
		src, serr := pseudorng.New(0)
		if serr != nil {
			log.WithError(serr).Fatal("seeding pseudorng")
		}
		readBits = func(context.Context) ([]byte, error) {
			return src.ReadBits(bitCount)
		}

	case naming.DeviceSim:
		hw := trng.New(simreg.New(), 0)
		hw.Enable()
		defer hw.Disable()
		readBits = func(ctx context.Context) ([]byte, error) {
			return hw.ReadBits(ctx, bitCount)
		}

	case naming.DeviceTRNG:
		var bus trng.Bus
		if *usb {
			sess, oerr := ftdilink.Open(*baud, 0)
			if oerr != nil {
				log.WithError(oerr).Fatal("opening USB bridge (is libusb available?)")
			}
			defer sess.Close()
			bus = sess
			linkErr = sess.Err
		} else {
			portName := *port
			if portName == "" {
				portName, err = uartlink.FindPort()
				if err != nil {
					log.WithError(err).Fatal("no debug bridge found; pass -port explicitly")
				}
			}
			link, oerr := uartlink.Open(portName, *baud)
			if oerr != nil {
				log.WithError(oerr).Fatal("opening serial bridge")
			}
			defer link.Close()
			bus = link
			linkErr = link.Err
		}

		hw := trng.New(bus, 0)
		if !hw.Available() {
			if err := linkErr(); err != nil {
				log.WithError(err).Fatal("link fault while probing TRNG")
			}
			log.Fatal("TRNG not synthesized in this bitstream")
		}
		if hw.SimMode() {
			log.Warn("TRNG runs in simulation mode; data is a PRNG substitute")
		}
		hw.Enable()
		defer hw.Disable()
		readBits = func(ctx context.Context) ([]byte, error) {
			return hw.ReadBits(ctx, bitCount)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	interval := time.Duration(*intervalSec) * time.Second
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	log.WithFields(logrus.Fields{
		"bits":     bitCount,
		"interval": interval.String(),
		"device":   string(dev),
		"bin":      binPath,
		"csv":      csvPath,
	}).Info("collecting")

	sampleNum := 0
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		batch, rerr := readBits(ctx)
		if rerr != nil {
			if !errors.Is(rerr, context.Canceled) {
				log.WithError(rerr).Error("read failed")
			}
			return
		}
		if err := linkErr(); err != nil {
			log.WithError(err).Error("link fault")
			return
		}

		if _, werr := binBuf.Write(batch); werr != nil {
			log.WithError(werr).Fatal("writing bin")
		}
		_ = binBuf.Flush()

		ones := bitstat.CountOnes(batch, bitCount)
		sampleNum++
		ts := time.Now().Format("20060102T15:04:05")
		if _, werr := fmt.Fprintf(csvBuf, "%s,%d\n", ts, ones); werr != nil {
			log.WithError(werr).Fatal("writing csv")
		}
		_ = csvBuf.Flush()

		log.WithFields(logrus.Fields{
			"sample": sampleNum,
			"ones":   ones,
			"bits":   bitCount,
		}).Info("sample")

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
