// trngread pulls random bits from the TRNG and prints them as hex, either
// once or at a fixed interval.
package main

import (
	"context"
	"encoding/hex"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Thiagojm/neorv32_trng_go/ftdilink"
	"github.com/Thiagojm/neorv32_trng_go/simreg"
	"github.com/Thiagojm/neorv32_trng_go/trng"
	"github.com/Thiagojm/neorv32_trng_go/uartlink"
)

func main() {
	bits := flag.Int("bits", 1024, "number of bits to read per batch")
	interval := flag.Duration("interval", 0, "interval between reads (e.g. 2s). 0 for one-shot")
	timeout := flag.Duration("timeout", 10*time.Second, "per-batch read timeout")
	port := flag.String("port", "", "serial port of the debug bridge (auto-detect if empty)")
	baud := flag.Int("baud", 0, "baud rate (0 for the NEORV32 default)")
	usb := flag.Bool("usb", false, "talk to the bridge through raw USB (libusb) instead of the serial driver")
	simFlag := flag.Bool("sim", false, "read from the built-in simulated register file")
	flag.Parse()

	log := logrus.StandardLogger()

	var bus trng.Bus
	linkErr := func() error { return nil }
	switch {
	case *simFlag:
		bus = simreg.New()
	case *usb:
		sess, err := ftdilink.Open(*baud, 0)
		if err != nil {
			log.WithError(err).Fatal("opening USB bridge")
		}
		defer sess.Close()
		bus = sess
		linkErr = sess.Err
	default:
		portName := *port
		if portName == "" {
			var err error
			portName, err = uartlink.FindPort()
			if err != nil {
				log.WithError(err).Fatal("no debug bridge found; pass -port explicitly")
			}
		}
		link, err := uartlink.Open(portName, *baud)
		if err != nil {
			log.WithError(err).Fatal("opening serial bridge")
		}
		defer link.Close()
		bus = link
		linkErr = link.Err
	}

	dev := trng.New(bus, 0)
	if !dev.Available() {
		log.Fatal("TRNG not synthesized in this bitstream")
	}
	if dev.SimMode() {
		log.Warn("TRNG runs in simulation mode; data is a PRNG substitute")
	}

	dev.Enable()
	defer dev.Disable()

	if *interval == 0 {
		ctx, cancel := context.WithTimeout(context.Background(), *timeout)
		defer cancel()
		data, err := dev.ReadBits(ctx, *bits)
		if err != nil {
			log.WithError(err).Fatal("read failed")
		}
		if err := linkErr(); err != nil {
			log.WithError(err).Fatal("link fault")
		}
		fmt.Printf("read %d bits (%d bytes)\n", *bits, len(data))
		fmt.Printf("%s\n", hex.EncodeToString(data))
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	log.WithField("bits", *bits).WithField("interval", interval.String()).
		Info("reading; press Ctrl+C to stop")
	err := dev.CollectBitsAtInterval(ctx, *bits, *interval, func(b []byte) {
		fmt.Printf("%s  %d bits  %s\n", time.Now().Format(time.RFC3339), *bits, hex.EncodeToString(b))
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		log.WithError(err).Fatal("collect failed")
	}
	if err := linkErr(); err != nil {
		log.WithError(err).Fatal("link fault")
	}
}
