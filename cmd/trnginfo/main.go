// trnginfo probes for a NEORV32 board, reports whether the TRNG peripheral
// is present in its bitstream and whether it runs in simulation mode.
package main

import (
	"flag"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/Thiagojm/neorv32_trng_go/ftdilink"
	"github.com/Thiagojm/neorv32_trng_go/simreg"
	"github.com/Thiagojm/neorv32_trng_go/trng"
	"github.com/Thiagojm/neorv32_trng_go/uartlink"
)

func main() {
	port := flag.String("port", "", "serial port of the debug bridge (auto-detect if empty)")
	baud := flag.Int("baud", 0, "baud rate (0 for the NEORV32 default)")
	usb := flag.Bool("usb", false, "talk to the bridge through raw USB (libusb) instead of the serial driver")
	sim := flag.Bool("sim", false, "probe the built-in simulated register file instead of hardware")
	flag.Parse()

	log := logrus.StandardLogger()

	if *sim {
		report(log, trng.New(simreg.New(), 0))
		return
	}

	if *usb {
		ok, devices, err := ftdilink.IsBridgeConnected()
		if err != nil {
			log.WithError(err).Fatal("USB bridge detection failed")
		}
		if !ok {
			log.Fatal("no FTDI bridge found")
		}
		for i, d := range devices {
			entry := log.WithField("device", i+1)
			if d.FriendlyName != "" {
				entry = entry.WithField("name", d.FriendlyName)
			}
			if d.DevicePath != "" {
				entry = entry.WithField("path", d.DevicePath)
			}
			entry.Info("bridge found")
		}

		sess, err := ftdilink.Open(*baud, 0)
		if err != nil {
			log.WithError(err).Fatal("opening USB bridge")
		}
		defer sess.Close()

		report(log, trng.New(sess, 0))
		if err := sess.Err(); err != nil {
			log.WithError(err).Fatal("USB link fault")
		}
		return
	}

	portName := *port
	if portName == "" {
		names, err := uartlink.ListPorts()
		if err != nil {
			log.WithError(err).Fatal("port detection failed")
		}
		if len(names) == 0 {
			log.Fatal("no NEORV32 debug bridge found; pass -port explicitly")
		}
		for _, n := range names {
			log.WithField("port", n).Info("bridge found")
		}
		portName = names[0]
	}

	link, err := uartlink.Open(portName, *baud)
	if err != nil {
		log.WithError(err).Fatal("opening serial bridge")
	}
	defer link.Close()

	report(log, trng.New(link, 0))
	if err := link.Err(); err != nil {
		log.WithError(err).Fatal("serial link fault")
	}
}

func report(log *logrus.Logger, dev *trng.Device) {
	if !dev.Available() {
		fmt.Println("TRNG: not synthesized in this bitstream")
		return
	}
	fmt.Println("TRNG: available")
	if dev.SimMode() {
		fmt.Println("mode: SIMULATION (PRNG substitute, low quality)")
		log.Warn("simulation-mode entropy is not suitable for real use")
	} else {
		fmt.Println("mode: true hardware entropy")
	}
}
