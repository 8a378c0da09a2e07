// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

// airwatch subscribes to an airgauge device's telemetry topics and
// pretty-prints the payloads, for manual verification against a live
// daemon.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path"
	"syscall"
	"time"

	"github.com/airgauge/airgauge/iaq"
	"github.com/airgauge/airgauge/mqttpub"
)

// CLI args
var (
	host   = flag.String("host", "localhost", "MQTT broker host")
	port   = flag.Int("port", 1883, "MQTT broker port")
	prefix = flag.String("topic-prefix", mqttpub.DefaultTopicPrefix, "topic namespace the device publishes under")
)

const divider = "------------------------------------------------------------"

func main() {
	flag.Parse()
	if *port < 1 || *port > 65535 {
		fmt.Fprintf(os.Stderr, "invalid port %d\n", *port)
		os.Exit(2)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sig
		cancel()
	}()

	fmt.Println(divider)
	fmt.Printf("airwatch: connecting to %s:%d\n", *host, *port)
	fmt.Println(divider)

	client := mqttpub.New(mqttpub.TCPConnection(*host, uint16(*port)))
	client.RegisterMessageHandler(printMessage)
	client.RegisterConnectEventHandler(func(*mqttpub.ConnectEvent) {
		fmt.Println("connected; waiting for sensor data...")
	})
	client.RegisterFatalErrorHandler(func(err error) {
		fmt.Fprintf(os.Stderr, "connection failed: %v\n", err)
		os.Exit(1)
	})

	if err := client.Start(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to start client: %v\n", err)
		os.Exit(1)
	}

	topic := *prefix + "/+"
	if err := client.Subscribe(ctx, topic); err != nil {
		if ctx.Err() != nil {
			return
		}
		fmt.Fprintf(os.Stderr, "failed to subscribe to %s: %v\n", topic, err)
		os.Exit(1)
	}
	fmt.Printf("subscribed to %s\n", topic)

	<-ctx.Done()
	fmt.Println("\ndisconnecting...")
	_ = client.Stop()
}

func printMessage(_ context.Context, msg *mqttpub.Message) bool {
	fmt.Printf("\n[%s] %s\n",
		time.Now().Format("2006-01-02 15:04:05"), msg.Topic)

	switch path.Base(msg.Topic) {
	case "data":
		printData(msg.Payload)
	case "iaq":
		printIAQ(msg.Payload)
	case "status":
		printStatus(msg.Payload)
	case "alert":
		printAlert(msg.Payload)
	default:
		fmt.Printf("  %s\n", msg.Payload)
	}
	return true
}

func printData(payload []byte) {
	var data mqttpub.DataPayload
	if err := json.Unmarshal(payload, &data); err != nil {
		fmt.Printf("  %s\n", payload)
		return
	}
	fmt.Printf("  Temperature : %8.2f degC\n", data.Temperature)
	fmt.Printf("  Humidity    : %8.2f %%RH\n", data.Humidity)
	fmt.Printf("  Pressure    : %8.2f hPa\n", data.Pressure/100)
	fmt.Printf("  Gas Resist. : %8.0f Ohms\n", data.GasResistance)
	fmt.Printf("  Gas Valid   : %t\n", data.GasValid)
}

func printIAQ(payload []byte) {
	var result mqttpub.IAQPayload
	if err := json.Unmarshal(payload, &result); err != nil {
		fmt.Printf("  %s\n", payload)
		return
	}
	level := iaq.Level(result.Level)
	score := fmt.Sprintf("%.1f [%s]", result.Score, result.Text)
	fmt.Printf("  IAQ Score   : %s\n", colored(level.Color(), score))
	fmt.Printf("  Accuracy    : %s\n", iaq.Accuracy(result.Accuracy))
	fmt.Printf("  CO2 Equiv.  : %8.0f ppm\n", result.CO2Equivalent)
	fmt.Printf("  VOC Equiv.  : %8.2f ppm\n", result.VOCEquivalent)
	fmt.Printf("  Calibrated  : %t\n", result.Calibrated)
}

func printStatus(payload []byte) {
	var status mqttpub.StatusPayload
	if err := json.Unmarshal(payload, &status); err != nil {
		fmt.Printf("  %s\n", payload)
		return
	}
	rgb := uint32(0xFF0000)
	if status.Status == mqttpub.StatusOnline {
		rgb = 0x00E400
	}
	fmt.Printf("  Status      : %s\n", colored(rgb, status.Status))
	fmt.Printf("  Client ID   : %s\n", status.ClientID)
}

func printAlert(payload []byte) {
	var event mqttpub.AlertPayload
	if err := json.Unmarshal(payload, &event); err != nil {
		fmt.Printf("  %s\n", payload)
		return
	}
	rgb := uint32(0xFF0000)
	if event.Message == "cleared" {
		rgb = 0x00E400
	}
	fmt.Printf("  Alert Type  : %s\n", event.Type)
	fmt.Printf("  Message     : %s\n", colored(rgb, event.Message))
	fmt.Printf("  Client ID   : %s\n", event.ClientID)
}

// colored wraps s in a 24-bit ANSI color, honoring the NO_COLOR convention.
func colored(rgb uint32, s string) string {
	if os.Getenv("NO_COLOR") != "" {
		return s
	}
	return fmt.Sprintf("\x1b[38;2;%d;%d;%dm%s\x1b[0m",
		rgb>>16&0xff, rgb>>8&0xff, rgb&0xff, s)
}
