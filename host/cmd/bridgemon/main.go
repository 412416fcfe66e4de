// bridgemon is an interactive monitor for the bridge firmware's debug
// console: it tails the trace output, fetches counters, triggers the
// mode switch, and decodes protocol control bytes offline.
package main

import (
	"bufio"
	"bytes"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"sdbridge/host/serial"
	"sdbridge/protocol"
)

var (
	device  = flag.String("device", "/dev/ttyACM0", "Serial device path")
	baud    = flag.Int("baud", 115200, "Baud rate (ignored for USB CDC)")
	verbose = flag.Bool("verbose", false, "Echo every line received from the firmware")
)

func main() {
	flag.Parse()

	cfg := serial.DefaultConfig(*device)
	cfg.Baud = *baud

	fmt.Printf("Connecting to bridge on %s...\n", *device)
	port, err := serial.Open(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer port.Close()

	lines := make(chan string, 64)
	go readerLoop(port, lines)
	go printerLoop(lines)

	fmt.Println("Connected. Type 'help' for commands, 'quit' to exit.")
	scanner := bufio.NewScanner(os.Stdin)

	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		parts := strings.Fields(line)

		switch parts[0] {
		case "quit", "exit", "q":
			return

		case "help", "?":
			printHelp()

		case "trace":
			send(port, 't')

		case "clear":
			send(port, 'c')

		case "stats":
			send(port, 's')

		case "fileserver":
			fmt.Println("Requesting switch to file-server mode (board will reboot)")
			send(port, 'f')

		case "bridge":
			fmt.Println("Requesting switch to bridge mode (board will reboot)")
			send(port, 'b')

		case "decode":
			if len(parts) < 2 {
				fmt.Println("usage: decode <byte> [byte]")
				continue
			}
			decodeCommand(parts[1:])

		default:
			fmt.Printf("Unknown command: %s (type 'help' for available commands)\n", parts[0])
		}
	}

	if err := scanner.Err(); err != nil {
		fmt.Fprintf(os.Stderr, "Error reading input: %v\n", err)
		os.Exit(1)
	}
}

// readerLoop splits firmware output into lines.
func readerLoop(port serial.Port, out chan<- string) {
	buf := make([]byte, 256)
	var pending []byte
	for {
		n, err := port.Read(buf)
		if err != nil || n == 0 {
			continue
		}
		pending = append(pending, buf[:n]...)
		for {
			idx := bytes.IndexByte(pending, '\n')
			if idx < 0 {
				break
			}
			line := strings.TrimRight(string(pending[:idx]), "\r")
			pending = pending[idx+1:]
			if line != "" {
				out <- line
			}
		}
	}
}

// printerLoop shows trace and stat lines; everything else only when
// verbose.
func printerLoop(lines <-chan string) {
	for line := range lines {
		if *verbose || strings.HasPrefix(line, "[TRACE]") || strings.HasPrefix(line, "[STAT]") {
			fmt.Printf("\r%s\n> ", line)
		}
	}
}

func send(port serial.Port, b byte) {
	if _, err := port.Write([]byte{b}); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
}

// decodeCommand decodes one or two control bytes offline.
func decodeCommand(args []string) {
	raw := make([]byte, 0, 2)
	for _, a := range args[:min(len(args), 2)] {
		v, err := strconv.ParseUint(strings.TrimPrefix(a, "0x"), 16, 8)
		if err != nil {
			fmt.Printf("bad byte %q: %v\n", a, err)
			return
		}
		raw = append(raw, byte(v))
	}

	if len(raw) == 2 && protocol.Classify(raw[0]) == protocol.ClassLong {
		fmt.Println(protocol.DescribeLong(raw[0], raw[1]))
		return
	}
	for _, b := range raw {
		fmt.Printf("0x%02X: %s\n", b, protocol.Describe(b))
	}
}

func printHelp() {
	fmt.Println("\nAvailable commands:")
	fmt.Println("  trace              - Dump the firmware transaction trace ring")
	fmt.Println("  clear              - Clear the trace ring")
	fmt.Println("  stats              - Show card presence and bus-timeout counters")
	fmt.Println("  decode <hex> [hex] - Decode control byte(s) offline")
	fmt.Println("  fileserver         - Reboot the board into file-server mode")
	fmt.Println("  bridge             - Reboot the board into bridge mode")
	fmt.Println("  quit/exit/q        - Exit the program")
	fmt.Println()
}
