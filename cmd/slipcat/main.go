package main

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/bigbag/slipkit/internal/serial"
	"github.com/bigbag/slipkit/slip"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// DefaultBaudRate is the usual rate for SLIP links over USB-serial bridges.
const DefaultBaudRate = 115200

// sendChunkSize is how much frame data goes to the port per write.
const sendChunkSize = 1024

var (
	portFlag      string
	baudFlag      int
	outFlag       string
	startByteFlag bool
	strictFlag    bool
	allFlag       bool
	timeoutFlag   time.Duration
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "slipcat",
		Short: "Encode, decode and exchange SLIP frames",
		Long: `slipcat frames byte streams with SLIP (RFC 1055) and unframes them
again: from files, pipes, or directly over a serial port.

Payloads are never interpreted; slipcat only adds and removes the
END-delimited framing with its escape sequences.`,
	}

	// Encode command
	encodeCmd := &cobra.Command{
		Use:   "encode [file]",
		Short: "SLIP-frame a file or stdin",
		Long: `Read raw bytes from a file (or stdin) and write one SLIP frame.

The payload is escaped and terminated with an END byte. With
--start-byte a redundant leading END is emitted so receivers can
resynchronize mid-stream.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runEncode,
	}
	encodeCmd.Flags().StringVarP(&outFlag, "output", "o", "", "Output file (stdout if not specified)")
	encodeCmd.Flags().BoolVar(&startByteFlag, "start-byte", false, "Emit a leading END byte")

	// Decode command
	decodeCmd := &cobra.Command{
		Use:   "decode [file]",
		Short: "Decode SLIP frames from a file or stdin",
		Long: `Read SLIP-framed bytes from a file (or stdin) and write the payload.

With --start-byte, noise before the first END byte is discarded.
Unknown escape sequences are tolerated and passed through unchanged;
--strict turns them into an error instead.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runDecode,
	}
	decodeCmd.Flags().StringVarP(&outFlag, "output", "o", "", "Output file (stdout if not specified)")
	decodeCmd.Flags().BoolVar(&startByteFlag, "start-byte", false, "Skip input up to the first END byte")
	decodeCmd.Flags().BoolVar(&strictFlag, "strict", false, "Fail on malformed escape sequences")
	decodeCmd.Flags().BoolVar(&allFlag, "all", false, "Decode every complete frame in the input")

	// Send command
	sendCmd := &cobra.Command{
		Use:   "send <file>",
		Short: "SLIP-frame a file and write it to a serial port",
		Args:  cobra.ExactArgs(1),
		RunE:  runSend,
	}
	sendCmd.Flags().StringVarP(&portFlag, "port", "p", "", "Serial port (required)")
	sendCmd.Flags().IntVarP(&baudFlag, "baud", "b", DefaultBaudRate, "Baud rate")
	sendCmd.Flags().BoolVar(&startByteFlag, "start-byte", false, "Emit a leading END byte")
	sendCmd.MarkFlagRequired("port")

	// Recv command
	recvCmd := &cobra.Command{
		Use:   "recv",
		Short: "Read one SLIP frame from a serial port and decode it",
		RunE:  runRecv,
	}
	recvCmd.Flags().StringVarP(&portFlag, "port", "p", "", "Serial port (required)")
	recvCmd.Flags().IntVarP(&baudFlag, "baud", "b", DefaultBaudRate, "Baud rate")
	recvCmd.Flags().StringVarP(&outFlag, "output", "o", "", "Output file (stdout if not specified)")
	recvCmd.Flags().BoolVar(&strictFlag, "strict", false, "Fail on malformed escape sequences")
	recvCmd.Flags().DurationVar(&timeoutFlag, "timeout", 10*time.Second, "How long to wait for a complete frame")
	recvCmd.MarkFlagRequired("port")

	// Version command
	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Show version info",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("slipcat %s\n", version)
			fmt.Printf("  commit: %s\n", commit)
			fmt.Printf("  built:  %s\n", date)
		},
	}

	// List command
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List available serial ports",
		RunE:  runList,
	}

	rootCmd.AddCommand(encodeCmd, decodeCmd, sendCmd, recvCmd, versionCmd, listCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// readInput reads the whole payload from the optional file argument or stdin.
func readInput(args []string) ([]byte, error) {
	if len(args) > 0 && args[0] != "-" {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return nil, fmt.Errorf("failed to read input file: %w", err)
		}
		return data, nil
	}

	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return nil, fmt.Errorf("failed to read stdin: %w", err)
	}
	return data, nil
}

// writeOutput writes result to the --output file or stdout.
func writeOutput(data []byte) error {
	if outFlag == "" {
		_, err := os.Stdout.Write(data)
		return err
	}
	if err := os.WriteFile(outFlag, data, 0644); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	return nil
}

func runEncode(cmd *cobra.Command, args []string) error {
	data, err := readInput(args)
	if err != nil {
		return err
	}

	var frame bytes.Buffer
	frame.Grow(len(data) + len(data)/32 + 2)
	if err := slip.EncodePacket(&frame, data, startByteFlag); err != nil {
		return fmt.Errorf("encode failed: %w", err)
	}

	if err := writeOutput(frame.Bytes()); err != nil {
		return err
	}

	if outFlag != "" {
		fmt.Printf("Encoded %d bytes into a %d byte frame\n", len(data), frame.Len())
	}
	return nil
}

func runDecode(cmd *cobra.Command, args []string) error {
	data, err := readInput(args)
	if err != nil {
		return err
	}

	if allFlag {
		return decodeAll(data)
	}

	d := slip.NewDecoder(startByteFlag)
	var out bytes.Buffer
	if err := d.DecodePacket(&out, data); err != nil {
		return decodeError(err)
	}
	if strictFlag && d.Malformed() {
		return fmt.Errorf("frame contains malformed escape sequences")
	}

	return writeOutput(out.Bytes())
}

// decodeAll extracts and decodes every complete frame in the buffer.
func decodeAll(data []byte) error {
	var payloads bytes.Buffer
	count := 0

	rest := data
	for {
		frame, remaining := slip.ReadFrame(rest)
		if frame == nil {
			break
		}
		rest = remaining

		d := slip.NewDecoder(true)
		if err := d.DecodePacket(&payloads, frame); err != nil {
			return decodeError(err)
		}
		if strictFlag && d.Malformed() {
			return fmt.Errorf("frame %d contains malformed escape sequences", count+1)
		}
		count++
	}

	if count == 0 {
		return fmt.Errorf("no complete frame found in input")
	}

	if err := writeOutput(payloads.Bytes()); err != nil {
		return err
	}
	if outFlag != "" {
		fmt.Printf("Decoded %d frame(s)\n", count)
	}
	return nil
}

// decodeError maps decoder terminal states to CLI-friendly messages.
func decodeError(err error) error {
	switch err {
	case slip.ErrNoFrameStart:
		return fmt.Errorf("no frame boundary found in input")
	case io.ErrUnexpectedEOF:
		return fmt.Errorf("input ended before the closing END byte")
	}
	return fmt.Errorf("decode failed: %w", err)
}

func runSend(cmd *cobra.Command, args []string) error {
	data, err := readInput(args)
	if err != nil {
		return err
	}

	var frame bytes.Buffer
	frame.Grow(len(data) + len(data)/32 + 2)
	if err := slip.EncodePacket(&frame, data, startByteFlag); err != nil {
		return fmt.Errorf("encode failed: %w", err)
	}

	port, err := serial.Open(portFlag, baudFlag)
	if err != nil {
		return err
	}
	defer port.Close()

	fmt.Printf("Port: %s @ %d baud\n", port.PortName(), port.BaudRate())

	bar := progressbar.NewOptions(frame.Len(),
		progressbar.OptionSetDescription("Sending"),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowBytes(true),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionThrottle(100),
		progressbar.OptionClearOnFinish(),
	)

	out := frame.Bytes()
	for off := 0; off < len(out); off += sendChunkSize {
		end := off + sendChunkSize
		if end > len(out) {
			end = len(out)
		}

		n, err := port.Write(out[off:end])
		if err != nil {
			return fmt.Errorf("write failed at byte %d: %w", off, err)
		}
		if n != end-off {
			return fmt.Errorf("write failed at byte %d: %w", off+n, io.ErrShortWrite)
		}
		bar.Add(n)
	}

	bar.Finish()
	fmt.Printf("Sent %d payload bytes as a %d byte frame\n", len(data), len(out))
	return nil
}

func runRecv(cmd *cobra.Command, args []string) error {
	port, err := serial.Open(portFlag, baudFlag)
	if err != nil {
		return err
	}
	defer port.Close()

	port.Flush()
	fmt.Fprintf(os.Stderr, "Waiting for frame on %s @ %d baud...\n", port.PortName(), port.BaudRate())

	deadline := time.Now().Add(timeoutFlag)
	var buffer []byte

	for time.Now().Before(deadline) {
		chunk := make([]byte, 256)
		n, err := port.ReadWithTimeout(chunk, 100*time.Millisecond)
		if n > 0 {
			buffer = append(buffer, chunk[:n]...)
		}
		if err != nil && n == 0 {
			continue
		}

		frame, _ := slip.ReadFrame(buffer)
		if frame == nil {
			continue
		}

		d := slip.NewDecoder(true)
		var out bytes.Buffer
		if err := d.DecodePacket(&out, frame); err != nil {
			return decodeError(err)
		}
		if strictFlag && d.Malformed() {
			return fmt.Errorf("frame contains malformed escape sequences")
		}

		return writeOutput(out.Bytes())
	}

	return fmt.Errorf("timeout waiting for a complete frame")
}

func runList(cmd *cobra.Command, args []string) error {
	ports, err := serial.ListPorts()
	if err != nil {
		return err
	}

	if len(ports) == 0 {
		fmt.Println("No serial ports found")
		return nil
	}

	fmt.Println("Available serial ports:")
	for _, p := range ports {
		fmt.Printf("  %s\n", p)
	}

	return nil
}
