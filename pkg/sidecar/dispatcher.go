package sidecar

import (
	"bufio"
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/google/uuid"
)

// Dispatcher handles exactly one command per process: it reads the
// command line, routes it and writes a single envelope.
type Dispatcher struct {
	logger    *slog.Logger
	converter *Converter
}

func NewDispatcher(logger *slog.Logger, converter *Converter) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}

	return &Dispatcher{
		logger:    logger,
		converter: converter,
	}
}

// Run returns the process exit code.
func (d *Dispatcher) Run(ctx context.Context, in io.Reader, out io.Writer) int {
	logger := d.logger.With("invocation", uuid.NewString())
	writer := newEnvelopeWriter(out)

	reader := bufio.NewReader(in)

	cmd, err := readCommand(reader)

	if err != nil {
		logger.Error("invalid command", "error", err)
		d.write(logger, writer, failure(err))

		return 1
	}

	logger.Info("received command", "action", cmd.Action)

	switch cmd.Action {
	case ActionCheckModels:
		d.write(logger, writer, CheckModels(cmd))

	case ActionConvert:
		data, err := io.ReadAll(reader)

		if err != nil {
			d.write(logger, writer, convertFailure(err))
			return 0
		}

		logger.Info("read image data", "bytes", len(data))

		d.write(logger, writer, d.converter.Convert(ContextWithLogger(ctx, logger), cmd, data))

	default:
		d.write(logger, writer, failure(&ActionError{Action: cmd.Action}))
	}

	return 0
}

func (d *Dispatcher) write(logger *slog.Logger, writer *envelopeWriter, envelope any) {
	err := writer.Write(envelope)

	if err == nil {
		return
	}

	logger.Error("failed to write response", "error", err)

	// an envelope that cannot be encoded is reported as a failure instead
	if err := writer.Write(failure(err)); err != nil {
		logger.Error("failed to write response", "error", err)
	}
}

func readCommand(reader *bufio.Reader) (*Command, error) {
	line, err := reader.ReadBytes('\n')

	if err != nil && !errors.Is(err, io.EOF) {
		return nil, &ProtocolError{Message: "No command received: " + err.Error()}
	}

	if len(line) == 0 {
		return nil, &ProtocolError{Message: "No command received"}
	}

	return ParseCommand(line)
}
