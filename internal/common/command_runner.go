package common

import (
	"context"
	"fmt"

	"talentsearch/internal/errors"
)

// ParseFunc turns the contents of the input files into a command input
type ParseFunc[In any] func(contents []string) (In, error)

// OperationFunc is the work a command does with its input
type OperationFunc[In, Out any] func(context.Context, In) (Out, error)

// DescribeFunc logs what a command is about to do. It may be nil.
type DescribeFunc[In any] func(input In, cfg CommandConfig)

// RunFileCommand reads files (StdinName for standard input), parses them
// into an input and hands over to RunCommand
func RunFileCommand[In, Out any](ctx context.Context, logger *errors.Logger, cfg CommandConfig, files []string,
	parse ParseFunc[In], op OperationFunc[In, Out], describe DescribeFunc[In]) error {
	contents, err := NewFileProcessor(logger).ValidateAndReadFiles(files...)
	if err != nil {
		return err
	}

	input, err := parse(contents)
	if err != nil {
		return fmt.Errorf("invalid input: %w", err)
	}
	return RunCommand(ctx, logger, cfg, input, op, describe)
}

// RunCommand runs op on input and writes the rendered result
func RunCommand[In, Out any](ctx context.Context, logger *errors.Logger, cfg CommandConfig, input In,
	op OperationFunc[In, Out], describe DescribeFunc[In]) error {
	if describe != nil {
		describe(input, cfg)
	}

	result, err := op(ctx, input)
	if err != nil {
		return err
	}
	return NewOutputHandler(logger).HandleOutput(result, cfg)
}
