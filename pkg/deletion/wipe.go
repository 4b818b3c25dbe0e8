package deletion

import (
	"context"
	"crypto/rand"
	"fmt"
	"io"
	"os"

	"github.com/hubvault/hubvault/internal/logger"
	"github.com/hubvault/hubvault/internal/telemetry"
)

// wipeBufferSize is the overwrite buffer. Passes stream across the file in
// chunks of this size so multi-GiB blobs wipe in bounded memory.
const wipeBufferSize = 64 * 1024

// overwriteFile performs the DoD 5220.22-M three-pass overwrite of the file
// at path: zeros, ones, then cryptographically random bytes, each pass
// spanning the whole file length and followed by an fsync.
//
// Cancellation is checked between passes only. A pass that has started
// always runs to completion: a partially overwritten blob is already
// unrecoverable, so stopping mid-pass would destroy the content without
// producing the wipe the record claims.
func overwriteFile(ctx context.Context, path string) error {
	ctx, span := telemetry.StartSpan(ctx, telemetry.SpanWipe)
	defer span.End()

	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat before wipe: %w", err)
	}
	size := info.Size()

	f, err := os.OpenFile(path, os.O_WRONLY, 0)
	if err != nil {
		return fmt.Errorf("opening for wipe: %w", err)
	}
	defer f.Close()

	passes := []struct {
		name string
		fill func(buf []byte) error
	}{
		{"zeros", fillByte(0x00)},
		{"ones", fillByte(0xFF)},
		{"random", fillRandom},
	}

	for i, pass := range passes {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("wipe canceled before pass %d: %w", i+1, err)
		}
		if err := overwritePass(f, size, pass.fill); err != nil {
			return fmt.Errorf("wipe pass %d (%s): %w", i+1, pass.name, err)
		}
		if err := f.Sync(); err != nil {
			return fmt.Errorf("syncing wipe pass %d (%s): %w", i+1, pass.name, err)
		}
		telemetry.AddEvent(ctx, "pass complete", telemetry.WipePass(i+1))
		logger.DebugCtx(ctx, "wipe pass complete",
			logger.Path(path), logger.WipePass(i+1))
	}

	return nil
}

// overwritePass writes size bytes produced by fill from the start of f.
func overwritePass(f *os.File, size int64, fill func([]byte) error) error {
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return err
	}

	buf := make([]byte, wipeBufferSize)
	remaining := size
	for remaining > 0 {
		chunk := buf
		if remaining < int64(len(buf)) {
			chunk = buf[:remaining]
		}
		if err := fill(chunk); err != nil {
			return err
		}
		n, err := f.Write(chunk)
		if err != nil {
			return err
		}
		remaining -= int64(n)
	}
	return nil
}

// fillByte returns a fill function writing a constant byte.
func fillByte(b byte) func([]byte) error {
	return func(buf []byte) error {
		for i := range buf {
			buf[i] = b
		}
		return nil
	}
}

// fillRandom fills buf from the CSPRNG.
func fillRandom(buf []byte) error {
	_, err := rand.Read(buf)
	return err
}
