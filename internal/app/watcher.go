package app

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	fsw "github.com/corey/decipher/internal/adapters/fsnotify"
	"github.com/corey/decipher/internal/domain/corpus"
	"github.com/corey/decipher/internal/ports"
)

func newFSWatcher() (ports.Watcher, error) {
	return fsw.NewWatcher()
}

// ReadCiphertext reads a ciphertext verbatim except for trailing line
// breaks, which editors and shells append.
func ReadCiphertext(r io.Reader) ([]rune, error) {
	b, err := io.ReadAll(bufio.NewReader(r))
	if err != nil {
		return nil, fmt.Errorf("read ciphertext: %w", err)
	}
	return []rune(strings.TrimRight(string(b), "\r\n")), nil
}

// ReadPlaintext reads a known plaintext and prepares it the way Encrypt
// prepares messages, so it lines up with decoder output.
func (a *App) ReadPlaintext(r io.Reader) ([]rune, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read plaintext: %w", err)
	}
	return corpus.Prepare(string(b), a.alpha), nil
}

// WatchRequest names the files a watch session decodes from.
type WatchRequest struct {
	CipherPath    string
	CorpusPath    string
	PlaintextPath string // optional
	Mode          string
	NGram         int
	Cribs         []string
}

// Watch decodes once, then again every time one of the request's files
// changes, until ctx is cancelled. Decodes run one at a time on the
// calling goroutine; changes arriving during a decode collapse into one
// follow-up run. onResult sees every outcome, including failures.
func (a *App) Watch(ctx context.Context, req WatchRequest, onResult func(*Outcome, error)) error {
	if req.CorpusPath == "" {
		return ErrNoCorpus
	}
	files := []string{req.CipherPath, req.CorpusPath}
	if req.PlaintextPath != "" {
		files = append(files, req.PlaintextPath)
	}
	corpusAbs, err := filepath.Abs(req.CorpusPath)
	if err != nil {
		return err
	}

	w, err := a.newWatch()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer w.Stop()

	trigger := make(chan string, 1)
	err = w.Watch(files, func(path string) {
		if path == corpusAbs {
			a.Invalidate(path)
		}
		select {
		case trigger <- path:
		default:
		}
	})
	if err != nil {
		return fmt.Errorf("watch inputs: %w", err)
	}
	a.log.Info("watching", "files", files)

	onResult(a.decodeFiles(req))
	for {
		select {
		case <-ctx.Done():
			a.log.Info("watch stopped")
			return nil
		case path := <-trigger:
			a.log.Info("input changed", "path", path)
			onResult(a.decodeFiles(req))
		}
	}
}

// decodeFiles reads the request's files and decodes.
func (a *App) decodeFiles(req WatchRequest) (*Outcome, error) {
	f, err := os.Open(req.CipherPath)
	if err != nil {
		return nil, fmt.Errorf("open ciphertext: %w", err)
	}
	ct, err := ReadCiphertext(f)
	f.Close()
	if err != nil {
		return nil, err
	}

	var plain []rune
	if req.PlaintextPath != "" {
		pf, err := os.Open(req.PlaintextPath)
		if err != nil {
			return nil, fmt.Errorf("open plaintext: %w", err)
		}
		plain, err = a.ReadPlaintext(pf)
		pf.Close()
		if err != nil {
			return nil, err
		}
	}
	return a.Decode(DecodeRequest{
		Ciphertext: ct,
		CorpusPath: req.CorpusPath,
		Plaintext:  plain,
		Mode:       req.Mode,
		NGram:      req.NGram,
		Cribs:      req.Cribs,
	})
}
