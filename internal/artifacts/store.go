// Package artifacts persists what the deployer produces and the client consumes:
// one {address, interface descriptor} pair per game and one record per run.
package artifacts

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/compose-network/monad-arcade/internal/games"
	"github.com/compose-network/monad-arcade/internal/logger"
	"github.com/ethereum/go-ethereum/common"
)

type (
	// Descriptor is a deployed game as the client sees it.
	Descriptor struct {
		Name    games.Name
		Address common.Address
		// Document is the full interface descriptor file; ABI is its "abi" member.
		Document json.RawMessage
		ABI      json.RawMessage
	}

	// Record is the machine-readable result of one deployment run.
	Record struct {
		Network   string                `json:"network"`
		ChainID   uint64                `json:"chainId"`
		Deployer  string                `json:"deployer"`
		Timestamp time.Time             `json:"timestamp"`
		RunID     string                `json:"runId,omitempty"`
		Contracts map[games.Name]string `json:"contracts"`
	}

	addressFile struct {
		Address string `json:"address"`
	}

	descriptorFile struct {
		ABI json.RawMessage `json:"abi"`
	}

	Store struct {
		dir    string
		reader Reader
		writer Writer
		logger *slog.Logger
	}
)

func NewStore(dir string) *Store {
	return &Store{
		dir:    dir,
		reader: jsonFiles{},
		writer: jsonFiles{},
		logger: logger.Named("artifact_store"),
	}
}

func (s *Store) Dir() string {
	return s.dir
}

func (s *Store) addressPath(name games.Name) string {
	return filepath.Join(s.dir, fmt.Sprintf("%s-address.json", name))
}

func (s *Store) descriptorPath(name games.Name) string {
	return filepath.Join(s.dir, fmt.Sprintf("%s.json", name))
}

// Save writes the descriptor document first and the address last, so a
// reader never sees an address without its interface.
func (s *Store) Save(name games.Name, address common.Address, document json.RawMessage) error {
	if address == (common.Address{}) {
		return fmt.Errorf("refusing to store zero address for %s", name)
	}

	if err := s.writer.WriteBytes(s.descriptorPath(name), indent(document)); err != nil {
		return fmt.Errorf("failed to write descriptor for %s: %w", name, err)
	}

	if err := s.writer.WriteJSON(s.addressPath(name), addressFile{Address: address.Hex()}); err != nil {
		return fmt.Errorf("failed to write address for %s: %w", name, err)
	}

	s.logger.
		With("contract", name).
		With("address", address.Hex()).
		With("dir", s.dir).
		Debug("contract artifacts saved")

	return nil
}

func (s *Store) Load(name games.Name) (Descriptor, error) {
	var addr addressFile
	if err := s.reader.ReadJSON(s.addressPath(name), &addr); err != nil {
		return Descriptor{}, fmt.Errorf("failed to read address for %s: %w", name, err)
	}

	if !common.IsHexAddress(addr.Address) {
		return Descriptor{}, fmt.Errorf("invalid address %q for %s", addr.Address, name)
	}

	document, err := s.reader.ReadBytes(s.descriptorPath(name))
	if err != nil {
		return Descriptor{}, fmt.Errorf("failed to read descriptor for %s: %w", name, err)
	}

	var desc descriptorFile
	if err := json.Unmarshal(document, &desc); err != nil {
		return Descriptor{}, fmt.Errorf("failed to parse descriptor for %s: %w", name, err)
	}
	if len(desc.ABI) == 0 {
		return Descriptor{}, fmt.Errorf("descriptor for %s has no abi", name)
	}

	return Descriptor{
		Name:     name,
		Address:  common.HexToAddress(addr.Address),
		Document: document,
		ABI:      desc.ABI,
	}, nil
}

// LoadAll returns every game whose artifacts load; the rest are logged and skipped.
func (s *Store) LoadAll() []Descriptor {
	out := make([]Descriptor, 0, len(games.All))
	for _, name := range games.All {
		desc, err := s.Load(name)
		if err != nil {
			s.logger.With("contract", name).With("err", err.Error()).Warn("skipping contract without usable artifacts")
			continue
		}
		out = append(out, desc)
	}
	return out
}

// WriteRecord overwrites the record at path.
func (s *Store) WriteRecord(path string, record Record) error {
	if err := s.writer.WriteJSON(path, record); err != nil {
		return fmt.Errorf("failed to write deployment record: %w", err)
	}
	return nil
}

func (s *Store) ReadRecord(path string) (Record, error) {
	var record Record
	if err := s.reader.ReadJSON(path, &record); err != nil {
		return Record{}, fmt.Errorf("failed to read deployment record: %w", err)
	}
	return record, nil
}

func indent(document json.RawMessage) []byte {
	trimmed := bytes.TrimSpace(document)
	var out bytes.Buffer
	if err := json.Indent(&out, trimmed, "", "  "); err != nil {
		return append(bytes.Clone(trimmed), '\n')
	}
	out.WriteByte('\n')
	return out.Bytes()
}
