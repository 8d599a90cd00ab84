package ec

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/ecfan/ecfan/internal/util"
	cmap "github.com/orcaman/concurrent-map/v2"
	"golang.org/x/exp/slices"
)

const (
	SourceTypePort    = "port"
	SourceTypeDebugFs = "debugfs"

	DefaultDebugFsPath = "/sys/kernel/debug/ec/ec0/io"

	modprobeExecutable = "/sbin/modprobe"
	debugModule        = "ec_sys"
)

var (
	SourceMap = cmap.New[TelemetrySource]()
)

// TelemetrySource yields one Snapshot per call to Read.
type TelemetrySource interface {
	GetId() string
	Read() (Snapshot, error)
}

// RegisterReader is the read side of a Transport.
type RegisterReader interface {
	ReadRegister(address byte) (byte, error)
}

// PortSource reads each register with its own handshake transaction.
type PortSource struct {
	Reader RegisterReader
}

func (s *PortSource) GetId() string {
	return SourceTypePort
}

// Read returns a partial snapshot if only some registers timed out.
// The offending fields are listed in Snapshot.Invalid.
func (s *PortSource) Read() (Snapshot, error) {
	var snapshot Snapshot
	var errs []error

	read := func(field Field, address byte) byte {
		value, err := s.Reader.ReadRegister(address)
		if err != nil {
			if !slices.Contains(snapshot.Invalid, field) {
				snapshot.Invalid = append(snapshot.Invalid, field)
			}
			errs = append(errs, fmt.Errorf("%s: %w", field, err))
		}
		return value
	}

	snapshot.CpuTemp = int(read(FieldCpuTemp, RegisterCpuTemp))
	snapshot.GpuTemp = int(read(FieldGpuTemp, RegisterGpuTemp))
	snapshot.FanDuty = RawToDuty(read(FieldFanDuty, RegisterFanDuty))
	hi := read(FieldFanRpm, RegisterFanRpmHi)
	lo := read(FieldFanRpm, RegisterFanRpmLo)
	if snapshot.IsValid(FieldFanRpm) {
		snapshot.FanRpm = DecodeRpm(hi, lo)
	}

	if len(snapshot.Invalid) >= 4 {
		return snapshot, errors.Join(errs...)
	}
	return snapshot, nil
}

// DebugFsSource reads the full register block exposed by the ec_sys kernel module.
type DebugFsSource struct {
	Path string
}

func (s *DebugFsSource) GetId() string {
	return SourceTypeDebugFs
}

func (s *DebugFsSource) Read() (Snapshot, error) {
	path := s.Path
	if len(path) <= 0 {
		path = DefaultDebugFsPath
	}
	file, err := os.Open(path)
	if err != nil {
		return Snapshot{}, err
	}
	defer func(file *os.File) {
		_ = file.Close()
	}(file)

	// read one byte more than expected to detect oversized blocks
	block := make([]byte, RegisterBlockSize+1)
	n, err := io.ReadFull(file, block)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return Snapshot{}, err
	}
	return DecodeRegisterBlock(block[:n])
}

// LoadDebugModule makes sure the ec_sys module providing the register dump is loaded.
func LoadDebugModule() error {
	_, err := util.SafeCmdExecution(modprobeExecutable, []string{debugModule}, 5*time.Second)
	return err
}

func NewSource(sourceType string, transport RegisterReader, debugFsPath string) (TelemetrySource, error) {
	switch sourceType {
	case SourceTypePort:
		if transport == nil {
			return nil, fmt.Errorf("source %s requires port access", sourceType)
		}
		return &PortSource{Reader: transport}, nil
	case SourceTypeDebugFs:
		return &DebugFsSource{Path: debugFsPath}, nil
	}
	return nil, fmt.Errorf("no matching telemetry source type: %s", sourceType)
}
