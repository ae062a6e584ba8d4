package console

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gosnmp/gosnmp"

	"github.com/nerrad567/privet-harness/internal/infrastructure/config"
	"github.com/nerrad567/privet-harness/internal/infrastructure/logging"
)

// Printer-MIB and HOST-RESOURCES-MIB object identifiers, instance 1.
const (
	oidSysDescr                    = ".1.3.6.1.2.1.1.1.0"
	oidSysName                     = ".1.3.6.1.2.1.1.5.0"
	oidSysLocation                 = ".1.3.6.1.2.1.1.6.0"
	oidHrDeviceStatus              = ".1.3.6.1.2.1.25.3.2.1.5.1"
	oidHrPrinterStatus             = ".1.3.6.1.2.1.25.3.5.1.1.1"
	oidHrPrinterDetectedErrorState = ".1.3.6.1.2.1.25.3.5.1.2.1"
	oidPrtConsoleDisplayBuffer     = ".1.3.6.1.2.1.43.16.5.1.2"
)

// hrPrinterStatus enumeration (RFC 2790).
var printerStatusNames = map[int]string{
	1: "other",
	2: "unknown",
	3: "idle",
	4: "printing",
	5: "warmup",
}

// hrPrinterDetectedErrorState bit positions, most significant bit first
// (RFC 3805 section 2.2.13.2).
var errorStateBits = []string{
	"lowPaper",
	"noPaper",
	"lowToner",
	"noToner",
	"doorOpen",
	"jammed",
	"offline",
	"serviceRequested",
}

// SNMPConsole reads printer status straight from the device's SNMP agent
// using the standard Printer-MIB, so it works against any network printer
// without vendor tooling. The printer name passed to the status methods is
// ignored; the agent address is fixed at construction time.
type SNMPConsole struct {
	target string
	cfg    config.SNMPConfig
	logger *logging.Logger
}

// NewSNMPConsole returns a console that queries the SNMP agent at target.
func NewSNMPConsole(target string, cfg config.SNMPConfig, logger *logging.Logger) *SNMPConsole {
	if logger == nil {
		logger = logging.Default()
	}
	return &SNMPConsole{
		target: target,
		cfg:    cfg,
		logger: logger.With("component", "snmp_console", "target", target),
	}
}

// connect builds and opens a v2c session. The caller closes the returned
// connection.
func (s *SNMPConsole) connect(ctx context.Context) (*gosnmp.GoSNMP, error) {
	client := &gosnmp.GoSNMP{
		Target:    s.target,
		Port:      uint16(s.cfg.Port),
		Community: s.cfg.Community,
		Version:   gosnmp.Version2c,
		Timeout:   time.Duration(s.cfg.Timeout) * time.Second,
		Retries:   s.cfg.Retries,
		MaxOids:   gosnmp.MaxOids,
		Context:   ctx,
	}
	if err := client.Connect(); err != nil {
		return nil, fmt.Errorf("snmp connect to %s: %w", s.target, err)
	}
	return client, nil
}

// getOne fetches a single OID and returns its PDU.
func (s *SNMPConsole) getOne(ctx context.Context, oid string) (gosnmp.SnmpPDU, error) {
	client, err := s.connect(ctx)
	if err != nil {
		return gosnmp.SnmpPDU{}, err
	}
	defer client.Conn.Close()

	result, err := client.Get([]string{oid})
	if err != nil {
		return gosnmp.SnmpPDU{}, fmt.Errorf("snmp get %s: %w", oid, err)
	}
	if result.Error != gosnmp.NoError || len(result.Variables) == 0 {
		return gosnmp.SnmpPDU{}, fmt.Errorf("%w: %s (agent error %v)", ErrFieldUnavailable, oid, result.Error)
	}

	pdu := result.Variables[0]
	if pdu.Type == gosnmp.NoSuchObject || pdu.Type == gosnmp.NoSuchInstance {
		return gosnmp.SnmpPDU{}, fmt.Errorf("%w: %s not implemented by agent", ErrFieldUnavailable, oid)
	}
	return pdu, nil
}

func pduString(pdu gosnmp.SnmpPDU) string {
	if b, ok := pdu.Value.([]byte); ok {
		return strings.TrimRight(string(b), "\x00 ")
	}
	return fmt.Sprintf("%v", pdu.Value)
}

// GetStatus maps hrPrinterStatus to its enumeration name.
func (s *SNMPConsole) GetStatus(ctx context.Context, _ string) (string, error) {
	pdu, err := s.getOne(ctx, oidHrPrinterStatus)
	if err != nil {
		return "", err
	}

	code := int(gosnmp.ToBigInt(pdu.Value).Int64())
	name, ok := printerStatusNames[code]
	if !ok {
		return "", fmt.Errorf("%w: unexpected hrPrinterStatus %d", ErrFieldUnavailable, code)
	}
	return name, nil
}

// GetErrorState decodes the hrPrinterDetectedErrorState bitmask into a
// comma-separated list of condition names, "" when no bit is set.
func (s *SNMPConsole) GetErrorState(ctx context.Context, _ string) (string, error) {
	pdu, err := s.getOne(ctx, oidHrPrinterDetectedErrorState)
	if err != nil {
		return "", err
	}

	raw, ok := pdu.Value.([]byte)
	if !ok {
		return "", fmt.Errorf("%w: hrPrinterDetectedErrorState is not an octet string", ErrFieldUnavailable)
	}
	return decodeErrorState(raw), nil
}

// decodeErrorState expands the first octet of the detected-error-state
// bitmask. Additional octets are vendor-specific and ignored.
func decodeErrorState(raw []byte) string {
	if len(raw) == 0 {
		return ""
	}

	var conditions []string
	for i, name := range errorStateBits {
		if raw[0]&(0x80>>i) != 0 {
			conditions = append(conditions, name)
		}
	}
	return strings.Join(conditions, ",")
}

// GetWarningState reports "warning" when hrDeviceStatus says so, "" for
// the running and unknown states.
func (s *SNMPConsole) GetWarningState(ctx context.Context, _ string) (string, error) {
	pdu, err := s.getOne(ctx, oidHrDeviceStatus)
	if err != nil {
		return "", err
	}

	switch gosnmp.ToBigInt(pdu.Value).Int64() {
	case 3: // warning(3)
		return "warning", nil
	case 5: // down(5)
		return "down", nil
	default:
		return "", nil
	}
}

// GetStateMessages walks the operator console display buffer and returns
// its text lines.
func (s *SNMPConsole) GetStateMessages(ctx context.Context, _ string) ([]string, error) {
	client, err := s.connect(ctx)
	if err != nil {
		return nil, err
	}
	defer client.Conn.Close()

	var messages []string
	err = client.BulkWalk(oidPrtConsoleDisplayBuffer, func(pdu gosnmp.SnmpPDU) error {
		if pdu.Type != gosnmp.OctetString {
			return nil
		}
		if line := pduString(pdu); line != "" {
			messages = append(messages, line)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("snmp walk console display: %w", err)
	}
	return messages, nil
}

// GetDetails returns the agent's system group identification fields.
func (s *SNMPConsole) GetDetails(ctx context.Context, _ string) (map[string]string, error) {
	client, err := s.connect(ctx)
	if err != nil {
		return nil, err
	}
	defer client.Conn.Close()

	oids := map[string]string{
		"description": oidSysDescr,
		"name":        oidSysName,
		"location":    oidSysLocation,
	}

	details := make(map[string]string)
	for label, oid := range oids {
		result, err := client.Get([]string{oid})
		if err != nil {
			return nil, fmt.Errorf("snmp get %s: %w", oid, err)
		}
		for _, pdu := range result.Variables {
			if pdu.Type == gosnmp.NoSuchObject || pdu.Type == gosnmp.NoSuchInstance {
				continue
			}
			if v := pduString(pdu); v != "" {
				details[label] = v
			}
		}
	}
	return details, nil
}

// GetCapabilityDocument is not available over SNMP; the Printer-MIB has no
// notion of a CDD.
func (s *SNMPConsole) GetCapabilityDocument(_ context.Context, _ string) ([]byte, error) {
	return nil, fmt.Errorf("%w: capability document over snmp", ErrUnsupported)
}
