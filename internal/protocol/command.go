// Package protocol encodes and decodes SSD1306-class controller commands.
//
// Every command of the controller is declared once in a Table as one of
// five shapes:
//
//	Plain            opcode only                        0xE3
//	Bitmask          opcode | option                    0xA4 | 0x0B = 0xAF
//	WithArgs         opcode, masked argument bytes      0x81 0x8F
//	BitmaskWithArgs  opcode | option, masked arguments  0x27 0x00 0x00 ...
//	Mapped           opcode, transform(argument)        0xDA 0x12
//
// Declarations are immutable. Encoding validates options and arity and
// masks arguments silently, the way the controller packs sub-byte fields.
// Decoding checks the leading opcode after removing option bits.
package protocol

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidOption    = errors.New("protocol: invalid option")
	ErrArityMismatch    = errors.New("protocol: arity mismatch")
	ErrMalformedCommand = errors.New("protocol: malformed command")
	ErrUnknownCommand   = errors.New("protocol: unknown command")
	ErrNotSupported     = errors.New("protocol: not supported")
)

// Fields holds the variable parts of a command: the option ORed into the
// opcode byte and the argument bytes that follow it. Mapped commands carry
// their untransformed value in Args[0].
type Fields struct {
	Option byte
	Args   []byte
}

// Opt returns Fields carrying only an option.
func Opt(option byte) Fields {
	return Fields{Option: option}
}

// Args returns Fields carrying only arguments.
func Args(args ...byte) Fields {
	return Fields{Args: args}
}

// OptArgs returns Fields carrying an option and arguments.
func OptArgs(option byte, args ...byte) Fields {
	return Fields{Option: option, Args: args}
}

// Command is one entry of the controller command table.
type Command interface {
	Name() string
	Opcode() byte
	// Mask is the set of opcode bits that carry the option. Zero for
	// commands whose first byte is fixed.
	Mask() byte
	Arity() int
	Encode(f Fields) ([]byte, error)
	// Decode parses the command at the start of data and returns its fields
	// and the bytes following it.
	Decode(data []byte) (Fields, []byte, error)
}

type base struct {
	name   string
	opcode byte
}

func (b base) Name() string {
	return b.name
}

func (b base) Opcode() byte {
	return b.opcode
}

func (b base) String() string {
	return fmt.Sprintf("%s(0x%02X)", b.name, b.opcode)
}

// Plain is an opcode-only command.
type Plain struct {
	base
}

func NewPlain(name string, opcode byte) *Plain {
	return &Plain{base{name, opcode}}
}

func (c *Plain) Mask() byte {
	return 0
}

func (c *Plain) Arity() int {
	return 0
}

func (c *Plain) Encode(f Fields) ([]byte, error) {
	if len(f.Args) != 0 {
		return nil, fmt.Errorf("%w: %s takes no argument, got %d", ErrArityMismatch, c.name, len(f.Args))
	}
	return []byte{c.opcode}, nil
}

func (c *Plain) Decode(data []byte) (Fields, []byte, error) {
	if len(data) < 1 {
		return Fields{}, data, fmt.Errorf("%w: %s: empty input", ErrMalformedCommand, c.name)
	}
	if data[0] != c.opcode {
		return Fields{}, data, fmt.Errorf("%w: expected 0x%02X, got 0x%02X", ErrMalformedCommand, c.opcode, data[0])
	}
	return Fields{}, data[1:], nil
}

// Bitmask is an opcode ORed with an option. The option must fit the mask
// and, when options is non-nil, be one of them.
type Bitmask struct {
	base
	mask    byte
	options []byte
}

func NewBitmask(name string, opcode, mask byte, options ...byte) *Bitmask {
	if opcode&mask != 0 {
		panic(fmt.Sprintf("protocol: %s: opcode 0x%02X overlaps mask 0x%02X", name, opcode, mask))
	}
	return &Bitmask{base: base{name, opcode}, mask: mask, options: options}
}

func (c *Bitmask) Mask() byte {
	return c.mask
}

func (c *Bitmask) Arity() int {
	return 0
}

// Options returns the allowed options, nil when any masked value is allowed.
func (c *Bitmask) Options() []byte {
	return c.options
}

func (c *Bitmask) allowed(option byte) bool {
	if c.options == nil {
		return true
	}
	for _, o := range c.options {
		if o == option {
			return true
		}
	}
	return false
}

func (c *Bitmask) encodeOption(option byte) (byte, error) {
	if option&^c.mask != 0 {
		return 0, fmt.Errorf("%w: 0x%02X does not fit %s mask 0x%02X", ErrInvalidOption, option, c.name, c.mask)
	}
	if !c.allowed(option) {
		return 0, fmt.Errorf("%w: 0x%02X not in %s options % X", ErrInvalidOption, option, c.name, c.options)
	}
	return c.opcode | option, nil
}

func (c *Bitmask) decodeOption(data []byte) (byte, error) {
	if len(data) < 1 {
		return 0, fmt.Errorf("%w: %s: empty input", ErrMalformedCommand, c.name)
	}
	if data[0]&^c.mask != c.opcode {
		return 0, fmt.Errorf("%w: expected 0x%02X under mask 0x%02X, got 0x%02X", ErrMalformedCommand, c.opcode, c.mask, data[0])
	}
	option := data[0] & c.mask
	if !c.allowed(option) {
		return 0, fmt.Errorf("%w: 0x%02X not in %s options % X", ErrInvalidOption, option, c.name, c.options)
	}
	return option, nil
}

func (c *Bitmask) Encode(f Fields) ([]byte, error) {
	if len(f.Args) != 0 {
		return nil, fmt.Errorf("%w: %s takes no argument, got %d", ErrArityMismatch, c.name, len(f.Args))
	}
	b, err := c.encodeOption(f.Option)
	if err != nil {
		return nil, err
	}
	return []byte{b}, nil
}

func (c *Bitmask) Decode(data []byte) (Fields, []byte, error) {
	option, err := c.decodeOption(data)
	if err != nil {
		return Fields{}, data, err
	}
	return Fields{Option: option}, data[1:], nil
}

// argMasks describes the argument bytes following an opcode.
type argMasks []byte

func newArgMasks(name string, argc int, masks []byte) argMasks {
	if masks == nil {
		masks = make([]byte, argc)
		for i := range masks {
			masks[i] = 0xFF
		}
	}
	if len(masks) != argc {
		panic(fmt.Sprintf("protocol: %s: expected %d argument masks, got %d", name, argc, len(masks)))
	}
	return masks
}

func (m argMasks) encode(name string, dst []byte, args []byte) ([]byte, error) {
	if len(args) != len(m) {
		return nil, fmt.Errorf("%w: %s expects %d arguments, got %d", ErrArityMismatch, name, len(m), len(args))
	}
	for i, arg := range args {
		dst = append(dst, arg&m[i])
	}
	return dst, nil
}

func (m argMasks) decode(name string, data []byte) ([]byte, []byte, error) {
	if len(data) < 1+len(m) {
		return nil, data, fmt.Errorf("%w: %s expects %d bytes, got %d", ErrMalformedCommand, name, 1+len(m), len(data))
	}
	args := make([]byte, len(m))
	for i := range m {
		args[i] = data[1+i] & m[i]
	}
	return args, data[1+len(m):], nil
}

// WithArgs is an opcode followed by a fixed number of masked arguments.
type WithArgs struct {
	base
	masks argMasks
}

// NewWithArgs declares a command taking argc arguments. A nil masks slice
// leaves every argument unmasked.
func NewWithArgs(name string, opcode byte, argc int, masks []byte) *WithArgs {
	return &WithArgs{base: base{name, opcode}, masks: newArgMasks(name, argc, masks)}
}

func (c *WithArgs) Mask() byte {
	return 0
}

func (c *WithArgs) Arity() int {
	return len(c.masks)
}

func (c *WithArgs) Encode(f Fields) ([]byte, error) {
	return c.masks.encode(c.name, []byte{c.opcode}, f.Args)
}

func (c *WithArgs) Decode(data []byte) (Fields, []byte, error) {
	if len(data) >= 1 && data[0] != c.opcode {
		return Fields{}, data, fmt.Errorf("%w: expected 0x%02X, got 0x%02X", ErrMalformedCommand, c.opcode, data[0])
	}
	args, rest, err := c.masks.decode(c.name, data)
	if err != nil {
		return Fields{}, data, err
	}
	return Fields{Args: args}, rest, nil
}

// BitmaskWithArgs combines an option in the opcode byte with arguments.
type BitmaskWithArgs struct {
	Bitmask
	masks argMasks
}

func NewBitmaskWithArgs(name string, opcode, mask byte, options []byte, argc int, masks []byte) *BitmaskWithArgs {
	return &BitmaskWithArgs{
		Bitmask: *NewBitmask(name, opcode, mask, options...),
		masks:   newArgMasks(name, argc, masks),
	}
}

func (c *BitmaskWithArgs) Arity() int {
	return len(c.masks)
}

func (c *BitmaskWithArgs) Encode(f Fields) ([]byte, error) {
	if len(f.Args) != len(c.masks) {
		return nil, fmt.Errorf("%w: %s expects %d arguments, got %d", ErrArityMismatch, c.name, len(c.masks), len(f.Args))
	}
	b, err := c.encodeOption(f.Option)
	if err != nil {
		return nil, err
	}
	return c.masks.encode(c.name, []byte{b}, f.Args)
}

func (c *BitmaskWithArgs) Decode(data []byte) (Fields, []byte, error) {
	option, err := c.decodeOption(data)
	if err != nil {
		return Fields{}, data, err
	}
	args, rest, err := c.masks.decode(c.name, data)
	if err != nil {
		return Fields{}, data, err
	}
	return Fields{Option: option, Args: args}, rest, nil
}

// Mapped is an opcode followed by one byte computed from a value in
// [0, max] by forward. Decoding applies inverse and rejects bytes forward
// can not produce, so decode(encode(x)) == x over the whole domain.
type Mapped struct {
	base
	max     byte
	forward func(byte) byte
	inverse func(byte) byte
}

func NewMapped(name string, opcode, max byte, forward, inverse func(byte) byte) *Mapped {
	return &Mapped{base: base{name, opcode}, max: max, forward: forward, inverse: inverse}
}

func (c *Mapped) Mask() byte {
	return 0
}

func (c *Mapped) Arity() int {
	return 1
}

// Max is the largest value of the transform domain.
func (c *Mapped) Max() byte {
	return c.max
}

func (c *Mapped) Encode(f Fields) ([]byte, error) {
	if len(f.Args) != 1 {
		return nil, fmt.Errorf("%w: %s expects 1 argument, got %d", ErrArityMismatch, c.name, len(f.Args))
	}
	x := f.Args[0]
	if x > c.max {
		return nil, fmt.Errorf("%w: %s value %d outside 0-%d", ErrInvalidOption, c.name, x, c.max)
	}
	return []byte{c.opcode, c.forward(x)}, nil
}

func (c *Mapped) Decode(data []byte) (Fields, []byte, error) {
	if len(data) < 2 {
		return Fields{}, data, fmt.Errorf("%w: %s expects 2 bytes, got %d", ErrMalformedCommand, c.name, len(data))
	}
	if data[0] != c.opcode {
		return Fields{}, data, fmt.Errorf("%w: expected 0x%02X, got 0x%02X", ErrMalformedCommand, c.opcode, data[0])
	}
	x := c.inverse(data[1])
	if x > c.max || c.forward(x) != data[1] {
		return Fields{}, data, fmt.Errorf("%w: %s argument 0x%02X", ErrMalformedCommand, c.name, data[1])
	}
	return Fields{Args: []byte{x}}, data[2:], nil
}
