package protocol

import "fmt"

// EncodeWide encodes text as UTF-16LE code units, one per character.
// Characters outside the 16-bit range are rejected rather than split into
// surrogate pairs, and text longer than MaxStringChars fails with ErrValueTooLong.
func EncodeWide(text string) ([]byte, error) {
	runes := []rune(text)
	if len(runes) > MaxStringChars {
		return nil, fmt.Errorf("%d characters exceeds maximum %d: %w", len(runes), MaxStringChars, ErrValueTooLong)
	}

	out := make([]byte, 2*len(runes))
	for i, r := range runes {
		if r < 0 || r > 0xFFFF {
			return nil, fmt.Errorf("character %q at %d: %w", r, i, ErrInvalidChar)
		}
		PutUint16(out[2*i:], uint16(r))
	}
	return out, nil
}

// DecodeWide decodes exactly count UTF-16LE code units from b.
// It fails with ErrLengthExceeded if count exceeds capacity.
func DecodeWide(b []byte, count, capacity int) (string, error) {
	if count < 0 {
		return "", fmt.Errorf("negative character count %d: %w", count, ErrMalformedString)
	}
	if count > capacity {
		return "", fmt.Errorf("%d characters, capacity %d: %w", count, capacity, ErrLengthExceeded)
	}
	if 2*count > len(b) {
		return "", fmt.Errorf("%d characters need %d bytes, got %d: %w", count, 2*count, len(b), ErrMalformedString)
	}

	runes := make([]rune, count)
	for i := range runes {
		runes[i] = rune(Uint16(b[2*i:]))
	}
	return string(runes), nil
}

// putDeviceString writes a string descriptor into a payload:
//
//	[LEN][0x03][UTF-16LE...]
//
// where LEN = 2*chars + 2.
func putDeviceString(payload []byte, text string) error {
	wide, err := EncodeWide(text)
	if err != nil {
		return err
	}
	payload[0] = byte(len(wide) + stringPrefixSize)
	payload[1] = StringDescriptorTag
	copy(payload[stringPrefixSize:], wide)
	return nil
}

// deviceString decodes a string descriptor from a payload.
func deviceString(payload []byte, capacity int) (string, error) {
	total := int(payload[0])
	if total < stringPrefixSize || total > PayloadSize {
		return "", fmt.Errorf("descriptor length %d: %w", total, ErrMalformedString)
	}
	count := (total - stringPrefixSize) / 2
	return DecodeWide(payload[stringPrefixSize:], count, capacity)
}
