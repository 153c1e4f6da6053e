package radio

import (
	"io"
)

// Wire codec for frames carried over the hub relay:
// 6 bytes from | 6 bytes to | payload.
const headerLen = 12

func EncodeFrame(f Frame) []byte {
	buf := make([]byte, headerLen+len(f.Payload))
	copy(buf[0:6], f.From[:])
	copy(buf[6:12], f.To[:])
	copy(buf[12:], f.Payload)
	return buf
}

func DecodeFrame(data []byte) (Frame, error) {
	if len(data) < headerLen {
		return Frame{}, io.ErrShortBuffer
	}
	var f Frame
	copy(f.From[:], data[0:6])
	copy(f.To[:], data[6:12])
	f.Payload = append([]byte(nil), data[headerLen:]...)
	return f, nil
}
