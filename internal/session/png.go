package session

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"
	"image"
	"image/png"
	"io"
	"sort"

	"github.com/pkg/errors"
)

// pngSignature is the 8-byte magic every PNG stream starts with.
var pngSignature = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}

// EncodeWithText encodes img as a PNG and inserts one tEXt chunk per
// metadata entry immediately after IHDR, per §6's "text metadata chunks
// containing every key of info". The standard image/png encoder has no
// metadata hook, so this re-parses its output chunk stream once to splice
// the tEXt chunks in — there is no third-party PNG metadata library in the
// dependency pack to reach for instead (see DESIGN.md).
func EncodeWithText(w io.Writer, img image.Image, metadata map[string]string) error {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return errors.Wrap(err, "session: encoding png")
	}
	return spliceText(w, buf.Bytes(), metadata)
}

func spliceText(w io.Writer, encoded []byte, metadata map[string]string) error {
	if len(encoded) < len(pngSignature) || !bytes.Equal(encoded[:len(pngSignature)], pngSignature) {
		return errors.New("session: not a PNG stream")
	}
	if _, err := w.Write(encoded[:len(pngSignature)]); err != nil {
		return err
	}
	pos := len(pngSignature)
	wroteText := false

	keys := make([]string, 0, len(metadata))
	for k := range metadata {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for pos < len(encoded) {
		if pos+8 > len(encoded) {
			return errors.New("session: truncated png chunk header")
		}
		length := binary.BigEndian.Uint32(encoded[pos : pos+4])
		typ := string(encoded[pos+4 : pos+8])
		chunkEnd := pos + 8 + int(length) + 4
		if chunkEnd > len(encoded) {
			return errors.New("session: truncated png chunk body")
		}
		if _, err := w.Write(encoded[pos:chunkEnd]); err != nil {
			return err
		}
		if typ == "IHDR" && !wroteText {
			for _, k := range keys {
				if err := writeTextChunk(w, k, metadata[k]); err != nil {
					return err
				}
			}
			wroteText = true
		}
		pos = chunkEnd
	}
	return nil
}

// writeTextChunk writes one uncompressed tEXt chunk: keyword, null
// separator, text, per the PNG spec (§11.3.4.3).
func writeTextChunk(w io.Writer, keyword, text string) error {
	body := make([]byte, 0, len(keyword)+1+len(text))
	body = append(body, keyword...)
	body = append(body, 0)
	body = append(body, text...)

	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(body)))
	if _, err := w.Write(lenBuf[:]); err != nil {
		return err
	}
	typeAndBody := append([]byte("tEXt"), body...)
	if _, err := w.Write(typeAndBody); err != nil {
		return err
	}
	crc := crc32.ChecksumIEEE(typeAndBody)
	var crcBuf [4]byte
	binary.BigEndian.PutUint32(crcBuf[:], crc)
	_, err := w.Write(crcBuf[:])
	return err
}
